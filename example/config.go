package main

import (
	"time"

	"github.com/dmitrymomot/gatekeeper/pkg/db"
	"github.com/dmitrymomot/gatekeeper/pkg/logger"
	"github.com/dmitrymomot/gatekeeper/pkg/redis"
)

// Config is read from the environment.
type Config struct {
	Log      logger.Config
	Redis    redis.Config
	Database db.Config

	Addr         string        `env:"ADDR" envDefault:":8080"`
	CookieSecret string        `env:"COOKIE_SECRET,required,unset"`
	SecureCookie bool          `env:"COOKIE_SECURE" envDefault:"false"`
	TrustProxy   bool          `env:"TRUST_PROXY" envDefault:"false"`
	BasicAuth    bool          `env:"BASIC_AUTH" envDefault:"false"`
	SessionTTL   time.Duration `env:"SESSION_TTL" envDefault:"720h"`

	// Empty uses the embedded policy.yaml.
	PolicyFile string `env:"POLICY_FILE"`
	// Empty seeds the demo users user/12345 and admin/54321.
	UsersFile string `env:"USERS_FILE"`

	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
}
