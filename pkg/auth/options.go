package auth

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/gatekeeper/pkg/logger"
)

// Defaults.
const (
	DefaultLoginPath     = "/login"
	DefaultSuccessURL    = "/dashboard"
	DefaultVerifyTimeout = 5 * time.Second
	DefaultSessionTTL    = 30 * 24 * time.Hour
)

// Option configures an Authenticator.
type Option func(*Authenticator)

// WithLoginPath sets the login entry point. Failure and logout targets
// derive from it unless set explicitly.
// Default: "/login".
func WithLoginPath(p string) Option {
	return func(a *Authenticator) {
		a.loginPath = p
	}
}

// WithSuccessURL sets where to go after login when no continue target applies.
// Default: "/dashboard".
func WithSuccessURL(u string) Option {
	return func(a *Authenticator) {
		a.successURL = u
	}
}

// WithFailureURL sets where to go after a failed login.
// Default: login path + "?error=true".
func WithFailureURL(u string) Option {
	return func(a *Authenticator) {
		a.failureURL = u
	}
}

// WithLogoutURL sets where to go after logout.
// Default: login path + "?logout=true".
func WithLogoutURL(u string) Option {
	return func(a *Authenticator) {
		a.logoutURL = u
	}
}

// WithVerifyTimeout bounds credential verification.
// Default: 5s.
func WithVerifyTimeout(d time.Duration) Option {
	return func(a *Authenticator) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithSessionTTL sets the lifetime of created sessions.
// Default: 30 days.
func WithSessionTTL(d time.Duration) Option {
	return func(a *Authenticator) {
		if d > 0 {
			a.ttl = d
		}
	}
}

// WithLogger sets the logger for authentication events.
// Default: discard.
func WithLogger(l *slog.Logger) Option {
	return func(a *Authenticator) {
		if l != nil {
			a.log = l
		}
	}
}

func defaults() *Authenticator {
	return &Authenticator{
		loginPath:  DefaultLoginPath,
		successURL: DefaultSuccessURL,
		timeout:    DefaultVerifyTimeout,
		ttl:        DefaultSessionTTL,
		log:        logger.Discard(),
	}
}
