package gatekeeper

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/gatekeeper/pkg/cookie"
)

// Defaults.
const (
	DefaultLogoutPath    = "/logout"
	DefaultUsernameField = "username"
	DefaultPasswordField = "password"
	DefaultBasicRealm    = "Restricted"

	maxFormBytes = 64 << 10
)

// Option configures a Gatekeeper.
type Option func(*options)

type options struct {
	cookies       *cookie.Manager
	secret        string
	cookieOpts    []cookie.Option
	sessionCookie string
	savedCookie   string
	cookieTTL     time.Duration
	log           *slog.Logger
	logoutPath    string
	usernameField string
	passwordField string
	basicRealm    string
	forbidden     http.Handler
	basic         bool
	trustProxy    bool
}

// WithCookies sets the cookie manager used for the session and saved
// request cookies. Takes precedence over WithCookieSecret.
func WithCookies(m *cookie.Manager) Option {
	return func(o *options) {
		o.cookies = m
	}
}

// WithCookieSecret builds a cookie manager from secret (32+ bytes).
func WithCookieSecret(secret string, opts ...cookie.Option) Option {
	return func(o *options) {
		o.secret = secret
		o.cookieOpts = opts
	}
}

// WithSessionCookie sets the session cookie name.
// Default: "__sid".
func WithSessionCookie(name string) Option {
	return func(o *options) {
		o.sessionCookie = name
	}
}

// WithSavedRequestCookie sets the name of the cookie remembering where to
// continue after login.
// Default: "__continue".
func WithSavedRequestCookie(name string) Option {
	return func(o *options) {
		o.savedCookie = name
	}
}

// WithSessionCookieTTL sets the session cookie lifetime.
// Default: the authenticator's session TTL.
func WithSessionCookieTTL(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.cookieTTL = d
		}
	}
}

// WithLogger sets the logger for access decisions and cookie problems.
// Default: discard.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithLogoutPath sets the path Routes mounts HandleLogout on.
// Default: "/logout".
func WithLogoutPath(p string) Option {
	return func(o *options) {
		if p != "" {
			o.logoutPath = p
		}
	}
}

// WithFormFields sets the login form field names.
// Default: "username" and "password".
func WithFormFields(username, password string) Option {
	return func(o *options) {
		if username != "" {
			o.usernameField = username
		}
		if password != "" {
			o.passwordField = password
		}
	}
}

// WithBasicAuth accepts HTTP Basic credentials on requests without a
// session. Requests with wrong Basic credentials get 401 instead of a
// login redirect. An empty realm means "Restricted".
func WithBasicAuth(realm string) Option {
	return func(o *options) {
		o.basic = true
		if realm != "" {
			o.basicRealm = realm
		}
	}
}

// WithForbiddenHandler replaces the plain 403 response for denied requests.
func WithForbiddenHandler(h http.Handler) Option {
	return func(o *options) {
		if h != nil {
			o.forbidden = h
		}
	}
}

// WithTrustProxy resolves the client IP from X-Forwarded-For and
// X-Real-IP. Enable only behind a proxy that sets them.
func WithTrustProxy() Option {
	return func(o *options) {
		o.trustProxy = true
	}
}
