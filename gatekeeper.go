package gatekeeper

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/gatekeeper/internal"
	"github.com/dmitrymomot/gatekeeper/pkg/auth"
	"github.com/dmitrymomot/gatekeeper/pkg/cookie"
	"github.com/dmitrymomot/gatekeeper/pkg/logger"
	"github.com/dmitrymomot/gatekeeper/pkg/policy"
	"github.com/dmitrymomot/gatekeeper/pkg/session"
)

// Gatekeeper enforces a policy engine over HTTP and serves login and
// logout. It is safe for concurrent use.
type Gatekeeper struct {
	engine    *policy.Engine
	auth      *auth.Authenticator
	sessions  *internal.SessionManager
	log       *slog.Logger
	forbidden http.Handler
	opts      options
}

// New wires engine and authenticator together. Both must agree on the
// login path.
func New(engine *policy.Engine, authenticator *auth.Authenticator, opts ...Option) (*Gatekeeper, error) {
	if engine == nil {
		return nil, ErrNoEngine
	}
	if authenticator == nil {
		return nil, ErrNoAuthenticator
	}
	if engine.LoginPath() != authenticator.LoginPath() {
		return nil, fmt.Errorf("%w: %q and %q", ErrLoginPathMismatch, engine.LoginPath(), authenticator.LoginPath())
	}

	o := options{
		log:           logger.Discard(),
		logoutPath:    DefaultLogoutPath,
		usernameField: DefaultUsernameField,
		passwordField: DefaultPasswordField,
		basicRealm:    DefaultBasicRealm,
		cookieTTL:     authenticator.SessionTTL(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	cookies := o.cookies
	if cookies == nil {
		if o.secret == "" {
			return nil, ErrNoCookies
		}
		m, err := cookie.New(o.secret, o.cookieOpts...)
		if err != nil {
			return nil, err
		}
		cookies = m
	}

	g := &Gatekeeper{
		engine: engine,
		auth:   authenticator,
		sessions: internal.NewSessionManager(cookies,
			internal.WithSessionCookieName(o.sessionCookie),
			internal.WithSavedRequestCookieName(o.savedCookie),
			internal.WithSessionMaxAge(o.cookieTTL),
		),
		log:       o.log,
		forbidden: o.forbidden,
		opts:      o,
	}
	if g.forbidden == nil {
		g.forbidden = http.HandlerFunc(forbidden)
	}
	return g, nil
}

// Routes mounts HandleLogin on POST to the login path and HandleLogout on
// the logout path (GET and POST). The login page itself is left to the
// application.
func (g *Gatekeeper) Routes(r chi.Router) {
	r.Post(g.auth.LoginPath(), g.HandleLogin)
	r.Get(g.opts.logoutPath, g.HandleLogout)
	r.Post(g.opts.logoutPath, g.HandleLogout)
}

// Middleware enforces the policy engine on every request. Non-canonical
// paths get a 301 to their clean form (GET, HEAD) or the forbidden handler.
func (g *Gatekeeper) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The router matches the raw path, the engine the cleaned one.
		// Both must see the same path before any decision is made.
		if clean, ok := internal.CanonicalPath(r); !ok {
			g.nonCanonical(w, r, clean)
			return
		}

		sess := g.loadSession(w, r)

		basicFailed := false
		if sess == nil && g.opts.basic {
			sess, basicFailed = g.basicSession(r)
		}

		d := g.engine.Evaluate(policy.FromHTTP(r, sess))
		g.log.DebugContext(r.Context(), "access decision",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("outcome", d.Outcome.String()),
			slog.String("reason", d.Reason),
			slog.String("pattern", d.Pattern),
		)

		switch d.Outcome {
		case policy.Allow:
			if sess != nil {
				r = r.WithContext(WithSession(r.Context(), sess))
			}
			next.ServeHTTP(w, r)

		case policy.Redirect:
			if basicFailed {
				g.challenge(w)
				return
			}
			if r.Method == http.MethodGet || r.Method == http.MethodHead {
				if err := g.sessions.SaveRequest(w, d.Continue); err != nil {
					g.log.WarnContext(r.Context(), "failed to save request", slog.Any("error", err))
				}
			}
			http.Redirect(w, r, d.Location, http.StatusFound)

		default:
			g.log.InfoContext(r.Context(), "access denied",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("identity", identityOf(sess)),
				slog.String("reason", d.Reason),
			)
			g.forbidden.ServeHTTP(w, r)
		}
	})
}

// nonCanonical sends safe requests to the canonical form of their path and
// rejects the rest.
func (g *Gatekeeper) nonCanonical(w http.ResponseWriter, r *http.Request, clean string) {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		target := url.URL{Path: clean, RawQuery: r.URL.RawQuery}
		http.Redirect(w, r, target.RequestURI(), http.StatusMovedPermanently)
		return
	}
	g.log.InfoContext(r.Context(), "access denied",
		slog.String("method", r.Method),
		slog.String("path", r.URL.EscapedPath()),
		slog.String("reason", "non-canonical path"),
	)
	g.forbidden.ServeHTTP(w, r)
}

// HandleLogin processes the login form. On success any previous session of
// the client is revoked, a new session cookie is set and the client is
// redirected to the saved request or the success URL. On failure the
// client goes back to the login page with ?error=true.
func (g *Gatekeeper) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	res := g.auth.Login(ctx, auth.Credentials{
		Identity:  r.PostForm.Get(g.opts.usernameField),
		Secret:    r.PostForm.Get(g.opts.passwordField),
		IP:        internal.ClientIP(r, g.opts.trustProxy),
		UserAgent: r.UserAgent(),
	}, g.sessions.SavedRequest(r))
	if !res.OK() {
		http.Redirect(w, r, res.RedirectTarget, http.StatusFound)
		return
	}

	if old, err := g.sessions.Token(r); err == nil && old != res.Session.Token {
		if out := g.auth.Logout(ctx, old); !out.OK() {
			g.log.WarnContext(ctx, "failed to revoke previous session", slog.String("identity", res.Session.Identity))
		}
	}

	if err := g.sessions.SaveToken(w, res.Session.Token); err != nil {
		g.log.ErrorContext(ctx, "failed to set session cookie", slog.Any("error", err))
		g.auth.Logout(ctx, res.Session.Token)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	g.sessions.DeleteSavedRequest(w)

	http.Redirect(w, r, res.RedirectTarget, http.StatusFound)
}

// HandleLogout revokes the session behind the cookie, clears the cookie and
// redirects to the login page with ?logout=true. If the session could not
// be revoked the cookie is kept and the client goes to the login page.
func (g *Gatekeeper) HandleLogout(w http.ResponseWriter, r *http.Request) {
	token, _ := g.sessions.Token(r)

	res := g.auth.Logout(r.Context(), token)
	if res.OK() {
		g.sessions.DeleteToken(w)
	}
	http.Redirect(w, r, res.RedirectTarget, http.StatusFound)
}

// loadSession resolves the session cookie. Missing, forged, unknown and
// expired tokens all yield nil; bad cookies are cleared.
func (g *Gatekeeper) loadSession(w http.ResponseWriter, r *http.Request) *session.Session {
	token, err := g.sessions.Token(r)
	if err != nil {
		if internal.IsForged(err) {
			g.log.WarnContext(r.Context(), "invalid session cookie",
				slog.String("ip", internal.ClientIP(r, g.opts.trustProxy)))
			g.sessions.DeleteToken(w)
		}
		return nil
	}

	sess, err := g.auth.Session(r.Context(), token)
	switch {
	case err == nil && sess.IsValid():
		return sess
	case err == nil,
		errors.Is(err, session.ErrNotFound),
		errors.Is(err, session.ErrExpired),
		errors.Is(err, session.ErrInvalidToken):
		g.sessions.DeleteToken(w)
	default:
		g.log.ErrorContext(r.Context(), "failed to load session", slog.Any("error", err))
	}
	return nil
}

// basicSession authenticates HTTP Basic credentials. failed is true when
// credentials were sent but rejected.
func (g *Gatekeeper) basicSession(r *http.Request) (sess *session.Session, failed bool) {
	username, password, ok := r.BasicAuth()
	if !ok {
		return nil, false
	}

	sess, err := g.auth.Verify(r.Context(), auth.Credentials{
		Identity:  username,
		Secret:    password,
		IP:        internal.ClientIP(r, g.opts.trustProxy),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		return nil, true
	}
	return sess, false
}

func (g *Gatekeeper) challenge(w http.ResponseWriter) {
	realm := strings.ReplaceAll(g.opts.basicRealm, `"`, `'`)
	w.Header().Set("WWW-Authenticate", `Basic realm="`+realm+`", charset="UTF-8"`)
	http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
}

func forbidden(w http.ResponseWriter, _ *http.Request) {
	http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
}

func identityOf(sess *session.Session) string {
	if sess == nil {
		return ""
	}
	return sess.Identity
}
