package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/dmitrymomot/gatekeeper/pkg/credentials"
	"github.com/dmitrymomot/gatekeeper/pkg/session"
)

// Credentials are the login form values plus client metadata recorded on
// the session.
type Credentials struct {
	Identity  string
	Secret    string
	IP        string
	UserAgent string
}

// Authenticator runs the login and logout flows. Session creation is
// serialized per identity and deletion per token.
type Authenticator struct {
	source     credentials.Source
	store      session.Store
	locks      *session.Locker
	log        *slog.Logger
	loginPath  string
	successURL string
	failureURL string
	logoutURL  string
	timeout    time.Duration
	ttl        time.Duration
}

// New creates an Authenticator verifying against source and persisting
// sessions in store.
func New(source credentials.Source, store session.Store, opts ...Option) *Authenticator {
	a := defaults()
	for _, opt := range opts {
		opt(a)
	}
	a.source = source
	a.store = store
	a.locks = session.NewLocker()

	if a.failureURL == "" {
		a.failureURL = a.loginPath + "?error=true"
	}
	if a.logoutURL == "" {
		a.logoutURL = a.loginPath + "?logout=true"
	}
	return a
}

// LoginPath returns the login entry point.
func (a *Authenticator) LoginPath() string {
	return a.loginPath
}

// SessionTTL returns the lifetime of created sessions.
func (a *Authenticator) SessionTTL() time.Duration {
	return a.ttl
}

// Login verifies c and on success creates a session. continueTo is the
// originally requested path; it is used as the redirect target when it is
// a safe local path.
//
// Wrong credentials, an unavailable or slow source, and a failing session
// store all yield the same Failure result with a generic message.
func (a *Authenticator) Login(ctx context.Context, c Credentials, continueTo string) Result {
	identity := credentials.NormalizeIdentity(c.Identity)
	log := a.log.With(slog.String("identity", identity), slog.String("ip", c.IP))

	roles, err := a.verify(ctx, identity, c.Secret)
	if err != nil {
		a.logFailure(ctx, log, err)
		return a.failure()
	}

	sess, err := session.New(identity, roles, a.ttl)
	if err != nil {
		log.ErrorContext(ctx, "failed to create session", slog.Any("error", err))
		return a.failure()
	}
	sess.IP = c.IP
	sess.UserAgent = c.UserAgent

	unlock := a.locks.Lock("identity:" + identity)
	err = a.store.Create(ctx, sess)
	unlock()
	if err != nil {
		log.ErrorContext(ctx, "failed to store session", slog.Any("error", err))
		return a.failure()
	}

	log.InfoContext(ctx, "login succeeded", slog.String("session_id", sess.ID))

	return Result{
		Outcome:        Success,
		Session:        sess,
		RedirectTarget: a.redirectTarget(continueTo),
	}
}

// Logout invalidates the session behind token. Unknown and empty tokens
// succeed, so repeated logouts are harmless.
func (a *Authenticator) Logout(ctx context.Context, token string) Result {
	ok := Result{Outcome: Success, RedirectTarget: a.logoutURL, Message: MsgLoggedOut}
	if token == "" {
		return ok
	}

	unlock := a.locks.Lock("token:" + token)
	defer unlock()

	if err := a.store.Delete(ctx, token); err != nil {
		a.log.ErrorContext(ctx, "failed to delete session", slog.Any("error", err))
		return Result{Outcome: Failure, RedirectTarget: a.loginPath, Message: MsgLogoutFailed}
	}

	a.log.InfoContext(ctx, "logout succeeded")
	return ok
}

// LogoutAll revokes every session of identity.
func (a *Authenticator) LogoutAll(ctx context.Context, identity string) error {
	identity = credentials.NormalizeIdentity(identity)

	unlock := a.locks.Lock("identity:" + identity)
	defer unlock()

	if err := a.store.DeleteByIdentity(ctx, identity); err != nil {
		return fmt.Errorf("revoke sessions of %q: %w", identity, err)
	}
	a.log.InfoContext(ctx, "all sessions revoked", slog.String("identity", identity))
	return nil
}

// Session resolves a session token. Expired and unknown tokens are
// reported with the store's ErrExpired and ErrNotFound.
func (a *Authenticator) Session(ctx context.Context, token string) (*session.Session, error) {
	if token == "" {
		return nil, session.ErrNotFound
	}
	return a.store.Get(ctx, token)
}

// Verify checks c without creating a session and returns a transient
// principal. Used for per-request credentials such as HTTP Basic.
func (a *Authenticator) Verify(ctx context.Context, c Credentials) (*session.Session, error) {
	identity := credentials.NormalizeIdentity(c.Identity)

	roles, err := a.verify(ctx, identity, c.Secret)
	if err != nil {
		a.logFailure(ctx, a.log.With(slog.String("identity", identity), slog.String("ip", c.IP)), err)
		return nil, err
	}

	return &session.Session{
		Identity:  identity,
		Roles:     roles,
		IP:        c.IP,
		UserAgent: c.UserAgent,
		CreatedAt: time.Now(),
	}, nil
}

// verify calls the source with a deadline and stops waiting once it
// passes, even if the source ignores its context.
func (a *Authenticator) verify(ctx context.Context, identity, secret string) ([]string, error) {
	if identity == "" || secret == "" {
		return nil, ErrMissingCredentials
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	type answer struct {
		err   error
		roles []string
	}
	done := make(chan answer, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- answer{err: fmt.Errorf("%w: %v", ErrSourcePanic, r)}
			}
		}()
		roles, err := a.source.Verify(ctx, identity, secret)
		done <- answer{roles: roles, err: err}
	}()

	select {
	case ans := <-done:
		if ans.err != nil && errors.Is(ans.err, context.DeadlineExceeded) {
			return nil, errors.Join(ErrTimeout, ans.err)
		}
		return ans.roles, ans.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, ctx.Err()
	}
}

func (a *Authenticator) logFailure(ctx context.Context, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, credentials.ErrInvalidCredentials), errors.Is(err, ErrMissingCredentials):
		log.InfoContext(ctx, "authentication failed", slog.Any("error", err))
	case errors.Is(err, ErrTimeout):
		log.ErrorContext(ctx, "credential source failed", slog.String("reason", "timeout"), slog.Any("error", err))
	case errors.Is(err, context.Canceled):
		log.WarnContext(ctx, "login aborted", slog.Any("error", err))
	default:
		log.ErrorContext(ctx, "credential source failed", slog.String("reason", "unavailable"), slog.Any("error", err))
	}
}

func (a *Authenticator) failure() Result {
	return Result{Outcome: Failure, RedirectTarget: a.failureURL, Message: MsgBadCredentials}
}

func (a *Authenticator) redirectTarget(continueTo string) string {
	if IsLocalPath(continueTo) && path.Clean(strings.SplitN(continueTo, "?", 2)[0]) != a.loginPath {
		return continueTo
	}
	return a.successURL
}

// IsLocalPath reports whether target is a path on this site and can be
// used as a redirect target without creating an open redirect.
func IsLocalPath(target string) bool {
	if target == "" || target[0] != '/' {
		return false
	}
	if strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return false
	}
	if strings.ContainsFunc(target, func(r rune) bool { return r < 0x20 || r == 0x7f }) {
		return false
	}
	u, err := url.Parse(target)
	if err != nil {
		return false
	}
	return u.Scheme == "" && u.Host == "" && u.User == nil
}
