package gatekeeper

import (
	"context"

	"github.com/dmitrymomot/gatekeeper/pkg/session"
)

type sessionKey struct{}

// WithSession returns a copy of ctx carrying sess.
func WithSession(ctx context.Context, sess *session.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sess)
}

// SessionFrom returns the session of an allowed request, or nil for
// anonymous requests. Sessions built from HTTP Basic credentials have no
// token.
func SessionFrom(ctx context.Context) *session.Session {
	sess, _ := ctx.Value(sessionKey{}).(*session.Session)
	return sess
}

// Principal returns the identity of the current user, or "".
func Principal(ctx context.Context) string {
	if sess := SessionFrom(ctx); sess != nil {
		return sess.Identity
	}
	return ""
}

// HasRole reports whether the current user holds role.
func HasRole(ctx context.Context, role string) bool {
	sess := SessionFrom(ctx)
	return sess != nil && sess.HasRole(role)
}
