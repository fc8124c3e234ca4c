package session

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Session is the server-side record of an authenticated identity.
// It is created after successful credential verification and destroyed
// on logout or expiry.
type Session struct {
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`

	Roles     []string `json:"roles,omitempty"`
	ID        string   `json:"id"`                   // Stable identifier (UUID)
	Token     string   `json:"token"`                // Cookie token, never logged
	Identity  string   `json:"identity"`             // Authenticated principal name
	IP        string   `json:"ip,omitempty"`         // Client IP at login
	UserAgent string   `json:"user_agent,omitempty"` // Raw User-Agent at login
}

// New creates a session for identity with a fresh ID and token.
// Roles are copied so callers may reuse their slice.
func New(identity string, roles []string, ttl time.Duration) (*Session, error) {
	token, err := NewToken()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return &Session{
		ID:        uuid.NewString(),
		Token:     token,
		Identity:  identity,
		Roles:     slices.Clone(roles),
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}, nil
}

// NewToken creates a cryptographically secure random session token.
func NewToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// IsAuthenticated returns true if the session has an associated identity.
func (s *Session) IsAuthenticated() bool {
	return s != nil && s.Identity != ""
}

// IsExpired returns true if the session has expired.
// A zero ExpiresAt never expires.
func (s *Session) IsExpired() bool {
	if s.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().After(s.ExpiresAt)
}

// IsValid reports whether the session can be used to authorize a request.
// Nil and expired sessions are treated the same as no session at all.
func (s *Session) IsValid() bool {
	return s.IsAuthenticated() && !s.IsExpired()
}

// TTL returns the remaining lifetime. Zero for expired sessions,
// negative for sessions without expiry.
func (s *Session) TTL() time.Duration {
	if s.ExpiresAt.IsZero() {
		return -1
	}
	return max(time.Until(s.ExpiresAt), 0)
}

// HasRole reports whether the session carries role.
func (s *Session) HasRole(role string) bool {
	if s == nil {
		return false
	}
	return slices.Contains(s.Roles, role)
}

// HasAnyRole reports whether the session carries at least one of roles.
// An empty roles list is always satisfied.
func (s *Session) HasAnyRole(roles ...string) bool {
	if len(roles) == 0 {
		return true
	}
	return slices.ContainsFunc(roles, s.HasRole)
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Roles = slices.Clone(s.Roles)
	return &c
}
