package session

import "context"

// Store defines the interface for session persistence.
// Implementations must be safe for concurrent use.
type Store interface {
	// Create persists a new session.
	Create(ctx context.Context, s *Session) error

	// Get retrieves a session by its token.
	// Returns ErrNotFound if the session doesn't exist.
	// Returns ErrExpired if the session has expired.
	Get(ctx context.Context, token string) (*Session, error)

	// Delete removes a session by its token.
	// Deleting an unknown token is not an error.
	Delete(ctx context.Context, token string) error

	// DeleteByIdentity removes all sessions of an identity.
	// Useful for "logout from all devices" functionality.
	DeleteByIdentity(ctx context.Context, identity string) error
}

func validate(s *Session) error {
	if s == nil || s.Token == "" || s.Identity == "" {
		return ErrInvalidSession
	}
	return nil
}
