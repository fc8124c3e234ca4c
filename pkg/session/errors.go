package session

import "errors"

// Session errors.
var (
	// ErrNotFound is returned when a session does not exist.
	ErrNotFound = errors.New("session: not found")

	// ErrExpired is returned when a session has expired.
	ErrExpired = errors.New("session: expired")

	// ErrInvalidToken is returned when a session token is empty or malformed.
	ErrInvalidToken = errors.New("session: invalid token")

	// ErrInvalidSession is returned when a session cannot be persisted
	// because required fields are missing.
	ErrInvalidSession = errors.New("session: invalid session")

	// ErrClosed is returned when a store is used after Close.
	ErrClosed = errors.New("session: store closed")
)
