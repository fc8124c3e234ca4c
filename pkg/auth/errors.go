package auth

import "errors"

var (
	// ErrTimeout is returned when the credential source does not answer
	// within the verify timeout.
	ErrTimeout = errors.New("auth: credential verification timed out")

	// ErrMissingCredentials is returned for an empty identity or secret.
	ErrMissingCredentials = errors.New("auth: missing credentials")

	// ErrSourcePanic is returned when the credential source panics.
	ErrSourcePanic = errors.New("auth: credential source panicked")
)
