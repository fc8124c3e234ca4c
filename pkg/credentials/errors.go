package credentials

import "errors"

var (
	// ErrInvalidCredentials is returned for an unknown identity or a wrong
	// secret. The two cases are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("credentials: invalid credentials")

	// ErrUnavailable is returned when the backing store cannot answer.
	ErrUnavailable = errors.New("credentials: source unavailable")

	ErrEmptyIdentity = errors.New("credentials: empty identity")
	ErrEmptyPassword = errors.New("credentials: empty password")
	ErrDuplicateUser = errors.New("credentials: duplicate user")
	ErrInvalidHash   = errors.New("credentials: invalid password hash")
	ErrInvalidUsers  = errors.New("credentials: invalid users file")
	ErrHashPassword  = errors.New("credentials: failed to hash password")
	ErrCreateUser    = errors.New("credentials: failed to create user")
)
