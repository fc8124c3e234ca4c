package credentials

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/cases"
)

// Source verifies a secret for an identity and returns the identity's roles.
//
// Implementations return ErrInvalidCredentials when the identity is unknown
// or the secret does not match, and ErrUnavailable (possibly wrapped) when
// the check could not be performed.
type Source interface {
	Verify(ctx context.Context, identity, secret string) ([]string, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context, identity, secret string) ([]string, error)

// Verify calls f.
func (f SourceFunc) Verify(ctx context.Context, identity, secret string) ([]string, error) {
	return f(ctx, identity, secret)
}

// User is a stored principal.
type User struct {
	Identity     string
	PasswordHash string
	Roles        []string
}

// DefaultCost is the bcrypt cost used by HashPassword.
const DefaultCost = bcrypt.DefaultCost

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	return HashPasswordCost(password, DefaultCost)
}

// HashPasswordCost is like HashPassword with an explicit bcrypt cost.
// Tests use bcrypt.MinCost to stay fast.
func HashPasswordCost(password string, cost int) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", errors.Join(ErrHashPassword, err)
	}
	return string(h), nil
}

// NormalizeIdentity trims and case-folds an identity so that "Admin" and
// "admin" name the same user.
func NormalizeIdentity(identity string) string {
	// A Caser is stateful and must not be shared between goroutines.
	return cases.Fold().String(strings.TrimSpace(identity))
}

func compare(hash, secret string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return ErrInvalidCredentials
	default:
		return errors.Join(ErrInvalidCredentials, ErrInvalidHash, err)
	}
}

func validHash(hash string) bool {
	_, err := bcrypt.Cost([]byte(hash))
	return err == nil
}
