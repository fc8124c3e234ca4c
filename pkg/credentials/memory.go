package credentials

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// dummyHash is compared against for unknown identities so a miss costs
// the same bcrypt work as a wrong password.
var dummyHash = sync.OnceValue(func() string {
	h, err := bcrypt.GenerateFromPassword([]byte("gatekeeper-dummy-password"), DefaultCost)
	if err != nil {
		return ""
	}
	return string(h)
})

// Memory is an in-memory Source backed by bcrypt hashes.
// Identities are matched case-insensitively.
type Memory struct {
	users map[string]User
	mu    sync.RWMutex
}

// NewMemory creates a Memory source seeded with users.
func NewMemory(users ...User) (*Memory, error) {
	m := &Memory{users: make(map[string]User, len(users))}
	for _, u := range users {
		if err := m.Add(u); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Add registers a user. PasswordHash must be a bcrypt hash.
func (m *Memory) Add(u User) error {
	key := NormalizeIdentity(u.Identity)
	if key == "" {
		return ErrEmptyIdentity
	}
	if !validHash(u.PasswordHash) {
		return fmt.Errorf("%w: user %q", ErrInvalidHash, u.Identity)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[key]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateUser, u.Identity)
	}
	u.Roles = slices.Clone(u.Roles)
	m.users[key] = u
	return nil
}

// Remove deletes a user. Unknown identities are ignored.
func (m *Memory) Remove(identity string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, NormalizeIdentity(identity))
}

// Len returns the number of registered users.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users)
}

// Verify implements Source.
func (m *Memory) Verify(ctx context.Context, identity, secret string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	u, ok := m.users[NormalizeIdentity(identity)]
	m.mu.RUnlock()

	if !ok {
		_ = compare(dummyHash(), secret)
		return nil, ErrInvalidCredentials
	}
	if secret == "" {
		return nil, ErrInvalidCredentials
	}
	if err := compare(u.PasswordHash, secret); err != nil {
		return nil, err
	}
	return slices.Clone(u.Roles), nil
}

var _ Source = (*Memory)(nil)
