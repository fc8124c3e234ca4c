package session

import (
	"context"
	"sync"
	"time"
)

// MemoryOption configures the in-memory store.
type MemoryOption func(*memoryOptions)

type memoryOptions struct {
	cleanupInterval time.Duration
}

// WithCleanupInterval enables a janitor goroutine that removes expired
// sessions at the given interval. Expired sessions are otherwise removed
// lazily on lookup.
// Default: 0 (disabled).
func WithCleanupInterval(d time.Duration) MemoryOption {
	return func(o *memoryOptions) {
		o.cleanupInterval = d
	}
}

// MemoryStore is a Store that keeps sessions in process memory.
// Sessions are copied on the way in and out, so callers never share
// state with the store.
type MemoryStore struct {
	byToken    map[string]*Session
	byIdentity map[string]map[string]struct{}
	done       chan struct{}
	mu         sync.Mutex
	closed     bool
}

// NewMemoryStore creates an in-memory session store.
//
// Example:
//
//	store := session.NewMemoryStore(
//	    session.WithCleanupInterval(time.Minute),
//	)
//	defer store.Close()
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	o := &memoryOptions{}
	for _, opt := range opts {
		opt(o)
	}

	m := &MemoryStore{
		byToken:    make(map[string]*Session),
		byIdentity: make(map[string]map[string]struct{}),
		done:       make(chan struct{}),
	}

	if o.cleanupInterval > 0 {
		go m.janitor(o.cleanupInterval)
	}

	return m
}

// Create persists a new session.
func (m *MemoryStore) Create(_ context.Context, s *Session) error {
	if err := validate(s); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	m.byToken[s.Token] = s.Clone()
	tokens, ok := m.byIdentity[s.Identity]
	if !ok {
		tokens = make(map[string]struct{})
		m.byIdentity[s.Identity] = tokens
	}
	tokens[s.Token] = struct{}{}

	return nil
}

// Get retrieves a session by token.
// Expired sessions are removed and reported as ErrExpired.
func (m *MemoryStore) Get(_ context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.byToken[token]
	if !ok {
		return nil, ErrNotFound
	}
	if s.IsExpired() {
		m.remove(s)
		return nil, ErrExpired
	}

	return s.Clone(), nil
}

// Delete removes a session by token.
func (m *MemoryStore) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.byToken[token]; ok {
		m.remove(s)
	}
	return nil
}

// DeleteByIdentity removes every session of identity.
func (m *MemoryStore) DeleteByIdentity(_ context.Context, identity string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for token := range m.byIdentity[identity] {
		delete(m.byToken, token)
	}
	delete(m.byIdentity, identity)
	return nil
}

// Len returns the number of stored sessions, including expired ones
// not yet collected.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byToken)
}

// Close stops the janitor goroutine. Close is idempotent.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	close(m.done)
	return nil
}

func (m *MemoryStore) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.deleteExpired()
		}
	}
}

func (m *MemoryStore) deleteExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.byToken {
		if s.IsExpired() {
			m.remove(s)
		}
	}
}

// remove drops s from both indexes. Caller must hold the mutex.
func (m *MemoryStore) remove(s *Session) {
	delete(m.byToken, s.Token)
	if tokens, ok := m.byIdentity[s.Identity]; ok {
		delete(tokens, s.Token)
		if len(tokens) == 0 {
			delete(m.byIdentity, s.Identity)
		}
	}
}

var _ Store = (*MemoryStore)(nil)
