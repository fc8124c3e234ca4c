package session_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/gatekeeper/pkg/session"
)

func newSession(t *testing.T, identity string, ttl time.Duration) *session.Session {
	t.Helper()

	sess, err := session.New(identity, []string{"USER"}, ttl)
	require.NoError(t, err)
	return sess
}

func TestMemoryStore_CreateGet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := session.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })

	sess := newSession(t, "user", time.Hour)
	require.NoError(t, store.Create(ctx, sess))

	got, err := store.Get(ctx, sess.Token)
	require.NoError(t, err)
	require.Equal(t, sess.ID, got.ID)
	require.Equal(t, "user", got.Identity)
	require.Equal(t, []string{"USER"}, got.Roles)

	// Returned sessions are copies.
	got.Roles[0] = "ADMIN"
	again, err := store.Get(ctx, sess.Token)
	require.NoError(t, err)
	require.Equal(t, []string{"USER"}, again.Roles)
}

func TestMemoryStore_Errors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := session.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })

	t.Run("unknown token", func(t *testing.T) {
		t.Parallel()

		_, err := store.Get(ctx, "missing")
		require.ErrorIs(t, err, session.ErrNotFound)
	})

	t.Run("empty token", func(t *testing.T) {
		t.Parallel()

		_, err := store.Get(ctx, "")
		require.ErrorIs(t, err, session.ErrInvalidToken)
	})

	t.Run("invalid session", func(t *testing.T) {
		t.Parallel()

		require.ErrorIs(t, store.Create(ctx, nil), session.ErrInvalidSession)
		require.ErrorIs(t, store.Create(ctx, &session.Session{Token: "t"}), session.ErrInvalidSession)
	})

	t.Run("expired session", func(t *testing.T) {
		t.Parallel()

		sess := newSession(t, "expired", time.Hour)
		sess.ExpiresAt = time.Now().Add(-time.Second)
		require.NoError(t, store.Create(ctx, sess))

		_, err := store.Get(ctx, sess.Token)
		require.ErrorIs(t, err, session.ErrExpired)

		// Lazily removed on lookup.
		_, err = store.Get(ctx, sess.Token)
		require.ErrorIs(t, err, session.ErrNotFound)
	})
}

func TestMemoryStore_Delete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := session.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })

	sess := newSession(t, "user", time.Hour)
	require.NoError(t, store.Create(ctx, sess))

	require.NoError(t, store.Delete(ctx, sess.Token))
	_, err := store.Get(ctx, sess.Token)
	require.ErrorIs(t, err, session.ErrNotFound)

	// Idempotent.
	require.NoError(t, store.Delete(ctx, sess.Token))
	require.NoError(t, store.Delete(ctx, ""))
	require.Equal(t, 0, store.Len())
}

func TestMemoryStore_DeleteByIdentity(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := session.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })

	a1 := newSession(t, "alice", time.Hour)
	a2 := newSession(t, "alice", time.Hour)
	b1 := newSession(t, "bob", time.Hour)
	for _, s := range []*session.Session{a1, a2, b1} {
		require.NoError(t, store.Create(ctx, s))
	}

	require.NoError(t, store.DeleteByIdentity(ctx, "alice"))

	_, err := store.Get(ctx, a1.Token)
	require.ErrorIs(t, err, session.ErrNotFound)
	_, err = store.Get(ctx, a2.Token)
	require.ErrorIs(t, err, session.ErrNotFound)

	got, err := store.Get(ctx, b1.Token)
	require.NoError(t, err)
	require.Equal(t, "bob", got.Identity)

	require.NoError(t, store.DeleteByIdentity(ctx, "nobody"))
}

func TestMemoryStore_Janitor(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := session.NewMemoryStore(session.WithCleanupInterval(10 * time.Millisecond))
	t.Cleanup(func() { _ = store.Close() })

	sess := newSession(t, "user", 20*time.Millisecond)
	require.NoError(t, store.Create(ctx, sess))

	require.Eventually(t, func() bool {
		return store.Len() == 0
	}, time.Second, 10*time.Millisecond)
}

func TestMemoryStore_Closed(t *testing.T) {
	t.Parallel()

	store := session.NewMemoryStore()
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())

	err := store.Create(context.Background(), newSession(t, "user", time.Hour))
	require.ErrorIs(t, err, session.ErrClosed)
}

func TestMemoryStore_Concurrent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := session.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })

	var wg sync.WaitGroup
	for range 50 {
		wg.Go(func() {
			sess, err := session.New("user", nil, time.Hour)
			if err != nil {
				return
			}
			_ = store.Create(ctx, sess)
			_, _ = store.Get(ctx, sess.Token)
			_ = store.Delete(ctx, sess.Token)
		})
	}
	wg.Wait()

	require.Equal(t, 0, store.Len())
}
