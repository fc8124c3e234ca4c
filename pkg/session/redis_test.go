package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/gatekeeper/pkg/session"
)

func newRedisStore(t *testing.T) (*session.RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return session.NewRedisStore(client, session.WithPrefix("test")), mr
}

func TestRedisStore_CreateGet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, mr := newRedisStore(t)

	sess := newSession(t, "user", time.Hour)
	sess.IP = "10.0.0.1"
	require.NoError(t, store.Create(ctx, sess))

	require.True(t, mr.Exists("test:token:"+sess.Token))
	require.True(t, mr.Exists("test:identity:user"))
	require.InDelta(t, time.Hour.Seconds(), mr.TTL("test:token:"+sess.Token).Seconds(), 2)

	got, err := store.Get(ctx, sess.Token)
	require.NoError(t, err)
	require.Equal(t, sess.ID, got.ID)
	require.Equal(t, sess.Identity, got.Identity)
	require.Equal(t, sess.Roles, got.Roles)
	require.Equal(t, "10.0.0.1", got.IP)
	require.WithinDuration(t, sess.ExpiresAt, got.ExpiresAt, time.Millisecond)
}

func TestRedisStore_Errors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, mr := newRedisStore(t)

	_, err := store.Get(ctx, "missing")
	require.ErrorIs(t, err, session.ErrNotFound)

	_, err = store.Get(ctx, "")
	require.ErrorIs(t, err, session.ErrInvalidToken)

	require.ErrorIs(t, store.Create(ctx, &session.Session{}), session.ErrInvalidSession)

	expired := newSession(t, "user", time.Hour)
	expired.ExpiresAt = time.Now().Add(-time.Minute)
	require.ErrorIs(t, store.Create(ctx, expired), session.ErrExpired)

	t.Run("key expiry removes the session", func(t *testing.T) {
		sess := newSession(t, "ttl", time.Minute)
		require.NoError(t, store.Create(ctx, sess))

		mr.FastForward(2 * time.Minute)

		_, err := store.Get(ctx, sess.Token)
		require.ErrorIs(t, err, session.ErrNotFound)
	})

	t.Run("corrupt record", func(t *testing.T) {
		require.NoError(t, mr.Set("test:token:corrupt", "{not json"))

		_, err := store.Get(ctx, "corrupt")
		require.Error(t, err)
		require.NotErrorIs(t, err, session.ErrNotFound)

		require.NoError(t, store.Delete(ctx, "corrupt"))
		require.False(t, mr.Exists("test:token:corrupt"))
	})
}

func TestRedisStore_Delete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, mr := newRedisStore(t)

	sess := newSession(t, "user", time.Hour)
	require.NoError(t, store.Create(ctx, sess))

	require.NoError(t, store.Delete(ctx, sess.Token))
	_, err := store.Get(ctx, sess.Token)
	require.ErrorIs(t, err, session.ErrNotFound)

	members, err := mr.Members("test:identity:user")
	if err == nil {
		require.NotContains(t, members, sess.Token)
	}

	// Idempotent.
	require.NoError(t, store.Delete(ctx, sess.Token))
	require.NoError(t, store.Delete(ctx, ""))
}

func TestRedisStore_DeleteByIdentity(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, mr := newRedisStore(t)

	a1 := newSession(t, "alice", time.Hour)
	a2 := newSession(t, "alice", 2*time.Hour)
	b1 := newSession(t, "bob", time.Hour)
	for _, s := range []*session.Session{a1, a2, b1} {
		require.NoError(t, store.Create(ctx, s))
	}

	// Index lives as long as the longest session of the identity.
	require.InDelta(t, (2 * time.Hour).Seconds(), mr.TTL("test:identity:alice").Seconds(), 2)

	require.NoError(t, store.DeleteByIdentity(ctx, "alice"))

	for _, s := range []*session.Session{a1, a2} {
		_, err := store.Get(ctx, s.Token)
		require.ErrorIs(t, err, session.ErrNotFound)
	}
	require.False(t, mr.Exists("test:identity:alice"))

	got, err := store.Get(ctx, b1.Token)
	require.NoError(t, err)
	require.Equal(t, "bob", got.Identity)

	require.NoError(t, store.DeleteByIdentity(ctx, "nobody"))
}
