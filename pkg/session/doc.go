// Package session provides the authenticated session record and its stores.
//
// A [Session] is created after successful credential verification and
// destroyed on logout or expiry. Expired sessions are indistinguishable from
// missing ones for authorization purposes: [Session.IsValid] is false for
// both.
//
// # Stores
//
// Both stores implement [Store] and are safe for concurrent use:
//
//	store := session.NewMemoryStore()
//	defer store.Close()
//
//	client := redis.MustOpen(ctx, os.Getenv("REDIS_URL"))
//	store := session.NewRedisStore(client, session.WithPrefix("gk"))
//
// Get reports [ErrNotFound] for unknown tokens and [ErrExpired] for
// sessions past their expiry; Delete is idempotent.
//
// # Per-key serialization
//
// [Locker] serializes mutations for a single identity or token without
// any cross-key locking:
//
//	unlock := locker.Lock("identity:" + identity)
//	defer unlock()
package session
