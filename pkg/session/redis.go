package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisOption configures the Redis store.
type RedisOption func(*redisOptions)

type redisOptions struct {
	prefix string
}

// WithPrefix sets the key prefix for all session keys.
// Keys are stored as "{prefix}:token:{token}" and "{prefix}:identity:{identity}".
// Default: "session".
func WithPrefix(prefix string) RedisOption {
	return func(o *redisOptions) {
		if prefix != "" {
			o.prefix = prefix
		}
	}
}

// RedisStore is a Store backed by Redis.
// Each session is a JSON record whose key TTL matches the session lifetime;
// a per-identity set indexes the tokens of that identity.
type RedisStore struct {
	client redis.UniversalClient
	opts   *redisOptions
}

// NewRedisStore creates a Redis-backed session store.
// The client should be obtained from pkg/redis.Open.
//
// Example:
//
//	client := redis.MustOpen(ctx, os.Getenv("REDIS_URL"))
//	store := session.NewRedisStore(client, session.WithPrefix("gk"))
func NewRedisStore(client redis.UniversalClient, opts ...RedisOption) *RedisStore {
	o := &redisOptions{prefix: "session"}
	for _, opt := range opts {
		opt(o)
	}
	return &RedisStore{client: client, opts: o}
}

// Create persists a new session.
func (r *RedisStore) Create(ctx context.Context, s *Session) error {
	if err := validate(s); err != nil {
		return err
	}

	ttl := s.TTL()
	if ttl == 0 {
		return ErrExpired
	}

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("session: marshal: %w", err)
	}

	idxKey := r.identityKey(s.Identity)
	current, err := r.client.PTTL(ctx, idxKey).Result()
	if err != nil {
		return err
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.tokenKey(s.Token), data, max(ttl, 0))
		pipe.SAdd(ctx, idxKey, s.Token)
		switch {
		case ttl < 0:
			pipe.Persist(ctx, idxKey)
		case current == -2 || (current >= 0 && current < ttl):
			// -2: index did not exist, -1: index never expires
			pipe.PExpire(ctx, idxKey, ttl)
		}
		return nil
	})
	return err
}

// Get retrieves a session by token.
func (r *RedisStore) Get(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	data, err := r.client.Get(ctx, r.tokenKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("session: unmarshal: %w", err)
	}

	if s.IsExpired() {
		_ = r.remove(ctx, &s)
		return nil, ErrExpired
	}

	return &s, nil
}

// Delete removes a session by token.
func (r *RedisStore) Delete(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	s, err := r.Get(ctx, token)
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrExpired):
		return nil
	case err != nil:
		// Unreadable record: drop the key, the index entry ages out with its set.
		return r.client.Del(ctx, r.tokenKey(token)).Err()
	}

	return r.remove(ctx, s)
}

// DeleteByIdentity removes every session of identity.
func (r *RedisStore) DeleteByIdentity(ctx context.Context, identity string) error {
	idxKey := r.identityKey(identity)

	tokens, err := r.client.SMembers(ctx, idxKey).Result()
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(tokens)+1)
	for _, t := range tokens {
		keys = append(keys, r.tokenKey(t))
	}
	keys = append(keys, idxKey)

	return r.client.Del(ctx, keys...).Err()
}

// Close is a no-op. The Redis client lifecycle is managed by the caller
// (via pkg/redis.Shutdown).
func (r *RedisStore) Close() error {
	return nil
}

func (r *RedisStore) remove(ctx context.Context, s *Session) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.tokenKey(s.Token))
		pipe.SRem(ctx, r.identityKey(s.Identity), s.Token)
		return nil
	})
	return err
}

func (r *RedisStore) tokenKey(token string) string {
	return r.opts.prefix + ":token:" + token
}

func (r *RedisStore) identityKey(identity string) string {
	return r.opts.prefix + ":identity:" + identity
}

var _ Store = (*RedisStore)(nil)
