package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/gatekeeper/pkg/redis"
)

func TestOpen_Validation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	_, err := redis.Open(ctx, redis.Config{})
	require.ErrorIs(t, err, redis.ErrEmptyConnectionURL)

	for _, url := range []string{"http://localhost:6379", "localhost:6379", "postgresql://localhost:6379"} {
		_, err := redis.Open(ctx, redis.Config{URL: url})
		require.ErrorIs(t, err, redis.ErrFailedToParseURL, url)
	}

	_, err = redis.Open(ctx, redis.Config{URL: "redis://localhost:6379/notanumber"})
	require.ErrorIs(t, err, redis.ErrFailedToParseURL)
}

func TestOpen_Miniredis(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)

	client, err := redis.Open(context.Background(), redis.Config{URL: "redis://" + mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	check := redis.Healthcheck(client)
	require.NoError(t, check(context.Background()))

	mr.Close()
	require.ErrorIs(t, check(context.Background()), redis.ErrHealthcheckFailed)
}

func TestOpen_RetriesThenFails(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	start := time.Now()
	_, err := redis.Open(context.Background(), redis.Config{
		URL:           "redis://" + addr,
		RetryAttempts: 2,
		RetryInterval: 10 * time.Millisecond,
		DialTimeout:   100 * time.Millisecond,
	})
	require.ErrorIs(t, err, redis.ErrConnectionFailed)
	require.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}

func TestOpen_ContextCanceledDuringBackoff(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := redis.Open(ctx, redis.Config{
		URL:           "redis://" + addr,
		RetryAttempts: 5,
		RetryInterval: time.Minute,
	})
	require.ErrorIs(t, err, redis.ErrConnectionFailed)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestHealthcheck_NilClient(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, redis.Healthcheck(nil)(context.Background()), redis.ErrHealthcheckFailed)
}

func TestConfig_Enabled(t *testing.T) {
	t.Parallel()

	require.False(t, redis.Config{}.Enabled())
	require.True(t, redis.Config{URL: "redis://localhost:6379"}.Enabled())
}
