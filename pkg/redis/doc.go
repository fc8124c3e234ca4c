// Package redis opens go-redis clients for the Redis session store.
//
//	client, err := redis.Open(ctx, redis.Config{URL: "redis://localhost:6379/0", RetryAttempts: 3},
//	    redis.WithLogger(log),
//	)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	store := session.NewRedisStore(client)
//
// [Healthcheck] plugs into the readiness endpoint of package health.
package redis
