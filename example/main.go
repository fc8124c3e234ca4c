// Command example runs the Eazy School demo site behind a gatekeeper.
//
// Configuration comes from the environment; see Config. Only
// COOKIE_SECRET is required. Without REDIS_URL sessions are kept in
// memory, without DATABASE_URL users are kept in memory.
package main

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/gatekeeper"
	"github.com/dmitrymomot/gatekeeper/middlewares"
	"github.com/dmitrymomot/gatekeeper/pkg/auth"
	"github.com/dmitrymomot/gatekeeper/pkg/cookie"
	"github.com/dmitrymomot/gatekeeper/pkg/credentials"
	"github.com/dmitrymomot/gatekeeper/pkg/db"
	"github.com/dmitrymomot/gatekeeper/pkg/health"
	"github.com/dmitrymomot/gatekeeper/pkg/logger"
	"github.com/dmitrymomot/gatekeeper/pkg/policy"
	"github.com/dmitrymomot/gatekeeper/pkg/redis"
	"github.com/dmitrymomot/gatekeeper/pkg/session"
)

//go:embed policy.yaml
var defaultPolicy []byte

//go:embed users.yaml
var defaultUsers []byte

func main() {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log, logger.WithExtractors(middlewares.RequestIDExtractor()))
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer logger.Flush(2 * time.Second)

	if err := run(context.Background(), cfg, log); err != nil {
		log.Error("application error", slog.Any("error", err))
		logger.Flush(2 * time.Second)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg Config, log *slog.Logger) error {
	engine, err := loadPolicy(cfg.PolicyFile)
	if err != nil {
		return err
	}
	users, err := loadUsers(cfg.UsersFile)
	if err != nil {
		return err
	}

	checks := health.Checks{}
	var hooks []gatekeeper.ServerOption

	var source credentials.Source
	if cfg.Database.Enabled() {
		pool, err := db.Connect(ctx, cfg.Database)
		if err != nil {
			return err
		}
		hooks = append(hooks, gatekeeper.WithShutdownHook(func(context.Context) error {
			pool.Close()
			return nil
		}))

		if err := db.Migrate(ctx, pool, credentials.Migrations(), cfg.Database.MigrationsTable, log); err != nil {
			pool.Close()
			return err
		}
		pg := credentials.NewPostgres(pool)
		if err := pg.SeedUsers(ctx, users...); err != nil {
			pool.Close()
			return err
		}

		source = credentials.NewBreaker(pg,
			credentials.WithBreakerName("postgres"),
			credentials.WithBreakerLogger(log),
		)
		checks["postgres"] = db.Healthcheck(pool)
	} else {
		mem, err := credentials.NewMemory(users...)
		if err != nil {
			return err
		}
		source = mem
	}

	var store session.Store
	if cfg.Redis.Enabled() {
		client, err := redis.Open(ctx, cfg.Redis, redis.WithLogger(log))
		if err != nil {
			return err
		}
		store = session.NewRedisStore(client)
		hooks = append(hooks, gatekeeper.WithShutdownHook(func(context.Context) error {
			return client.Close()
		}))
		checks["redis"] = redis.Healthcheck(client)
	} else {
		mem := session.NewMemoryStore()
		store = mem
		hooks = append(hooks, gatekeeper.WithShutdownHook(func(context.Context) error {
			return mem.Close()
		}))
	}

	authn := auth.New(source, store,
		auth.WithLoginPath(engine.LoginPath()),
		auth.WithSessionTTL(cfg.SessionTTL),
		auth.WithLogger(log),
	)

	opts := []gatekeeper.Option{
		gatekeeper.WithCookieSecret(cfg.CookieSecret, cookie.WithSecure(cfg.SecureCookie)),
		gatekeeper.WithLogger(log),
	}
	if cfg.BasicAuth {
		opts = append(opts, gatekeeper.WithBasicAuth("Eazy School"))
	}
	if cfg.TrustProxy {
		opts = append(opts, gatekeeper.WithTrustProxy())
	}
	gk, err := gatekeeper.New(engine, authn, opts...)
	if err != nil {
		return err
	}

	r := chi.NewRouter()
	r.Use(
		middlewares.RequestID(),
		middlewares.AccessLog(log),
		middlewares.Recover(log),
		middlewares.Timeout(cfg.RequestTimeout),
		gk.Middleware,
	)
	r.Get("/health/live", health.LivenessHandler())
	r.Get("/health/ready", health.ReadinessHandler(checks, health.WithLogger(log)))
	gk.Routes(r)
	(&site{log: log}).routes(r)

	srv := gatekeeper.NewServer(r, append(hooks,
		gatekeeper.WithAddress(cfg.Addr),
		gatekeeper.WithShutdownTimeout(cfg.ShutdownTimeout),
		gatekeeper.WithServerLogger(log),
	)...)
	return srv.Run(ctx)
}

func loadPolicy(file string) (*policy.Engine, error) {
	if file == "" {
		return policy.LoadYAML(bytes.NewReader(defaultPolicy))
	}
	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("open policy file: %w", err)
	}
	defer f.Close()
	return policy.LoadYAML(f)
}

func loadUsers(file string) ([]credentials.User, error) {
	var r io.Reader = bytes.NewReader(defaultUsers)
	if file != "" {
		f, err := os.Open(file)
		if err != nil {
			return nil, fmt.Errorf("open users file: %w", err)
		}
		defer f.Close()
		r = f
	}
	return credentials.LoadUsersYAML(r)
}
