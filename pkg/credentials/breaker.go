package credentials

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerOption configures a Breaker.
type BreakerOption func(*breakerConfig)

type breakerConfig struct {
	logger      *slog.Logger
	name        string
	interval    time.Duration
	timeout     time.Duration
	maxRequests uint32
	failures    uint32
}

// WithBreakerName sets the breaker name used in logs.
// Default: "credentials".
func WithBreakerName(name string) BreakerOption {
	return func(c *breakerConfig) {
		c.name = name
	}
}

// WithFailureThreshold sets how many consecutive upstream failures open the breaker.
// Default: 5.
func WithFailureThreshold(n uint32) BreakerOption {
	return func(c *breakerConfig) {
		c.failures = max(n, 1)
	}
}

// WithOpenTimeout sets how long the breaker stays open before probing again.
// Default: 30s.
func WithOpenTimeout(d time.Duration) BreakerOption {
	return func(c *breakerConfig) {
		c.timeout = d
	}
}

// WithHalfOpenRequests sets how many probe requests pass in half-open state.
// Default: 1.
func WithHalfOpenRequests(n uint32) BreakerOption {
	return func(c *breakerConfig) {
		c.maxRequests = n
	}
}

// WithBreakerLogger sets the logger for state transitions.
// Default: slog.Default().
func WithBreakerLogger(l *slog.Logger) BreakerOption {
	return func(c *breakerConfig) {
		c.logger = l
	}
}

// Breaker wraps a Source with a circuit breaker. Only upstream failures
// count against it: wrong credentials are a normal answer. While open,
// Verify fails fast with ErrUnavailable.
type Breaker struct {
	next Source
	cb   *gobreaker.CircuitBreaker
}

// NewBreaker wraps next.
func NewBreaker(next Source, opts ...BreakerOption) *Breaker {
	cfg := &breakerConfig{
		name:        "credentials",
		failures:    5,
		timeout:     30 * time.Second,
		maxRequests: 1,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	settings := gobreaker.Settings{
		Name:        cfg.name,
		MaxRequests: cfg.maxRequests,
		Interval:    cfg.interval,
		Timeout:     cfg.timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			level := slog.LevelInfo
			if to == gobreaker.StateOpen {
				level = slog.LevelWarn
			}
			cfg.logger.Log(context.Background(), level, "credential source circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			// Rejected passwords and callers that gave up say nothing
			// about the health of the source.
			return err == nil || errors.Is(err, ErrInvalidCredentials) || errors.Is(err, context.Canceled)
		},
	}

	return &Breaker{next: next, cb: gobreaker.NewCircuitBreaker(settings)}
}

// Verify implements Source.
func (b *Breaker) Verify(ctx context.Context, identity, secret string) ([]string, error) {
	res, err := b.cb.Execute(func() (any, error) {
		return b.next.Verify(ctx, identity, secret)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, errors.Join(ErrUnavailable, err)
		}
		return nil, err
	}

	roles, _ := res.([]string)
	return roles, nil
}

// State returns the current breaker state name: "closed", "half-open" or "open".
func (b *Breaker) State() string {
	return b.cb.State().String()
}

var _ Source = (*Breaker)(nil)
