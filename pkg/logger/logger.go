package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	sentryslog "github.com/getsentry/sentry-go/slog"
)

var (
	ErrUnknownLevel  = errors.New("logger: unknown level")
	ErrUnknownFormat = errors.New("logger: unknown format")
)

// Option configures New.
type Option func(*options)

type options struct {
	out        io.Writer
	extractors []ContextExtractor
}

// WithOutput sets the destination of local records.
// Default: os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		o.out = w
	}
}

// WithExtractors adds request-scoped attributes to every record.
func WithExtractors(extractors ...ContextExtractor) Option {
	return func(o *options) {
		o.extractors = append(o.extractors, extractors...)
	}
}

// New builds a logger from cfg. When a Sentry DSN is set, records are
// also forwarded to Sentry; if the SDK fails to initialize, the failure is
// logged and the logger falls back to local output only.
func New(cfg Config, opts ...Option) (*slog.Logger, error) {
	o := &options{out: os.Stdout}
	for _, opt := range opts {
		opt(o)
	}

	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	var local slog.Handler
	hopts := &slog.HandlerOptions{Level: level}
	switch cfg.Format {
	case "", "json":
		local = slog.NewJSONHandler(o.out, hopts)
	case "text":
		local = slog.NewTextHandler(o.out, hopts)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, cfg.Format)
	}

	if cfg.SentryDSN == "" {
		return slog.New(NewContextHandler(local, o.extractors...)), nil
	}

	sentryLevel, err := ParseLevel(cfg.SentryLevel)
	if err != nil {
		return nil, err
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.SentryDSN,
		Environment: cfg.SentryEnvironment,
		EnableLogs:  true,
	}); err != nil {
		slog.New(local).Error("failed to initialize sentry", slog.Any("error", err))
		return slog.New(NewContextHandler(local, o.extractors...)), nil
	}

	remote := sentryslog.Option{
		EventLevel: []slog.Level{slog.LevelError},
		LogLevel:   levelsFrom(sentryLevel),
	}.NewSentryHandler(context.Background())

	return slog.New(NewContextHandler(fanout{local, remote}, o.extractors...)), nil
}

// Flush waits up to timeout for buffered Sentry events to be sent.
// It is a no-op when Sentry is not initialized.
func Flush(timeout time.Duration) bool {
	return sentry.Flush(timeout)
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func levelsFrom(minLevel slog.Level) []slog.Level {
	var out []slog.Level
	for _, l := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
		if l >= minLevel {
			out = append(out, l)
		}
	}
	return out
}
