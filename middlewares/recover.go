package middlewares

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime"

	"github.com/dmitrymomot/gatekeeper/internal"
)

// DefaultStackSize is the default maximum stack trace size in bytes.
const DefaultStackSize = 4096

// PanicError represents a recovered panic.
type PanicError struct {
	Value any    // The panic value
	Stack []byte // Stack trace (nil if disabled)
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

type recoverConfig struct {
	onPanic      func(w http.ResponseWriter, r *http.Request, err *PanicError)
	stackSize    int
	disableStack bool
}

// RecoverOption configures the Recover middleware.
type RecoverOption func(*recoverConfig)

// WithRecoverStackSize sets the maximum stack trace size.
func WithRecoverStackSize(size int) RecoverOption {
	return func(cfg *recoverConfig) {
		if size > 0 {
			cfg.stackSize = size
		}
	}
}

// WithRecoverDisablePrintStack leaves the stack trace out of logs.
func WithRecoverDisablePrintStack() RecoverOption {
	return func(cfg *recoverConfig) {
		cfg.disableStack = true
	}
}

// WithRecoverHandler replaces the default 500 response.
func WithRecoverHandler(fn func(w http.ResponseWriter, r *http.Request, err *PanicError)) RecoverOption {
	return func(cfg *recoverConfig) {
		if fn != nil {
			cfg.onPanic = fn
		}
	}
}

// Recover turns handler panics into logged 500 responses.
// http.ErrAbortHandler is re-panicked so the server can abort the connection.
func Recover(log *slog.Logger, opts ...RecoverOption) func(http.Handler) http.Handler {
	cfg := &recoverConfig{
		stackSize: DefaultStackSize,
		onPanic: func(w http.ResponseWriter, _ *http.Request, _ *PanicError) {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := internal.NewResponseWriter(w)

			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				perr := &PanicError{Value: rec}
				attrs := []any{slog.Any("panic", rec), slog.String("method", r.Method), slog.String("path", r.URL.Path)}
				if !cfg.disableStack {
					perr.Stack = make([]byte, cfg.stackSize)
					perr.Stack = perr.Stack[:runtime.Stack(perr.Stack, false)]
					attrs = append(attrs, slog.String("stack", string(perr.Stack)))
				}
				log.ErrorContext(r.Context(), "panic recovered", attrs...)

				if !rw.Written() {
					cfg.onPanic(rw, r, perr)
				}
			}()

			next.ServeHTTP(rw, r)
		})
	}
}
