package gatekeeper

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrymomot/gatekeeper/pkg/logger"
)

// Default server timeouts.
const (
	defaultReadTimeout       = 15 * time.Second
	defaultWriteTimeout      = 30 * time.Second
	defaultIdleTimeout       = 120 * time.Second
	defaultReadHeaderTimeout = 5 * time.Second
	defaultMaxHeaderBytes    = 1 << 20 // 1MB
	defaultShutdownTimeout   = 30 * time.Second
)

// Server runs an HTTP handler until its context is canceled or the process
// receives SIGINT or SIGTERM, then shuts down gracefully.
type Server struct {
	server          *http.Server
	log             *slog.Logger
	hooks           []func(context.Context) error
	shutdownTimeout time.Duration

	mu       sync.Mutex
	listener net.Listener
	started  chan struct{}
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithAddress sets the listen address.
// Default: ":8080".
func WithAddress(addr string) ServerOption {
	return func(s *Server) {
		if addr != "" {
			s.server.Addr = addr
		}
	}
}

// WithShutdownTimeout bounds graceful shutdown.
// Default: 30s.
func WithShutdownTimeout(d time.Duration) ServerOption {
	return func(s *Server) {
		if d > 0 {
			s.shutdownTimeout = d
		}
	}
}

// WithShutdownHook registers fn to run after the HTTP server stops, in
// registration order. Used to close stores and pools.
func WithShutdownHook(fn func(context.Context) error) ServerOption {
	return func(s *Server) {
		if fn != nil {
			s.hooks = append(s.hooks, fn)
		}
	}
}

// WithServerLogger sets the lifecycle logger.
// Default: discard.
func WithServerLogger(l *slog.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.log = l
			s.server.ErrorLog = slog.NewLogLogger(l.Handler(), slog.LevelError)
		}
	}
}

// NewServer creates a Server for h.
func NewServer(h http.Handler, opts ...ServerOption) *Server {
	s := &Server{
		log:             logger.Discard(),
		shutdownTimeout: defaultShutdownTimeout,
		started:         make(chan struct{}),
		server: &http.Server{
			Addr:              ":8080",
			Handler:           h,
			ReadTimeout:       defaultReadTimeout,
			WriteTimeout:      defaultWriteTimeout,
			IdleTimeout:       defaultIdleTimeout,
			ReadHeaderTimeout: defaultReadHeaderTimeout,
			MaxHeaderBytes:    defaultMaxHeaderBytes,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Addr returns the listening address, or "" before Run has bound it.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Started is closed once the server listens.
func (s *Server) Started() <-chan struct{} {
	return s.started
}

// Run serves until ctx is canceled or a termination signal arrives.
// Returns nil on clean shutdown. Shutdown hooks run on every exit path
// once Run has started, including listen and serve failures.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	s.mu.Lock()
	if s.listener != nil {
		s.mu.Unlock()
		return ErrServerRunning
	}
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		s.mu.Unlock()
		s.log.Error("server failed to listen", slog.Any("error", err))
		return s.stop(err)
	}
	s.listener = ln
	s.mu.Unlock()
	close(s.started)

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server starting", slog.String("address", ln.Addr().String()))
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			s.log.Error("server failed", slog.Any("error", err))
			return s.stop(err)
		}
	case <-ctx.Done():
	}

	s.log.Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer shutdownCancel()

	var errs []error
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	errs = append(errs, s.runHooks(shutdownCtx)...)

	if len(errs) > 0 {
		s.log.Error("shutdown completed with errors")
		return errors.Join(errs...)
	}
	s.log.Info("shutdown completed")
	return nil
}

// stop runs the shutdown hooks after a failure and joins their errors
// with cause.
func (s *Server) stop(cause error) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	return errors.Join(append([]error{cause}, s.runHooks(ctx)...)...)
}

func (s *Server) runHooks(ctx context.Context) []error {
	var errs []error
	for _, hook := range s.hooks {
		if err := hook(ctx); err != nil {
			errs = append(errs, err)
			s.log.Error("shutdown hook failed", slog.Any("error", err))
		}
	}
	return errs
}
