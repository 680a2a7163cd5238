// Package httpserver runs an http.Server until its context is cancelled and
// then drains in-flight requests, so request transactions get to commit or
// roll back before the database pool is closed.
package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/dmitrymomot/clinickit/pkg/logger"
)

const defaultShutdownTimeout = 15 * time.Second

// Server wraps http.Server with context-driven graceful shutdown.
type Server struct {
	cfg      Config
	srv      *http.Server
	listener net.Listener
	log      *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l.With(logger.Component("httpserver"))
		}
	}
}

// WithListener serves on l instead of listening on cfg.Addr.
func WithListener(l net.Listener) Option {
	return func(s *Server) { s.listener = l }
}

// New creates a server for handler.
func New(cfg Config, handler http.Handler, opts ...Option) *Server {
	s := &Server{
		cfg: cfg,
		log: logger.Nop(),
		srv: &http.Server{
			Addr:              cfg.Addr,
			Handler:           handler,
			ReadHeaderTimeout: cfg.ReadHeaderTimeout,
			ReadTimeout:       cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			IdleTimeout:       cfg.IdleTimeout,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.srv.ErrorLog = slog.NewLogLogger(s.log.Handler(), slog.LevelWarn)
	return s
}

// Run serves until ctx is done, then shuts down gracefully within
// ShutdownTimeout. It returns nil after a clean shutdown.
func (s *Server) Run(ctx context.Context) error {
	ln := s.listener
	if ln == nil {
		var err error
		if ln, err = net.Listen("tcp", s.cfg.Addr); err != nil {
			return errors.Join(ErrStart, err)
		}
	}

	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(ln) }()
	s.log.InfoContext(ctx, "http server started", slog.String("addr", ln.Addr().String()))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Join(ErrStart, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout())
	defer cancel()
	s.log.InfoContext(ctx, "http server shutting down")
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return errors.Join(ErrShutdown, err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Join(ErrStart, err)
	}
	s.log.InfoContext(ctx, "http server stopped")
	return nil
}

func (s *Server) shutdownTimeout() time.Duration {
	if s.cfg.ShutdownTimeout > 0 {
		return s.cfg.ShutdownTimeout
	}
	return defaultShutdownTimeout
}
