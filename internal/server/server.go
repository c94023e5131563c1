package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	ferrors "git.home.luguber.info/inful/pagehooks/internal/foundation/errors"
	"git.home.luguber.info/inful/pagehooks/internal/logfields"
	"git.home.luguber.info/inful/pagehooks/internal/server/middleware"
)

const readHeaderTimeout = 10 * time.Second

// Server owns the dev server listener.
type Server struct {
	handler *Handler
	metrics http.Handler
	logger  *slog.Logger
	srv     *http.Server
	addr    net.Addr
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics mounts h at the settings' metrics path.
func WithMetrics(h http.Handler) Option { return func(s *Server) { s.metrics = h } }

// New wires a server around handler.
func New(handler *Handler, logger *slog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{handler: handler, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes returns the full handler: the metrics endpoint when enabled and the
// middleware stage for everything else, wrapped in logging and panic recovery.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	settings := s.handler.Pipeline().Settings
	if s.metrics != nil && settings != nil && settings.Metrics.Enabled {
		mux.Handle(settings.Metrics.Path, s.metrics)
	}
	mux.Handle("/", s.handler)
	return middleware.Chain(s.logger, ferrors.NewHTTPErrorAdapter(s.logger))(mux)
}

// Start binds addr and serves in the background. Bind errors are returned
// before any goroutine starts.
func (s *Server) Start(ctx context.Context, addr string) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryRuntime, "failed to bind dev server").
			WithContext("addr", addr).
			Build()
	}
	s.addr = ln.Addr()
	s.srv = &http.Server{
		Handler:           s.Routes(),
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Dev server error", logfields.Error(err))
		}
	}()
	s.logger.InfoContext(ctx, "Dev server started", slog.String("addr", s.addr.String()))
	return nil
}

// Addr is the bound address, or nil before Start.
func (s *Server) Addr() net.Addr { return s.addr }

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	if err := s.srv.Shutdown(ctx); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryRuntime, "dev server shutdown").Build()
	}
	s.logger.InfoContext(ctx, "Dev server stopped")
	return nil
}
