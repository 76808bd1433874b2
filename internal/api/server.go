// Package api exposes the assistant over HTTP.
//
// Endpoints:
//
//	GET  /health                        liveness probe
//	GET  /ready                         readiness probe
//	POST /api/chat                      one turn, JSON in/out
//	POST /api/chat/stream               one turn, SSE event stream
//	GET  /api/sessions                  list sessions
//	POST /api/sessions                  create session
//	GET  /api/sessions/{id}             session with history
//	DELETE /api/sessions/{id}           delete session
//	GET  /api/medications               catalog listing
//	GET  /api/medications/{name}        single medication
//	GET  /api/stock/{name}              stock status
//	GET  /api/users/{id}/prescriptions  customer prescriptions
//
// File structure:
//   - server.go: HTTP server setup and lifecycle
//   - middleware.go: logging and panic recovery
//   - health.go: probes
//   - sessions.go: session CRUD
//   - chat.go: chat turn execution, plain and SSE
//   - pharmacy.go: read-only catalog endpoints
//   - response.go: JSON response helpers
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/apotek/apotek/internal/agent"
	"github.com/apotek/apotek/internal/log"
	"github.com/apotek/apotek/internal/pharmacy"
	"github.com/apotek/apotek/internal/session"
)

const (
	// DefaultAddr is the default listen address.
	DefaultAddr = "127.0.0.1:3400"

	// ShutdownTimeout caps graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout bounds header reads (Slowloris).
	ReadHeaderTimeout = 10 * time.Second

	// IdleTimeout is the keep-alive idle limit.
	IdleTimeout = 120 * time.Second
)

// Config carries the server's dependencies.
type Config struct {
	Agent    *agent.Agent
	Sessions session.Store
	Store    *pharmacy.Store
	Logger   log.Logger

	// Ready reports readiness of external dependencies (nil means always
	// ready). The Postgres-backed deployment plugs in a pool ping here.
	Ready func(context.Context) error
}

// Server is the HTTP front end.
type Server struct {
	mux    *http.ServeMux
	logger log.Logger
}

// NewServer wires all routes.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	mux := http.NewServeMux()
	newHealthHandler(cfg.Ready, logger).register(mux)
	newSessionHandler(cfg.Sessions, logger).register(mux)
	newChatHandler(cfg.Agent, cfg.Sessions, logger).register(mux)
	newPharmacyHandler(cfg.Store, logger).register(mux)

	return &Server{mux: mux, logger: logger}
}

// Handler returns the routed handler with middleware applied,
// recovery outermost.
func (s *Server) Handler() http.Handler {
	return chain(s.mux, recoveryMiddleware(s.logger), loggingMiddleware(s.logger))
}

// Run serves until ctx is cancelled, then shuts down gracefully.
// No WriteTimeout: SSE turns are open-ended, the turn context bounds them.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
