package api

import (
	"context"
	"net/http"

	"github.com/apotek/apotek/internal/log"
)

type healthHandler struct {
	ready  func(context.Context) error
	logger log.Logger
}

func newHealthHandler(ready func(context.Context) error, logger log.Logger) *healthHandler {
	return &healthHandler{ready: ready, logger: logger}
}

func (h *healthHandler) register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.liveness)
	mux.HandleFunc("GET /ready", h.readiness)
}

func (h *healthHandler) liveness(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// readiness pings external dependencies. The in-memory deployment has
// none and is always ready.
func (h *healthHandler) readiness(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil {
		if err := h.ready(r.Context()); err != nil {
			h.logger.Error("readiness check failed", "error", err)
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
