// Package handler implements the loader's HTTP endpoints.
package handler

import (
	"context"
	"net/http"
)

// Verifier reports store connectivity; nil means no store is wired.
type Verifier interface {
	Verify(ctx context.Context) error
}

type HealthHandler struct {
	store Verifier
}

func NewHealthHandler(store Verifier) *HealthHandler {
	return &HealthHandler{store: store}
}

func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	if h.store != nil {
		if err := h.store.Verify(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
				"error":  err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
