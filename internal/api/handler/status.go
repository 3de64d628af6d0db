package handler

import (
	"net/http"

	"github.com/medgraph/loader/internal/ingestion"
)

// StatusSource exposes the current run status; the orchestrator implements it.
type StatusSource interface {
	Status() ingestion.RunStatus
}

type StatusHandler struct {
	source StatusSource
}

func NewStatusHandler(source StatusSource) *StatusHandler {
	return &StatusHandler{source: source}
}

// Get returns the run snapshot: run state plus per-file status and summaries.
func (h *StatusHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.source.Status())
}
