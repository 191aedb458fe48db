package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/MikeSquared-Agency/Credia/internal/deals"
	"github.com/MikeSquared-Agency/Credia/internal/extraction"
	"github.com/MikeSquared-Agency/Credia/internal/scoring"
)

// ScoringHandler serves the stateless scoring and extraction endpoints.
type ScoringHandler struct {
	svc    *deals.Service
	logger *slog.Logger
}

func NewScoringHandler(svc *deals.Service, logger *slog.Logger) *ScoringHandler {
	return &ScoringHandler{svc: svc, logger: logger}
}

// Score is the landing-page pre-score. Nothing is persisted.
func (h *ScoringHandler) Score(w http.ResponseWriter, r *http.Request) {
	var in scoring.Inputs
	if err := decodeJSON(r, &in, false); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	writeJSON(w, http.StatusOK, h.svc.PreScore(in))
}

func (h *ScoringHandler) PayerTier(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(chi.URLParam(r, "name"))
	if name == "" {
		writeError(w, http.StatusBadRequest, "payer name required")
		return
	}
	lookup, err := h.svc.LookupPayerTier(r.Context(), name)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, lookup)
}

func (h *ScoringHandler) Extract(w http.ResponseWriter, r *http.Request) {
	var req extraction.Request
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.PayerName) == "" {
		writeError(w, http.StatusBadRequest, "payer_name required")
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Extract(req))
}
