package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/MikeSquared-Agency/Credia/internal/deals"
	"github.com/MikeSquared-Agency/Credia/internal/store"
)

// DefaultAuditLimit caps GET /audit when no limit is given.
const DefaultAuditLimit = 100

type AdminHandler struct {
	svc    *deals.Service
	logger *slog.Logger
}

func NewAdminHandler(svc *deals.Service, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{svc: svc, logger: logger}
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *AdminHandler) Payers(w http.ResponseWriter, r *http.Request) {
	payers, err := h.svc.ListPayers(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	if payers == nil {
		payers = []*store.Payer{}
	}
	writeJSON(w, http.StatusOK, payers)
}

func (h *AdminHandler) Audit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.AuditFilter{
		ResourceType: q.Get("resource_type"),
		ResourceID:   q.Get("resource_id"),
		Action:       q.Get("action"),
		Limit:        DefaultAuditLimit,
	}
	if l := q.Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = n
	}

	logs, err := h.svc.ListAuditLogs(r.Context(), filter)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	if logs == nil {
		logs = []*store.AuditLog{}
	}
	writeJSON(w, http.StatusOK, logs)
}

// Reset wipes the store and reloads the demo data.
func (h *AdminHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Reset(r.Context()); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	h.logger.Warn("store reset to demo data", "actor", actorFrom(r).ID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}
