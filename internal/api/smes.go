package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MikeSquared-Agency/Credia/internal/deals"
	"github.com/MikeSquared-Agency/Credia/internal/store"
)

type SMEsHandler struct {
	svc    *deals.Service
	logger *slog.Logger
}

func NewSMEsHandler(svc *deals.Service, logger *slog.Logger) *SMEsHandler {
	return &SMEsHandler{svc: svc, logger: logger}
}

func (h *SMEsHandler) List(w http.ResponseWriter, r *http.Request) {
	smes, err := h.svc.ListSMEs(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	if smes == nil {
		smes = []*store.SME{}
	}
	writeJSON(w, http.StatusOK, smes)
}

func (h *SMEsHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.respond(w)(h.svc.GetSME(r.Context(), chi.URLParam(r, "id")))
}

func (h *SMEsHandler) Suspend(w http.ResponseWriter, r *http.Request) {
	h.respond(w)(h.svc.SuspendSME(r.Context(), actorFrom(r), chi.URLParam(r, "id")))
}

func (h *SMEsHandler) Reactivate(w http.ResponseWriter, r *http.Request) {
	h.respond(w)(h.svc.ReactivateSME(r.Context(), actorFrom(r), chi.URLParam(r, "id")))
}

func (h *SMEsHandler) respond(w http.ResponseWriter) func(*store.SME, error) {
	return func(sme *store.SME, err error) {
		if err != nil {
			writeServiceError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, sme)
	}
}
