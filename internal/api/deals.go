package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MikeSquared-Agency/Credia/internal/deals"
	"github.com/MikeSquared-Agency/Credia/internal/store"
)

type DealsHandler struct {
	svc    *deals.Service
	logger *slog.Logger
}

func NewDealsHandler(svc *deals.Service, logger *slog.Logger) *DealsHandler {
	return &DealsHandler{svc: svc, logger: logger}
}

// Submit creates a deal. SME callers may omit sme_id; it defaults to the
// caller's actor ID.
func (h *DealsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req deals.SubmitRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	actor := actorFrom(r)
	if req.SMEID == "" && actor.Role == store.RoleSME {
		req.SMEID = actor.ID
	}
	if actor.Role == store.RoleSME && req.SMEID != actor.ID {
		writeError(w, http.StatusForbidden, "cannot submit on behalf of another sme")
		return
	}

	deal, err := h.svc.Submit(r.Context(), actor, req)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, deal)
}

// List returns deals newest first. SME callers only see their own deals.
func (h *DealsHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := store.DealFilter{SMEID: r.URL.Query().Get("sme_id")}
	if s := r.URL.Query().Get("status"); s != "" {
		status := store.DealStatus(s)
		if !status.Valid() {
			writeError(w, http.StatusBadRequest, "invalid status")
			return
		}
		filter.Status = &status
	}
	if l := r.URL.Query().Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = n
	}
	if actor := actorFrom(r); actor.Role == store.RoleSME {
		filter.SMEID = actor.ID
	}

	list, err := h.svc.ListDeals(r.Context(), filter)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	if list == nil {
		list = []*store.Deal{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *DealsHandler) Get(w http.ResponseWriter, r *http.Request) {
	deal, err := h.visibleDeal(r)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, deal)
}

func (h *DealsHandler) Explain(w http.ResponseWriter, r *http.Request) {
	if _, err := h.visibleDeal(r); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	exp, err := h.svc.Explain(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, exp)
}

// visibleDeal loads the deal in the URL. Another SME's deal is reported as
// not found.
func (h *DealsHandler) visibleDeal(r *http.Request) (*store.Deal, error) {
	deal, err := h.svc.GetDeal(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return nil, err
	}
	if actor := actorFrom(r); actor.Role == store.RoleSME && deal.SMEID != actor.ID {
		return nil, deals.ErrNotFound
	}
	return deal, nil
}

type approveRequest struct {
	Rate *float64 `json:"rate,omitempty"`
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

type requestDocsRequest struct {
	Message string `json:"message"`
}

type overrideRateRequest struct {
	Rate   *float64 `json:"rate"`
	Reason string   `json:"reason,omitempty"`
}

func (h *DealsHandler) Approve(w http.ResponseWriter, r *http.Request) {
	var req approveRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.respond(w)(h.svc.Approve(r.Context(), actorFrom(r), chi.URLParam(r, "id"), req.Rate))
}

func (h *DealsHandler) Reject(w http.ResponseWriter, r *http.Request) {
	var req reasonRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.respond(w)(h.svc.Reject(r.Context(), actorFrom(r), chi.URLParam(r, "id"), req.Reason))
}

func (h *DealsHandler) RequestDocs(w http.ResponseWriter, r *http.Request) {
	var req requestDocsRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.respond(w)(h.svc.RequestDocs(r.Context(), actorFrom(r), chi.URLParam(r, "id"), req.Message))
}

func (h *DealsHandler) OverrideRate(w http.ResponseWriter, r *http.Request) {
	var req overrideRateRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Rate == nil {
		writeError(w, http.StatusBadRequest, "rate required")
		return
	}
	h.respond(w)(h.svc.OverrideRate(r.Context(), actorFrom(r), chi.URLParam(r, "id"), *req.Rate, req.Reason))
}

func (h *DealsHandler) Fund(w http.ResponseWriter, r *http.Request) {
	h.respond(w)(h.svc.Fund(r.Context(), actorFrom(r), chi.URLParam(r, "id")))
}

func (h *DealsHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	h.respond(w)(h.svc.MarkPaid(r.Context(), actorFrom(r), chi.URLParam(r, "id")))
}

func (h *DealsHandler) PayerNotice(w http.ResponseWriter, r *http.Request) {
	h.respond(w)(h.svc.SendPayerNotice(r.Context(), actorFrom(r), chi.URLParam(r, "id")))
}

func (h *DealsHandler) respond(w http.ResponseWriter) func(*store.Deal, error) {
	return func(deal *store.Deal, err error) {
		if err != nil {
			writeServiceError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, deal)
	}
}
