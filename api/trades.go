package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/barterhub/timebank/internal/trade"
	"github.com/barterhub/timebank/pkg/models"
)

type TradesHandler struct {
	engine *trade.Engine
}

func NewTradesHandler(e *trade.Engine) *TradesHandler {
	return &TradesHandler{engine: e}
}

type createTradeRequest struct {
	ProviderID         string `json:"provider_id"`
	ServiceOfferedID   string `json:"service_offered_id"`
	ServiceRequestedID string `json:"service_requested_id"`
	HoursOffered       int64  `json:"hours_offered"`
	HoursRequested     int64  `json:"hours_requested"`
}

// Create opens a trade via direct proposal (the non-swipe path).
func (h *TradesHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req createTradeRequest
	if !decodeValidated(w, r, "trade_create", &req) {
		return
	}

	t, err := h.engine.Create(r.Context(), uid, req.ProviderID, req.ServiceOfferedID, req.ServiceRequestedID, req.HoursOffered, req.HoursRequested)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, t, http.StatusCreated)
}

func (h *TradesHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	trades, err := h.engine.ListForUser(r.Context(), uid)
	if err != nil {
		http.Error(w, "failed to list trades", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{"items": trades, "total": len(trades)}, http.StatusOK)
}

func (h *TradesHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	t, err := h.engine.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if !t.Participant(uid) {
		writeDomainError(w, models.ErrUnauthorized)
		return
	}

	writeJSON(w, map[string]any{"trade": t, "progress": trade.Progress(t)}, http.StatusOK)
}

func (h *TradesHandler) Accept(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	t, err := h.engine.Accept(r.Context(), mux.Vars(r)["id"], uid)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, t, http.StatusOK)
}

func (h *TradesHandler) Complete(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	t, err := h.engine.Complete(r.Context(), mux.Vars(r)["id"], uid)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, t, http.StatusOK)
}

type disputeRequest struct {
	Reason string `json:"reason"`
}

func (h *TradesHandler) Dispute(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req disputeRequest
	if !decodeValidated(w, r, "trade_dispute", &req) {
		return
	}

	t, err := h.engine.Dispute(r.Context(), mux.Vars(r)["id"], uid, req.Reason)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, t, http.StatusOK)
}

type addMessageRequest struct {
	Text string `json:"text"`
}

func (h *TradesHandler) AddMessage(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req addMessageRequest
	if !decodeValidated(w, r, "message_create", &req) {
		return
	}

	m, err := h.engine.AddMessage(r.Context(), mux.Vars(r)["id"], uid, req.Text)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, m, http.StatusCreated)
}

func (h *TradesHandler) Messages(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	ms, err := h.engine.Messages(r.Context(), mux.Vars(r)["id"], uid)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, map[string]any{"items": ms, "total": len(ms)}, http.StatusOK)
}
