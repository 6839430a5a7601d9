package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/barterhub/timebank/internal/swipe"
	"github.com/barterhub/timebank/pkg/models"
)

type SwipesHandler struct {
	manager *swipe.Manager
}

func NewSwipesHandler(m *swipe.Manager) *SwipesHandler {
	return &SwipesHandler{manager: m}
}

type startSwipeRequest struct {
	ServiceID string `json:"service_id"`
}

func (h *SwipesHandler) Start(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req startSwipeRequest
	if !decodeValidated(w, r, "swipe_start", &req) {
		return
	}

	s, err := h.manager.Start(r.Context(), uid, req.ServiceID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, map[string]any{"session_id": s.ID, "state": s.State()}, http.StatusCreated)
}

// session loads the caller's session from the path or reports why it can't.
func (h *SwipesHandler) session(w http.ResponseWriter, r *http.Request) (*swipe.Session, bool) {
	uid, ok := callerID(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return nil, false
	}

	s, found := h.manager.Get(mux.Vars(r)["id"])
	if !found {
		writeDomainError(w, models.ErrNotFound)
		return nil, false
	}
	if s.UserID != uid {
		writeDomainError(w, models.ErrUnauthorized)
		return nil, false
	}
	return s, true
}

func (h *SwipesHandler) Current(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	cand, err := s.Current()
	if err != nil {
		writeDomainError(w, err)
		return
	}

	cand.User.PasswordHash = ""
	writeJSON(w, map[string]any{"candidate": cand, "state": s.State()}, http.StatusOK)
}

func (h *SwipesHandler) Pass(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	res, err := s.Pass(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	res.Candidate.User.PasswordHash = ""
	writeJSON(w, res, http.StatusOK)
}

type proposeRequest struct {
	HoursOffered   int64 `json:"hours_offered"`
	HoursRequested int64 `json:"hours_requested"`
}

func (h *SwipesHandler) Propose(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req proposeRequest
	if !decodeValidated(w, r, "swipe_propose", &req) {
		return
	}

	res, err := s.Propose(r.Context(), req.HoursOffered, req.HoursRequested)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	res.Candidate.User.PasswordHash = ""
	writeJSON(w, res, http.StatusOK)
}

func (h *SwipesHandler) Undo(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	cand, err := s.Undo()
	if err != nil {
		writeDomainError(w, err)
		return
	}

	cand.User.PasswordHash = ""
	writeJSON(w, map[string]any{"restored": cand, "state": s.State()}, http.StatusOK)
}
