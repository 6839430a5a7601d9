package api

import (
	"net/http"

	"github.com/barterhub/timebank/internal/match"
	"github.com/barterhub/timebank/pkg/models"
	"github.com/barterhub/timebank/pkg/repository"
)

type MatchesHandler struct {
	finder *match.Finder
	users  repository.UserRepo
	svcs   repository.ServiceRepo
}

func NewMatchesHandler(finder *match.Finder, users repository.UserRepo, svcs repository.ServiceRepo) *MatchesHandler {
	return &MatchesHandler{finder: finder, users: users, svcs: svcs}
}

// List returns the current ranking of counter-party candidates for one of
// the caller's services. The ranking is recomputed on every request.
func (h *MatchesHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	serviceID := r.URL.Query().Get("service_id")
	if serviceID == "" {
		writeJSON(w, errorResponse{Error: "service_id is required", Kind: "validation"}, http.StatusBadRequest)
		return
	}

	user, err := h.users.GetUser(r.Context(), uid)
	if err != nil {
		http.Error(w, "failed to load user", http.StatusInternalServerError)
		return
	}
	if user == nil {
		writeDomainError(w, models.ErrNotFound)
		return
	}

	svc, err := h.svcs.GetService(r.Context(), serviceID)
	if err != nil {
		http.Error(w, "failed to load service", http.StatusInternalServerError)
		return
	}
	if svc == nil {
		writeDomainError(w, models.ErrNotFound)
		return
	}
	if svc.UserID != uid {
		writeDomainError(w, models.ErrUnauthorized)
		return
	}

	candidates, err := h.finder.FindCandidates(r.Context(), user, svc)
	if err != nil {
		http.Error(w, "failed to find candidates", http.StatusInternalServerError)
		return
	}

	// strip password hashes before the candidates leave the engine
	for i := range candidates {
		candidates[i].User.PasswordHash = ""
	}

	writeJSON(w, map[string]any{"items": candidates, "total": len(candidates)}, http.StatusOK)
}
