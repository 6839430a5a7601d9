package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"log/slog"

	"github.com/barterhub/timebank/pkg/models"
)

func writeJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("encode response", slog.Any("err", err))
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// writeDomainError maps the engine's error taxonomy onto HTTP statuses. The
// UI renders a distinct message per kind, so the kind travels in the body.
func writeDomainError(w http.ResponseWriter, err error) {
	var status int
	var kind string
	switch {
	case errors.Is(err, models.ErrNotFound):
		status, kind = http.StatusNotFound, "not_found"
	case errors.Is(err, models.ErrUnauthorized):
		status, kind = http.StatusForbidden, "unauthorized"
	case errors.Is(err, models.ErrInvalidTransition):
		status, kind = http.StatusConflict, "invalid_transition"
	case errors.Is(err, models.ErrTradeClosed):
		status, kind = http.StatusConflict, "trade_closed"
	case errors.Is(err, models.ErrServiceUnavailable):
		status, kind = http.StatusConflict, "service_unavailable"
	case errors.Is(err, models.ErrServiceInTrade):
		status, kind = http.StatusConflict, "service_in_trade"
	case errors.Is(err, models.ErrSessionEnded):
		status, kind = http.StatusConflict, "session_ended"
	case errors.Is(err, models.ErrNothingToUndo):
		status, kind = http.StatusConflict, "nothing_to_undo"
	case errors.Is(err, models.ErrInvalidHours):
		status, kind = http.StatusBadRequest, "invalid_hours"
	case errors.Is(err, models.ErrSelfTrade):
		status, kind = http.StatusBadRequest, "self_trade"
	case errors.Is(err, models.ErrUnavailable):
		status, kind = http.StatusServiceUnavailable, "storage_unavailable"
	default:
		logger.Error("internal error", slog.Any("err", err))
		writeJSON(w, errorResponse{Error: "internal error", Kind: "internal"}, http.StatusInternalServerError)
		return
	}
	writeJSON(w, errorResponse{Error: err.Error(), Kind: kind}, status)
}
