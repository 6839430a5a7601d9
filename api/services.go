package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/barterhub/timebank/internal/catalog"
	"github.com/barterhub/timebank/pkg/models"
	"github.com/barterhub/timebank/pkg/repository"
)

type ServicesHandler struct {
	catalog *catalog.Catalog
}

func NewServicesHandler(c *catalog.Catalog) *ServicesHandler {
	return &ServicesHandler{catalog: c}
}

type createServiceRequest struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Category    models.Category   `json:"category"`
	HourlyRate  float64           `json:"hourly_rate"`
	SkillLevel  models.SkillLevel `json:"skill_level"`
}

func (h *ServicesHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req createServiceRequest
	if !decodeValidated(w, r, "service_create", &req) {
		return
	}

	svc, err := h.catalog.Create(r.Context(), uid, catalog.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		HourlyRate:  req.HourlyRate,
		SkillLevel:  req.SkillLevel,
	})
	if err != nil {
		writeJSON(w, errorResponse{Error: err.Error(), Kind: "validation"}, http.StatusBadRequest)
		return
	}

	writeJSON(w, svc, http.StatusCreated)
}

func (h *ServicesHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	f := repository.ServiceFilter{
		Location: q.Get("location"),
		Limit:    50,
	}
	if c := q.Get("category"); c != "" {
		if !models.ValidCategory(models.Category(c)) {
			writeJSON(w, errorResponse{Error: "unknown category", Kind: "validation"}, http.StatusBadRequest)
			return
		}
		f.Category = models.Category(c)
	}
	if q.Get("available") == "true" {
		f.AvailableOnly = true
	}
	if l := q.Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 500 {
			f.Limit = v
		}
	}
	if o := q.Get("offset"); o != "" {
		if v, err := strconv.Atoi(o); err == nil && v >= 0 {
			f.Offset = v
		}
	}

	items, total, err := h.catalog.List(r.Context(), f)
	if err != nil {
		http.Error(w, "failed to list services", http.StatusInternalServerError)
		return
	}

	resp := map[string]any{
		"total":  total,
		"limit":  f.Limit,
		"offset": f.Offset,
		"items":  items,
	}
	writeJSON(w, resp, http.StatusOK)
}

func (h *ServicesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	svc, err := h.catalog.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, svc, http.StatusOK)
}

type availabilityRequest struct {
	Available bool `json:"available"`
}

func (h *ServicesHandler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req availabilityRequest
	if !decodeValidated(w, r, "availability", &req) {
		return
	}

	id := mux.Vars(r)["id"]
	if err := h.catalog.SetAvailability(r.Context(), id, uid, req.Available); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, map[string]any{"id": id, "available": req.Available}, http.StatusOK)
}
