package api_test

import (
	"net/http"
	"testing"
)

func TestServiceCreateAndGet(t *testing.T) {
	srv := newTestServer(t)
	auth := signup(t, srv, "Alice", "alice@example.com", "tech")

	id := createService(t, srv, auth.Token, "go lessons", "tech", 25)

	var svc struct {
		ID         string  `json:"id"`
		UserID     string  `json:"user_id"`
		Title      string  `json:"title"`
		Available  bool    `json:"available"`
		HourlyRate float64 `json:"hourly_rate"`
	}
	status := doJSON(t, srv, http.MethodGet, "/v1/services/"+id, auth.Token, nil, &svc)
	if status != http.StatusOK {
		t.Fatalf("get service: status %d", status)
	}
	if svc.UserID != auth.UserID || svc.Title != "go lessons" || !svc.Available || svc.HourlyRate != 25 {
		t.Fatalf("unexpected service: %#v", svc)
	}

	if status := doJSON(t, srv, http.MethodGet, "/v1/services/nope", auth.Token, nil, nil); status != http.StatusNotFound {
		t.Fatalf("missing service: expected 404 got %d", status)
	}
}

func TestServiceCreateValidation(t *testing.T) {
	srv := newTestServer(t)
	auth := signup(t, srv, "Alice", "alice@example.com", "tech")

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing title", map[string]any{"category": "tech"}},
		{"unknown category", map[string]any{"title": "x", "category": "plumbing"}},
		{"negative rate", map[string]any{"title": "x", "category": "tech", "hourly_rate": -1}},
		{"bad skill level", map[string]any{"title": "x", "category": "tech", "skill_level": "guru"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if status := doJSON(t, srv, http.MethodPost, "/v1/services", auth.Token, tc.body, nil); status != http.StatusBadRequest {
				t.Fatalf("expected 400 got %d", status)
			}
		})
	}
}

func TestServiceListFilters(t *testing.T) {
	srv := newTestServer(t)
	auth := signup(t, srv, "Alice", "alice@example.com", "tech")

	createService(t, srv, auth.Token, "go lessons", "tech", 25)
	createService(t, srv, auth.Token, "code review", "tech", 40)
	createService(t, srv, auth.Token, "meal prep", "food", 15)

	var list struct {
		Total  int64 `json:"total"`
		Limit  int   `json:"limit"`
		Offset int   `json:"offset"`
		Items  []struct {
			ID       string `json:"id"`
			Category string `json:"category"`
		} `json:"items"`
	}
	status := doJSON(t, srv, http.MethodGet, "/v1/services?category=tech", auth.Token, nil, &list)
	if status != http.StatusOK {
		t.Fatalf("list: status %d", status)
	}
	if list.Total != 2 || len(list.Items) != 2 {
		t.Fatalf("expected 2 tech services got %#v", list)
	}

	status = doJSON(t, srv, http.MethodGet, "/v1/services?category=plumbing", auth.Token, nil, nil)
	if status != http.StatusBadRequest {
		t.Fatalf("bad category filter: expected 400 got %d", status)
	}

	status = doJSON(t, srv, http.MethodGet, "/v1/services?limit=1&offset=1", auth.Token, nil, &list)
	if status != http.StatusOK {
		t.Fatalf("paged list: status %d", status)
	}
	if list.Total != 3 || len(list.Items) != 1 || list.Limit != 1 || list.Offset != 1 {
		t.Fatalf("pagination wrong: %#v", list)
	}
}

func TestServiceReenableBlockedWhileTraded(t *testing.T) {
	srv := newTestServer(t)
	f := newTradeFixture(t, srv)
	openTrade(t, srv, f)

	// bob cannot put his held service back on the market
	status := doJSON(t, srv, http.MethodPatch, "/v1/services/"+f.bobSvc+"/availability", f.bob.Token, map[string]any{"available": true}, nil)
	if status != http.StatusConflict {
		t.Fatalf("re-enable held service: expected 409 got %d", status)
	}

	// so a third party still cannot book it into a second trade
	carol := signup(t, srv, "Carol", "carol@example.com", "food")
	carolSvc := createService(t, srv, carol.Token, "meal prep", "food", 15)
	status = doJSON(t, srv, http.MethodPost, "/v1/trades", carol.Token, map[string]any{
		"provider_id":          f.bob.UserID,
		"service_offered_id":   carolSvc,
		"service_requested_id": f.bobSvc,
		"hours_offered":        1,
		"hours_requested":      1,
	}, nil)
	if status != http.StatusConflict {
		t.Fatalf("double booking: expected 409 got %d", status)
	}
}

func TestServiceAvailabilityOwnerOnly(t *testing.T) {
	srv := newTestServer(t)
	alice := signup(t, srv, "Alice", "alice@example.com", "tech")
	bob := signup(t, srv, "Bob", "bob@example.com", "creative")

	id := createService(t, srv, alice.Token, "go lessons", "tech", 25)

	status := doJSON(t, srv, http.MethodPatch, "/v1/services/"+id+"/availability", bob.Token, map[string]any{"available": false}, nil)
	if status != http.StatusForbidden {
		t.Fatalf("foreign toggle: expected 403 got %d", status)
	}

	status = doJSON(t, srv, http.MethodPatch, "/v1/services/"+id+"/availability", alice.Token, map[string]any{"available": false}, nil)
	if status != http.StatusOK {
		t.Fatalf("owner toggle: status %d", status)
	}

	var svc struct {
		Available bool `json:"available"`
	}
	doJSON(t, srv, http.MethodGet, "/v1/services/"+id, alice.Token, nil, &svc)
	if svc.Available {
		t.Fatalf("availability not persisted")
	}

	var list struct {
		Total int64 `json:"total"`
	}
	doJSON(t, srv, http.MethodGet, "/v1/services?available=true", alice.Token, nil, &list)
	if list.Total != 0 {
		t.Fatalf("unavailable service still listed as available")
	}
}
