package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/barterhub/timebank/api"
	"github.com/barterhub/timebank/internal/config"
	dbpkg "github.com/barterhub/timebank/internal/db"
	"github.com/barterhub/timebank/internal/events"
	"github.com/barterhub/timebank/internal/repository/sqlite"
)

func testConfig() *config.Config {
	return &config.Config{
		Addr:          ":0",
		JWTSecret:     "test-secret",
		APITimeout:    5 * time.Second,
		DatabasePath:  ":memory:",
		TokenDuration: time.Hour,
		Notifier:      config.NotifierConfig{Workers: 1, PollInterval: 10 * time.Millisecond},
	}
}

// newTestServer wires the full router over an in-memory database.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	ctx := context.Background()
	d, err := dbpkg.New(ctx, ":memory:")
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := dbpkg.Migrate(ctx, d); err != nil {
		d.Close()
		t.Fatalf("failed to migrate: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	repo := sqlite.New(d, nil)
	router := api.SetupRoutes(testConfig(), "test", "now", repo, events.NopEmitter{})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

// doJSON performs a request and decodes the JSON response into out when
// non-nil. It returns the status code.
func doJSON(t *testing.T, srv *httptest.Server, method, path, token string, body, out any) int {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, srv.URL+path, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	if out != nil {
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			t.Fatalf("read response: %v", err)
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, out); err != nil {
				t.Fatalf("decode response %q: %v", string(raw), err)
			}
		}
	}
	return resp.StatusCode
}

type authResult struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

// signup registers a user, marks them onboarded, and returns the session.
func signup(t *testing.T, srv *httptest.Server, name, email string, category string) authResult {
	t.Helper()
	var res authResult
	status := doJSON(t, srv, http.MethodPost, "/v1/auth/signup", "", map[string]any{
		"name":     name,
		"email":    email,
		"password": "secret123",
		"category": category,
		"location": "Lisbon, PT",
	}, &res)
	if status != http.StatusOK {
		t.Fatalf("signup %s: status %d", email, status)
	}
	if res.Token == "" || res.UserID == "" {
		t.Fatalf("signup %s: incomplete response %#v", email, res)
	}

	status = doJSON(t, srv, http.MethodPatch, "/v1/me", res.Token, map[string]any{"onboarded": true}, nil)
	if status != http.StatusOK {
		t.Fatalf("onboard %s: status %d", email, status)
	}
	return res
}

// createService posts a service for the user and returns its id.
func createService(t *testing.T, srv *httptest.Server, token, title, category string, rate float64) string {
	t.Helper()
	var svc struct {
		ID string `json:"id"`
	}
	status := doJSON(t, srv, http.MethodPost, "/v1/services", token, map[string]any{
		"title":       title,
		"category":    category,
		"hourly_rate": rate,
		"skill_level": "intermediate",
	}, &svc)
	if status != http.StatusCreated {
		t.Fatalf("create service %s: status %d", title, status)
	}
	if svc.ID == "" {
		t.Fatalf("create service %s: no id returned", title)
	}
	return svc.ID
}
