package server

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/geoquest/routequest/internal/ai"
	"github.com/geoquest/routequest/internal/database"
	"github.com/geoquest/routequest/internal/migrations"
)

type testEnv struct {
	router chi.Router
	store  Store
	db     *sql.DB
}

// newTestEnv builds the full route table over an in-memory database with
// the demo course and game seeded.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := migrations.Run(db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := SeedDemo(context.Background(), logger, db); err != nil {
		t.Fatalf("seeding: %v", err)
	}

	store := NewSQLiteStore(db)

	r := chi.NewRouter()
	addRoutes(r, logger, Deps{
		Store:          store,
		DB:             db,
		Superuser:      "admin@admin.se",
		BaseURL:        "http://localhost:8080",
		ProviderStatus: ai.NewStatusCache(nil, time.Minute),
	})

	return &testEnv{router: r, store: store, db: db}
}

// do runs one request against the route table and decodes the JSON
// response into out (skipped when out is nil).
func (e *testEnv) do(t *testing.T, method, path string, body any, out any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	if out != nil {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("decoding %s %s response %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec
}

// exec runs a raw statement against the test database.
func (e *testEnv) exec(t *testing.T, query string, args ...any) {
	t.Helper()
	if _, err := e.db.Exec(query, args...); err != nil {
		t.Fatalf("exec %q: %v", query, err)
	}
}

type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func wantStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, want, rec.Body.String())
	}
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/healthz", nil, nil)
	wantStatus(t, rec, http.StatusOK)
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodOptions, "/api/getBackgroundTasks", nil, nil)
	wantStatus(t, rec, http.StatusNoContent)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}

	// Non-preflight responses carry the header too.
	rec = env.do(t, http.MethodGet, "/api/getBackgroundTasks", nil, nil)
	wantStatus(t, rec, http.StatusOK)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}

func TestIsSuperuser(t *testing.T) {
	env := newTestEnv(t)

	check := func(email string, want bool) {
		t.Helper()
		req := httptest.NewRequest(http.MethodGet, "/api/isSuperuser", nil)
		if email != "" {
			req.Header.Set("x-user-email", email)
		}
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)
		wantStatus(t, rec, http.StatusOK)

		var resp SuperuserResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		if resp.IsSuperuser != want {
			t.Errorf("isSuperuser(%q) = %v, want %v", email, resp.IsSuperuser, want)
		}
	}

	check("admin@admin.se", true)
	check("ADMIN@Admin.SE", true)
	check("someone@else.se", false)
	check("", false)
}

func TestProviderStatusEndpoint(t *testing.T) {
	env := newTestEnv(t)

	var resp ProviderStatusResponse
	rec := env.do(t, http.MethodGet, "/api/getProviderStatus", nil, &resp)
	wantStatus(t, rec, http.StatusOK)
	if !resp.Success {
		t.Error("success = false")
	}
	if resp.Summary.Total != 0 {
		t.Errorf("total = %d, want 0 with no providers configured", resp.Summary.Total)
	}
}
