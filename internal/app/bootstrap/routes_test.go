package bootstrap

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/schoolsuite/internal/app/system/identity"
	"github.com/dalemusser/schoolsuite/internal/app/system/indexes"
	"github.com/dalemusser/schoolsuite/internal/testutil"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5/middleware"
)

type rejectingVerifier struct{}

func (rejectingVerifier) Verify(context.Context, string) (identity.Identity, error) {
	return identity.Identity{}, errors.New("no credentials in tests")
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db, testLogger()); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}

	deps := DBDeps{
		MongoClient:   db.Client(),
		MongoDatabase: db,
		Verifier:      rejectingVerifier{},
	}
	h, err := BuildHandler(&config.CoreConfig{Env: "dev"}, validAppConfig(), deps, testLogger())
	if err != nil {
		t.Fatalf("BuildHandler: %v", err)
	}
	return h
}

func TestBuildHandler_PublicEndpoints(t *testing.T) {
	h := newTestRouter(t)

	for _, path := range []string{"/", "/sign-in", "/health", "/metrics"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, rec.Code)
		}
	}
}

func TestBuildHandler_RecordsRequireSession(t *testing.T) {
	h := newTestRouter(t)

	for _, path := range []string{"/students", "/staff", "/finances", "/payroll", "/events",
		"/library", "/questions", "/performance", "/members", "/audit", "/dashboard", "/auth/session"} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Accept", "application/json")
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("GET %s = %d, want 401", path, rec.Code)
		}
	}
}

func TestBuildHandler_UnknownPathIsJSON404(t *testing.T) {
	h := newTestRouter(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("body is not JSON: %q", rec.Body.String())
	}
	if body["code"] != "NOT_FOUND" {
		t.Errorf("code = %v, want NOT_FOUND", body["code"])
	}
}

func TestBuildHandler_SignInWithoutCredential(t *testing.T) {
	h := newTestRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/session",
		strings.NewReader(`{"uid":"u1","email":"ada@school.edu"}`))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	h := requestID(middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = middleware.GetReqID(r.Context())
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if len(seen) != 36 {
		t.Errorf("generated id = %q, want a UUID", seen)
	}
	if rec.Header().Get(middleware.RequestIDHeader) != seen {
		t.Error("response header does not echo the request id")
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.RequestIDHeader, "upstream-id")
	h.ServeHTTP(rec, req)
	if seen != "upstream-id" {
		t.Errorf("id = %q, want the caller's id kept", seen)
	}
}
