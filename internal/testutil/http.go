package testutil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gcnet/fieldtasks/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// NewSessionManager builds a session manager suitable for handler tests.
func NewSessionManager(t *testing.T) *auth.SessionManager {
	t.Helper()
	sm, err := auth.NewSessionManager(
		"0123456789abcdef0123456789abcdef", "fieldtasks-test-session", "", false, NopLogger())
	if err != nil {
		t.Fatalf("failed to build test session manager: %v", err)
	}
	return sm
}

// SignIn runs a throwaway sign-in and copies the resulting session cookie
// onto req, so handler tests can issue authenticated requests.
func SignIn(t *testing.T, sm *auth.SessionManager, req *http.Request, u *auth.SessionUser) {
	t.Helper()

	rec := httptest.NewRecorder()
	seed := httptest.NewRequest(http.MethodPost, "/login", nil)
	if err := sm.SignIn(rec, seed, u); err != nil {
		t.Fatalf("test sign-in failed: %v", err)
	}

	res := rec.Result()
	defer res.Body.Close()
	for _, c := range res.Cookies() {
		req.AddCookie(c)
	}
}
