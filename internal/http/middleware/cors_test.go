package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func corsRequest(mw func(http.Handler) http.Handler, method, origin string, preflight bool) (*httptest.ResponseRecorder, bool) {
	called := false
	req := httptest.NewRequest(method, "/conversations/start", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	if preflight {
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	}
	rec := httptest.NewRecorder()
	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(rec, req)
	return rec, called
}

func TestCORSEchoesListedOrigin(t *testing.T) {
	mw := CORS([]string{"https://portal.example.org"})
	rec, called := corsRequest(mw, http.MethodPost, "https://portal.example.org", false)

	if !called {
		t.Fatalf("expected handler to be called")
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://portal.example.org" {
		t.Fatalf("allow-origin = %q, want the request origin", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Headers"); got != corsAllowedHeaders {
		t.Fatalf("allow-headers = %q, want %q", got, corsAllowedHeaders)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got != corsAllowedMethods {
		t.Fatalf("allow-methods = %q, want %q", got, corsAllowedMethods)
	}
}

func TestCORSIgnoresUnknownOrigin(t *testing.T) {
	mw := CORS([]string{"https://portal.example.org"})
	rec, called := corsRequest(mw, http.MethodGet, "https://evil.example", false)

	if !called {
		t.Fatalf("expected handler to be called; the browser enforces denial")
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("allow-origin = %q, want empty", got)
	}
}

func TestCORSWildcardEchoesAnyOrigin(t *testing.T) {
	mw := CORS([]string{"*"})
	rec, _ := corsRequest(mw, http.MethodGet, "https://anything.example", false)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://anything.example" {
		t.Fatalf("allow-origin = %q, want the request origin", got)
	}
}

func TestCORSPreflightShortCircuits(t *testing.T) {
	mw := CORS([]string{"https://portal.example.org"})
	rec, called := corsRequest(mw, http.MethodOptions, "https://portal.example.org", true)

	if called {
		t.Fatalf("preflight must not reach the handler")
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
}

func TestCORSSkipsBlankEntries(t *testing.T) {
	policy := newOriginPolicy([]string{" ", "", " https://portal.example.org "})
	if !policy.allows("https://portal.example.org") {
		t.Fatalf("expected trimmed origin to be allowed")
	}
	if policy.allows("") {
		t.Fatalf("blank origin must not be allowed")
	}
}
