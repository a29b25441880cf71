package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func limitedRequest(mw func(http.Handler) http.Handler, ip string) int {
	req := httptest.NewRequest(http.MethodPost, "/conversations/message", nil)
	req.Header.Set("X-Real-Ip", ip)
	rec := httptest.NewRecorder()
	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(rec, req)
	return rec.Code
}

func TestRateLimitExhaustsBurst(t *testing.T) {
	mw := RateLimit(0.001, 2)

	if code := limitedRequest(mw, "10.0.0.1"); code != http.StatusOK {
		t.Fatalf("first request = %d, want %d", code, http.StatusOK)
	}
	if code := limitedRequest(mw, "10.0.0.1"); code != http.StatusOK {
		t.Fatalf("second request = %d, want %d", code, http.StatusOK)
	}
	if code := limitedRequest(mw, "10.0.0.1"); code != http.StatusTooManyRequests {
		t.Fatalf("third request = %d, want %d", code, http.StatusTooManyRequests)
	}
}

func TestRateLimitBucketsPerIP(t *testing.T) {
	mw := RateLimit(0.001, 1)

	if code := limitedRequest(mw, "10.0.0.1"); code != http.StatusOK {
		t.Fatalf("first ip = %d, want %d", code, http.StatusOK)
	}
	if code := limitedRequest(mw, "10.0.0.2"); code != http.StatusOK {
		t.Fatalf("second ip = %d, want %d", code, http.StatusOK)
	}
	if code := limitedRequest(mw, "10.0.0.1"); code != http.StatusTooManyRequests {
		t.Fatalf("exhausted ip = %d, want %d", code, http.StatusTooManyRequests)
	}
}

func TestClientIPFallsBackToRemoteAddr(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	if got := clientIP(req); got != req.RemoteAddr {
		t.Fatalf("clientIP = %q, want %q", got, req.RemoteAddr)
	}
}
