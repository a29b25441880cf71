package middleware

import (
	"net/http"
	"sync"
	"time"
)

// Defaults sized for a chat client: a turn every couple of seconds is normal,
// sustained bursts are not. Stale callers are swept so the map stays bounded.
const (
	visitorTTL    = 10 * time.Minute
	sweepInterval = 5 * time.Minute
)

type visitor struct {
	tokens float64
	seen   time.Time
}

// tokenBucket tracks one bucket per client IP. Tokens refill continuously at
// perSecond up to burst.
type tokenBucket struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	perSecond float64
	burst     float64
}

func newTokenBucket(perSecond float64, burst int) *tokenBucket {
	tb := &tokenBucket{
		visitors:  make(map[string]*visitor),
		perSecond: perSecond,
		burst:     float64(burst),
	}
	go tb.sweep()
	return tb
}

func (tb *tokenBucket) take(ip string) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	v, ok := tb.visitors[ip]
	if !ok {
		v = &visitor{tokens: tb.burst, seen: now}
		tb.visitors[ip] = v
	}

	v.tokens += now.Sub(v.seen).Seconds() * tb.perSecond
	if v.tokens > tb.burst {
		v.tokens = tb.burst
	}
	v.seen = now

	if v.tokens < 1 {
		return false
	}
	v.tokens--
	return true
}

func (tb *tokenBucket) sweep() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-visitorTTL)
		tb.mu.Lock()
		for ip, v := range tb.visitors {
			if v.seen.Before(cutoff) {
				delete(tb.visitors, ip)
			}
		}
		tb.mu.Unlock()
	}
}

// clientIP prefers the address resolved by chi's RealIP middleware, which
// rewrites RemoteAddr from X-Real-Ip / X-Forwarded-For upstream of us.
func clientIP(r *http.Request) string {
	if xri := r.Header.Get("X-Real-Ip"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

// RateLimit caps per-IP request rates on the tenant API, answering 429 once
// a client exhausts its burst.
func RateLimit(perSecond float64, burst int) func(http.Handler) http.Handler {
	bucket := newTokenBucket(perSecond, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !bucket.take(clientIP(r)) {
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
