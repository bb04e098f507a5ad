package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const visitorIdleTimeout = 3 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// visitorLimiters hands out one token bucket per client IP.
type visitorLimiters struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rps      rate.Limit
	burst    int
}

func newVisitorLimiters(rps float64, burst int) *visitorLimiters {
	return &visitorLimiters{
		visitors: make(map[string]*visitor),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
}

func (v *visitorLimiters) allow(ip string, now time.Time) bool {
	v.mu.Lock()
	item, ok := v.visitors[ip]
	if !ok {
		item = &visitor{limiter: rate.NewLimiter(v.rps, v.burst)}
		v.visitors[ip] = item
	}
	item.lastSeen = now
	v.mu.Unlock()
	return item.limiter.AllowN(now, 1)
}

func (v *visitorLimiters) sweep(now time.Time) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for key, item := range v.visitors {
		if now.Sub(item.lastSeen) > visitorIdleTimeout {
			delete(v.visitors, key)
		}
	}
}

func RateLimit(rps float64, burst int) func(http.Handler) http.Handler {
	if rps <= 0 {
		rps = 20
	}
	if burst <= 0 {
		burst = 40
	}

	limiters := newVisitorLimiters(rps, burst)
	go func() {
		ticker := time.NewTicker(60 * time.Second)
		defer ticker.Stop()
		for now := range ticker.C {
			limiters.sweep(now)
		}
	}()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiters.allow(extractIP(r.RemoteAddr), time.Now()) {
				w.Header().Set("Retry-After", "1")
				WriteError(w, r, http.StatusTooManyRequests, "rate_limited", "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func extractIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil || host == "" {
		return remoteAddr
	}
	return host
}
