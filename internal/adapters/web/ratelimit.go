package web

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// loginLimiter throttles authentication attempts per client IP.
type loginLimiter struct {
	mu          sync.Mutex
	limiters    map[string]*limiterEntry
	rate        rate.Limit
	burst       int
	entryTTL    time.Duration
	lastCleanup time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// newLoginLimiter allows perMinute attempts per IP with a burst of the same size.
// A non-positive perMinute disables limiting.
func newLoginLimiter(perMinute int) *loginLimiter {
	if perMinute <= 0 {
		return nil
	}
	return &loginLimiter{
		limiters:    make(map[string]*limiterEntry),
		rate:        rate.Every(time.Minute / time.Duration(perMinute)),
		burst:       perMinute,
		entryTTL:    10 * time.Minute,
		lastCleanup: time.Now(),
	}
}

func (l *loginLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.Sub(l.lastCleanup) > l.entryTTL {
		for k, e := range l.limiters {
			if now.Sub(e.lastSeen) > l.entryTTL {
				delete(l.limiters, k)
			}
		}
		l.lastCleanup = now
	}

	e, ok := l.limiters[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.limiters[key] = e
	}
	e.lastSeen = now
	return e.limiter.Allow()
}

// Middleware rejects requests over the limit with HTTP 429.
func (l *loginLimiter) Middleware(next http.Handler) http.Handler {
	if l == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(clientIP(r)) {
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.burst))
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("Retry-After", "60")
			writeError(w, r, "too many login attempts, try again later", "RATE_LIMITED", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
