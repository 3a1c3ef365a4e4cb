package router

import (
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimit describes a token bucket per client IP.
type RateLimit struct {
	// Requests is the number of requests allowed per Window.
	Requests int
	Window   time.Duration
	// Burst is the bucket size. Defaults to Requests.
	Burst int
}

const limiterIdleSweep = 5 * time.Minute

type ipLimiter struct {
	cfg   RateLimit
	limit rate.Limit
	burst int

	limiters sync.Map // ip -> *rate.Limiter

	mu        sync.Mutex
	lastSweep time.Time
}

func newIPLimiter(cfg RateLimit) *ipLimiter {
	burst := cfg.Burst
	if burst <= 0 {
		burst = cfg.Requests
	}

	return &ipLimiter{
		cfg:       cfg,
		limit:     rate.Limit(float64(cfg.Requests) / cfg.Window.Seconds()),
		burst:     burst,
		lastSweep: time.Now(),
	}
}

func (l *ipLimiter) get(key string) *rate.Limiter {
	if v, ok := l.limiters.Load(key); ok {
		return v.(*rate.Limiter)
	}

	v, _ := l.limiters.LoadOrStore(key, rate.NewLimiter(l.limit, l.burst))
	l.sweep()
	return v.(*rate.Limiter)
}

// sweep drops buckets that refilled completely, which means the client went idle.
func (l *ipLimiter) sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if time.Since(l.lastSweep) < limiterIdleSweep {
		return
	}
	l.lastSweep = time.Now()

	l.limiters.Range(func(key, value any) bool {
		if value.(*rate.Limiter).Tokens() >= float64(l.burst) {
			l.limiters.Delete(key)
		}
		return true
	})
}

func middlewareRateLimit(cfg RateLimit) Middleware {
	if cfg.Requests <= 0 || cfg.Window <= 0 {
		return nil
	}
	l := newIPLimiter(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// RemoteAddr already carries the client IP after middlewareIP.
			key := r.RemoteAddr

			limiter := l.get(key)
			if limiter.Allow() {
				next.ServeHTTP(w, r)
				return
			}

			res := limiter.Reserve()
			retryAfter := max(int(res.Delay().Seconds()), 1)
			res.Cancel()

			slog.WarnContext(r.Context(), "rate limit exceeded", "key", key, "path", matchedRoutePath(r), "retry_after", retryAfter)

			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.cfg.Requests))
			writeJSON(w, errorResponse{Message: "Too many requests"}, http.StatusTooManyRequests)
		})
	}
}
