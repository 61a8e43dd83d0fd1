package middleware

import (
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// Limiter keeps one token bucket per client. Authenticated requests are keyed
// by shop, anonymous ones by IP address.
type Limiter struct {
	limiters sync.Map // key -> *limiterEntry
	mu       sync.Mutex
	rate     rate.Limit
	burst    int
	done     chan struct{}
}

// healthCheckPaths are endpoints exempt from rate limiting.
var healthCheckPaths = map[string]bool{
	"/api/health": true,
	"/healthz":    true,
}

// NewLimiter creates a limiter allowing perSecond sustained requests and
// bursts of burst requests per client.
func NewLimiter(perSecond float64, burst int) *Limiter {
	l := &Limiter{
		rate:  rate.Limit(perSecond),
		burst: burst,
		done:  make(chan struct{}),
	}
	go l.cleanup(5*time.Minute, 10*time.Minute)
	return l
}

// Stop ends the background cleanup.
func (l *Limiter) Stop() {
	close(l.done)
}

func (l *Limiter) get(key string) *rate.Limiter {
	now := time.Now()
	if v, ok := l.limiters.Load(key); ok {
		e := v.(*limiterEntry)
		l.mu.Lock()
		e.lastAccess = now
		l.mu.Unlock()
		return e.limiter
	}
	v, _ := l.limiters.LoadOrStore(key, &limiterEntry{
		limiter:    rate.NewLimiter(l.rate, l.burst),
		lastAccess: now,
	})
	return v.(*limiterEntry).limiter
}

func (l *Limiter) cleanup(every, idle time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cutoff := time.Now().Add(-idle)
			l.limiters.Range(func(key, value any) bool {
				e := value.(*limiterEntry)
				l.mu.Lock()
				stale := e.lastAccess.Before(cutoff)
				l.mu.Unlock()
				if stale {
					l.limiters.Delete(key)
				}
				return true
			})
		case <-l.done:
			return
		}
	}
}

// Middleware rejects requests over the limit with 429 and a Retry-After header.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if healthCheckPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		lim := l.get(clientKey(r))
		res := lim.Reserve()
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.burst))

		if delay := res.Delay(); !res.OK() || delay > 0 {
			res.Cancel()
			retry := int(math.Ceil(delay.Seconds()))
			if retry < 1 {
				retry = 1
			}
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("Retry-After", strconv.Itoa(retry))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]any{
				"success": false,
				"error":   "Too many requests. Please try again later.",
			})
			return
		}

		remaining := int(math.Floor(lim.Tokens()))
		if remaining < 0 {
			remaining = 0
		}
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		next.ServeHTTP(w, r)
	})
}

func clientKey(r *http.Request) string {
	if shop, ok := ShopFromContext(r.Context()); ok {
		return "shop:" + shop
	}
	return "ip:" + extractIP(r)
}

// extractIP retrieves the client IP from the request, preferring
// X-Forwarded-For and X-Real-IP headers (for reverse proxy setups),
// and falling back to RemoteAddr.
func extractIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.SplitN(xff, ",", 2)
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
