/*
ratelimit.go - Per-actor request rate limiting

PURPOSE:
  Token-bucket rate limiting keyed by actor ID. Protects the API from a
  single misbehaving client without a shared gateway in front.

DEFAULTS:
  120 requests/minute per actor with a burst of 120. Entries idle for
  twice the cleanup interval are dropped.

PLACEMENT:
  Runs after WithActor so the limiter key is the resolved actor ID.

SEE ALSO:
  - middleware.go: Actor resolution
  - server.go: Middleware ordering
*/
package api

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/warp/hr-engine/hr"
)

// RateLimiterConfig holds the per-actor limiter settings.
type RateLimiterConfig struct {
	Rate            rate.Limit
	Burst           int
	CleanupInterval time.Duration
}

// DefaultRateLimiterConfig returns the default settings: 120 req/min/actor.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		Rate:            rate.Limit(120.0 / 60.0),
		Burst:           120,
		CleanupInterval: 5 * time.Minute,
	}
}

type actorLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter manages one token bucket per actor.
type RateLimiter struct {
	config RateLimiterConfig

	mu       sync.Mutex
	limiters map[hr.UserID]*actorLimiter

	stopCh chan struct{}
}

// NewRateLimiter creates a RateLimiter and starts its cleanup loop.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	rl := &RateLimiter{
		config:   config,
		limiters: make(map[hr.UserID]*actorLimiter),
		stopCh:   make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Stop terminates the background cleanup goroutine.
func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
}

// Middleware returns the rate-limiting middleware. Must run after WithActor.
func (rl *RateLimiter) Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "No actor in context", nil)
				return
			}

			if !rl.limiterFor(actor.ID).Allow() {
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusTooManyRequests, "Too many requests", nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (rl *RateLimiter) limiterFor(id hr.UserID) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if al, ok := rl.limiters[id]; ok {
		al.lastAccess = time.Now()
		return al.limiter
	}

	al := &actorLimiter{
		limiter:    rate.NewLimiter(rl.config.Rate, rl.config.Burst),
		lastAccess: time.Now(),
	}
	rl.limiters[id] = al
	return al.limiter
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *RateLimiter) cleanup() {
	ttl := rl.config.CleanupInterval * 2
	now := time.Now()

	rl.mu.Lock()
	for id, al := range rl.limiters {
		if now.Sub(al.lastAccess) > ttl {
			delete(rl.limiters, id)
		}
	}
	rl.mu.Unlock()
}
