package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"
)

// RateLimiter throttles requests per client IP with a token bucket. Buckets
// refill continuously at RPS tokens per second up to Burst.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*tokenBucket

	rps   float64
	burst float64

	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

type tokenBucket struct {
	tokens float64
	seen   time.Time
}

// RateLimiterConfig configures a RateLimiter.
type RateLimiterConfig struct {
	RPS   float64
	Burst int

	// Now overrides the clock in tests.
	Now func() time.Time
}

// NewRateLimiter builds a limiter and starts a background eviction loop for
// idle clients. Call Close to stop the loop.
func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	rl := &RateLimiter{
		clients: make(map[string]*tokenBucket),
		rps:     cfg.RPS,
		burst:   float64(cfg.Burst),
		now:     cfg.Now,
		stop:    make(chan struct{}),
	}
	go rl.evictLoop()
	return rl
}

// Allow reports whether a request from ip fits the budget, spending one token
// when it does.
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := rl.clients[ip]
	if !ok {
		b = &tokenBucket{tokens: rl.burst, seen: now}
		rl.clients[ip] = b
	} else {
		b.tokens += now.Sub(b.seen).Seconds() * rl.rps
		if b.tokens > rl.burst {
			b.tokens = rl.burst
		}
		b.seen = now
	}

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// Close stops the eviction loop. Safe to call more than once.
func (rl *RateLimiter) Close() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) evictLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.evictIdle(rl.now().Add(-10 * time.Minute))
		case <-rl.stop:
			return
		}
	}
}

func (rl *RateLimiter) evictIdle(cutoff time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, b := range rl.clients {
		if b.seen.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

// Middleware rejects over-budget requests with 429 Too Many Requests. The
// client IP comes from r.RemoteAddr, which RealIP has already resolved.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		if host, _, err := net.SplitHostPort(ip); err == nil {
			ip = host
		}
		if !rl.Allow(ip) {
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
