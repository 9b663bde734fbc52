package ratelimiter

import (
	"sync"
	"time"
)

// FixedWindowRateLimiter counts requests per client IP inside a fixed
// window. Cart mutations are cheap but the storefront is unauthenticated,
// so every write route sits behind this.
type FixedWindowRateLimiter struct {
	sync.Mutex
	clients map[string]*windowCount
	limit   int
	window  time.Duration
}

type windowCount struct {
	count   int
	started time.Time
}

func NewFixedWindowLimiter(limit int, window time.Duration) *FixedWindowRateLimiter {
	rl := &FixedWindowRateLimiter{
		clients: make(map[string]*windowCount),
		limit:   limit,
		window:  window,
	}
	go rl.cleanup()
	return rl
}

// Allow reports whether the client may proceed, and if not, how long until
// its window resets.
func (rl *FixedWindowRateLimiter) Allow(ip string) (bool, time.Duration) {
	now := time.Now()

	rl.Lock()
	defer rl.Unlock()

	wc, ok := rl.clients[ip]
	if !ok || now.Sub(wc.started) >= rl.window {
		rl.clients[ip] = &windowCount{count: 1, started: now}
		return true, 0
	}

	if wc.count < rl.limit {
		wc.count++
		return true, 0
	}

	return false, rl.window - now.Sub(wc.started)
}

// cleanup drops expired windows so the map does not grow with one entry per
// IP the server has ever seen.
func (rl *FixedWindowRateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window)
	for range ticker.C {
		now := time.Now()
		rl.Lock()
		for ip, wc := range rl.clients {
			if now.Sub(wc.started) >= rl.window {
				delete(rl.clients, ip)
			}
		}
		rl.Unlock()
	}
}
