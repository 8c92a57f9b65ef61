package server

import (
	"sync"
	"time"

	"github.com/lawnchairsociety/epsilon/server/internal/config"
)

// CreateRateLimiter counts labyrinth generations per IP and locks out
// clients that exhaust their window.
type CreateRateLimiter struct {
	mu                sync.Mutex
	clients           map[string]*createInfo
	maxCreates        int
	window            time.Duration
	lockoutSeconds    int
	maxLockoutSeconds int
	cleanupInterval   time.Duration
	stopCleanup       chan struct{}
	stopOnce          sync.Once
	now               func() time.Time
}

type createInfo struct {
	windowStart  time.Time
	creates      int
	lockedUntil  time.Time
	lockoutCount int // Number of times locked out (for exponential backoff)
}

// NewCreateRateLimiter creates a new rate limiter with the given config.
func NewCreateRateLimiter(cfg config.RateLimitConfig) *CreateRateLimiter {
	rl := &CreateRateLimiter{
		clients:           make(map[string]*createInfo),
		maxCreates:        cfg.MaxCreates,
		window:            time.Duration(cfg.WindowSeconds) * time.Second,
		lockoutSeconds:    cfg.LockoutSeconds,
		maxLockoutSeconds: cfg.MaxLockoutSeconds,
		cleanupInterval:   5 * time.Minute,
		stopCleanup:       make(chan struct{}),
		now:               time.Now,
	}

	// Use sensible defaults if not configured
	if rl.maxCreates == 0 {
		rl.maxCreates = 30
	}
	if rl.window == 0 {
		rl.window = time.Minute
	}
	if rl.lockoutSeconds == 0 {
		rl.lockoutSeconds = 30
	}
	if rl.maxLockoutSeconds == 0 {
		rl.maxLockoutSeconds = 300
	}

	go rl.cleanupLoop()

	return rl
}

// Stop stops the cleanup goroutine. Safe to call more than once.
func (rl *CreateRateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCleanup) })
}

// Allow records a generation request from ip. It returns false with the
// remaining lockout when the request must be refused.
func (rl *CreateRateLimiter) Allow(ip string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	info, exists := rl.clients[ip]
	if !exists {
		info = &createInfo{windowStart: now}
		rl.clients[ip] = info
	}

	if now.Before(info.lockedUntil) {
		return false, info.lockedUntil.Sub(now)
	}

	if now.Sub(info.windowStart) >= rl.window {
		info.windowStart = now
		info.creates = 0
	}

	if info.creates < rl.maxCreates {
		info.creates++
		return true, 0
	}

	info.lockoutCount++
	// Exponential backoff: double the lockout each time, up to max
	lockout := time.Duration(rl.lockoutSeconds) * time.Second
	maxLockout := time.Duration(rl.maxLockoutSeconds) * time.Second
	for i := 1; i < info.lockoutCount; i++ {
		if lockout >= maxLockout/2 {
			lockout = maxLockout
			break
		}
		lockout *= 2
	}
	if lockout > maxLockout {
		lockout = maxLockout
	}
	info.lockedUntil = now.Add(lockout)
	info.windowStart = info.lockedUntil
	info.creates = 0
	return false, lockout
}

// Creates returns how many generations ip has used in its current window.
func (rl *CreateRateLimiter) Creates(ip string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if info, exists := rl.clients[ip]; exists {
		return info.creates
	}
	return 0
}

func (rl *CreateRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopCleanup:
			return
		case <-ticker.C:
			rl.cleanup()
		}
	}
}

// cleanup forgets clients whose window and lockout both ended ten minutes ago.
func (rl *CreateRateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-10 * time.Minute)
	for ip, info := range rl.clients {
		if info.lockedUntil.Before(cutoff) && info.windowStart.Add(rl.window).Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}
