// Package ratelimit provides token bucket rate limiting for webhook traffic.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter implements a token bucket. Safe for concurrent use.
//
// Tokens refill at refillRate per second up to maxTokens; each allowed
// request consumes one token.
type Limiter struct {
	mu         sync.Mutex
	tokens     float64
	maxTokens  float64
	refillRate float64
	lastRefill time.Time
}

// New creates a limiter with the given burst capacity and per-second refill.
func New(maxTokens, refillRate float64) *Limiter {
	return &Limiter{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// refill must be called with mu held.
func (l *Limiter) refill() {
	now := time.Now()
	l.tokens += now.Sub(l.lastRefill).Seconds() * l.refillRate
	if l.tokens > l.maxTokens {
		l.tokens = l.maxTokens
	}
	l.lastRefill = now
}

// Allow reports whether a request may proceed, consuming a token when it may.
func (l *Limiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refill()
	if l.tokens >= 1.0 {
		l.tokens -= 1.0
		return true
	}
	return false
}

// Available returns the current token count.
func (l *Limiter) Available() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refill()
	return l.tokens
}

// IsFull reports whether the bucket is at capacity, which marks an inactive
// limiter eligible for cleanup.
func (l *Limiter) IsFull() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refill()
	return l.tokens >= l.maxTokens
}

// PerKeyConfig configures a PerKeyLimiter.
type PerKeyConfig struct {
	MaxTokens     float64
	RefillRate    float64
	CleanupPeriod time.Duration
}

// PerKeyLimiter keeps one token bucket per key (user id) and removes idle
// buckets periodically.
type PerKeyLimiter struct {
	mu       sync.RWMutex
	limiters map[string]*Limiter
	config   PerKeyConfig
	onDrop   func()
	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewPerKeyLimiter creates a per-key limiter and starts its cleanup loop.
func NewPerKeyLimiter(cfg PerKeyConfig) *PerKeyLimiter {
	if cfg.CleanupPeriod <= 0 {
		cfg.CleanupPeriod = 5 * time.Minute
	}
	pkl := &PerKeyLimiter{
		limiters: make(map[string]*Limiter),
		config:   cfg,
		stopCh:   make(chan struct{}),
	}
	go pkl.cleanupLoop()
	return pkl
}

// OnDrop registers a callback invoked whenever a request is rejected.
func (pkl *PerKeyLimiter) OnDrop(fn func()) {
	pkl.onDrop = fn
}

// Allow reports whether a request for the key may proceed.
// An empty key is always allowed.
func (pkl *PerKeyLimiter) Allow(key string) bool {
	if key == "" {
		return true
	}

	pkl.mu.RLock()
	limiter, ok := pkl.limiters[key]
	pkl.mu.RUnlock()

	if !ok {
		pkl.mu.Lock()
		limiter, ok = pkl.limiters[key]
		if !ok {
			limiter = New(pkl.config.MaxTokens, pkl.config.RefillRate)
			pkl.limiters[key] = limiter
		}
		pkl.mu.Unlock()
	}

	allowed := limiter.Allow()
	if !allowed && pkl.onDrop != nil {
		pkl.onDrop()
	}
	return allowed
}

// ActiveCount returns the number of tracked keys.
func (pkl *PerKeyLimiter) ActiveCount() int {
	pkl.mu.RLock()
	defer pkl.mu.RUnlock()
	return len(pkl.limiters)
}

func (pkl *PerKeyLimiter) cleanupLoop() {
	ticker := time.NewTicker(pkl.config.CleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-pkl.stopCh:
			return
		case <-ticker.C:
			pkl.mu.Lock()
			for key, limiter := range pkl.limiters {
				if limiter.IsFull() {
					delete(pkl.limiters, key)
				}
			}
			pkl.mu.Unlock()
		}
	}
}

// Stop terminates the cleanup loop. Safe to call multiple times.
func (pkl *PerKeyLimiter) Stop() {
	pkl.stopOnce.Do(func() { close(pkl.stopCh) })
}
