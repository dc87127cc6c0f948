package chatservice

import (
	"context"
	"sync"
	"time"
)

// RateLimiter implements a token bucket limiter for outgoing API requests.
// It keeps a burst of sends from tripping the server's 429 throttle.
type RateLimiter struct {
	mu sync.Mutex

	tokens         float64       // Current number of tokens
	maxTokens      float64       // Maximum tokens (bucket size)
	refillRate     float64       // Tokens added per second
	lastRefillTime time.Time     // Last time tokens were refilled
	minInterval    time.Duration // Minimum interval between requests
}

// RateLimiterConfig holds configuration for the rate limiter
type RateLimiterConfig struct {
	MaxTokens   float64       // Max burst capacity (default: 10)
	RefillRate  float64       // Tokens per second (default: 4)
	MinInterval time.Duration // Minimum time between requests (default: 50ms)
}

// DefaultRateLimiterConfig returns defaults tuned for an interactive chat
// client: generous burst, no visible lag between user actions.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		MaxTokens:   10,
		RefillRate:  4,
		MinInterval: 50 * time.Millisecond,
	}
}

// NewRateLimiter creates a new rate limiter with the given config
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	return &RateLimiter{
		tokens:         config.MaxTokens,
		maxTokens:      config.MaxTokens,
		refillRate:     config.RefillRate,
		lastRefillTime: time.Now(),
		minInterval:    config.MinInterval,
	}
}

// Wait blocks until a token is available or the context is cancelled
func (r *RateLimiter) Wait(ctx context.Context) error {
	for {
		r.mu.Lock()
		r.refillTokens()

		if r.tokens >= 1 {
			r.tokens--
			minInterval := r.minInterval
			r.mu.Unlock()

			if minInterval <= 0 {
				return nil
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(minInterval):
				return nil
			}
		}

		waitTime := time.Duration(float64(time.Second) / r.refillRate)
		r.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(waitTime):
		}
	}
}

// TryAcquire attempts to acquire a token without blocking
func (r *RateLimiter) TryAcquire() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.refillTokens()
	if r.tokens >= 1 {
		r.tokens--
		return true
	}
	return false
}

// AvailableTokens returns the current number of available tokens
func (r *RateLimiter) AvailableTokens() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.refillTokens()
	return r.tokens
}

// refillTokens adds tokens based on elapsed time (must be called with lock held)
func (r *RateLimiter) refillTokens() {
	now := time.Now()
	elapsed := now.Sub(r.lastRefillTime).Seconds()
	r.tokens += elapsed * r.refillRate
	if r.tokens > r.maxTokens {
		r.tokens = r.maxTokens
	}
	r.lastRefillTime = now
}

// SetBackoffMultiplier slows the limiter down after a 429: the refill
// rate is divided and the minimum interval multiplied by the factor.
func (r *RateLimiter) SetBackoffMultiplier(multiplier float64) {
	if multiplier <= 1 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.refillRate = r.refillRate / multiplier
	r.minInterval = time.Duration(float64(r.minInterval) * multiplier)
}

// ResetToDefaults restores the default limiter configuration
func (r *RateLimiter) ResetToDefaults() {
	config := DefaultRateLimiterConfig()
	r.mu.Lock()
	defer r.mu.Unlock()

	r.refillRate = config.RefillRate
	r.minInterval = config.MinInterval
}
