package chatservice

import (
	"context"
	"testing"
	"time"
)

func TestTryAcquireDrainsBucket(t *testing.T) {
	// Near-zero refill so the bucket does not recover during the test.
	limiter := NewRateLimiter(RateLimiterConfig{MaxTokens: 3, RefillRate: 0.001, MinInterval: 0})

	for i := 0; i < 3; i++ {
		if !limiter.TryAcquire() {
			t.Fatalf("acquire %d should succeed on a full bucket", i)
		}
	}
	if limiter.TryAcquire() {
		t.Error("acquire on an empty bucket should fail")
	}
	if tokens := limiter.AvailableTokens(); tokens >= 1 {
		t.Errorf("expected empty bucket, got %.2f tokens", tokens)
	}
}

func TestWaitReturnsImmediatelyWithTokens(t *testing.T) {
	limiter := NewRateLimiter(RateLimiterConfig{MaxTokens: 5, RefillRate: 1, MinInterval: 0})

	start := time.Now()
	if err := limiter.Wait(context.Background()); err != nil {
		t.Fatalf("Wait returned error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("Wait with available tokens took %v", elapsed)
	}
}

func TestWaitHonorsContextCancellation(t *testing.T) {
	limiter := NewRateLimiter(RateLimiterConfig{MaxTokens: 1, RefillRate: 0.001, MinInterval: 0})
	if !limiter.TryAcquire() {
		t.Fatal("setup: could not drain bucket")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := limiter.Wait(ctx); err != context.DeadlineExceeded {
		t.Errorf("expected DeadlineExceeded from empty bucket, got %v", err)
	}
}

func TestSetBackoffMultiplierSlowsLimiter(t *testing.T) {
	limiter := NewRateLimiter(RateLimiterConfig{MaxTokens: 10, RefillRate: 4, MinInterval: 50 * time.Millisecond})

	limiter.SetBackoffMultiplier(2.0)
	if limiter.refillRate != 2 {
		t.Errorf("refill rate should halve, got %.2f", limiter.refillRate)
	}
	if limiter.minInterval != 100*time.Millisecond {
		t.Errorf("min interval should double, got %v", limiter.minInterval)
	}

	// Multipliers at or below 1 are ignored.
	limiter.SetBackoffMultiplier(0.5)
	if limiter.refillRate != 2 {
		t.Errorf("multiplier <= 1 must be a no-op, got refill rate %.2f", limiter.refillRate)
	}

	limiter.ResetToDefaults()
	defaults := DefaultRateLimiterConfig()
	if limiter.refillRate != defaults.RefillRate || limiter.minInterval != defaults.MinInterval {
		t.Errorf("ResetToDefaults did not restore config: rate=%.2f interval=%v", limiter.refillRate, limiter.minInterval)
	}
}
