package relay

import (
	"context"
	"sync"
	"time"
)

// Pacer throttles successive deliveries. The dispatcher waits on it after
// every successful delivery, which keeps destination rate limits respected
// without any caller cooperation.
type Pacer interface {
	Wait(ctx context.Context) error
}

// TokenBucket is a token bucket pacer: burst tokens up front, then one token
// per interval. A non-positive interval disables pacing entirely.
type TokenBucket struct {
	mu        sync.Mutex
	unlimited bool
	tokens    float64
	max       float64
	rate      float64 // tokens per second
	lastTime  time.Time
}

func NewTokenBucket(maxBurst int, interval time.Duration) *TokenBucket {
	if maxBurst <= 0 {
		maxBurst = 1
	}
	if interval <= 0 {
		return &TokenBucket{unlimited: true}
	}
	return &TokenBucket{
		tokens:   float64(maxBurst),
		max:      float64(maxBurst),
		rate:     1.0 / interval.Seconds(),
		lastTime: time.Now(),
	}
}

func (tb *TokenBucket) Wait(ctx context.Context) error {
	if tb.unlimited {
		return ctx.Err()
	}
	for {
		tb.mu.Lock()
		now := time.Now()
		elapsed := now.Sub(tb.lastTime).Seconds()
		tb.tokens += elapsed * tb.rate
		if tb.tokens > tb.max {
			tb.tokens = tb.max
		}
		tb.lastTime = now

		if tb.tokens >= 1.0 {
			tb.tokens -= 1.0
			tb.mu.Unlock()
			return nil
		}

		waitSec := (1.0 - tb.tokens) / tb.rate
		tb.mu.Unlock()

		timer := time.NewTimer(time.Duration(waitSec * float64(time.Second)))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
