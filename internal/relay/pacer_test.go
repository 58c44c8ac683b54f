package relay

import (
	"context"
	"testing"
	"time"
)

func TestTokenBucket_ImmediateBurst(t *testing.T) {
	tb := NewTokenBucket(5, time.Second)

	// Should be able to consume 5 tokens immediately (burst)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if err := tb.Wait(ctx); err != nil {
			t.Fatalf("burst token %d failed: %v", i, err)
		}
	}
}

func TestTokenBucket_WaitsAfterBurst(t *testing.T) {
	tb := NewTokenBucket(1, 100*time.Millisecond)

	ctx := context.Background()
	// Consume the single burst token
	if err := tb.Wait(ctx); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	// Next wait should block for roughly one interval
	start := time.Now()
	if err := tb.Wait(ctx); err != nil {
		t.Fatalf("second wait: %v", err)
	}
	elapsed := time.Since(start)

	if elapsed < 50*time.Millisecond {
		t.Fatalf("expected some wait time, got %v", elapsed)
	}
}

func TestTokenBucket_CancelledContext(t *testing.T) {
	tb := NewTokenBucket(1, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())

	// Drain the burst
	if err := tb.Wait(ctx); err != nil {
		t.Fatal(err)
	}

	// Cancel context before next wait completes
	cancel()
	if err := tb.Wait(ctx); err == nil {
		t.Fatal("expected context cancelled error")
	}
}

func TestTokenBucket_DefaultBurst(t *testing.T) {
	// Zero/negative burst should default to 1
	tb := NewTokenBucket(0, time.Second)
	if tb.max != 1 {
		t.Fatalf("expected default max=1, got %v", tb.max)
	}
	if tb.rate == 0 {
		t.Fatal("rate should not be zero")
	}
}

func TestTokenBucket_ZeroIntervalDisablesPacing(t *testing.T) {
	tb := NewTokenBucket(1, 0)

	ctx := context.Background()
	start := time.Now()
	for i := 0; i < 10; i++ {
		if err := tb.Wait(ctx); err != nil {
			t.Fatalf("wait %d: %v", i, err)
		}
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Fatalf("zero interval must not pace, waited %v", elapsed)
	}

	// Cancellation still surfaces.
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	if err := tb.Wait(cancelled); err == nil {
		t.Fatal("expected context cancelled error")
	}
}
