package ratelimit

import (
	"context"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func TestLimiter_New(t *testing.T) {
	limiter := NewLimiter(10, 5)
	if limiter.defaultBurst != 5 {
		t.Errorf("expected burst 5, got %d", limiter.defaultBurst)
	}

	l2 := NewLimiter(10, -1)
	if l2.defaultBurst != 1 {
		t.Errorf("expected default burst 1 for negative input, got %d", l2.defaultBurst)
	}
}

func TestLimiter_Wait(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "https://kaino.kotus.fi/ses/ajax.php"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
	if err := limiter.Wait(ctx, "http://example.com"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
}

func TestLimiter_WaitCancelled(t *testing.T) {
	limiter := NewLimiter(0.01, 1)
	url := "http://example.com"

	if err := limiter.Wait(context.Background(), url); err != nil {
		t.Fatalf("first wait failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := limiter.Wait(ctx, url); err == nil {
		t.Error("expected wait to fail when the context cannot outlast the limiter")
	}
}

func TestLimiter_PerHostBuckets(t *testing.T) {
	limiter := NewLimiter(1, 1)
	url := "http://example.com"

	if err := limiter.Wait(context.Background(), url); err != nil {
		t.Errorf("first wait failed: %v", err)
	}

	// Burst 1 is consumed
	if limiter.getLimiter("example.com").Allow() {
		t.Errorf("expected exhausted tokens for example.com")
	}

	// Different host has its own bucket
	if !limiter.getLimiter("other.com").Allow() {
		t.Errorf("expected a token for other host")
	}
}

func TestLimiter_ApplyCrawlDelay(t *testing.T) {
	limiter := NewLimiter(10, 1)

	limiter.ApplyCrawlDelay("kaino.kotus.fi", 2*time.Second)
	if got := limiter.getLimiter("kaino.kotus.fi").Limit(); got != rate.Every(2*time.Second) {
		t.Errorf("expected crawl delay rate, got %v", got)
	}

	// A faster crawl delay must not speed the host up again
	limiter.ApplyCrawlDelay("kaino.kotus.fi", 100*time.Millisecond)
	if got := limiter.getLimiter("kaino.kotus.fi").Limit(); got != rate.Every(2*time.Second) {
		t.Errorf("rate should stay at the slower limit, got %v", got)
	}

	limiter.ApplyCrawlDelay("other.fi", 0)
	if got := limiter.getLimiter("other.fi").Limit(); got != 10 {
		t.Errorf("zero delay should keep the default rate, got %v", got)
	}
}

func TestExtractHost(t *testing.T) {
	host, err := extractHost("https://kaino.kotus.fi/ses/ajax.php?m=qs-results")
	if err != nil {
		t.Fatalf("extractHost failed: %v", err)
	}
	if host != "kaino.kotus.fi" {
		t.Errorf("expected kaino.kotus.fi, got %s", host)
	}

	if _, err := extractHost("::invalid"); err == nil {
		t.Errorf("expected error for invalid URL")
	}
}
