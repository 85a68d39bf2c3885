package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_WaitSpacesRequests(t *testing.T) {
	t.Parallel()

	// 10 RPS with burst 1: the second request waits ~100ms.
	l := New(Config{DefaultRPS: 10, DefaultBurst: 1})
	ctx := context.Background()

	if err := l.Wait(ctx, "https://www.sydney.com/events"); err != nil {
		t.Fatal(err)
	}
	start := time.Now()
	if err := l.Wait(ctx, "https://www.sydney.com/events?page=2"); err != nil {
		t.Fatal(err)
	}
	if dur := time.Since(start); dur < 80*time.Millisecond {
		t.Errorf("expected wait ~100ms, got %v", dur)
	}
}

func TestLimiter_DifferentHosts(t *testing.T) {
	t.Parallel()

	l := New(Config{DefaultRPS: 1, DefaultBurst: 1})
	ctx := context.Background()

	if err := l.Wait(ctx, "https://a.example.com/1"); err != nil {
		t.Fatal(err)
	}
	start := time.Now()
	if err := l.Wait(ctx, "https://B.example.com/1"); err != nil {
		t.Fatal(err)
	}
	if dur := time.Since(start); dur > 100*time.Millisecond {
		t.Errorf("expected separate bucket per host, waited %v", dur)
	}
	if got := l.Hosts(); got != 2 {
		t.Errorf("expected 2 hosts, got %d", got)
	}
}

func TestLimiter_Unlimited(t *testing.T) {
	t.Parallel()

	l := New(Config{})
	ctx := context.Background()
	start := time.Now()
	for i := 0; i < 20; i++ {
		if err := l.Wait(ctx, "https://www.sydney.com/events"); err != nil {
			t.Fatal(err)
		}
	}
	if dur := time.Since(start); dur > 50*time.Millisecond {
		t.Errorf("expected no limiting, took %v", dur)
	}
}

func TestLimiter_WaitHonorsContext(t *testing.T) {
	t.Parallel()

	l := New(Config{DefaultRPS: 0.1, DefaultBurst: 1})
	if err := l.Wait(context.Background(), "https://slow.example.com"); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := l.Wait(ctx, "https://slow.example.com"); err == nil {
		t.Fatal("expected context error")
	}
}

func TestHostOf(t *testing.T) {
	t.Parallel()

	if got := hostOf("::not a url"); got != "unknown" {
		t.Errorf("expected unknown, got %q", got)
	}
	if got := hostOf("https://WWW.Sydney.com:443/x"); got != "www.sydney.com" {
		t.Errorf("unexpected host %q", got)
	}
}
