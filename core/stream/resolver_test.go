package stream

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

type countingIssuer struct {
	calls int
	url   string
	err   error
}

func (c *countingIssuer) IssueURL(ctx context.Context, trackID int64) (string, error) {
	c.calls++
	if c.err != nil {
		return "", c.err
	}
	return fmt.Sprintf("%s?n=%d", c.url, c.calls), nil
}

func TestResolverCachesWithinTTL(t *testing.T) {
	issuer := &countingIssuer{url: "http://cdn/1.mp3"}
	r := NewResolver(issuer, 10*time.Minute)

	first, err := r.Resolve(context.Background(), 1)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	second, err := r.Resolve(context.Background(), 1)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if issuer.calls != 1 {
		t.Fatalf("expected one upstream issue, got %d", issuer.calls)
	}
	if first != second {
		t.Fatalf("cached URL changed: %q vs %q", first, second)
	}
}

func TestResolverRefreshesNearExpiry(t *testing.T) {
	issuer := &countingIssuer{url: "http://cdn/1.mp3"}
	r := NewResolver(issuer, 10*time.Minute)

	now := time.Now()
	r.now = func() time.Time { return now }

	if _, err := r.Resolve(context.Background(), 1); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	// Inside the refresh window the cached entry is no longer trusted.
	now = now.Add(10*time.Minute - 30*time.Second)
	if _, err := r.Resolve(context.Background(), 1); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if issuer.calls != 2 {
		t.Fatalf("expected a proactive refresh, got %d issues", issuer.calls)
	}
}

func TestResolverDoesNotCacheFailures(t *testing.T) {
	issuer := &countingIssuer{err: errors.New("gateway down")}
	r := NewResolver(issuer, 10*time.Minute)

	if _, err := r.Resolve(context.Background(), 1); err == nil {
		t.Fatal("expected error")
	}

	issuer.err = nil
	issuer.url = "http://cdn/1.mp3"
	if _, err := r.Resolve(context.Background(), 1); err != nil {
		t.Fatalf("recovery resolve: %v", err)
	}
	if issuer.calls != 2 {
		t.Fatalf("failure must not be cached, got %d issues", issuer.calls)
	}
}

func TestResolverServesStaleOnRefreshFailure(t *testing.T) {
	issuer := &countingIssuer{url: "http://cdn/1.mp3"}
	r := NewResolver(issuer, 10*time.Minute)

	now := time.Now()
	r.now = func() time.Time { return now }

	first, err := r.Resolve(context.Background(), 1)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	now = now.Add(10*time.Minute - 30*time.Second)
	issuer.err = errors.New("gateway down")
	url, err := r.Resolve(context.Background(), 1)
	if err != nil {
		t.Fatalf("stale fallback should mask a refresh failure: %v", err)
	}
	if url != first {
		t.Fatalf("expected the stale URL back, got %q", url)
	}

	// Fully expired entries must not be served.
	now = now.Add(time.Minute)
	if _, err := r.Resolve(context.Background(), 1); err == nil {
		t.Fatal("expired entry must not mask a failure")
	}
}

func TestResolverClear(t *testing.T) {
	issuer := &countingIssuer{url: "http://cdn/1.mp3"}
	r := NewResolver(issuer, 10*time.Minute)

	if _, err := r.Resolve(context.Background(), 1); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	r.Clear()
	if _, err := r.Resolve(context.Background(), 1); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if issuer.calls != 2 {
		t.Fatalf("Clear must drop cached entries, got %d issues", issuer.calls)
	}
}
