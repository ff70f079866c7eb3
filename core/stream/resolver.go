// Package stream serves remote audio to the local player: a TTL cache over
// provider-issued streaming URLs and a loopback HTTP proxy that pipes the
// upstream CDN response through, Range requests included.
package stream

import (
	"context"
	"errors"
	"sync"
	"time"

	"unifm/logger"
)

// ErrNotFound is returned when the provider has no playable stream for a
// track (region lock, paid-only, removed). Distinct from transport errors so
// the proxy can answer 404 instead of 502.
var ErrNotFound = errors.New("stream: track has no playable source")

// URLIssuer fetches a fresh streaming URL for a track from the provider.
type URLIssuer interface {
	IssueURL(ctx context.Context, trackID int64) (string, error)
}

// IssuerFunc adapts a function to URLIssuer.
type IssuerFunc func(ctx context.Context, trackID int64) (string, error)

func (f IssuerFunc) IssueURL(ctx context.Context, trackID int64) (string, error) {
	return f(ctx, trackID)
}

type cacheEntry struct {
	url       string
	expiresAt time.Time
}

// Resolver caches provider streaming URLs per track. Provider URLs are
// short-lived signed links, so entries carry a TTL and are refreshed a
// little before they lapse rather than handed out right up to the deadline.
// Failures are never cached.
type Resolver struct {
	issuer URLIssuer
	ttl    time.Duration
	now    func() time.Time

	mu      sync.Mutex
	entries map[int64]cacheEntry
}

// refreshWindow is how long before expiry an entry stops being served from
// cache. A URL handed to the player just under the deadline would die
// mid-handshake on the CDN side.
const refreshWindow = 1 * time.Minute

// NewResolver creates a resolver issuing through issuer with the given
// cache TTL.
func NewResolver(issuer URLIssuer, ttl time.Duration) *Resolver {
	return &Resolver{
		issuer:  issuer,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[int64]cacheEntry),
	}
}

// Resolve returns a streaming URL for the track, from cache when the cached
// entry is still comfortably inside its TTL, otherwise freshly issued.
func (r *Resolver) Resolve(ctx context.Context, trackID int64) (string, error) {
	r.mu.Lock()
	entry, ok := r.entries[trackID]
	now := r.now()
	r.mu.Unlock()

	if ok && now.Add(refreshWindow).Before(entry.expiresAt) {
		return entry.url, nil
	}

	url, err := r.issuer.IssueURL(ctx, trackID)
	if err != nil {
		// Stale-but-unexpired fallback: a refresh attempt failing should
		// not take down playback while the old URL may still work.
		if ok && now.Before(entry.expiresAt) {
			logger.Warn("[Resolver] refresh failed, serving stale URL",
				logger.Int64("trackId", trackID),
				logger.ErrorField(err))
			return entry.url, nil
		}
		return "", err
	}

	r.mu.Lock()
	r.entries[trackID] = cacheEntry{url: url, expiresAt: now.Add(r.ttl)}
	r.mu.Unlock()
	return url, nil
}

// Clear drops every cached URL.
func (r *Resolver) Clear() {
	r.mu.Lock()
	r.entries = make(map[int64]cacheEntry)
	r.mu.Unlock()
}
