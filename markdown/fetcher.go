// ABOUTME: Fetcher acquires the formatting engine on demand, simulating a deferred bundle download.
// ABOUTME: Honors context cancellation during latency and can be configured to fail for fallback demos.
package markdown

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrFetchFailed is returned when the fetcher is configured to fail.
var ErrFetchFailed = errors.New("markdown engine fetch failed")

// DefaultCacheTTL bounds how long a rendered preview is reused for identical source.
const DefaultCacheTTL = 5 * time.Minute

// DefaultCacheEntries caps how many distinct sources one engine keeps rendered.
const DefaultCacheEntries = 128

// Fetcher builds an Engine from the module catalog.
type Fetcher struct {
	// Modules to compile into the engine. Defaults to DefaultModules.
	Modules []string
	// Latency simulates the download/parse cost of the heavy bundle.
	Latency time.Duration
	// Fail makes every fetch return ErrFetchFailed after Latency.
	Fail bool
	// CacheTTL for the engine's render cache. Defaults to DefaultCacheTTL.
	CacheTTL time.Duration
	// CacheEntries caps the engine's render cache. Defaults to DefaultCacheEntries.
	CacheEntries int
}

// Fetch waits out the configured latency and returns a ready engine.
func (f Fetcher) Fetch(ctx context.Context) (*Engine, error) {
	if f.Latency > 0 {
		timer := time.NewTimer(f.Latency)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, fmt.Errorf("fetch markdown engine: %w", ctx.Err())
		}
	} else if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("fetch markdown engine: %w", err)
	}

	if f.Fail {
		return nil, ErrFetchFailed
	}

	names := f.Modules
	if len(names) == 0 {
		names = DefaultModules
	}
	mods, err := resolveModules(names)
	if err != nil {
		return nil, fmt.Errorf("fetch markdown engine: %w", err)
	}

	ttl := f.CacheTTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	entries := f.CacheEntries
	if entries <= 0 {
		entries = DefaultCacheEntries
	}
	return newEngine(mods, ttl, entries), nil
}
