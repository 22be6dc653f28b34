// ABOUTME: In-memory render cache that wraps a markdown conversion function with sha256-keyed caching.
// ABOUTME: Entries expire by TTL and the entry count is capped, evicting the oldest first.
package markdown

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// RenderFunc converts markdown source to HTML.
type RenderFunc func(src string) (string, error)

type cacheEntry struct {
	html      string
	createdAt time.Time
	seq       uint64
}

// Cache wraps a RenderFunc. Keys are the sha256 of the source.
// Entries expire after the configured TTL and errors are never cached.
// Once maxEntries is reached, a miss prunes expired entries and then
// evicts the oldest until there is room.
type Cache struct {
	renderFn   RenderFunc
	ttl        time.Duration
	maxEntries int
	entries    map[string]*cacheEntry
	seq        uint64
	mu         sync.RWMutex
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithMaxEntries caps the number of cached sources. Values below 1 are ignored.
func WithMaxEntries(n int) CacheOption {
	return func(c *Cache) {
		if n > 0 {
			c.maxEntries = n
		}
	}
}

// NewCache creates a Cache wrapping renderFn, capped at DefaultCacheEntries unless overridden.
func NewCache(renderFn RenderFunc, ttl time.Duration, opts ...CacheOption) *Cache {
	c := &Cache{
		renderFn:   renderFn,
		ttl:        ttl,
		maxEntries: DefaultCacheEntries,
		entries:    make(map[string]*cacheEntry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Render returns the cached HTML for src when present and fresh, otherwise renders and stores it.
func (c *Cache) Render(src string) (string, error) {
	key := cacheKey(src)

	c.mu.RLock()
	if entry, ok := c.entries[key]; ok && time.Since(entry.createdAt) < c.ttl {
		html := entry.html
		c.mu.RUnlock()
		return html, nil
	}
	c.mu.RUnlock()

	html, err := c.renderFn(src)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.pruneLocked()
		for len(c.entries) >= c.maxEntries {
			c.evictOldestLocked()
		}
	}
	c.seq++
	c.entries[key] = &cacheEntry{html: html, createdAt: time.Now(), seq: c.seq}
	c.mu.Unlock()

	return html, nil
}

// Len returns the number of entries, including expired ones not yet pruned.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Prune drops expired entries.
func (c *Cache) Prune() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pruneLocked()
}

func (c *Cache) pruneLocked() {
	for key, entry := range c.entries {
		if time.Since(entry.createdAt) >= c.ttl {
			delete(c.entries, key)
		}
	}
}

func (c *Cache) evictOldestLocked() {
	var oldestKey string
	var oldest uint64
	for key, entry := range c.entries {
		if oldestKey == "" || entry.seq < oldest {
			oldestKey = key
			oldest = entry.seq
		}
	}
	delete(c.entries, oldestKey)
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cacheEntry)
}

func cacheKey(src string) string {
	sum := sha256.Sum256([]byte(src))
	return hex.EncodeToString(sum[:])
}
