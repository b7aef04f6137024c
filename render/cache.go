// Package render contains the preview pipeline: the engine adapter bound to
// the active backend, the fingerprint-keyed preview cache, and the batch
// orchestrator.
package render

import (
	"slices"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/fontproof/fontproof"
)

// Cache maps render fingerprints to previously computed results and
// collapses concurrent renders of the same key to a single engine call.
//
// A stored result is only ever returned for a lookup with an identical key;
// there is no partial or fuzzy matching. The cache is unbounded by default;
// a soft limit enables least-recently-used eviction as a non-breaking
// extension.
//
// Cache is safe for concurrent use.
// Cache must not be copied after creation (has mutex).
type Cache struct {
	mu        sync.Mutex
	entries   map[fontproof.CacheKey]*cacheEntry
	softLimit int
	tick      int64 // Monotonic access counter

	// group collapses concurrent renders per key across overlapping
	// batches: both callers receive the same eventual result.
	group singleflight.Group
}

// cacheEntry holds a cached result with its access time.
type cacheEntry struct {
	result *fontproof.RenderResult
	atime  int64 // Access time (tick value)
}

// NewCache creates a cache with the given soft limit.
// A softLimit of 0 means unlimited.
func NewCache(softLimit int) *Cache {
	return &Cache{
		entries:   make(map[fontproof.CacheKey]*cacheEntry),
		softLimit: softLimit,
	}
}

// Lookup retrieves a cached result.
// The returned result is shared and must be treated as read-only; use
// Clone before modifying it.
func (c *Cache) Lookup(key fontproof.CacheKey) (*fontproof.RenderResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}

	c.tick++
	entry.atime = c.tick
	return entry.result, true
}

// Store inserts a result under its key. The store is atomic with respect to
// readers: a lookup observes either nothing or the complete result.
func (c *Cache) Store(key fontproof.CacheKey, result *fontproof.RenderResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tick++
	c.entries[key] = &cacheEntry{result: result, atime: c.tick}

	if c.softLimit > 0 && len(c.entries) > c.softLimit {
		c.evictOldest()
	}
}

// Do returns the cached result for key, or computes it by calling compute
// exactly once even when multiple goroutines request the same key
// concurrently. Successful results are stored before being returned;
// failures are not cached.
func (c *Cache) Do(key fontproof.CacheKey, compute func() (*fontproof.RenderResult, error)) (*fontproof.RenderResult, error) {
	if res, ok := c.Lookup(key); ok {
		fontproof.Logger().Debug("render cache hit", "key", key.String())
		return res, nil
	}

	v, err, _ := c.group.Do(key.String(), func() (any, error) {
		// Double check: another flight may have stored the result
		// between the lookup above and entering the flight.
		if res, ok := c.Lookup(key); ok {
			return res, nil
		}
		res, err := compute()
		if err != nil {
			return nil, err
		}
		c.Store(key, res)
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*fontproof.RenderResult), nil
}

// Clear removes all entries. Settings changes do not require this (a
// changed setting yields a different key); it exists for the case where
// font file content changes on disk without the session reloading it.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[fontproof.CacheKey]*cacheEntry)
	c.tick = 0
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// evictOldest removes entries until under the soft limit.
// Caller must hold c.mu.
func (c *Cache) evictOldest() {
	// Evict down to 75% of the limit so stores don't evict one-by-one.
	targetSize := c.softLimit * 3 / 4
	if targetSize < 1 {
		targetSize = 1
	}
	toEvict := len(c.entries) - targetSize
	if toEvict <= 0 {
		return
	}

	type aged struct {
		key   fontproof.CacheKey
		atime int64
	}
	entries := make([]aged, 0, len(c.entries))
	for key, e := range c.entries {
		entries = append(entries, aged{key: key, atime: e.atime})
	}
	slices.SortFunc(entries, func(a, b aged) int {
		return int(a.atime - b.atime)
	})

	for i := 0; i < toEvict && i < len(entries); i++ {
		delete(c.entries, entries[i].key)
	}
}
