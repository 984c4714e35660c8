// Package cache holds the latest-version metadata for every package the
// open manifests reference, bounded by a TTL.
//
// Expired entries are dropped along two paths that share the same TTL:
// the periodic sweep is the authority that bounds memory, while Get
// re-checks expiry at read time so an individual lookup never returns
// stale data between sweeps.
package cache

import (
	"sync"
	"time"
)

// DefaultTTL is the freshness window applied when none is configured.
const DefaultTTL = 30 * time.Minute

// entry is the cached record for one package.
type entry struct {
	version   string
	timestamp time.Time
	files     map[string]struct{}
}

// Stats summarizes cache contents for diagnostics.
type Stats struct {
	Packages int
	Files    int
}

// Cache maps package names to their last-observed latest version and
// the set of manifest files that declare them.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]*entry
}

// New creates an empty cache with the given TTL.
func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]*entry),
	}
}

// TTL returns the freshness window.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Get returns the cached version for name if the entry is still within
// its TTL. An expired entry found here is evicted immediately.
func (c *Cache) Get(name string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[name]
	if !ok {
		return "", false
	}
	// A stale-marked entry reads as a miss but is not evicted: its
	// consuming files must survive until the refetch lands.
	if e.timestamp.IsZero() {
		return "", false
	}
	if c.expired(e, time.Now()) {
		delete(c.entries, name)
		return "", false
	}
	return e.version, true
}

// Set upserts the latest version for name and refreshes its timestamp.
// A non-empty filePath is added to the entry's consuming files.
func (c *Cache) Set(name, version, filePath string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[name]
	if !ok {
		e = &entry{files: make(map[string]struct{})}
		c.entries[name] = e
	}
	e.version = version
	e.timestamp = time.Now()
	if filePath != "" {
		e.files[filePath] = struct{}{}
	}
}

// AddFile records filePath as a consumer of name's entry, if one
// exists. Used when a lookup is skipped because the version is already
// cached or in flight: the requesting file still declared the package.
func (c *Cache) AddFile(name, filePath string) {
	if filePath == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[name]; ok {
		e.files[filePath] = struct{}{}
	}
}

// ClearForFile removes filePath from every entry's consuming-file set
// and deletes entries no file depends on anymore. Returns the names of
// the deleted entries so callers can drop related bookkeeping. Called
// when a manifest is rewritten or deleted, so stale package/file
// associations do not accumulate.
func (c *Cache) ClearForFile(filePath string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var removed []string
	for name, e := range c.entries {
		delete(e.files, filePath)
		if len(e.files) == 0 {
			delete(c.entries, name)
			removed = append(removed, name)
		}
	}
	return removed
}

// ClearPackage removes name unconditionally. Used by manual refresh.
func (c *Cache) ClearPackage(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, name)
}

// MarkStale zeroes the refresh timestamp of the named packages so the
// next Get treats them as expired, without losing their consuming-file
// associations while the refetch is in flight.
func (c *Cache) MarkStale(names []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, name := range names {
		if e, ok := c.entries[name]; ok {
			e.timestamp = time.Time{}
		}
	}
}

// SweepExpired evicts every entry whose last refresh predates the TTL
// and returns how many were removed. Intended to run on a fixed period
// independent of reads.
func (c *Cache) SweepExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	removed := 0
	for name, e := range c.entries {
		if c.expired(e, now) {
			delete(c.entries, name)
			removed++
		}
	}
	return removed
}

// Stats reports the number of distinct packages cached and distinct
// files referenced across all entries.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	files := make(map[string]struct{})
	for _, e := range c.entries {
		for f := range e.files {
			files[f] = struct{}{}
		}
	}
	return Stats{
		Packages: len(c.entries),
		Files:    len(files),
	}
}

// expired reports genuine TTL expiry. A zero timestamp is the
// stale-marked sentinel, not an old entry, so it never counts as
// expired here; Get handles it separately.
func (c *Cache) expired(e *entry, now time.Time) bool {
	if e.timestamp.IsZero() {
		return false
	}
	return now.Sub(e.timestamp) >= c.ttl
}
