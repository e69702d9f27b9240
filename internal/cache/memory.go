package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Pages larger than this stay on disk only. Portal pages run up to the
// fetcher's body cap, and holding hundreds of those in memory for the
// whole batch would dwarf the process.
const maxMemoryEntryBytes = 1 << 20

// MemoryCache is the in-process layer of the page cache. Entries
// expire after their TTL and are swept by go-cache's janitor.
type MemoryCache struct {
	store *gocache.Cache
}

// NewMemoryCache creates a memory cache with the given default TTL and
// janitor sweep interval
func NewMemoryCache(defaultTTL, sweepInterval time.Duration) *MemoryCache {
	return &MemoryCache{store: gocache.New(defaultTTL, sweepInterval)}
}

// Get retrieves a value; the second return reports a hit
func (c *MemoryCache) Get(key string) ([]byte, bool) {
	val, found := c.store.Get(key)
	if !found {
		return nil, false
	}
	data, ok := val.([]byte)
	return data, ok
}

// Set stores a value. Oversized entries are skipped without error so
// the disk layer still keeps them. A zero TTL uses the default.
func (c *MemoryCache) Set(key string, value []byte, ttl time.Duration) error {
	if len(value) > maxMemoryEntryBytes {
		return nil
	}
	c.store.Set(key, value, ttl)
	return nil
}

// Delete removes a value
func (c *MemoryCache) Delete(key string) error {
	c.store.Delete(key)
	return nil
}

// Clear drops every entry
func (c *MemoryCache) Clear() error {
	c.store.Flush()
	return nil
}
