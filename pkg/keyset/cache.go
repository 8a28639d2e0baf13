package keyset

import (
	"sort"
	"sync"
	"time"
)

// Cache holds the key records of one key set. Refreshes insert or overwrite by
// kid and never remove, so keys of a rotated-out signer stay usable for the
// lifetime of the process.
type Cache struct {
	mu        sync.RWMutex
	entries   map[string]*KeyRecord
	refreshed time.Time // zero until the first successful refresh
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string]*KeyRecord)}
}

// Lookup never performs I/O and never touches the refresh time.
func (c *Cache) Lookup(kid string) (*KeyRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.entries[kid]
	return rec, ok
}

// ReplaceAll commits a fetched key set in one critical section.
// The refresh time never moves backwards.
func (c *Cache) ReplaceAll(records []*KeyRecord, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, rec := range records {
		if rec == nil {
			continue
		}
		c.entries[rec.id] = rec
	}
	if now.After(c.refreshed) {
		c.refreshed = now
	}
}

// LastRefresh returns the time of the last successful refresh, if any.
func (c *Cache) LastRefresh() (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.refreshed, !c.refreshed.IsZero()
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// IDs returns the cached kids in sorted order.
func (c *Cache) IDs() []string {
	c.mu.RLock()
	ids := make([]string, 0, len(c.entries))
	for id := range c.entries {
		ids = append(ids, id)
	}
	c.mu.RUnlock()
	sort.Strings(ids)
	return ids
}
