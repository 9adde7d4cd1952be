package cache

import (
	"sync"
	"time"
)

const (
	planPrefix  = "plan:"
	addonPrefix = "addon:"
)

func PlanKey(code string) string  { return planPrefix + code }
func AddonKey(code string) string { return addonPrefix + code }

// PriceCache is a process-local snapshot of catalog prices in cents.
// A refresh swaps the whole map; single-key fills land in the current snapshot
// and are discarded by the next refresh.
type PriceCache struct {
	mu      sync.RWMutex
	entries map[string]int64
	expiry  time.Time
}

func NewPriceCache() *PriceCache {
	return &PriceCache{entries: make(map[string]int64)}
}

func (c *PriceCache) Get(key string) (int64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cents, ok := c.entries[key]
	return cents, ok
}

func (c *PriceCache) Set(key string, cents int64) {
	c.mu.Lock()
	c.entries[key] = cents
	c.mu.Unlock()
}

// Stale reports whether now is past the snapshot expiry. An empty cache is always stale.
func (c *PriceCache) Stale(now time.Time) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.expiry.IsZero() || now.After(c.expiry)
}

// Replace installs a fresh snapshot valid until expiresAt.
func (c *PriceCache) Replace(entries map[string]int64, expiresAt time.Time) {
	next := make(map[string]int64, len(entries))
	for k, v := range entries {
		next[k] = v
	}
	c.mu.Lock()
	c.entries = next
	c.expiry = expiresAt
	c.mu.Unlock()
}

func (c *PriceCache) Expiry() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.expiry
}

func (c *PriceCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Invalidate forces the next read to rebuild.
func (c *PriceCache) Invalidate() {
	c.mu.Lock()
	c.expiry = time.Time{}
	c.mu.Unlock()
}
