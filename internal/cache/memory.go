package cache

import (
	"context"
	"sync"
	"time"

	"github.com/ncecere/usage_dashboard/internal/models"
)

type memoryEntry struct {
	report    models.Report
	expiresAt time.Time
}

// MemoryCache is an in-process TTL cache used when Redis is not configured.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[int64]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = defaultReportTTL
	}
	return &MemoryCache{
		entries: make(map[int64]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, id int64) (models.Report, bool) {
	if c == nil {
		return models.Report{}, false
	}
	c.mu.RLock()
	entry, ok := c.entries[id]
	c.mu.RUnlock()
	if !ok || !c.now().Before(entry.expiresAt) {
		return models.Report{}, false
	}
	return entry.report, true
}

func (c *MemoryCache) Set(_ context.Context, report models.Report) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entries[report.ID] = memoryEntry{report: report, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

// Sweep drops expired entries and returns how many were removed.
func (c *MemoryCache) Sweep() int {
	if c == nil {
		return 0
	}
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for id, entry := range c.entries {
		if !now.Before(entry.expiresAt) {
			delete(c.entries, id)
			removed++
		}
	}
	return removed
}

func (c *MemoryCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
