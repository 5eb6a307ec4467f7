package summarizer

import (
	"sync"
	"time"
)

// summaryCache provides thread-safe caching for summaries
type summaryCache struct {
	items    map[string]cachedSummary
	capacity int
	ttl      time.Duration
	mu       sync.RWMutex
	now      func() time.Time
}

type cachedSummary struct {
	result   Result
	expireAt time.Time
}

func newSummaryCache(capacity int, ttl time.Duration) *summaryCache {
	return &summaryCache{
		items:    make(map[string]cachedSummary),
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
	}
}

func (c *summaryCache) get(key string) (Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, exists := c.items[key]
	if !exists || !c.now().Before(item.expireAt) {
		return Result{}, false
	}
	return item.result, true
}

// put stores result and returns the number of cached items. When full, expired
// entries are dropped first, then the entry closest to expiry.
func (c *summaryCache) put(key string, result Result) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, exists := c.items[key]; !exists && len(c.items) >= c.capacity {
		var oldestKey string
		var oldest time.Time
		for k, item := range c.items {
			if !now.Before(item.expireAt) {
				delete(c.items, k)
				continue
			}
			if oldestKey == "" || item.expireAt.Before(oldest) {
				oldestKey, oldest = k, item.expireAt
			}
		}
		if len(c.items) >= c.capacity && oldestKey != "" {
			delete(c.items, oldestKey)
		}
	}

	c.items[key] = cachedSummary{result: result, expireAt: now.Add(c.ttl)}
	return len(c.items)
}

func (c *summaryCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
