package cache

import (
	"fmt"
	"sync"
	"time"

	"moneytracker/internal/core"
	"moneytracker/internal/metrics"
)

// StatsCache memoises month overviews per record store revision. Seeing a
// newer revision drops everything cached for older ones.
type StatsCache struct {
	lru     *LRUCache[core.MonthOverview]
	metrics *metrics.Metrics

	mu  sync.Mutex
	rev uint64
}

func NewStatsCache(size int, ttl time.Duration, m *metrics.Metrics) *StatsCache {
	return &StatsCache{lru: NewLRUCache[core.MonthOverview](size, ttl), metrics: m}
}

// Overview returns the cached overview for year/month at revision rev, or
// computes it. Year 0 stands for the whole collection. Results for a
// revision older than the newest seen are computed but not stored.
func (c *StatsCache) Overview(rev uint64, year, month int, compute func() core.MonthOverview) core.MonthOverview {
	key := statsKey(rev, year, month)
	if v, ok := c.lru.Get(key); ok {
		c.metrics.ObserveCache(true)
		return v
	}
	c.metrics.ObserveCache(false)
	v := compute()

	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case rev > c.rev:
		c.lru.Purge()
		c.rev = rev
	case rev < c.rev:
		return v
	}
	c.lru.Set(key, v)
	return v
}

func (c *StatsCache) CleanExpired() int { return c.lru.CleanExpired() }

func (c *StatsCache) Size() int { return c.lru.Size() }

func statsKey(rev uint64, year, month int) string {
	if year == 0 {
		return fmt.Sprintf("%d:all", rev)
	}
	return fmt.Sprintf("%d:%04d-%02d", rev, year, month)
}
