package services

import (
	"sync"

	"pcdash/internal/models"
)

// maxViewsPerMetric bounds how many lookbacks are kept for one metric
const maxViewsPerMetric = 4

type viewKey struct {
	metric   models.Metric
	lookback int
}

type cachedView struct {
	generation uint64
	lastUsed   uint64
	view       models.WindowView
}

// ViewCache holds rendered windows until their series receives a new sample.
// Several displays (HTTP polls, websocket stream, terminal) ask for the same
// window within one tick, so only the first one pays for the slice.
// A metric keeps at most maxViewsPerMetric entries, all of its newest generation.
type ViewCache struct {
	mu    sync.Mutex
	views map[viewKey]*cachedView
	clock uint64
	hits  uint64
	miss  uint64
}

func NewViewCache() *ViewCache {
	return &ViewCache{views: make(map[viewKey]*cachedView)}
}

// Get returns the view of s for metric and lookback, rendering it on a miss.
func (c *ViewCache) Get(metric models.Metric, s *Series, lookback int) models.WindowView {
	key := viewKey{metric: metric, lookback: lookback}
	gen := s.Generation()

	c.mu.Lock()
	c.clock++
	if cached, ok := c.views[key]; ok && cached.generation == gen {
		cached.lastUsed = c.clock
		c.hits++
		view := cached.view
		c.mu.Unlock()
		return view
	}
	c.mu.Unlock()

	// Render outside the lock; a concurrent push only makes this entry stale.
	view := ViewFor(metric, s, lookback)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.miss++
	c.views[key] = &cachedView{generation: gen, lastUsed: c.clock, view: view}
	c.evict(metric, gen)
	return view
}

// evict drops metric's entries older than gen, then the least recently used
// ones beyond maxViewsPerMetric. Callers hold c.mu.
func (c *ViewCache) evict(metric models.Metric, gen uint64) {
	count := 0
	for k, v := range c.views {
		if k.metric != metric {
			continue
		}
		if v.generation < gen {
			delete(c.views, k)
			continue
		}
		count++
	}

	for ; count > maxViewsPerMetric; count-- {
		var oldest viewKey
		found := false
		for k, v := range c.views {
			if k.metric != metric {
				continue
			}
			if !found || v.lastUsed < c.views[oldest].lastUsed {
				oldest, found = k, true
			}
		}
		delete(c.views, oldest)
	}
}

// Stats returns hit and miss counts.
func (c *ViewCache) Stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.miss
}

// Len returns the number of cached views.
func (c *ViewCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.views)
}
