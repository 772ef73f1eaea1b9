package metrics

import (
	"sync"
	"sync/atomic"
)

// Counters accumulates comparison statistics for the life of the process
type Counters struct {
	comparisons    atomic.Int64
	failures       atomic.Int64
	cacheHits      atomic.Int64
	engineFailures atomic.Int64
	droppedMatches atomic.Int64

	mu         sync.Mutex
	highlights map[string]int64
}

// Snapshot is a point-in-time copy of the counters
type Snapshot struct {
	Comparisons    int64            `json:"comparisons"`
	Failures       int64            `json:"failures"`
	CacheHits      int64            `json:"cacheHits"`
	EngineFailures int64            `json:"engineFailures"`
	DroppedMatches int64            `json:"droppedMatches"`
	Highlights     map[string]int64 `json:"highlights"`
}

func (c *Counters) observe(ev Event) {
	if ev.EventType == EventFailed {
		c.failures.Add(1)
		return
	}
	c.comparisons.Add(1)
	c.droppedMatches.Add(int64(ev.DroppedMatches))

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.highlights == nil {
		c.highlights = make(map[string]int64)
	}
	for matchType, n := range ev.Highlights {
		c.highlights[matchType] += int64(n)
	}
}

// CacheHit counts a comparison answered from the report cache
func (c *Counters) CacheHit() { c.cacheHits.Add(1) }

// EngineFailure counts an exact-match engine that failed and was degraded to score 0
func (c *Counters) EngineFailure() { c.engineFailures.Add(1) }

// Snapshot copies the current values
func (c *Counters) Snapshot() Snapshot {
	s := Snapshot{
		Comparisons:    c.comparisons.Load(),
		Failures:       c.failures.Load(),
		CacheHits:      c.cacheHits.Load(),
		EngineFailures: c.engineFailures.Load(),
		DroppedMatches: c.droppedMatches.Load(),
		Highlights:     make(map[string]int64),
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range c.highlights {
		s.Highlights[k] = v
	}
	return s
}
