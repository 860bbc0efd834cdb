package web

import (
	"sync"

	"github.com/JonMunkholm/ordersan/internal/core"
	"github.com/google/uuid"
)

// reportCache keeps the most recent reports by run ID. The oldest entry is
// evicted once capacity is reached.
type reportCache struct {
	mu       sync.Mutex
	capacity int
	order    []uuid.UUID
	reports  map[uuid.UUID]*core.Report
}

func newReportCache(capacity int) *reportCache {
	if capacity < 1 {
		capacity = 1
	}
	return &reportCache{
		capacity: capacity,
		reports:  make(map[uuid.UUID]*core.Report, capacity),
	}
}

func (c *reportCache) put(rep *core.Report) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.reports[rep.RunID]; exists {
		c.reports[rep.RunID] = rep
		return
	}

	if len(c.order) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.reports, oldest)
	}
	c.order = append(c.order, rep.RunID)
	c.reports[rep.RunID] = rep
}

func (c *reportCache) get(id uuid.UUID) (*core.Report, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rep, ok := c.reports[id]
	return rep, ok
}

func (c *reportCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.reports)
}
