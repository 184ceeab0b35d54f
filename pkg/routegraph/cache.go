package routegraph

import (
	"sync"
	"time"

	"github.com/railconnect/railconnect/pkg/timetable"
)

// Cache keeps one Builder per snapshot version and travel date so repeat
// searches reuse expanded departures. The oldest entry is evicted once the
// cache is full.
type Cache struct {
	mu       sync.Mutex
	capacity int
	builders map[cacheKey]*Builder
	order    []cacheKey
}

type cacheKey struct {
	version string
	date    int64
}

func NewCache(capacity int) *Cache {
	if capacity < 1 {
		capacity = 1
	}
	return &Cache{
		capacity: capacity,
		builders: map[cacheKey]*Builder{},
	}
}

func (c *Cache) Builder(snapshot *timetable.Snapshot, date time.Time) *Builder {
	key := cacheKey{version: snapshot.Version(), date: timetable.StartOfDay(date).Unix()}

	c.mu.Lock()
	defer c.mu.Unlock()

	if builder, exists := c.builders[key]; exists && builder.snapshot == snapshot {
		return builder
	}

	builder := NewBuilder(snapshot)
	if _, exists := c.builders[key]; !exists {
		c.order = append(c.order, key)
	}
	c.builders[key] = builder

	for len(c.order) > c.capacity {
		delete(c.builders, c.order[0])
		c.order = c.order[1:]
	}

	return builder
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.builders)
}
