package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value   []byte
	expires time.Time
}

// memoryGroup outlives its pages so the generation keeps counting up
// across invalidations.
type memoryGroup struct {
	gen   int64
	pages map[string]memoryEntry
}

// MemoryCache is an in-process PageCache used when no Redis is configured.
type MemoryCache struct {
	mu     sync.Mutex
	groups map[string]*memoryGroup
	now    func() time.Time
}

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		groups: make(map[string]*memoryGroup),
		now:    time.Now,
	}
}

func (c *MemoryCache) group(name string) *memoryGroup {
	g, ok := c.groups[name]
	if !ok {
		g = &memoryGroup{pages: make(map[string]memoryEntry)}
		c.groups[name] = g
	}
	return g
}

func (c *MemoryCache) Get(_ context.Context, group, key string) (Page, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	g, ok := c.groups[group]
	if !ok {
		return Page{}, false, nil
	}
	entry, ok := g.pages[key]
	if !ok {
		return Page{Generation: g.gen}, false, nil
	}
	if !entry.expires.IsZero() && !c.now().Before(entry.expires) {
		delete(g.pages, key)
		return Page{Generation: g.gen}, false, nil
	}
	return Page{Data: entry.value, Generation: g.gen}, true, nil
}

func (c *MemoryCache) Set(_ context.Context, group, key string, gen int64, value []byte, ttl time.Duration) error {
	entry := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		entry.expires = c.now().Add(ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	g := c.group(group)
	if g.gen != gen {
		return nil
	}
	g.pages[key] = entry
	return nil
}

func (c *MemoryCache) Invalidate(_ context.Context, groups ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, name := range groups {
		g := c.group(name)
		g.gen++
		g.pages = make(map[string]memoryEntry)
	}
	return nil
}
