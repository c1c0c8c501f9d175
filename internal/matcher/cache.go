package matcher

import (
	"sync"

	"github.com/golang/groupcache/lru"
)

// resultCache is a bounded LRU of ranked outcomes. A nil cache stores
// nothing.
type resultCache struct {
	mu  sync.Mutex
	lru *lru.Cache
}

func newResultCache(size int) *resultCache {
	if size <= 0 {
		return nil
	}
	return &resultCache{lru: lru.New(size)}
}

func (c *resultCache) get(key string) (*outcome, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	return v.(*outcome), true
}

func (c *resultCache) add(key string, o *outcome) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Add(key, o)
}

func (c *resultCache) purge() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Clear()
}

func (c *resultCache) size() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}
