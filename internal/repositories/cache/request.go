// Package cache holds the short-lived request-id cache used to drop
// duplicate webhook deliveries before they reach the journal.
package cache

import (
	"context"
	"sync"
)

// DefaultCapacity is the number of request ids kept in process memory.
const DefaultCapacity = 10000

// RequestCache remembers request ids that were already journaled.
// A miss never blocks processing, so implementations swallow their errors.
type RequestCache interface {
	Contains(ctx context.Context, requestID string) bool
	Add(ctx context.Context, requestID string)
}

// MemoryCache is a bounded in-process RequestCache. When it reaches its
// capacity it is cleared entirely.
type MemoryCache struct {
	mu       sync.Mutex
	ids      map[string]struct{}
	capacity int
}

func NewMemoryCache(capacity int) *MemoryCache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &MemoryCache{
		ids:      make(map[string]struct{}, capacity),
		capacity: capacity,
	}
}

func (c *MemoryCache) Contains(_ context.Context, requestID string) bool {
	if requestID == "" {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.ids[requestID]
	return ok
}

func (c *MemoryCache) Add(_ context.Context, requestID string) {
	if requestID == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.ids[requestID]; ok {
		return
	}
	if len(c.ids) >= c.capacity {
		c.ids = make(map[string]struct{}, c.capacity)
	}
	c.ids[requestID] = struct{}{}
}

// Len reports how many ids are currently held.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.ids)
}
