package cache

import (
	"context"
	"sync"
	"time"

	"github.com/qclens/backend/internal/domain/evidence"
)

type entry struct {
	items     []evidence.Item
	expiresAt time.Time
}

// InMemoryEvidenceCache keeps evidence in a process-local map.
// Suitable for single-instance deployments and tests.
type InMemoryEvidenceCache struct {
	mu        sync.RWMutex
	entries   map[string]entry
	interval  time.Duration
	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryEvidenceCache creates the cache and starts a cleanup goroutine.
// A non-positive interval defaults to five minutes.
func NewInMemoryEvidenceCache(cleanupInterval time.Duration) *InMemoryEvidenceCache {
	if cleanupInterval <= 0 {
		cleanupInterval = 5 * time.Minute
	}
	c := &InMemoryEvidenceCache{
		entries:  make(map[string]entry),
		interval: cleanupInterval,
		now:      time.Now,
		stopChan: make(chan struct{}),
	}

	c.wg.Add(1)
	go c.cleanupLoop()

	return c
}

// Get returns a copy of the cached items if present and not expired
func (c *InMemoryEvidenceCache) Get(_ context.Context, key string) ([]evidence.Item, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || !c.now().Before(e.expiresAt) {
		return nil, false, nil
	}
	return cloneItems(e.items), true, nil
}

// Set stores a copy of items; a non-positive ttl stores nothing
func (c *InMemoryEvidenceCache) Set(_ context.Context, key string, items []evidence.Item, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{items: cloneItems(items), expiresAt: c.now().Add(ttl)}
	return nil
}

// Delete removes a cached entry
func (c *InMemoryEvidenceCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

// Ping always succeeds
func (c *InMemoryEvidenceCache) Ping(context.Context) error {
	return nil
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (c *InMemoryEvidenceCache) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopChan)
		c.wg.Wait()
	})
	return nil
}

// Size returns the number of stored entries, including expired ones not yet cleaned up
func (c *InMemoryEvidenceCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *InMemoryEvidenceCache) cleanupLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.cleanup()
		}
	}
}

func (c *InMemoryEvidenceCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, key)
		}
	}
}

// cloneItems copies the slice and the CapturedAt pointers
func cloneItems(items []evidence.Item) []evidence.Item {
	if items == nil {
		return nil
	}
	out := make([]evidence.Item, len(items))
	for i, it := range items {
		if it.CapturedAt != nil {
			c := *it.CapturedAt
			it.CapturedAt = &c
		}
		out[i] = it
	}
	return out
}
