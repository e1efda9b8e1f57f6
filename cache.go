package main

import (
	"encoding/json"
	"sync"
	"sync/atomic"
)

// keyValueCache is the read-through cache in front of the version store.
// The store stays the single source of truth: every entry here is derived
// and disposable, and callers must behave identically (just slower) if
// every call fails.
type keyValueCache interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Delete(key string) error
}

var (
	cache       keyValueCache
	cacheHits   atomic.Int64
	cacheMisses atomic.Int64
)

// cacheKey returns the cache key for a content type's latest payload.
func cacheKey(contentType string) string {
	return "content:" + contentType + ":payload"
}

// cachedPayload mirrors the {version, data} of the latest snapshot.
type cachedPayload struct {
	Version int             `json:"version"`
	Data    json.RawMessage `json:"data"`
}

type memoryCache struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}}
}

func (c *memoryCache) Get(key string) ([]byte, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	value, ok := c.entries[key]
	return value, ok, nil
}

func (c *memoryCache) Set(key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	return nil
}

func (c *memoryCache) Delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}
