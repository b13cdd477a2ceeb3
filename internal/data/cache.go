package data

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"
)

// CacheEntry represents a cached API response
type CacheEntry[V any] struct {
	Value     V
	ExpiresAt time.Time
}

// ResponseCache keeps decoded API responses in memory for a fixed TTL so
// repeated requests for the same day do not hit ENTSO-E or Open-Meteo again.
// A nil *ResponseCache is valid and caches nothing.
type ResponseCache[V any] struct {
	mu    sync.RWMutex
	store map[string]*CacheEntry[V]
	ttl   time.Duration
	now   func() time.Time
	done  chan struct{}
	once  sync.Once
}

// NewResponseCache returns nil when ttl <= 0, disabling caching.
func NewResponseCache[V any](ttl time.Duration) *ResponseCache[V] {
	if ttl <= 0 {
		return nil
	}
	c := &ResponseCache[V]{
		store: make(map[string]*CacheEntry[V]),
		ttl:   ttl,
		now:   time.Now,
		done:  make(chan struct{}),
	}
	go c.cleanup(5 * time.Minute)
	return c
}

// Get retrieves a cached value if available and not expired
func (c *ResponseCache[V]) Get(key string) (V, bool) {
	var zero V
	if c == nil {
		return zero, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.store[key]
	if !exists || c.now().After(entry.ExpiresAt) {
		return zero, false
	}
	return entry.Value, true
}

// Set stores a value in the cache
func (c *ResponseCache[V]) Set(key string, value V) {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.store[key] = &CacheEntry[V]{
		Value:     value,
		ExpiresAt: c.now().Add(c.ttl),
	}
}

// Clear removes all entries from the cache
func (c *ResponseCache[V]) Clear() {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.store = make(map[string]*CacheEntry[V])
}

// Close stops the background cleanup.
func (c *ResponseCache[V]) Close() {
	if c == nil {
		return
	}
	c.once.Do(func() { close(c.done) })
}

func (c *ResponseCache[V]) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// purge removes expired entries.
func (c *ResponseCache[V]) purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for key, entry := range c.store {
		if now.After(entry.ExpiresAt) {
			delete(c.store, key)
		}
	}
}

func (c *ResponseCache[V]) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.purge()
		}
	}
}

// CacheKey builds a compact deterministic key from request parts.
func CacheKey(parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, ":")))
	return hex.EncodeToString(hash[:])
}
