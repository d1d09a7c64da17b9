package invalidate

import (
	"strings"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/kbukum/streamkit/logger"
)

// keySep joins key segments. It cannot appear in ordinary identifiers.
const keySep = "\x1f"

// Cache is a TTL query cache addressed by segmented keys. Invalidate drops
// a key and everything below it.
type Cache[V any] struct {
	cache *ttlcache.Cache[string, V]
	mx    sync.Mutex
}

// NewCache creates a cache whose entries expire after ttl. Call Stop to
// release its expiry goroutine.
func NewCache[V any](ttl time.Duration) *Cache[V] {
	cache := ttlcache.New(
		ttlcache.WithTTL[string, V](ttl),
	)
	go cache.Start()
	return &Cache[V]{cache: cache}
}

func encodeKey(key []string) string { return strings.Join(key, keySep) }

// Get returns the cached value for key.
func (c *Cache[V]) Get(key []string) (V, bool) {
	c.mx.Lock()
	item := c.cache.Get(encodeKey(key))
	c.mx.Unlock()

	if item == nil {
		var zero V
		return zero, false
	}
	return item.Value(), true
}

// Set stores v under key with the default TTL.
func (c *Cache[V]) Set(key []string, v V) {
	c.mx.Lock()
	defer c.mx.Unlock()
	c.cache.Set(encodeKey(key), v, ttlcache.DefaultTTL)
}

// GetOrFetch returns the cached value or stores the result of fetch.
// Errors are not cached.
func (c *Cache[V]) GetOrFetch(key []string, fetch func() (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err := fetch()
	if err == nil {
		c.Set(key, v)
	}
	return v, err
}

// Invalidate removes prefix and every key that extends it segment-wise.
// An empty prefix removes nothing.
func (c *Cache[V]) Invalidate(prefix []string) {
	if len(prefix) == 0 {
		return
	}
	p := encodeKey(prefix)

	c.mx.Lock()
	defer c.mx.Unlock()
	removed := 0
	for _, k := range c.cache.Keys() {
		if k == p || strings.HasPrefix(k, p+keySep) {
			c.cache.Delete(k)
			removed++
		}
	}
	if removed > 0 {
		logger.Debug("cache entries invalidated", logger.Fields(
			logger.FieldResource, strings.Join(prefix, "/"),
			"removed", removed,
		))
	}
}

// Len returns the number of cached entries.
func (c *Cache[V]) Len() int {
	c.mx.Lock()
	defer c.mx.Unlock()
	return c.cache.Len()
}

// Stop stops the expiry goroutine.
func (c *Cache[V]) Stop() {
	c.cache.Stop()
}

var _ Invalidator = (*Cache[int])(nil)
