package highlight

import (
	"fmt"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// CacheKey identifies one cached highlight result. Two requests are
// interchangeable only if every field matches.
type CacheKey struct {
	FileCacheKey  string
	Theme         string
	TokenizeLimit int
	DiffAlgorithm string
}

func (k CacheKey) encode() string {
	return fmt.Sprintf("%s\x00%s\x00%d\x00%s", k.FileCacheKey, k.Theme, k.TokenizeLimit, k.DiffAlgorithm)
}

// CacheMetrics tracks cache effectiveness via simple hit/miss counters,
// exposed for a diagnostics panel or debug log line.
type CacheMetrics struct {
	Hits   int64
	Misses int64
}

// Cache stores highlight Results keyed by CacheKey. Entries never expire on
// their own; invalidation happens explicitly when a file's identity changes.
type Cache struct {
	store *gocache.Cache

	mu      sync.Mutex
	metrics CacheMetrics
}

// NewCache returns an empty Cache.
func NewCache() *Cache {
	return &Cache{store: gocache.New(gocache.NoExpiration, 10*time.Minute)}
}

// Get returns the cached Result for key, if present.
func (c *Cache) Get(key CacheKey) (Result, bool) {
	v, ok := c.store.Get(key.encode())
	c.mu.Lock()
	if ok {
		c.metrics.Hits++
	} else {
		c.metrics.Misses++
	}
	c.mu.Unlock()
	if !ok {
		return Result{}, false
	}
	return v.(Result), true
}

// Set stores result under key.
func (c *Cache) Set(key CacheKey, result Result) {
	c.store.Set(key.encode(), result, gocache.NoExpiration)
}

// Invalidate drops every cached entry for fileCacheKey, regardless of theme
// or tokenize limit — used when the underlying file identity changes.
func (c *Cache) Invalidate(fileCacheKey string) {
	prefix := fileCacheKey + "\x00"
	for k := range c.store.Items() {
		if strings.HasPrefix(k, prefix) {
			c.store.Delete(k)
		}
	}
}

// Metrics returns a snapshot of the cache's hit/miss counters.
func (c *Cache) Metrics() CacheMetrics {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.metrics
}
