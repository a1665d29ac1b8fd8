package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"kbsearch/internal/domain"
	"kbsearch/internal/port"
)

// QueryCache is a bounded LRU of search results keyed by normalized query
// text. Entries never expire: the index they were computed from is immutable
// for the life of the process.
type QueryCache struct {
	mu      sync.Mutex
	entries map[string]domain.ScoredItem
	order   []string
	maxSize int
	hits    int
	misses  int
}

func NewQueryCache(maxSize int) *QueryCache {
	if maxSize <= 0 {
		maxSize = 256
	}
	return &QueryCache{
		entries: make(map[string]domain.ScoredItem),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
	}
}

func cacheKey(query string) string {
	hash := sha256.Sum256([]byte(query))
	return hex.EncodeToString(hash[:16])
}

func (c *QueryCache) Get(query string) (domain.ScoredItem, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(query)
	entry, exists := c.entries[key]
	if !exists {
		c.misses++
		return domain.ScoredItem{}, false
	}
	c.hits++
	c.moveToEnd(key)
	return entry, true
}

func (c *QueryCache) Put(query string, result domain.ScoredItem) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(query)
	if _, exists := c.entries[key]; exists {
		c.entries[key] = result
		c.moveToEnd(key)
		return
	}

	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}
	c.entries[key] = result
	c.order = append(c.order, key)
}

func (c *QueryCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns hit and miss counts.
func (c *QueryCache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

func (c *QueryCache) evictOldest() {
	if len(c.order) == 0 {
		return
	}
	oldest := c.order[0]
	c.order = c.order[1:]
	delete(c.entries, oldest)
}

func (c *QueryCache) moveToEnd(key string) {
	c.removeFromOrder(key)
	c.order = append(c.order, key)
}

func (c *QueryCache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

// CachedRetriever consults the cache before delegating. Errors are not cached.
type CachedRetriever struct {
	retriever port.Retriever
	cache     *QueryCache
}

func NewCachedRetriever(retriever port.Retriever, cache *QueryCache) *CachedRetriever {
	return &CachedRetriever{
		retriever: retriever,
		cache:     cache,
	}
}

func (r *CachedRetriever) Best(query string) (domain.ScoredItem, error) {
	if result, hit := r.cache.Get(query); hit {
		return result, nil
	}

	result, err := r.retriever.Best(query)
	if err != nil {
		return domain.ScoredItem{}, err
	}

	r.cache.Put(query, result)
	return result, nil
}
