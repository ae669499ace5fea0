package services

import (
	"container/list"
	"sync"
	"time"
)

// ResponseCache holds encoded aggregated responses. Source files are
// immutable for the lifetime of a deployment, so entries only leave the
// cache by LRU eviction or TTL.
type ResponseCache interface {
	Get(key string) ([]byte, bool)
	Set(key string, body []byte)
	Size() int
}

type cacheEntry struct {
	key        string
	body       []byte
	expiration time.Time
}

// LRUCache is a thread-safe LRU cache with a fixed TTL per entry.
type LRUCache struct {
	capacity int
	ttl      time.Duration
	now      func() time.Time

	mu      sync.Mutex
	cache   map[string]*list.Element
	lruList *list.List
}

// NewLRUCache creates a cache holding at most capacity entries for ttl each.
func NewLRUCache(capacity int, ttl time.Duration) *LRUCache {
	if capacity <= 0 {
		capacity = 1
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &LRUCache{
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
		cache:    make(map[string]*list.Element),
		lruList:  list.New(),
	}
}

// Get returns the cached body for key, dropping it if expired.
func (c *LRUCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	element, found := c.cache[key]
	if !found {
		return nil, false
	}
	entry := element.Value.(*cacheEntry)
	if c.now().After(entry.expiration) {
		c.removeElement(element)
		return nil, false
	}

	c.lruList.MoveToBack(element)
	return entry.body, true
}

// Set stores body under key, evicting the least recently used entry when full.
func (c *LRUCache) Set(key string, body []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiration := c.now().Add(c.ttl)

	if element, found := c.cache[key]; found {
		c.lruList.MoveToBack(element)
		entry := element.Value.(*cacheEntry)
		entry.body = body
		entry.expiration = expiration
		return
	}

	if c.lruList.Len() >= c.capacity {
		if oldest := c.lruList.Front(); oldest != nil {
			c.removeElement(oldest)
		}
	}

	element := c.lruList.PushBack(&cacheEntry{key: key, body: body, expiration: expiration})
	c.cache[key] = element
}

// Size returns the number of cached entries, expired ones included.
func (c *LRUCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.lruList.Len()
}

// removeElement must be called with the lock held.
func (c *LRUCache) removeElement(element *list.Element) {
	c.lruList.Remove(element)
	entry := element.Value.(*cacheEntry)
	delete(c.cache, entry.key)
}
