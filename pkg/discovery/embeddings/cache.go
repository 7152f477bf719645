package embeddings

import (
	"container/list"
	"sync"
)

// cache is a fixed-capacity LRU cache for embedding vectors keyed by the
// source text.
type cache struct {
	maxSize int
	mu      sync.Mutex
	items   map[string]*list.Element
	lru     *list.List
	hits    int64
	misses  int64
}

type cacheEntry struct {
	key   string
	value []float32
}

func newCache(maxSize int) *cache {
	return &cache{
		maxSize: maxSize,
		items:   make(map[string]*list.Element),
		lru:     list.New(),
	}
}

func (c *cache) Get(key string) []float32 {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		c.misses++
		return nil
	}

	c.hits++
	c.lru.MoveToFront(elem)
	return elem.Value.(*cacheEntry).value
}

func (c *cache) Put(key string, value []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.lru.MoveToFront(elem)
		elem.Value.(*cacheEntry).value = value
		return
	}

	elem := c.lru.PushFront(&cacheEntry{key: key, value: value})
	c.items[key] = elem

	if c.lru.Len() > c.maxSize {
		c.evict()
	}
}

func (c *cache) evict() {
	elem := c.lru.Back()
	if elem == nil {
		return
	}
	c.lru.Remove(elem)
	delete(c.items, elem.Value.(*cacheEntry).key)
}

func (c *cache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

func (c *cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*list.Element)
	c.lru = list.New()
	c.hits = 0
	c.misses = 0
}
