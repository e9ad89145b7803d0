package cache

import (
	"container/list"
	"hash/fnv"
	"sync"
	"time"
)

// Cache is an in-memory TTL + LRU cache for completed replies, safe for
// concurrent use. Keys are derived from the assembled prompt so repeated
// questions skip the model; regeneration never consults it.
type Cache struct {
	mu       sync.RWMutex
	items    map[string]*entry
	order    *list.List // MRU at front, LRU at back
	maxItems int        // 0 = unlimited
}

type entry struct {
	key  string
	val  string
	exp  int64 // unix seconds; 0 = no expiry
	elem *list.Element
}

var (
	defaultCache *Cache
	once         sync.Once
	defaultMax   = 500
)

// Default returns the process-wide reply cache.
func Default() *Cache {
	once.Do(func() {
		defaultCache = New(defaultMax)
		go defaultCache.janitor(60 * time.Second)
	})
	return defaultCache
}

func New(maxItems int) *Cache {
	return &Cache{items: make(map[string]*entry), order: list.New(), maxItems: maxItems}
}

// Get returns the cached reply if present and not expired.
func (c *Cache) Get(key string) (string, bool) {
	now := time.Now().Unix()
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.items[key]
	if !ok {
		return "", false
	}
	if e.exp != 0 && e.exp < now {
		c.removeLocked(key)
		return "", false
	}
	c.order.MoveToFront(e.elem)
	return e.val, true
}

// Set stores a reply with TTL. ttl<=0 means no expiry.
func (c *Cache) Set(key, val string, ttl time.Duration) {
	var exp int64
	if ttl > 0 {
		exp = time.Now().Add(ttl).Unix()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.items[key]; ok {
		e.val = val
		e.exp = exp
		c.order.MoveToFront(e.elem)
		return
	}
	e := &entry{key: key, val: val, exp: exp}
	e.elem = c.order.PushFront(e)
	c.items[key] = e
	for c.maxItems > 0 && c.order.Len() > c.maxItems {
		c.evictLocked()
	}
}

func (c *Cache) Delete(key string) {
	c.mu.Lock()
	c.removeLocked(key)
	c.mu.Unlock()
}

// SetMaxItems updates capacity for the default cache. Called at startup.
func SetMaxItems(n int) {
	if n < 0 {
		n = 0
	}
	c := Default()
	c.mu.Lock()
	c.maxItems = n
	for c.maxItems > 0 && c.order.Len() > c.maxItems {
		c.evictLocked()
	}
	c.mu.Unlock()
}

// KeyFromStrings derives a compact stable key from parts.
func KeyFromStrings(parts ...string) string {
	h := fnv.New64a()
	for _, p := range parts {
		_, _ = h.Write([]byte{0})
		_, _ = h.Write([]byte(p))
	}
	return string(h.Sum(nil))
}

func (c *Cache) janitor(interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for range t.C {
		now := time.Now().Unix()
		c.mu.Lock()
		for k, e := range c.items {
			if e.exp != 0 && e.exp < now {
				c.removeLocked(k)
			}
		}
		c.mu.Unlock()
	}
}

// removeLocked removes key from map/list; caller holds c.mu.
func (c *Cache) removeLocked(key string) {
	if e, ok := c.items[key]; ok {
		c.order.Remove(e.elem)
		delete(c.items, key)
	}
}

// evictLocked drops the LRU entry; caller holds c.mu.
func (c *Cache) evictLocked() {
	back := c.order.Back()
	if back == nil {
		return
	}
	e := back.Value.(*entry)
	c.order.Remove(back)
	delete(c.items, e.key)
}
