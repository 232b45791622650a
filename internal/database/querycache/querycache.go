// Package querycache caches Database.Query results keyed by the query's
// BoW vector, result limit and max-entry-id filter, so repeated queries
// against an unchanged database skip the posting-list scan entirely.
package querycache

import (
	"container/list"
	"encoding/binary"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/orneryd/bowvoc/internal/sparsevec"
)

// Cache is a thread-safe LRU+TTL cache of query results.
type Cache struct {
	mu sync.RWMutex

	maxSize int
	ttl     time.Duration
	enabled bool

	list  *list.List
	items map[[blake2b.Size256]byte]*list.Element

	hits   uint64
	misses uint64
}

type entry struct {
	key       [blake2b.Size256]byte
	value     interface{}
	expiresAt time.Time
}

// New creates a query cache. maxSize <= 0 defaults to 1000. ttl == 0
// disables expiration (only LRU eviction applies).
func New(maxSize int, ttl time.Duration) *Cache {
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &Cache{
		maxSize: maxSize,
		ttl:     ttl,
		enabled: true,
		list:    list.New(),
		items:   make(map[[blake2b.Size256]byte]*list.Element, maxSize),
	}
}

// Key derives a deterministic cache key from a query BoW vector plus the
// query's result limit and optional max-entry-id filter.
func Key(query sparsevec.BoW, maxResults int, maxEntryID int64) [blake2b.Size256]byte {
	h, _ := blake2b.New256(nil)
	var buf [8]byte
	for _, e := range query {
		binary.BigEndian.PutUint32(buf[:4], uint32(e.Word))
		h.Write(buf[:4])
		binary.BigEndian.PutUint64(buf[:], math.Float64bits(e.Weight))
		h.Write(buf[:])
	}
	binary.BigEndian.PutUint64(buf[:], uint64(maxResults))
	h.Write(buf[:])
	binary.BigEndian.PutUint64(buf[:], uint64(maxEntryID))
	h.Write(buf[:])

	var out [blake2b.Size256]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Get retrieves a cached value, reporting a hit only if present and not
// expired. A hit moves the entry to the front of the LRU list.
func (c *Cache) Get(key [blake2b.Size256]byte) (interface{}, bool) {
	if !c.enabled {
		atomic.AddUint64(&c.misses, 1)
		return nil, false
	}

	c.mu.RLock()
	elem, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		atomic.AddUint64(&c.misses, 1)
		return nil, false
	}

	e := elem.Value.(*entry)
	if c.ttl > 0 && time.Now().After(e.expiresAt) {
		c.mu.Lock()
		c.removeElement(elem)
		c.mu.Unlock()
		atomic.AddUint64(&c.misses, 1)
		return nil, false
	}

	c.mu.Lock()
	c.list.MoveToFront(elem)
	c.mu.Unlock()

	atomic.AddUint64(&c.hits, 1)
	return e.value, true
}

// Put stores value under key, evicting the least recently used entry if
// the cache is at capacity.
func (c *Cache) Put(key [blake2b.Size256]byte, value interface{}) {
	if !c.enabled {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		e := elem.Value.(*entry)
		e.value = value
		if c.ttl > 0 {
			e.expiresAt = time.Now().Add(c.ttl)
		}
		c.list.MoveToFront(elem)
		return
	}

	for c.list.Len() >= c.maxSize {
		c.evictOldest()
	}

	e := &entry{key: key, value: value}
	if c.ttl > 0 {
		e.expiresAt = time.Now().Add(c.ttl)
	}
	c.items[key] = c.list.PushFront(e)
}

// Invalidate clears every cached entry. The database calls this on Add,
// since a new entry can change posting lists that earlier results read.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.list.Init()
	c.items = make(map[[blake2b.Size256]byte]*list.Element, c.maxSize)
}

// Stats reports cache performance counters.
type Stats struct {
	Size    int
	MaxSize int
	Hits    uint64
	Misses  uint64
	HitRate float64
}

// Stats returns the current cache statistics.
func (c *Cache) Stats() Stats {
	hits := atomic.LoadUint64(&c.hits)
	misses := atomic.LoadUint64(&c.misses)

	c.mu.RLock()
	size := c.list.Len()
	c.mu.RUnlock()

	total := hits + misses
	var rate float64
	if total > 0 {
		rate = float64(hits) / float64(total) * 100
	}
	return Stats{Size: size, MaxSize: c.maxSize, Hits: hits, Misses: misses, HitRate: rate}
}

func (c *Cache) evictOldest() {
	if elem := c.list.Back(); elem != nil {
		c.removeElement(elem)
	}
}

func (c *Cache) removeElement(elem *list.Element) {
	c.list.Remove(elem)
	e := elem.Value.(*entry)
	delete(c.items, e.key)
}
