package util

// LRU is a fixed-size least-recently-used cache. It is not safe for
// concurrent use; the bubbletea update loop is its only caller.
type LRU[K comparable, V any] struct {
	capacity int
	items    map[K]*lruEntry[K, V]
	head     *lruEntry[K, V] // most recent
	tail     *lruEntry[K, V] // least recent

	hits   int64
	misses int64
}

type lruEntry[K comparable, V any] struct {
	key        K
	value      V
	prev, next *lruEntry[K, V]
}

// NewLRU creates a cache holding at most capacity entries (minimum 1).
func NewLRU[K comparable, V any](capacity int) *LRU[K, V] {
	return &LRU[K, V]{
		capacity: max(1, capacity),
		items:    make(map[K]*lruEntry[K, V]),
	}
}

// Get returns the cached value and marks it most recently used.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	e, ok := c.items[key]
	if !ok {
		c.misses++
		var zero V
		return zero, false
	}
	c.hits++
	c.unlink(e)
	c.pushFront(e)
	return e.value, true
}

// Put stores value under key, evicting the least recently used entry when
// the cache is full.
func (c *LRU[K, V]) Put(key K, value V) {
	if e, ok := c.items[key]; ok {
		e.value = value
		c.unlink(e)
		c.pushFront(e)
		return
	}
	e := &lruEntry[K, V]{key: key, value: value}
	c.items[key] = e
	c.pushFront(e)
	if len(c.items) > c.capacity && c.tail != nil {
		old := c.tail
		c.unlink(old)
		delete(c.items, old.key)
	}
}

// Len returns the number of cached entries.
func (c *LRU[K, V]) Len() int { return len(c.items) }

// Clear drops every entry. Hit counters are kept.
func (c *LRU[K, V]) Clear() {
	clear(c.items)
	c.head, c.tail = nil, nil
}

// Stats returns hit and miss counts.
func (c *LRU[K, V]) Stats() (hits, misses int64) {
	return c.hits, c.misses
}

func (c *LRU[K, V]) pushFront(e *lruEntry[K, V]) {
	e.prev = nil
	e.next = c.head
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *LRU[K, V]) unlink(e *lruEntry[K, V]) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
	e.prev, e.next = nil, nil
}
