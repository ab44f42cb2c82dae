// internal/cache/lru.go
//
// Tiny typed LRU cache.  The in-memory rate limiter stores one window per
// client key here so a flood of distinct source addresses cannot grow the
// table without bound.  No external deps; good for tens of thousands of
// entries.  Not safe for concurrent use; callers hold their own lock.
package cache

import "container/list"

// LRU is a least‑recently‑used cache with a fixed capacity.
type LRU[K comparable, V any] struct {
	cap  int
	ll   *list.List
	dict map[K]*list.Element
}

type pair[K comparable, V any] struct {
	key K
	val V
}

// New returns an LRU with the given capacity.  Panics on cap < 1.
func New[K comparable, V any](capacity int) *LRU[K, V] {
	if capacity < 1 {
		panic("cache: capacity must be ≥1")
	}
	return &LRU[K, V]{
		cap:  capacity,
		ll:   list.New(),
		dict: make(map[K]*list.Element, capacity),
	}
}

// Get retrieves a value and marks it MRU.
func (c *LRU[K, V]) Get(key K) (val V, ok bool) {
	if ele, hit := c.dict[key]; hit {
		c.ll.MoveToFront(ele)
		return ele.Value.(pair[K, V]).val, true
	}
	return val, false
}

// Add inserts or updates a value.  It reports whether an older entry was
// evicted to make room.
func (c *LRU[K, V]) Add(key K, val V) (evicted bool) {
	if ele, hit := c.dict[key]; hit {
		ele.Value = pair[K, V]{key, val}
		c.ll.MoveToFront(ele)
		return false
	}
	ele := c.ll.PushFront(pair[K, V]{key, val})
	c.dict[key] = ele
	if c.ll.Len() > c.cap {
		last := c.ll.Back()
		c.ll.Remove(last)
		delete(c.dict, last.Value.(pair[K, V]).key)
		return true
	}
	return false
}

// Prune removes every entry for which drop returns true and reports how many
// were removed.
func (c *LRU[K, V]) Prune(drop func(K, V) bool) int {
	n := 0
	for ele := c.ll.Back(); ele != nil; {
		prev := ele.Prev()
		p := ele.Value.(pair[K, V])
		if drop(p.key, p.val) {
			c.ll.Remove(ele)
			delete(c.dict, p.key)
			n++
		}
		ele = prev
	}
	return n
}

// Len reports current size.
func (c *LRU[K, V]) Len() int { return c.ll.Len() }
