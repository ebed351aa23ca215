// Package parsecache implements the parsed-file LRU shared by the session:
// doIndex writes an entry per file after a full-index transaction commits,
// parseSource writes on direct parse requests, getParsedAst reads. It is a
// classic count-based doubly-linked-list LRU, since entries here are one
// file's processed symbols/relations, not byte buffers.
package parsecache

import (
	"container/list"
	"sync"

	"github.com/marmos91/codeindex/pkg/index/process"
)

const defaultCapacity = 256

type entry struct {
	key    string
	result *process.Result
}

// Cache is a bounded, thread-safe LRU of parsed ASTs keyed by root-relative
// file path.
type Cache struct {
	mu       sync.Mutex
	capacity int
	ll       *list.List
	items    map[string]*list.Element
}

// New constructs a Cache holding at most capacity entries. capacity <= 0
// defaults to 256.
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Cache{capacity: capacity, ll: list.New(), items: make(map[string]*list.Element)}
}

// Get returns the cached parse result for relPath, if present, marking it
// most-recently-used.
func (c *Cache) Get(relPath string) (*process.Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[relPath]
	if !ok {
		return nil, false
	}
	c.ll.MoveToFront(el)
	return el.Value.(*entry).result, true
}

// Put stores result for relPath, evicting the least-recently-used entry if
// the cache is over capacity.
func (c *Cache) Put(relPath string, result *process.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[relPath]; ok {
		el.Value.(*entry).result = result
		c.ll.MoveToFront(el)
		return
	}

	el := c.ll.PushFront(&entry{key: relPath, result: result})
	c.items[relPath] = el
	if c.ll.Len() > c.capacity {
		c.evictOldest()
	}
}

// Invalidate drops relPath from the cache, if present.
func (c *Cache) Invalidate(relPath string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[relPath]; ok {
		c.ll.Remove(el)
		delete(c.items, relPath)
	}
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

func (c *Cache) evictOldest() {
	el := c.ll.Back()
	if el == nil {
		return
	}
	c.ll.Remove(el)
	delete(c.items, el.Value.(*entry).key)
}
