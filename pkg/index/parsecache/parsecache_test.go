package parsecache_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/marmos91/codeindex/pkg/index/model"
	"github.com/marmos91/codeindex/pkg/index/parsecache"
	"github.com/marmos91/codeindex/pkg/index/process"
)

func result(tag string) *process.Result {
	return &process.Result{Symbols: []*model.Symbol{{QualifiedName: tag}}}
}

func TestPutThenGetHits(t *testing.T) {
	c := parsecache.New(4)
	c.Put("a.ts", result("a"))

	got, ok := c.Get("a.ts")
	assert.True(t, ok)
	assert.Equal(t, "a", got.Symbols[0].QualifiedName)
}

func TestGetMissReturnsFalse(t *testing.T) {
	c := parsecache.New(4)
	_, ok := c.Get("missing.ts")
	assert.False(t, ok)
}

func TestPutOverwritesAndRefreshesRecency(t *testing.T) {
	c := parsecache.New(2)
	c.Put("a.ts", result("a1"))
	c.Put("a.ts", result("a2"))
	assert.Equal(t, 1, c.Len())

	got, ok := c.Get("a.ts")
	assert.True(t, ok)
	assert.Equal(t, "a2", got.Symbols[0].QualifiedName)
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	c := parsecache.New(2)
	c.Put("a.ts", result("a"))
	c.Put("b.ts", result("b"))
	// touch a.ts so it's most-recently-used; b.ts becomes the LRU victim.
	_, _ = c.Get("a.ts")
	c.Put("c.ts", result("c"))

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("b.ts")
	assert.False(t, ok, "b.ts should have been evicted as least recently used")

	_, ok = c.Get("a.ts")
	assert.True(t, ok)
	_, ok = c.Get("c.ts")
	assert.True(t, ok)
}

func TestInvalidateRemovesEntry(t *testing.T) {
	c := parsecache.New(4)
	c.Put("a.ts", result("a"))
	c.Invalidate("a.ts")

	_, ok := c.Get("a.ts")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestNewDefaultsNonPositiveCapacity(t *testing.T) {
	c := parsecache.New(0)
	c.Put("a.ts", result("a"))
	_, ok := c.Get("a.ts")
	assert.True(t, ok)
}
