package sourcetree

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCache_PutThenGet(t *testing.T) {
	t.Parallel()

	c := NewParseCache(0)
	tree := &Tree{Path: "a.cs"}

	c.Put(42, tree)

	got, ok := c.Get(42)
	assert.True(t, ok)
	assert.Same(t, tree, got)
}

func TestParseCache_MissReturnsFalse(t *testing.T) {
	t.Parallel()

	c := NewParseCache(0)

	_, ok := c.Get(1)
	assert.False(t, ok)
}

func TestParseCache_EvictsLeastRecentlyUsedAtCapacity(t *testing.T) {
	t.Parallel()

	c := NewParseCache(2)

	c.Put(1, &Tree{Path: "1.cs"})
	c.Put(2, &Tree{Path: "2.cs"})
	c.Put(3, &Tree{Path: "3.cs"})

	_, ok := c.Get(1)
	assert.False(t, ok, "oldest entry should have been evicted")

	_, ok = c.Get(2)
	assert.True(t, ok)

	_, ok = c.Get(3)
	assert.True(t, ok)
}

func TestParseCache_NilCacheIsSafeNoOp(t *testing.T) {
	t.Parallel()

	var c *ParseCache

	assert.NotPanics(t, func() {
		c.Put(1, &Tree{})
		_, ok := c.Get(1)
		assert.False(t, ok)
	})
}
