package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/simring/internal/resource"
)

func TestLRU_Eviction(t *testing.T) {
	c := NewLRUBlockCache(10, nil)
	ctx := context.Background()

	c.Set(ctx, Key{Path: "a", Block: 0}, make([]byte, 4))
	c.Set(ctx, Key{Path: "a", Block: 1}, make([]byte, 4))

	// Touch block 0 so block 1 is the eviction victim.
	_, ok := c.Get(ctx, Key{Path: "a", Block: 0})
	require.True(t, ok)

	c.Set(ctx, Key{Path: "a", Block: 2}, make([]byte, 4))

	_, ok = c.Get(ctx, Key{Path: "a", Block: 1})
	assert.False(t, ok)
	_, ok = c.Get(ctx, Key{Path: "a", Block: 0})
	assert.True(t, ok)
	assert.Equal(t, int64(8), c.Size())
}

func TestLRU_EdgeCases(t *testing.T) {
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 100})
	c := NewLRUBlockCache(50, rc)
	ctx := context.Background()
	k := Key{Path: "snap", Block: 1}

	c.Set(ctx, k, make([]byte, 60))
	_, ok := c.Get(ctx, k)
	assert.False(t, ok, "blocks larger than the capacity are not cached")

	c.Set(ctx, k, make([]byte, 10))
	assert.Equal(t, int64(10), c.Size())

	c.Set(ctx, k, make([]byte, 20))
	assert.Equal(t, int64(20), c.Size())

	c.Set(ctx, k, make([]byte, 5))
	assert.Equal(t, int64(5), c.Size())
	assert.Equal(t, int64(5), rc.MemoryUsage())

	rc2 := resource.NewController(resource.Config{MemoryLimitBytes: 10})
	c2 := NewLRUBlockCache(50, rc2)
	c2.Set(ctx, k, make([]byte, 8))

	// Growing to 12 bytes exceeds the budget of 10.
	c2.Set(ctx, k, make([]byte, 12))

	val, ok := c2.Get(ctx, k)
	assert.True(t, ok)
	assert.Len(t, val, 8)
}

func TestLRU_Stats(t *testing.T) {
	c := NewLRUBlockCache(100, nil)
	ctx := context.Background()

	c.Set(ctx, Key{Path: "a"}, []byte{1})
	c.Get(ctx, Key{Path: "a"})
	c.Get(ctx, Key{Path: "b"})

	hits, misses := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestLRU_Invalidate(t *testing.T) {
	c := NewLRUBlockCache(100, nil)
	ctx := context.Background()

	c.Set(ctx, Key{Path: "a", Block: 1}, []byte("a"))
	c.Set(ctx, Key{Path: "a", Block: 2}, []byte("b"))
	c.Set(ctx, Key{Path: "b", Block: 1}, []byte("c"))

	c.Invalidate(func(k Key) bool { return k.Path == "a" })

	_, ok := c.Get(ctx, Key{Path: "a", Block: 1})
	assert.False(t, ok)
	_, ok = c.Get(ctx, Key{Path: "b", Block: 1})
	assert.True(t, ok)
	assert.Equal(t, int64(1), c.Size())
}
