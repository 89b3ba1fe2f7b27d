package cache

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestByteBoundedBasic(t *testing.T) {
	c := NewByteBounded[string, []byte](4, 100)

	c.Put("a", []byte("aaa"), 3)
	c.Put("b", []byte("bb"), 2)

	got, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, []byte("aaa"), got)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, int64(5), c.Bytes())

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestByteBoundedOverwrite(t *testing.T) {
	c := NewByteBounded[string, string](4, 100)

	c.Put("k", "old", 30)
	c.Put("k", "new", 10)

	got, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "new", got)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, int64(10), c.Bytes())
}

func TestByteBoundedEntryLimit(t *testing.T) {
	c := NewByteBounded[int, int](2, 1000)

	c.Put(1, 1, 1)
	c.Put(2, 2, 1)
	c.Put(3, 3, 1)

	_, ok := c.Get(1)
	assert.False(t, ok)
	_, ok = c.Get(2)
	assert.True(t, ok)
	_, ok = c.Get(3)
	assert.True(t, ok)
}

func TestByteBoundedByteLimit(t *testing.T) {
	c := NewByteBounded[string, string](100, 10)

	c.Put("a", "a", 4)
	c.Put("b", "b", 4)
	// 插入后超出字节上限，应淘汰最旧的 a。
	c.Put("c", "c", 4)

	_, ok := c.Get("a")
	assert.False(t, ok)
	_, ok = c.Get("b")
	assert.True(t, ok)
	assert.LessOrEqual(t, c.Bytes(), int64(10))
}

func TestByteBoundedGetRefreshesRecency(t *testing.T) {
	c := NewByteBounded[string, int](2, 1000)

	c.Put("old", 1, 1)
	c.Put("hot", 2, 1)

	// 读取 old 之后，下一次淘汰应轮到 hot。
	_, _ = c.Get("old")
	c.Put("new", 3, 1)

	_, ok := c.Get("old")
	assert.True(t, ok)
	_, ok = c.Get("hot")
	assert.False(t, ok)
}

func TestByteBoundedInvariants(t *testing.T) {
	const (
		maxEntries = 8
		maxBytes   = 64
	)
	c := NewByteBounded[string, int](maxEntries, maxBytes)

	for i := 0; i < 256; i++ {
		size := int64(i%17) + 1
		c.Put(fmt.Sprintf("key-%d", i%32), i, size)

		assert.LessOrEqual(t, c.Len(), maxEntries)
		assert.LessOrEqual(t, c.Bytes(), int64(maxBytes))
	}
}

func TestByteBoundedClampsBounds(t *testing.T) {
	c := NewByteBounded[string, string](0, -5)

	c.Put("only", "v", 0) // size 被钳制为 1
	got, ok := c.Get("only")
	assert.True(t, ok)
	assert.Equal(t, "v", got)

	c.Put("next", "w", 1)
	_, ok = c.Get("only")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())
}
