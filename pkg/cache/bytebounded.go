package cache

import (
	"container/list"
)

// ByteBoundedCache 是同时受条目数与总字节数约束的 LRU 缓存。
//
// 约定：
//   - Get 会刷新条目的访问顺序；
//   - Put 超限时从最久未使用端开始淘汰，直到两个约束同时满足；
//   - 本类型不做并发保护，需要共享时由调用方自行加锁。
type ByteBoundedCache[K comparable, V any] struct {
	maxEntries int
	maxBytes   int64

	usedBytes int64
	ll        *list.List
	items     map[K]*list.Element
}

type cacheEntry[K comparable, V any] struct {
	key   K
	value V
	size  int64
}

// NewByteBounded 创建一个容量上限为 maxEntries 条、maxBytes 字节的缓存。
// 两个上限均被钳制为至少 1。
func NewByteBounded[K comparable, V any](maxEntries int, maxBytes int64) *ByteBoundedCache[K, V] {
	if maxEntries < 1 {
		maxEntries = 1
	}
	if maxBytes < 1 {
		maxBytes = 1
	}
	return &ByteBoundedCache[K, V]{
		maxEntries: maxEntries,
		maxBytes:   maxBytes,
		ll:         list.New(),
		items:      make(map[K]*list.Element),
	}
}

// Get 查找 key 并刷新其访问顺序。
func (c *ByteBoundedCache[K, V]) Get(key K) (V, bool) {
	if ele, ok := c.items[key]; ok {
		c.ll.MoveToFront(ele)
		return ele.Value.(*cacheEntry[K, V]).value, true
	}
	var zero V
	return zero, false
}

// Put 写入或覆盖 key 对应的条目。
// size 为该条目的字节权重，小于 1 时按 1 计。
func (c *ByteBoundedCache[K, V]) Put(key K, value V, size int64) {
	if size < 1 {
		size = 1
	}

	if ele, ok := c.items[key]; ok {
		kv := ele.Value.(*cacheEntry[K, V])
		c.usedBytes -= kv.size
		kv.value = value
		kv.size = size
		c.usedBytes += size
		c.ll.MoveToFront(ele)
	} else {
		ele := c.ll.PushFront(&cacheEntry[K, V]{key: key, value: value, size: size})
		c.items[key] = ele
		c.usedBytes += size
	}

	for c.ll.Len() > c.maxEntries || c.usedBytes > c.maxBytes {
		c.removeOldest()
	}
}

// Len 返回当前缓存的条目数。
func (c *ByteBoundedCache[K, V]) Len() int {
	return c.ll.Len()
}

// Bytes 返回当前缓存的总字节权重。
func (c *ByteBoundedCache[K, V]) Bytes() int64 {
	return c.usedBytes
}

func (c *ByteBoundedCache[K, V]) removeOldest() {
	ele := c.ll.Back()
	if ele == nil {
		return
	}
	c.ll.Remove(ele)
	kv := ele.Value.(*cacheEntry[K, V])
	delete(c.items, kv.key)
	c.usedBytes -= kv.size
}
