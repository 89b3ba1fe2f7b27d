package live

import (
	"context"
	"sync"
	"time"

	"github.com/lk2023060901/live-garden-go/pkg/metrics"
	"github.com/lk2023060901/live-garden-go/pkg/util/merr"
)

// SecretCache 缓存一种按 TTL 过期的派生凭据。
//
// 命中判定为“未过期且取值有效”；未命中时在锁外执行拉取，
// 并发未命中允许重复拉取，以换取实现上的简单。
type SecretCache[T any] struct {
	platform Platform
	kind     string
	ttl      time.Duration
	valid    func(T) bool

	mu        sync.Mutex
	value     T
	fetchedAt time.Time
}

// NewSecretCache 创建凭据缓存。valid 为 nil 时只按 TTL 判定。
func NewSecretCache[T any](p Platform, kind string, ttl time.Duration, valid func(T) bool) *SecretCache[T] {
	return &SecretCache[T]{platform: p, kind: kind, ttl: ttl, valid: valid}
}

// GetOrRefresh 返回缓存的凭据，过期或无效时调用 fetch 重新拉取。
func (c *SecretCache[T]) GetOrRefresh(ctx context.Context, fetch func(context.Context) (T, error)) (T, error) {
	c.mu.Lock()
	if !c.fetchedAt.IsZero() && time.Since(c.fetchedAt) < c.ttl && (c.valid == nil || c.valid(c.value)) {
		v := c.value
		c.mu.Unlock()
		return v, nil
	}
	c.mu.Unlock()

	v, err := fetch(ctx)
	if err != nil {
		var zero T
		return zero, merr.WrapErrSecretFetch(c.kind, err, string(c.platform))
	}
	metrics.SecretRefreshes.WithLabelValues(string(c.platform), c.kind).Inc()

	c.mu.Lock()
	c.value = v
	c.fetchedAt = time.Now()
	c.mu.Unlock()
	return v, nil
}

// Invalidate 强制让缓存失效，下次读取时重新拉取。
func (c *SecretCache[T]) Invalidate() {
	c.mu.Lock()
	c.fetchedAt = time.Time{}
	c.mu.Unlock()
}
