package live

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"

	"github.com/lk2023060901/live-garden-go/pkg/util/merr"
)

func TestSecretCacheHit(t *testing.T) {
	ctx := context.Background()
	cache := NewSecretCache[string](Bilibili, "wbi", time.Hour, nil)

	calls := 0
	fetch := func(context.Context) (string, error) {
		calls++
		return "mixin-key", nil
	}

	v, err := cache.GetOrRefresh(ctx, fetch)
	assert.NoError(t, err)
	assert.Equal(t, "mixin-key", v)

	v, err = cache.GetOrRefresh(ctx, fetch)
	assert.NoError(t, err)
	assert.Equal(t, "mixin-key", v)
	assert.Equal(t, 1, calls)
}

func TestSecretCacheExpiry(t *testing.T) {
	ctx := context.Background()
	cache := NewSecretCache[string](Bilibili, "buvid", 10*time.Millisecond, nil)

	calls := 0
	fetch := func(context.Context) (string, error) {
		calls++
		return "cookie", nil
	}

	_, err := cache.GetOrRefresh(ctx, fetch)
	assert.NoError(t, err)
	time.Sleep(20 * time.Millisecond)
	_, err = cache.GetOrRefresh(ctx, fetch)
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestSecretCacheValidity(t *testing.T) {
	// TTL 未到但取值无效时仍然重新拉取。
	ctx := context.Background()
	cache := NewSecretCache[string](Huya, "anticode", time.Hour, func(v string) bool { return v != "" })

	calls := 0
	_, err := cache.GetOrRefresh(ctx, func(context.Context) (string, error) {
		calls++
		return "", nil
	})
	assert.NoError(t, err)

	v, err := cache.GetOrRefresh(ctx, func(context.Context) (string, error) {
		calls++
		return "secret", nil
	})
	assert.NoError(t, err)
	assert.Equal(t, "secret", v)
	assert.Equal(t, 2, calls)
}

func TestSecretCacheFetchError(t *testing.T) {
	ctx := context.Background()
	cache := NewSecretCache[string](Douyu, "auth", time.Hour, nil)

	_, err := cache.GetOrRefresh(ctx, func(context.Context) (string, error) {
		return "", errors.New("boom")
	})
	assert.ErrorIs(t, err, merr.ErrSecretFetch)

	// 失败不污染缓存，下一次继续拉取。
	v, err := cache.GetOrRefresh(ctx, func(context.Context) (string, error) {
		return "ok", nil
	})
	assert.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestSecretCacheInvalidate(t *testing.T) {
	ctx := context.Background()
	cache := NewSecretCache[string](Bilibili, "wbi", time.Hour, nil)

	calls := 0
	fetch := func(context.Context) (string, error) {
		calls++
		return "v", nil
	}
	_, _ = cache.GetOrRefresh(ctx, fetch)
	cache.Invalidate()
	_, _ = cache.GetOrRefresh(ctx, fetch)
	assert.Equal(t, 2, calls)
}

func TestSecretCacheConcurrentMiss(t *testing.T) {
	// 并发未命中允许重复拉取，但结果必须一致且无竞态。
	ctx := context.Background()
	cache := NewSecretCache[string](Huya, "anticode", time.Hour, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := cache.GetOrRefresh(ctx, func(context.Context) (string, error) {
				return "shared", nil
			})
			assert.NoError(t, err)
			assert.Equal(t, "shared", v)
		}()
	}
	wg.Wait()
}
