package live

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lk2023060901/live-garden-go/pkg/metrics"
	"github.com/lk2023060901/live-garden-go/pkg/util/merr"
)

// Resolver 为单个平台的完整接入实现。
//
// Decode 产出的清单不要求已满足全局不变式，统一收尾由本包完成。
type Resolver interface {
	// Platform 返回实现对应的平台。
	Platform() Platform

	// Decode 拉取房间信息并枚举可播档位。
	Decode(ctx context.Context, roomID, rawInput string, opts ResolveOptions) (*LiveManifest, error)

	// ResolveVariant 对需要二次解析的档位重新执行两步拉取，
	// 返回携带 URL 的单个档位；id 不存在时返回 ErrVariantNotFound。
	ResolveVariant(ctx context.Context, roomID, variantID string) (*StreamVariant, error)

	// Connect 建立弹幕连接并返回会话句柄。
	Connect(ctx context.Context, roomID string, opts ConnectOptions) (*Session, error)
}

var (
	registryMu sync.RWMutex
	registry   = make(map[Platform]Resolver)
)

// Register 注册平台实现，由各平台包 init 调用。
// 重复注册同一平台视为编码错误，直接 panic。
func Register(r Resolver) {
	registryMu.Lock()
	defer registryMu.Unlock()
	p := r.Platform()
	if _, ok := registry[p]; ok {
		panic(fmt.Sprintf("live: resolver for platform %q registered twice", p))
	}
	registry[p] = r
}

func resolverFor(p Platform) (Resolver, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	r, ok := registry[p]
	if !ok {
		return nil, merr.WrapErrInvalidInput(string(p), "platform not registered")
	}
	return r, nil
}

// DecodeManifest 解析输入并完成一次完整的清单解码。
func DecodeManifest(ctx context.Context, input string, opts ResolveOptions) (*LiveManifest, error) {
	target, err := ParseTarget(input)
	if err != nil {
		return nil, err
	}
	return DecodeTarget(ctx, target, opts)
}

// DecodeTarget 对已解析的目标执行清单解码。
func DecodeTarget(ctx context.Context, target RoomTarget, opts ResolveOptions) (*LiveManifest, error) {
	r, err := resolverFor(target.Platform)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	m, err := r.Decode(ctx, target.RoomID, target.RawInput, opts)
	result := metrics.SuccessLabel
	if err != nil {
		result = metrics.FailLabel
	}
	metrics.ManifestDecodeDuration.
		WithLabelValues(string(target.Platform), result).
		Observe(float64(time.Since(start).Milliseconds()))
	if err != nil {
		return nil, err
	}
	return finishManifest(m, opts), nil
}

// ResolveVariant 对指定平台执行档位二次解析。
func ResolveVariant(ctx context.Context, p Platform, roomID, variantID string) (*StreamVariant, error) {
	r, err := resolverFor(p)
	if err != nil {
		return nil, err
	}
	return r.ResolveVariant(ctx, roomID, variantID)
}

// Connect 解析输入并建立弹幕会话。
func Connect(ctx context.Context, input string, opts ConnectOptions) (*Session, error) {
	target, err := ParseTarget(input)
	if err != nil {
		return nil, err
	}
	return ConnectTarget(ctx, target, opts)
}

// ConnectTarget 对已解析的目标建立弹幕会话。
func ConnectTarget(ctx context.Context, target RoomTarget, opts ConnectOptions) (*Session, error) {
	r, err := resolverFor(target.Platform)
	if err != nil {
		return nil, err
	}
	return r.Connect(ctx, target.RoomID, opts)
}
