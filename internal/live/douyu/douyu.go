// Package douyu 实现斗鱼直播的清单解码与弹幕接入。
package douyu

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/lk2023060901/live-garden-go/internal/live"
	"github.com/lk2023060901/live-garden-go/pkg/cache"
	"github.com/lk2023060901/live-garden-go/pkg/metrics"
	"github.com/lk2023060901/live-garden-go/pkg/util/merr"
)

// 测试钩子。
var timeNow = time.Now

// DefaultBlocklist 为默认屏蔽词，针对平台常见的活动刷屏短语。
var DefaultBlocklist = []string{
	"进入直播间",
	"车队召集",
	"免费抢大奖",
}

const (
	// 签名素材的缓存参数。素材按房间派发，同一房间短时间内可复用。
	seedTTL        = 5 * time.Minute
	seedCacheRooms = 256
	seedCacheBytes = 64 << 10
)

// Resolver 为斗鱼的平台实现。
type Resolver struct {
	client   *http.Client
	deviceID string

	seedMu sync.Mutex
	seeds  *cache.ByteBoundedCache[string, cachedSeed]
}

type cachedSeed struct {
	seed      authSeed
	fetchedAt time.Time
}

func init() {
	live.Register(NewResolver())
}

// NewResolver 创建斗鱼平台实现。
func NewResolver() *Resolver {
	return &Resolver{
		client:   live.NewHTTPClient(),
		deviceID: newDeviceID(),
		seeds:    cache.NewByteBounded[string, cachedSeed](seedCacheRooms, seedCacheBytes),
	}
}

// getAuthSeed 返回房间的签名素材，过期后重新拉取。
func (r *Resolver) getAuthSeed(ctx context.Context, roomID string) (authSeed, error) {
	r.seedMu.Lock()
	if entry, ok := r.seeds.Get(roomID); ok && timeNow().Sub(entry.fetchedAt) < seedTTL {
		r.seedMu.Unlock()
		return entry.seed, nil
	}
	r.seedMu.Unlock()

	seed, err := r.fetchAuthSeed(ctx, roomID)
	if err != nil {
		return authSeed{}, err
	}
	metrics.SecretRefreshes.WithLabelValues(string(live.Douyu), "auth-seed").Inc()

	r.seedMu.Lock()
	r.seeds.Put(roomID, cachedSeed{seed: seed, fetchedAt: timeNow()},
		int64(len(roomID)+len(seed.Key)+len(seed.RandStr)))
	r.seedMu.Unlock()
	return seed, nil
}

func (r *Resolver) Platform() live.Platform {
	return live.Douyu
}

// Decode 拉取房间信息并枚举码率档位。
// 档位以 rate 为键，只有当前生效的 rate 带有已解析的 URL，
// 其余档位需要调用 ResolveVariant 做二次解析。
func (r *Resolver) Decode(ctx context.Context, roomID, rawInput string, opts live.ResolveOptions) (*live.LiveManifest, error) {
	info, err := r.fetchRoomInfo(ctx, roomID)
	if err != nil {
		return nil, err
	}

	m := &live.LiveManifest{
		Platform: live.Douyu,
		RoomID:   info.RoomID,
		RawInput: rawInput,
		Info: live.RoomInfo{
			Title:    info.RoomName,
			Name:     info.OwnerName,
			Avatar:   info.Avatar,
			Cover:    info.RoomThumb,
			IsLiving: info.living(),
		},
		Hint: live.PlaybackHint{
			Referer:   liveReferer,
			UserAgent: live.DefaultUserAgent,
		},
	}
	if !m.Info.IsLiving {
		return m, nil
	}

	play, err := r.fetchPlay(ctx, info.RoomID, 0)
	if err != nil {
		return nil, err
	}
	m.Variants = buildVariants(play)
	return m, nil
}

// buildVariants 将码率列表映射为档位，URL 只落在当前生效的 rate 上。
func buildVariants(play *playData) []live.StreamVariant {
	variants := make([]live.StreamVariant, 0, len(play.Multirates))
	for _, rate := range play.Multirates {
		v := live.StreamVariant{
			ID:      rateVariantID(rate.Rate),
			Label:   rate.Name,
			Quality: rate.Bit,
			Rate:    rate.Rate,
		}
		if rate.Rate == play.Rate {
			v.URL = play.streamURL()
		}
		variants = append(variants, v)
	}
	if len(variants) == 0 && play.streamURL() != "" {
		variants = append(variants, live.StreamVariant{
			ID:      rateVariantID(play.Rate),
			Label:   "默认",
			Quality: live.QualityBest,
			Rate:    play.Rate,
			URL:     play.streamURL(),
		})
	}
	return variants
}

func rateVariantID(rate int) string {
	return "rate" + strconv.Itoa(rate)
}

// ResolveVariant 重新执行两步拉取，以目标 rate 请求流地址。
func (r *Resolver) ResolveVariant(ctx context.Context, roomID, variantID string) (*live.StreamVariant, error) {
	info, err := r.fetchRoomInfo(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !info.living() {
		return nil, merr.WrapErrRoomNotLiving(roomID)
	}

	probe, err := r.fetchPlay(ctx, info.RoomID, 0)
	if err != nil {
		return nil, err
	}
	rate, found := lo.Find(probe.Multirates, func(item rateInfo) bool {
		return rateVariantID(item.Rate) == variantID
	})
	if !found {
		return nil, merr.WrapErrVariantNotFound(roomID, variantID)
	}

	play, err := r.fetchPlay(ctx, info.RoomID, rate.Rate)
	if err != nil {
		return nil, err
	}
	return &live.StreamVariant{
		ID:      variantID,
		Label:   rate.Name,
		Quality: rate.Bit,
		Rate:    rate.Rate,
		URL:     play.streamURL(),
	}, nil
}
