// Package huya 实现虎牙直播的清单解码与弹幕接入。
package huya

import (
	"context"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/samber/lo"

	"github.com/lk2023060901/live-garden-go/internal/live"
	"github.com/lk2023060901/live-garden-go/pkg/util/merr"
)

// 测试钩子。
var timeNow = time.Now

// DefaultBlocklist 为默认屏蔽词，针对平台常见的进场与分享刷屏短语。
var DefaultBlocklist = []string{
	"进入直播间",
	"分享了直播间",
	"开通了粉丝",
}

// 匿名 uid 的缓存时长。
const anonymousUIDTTL = 24 * time.Hour

// Resolver 为虎牙的平台实现。
type Resolver struct {
	client   *http.Client
	uidCache *live.SecretCache[uint64]
}

func init() {
	live.Register(NewResolver())
}

// NewResolver 创建虎牙平台实现。
func NewResolver() *Resolver {
	return &Resolver{
		client: live.NewHTTPClient(),
		uidCache: live.NewSecretCache[uint64](live.Huya, "access-id", anonymousUIDTTL,
			func(uid uint64) bool { return uid > 0 }),
	}
}

func (r *Resolver) Platform() live.Platform {
	return live.Huya
}

// Decode 拉取房间信息并为每个清晰度档构造候选地址。
func (r *Resolver) Decode(ctx context.Context, roomID, rawInput string, opts live.ResolveOptions) (*live.LiveManifest, error) {
	room, err := r.fetchProfileRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	m := &live.LiveManifest{
		Platform: live.Huya,
		RoomID:   roomID,
		RawInput: rawInput,
		Info: live.RoomInfo{
			Title:    room.LiveData.Introduction,
			Name:     room.Profile.Nick,
			Avatar:   room.Profile.Avatar180,
			Cover:    room.LiveData.Screenshot,
			IsLiving: room.living(),
		},
		Hint: live.PlaybackHint{
			Referer:   liveReferer,
			UserAgent: live.DefaultUserAgent,
		},
	}
	if !m.Info.IsLiving {
		return m, nil
	}

	variants, err := buildVariants(room, timeNow().UnixMilli())
	if err != nil {
		return nil, err
	}
	m.Variants = variants
	return m, nil
}

// preferredSources 将源流按来源优先级排序：TX、AL 优先，其余靠后，
// 同优先级保持下发顺序。
func preferredSources(sources []streamSource) []streamSource {
	rank := func(cdn string) int {
		switch cdn {
		case "TX":
			return 0
		case "AL":
			return 1
		default:
			return 2
		}
	}
	ordered := append([]streamSource(nil), sources...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return rank(ordered[i].CdnType) < rank(ordered[j].CdnType)
	})
	return ordered
}

// buildVariants 为每个清晰度档生成一条档位：
// 候选地址按源流优先级展开，第一条为主地址，其余为备用；
// 码率为 0 的“原画”档记为最佳哨兵值，最终排序后恒定在首位。
func buildVariants(room *profileRoom, nowMS int64) ([]live.StreamVariant, error) {
	sources := preferredSources(room.sources())
	if len(sources) == 0 {
		return nil, merr.WrapErrParse(profileRoomEndpoint, "no stream source")
	}

	rates := room.bitRates()
	if len(rates) == 0 {
		rates = []bitRate{{DisplayName: "原画", BitRate: 0}}
	}

	variants := make([]live.StreamVariant, 0, len(rates))
	for _, rate := range rates {
		quality := rate.BitRate
		if quality <= 0 {
			quality = live.QualityBest
		}
		v := live.StreamVariant{
			ID:      "br" + strconv.Itoa(rate.BitRate),
			Label:   rate.DisplayName,
			Quality: quality,
		}
		for _, src := range sources {
			u, err := sourceURL(src, rate.BitRate, nowMS)
			if err != nil {
				continue
			}
			if v.URL == "" {
				v.URL = u
			} else {
				v.BackupURLs = append(v.BackupURLs, u)
			}
		}
		if v.URL == "" {
			continue
		}
		variants = append(variants, v)
	}
	if len(variants) == 0 {
		return nil, merr.WrapErrParse(profileRoomEndpoint, "no playable variant")
	}
	return variants, nil
}

// sourceURL 为一路源流生成带防盗链参数的播放地址。
func sourceURL(src streamSource, ratio int, nowMS int64) (string, error) {
	query, err := buildAntiCode(antiCodeInput{
		RawQuery:     src.FlvAntiCode,
		PresenterUID: src.PresenterUID,
		StreamName:   src.StreamName,
		NowMS:        nowMS,
		Ratio:        ratio,
	})
	if err != nil {
		return "", err
	}
	return src.FlvURL + "/" + src.StreamName + "." + src.FlvURLSuffix + "?" + query, nil
}

// ResolveVariant 重新解码并返回指定档位。
func (r *Resolver) ResolveVariant(ctx context.Context, roomID, variantID string) (*live.StreamVariant, error) {
	room, err := r.fetchProfileRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.living() {
		return nil, merr.WrapErrRoomNotLiving(roomID)
	}

	variants, err := buildVariants(room, timeNow().UnixMilli())
	if err != nil {
		return nil, err
	}
	v, found := lo.Find(variants, func(v live.StreamVariant) bool { return v.ID == variantID })
	if !found {
		return nil, merr.WrapErrVariantNotFound(roomID, variantID)
	}
	return &v, nil
}
