// Package bili 实现哔哩哔哩直播的清单解码与弹幕接入。
package bili

import (
	"context"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/lk2023060901/live-garden-go/internal/live"
	"github.com/lk2023060901/live-garden-go/pkg/util/merr"
	"github.com/lk2023060901/live-garden-go/pkg/util/typeutil"
)

const (
	wbiTTL   = 6 * time.Hour
	buvidTTL = 24 * time.Hour
)

// 测试钩子。
var timeNow = time.Now

// Resolver 为哔哩哔哩的平台实现。
type Resolver struct {
	client     *http.Client
	wbiCache   *live.SecretCache[wbiKeys]
	buvidCache *live.SecretCache[string]
}

func init() {
	live.Register(NewResolver())
}

// NewResolver 创建哔哩哔哩平台实现。
func NewResolver() *Resolver {
	return &Resolver{
		client: live.NewHTTPClient(),
		wbiCache: live.NewSecretCache(live.Bilibili, "wbi", wbiTTL,
			func(k wbiKeys) bool { return k.valid() }),
		buvidCache: live.NewSecretCache(live.Bilibili, "buvid", buvidTTL,
			func(v string) bool { return v != "" }),
	}
}

func (r *Resolver) Platform() live.Platform {
	return live.Bilibili
}

// Decode 拉取房间信息，对每个可用清晰度档位解析一次流地址。
func (r *Resolver) Decode(ctx context.Context, roomID, rawInput string, opts live.ResolveOptions) (*live.LiveManifest, error) {
	info, err := r.fetchRoomInfo(ctx, roomID)
	if err != nil {
		return nil, err
	}

	m := &live.LiveManifest{
		Platform: live.Bilibili,
		RoomID:   strconv.FormatInt(info.RoomID, 10),
		RawInput: rawInput,
		Info: live.RoomInfo{
			Title:    info.Title,
			Cover:    info.UserCover,
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

	variants, err := r.decodeVariants(ctx, info.RoomID)
	if err != nil {
		return nil, err
	}
	m.Variants = variants
	return m, nil
}

// decodeVariants 先用 qn=0 探测可用档位，再按档位逐个解析地址。
func (r *Resolver) decodeVariants(ctx context.Context, realRoomID int64) ([]live.StreamVariant, error) {
	probe, err := r.fetchPlayURL(ctx, realRoomID, 0)
	if err != nil {
		return nil, err
	}

	labels := make(map[int]string, len(probe.QualityDescription))
	qns := make([]int, 0, len(probe.QualityDescription))
	for _, desc := range probe.QualityDescription {
		labels[desc.QN] = desc.Desc
		qns = append(qns, desc.QN)
	}
	if len(qns) == 0 {
		qns = append(qns, probe.CurrentQN)
	}

	variants := make([]live.StreamVariant, 0, len(qns))
	for _, qn := range qns {
		data := probe
		if qn != probe.CurrentQN {
			data, err = r.fetchPlayURL(ctx, realRoomID, qn)
			if err != nil {
				// 单个档位解析失败不拖垮整个清单。
				continue
			}
		}
		urls := orderPlayURLs(collectPlayURLs(data))
		v := live.StreamVariant{
			ID:      "qn" + strconv.Itoa(qn),
			Label:   labels[qn],
			Quality: qn,
		}
		if v.Label == "" {
			v.Label = "qn" + strconv.Itoa(qn)
		}
		if len(urls) > 0 {
			v.URL = urls[0]
			v.BackupURLs = urls[1:]
		}
		variants = append(variants, v)
	}
	if len(variants) == 0 {
		return nil, merr.WrapErrParse(playURLEndpoint, "no playable variant")
	}
	return variants, nil
}

// collectPlayURLs 汇总 durl 中的主地址与备用地址并去重。
func collectPlayURLs(data *playURLData) []string {
	seen := typeutil.NewSet[string]()
	urls := make([]string, 0, len(data.DURL))
	appendURL := func(u string) {
		u = strings.TrimSpace(u)
		if u == "" || seen.Contain(u) {
			return
		}
		seen.Insert(u)
		urls = append(urls, u)
	}
	for _, d := range data.DURL {
		appendURL(d.URL)
		for _, backup := range d.BackupURLs {
			appendURL(backup)
		}
	}
	return urls
}

// cdnTier 返回地址所属 CDN 的优先级，数字越小越优先：
// 主源 < 缓存节点 < 托管 CDN < P2P CDN。
func cdnTier(rawURL string) int {
	switch {
	case strings.Contains(rawURL, "szbdyd"):
		return 3
	case strings.Contains(rawURL, "mcdn"):
		return 2
	case strings.Contains(rawURL, "gotcha"):
		return 1
	default:
		return 0
	}
}

func orderPlayURLs(urls []string) []string {
	sort.SliceStable(urls, func(i, j int) bool {
		return cdnTier(urls[i]) < cdnTier(urls[j])
	})
	return urls
}

// ResolveVariant 重新解码清单并返回指定档位。
func (r *Resolver) ResolveVariant(ctx context.Context, roomID, variantID string) (*live.StreamVariant, error) {
	info, err := r.fetchRoomInfo(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !info.living() {
		return nil, merr.WrapErrRoomNotLiving(roomID)
	}

	variants, err := r.decodeVariants(ctx, info.RoomID)
	if err != nil {
		return nil, err
	}
	v, found := lo.Find(variants, func(v live.StreamVariant) bool { return v.ID == variantID })
	if !found {
		return nil, merr.WrapErrVariantNotFound(roomID, variantID)
	}
	return &v, nil
}
