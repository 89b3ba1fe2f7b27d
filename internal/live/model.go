package live

import (
	"sort"

	"github.com/lk2023060901/live-garden-go/pkg/util/typeutil"
)

// StreamVariant 描述清单中一个可选的清晰度档位。
//
// Quality 数值越大表示越清晰；Rate 为部分平台使用的二级选择器，
// 对应档位需要二次解析时 URL 为空。
type StreamVariant struct {
	ID         string   `json:"id"`
	Label      string   `json:"label"`
	Quality    int      `json:"quality"`
	Rate       int      `json:"rate,omitempty"`
	URL        string   `json:"url,omitempty"`
	BackupURLs []string `json:"backup_urls,omitempty"`
}

// QualityBest 为“最佳/未知”档位专用的哨兵值，排序时恒定在最前。
const QualityBest = 1 << 30

// RoomInfo 为直播间基础信息。
type RoomInfo struct {
	Title    string `json:"title"`
	Name     string `json:"name"`
	Avatar   string `json:"avatar,omitempty"`
	Cover    string `json:"cover,omitempty"`
	IsLiving bool   `json:"is_living"`
}

// PlaybackHint 为播放端需要携带的请求头提示。
type PlaybackHint struct {
	Referer   string `json:"referer,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
}

// LiveManifest 为一次清单解码的完整结果。
//
// 不变式：Variants 内 ID 唯一且按 Quality 降序排列；
// IsLiving 为 false 时 Variants 为空。
type LiveManifest struct {
	Platform Platform        `json:"platform"`
	RoomID   string          `json:"room_id"`
	RawInput string          `json:"raw_input,omitempty"`
	Info     RoomInfo        `json:"info"`
	Hint     PlaybackHint    `json:"hint"`
	Variants []StreamVariant `json:"variants"`
}

// ResolveOptions 控制清单解码行为。
type ResolveOptions struct {
	// DropInaccessibleHighQualities 为 true 时移除排在当前可播档位
	// 之前但没有 URL 的档位，避免对外暴露不可达的“更高清晰度”。
	DropInaccessibleHighQualities bool `json:"drop_inaccessible_high_qualities"`
}

// DefaultResolveOptions 返回默认解码选项。
func DefaultResolveOptions() ResolveOptions {
	return ResolveOptions{DropInaccessibleHighQualities: true}
}

// ConnectOptions 控制弹幕接入行为。
type ConnectOptions struct {
	// Blocklist 为屏蔽词列表，命中任意子串的弹幕直接丢弃。
	// 为 nil 时使用平台默认列表；显式传空列表表示不屏蔽。
	Blocklist []string `json:"blocklist"`
}

// 事件 method 取值。
const (
	MethodChatMessage      = "chat-message"
	MethodConnectionStatus = "connection-status"
)

// Comment 为一条弹幕内的单个片段（文本或图片表情）。
type Comment struct {
	Text       string `json:"text,omitempty"`
	ImageURL   string `json:"image_url,omitempty"`
	ImageWidth int    `json:"image_width,omitempty"`
}

// DanmakuEvent 为推送给消费方的归一化弹幕事件。
type DanmakuEvent struct {
	Platform   Platform  `json:"platform"`
	RoomID     string    `json:"room_id"`
	ReceivedAt int64     `json:"received_at"`
	Method     string    `json:"method"`
	User       string    `json:"user,omitempty"`
	Text       string    `json:"text,omitempty"`
	Comments   []Comment `json:"comments,omitempty"`
}

// sortVariants 将档位按 Quality 降序稳定排序。
func sortVariants(variants []StreamVariant) {
	sort.SliceStable(variants, func(i, j int) bool {
		return variants[i].Quality > variants[j].Quality
	})
}

// finishManifest 对平台产出的清单做统一收尾：
// 未开播清空档位，去重 ID，降序排序，并按需剔除不可达的高清档。
func finishManifest(m *LiveManifest, opts ResolveOptions) *LiveManifest {
	if !m.Info.IsLiving {
		m.Variants = nil
		return m
	}

	seen := typeutil.NewSet[string]()
	kept := m.Variants[:0]
	for _, v := range m.Variants {
		if seen.Contain(v.ID) {
			continue
		}
		seen.Insert(v.ID)
		kept = append(kept, v)
	}
	m.Variants = kept

	sortVariants(m.Variants)

	if opts.DropInaccessibleHighQualities {
		m.Variants = dropInaccessible(m.Variants)
	}
	return m
}

// dropInaccessible 删除排在首个可播档位之前、但自身没有 URL 的档位。
// 整个清单都没有 URL 时原样保留。
func dropInaccessible(variants []StreamVariant) []StreamVariant {
	first := -1
	for i, v := range variants {
		if v.URL != "" {
			first = i
			break
		}
	}
	if first <= 0 {
		return variants
	}
	return append(variants[:0], variants[first:]...)
}
