package live

import (
	"strings"

	"github.com/lk2023060901/live-garden-go/pkg/util/merr"
)

// Platform 标识受支持的直播平台。
//
// 这是一个封闭枚举：只有下面三个取值，序列化时直接使用平台名。
type Platform string

const (
	Bilibili Platform = "bilibili"
	Douyu    Platform = "douyu"
	Huya     Platform = "huya"
)

// Platforms 返回全部受支持的平台，顺序固定。
func Platforms() []Platform {
	return []Platform{Bilibili, Douyu, Huya}
}

func (p Platform) String() string {
	return string(p)
}

// platformAliases 为解析输入时接受的平台别名（均为小写）。
var platformAliases = map[string]Platform{
	"bilibili": Bilibili,
	"bili":     Bilibili,
	"blive":    Bilibili,
	"b":        Bilibili,
	"douyu":    Douyu,
	"dy":       Douyu,
	"huya":     Huya,
	"hy":       Huya,
}

// platformDomains 为各平台已知域名后缀。
// 匹配时按“等于或以 .domain 结尾”的规则处理。
var platformDomains = map[Platform][]string{
	Bilibili: {"live.bilibili.com", "bilibili.com", "b23.tv"},
	Douyu:    {"douyu.com", "douyucdn.cn"},
	Huya:     {"huya.com"},
}

// nonRoomPaths 为已知的非直播间路径首段，命中即拒绝。
var nonRoomPaths = map[Platform]map[string]struct{}{
	Bilibili: {"blackboard": {}, "p": {}, "v": {}},
	Douyu:    {"topic": {}, "cms": {}},
	Huya:     {"video": {}, "game": {}, "m": {}},
}

// ParsePlatform 将平台别名解析为 Platform。
// 别名大小写不敏感。
func ParsePlatform(alias string) (Platform, bool) {
	p, ok := platformAliases[strings.ToLower(strings.TrimSpace(alias))]
	return p, ok
}

// MustParsePlatform 与 ParsePlatform 相同，但解析失败时返回错误。
func MustParsePlatform(alias string) (Platform, error) {
	p, ok := ParsePlatform(alias)
	if !ok {
		return "", merr.WrapErrInvalidInput(alias, "unknown platform")
	}
	return p, nil
}
