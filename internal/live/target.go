package live

import (
	"net/url"
	"strings"

	"github.com/lk2023060901/live-garden-go/pkg/util/merr"
)

// RoomTarget 为原始输入解析后的定位结果。
type RoomTarget struct {
	Platform Platform
	RoomID   string
	RawInput string
}

// ParseTarget 将用户输入解析为平台与房间号。
//
// 解析规则按顺序尝试：
//  1. "platform:room" 前缀形式，平台部分接受别名；
//     room 部分本身是 URL 时取首个路径段作为房间号。
//  2. 完整 URL，按域名后缀匹配平台，取首个非空路径段。
//  3. 纯数字默认为哔哩哔哩房间号。
//
// 其余输入返回 ErrAmbiguousInput，便于上层提示用户补充平台信息。
func ParseTarget(input string) (RoomTarget, error) {
	raw := input
	input = strings.TrimSpace(input)
	if input == "" {
		return RoomTarget{}, merr.WrapErrInvalidInput(raw, "empty input")
	}

	if idx := strings.Index(input, ":"); idx > 0 {
		prefix := input[:idx]
		rest := strings.TrimSpace(input[idx+1:])
		if p, ok := ParsePlatform(prefix); ok && rest != "" {
			roomID := rest
			if strings.Contains(rest, "://") {
				id, err := roomIDFromURL(p, rest)
				if err != nil {
					return RoomTarget{}, err
				}
				roomID = id
			}
			return RoomTarget{Platform: p, RoomID: roomID, RawInput: raw}, nil
		}
	}

	if strings.Contains(input, "://") {
		u, err := url.Parse(input)
		if err != nil {
			return RoomTarget{}, merr.WrapErrURLParse(input, err)
		}
		p, ok := platformForHost(u.Hostname())
		if !ok {
			return RoomTarget{}, merr.WrapErrInvalidInput(input, "unsupported url host")
		}
		id, err := roomIDFromParsedURL(p, u)
		if err != nil {
			return RoomTarget{}, err
		}
		return RoomTarget{Platform: p, RoomID: id, RawInput: raw}, nil
	}

	if isDigits(input) {
		return RoomTarget{Platform: Bilibili, RoomID: input, RawInput: raw}, nil
	}

	return RoomTarget{}, merr.WrapErrAmbiguousInput(raw)
}

func platformForHost(host string) (Platform, bool) {
	host = strings.ToLower(host)
	for _, p := range Platforms() {
		for _, domain := range platformDomains[p] {
			if host == domain || strings.HasSuffix(host, "."+domain) {
				return p, true
			}
		}
	}
	return "", false
}

func roomIDFromURL(p Platform, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", merr.WrapErrURLParse(rawURL, err)
	}
	return roomIDFromParsedURL(p, u)
}

func roomIDFromParsedURL(p Platform, u *url.URL) (string, error) {
	for _, seg := range strings.Split(u.Path, "/") {
		if seg == "" {
			continue
		}
		if _, bad := nonRoomPaths[p][strings.ToLower(seg)]; bad {
			return "", merr.WrapErrInvalidInput(u.String(), "not a live room url")
		}
		return seg, nil
	}
	return "", merr.WrapErrInvalidInput(u.String(), "missing room id in url")
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
