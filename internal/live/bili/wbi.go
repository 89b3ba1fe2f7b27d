package bili

import (
	"crypto/md5"
	"encoding/hex"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// mixinKeyEncTab 为 WBI 混淆密钥的固定置换表。
var mixinKeyEncTab = []int{
	46, 47, 18, 2, 53, 8, 23, 32, 15, 50, 10, 31, 58, 3, 45, 35,
	27, 43, 5, 49, 33, 9, 42, 19, 29, 28, 14, 39, 12, 38, 41, 13,
	37, 48, 7, 16, 24, 55, 40, 61, 26, 17, 0, 1, 60, 51, 30, 4,
	22, 25, 54, 21, 56, 59, 6, 63, 57, 62, 11, 36, 20, 34, 44, 52,
}

// wbiKeys 为 nav 接口下发的一对 WBI 密钥。
type wbiKeys struct {
	Img string
	Sub string
}

func (k wbiKeys) valid() bool {
	return k.Img != "" && k.Sub != ""
}

// mixinKey 按置换表打乱 img+sub 拼接串并取前 32 个字符。
// 素材不足 64 个字符时返回空串。
func mixinKey(keys wbiKeys) string {
	raw := []rune(keys.Img + keys.Sub)
	if len(raw) < 64 {
		return ""
	}
	var b strings.Builder
	b.Grow(64)
	for _, idx := range mixinKeyEncTab {
		if idx >= 0 && idx < len(raw) {
			b.WriteRune(raw[idx])
		}
	}
	mixed := b.String()
	if len(mixed) > 32 {
		return mixed[:32]
	}
	return mixed
}

// signQuery 对查询参数做 WBI 签名：写入 wts（秒），
// 过滤 value 中的 !'()* 字符，按 key 排序后百分号编码拼接，
// 追加混淆密钥做 MD5，结果写入 w_rid。
func signQuery(query url.Values, mixin string, now time.Time) {
	query.Del("w_rid")
	query.Set("wts", strconv.FormatInt(now.Unix(), 10))

	keys := make([]string, 0, len(query))
	for key := range query {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		value := stripWbiChars(query.Get(key))
		parts = append(parts, encodeURIComponent(key)+"="+encodeURIComponent(value))
	}
	sum := md5.Sum([]byte(strings.Join(parts, "&") + mixin))
	query.Set("w_rid", hex.EncodeToString(sum[:]))
}

func stripWbiChars(value string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '!', '\'', '(', ')', '*':
			return -1
		default:
			return r
		}
	}, value)
}

func encodeURIComponent(value string) string {
	return strings.ReplaceAll(url.QueryEscape(value), "+", "%20")
}

// wbiKeyFromURL 从 wbi_img 下发的图片地址中截取密钥（文件名去扩展名）。
func wbiKeyFromURL(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	name := u.Path
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	if idx := strings.Index(name, "."); idx > 0 {
		name = name[:idx]
	}
	return name
}
