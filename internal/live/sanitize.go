package live

import (
	"strings"
	"unicode"
)

// EmotePlaceholder 在弹幕文本为空但携带图片表情时作为占位文本。
const EmotePlaceholder = "[表情]"

// SanitizeChatText 对平台送来的弹幕文本做统一清洗：
// 换行和制表符折算为空格，连续空白压成一个；
// 剔除控制字符、零宽连接符、变体选择符与私用区码点；最后去掉首尾空白。
func SanitizeChatText(in string) string {
	var b strings.Builder
	b.Grow(len(in))
	for _, r := range in {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			b.WriteRune(' ')
		case r == '‌' || r == '‍':
		case r >= '︀' && r <= '️':
		case unicode.IsControl(r):
		case unicode.Is(unicode.Co, r):
		default:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// NormalizeComments 清洗一条消息内的全部片段并按 (文本, 图片地址, 图片宽度)
// 组合键去重。清洗后文本为空但带图片的片段补占位文本，
// 文本和图片都为空的片段直接丢弃。
//
// 部分平台会在同一条消息里重复下发相同片段，这里去重以避免重复渲染。
func NormalizeComments(comments []Comment) []Comment {
	type key struct {
		text  string
		url   string
		width int
	}
	seen := make(map[key]struct{}, len(comments))
	out := comments[:0]
	for _, c := range comments {
		c.Text = SanitizeChatText(c.Text)
		if c.Text == "" && c.ImageURL != "" {
			c.Text = EmotePlaceholder
		}
		if c.Text == "" && c.ImageURL == "" {
			continue
		}
		k := key{text: c.Text, url: c.ImageURL, width: c.ImageWidth}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, c)
	}
	return out
}

// Blocked 判断原始文本是否命中屏蔽词（子串匹配，先于清洗执行）。
func Blocked(raw string, blocklist []string) bool {
	for _, phrase := range blocklist {
		if phrase != "" && strings.Contains(raw, phrase) {
			return true
		}
	}
	return false
}
