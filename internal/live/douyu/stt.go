package douyu

import (
	"sort"
	"strings"
)

// STT 是斗鱼自定义的文本序列化格式：
// 键值对形如 key@=value/，value 中的 '@' 转义为 '@A'，'/' 转义为 '@S'。

func sttEscape(s string) string {
	s = strings.ReplaceAll(s, "@", "@A")
	return strings.ReplaceAll(s, "/", "@S")
}

func sttUnescape(s string) string {
	s = strings.ReplaceAll(s, "@S", "/")
	return strings.ReplaceAll(s, "@A", "@")
}

// sttMarshal 将键值对序列化为 STT 文本。
// type 键固定排在最前，其余键按字典序，保证输出稳定。
func sttMarshal(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		if key != "type" {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	if _, ok := fields["type"]; ok {
		keys = append([]string{"type"}, keys...)
	}

	var b strings.Builder
	for _, key := range keys {
		b.WriteString(sttEscape(key))
		b.WriteString("@=")
		b.WriteString(sttEscape(fields[key]))
		b.WriteString("/")
	}
	return b.String()
}

// sttUnmarshal 将 STT 文本还原为键值对，忽略不成对的残片。
func sttUnmarshal(payload string) map[string]string {
	fields := make(map[string]string)
	for _, item := range strings.Split(payload, "/") {
		if item == "" {
			continue
		}
		idx := strings.Index(item, "@=")
		if idx < 0 {
			continue
		}
		key := sttUnescape(item[:idx])
		if key == "" {
			continue
		}
		fields[key] = sttUnescape(item[idx+2:])
	}
	return fields
}
