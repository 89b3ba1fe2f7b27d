package live

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeChatText(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"hello world", "hello world"},
		{"  hello   world  ", "hello world"},
		{"line1\nline2\tline3", "line1 line2 line3"},
		{"a\r\nb", "a b"},
		{"zw‌j‍", "zwj"},
		{"emoji️!", "emoji!"},
		{"puax", "puax"},
		{"ctrl\x01\x02", "ctrl"},
		{"弹幕 测试", "弹幕 测试"},
		{"‍️", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, SanitizeChatText(c.in), "%q", c.in)
	}
}

func TestNormalizeComments(t *testing.T) {
	out := NormalizeComments([]Comment{
		{Text: "  hello \n world "},
		{Text: "", ImageURL: "http://img/a.png", ImageWidth: 60},
		{Text: "", ImageURL: ""},
		{Text: "‍"},
	})
	assert.Equal(t, []Comment{
		{Text: "hello world"},
		{Text: EmotePlaceholder, ImageURL: "http://img/a.png", ImageWidth: 60},
	}, out)
}

func TestNormalizeCommentsDedup(t *testing.T) {
	// 同一条消息内重复片段只保留一份，避免重复渲染。
	out := NormalizeComments([]Comment{
		{Text: "666"},
		{Text: " 666 "},
		{Text: "666", ImageURL: "http://img/a.png"},
		{Text: "", ImageURL: "http://img/a.png", ImageWidth: 60},
		{Text: "", ImageURL: "http://img/a.png", ImageWidth: 60},
	})
	assert.Len(t, out, 3)
	assert.Equal(t, "666", out[0].Text)
	assert.Equal(t, "http://img/a.png", out[1].ImageURL)
	assert.Equal(t, EmotePlaceholder, out[2].Text)
}

func TestBlocked(t *testing.T) {
	blocklist := []string{"回馈粉丝", "点点关注"}
	assert.True(t, Blocked("主播回馈粉丝啦", blocklist))
	assert.False(t, Blocked("普通弹幕", blocklist))
	assert.False(t, Blocked("anything", nil))
	assert.False(t, Blocked("anything", []string{""}))
}
