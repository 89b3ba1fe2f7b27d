package live

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lk2023060901/live-garden-go/pkg/util/merr"
)

func TestParseTargetPrefix(t *testing.T) {
	cases := []struct {
		input    string
		platform Platform
		roomID   string
	}{
		{"bilibili:12345", Bilibili, "12345"},
		{"bili:12345", Bilibili, "12345"},
		{"b:92613", Bilibili, "92613"},
		{"douyu:9999", Douyu, "9999"},
		{"dy:9999", Douyu, "9999"},
		{"huya:kaerlol", Huya, "kaerlol"},
		{"hy:kaerlol", Huya, "kaerlol"},
		{"HY:kaerlol", Huya, "kaerlol"},
	}
	for _, c := range cases {
		target, err := ParseTarget(c.input)
		assert.NoError(t, err, c.input)
		assert.Equal(t, c.platform, target.Platform, c.input)
		assert.Equal(t, c.roomID, target.RoomID, c.input)
		assert.Equal(t, c.input, target.RawInput, c.input)
	}
}

func TestParseTargetPrefixWithURL(t *testing.T) {
	target, err := ParseTarget("douyu:https://www.douyu.com/688666?dyshid=abc")
	assert.NoError(t, err)
	assert.Equal(t, Douyu, target.Platform)
	assert.Equal(t, "688666", target.RoomID)
}

func TestParseTargetURL(t *testing.T) {
	cases := []struct {
		input    string
		platform Platform
		roomID   string
	}{
		{"https://live.bilibili.com/92613", Bilibili, "92613"},
		{"https://live.bilibili.com/92613?spm_id_from=444.1", Bilibili, "92613"},
		{"https://www.douyu.com/9999", Douyu, "9999"},
		{"https://www.huya.com/kaerlol", Huya, "kaerlol"},
		{"http://huya.com/660000", Huya, "660000"},
	}
	for _, c := range cases {
		target, err := ParseTarget(c.input)
		assert.NoError(t, err, c.input)
		assert.Equal(t, c.platform, target.Platform, c.input)
		assert.Equal(t, c.roomID, target.RoomID, c.input)
	}
}

func TestParseTargetBareDigits(t *testing.T) {
	target, err := ParseTarget("92613")
	assert.NoError(t, err)
	assert.Equal(t, Bilibili, target.Platform)
	assert.Equal(t, "92613", target.RoomID)
}

func TestParseTargetRejects(t *testing.T) {
	// 空输入与仅空白输入一律拒绝。
	for _, input := range []string{"", "   ", "\t\n"} {
		_, err := ParseTarget(input)
		assert.ErrorIs(t, err, merr.ErrInvalidInput, "%q", input)
	}

	// 未知域名不猜测平台。
	_, err := ParseTarget("https://example.com/92613")
	assert.ErrorIs(t, err, merr.ErrInvalidInput)

	// 已知的非直播间路径。
	_, err = ParseTarget("https://www.douyu.com/topic/xxx")
	assert.ErrorIs(t, err, merr.ErrInvalidInput)

	// 其余输入返回可供上层提示消歧的专用错误。
	for _, input := range []string{"kaerlol", "some room", "douyu-9999"} {
		_, err := ParseTarget(input)
		assert.ErrorIs(t, err, merr.ErrAmbiguousInput, "%q", input)
	}
}

func TestParseTargetMalformedURL(t *testing.T) {
	// URL 中的控制字符会让 url.Parse 失败，原始错误保留在链上。
	_, err := ParseTarget("https://live.bilibili.com/\x7f92613")
	assert.ErrorIs(t, err, merr.ErrURLParse)

	_, err = ParseTarget("bilibili:https://live.bilibili.com/\x7f92613")
	assert.ErrorIs(t, err, merr.ErrURLParse)
}

func TestParsePlatform(t *testing.T) {
	p, ok := ParsePlatform("Bili")
	assert.True(t, ok)
	assert.Equal(t, Bilibili, p)

	_, ok = ParsePlatform("twitch")
	assert.False(t, ok)

	_, err := MustParsePlatform("twitch")
	assert.ErrorIs(t, err, merr.ErrInvalidInput)
}
