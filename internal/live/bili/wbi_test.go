package bili

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMixinKeyDeterministic(t *testing.T) {
	keys := wbiKeys{
		Img: "7cd084941338484aae1ad9425b84077c",
		Sub: "4932caff0ff746eab6f01bf08b70ac45",
	}
	first := mixinKey(keys)
	second := mixinKey(keys)
	assert.Len(t, first, 32)
	assert.Equal(t, first, second)
}

func TestMixinKeyTooShort(t *testing.T) {
	assert.Empty(t, mixinKey(wbiKeys{Img: "short", Sub: "key"}))
}

func TestSignQuery(t *testing.T) {
	query := url.Values{}
	query.Set("id", "92613")
	query.Set("type", "0")

	now := time.Unix(1717000000, 0)
	signQuery(query, "abcdef0123456789abcdef0123456789", now)

	assert.Equal(t, "1717000000", query.Get("wts"))
	assert.Len(t, query.Get("w_rid"), 32)

	// 同样的输入必须产生同样的签名。
	again := url.Values{}
	again.Set("type", "0")
	again.Set("id", "92613")
	signQuery(again, "abcdef0123456789abcdef0123456789", now)
	assert.Equal(t, query.Get("w_rid"), again.Get("w_rid"))
}

func TestSignQueryStripsChars(t *testing.T) {
	assert.Equal(t, "abc", stripWbiChars("a!b'c()*"))

	query := url.Values{}
	query.Set("key", "va!lue")
	signQuery(query, "abcdef0123456789abcdef0123456789", time.Unix(1717000000, 0))

	clean := url.Values{}
	clean.Set("key", "value")
	signQuery(clean, "abcdef0123456789abcdef0123456789", time.Unix(1717000000, 0))
	assert.Equal(t, clean.Get("w_rid"), query.Get("w_rid"))
}

func TestEncodeURIComponent(t *testing.T) {
	assert.Equal(t, "a%20b", encodeURIComponent("a b"))
	assert.Equal(t, "%E5%BC%B9%E5%B9%95", encodeURIComponent("弹幕"))
}

func TestWbiKeyFromURL(t *testing.T) {
	key := wbiKeyFromURL("https://i0.hdslb.com/bfs/wbi/7cd084941338484aae1ad9425b84077c.png")
	assert.Equal(t, "7cd084941338484aae1ad9425b84077c", key)
	assert.Empty(t, wbiKeyFromURL(""))
	assert.Empty(t, wbiKeyFromURL("::bad::"))
}
