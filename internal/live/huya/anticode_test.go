package huya

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

const testAntiCode = "wsTime=66366ff9&fm=dGVzdHByZWZpeF8kMF8kMV8kMl8kMw%3D%3D&ctype=huya_live&t=100&fs=bgct"

func TestRotl8(t *testing.T) {
	assert.Equal(t, uint64(315904), rotl8(1234))
	// 高位字节回绕到低位。
	assert.Equal(t, uint64(1), rotl8(uint64(1)<<56))
}

func TestBuildAntiCode(t *testing.T) {
	raw, err := url.QueryUnescape(testAntiCode)
	assert.NoError(t, err)

	out, err := buildAntiCode(antiCodeInput{
		RawQuery:     raw,
		PresenterUID: 1234,
		StreamName:   "teststream",
		NowMS:        1717000000000,
	})
	assert.NoError(t, err)

	query, err := url.ParseQuery(out)
	assert.NoError(t, err)
	assert.Equal(t, "daaedd3e525f3b8f5cf0e9fa08f0ff30", query.Get("wsSecret"))
	assert.Equal(t, "66366ff9", query.Get("wsTime"))
	assert.Equal(t, "1717000315904", query.Get("seqid"))
	assert.Equal(t, "huya_live", query.Get("ctype"))
	assert.Equal(t, "1", query.Get("ver"))
	assert.Equal(t, "bgct", query.Get("fs"))
	assert.Equal(t, "100", query.Get("t"))
	assert.Equal(t, "315904", query.Get("u"))
	assert.NotEmpty(t, query.Get("sv"))

	// 默认不携带 ratio 与移动端标识。
	assert.Empty(t, query.Get("ratio"))
	assert.Empty(t, query.Get("uid"))
	assert.Empty(t, query.Get("uuid"))
}

func TestBuildAntiCodeRatio(t *testing.T) {
	raw, _ := url.QueryUnescape(testAntiCode)

	out, err := buildAntiCode(antiCodeInput{
		RawQuery:     raw,
		PresenterUID: 1234,
		StreamName:   "teststream",
		NowMS:        1717000000000,
		Ratio:        2000,
	})
	assert.NoError(t, err)
	query, _ := url.ParseQuery(out)
	assert.Equal(t, "2000", query.Get("ratio"))
}

func TestBuildAntiCodeMobileMode(t *testing.T) {
	raw, _ := url.QueryUnescape(testAntiCode)

	out, err := buildAntiCode(antiCodeInput{
		RawQuery:     raw,
		PresenterUID: 1234,
		StreamName:   "teststream",
		NowMS:        1717000000000,
		MobileMode:   true,
	})
	assert.NoError(t, err)
	query, _ := url.ParseQuery(out)
	assert.Empty(t, query.Get("u"))
	assert.Equal(t, "315904", query.Get("uid"))
	assert.NotEmpty(t, query.Get("uuid"))
}

func TestBuildAntiCodeBadFm(t *testing.T) {
	_, err := buildAntiCode(antiCodeInput{RawQuery: "fm=%%%zz&wsTime=1"})
	assert.Error(t, err)
}
