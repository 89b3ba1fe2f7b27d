package huya

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTarsIntRoundTrip(t *testing.T) {
	var w tarsWriter
	w.WriteInt(0, 0)
	w.WriteInt(1, 100)
	w.WriteInt(2, 30000)
	w.WriteInt(3, 1<<20)
	w.WriteInt(4, 1<<40)

	for tag, want := range map[int]int64{0: 0, 1: 100, 2: 30000, 3: 1 << 20, 4: 1 << 40} {
		r := newTarsReader(w.Bytes())
		v, ok := r.ReadInt(tag)
		assert.True(t, ok, "tag %d", tag)
		assert.Equal(t, want, v, "tag %d", tag)
	}
}

func TestTarsStringRoundTrip(t *testing.T) {
	long := make([]byte, 300)
	for i := range long {
		long[i] = 'x'
	}

	var w tarsWriter
	w.WriteString(0, "弹幕")
	w.WriteString(1, string(long))

	r := newTarsReader(w.Bytes())
	s, ok := r.ReadString(0)
	assert.True(t, ok)
	assert.Equal(t, "弹幕", s)
	s, ok = r.ReadString(1)
	assert.True(t, ok)
	assert.Len(t, s, 300)
}

func TestTarsBytesRoundTrip(t *testing.T) {
	var w tarsWriter
	w.WriteInt(0, 7)
	w.WriteBytes(1, []byte{0x01, 0x02, 0x03})

	r := newTarsReader(w.Bytes())
	v, ok := r.ReadInt(0)
	assert.True(t, ok)
	assert.Equal(t, int64(7), v)
	b, ok := r.ReadBytes(1)
	assert.True(t, ok)
	assert.Equal(t, []byte{0x01, 0x02, 0x03}, b)
}

func TestTarsSeekSkipsFields(t *testing.T) {
	var w tarsWriter
	w.WriteInt(0, 1)
	w.WriteString(1, "skipped")
	w.WriteBytes(2, []byte("skipped"))
	w.WriteInt(3, 42)

	r := newTarsReader(w.Bytes())
	v, ok := r.ReadInt(3)
	assert.True(t, ok)
	assert.Equal(t, int64(42), v)

	// tag 顺序只能前进，回头读取失败。
	_, ok = r.ReadInt(0)
	assert.False(t, ok)
}

func TestTarsTruncated(t *testing.T) {
	var w tarsWriter
	w.WriteString(0, "hello")
	data := w.Bytes()

	r := newTarsReader(data[:len(data)-2])
	_, ok := r.ReadString(0)
	assert.False(t, ok)
}

func TestRegisterGroupFrameDecodes(t *testing.T) {
	frame := encodeRegisterGroup([]string{"live:1", "chat:1"})

	cmd := newTarsReader(frame)
	cmdType, ok := cmd.ReadInt(0)
	assert.True(t, ok)
	assert.Equal(t, int64(cmdRegisterGroup), cmdType)
	data, ok := cmd.ReadBytes(1)
	assert.True(t, ok)
	assert.NotEmpty(t, data)
}
