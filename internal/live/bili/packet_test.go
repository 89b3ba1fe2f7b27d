package bili

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
)

func TestPacketRoundTrip(t *testing.T) {
	payload := []byte(`{"cmd":"DANMU_MSG"}`)
	frame := encodePacket(opMessage, verPlain, 7, payload)

	assert.Equal(t, uint32(packetHeaderLen+len(payload)), binary.BigEndian.Uint32(frame[0:4]))

	packets, err := decodePackets(frame)
	assert.NoError(t, err)
	assert.Len(t, packets, 1)
	assert.Equal(t, uint32(opMessage), packets[0].Operation)
	assert.Equal(t, uint32(7), packets[0].Sequence)
	assert.Equal(t, payload, packets[0].Payload)
}

func TestDecodeMultiplePackets(t *testing.T) {
	frame := append(
		encodePacket(opAuthReply, verPlain, 1, []byte(`{"code":0}`)),
		encodePacket(opMessage, verPlain, 2, []byte(`{"cmd":"LIVE"}`))...,
	)
	packets, err := decodePackets(frame)
	assert.NoError(t, err)
	assert.Len(t, packets, 2)
	assert.Equal(t, uint32(opAuthReply), packets[0].Operation)
	assert.Equal(t, uint32(opMessage), packets[1].Operation)
}

func TestDecodeZlibNested(t *testing.T) {
	inner := encodePacket(opMessage, verPlain, 3, []byte(`{"cmd":"DANMU_MSG"}`))

	var compressed bytes.Buffer
	w := zlib.NewWriter(&compressed)
	_, err := w.Write(inner)
	assert.NoError(t, err)
	assert.NoError(t, w.Close())

	frame := encodePacket(opMessage, verZlib, 0, compressed.Bytes())
	packets, err := decodePackets(frame)
	assert.NoError(t, err)
	assert.Len(t, packets, 1)
	assert.Equal(t, []byte(`{"cmd":"DANMU_MSG"}`), packets[0].Payload)
}

func TestDecodeBrotliNested(t *testing.T) {
	inner := encodePacket(opMessage, verPlain, 4, []byte(`{"cmd":"PREPARING"}`))

	var compressed bytes.Buffer
	w := brotli.NewWriter(&compressed)
	_, err := w.Write(inner)
	assert.NoError(t, err)
	assert.NoError(t, w.Close())

	frame := encodePacket(opMessage, verBrotli, 0, compressed.Bytes())
	packets, err := decodePackets(frame)
	assert.NoError(t, err)
	assert.Len(t, packets, 1)
	assert.Equal(t, []byte(`{"cmd":"PREPARING"}`), packets[0].Payload)
}

func TestDecodeInvalidLength(t *testing.T) {
	frame := encodePacket(opMessage, verPlain, 1, []byte("payload"))
	// 把总长改写成超过帧尾的值。
	binary.BigEndian.PutUint32(frame[0:4], uint32(len(frame)+100))

	packets, err := decodePackets(frame)
	assert.Error(t, err)
	assert.Empty(t, packets)
}

func TestDecodeTruncatedHeader(t *testing.T) {
	packets, err := decodePackets([]byte{0x00, 0x00, 0x00})
	assert.NoError(t, err)
	assert.Empty(t, packets)
}
