package douyu

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lk2023060901/live-garden-go/pkg/buffer/ring"
	"github.com/lk2023060901/live-garden-go/pkg/util/merr"
)

func TestEncodeFrame(t *testing.T) {
	payload := "type@=mrkl/"
	frame := encodeFrame(payload)

	length := binary.LittleEndian.Uint32(frame[0:4])
	assert.Equal(t, uint32(len(payload)+frameOverhead), length)
	assert.Equal(t, length, binary.LittleEndian.Uint32(frame[4:8]))
	assert.Equal(t, uint16(frameTypeClient), binary.LittleEndian.Uint16(frame[8:10]))
	assert.Equal(t, payload, string(frame[framePrefix:len(frame)-1]))
	assert.Equal(t, byte(0), frame[len(frame)-1])
}

func TestScanFramesRoundTrip(t *testing.T) {
	rb := ring.New(1024)
	rb.Write(encodeFrame("type@=loginres/"))
	rb.Write(encodeFrame("type@=chatmsg/txt@=hi/"))

	payloads, err := scanFrames(rb)
	assert.NoError(t, err)
	assert.Equal(t, []string{"type@=loginres/", "type@=chatmsg/txt@=hi/"}, payloads)
	assert.Zero(t, rb.Buffered())
}

func TestScanFramesPartial(t *testing.T) {
	rb := ring.New(1024)
	frame := encodeFrame("type@=chatmsg/txt@=partial/")

	// 半帧先到，不产出也不报错。
	rb.Write(frame[:10])
	payloads, err := scanFrames(rb)
	assert.NoError(t, err)
	assert.Empty(t, payloads)

	rb.Write(frame[10:])
	payloads, err = scanFrames(rb)
	assert.NoError(t, err)
	assert.Equal(t, []string{"type@=chatmsg/txt@=partial/"}, payloads)
}

func TestScanFramesBadLength(t *testing.T) {
	rb := ring.New(1024)
	bad := make([]byte, 12)
	binary.LittleEndian.PutUint32(bad[0:4], 3) // 小于最小帧长
	rb.Write(bad)

	_, err := scanFrames(rb)
	assert.ErrorIs(t, err, merr.ErrFrameDecode)
}

func TestScanFramesKeepsValidBeforeBad(t *testing.T) {
	rb := ring.New(1024)
	rb.Write(encodeFrame("type@=mrkl/"))
	bad := make([]byte, 4)
	binary.LittleEndian.PutUint32(bad, 1)
	rb.Write(bad)

	payloads, err := scanFrames(rb)
	assert.ErrorIs(t, err, merr.ErrFrameDecode)
	assert.Equal(t, []string{"type@=mrkl/"}, payloads)
}
