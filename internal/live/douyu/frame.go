package douyu

import (
	"encoding/binary"

	"github.com/lk2023060901/live-garden-go/pkg/buffer/ring"
	"github.com/lk2023060901/live-garden-go/pkg/util/merr"
)

// 帧布局：len(u32 小端) ++ len(重复) ++ type(u16) ++ enc(u8) ++ reserved(u8)
// ++ payload ++ NUL，其中 len = payload 长度 + 9。
const (
	frameOverhead = 9
	framePrefix   = 12

	frameTypeClient = 0x02b1
	frameTypeServer = 0x02b2
)

// encodeFrame 将一条 STT 文本封装为客户端消息帧。
func encodeFrame(payload string) []byte {
	length := uint32(len(payload) + frameOverhead)
	buf := make([]byte, framePrefix+len(payload)+1)
	binary.LittleEndian.PutUint32(buf[0:4], length)
	binary.LittleEndian.PutUint32(buf[4:8], length)
	binary.LittleEndian.PutUint16(buf[8:10], frameTypeClient)
	buf[10] = 0
	buf[11] = 0
	copy(buf[framePrefix:], payload)
	buf[len(buf)-1] = 0
	return buf
}

// scanFrames 从读缓冲中顺序取出所有完整帧的文本负载。
// 数据不足半帧时停止等待更多字节；长度字段非法时返回解码错误，
// 由调用方断开连接。
func scanFrames(rb *ring.Buffer) ([]string, error) {
	var payloads []string
	for {
		if rb.Buffered() < 4 {
			return payloads, nil
		}
		head := peekBytes(rb, 4)
		length := int(binary.LittleEndian.Uint32(head))
		if length < frameOverhead {
			return payloads, merr.WrapErrFrameDecode("frame length below minimum")
		}
		total := 4 + length
		if rb.Buffered() < total {
			return payloads, nil
		}
		frame := peekBytes(rb, total)
		payload := frame[framePrefix : total-1]
		payloads = append(payloads, string(payload))
		rb.Discard(total)
	}
}

// peekBytes 读取接下来 n 个字节的副本，不前进读指针。
func peekBytes(rb *ring.Buffer, n int) []byte {
	head, tail := rb.Peek(n)
	if len(tail) == 0 {
		return head
	}
	joined := make([]byte, 0, n)
	joined = append(joined, head...)
	return append(joined, tail...)
}
