package bili

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"io"

	"github.com/andybalholm/brotli"

	"github.com/lk2023060901/live-garden-go/pkg/util/merr"
)

// 弹幕连接使用 16 字节大端包头：
// 总长 u32、头长 u16(=16)、协议版本 u16、操作码 u32、序号 u32。
const packetHeaderLen = 16

// 操作码。
const (
	opHeartbeat      = 2
	opHeartbeatReply = 3
	opMessage        = 5
	opAuth           = 7
	opAuthReply      = 8
)

// 协议版本。
const (
	verPlain  = 0
	verInt    = 1
	verZlib   = 2
	verBrotli = 3
)

// 解压炸弹保护上限。
const maxInflatedSize = 8 << 20

type packet struct {
	Version   uint16
	Operation uint32
	Sequence  uint32
	Payload   []byte
}

// encodePacket 组装一个完整的弹幕协议包。
func encodePacket(operation uint32, version uint16, sequence uint32, payload []byte) []byte {
	buf := make([]byte, packetHeaderLen+len(payload))
	binary.BigEndian.PutUint32(buf[0:4], uint32(len(buf)))
	binary.BigEndian.PutUint16(buf[4:6], packetHeaderLen)
	binary.BigEndian.PutUint16(buf[6:8], version)
	binary.BigEndian.PutUint32(buf[8:12], operation)
	binary.BigEndian.PutUint32(buf[12:16], sequence)
	copy(buf[packetHeaderLen:], payload)
	return buf
}

// decodePackets 顺序扫描一帧内的全部包。
// v2/v3 包的负载是压缩后的嵌套帧，解压后递归展开；
// 嵌套解码失败时丢弃该包而不是让整帧失败。
func decodePackets(frame []byte) ([]packet, error) {
	packets := make([]packet, 0, 16)
	offset := 0
	for offset+packetHeaderLen <= len(frame) {
		packetLen := int(binary.BigEndian.Uint32(frame[offset : offset+4]))
		if packetLen < packetHeaderLen || offset+packetLen > len(frame) {
			return packets, merr.WrapErrFrameDecode("invalid packet length")
		}
		headerLen := int(binary.BigEndian.Uint16(frame[offset+4 : offset+6]))
		if headerLen < packetHeaderLen || headerLen > packetLen {
			return packets, merr.WrapErrFrameDecode("invalid packet header length")
		}
		p := packet{
			Version:   binary.BigEndian.Uint16(frame[offset+6 : offset+8]),
			Operation: binary.BigEndian.Uint32(frame[offset+8 : offset+12]),
			Sequence:  binary.BigEndian.Uint32(frame[offset+12 : offset+16]),
			Payload:   append([]byte(nil), frame[offset+headerLen:offset+packetLen]...),
		}
		switch p.Version {
		case verZlib:
			if inflated, err := inflateZlib(p.Payload); err == nil {
				if nested, err := decodePackets(inflated); err == nil {
					packets = append(packets, nested...)
				}
			}
		case verBrotli:
			if inflated, err := inflateBrotli(p.Payload); err == nil {
				if nested, err := decodePackets(inflated); err == nil {
					packets = append(packets, nested...)
				}
			}
		default:
			packets = append(packets, p)
		}
		offset += packetLen
	}
	return packets, nil
}

func inflateZlib(payload []byte) ([]byte, error) {
	reader, err := zlib.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(io.LimitReader(reader, maxInflatedSize))
}

func inflateBrotli(payload []byte) ([]byte, error) {
	return io.ReadAll(io.LimitReader(brotli.NewReader(bytes.NewReader(payload)), maxInflatedSize))
}
