package huya

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/lk2023060901/live-garden-go/pkg/util/merr"
)

// 弹幕推送通道使用 TARS 二进制编码。这里只实现收发所需的最小子集：
// 整数、字符串、字节串、字符串列表与结构体的读写。

// 字段类型。
const (
	tarsInt8       = 0
	tarsInt16      = 1
	tarsInt32      = 2
	tarsInt64      = 3
	tarsFloat      = 4
	tarsDouble     = 5
	tarsString1    = 6
	tarsString4    = 7
	tarsMap        = 8
	tarsList       = 9
	tarsStructBegin = 10
	tarsStructEnd   = 11
	tarsZero        = 12
	tarsSimpleList  = 13
)

type tarsWriter struct {
	buf bytes.Buffer
}

func (w *tarsWriter) writeHead(tag, typ int) {
	if tag < 15 {
		w.buf.WriteByte(byte(tag<<4 | typ))
		return
	}
	w.buf.WriteByte(byte(0xf0 | typ))
	w.buf.WriteByte(byte(tag))
}

// WriteInt 以最短的整数编码写入一个带符号整数。
func (w *tarsWriter) WriteInt(tag int, v int64) {
	switch {
	case v == 0:
		w.writeHead(tag, tarsZero)
	case v >= math.MinInt8 && v <= math.MaxInt8:
		w.writeHead(tag, tarsInt8)
		w.buf.WriteByte(byte(v))
	case v >= math.MinInt16 && v <= math.MaxInt16:
		w.writeHead(tag, tarsInt16)
		binary.Write(&w.buf, binary.BigEndian, int16(v))
	case v >= math.MinInt32 && v <= math.MaxInt32:
		w.writeHead(tag, tarsInt32)
		binary.Write(&w.buf, binary.BigEndian, int32(v))
	default:
		w.writeHead(tag, tarsInt64)
		binary.Write(&w.buf, binary.BigEndian, v)
	}
}

func (w *tarsWriter) WriteString(tag int, s string) {
	if len(s) <= math.MaxUint8 {
		w.writeHead(tag, tarsString1)
		w.buf.WriteByte(byte(len(s)))
	} else {
		w.writeHead(tag, tarsString4)
		binary.Write(&w.buf, binary.BigEndian, uint32(len(s)))
	}
	w.buf.WriteString(s)
}

// WriteBytes 以 simple list（byte 元素）编码写入字节串。
func (w *tarsWriter) WriteBytes(tag int, b []byte) {
	w.writeHead(tag, tarsSimpleList)
	w.writeHead(0, tarsInt8)
	w.WriteInt(0, int64(len(b)))
	w.buf.Write(b)
}

// WriteStringList 写入字符串列表。
func (w *tarsWriter) WriteStringList(tag int, items []string) {
	w.writeHead(tag, tarsList)
	w.WriteInt(0, int64(len(items)))
	for _, item := range items {
		w.WriteString(0, item)
	}
}

func (w *tarsWriter) Bytes() []byte {
	return w.buf.Bytes()
}

type tarsReader struct {
	data []byte
	pos  int
}

func newTarsReader(data []byte) *tarsReader {
	return &tarsReader{data: data}
}

var errTruncated = merr.WrapErrFrameDecode("truncated tars payload")

func (r *tarsReader) readHead() (tag, typ int, err error) {
	if r.pos >= len(r.data) {
		return 0, 0, errTruncated
	}
	b := r.data[r.pos]
	r.pos++
	typ = int(b & 0x0f)
	tag = int(b >> 4)
	if tag == 15 {
		if r.pos >= len(r.data) {
			return 0, 0, errTruncated
		}
		tag = int(r.data[r.pos])
		r.pos++
	}
	return tag, typ, nil
}

func (r *tarsReader) take(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.data) {
		return nil, errTruncated
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *tarsReader) readIntValue(typ int) (int64, error) {
	switch typ {
	case tarsZero:
		return 0, nil
	case tarsInt8:
		b, err := r.take(1)
		if err != nil {
			return 0, err
		}
		return int64(int8(b[0])), nil
	case tarsInt16:
		b, err := r.take(2)
		if err != nil {
			return 0, err
		}
		return int64(int16(binary.BigEndian.Uint16(b))), nil
	case tarsInt32:
		b, err := r.take(4)
		if err != nil {
			return 0, err
		}
		return int64(int32(binary.BigEndian.Uint32(b))), nil
	case tarsInt64:
		b, err := r.take(8)
		if err != nil {
			return 0, err
		}
		return int64(binary.BigEndian.Uint64(b)), nil
	default:
		return 0, merr.WrapErrFrameDecode("unexpected tars int type")
	}
}

func (r *tarsReader) readStringValue(typ int) (string, error) {
	var length int
	switch typ {
	case tarsString1:
		b, err := r.take(1)
		if err != nil {
			return "", err
		}
		length = int(b[0])
	case tarsString4:
		b, err := r.take(4)
		if err != nil {
			return "", err
		}
		length = int(binary.BigEndian.Uint32(b))
	default:
		return "", merr.WrapErrFrameDecode("unexpected tars string type")
	}
	b, err := r.take(length)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// skipValue 跳过一个已读头部的字段值。
func (r *tarsReader) skipValue(typ int) error {
	switch typ {
	case tarsZero:
		return nil
	case tarsInt8:
		_, err := r.take(1)
		return err
	case tarsInt16:
		_, err := r.take(2)
		return err
	case tarsInt32, tarsFloat:
		_, err := r.take(4)
		return err
	case tarsInt64, tarsDouble:
		_, err := r.take(8)
		return err
	case tarsString1, tarsString4:
		_, err := r.readStringValue(typ)
		return err
	case tarsMap:
		count, err := r.readTaggedInt(0)
		if err != nil {
			return err
		}
		for i := int64(0); i < count*2; i++ {
			if err := r.skipField(); err != nil {
				return err
			}
		}
		return nil
	case tarsList:
		count, err := r.readTaggedInt(0)
		if err != nil {
			return err
		}
		for i := int64(0); i < count; i++ {
			if err := r.skipField(); err != nil {
				return err
			}
		}
		return nil
	case tarsStructBegin:
		for {
			tag, typ, err := r.readHead()
			_ = tag
			if err != nil {
				return err
			}
			if typ == tarsStructEnd {
				return nil
			}
			if err := r.skipValue(typ); err != nil {
				return err
			}
		}
	case tarsStructEnd:
		return nil
	case tarsSimpleList:
		if _, _, err := r.readHead(); err != nil {
			return err
		}
		count, err := r.readTaggedInt(0)
		if err != nil {
			return err
		}
		_, err = r.take(int(count))
		return err
	default:
		return merr.WrapErrFrameDecode("unknown tars type")
	}
}

func (r *tarsReader) skipField() error {
	_, typ, err := r.readHead()
	if err != nil {
		return err
	}
	return r.skipValue(typ)
}

// readTaggedInt 读取一个必须为指定 tag 的整数字段。
func (r *tarsReader) readTaggedInt(wantTag int) (int64, error) {
	tag, typ, err := r.readHead()
	if err != nil {
		return 0, err
	}
	if tag != wantTag {
		return 0, merr.WrapErrFrameDecode("unexpected tars tag")
	}
	return r.readIntValue(typ)
}

// seek 顺序扫描到指定 tag 的字段并返回其类型。
// 路过的字段被跳过；遇到结构体结尾或数据耗尽则返回 false。
func (r *tarsReader) seek(wantTag int) (typ int, ok bool) {
	for {
		if r.pos >= len(r.data) {
			return 0, false
		}
		save := r.pos
		tag, typ, err := r.readHead()
		if err != nil {
			return 0, false
		}
		if typ == tarsStructEnd {
			r.pos = save
			return 0, false
		}
		if tag == wantTag {
			return typ, true
		}
		if tag > wantTag {
			r.pos = save
			return 0, false
		}
		if err := r.skipValue(typ); err != nil {
			return 0, false
		}
	}
}

// ReadInt 读取指定 tag 的整数字段。
func (r *tarsReader) ReadInt(tag int) (int64, bool) {
	typ, ok := r.seek(tag)
	if !ok {
		return 0, false
	}
	v, err := r.readIntValue(typ)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ReadString 读取指定 tag 的字符串字段。
func (r *tarsReader) ReadString(tag int) (string, bool) {
	typ, ok := r.seek(tag)
	if !ok {
		return "", false
	}
	s, err := r.readStringValue(typ)
	if err != nil {
		return "", false
	}
	return s, true
}

// ReadBytes 读取指定 tag 的 simple list 字节串。
func (r *tarsReader) ReadBytes(tag int) ([]byte, bool) {
	typ, ok := r.seek(tag)
	if !ok || typ != tarsSimpleList {
		return nil, false
	}
	if _, _, err := r.readHead(); err != nil {
		return nil, false
	}
	count, err := r.readTaggedInt(0)
	if err != nil {
		return nil, false
	}
	b, err := r.take(int(count))
	if err != nil {
		return nil, false
	}
	return append([]byte(nil), b...), true
}

// EnterStruct 进入指定 tag 的结构体字段。
func (r *tarsReader) EnterStruct(tag int) bool {
	typ, ok := r.seek(tag)
	return ok && typ == tarsStructBegin
}

// skipToStructEnd 跳过当前结构体的剩余字段（含结尾标记）。
func (r *tarsReader) skipToStructEnd() {
	for {
		_, typ, err := r.readHead()
		if err != nil || typ == tarsStructEnd {
			return
		}
		if err := r.skipValue(typ); err != nil {
			return
		}
	}
}
