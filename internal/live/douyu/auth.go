package douyu

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"math/rand"
	"strconv"
)

// authSeed 为构造播放签名所需的素材。
type authSeed struct {
	Key       string `json:"key"`
	RandStr   string `json:"rand_str"`
	EncTime   int    `json:"enc_time"`
	IsSpecial bool   `json:"is_special"`
}

func md5hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// computeAuth 按平台算法生成播放签名：
// 以 rand_str 为初值对 value+key 连续散列 enc_time 次，
// 最终取 MD5(链式结果 + key + suffix)。
// suffix 为 "{room_id}{timestamp}"，is_special 时为空。
func computeAuth(seed authSeed, roomID string, timestamp int64) string {
	chain := seed.RandStr
	for i := 0; i < seed.EncTime; i++ {
		chain = md5hex(chain + seed.Key)
	}
	suffix := ""
	if !seed.IsSpecial {
		suffix = roomID + strconv.FormatInt(timestamp, 10)
	}
	return md5hex(chain + seed.Key + suffix)
}

// newDeviceID 生成一个 32 位十六进制的匿名设备标识。
func newDeviceID() string {
	return fmt.Sprintf("%08x%08x%08x%08x",
		rand.Uint32(), rand.Uint32(), rand.Uint32(), rand.Uint32())
}
