package huya

import (
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"net/url"
	"strconv"
	"strings"
)

// rotl8 将 uid 在 64 位内循环左移 8 位，得到防盗链使用的混淆 uid。
func rotl8(uid uint64) uint64 {
	return uid<<8 | uid>>56
}

func md5hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// antiCodeInput 为一次防盗链签名的输入。
type antiCodeInput struct {
	// 原始防盗链查询串（含 wsTime、fm、ctype、t、fs 等字段）。
	RawQuery string
	// 主播数字 uid。
	PresenterUID uint64
	// 流名。
	StreamName string
	// 当前毫秒时间戳。
	NowMS int64
	// 子模式：为真时携带 uid+uuid，否则携带 u。
	MobileMode bool
	// 目标码率，仅在大于 0 时携带 ratio。
	Ratio int
}

// buildAntiCode 依据服务端下发的挑战串构造可播的防盗链查询参数。
//
// 步骤：uid 循环左移 8 位；seq_id = uid + 当前毫秒；
// 对 "seq_id|ctype|t" 取 MD5；把 base64 解码后的 fm 前缀、uid、
// 流名、该哈希与 wsTime 拼接后再取一次 MD5 得到 wsSecret。
func buildAntiCode(in antiCodeInput) (string, error) {
	raw, err := url.ParseQuery(in.RawQuery)
	if err != nil {
		return "", err
	}

	wsTime := raw.Get("wsTime")
	fm := raw.Get("fm")
	ctype := raw.Get("ctype")
	platformID := raw.Get("t")
	if platformID == "" {
		platformID = "100"
	}

	uid := rotl8(in.PresenterUID)
	seqID := strconv.FormatUint(uid+uint64(in.NowMS), 10)
	hash := md5hex(seqID + "|" + ctype + "|" + platformID)

	decoded, err := base64.StdEncoding.DecodeString(fm)
	if err != nil {
		return "", err
	}
	prefix, _, _ := strings.Cut(string(decoded), "_")

	uidStr := strconv.FormatUint(uid, 10)
	wsSecret := md5hex(strings.Join([]string{prefix, uidStr, in.StreamName, hash, wsTime}, "_"))

	query := url.Values{}
	query.Set("wsSecret", wsSecret)
	query.Set("wsTime", wsTime)
	query.Set("seqid", seqID)
	query.Set("ctype", ctype)
	query.Set("ver", "1")
	query.Set("fs", raw.Get("fs"))
	query.Set("fm", url.QueryEscape(fm))
	query.Set("t", platformID)
	if in.MobileMode {
		query.Set("uid", uidStr)
		query.Set("uuid", strconv.FormatUint(deriveUUID(in.NowMS, uid), 10))
	} else {
		query.Set("u", uidStr)
	}
	if in.Ratio > 0 {
		query.Set("ratio", strconv.Itoa(in.Ratio))
	}
	// 固定的编码标记。
	query.Set("sv", "2110211124")
	return query.Encode(), nil
}

// deriveUUID 由时间与 uid 派生一个 32 位内的伪随机标识。
func deriveUUID(nowMS int64, uid uint64) uint64 {
	return (uint64(nowMS)%4294967295*1000 + uid%1000) % 4294967295
}
