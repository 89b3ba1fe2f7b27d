package json

import (
	stdjson "encoding/json"

	"github.com/bytedance/sonic"
)

// RawMessage 直接复用标准库定义，便于与第三方结构体互通。
type RawMessage = stdjson.RawMessage

// 统一通过 sonic 提供 JSON 编解码能力。
// 行为对齐 encoding/json（ConfigStd），避免平台响应中的边缘格式差异。
var (
	config = sonic.ConfigStd

	Marshal       = config.Marshal
	Unmarshal     = config.Unmarshal
	MarshalIndent = config.MarshalIndent
	NewDecoder    = config.NewDecoder
	NewEncoder    = config.NewEncoder
	Valid         = config.Valid
)
