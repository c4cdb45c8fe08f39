package message

import (
	"encoding/hex"

	"github.com/google/uuid"
)

// NewID 生成关联 ID（UUID v4 去掉连字符，与回放进程的十六进制 ID 形态一致）。
func NewID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}
