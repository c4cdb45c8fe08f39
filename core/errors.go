package core

import (
	"errors"
	"fmt"

	"github.com/uniyakcom/gormw/message"
)

var (
	// ErrMalformedMessage 输入行无法解析（非十六进制、缺少换行或元信息字段不足）
	ErrMalformedMessage = errors.New("malformed message")

	// ErrUnknownKind 元信息类型不是 1/2/3
	ErrUnknownKind = message.ErrUnknownKind

	// ErrPatternConfig 关联匹配模式无法编译或捕获组数量不为 1
	ErrPatternConfig = errors.New("pattern must contain exactly one capture group")
)

// maxLineSnippet 错误中保留的原始行长度上限
const maxLineSnippet = 64

// DecodeError 解码失败的上下文
type DecodeError struct {
	Op   string // 失败的步骤（hex、meta、kind）
	Line string // 原始输入片段（截断）
	Err  error
}

// NewDecodeError 创建解码错误，line 超长时截断。
func NewDecodeError(op string, line []byte, err error) error {
	s := string(line)
	if len(s) > maxLineSnippet {
		s = s[:maxLineSnippet] + "..."
	}
	return &DecodeError{Op: op, Line: s, Err: err}
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s %q: %v", e.Op, e.Line, e.Err)
}

// Unwrap 返回底层错误
func (e *DecodeError) Unwrap() error {
	return e.Err
}
