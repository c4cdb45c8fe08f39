// Package marshal 提供消息与线上格式之间的编解码。
//
// 线上格式：每条消息一行，行内容为 "<meta>\n<payload>" 的十六进制编码，
// 以换行符结束。Hex 是管道使用的编解码器，JSON 用于调试输出。
package marshal

import "github.com/uniyakcom/gormw/message"

// Marshaler 消息编解码器接口
type Marshaler interface {
	// Marshal 将消息编码为一条完整记录（含结尾换行）
	Marshal(msg *message.Message) ([]byte, error)

	// Unmarshal 将一条记录解码为消息（结尾换行可有可无）
	Unmarshal(data []byte) (*message.Message, error)
}
