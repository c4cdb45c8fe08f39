package marshal

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/uniyakcom/gormw/core"
	"github.com/uniyakcom/gormw/message"
)

// Hex 管道线上格式编解码器
type Hex struct{}

var _ Marshaler = Hex{}

// Marshal 编码消息，永不失败。
func (Hex) Marshal(msg *message.Message) ([]byte, error) {
	return Encode(msg), nil
}

// Unmarshal 解码一条记录。
func (Hex) Unmarshal(data []byte) (*message.Message, error) {
	return Decode(data)
}

// Decode 解码一行十六进制记录。
//
// 首个 '\n' 之前为元信息行，按空格拆分，字段 0 为类型、字段 1 为关联 ID；
// 之后的字节原样作为负载。缺少换行、字段不足或类型未定义时返回
// 包装了 core.ErrMalformedMessage 的 *core.DecodeError。
func Decode(line []byte) (*message.Message, error) {
	line = bytes.TrimRight(line, "\r\n")
	if len(line) == 0 {
		return nil, core.NewDecodeError("hex", line, fmt.Errorf("%w: empty line", core.ErrMalformedMessage))
	}

	buf := make([]byte, hex.DecodedLen(len(line)))
	if _, err := hex.Decode(buf, line); err != nil {
		return nil, core.NewDecodeError("hex", line, fmt.Errorf("%w: %v", core.ErrMalformedMessage, err))
	}

	metaEnd := bytes.IndexByte(buf, '\n')
	if metaEnd == -1 {
		return nil, core.NewDecodeError("meta", line, fmt.Errorf("%w: no meta separator", core.ErrMalformedMessage))
	}

	meta := buf[:metaEnd:metaEnd]
	fields := strings.Split(string(meta), " ")
	if len(fields) < 2 || fields[1] == "" {
		return nil, core.NewDecodeError("meta", line, fmt.Errorf("%w: want at least 2 meta fields, got %q", core.ErrMalformedMessage, meta))
	}

	kind, err := message.ParseKind(fields[0])
	if err != nil {
		return nil, core.NewDecodeError("kind", line, fmt.Errorf("%w: %w %q", core.ErrMalformedMessage, err, fields[0]))
	}

	return &message.Message{
		Kind:     kind,
		ID:       fields[1],
		Meta:     meta,
		Fields:   fields,
		Payload:  buf[metaEnd+1:],
		Received: time.Now(),
	}, nil
}

// Encode 将消息编码为 "<hex(meta + '\n' + payload)>\n"。
// 元信息取 msg.Meta 原样写回；Meta 为空时由 Fields 重新拼接。
func Encode(msg *message.Message) []byte {
	meta := msg.Meta
	if len(meta) == 0 && len(msg.Fields) > 0 {
		meta = []byte(strings.Join(msg.Fields, " "))
	}

	n := len(meta) + 1 + len(msg.Payload)
	dst := make([]byte, hex.EncodedLen(n)+1)

	off := hex.Encode(dst, meta)
	off += hex.Encode(dst[off:], []byte{'\n'})
	off += hex.Encode(dst[off:], msg.Payload)
	dst[off] = '\n'

	return dst
}
