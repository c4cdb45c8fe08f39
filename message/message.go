// Package message 定义中间件管道中流转的消息类型。
//
// Message 对应外部回放进程写入的一行记录：首行为空格分隔的元信息
// （类型、关联 ID、附加字段），其余字节为原始 HTTP 请求或响应。
// Message 本身不做任何 HTTP 解析，负载的读写交给 payload 包。
package message

import (
	"bytes"
	"time"
)

// Message 消息传输单元
//
// 在 Router 中流转：Subscriber 解码 → 订阅者回调（可替换/否决）→ Publisher 编码输出。
type Message struct {
	// Kind 消息类型（请求/响应/回放响应）
	Kind Kind

	// ID 关联 ID，同一请求、其响应及回放响应共享
	ID string

	// Meta 原始元信息行（不含换行），编码时原样写回
	Meta []byte

	// Fields Meta 按空格拆分后的字段，Fields[0]/Fields[1] 与 Kind/ID 对应
	Fields []string

	// Payload 原始 HTTP 字节
	Payload []byte

	// Received 本地接收时间（不参与编码）
	Received time.Time
}

// New 由各部分构建消息。id 为空时自动生成。
// extra 追加在类型与 ID 之后（回放进程通常写入时间戳或耗时）。
func New(kind Kind, id string, payload []byte, extra ...string) *Message {
	if id == "" {
		id = NewID()
	}
	fields := make([]string, 0, 2+len(extra))
	fields = append(fields, kind.String(), id)
	fields = append(fields, extra...)

	var meta bytes.Buffer
	for i, f := range fields {
		if i > 0 {
			meta.WriteByte(' ')
		}
		meta.WriteString(f)
	}

	return &Message{
		Kind:     kind,
		ID:       id,
		Meta:     meta.Bytes(),
		Fields:   fields,
		Payload:  payload,
		Received: time.Now(),
	}
}

// Extra 返回类型与 ID 之后的附加元信息字段。
func (m *Message) Extra() []string {
	if len(m.Fields) <= 2 {
		return nil
	}
	return m.Fields[2:]
}

// Channel 返回消息所属的基础频道名。
func (m *Message) Channel() string {
	return m.Kind.Channel()
}

// WithPayload 返回替换了负载的浅拷贝，元信息共享。
// 订阅者修改负载后返回 core.Replace(msg.WithPayload(p)) 即可。
func (m *Message) WithPayload(p []byte) *Message {
	cp := *m
	cp.Payload = p
	return &cp
}

// Copy 深拷贝消息（独立的 Meta、Fields 和 Payload）。
func (m *Message) Copy() *Message {
	cp := &Message{
		Kind:     m.Kind,
		ID:       m.ID,
		Meta:     append([]byte(nil), m.Meta...),
		Fields:   append([]string(nil), m.Fields...),
		Payload:  append([]byte(nil), m.Payload...),
		Received: m.Received,
	}
	return cp
}
