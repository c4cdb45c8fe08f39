package message

import "errors"

// ErrUnknownKind 元信息中的类型不是 1/2/3
var ErrUnknownKind = errors.New("unknown message kind")

// Kind 消息类型，线上取值 '1'/'2'/'3'
type Kind uint8

const (
	KindRequest  Kind = 1 // 原始请求
	KindResponse Kind = 2 // 原始响应
	KindReplay   Kind = 3 // 回放目标返回的响应
)

// 基础频道名
const (
	ChannelMessage  = "message"
	ChannelRequest  = "request"
	ChannelResponse = "response"
	ChannelReplay   = "replay"
)

// ParseKind 解析线上类型字段，只接受 "1"、"2"、"3"。
func ParseKind(s string) (Kind, error) {
	if len(s) == 1 && s[0] >= '1' && s[0] <= '3' {
		return Kind(s[0] - '0'), nil
	}
	return 0, ErrUnknownKind
}

// Valid 是否为协议定义的类型
func (k Kind) Valid() bool {
	return k >= KindRequest && k <= KindReplay
}

// String 返回线上取值
func (k Kind) String() string {
	if !k.Valid() {
		return "0"
	}
	return string('0' + byte(k))
}

// Channel 返回类型对应的基础频道名，未知类型返回空串。
func (k Kind) Channel() string {
	switch k {
	case KindRequest:
		return ChannelRequest
	case KindResponse:
		return ChannelResponse
	case KindReplay:
		return ChannelReplay
	}
	return ""
}
