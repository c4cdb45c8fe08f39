package core

import (
	"strings"

	"github.com/uniyakcom/gormw/message"
)

// KeySep 关联订阅键分隔符："<channel>#<id>"
const KeySep = '#'

// Key 构建频道键。id 为空时返回基础频道名。
func Key(channel, id string) string {
	if id == "" {
		return channel
	}
	return channel + string(KeySep) + id
}

// IsScoped 频道键是否绑定了关联 ID（此类订阅会过期）
func IsScoped(key string) bool {
	return strings.IndexByte(key, KeySep) >= 0
}

// SplitKey 拆分频道键为 channel 与 id
func SplitKey(key string) (channel, id string) {
	if i := strings.IndexByte(key, KeySep); i >= 0 {
		return key[:i], key[i+1:]
	}
	return key, ""
}

// DispatchKeys 返回消息需要通知的频道键，按分发顺序排列。
// 未知类型的消息只会命中 "message" 频道。
func DispatchKeys(msg *message.Message) []string {
	ch := msg.Kind.Channel()
	if ch == "" {
		return []string{message.ChannelMessage}
	}
	return []string{message.ChannelMessage, ch, Key(ch, msg.ID)}
}

// ValidChannel 是否为可订阅的基础频道
func ValidChannel(channel string) bool {
	switch channel {
	case message.ChannelMessage, message.ChannelRequest, message.ChannelResponse, message.ChannelReplay:
		return true
	}
	return false
}
