package marshal

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/uniyakcom/gormw/message"
)

// jsonEnvelope JSON 调试信封
type jsonEnvelope struct {
	Kind    string   `json:"kind"`
	ID      string   `json:"id"`
	Meta    []string `json:"meta"`
	Payload string   `json:"payload"`
}

// JSON 调试用编解码器。负载按文本输出，非 UTF-8 字节会被替换，
// 只适合人工查看，不能替代 Hex 用于管道。
type JSON struct {
	// Indent 非空时输出缩进格式
	Indent string
}

var _ Marshaler = JSON{}

// Marshal 将消息序列化为 JSON（含结尾换行）。
func (j JSON) Marshal(msg *message.Message) ([]byte, error) {
	env := jsonEnvelope{
		Kind:    msg.Kind.Channel(),
		ID:      msg.ID,
		Meta:    msg.Fields,
		Payload: string(msg.Payload),
	}
	var (
		data []byte
		err  error
	)
	if j.Indent != "" {
		data, err = json.MarshalIndent(env, "", j.Indent)
	} else {
		data, err = json.Marshal(env)
	}
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Unmarshal 将 JSON 反序列化为消息。kind 接受频道名或线上取值。
func (j JSON) Unmarshal(data []byte) (*message.Message, error) {
	var env jsonEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}

	kind, err := kindFromName(env.Kind)
	if err != nil {
		return nil, err
	}

	fields := env.Meta
	if len(fields) < 2 {
		fields = []string{kind.String(), env.ID}
	}
	return &message.Message{
		Kind:     kind,
		ID:       env.ID,
		Meta:     []byte(strings.Join(fields, " ")),
		Fields:   fields,
		Payload:  []byte(env.Payload),
		Received: time.Now(),
	}, nil
}

func kindFromName(name string) (message.Kind, error) {
	switch name {
	case message.ChannelRequest:
		return message.KindRequest, nil
	case message.ChannelResponse:
		return message.KindResponse, nil
	case message.ChannelReplay:
		return message.KindReplay, nil
	}
	return message.ParseKind(name)
}
