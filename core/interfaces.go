// Package core 提供订阅表与路由器共享的核心类型定义
package core

import (
	"time"

	"github.com/uniyakcom/gormw/message"
)

// Action 订阅者回调的处理结果
type Action uint8

const (
	ActionPass    Action = iota // 保持当前消息不变
	ActionReplace               // 用返回的消息替换当前消息
	ActionDrop                  // 否决输出
)

// String 返回动作名（日志/指标标签用）
func (a Action) String() string {
	switch a {
	case ActionPass:
		return "pass"
	case ActionReplace:
		return "replace"
	case ActionDrop:
		return "drop"
	}
	return "unknown"
}

// Result 订阅者回调返回值。零值等价于 Pass()。
type Result struct {
	Msg    *message.Message
	Action Action
}

// Pass 保持当前消息
func Pass() Result { return Result{Action: ActionPass} }

// Replace 用 msg 替换当前消息；msg 为 nil 时等价于 Pass()。
func Replace(msg *message.Message) Result {
	if msg == nil {
		return Pass()
	}
	return Result{Msg: msg, Action: ActionReplace}
}

// Drop 否决本条消息的输出。否决是粘性的：后续回调仍会执行，但消息不再写出。
func Drop() Result { return Result{Action: ActionDrop} }

// Handler 订阅者回调
type Handler func(msg *message.Message) Result

// PanicHandler panic 回调（可选，用户注册后接收 panic 通知）
type PanicHandler func(recovered interface{}, key string, msg *message.Message)

// Outcome 一次分发的最终结果
type Outcome struct {
	Msg        *message.Message // 最终的当前消息
	Suppressed bool             // 是否被否决
	Calls      int              // 执行的回调数
}

// Stats 订阅表运行时统计
type Stats struct {
	Dispatched int64 // 已分发消息总数
	Calls      int64 // 已执行回调总数
	Replaced   int64 // 回调替换消息次数
	Suppressed int64 // 被否决的消息数
	Expired    int64 // 过期清理的订阅数
	Panics     int64 // 回调 panic 次数
}

// Bus 订阅表接口
type Bus interface {
	// Subscribe 注册订阅。id 为空时注册在基础频道上，否则注册在 channel#id 上。
	Subscribe(channel, id string, h Handler)

	// Dispatch 按 message → channel → channel#id 的顺序分发消息
	Dispatch(msg *message.Message) Outcome

	// Sweep 清理过期的关联订阅，返回清理数量
	Sweep(now time.Time) int

	// Len 返回指定频道键上的有效订阅数
	Len(key string) int

	// Stats 返回运行时统计
	Stats() Stats
}
