// Package gormw 统一API入口
//
// 回放进程把每条请求、原始响应和回放响应以十六进制行写入标准输入，
// 中间件在这里观察、改写或否决它们，再把结果写回标准输出。
//
//	gormw.On("request", func(msg *gormw.Message) gormw.Result {
//	    p := payload.SetHeader(msg.Payload, "X-Replayed", "1")
//	    return gormw.Replace(msg.WithPayload(p))
//	})
//	gormw.Run(context.Background())
package gormw

import (
	"context"
	"os"
	"sync"

	"github.com/uniyakcom/gormw/core"
	"github.com/uniyakcom/gormw/correlate"
	"github.com/uniyakcom/gormw/message"
	"github.com/uniyakcom/gormw/pubsub/pipe"
	"github.com/uniyakcom/gormw/router"
)

// Message 导出Message类型
type Message = message.Message

// Handler 导出Handler类型
type Handler = core.Handler

// Result 导出Result类型
type Result = core.Result

// Values 导出关联结果类型
type Values = correlate.Values

// Router 导出Router类型
type Router = router.Router

// 基础频道
const (
	ChannelMessage  = message.ChannelMessage
	ChannelRequest  = message.ChannelRequest
	ChannelResponse = message.ChannelResponse
	ChannelReplay   = message.ChannelReplay
)

// Pass 保持当前消息
func Pass() Result { return core.Pass() }

// Replace 用 msg 替换当前消息
func Replace(msg *Message) Result { return core.Replace(msg) }

// Drop 否决当前消息的输出
func Drop() Result { return core.Drop() }

// ═══════════════════════════════════════════════════════════════════
// 第零层：包级默认路由器
// ═══════════════════════════════════════════════════════════════════

var (
	defaultOnce   sync.Once
	defaultRouter *Router
)

// Default 返回包级默认路由器（首次调用时创建）
func Default() *Router {
	defaultOnce.Do(func() {
		defaultRouter = router.New()
	})
	return defaultRouter
}

// On 在默认路由器上订阅基础频道
func On(channel string, h Handler) *Router {
	return Default().On(channel, h)
}

// OnID 在默认路由器上订阅某个关联 ID 的消息
func OnID(channel, id string, h Handler) *Router {
	return Default().OnID(channel, id, h)
}

// Use 为默认路由器添加中间件
func Use(m ...router.Middleware) *Router {
	return Default().Use(m...)
}

// Search 在默认路由器上关联 id 的原始响应与回放响应
func Search(id, pattern string, fn func(Values)) error {
	return correlate.Search(Default(), id, pattern, fn)
}

// Run 以标准输入/输出运行默认路由器，阻塞直到输入结束或 ctx 取消
func Run(ctx context.Context) error {
	return Default().Run(ctx, pipe.NewSubscriber(os.Stdin), pipe.NewPublisher(os.Stdout))
}

// ═══════════════════════════════════════════════════════════════════
// 第一层：显式构造
// ═══════════════════════════════════════════════════════════════════

// New 创建独立的路由器
func New(cfg ...router.Config) *Router {
	return router.New(cfg...)
}

// Stats 返回默认路由器的运行时统计
func Stats() router.Stats {
	return Default().Stats()
}
