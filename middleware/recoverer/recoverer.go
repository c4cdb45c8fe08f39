// Package recoverer 提供 panic 恢复中间件。
//
// 捕获回调内的 panic，记录日志后按 Pass 处理，当前消息保持不变继续分发。
//
//	r.Use(recoverer.New(logger))
package recoverer

import (
	"fmt"
	"log/slog"

	"github.com/uniyakcom/gormw/core"
	"github.com/uniyakcom/gormw/message"
	"github.com/uniyakcom/gormw/router"
)

// PanicError 包装 panic 恢复值的 error 类型
type PanicError struct {
	Key   string
	Value interface{}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("handler panic on %s: %v", e.Key, e.Value)
}

// New 创建 panic 恢复中间件。logger 为 nil 时使用 slog.Default()。
func New(logger *slog.Logger) router.Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(key string, h core.Handler) core.Handler {
		return func(msg *message.Message) (res core.Result) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("recovered", "error", &PanicError{Key: key, Value: r}, "id", msg.ID)
					res = core.Pass()
				}
			}()
			return h(msg)
		}
	}
}
