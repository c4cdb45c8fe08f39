// Package logging 提供订阅回调日志中间件。
//
// 记录每次回调的频道键、关联 ID、耗时和处理结果。
//
//	r.Use(logging.New(slog.Default()))
package logging

import (
	"log/slog"
	"time"

	"github.com/uniyakcom/gormw/core"
	"github.com/uniyakcom/gormw/message"
	"github.com/uniyakcom/gormw/router"
)

// New 创建日志中间件。Pass 记录为 Debug，Replace/Drop 记录为 Info。
func New(logger *slog.Logger) router.Middleware {
	if logger == nil {
		logger = slog.Default()
	}

	return func(key string, h core.Handler) core.Handler {
		return func(msg *message.Message) core.Result {
			start := time.Now()

			res := h(msg)

			attrs := []any{
				"key", key,
				"id", msg.ID,
				"duration", time.Since(start),
				"action", res.Action.String(),
			}

			if res.Action == core.ActionPass {
				logger.Debug("message handled", attrs...)
			} else {
				logger.Info("message handled", attrs...)
			}

			return res
		}
	}
}
