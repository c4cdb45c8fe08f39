package router

import "github.com/uniyakcom/gormw/core"

// Middleware 中间件函数签名
//
// 中间件在订阅注册时包装回调，key 为订阅所在的频道键
// （"request"、"response#<id>" 等），可用于日志、指标或 panic 恢复。
//
//	func myMiddleware(key string, next core.Handler) core.Handler {
//	    return func(msg *message.Message) core.Result {
//	        // 前置逻辑
//	        res := next(msg)
//	        // 后置逻辑
//	        return res
//	    }
//	}
type Middleware func(key string, next core.Handler) core.Handler
