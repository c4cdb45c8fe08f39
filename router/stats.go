package router

import "github.com/uniyakcom/gormw/core"

// Stats 路由器运行时统计
type Stats struct {
	core.Stats

	Emitted     int64 // 已写出的消息数
	Malformed   int64 // 解码失败被丢弃的记录数
	WriteErrors int64 // 写出失败次数
	TapErrors   int64 // 旁路观察者提交失败或 panic 次数
}

// Stats 返回运行时统计快照
func (r *Router) Stats() Stats {
	return Stats{
		Stats:       r.table.Stats(),
		Emitted:     r.emitted.Load(),
		Malformed:   r.malformed.Load(),
		WriteErrors: r.writeErrors.Load(),
		TapErrors:   r.tapErrors.Load(),
	}
}
