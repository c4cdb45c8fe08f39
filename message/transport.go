package message

import "context"

// Publisher 输出端，按顺序写出已编码的记录
type Publisher interface {
	// Publish 写出一条或多条记录，每条记录已包含结尾换行
	Publish(records ...[]byte) error

	// Close 刷新并关闭输出端
	Close() error
}

// Subscriber 输入端，按到达顺序产出原始记录
type Subscriber interface {
	// Subscribe 开始读取。输入结束、ctx 取消或 Close 后通道关闭。
	Subscribe(ctx context.Context) (<-chan []byte, error)

	// Close 停止读取
	Close() error
}
