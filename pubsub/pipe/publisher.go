// Package pipe 提供基于行的管道传输：Subscriber 从 io.Reader 读取记录，
// Publisher 向 io.Writer 写出记录。
//
// 回放进程通过标准输入/输出与中间件通信，每条记录一行：
//
//	sub := pipe.NewSubscriber(os.Stdin)
//	pub := pipe.NewPublisher(os.Stdout)
//
//	r := router.New(router.Config{})
//	r.Run(ctx, sub, pub)
package pipe

import (
	"bufio"
	"errors"
	"io"
	"sync"

	"github.com/uniyakcom/gormw/message"
)

// ErrClosed 向已关闭的 Publisher 写出
var ErrClosed = errors.New("pipe: publisher closed")

// Publisher 向 io.Writer 写出记录，每次 Publish 后刷新
type Publisher struct {
	mu     sync.Mutex
	w      *bufio.Writer
	closer io.Closer
	closed bool
}

var _ message.Publisher = (*Publisher)(nil)

// NewPublisher 创建行输出端。w 实现 io.Closer 时 Close 会一并关闭。
func NewPublisher(w io.Writer) *Publisher {
	p := &Publisher{w: bufio.NewWriterSize(w, 64*1024)}
	if c, ok := w.(io.Closer); ok {
		p.closer = c
	}
	return p
}

// Publish 按顺序写出记录并刷新。对端等待完整的一行，因此不能延迟刷新。
func (p *Publisher) Publish(records ...[]byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}
	for _, rec := range records {
		if _, err := p.w.Write(rec); err != nil {
			return err
		}
		if len(rec) == 0 || rec[len(rec)-1] != '\n' {
			if err := p.w.WriteByte('\n'); err != nil {
				return err
			}
		}
	}
	return p.w.Flush()
}

// Close 刷新缓冲并关闭底层 Writer（如可关闭）
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	err := p.w.Flush()
	if p.closer != nil {
		if cerr := p.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
