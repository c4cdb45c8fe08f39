package pipe

import (
	"bufio"
	"context"
	"errors"
	"io"
	"sync"

	"github.com/uniyakcom/gormw/message"
)

// DefaultMaxLine 单行记录的默认上限（十六进制编码后的长度）
const DefaultMaxLine = 64 << 20

// ErrAlreadySubscribed 同一个 Subscriber 只能读取一次
var ErrAlreadySubscribed = errors.New("pipe: already subscribed")

// SubscriberConfig 输入端配置
type SubscriberConfig struct {
	// MaxLine 单行上限，<=0 时使用 DefaultMaxLine
	MaxLine int

	// Buffer 输出通道容量，<=0 时为 256
	Buffer int
}

// Subscriber 从 io.Reader 按行读取记录
type Subscriber struct {
	r   io.Reader
	cfg SubscriberConfig

	done chan struct{}
	once sync.Once

	mu         sync.Mutex
	subscribed bool
	err        error
}

var _ message.Subscriber = (*Subscriber)(nil)

// NewSubscriber 创建行输入端。
func NewSubscriber(r io.Reader, cfg ...SubscriberConfig) *Subscriber {
	var c SubscriberConfig
	if len(cfg) > 0 {
		c = cfg[0]
	}
	if c.MaxLine <= 0 {
		c.MaxLine = DefaultMaxLine
	}
	if c.Buffer <= 0 {
		c.Buffer = 256
	}
	return &Subscriber{r: r, cfg: c, done: make(chan struct{})}
}

// Subscribe 启动读取 goroutine。每条记录是独立的切片（不含换行），
// 空行跳过。输入结束后通道关闭，读取错误可通过 Err 获取。
func (s *Subscriber) Subscribe(ctx context.Context) (<-chan []byte, error) {
	s.mu.Lock()
	if s.subscribed {
		s.mu.Unlock()
		return nil, ErrAlreadySubscribed
	}
	s.subscribed = true
	s.mu.Unlock()

	out := make(chan []byte, s.cfg.Buffer)
	go s.read(ctx, out)
	return out, nil
}

func (s *Subscriber) read(ctx context.Context, out chan<- []byte) {
	defer close(out)

	sc := bufio.NewScanner(s.r)
	sc.Buffer(make([]byte, 0, min(64*1024, s.cfg.MaxLine)), s.cfg.MaxLine)

	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		rec := make([]byte, len(line))
		copy(rec, line)

		select {
		case out <- rec:
		case <-ctx.Done():
			return
		case <-s.done:
			return
		}
	}
	if err := sc.Err(); err != nil {
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
	}
}

// Err 返回读取过程中遇到的错误（io.EOF 不算错误）
func (s *Subscriber) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close 停止投递。阻塞在 Read 上的 goroutine 会在下一行到达或输入关闭后退出。
func (s *Subscriber) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}
