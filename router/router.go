// Package router 提供中间件管道的调度中心，把输入端、订阅表与输出端连成一条处理链。
//
// Router 在单个 goroutine 上完成全部分发：
//  1. 从 Subscriber 读取一行记录并解码
//  2. 按 message → 基础频道 → 频道#ID 的顺序执行订阅者回调
//  3. 未被否决的当前消息编码后写入 Publisher
//
// 同一个循环还驱动 1 秒一次的过期清理，因此回调与清理互不重叠，
// 回调内部无需加锁。
//
//	r := router.New(router.Config{})
//	r.On("request", func(msg *message.Message) core.Result {
//	    p := payload.SetHeader(msg.Payload, "X-Replayed", "1")
//	    return core.Replace(msg.WithPayload(p))
//	})
//	r.Run(ctx, pipe.NewSubscriber(os.Stdin), pipe.NewPublisher(os.Stdout))
package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/uniyakcom/gormw/core"
	"github.com/uniyakcom/gormw/internal/impl/table"
	"github.com/uniyakcom/gormw/marshal"
	"github.com/uniyakcom/gormw/message"
)

// DefaultSweepInterval 过期清理周期
const DefaultSweepInterval = time.Second

// ErrRunning Run 被重复调用
var ErrRunning = errors.New("router: already running")

// Config 路由器配置
type Config struct {
	// Logger 自定义日志。为 nil 时使用 slog.Default()。
	Logger *slog.Logger

	// TTL 关联订阅存活时间，<=0 时为 60s
	TTL time.Duration

	// SweepInterval 过期清理周期，<=0 时为 1s
	SweepInterval time.Duration

	// Clock 时间源（测试注入），为 nil 时使用 time.Now
	Clock func() time.Time

	// TapWorkers 旁路观察者的 worker 数，<=0 时为 1
	TapWorkers int

	// Codec 线上编解码器，为 nil 时使用 marshal.Hex
	Codec marshal.Marshaler
}

// Router 消息路由器
type Router struct {
	table         *table.Table
	codec         marshal.Marshaler
	logger        *slog.Logger
	sweepInterval time.Duration
	tapWorkers    int

	mu          sync.Mutex
	middlewares []Middleware
	plugins     []RouterPlugin
	taps        []TapFunc
	tapPool     *ants.Pool
	isRunning   bool

	running     chan struct{}
	runningOnce sync.Once
	closed      chan struct{}
	closedOnce  sync.Once

	emitted     atomic.Int64
	malformed   atomic.Int64
	writeErrors atomic.Int64
	tapErrors   atomic.Int64
}

// New 创建路由器。
func New(cfg ...Config) *Router {
	var c Config
	if len(cfg) > 0 {
		c = cfg[0]
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = DefaultSweepInterval
	}
	if c.TapWorkers <= 0 {
		c.TapWorkers = 1
	}
	if c.Codec == nil {
		c.Codec = marshal.Hex{}
	}

	r := &Router{
		codec:         c.Codec,
		logger:        c.Logger,
		sweepInterval: c.SweepInterval,
		tapWorkers:    c.TapWorkers,
		running:       make(chan struct{}),
		closed:        make(chan struct{}),
	}
	r.table = table.New(table.Config{
		TTL:     c.TTL,
		Clock:   c.Clock,
		OnPanic: r.onPanic,
	})
	return r
}

func (r *Router) onPanic(rec interface{}, key string, msg *message.Message) {
	r.logger.Error("handler panic", "recovered", rec, "key", key, "id", msg.ID)
}

// Logger 返回路由器日志
func (r *Router) Logger() *slog.Logger {
	return r.logger
}

// Use 添加全局中间件。中间件在注册订阅时生效，之前注册的订阅不受影响。
func (r *Router) Use(m ...Middleware) *Router {
	r.mu.Lock()
	r.middlewares = append(r.middlewares, m...)
	r.mu.Unlock()
	return r
}

// AddPlugin 添加路由器插件（生命周期钩子）。
func (r *Router) AddPlugin(p ...RouterPlugin) {
	r.mu.Lock()
	r.plugins = append(r.plugins, p...)
	r.mu.Unlock()
}

// On 订阅基础频道（message/request/response/replay）。
func (r *Router) On(channel string, h core.Handler) *Router {
	r.Subscribe(channel, "", h)
	return r
}

// OnID 订阅某个关联 ID 在 channel 上的消息。此类订阅 60 秒后过期。
func (r *Router) OnID(channel, id string, h core.Handler) *Router {
	r.Subscribe(channel, id, h)
	return r
}

// Subscribe 注册订阅。可在回调内部调用，新订阅从下一条消息起生效。
func (r *Router) Subscribe(channel, id string, h core.Handler) {
	if h == nil {
		return
	}
	if !core.ValidChannel(channel) {
		r.logger.Warn("subscribe to unknown channel", "channel", channel)
	}
	key := core.Key(channel, id)

	r.mu.Lock()
	mws := r.middlewares
	r.mu.Unlock()

	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](key, h)
	}
	r.table.Subscribe(channel, id, h)
}

// Dispatch 同步分发一条消息。未被否决且 pub 非空时编码写出。
func (r *Router) Dispatch(msg *message.Message, pub message.Publisher) (core.Outcome, error) {
	out := r.table.Dispatch(msg)

	var err error
	if !out.Suppressed && pub != nil {
		var rec []byte
		if rec, err = r.codec.Marshal(out.Msg); err == nil {
			err = pub.Publish(rec)
		}
		if err != nil {
			r.writeErrors.Add(1)
		} else {
			r.emitted.Add(1)
		}
	}

	r.tap(out)
	return out, err
}

// Sweep 执行一次过期清理，返回清理的订阅数
func (r *Router) Sweep() int {
	n := r.table.Sweep(r.table.Now())
	if n > 0 {
		r.logger.Debug("expired subscriptions swept", "count", n)
	}
	return n
}

// Len 返回频道键上的有效订阅数
func (r *Router) Len(channel, id string) int {
	return r.table.Len(core.Key(channel, id))
}

// Run 启动路由器，阻塞直到输入结束或 ctx 取消。
//
// 流程：插件启动 → 订阅输入 → 发出 Running 信号 → 消息循环 → 插件停止。
// 输入正常结束返回 nil；输入读取出错时返回该错误。
func (r *Router) Run(ctx context.Context, sub message.Subscriber, pub message.Publisher) error {
	r.mu.Lock()
	if r.isRunning {
		r.mu.Unlock()
		return ErrRunning
	}
	r.isRunning = true
	plugins := append([]RouterPlugin(nil), r.plugins...)
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.isRunning = false
		r.mu.Unlock()
	}()

	// 启动插件
	for _, p := range plugins {
		if err := p.OnStart(ctx, r); err != nil {
			return fmt.Errorf("router: plugin start: %w", err)
		}
	}

	records, err := sub.Subscribe(ctx)
	if err != nil {
		r.stopPlugins(plugins)
		return fmt.Errorf("router: subscribe: %w", err)
	}

	ticker := time.NewTicker(r.sweepInterval)
	defer ticker.Stop()

	r.runningOnce.Do(func() { close(r.running) })
	r.logger.Info("router started", "sweep_interval", r.sweepInterval)

	runErr := r.loop(ctx, ticker.C, records, sub, pub)

	r.closedOnce.Do(func() { close(r.closed) })
	if err := sub.Close(); err != nil {
		r.logger.Debug("input close", "error", err)
	}
	r.releaseTaps()
	r.stopPlugins(plugins)

	r.logger.Info("router stopped", "stats", r.Stats())
	return runErr
}

func (r *Router) loop(ctx context.Context, tick <-chan time.Time, records <-chan []byte, sub message.Subscriber, pub message.Publisher) error {
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("router context done", "reason", ctx.Err())
			return nil
		case <-tick:
			r.Sweep()
		case rec, ok := <-records:
			if !ok {
				if e, ok := sub.(interface{ Err() error }); ok && e.Err() != nil {
					return fmt.Errorf("router: read input: %w", e.Err())
				}
				r.logger.Info("input closed")
				return nil
			}
			r.process(rec, pub)
		}
	}
}

// process 解码并分发一行记录。解码失败的记录记录日志后丢弃。
func (r *Router) process(rec []byte, pub message.Publisher) {
	msg, err := r.codec.Unmarshal(rec)
	if err != nil {
		r.malformed.Add(1)
		r.logger.Warn("malformed message dropped", "error", err)
		return
	}
	msg.Received = r.table.Now()

	if _, err := r.Dispatch(msg, pub); err != nil {
		r.logger.Error("write message", "id", msg.ID, "error", err)
	}
}

func (r *Router) stopPlugins(plugins []RouterPlugin) {
	for i := len(plugins) - 1; i >= 0; i-- {
		plugins[i].OnStop(r)
	}
}

// Running 返回一个 channel，在 Router 开始运行后关闭。用于等待启动完成。
func (r *Router) Running() <-chan struct{} {
	return r.running
}

// Closed 返回一个 channel，在 Router 消息循环退出后关闭。
func (r *Router) Closed() <-chan struct{} {
	return r.closed
}

// IsRunning 返回路由器是否正在运行。
func (r *Router) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.isRunning
}
