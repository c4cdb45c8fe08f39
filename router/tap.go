package router

import (
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/uniyakcom/gormw/core"
	"github.com/uniyakcom/gormw/message"
)

// TapFunc 旁路观察者。msg 是分发结束后当前消息的副本，
// suppressed 表示该消息是否被否决。观察者不能影响输出。
type TapFunc func(msg *message.Message, suppressed bool)

// Tap 添加旁路观察者。观察者在 ants 协程池中异步执行；
// 所有 worker 忙碌时分发会等待空闲 worker。多个 worker 时不保证观察顺序。
// 观察者在多次 Run 之间保留。
func (r *Router) Tap(fn TapFunc) error {
	if fn == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.tapPoolLocked(); err != nil {
		return err
	}
	r.taps = append(r.taps, fn)
	return nil
}

// tapPoolLocked 返回协程池，上次 Run 结束后已释放时重新创建。调用方持有 r.mu。
func (r *Router) tapPoolLocked() (*ants.Pool, error) {
	if r.tapPool != nil {
		return r.tapPool, nil
	}
	pool, err := ants.NewPool(r.tapWorkers, ants.WithPanicHandler(func(p interface{}) {
		r.tapErrors.Add(1)
		r.logger.Error("tap panic", "recovered", p)
	}))
	if err != nil {
		return nil, err
	}
	r.tapPool = pool
	return pool, nil
}

func (r *Router) tap(out core.Outcome) {
	r.mu.Lock()
	taps := r.taps
	var (
		pool *ants.Pool
		err  error
	)
	if len(taps) > 0 {
		pool, err = r.tapPoolLocked()
	}
	r.mu.Unlock()
	if len(taps) == 0 {
		return
	}
	if err != nil {
		r.tapErrors.Add(1)
		r.logger.Debug("tap pool", "error", err)
		return
	}

	// 每个观察者一份独立副本
	for _, fn := range taps {
		fn, cp := fn, out.Msg.Copy()
		if err := pool.Submit(func() { fn(cp, out.Suppressed) }); err != nil {
			r.tapErrors.Add(1)
			r.logger.Debug("tap submit", "error", err)
		}
	}
}

// releaseTaps 等待在途观察者完成并释放协程池，已注册的观察者保留
func (r *Router) releaseTaps() {
	r.mu.Lock()
	pool := r.tapPool
	r.tapPool = nil
	r.mu.Unlock()

	if pool == nil {
		return
	}
	if err := pool.ReleaseTimeout(3 * time.Second); err != nil {
		r.logger.Warn("tap pool release", "error", err)
	}
}
