// Package table 提供按频道键组织的订阅表
//
// 频道键为基础频道名（message/request/response/replay）或 "<channel>#<id>"。
// 同一键下的订阅按注册顺序保存；带关联 ID 的订阅在 TTL 后失效，
// 分发时直接跳过，并由 Sweep 周期性清理。基础频道订阅永不过期。
package table

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/uniyakcom/gormw/core"
	"github.com/uniyakcom/gormw/message"
)

// DefaultTTL 关联订阅的存活时间
const DefaultTTL = 60 * time.Second

// sub 订阅者
type sub struct {
	handler core.Handler
	created time.Time
}

// Config 订阅表配置
type Config struct {
	// TTL 关联订阅存活时间，<=0 时使用 DefaultTTL
	TTL time.Duration

	// Clock 时间源，为 nil 时使用 time.Now（测试注入）
	Clock func() time.Time

	// OnPanic 回调 panic 通知（可选）
	OnPanic core.PanicHandler
}

// Table 订阅表
//
// 分发在调用方的 goroutine 上同步完成。回调执行时不持有锁，
// 因此回调内可以继续 Subscribe；新订阅从下一次分发起生效，
// 即使注册在本次分发尚未到达的键上。
type Table struct {
	mu   sync.Mutex
	subs map[string][]*sub

	ttl     time.Duration
	now     func() time.Time
	onPanic core.PanicHandler

	// === 运行时统计 ===
	dispatched atomic.Int64
	calls      atomic.Int64
	replaced   atomic.Int64
	suppressed atomic.Int64
	expired    atomic.Int64
	panics     atomic.Int64
}

var _ core.Bus = (*Table)(nil)

// New 创建订阅表
func New(cfg Config) *Table {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Table{
		subs:    make(map[string][]*sub),
		ttl:     cfg.TTL,
		now:     cfg.Clock,
		onPanic: cfg.OnPanic,
	}
}

// Subscribe 注册订阅。id 非空时注册在 channel#id 上。
func (t *Table) Subscribe(channel, id string, h core.Handler) {
	if h == nil {
		return
	}
	key := core.Key(channel, id)
	s := &sub{handler: h, created: t.now()}

	t.mu.Lock()
	t.subs[key] = append(t.subs[key], s)
	t.mu.Unlock()
}

// live 返回 key 下当前有效的回调快照（注册顺序）
func (t *Table) live(key string, now time.Time) []core.Handler {
	t.mu.Lock()
	defer t.mu.Unlock()

	subs := t.subs[key]
	if len(subs) == 0 {
		return nil
	}
	scoped := core.IsScoped(key)
	hs := make([]core.Handler, 0, len(subs))
	for _, s := range subs {
		if scoped && t.expiredAt(s, now) {
			continue
		}
		hs = append(hs, s.handler)
	}
	return hs
}

func (t *Table) expiredAt(s *sub, now time.Time) bool {
	return now.Sub(s.created) >= t.ttl
}

// Dispatch 分发消息。
//
// 依次通知 "message"、基础频道、"频道#ID" 三个键；每个键下按注册顺序调用回调，
// 传入当前消息。Replace 的结果成为后续回调与最终输出的当前消息；
// Drop 标记否决输出（后续回调照常执行）。
func (t *Table) Dispatch(msg *message.Message) core.Outcome {
	t.dispatched.Add(1)
	out := core.Outcome{Msg: msg}
	now := t.now()

	// 先取齐所有键的快照，回调内新增的订阅（任意键）从下一条消息起生效
	keys := core.DispatchKeys(msg)
	snaps := make([][]core.Handler, len(keys))
	for i, key := range keys {
		snaps[i] = t.live(key, now)
	}

	for i, key := range keys {
		for _, h := range snaps[i] {
			res := t.call(key, h, out.Msg)
			out.Calls++
			switch res.Action {
			case core.ActionReplace:
				if res.Msg != nil {
					out.Msg = res.Msg
					t.replaced.Add(1)
				}
			case core.ActionDrop:
				out.Suppressed = true
			}
		}
	}

	t.calls.Add(int64(out.Calls))
	if out.Suppressed {
		t.suppressed.Add(1)
	}
	return out
}

// call 执行单个回调。panic 视为 Pass，不影响同一消息的其它回调
func (t *Table) call(key string, h core.Handler, msg *message.Message) (res core.Result) {
	defer func() {
		if r := recover(); r != nil {
			t.panics.Add(1)
			if t.onPanic != nil {
				t.onPanic(r, key, msg)
			}
			res = core.Pass()
		}
	}()
	return h(msg)
}

// Sweep 清理 now 时刻已过期的关联订阅，返回清理数量。
// 清空的键一并删除，避免每个关联 ID 在表中残留。
func (t *Table) Sweep(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for key, subs := range t.subs {
		if !core.IsScoped(key) {
			continue
		}
		kept := subs[:0:0]
		for _, s := range subs {
			if t.expiredAt(s, now) {
				removed++
				continue
			}
			kept = append(kept, s)
		}
		if len(kept) == 0 {
			delete(t.subs, key)
		} else if len(kept) != len(subs) {
			t.subs[key] = kept
		}
	}
	t.expired.Add(int64(removed))
	return removed
}

// Len 返回 key 下当前有效的订阅数
func (t *Table) Len(key string) int {
	return len(t.live(key, t.now()))
}

// Keys 返回当前的频道键数量（含尚未清理的过期键）
func (t *Table) Keys() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.subs)
}

// Now 返回订阅表使用的当前时间
func (t *Table) Now() time.Time {
	return t.now()
}

// Stats 返回运行时统计
func (t *Table) Stats() core.Stats {
	return core.Stats{
		Dispatched: t.dispatched.Load(),
		Calls:      t.calls.Load(),
		Replaced:   t.replaced.Load(),
		Suppressed: t.suppressed.Load(),
		Expired:    t.expired.Load(),
		Panics:     t.panics.Load(),
	}
}

// String 调试输出
func (t *Table) String() string {
	return fmt.Sprintf("table(keys=%d ttl=%v)", t.Keys(), t.ttl)
}
