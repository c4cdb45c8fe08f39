// Package correlate 关联同一请求的原始响应与回放响应。
//
// Search 在 response#<id> 上注册一次性观察：原始响应命中模式时，再在
// replay#<id> 上注册观察，两次捕获的值一起交给回调。回调总会收到已知的部分：
// 原始响应未命中时两个值都缺失，回放响应未命中时只有原始值。
//
//	correlate.Search(r, msg.ID, `X-Set-Token: (\w+)`, func(v correlate.Values) {
//	    if v.ResponseOK && v.ReplayOK {
//	        tokens[v.Response] = v.Replay
//	    }
//	})
package correlate

import (
	"bytes"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/uniyakcom/gormw/core"
	"github.com/uniyakcom/gormw/message"
)

// Registrar 可注册订阅的对象（*router.Router 或订阅表）
type Registrar interface {
	Subscribe(channel, id string, h core.Handler)
}

// Values 一次关联的结果
type Values struct {
	Response   string // 原始响应中的捕获值
	Replay     string // 回放响应中的捕获值
	ResponseOK bool
	ReplayOK   bool
}

// Callback 关联结果回调
type Callback func(Values)

// Pattern 预编译的关联模式，可在多个请求间复用
type Pattern struct {
	re     *regexp.Regexp
	prefix []byte
}

// Compile 编译关联模式。模式必须恰好包含一个捕获组。
func Compile(expr string) (*Pattern, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", core.ErrPatternConfig, expr, err)
	}
	if n := re.NumSubexp(); n != 1 {
		return nil, fmt.Errorf("%w: %q has %d", core.ErrPatternConfig, expr, n)
	}
	prefix, _ := re.LiteralPrefix()
	return &Pattern{re: re, prefix: []byte(prefix)}, nil
}

// MustCompile 同 Compile，失败时 panic
func MustCompile(expr string) *Pattern {
	p, err := Compile(expr)
	if err != nil {
		panic(err)
	}
	return p
}

// String 返回原始模式
func (p *Pattern) String() string {
	return p.re.String()
}

// Find 在 b 中查找第一个匹配，返回捕获组的值。
// 字面前缀不存在时直接返回，不运行正则。
func (p *Pattern) Find(b []byte) (string, bool) {
	if len(p.prefix) > 0 && !bytes.Contains(b, p.prefix) {
		return "", false
	}
	m := p.re.FindSubmatch(b)
	if m == nil {
		return "", false
	}
	return string(m[1]), true
}

// Search 编译 expr 并安装关联订阅。模式无效时记录一次错误、不安装订阅并返回
// 包装了 core.ErrPatternConfig 的错误。
func Search(r Registrar, id, expr string, fn Callback) error {
	p, err := Compile(expr)
	if err != nil {
		loggerOf(r).Error("correlate pattern rejected", "id", id, "error", err)
		return err
	}
	SearchPattern(r, id, p, fn)
	return nil
}

// SearchPattern 使用预编译模式安装关联订阅。
func SearchPattern(r Registrar, id string, p *Pattern, fn Callback) {
	r.Subscribe(message.ChannelResponse, id, func(resp *message.Message) core.Result {
		v, ok := p.Find(resp.Payload)
		if !ok {
			fn(Values{})
			return core.Pass()
		}

		r.Subscribe(message.ChannelReplay, id, func(repl *message.Message) core.Result {
			rv, rok := p.Find(repl.Payload)
			fn(Values{Response: v, ResponseOK: true, Replay: rv, ReplayOK: rok})
			return core.Pass()
		})
		return core.Pass()
	})
}

func loggerOf(r Registrar) *slog.Logger {
	if l, ok := r.(interface{ Logger() *slog.Logger }); ok && l.Logger() != nil {
		return l.Logger()
	}
	return slog.Default()
}
