package gormw_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/uniyakcom/gormw"
	"github.com/uniyakcom/gormw/core"
	"github.com/uniyakcom/gormw/correlate"
	"github.com/uniyakcom/gormw/marshal"
	"github.com/uniyakcom/gormw/message"
	"github.com/uniyakcom/gormw/payload"
	"github.com/uniyakcom/gormw/pubsub/pipe"
	"github.com/uniyakcom/gormw/router"
)

func quiet() router.Config {
	return router.Config{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func session(msgs ...*message.Message) string {
	var b strings.Builder
	for _, m := range msgs {
		b.Write(marshal.Encode(m))
	}
	return b.String()
}

func runSession(t *testing.T, r *gormw.Router, in string) []*message.Message {
	t.Helper()
	var out bytes.Buffer
	if err := r.Run(context.Background(), pipe.NewSubscriber(strings.NewReader(in)), pipe.NewPublisher(&out)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	var msgs []*message.Message
	for _, line := range strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n") {
		if line == "" {
			continue
		}
		m, err := marshal.Decode([]byte(line))
		if err != nil {
			t.Fatalf("decode %q: %v", line, err)
		}
		msgs = append(msgs, m)
	}
	return msgs
}

// TestScenarioRewriteAuth 改写请求头
// 用途: 回放到预发环境时替换认证信息
func TestScenarioRewriteAuth(t *testing.T) {
	r := gormw.New(quiet())
	r.On(gormw.ChannelRequest, func(msg *gormw.Message) gormw.Result {
		if len(payload.HeaderValue(msg.Payload, "Authorization")) == 0 {
			return gormw.Pass()
		}
		return gormw.Replace(msg.WithPayload(payload.SetHeader(msg.Payload, "Authorization", "Bearer staging")))
	})

	in := session(
		message.New(message.KindRequest, "r1", []byte("GET / HTTP/1.1\r\nAuthorization: Bearer prod\r\n\r\n"), "1"),
		message.New(message.KindRequest, "r2", []byte("GET /public HTTP/1.1\r\n\r\n"), "2"),
	)
	out := runSession(t, r, in)

	if len(out) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(out))
	}
	if v := payload.HeaderValue(out[0].Payload, "Authorization"); string(v) != "Bearer staging" {
		t.Errorf("Authorization = %q", v)
	}
	if len(payload.HeaderValue(out[1].Payload, "Authorization")) != 0 {
		t.Error("header added to request without one")
	}
}

// TestScenarioFilterStatic 否决静态资源请求
// 用途: 只回放 API 流量
func TestScenarioFilterStatic(t *testing.T) {
	r := gormw.New(quiet())
	r.On(gormw.ChannelRequest, func(msg *gormw.Message) gormw.Result {
		if strings.HasPrefix(string(payload.Path(msg.Payload)), "/static/") {
			return gormw.Drop()
		}
		return gormw.Pass()
	})

	in := session(
		message.New(message.KindRequest, "a", []byte("GET /static/app.js HTTP/1.1\r\n\r\n")),
		message.New(message.KindRequest, "b", []byte("GET /api/users HTTP/1.1\r\n\r\n")),
	)
	out := runSession(t, r, in)

	if len(out) != 1 || out[0].ID != "b" {
		t.Fatalf("unexpected output %v", out)
	}
}

// TestScenarioCompareStatus 比较原始响应与回放响应
// 用途: 回放差异检测
func TestScenarioCompareStatus(t *testing.T) {
	r := gormw.New(quiet())

	var diffs []string
	r.On(gormw.ChannelRequest, func(req *gormw.Message) gormw.Result {
		err := correlate.Search(r, req.ID, `HTTP/1.1 (\d{3})`, func(v correlate.Values) {
			if v.ResponseOK && v.ReplayOK && v.Response != v.Replay {
				diffs = append(diffs, req.ID+":"+v.Response+"->"+v.Replay)
			}
		})
		if err != nil {
			t.Error(err)
		}
		return gormw.Pass()
	})

	in := session(
		message.New(message.KindRequest, "1", []byte("GET /a HTTP/1.1\r\n\r\n")),
		message.New(message.KindRequest, "2", []byte("GET /b HTTP/1.1\r\n\r\n")),
		message.New(message.KindResponse, "1", []byte("HTTP/1.1 200 OK\r\n\r\n")),
		message.New(message.KindResponse, "2", []byte("HTTP/1.1 200 OK\r\n\r\n")),
		message.New(message.KindReplay, "2", []byte("HTTP/1.1 200 OK\r\n\r\n")),
		message.New(message.KindReplay, "1", []byte("HTTP/1.1 500 Internal Server Error\r\n\r\n")),
	)
	out := runSession(t, r, in)

	if len(out) != 6 {
		t.Errorf("expected all 6 messages echoed, got %d", len(out))
	}
	if len(diffs) != 1 || diffs[0] != "1:200->500" {
		t.Errorf("diffs = %v", diffs)
	}
}

// TestScenarioStripResponses 只输出请求
// 用途: 回放进程只需要请求时减少管道流量
func TestScenarioStripResponses(t *testing.T) {
	r := gormw.New(quiet())
	drop := func(*gormw.Message) gormw.Result { return gormw.Drop() }
	r.On(gormw.ChannelResponse, drop).On(gormw.ChannelReplay, drop)

	in := session(
		message.New(message.KindRequest, "1", []byte("GET / HTTP/1.1\r\n\r\n")),
		message.New(message.KindResponse, "1", []byte("HTTP/1.1 200 OK\r\n\r\n")),
		message.New(message.KindReplay, "1", []byte("HTTP/1.1 200 OK\r\n\r\n")),
	)
	out := runSession(t, r, in)

	if len(out) != 1 || out[0].Kind != message.KindRequest {
		t.Fatalf("unexpected output %v", out)
	}
	if st := r.Stats(); st.Suppressed != 2 || st.Dispatched != 3 {
		t.Errorf("stats = %+v", st.Stats)
	}
}

// TestScenarioBodyRewrite 改写表单参数
// 用途: 回放时替换表单中的一次性字段
func TestScenarioBodyRewrite(t *testing.T) {
	r := gormw.New(quiet())
	r.On(gormw.ChannelRequest, func(msg *gormw.Message) gormw.Result {
		if _, ok := payload.BodyParam(msg.Payload, "csrf"); !ok {
			return gormw.Pass()
		}
		return core.Replace(msg.WithPayload(payload.SetBodyParam(msg.Payload, "csrf", "replayed")))
	})

	in := session(message.New(message.KindRequest, "1",
		[]byte("POST /form HTTP/1.1\r\nContent-Length: 13\r\n\r\ncsrf=abc&x=10")))
	out := runSession(t, r, in)

	body := string(payload.Body(out[0].Payload))
	if body != "csrf=replayed&x=10" {
		t.Errorf("body = %q", body)
	}
	if cl := string(payload.HeaderValue(out[0].Payload, "Content-Length")); cl != "18" {
		t.Errorf("Content-Length = %s, want 18", cl)
	}
}
