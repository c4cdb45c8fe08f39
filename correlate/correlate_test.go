package correlate_test

import (
	"bytes"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniyakcom/gormw/core"
	"github.com/uniyakcom/gormw/correlate"
	"github.com/uniyakcom/gormw/message"
	"github.com/uniyakcom/gormw/router"
)

func newRouter(w io.Writer) *router.Router {
	return router.New(router.Config{Logger: slog.New(slog.NewTextHandler(w, nil))})
}

func response(id, body string) *message.Message {
	return message.New(message.KindResponse, id, []byte("HTTP/1.1 200 OK\r\n"+body+"\r\n\r\n"))
}

func replay(id, body string) *message.Message {
	return message.New(message.KindReplay, id, []byte("HTTP/1.1 200 OK\r\n"+body+"\r\n\r\n"))
}

func dispatch(t *testing.T, r *router.Router, msgs ...*message.Message) {
	t.Helper()
	for _, m := range msgs {
		_, err := r.Dispatch(m, nil)
		require.NoError(t, err)
	}
}

func TestSearchBothMatch(t *testing.T) {
	r := newRouter(io.Discard)

	var got []correlate.Values
	err := correlate.Search(r, "abc1", `X-Set-Token: (\w+)`, func(v correlate.Values) {
		got = append(got, v)
	})
	require.NoError(t, err)

	dispatch(t, r, response("abc1", "X-Set-Token: abc"), replay("abc1", "X-Set-Token: xyz"))

	require.Len(t, got, 1)
	assert.Equal(t, correlate.Values{Response: "abc", Replay: "xyz", ResponseOK: true, ReplayOK: true}, got[0])
}

func TestSearchResponseMissing(t *testing.T) {
	r := newRouter(io.Discard)

	var got []correlate.Values
	require.NoError(t, correlate.Search(r, "id", `X-Set-Token: (\w+)`, func(v correlate.Values) {
		got = append(got, v)
	}))

	dispatch(t, r, response("id", "Content-Type: text/plain"))
	require.Len(t, got, 1)
	assert.False(t, got[0].ResponseOK)
	assert.False(t, got[0].ReplayOK)

	// 原始响应未命中时不再观察回放
	dispatch(t, r, replay("id", "X-Set-Token: xyz"))
	assert.Len(t, got, 1)
	assert.Equal(t, 0, r.Len(message.ChannelReplay, "id"))
}

func TestSearchPrefixPresentButNoMatch(t *testing.T) {
	r := newRouter(io.Discard)

	var got []correlate.Values
	require.NoError(t, correlate.Search(r, "id", `X-Set-Token: (\d+)`, func(v correlate.Values) {
		got = append(got, v)
	}))

	dispatch(t, r, response("id", "X-Set-Token: abc"))
	require.Len(t, got, 1)
	assert.False(t, got[0].ResponseOK)
}

func TestSearchReplayMissing(t *testing.T) {
	r := newRouter(io.Discard)

	var got []correlate.Values
	require.NoError(t, correlate.Search(r, "id", `X-Set-Token: (\w+)`, func(v correlate.Values) {
		got = append(got, v)
	}))

	dispatch(t, r, response("id", "X-Set-Token: abc"), replay("id", "Server: x"))
	require.Len(t, got, 1)
	assert.Equal(t, correlate.Values{Response: "abc", ResponseOK: true}, got[0])
}

func TestSearchOtherIDsIgnored(t *testing.T) {
	r := newRouter(io.Discard)

	calls := 0
	require.NoError(t, correlate.Search(r, "mine", `X-Set-Token: (\w+)`, func(correlate.Values) {
		calls++
	}))

	dispatch(t, r, response("other", "X-Set-Token: abc"), replay("other", "X-Set-Token: xyz"))
	assert.Zero(t, calls)
}

func TestSearchInvalidPattern(t *testing.T) {
	cases := []string{
		`X-Set-Token: \w+`,
		`(a)(b)`,
		`(unclosed`,
	}
	for _, expr := range cases {
		t.Run(expr, func(t *testing.T) {
			var logs bytes.Buffer
			r := newRouter(&logs)

			err := correlate.Search(r, "id", expr, func(correlate.Values) {
				t.Error("callback must not run")
			})
			require.ErrorIs(t, err, core.ErrPatternConfig)
			assert.Equal(t, 1, bytes.Count(logs.Bytes(), []byte("correlate pattern rejected")))
			assert.Equal(t, 0, r.Len(message.ChannelResponse, "id"))

			dispatch(t, r, response("id", "X-Set-Token: abc"))
		})
	}
}

func TestPatternFind(t *testing.T) {
	p := correlate.MustCompile(`token=(\w+)`)

	v, ok := p.Find([]byte("a=1&token=zz9&b=2"))
	assert.True(t, ok)
	assert.Equal(t, "zz9", v)

	_, ok = p.Find([]byte("nothing here"))
	assert.False(t, ok)

	// 无字面前缀的模式直接运行正则
	q := correlate.MustCompile(`(\d{3})`)
	v, ok = q.Find([]byte("HTTP/1.1 404 Not Found"))
	assert.True(t, ok)
	assert.Equal(t, "404", v)
	assert.Equal(t, `(\d{3})`, q.String())
}

func TestMustCompilePanics(t *testing.T) {
	assert.Panics(t, func() { correlate.MustCompile(`no group`) })
}
