package payload

import (
	"bytes"
	"strconv"

	"github.com/uniyakcom/gormw/internal/support/splice"
)

var lfEmptyLine = []byte("\n\n")

// bodyStart 返回 body 起始偏移。头部以 \r\n\r\n 或 \n\n 结束，取先出现者；
// 没有空行时返回 -1。
func bodyStart(p []byte) int {
	start := -1
	if i := bytes.Index(p, emptyLine); i != -1 {
		start = i + len(emptyLine)
	}
	if i := bytes.Index(p, lfEmptyLine); i != -1 && (start == -1 || i+len(lfEmptyLine) < start) {
		start = i + len(lfEmptyLine)
	}
	return start
}

// Body 返回首个空行之后的字节，没有空行时返回 nil
func Body(p []byte) []byte {
	i := bodyStart(p)
	if i == -1 {
		return nil
	}
	return p[i:]
}

// SetBody 替换 body 并同步 Content-Length。
// 两者必须一起改写：任何修改 body 的路径都经过这里。
func SetBody(p, body []byte) []byte {
	p = SetHeader(p, "Content-Length", strconv.Itoa(len(body)))

	if i := bodyStart(p); i != -1 {
		return splice.Concat(p[:i], body)
	}

	// 头部区没有结束空行，补齐
	if bytes.HasSuffix(p, crlf) {
		return splice.Concat(p, crlf, body)
	}
	return splice.Concat(p, emptyLine, body)
}

// BodyParam 将 body 视为 URL 编码表单，返回参数的解码值
func BodyParam(p []byte, name string) (string, bool) {
	body := Body(p)
	vs, ve, ok := findParam(body, name)
	if !ok {
		return "", false
	}
	return decodeValue(body[vs:ve]), true
}

// SetBodyParam 设置表单参数，经 SetBody 写回以保持 Content-Length 一致。
// 追加新参数时，仅当 body 非空且已包含 '=' 才以 '&' 连接。
func SetBodyParam(p []byte, name, value string) []byte {
	body := Body(p)
	var sep byte
	if len(body) > 0 && bytes.IndexByte(body, '=') != -1 && body[len(body)-1] != '&' {
		sep = '&'
	}
	return SetBody(p, setParam(body, name, value, sep))
}
