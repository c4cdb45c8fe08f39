/*
Package payload 直接在原始 HTTP 字节上读写请求/响应的各个部分。

不构建对象模型：所有函数接收负载字节，读函数返回子切片或解码后的值，
写函数返回新的负载（入参不会被修改）。偏移量一律按字节计算。

负载示例（换行符已转义）：

	POST /upload?id=1 HTTP/1.1\r\n
	User-Agent: Gor\r\n
	Content-Length: 11\r\n
	\r\n
	Hello world

读函数在目标不存在时返回 nil 或 ok=false，从不 panic；
写函数在目标不存在时（无头部、无查询串、无 Cookie、空 body）也会返回合法负载。
*/
package payload

import (
	"bytes"

	"github.com/uniyakcom/gormw/internal/support/splice"
)

var (
	crlf      = []byte("\r\n")
	emptyLine = []byte("\r\n\r\n")
)

// firstLineEnd 返回首行内容结束位置（不含 \r\n）
func firstLineEnd(p []byte) int {
	end := bytes.IndexByte(p, '\n')
	if end == -1 {
		end = len(p)
	}
	for end > 0 && p[end-1] == '\r' {
		end--
	}
	return end
}

// targetSpan 返回首行第一个与第二个空格之间的区间：请求为路径，响应为状态码
func targetSpan(p []byte) (start, end int, ok bool) {
	le := firstLineEnd(p)
	sp := bytes.IndexByte(p[:le], ' ')
	if sp == -1 {
		return 0, 0, false
	}
	start = sp + 1
	if sp2 := bytes.IndexByte(p[start:le], ' '); sp2 != -1 {
		end = start + sp2
	} else {
		end = le
	}
	return start, end, true
}

// Method 返回请求方法（首个空格之前的字节）
func Method(p []byte) []byte {
	le := firstLineEnd(p)
	sp := bytes.IndexByte(p[:le], ' ')
	if sp == -1 {
		return nil
	}
	return p[:sp]
}

// Path 返回请求路径（含查询串）
func Path(p []byte) []byte {
	start, end, ok := targetSpan(p)
	if !ok {
		return nil
	}
	return p[start:end]
}

// SetPath 替换请求路径，首行其余部分保持不变。
// 首行没有空格（无法定位路径）时原样返回。
func SetPath(p []byte, path string) []byte {
	start, end, ok := targetSpan(p)
	if !ok {
		return p
	}
	return splice.Replace(p, start, end, []byte(path))
}

// Status 返回响应状态码。响应首行中状态码与请求路径位置相同。
func Status(p []byte) []byte {
	return Path(p)
}

// SetStatus 替换响应状态码
func SetStatus(p []byte, status string) []byte {
	return SetPath(p, status)
}

var httpMethods = [][]byte{
	[]byte("GET "), []byte("OPTI"), []byte("HEAD"), []byte("POST"), []byte("PUT "),
	[]byte("DELE"), []byte("TRAC"), []byte("CONN"), []byte("PATC"),
	// 非标准方法
	[]byte("BAN "), []byte("PURG"),
}

// IsHTTP 根据方法前缀快速判断是否为 HTTP 请求
func IsHTTP(p []byte) bool {
	if len(p) < 4 {
		return false
	}
	for _, m := range httpMethods {
		if bytes.Equal(p[:4], m) {
			return true
		}
	}
	return false
}

// IsResponse 首行是否为 HTTP 响应状态行
func IsResponse(p []byte) bool {
	return bytes.HasPrefix(p, []byte("HTTP/"))
}

// SetHost 改写请求目标主机。
// HTTP/1.0 或代理流量的路径可能是绝对 URI（http://host/path），此时改写路径中的
// scheme://host 部分为 url；否则设置 Host 头为 host。
func SetHost(p []byte, url, host string) []byte {
	path := Path(p)
	if !bytes.HasPrefix(path, []byte("http")) {
		return SetHeader(p, "Host", host)
	}

	hostStart := bytes.Index(path, []byte("://"))
	if hostStart == -1 {
		return SetHeader(p, "Host", host)
	}
	hostStart += 3
	hostEnd := len(path)
	if i := bytes.IndexByte(path[hostStart:], '/'); i != -1 {
		hostEnd = hostStart + i
	}

	newPath := splice.Replace(path, 0, hostEnd, []byte(url))
	return SetPath(p, string(newPath))
}
