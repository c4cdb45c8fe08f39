package payload

import (
	"bytes"
	"net/url"

	"github.com/uniyakcom/gormw/internal/support/splice"
)

// findParam 在 '&' 分隔的 name=value 列表中查找参数，返回值的区间。
// 参数名必须从列表开头或 '&' 之后开始，避免 "xname=" 误命中 "name"。
func findParam(list []byte, name string) (vs, ve int, ok bool) {
	if name == "" {
		return 0, 0, false
	}
	for start := 0; start <= len(list); {
		end := bytes.IndexByte(list[start:], '&')
		if end == -1 {
			end = len(list)
		} else {
			end += start
		}

		seg := list[start:end]
		if len(seg) > len(name) && seg[len(name)] == '=' && string(seg[:len(name)]) == name {
			return start + len(name) + 1, end, true
		}
		start = end + 1
	}
	return 0, 0, false
}

// decodeValue 百分号解码，转义序列非法时返回原值
func decodeValue(raw []byte) string {
	s, err := url.QueryUnescape(string(raw))
	if err != nil {
		return string(raw)
	}
	return s
}

// setParam 替换已有参数值或追加新参数。sep 为追加时使用的分隔符（0 表示不加）。
func setParam(list []byte, name, value string, sep byte) []byte {
	enc := url.QueryEscape(value)
	if vs, ve, ok := findParam(list, name); ok {
		return splice.Replace(list, vs, ve, []byte(enc))
	}

	pair := make([]byte, 0, len(name)+len(enc)+2)
	if sep != 0 {
		pair = append(pair, sep)
	}
	pair = append(pair, name...)
	pair = append(pair, '=')
	pair = append(pair, enc...)
	return splice.Concat(list, pair)
}

// PathParam 返回查询参数的解码值
func PathParam(p []byte, name string) (string, bool) {
	path := Path(p)
	q := bytes.IndexByte(path, '?')
	if q == -1 {
		return "", false
	}
	query := path[q+1:]
	vs, ve, ok := findParam(query, name)
	if !ok {
		return "", false
	}
	return decodeValue(query[vs:ve]), true
}

// SetPathParam 设置查询参数（值做百分号编码）。
// 参数已存在时原位替换，保留其它参数及顺序；否则追加到末尾，
// 无查询串时以 '?' 开头，否则以 '&' 连接。
func SetPathParam(p []byte, name, value string) []byte {
	path := Path(p)
	if path == nil {
		return p
	}

	var newPath []byte
	if q := bytes.IndexByte(path, '?'); q == -1 {
		newPath = splice.Concat(path, []byte("?"+name+"="+url.QueryEscape(value)))
	} else {
		route, query := path[:q+1], path[q+1:]
		sep := byte('&')
		if len(query) == 0 || query[len(query)-1] == '&' {
			sep = 0
		}
		newPath = splice.Concat(route, setParam(query, name, value, sep))
	}
	return SetPath(p, string(newPath))
}
