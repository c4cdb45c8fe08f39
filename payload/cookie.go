package payload

import "strings"

const cookieSep = "; "

// Cookie 返回 Cookie 头中指定名称的值
func Cookie(p []byte, name string) (string, bool) {
	v := HeaderValue(p, "Cookie")
	if len(v) == 0 {
		return "", false
	}
	prefix := name + "="
	for _, c := range strings.Split(string(v), cookieSep) {
		if strings.HasPrefix(c, prefix) {
			return c[len(prefix):], true
		}
	}
	return "", false
}

// SetCookie 设置 Cookie。
// 去掉同名条目后把新的 name=value 放在最后，其它条目保持原顺序，整体写回 Cookie 头。
func SetCookie(p []byte, name, value string) []byte {
	prefix := name + "="
	var cookies []string
	if v := HeaderValue(p, "Cookie"); len(v) > 0 {
		for _, c := range strings.Split(string(v), cookieSep) {
			if c == "" || strings.HasPrefix(c, prefix) {
				continue
			}
			cookies = append(cookies, c)
		}
	}
	cookies = append(cookies, prefix+value)
	return SetHeader(p, "Cookie", strings.Join(cookies, cookieSep))
}
