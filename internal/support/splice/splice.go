// Package splice 提供按字节区间拼接的工具函数。
//
// 所有函数都返回新分配的切片，不修改入参：订阅者可能同时持有原负载
// （例如关联回调保存了旧消息），原地改写会破坏它们看到的数据。
package splice

// Replace 返回 a[:from] + b + a[to:]。
func Replace(a []byte, from, to int, b []byte) []byte {
	out := make([]byte, 0, len(a)-(to-from)+len(b))
	out = append(out, a[:from]...)
	out = append(out, b...)
	return append(out, a[to:]...)
}

// Insert 在 at 处插入 b。
func Insert(a []byte, at int, b []byte) []byte {
	return Replace(a, at, at, b)
}

// Cut 删除 [from, to) 区间。
func Cut(a []byte, from, to int) []byte {
	return Replace(a, from, to, nil)
}

// Concat 拼接多个切片为一个新切片。
func Concat(parts ...[]byte) []byte {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make([]byte, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
