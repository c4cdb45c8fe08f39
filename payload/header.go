package payload

import (
	"bytes"

	"github.com/uniyakcom/gormw/internal/support/splice"
)

// Field 一次头部查找的结果，所有偏移都指向原负载。
type Field struct {
	Name       []byte // 原始大小写的头部名
	Value      []byte // 去掉首尾空白的值
	Start      int    // 行首
	ValueStart int    // ':' 之后
	ValueEnd   int    // 行内容结束（不含 \r\n）
	End        int    // 下一行行首（或负载末尾）
}

// Header 查找头部（名称大小写不敏感）。
//
// 从第二行开始单次前向扫描，跟踪 {行首, 冒号, 行尾}：'\n' 结束一行，
// 行尾的 '\r' 忽略；每行在第一个 ':' 处拆分为名与值。
// 遇到空行（头部区结束）或负载结束仍未命中时返回 ok=false。
func Header(p []byte, name string) (f Field, ok bool) {
	first := bytes.IndexByte(p, '\n')
	if first == -1 {
		return Field{}, false
	}

	lineStart, colon := first+1, -1
	for i := lineStart; i <= len(p); i++ {
		if i < len(p) && p[i] != '\n' {
			if p[i] == ':' && colon == -1 {
				colon = i
			}
			continue
		}

		contentEnd := i
		for contentEnd > lineStart && p[contentEnd-1] == '\r' {
			contentEnd--
		}
		if contentEnd == lineStart {
			return Field{}, false // 空行：头部区结束
		}

		next := i + 1
		if i == len(p) {
			next = len(p)
		}

		if colon != -1 && bytes.EqualFold(trimSpace(p[lineStart:colon]), []byte(name)) {
			return Field{
				Name:       p[lineStart:colon],
				Value:      trimSpace(p[colon+1 : contentEnd]),
				Start:      lineStart,
				ValueStart: colon + 1,
				ValueEnd:   contentEnd,
				End:        next,
			}, true
		}

		lineStart, colon = next, -1
	}
	return Field{}, false
}

// HeaderValue 返回头部值，不存在时返回 nil
func HeaderValue(p []byte, name string) []byte {
	f, ok := Header(p, name)
	if !ok {
		return nil
	}
	return f.Value
}

// SetHeader 设置头部值。
//
// 头部已存在时只替换值区间（保留原名称大小写和位置，值前统一一个空格）；
// 不存在时在首行之后插入 "name: value\r\n"，成为第一个头部。
func SetHeader(p []byte, name, value string) []byte {
	if f, ok := Header(p, name); ok {
		v := make([]byte, 0, len(value)+1)
		v = append(v, ' ')
		v = append(v, value...)
		return splice.Replace(p, f.ValueStart, f.ValueEnd, v)
	}
	return addHeader(p, name, value)
}

// addHeader 在首行之后插入新头部
func addHeader(p []byte, name, value string) []byte {
	line := make([]byte, 0, len(name)+len(value)+4)
	line = append(line, name...)
	line = append(line, ':', ' ')
	line = append(line, value...)
	line = append(line, crlf...)

	first := bytes.IndexByte(p, '\n')
	if first == -1 {
		// 只有首行：补齐行尾与头部区结束的空行
		return splice.Concat(p, crlf, line, crlf)
	}
	return splice.Insert(p, first+1, line)
}

// DeleteHeader 删除第一个匹配的头部行，不存在时原样返回
func DeleteHeader(p []byte, name string) []byte {
	f, ok := Header(p, name)
	if !ok {
		return p
	}
	return splice.Cut(p, f.Start, f.End)
}

func trimSpace(b []byte) []byte {
	return bytes.Trim(b, " \t")
}
