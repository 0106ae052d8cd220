// Package sanitizer 把外部服务返回的候选名称转换为可以安全用作文件名的字符串。
//
// 候选名称来自外部文本生成服务，内容不可信：可能为空、过长、包含路径分隔符、
// 通配符、控制字符或非 ASCII 字符。Sanitize 是全函数，从不失败，最坏情况下
// 返回 internal.FallbackName。
package sanitizer

import (
	"strings"

	"github.com/moyu-x/files-filter/internal"
)

// 在常见文件系统中非法或有特殊含义的字符
const illegalChars = `<>:"/\|?*`

// Sanitize 清洗候选名称
// 1. 删除非法字符和控制字符
// 2. 删除非 ASCII 字符
// 3. 截断到 internal.MaxNameLength
// 4. 去掉首尾的空白和点号
// 5. 结果为空时返回 internal.FallbackName
func Sanitize(label string) string {
	var b strings.Builder
	b.Grow(len(label))

	for _, r := range label {
		switch {
		case r > 0x7e:
			// 非 ASCII 以及 DEL
			continue
		case r < 0x20:
			// 控制字符，包括换行和制表符
			continue
		case strings.ContainsRune(illegalChars, r):
			continue
		}
		b.WriteRune(r)
	}

	name := trim(b.String())
	if len(name) > internal.MaxNameLength {
		name = trim(name[:internal.MaxNameLength])
	}

	if name == "" {
		return internal.FallbackName
	}
	return name
}

func trim(s string) string {
	return strings.Trim(strings.TrimSpace(s), ". ")
}
