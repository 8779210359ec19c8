package binding

import (
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

var exprPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Interpolate 将文本中的 ${path.to.value} 替换为 JSON 数据中的值。
// 路径既支持 gjson 写法 items.0.name，也支持 items[0].name。
// 数据为空、不是合法 JSON 或路径不存在时保留原占位符。
func Interpolate(text string, data []byte) string {
	if len(data) == 0 || !strings.Contains(text, "${") {
		return text
	}
	if !gjson.ValidBytes(data) {
		return text
	}
	return exprPattern.ReplaceAllStringFunc(text, func(match string) string {
		groups := exprPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		path := strings.TrimSpace(groups[1])
		if path == "" {
			return match
		}
		if v, ok := Lookup(data, path); ok {
			return v
		}
		return match
	})
}

// Lookup 返回 path 对应的值，供调用方区分“不存在”与“空字符串”。
func Lookup(data []byte, path string) (string, bool) {
	val := gjson.GetBytes(data, toPath(path))
	if !val.Exists() {
		return "", false
	}
	return val.String(), true
}

// toPath 把下标写法转换为 gjson 的点路径：a[0][1].b -> a.0.1.b
func toPath(path string) string {
	if !strings.ContainsRune(path, '[') {
		return path
	}
	var b strings.Builder
	for i := 0; i < len(path); i++ {
		switch c := path[i]; c {
		case '[':
			if b.Len() > 0 {
				b.WriteByte('.')
			}
		case ']':
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
