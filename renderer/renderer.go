package renderer

import "github.com/ByLCY/justify/layout"

// Renderer 将布局结果输出为最终文件，例如 PDF 或 SVG。
// 渲染器只读取布局结果，不修改其中的坐标。
type Renderer interface {
	Render(result *layout.Result) ([]byte, error)
}
