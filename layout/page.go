package layout

import (
	"fmt"
	"strings"

	"github.com/ByLCY/justify/dsl"
)

var pagePresets = map[string][2]float64{
	"A4":     {210, 297},
	"A5":     {148, 210},
	"LETTER": {215.9, 279.4},
}

type pageAccumulator struct {
	width      float64
	height     float64
	margin     Margin
	paragraphs []Paragraph
}

func (p *pageAccumulator) appendParagraph(para Paragraph) {
	p.paragraphs = append(p.paragraphs, para)
}

// pageCollector 按顺序收集页面；每个 page 段落可以有自己的尺寸与边距。
type pageCollector struct {
	accs []*pageAccumulator
}

// startSection 以新的尺寸开启一页。
func (pc *pageCollector) startSection(width, height float64, margin Margin) *pageAccumulator {
	acc := &pageAccumulator{width: width, height: height, margin: margin}
	pc.accs = append(pc.accs, acc)
	return acc
}

// newPage 以当前页的尺寸续开一页。
func (pc *pageCollector) newPage() *pageAccumulator {
	cur := pc.curr()
	return pc.startSection(cur.width, cur.height, cur.margin)
}

func (pc *pageCollector) curr() *pageAccumulator {
	return pc.accs[len(pc.accs)-1]
}

func (pc *pageCollector) contentTop() float64 {
	return pc.curr().margin.Top
}

func (pc *pageCollector) contentBottom() float64 {
	cur := pc.curr()
	return cur.height - cur.margin.Bottom
}

func (pc *pageCollector) pages() []Page {
	out := make([]Page, len(pc.accs))
	for i, acc := range pc.accs {
		out[i] = Page{
			Width:      acc.width,
			Height:     acc.height,
			Margin:     acc.margin,
			Paragraphs: acc.paragraphs,
		}
	}
	return out
}

func resolvePageSize(spec dsl.PageSpec) (float64, float64, error) {
	base, ok := pagePresets[strings.ToUpper(spec.Size)]
	if !ok {
		return 0, 0, fmt.Errorf("暂不支持的纸张尺寸：%s", spec.Size)
	}
	width, height := base[0], base[1]
	for _, token := range spec.Params {
		if token.Value == "landscape" {
			width, height = height, width
		}
	}
	return width, height, nil
}

// resolveMargin 解析 margin 后的 1-4 个长度，语义同 CSS：
// 1 个值四边相同；2 个值为上下/左右；3 个值为上/左右/下；4 个值为上/右/下/左。
func resolveMargin(params []*dsl.Lexeme) Margin {
	margin := Margin{Top: 20, Right: 20, Bottom: 20, Left: 20}
	for i := 0; i < len(params); i++ {
		if params[i].Value != "margin" {
			continue
		}
		var vals []float64
		for j := i + 1; j < len(params) && len(vals) < 4; j++ {
			l, ok := ParseLength(params[j].Value)
			if !ok {
				break
			}
			vals = append(vals, l.ToMM())
		}
		switch len(vals) {
		case 1:
			v := vals[0]
			margin = Margin{Top: v, Right: v, Bottom: v, Left: v}
		case 2:
			margin = Margin{Top: vals[0], Right: vals[1], Bottom: vals[0], Left: vals[1]}
		case 3:
			margin = Margin{Top: vals[0], Right: vals[1], Bottom: vals[2], Left: vals[1]}
		case 4:
			margin = Margin{Top: vals[0], Right: vals[1], Bottom: vals[2], Left: vals[3]}
		}
		i += len(vals)
	}
	return margin
}
