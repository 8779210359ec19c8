package layout

import (
	"errors"
	"fmt"

	"github.com/ByLCY/justify/linebreak"
	"golang.org/x/text/unicode/norm"
)

// paragraphSpec 是送入内核前的一段文本及其样式。
type paragraphSpec struct {
	content  string
	width    float64
	font     FontResource
	fontSize float64
	pitch    float64 // >0 时覆盖度量给出的基线间距
}

// measuredParagraph 保存一次内核排版的结果，坐标仍为整数单位。
type measuredParagraph struct {
	chars   linebreak.Clusters
	result  *linebreak.Result
	metrics TextMetrics
	res     Resolution
}

// measureParagraph 测量文本、量化为整数单位并调用内核断行。
// 内核报告字符宽于行宽时只记录警告，已排好的部分照常返回。
func measureParagraph(ts Typesetter, spec paragraphSpec, res Resolution) (*measuredParagraph, error) {
	chars := linebreak.SplitClusters(norm.NFC.String(spec.content))
	m, err := ts.MeasureText(chars, spec.font, spec.fontSize)
	if err != nil {
		return nil, fmt.Errorf("测量字体 %s 失败: %w", spec.font.Name, err)
	}
	if len(m.Advances) != len(chars) {
		return nil, fmt.Errorf("排版后端返回 %d 个字宽，文本有 %d 个字符", len(m.Advances), len(chars))
	}
	if spec.pitch > 0 {
		m.LinePitch = spec.pitch
	}
	pitch := res.ToUnits(m.LinePitch)
	if pitch <= 0 {
		return nil, fmt.Errorf("字体 %s 的行距 %gmm 过小", spec.font.Name, m.LinePitch)
	}

	result, err := linebreak.Layout(chars,
		res.quantize(m.Advances),
		res.ToUnits(m.SpaceWidth),
		res.ToUnits(spec.width),
		res.ToUnits(m.LineHeight),
		pitch,
	)
	switch {
	case errors.Is(err, linebreak.ErrUnbreakableRemainder):
		Logger().Warn("字符宽于行宽，段落被截断",
			"font", spec.font.Name,
			"width", spec.width,
			"stoppedAt", result.StoppedAt,
			"chars", len(chars))
	case err != nil:
		return nil, fmt.Errorf("段落断行失败: %w", err)
	}
	Logger().Debug("段落排版完成",
		"font", spec.font.Name,
		"size", spec.fontSize,
		"chars", len(chars),
		"lines", result.LineCount)

	return &measuredParagraph{chars: chars, result: result, metrics: m, res: res}, nil
}

// lineTop 返回第 i 行顶部（基线减去 LineHeight）相对段落顶部的位置。
func (p *measuredParagraph) lineTop(l linebreak.Line) float64 {
	return p.res.ToMM(l.Y) - p.metrics.LineHeight
}

// place 把一行的 span 转为相对坐标的词，offset 为所在分片顶部的位置。
func (p *measuredParagraph) place(l linebreak.Line, offset float64) []PlacedWord {
	spans := p.result.Words(l)
	out := make([]PlacedWord, 0, len(spans))
	for _, s := range spans {
		out = append(out, PlacedWord{
			Text:  p.chars.Slice(s.Start, s.End),
			Start: s.Start,
			End:   s.End,
			X:     p.res.ToMM(s.X),
			Y:     p.res.ToMM(s.Y) - offset,
		})
	}
	return out
}

func (p *measuredParagraph) debugSpans(l linebreak.Line) []SpanDebug {
	spans := p.result.Words(l)
	out := make([]SpanDebug, len(spans))
	for i, s := range spans {
		out[i] = SpanDebug{Start: s.Start, End: s.End, X: s.X, Y: s.Y}
	}
	return out
}

// contentHeight 段落内容高度：行数 × 行距 + 下伸部分；空段落占一行行距。
func contentHeight(lines int, m TextMetrics) float64 {
	if lines == 0 {
		return m.LinePitch
	}
	return float64(lines)*m.LinePitch + m.Descent
}
