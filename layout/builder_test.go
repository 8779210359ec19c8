package layout

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/ByLCY/justify/dsl"
)

// stubTypesetter 以固定度量代替真实字体：每个字符 2mm，空格 1mm，
// 首行基线 4mm，行距 5mm，下伸 1mm。避免测试依赖 renderer。
type stubTypesetter struct {
	advances int // 返回的字宽个数，<0 表示与输入一致
}

func (s *stubTypesetter) MeasureText(chars []string, font FontResource, fontSize float64) (TextMetrics, error) {
	n := len(chars)
	if s.advances >= 0 {
		n = s.advances
	}
	adv := make([]float64, n)
	for i := range adv {
		adv[i] = 2
	}
	return TextMetrics{Advances: adv, SpaceWidth: 1, LineHeight: 4, LinePitch: 5, Descent: 1}, nil
}

func build(t *testing.T, dslText string, data []byte, opts BuildOptions) *Result {
	t.Helper()
	doc, err := dsl.ParseString(dslText)
	if err != nil {
		t.Fatalf("解析 DSL 失败: %v", err)
	}
	if opts.Typesetter == nil {
		opts.Typesetter = &stubTypesetter{advances: -1}
	}
	res, err := Build(doc, data, opts)
	if err != nil {
		t.Fatalf("布局计算失败: %v", err)
	}
	return res
}

func paragraphs(res *Result) []Paragraph {
	var out []Paragraph
	for _, p := range res.Pages {
		out = append(out, p.Paragraphs...)
	}
	return out
}

func wordTexts(p Paragraph) string {
	parts := make([]string, len(p.Words))
	for i, w := range p.Words {
		parts[i] = w.Text
	}
	return strings.Join(parts, "|")
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestSingleLineKeepsNaturalSpacing(t *testing.T) {
	res := build(t, `doc T v1 { page A4 margin 10mm { text { "aaaa bbbb" } } }`, nil, BuildOptions{})
	ps := paragraphs(res)
	if len(ps) != 1 {
		t.Fatalf("期望 1 个段落，实际 %d", len(ps))
	}
	p := ps[0]
	if p.X != 10 || p.Y != 10 || p.Width != 190 {
		t.Fatalf("段落位置错误: x=%g y=%g w=%g", p.X, p.Y, p.Width)
	}
	if p.LineCount != 1 || !near(p.Height, 6) {
		t.Fatalf("单行段落高度应为 1*5+1，实际 lines=%d height=%g", p.LineCount, p.Height)
	}
	want := []PlacedWord{
		{Text: "aaaa", Start: 0, End: 4, X: 0, Y: 4},
		{Text: "bbbb", Start: 5, End: 9, X: 9, Y: 4},
	}
	if len(p.Words) != len(want) {
		t.Fatalf("词数错误: %s", wordTexts(p))
	}
	for i, w := range want {
		if got := p.Words[i]; got.Text != w.Text || got.Start != w.Start || got.End != w.End || !near(got.X, w.X) || !near(got.Y, w.Y) {
			t.Fatalf("word %d: got %+v, want %+v", i, got, w)
		}
	}
}

func TestJustifiedLinesFillWidth(t *testing.T) {
	res := build(t, `doc T v1 { page A4 margin 10mm { text width 20mm { "aaa bbb ccc ddd" } } }`, nil, BuildOptions{})
	p := paragraphs(res)[0]
	if p.LineCount != 2 || !near(p.Height, 11) {
		t.Fatalf("期望两行、高度 11，实际 lines=%d height=%g", p.LineCount, p.Height)
	}
	xs := []float64{0, 7, 14, 0}
	ys := []float64{4, 4, 4, 9}
	if wordTexts(p) != "aaa|bbb|ccc|ddd" {
		t.Fatalf("词序列错误: %s", wordTexts(p))
	}
	for i, w := range p.Words {
		if !near(w.X, xs[i]) || !near(w.Y, ys[i]) {
			t.Fatalf("word %q 位于 (%g,%g)，期望 (%g,%g)", w.Text, w.X, w.Y, xs[i], ys[i])
		}
	}
	// 两端对齐行的最后一个词右端与行宽对齐
	last := p.Words[2]
	if !near(last.X+float64(last.End-last.Start)*2, p.Width) {
		t.Fatalf("首行未填满行宽: %+v", last)
	}
}

func TestEmptyParagraphOccupiesOnePitch(t *testing.T) {
	res := build(t, `doc T v1 { page A4 margin 10mm {
  text { "" }
  text { "   " }
  text { "x" }
} }`, nil, BuildOptions{})
	ps := paragraphs(res)
	if len(ps) != 3 {
		t.Fatalf("期望 3 个段落，实际 %d", len(ps))
	}
	for i := 0; i < 2; i++ {
		if ps[i].LineCount != 0 || len(ps[i].Words) != 0 || !near(ps[i].Height, 5) {
			t.Fatalf("空段落 %d 应占一个行距: %+v", i, ps[i])
		}
	}
	// 段落之间默认间距 3mm
	if !near(ps[1].Y, ps[0].Y+5+3) || !near(ps[2].Y, ps[1].Y+5+3) {
		t.Fatalf("段落间距错误: %g %g %g", ps[0].Y, ps[1].Y, ps[2].Y)
	}
}

func TestExactHeightOverridesContent(t *testing.T) {
	res := build(t, `doc T v1 { page A4 margin 10mm {
  text width 20mm height 30mm paragraph-spacing 0mm { "aaa bbb ccc ddd" }
  text { "next" }
} }`, nil, BuildOptions{})
	ps := paragraphs(res)
	if !near(ps[0].Height, 30) || ps[0].LineCount != 2 {
		t.Fatalf("固定高度段落错误: height=%g lines=%d", ps[0].Height, ps[0].LineCount)
	}
	if !near(ps[1].Y, ps[0].Y+30) {
		t.Fatalf("下一段应紧接固定高度之后: %g", ps[1].Y)
	}
}

func TestHardBreaksStartNewParagraphs(t *testing.T) {
	res := build(t, `doc T v1 { page A4 margin 10mm { text { "aaa\nbbb\tccc" } } }`, nil, BuildOptions{})
	ps := paragraphs(res)
	if len(ps) != 2 {
		t.Fatalf("换行应拆成 2 段，实际 %d", len(ps))
	}
	if wordTexts(ps[1]) != "bbb|ccc" {
		t.Fatalf("制表符应视作空格: %s", wordTexts(ps[1]))
	}
	if !near(ps[1].Y, ps[0].Y+ps[0].Height) {
		t.Fatalf("同一 text 内的段落之间不加间距: %g vs %g", ps[1].Y, ps[0].Y+ps[0].Height)
	}
}

func TestLinesContinueOnNextPage(t *testing.T) {
	text := strings.Repeat("aaa ", 200)
	res := build(t, `doc T v1 { page A5 margin 10mm { text width 20mm { "`+text+`" } } }`, nil, BuildOptions{})
	if len(res.Pages) != 2 {
		t.Fatalf("期望 2 页，实际 %d", len(res.Pages))
	}
	first := res.Pages[0].Paragraphs[0]
	second := res.Pages[1].Paragraphs[0]
	if first.Continued || !second.Continued {
		t.Fatalf("续排标记错误: %v %v", first.Continued, second.Continued)
	}
	bottom := res.Pages[0].Height - res.Pages[0].Margin.Bottom
	for _, w := range first.Words {
		if first.Y+w.Y+first.Descent > bottom+1e-9 {
			t.Fatalf("第一页的词越过内容区底部: %+v", w)
		}
	}
	if first.LineCount != 38 {
		t.Fatalf("第一页应容纳 38 行，实际 %d", first.LineCount)
	}
	if !near(second.Y, 10) || !near(second.Words[0].Y, 4) {
		t.Fatalf("续排分片应从页顶开始: y=%g first baseline=%g", second.Y, second.Words[0].Y)
	}
	if got := len(first.Words) + len(second.Words); got != 200 {
		t.Fatalf("分页丢失了词: %d", got)
	}
	if first.LineCount+second.LineCount != 67 {
		t.Fatalf("总行数错误: %d", first.LineCount+second.LineCount)
	}
}

func TestUnbreakableCharacterTruncates(t *testing.T) {
	res := build(t, `doc T v1 { page A4 margin 10mm { text width 1mm { "ab" } } }`, nil, BuildOptions{})
	p := paragraphs(res)[0]
	if !p.Truncated || len(p.Words) != 0 {
		t.Fatalf("期望截断且无词: %+v", p)
	}
}

func TestDataBinding(t *testing.T) {
	res := build(t, `doc T v1 { page A4 margin 10mm { text { "Hi ${user.name}!" } } }`,
		[]byte(`{"user":{"name":"Ada"}}`), BuildOptions{})
	if got := wordTexts(paragraphs(res)[0]); got != "Hi|Ada!" {
		t.Fatalf("数据绑定失败: %s", got)
	}
}

func TestStylesAndLineHeight(t *testing.T) {
	res := build(t, `doc T v1 {
  resources {
    font Serif { src: "builtin:lmroman10" }
    color Ink = #102030
    style Base { font: Serif size: 10pt color: Ink }
    style Loose extends Base { line-height: 8mm }
  }
  page A4 margin 10mm { text Loose width 20mm { "aaa bbb ccc ddd" } }
}`, nil, BuildOptions{})
	p := paragraphs(res)[0]
	if p.Font != "Serif" || p.Color != (Color{R: 0x10, G: 0x20, B: 0x30}) {
		t.Fatalf("样式继承失败: font=%s color=%+v", p.Font, p.Color)
	}
	if !near(p.FontSize, 10*PtToMm) || !near(p.LinePitch, 8) {
		t.Fatalf("字号或行距错误: size=%g pitch=%g", p.FontSize, p.LinePitch)
	}
	if !near(p.Words[3].Y, 4+8) || !near(p.Height, 2*8+1) {
		t.Fatalf("行距覆盖未生效: y=%g height=%g", p.Words[3].Y, p.Height)
	}
	if !res.Resources.Fonts["Serif"].IsBuiltin || res.Resources.Fonts["Serif"].Base != "lmroman10" {
		t.Fatalf("内置字体解析错误: %+v", res.Resources.Fonts["Serif"])
	}
}

func TestStyleCycleIsRejected(t *testing.T) {
	doc, err := dsl.ParseString(`doc T v1 {
  resources {
    style A extends B { size: 10pt }
    style B extends A { size: 11pt }
  }
  page A4 { text A { "x" } }
}`)
	if err != nil {
		t.Fatalf("解析 DSL 失败: %v", err)
	}
	if _, err := Build(doc, nil, BuildOptions{Typesetter: &stubTypesetter{advances: -1}}); err == nil {
		t.Fatalf("循环继承应报错")
	}
}

func TestTypesetterMismatchIsAnError(t *testing.T) {
	doc, err := dsl.ParseString(`doc T v1 { page A4 { text { "abc" } } }`)
	if err != nil {
		t.Fatalf("解析 DSL 失败: %v", err)
	}
	if _, err := Build(doc, nil, BuildOptions{Typesetter: &stubTypesetter{advances: 1}}); err == nil {
		t.Fatalf("字宽个数不符应报错")
	}
	if _, err := Build(doc, nil, BuildOptions{}); err == nil {
		t.Fatalf("缺少 Typesetter 应报错")
	}
}

type failingTypesetter struct{}

var errNoFont = errors.New("no such font")

func (failingTypesetter) MeasureText([]string, FontResource, float64) (TextMetrics, error) {
	return TextMetrics{}, errNoFont
}

func TestTypesetterErrorIsWrapped(t *testing.T) {
	doc, _ := dsl.ParseString(`doc T v1 { page A4 { text { "abc" } } }`)
	_, err := Build(doc, nil, BuildOptions{Typesetter: failingTypesetter{}})
	if !errors.Is(err, errNoFont) {
		t.Fatalf("期望包装后端错误，实际 %v", err)
	}
}

// TestDebugOutput 验证 RawUnits 与 Spans 两类调试字段。
func TestDebugOutput(t *testing.T) {
	res := build(t, `doc D v1 {
  resources { style S1 { size: 12pt line-height: 1.2x } }
  page A4 margin 10mm { text S1 width 20mm { "aaa bbb ccc ddd" } }
}`, nil, BuildOptions{Debug: DebugOptions{RawUnits: true, Spans: true}})
	p := paragraphs(res)[0]
	if p.Debug == nil || p.Debug.RawUnits == nil {
		t.Fatalf("缺少 debug.rawUnits")
	}
	if lh := p.Debug.RawUnits.LineHeight; lh.Kind != "factor" || lh.Factor != 1.2 {
		t.Fatalf("行高应为 factor 语义，实际: %#v", lh)
	}
	if fs := p.Debug.RawUnits.FontSize; fs.Unit != "pt" || fs.Value != 12 {
		t.Fatalf("字号应为 12pt，实际: %#v", fs)
	}
	if p.Debug.Resolution != float64(DefaultResolution) || len(p.Debug.Spans) != len(p.Words) {
		t.Fatalf("debug.spans 与词数不符: %d vs %d", len(p.Debug.Spans), len(p.Words))
	}
	if p.Debug.Spans[1].X != 7000 {
		t.Fatalf("整数单位坐标错误: %+v", p.Debug.Spans[1])
	}

	var buf bytes.Buffer
	if err := EncodeDebugJSON(&buf, res); err != nil {
		t.Fatalf("输出调试 JSON 失败: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("调试 JSON 无法解析: %v", err)
	}
	if !strings.Contains(buf.String(), `"rawUnits"`) {
		t.Fatalf("调试 JSON 缺少 rawUnits 字段")
	}
}

// TestResolveMarginVariants 验证 margin 支持 1-4 个值。
func TestResolveMarginVariants(t *testing.T) {
	cases := []struct {
		spec string
		want Margin
	}{
		{"A4", Margin{Top: 20, Right: 20, Bottom: 20, Left: 20}},
		{"A4 margin 10mm", Margin{Top: 10, Right: 10, Bottom: 10, Left: 10}},
		{"A4 margin 10mm 5mm", Margin{Top: 10, Right: 5, Bottom: 10, Left: 5}},
		{"A4 margin 10mm 5mm 8mm", Margin{Top: 10, Right: 5, Bottom: 8, Left: 5}},
		{"A4 margin 1cm 2mm 3mm 4mm landscape", Margin{Top: 10, Right: 2, Bottom: 3, Left: 4}},
	}
	for _, tc := range cases {
		res := build(t, `doc M v1 { page `+tc.spec+` { text { "x" } } }`, nil, BuildOptions{})
		if got := res.Pages[0].Margin; got != tc.want {
			t.Fatalf("%s: got %+v, want %+v", tc.spec, got, tc.want)
		}
	}
}

func TestPageSizes(t *testing.T) {
	res := build(t, `doc P v1 {
  page A4 landscape { text { "a" } }
  page Letter { text { "b" } }
}`, nil, BuildOptions{})
	if len(res.Pages) != 2 {
		t.Fatalf("每个 page 段落应从新页开始，实际 %d 页", len(res.Pages))
	}
	if res.Pages[0].Width != 297 || res.Pages[0].Height != 210 {
		t.Fatalf("A4 横向尺寸错误: %gx%g", res.Pages[0].Width, res.Pages[0].Height)
	}
	if res.Pages[1].Width != 215.9 {
		t.Fatalf("Letter 宽度错误: %g", res.Pages[1].Width)
	}
}

func TestFlowIndent(t *testing.T) {
	res := build(t, `doc F v1 { page A4 margin 10mm {
  flow indent 15mm paragraph-spacing 1mm {
    text { "a" }
    text { "b" }
  }
  text { "c" }
} }`, nil, BuildOptions{})
	ps := paragraphs(res)
	if ps[0].X != 25 || ps[0].Width != 175 {
		t.Fatalf("flow 缩进错误: x=%g w=%g", ps[0].X, ps[0].Width)
	}
	if !near(ps[1].Y, ps[0].Y+ps[0].Height+1) {
		t.Fatalf("flow 内间距错误: %g", ps[1].Y)
	}
	if ps[2].X != 10 || !near(ps[2].Y, ps[1].Y+ps[1].Height+1) {
		t.Fatalf("flow 之后应回到外层: x=%g y=%g", ps[2].X, ps[2].Y)
	}
}

func TestTextsWalksFlowsInOrder(t *testing.T) {
	doc, err := dsl.ParseString(`doc T v1 {
  page A5 {
    text { "one ${n}" }
    flow indent 5mm {
      text { "two\nthree" }
    }
    skip 4mm
    text { "four" }
  }
}`)
	if err != nil {
		t.Fatalf("解析 DSL 失败: %v", err)
	}
	got := strings.Join(Texts(doc, []byte(`{"n": 1}`)), "|")
	if got != "one 1|two|three|four" {
		t.Fatalf("unexpected texts %q", got)
	}
}

// 行宽与容器宽度恰好相等且后面紧跟换行时，不应产生额外的空段落。
func TestExactFitThenHardBreak(t *testing.T) {
	res := build(t, `doc T v1 { page A4 { text width 8mm { "aaaa\nbb" } } }`, nil, BuildOptions{})
	ps := paragraphs(res)
	if len(ps) != 2 {
		t.Fatalf("期望 2 个段落，实际 %d", len(ps))
	}
	if ps[0].LineCount != 1 || wordTexts(ps[0]) != "aaaa" {
		t.Fatalf("第一段应为单行 aaaa: %+v", ps[0])
	}
	if ps[1].LineCount != 1 || wordTexts(ps[1]) != "bb" {
		t.Fatalf("第二段应为单行 bb: %+v", ps[1])
	}
	if !near(ps[1].Y, ps[0].Y+ps[0].Height) {
		t.Fatalf("硬换行之间不应有段间距: %g vs %g", ps[1].Y, ps[0].Y+ps[0].Height)
	}
}
