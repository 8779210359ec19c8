package layout

import (
	"fmt"
	"strings"

	"github.com/ByLCY/justify/binding"
	"github.com/ByLCY/justify/dsl"
	"github.com/ByLCY/justify/linebreak"
)

const (
	// paragraphSpacing 是相邻 text 之间的默认竖向间距（mm）。
	paragraphSpacing = 3.0
	defaultFontSize  = 12.0 // pt
)

// Build 根据 DSL AST 生成分页后的两端对齐段落。
// data 为可选的 JSON 数据，用于替换文本中的 ${path} 占位符。
func Build(doc *dsl.Document, data []byte, opts BuildOptions) (*Result, error) {
	if doc == nil {
		return nil, fmt.Errorf("文档为空")
	}
	if opts.Typesetter == nil {
		return nil, fmt.Errorf("layout: 缺少排版后端 Typesetter")
	}

	res, err := collectResources(doc)
	if err != nil {
		return nil, err
	}
	meta := collectMeta(doc)
	sections := doc.Pages()
	if len(sections) == 0 {
		return nil, fmt.Errorf("文档中缺少 page 段落")
	}

	collector := &pageCollector{}
	for _, section := range sections {
		if err := buildSection(section, collector, res, data, opts); err != nil {
			return nil, err
		}
	}

	return &Result{
		Pages:     collector.pages(),
		Resources: res,
		Meta:      meta,
	}, nil
}

// buildSection 从新的一页开始排版一个 page 段落。
func buildSection(section *dsl.PageSection, collector *pageCollector, res ResourceSet, data []byte, opts BuildOptions) error {
	width, height, err := resolvePageSize(section.Spec)
	if err != nil {
		return err
	}
	if section.Block == nil {
		return fmt.Errorf("page 段落缺少内容")
	}
	margin := resolveMargin(section.Spec.Params)
	if width-margin.Left-margin.Right <= 0 || height-margin.Top-margin.Bottom <= 0 {
		return fmt.Errorf("page %s 的边距超出了纸张大小", section.Spec.Size)
	}
	collector.startSection(width, height, margin)

	root := &flowContext{
		baseX:          margin.Left,
		width:          width - margin.Left - margin.Right,
		cursorY:        collector.contentTop(),
		spacing:        paragraphSpacing,
		data:           data,
		typesetter:     opts.Typesetter,
		resolution:     opts.resolution(),
		debug:          opts.Debug,
		collector:      collector,
		allowPageBreak: true,
	}
	return processBlock(section.Block, root, res)
}

// processBlock 依次处理 block 内的命令：flow、text 与 skip，其余命令忽略。
func processBlock(block *dsl.Block, ctx *flowContext, res ResourceSet) error {
	for _, stmt := range block.Statements {
		if stmt.Command == nil {
			continue
		}
		cmd := stmt.Command
		var err error
		switch cmd.Name {
		case "flow":
			err = handleFlow(cmd, ctx, res)
		case "text":
			err = handleText(cmd, ctx, res)
		case "skip":
			err = handleSkip(cmd, ctx)
		case "pagebreak":
			ctx.pageBreak()
		}
		if err != nil {
			return err
		}
	}
	return nil
}

type flowContext struct {
	baseX          float64
	width          float64
	cursorY        float64
	spacing        float64
	data           []byte
	typesetter     Typesetter
	resolution     Resolution
	debug          DebugOptions
	parent         *flowContext
	collector      *pageCollector
	allowPageBreak bool
}

// handleFlow 开启一个缩进或限宽的子区域，子区域内的段落继承其间距。
func handleFlow(cmd *dsl.Command, parent *flowContext, res ResourceSet) error {
	if cmd.Block == nil {
		return fmt.Errorf("flow 语句缺少子内容")
	}
	styleName, attrs := parseArgs(cmd.Args, false)
	attrs = mergeStyleAttributes(styleName, attrs, res.Styles)

	indent := parseDimension(attrs["indent"], parent.width)
	if indent < 0 || indent >= parent.width {
		indent = 0
	}
	width := parent.width - indent
	if v := attrs["width"]; v != "" {
		if w := parseDimension(v, parent.width); w > 0 && w < width {
			width = w
		}
	}
	spacing := parent.spacing
	if v, ok := attrs["paragraph-spacing"]; ok {
		if l, ok := ParseLength(v); ok && l.Value >= 0 {
			spacing = l.ToMM()
		}
	}

	child := &flowContext{
		baseX:          parent.baseX + indent,
		width:          width,
		cursorY:        parent.cursorY,
		spacing:        spacing,
		data:           parent.data,
		typesetter:     parent.typesetter,
		resolution:     parent.resolution,
		debug:          parent.debug,
		parent:         parent,
		collector:      parent.collector,
		allowPageBreak: parent.allowPageBreak,
	}
	if err := processBlock(cmd.Block, child, res); err != nil {
		return err
	}
	if child.cursorY > parent.cursorY {
		parent.cursorY = child.cursorY
	}
	return nil
}

// handleSkip 插入竖向空白，例如 `skip 8mm`。
func handleSkip(cmd *dsl.Command, ctx *flowContext) error {
	if len(cmd.Args) == 0 {
		return fmt.Errorf("skip 语句缺少长度")
	}
	l, ok := ParseLength(cmd.Args[0].Value)
	if !ok || l.Value < 0 {
		return fmt.Errorf("skip 长度无效：%s", cmd.Args[0].Value)
	}
	h := l.ToMM()
	if ctx.cursorY+h > ctx.collector.contentBottom() && ctx.allowPageBreak {
		ctx.pageBreak()
		return nil
	}
	ctx.cursorY += h
	return nil
}

func handleText(cmd *dsl.Command, ctx *flowContext, res ResourceSet) error {
	content, ok := extractText(cmd.Block)
	if !ok {
		return fmt.Errorf("text 语句缺少文本内容")
	}
	styleName, attrs := parseArgs(cmd.Args, true)
	attrs = mergeStyleAttributes(styleName, attrs, res.Styles)

	st, err := composeStyle(styleName, attrs, ctx, res)
	if err != nil {
		return err
	}
	content = binding.Interpolate(content, ctx.data)

	for _, part := range splitHardBreaks(content) {
		if err := ctx.placeParagraph(st, part); err != nil {
			return err
		}
	}
	ctx.cursorY += st.spacing
	return nil
}

// textStyle 是合并样式与内联属性后的段落参数。
type textStyle struct {
	font       FontResource
	fontSize   Length
	lineHeight *LineHeightSpec
	color      Color
	x          float64
	width      float64
	height     float64 // >0 表示固定高度，段落不跨页
	spacing    float64
	raw        *RawUnits
}

func composeStyle(styleName string, attrs map[string]string, ctx *flowContext, res ResourceSet) (textStyle, error) {
	fontName := attrs["font"]
	if fontName == "" {
		fontName = styleName
	}
	font, err := resolveFontResource(fontName, res)
	if err != nil {
		return textStyle{}, err
	}

	st := textStyle{
		font:     font,
		fontSize: Length{Value: defaultFontSize, Unit: UnitPT},
		color:    resolveColor(attrs["color"], res),
		x:        ctx.baseX,
		width:    ctx.width,
		spacing:  ctx.spacing,
	}
	if l, ok := ParseLength(attrs["size"]); ok && l.Value > 0 {
		if l.Unit == UnitNone {
			l.Unit = UnitPT
		}
		st.fontSize = l
	}
	if v := strings.TrimSpace(attrs["line-height"]); v != "" {
		spec, ok := ParseLineHeight(v)
		if !ok {
			return textStyle{}, fmt.Errorf("line-height 无效：%s", v)
		}
		st.lineHeight = &spec
	}
	if indent := parseDimension(attrs["indent"], ctx.width); indent > 0 && indent < ctx.width {
		st.x += indent
		st.width -= indent
	}
	if v := attrs["width"]; v != "" {
		w := parseDimension(v, ctx.width)
		if w <= 0 {
			return textStyle{}, fmt.Errorf("text 宽度无效：%s", v)
		}
		if w < st.width {
			st.width = w
		}
	}
	if v := attrs["height"]; v != "" {
		if st.height = parseMM(v); st.height <= 0 {
			return textStyle{}, fmt.Errorf("text 高度无效：%s", v)
		}
	}
	if v, ok := attrs["paragraph-spacing"]; ok {
		if l, ok := ParseLength(v); ok && l.Value >= 0 {
			st.spacing = l.ToMM()
		}
	}
	if ctx.debug.RawUnits {
		st.raw = rawUnits(st)
	}
	return st, nil
}

func rawUnits(st textStyle) *RawUnits {
	size := &RawLengthJSON{Value: st.fontSize.Value, Unit: st.fontSize.Unit.String()}
	lh := &RawLineHeightJSON{Kind: "metrics"}
	if spec := st.lineHeight; spec != nil {
		if spec.Kind == LineHeightFactor {
			lh = &RawLineHeightJSON{Kind: "factor", Factor: spec.Factor}
		} else {
			lh = &RawLineHeightJSON{Kind: "absolute", Value: spec.Len.Value, Unit: spec.Len.Unit.String()}
		}
	}
	return &RawUnits{FontSize: size, LineHeight: lh}
}

// placeParagraph 断行一段文本并按行放入页面，超出内容区底部的行续排到下一页。
func (ctx *flowContext) placeParagraph(st textStyle, content string) error {
	spec := paragraphSpec{
		content:  content,
		width:    st.width,
		font:     st.font,
		fontSize: st.fontSize.ToMM(),
	}
	if st.lineHeight != nil {
		spec.pitch = st.lineHeight.ResolveMM(st.fontSize)
	}
	mp, err := measureParagraph(ctx.typesetter, spec, ctx.resolution)
	if err != nil {
		return err
	}

	m := mp.metrics
	base := Paragraph{
		X:          st.x,
		Width:      st.width,
		Font:       st.font.Name,
		FontSize:   spec.fontSize,
		Color:      st.color,
		LineHeight: m.LineHeight,
		LinePitch:  m.LinePitch,
		Descent:    m.Descent,
		Truncated:  mp.result.Truncated,
	}
	lines := mp.result.Lines()

	if st.height > 0 {
		ctx.ensureSpace(st.height)
		p := ctx.fragment(base, st)
		for _, l := range lines {
			ctx.addLine(&p, mp, l, 0)
		}
		p.Height = st.height
		ctx.commit(p)
		return nil
	}

	if len(lines) == 0 {
		h := contentHeight(0, m)
		ctx.ensureSpace(h)
		p := ctx.fragment(base, st)
		p.Height = h
		ctx.commit(p)
		return nil
	}

	p := ctx.fragment(base, st)
	offset := 0.0
	for _, l := range lines {
		bottom := p.Y + mp.res.ToMM(l.Y) - offset + m.Descent
		if bottom > ctx.collector.contentBottom() && ctx.canBreak(p) {
			if p.LineCount > 0 {
				p.Height = contentHeight(p.LineCount, m)
				ctx.commit(p)
			}
			ctx.pageBreak()
			offset = mp.lineTop(l)
			p = ctx.fragment(base, st)
			p.Continued = offset > 0
		}
		ctx.addLine(&p, mp, l, offset)
	}
	p.Height = contentHeight(p.LineCount, m)
	ctx.commit(p)
	return nil
}

// fragment 在当前光标处开始段落的一个分片。
func (ctx *flowContext) fragment(base Paragraph, st textStyle) Paragraph {
	p := base
	p.Y = ctx.cursorY
	if st.raw != nil || ctx.debug.Spans {
		p.Debug = &ParagraphDebug{RawUnits: st.raw}
		if ctx.debug.Spans {
			p.Debug.Resolution = float64(ctx.resolution)
		}
	}
	return p
}

func (ctx *flowContext) addLine(p *Paragraph, mp *measuredParagraph, l linebreak.Line, offset float64) {
	p.Words = append(p.Words, mp.place(l, offset)...)
	p.LineCount++
	if ctx.debug.Spans {
		p.Debug.Spans = append(p.Debug.Spans, mp.debugSpans(l)...)
	}
}

// commit 写入分片并把光标移到其底部。
func (ctx *flowContext) commit(p Paragraph) {
	ctx.collector.curr().appendParagraph(p)
	ctx.cursorY = p.Y + p.Height
}

// canBreak 避免在已经位于页顶的空分片前换页。
func (ctx *flowContext) canBreak(p Paragraph) bool {
	if !ctx.allowPageBreak {
		return false
	}
	return p.LineCount > 0 || ctx.cursorY > ctx.collector.contentTop()
}

func (ctx *flowContext) ensureSpace(height float64) {
	if !ctx.allowPageBreak {
		return
	}
	if ctx.cursorY+height <= ctx.collector.contentBottom() {
		return
	}
	if ctx.cursorY <= ctx.collector.contentTop() {
		return
	}
	ctx.pageBreak()
}

func (ctx *flowContext) pageBreak() {
	if ctx.parent != nil {
		ctx.parent.pageBreak()
		ctx.cursorY = ctx.parent.cursorY
		return
	}
	ctx.collector.newPage()
	ctx.cursorY = ctx.collector.contentTop()
}

func parseArgs(args []*dsl.Lexeme, allowStyle bool) (string, map[string]string) {
	result := map[string]string{}
	if len(args) == 0 {
		return "", result
	}

	cursor := 0
	var style string
	if allowStyle && args[0].Type == "Ident" && len(args)%2 == 1 {
		style = args[0].Value
		cursor = 1
	}
	for cursor < len(args)-1 {
		result[args[cursor].Value] = args[cursor+1].Value
		cursor += 2
	}
	return style, result
}

func mergeStyleAttributes(style string, inline map[string]string, styles map[string]Style) map[string]string {
	out := make(map[string]string)
	if s, ok := styles[style]; ok {
		for k, v := range s.Props {
			out[k] = v
		}
	}
	for k, v := range inline {
		out[k] = v
	}
	return out
}

// extractText 拼接 block 中的字符串；没有任何字符串时 ok 为 false。
func extractText(block *dsl.Block) (string, bool) {
	if block == nil {
		return "", false
	}
	var (
		builder strings.Builder
		found   bool
	)
	for _, stmt := range block.Statements {
		if stmt.Text != nil {
			builder.WriteString(string(stmt.Text.Value))
			found = true
		}
	}
	return builder.String(), found
}

// splitHardBreaks 按换行拆成独立段落，制表符视作空格。
func splitHardBreaks(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\t", " ")
	return strings.Split(content, "\n")
}

// Texts 按文档顺序返回所有段落文本（已完成数据替换并按换行拆分），
// 供终端预览等不需要页面几何的场景使用。
func Texts(doc *dsl.Document, data []byte) []string {
	var out []string
	var walk func(block *dsl.Block)
	walk = func(block *dsl.Block) {
		if block == nil {
			return
		}
		for _, stmt := range block.Statements {
			cmd := stmt.Command
			if cmd == nil {
				continue
			}
			switch cmd.Name {
			case "flow":
				walk(cmd.Block)
			case "text":
				if content, ok := extractText(cmd.Block); ok {
					out = append(out, splitHardBreaks(binding.Interpolate(content, data))...)
				}
			}
		}
	}
	for _, page := range doc.Pages() {
		walk(page.Block)
	}
	return out
}
