package canvasrenderer

import (
	"bytes"
	"fmt"
	"image/color"
	"math"
	"os"
	"strings"
	"sync"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"
	"github.com/tdewolff/canvas/renderers/svg"

	"github.com/ByLCY/justify/fonts"
	"github.com/ByLCY/justify/layout"
	"github.com/ByLCY/justify/renderer"
)

// Output formats supported by Render.
const (
	FormatPDF = "pdf"
	FormatSVG = "svg"
)

// svgPageGap separates stacked pages in SVG output (mm).
const svgPageGap = 5.0

// Renderer draws layout results via github.com/tdewolff/canvas and measures
// glyphs with the same font faces, so what is laid out is what is drawn.
type Renderer struct {
	baseDir string
	format  string

	fontBlobs map[string][]byte // by unique name
	fontErrs  map[string]error  // read errors of Options.Fonts paths, by name

	fontMu         sync.Mutex
	fontFamilies   map[string]*fontFamilyEntry
	fallbackFamily *canvas.FontFamily
}

var (
	_ renderer.Renderer = (*Renderer)(nil)
	_ layout.Typesetter = (*Renderer)(nil)
)

type fontFamilyEntry struct {
	family *canvas.FontFamily
	style  canvas.FontStyle
}

// Options configures the canvas renderer.
type Options struct {
	BaseDir string
	Format  string              // FormatPDF (default) or FormatSVG
	Fonts   map[string]Resource // fonts reachable as builtin:<name>, taking precedence over the bundled ones
}

// Resource can be provided either by Bytes or by Path.
type Resource struct {
	Bytes []byte
	Path  string
}

// NewRenderer creates a PDF renderer rooted at baseDir for resolving font paths.
func NewRenderer(baseDir string) *Renderer { return NewRendererWithOptions(Options{BaseDir: baseDir}) }

// NewRendererWithOptions creates a renderer with injected fonts and output format.
func NewRendererWithOptions(opts Options) *Renderer {
	r := &Renderer{
		baseDir:      opts.BaseDir,
		format:       strings.ToLower(opts.Format),
		fontBlobs:    map[string][]byte{},
		fontErrs:     map[string]error{},
		fontFamilies: map[string]*fontFamilyEntry{},
	}
	if r.format == "" {
		r.format = FormatPDF
	}
	for name, res := range opts.Fonts {
		if name == "" {
			continue
		}
		if len(res.Bytes) > 0 {
			r.fontBlobs[name] = res.Bytes
			continue
		}
		if res.Path != "" {
			// read errors surface when the font is first used
			data, err := os.ReadFile(res.Path)
			switch {
			case err != nil:
				r.fontErrs[name] = err
			case len(data) == 0:
				r.fontErrs[name] = fmt.Errorf("字体文件 %s 为空", res.Path)
			default:
				r.fontBlobs[name] = data
			}
		}
	}
	return r
}

// Render renders the result into PDF or SVG bytes.
func (r *Renderer) Render(result *layout.Result) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("渲染结果为空")
	}
	if len(result.Pages) == 0 {
		return nil, fmt.Errorf("缺少可渲染的页面")
	}
	switch r.format {
	case FormatPDF:
		return r.renderPDF(result)
	case FormatSVG:
		return r.renderSVG(result)
	default:
		return nil, fmt.Errorf("不支持的输出格式：%s", r.format)
	}
}

func (r *Renderer) renderPDF(result *layout.Result) ([]byte, error) {
	var buf bytes.Buffer
	writer := pdf.New(&buf, result.Pages[0].Width, result.Pages[0].Height, nil)
	keywords := strings.Join(result.Meta.Keywords, ", ")
	writer.SetInfo(result.Meta.Title, result.Meta.Subject, keywords, result.Meta.Author, result.Meta.Creator)

	for i, page := range result.Pages {
		if i > 0 {
			writer.NewPage(page.Width, page.Height)
		}
		c := canvas.New(page.Width, page.Height)
		ctx := canvas.NewContext(c)
		ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与布局保持左上角为原点
		if err := r.drawPage(ctx, page, result.Resources, 0); err != nil {
			return nil, err
		}
		c.RenderTo(writer)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return buf.Bytes(), nil
}

// renderSVG stacks all pages vertically into a single drawing.
func (r *Renderer) renderSVG(result *layout.Result) ([]byte, error) {
	width, height := 0.0, 0.0
	for i, page := range result.Pages {
		width = math.Max(width, page.Width)
		if i > 0 {
			height += svgPageGap
		}
		height += page.Height
	}

	c := canvas.New(width, height)
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV)
	top := 0.0
	for _, page := range result.Pages {
		ctx.SetFillColor(canvas.White)
		ctx.DrawPath(0, top, canvas.Rectangle(page.Width, page.Height))
		if err := r.drawPage(ctx, page, result.Resources, top); err != nil {
			return nil, err
		}
		top += page.Height + svgPageGap
	}

	var buf bytes.Buffer
	writer := svg.New(&buf, width, height, nil)
	c.RenderTo(writer)
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("写入 SVG 失败: %w", err)
	}
	return buf.Bytes(), nil
}

// MeasureText implements layout.Typesetter. Sizes are in mm on both sides;
// the font system itself works in pt.
func (r *Renderer) MeasureText(chars []string, font layout.FontResource, fontSize float64) (layout.TextMetrics, error) {
	face, err := r.fontFace(font, toPt(fontSize), layout.Color{})
	if err != nil {
		return layout.TextMetrics{}, err
	}
	adv := make([]float64, len(chars))
	for i, ch := range chars {
		adv[i] = face.TextWidth(ch)
	}
	m := face.Metrics()
	return layout.TextMetrics{
		Advances:   adv,
		SpaceWidth: face.TextWidth(" "),
		LineHeight: m.Ascent,
		LinePitch:  m.LineHeight,
		Descent:    math.Abs(m.Descent),
	}, nil
}

func (r *Renderer) drawPage(ctx *canvas.Context, page layout.Page, resources layout.ResourceSet, top float64) error {
	for _, p := range page.Paragraphs {
		font, _ := resources.LookupFont(p.Font)
		if err := r.drawParagraph(ctx, p, font, top); err != nil {
			return err
		}
	}
	return nil
}

// drawParagraph draws every word at its own position; the gaps between the
// words of a justified line come from the layout, not from the font.
func (r *Renderer) drawParagraph(ctx *canvas.Context, p layout.Paragraph, fontRes layout.FontResource, top float64) error {
	if len(p.Words) == 0 {
		return nil
	}
	face, err := r.fontFace(fontRes, toPt(p.FontSize), p.Color)
	if err != nil {
		return err
	}
	for _, w := range p.Words {
		line := canvas.NewTextLine(face, w.Text, canvas.Left)
		ctx.DrawText(p.X+w.X, top+p.Y+w.Y, line)
	}
	return nil
}

func (r *Renderer) fontFace(font layout.FontResource, size float64, col layout.Color) (*canvas.FontFace, error) {
	family, style, err := r.ensureFontFamily(font)
	if err != nil {
		return nil, err
	}
	return family.Face(size, colorFromLayout(col), style, canvas.FontNormal), nil
}

func (r *Renderer) ensureFontFamily(font layout.FontResource) (*canvas.FontFamily, canvas.FontStyle, error) {
	key := fontCacheKey(font)
	r.fontMu.Lock()
	defer r.fontMu.Unlock()

	if entry, ok := r.fontFamilies[key]; ok {
		return entry.family, entry.style, nil
	}

	style := parseFontStyle(font.Style)
	familyName := font.Family
	if familyName == "" {
		familyName = font.Name
	}
	if familyName == "" {
		familyName = "Body"
	}
	family := canvas.NewFontFamily(familyName)

	if err := r.loadFontIntoFamily(family, font, style); err != nil {
		fallback, fbStyle, fbErr := r.fallback(font)
		if fbErr != nil {
			return nil, canvas.FontRegular, err
		}
		layout.Logger().Warn("字体加载失败，改用后备字体", "font", font.Name, "src", font.Src, "err", err)
		r.fontFamilies[key] = &fontFamilyEntry{family: fallback, style: fbStyle}
		return fallback, fbStyle, nil
	}

	entry := &fontFamilyEntry{family: family, style: style}
	r.fontFamilies[key] = entry
	return family, style, nil
}

func (r *Renderer) loadFontIntoFamily(family *canvas.FontFamily, font layout.FontResource, style canvas.FontStyle) error {
	data, err := r.loadFontBytes(font.Name, font.Src)
	if err != nil {
		return err
	}
	return family.LoadFont(data, 0, style)
}

func (r *Renderer) loadFontBytes(name, src string) ([]byte, error) {
	if builtin, ok := strings.CutPrefix(src, "builtin:"); ok {
		if blob, ok := r.fontBlobs[builtin]; ok {
			return blob, nil
		}
		if err, ok := r.fontErrs[builtin]; ok {
			return nil, fmt.Errorf("字体 %s: %w", name, err)
		}
	}
	data, err := fonts.Read(src, r.baseDir)
	if err != nil {
		return nil, fmt.Errorf("字体 %s: %w", name, err)
	}
	return data, nil
}

// fallback 优先使用字体声明的 fallback，其次是内置默认字体。
func (r *Renderer) fallback(font layout.FontResource) (*canvas.FontFamily, canvas.FontStyle, error) {
	if font.Fallback != "" {
		if data, err := r.loadFontBytes(font.Name, font.Fallback); err == nil {
			family := canvas.NewFontFamily(font.Name + "-fallback")
			if err := family.LoadFont(data, 0, canvas.FontRegular); err == nil {
				return family, canvas.FontRegular, nil
			}
		}
	}
	if r.fallbackFamily != nil {
		return r.fallbackFamily, canvas.FontRegular, nil
	}
	data, err := fonts.Load(fonts.Default)
	if err != nil {
		return nil, canvas.FontRegular, err
	}
	family := canvas.NewFontFamily("justify-fallback")
	if err := family.LoadFont(data, 0, canvas.FontRegular); err != nil {
		return nil, canvas.FontRegular, err
	}
	r.fallbackFamily = family
	return family, canvas.FontRegular, nil
}

func parseFontStyle(style string) canvas.FontStyle {
	if style == "" {
		return canvas.FontRegular
	}
	s := strings.ToLower(style)
	var result canvas.FontStyle
	switch {
	case strings.Contains(s, "black"):
		result = canvas.FontBlack
	case strings.Contains(s, "extrabold"):
		result = canvas.FontExtraBold
	case strings.Contains(s, "semibold"), strings.Contains(s, "demibold"):
		result = canvas.FontSemiBold
	case strings.Contains(s, "bold"):
		result = canvas.FontBold
	case strings.Contains(s, "medium"):
		result = canvas.FontMedium
	case strings.Contains(s, "light"):
		result = canvas.FontLight
	default:
		result = canvas.FontRegular
	}
	if strings.Contains(s, "italic") || strings.Contains(s, "oblique") {
		result |= canvas.FontItalic
	}
	return result
}

func fontCacheKey(font layout.FontResource) string {
	return fmt.Sprintf("%s|%s|%s", font.Name, font.Src, font.Style)
}

func colorFromLayout(c layout.Color) color.Color {
	return canvas.RGBA(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0, 1.0)
}

// toPt 将毫米(mm)转换为点(pt)。
func toPt(mm float64) float64 { return mm * layout.MmToPt }
