// Package sfntmetrics measures text with golang.org/x/image/font/opentype.
// Advances come from the unhinted glyph metrics, with kerning between the
// runes of a single character included.
package sfntmetrics

import (
	"fmt"
	"math"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/ByLCY/justify/fonts"
	"github.com/ByLCY/justify/layout"
)

// Provider implements layout.Typesetter. It is safe for concurrent use.
type Provider struct {
	baseDir string

	mu    sync.Mutex
	fonts map[string]*opentype.Font // by src
	faces map[faceKey]font.Face
}

var _ layout.Typesetter = (*Provider)(nil)

type faceKey struct {
	src  string
	size float64 // pt
}

// New returns a provider resolving relative font paths against baseDir.
func New(baseDir string) *Provider {
	return &Provider{
		baseDir: baseDir,
		fonts:   map[string]*opentype.Font{},
		faces:   map[faceKey]font.Face{},
	}
}

// MeasureText implements layout.Typesetter.
func (p *Provider) MeasureText(chars []string, res layout.FontResource, fontSize float64) (layout.TextMetrics, error) {
	if fontSize <= 0 {
		return layout.TextMetrics{}, fmt.Errorf("字号必须为正数：%g", fontSize)
	}
	// font.Face keeps glyph buffers and is not safe for concurrent use
	p.mu.Lock()
	defer p.mu.Unlock()

	face, err := p.face(res, fontSize*layout.MmToPt)
	if err != nil {
		return layout.TextMetrics{}, err
	}
	adv := make([]float64, len(chars))
	for i, ch := range chars {
		adv[i] = toMM(font.MeasureString(face, ch))
	}
	m := face.Metrics()
	return layout.TextMetrics{
		Advances:   adv,
		SpaceWidth: toMM(font.MeasureString(face, " ")),
		LineHeight: toMM(m.Ascent),
		LinePitch:  toMM(m.Height),
		Descent:    math.Abs(toMM(m.Descent)),
	}, nil
}

func (p *Provider) face(res layout.FontResource, size float64) (font.Face, error) {
	f, src, err := p.font(res)
	if err != nil {
		return nil, err
	}
	key := faceKey{src: src, size: size}
	if face, ok := p.faces[key]; ok {
		return face, nil
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72, // 1px == 1pt
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("创建字体 %s 失败: %w", res.Name, err)
	}
	p.faces[key] = face
	return face, nil
}

// font parses the font of res, falling back to res.Fallback and then to the
// default builtin font. It returns the src that was actually used.
func (p *Provider) font(res layout.FontResource) (*opentype.Font, string, error) {
	f, err := p.parse(res.Src)
	if err == nil {
		return f, res.Src, nil
	}
	for _, src := range []string{res.Fallback, "builtin:" + fonts.Default} {
		if src == "" {
			continue
		}
		if fb, fbErr := p.parse(src); fbErr == nil {
			layout.Logger().Warn("字体加载失败，改用后备字体", "font", res.Name, "src", res.Src, "fallback", src, "err", err)
			return fb, src, nil
		}
	}
	return nil, "", err
}

func (p *Provider) parse(src string) (*opentype.Font, error) {
	if f, ok := p.fonts[src]; ok {
		return f, nil
	}
	data, err := fonts.Read(src, p.baseDir)
	if err != nil {
		return nil, err
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("解析字体 %s 失败: %w", src, err)
	}
	p.fonts[src] = f
	return f, nil
}

func toMM(v fixed.Int26_6) float64 {
	return float64(v) / 64 * layout.PtToMm
}
