// Package hbmetrics measures text by shaping it with the HarfBuzz port in
// github.com/go-text/typesetting. The whole paragraph is shaped at once and
// every glyph advance is credited to the character owning its cluster, so
// kerning and ligatures are part of the advance table.
package hbmetrics

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"

	"github.com/ByLCY/justify/fonts"
	"github.com/ByLCY/justify/layout"
)

// Provider implements layout.Typesetter. It is safe for concurrent use.
type Provider struct {
	baseDir string
	lang    language.Language

	mu     sync.Mutex
	fonts  map[string]*font.Font // by src
	shaper shaping.HarfbuzzShaper
}

var _ layout.Typesetter = (*Provider)(nil)

// New returns a provider resolving relative font paths against baseDir and
// shaping for English.
func New(baseDir string) *Provider {
	return &Provider{
		baseDir: baseDir,
		lang:    language.NewLanguage("en"),
		fonts:   map[string]*font.Font{},
	}
}

// MeasureText implements layout.Typesetter. A ligature spanning several
// characters puts its whole advance on the first one.
func (p *Provider) MeasureText(chars []string, res layout.FontResource, fontSize float64) (layout.TextMetrics, error) {
	if fontSize <= 0 {
		return layout.TextMetrics{}, fmt.Errorf("字号必须为正数：%g", fontSize)
	}
	// HarfbuzzShaper reuses internal buffers
	p.mu.Lock()
	defer p.mu.Unlock()

	f, err := p.font(res)
	if err != nil {
		return layout.TextMetrics{}, err
	}
	face := font.NewFace(f)
	size := fixed.Int26_6(math.Round(fontSize * layout.MmToPt * 64))

	runes, owner := index(chars)
	adv := make([]float64, len(chars))
	if len(runes) > 0 {
		out := p.shape(runes, face, size)
		for _, g := range out.Glyphs {
			adv[owner[g.TextIndex()]] += toMM(g.Advance)
		}
	}

	space := p.shape([]rune{' '}, face, size)
	bounds := space.LineBounds
	ascent := toMM(bounds.Ascent)
	descent := math.Abs(toMM(bounds.Descent))
	return layout.TextMetrics{
		Advances:   adv,
		SpaceWidth: toMM(space.Advance),
		LineHeight: ascent,
		LinePitch:  ascent + descent + toMM(bounds.Gap),
		Descent:    descent,
	}, nil
}

func (p *Provider) shape(runes []rune, face *font.Face, size fixed.Int26_6) shaping.Output {
	return p.shaper.Shape(shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: di.DirectionLTR,
		Face:      face,
		Size:      size,
		Script:    detectScript(runes),
		Language:  p.lang,
	})
}

// index flattens chars into runes and records which character each rune
// belongs to.
func index(chars []string) ([]rune, []int) {
	var runes []rune
	var owner []int
	for i, ch := range chars {
		for _, r := range ch {
			runes = append(runes, r)
			owner = append(owner, i)
		}
	}
	return runes, owner
}

func (p *Provider) font(res layout.FontResource) (*font.Font, error) {
	f, err := p.parse(res.Src)
	if err == nil {
		return f, nil
	}
	for _, src := range []string{res.Fallback, "builtin:" + fonts.Default} {
		if src == "" {
			continue
		}
		if fb, fbErr := p.parse(src); fbErr == nil {
			layout.Logger().Warn("字体加载失败，改用后备字体", "font", res.Name, "src", res.Src, "fallback", src, "err", err)
			return fb, nil
		}
	}
	return nil, err
}

func (p *Provider) parse(src string) (*font.Font, error) {
	if f, ok := p.fonts[src]; ok {
		return f, nil
	}
	data, err := fonts.Read(src, p.baseDir)
	if err != nil {
		return nil, err
	}
	face, err := font.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("解析字体 %s 失败: %w", src, err)
	}
	p.fonts[src] = face.Font
	return face.Font, nil
}

// detectScript returns the script of the first non-space rune.
func detectScript(runes []rune) language.Script {
	for _, r := range runes {
		if strings.ContainsRune(" \t\n\r", r) {
			continue
		}
		return language.LookupScript(r)
	}
	return language.Latin
}

func toMM(v fixed.Int26_6) float64 {
	return float64(v) / 64 * layout.PtToMm
}
