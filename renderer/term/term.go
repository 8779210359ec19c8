// Package term previews justified paragraphs in a terminal. Widths are
// measured in cells, so every span lands on whole columns and the line
// pitch is one row.
package term

import (
	"errors"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg"
	"golang.org/x/text/unicode/norm"

	"github.com/ByLCY/justify/layout"
	"github.com/ByLCY/justify/linebreak"
)

// Widths returns the cell width of every character. Zero-width clusters
// still occupy the cell of the character they attach to, so they count as 0.
func Widths(chars linebreak.Clusters) []int {
	out := make([]int, len(chars))
	for i, c := range chars {
		out[i] = uniseg.StringWidth(c)
	}
	return out
}

// Layout breaks text for a column of width cells. The first baseline is
// row 0 and each further line is one row down.
func Layout(text string, width int) (linebreak.Clusters, *linebreak.Result, error) {
	chars := linebreak.SplitClusters(norm.NFC.String(text))
	r, err := linebreak.Layout(chars, Widths(chars), 1, width, 0, 1)
	return chars, r, err
}

// Draw puts the spans of r on screen with the top-left corner at (x0, y0).
// Rows outside the screen are skipped.
func Draw(s tcell.Screen, x0, y0 int, chars linebreak.Clusters, r *linebreak.Result, style tcell.Style) {
	if r == nil {
		return
	}
	_, h := s.Size()
	for _, sp := range r.Spans {
		y := y0 + sp.Y
		if y < 0 || y >= h {
			continue
		}
		x := x0 + sp.X
		for i := sp.Start; i < sp.End; i++ {
			runes := []rune(chars[i])
			s.SetContent(x, y, runes[0], runes[1:], style)
			x += uniseg.StringWidth(chars[i])
		}
	}
}

// Preview shows paragraphs justified to the screen width and lays them out
// again whenever the terminal is resized.
type Preview struct {
	Paragraphs []string
	Style      tcell.Style
	Margin     int // blank columns on each side

	mu     sync.Mutex
	scroll int
}

// Draw lays out and draws all paragraphs for the current screen size.
func (p *Preview) Draw(s tcell.Screen) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	s.Clear()
	w, _ := s.Size()
	width := w - 2*p.Margin
	if width <= 0 {
		s.Show()
		return nil
	}
	row := -p.scroll
	for _, text := range p.Paragraphs {
		chars, r, err := Layout(text, width)
		if err != nil && !errors.Is(err, linebreak.ErrUnbreakableRemainder) {
			return err
		}
		if r.Truncated {
			layout.Logger().Debug("预览段落被截断", "width", width, "stoppedAt", r.StoppedAt)
		}
		Draw(s, p.Margin, row, chars, r, p.Style)
		row += max(r.LineCount, 1) + 1
	}
	s.Show()
	return nil
}

// Run draws the preview and handles events until q, Escape or Ctrl-C is
// pressed or the screen is finalized. Up and Down scroll by one row.
func (p *Preview) Run(s tcell.Screen) error {
	if err := p.Draw(s); err != nil {
		return err
	}
	for {
		switch ev := s.PollEvent().(type) {
		case nil:
			return nil
		case *tcell.EventResize:
			s.Sync()
			if err := p.Draw(s); err != nil {
				return err
			}
		case *tcell.EventKey:
			switch ev.Key() {
			case tcell.KeyEscape, tcell.KeyCtrlC:
				return nil
			case tcell.KeyUp:
				p.scrollBy(-1)
			case tcell.KeyDown:
				p.scrollBy(1)
			case tcell.KeyRune:
				if ev.Rune() == 'q' {
					return nil
				}
				continue
			default:
				continue
			}
			if err := p.Draw(s); err != nil {
				return err
			}
		}
	}
}

func (p *Preview) scrollBy(n int) {
	p.mu.Lock()
	p.scroll = max(p.scroll+n, 0)
	p.mu.Unlock()
}
