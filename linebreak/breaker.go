package linebreak

import "fmt"

// Layout breaks text into lines no wider than maxLineWidth and justifies
// every line that ends at a word boundary, except the last one.
//
// widths holds one advance per character of text. spaceWidth is only used
// to estimate whether a line overflows; the gaps of a justified line are
// computed from the glyph widths so that its last word ends exactly at
// maxLineWidth. Baselines are at lineIndex*linePitch + lineHeight.
//
// Layout keeps no state between calls and is safe for concurrent use.
// linePitch must be positive so that every line has its own baseline.
// If a single character is wider than maxLineWidth, the spans placed so far
// are returned together with ErrUnbreakableRemainder.
func Layout(text Text, widths []int, spaceWidth, maxLineWidth, lineHeight, linePitch int) (*Result, error) {
	if err := validate(text, widths, spaceWidth, maxLineWidth, linePitch); err != nil {
		return nil, err
	}
	b := &lineBuilder{
		text:       text,
		widths:     widths,
		spaceWidth: spaceWidth,
		maxWidth:   maxLineWidth,
		lineHeight: lineHeight,
		linePitch:  linePitch,
	}
	return b.run()
}

// LayoutString is Layout over the runes of s.
func LayoutString(s string, widths []int, spaceWidth, maxLineWidth, lineHeight, linePitch int) (*Result, error) {
	return Layout(Runes(s), widths, spaceWidth, maxLineWidth, lineHeight, linePitch)
}

func validate(text Text, widths []int, spaceWidth, maxLineWidth, linePitch int) error {
	if text == nil {
		return &InputError{Field: "text", Reason: "nil"}
	}
	if n := text.Len(); len(widths) != n {
		return &InputError{
			Field:  "widths",
			Reason: fmt.Sprintf("have %d advances for %d characters", len(widths), n),
		}
	}
	if maxLineWidth <= 0 {
		return &InputError{Field: "maxLineWidth", Reason: fmt.Sprintf("%d is not positive", maxLineWidth)}
	}
	if linePitch <= 0 {
		return &InputError{Field: "linePitch", Reason: fmt.Sprintf("%d is not positive", linePitch)}
	}
	if spaceWidth < 0 {
		return &InputError{Field: "spaceWidth", Reason: fmt.Sprintf("%d is negative", spaceWidth)}
	}
	for i, w := range widths {
		if w < 0 {
			return &InputError{Field: "widths", Reason: fmt.Sprintf("advance %d at offset %d is negative", w, i)}
		}
	}
	return nil
}

type breakKind int

const (
	breakAtSpace breakKind = iota // end the line before the current word
	breakForced                   // split the current word at the overflow
	breakNone                     // nothing fits on an empty line
)

// lineBuilder holds the working state of a single Layout call.
type lineBuilder struct {
	text       Text
	widths     []int
	spaceWidth int
	maxWidth   int
	lineHeight int
	linePitch  int

	spans []Span
	line  []int // indices into spans of the closed words on the current line

	x         int // glyph advance of the current line, spaces excluded
	spacesLen int // space glyph estimate for the gaps of the current line
	lineStart int
	lineIndex int
	word      Span // open word; End is not yet known
}

func (b *lineBuilder) baseline() int {
	return b.lineIndex*b.linePitch + b.lineHeight
}

func (b *lineBuilder) run() (*Result, error) {
	n := b.text.Len()
	b.word = Span{Y: b.baseline()}

	pos := 0
	for pos < n {
		if b.text.IsSpace(pos) {
			leading := pos == b.word.Start
			if !leading {
				b.closeWord(pos)
				b.spacesLen += b.spaceWidth
			}
			for pos++; pos < n && b.text.IsSpace(pos); pos++ {
				if !leading {
					b.spacesLen += b.spaceWidth
				}
			}
			if leading {
				b.lineStart = pos
			}
			b.openWord(pos)
			continue
		}

		w := b.widths[pos]
		if b.x+w+b.spacesLen > b.maxWidth {
			at, kind := b.findBreak(pos)
			switch kind {
			case breakAtSpace:
				b.justify()
				b.newLine(at)
				pos = at
			case breakForced:
				b.closeWord(pos)
				b.newLine(pos)
			case breakNone:
				b.spaceNaturally()
				return b.result(pos), ErrUnbreakableRemainder
			}
			// the character is tested again against the fresh line
			continue
		}
		b.x += w
		pos++
	}

	// the last line keeps its natural spacing
	b.closeWord(n)
	b.spaceNaturally()
	return b.result(n), nil
}

// findBreak scans back from the overflowing character at pos for the
// closest space on the current line.
func (b *lineBuilder) findBreak(pos int) (int, breakKind) {
	if pos <= b.lineStart {
		return pos, breakNone
	}
	for i := pos - 1; i > b.lineStart; i-- {
		if b.text.IsSpace(i) {
			return i + 1, breakAtSpace
		}
	}
	return pos, breakForced
}

func (b *lineBuilder) openWord(start int) {
	b.word = Span{Start: start, X: b.x, Y: b.baseline()}
}

// closeWord ends the open word at end. Empty words are dropped.
func (b *lineBuilder) closeWord(end int) {
	if end <= b.word.Start {
		return
	}
	w := b.word
	w.End = end
	b.line = append(b.line, len(b.spans))
	b.spans = append(b.spans, w)
}

// newLine starts a line at start. The open word moves along with it.
func (b *lineBuilder) newLine(start int) {
	b.lineIndex++
	b.lineStart = start
	b.x = 0
	b.spacesLen = 0
	b.line = b.line[:0]
	b.word = Span{Start: start, Y: b.baseline()}
}

// justify spreads the slack of the current line over its gaps. The first
// slack%gaps gaps get one extra unit.
func (b *lineBuilder) justify() {
	gaps := len(b.line) - 1
	if gaps < 1 {
		return
	}
	glyphs := 0
	for _, i := range b.line {
		glyphs += b.spans[i].Width(b.widths)
	}
	slack := b.maxWidth - glyphs
	step, extra := slack/gaps, slack%gaps

	shift := 0
	for k, i := range b.line {
		b.spans[i].X += shift
		if k < gaps {
			shift += step
			if k < extra {
				shift++
			}
		}
	}
}

// spaceNaturally separates the words of the current line by one space glyph
// per gap, however many spaces the text had there.
func (b *lineBuilder) spaceNaturally() {
	for k, i := range b.line {
		b.spans[i].X += k * b.spaceWidth
	}
}

func (b *lineBuilder) result(stop int) *Result {
	lines := b.lineIndex
	if len(b.line) > 0 {
		lines++
	}
	res := &Result{
		Spans:     b.spans,
		LineCount: lines,
	}
	if stop < b.text.Len() {
		res.Truncated = true
		res.StoppedAt = stop
	}
	return res
}
