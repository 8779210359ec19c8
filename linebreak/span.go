package linebreak

// Span is one placed word. [Start, End) never contains a space; X is the pen
// offset of the left edge and Y the baseline offset of its line.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
	X     int `json:"x"`
	Y     int `json:"y"`
}

// Width returns the glyph width of the span.
func (s Span) Width(widths []int) int {
	w := 0
	for _, v := range widths[s.Start:s.End] {
		w += v
	}
	return w
}

// Result is the output of one layout pass.
type Result struct {
	Spans     []Span `json:"spans"`
	LineCount int    `json:"lineCount"`

	// Truncated is set when the pass stopped early at StoppedAt because a
	// single character did not fit the line.
	Truncated bool `json:"truncated,omitempty"`
	StoppedAt int  `json:"stoppedAt,omitempty"`
}

// Line is a run of spans sharing one baseline: Spans[First:Last].
type Line struct {
	Y     int
	First int
	Last  int
}

// Lines groups the spans by baseline. Layout rejects a non-positive pitch,
// so len(Lines()) == LineCount.
func (r *Result) Lines() []Line {
	if r == nil || len(r.Spans) == 0 {
		return nil
	}
	lines := make([]Line, 0, r.LineCount)
	cur := Line{Y: r.Spans[0].Y}
	for i, s := range r.Spans {
		if s.Y != cur.Y {
			cur.Last = i
			lines = append(lines, cur)
			cur = Line{Y: s.Y, First: i}
		}
	}
	cur.Last = len(r.Spans)
	return append(lines, cur)
}

// Words returns the spans of l.
func (r *Result) Words(l Line) []Span {
	return r.Spans[l.First:l.Last]
}
