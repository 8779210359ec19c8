package linebreak

import "github.com/rivo/uniseg"

// Text is the character sequence seen by the line breaker.
// Offsets reported in spans are indices into this sequence.
type Text interface {
	Len() int
	// IsSpace reports whether character i is a break opportunity.
	IsSpace(i int) bool
}

// Runes treats every rune as one character.
type Runes []rune

func (r Runes) Len() int           { return len(r) }
func (r Runes) IsSpace(i int) bool { return r[i] == ' ' }

// Clusters treats every extended grapheme cluster as one character, so that
// combining marks and emoji sequences are never split across lines.
type Clusters []string

func (c Clusters) Len() int           { return len(c) }
func (c Clusters) IsSpace(i int) bool { return c[i] == " " }

// Slice joins the clusters in [start, end).
func (c Clusters) Slice(start, end int) string {
	n := 0
	for _, s := range c[start:end] {
		n += len(s)
	}
	buf := make([]byte, 0, n)
	for _, s := range c[start:end] {
		buf = append(buf, s...)
	}
	return string(buf)
}

// SplitClusters segments s into grapheme clusters.
func SplitClusters(s string) Clusters {
	var out Clusters
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		out = append(out, g.Str())
	}
	return out
}
