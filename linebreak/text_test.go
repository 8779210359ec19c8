package linebreak

import "testing"

func TestSplitClustersKeepsCombiningMarks(t *testing.T) {
	c := SplitClusters("été x")
	if c.Len() != 5 {
		t.Fatalf("expected 5 clusters, got %d: %q", c.Len(), c)
	}
	if c[0] != "é" {
		t.Fatalf("combining mark split from base: %q", c[0])
	}
	if !c.IsSpace(3) || c.IsSpace(1) {
		t.Fatalf("unexpected space classification: %q", c)
	}
	if got := c.Slice(0, 3); got != "été" {
		t.Fatalf("unexpected slice %q", got)
	}
}

func TestLayoutClusters(t *testing.T) {
	c := SplitClusters("éé ab")
	res, err := Layout(c, []int{10, 10, 5, 10, 10}, 5, 25, 0, 10)
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	if res.LineCount != 2 {
		t.Fatalf("expected 2 lines, got %d", res.LineCount)
	}
	if got := c.Slice(res.Spans[0].Start, res.Spans[0].End); got != "éé" {
		t.Fatalf("unexpected first word %q", got)
	}
}

func TestRunesIsSpaceOnlyMatchesSpace(t *testing.T) {
	r := Runes("a\tb c d")
	for i, want := range []bool{false, false, false, true, false, true, false} {
		if r.IsSpace(i) != want {
			t.Fatalf("rune %d (%q): IsSpace=%v, want %v", i, r[i], r.IsSpace(i), want)
		}
	}
}
