package layout

import (
	"strings"
	"testing"

	"github.com/dshills/folio/internal/engine/document"
	"github.com/dshills/folio/internal/engine/format"
	"github.com/dshills/folio/internal/renderer/style"
)

func newTestManager(doc *document.Document, width float64, maxCached int) *Manager {
	r := style.NewResolver(style.NewMemoryCatalog(), style.DefaultTheme())
	return NewManager(doc, r, NewMonospaceMetrics(false), Options{Width: width, MaxCached: maxCached})
}

func lineSpans(pl *ParagraphLayout) [][2]int {
	out := make([][2]int, len(pl.Lines))
	for i, l := range pl.Lines {
		out[i] = [2]int{l.Start, l.End}
	}
	return out
}

func equalSpans(a, b [][2]int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestLayoutForCachesUntilEdit(t *testing.T) {
	doc := document.NewFromString("first paragraph\nsecond paragraph")
	m := newTestManager(doc, 80, 0)

	a, err := m.LayoutFor(0)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := m.LayoutFor(0)
	if a != b {
		t.Error("second LayoutFor should return the cached layout")
	}
	if s := m.Stats(); s.Hits != 1 || s.Misses != 1 {
		t.Errorf("Stats() = %+v, want 1 hit and 1 miss", s)
	}

	doc.Insert(5, "!")
	if m.Has(0) {
		t.Error("Has(0) = true after editing paragraph 0")
	}
	c, _ := m.LayoutFor(0)
	if c == a {
		t.Error("LayoutFor after edit returned the stale layout")
	}
	if c.Length != 16 {
		t.Errorf("Length = %d, want 16", c.Length)
	}
}

func TestInvalidateRange(t *testing.T) {
	doc := document.NewFromString("a\nb\nc\nd")
	m := newTestManager(doc, 80, 0)
	for i := range 4 {
		m.LayoutFor(i)
	}
	m.InvalidateRange(2, 4)
	want := []bool{true, false, false, true}
	for i, w := range want {
		if got := m.Has(i); got != w {
			t.Errorf("Has(%d) = %v, want %v", i, got, w)
		}
	}
	m.Invalidate(0)
	if m.Has(0) {
		t.Error("Has(0) = true after Invalidate")
	}
	m.InvalidateAll()
	if m.Size() != 0 {
		t.Errorf("Size() = %d after InvalidateAll", m.Size())
	}
}

// Splitting a paragraph renumbers the ones after it; their layouts must
// follow them rather than stay attached to the old indices.
func TestStructuralEditKeepsIdentity(t *testing.T) {
	doc := document.NewFromString("alpha\nbravo\ncharlie")
	m := newTestManager(doc, 80, 0)
	bravo, _ := m.LayoutFor(1)
	charlie, _ := m.LayoutFor(2)

	doc.Insert(5, "\n")
	if !m.Has(2) || !m.Has(3) {
		t.Fatal("moved paragraphs lost their layouts")
	}
	got, _ := m.LayoutFor(2)
	if got != bravo {
		t.Error("LayoutFor(2) is not bravo's layout")
	}
	got, _ = m.LayoutFor(3)
	if got != charlie {
		t.Error("LayoutFor(3) is not charlie's layout")
	}
	if m.Has(1) {
		t.Error("new paragraph should not have a layout yet")
	}

	doc.Erase(5, 1)
	got, _ = m.LayoutFor(1)
	if got != bravo {
		t.Error("after merge LayoutFor(1) is not bravo's layout")
	}
}

func TestWrapping(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		width float64
		want  [][2]int
	}{
		{"fits", "hello", 10, [][2]int{{0, 5}}},
		{"word wrap", "hello world foo", 10, [][2]int{{0, 6}, {6, 15}}},
		{"trailing space hangs", "hello     world", 5, [][2]int{{0, 10}, {10, 15}}},
		{"long word", "abcdefghij", 4, [][2]int{{0, 4}, {4, 8}, {8, 10}}},
		{"empty", "", 10, [][2]int{{0, 0}}},
		{"no wrap", "hello world foo", 0, [][2]int{{0, 15}}},
		{"wide runes", "日本語の文章", 5, [][2]int{{0, 2}, {2, 4}, {4, 6}}},
		{"line separator", "ab\u2028cd", 80, [][2]int{{0, 3}, {3, 5}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := document.NewFromString(tt.text)
			m := newTestManager(doc, tt.width, 0)
			pl, err := m.LayoutFor(0)
			if err != nil {
				t.Fatal(err)
			}
			if got := lineSpans(pl); !equalSpans(got, tt.want) {
				t.Errorf("lines = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAlignment(t *testing.T) {
	tests := []struct {
		align format.Alignment
		wantX float64
	}{
		{format.AlignLeft, 0},
		{format.AlignCenter, 3.5},
		{format.AlignRight, 7},
		{format.AlignJustify, 0},
	}
	for _, tt := range tests {
		t.Run(tt.align.String(), func(t *testing.T) {
			doc := document.NewFromString("abc")
			doc.SetAlignment(0, 0, tt.align)
			m := newTestManager(doc, 10, 0)
			pl, _ := m.LayoutFor(0)
			if got := pl.Lines[0].X; got != tt.wantX {
				t.Errorf("X = %v, want %v", got, tt.wantX)
			}
		})
	}
}

func TestJustify(t *testing.T) {
	doc := document.NewFromString("aa bb cc dd")
	doc.SetAlignment(0, 0, format.AlignJustify)
	m := newTestManager(doc, 10, 0)
	pl, _ := m.LayoutFor(0)
	if len(pl.Lines) != 2 {
		t.Fatalf("lines = %v", lineSpans(pl))
	}
	first := pl.Lines[0]
	if first.Width != 10 {
		t.Errorf("justified Width = %v, want 10", first.Width)
	}
	adv := first.Advances()
	if adv[2] != 2 || adv[5] != 2 || adv[8] != 1 {
		t.Errorf("space advances = %v, %v, %v; want 2, 2, 1", adv[2], adv[5], adv[8])
	}
	if last := pl.Lines[1]; last.Width != 2 {
		t.Errorf("last line Width = %v, want 2 (not justified)", last.Width)
	}
}

func TestTabs(t *testing.T) {
	doc := document.NewFromString("a\tb\tc")
	m := newTestManager(doc, 0, 0)
	pl, _ := m.LayoutFor(0)
	adv := pl.Lines[0].Advances()
	if adv[1] != 3 || adv[3] != 3 {
		t.Errorf("tab advances = %v, %v; want 3, 3", adv[1], adv[3])
	}
	if got := pl.CaretRect(4).X; got != 8 {
		t.Errorf("CaretRect(4).X = %v, want 8", got)
	}
}

func TestParagraphGeometry(t *testing.T) {
	cat := style.NewMemoryCatalog()
	cat.PutParagraph(style.ParagraphStyle{
		ID:              "indented",
		FirstLineIndent: style.Float(2),
		LeftMargin:      style.Float(1),
		SpaceBefore:     style.Float(1),
		SpaceAfter:      style.Float(1),
		LineHeight:      style.Float(2),
	})
	doc := document.NewFromString("one two three")
	doc.SetParagraphStyle(0, 0, "indented")
	r := style.NewResolver(cat, style.DefaultTheme())
	m := NewManager(doc, r, NewMonospaceMetrics(false), Options{Width: 9})

	pl, _ := m.LayoutFor(0)
	// First line: 9 - 1 - 2 = 6 cells, "one " + "two " overflows
	if got := lineSpans(pl); !equalSpans(got, [][2]int{{0, 4}, {4, 8}, {8, 13}}) {
		t.Fatalf("lines = %v", got)
	}
	if pl.Lines[0].X != 3 || pl.Lines[1].X != 1 {
		t.Errorf("line X = %v, %v; want 3, 1", pl.Lines[0].X, pl.Lines[1].X)
	}
	if pl.Lines[0].Y != 1 || pl.Lines[1].Y != 3 {
		t.Errorf("line Y = %v, %v; want 1, 3", pl.Lines[0].Y, pl.Lines[1].Y)
	}
	if pl.Height != 1+3*2+1 {
		t.Errorf("Height = %v, want 8", pl.Height)
	}
}

func TestGlyphRunsFollowFormatting(t *testing.T) {
	doc := document.NewFromString("plain bold plain")
	doc.SetInlineStyle(6, 10, format.Empty().WithBold(true))
	m := newTestManager(doc, 0, 0)
	pl, _ := m.LayoutFor(0)
	runs := pl.Lines[0].Runs
	if len(runs) != 3 {
		t.Fatalf("runs = %+v", runs)
	}
	if runs[1].Start != 6 || runs[1].End != 10 || !runs[1].Style.Bold || runs[1].X != 6 {
		t.Errorf("bold run = %+v", runs[1])
	}
	if runs[0].Style.Bold || runs[2].Style.Bold {
		t.Error("plain runs resolved as bold")
	}
}

func TestResolverChangeInvalidates(t *testing.T) {
	doc := document.NewFromString("text")
	m := newTestManager(doc, 80, 0)
	a, _ := m.LayoutFor(0)
	th := style.DefaultTheme()
	th.FontFamily = "Mono"
	m.Resolver().SetTheme(th)
	b, _ := m.LayoutFor(0)
	if a == b {
		t.Error("layout survived a theme change")
	}
	if b.Lines[0].Runs[0].Style.FontFamily != "Mono" {
		t.Errorf("FontFamily = %q, want Mono", b.Lines[0].Runs[0].Style.FontFamily)
	}
}

func TestLRUEviction(t *testing.T) {
	doc := document.NewFromString("a\nb\nc\nd\ne")
	m := newTestManager(doc, 80, 3)
	for i := range 5 {
		m.LayoutFor(i)
	}
	if m.Size() != 3 {
		t.Errorf("Size() = %d, want 3", m.Size())
	}
	if m.Has(0) || m.Has(1) || !m.Has(4) {
		t.Error("least recently used layouts should be evicted first")
	}
	if got := m.Stats().Evictions; got != 2 {
		t.Errorf("Evictions = %d, want 2", got)
	}
	// Height survives eviction.
	if !m.IsHeightCalculated(0) {
		t.Error("evicted paragraph lost its calculated height")
	}
}

func TestEvictOutside(t *testing.T) {
	doc := document.NewFromString(strings.Repeat("p\n", 9) + "p")
	m := newTestManager(doc, 80, 0)
	for i := range 10 {
		m.LayoutFor(i)
	}
	if n := m.EvictOutside(3, 5); n != 7 {
		t.Errorf("EvictOutside() = %d, want 7", n)
	}
	for i := range 10 {
		if got, want := m.Has(i), i >= 3 && i <= 5; got != want {
			t.Errorf("Has(%d) = %v, want %v", i, got, want)
		}
	}
}

func TestHeightsAndPositions(t *testing.T) {
	long := strings.Repeat("word ", 10) // 50 cells
	doc := document.NewFromString(strings.Repeat("x\n", 9) + long)
	m := newTestManager(doc, 20, 0)

	// Estimates: nine one-line paragraphs, one of ceil(50/20) = 3 lines.
	if got := m.TotalHeight(); got != 12 {
		t.Errorf("TotalHeight() = %v, want 12", got)
	}
	if got := m.ParagraphY(5); got != 5 {
		t.Errorf("ParagraphY(5) = %v, want 5", got)
	}
	if got := m.ParagraphAtY(9.5); got != 9 {
		t.Errorf("ParagraphAtY(9.5) = %d, want 9", got)
	}
	if got := m.ParagraphAtY(500); got != 9 {
		t.Errorf("ParagraphAtY(500) = %d, want 9 (clamped)", got)
	}

	pl, _ := m.LayoutFor(9)
	if got := m.TotalHeight(); got != 9+pl.Height {
		t.Errorf("TotalHeight() = %v after layout, want %v", got, 9+pl.Height)
	}
	if !m.IsHeightCalculated(9) || m.IsHeightCalculated(0) {
		t.Error("calculated flags wrong")
	}

	doc.Insert(0, "new\n")
	if got := m.ParagraphY(10); got != 10 {
		t.Errorf("ParagraphY(10) after split = %v, want 10", got)
	}
	if !m.IsHeightCalculated(10) {
		t.Error("calculated height did not follow its paragraph")
	}
}

func TestHitTesting(t *testing.T) {
	doc := document.NewFromString("hello world")
	m := newTestManager(doc, 6, 0)
	pl, _ := m.LayoutFor(0)

	tests := []struct {
		pt   Point
		want int
	}{
		{Point{0, 0}, 0},
		{Point{2.4, 0}, 2},
		{Point{2.6, 0}, 3},
		{Point{50, 0}, 5},  // past a soft break stays on line 0
		{Point{50, 1}, 11}, // end of last line
		{Point{1, 10}, 7},
		{Point{-5, 1}, 6},
	}
	for _, tt := range tests {
		if got := pl.OffsetAt(tt.pt); got != tt.want {
			t.Errorf("OffsetAt(%v) = %d, want %d", tt.pt, got, tt.want)
		}
	}

	r := pl.CaretRect(8)
	if r.X != 2 || r.Y != 1 || r.Height != 1 {
		t.Errorf("CaretRect(8) = %+v, want {2 1 0 1}", r)
	}
	if got := pl.LineForOffset(6); got != 1 {
		t.Errorf("LineForOffset(6) = %d, want 1", got)
	}
}

func TestOutOfRange(t *testing.T) {
	m := newTestManager(document.NewFromString("a"), 80, 0)
	if _, err := m.LayoutFor(1); err == nil {
		t.Error("LayoutFor(1) on a one-paragraph document should fail")
	}
}
