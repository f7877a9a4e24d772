package layout

import (
	"math"
	"unicode"
	"unicode/utf8"

	"github.com/rivo/uniseg"

	"github.com/dshills/folio/internal/engine/format"
	"github.com/dshills/folio/internal/renderer/style"
)

// TextRun is a stretch of paragraph text in one resolved style.
type TextRun struct {
	Start int
	End   int
	Style style.Resolved
}

// Input is everything needed to lay out one paragraph.
type Input struct {
	Text      []rune
	Runs      []TextRun // Covering [0, len(Text)) in order
	Paragraph style.ResolvedParagraph
	Width     float64
}

// Engine breaks paragraphs into lines. Break opportunities follow the
// Unicode line breaking algorithm; a word wider than the line is broken
// between grapheme clusters.
type Engine struct {
	metrics Metrics
	tabs    TabStops
}

// NewEngine creates a layout engine.
func NewEngine(m Metrics, tabWidth int) *Engine {
	return &Engine{metrics: m, tabs: newTabStops(tabWidth)}
}

// Metrics returns the metrics provider.
func (e *Engine) Metrics() Metrics {
	return e.metrics
}

// TabWidth returns the tab width in spaces.
func (e *Engine) TabWidth() int {
	return e.tabs.Width
}

type breakOpportunity struct {
	pos  int
	must bool
}

// lineBreaks returns the positions after which a line may end.
func lineBreaks(text []rune) []breakOpportunity {
	var out []breakOpportunity
	rest, state, pos := string(text), -1, 0
	for len(rest) > 0 {
		var seg string
		var must bool
		seg, rest, must, state = uniseg.FirstLineSegmentInString(rest, state)
		pos += utf8.RuneCountInString(seg)
		out = append(out, breakOpportunity{pos: pos, must: must})
	}
	return out
}

type measurer struct {
	text  []rune
	adv   []float64
	space float64
	tabs  TabStops
}

// advance returns the advance of rune i when the pen is at x.
func (m *measurer) advance(i int, x float64) float64 {
	if m.text[i] == '\t' {
		return m.tabs.Advance(x, m.space)
	}
	return m.adv[i]
}

// measure returns the full and ink width of [s, e) starting at pen x.
func (m *measurer) measure(s, e int, x float64) (w, ink float64) {
	for i := s; i < e; i++ {
		w += m.advance(i, x+w)
		if !unicode.IsSpace(m.text[i]) {
			ink = w
		}
	}
	return w, ink
}

// fitClusters takes grapheme clusters from [s, limit) while they fit in
// avail, always taking at least one.
func (m *measurer) fitClusters(s, limit int, avail float64) int {
	rest, state := string(m.text[s:limit]), -1
	end, x := s, 0.0
	for len(rest) > 0 {
		var cl string
		cl, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)
		n := utf8.RuneCountInString(cl)
		w, _ := m.measure(end, end+n, x)
		if end > s && x+w > avail {
			break
		}
		end += n
		x += w
	}
	return end
}

// Layout computes the geometry of one paragraph.
func (e *Engine) Layout(in Input) *ParagraphLayout {
	n := len(in.Text)
	ps := in.Paragraph

	adv := make([]float64, n)
	for _, r := range in.Runs {
		copy(adv[r.Start:r.End], e.metrics.Advances(r.Style, in.Text[r.Start:r.End]))
	}
	space := e.metrics.Advances(ps.Text, []rune{' '})[0]
	m := &measurer{text: in.Text, adv: adv, space: space, tabs: e.tabs}

	out := &ParagraphLayout{Length: n, Width: in.Width, Style: ps}
	y := ps.SpaceBefore
	breaks := lineBreaks(in.Text)

	start, bi := 0, 0
	for first := true; first || start < n; first = false {
		indent := ps.LeftMargin
		if first {
			indent += ps.FirstLineIndent
		}
		avail := in.Width - indent - ps.RightMargin
		if in.Width <= 0 {
			avail = math.Inf(1)
		}

		end, x := start, 0.0
		for bi < len(breaks) {
			b := breaks[bi]
			w, ink := m.measure(end, b.pos, x)
			if end > start && x+ink > avail {
				break
			}
			if end == start && ink > avail {
				end = m.fitClusters(start, b.pos, avail)
				if end == b.pos {
					bi++
				}
				break
			}
			x += w
			end = b.pos
			bi++
			if b.must {
				break
			}
		}
		line := e.buildLine(m, in, start, end, indent, avail, end >= n)
		line.Y = y
		y += line.Height
		out.Lines = append(out.Lines, line)
		start = end
		if n == 0 {
			break
		}
	}
	out.Height = y + ps.SpaceAfter
	return out
}

func (e *Engine) buildLine(m *measurer, in Input, start, end int, indent, avail float64, last bool) Line {
	ps := in.Paragraph
	line := Line{Start: start, End: end, advances: make([]float64, end-start)}

	x, inkEnd := 0.0, start
	for i := start; i < end; i++ {
		a := m.advance(i, x)
		line.advances[i-start] = a
		x += a
		if !unicode.IsSpace(in.Text[i]) {
			line.Width = x
			inkEnd = i + 1
		}
	}

	free := max(0, avail-line.Width)
	if math.IsInf(avail, 1) {
		free = 0
	}
	line.X = indent
	switch ps.Align {
	case format.AlignCenter:
		line.X += free / 2
	case format.AlignRight:
		line.X += free
	case format.AlignJustify:
		if !last {
			justify(&line, in.Text, inkEnd, free)
		}
	}

	asc, desc := 0.0, 0.0
	measured := false
	px := line.X
	for _, r := range in.Runs {
		s, t := max(r.Start, start), min(r.End, end)
		if s >= t {
			continue
		}
		w := 0.0
		for i := s; i < t; i++ {
			w += line.advances[i-start]
		}
		line.Runs = append(line.Runs, GlyphRun{Start: s, End: t, X: px, Width: w, Style: r.Style})
		px += w
		a, d := e.metrics.LineMetrics(r.Style)
		asc, desc = max(asc, a), max(desc, d)
		measured = true
	}
	if !measured {
		asc, desc = e.metrics.LineMetrics(ps.Text)
	}
	line.Ascent = asc
	line.Height = (asc + desc) * ps.LineHeight
	return line
}

// justify spreads free space over the inter-word spaces before inkEnd.
func justify(line *Line, text []rune, inkEnd int, free float64) {
	if free <= 0 {
		return
	}
	var gaps []int
	for i := line.Start; i < inkEnd; i++ {
		if text[i] == ' ' {
			gaps = append(gaps, i-line.Start)
		}
	}
	if len(gaps) == 0 {
		return
	}
	extra := free / float64(len(gaps))
	for _, g := range gaps {
		line.advances[g] += extra
	}
	line.Width += free
}
