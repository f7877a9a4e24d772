// Package layout computes and caches paragraph geometry. Paragraphs are laid
// out lazily: nothing is computed until a paragraph is requested, results
// are cached by stable paragraph identity, and a height tree gives O(log N)
// mapping between paragraphs and vertical positions using estimated heights
// for paragraphs that have never been laid out.
package layout

import (
	"github.com/dshills/folio/internal/engine/document"
	"github.com/dshills/folio/internal/renderer/style"
)

// Point is a position in layout units.
type Point struct {
	X float64
	Y float64
}

// Rect is an axis-aligned rectangle in layout units.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Contains reports whether p lies inside r.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.Width && p.Y >= r.Y && p.Y < r.Y+r.Height
}

// GlyphRun is a stretch of a line set in one resolved style.
type GlyphRun struct {
	Start int // Paragraph-relative rune offset
	End   int
	X     float64 // Relative to the paragraph's left edge
	Width float64
	Style style.Resolved
}

// Line is one visual line of a paragraph.
type Line struct {
	Start int // Paragraph-relative rune offset
	End   int // Exclusive; includes trailing whitespace

	X      float64 // Left edge of the first glyph
	Y      float64 // Top, relative to the paragraph top
	Width  float64 // Ink width excluding trailing whitespace
	Height float64
	Ascent float64

	Runs []GlyphRun

	advances []float64 // One per rune in [Start, End)
}

// Baseline returns the baseline position relative to the paragraph top.
func (l *Line) Baseline() float64 {
	return l.Y + l.Ascent
}

// Advances returns the advance of every rune on the line.
func (l *Line) Advances() []float64 {
	return l.advances
}

// xAt returns the pen position before rune off.
func (l *Line) xAt(off int) float64 {
	x := l.X
	for i := l.Start; i < off && i < l.End; i++ {
		x += l.advances[i-l.Start]
	}
	return x
}

// ParagraphLayout is the computed geometry of one paragraph.
type ParagraphLayout struct {
	ID       document.ParagraphID
	Revision uint64
	Length   int     // Paragraph length in runes
	Width    float64 // Wrap width the layout was computed for
	Height   float64 // Including space before and after
	Style    style.ResolvedParagraph
	Lines    []Line
}

// LineCount returns the number of visual lines.
func (p *ParagraphLayout) LineCount() int {
	return len(p.Lines)
}

// LineForOffset returns the index of the line holding the caret at off.
// An offset at a soft line break belongs to the following line.
func (p *ParagraphLayout) LineForOffset(off int) int {
	for i := range p.Lines {
		if off < p.Lines[i].End {
			return i
		}
	}
	return len(p.Lines) - 1
}

// LineAtY returns the line at vertical position y, clamped to the first
// and last line.
func (p *ParagraphLayout) LineAtY(y float64) int {
	for i := range p.Lines {
		l := &p.Lines[i]
		if y < l.Y+l.Height {
			return i
		}
	}
	return len(p.Lines) - 1
}

// CaretRect returns the caret rectangle before rune off, relative to the
// paragraph's top-left corner.
func (p *ParagraphLayout) CaretRect(off int) Rect {
	off = max(0, min(off, p.Length))
	l := &p.Lines[p.LineForOffset(off)]
	return Rect{X: l.xAt(off), Y: l.Y, Width: 0, Height: l.Height}
}

// OffsetAt returns the paragraph offset closest to pt, which is relative to
// the paragraph's top-left corner.
func (p *ParagraphLayout) OffsetAt(pt Point) int {
	li := p.LineAtY(pt.Y)
	l := &p.Lines[li]
	last := l.End
	if li < len(p.Lines)-1 && l.End > l.Start {
		// Clicking past a soft break keeps the caret on this line.
		last = l.End - 1
	}
	x := l.X
	for i := l.Start; i < last; i++ {
		adv := l.advances[i-l.Start]
		if pt.X < x+adv/2 {
			return i
		}
		x += adv
	}
	return last
}

// OffsetOnLine returns the offset on line li nearest to horizontal
// position x. It is used for vertical caret motion.
func (p *ParagraphLayout) OffsetOnLine(li int, x float64) int {
	li = max(0, min(li, len(p.Lines)-1))
	l := &p.Lines[li]
	return p.OffsetAt(Point{X: x, Y: l.Y})
}
