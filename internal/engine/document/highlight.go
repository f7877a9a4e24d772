package document

import (
	"fmt"
	"sort"
)

// Highlight marks a range for display without changing its formatting, for
// example a misspelled word reported by a spell checker.
type Highlight struct {
	Start int
	End   int
	Kind  string
}

// AddHighlight attaches an overlay to [start, end).
func (d *Document) AddHighlight(h Highlight) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if h.Start < 0 || h.End <= h.Start || h.End > d.text.Len() {
		return fmt.Errorf("highlight [%d,%d) of %d: %w", h.Start, h.End, d.text.Len(), ErrOutOfRange)
	}
	i := sort.Search(len(d.marks), func(i int) bool { return d.marks[i].Start > h.Start })
	d.marks = append(d.marks, Highlight{})
	copy(d.marks[i+1:], d.marks[i:])
	d.marks[i] = h
	d.touchRange(h.Start, h.End)
	return nil
}

// ClearHighlights removes every overlay of the given kind. An empty kind
// removes all overlays.
func (d *Document) ClearHighlights(kind string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := d.marks[:0]
	for _, h := range d.marks {
		if kind != "" && h.Kind != kind {
			out = append(out, h)
			continue
		}
		d.touchRange(h.Start, h.End)
	}
	d.marks = out
}

// Highlights returns the overlays intersecting [start, end).
func (d *Document) Highlights(start, end int) []Highlight {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []Highlight
	for _, h := range d.marks {
		if h.Start >= end {
			break
		}
		if h.End > start {
			out = append(out, h)
		}
	}
	return out
}

// Typing inside a highlight grows it; typing at either edge does not.
func (d *Document) shiftHighlightsForInsert(pos, n int) {
	for i := range d.marks {
		h := &d.marks[i]
		switch {
		case h.Start >= pos:
			h.Start += n
			h.End += n
		case h.End > pos:
			h.End += n
		}
	}
}

func (d *Document) shiftHighlightsForErase(pos, n int) {
	end := pos + n
	mapPos := func(x int) int {
		switch {
		case x <= pos:
			return x
		case x <= end:
			return pos
		default:
			return x - n
		}
	}
	out := d.marks[:0]
	for _, h := range d.marks {
		h.Start, h.End = mapPos(h.Start), mapPos(h.End)
		if h.Start < h.End {
			out = append(out, h)
		}
	}
	d.marks = out
}
