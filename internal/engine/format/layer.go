package format

import (
	"errors"
	"fmt"
	"sort"
)

// ErrOutOfRange indicates a range outside [0, Len()].
var ErrOutOfRange = errors.New("format range out of range")

// Run is a styled interval [Start, End).
type Run struct {
	Start int
	End   int
	Style InlineStyle
}

// Len returns the number of runes covered.
func (r Run) Len() int {
	return r.End - r.Start
}

func (r Run) String() string {
	return fmt.Sprintf("[%d,%d)%s", r.Start, r.End, r.Style)
}

// Layer stores inline style overrides for a text of a given length.
// Runs are sorted, non-overlapping, never empty and never carry the empty
// style. The zero Layer is an empty layer over empty text.
type Layer struct {
	runs   []Run
	length int
}

// NewLayer creates an unstyled layer over text of the given length.
func NewLayer(length int) *Layer {
	return &Layer{length: length}
}

// Len returns the text length the layer covers.
func (l *Layer) Len() int {
	return l.length
}

// Count returns the number of stored runs.
func (l *Layer) Count() int {
	return len(l.runs)
}

// Runs returns a copy of all runs.
func (l *Layer) Runs() []Run {
	out := make([]Run, len(l.runs))
	copy(out, l.runs)
	return out
}

func (l *Layer) check(start, end int) error {
	if start < 0 || end < start || end > l.length {
		return fmt.Errorf("[%d,%d) of %d: %w", start, end, l.length, ErrOutOfRange)
	}
	return nil
}

// first returns the index of the first run ending after pos.
func (l *Layer) first(pos int) int {
	return sort.Search(len(l.runs), func(i int) bool { return l.runs[i].End > pos })
}

// InlineStyleAt returns the style covering pos, or the empty style.
func (l *Layer) InlineStyleAt(pos int) (InlineStyle, error) {
	if pos < 0 || pos >= l.length {
		return InlineStyle{}, fmt.Errorf("position %d of %d: %w", pos, l.length, ErrOutOfRange)
	}
	i := l.first(pos)
	if i < len(l.runs) && l.runs[i].Start <= pos {
		return l.runs[i].Style, nil
	}
	return InlineStyle{}, nil
}

// HasOverrides reports whether any run intersects [start, end).
func (l *Layer) HasOverrides(start, end int) (bool, error) {
	if err := l.check(start, end); err != nil {
		return false, err
	}
	i := l.first(start)
	return i < len(l.runs) && l.runs[i].Start < end && start < end, nil
}

// RunsIn returns the runs intersecting [start, end), clipped to the range.
func (l *Layer) RunsIn(start, end int) ([]Run, error) {
	if err := l.check(start, end); err != nil {
		return nil, err
	}
	var out []Run
	for i := l.first(start); i < len(l.runs) && l.runs[i].Start < end; i++ {
		r := l.runs[i]
		r.Start = max(r.Start, start)
		r.End = min(r.End, end)
		if r.Start < r.End {
			out = append(out, r)
		}
	}
	return out, nil
}

// Segments returns a partition of [start, end) into runs, filling unstyled
// gaps with empty-style runs. Useful for walking every character's style.
func (l *Layer) Segments(start, end int) ([]Run, error) {
	runs, err := l.RunsIn(start, end)
	if err != nil {
		return nil, err
	}
	out := make([]Run, 0, len(runs)*2+1)
	cur := start
	for _, r := range runs {
		if r.Start > cur {
			out = append(out, Run{Start: cur, End: r.Start})
		}
		out = append(out, r)
		cur = r.End
	}
	if cur < end {
		out = append(out, Run{Start: cur, End: end})
	}
	return out, nil
}

// SetInlineStyle overlays style on [start, end). Existing attributes not
// named by style are kept; partially covered runs are split.
func (l *Layer) SetInlineStyle(start, end int, style InlineStyle) error {
	if err := l.check(start, end); err != nil {
		return err
	}
	if style.IsEmpty() || start == end {
		return nil
	}
	l.rewrite(start, end, func(old InlineStyle) InlineStyle { return old.Merge(style) })
	return nil
}

// ClearAttributes removes the attributes in mask from [start, end).
func (l *Layer) ClearAttributes(start, end int, mask Attr) error {
	if err := l.check(start, end); err != nil {
		return err
	}
	l.rewrite(start, end, func(old InlineStyle) InlineStyle { return old.Without(mask) })
	return nil
}

// Clear removes every override from [start, end).
func (l *Layer) Clear(start, end int) error {
	if err := l.check(start, end); err != nil {
		return err
	}
	l.rewrite(start, end, func(InlineStyle) InlineStyle { return InlineStyle{} })
	return nil
}

// Restore replaces the overrides in [start, end) with runs, which must lie
// inside the range. It is the inverse of RunsIn and is used by undo.
func (l *Layer) Restore(start, end int, runs []Run) error {
	if err := l.check(start, end); err != nil {
		return err
	}
	for _, r := range runs {
		if r.Start < start || r.End > end || r.Start > r.End {
			return fmt.Errorf("restore run %v outside [%d,%d): %w", r, start, end, ErrOutOfRange)
		}
	}
	l.rewrite(start, end, func(InlineStyle) InlineStyle { return InlineStyle{} })
	for _, r := range runs {
		style := r.Style
		l.rewrite(r.Start, r.End, func(InlineStyle) InlineStyle { return style })
	}
	return nil
}

// rewrite maps every position in [start, end) through fn, splitting runs at
// the range boundaries, then coalesces around the rewritten segment.
func (l *Layer) rewrite(start, end int, fn func(InlineStyle) InlineStyle) {
	if start >= end {
		return
	}
	l.splitAt(start)
	l.splitAt(end)

	lo := l.first(start)
	hi := sort.Search(len(l.runs), func(i int) bool { return l.runs[i].Start >= end })

	pieces := make([]Run, 0, hi-lo+2)
	emit := func(s, e int, st InlineStyle) {
		if s < e && !st.IsEmpty() {
			pieces = append(pieces, Run{Start: s, End: e, Style: st})
		}
	}
	cur := start
	for _, r := range l.runs[lo:hi] {
		emit(cur, r.Start, fn(InlineStyle{}))
		emit(r.Start, r.End, fn(r.Style))
		cur = r.End
	}
	emit(cur, end, fn(InlineStyle{}))

	l.runs = splice(l.runs, lo, hi, pieces)
	l.coalesce(max(lo-1, 0), lo+len(pieces)+1)
}

// splitAt ensures no run straddles pos.
func (l *Layer) splitAt(pos int) {
	i := l.first(pos)
	if i >= len(l.runs) || l.runs[i].Start >= pos {
		return
	}
	r := l.runs[i]
	left := Run{Start: r.Start, End: pos, Style: r.Style}
	right := Run{Start: pos, End: r.End, Style: r.Style}
	l.runs = splice(l.runs, i, i+1, []Run{left, right})
}

// coalesce merges abutting runs with equal styles within runs[from:to].
func (l *Layer) coalesce(from, to int) {
	to = min(to, len(l.runs)-1)
	for i := from; i < to && i+1 < len(l.runs); {
		a, b := l.runs[i], l.runs[i+1]
		if a.End == b.Start && a.Style.Equal(b.Style) {
			l.runs[i].End = b.End
			l.runs = append(l.runs[:i+1], l.runs[i+2:]...)
			to--
			continue
		}
		i++
	}
}

// AdjustForInsert shifts runs for n runes inserted at pos. Runs starting at
// or after pos move right; runs strictly straddling pos grow. A run ending
// exactly at pos is not extended.
func (l *Layer) AdjustForInsert(pos, n int) error {
	if pos < 0 || pos > l.length || n < 0 {
		return fmt.Errorf("insert at %d of %d: %w", pos, l.length, ErrOutOfRange)
	}
	if n == 0 {
		return nil
	}
	for i := l.first(pos); i < len(l.runs); i++ {
		r := &l.runs[i]
		if r.Start >= pos {
			r.Start += n
		}
		r.End += n
	}
	l.length += n
	return nil
}

// AdjustForErase updates runs for n runes removed at pos. Runs inside the
// erased range disappear, straddling runs are truncated and later runs
// shift left.
func (l *Layer) AdjustForErase(pos, n int) error {
	if err := l.check(pos, pos+n); err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
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

	lo := l.first(pos)
	out := l.runs[:lo]
	for _, r := range l.runs[lo:] {
		r.Start, r.End = mapPos(r.Start), mapPos(r.End)
		if r.Start < r.End {
			out = append(out, r)
		}
	}
	l.runs = out
	l.length -= n
	l.coalesce(max(lo-1, 0), lo+1)
	return nil
}

// SetLength resets the covered length, dropping runs beyond it.
func (l *Layer) SetLength(n int) {
	l.length = n
	out := l.runs[:0]
	for _, r := range l.runs {
		if r.Start >= n {
			break
		}
		r.End = min(r.End, n)
		out = append(out, r)
	}
	l.runs = out
}

// AttributeIntervals returns the maximal intervals over which attribute a
// has one constant value, with the style reduced to that attribute.
func (l *Layer) AttributeIntervals(a Attr) []Run {
	var out []Run
	for _, r := range l.runs {
		if r.Style.set&a == 0 {
			continue
		}
		st := r.Style.Only(a)
		if n := len(out); n > 0 && out[n-1].End == r.Start && out[n-1].Style.Equal(st) {
			out[n-1].End = r.End
			continue
		}
		out = append(out, Run{Start: r.Start, End: r.End, Style: st})
	}
	return out
}

func splice(runs []Run, lo, hi int, with []Run) []Run {
	out := make([]Run, 0, len(runs)-(hi-lo)+len(with))
	out = append(out, runs[:lo]...)
	out = append(out, with...)
	return append(out, runs[hi:]...)
}
