// Package viewport tracks the visible part of a laid out document. It asks
// the layout manager for paragraphs as they scroll into view, drops
// layouts that have scrolled far away, and maps between viewport
// coordinates and document offsets.
package viewport

import (
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/dshills/folio/internal/engine/document"
	"github.com/dshills/folio/internal/renderer/layout"
)

// DefaultBufferSize is how many paragraphs on each side of the visible
// range BufferedRange includes.
const DefaultBufferSize = 50

// maxSettle bounds how often the visible range is recomputed while newly
// laid out paragraphs replace their estimated heights.
const maxSettle = 32

// Options configures a Viewport.
type Options struct {
	Height       float64
	BufferSize   int
	Margins      MarginConfig
	SmoothScroll bool
	Logger       *slog.Logger
}

// Viewport is a window of Height layout units onto a document.
type Viewport struct {
	mu sync.Mutex

	layout *layout.Manager
	logger *slog.Logger

	// Scroll position, the document Y at the top edge
	scrollY float64
	height  float64

	// Visible paragraphs, inclusive
	first int
	last  int

	bufferSize int

	marginTop    float64
	marginBottom float64

	// Scroll animation state
	targetY      float64
	animating    bool
	smoothScroll bool
}

// New creates a viewport over m. The visible range is laid out
// immediately.
func New(m *layout.Manager, opts Options) *Viewport {
	if opts.Height <= 0 {
		opts.Height = 1
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = DefaultBufferSize
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	v := &Viewport{
		layout:       m,
		logger:       opts.Logger,
		height:       opts.Height,
		bufferSize:   opts.BufferSize,
		marginTop:    opts.Margins.Top,
		marginBottom: opts.Margins.Bottom,
		smoothScroll: opts.SmoothScroll,
	}
	if err := v.refreshLocked(); err != nil {
		v.logger.Warn("initial layout failed", "error", err)
	}
	return v
}

// Layout returns the layout manager.
func (v *Viewport) Layout() *layout.Manager {
	return v.layout
}

// Height returns the viewport height.
func (v *Viewport) Height() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.height
}

// Width returns the wrap width of the underlying layout.
func (v *Viewport) Width() float64 {
	return v.layout.Width()
}

// Resize changes the viewport size. A new width rewraps the document.
func (v *Viewport) Resize(width, height float64) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if height <= 0 {
		height = 1
	}
	v.height = height
	v.layout.SetWidth(width)
	return v.refreshLocked()
}

// ScrollPosition returns the document Y at the top of the viewport.
func (v *Viewport) ScrollPosition() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.scrollY
}

// MaxScroll returns the largest valid scroll position.
func (v *Viewport) MaxScroll() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.maxScrollLocked()
}

func (v *Viewport) maxScrollLocked() float64 {
	return max(0, v.layout.TotalHeight()-v.height)
}

// VisibleRange returns the first and last visible paragraph.
func (v *Viewport) VisibleRange() (first, last int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.first, v.last
}

// BufferedRange returns the visible range widened by the buffer size on
// each side and clamped to the document.
func (v *Viewport) BufferedRange() (first, last int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	n := v.layout.Source().ParagraphCount()
	return max(0, v.first-v.bufferSize), min(n-1, v.last+v.bufferSize)
}

// IsParagraphVisible reports whether paragraph i is in the visible range.
func (v *Viewport) IsParagraphVisible(i int) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return i >= v.first && i <= v.last
}

// SetViewport sets the visible range and lays out every paragraph in it
// that has no cached layout. It returns how many were laid out.
func (v *Viewport) SetViewport(first, last int) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.setViewportLocked(first, last)
}

func (v *Viewport) setViewportLocked(first, last int) (int, error) {
	n := v.layout.Source().ParagraphCount()
	first = max(0, min(first, n-1))
	last = max(first, min(last, n-1))
	v.first, v.last = first, last

	computed := 0
	for i := first; i <= last; i++ {
		if v.layout.Has(i) {
			continue
		}
		if _, err := v.layout.LayoutFor(i); err != nil {
			return computed, fmt.Errorf("set viewport [%d, %d]: %w", first, last, err)
		}
		computed++
	}
	if computed > 0 {
		v.logger.Debug("laid out visible paragraphs", "count", computed, "first", first, "last", last)
	}
	return computed, nil
}

// Refresh recomputes the visible range from the scroll position and lays
// out whatever is missing. Call it after edits.
func (v *Viewport) Refresh() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.refreshLocked()
}

// refreshLocked settles the visible range. Laying out a paragraph replaces
// its estimated height, which can move later paragraphs in or out of view,
// so the range is recomputed until it stops changing.
func (v *Viewport) refreshLocked() error {
	for range maxSettle {
		v.scrollY = max(0, min(v.scrollY, v.maxScrollLocked()))
		first, last := v.rangeAtLocked(v.scrollY)
		computed, err := v.setViewportLocked(first, last)
		if err != nil {
			return err
		}
		if computed == 0 {
			return nil
		}
	}
	return nil
}

// rangeAtLocked returns the paragraphs intersecting [y, y+height).
func (v *Viewport) rangeAtLocked(y float64) (int, int) {
	first := v.layout.ParagraphAtY(y)
	bottom := y + v.height
	last := v.layout.ParagraphAtY(math.Nextafter(bottom, y))
	return first, max(first, last)
}

// EvictFarParagraphs drops cached layouts of paragraphs more than margin
// paragraphs outside the visible range and returns how many were dropped.
func (v *Viewport) EvictFarParagraphs(margin int) int {
	v.mu.Lock()
	first, last := v.first, v.last
	v.mu.Unlock()
	margin = max(0, margin)
	return v.layout.EvictOutside(first-margin, last+margin)
}

// SetScrollPosition scrolls so document Y y is at the top edge, clamped
// to the document.
func (v *Viewport) SetScrollPosition(y float64) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.scrollY = y
	v.targetY = y
	v.animating = false
	return v.refreshLocked()
}

// ScrollBy scrolls by dy layout units.
func (v *Viewport) ScrollBy(dy float64) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.scrollY += dy
	v.targetY = v.scrollY
	v.animating = false
	return v.refreshLocked()
}

// ScrollToParagraph scrolls so paragraph i starts at the top edge.
func (v *Viewport) ScrollToParagraph(i int) error {
	n := v.layout.Source().ParagraphCount()
	if i < 0 || i >= n {
		return fmt.Errorf("scroll to paragraph %d of %d: %w", i, n, document.ErrOutOfRange)
	}
	return v.SetScrollPosition(v.layout.ParagraphY(i))
}

// Placed is a laid out paragraph positioned in viewport coordinates.
type Placed struct {
	Index  int
	Y      float64 // Top of the paragraph relative to the viewport top
	Layout *layout.ParagraphLayout
}

// VisibleParagraphs returns the visible paragraphs in order with their
// positions.
func (v *Viewport) VisibleParagraphs() ([]Placed, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]Placed, 0, v.last-v.first+1)
	for i := v.first; i <= v.last; i++ {
		pl, err := v.layout.LayoutFor(i)
		if err != nil {
			return nil, err
		}
		out = append(out, Placed{Index: i, Y: v.layout.ParagraphY(i) - v.scrollY, Layout: pl})
	}
	return out, nil
}

// HitTest maps a point in viewport coordinates to a paragraph and a rune
// offset within it.
func (v *Viewport) HitTest(pt layout.Point) (para, offset int, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	y := max(0, v.scrollY+pt.Y)
	para = v.layout.ParagraphAtY(y)
	var pl *layout.ParagraphLayout
	for range maxSettle {
		if pl, err = v.layout.LayoutFor(para); err != nil {
			return 0, 0, fmt.Errorf("hit test: %w", err)
		}
		// The paragraph's real height may differ from its estimate.
		again := v.layout.ParagraphAtY(y)
		if again == para {
			break
		}
		para = again
	}
	local := layout.Point{X: pt.X, Y: y - v.layout.ParagraphY(para)}
	return para, pl.OffsetAt(local), nil
}

// CursorRect returns the caret rectangle before document offset pos in
// viewport coordinates. The rectangle may lie outside the viewport.
func (v *Viewport) CursorRect(pos int) (layout.Rect, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	r, err := v.documentRectLocked(pos)
	if err != nil {
		return layout.Rect{}, err
	}
	r.Y -= v.scrollY
	return r, nil
}

// documentRectLocked returns the caret rectangle in document coordinates.
func (v *Viewport) documentRectLocked(pos int) (layout.Rect, error) {
	src := v.layout.Source()
	i, err := src.ParagraphAt(pos)
	if err != nil {
		return layout.Rect{}, fmt.Errorf("cursor rect: %w", err)
	}
	start, _, err := src.ParagraphRange(i)
	if err != nil {
		return layout.Rect{}, fmt.Errorf("cursor rect: %w", err)
	}
	pl, err := v.layout.LayoutFor(i)
	if err != nil {
		return layout.Rect{}, fmt.Errorf("cursor rect: %w", err)
	}
	r := pl.CaretRect(pos - start)
	r.Y += v.layout.ParagraphY(i)
	return r, nil
}
