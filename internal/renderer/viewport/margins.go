package viewport

// MarginConfig holds scroll margins in layout units.
type MarginConfig struct {
	Top    float64 // Space to keep above the caret
	Bottom float64 // Space to keep below the caret
}

// DefaultMargins returns two lines of context above and below.
func DefaultMargins() MarginConfig {
	return MarginConfig{Top: 2, Bottom: 2}
}

// NoMargins returns zero margins (the caret can touch the edges).
func NoMargins() MarginConfig {
	return MarginConfig{}
}

// SetMargins sets the scroll margins.
func (v *Viewport) SetMargins(c MarginConfig) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.marginTop = c.Top
	v.marginBottom = c.Bottom
}

// Margins returns the configured scroll margins.
func (v *Viewport) Margins() MarginConfig {
	v.mu.Lock()
	defer v.mu.Unlock()
	return MarginConfig{Top: v.marginTop, Bottom: v.marginBottom}
}

// maxMarginRatio limits each margin to a third of the viewport height.
const maxMarginRatio = 3

// EffectiveMargins returns margins adjusted for the viewport height.
func (v *Viewport) EffectiveMargins() MarginConfig {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.effectiveMarginsLocked()
}

func (v *Viewport) effectiveMarginsLocked() MarginConfig {
	limit := v.height / maxMarginRatio
	return MarginConfig{
		Top:    max(0, min(v.marginTop, limit)),
		Bottom: max(0, min(v.marginBottom, limit)),
	}
}

// CursorZone represents where the caret is relative to the margins.
type CursorZone uint8

const (
	ZoneCenter       CursorZone = iota // Caret is in the comfortable zone
	ZoneTopMargin                      // Caret is in the top margin
	ZoneBottomMargin                   // Caret is in the bottom margin
	ZoneAbove                          // Caret is above the viewport
	ZoneBelow                          // Caret is below the viewport
)

// String returns the zone name.
func (z CursorZone) String() string {
	switch z {
	case ZoneCenter:
		return "center"
	case ZoneTopMargin:
		return "top-margin"
	case ZoneBottomMargin:
		return "bottom-margin"
	case ZoneAbove:
		return "above"
	case ZoneBelow:
		return "below"
	default:
		return "unknown"
	}
}

// Zone returns where the caret at document offset pos falls.
func (v *Viewport) Zone(pos int) (CursorZone, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	r, err := v.documentRectLocked(pos)
	if err != nil {
		return ZoneCenter, err
	}
	m := v.effectiveMarginsLocked()
	top, bottom := r.Y-v.scrollY, r.Y+r.Height-v.scrollY
	switch {
	case bottom <= 0:
		return ZoneAbove, nil
	case top >= v.height:
		return ZoneBelow, nil
	case top < m.Top:
		return ZoneTopMargin, nil
	case bottom > v.height-m.Bottom:
		return ZoneBottomMargin, nil
	default:
		return ZoneCenter, nil
	}
}

// ScrollToReveal scrolls the minimum distance that brings the caret at pos
// into the comfortable zone, and reports whether it scrolled. Scrolling is
// clamped to the document, so a caret near either end may stay in a
// margin.
func (v *Viewport) ScrollToReveal(pos int, smooth bool) (bool, error) {
	v.mu.Lock()
	r, err := v.documentRectLocked(pos)
	if err != nil {
		v.mu.Unlock()
		return false, err
	}
	m := v.effectiveMarginsLocked()
	target := v.scrollY
	switch {
	case r.Y < v.scrollY+m.Top:
		target = r.Y - m.Top
	case r.Y+r.Height > v.scrollY+v.height-m.Bottom:
		target = r.Y + r.Height + m.Bottom - v.height
	}
	target = max(0, min(target, v.maxScrollLocked()))
	current := v.scrollY
	v.mu.Unlock()

	if target == current {
		return false, nil
	}
	return true, v.ScrollTo(target, smooth)
}

// EnsureParagraphVisible scrolls paragraph i to the top if it is not
// visible and reports whether it scrolled.
func (v *Viewport) EnsureParagraphVisible(i int) (bool, error) {
	if v.IsParagraphVisible(i) {
		return false, nil
	}
	return true, v.ScrollToParagraph(i)
}
