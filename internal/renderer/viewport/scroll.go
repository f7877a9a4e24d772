package viewport

import "math"

// ScrollState represents the current scroll state.
type ScrollState struct {
	Y         float64
	TargetY   float64
	Animating bool
}

// GetScrollState returns the current scroll state.
func (v *Viewport) GetScrollState() ScrollState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return ScrollState{Y: v.scrollY, TargetY: v.targetY, Animating: v.animating}
}

// SetScrollState restores a scroll state, for example after reloading a
// document.
func (v *Viewport) SetScrollState(state ScrollState) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.scrollY = state.Y
	v.targetY = state.TargetY
	v.animating = state.Animating
	return v.refreshLocked()
}

// ScrollDirection represents the scroll direction.
type ScrollDirection uint8

const (
	ScrollNone ScrollDirection = iota
	ScrollUp
	ScrollDown
)

// String returns the direction name.
func (d ScrollDirection) String() string {
	switch d {
	case ScrollUp:
		return "up"
	case ScrollDown:
		return "down"
	default:
		return "none"
	}
}

// ScrollingDirection returns the direction of the running animation.
func (v *Viewport) ScrollingDirection() ScrollDirection {
	v.mu.Lock()
	defer v.mu.Unlock()
	switch {
	case !v.animating || v.targetY == v.scrollY:
		return ScrollNone
	case v.targetY > v.scrollY:
		return ScrollDown
	default:
		return ScrollUp
	}
}

// SetSmoothScroll enables or disables smooth scrolling.
func (v *Viewport) SetSmoothScroll(enabled bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.smoothScroll = enabled
}

// SmoothScroll returns whether smooth scrolling is enabled.
func (v *Viewport) SmoothScroll() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.smoothScroll
}

// IsAnimating returns true if a scroll animation is in progress.
func (v *Viewport) IsAnimating() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.animating
}

// ScrollTo scrolls to document Y y. With smooth set and smooth scrolling
// enabled the move is animated by Update.
func (v *Viewport) ScrollTo(y float64, smooth bool) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	y = max(0, min(y, v.maxScrollLocked()))
	if smooth && v.smoothScroll {
		v.targetY = y
		v.animating = true
		return nil
	}
	v.scrollY = y
	v.targetY = y
	v.animating = false
	return v.refreshLocked()
}

// Update advances the scroll animation by dt seconds and reports whether
// the viewport moved.
func (v *Viewport) Update(dt float64) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.animating {
		return false, nil
	}

	diff := v.targetY - v.scrollY
	if math.Abs(diff) < 0.5 {
		v.scrollY = v.targetY
	} else {
		// Exponential decay; at 60fps roughly a fifth of the distance per frame.
		move := diff * (1 - math.Pow(0.1, dt*10))
		if math.Abs(move) < 1 {
			move = math.Copysign(1, diff)
		}
		if math.Abs(move) >= math.Abs(diff) {
			v.scrollY = v.targetY
		} else {
			v.scrollY += move
		}
	}
	if v.scrollY == v.targetY {
		v.animating = false
	}
	return true, v.refreshLocked()
}

// StopAnimation stops any ongoing scroll animation.
func (v *Viewport) StopAnimation() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.animating = false
	v.targetY = v.scrollY
}

// pageSize returns the page step, keeping two lines of overlap.
func (v *Viewport) pageSize() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	overlap := 2 * v.layout.EstimatedLineHeight()
	return max(v.height-overlap, v.layout.EstimatedLineHeight(), 1)
}

// PageUp scrolls up by one page.
func (v *Viewport) PageUp(smooth bool) error {
	return v.ScrollTo(v.ScrollPosition()-v.pageSize(), smooth)
}

// PageDown scrolls down by one page.
func (v *Viewport) PageDown(smooth bool) error {
	return v.ScrollTo(v.ScrollPosition()+v.pageSize(), smooth)
}

// ScrollToTop scrolls to the start of the document.
func (v *Viewport) ScrollToTop(smooth bool) error {
	return v.ScrollTo(0, smooth)
}

// ScrollToBottom scrolls to the end of the document.
func (v *Viewport) ScrollToBottom(smooth bool) error {
	return v.ScrollTo(v.MaxScroll(), smooth)
}

// ScrollPercent returns how far through the document the viewport is,
// from 0 to 1.
func (v *Viewport) ScrollPercent() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	ms := v.maxScrollLocked()
	if ms == 0 {
		return 0
	}
	return v.scrollY / ms
}

// ScrollToPercent scrolls to a fraction of the document.
func (v *Viewport) ScrollToPercent(percent float64, smooth bool) error {
	percent = max(0, min(percent, 1))
	return v.ScrollTo(v.MaxScroll()*percent, smooth)
}
