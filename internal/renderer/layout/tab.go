package layout

import "math"

const defaultTabWidth = 4

// TabStops are evenly spaced tab positions, Width space advances apart.
// Stops are measured from the start of the line, not the paragraph.
type TabStops struct {
	Width int
}

func newTabStops(width int) TabStops {
	if width < 1 {
		width = defaultTabWidth
	}
	return TabStops{Width: width}
}

// Advance returns how far a tab at pen position x moves the pen, given the
// advance of a space in the tab's style. A tab always moves to the next
// stop strictly after x.
func (t TabStops) Advance(x, space float64) float64 {
	if space <= 0 {
		space = 1
	}
	interval := float64(t.Width) * space
	return (math.Floor(x/interval)+1)*interval - x
}
