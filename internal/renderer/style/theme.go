package style

import "github.com/dshills/folio/internal/engine/format"

// Theme supplies the lowest-priority values for every attribute.
type Theme struct {
	Name       string
	FontFamily string
	FontSize   float64
	Foreground format.Color
	Background format.Color // Page background

	// Selection is blended over selected text.
	Selection format.Color
	// Highlights colours overlays by kind, e.g. "spelling".
	Highlights map[string]format.Color
}

// DefaultTheme returns the built-in light theme.
func DefaultTheme() Theme {
	return Theme{
		Name:       "light",
		FontFamily: "Serif",
		FontSize:   12,
		Foreground: format.RGB(0x20, 0x20, 0x20),
		Background: format.RGB(0xfb, 0xf8, 0xf1),
		Selection:  format.RGB(0x3c, 0x5a, 0x82),
		Highlights: map[string]format.Color{
			"spelling": format.RGB(0xd0, 0x30, 0x30),
			"grammar":  format.RGB(0x30, 0x60, 0xd0),
		},
	}
}

// HighlightColor returns the colour for an overlay kind, falling back to
// the selection colour.
func (t Theme) HighlightColor(kind string) format.Color {
	if c, ok := t.Highlights[kind]; ok {
		return c
	}
	return t.Selection
}
