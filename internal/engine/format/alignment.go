package format

import "fmt"

// Alignment is the horizontal alignment of a paragraph's lines.
type Alignment uint8

const (
	// AlignInherit leaves alignment to the paragraph style.
	AlignInherit Alignment = iota
	AlignLeft
	AlignCenter
	AlignRight
	AlignJustify
)

// String returns the name used in documents and configuration.
func (a Alignment) String() string {
	switch a {
	case AlignLeft:
		return "left"
	case AlignCenter:
		return "center"
	case AlignRight:
		return "right"
	case AlignJustify:
		return "justify"
	default:
		return ""
	}
}

// ParseAlignment parses an alignment name. The empty string is AlignInherit.
func ParseAlignment(s string) (Alignment, error) {
	switch s {
	case "":
		return AlignInherit, nil
	case "left":
		return AlignLeft, nil
	case "center", "centre":
		return AlignCenter, nil
	case "right":
		return AlignRight, nil
	case "justify":
		return AlignJustify, nil
	}
	return AlignInherit, fmt.Errorf("unknown alignment %q", s)
}
