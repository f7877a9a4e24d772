package format

import (
	"strconv"
	"strings"
)

// Attr identifies one inline style attribute. Attr values combine as a mask.
type Attr uint16

// Inline attributes.
const (
	AttrBold Attr = 1 << iota
	AttrItalic
	AttrUnderline
	AttrStrikethrough
	AttrSubscript
	AttrSuperscript
	AttrFontFamily
	AttrFontSize
	AttrForeground
	AttrBackground
	AttrCharStyle

	// AttrFlags is the mask of boolean attributes.
	AttrFlags = AttrBold | AttrItalic | AttrUnderline | AttrStrikethrough | AttrSubscript | AttrSuperscript

	// AttrAll is the mask of every attribute.
	AttrAll = AttrFlags | AttrFontFamily | AttrFontSize | AttrForeground | AttrBackground | AttrCharStyle
)

var attrNames = []struct {
	attr Attr
	name string
}{
	{AttrBold, "bold"},
	{AttrItalic, "italic"},
	{AttrUnderline, "underline"},
	{AttrStrikethrough, "strikethrough"},
	{AttrSubscript, "subscript"},
	{AttrSuperscript, "superscript"},
	{AttrFontFamily, "font-family"},
	{AttrFontSize, "font-size"},
	{AttrForeground, "color"},
	{AttrBackground, "background-color"},
	{AttrCharStyle, "style"},
}

// String returns the attribute names in the mask, joined by '|'.
func (a Attr) String() string {
	var parts []string
	for _, n := range attrNames {
		if a&n.attr != 0 {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// InlineStyle is a sparse set of style attributes. Only attributes present in
// the set mask carry meaning; the zero value is the empty style.
type InlineStyle struct {
	set        Attr
	flags      Attr
	fontFamily string
	fontSize   float64
	fg         Color
	bg         Color
	charStyle  string
}

// Empty returns the empty style.
func Empty() InlineStyle {
	return InlineStyle{}
}

// IsEmpty reports whether no attribute is set.
func (s InlineStyle) IsEmpty() bool {
	return s.set == 0
}

// Clear unsets every attribute.
func (s *InlineStyle) Clear() {
	*s = InlineStyle{}
}

// Set returns the mask of attributes present.
func (s InlineStyle) Set() Attr {
	return s.set
}

// Has reports whether every attribute in a is set.
func (s InlineStyle) Has(a Attr) bool {
	return a != 0 && s.set&a == a
}

// Flag returns the value of a boolean attribute and whether it is set.
func (s InlineStyle) Flag(a Attr) (value, ok bool) {
	return s.flags&a != 0, s.set&a != 0
}

// WithFlag returns a copy with boolean attribute a set to v.
func (s InlineStyle) WithFlag(a Attr, v bool) InlineStyle {
	a &= AttrFlags
	s.set |= a
	if v {
		s.flags |= a
	} else {
		s.flags &^= a
	}
	return s
}

// WithBold returns a copy with bold set to v.
func (s InlineStyle) WithBold(v bool) InlineStyle { return s.WithFlag(AttrBold, v) }

// WithItalic returns a copy with italic set to v.
func (s InlineStyle) WithItalic(v bool) InlineStyle { return s.WithFlag(AttrItalic, v) }

// WithUnderline returns a copy with underline set to v.
func (s InlineStyle) WithUnderline(v bool) InlineStyle { return s.WithFlag(AttrUnderline, v) }

// WithStrikethrough returns a copy with strikethrough set to v.
func (s InlineStyle) WithStrikethrough(v bool) InlineStyle { return s.WithFlag(AttrStrikethrough, v) }

// WithFontFamily returns a copy with the font family set.
func (s InlineStyle) WithFontFamily(family string) InlineStyle {
	s.set |= AttrFontFamily
	s.fontFamily = family
	return s
}

// WithFontSize returns a copy with the font size (points) set.
func (s InlineStyle) WithFontSize(pt float64) InlineStyle {
	s.set |= AttrFontSize
	s.fontSize = pt
	return s
}

// WithForeground returns a copy with the text color set.
func (s InlineStyle) WithForeground(c Color) InlineStyle {
	s.set |= AttrForeground
	s.fg = c
	return s
}

// WithBackground returns a copy with the highlight color set.
func (s InlineStyle) WithBackground(c Color) InlineStyle {
	s.set |= AttrBackground
	s.bg = c
	return s
}

// WithCharacterStyle returns a copy referencing a named character style.
func (s InlineStyle) WithCharacterStyle(id string) InlineStyle {
	s.set |= AttrCharStyle
	s.charStyle = id
	return s
}

// FontFamily returns the font family if set.
func (s InlineStyle) FontFamily() (string, bool) {
	return s.fontFamily, s.set&AttrFontFamily != 0
}

// FontSize returns the font size if set.
func (s InlineStyle) FontSize() (float64, bool) {
	return s.fontSize, s.set&AttrFontSize != 0
}

// Foreground returns the text color if set.
func (s InlineStyle) Foreground() (Color, bool) {
	return s.fg, s.set&AttrForeground != 0
}

// Background returns the highlight color if set.
func (s InlineStyle) Background() (Color, bool) {
	return s.bg, s.set&AttrBackground != 0
}

// CharacterStyle returns the referenced character style if set.
func (s InlineStyle) CharacterStyle() (string, bool) {
	return s.charStyle, s.set&AttrCharStyle != 0
}

// Without returns a copy with the attributes in mask unset.
func (s InlineStyle) Without(mask Attr) InlineStyle {
	s.set &^= mask
	s.flags &^= mask
	if mask&AttrFontFamily != 0 {
		s.fontFamily = ""
	}
	if mask&AttrFontSize != 0 {
		s.fontSize = 0
	}
	if mask&AttrForeground != 0 {
		s.fg = Color{}
	}
	if mask&AttrBackground != 0 {
		s.bg = Color{}
	}
	if mask&AttrCharStyle != 0 {
		s.charStyle = ""
	}
	return s
}

// Only returns a copy keeping just the attributes in mask.
func (s InlineStyle) Only(mask Attr) InlineStyle {
	return s.Without(AttrAll &^ mask)
}

// Merge returns s overlaid with other: attributes set in other win.
func (s InlineStyle) Merge(other InlineStyle) InlineStyle {
	o := other.set
	s.set |= o
	s.flags = s.flags&^(o&AttrFlags) | other.flags&o&AttrFlags
	if o&AttrFontFamily != 0 {
		s.fontFamily = other.fontFamily
	}
	if o&AttrFontSize != 0 {
		s.fontSize = other.fontSize
	}
	if o&AttrForeground != 0 {
		s.fg = other.fg
	}
	if o&AttrBackground != 0 {
		s.bg = other.bg
	}
	if o&AttrCharStyle != 0 {
		s.charStyle = other.charStyle
	}
	return s
}

// Fill returns s with its unset attributes taken from lower.
// It is the inverse priority of Merge: s wins.
func (s InlineStyle) Fill(lower InlineStyle) InlineStyle {
	return lower.Merge(s)
}

// Equal compares the set attributes only.
func (s InlineStyle) Equal(o InlineStyle) bool {
	if s.set != o.set || s.flags&s.set != o.flags&o.set {
		return false
	}
	return (s.set&AttrFontFamily == 0 || s.fontFamily == o.fontFamily) &&
		(s.set&AttrFontSize == 0 || s.fontSize == o.fontSize) &&
		(s.set&AttrForeground == 0 || s.fg == o.fg) &&
		(s.set&AttrBackground == 0 || s.bg == o.bg) &&
		(s.set&AttrCharStyle == 0 || s.charStyle == o.charStyle)
}

// Key returns a canonical string usable as a map key. Equal styles have
// equal keys.
func (s InlineStyle) Key() string {
	if s.set == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(strconv.FormatUint(uint64(s.set), 16))
	sb.WriteByte(':')
	sb.WriteString(strconv.FormatUint(uint64(s.flags&s.set), 16))
	if s.set&AttrFontFamily != 0 {
		sb.WriteString(";f=")
		sb.WriteString(s.fontFamily)
	}
	if s.set&AttrFontSize != 0 {
		sb.WriteString(";s=")
		sb.WriteString(strconv.FormatFloat(s.fontSize, 'g', -1, 64))
	}
	if s.set&AttrForeground != 0 {
		sb.WriteString(";c=")
		sb.WriteString(s.fg.Hex())
	}
	if s.set&AttrBackground != 0 {
		sb.WriteString(";b=")
		sb.WriteString(s.bg.Hex())
	}
	if s.set&AttrCharStyle != 0 {
		sb.WriteString(";y=")
		sb.WriteString(s.charStyle)
	}
	return sb.String()
}

// String returns a readable form such as "{bold italic=false size=12}".
func (s InlineStyle) String() string {
	var parts []string
	for _, n := range attrNames {
		if s.set&n.attr == 0 {
			continue
		}
		switch n.attr {
		case AttrFontFamily:
			parts = append(parts, n.name+"="+strconv.Quote(s.fontFamily))
		case AttrFontSize:
			parts = append(parts, n.name+"="+strconv.FormatFloat(s.fontSize, 'g', -1, 64))
		case AttrForeground:
			parts = append(parts, n.name+"="+s.fg.Hex())
		case AttrBackground:
			parts = append(parts, n.name+"="+s.bg.Hex())
		case AttrCharStyle:
			parts = append(parts, n.name+"="+strconv.Quote(s.charStyle))
		default:
			if s.flags&n.attr != 0 {
				parts = append(parts, n.name)
			} else {
				parts = append(parts, n.name+"=false")
			}
		}
	}
	return "{" + strings.Join(parts, " ") + "}"
}
