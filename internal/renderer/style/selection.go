package style

import "github.com/dshills/folio/internal/engine/format"

// Tristate is the state of a toggle attribute over a selection.
type Tristate uint8

// Toggle states.
const (
	Off Tristate = iota
	On
	Mixed
)

func (t Tristate) String() string {
	switch t {
	case On:
		return "on"
	case Mixed:
		return "mixed"
	}
	return "off"
}

// Span is one uniformly styled piece of a selection.
type Span struct {
	Inline         format.InlineStyle
	ParagraphStyle string
}

// SelectionStyle is the resolved style of a selection. Attributes in Mixed
// differ between spans; for those the value in Resolved is the first span's
// and must not be shown as definitive.
type SelectionStyle struct {
	Resolved
	Mixed format.Attr
}

// IsMixed reports whether attribute a differs across the selection.
func (s SelectionStyle) IsMixed(a format.Attr) bool {
	return s.Mixed&a != 0
}

// State returns the toolbar state of a boolean attribute.
func (s SelectionStyle) State(a format.Attr) Tristate {
	if s.IsMixed(a) {
		return Mixed
	}
	var v bool
	switch a {
	case format.AttrBold:
		v = s.Bold
	case format.AttrItalic:
		v = s.Italic
	case format.AttrUnderline:
		v = s.Underline
	case format.AttrStrikethrough:
		v = s.Strikethrough
	case format.AttrSubscript:
		v = s.Subscript
	case format.AttrSuperscript:
		v = s.Superscript
	}
	if v {
		return On
	}
	return Off
}

// CurrentStyleForSelection resolves every span and reports each attribute
// whose resolved value differs between spans as mixed. With no spans it
// returns the theme defaults.
func (r *Resolver) CurrentStyleForSelection(spans []Span) SelectionStyle {
	if len(spans) == 0 {
		return SelectionStyle{Resolved: r.ResolveForRun(format.InlineStyle{}, "")}
	}
	out := SelectionStyle{Resolved: r.ResolveForRun(spans[0].Inline, spans[0].ParagraphStyle)}
	for _, sp := range spans[1:] {
		out.Mixed |= diff(out.Resolved, r.ResolveForRun(sp.Inline, sp.ParagraphStyle))
	}
	return out
}

func diff(a, b Resolved) format.Attr {
	var m format.Attr
	mark := func(differ bool, attr format.Attr) {
		if differ {
			m |= attr
		}
	}
	mark(a.FontFamily != b.FontFamily, format.AttrFontFamily)
	mark(a.FontSize != b.FontSize, format.AttrFontSize)
	mark(a.Bold != b.Bold, format.AttrBold)
	mark(a.Italic != b.Italic, format.AttrItalic)
	mark(a.Underline != b.Underline, format.AttrUnderline)
	mark(a.Strikethrough != b.Strikethrough, format.AttrStrikethrough)
	mark(a.Subscript != b.Subscript, format.AttrSubscript)
	mark(a.Superscript != b.Superscript, format.AttrSuperscript)
	mark(a.Foreground != b.Foreground, format.AttrForeground)
	mark(a.HasBackground != b.HasBackground || a.Background != b.Background, format.AttrBackground)
	return m
}
