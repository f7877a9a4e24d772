package editor

import (
	"fmt"

	"github.com/dshills/folio/internal/engine/document"
	"github.com/dshills/folio/internal/engine/format"
	"github.com/dshills/folio/internal/engine/history"
	"github.com/dshills/folio/internal/renderer/style"
)

// targetLocked returns the range formatting applies to: the selection, or
// the word under the caret.
func (e *Editor) targetLocked() (int, int, bool) {
	if !e.sel.IsEmpty() {
		return e.sel.Start(), e.sel.End(), true
	}
	return e.wordAtLocked(e.sel.Head)
}

// spansLocked splits [start, end) into uniformly styled spans, skipping
// paragraph separators.
func (e *Editor) spansLocked(start, end int) []style.Span {
	first, _ := e.doc.ParagraphAt(start)
	last, _ := e.doc.ParagraphAt(end)
	var spans []style.Span
	for i := first; i <= last; i++ {
		ps, pe, err := e.doc.ParagraphRange(i)
		if err != nil {
			break
		}
		s, t := max(start, ps), min(end, pe)
		if s >= t {
			continue
		}
		segs, err := e.doc.Segments(s, t)
		if err != nil {
			continue
		}
		styleID := e.doc.ParagraphProps(i).StyleID
		for _, seg := range segs {
			spans = append(spans, style.Span{Inline: seg.Style, ParagraphStyle: styleID})
		}
	}
	return spans
}

// CurrentInlineStyle returns the resolved style of the formatting target.
// Attributes that differ across the target are reported as mixed. Without
// a target it is the style the next typed text would get.
func (e *Editor) CurrentInlineStyle() style.SelectionStyle {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentStyleLocked()
}

func (e *Editor) currentStyleLocked() style.SelectionStyle {
	if start, end, ok := e.targetLocked(); ok {
		if spans := e.spansLocked(start, end); len(spans) > 0 {
			return e.resolver.CurrentStyleForSelection(spans)
		}
	}
	i, _, _ := e.paragraphOfLocked(e.sel.Head)
	inline := e.typingStyleLocked(e.sel.Head).Merge(e.pending)
	return e.resolver.CurrentStyleForSelection([]style.Span{{
		Inline:         inline,
		ParagraphStyle: e.doc.ParagraphProps(i).StyleID,
	}})
}

// PendingStyle returns the style queued for the next typed text.
func (e *Editor) PendingStyle() format.InlineStyle {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending
}

// ApplyInlineStyle overlays st on the formatting target. Without a target
// st is queued for the next typed text.
func (e *Editor) ApplyInlineStyle(st format.InlineStyle) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.formatLocked(st)
}

func (e *Editor) formatLocked(st format.InlineStyle) error {
	if st.IsEmpty() {
		return nil
	}
	start, end, ok := e.targetLocked()
	if !ok {
		e.pending = e.pending.Merge(st)
		return nil
	}
	e.history.Flush()
	return e.execLocked(history.NewStyleCommand(start, end, st), e.sel)
}

// toggleLocked turns a flag on unless it is on across the whole target.
func (e *Editor) toggleLocked(a format.Attr) error {
	on := e.currentStyleLocked().State(a) != style.On
	return e.formatLocked(format.Empty().WithFlag(a, on))
}

// ToggleBold toggles bold on the formatting target.
func (e *Editor) ToggleBold() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.toggleLocked(format.AttrBold)
}

// ToggleItalic toggles italic on the formatting target.
func (e *Editor) ToggleItalic() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.toggleLocked(format.AttrItalic)
}

// ToggleUnderline toggles underline on the formatting target.
func (e *Editor) ToggleUnderline() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.toggleLocked(format.AttrUnderline)
}

// ToggleStrikethrough toggles strikethrough on the formatting target.
func (e *Editor) ToggleStrikethrough() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.toggleLocked(format.AttrStrikethrough)
}

// ToggleSubscript toggles subscript, clearing superscript when turning it
// on.
func (e *Editor) ToggleSubscript() error {
	return e.toggleScript(format.AttrSubscript, format.AttrSuperscript)
}

// ToggleSuperscript toggles superscript, clearing subscript when turning
// it on.
func (e *Editor) ToggleSuperscript() error {
	return e.toggleScript(format.AttrSuperscript, format.AttrSubscript)
}

func (e *Editor) toggleScript(a, other format.Attr) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	on := e.currentStyleLocked().State(a) != style.On
	st := format.Empty().WithFlag(a, on)
	if on {
		st = st.WithFlag(other, false)
	}
	return e.formatLocked(st)
}

// ApplyFontFamily sets the font family of the formatting target.
func (e *Editor) ApplyFontFamily(family string) error {
	if family == "" {
		return fmt.Errorf("font family: %w", ErrInvalidValue)
	}
	return e.ApplyInlineStyle(format.Empty().WithFontFamily(family))
}

// ApplyFontSize sets the font size in points of the formatting target.
func (e *Editor) ApplyFontSize(pt float64) error {
	if pt <= 0 {
		return fmt.Errorf("font size %g: %w", pt, ErrInvalidValue)
	}
	return e.ApplyInlineStyle(format.Empty().WithFontSize(pt))
}

// ApplyTextColor sets the foreground colour of the formatting target.
func (e *Editor) ApplyTextColor(c format.Color) error {
	return e.ApplyInlineStyle(format.Empty().WithForeground(c))
}

// ApplyBackgroundColor sets the background colour of the formatting
// target.
func (e *Editor) ApplyBackgroundColor(c format.Color) error {
	return e.ApplyInlineStyle(format.Empty().WithBackground(c))
}

// ApplyCharacterStyle references a named character style from the
// formatting target.
func (e *Editor) ApplyCharacterStyle(id string) error {
	if id == "" {
		return fmt.Errorf("character style: %w", ErrInvalidValue)
	}
	return e.ApplyInlineStyle(format.Empty().WithCharacterStyle(id))
}

// ClearInlineFormatting removes every inline override from the formatting
// target and drops any pending style.
func (e *Editor) ClearInlineFormatting() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pending = format.InlineStyle{}
	start, end, ok := e.targetLocked()
	if !ok {
		return nil
	}
	if has, err := e.doc.HasOverrides(start, end); err != nil || !has {
		return err
	}
	e.history.Flush()
	return e.execLocked(history.NewClearFormatCommand(start, end, 0), e.sel)
}

// paragraphsLocked returns the paragraphs the selection touches.
func (e *Editor) paragraphsLocked() (int, int) {
	first, _ := e.doc.ParagraphAt(e.sel.Start())
	last, _ := e.doc.ParagraphAt(e.sel.End())
	if last > first {
		// A selection ending at a paragraph start does not touch it.
		if start, _, _ := e.doc.ParagraphRange(last); start == e.sel.End() {
			last--
		}
	}
	return first, last
}

// ApplyAlignment aligns every paragraph the selection touches.
func (e *Editor) ApplyAlignment(a format.Alignment) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	first, last := e.paragraphsLocked()
	e.history.Flush()
	return e.execLocked(history.NewParagraphCommand(first, last, document.PropsUpdate{Align: a, SetAlign: true}), e.sel)
}

// ApplyParagraphStyle assigns a named paragraph style to every paragraph
// the selection touches. An unknown id is kept and resolves to the theme.
func (e *Editor) ApplyParagraphStyle(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if c := e.resolver.Catalog(); id != "" && c != nil {
		if _, ok := c.ParagraphStyle(id); !ok {
			e.logger.Debug("paragraph style not in catalog", "id", id)
		}
	}
	first, last := e.paragraphsLocked()
	e.history.Flush()
	return e.execLocked(history.NewParagraphCommand(first, last, document.PropsUpdate{StyleID: id, SetStyle: true}), e.sel)
}

// SaveStyleFromSelection stores the resolved look of the formatting target
// as a named character style. Mixed attributes are left out.
func (e *Editor) SaveStyleFromSelection(id, name string) (style.CharacterStyle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.styles == nil {
		return style.CharacterStyle{}, ErrNoStyleStore
	}
	if _, _, ok := e.targetLocked(); !ok && e.pending.IsEmpty() {
		return style.CharacterStyle{}, ErrNoTarget
	}
	cur := e.currentStyleLocked()
	cs := style.CharacterStyle{
		ID:    id,
		Name:  name,
		Style: cur.ToInline().Without(cur.Mixed),
	}
	if err := e.styles.SaveCharacter(cs); err != nil {
		return style.CharacterStyle{}, fmt.Errorf("save style %q: %w", id, err)
	}
	// Cached resolutions may reference the saved id.
	e.resolver.Invalidate()
	return cs, nil
}
