package editor

import "github.com/dshills/folio/internal/engine/document"

// AddHighlight attaches an overlay of the given kind to [start, end). The
// overlay moves with later edits and never changes formatting.
func (e *Editor) AddHighlight(start, end int, kind string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	start, end, err := e.checkRange("highlight", start, end)
	if err != nil {
		return err
	}
	if start == end {
		return nil
	}
	if err := e.doc.AddHighlight(document.Highlight{Start: start, End: end, Kind: kind}); err != nil {
		return err
	}
	e.layout.InvalidateRange(start, end)
	return nil
}

// ClearHighlights removes overlays of one kind, or all with an empty kind.
func (e *Editor) ClearHighlights(kind string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.doc.ClearHighlights(kind)
}

// VisibleHighlights returns the overlays intersecting the visible
// paragraphs.
func (e *Editor) VisibleHighlights() []document.Highlight {
	e.mu.Lock()
	defer e.mu.Unlock()
	first, last := e.view.VisibleRange()
	start, _, err := e.doc.ParagraphRange(first)
	if err != nil {
		return nil
	}
	_, end, err := e.doc.ParagraphRange(last)
	if err != nil {
		return nil
	}
	return e.doc.Highlights(start, end+1)
}
