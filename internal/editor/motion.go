package editor

import (
	"fmt"

	"github.com/dshills/folio/internal/renderer/layout"
)

// paragraphOfLocked returns the paragraph holding pos and its range.
func (e *Editor) paragraphOfLocked(pos int) (i, start, end int) {
	i, err := e.doc.ParagraphAt(pos)
	if err != nil {
		return 0, 0, 0
	}
	start, end, _ = e.doc.ParagraphRange(i)
	return i, start, end
}

// prevGraphemeLocked returns the cluster boundary before pos. At a
// paragraph start it steps over the separator.
func (e *Editor) prevGraphemeLocked(pos int) int {
	if pos <= 0 {
		return 0
	}
	i, start, _ := e.paragraphOfLocked(pos)
	if pos == start {
		return pos - 1
	}
	off := pos - start
	prev := 0
	for _, s := range graphemeStops(e.doc.ParagraphText(i)) {
		if s >= off {
			break
		}
		prev = s
	}
	return start + prev
}

// nextGraphemeLocked returns the cluster boundary after pos. At a
// paragraph end it steps over the separator.
func (e *Editor) nextGraphemeLocked(pos int) int {
	if pos >= e.doc.Len() {
		return e.doc.Len()
	}
	i, start, end := e.paragraphOfLocked(pos)
	if pos == end {
		return pos + 1
	}
	off := pos - start
	for _, s := range graphemeStops(e.doc.ParagraphText(i)) {
		if s > off {
			return start + s
		}
	}
	return end
}

// moveLocked moves the head to pos, extending the selection or collapsing
// it.
func (e *Editor) moveLocked(pos int, extend, keepGoal bool) {
	if extend {
		e.sel.Head = pos
	} else {
		e.sel = Selection{Anchor: pos, Head: pos}
	}
	e.selectionChangedLocked(keepGoal)
}

// MoveLeft moves one grapheme cluster left. Without extend a selection
// collapses to its start.
func (e *Editor) MoveLeft(extend bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !extend && !e.sel.IsEmpty() {
		e.moveLocked(e.sel.Start(), false, false)
		return
	}
	e.moveLocked(e.prevGraphemeLocked(e.sel.Head), extend, false)
}

// MoveRight moves one grapheme cluster right. Without extend a selection
// collapses to its end.
func (e *Editor) MoveRight(extend bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !extend && !e.sel.IsEmpty() {
		e.moveLocked(e.sel.End(), false, false)
		return
	}
	e.moveLocked(e.nextGraphemeLocked(e.sel.Head), extend, false)
}

// MoveWordLeft moves to the start of the previous word.
func (e *Editor) MoveWordLeft(extend bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	pos := e.sel.Head
	i, start, _ := e.paragraphOfLocked(pos)
	if pos == start {
		e.moveLocked(max(0, pos-1), extend, false)
		return
	}
	target := start
	ws := words(e.doc.ParagraphText(i))
	for k := len(ws) - 1; k >= 0; k-- {
		if start+ws[k].start < pos {
			target = start + ws[k].start
			break
		}
	}
	e.moveLocked(target, extend, false)
}

// MoveWordRight moves to the end of the next word.
func (e *Editor) MoveWordRight(extend bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	pos := e.sel.Head
	i, start, end := e.paragraphOfLocked(pos)
	if pos == end {
		e.moveLocked(min(e.doc.Len(), pos+1), extend, false)
		return
	}
	target := end
	for _, w := range words(e.doc.ParagraphText(i)) {
		if start+w.end > pos {
			target = start + w.end
			break
		}
	}
	e.moveLocked(target, extend, false)
}

// MoveParagraphStart moves to the start of the caret's paragraph.
func (e *Editor) MoveParagraphStart(extend bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, start, _ := e.paragraphOfLocked(e.sel.Head)
	e.moveLocked(start, extend, false)
}

// MoveParagraphEnd moves to the end of the caret's paragraph.
func (e *Editor) MoveParagraphEnd(extend bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, _, end := e.paragraphOfLocked(e.sel.Head)
	e.moveLocked(end, extend, false)
}

// MoveDocumentStart moves to offset 0.
func (e *Editor) MoveDocumentStart(extend bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.moveLocked(0, extend, false)
}

// MoveDocumentEnd moves to the end of the document.
func (e *Editor) MoveDocumentEnd(extend bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.moveLocked(e.doc.Len(), extend, false)
}

// MoveUp moves to the previous visual line, keeping the horizontal
// position across consecutive vertical moves.
func (e *Editor) MoveUp(extend bool) error {
	return e.moveVertical(-1, extend)
}

// MoveDown moves to the next visual line.
func (e *Editor) MoveDown(extend bool) error {
	return e.moveVertical(1, extend)
}

func (e *Editor) moveVertical(dir int, extend bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	i, start, _ := e.paragraphOfLocked(e.sel.Head)
	pl, err := e.layout.LayoutFor(i)
	if err != nil {
		return fmt.Errorf("vertical motion: %w", err)
	}
	off := e.sel.Head - start
	if !e.hasGoal {
		e.goalX = pl.CaretRect(off).X
		e.hasGoal = true
	}
	li := pl.LineForOffset(off) + dir

	var target int
	switch {
	case li >= 0 && li < pl.LineCount():
		target = start + pl.OffsetOnLine(li, e.goalX)
	case li < 0 && i == 0:
		target = 0
	case li >= pl.LineCount() && i == e.doc.ParagraphCount()-1:
		target = e.doc.Len()
	default:
		next := i + dir
		npl, err := e.layout.LayoutFor(next)
		if err != nil {
			return fmt.Errorf("vertical motion: %w", err)
		}
		nstart, _, _ := e.doc.ParagraphRange(next)
		line := 0
		if dir < 0 {
			line = npl.LineCount() - 1
		}
		target = nstart + npl.OffsetOnLine(line, e.goalX)
	}
	e.moveLocked(target, extend, true)
	return nil
}

// ClickAt places the caret at a point in viewport coordinates.
func (e *Editor) ClickAt(pt layout.Point, extend bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	para, off, err := e.view.HitTest(pt)
	if err != nil {
		return err
	}
	start, _, err := e.doc.ParagraphRange(para)
	if err != nil {
		return err
	}
	e.moveLocked(start+off, extend, false)
	return nil
}

// SelectWord selects the word under the caret and reports whether there
// was one.
func (e *Editor) SelectWord() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	start, end, ok := e.wordAtLocked(e.sel.Head)
	if !ok {
		return false
	}
	e.sel = Selection{Anchor: start, Head: end}
	e.selectionChangedLocked(false)
	return true
}

// SelectAll selects the whole document.
func (e *Editor) SelectAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sel = Selection{Anchor: 0, Head: e.doc.Len()}
	e.selectionChangedLocked(false)
}

// wordAtLocked returns the document range of the word under pos.
func (e *Editor) wordAtLocked(pos int) (int, int, bool) {
	i, start, _ := e.paragraphOfLocked(pos)
	w, ok := wordAround(e.doc.ParagraphText(i), pos-start)
	if !ok {
		return 0, 0, false
	}
	return start + w.start, start + w.end, true
}

// Words returns the words of paragraph i, for collaborators such as a
// spell checker that attach highlights.
func (e *Editor) Words(i int) ([]TextRange, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	start, _, err := e.doc.ParagraphRange(i)
	if err != nil {
		return nil, err
	}
	ws := words(e.doc.ParagraphText(i))
	out := make([]TextRange, len(ws))
	for k, w := range ws {
		out[k] = TextRange{Start: start + w.start, End: start + w.end, Text: w.text}
	}
	return out, nil
}
