package editor

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/text/unicode/norm"

	"github.com/dshills/folio/internal/engine/document"
	"github.com/dshills/folio/internal/engine/format"
	"github.com/dshills/folio/internal/engine/history"
	"github.com/dshills/folio/internal/kml"
	"github.com/dshills/folio/internal/renderer/layout"
	"github.com/dshills/folio/internal/renderer/style"
	"github.com/dshills/folio/internal/renderer/viewport"
)

// Selection is an anchor/head pair of document offsets. The head is where
// typing happens.
type Selection = history.Selection

// Editor is the controller for one document.
type Editor struct {
	mu sync.Mutex

	doc      *document.Document
	resolver *style.Resolver
	layout   *layout.Manager
	view     *viewport.Viewport
	history  *history.Stack
	logger   *slog.Logger
	styles   StyleSaver
	strict   bool

	sel Selection
	// pending applies to the next typed text when formatting was requested
	// with no selection and no word under the caret.
	pending format.InlineStyle

	// Horizontal position kept across vertical motions.
	goalX   float64
	hasGoal bool

	modified bool
}

// New creates an editor over doc. A nil doc starts an empty document.
func New(doc *document.Document, opts ...Option) *Editor {
	s := settings{
		catalog: style.NewMemoryCatalog(),
		theme:   style.DefaultTheme(),
		metrics: layout.NewMonospaceMetrics(false),
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(&s)
	}
	if doc == nil {
		doc = document.New()
	}
	if s.layout.Logger == nil {
		s.layout.Logger = s.logger
	}
	if s.viewport.Logger == nil {
		s.viewport.Logger = s.logger
	}

	resolver := style.NewResolver(s.catalog, s.theme)
	resolver.SetLogger(s.logger)
	lm := layout.NewManager(doc, resolver, s.metrics, s.layout)
	return &Editor{
		doc:      doc,
		resolver: resolver,
		layout:   lm,
		view:     viewport.New(lm, s.viewport),
		history:  history.NewStack(s.history),
		logger:   s.logger,
		styles:   s.styles,
		strict:   s.strict,
	}
}

// Document returns the document. Callers must not mutate it directly.
func (e *Editor) Document() *document.Document {
	return e.doc
}

// Resolver returns the style resolver.
func (e *Editor) Resolver() *style.Resolver {
	return e.resolver
}

// Layout returns the layout manager.
func (e *Editor) Layout() *layout.Manager {
	return e.layout
}

// Viewport returns the viewport.
func (e *Editor) Viewport() *viewport.Viewport {
	return e.view
}

// History returns the undo stack.
func (e *Editor) History() *history.Stack {
	return e.history
}

// Text returns the plain text of the document.
func (e *Editor) Text() string {
	return e.doc.String()
}

// Modified reports whether the document changed since it was loaded or
// saved.
func (e *Editor) Modified() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.modified
}

// Selection returns the current selection.
func (e *Editor) Selection() Selection {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sel
}

// SelectedText returns the text of the selection.
func (e *Editor) SelectedText() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, _ := e.doc.Text(e.sel.Start(), e.sel.End()-e.sel.Start())
	return s
}

// SetSelection selects [anchor, head). The head may precede the anchor.
func (e *Editor) SetSelection(anchor, head int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	a, h, err := e.checkPair("select", anchor, head)
	if err != nil {
		return err
	}
	e.sel = Selection{Anchor: a, Head: h}
	e.selectionChangedLocked(false)
	return nil
}

// SetCaret collapses the selection to pos.
func (e *Editor) SetCaret(pos int) error {
	return e.SetSelection(pos, pos)
}

// checkPair validates two offsets that may come in either order.
func (e *Editor) checkPair(op string, a, b int) (int, int, error) {
	lo, hi, err := e.checkRange(op, min(a, b), max(a, b))
	if err != nil {
		return 0, 0, err
	}
	if a <= b {
		return lo, hi, nil
	}
	return hi, lo, nil
}

// checkRange enforces the out-of-range policy for [start, end).
func (e *Editor) checkRange(op string, start, end int) (int, int, error) {
	n := e.doc.Len()
	if start >= 0 && end >= start && end <= n {
		return start, end, nil
	}
	if e.strict {
		return 0, 0, fmt.Errorf("%s [%d,%d) of %d: %w", op, start, end, n, ErrOutOfRange)
	}
	cs := max(0, min(start, n))
	ce := max(cs, min(end, n))
	e.logger.Warn("clamped out-of-range offsets", "op", op, "start", start, "end", end, "length", n)
	return cs, ce, nil
}

// selectionChangedLocked ends the typing run after a caret move.
func (e *Editor) selectionChangedLocked(keepGoal bool) {
	if !keepGoal {
		e.hasGoal = false
	}
	e.pending = format.InlineStyle{}
	e.history.Flush()
	e.revealLocked()
}

func (e *Editor) revealLocked() {
	if _, err := e.view.ScrollToReveal(e.sel.Head, false); err != nil {
		e.logger.Warn("failed to reveal caret", "pos", e.sel.Head, "error", err)
	}
}

// applyLocked propagates a document change to layout and viewport.
func (e *Editor) applyLocked(ch document.Change) {
	e.layout.InvalidateRange(ch.Start, ch.End)
	if ch.Structural {
		e.logger.Debug("structural edit", "first", ch.FirstParagraph, "last", ch.LastParagraph)
	}
	if err := e.view.Refresh(); err != nil {
		e.logger.Warn("viewport refresh failed", "error", err)
	}
	e.modified = true
}

// execLocked runs cmd through the undo stack and moves the selection to
// after.
func (e *Editor) execLocked(cmd history.Command, after Selection) error {
	ch, err := e.history.Execute(e.doc, cmd, e.sel, after)
	if err != nil {
		return err
	}
	e.applyLocked(ch)
	e.sel = after
	return nil
}

var lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// normalizeText converts line endings to paragraph separators and the text
// to NFC.
func normalizeText(s string) string {
	return norm.NFC.String(lineEndings.Replace(s))
}

// InsertText types text at the caret, replacing the selection. Text is
// normalized to NFC and '\n' starts a new paragraph.
func (e *Editor) InsertText(text string) error {
	text = normalizeText(text)
	if text == "" {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	st := e.typingStyleLocked(e.sel.Start())
	if !e.sel.IsEmpty() {
		// Replacement text takes the look of the first replaced character.
		st, _ = e.doc.InlineStyleAt(e.sel.Start())
	}
	st = st.Merge(e.pending)
	frag := document.PlainFragment(text)
	if !st.IsEmpty() {
		frag.Runs = []format.Run{{Start: 0, End: frag.Len(), Style: st}}
	}
	return e.insertFragmentLocked(frag, "Typing")
}

// insertFragmentLocked inserts frag at the selection, replacing it in the
// same undo unit.
func (e *Editor) insertFragmentLocked(frag document.Fragment, name string) error {
	start, end := e.sel.Start(), e.sel.End()
	ins := history.NewInsertCommand(start, frag)
	after := history.Caret(start + frag.Len())
	e.hasGoal = false
	if start == end {
		return e.execLocked(ins, after)
	}
	del := history.NewDeleteCommand(start, end-start, history.DeleteRange)
	cmd := &history.CompoundCommand{Name: name, Commands: []history.Command{del, ins}}
	return e.execLocked(cmd, after)
}

// typingStyleLocked returns the inline style text inserted at pos takes
// from its surroundings: the style of a run straddling pos. Text inserted
// where a run starts or ends stays outside it.
func (e *Editor) typingStyleLocked(pos int) format.InlineStyle {
	if pos <= 0 || pos >= e.doc.Len() {
		return format.InlineStyle{}
	}
	runs, err := e.doc.RunsIn(pos-1, pos+1)
	if err != nil || len(runs) != 1 || runs[0].Start != pos-1 || runs[0].End != pos+1 {
		return format.InlineStyle{}
	}
	return runs[0].Style
}

// Backspace deletes the selection, or the grapheme cluster before the
// caret.
func (e *Editor) Backspace() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.sel.IsEmpty() {
		return e.deleteSelectionLocked()
	}
	pos := e.sel.Head
	if pos == 0 {
		return nil
	}
	prev := e.prevGraphemeLocked(pos)
	e.hasGoal = false
	cmd := history.NewDeleteCommand(prev, pos-prev, history.DeleteBackward)
	return e.execLocked(cmd, history.Caret(prev))
}

// DeleteForward deletes the selection, or the grapheme cluster after the
// caret.
func (e *Editor) DeleteForward() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.sel.IsEmpty() {
		return e.deleteSelectionLocked()
	}
	pos := e.sel.Head
	next := e.nextGraphemeLocked(pos)
	if next == pos {
		return nil
	}
	e.hasGoal = false
	cmd := history.NewDeleteCommand(pos, next-pos, history.DeleteForward)
	return e.execLocked(cmd, history.Caret(pos))
}

// DeleteSelection removes the selected text.
func (e *Editor) DeleteSelection() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.deleteSelectionLocked()
}

func (e *Editor) deleteSelectionLocked() error {
	start, end := e.sel.Start(), e.sel.End()
	if start == end {
		return nil
	}
	e.hasGoal = false
	cmd := history.NewDeleteCommand(start, end-start, history.DeleteRange)
	return e.execLocked(cmd, history.Caret(start))
}

// Copy returns the selection with its formatting.
func (e *Editor) Copy() (document.Fragment, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc.Fragment(e.sel.Start(), e.sel.End()-e.sel.Start())
}

// Cut copies the selection and deletes it.
func (e *Editor) Cut() (document.Fragment, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	frag, err := e.doc.Fragment(e.sel.Start(), e.sel.End()-e.sel.Start())
	if err != nil {
		return document.Fragment{}, err
	}
	if err := e.deleteSelectionLocked(); err != nil {
		return document.Fragment{}, err
	}
	return frag, nil
}

// Paste inserts frag with its formatting, replacing the selection.
func (e *Editor) Paste(frag document.Fragment) error {
	if frag.Len() == 0 {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history.Flush()
	if err := e.insertFragmentLocked(frag, "Paste"); err != nil {
		return err
	}
	e.history.Flush()
	return nil
}

// Group runs fn and records every edit it makes as one undo unit.
func (e *Editor) Group(name string, fn func() error) error {
	e.history.BeginGroup(name)
	err := fn()
	e.history.EndGroup()
	return err
}

// Undo reverses the last edit. It returns false when there is nothing to
// undo.
func (e *Editor) Undo() (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	res, err := e.history.Undo(e.doc)
	if errors.Is(err, history.ErrNothingToUndo) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("undo: %w", err)
	}
	e.afterHistoryLocked(res)
	return true, nil
}

// Redo re-applies the last undone edit. It returns false when there is
// nothing to redo.
func (e *Editor) Redo() (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	res, err := e.history.Redo(e.doc)
	if errors.Is(err, history.ErrNothingToRedo) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redo: %w", err)
	}
	e.afterHistoryLocked(res)
	return true, nil
}

func (e *Editor) afterHistoryLocked(res history.Result) {
	e.applyLocked(res.Change)
	n := e.doc.Len()
	e.sel = Selection{
		Anchor: max(0, min(res.Selection.Anchor, n)),
		Head:   max(0, min(res.Selection.Head, n)),
	}
	e.pending = format.InlineStyle{}
	e.hasGoal = false
	e.revealLocked()
}

// CanUndo reports whether Undo would do anything.
func (e *Editor) CanUndo() bool {
	return e.history.CanUndo()
}

// CanRedo reports whether Redo would do anything.
func (e *Editor) CanRedo() bool {
	return e.history.CanRedo()
}

// Load replaces the document with a parsed KML document. History and
// selection are reset. On a parse error the document is unchanged.
func (e *Editor) Load(r io.Reader) error {
	snap, err := kml.Parse(r)
	if err != nil {
		return fmt.Errorf("load document: %w", err)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.doc.Load(snap); err != nil {
		return fmt.Errorf("load document: %w", err)
	}
	e.history.Clear()
	e.layout.InvalidateAll()
	e.sel = history.Caret(0)
	e.pending = format.InlineStyle{}
	e.hasGoal = false
	e.modified = false
	if err := e.view.SetScrollPosition(0); err != nil {
		return fmt.Errorf("load document: %w", err)
	}
	return nil
}

// LoadFile loads the KML document at path.
func (e *Editor) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open document: %w", err)
	}
	defer f.Close()
	return e.Load(f)
}

// Save writes the document as KML.
func (e *Editor) Save(w io.Writer) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := kml.Save(w, e.doc); err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	e.modified = false
	return nil
}

// SaveFile writes the document to path atomically.
func (e *Editor) SaveFile(path string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	var b strings.Builder
	if err := kml.Save(&b, e.doc); err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	if err := writeFile(path, []byte(b.String())); err != nil {
		return err
	}
	e.modified = false
	return nil
}

// writeFile writes atomically using a temp file and rename.
func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
