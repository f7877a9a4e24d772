package history

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dshills/folio/internal/engine/document"
	"github.com/dshills/folio/internal/engine/format"
)

// Command is a reversible edit.
type Command interface {
	// Execute performs the command.
	Execute(doc *document.Document) (document.Change, error)

	// Undo reverses a previously executed command.
	Undo(doc *document.Document) (document.Change, error)

	// Description returns a human-readable description of the command.
	Description() string
}

// Merger is implemented by commands that can absorb the command that
// follows them. MergeWith reports whether next was absorbed; next has
// already been executed.
type Merger interface {
	MergeWith(next Command) bool
}

// InsertCommand inserts a fragment at Pos.
type InsertCommand struct {
	Pos  int
	Frag document.Fragment
}

// NewInsertCommand creates a new insert command.
func NewInsertCommand(pos int, frag document.Fragment) *InsertCommand {
	return &InsertCommand{Pos: pos, Frag: frag.NormalizeLineEndings()}
}

// Execute inserts the fragment with its exact formatting.
func (c *InsertCommand) Execute(doc *document.Document) (document.Change, error) {
	c.Frag = c.Frag.NormalizeLineEndings()
	ch, err := doc.InsertFragment(c.Pos, c.Frag)
	if err != nil {
		return ch, fmt.Errorf("insert at offset %d: %w", c.Pos, err)
	}
	return ch, nil
}

// Undo removes the inserted text.
func (c *InsertCommand) Undo(doc *document.Document) (document.Change, error) {
	ch, err := doc.Erase(c.Pos, c.Frag.Len())
	if err != nil {
		return ch, fmt.Errorf("undo insert: %w", err)
	}
	return ch, nil
}

// MergeWith absorbs a following insert that continues at the end of this
// one. Inserts that start a new paragraph are kept separate.
func (c *InsertCommand) MergeWith(next Command) bool {
	n, ok := next.(*InsertCommand)
	if !ok || n.Pos != c.Pos+c.Frag.Len() {
		return false
	}
	if strings.Contains(n.Frag.Text, "\n") || strings.HasSuffix(c.Frag.Text, "\n") {
		return false
	}
	c.Frag = c.Frag.Append(n.Frag)
	return true
}

// Description returns a human-readable description.
func (c *InsertCommand) Description() string {
	text := c.Frag.Text
	switch utf8.RuneCountInString(text) {
	case 1:
		if text == "\n" {
			return "Insert paragraph"
		}
		if text == "\t" {
			return "Insert tab"
		}
		return fmt.Sprintf("Type '%s'", text)
	}
	if utf8.RuneCountInString(text) <= 20 {
		return fmt.Sprintf("Insert \"%s\"", text)
	}
	return fmt.Sprintf("Insert %d characters", utf8.RuneCountInString(text))
}

// DeleteKind says how a deletion was requested.
type DeleteKind int

const (
	// DeleteRange removes an explicit range such as a selection.
	DeleteRange DeleteKind = iota
	// DeleteBackward removes before the cursor (Backspace).
	DeleteBackward
	// DeleteForward removes after the cursor (Delete key).
	DeleteForward
)

// DeleteCommand removes Count runes at Pos.
type DeleteCommand struct {
	Pos   int
	Count int
	Kind  DeleteKind

	removed document.Fragment
}

// NewDeleteCommand creates a new delete command.
func NewDeleteCommand(pos, count int, kind DeleteKind) *DeleteCommand {
	return &DeleteCommand{Pos: pos, Count: count, Kind: kind}
}

// Execute removes the range, remembering its text and formatting.
func (c *DeleteCommand) Execute(doc *document.Document) (document.Change, error) {
	frag, ch, err := doc.EraseFragment(c.Pos, c.Count)
	if err != nil {
		return ch, fmt.Errorf("delete at range [%d,%d): %w", c.Pos, c.Pos+c.Count, err)
	}
	c.removed = frag
	return ch, nil
}

// Undo restores the removed text and formatting.
func (c *DeleteCommand) Undo(doc *document.Document) (document.Change, error) {
	ch, err := doc.InsertFragment(c.Pos, c.removed)
	if err != nil {
		return ch, fmt.Errorf("undo delete: %w", err)
	}
	return ch, nil
}

// Removed returns what the last execution removed.
func (c *DeleteCommand) Removed() document.Fragment {
	return c.removed
}

// MergeWith absorbs repeated backspaces or repeated forward deletes.
func (c *DeleteCommand) MergeWith(next Command) bool {
	n, ok := next.(*DeleteCommand)
	if !ok || n.Kind != c.Kind {
		return false
	}
	switch c.Kind {
	case DeleteBackward:
		if n.Pos+n.Count != c.Pos {
			return false
		}
		c.removed = n.removed.Append(c.removed)
		c.Pos = n.Pos
	case DeleteForward:
		if n.Pos != c.Pos {
			return false
		}
		c.removed = c.removed.Append(n.removed)
	default:
		return false
	}
	c.Count += n.Count
	return true
}

// Description returns a human-readable description.
func (c *DeleteCommand) Description() string {
	switch {
	case c.Kind == DeleteBackward && c.Count == 1:
		return "Backspace"
	case c.Kind == DeleteForward && c.Count == 1:
		return "Delete"
	case c.Kind == DeleteBackward:
		return fmt.Sprintf("Backspace %d characters", c.Count)
	}
	return fmt.Sprintf("Delete %d characters", c.Count)
}

// StyleCommand overlays Style on [Start, End).
type StyleCommand struct {
	Start int
	End   int
	Style format.InlineStyle

	before []format.Run
}

// NewStyleCommand creates a new style command.
func NewStyleCommand(start, end int, style format.InlineStyle) *StyleCommand {
	return &StyleCommand{Start: start, End: end, Style: style}
}

// Execute applies the style, saving the runs it replaces.
func (c *StyleCommand) Execute(doc *document.Document) (document.Change, error) {
	before, err := doc.RunsIn(c.Start, c.End)
	if err != nil {
		return document.Change{}, fmt.Errorf("style [%d,%d): %w", c.Start, c.End, err)
	}
	c.before = before
	return doc.SetInlineStyle(c.Start, c.End, c.Style)
}

// Undo restores the saved runs.
func (c *StyleCommand) Undo(doc *document.Document) (document.Change, error) {
	return doc.RestoreRuns(c.Start, c.End, c.before)
}

// Description returns a human-readable description.
func (c *StyleCommand) Description() string {
	return fmt.Sprintf("Format %s", c.Style.Set())
}

// ClearFormatCommand removes the attributes in Mask from [Start, End).
// A zero Mask removes every attribute.
type ClearFormatCommand struct {
	Start int
	End   int
	Mask  format.Attr

	before []format.Run
}

// NewClearFormatCommand creates a new clear-formatting command.
func NewClearFormatCommand(start, end int, mask format.Attr) *ClearFormatCommand {
	return &ClearFormatCommand{Start: start, End: end, Mask: mask}
}

// Execute clears the attributes, saving the runs it replaces.
func (c *ClearFormatCommand) Execute(doc *document.Document) (document.Change, error) {
	before, err := doc.RunsIn(c.Start, c.End)
	if err != nil {
		return document.Change{}, fmt.Errorf("clear format [%d,%d): %w", c.Start, c.End, err)
	}
	c.before = before
	if c.Mask == 0 {
		return doc.ClearFormatting(c.Start, c.End)
	}
	return doc.ClearAttributes(c.Start, c.End, c.Mask)
}

// Undo restores the saved runs.
func (c *ClearFormatCommand) Undo(doc *document.Document) (document.Change, error) {
	return doc.RestoreRuns(c.Start, c.End, c.before)
}

// Description returns a human-readable description.
func (c *ClearFormatCommand) Description() string {
	if c.Mask == 0 {
		return "Clear formatting"
	}
	return fmt.Sprintf("Clear %s", c.Mask)
}

// ParagraphCommand changes the properties of paragraphs First..Last.
type ParagraphCommand struct {
	First  int
	Last   int
	Update document.PropsUpdate

	before []document.ParagraphProps
}

// NewParagraphCommand creates a new paragraph command.
func NewParagraphCommand(first, last int, u document.PropsUpdate) *ParagraphCommand {
	return &ParagraphCommand{First: first, Last: last, Update: u}
}

// Execute applies the update, saving the previous properties.
func (c *ParagraphCommand) Execute(doc *document.Document) (document.Change, error) {
	before, ch, err := doc.UpdateParagraphs(c.First, c.Last, c.Update)
	if err != nil {
		return ch, err
	}
	c.before = before
	return ch, nil
}

// Undo restores the previous properties.
func (c *ParagraphCommand) Undo(doc *document.Document) (document.Change, error) {
	return doc.RestoreParagraphs(c.First, c.before)
}

// Description returns a human-readable description.
func (c *ParagraphCommand) Description() string {
	switch {
	case c.Update.SetStyle && c.Update.SetAlign:
		return "Paragraph format"
	case c.Update.SetStyle:
		return fmt.Sprintf("Paragraph style %q", c.Update.StyleID)
	}
	return fmt.Sprintf("Align %s", c.Update.Align)
}

// CompoundCommand runs several commands as one undo unit.
type CompoundCommand struct {
	Name     string
	Commands []Command
}

// Execute runs the commands in order. On failure the commands already run
// are undone.
func (c *CompoundCommand) Execute(doc *document.Document) (document.Change, error) {
	var total document.Change
	for i, cmd := range c.Commands {
		ch, err := cmd.Execute(doc)
		if err != nil {
			errs := []error{err}
			for j := i - 1; j >= 0; j-- {
				if _, uerr := c.Commands[j].Undo(doc); uerr != nil {
					errs = append(errs, fmt.Errorf("roll back %s: %w", c.Commands[j].Description(), uerr))
				}
			}
			return document.Change{}, errors.Join(errs...)
		}
		total = union(total, ch, i == 0)
	}
	return total, nil
}

// Undo reverses the commands in reverse order.
func (c *CompoundCommand) Undo(doc *document.Document) (document.Change, error) {
	var total document.Change
	for i := len(c.Commands) - 1; i >= 0; i-- {
		ch, err := c.Commands[i].Undo(doc)
		if err != nil {
			return total, fmt.Errorf("undo %s: %w", c.Commands[i].Description(), err)
		}
		total = union(total, ch, i == len(c.Commands)-1)
	}
	return total, nil
}

// Description returns the group name.
func (c *CompoundCommand) Description() string {
	if c.Name != "" {
		return c.Name
	}
	if len(c.Commands) == 1 {
		return c.Commands[0].Description()
	}
	return fmt.Sprintf("%d edits", len(c.Commands))
}

func union(total, ch document.Change, first bool) document.Change {
	if first {
		return ch
	}
	return total.Union(ch)
}
