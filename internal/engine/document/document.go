package document

import (
	"fmt"
	"strings"
	"sync"

	"github.com/dshills/folio/internal/engine/format"
	"github.com/dshills/folio/internal/engine/textbuf"
)

// ErrOutOfRange reports a position or paragraph index outside the document.
var ErrOutOfRange = textbuf.ErrOutOfRange

// ParagraphID identifies a paragraph across edits.
type ParagraphID = textbuf.ParagraphID

// ParagraphProps holds paragraph-level settings.
type ParagraphProps struct {
	StyleID string
	Align   format.Alignment
}

// PropsUpdate selects which paragraph properties to change.
type PropsUpdate struct {
	StyleID  string
	SetStyle bool
	Align    format.Alignment
	SetAlign bool
}

// Apply returns p with the update applied.
func (u PropsUpdate) Apply(p ParagraphProps) ParagraphProps {
	if u.SetStyle {
		p.StyleID = u.StyleID
	}
	if u.SetAlign {
		p.Align = u.Align
	}
	return p
}

// Change describes the effect of a mutation in post-edit coordinates.
type Change struct {
	Start int // First affected offset
	End   int // End of the affected range (exclusive)

	FirstParagraph int // First affected paragraph index
	LastParagraph  int // Last affected paragraph index (inclusive)

	// Structural is true when paragraphs were created or removed, which
	// renumbers every following paragraph.
	Structural bool
}

// Union returns the smallest change covering both.
func (c Change) Union(o Change) Change {
	return Change{
		Start:          min(c.Start, o.Start),
		End:            max(c.End, o.End),
		FirstParagraph: min(c.FirstParagraph, o.FirstParagraph),
		LastParagraph:  max(c.LastParagraph, o.LastParagraph),
		Structural:     c.Structural || o.Structural,
	}
}

// Document is the in-memory model of one chapter.
type Document struct {
	mu     sync.RWMutex
	text   *textbuf.Buffer
	format *format.Layer
	props  map[ParagraphID]ParagraphProps
	marks  []Highlight
}

// New creates an empty document.
func New() *Document {
	return &Document{
		text:   textbuf.New(),
		format: format.NewLayer(0),
		props:  make(map[ParagraphID]ParagraphProps),
	}
}

// NewFromString creates an unformatted document holding s.
func NewFromString(s string) *Document {
	d := New()
	d.text.SetText(lineEndings.Replace(s))
	d.format.SetLength(d.text.Len())
	return d
}

// Len returns the document length in runes.
func (d *Document) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.text.Len()
}

// String returns the plain text.
func (d *Document) String() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.text.String()
}

// Text returns count runes starting at pos.
func (d *Document) Text(pos, count int) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.text.Substring(pos, count)
}

// CharAt returns the rune at pos.
func (d *Document) CharAt(pos int) (rune, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.text.CharAt(pos)
}

// ParagraphCount returns the number of paragraphs.
func (d *Document) ParagraphCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.text.ParagraphCount()
}

// ParagraphAt returns the paragraph index containing pos.
func (d *Document) ParagraphAt(pos int) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.text.ParagraphAt(pos)
}

// ParagraphRange returns [start, end) of paragraph i.
func (d *Document) ParagraphRange(i int) (int, int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.text.ParagraphRange(i)
}

// ParagraphID returns the stable identity of paragraph i.
func (d *Document) ParagraphID(i int) ParagraphID {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.text.ParagraphID(i)
}

// ParagraphIDs returns all paragraph identities in order.
func (d *Document) ParagraphIDs() []ParagraphID {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.text.ParagraphIDs()
}

// ParagraphRevision changes whenever paragraph i's text, runs or
// properties change.
func (d *Document) ParagraphRevision(i int) uint64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.text.Revision(i)
}

// StructureRevision changes whenever paragraphs are added or removed.
func (d *Document) StructureRevision() uint64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.text.StructureRevision()
}

// ParagraphRunes returns paragraph i's text.
func (d *Document) ParagraphRunes(i int) []rune {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.text.ParagraphRunes(i)
}

// ParagraphText returns paragraph i's text.
func (d *Document) ParagraphText(i int) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.text.ParagraphText(i)
}

// ParagraphRuns returns paragraph i's inline runs, relative to its start.
func (d *Document) ParagraphRuns(i int) []format.Run {
	d.mu.RLock()
	defer d.mu.RUnlock()
	start, end, err := d.text.ParagraphRange(i)
	if err != nil {
		return nil
	}
	runs, _ := d.format.RunsIn(start, end)
	for k := range runs {
		runs[k].Start -= start
		runs[k].End -= start
	}
	return runs
}

// ParagraphProps returns paragraph i's properties.
func (d *Document) ParagraphProps(i int) ParagraphProps {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.props[d.text.ParagraphID(i)]
}

// InlineStyleAt returns the inline override at pos.
func (d *Document) InlineStyleAt(pos int) (format.InlineStyle, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.format.InlineStyleAt(pos)
}

// HasOverrides reports whether [start, end) carries inline formatting.
func (d *Document) HasOverrides(start, end int) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.format.HasOverrides(start, end)
}

// Runs returns every inline run.
func (d *Document) Runs() []format.Run {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.format.Runs()
}

// RunsIn returns the inline runs clipped to [start, end).
func (d *Document) RunsIn(start, end int) ([]format.Run, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.format.RunsIn(start, end)
}

// Segments partitions [start, end) into runs including unstyled gaps.
func (d *Document) Segments(start, end int) ([]format.Run, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.format.Segments(start, end)
}

// Insert places text at pos. Styles of runs straddling pos grow over the new
// text; new paragraphs inherit the properties of the split paragraph.
// "\r\n" and '\r' are stored as paragraph separators.
func (d *Document) Insert(pos int, text string) (Change, error) {
	text = lineEndings.Replace(text)
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.insertLocked(pos, text)
}

func (d *Document) insertLocked(pos int, text string) (Change, error) {
	edit, err := d.text.Insert(pos, text)
	if err != nil {
		return Change{}, err
	}
	if err := d.format.AdjustForInsert(pos, edit.Inserted); err != nil {
		return Change{}, fmt.Errorf("format out of sync with text: %w", err)
	}
	if edit.Structural() {
		if err := d.unstyleSeparatorsLocked(pos, pos+edit.Inserted); err != nil {
			return Change{}, err
		}
	}
	d.shiftHighlightsForInsert(pos, edit.Inserted)
	if len(edit.Created) > 0 {
		inherited := d.props[d.text.ParagraphID(edit.First)]
		for _, id := range edit.Created {
			if inherited != (ParagraphProps{}) {
				d.props[id] = inherited
			}
		}
	}
	return changeFor(edit, pos+edit.Inserted), nil
}

// Erase removes count runes at pos.
func (d *Document) Erase(pos, count int) (Change, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.eraseLocked(pos, count)
}

func (d *Document) eraseLocked(pos, count int) (Change, error) {
	edit, err := d.text.Erase(pos, count)
	if err != nil {
		return Change{}, err
	}
	if err := d.format.AdjustForErase(pos, count); err != nil {
		return Change{}, fmt.Errorf("format out of sync with text: %w", err)
	}
	for _, id := range edit.Deleted {
		delete(d.props, id)
	}
	d.shiftHighlightsForErase(pos, count)
	return changeFor(edit, pos), nil
}

func changeFor(edit textbuf.Edit, end int) Change {
	return Change{
		Start:          edit.Pos,
		End:            end,
		FirstParagraph: edit.First,
		LastParagraph:  edit.Last,
		Structural:     edit.Structural(),
	}
}

// touchRange bumps the revision of every paragraph in [start, end].
func (d *Document) touchRange(start, end int) Change {
	first, _ := d.text.ParagraphAt(start)
	last, _ := d.text.ParagraphAt(max(start, end-1))
	for i := first; i <= last; i++ {
		d.text.Touch(i)
	}
	return Change{Start: start, End: end, FirstParagraph: first, LastParagraph: last}
}

// SetInlineStyle overlays style on [start, end).
func (d *Document) SetInlineStyle(start, end int, style format.InlineStyle) (Change, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.format.SetInlineStyle(start, end, style); err != nil {
		return Change{}, err
	}
	if err := d.unstyleSeparatorsLocked(start, end); err != nil {
		return Change{}, err
	}
	return d.touchRange(start, end), nil
}

// ClearAttributes removes the attributes in mask from [start, end).
func (d *Document) ClearAttributes(start, end int, mask format.Attr) (Change, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.format.ClearAttributes(start, end, mask); err != nil {
		return Change{}, err
	}
	return d.touchRange(start, end), nil
}

// ClearFormatting removes every inline override from [start, end).
func (d *Document) ClearFormatting(start, end int) (Change, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.format.Clear(start, end); err != nil {
		return Change{}, err
	}
	return d.touchRange(start, end), nil
}

// RestoreRuns replaces the runs in [start, end) with a saved set.
func (d *Document) RestoreRuns(start, end int, runs []format.Run) (Change, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.format.Restore(start, end, runs); err != nil {
		return Change{}, err
	}
	if err := d.unstyleSeparatorsLocked(start, end); err != nil {
		return Change{}, err
	}
	return d.touchRange(start, end), nil
}

// unstyleSeparatorsLocked removes inline overrides from the paragraph
// separators inside [start, end). Runs never cover a separator, so a
// document's runs are exactly the union of its paragraphs' runs.
func (d *Document) unstyleSeparatorsLocked(start, end int) error {
	if start >= end {
		return nil
	}
	i, err := d.text.ParagraphAt(start)
	if err != nil {
		return err
	}
	for n := d.text.ParagraphCount(); i < n-1; i++ {
		_, sep, _ := d.text.ParagraphRange(i)
		if sep >= end {
			break
		}
		if sep < start {
			continue
		}
		if err := d.format.Clear(sep, sep+1); err != nil {
			return fmt.Errorf("format out of sync with text: %w", err)
		}
	}
	return nil
}

// UpdateParagraphs applies u to paragraphs first..last and returns their
// previous properties.
func (d *Document) UpdateParagraphs(first, last int, u PropsUpdate) ([]ParagraphProps, Change, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if first < 0 || last < first || last >= d.text.ParagraphCount() {
		return nil, Change{}, fmt.Errorf("paragraphs [%d,%d] of %d: %w", first, last, d.text.ParagraphCount(), ErrOutOfRange)
	}
	before := make([]ParagraphProps, 0, last-first+1)
	for i := first; i <= last; i++ {
		id := d.text.ParagraphID(i)
		old := d.props[id]
		before = append(before, old)
		d.setProps(id, u.Apply(old))
		d.text.Touch(i)
	}
	return before, d.paragraphChange(first, last), nil
}

// RestoreParagraphs sets the properties of paragraphs first.. to props.
func (d *Document) RestoreParagraphs(first int, props []ParagraphProps) (Change, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	last := first + len(props) - 1
	if first < 0 || last >= d.text.ParagraphCount() {
		return Change{}, fmt.Errorf("paragraphs [%d,%d] of %d: %w", first, last, d.text.ParagraphCount(), ErrOutOfRange)
	}
	for k, p := range props {
		d.setProps(d.text.ParagraphID(first+k), p)
		d.text.Touch(first + k)
	}
	return d.paragraphChange(first, max(first, last)), nil
}

// SetParagraphStyle assigns a named paragraph style to paragraphs first..last.
func (d *Document) SetParagraphStyle(first, last int, styleID string) (Change, error) {
	_, ch, err := d.UpdateParagraphs(first, last, PropsUpdate{StyleID: styleID, SetStyle: true})
	return ch, err
}

// SetAlignment sets the alignment of paragraphs first..last.
func (d *Document) SetAlignment(first, last int, a format.Alignment) (Change, error) {
	_, ch, err := d.UpdateParagraphs(first, last, PropsUpdate{Align: a, SetAlign: true})
	return ch, err
}

func (d *Document) setProps(id ParagraphID, p ParagraphProps) {
	if p == (ParagraphProps{}) {
		delete(d.props, id)
		return
	}
	d.props[id] = p
}

func (d *Document) paragraphChange(first, last int) Change {
	start := d.text.ParagraphStart(first)
	_, end, _ := d.text.ParagraphRange(last)
	return Change{Start: start, End: end, FirstParagraph: first, LastParagraph: last}
}

// CharCount returns the number of characters excluding paragraph separators.
func (d *Document) CharCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.text.Len() - (d.text.ParagraphCount() - 1)
}

var lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n")

func joinParagraphs(texts []string) string {
	return strings.Join(texts, string(textbuf.Separator))
}
