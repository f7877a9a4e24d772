package document

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dshills/folio/internal/engine/format"
)

// Paragraph is one paragraph of a snapshot.
type Paragraph struct {
	Text  string
	Runs  []format.Run // Relative to the paragraph start
	Props ParagraphProps
}

// Snapshot is an immutable copy of a document's content.
type Snapshot struct {
	Paragraphs []Paragraph
}

// Snapshot copies the document's content.
func (d *Document) Snapshot() Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	n := d.text.ParagraphCount()
	snap := Snapshot{Paragraphs: make([]Paragraph, n)}
	for i := range n {
		start, end, _ := d.text.ParagraphRange(i)
		runs, _ := d.format.RunsIn(start, end)
		for k := range runs {
			runs[k].Start -= start
			runs[k].End -= start
		}
		snap.Paragraphs[i] = Paragraph{
			Text:  d.text.ParagraphText(i),
			Runs:  runs,
			Props: d.props[d.text.ParagraphID(i)],
		}
	}
	return snap
}

// ErrInvalidSnapshot reports a snapshot that cannot be loaded: a paragraph
// text holding a line break, or a run outside its paragraph.
var ErrInvalidSnapshot = errors.New("invalid snapshot")

// Load replaces the document content with snap. Paragraph identities are
// regenerated. An invalid snapshot leaves the document unchanged.
func (d *Document) Load(snap Snapshot) error {
	if len(snap.Paragraphs) == 0 {
		snap.Paragraphs = []Paragraph{{}}
	}
	texts := make([]string, len(snap.Paragraphs))
	for i, p := range snap.Paragraphs {
		if strings.ContainsAny(p.Text, "\r\n") {
			return fmt.Errorf("paragraph %d contains a line break: %w", i, ErrInvalidSnapshot)
		}
		n := utf8.RuneCountInString(p.Text)
		for _, r := range p.Runs {
			if r.Start < 0 || r.Start > r.End || r.End > n {
				return fmt.Errorf("paragraph %d run %v outside [0,%d): %w", i, r, n, ErrInvalidSnapshot)
			}
		}
		texts[i] = p.Text
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.text.SetText(joinParagraphs(texts))
	d.format = format.NewLayer(d.text.Len())
	d.props = make(map[ParagraphID]ParagraphProps)
	d.marks = nil
	for i, p := range snap.Paragraphs {
		start := d.text.ParagraphStart(i)
		for _, r := range p.Runs {
			if err := d.format.SetInlineStyle(start+r.Start, start+r.End, r.Style); err != nil {
				return fmt.Errorf("format out of sync with text: %w", err)
			}
		}
		d.setProps(d.text.ParagraphID(i), p.Props)
	}
	return nil
}

// FromSnapshot builds a document from snap.
func FromSnapshot(snap Snapshot) (*Document, error) {
	d := New()
	if err := d.Load(snap); err != nil {
		return nil, err
	}
	return d, nil
}

// Text returns the plain text of the snapshot.
func (s Snapshot) Text() string {
	texts := make([]string, len(s.Paragraphs))
	for i, p := range s.Paragraphs {
		texts[i] = p.Text
	}
	return joinParagraphs(texts)
}
