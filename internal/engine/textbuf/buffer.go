package textbuf

import (
	"strings"
	"unicode/utf8"
)

// ParagraphID identifies a paragraph independently of its index.
type ParagraphID uint64

// Separator is the logical rune between paragraphs.
const Separator = '\n'

type paragraph struct {
	id   ParagraphID
	text gapBuffer
	rev  uint64
}

// Edit describes the structural effect of a mutation.
type Edit struct {
	Pos      int // Offset where the edit happened
	Inserted int // Runes inserted
	Removed  int // Runes removed

	// First is the index of the first paragraph touched (post-edit).
	First int
	// Last is the index of the last paragraph touched (post-edit).
	Last int

	// Created lists paragraphs split off by an insertion, in order.
	Created []ParagraphID
	// Deleted lists paragraphs merged away by an erase, in order.
	Deleted []ParagraphID
}

// Structural reports whether paragraphs were created or removed.
func (e Edit) Structural() bool {
	return len(e.Created) > 0 || len(e.Deleted) > 0
}

// Buffer is an indexed mutable character sequence.
type Buffer struct {
	paras  []*paragraph
	index  fenwick // weight of paragraph i = len(i) + 1
	length int

	nextID    ParagraphID
	nextRev   uint64
	structRev uint64
}

// New creates an empty buffer holding a single empty paragraph.
func New() *Buffer {
	b := &Buffer{}
	b.reset([]string{""})
	return b
}

// NewFromString creates a buffer holding s. Each '\n' starts a new paragraph.
func NewFromString(s string) *Buffer {
	b := &Buffer{}
	b.reset(strings.Split(s, string(Separator)))
	return b
}

// SetText replaces the whole content. All paragraph identities are renewed.
func (b *Buffer) SetText(s string) {
	b.reset(strings.Split(s, string(Separator)))
}

func (b *Buffer) reset(lines []string) {
	b.paras = make([]*paragraph, 0, len(lines))
	for _, line := range lines {
		b.paras = append(b.paras, b.newParagraph([]rune(line)))
	}
	b.reindex()
}

func (b *Buffer) newParagraph(rs []rune) *paragraph {
	b.nextID++
	b.nextRev++
	return &paragraph{id: b.nextID, text: newGapBuffer(rs), rev: b.nextRev}
}

// reindex rebuilds the Fenwick tree after paragraphs were added or removed.
func (b *Buffer) reindex() {
	weights := make([]int, len(b.paras))
	total := 0
	for i, p := range b.paras {
		weights[i] = p.text.Len() + 1
		total += weights[i]
	}
	b.index.build(weights)
	b.length = total - 1
	b.structRev++
}

func (b *Buffer) touch(p *paragraph) {
	b.nextRev++
	p.rev = b.nextRev
}

// Len returns the number of runes, counting one per paragraph separator.
func (b *Buffer) Len() int {
	return b.length
}

// ParagraphCount returns the number of paragraphs (always >= 1).
func (b *Buffer) ParagraphCount() int {
	return len(b.paras)
}

// StructureRevision changes whenever paragraphs are added or removed.
func (b *Buffer) StructureRevision() uint64 {
	return b.structRev
}

// locate maps pos to a paragraph index and the offset within it.
func (b *Buffer) locate(pos int) (int, int) {
	i := b.index.search(pos)
	if i >= len(b.paras) {
		i = len(b.paras) - 1
	}
	return i, pos - b.index.prefix(i)
}

// ParagraphAt returns the index of the paragraph containing pos.
// A separator belongs to the paragraph it terminates.
func (b *Buffer) ParagraphAt(pos int) (int, error) {
	if pos < 0 || pos > b.length {
		return 0, rangeErr("paragraph-at", pos, 0, b.length)
	}
	i, _ := b.locate(pos)
	return i, nil
}

// ParagraphStart returns the offset of the first rune of paragraph i.
func (b *Buffer) ParagraphStart(i int) int {
	return b.index.prefix(i)
}

// ParagraphRange returns [start, end) of paragraph i, excluding its separator.
func (b *Buffer) ParagraphRange(i int) (start, end int, err error) {
	if i < 0 || i >= len(b.paras) {
		return 0, 0, rangeErr("paragraph", i, 1, len(b.paras))
	}
	start = b.index.prefix(i)
	return start, start + b.paras[i].text.Len(), nil
}

// ParagraphLen returns the rune count of paragraph i.
func (b *Buffer) ParagraphLen(i int) int {
	return b.paras[i].text.Len()
}

// ParagraphID returns the stable identity of paragraph i.
func (b *Buffer) ParagraphID(i int) ParagraphID {
	return b.paras[i].id
}

// ParagraphIDs returns the identities of all paragraphs in order.
func (b *Buffer) ParagraphIDs() []ParagraphID {
	ids := make([]ParagraphID, len(b.paras))
	for i, p := range b.paras {
		ids[i] = p.id
	}
	return ids
}

// IndexOf returns the current index of the paragraph with the given id.
// It is O(N); callers needing repeated lookups should build a map from
// ParagraphIDs.
func (b *Buffer) IndexOf(id ParagraphID) (int, bool) {
	for i, p := range b.paras {
		if p.id == id {
			return i, true
		}
	}
	return 0, false
}

// Revision returns a counter that changes whenever paragraph i is modified.
func (b *Buffer) Revision(i int) uint64 {
	return b.paras[i].rev
}

// Touch marks paragraph i as modified without changing its text.
func (b *Buffer) Touch(i int) {
	if i >= 0 && i < len(b.paras) {
		b.touch(b.paras[i])
	}
}

// ParagraphRunes returns a copy of paragraph i's runes.
func (b *Buffer) ParagraphRunes(i int) []rune {
	return b.paras[i].text.Runes()
}

// ParagraphText returns paragraph i as a string.
func (b *Buffer) ParagraphText(i int) string {
	return string(b.paras[i].text.Runes())
}

// CharAt returns the rune at pos. Separators read as '\n'.
func (b *Buffer) CharAt(pos int) (rune, error) {
	if pos < 0 || pos >= b.length {
		return 0, rangeErr("char-at", pos, 1, b.length)
	}
	i, off := b.locate(pos)
	p := b.paras[i]
	if off == p.text.Len() {
		return Separator, nil
	}
	return p.text.At(off), nil
}

// Substring returns count runes starting at pos.
func (b *Buffer) Substring(pos, count int) (string, error) {
	if pos < 0 || count < 0 || pos+count > b.length {
		return "", rangeErr("substring", pos, count, b.length)
	}
	return string(b.runes(pos, count)), nil
}

// Runes returns count runes starting at pos.
func (b *Buffer) Runes(pos, count int) ([]rune, error) {
	if pos < 0 || count < 0 || pos+count > b.length {
		return nil, rangeErr("runes", pos, count, b.length)
	}
	return b.runes(pos, count), nil
}

func (b *Buffer) runes(pos, count int) []rune {
	out := make([]rune, 0, count)
	if count == 0 {
		return out
	}
	i, off := b.locate(pos)
	for count > 0 && i < len(b.paras) {
		p := b.paras[i]
		n := min(p.text.Len()-off, count)
		out = p.text.appendRange(out, off, off+n)
		count -= n
		if count > 0 {
			out = append(out, Separator)
			count--
		}
		i++
		off = 0
	}
	return out
}

// String returns the full text with '\n' between paragraphs.
func (b *Buffer) String() string {
	var sb strings.Builder
	sb.Grow(b.length)
	for i, p := range b.paras {
		if i > 0 {
			sb.WriteRune(Separator)
		}
		for j := 0; j < p.text.Len(); j++ {
			sb.WriteRune(p.text.At(j))
		}
	}
	return sb.String()
}

// Insert places text at pos. Every '\n' in text splits the paragraph; the
// original paragraph keeps its identity and the split-off parts get new ones.
func (b *Buffer) Insert(pos int, text string) (Edit, error) {
	if pos < 0 || pos > b.length {
		return Edit{}, rangeErr("insert", pos, 0, b.length)
	}
	i, off := b.locate(pos)
	edit := Edit{Pos: pos, Inserted: utf8.RuneCountInString(text), First: i, Last: i}
	if edit.Inserted == 0 {
		return edit, nil
	}

	p := b.paras[i]
	if !strings.ContainsRune(text, Separator) {
		p.text.Insert(off, []rune(text))
		b.touch(p)
		b.index.add(i, edit.Inserted)
		b.length += edit.Inserted
		return edit, nil
	}

	lines := strings.Split(text, string(Separator))
	tail := p.text.Slice(off, p.text.Len())
	p.text.Delete(off, len(tail))
	p.text.Insert(off, []rune(lines[0]))
	b.touch(p)

	created := make([]*paragraph, 0, len(lines)-1)
	for k := 1; k < len(lines); k++ {
		rs := []rune(lines[k])
		if k == len(lines)-1 {
			rs = append(rs, tail...)
		}
		created = append(created, b.newParagraph(rs))
	}

	paras := make([]*paragraph, 0, len(b.paras)+len(created))
	paras = append(paras, b.paras[:i+1]...)
	paras = append(paras, created...)
	paras = append(paras, b.paras[i+1:]...)
	b.paras = paras
	b.reindex()

	for _, c := range created {
		edit.Created = append(edit.Created, c.id)
	}
	edit.Last = i + len(created)
	return edit, nil
}

// Erase removes count runes starting at pos. Removing a separator merges the
// following paragraph into the current one.
func (b *Buffer) Erase(pos, count int) (Edit, error) {
	if pos < 0 || count < 0 || pos+count > b.length {
		return Edit{}, rangeErr("erase", pos, count, b.length)
	}
	i, off := b.locate(pos)
	edit := Edit{Pos: pos, Removed: count, First: i, Last: i}
	if count == 0 {
		return edit, nil
	}

	j, endOff := b.locate(pos + count)
	p := b.paras[i]
	if i == j {
		p.text.Delete(off, count)
		b.touch(p)
		b.index.add(i, -count)
		b.length -= count
		return edit, nil
	}

	last := b.paras[j]
	tail := last.text.Slice(endOff, last.text.Len())
	p.text.Delete(off, p.text.Len()-off)
	p.text.Insert(off, tail)
	b.touch(p)

	for _, gone := range b.paras[i+1 : j+1] {
		edit.Deleted = append(edit.Deleted, gone.id)
	}
	b.paras = append(b.paras[:i+1], b.paras[j+1:]...)
	b.reindex()
	return edit, nil
}
