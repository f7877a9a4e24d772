package style

import (
	"sort"
	"sync"

	"github.com/dshills/folio/internal/engine/format"
)

// ParagraphStyle is a named paragraph style. Unset fields inherit from
// BasedOn and finally from the theme.
type ParagraphStyle struct {
	ID      string
	Name    string
	BasedOn string

	// Text holds the character attributes the paragraph style supplies.
	Text format.InlineStyle

	Align           format.Alignment
	FirstLineIndent *float64
	LeftMargin      *float64
	RightMargin     *float64
	SpaceBefore     *float64
	SpaceAfter      *float64
	LineHeight      *float64 // Multiplier of the natural line height
}

// CharacterStyle is a named set of character attributes.
type CharacterStyle struct {
	ID      string
	Name    string
	BasedOn string
	Style   format.InlineStyle
}

// Float returns a pointer to v, for populating optional style fields.
func Float(v float64) *float64 {
	return &v
}

// Catalog looks up named styles.
type Catalog interface {
	ParagraphStyle(id string) (ParagraphStyle, bool)
	CharacterStyle(id string) (CharacterStyle, bool)
}

// Revisioner is implemented by catalogs whose contents can change. The
// resolver drops its cache when the revision moves.
type Revisioner interface {
	Revision() uint64
}

// MemoryCatalog is an in-memory, concurrency-safe catalog.
type MemoryCatalog struct {
	mu        sync.RWMutex
	paragraph map[string]ParagraphStyle
	character map[string]CharacterStyle
	rev       uint64
}

// NewMemoryCatalog creates an empty catalog.
func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{
		paragraph: make(map[string]ParagraphStyle),
		character: make(map[string]CharacterStyle),
	}
}

// ParagraphStyle implements Catalog.
func (c *MemoryCatalog) ParagraphStyle(id string) (ParagraphStyle, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.paragraph[id]
	return s, ok
}

// CharacterStyle implements Catalog.
func (c *MemoryCatalog) CharacterStyle(id string) (CharacterStyle, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.character[id]
	return s, ok
}

// PutParagraph adds or replaces a paragraph style.
func (c *MemoryCatalog) PutParagraph(s ParagraphStyle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paragraph[s.ID] = s
	c.rev++
}

// PutCharacter adds or replaces a character style.
func (c *MemoryCatalog) PutCharacter(s CharacterStyle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.character[s.ID] = s
	c.rev++
}

// Remove deletes a style of either kind.
func (c *MemoryCatalog) Remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.paragraph, id)
	delete(c.character, id)
	c.rev++
}

// Revision implements Revisioner.
func (c *MemoryCatalog) Revision() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rev
}

// ParagraphIDs returns the paragraph style ids in sorted order.
func (c *MemoryCatalog) ParagraphIDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(c.paragraph))
	for id := range c.paragraph {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// CharacterIDs returns the character style ids in sorted order.
func (c *MemoryCatalog) CharacterIDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(c.character))
	for id := range c.character {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ChainCatalog searches several catalogs in order; the first hit wins.
type ChainCatalog []Catalog

// ParagraphStyle implements Catalog.
func (c ChainCatalog) ParagraphStyle(id string) (ParagraphStyle, bool) {
	for _, cat := range c {
		if s, ok := cat.ParagraphStyle(id); ok {
			return s, true
		}
	}
	return ParagraphStyle{}, false
}

// CharacterStyle implements Catalog.
func (c ChainCatalog) CharacterStyle(id string) (CharacterStyle, bool) {
	for _, cat := range c {
		if s, ok := cat.CharacterStyle(id); ok {
			return s, true
		}
	}
	return CharacterStyle{}, false
}

// Revision sums the revisions of the member catalogs.
func (c ChainCatalog) Revision() uint64 {
	var rev uint64
	for _, cat := range c {
		if r, ok := cat.(Revisioner); ok {
			rev += r.Revision()
		}
	}
	return rev
}
