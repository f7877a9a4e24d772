// Package style resolves the final style of a text run by merging, in
// priority order, its inline override, its character style, its paragraph
// style and the theme. Merging is attribute-wise: each layer only fills in
// attributes left unset by the layers above it.
package style

import (
	"log/slog"
	"sync"

	"github.com/dshills/folio/internal/engine/format"
)

// Layer identifies one level of the priority chain.
type Layer uint8

const (
	// LayerTheme is the theme default layer (lowest priority).
	LayerTheme Layer = iota

	// LayerParagraph is the paragraph style layer.
	LayerParagraph

	// LayerCharacter is the named character style layer.
	LayerCharacter

	// LayerInline is the inline override layer (highest priority).
	LayerInline

	// LayerCount is the number of layers.
	LayerCount
)

// String returns the string representation of the layer.
func (l Layer) String() string {
	switch l {
	case LayerTheme:
		return "theme"
	case LayerParagraph:
		return "paragraph"
	case LayerCharacter:
		return "character"
	case LayerInline:
		return "inline"
	default:
		return "unknown"
	}
}

// Resolved is the fully populated style of a run.
type Resolved struct {
	FontFamily    string
	FontSize      float64
	Bold          bool
	Italic        bool
	Underline     bool
	Strikethrough bool
	Subscript     bool
	Superscript   bool
	Foreground    format.Color
	Background    format.Color
	HasBackground bool
}

// ResolvedParagraph is the fully populated style of a paragraph.
type ResolvedParagraph struct {
	ID              string
	Text            Resolved
	Align           format.Alignment
	FirstLineIndent float64
	LeftMargin      float64
	RightMargin     float64
	SpaceBefore     float64
	SpaceAfter      float64
	LineHeight      float64
}

// Stats reports resolver cache behaviour.
type Stats struct {
	Hits        uint64
	Misses      uint64
	MissingRefs uint64 // Style ids that did not resolve
	Cycles      uint64 // BasedOn chains that loop
	Entries     int
}

type runKey struct {
	para   string
	inline string
}

// flatParagraph is a paragraph style with its BasedOn chain folded in.
type flatParagraph struct {
	ParagraphStyle
}

// Resolver resolves styles against a catalog and theme. Results are cached
// until the theme, the catalog or its revision changes.
type Resolver struct {
	mu sync.Mutex

	catalog Catalog
	theme   Theme
	logger  *slog.Logger

	layerEnabled [LayerCount]bool

	gen    uint64
	catRev uint64
	runs   map[runKey]Resolved
	paras  map[string]flatParagraph
	chars  map[string]format.InlineStyle
	stats  Stats
}

// NewResolver creates a resolver. A nil catalog resolves every reference
// as missing.
func NewResolver(catalog Catalog, theme Theme) *Resolver {
	r := &Resolver{
		catalog: catalog,
		theme:   theme,
		logger:  slog.New(slog.DiscardHandler),
	}
	for i := range r.layerEnabled {
		r.layerEnabled[i] = true
	}
	r.resetLocked()
	return r
}

// SetLogger sets the logger used for missing references and cycles.
func (r *Resolver) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	r.mu.Lock()
	r.logger = l
	r.mu.Unlock()
}

// SetTheme replaces the theme.
func (r *Resolver) SetTheme(t Theme) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.theme = t
	r.resetLocked()
}

// Theme returns the current theme.
func (r *Resolver) Theme() Theme {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.theme
}

// Catalog returns the catalog, which may be nil.
func (r *Resolver) Catalog() Catalog {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.catalog
}

// SetCatalog replaces the catalog.
func (r *Resolver) SetCatalog(c Catalog) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.catalog = c
	r.resetLocked()
}

// SetLayerEnabled enables or disables a layer. The theme layer cannot be
// disabled.
func (r *Resolver) SetLayerEnabled(layer Layer, enabled bool) {
	if layer == LayerTheme || layer >= LayerCount {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.layerEnabled[layer] != enabled {
		r.layerEnabled[layer] = enabled
		r.resetLocked()
	}
}

// IsLayerEnabled returns true if a layer is enabled.
func (r *Resolver) IsLayerEnabled(layer Layer) bool {
	if layer >= LayerCount {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.layerEnabled[layer]
}

// Invalidate drops every cached result, e.g. after a catalog without a
// revision counter was edited.
func (r *Resolver) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resetLocked()
}

// Generation changes whenever cached results are dropped. Layout caches
// compare it to decide whether their geometry is stale.
func (r *Resolver) Generation() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkRevisionLocked()
	return r.gen
}

// Stats returns cache statistics.
func (r *Resolver) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.stats
	s.Entries = len(r.runs)
	return s
}

func (r *Resolver) resetLocked() {
	r.gen++
	r.runs = make(map[runKey]Resolved)
	r.paras = make(map[string]flatParagraph)
	r.chars = make(map[string]format.InlineStyle)
	if rv, ok := r.catalog.(Revisioner); ok {
		r.catRev = rv.Revision()
	}
}

func (r *Resolver) checkRevisionLocked() {
	if rv, ok := r.catalog.(Revisioner); ok && rv.Revision() != r.catRev {
		r.resetLocked()
	}
}

// ResolveForRun returns the resolved style of a run carrying the inline
// override inline inside a paragraph with the given style id.
func (r *Resolver) ResolveForRun(inline format.InlineStyle, paragraphStyleID string) Resolved {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkRevisionLocked()

	key := runKey{para: paragraphStyleID, inline: inline.Key()}
	if res, ok := r.runs[key]; ok {
		r.stats.Hits++
		return res
	}
	r.stats.Misses++
	res := r.fillTheme(r.effectiveLocked(inline, paragraphStyleID))
	r.runs[key] = res
	return res
}

// Effective returns the merged attributes above the theme layer, leaving
// attributes no layer sets unset.
func (r *Resolver) Effective(inline format.InlineStyle, paragraphStyleID string) format.InlineStyle {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkRevisionLocked()
	return r.effectiveLocked(inline, paragraphStyleID)
}

func (r *Resolver) effectiveLocked(inline format.InlineStyle, paragraphStyleID string) format.InlineStyle {
	var eff format.InlineStyle
	if r.layerEnabled[LayerInline] {
		eff = inline.Without(format.AttrCharStyle)
	}
	if r.layerEnabled[LayerCharacter] {
		if id, ok := inline.CharacterStyle(); ok {
			eff = eff.Fill(r.characterLocked(id))
		}
	}
	if r.layerEnabled[LayerParagraph] && paragraphStyleID != "" {
		eff = eff.Fill(r.paragraphLocked(paragraphStyleID).Text)
	}
	return eff
}

func (r *Resolver) fillTheme(eff format.InlineStyle) Resolved {
	res := Resolved{
		FontFamily: r.theme.FontFamily,
		FontSize:   r.theme.FontSize,
		Foreground: r.theme.Foreground,
	}
	if v, ok := eff.FontFamily(); ok {
		res.FontFamily = v
	}
	if v, ok := eff.FontSize(); ok {
		res.FontSize = v
	}
	if v, ok := eff.Foreground(); ok {
		res.Foreground = v
	}
	if v, ok := eff.Background(); ok {
		res.Background = v
		res.HasBackground = true
	}
	res.Bold, _ = eff.Flag(format.AttrBold)
	res.Italic, _ = eff.Flag(format.AttrItalic)
	res.Underline, _ = eff.Flag(format.AttrUnderline)
	res.Strikethrough, _ = eff.Flag(format.AttrStrikethrough)
	res.Subscript, _ = eff.Flag(format.AttrSubscript)
	res.Superscript, _ = eff.Flag(format.AttrSuperscript)
	return res
}

// ResolveParagraph returns the paragraph-level style for a style id.
func (r *Resolver) ResolveParagraph(id string, align format.Alignment) ResolvedParagraph {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkRevisionLocked()

	var flat flatParagraph
	if r.layerEnabled[LayerParagraph] && id != "" {
		flat = r.paragraphLocked(id)
	}
	out := ResolvedParagraph{
		ID:         id,
		Text:       r.fillTheme(flat.Text),
		Align:      flat.Align,
		LineHeight: 1,
	}
	if align != format.AlignInherit {
		out.Align = align
	}
	if out.Align == format.AlignInherit {
		out.Align = format.AlignLeft
	}
	set := func(dst *float64, v *float64) {
		if v != nil {
			*dst = *v
		}
	}
	set(&out.FirstLineIndent, flat.FirstLineIndent)
	set(&out.LeftMargin, flat.LeftMargin)
	set(&out.RightMargin, flat.RightMargin)
	set(&out.SpaceBefore, flat.SpaceBefore)
	set(&out.SpaceAfter, flat.SpaceAfter)
	set(&out.LineHeight, flat.LineHeight)
	if out.LineHeight <= 0 {
		out.LineHeight = 1
	}
	return out
}

// paragraphLocked folds the BasedOn chain of a paragraph style.
func (r *Resolver) paragraphLocked(id string) flatParagraph {
	if p, ok := r.paras[id]; ok {
		return p
	}
	p := r.foldParagraph(id, map[string]bool{})
	r.paras[id] = p
	return p
}

func (r *Resolver) foldParagraph(id string, visited map[string]bool) flatParagraph {
	if visited[id] {
		r.stats.Cycles++
		r.logger.Warn("circular paragraph style inheritance", "style", id)
		return flatParagraph{}
	}
	visited[id] = true

	var s ParagraphStyle
	ok := false
	if r.catalog != nil {
		s, ok = r.catalog.ParagraphStyle(id)
	}
	if !ok {
		r.stats.MissingRefs++
		r.logger.Debug("paragraph style not found, using theme", "style", id)
		return flatParagraph{}
	}

	var base flatParagraph
	if s.BasedOn != "" {
		base = r.foldParagraph(s.BasedOn, visited)
	}
	out := flatParagraph{ParagraphStyle: base.ParagraphStyle}
	out.ID, out.Name, out.BasedOn = s.ID, s.Name, s.BasedOn
	out.Text = base.Text.Merge(s.Text.Without(format.AttrCharStyle))
	if s.Align != format.AlignInherit {
		out.Align = s.Align
	}
	pick := func(dst **float64, v *float64) {
		if v != nil {
			*dst = v
		}
	}
	pick(&out.FirstLineIndent, s.FirstLineIndent)
	pick(&out.LeftMargin, s.LeftMargin)
	pick(&out.RightMargin, s.RightMargin)
	pick(&out.SpaceBefore, s.SpaceBefore)
	pick(&out.SpaceAfter, s.SpaceAfter)
	pick(&out.LineHeight, s.LineHeight)
	return out
}

// characterLocked folds the BasedOn chain of a character style.
func (r *Resolver) characterLocked(id string) format.InlineStyle {
	if s, ok := r.chars[id]; ok {
		return s
	}
	s := r.foldCharacter(id, map[string]bool{})
	r.chars[id] = s
	return s
}

func (r *Resolver) foldCharacter(id string, visited map[string]bool) format.InlineStyle {
	if visited[id] {
		r.stats.Cycles++
		r.logger.Warn("circular character style inheritance", "style", id)
		return format.InlineStyle{}
	}
	visited[id] = true

	var s CharacterStyle
	ok := false
	if r.catalog != nil {
		s, ok = r.catalog.CharacterStyle(id)
	}
	if !ok {
		r.stats.MissingRefs++
		r.logger.Debug("character style not found, using theme", "style", id)
		return format.InlineStyle{}
	}
	var base format.InlineStyle
	if s.BasedOn != "" {
		base = r.foldCharacter(s.BasedOn, visited)
	}
	return base.Merge(s.Style.Without(format.AttrCharStyle))
}

// ToInline converts a resolved style back into an inline style with every
// attribute set, e.g. to save the look of a selection as a named style.
func (res Resolved) ToInline() format.InlineStyle {
	s := format.Empty().
		WithFontFamily(res.FontFamily).
		WithFontSize(res.FontSize).
		WithForeground(res.Foreground).
		WithBold(res.Bold).
		WithItalic(res.Italic).
		WithUnderline(res.Underline).
		WithStrikethrough(res.Strikethrough).
		WithFlag(format.AttrSubscript, res.Subscript).
		WithFlag(format.AttrSuperscript, res.Superscript)
	if res.HasBackground {
		s = s.WithBackground(res.Background)
	}
	return s
}
