package layout

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/dshills/folio/internal/engine/document"
	"github.com/dshills/folio/internal/engine/format"
	"github.com/dshills/folio/internal/renderer/style"
)

// Defaults used when Options leaves a field zero.
const (
	DefaultMaxCached = 150
	DefaultTabWidth  = 4
)

// Source is the read side of a document as seen by layout.
type Source interface {
	ParagraphCount() int
	ParagraphID(i int) document.ParagraphID
	ParagraphRevision(i int) uint64
	StructureRevision() uint64
	ParagraphRunes(i int) []rune
	ParagraphRuns(i int) []format.Run
	ParagraphProps(i int) document.ParagraphProps
	ParagraphRange(i int) (int, int, error)
	ParagraphAt(pos int) (int, error)
}

// Options configures a Manager.
type Options struct {
	Width     float64 // Wrap width; zero or less disables wrapping
	MaxCached int
	TabWidth  int
	// EstimatedLineHeight is used for paragraphs never laid out. Zero
	// derives it from the theme's line metrics.
	EstimatedLineHeight float64
	Logger              *slog.Logger
}

type cacheEntry struct {
	layout     *ParagraphLayout
	generation uint64
	lastAccess uint64
}

// CacheStats holds cache statistics.
type CacheStats struct {
	Size       int     // Current number of entries
	MaxSize    int     // Maximum entries allowed
	Hits       uint64  // Number of cache hits
	Misses     uint64  // Number of cache misses
	Evictions  uint64  // Number of evicted entries
	HitRate    float64 // Hit rate (0.0 - 1.0)
	Calculated int     // Paragraphs whose height came from a layout
}

// Manager lazily lays out paragraphs of a Source and caches the results by
// paragraph identity. A cached layout is reused only while the paragraph's
// revision, the resolver generation and the wrap width are unchanged, so
// structural edits can never attach a stale layout to the wrong paragraph.
type Manager struct {
	mu sync.Mutex

	src      Source
	resolver *style.Resolver
	engine   *Engine
	logger   *slog.Logger

	width     float64
	maxCached int
	lineEst   float64
	charEst   float64

	entries map[document.ParagraphID]*cacheEntry
	clock   uint64

	heights     *HeightTree
	heightsRev  uint64
	heightsGen  uint64
	heightsInit bool

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// NewManager creates a layout manager.
func NewManager(src Source, resolver *style.Resolver, metrics Metrics, opts Options) *Manager {
	if opts.MaxCached <= 0 {
		opts.MaxCached = DefaultMaxCached
	}
	if opts.TabWidth <= 0 {
		opts.TabWidth = DefaultTabWidth
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	m := &Manager{
		src:       src,
		resolver:  resolver,
		engine:    NewEngine(metrics, opts.TabWidth),
		logger:    opts.Logger,
		width:     opts.Width,
		maxCached: opts.MaxCached,
		entries:   make(map[document.ParagraphID]*cacheEntry),
		heights:   &HeightTree{},
	}
	base := resolver.ResolveForRun(format.InlineStyle{}, "")
	asc, desc := metrics.LineMetrics(base)
	m.lineEst = opts.EstimatedLineHeight
	if m.lineEst <= 0 {
		m.lineEst = asc + desc
	}
	m.charEst = metrics.Advances(base, []rune{'n'})[0]
	return m
}

// Engine returns the layout engine.
func (m *Manager) Engine() *Engine {
	return m.engine
}

// Source returns the document being laid out.
func (m *Manager) Source() Source {
	return m.src
}

// Resolver returns the style resolver.
func (m *Manager) Resolver() *style.Resolver {
	return m.resolver
}

// EstimatedLineHeight returns the line height used for estimates.
func (m *Manager) EstimatedLineHeight() float64 {
	return m.lineEst
}

// Width returns the wrap width.
func (m *Manager) Width() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.width
}

// SetWidth changes the wrap width, dropping every cached layout.
func (m *Manager) SetWidth(w float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w == m.width {
		return
	}
	m.width = w
	m.entries = make(map[document.ParagraphID]*cacheEntry)
	m.heightsInit = false
}

// LayoutFor returns the layout of paragraph i, computing and caching it if
// needed. Repeated calls without an intervening change return the same
// pointer.
func (m *Manager) LayoutFor(i int) (*ParagraphLayout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.layoutLocked(i)
}

func (m *Manager) layoutLocked(i int) (*ParagraphLayout, error) {
	if i < 0 || i >= m.src.ParagraphCount() {
		return nil, fmt.Errorf("layout paragraph %d of %d: %w", i, m.src.ParagraphCount(), document.ErrOutOfRange)
	}
	m.syncHeightsLocked()

	id := m.src.ParagraphID(i)
	rev := m.src.ParagraphRevision(i)
	gen := m.resolver.Generation()
	m.clock++

	if e, ok := m.entries[id]; ok && m.validLocked(e, rev, gen) {
		e.lastAccess = m.clock
		m.hits.Add(1)
		return e.layout, nil
	}
	m.misses.Add(1)

	pl := m.compute(i)
	pl.ID, pl.Revision = id, rev
	m.entries[id] = &cacheEntry{layout: pl, generation: gen, lastAccess: m.clock}
	m.heights.Set(i, pl.Height)

	if len(m.entries) > m.maxCached {
		m.evictLRULocked(id)
	}
	return pl, nil
}

func (m *Manager) validLocked(e *cacheEntry, rev, gen uint64) bool {
	return e.layout.Revision == rev && e.generation == gen && e.layout.Width == m.width
}

func (m *Manager) compute(i int) *ParagraphLayout {
	text := m.src.ParagraphRunes(i)
	props := m.src.ParagraphProps(i)
	runs := m.src.ParagraphRuns(i)

	in := Input{
		Text:      text,
		Paragraph: m.resolver.ResolveParagraph(props.StyleID, props.Align),
		Width:     m.width,
	}
	// Fill unstyled gaps so every rune has a resolved style.
	pos := 0
	add := func(s, e int, st format.InlineStyle) {
		if s < e {
			in.Runs = append(in.Runs, TextRun{Start: s, End: e, Style: m.resolver.ResolveForRun(st, props.StyleID)})
		}
	}
	for _, r := range runs {
		s, e := max(r.Start, 0), min(r.End, len(text))
		add(pos, s, format.InlineStyle{})
		add(s, e, r.Style)
		pos = max(pos, e)
	}
	add(pos, len(text), format.InlineStyle{})
	return m.engine.Layout(in)
}

// Has reports whether paragraph i has a valid cached layout.
func (m *Manager) Has(i int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i < 0 || i >= m.src.ParagraphCount() {
		return false
	}
	e, ok := m.entries[m.src.ParagraphID(i)]
	return ok && m.validLocked(e, m.src.ParagraphRevision(i), m.resolver.Generation())
}

// Cached returns the cached layout of paragraph i without computing it.
func (m *Manager) Cached(i int) (*ParagraphLayout, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i < 0 || i >= m.src.ParagraphCount() {
		return nil, false
	}
	e, ok := m.entries[m.src.ParagraphID(i)]
	if !ok || !m.validLocked(e, m.src.ParagraphRevision(i), m.resolver.Generation()) {
		return nil, false
	}
	return e.layout, true
}

// Invalidate drops the cached layout of paragraph i.
func (m *Manager) Invalidate(i int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i >= 0 && i < m.src.ParagraphCount() {
		delete(m.entries, m.src.ParagraphID(i))
	}
}

// InvalidateRange drops the layouts of every paragraph touching the offset
// range [start, end].
func (m *Manager) InvalidateRange(start, end int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	first, err := m.src.ParagraphAt(max(start, 0))
	if err != nil {
		m.logger.Warn("invalidate range out of bounds", "start", start, "end", end)
		m.entries = make(map[document.ParagraphID]*cacheEntry)
		return
	}
	last, err := m.src.ParagraphAt(max(start, end))
	if err != nil {
		last = m.src.ParagraphCount() - 1
	}
	for i := first; i <= last; i++ {
		delete(m.entries, m.src.ParagraphID(i))
	}
}

// InvalidateAll clears the entire cache and resets height estimates.
func (m *Manager) InvalidateAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[document.ParagraphID]*cacheEntry)
	m.heightsInit = false
}

// Evict drops the cached layout of paragraph i but keeps its calculated
// height.
func (m *Manager) Evict(i int) {
	m.Invalidate(i)
}

// EvictOutside drops cached layouts of paragraphs outside [first, last] and
// returns how many were dropped.
func (m *Manager) EvictOutside(first, last int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	keep := make(map[document.ParagraphID]bool)
	first = max(first, 0)
	last = min(last, m.src.ParagraphCount()-1)
	for i := first; i <= last; i++ {
		keep[m.src.ParagraphID(i)] = true
	}
	n := 0
	for id := range m.entries {
		if !keep[id] {
			delete(m.entries, id)
			n++
		}
	}
	if n > 0 {
		m.evictions.Add(uint64(n))
		m.logger.Debug("evicted far layouts", "count", n, "first", first, "last", last)
	}
	return n
}

// evictLRULocked removes the least recently used entries until the cache
// is within bounds, never removing keep.
func (m *Manager) evictLRULocked(keep document.ParagraphID) {
	type idTime struct {
		id   document.ParagraphID
		tick uint64
	}
	all := make([]idTime, 0, len(m.entries))
	for id, e := range m.entries {
		if id != keep {
			all = append(all, idTime{id, e.lastAccess})
		}
	}
	sort.Slice(all, func(a, b int) bool { return all[a].tick < all[b].tick })
	excess := len(m.entries) - m.maxCached
	for k := 0; k < excess && k < len(all); k++ {
		delete(m.entries, all[k].id)
	}
	m.evictions.Add(uint64(excess))
	m.logger.Debug("evicted least recently used layouts", "count", excess)
}

// Size returns the number of cached layouts.
func (m *Manager) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Stats returns cache statistics.
func (m *Manager) Stats() CacheStats {
	m.mu.Lock()
	size := len(m.entries)
	m.syncHeightsLocked()
	calc := m.heights.CalculatedCount()
	m.mu.Unlock()

	hits, misses := m.hits.Load(), m.misses.Load()
	var rate float64
	if total := hits + misses; total > 0 {
		rate = float64(hits) / float64(total)
	}
	return CacheStats{
		Size:       size,
		MaxSize:    m.maxCached,
		Hits:       hits,
		Misses:     misses,
		Evictions:  m.evictions.Load(),
		HitRate:    rate,
		Calculated: calc,
	}
}

// ResetStats resets the cache statistics counters.
func (m *Manager) ResetStats() {
	m.hits.Store(0)
	m.misses.Store(0)
	m.evictions.Store(0)
}

// estimate guesses the height of paragraph i from its length.
func (m *Manager) estimate(i int) float64 {
	start, end, _ := m.src.ParagraphRange(i)
	lines := 1.0
	if m.width > 0 && m.charEst > 0 {
		lines = max(1, math.Ceil(float64(end-start)*m.charEst/m.width))
	}
	return lines * m.lineEst
}

// syncHeightsLocked rebuilds the height tree after structural edits or a
// resolver change. Calculated heights of still-valid cached layouts carry
// over; everything else is estimated.
func (m *Manager) syncHeightsLocked() {
	rev := m.src.StructureRevision()
	gen := m.resolver.Generation()
	if m.heightsInit && rev == m.heightsRev && gen == m.heightsGen && m.heights.Len() == m.src.ParagraphCount() {
		return
	}
	n := m.src.ParagraphCount()
	est := make([]float64, n)
	calc := make([]bool, n)
	for i := range n {
		if e, ok := m.entries[m.src.ParagraphID(i)]; ok && e.generation == gen && e.layout.Width == m.width {
			est[i] = e.layout.Height
			calc[i] = true
			continue
		}
		est[i] = m.estimate(i)
	}
	m.heights.Reset(est)
	for i, ok := range calc {
		if ok {
			m.heights.calculated[i] = true
		}
	}
	m.heightsRev, m.heightsGen, m.heightsInit = rev, gen, true
	m.logger.Debug("rebuilt height tree", "paragraphs", n, "structure", rev)
}

// ParagraphY returns the top of paragraph i in document coordinates.
func (m *Manager) ParagraphY(i int) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.syncHeightsLocked()
	return m.heights.Prefix(i)
}

// ParagraphHeight returns the current (estimated or calculated) height of
// paragraph i.
func (m *Manager) ParagraphHeight(i int) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.syncHeightsLocked()
	if i < 0 || i >= m.heights.Len() {
		return 0
	}
	return m.heights.Height(i)
}

// ParagraphAtY returns the paragraph at document position y.
func (m *Manager) ParagraphAtY(y float64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.syncHeightsLocked()
	return m.heights.Find(y)
}

// TotalHeight returns the document height.
func (m *Manager) TotalHeight() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.syncHeightsLocked()
	return m.heights.Total()
}

// IsHeightCalculated reports whether paragraph i's height is exact.
func (m *Manager) IsHeightCalculated(i int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.syncHeightsLocked()
	return i >= 0 && i < m.heights.Len() && m.heights.IsCalculated(i)
}
