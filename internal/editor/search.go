package editor

import (
	"fmt"
	"regexp"
	"unicode"
	"unicode/utf8"

	"github.com/dshills/folio/internal/engine/document"
	"github.com/dshills/folio/internal/engine/format"
	"github.com/dshills/folio/internal/engine/history"
)

// SearchHighlight is the overlay kind HighlightMatches uses.
const SearchHighlight = "search"

// SearchOptions controls how a query matches.
type SearchOptions struct {
	CaseSensitive bool
	WholeWord     bool
	Regex         bool // query is a regular expression
	WrapAround    bool // FindNext and FindPrevious continue past the ends
}

// Match is one occurrence of a query, as document offsets.
type Match struct {
	Start     int
	End       int
	Paragraph int
	Offset    int // Start relative to the paragraph
	Text      string
}

// Len returns the match length in runes.
func (m Match) Len() int { return m.End - m.Start }

// hit pairs a match with its byte-level submatch indices for replacement
// expansion.
type hit struct {
	Match
	loc []int
}

func compileQuery(query string, opts SearchOptions) (*regexp.Regexp, error) {
	if query == "" {
		return nil, ErrEmptyQuery
	}
	pat := query
	if !opts.Regex {
		pat = regexp.QuoteMeta(query)
	}
	if !opts.CaseSensitive {
		pat = "(?i)" + pat
	}
	re, err := regexp.Compile(pat)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}
	return re, nil
}

func isWordChar(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// wholeWordAt reports whether text[start:end] is not flanked by word
// characters.
func wholeWordAt(text string, start, end int) bool {
	if r, _ := utf8.DecodeLastRuneInString(text[:start]); start > 0 && isWordChar(r) {
		return false
	}
	if r, _ := utf8.DecodeRuneInString(text[end:]); end < len(text) && isWordChar(r) {
		return false
	}
	return true
}

// findLocked returns every non-empty, non-overlapping match in document
// order.
func (e *Editor) findLocked(re *regexp.Regexp, text string, opts SearchOptions) []hit {
	var hits []hit
	bytePos, runePos := 0, 0
	toRunes := func(b int) int {
		runePos += utf8.RuneCountInString(text[bytePos:b])
		bytePos = b
		return runePos
	}
	for _, loc := range re.FindAllStringSubmatchIndex(text, -1) {
		if loc[0] == loc[1] {
			continue
		}
		if opts.WholeWord && !wholeWordAt(text, loc[0], loc[1]) {
			continue
		}
		start := toRunes(loc[0])
		end := toRunes(loc[1])
		para, _ := e.doc.ParagraphAt(start)
		pstart, _, _ := e.doc.ParagraphRange(para)
		hits = append(hits, hit{
			Match: Match{
				Start:     start,
				End:       end,
				Paragraph: para,
				Offset:    start - pstart,
				Text:      text[loc[0]:loc[1]],
			},
			loc: loc,
		})
	}
	return hits
}

func (e *Editor) searchLocked(query string, opts SearchOptions) (*regexp.Regexp, string, []hit, error) {
	re, err := compileQuery(query, opts)
	if err != nil {
		return nil, "", nil, err
	}
	text := e.doc.String()
	return re, text, e.findLocked(re, text, opts), nil
}

// FindAll returns every match of query in document order.
func (e *Editor) FindAll(query string, opts SearchOptions) ([]Match, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, _, hits, err := e.searchLocked(query, opts)
	if err != nil {
		return nil, err
	}
	matches := make([]Match, len(hits))
	for i, h := range hits {
		matches[i] = h.Match
	}
	return matches, nil
}

// nextHit returns the first hit starting at or after from.
func nextHit(hits []hit, from int, wrap bool) (hit, bool) {
	for _, h := range hits {
		if h.Start >= from {
			return h, true
		}
	}
	if wrap && len(hits) > 0 {
		return hits[0], true
	}
	return hit{}, false
}

// prevHit returns the last hit starting before before.
func prevHit(hits []hit, before int, wrap bool) (hit, bool) {
	for i := len(hits) - 1; i >= 0; i-- {
		if hits[i].Start < before {
			return hits[i], true
		}
	}
	if wrap && len(hits) > 0 {
		return hits[len(hits)-1], true
	}
	return hit{}, false
}

func (e *Editor) selectMatchLocked(m Match) {
	e.sel = Selection{Anchor: m.Start, Head: m.End}
	e.selectionChangedLocked(false)
}

// FindNext selects the first match after the selection and reports whether
// one was found.
func (e *Editor) FindNext(query string, opts SearchOptions) (Match, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, _, hits, err := e.searchLocked(query, opts)
	if err != nil {
		return Match{}, false, err
	}
	h, ok := nextHit(hits, e.sel.End(), opts.WrapAround)
	if !ok {
		return Match{}, false, nil
	}
	e.selectMatchLocked(h.Match)
	return h.Match, true, nil
}

// FindPrevious selects the last match before the selection and reports
// whether one was found.
func (e *Editor) FindPrevious(query string, opts SearchOptions) (Match, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, _, hits, err := e.searchLocked(query, opts)
	if err != nil {
		return Match{}, false, err
	}
	h, ok := prevHit(hits, e.sel.Start(), opts.WrapAround)
	if !ok {
		return Match{}, false, nil
	}
	e.selectMatchLocked(h.Match)
	return h.Match, true, nil
}

// replacementLocked expands repl for h and returns the commands that swap
// it in along with the inserted length. Regex replacements may refer to
// groups as $1 or ${name}.
func (e *Editor) replacementLocked(re *regexp.Regexp, text string, h hit, repl string, opts SearchOptions) ([]history.Command, int) {
	if opts.Regex {
		repl = string(re.ExpandString(nil, repl, text, h.loc))
	}
	repl = normalizeText(repl)
	cmds := []history.Command{history.NewDeleteCommand(h.Start, h.Len(), history.DeleteRange)}
	if repl == "" {
		return cmds, 0
	}
	frag := document.PlainFragment(repl)
	if st, err := e.doc.InlineStyleAt(h.Start); err == nil && !st.IsEmpty() {
		frag.Runs = []format.Run{{Start: 0, End: frag.Len(), Style: st}}
	}
	return append(cmds, history.NewInsertCommand(h.Start, frag)), frag.Len()
}

// ReplaceCurrent replaces the selected match of query with repl and selects
// the next match. When the selection is not a match it only moves to the
// next one. It reports whether a replacement was made.
func (e *Editor) ReplaceCurrent(query, repl string, opts SearchOptions) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	re, text, hits, err := e.searchLocked(query, opts)
	if err != nil {
		return false, err
	}
	var cur *hit
	for i := range hits {
		if hits[i].Start == e.sel.Start() && hits[i].End == e.sel.End() {
			cur = &hits[i]
			break
		}
	}
	if cur == nil {
		if h, ok := nextHit(hits, e.sel.End(), opts.WrapAround); ok {
			e.selectMatchLocked(h.Match)
		}
		return false, nil
	}

	cmds, n := e.replacementLocked(re, text, *cur, repl, opts)
	end := cur.Start + n
	e.history.Flush()
	cmd := &history.CompoundCommand{Name: "Replace", Commands: cmds}
	if err := e.execLocked(cmd, history.Caret(end)); err != nil {
		return false, err
	}
	e.history.Flush()
	e.hasGoal = false

	_, _, hits, err = e.searchLocked(query, opts)
	if err != nil {
		return true, err
	}
	if h, ok := nextHit(hits, end, opts.WrapAround); ok {
		e.selectMatchLocked(h.Match)
	}
	return true, nil
}

// ReplaceAll replaces every match of query with repl as a single undo
// unit and returns the number of replacements.
func (e *Editor) ReplaceAll(query, repl string, opts SearchOptions) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	re, text, hits, err := e.searchLocked(query, opts)
	if err != nil || len(hits) == 0 {
		return 0, err
	}
	// Later matches go first so earlier offsets stay valid.
	var cmds []history.Command
	for i := len(hits) - 1; i >= 0; i-- {
		c, _ := e.replacementLocked(re, text, hits[i], repl, opts)
		cmds = append(cmds, c...)
	}
	e.history.Flush()
	cmd := &history.CompoundCommand{Name: "Replace All", Commands: cmds}
	if err := e.execLocked(cmd, history.Caret(hits[0].Start)); err != nil {
		return 0, err
	}
	e.history.Flush()
	e.hasGoal = false
	e.logger.Debug("replaced all", "query", query, "count", len(hits))
	return len(hits), nil
}

// HighlightMatches replaces the search overlays with one per match of
// query and returns the number of matches.
func (e *Editor) HighlightMatches(query string, opts SearchOptions) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, _, hits, err := e.searchLocked(query, opts)
	if err != nil {
		return 0, err
	}
	e.doc.ClearHighlights(SearchHighlight)
	for _, h := range hits {
		if err := e.doc.AddHighlight(document.Highlight{Start: h.Start, End: h.End, Kind: SearchHighlight}); err != nil {
			return 0, err
		}
	}
	e.layout.InvalidateRange(0, e.doc.Len())
	return len(hits), nil
}

// Statistics counts the document's words, characters and paragraphs.
func (e *Editor) Statistics() document.Statistics {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc.Statistics()
}
