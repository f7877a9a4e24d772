package editor

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/dshills/folio/internal/engine/format"
)

func TestFindAll(t *testing.T) {
	const text = "The cat sat.\nCatalog of cats: cat_1 CAT"
	tests := []struct {
		name  string
		query string
		opts  SearchOptions
		want  []Match
	}{
		{"case insensitive", "cat", SearchOptions{}, []Match{
			{Start: 4, End: 7, Paragraph: 0, Offset: 4, Text: "cat"},
			{Start: 13, End: 16, Paragraph: 1, Offset: 0, Text: "Cat"},
			{Start: 24, End: 27, Paragraph: 1, Offset: 11, Text: "cat"},
			{Start: 30, End: 33, Paragraph: 1, Offset: 17, Text: "cat"},
			{Start: 36, End: 39, Paragraph: 1, Offset: 23, Text: "CAT"},
		}},
		{"case sensitive", "Cat", SearchOptions{CaseSensitive: true}, []Match{
			{Start: 13, End: 16, Paragraph: 1, Offset: 0, Text: "Cat"},
		}},
		{"whole word", "cat", SearchOptions{WholeWord: true}, []Match{
			{Start: 4, End: 7, Paragraph: 0, Offset: 4, Text: "cat"},
			{Start: 36, End: 39, Paragraph: 1, Offset: 23, Text: "CAT"},
		}},
		{"regex", `[cs]at\b`, SearchOptions{Regex: true, CaseSensitive: true}, []Match{
			{Start: 4, End: 7, Paragraph: 0, Offset: 4, Text: "cat"},
			{Start: 8, End: 11, Paragraph: 0, Offset: 8, Text: "sat"},
		}},
		{"literal metacharacters", "sat.", SearchOptions{}, []Match{
			{Start: 8, End: 12, Paragraph: 0, Offset: 8, Text: "sat."},
		}},
		{"empty matches skipped", "x*", SearchOptions{Regex: true}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ed := newEditor(t, text)
			got, err := ed.FindAll(tt.query, tt.opts)
			if err != nil {
				t.Fatalf("FindAll() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("FindAll() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFindAllRuneOffsets(t *testing.T) {
	ed := newEditor(t, "naïve café, café")
	got, err := ed.FindAll("café", SearchOptions{})
	if err != nil {
		t.Fatal(err)
	}
	want := []Match{
		{Start: 6, End: 10, Offset: 6, Text: "café"},
		{Start: 12, End: 16, Offset: 12, Text: "café"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FindAll() mismatch (-want +got):\n%s", diff)
	}
}

func TestFindErrors(t *testing.T) {
	ed := newEditor(t, "text")
	if _, err := ed.FindAll("", SearchOptions{}); !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("FindAll(\"\") error = %v, want ErrEmptyQuery", err)
	}
	if _, err := ed.FindAll("(", SearchOptions{Regex: true}); !errors.Is(err, ErrInvalidPattern) {
		t.Errorf("FindAll(\"(\") error = %v, want ErrInvalidPattern", err)
	}
}

func TestFindNextAndPrevious(t *testing.T) {
	ed := newEditor(t, "ab ab ab")

	m, ok, err := ed.FindNext("ab", SearchOptions{})
	mustDo(t, err)
	if !ok || m.Start != 0 {
		t.Fatalf("FindNext() = %+v, %v, want match at 0", m, ok)
	}
	if got := ed.Selection(); got != (Selection{Anchor: 0, Head: 2}) {
		t.Errorf("Selection() = %+v, want [0,2)", got)
	}

	m, _, _ = ed.FindNext("ab", SearchOptions{})
	if m.Start != 3 {
		t.Errorf("second FindNext() start = %d, want 3", m.Start)
	}
	m, _, _ = ed.FindNext("ab", SearchOptions{})
	if m.Start != 6 {
		t.Errorf("third FindNext() start = %d, want 6", m.Start)
	}
	if _, ok, _ := ed.FindNext("ab", SearchOptions{}); ok {
		t.Error("FindNext() past the last match without wrap found a match")
	}
	if got := ed.Selection(); got != (Selection{Anchor: 6, Head: 8}) {
		t.Errorf("Selection() = %+v, want it unchanged at [6,8)", got)
	}
	m, ok, _ = ed.FindNext("ab", SearchOptions{WrapAround: true})
	if !ok || m.Start != 0 {
		t.Errorf("wrapping FindNext() = %+v, %v, want match at 0", m, ok)
	}

	if _, ok, _ := ed.FindPrevious("ab", SearchOptions{}); ok {
		t.Error("FindPrevious() before the first match without wrap found a match")
	}
	m, ok, _ = ed.FindPrevious("ab", SearchOptions{WrapAround: true})
	if !ok || m.Start != 6 {
		t.Errorf("wrapping FindPrevious() = %+v, %v, want match at 6", m, ok)
	}
	m, _, _ = ed.FindPrevious("ab", SearchOptions{})
	if m.Start != 3 {
		t.Errorf("FindPrevious() start = %d, want 3", m.Start)
	}
}

func TestReplaceCurrent(t *testing.T) {
	ed := newEditor(t, "one two one two")
	mustDo(t, ed.SetSelection(0, 3))
	mustDo(t, ed.ApplyInlineStyle(bold()))
	mustDo(t, ed.SetCaret(0))

	replaced, err := ed.ReplaceCurrent("one", "three", SearchOptions{})
	mustDo(t, err)
	if replaced {
		t.Error("ReplaceCurrent() without a selected match replaced text")
	}
	if got := ed.Selection(); got != (Selection{Anchor: 0, Head: 3}) {
		t.Fatalf("Selection() = %+v, want the first match", got)
	}

	replaced, err = ed.ReplaceCurrent("one", "three", SearchOptions{})
	mustDo(t, err)
	if !replaced {
		t.Fatal("ReplaceCurrent() on a selected match did not replace")
	}
	if got, want := ed.Text(), "three two one two"; got != want {
		t.Errorf("Text() = %q, want %q", got, want)
	}
	if got := ed.Selection(); got != (Selection{Anchor: 10, Head: 13}) {
		t.Errorf("Selection() = %+v, want the next match [10,13)", got)
	}
	st, _ := ed.Document().InlineStyleAt(4)
	if on, _ := st.Flag(format.AttrBold); !on {
		t.Error("replacement text lost the style of the replaced text")
	}

	ok, err := ed.Undo()
	mustDo(t, err)
	if !ok || ed.Text() != "one two one two" {
		t.Errorf("after Undo() Text() = %q, want the original", ed.Text())
	}
}

func TestReplaceAll(t *testing.T) {
	ed := newEditor(t, "cat\ncat and Cat")
	before := ed.History().UndoCount()

	n, err := ed.ReplaceAll("cat", "dog", SearchOptions{})
	mustDo(t, err)
	if n != 3 {
		t.Errorf("ReplaceAll() = %d, want 3", n)
	}
	if got, want := ed.Text(), "dog\ndog and dog"; got != want {
		t.Errorf("Text() = %q, want %q", got, want)
	}
	if got := ed.History().UndoCount(); got != before+1 {
		t.Errorf("UndoCount() = %d, want %d", got, before+1)
	}
	if got := ed.Selection(); got != (Selection{Anchor: 0, Head: 0}) {
		t.Errorf("Selection() = %+v, want caret at the first match", got)
	}

	if _, err := ed.Undo(); err != nil {
		t.Fatal(err)
	}
	if got, want := ed.Text(), "cat\ncat and Cat"; got != want {
		t.Errorf("after Undo() Text() = %q, want %q", got, want)
	}
	if _, err := ed.Redo(); err != nil {
		t.Fatal(err)
	}
	if got, want := ed.Text(), "dog\ndog and dog"; got != want {
		t.Errorf("after Redo() Text() = %q, want %q", got, want)
	}
}

func TestReplaceAllRegexGroups(t *testing.T) {
	ed := newEditor(t, "2024-01-15 and 1999-12-31")
	n, err := ed.ReplaceAll(`(\d{4})-(\d{2})-(\d{2})`, "$3/$2/$1", SearchOptions{Regex: true})
	mustDo(t, err)
	if n != 2 {
		t.Errorf("ReplaceAll() = %d, want 2", n)
	}
	if got, want := ed.Text(), "15/01/2024 and 31/12/1999"; got != want {
		t.Errorf("Text() = %q, want %q", got, want)
	}
}

func TestReplaceAllKeepsStyles(t *testing.T) {
	ed := newEditor(t, "red blue red")
	mustDo(t, ed.SetSelection(9, 12))
	mustDo(t, ed.ApplyInlineStyle(bold()))

	if _, err := ed.ReplaceAll("red", "", SearchOptions{WholeWord: true}); err != nil {
		t.Fatal(err)
	}
	if got, want := ed.Text(), " blue "; got != want {
		t.Errorf("Text() = %q, want %q", got, want)
	}
	if runs := ed.Document().Runs(); len(runs) != 0 {
		t.Errorf("Runs() = %+v, want none after deleting the bold word", runs)
	}

	mustDo(t, ed.SetSelection(1, 5))
	mustDo(t, ed.ApplyInlineStyle(bold()))
	if _, err := ed.ReplaceAll("blue", "green", SearchOptions{}); err != nil {
		t.Fatal(err)
	}
	want := []format.Run{{Start: 1, End: 6, Style: bold()}}
	if diff := cmp.Diff(want, ed.Document().Runs(), snapshotOpts); diff != "" {
		t.Errorf("Runs() mismatch (-want +got):\n%s", diff)
	}
}

func TestReplaceAllNoMatch(t *testing.T) {
	ed := newEditor(t, "text")
	n, err := ed.ReplaceAll("missing", "x", SearchOptions{})
	if err != nil || n != 0 {
		t.Errorf("ReplaceAll() = %d, %v, want 0, nil", n, err)
	}
	if ed.CanUndo() {
		t.Error("CanUndo() = true after a replace with no matches")
	}
}

func TestHighlightMatches(t *testing.T) {
	ed := newEditor(t, "to be or not to be")
	n, err := ed.HighlightMatches("be", SearchOptions{WholeWord: true})
	mustDo(t, err)
	if n != 2 {
		t.Errorf("HighlightMatches() = %d, want 2", n)
	}
	got := ed.Document().Highlights(0, ed.Document().Len())
	if len(got) != 2 || got[0].Start != 3 || got[1].Start != 16 || got[0].Kind != SearchHighlight {
		t.Errorf("Highlights() = %+v, want search overlays at 3 and 16", got)
	}

	if _, err := ed.HighlightMatches("not", SearchOptions{}); err != nil {
		t.Fatal(err)
	}
	if got := ed.Document().Highlights(0, ed.Document().Len()); len(got) != 1 {
		t.Errorf("Highlights() = %+v, want only the new match", got)
	}
}

func TestEditorStatistics(t *testing.T) {
	ed := newEditor(t, "Hello world\nsecond line")
	st := ed.Statistics()
	if st.Words != 4 || st.Paragraphs != 2 || st.Characters != 22 || st.ReadingMinutes != 1 {
		t.Errorf("Statistics() = %+v, want 4 words, 2 paragraphs, 22 characters", st)
	}
}
