package editor

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/folio/internal/engine/format"
	"github.com/dshills/folio/internal/renderer/style"
	"github.com/dshills/folio/internal/stylestore"
)

func TestCurrentInlineStyleMixed(t *testing.T) {
	ed := newEditor(t, "Hello World")
	if _, err := ed.Document().SetInlineStyle(0, 5, bold()); err != nil {
		t.Fatal(err)
	}
	mustDo(t, ed.SetSelection(3, 8))
	cur := ed.CurrentInlineStyle()
	if got := cur.State(format.AttrBold); got != style.Mixed {
		t.Errorf("State(bold) = %v, want mixed", got)
	}
	if cur.IsMixed(format.AttrItalic) {
		t.Error("italic reported mixed")
	}

	mustDo(t, ed.SetSelection(0, 5))
	if got := ed.CurrentInlineStyle().State(format.AttrBold); got != style.On {
		t.Errorf("State(bold) over the bold run = %v, want on", got)
	}
}

func TestToggleBold(t *testing.T) {
	ed := newEditor(t, "Hello World")
	if _, err := ed.Document().SetInlineStyle(0, 5, bold()); err != nil {
		t.Fatal(err)
	}
	mustDo(t, ed.SetSelection(3, 8))

	// Mixed turns on.
	mustDo(t, ed.ToggleBold())
	want := []format.Run{{Start: 0, End: 8, Style: bold()}}
	if diff := cmp.Diff(want, ed.Document().Runs(), snapshotOpts); diff != "" {
		t.Errorf("Runs() after toggle on (-want +got):\n%s", diff)
	}
	if got := ed.CurrentInlineStyle().State(format.AttrBold); got != style.On {
		t.Errorf("State(bold) = %v, want on", got)
	}

	mustDo(t, ed.ToggleBold())
	if got := ed.CurrentInlineStyle().State(format.AttrBold); got != style.Off {
		t.Errorf("State(bold) after second toggle = %v, want off", got)
	}
	st, err := ed.Document().InlineStyleAt(4)
	mustDo(t, err)
	if v, ok := st.Flag(format.AttrBold); !ok || v {
		t.Errorf("InlineStyleAt(4) bold = %v, %v, want explicit false", v, ok)
	}
	st, _ = ed.Document().InlineStyleAt(1)
	if v, _ := st.Flag(format.AttrBold); !v {
		t.Error("InlineStyleAt(1) lost bold outside the selection")
	}
}

func TestFormatWordUnderCaret(t *testing.T) {
	tests := []struct {
		name  string
		caret int
		want  []format.Run
	}{
		{"inside word", 8, []format.Run{{Start: 6, End: 11, Style: format.Empty().WithItalic(true)}}},
		{"right after word", 5, []format.Run{{Start: 0, End: 5, Style: format.Empty().WithItalic(true)}}},
		{"word start", 6, []format.Run{{Start: 6, End: 11, Style: format.Empty().WithItalic(true)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ed := newEditor(t, "Hello World")
			mustDo(t, ed.SetCaret(tt.caret))
			mustDo(t, ed.ToggleItalic())
			if diff := cmp.Diff(tt.want, ed.Document().Runs(), snapshotOpts); diff != "" {
				t.Errorf("Runs() mismatch (-want +got):\n%s", diff)
			}
			if got := ed.Selection(); got != history0(tt.caret) {
				t.Errorf("Selection() = %+v, want caret at %d", got, tt.caret)
			}
		})
	}
}

func history0(pos int) Selection {
	return Selection{Anchor: pos, Head: pos}
}

func TestPendingStyle(t *testing.T) {
	ed := newEditor(t, "Hello ")
	ed.MoveDocumentEnd(false)
	mustDo(t, ed.ToggleBold())
	if len(ed.Document().Runs()) != 0 {
		t.Fatal("ToggleBold without a target changed the document")
	}
	if v, ok := ed.PendingStyle().Flag(format.AttrBold); !ok || !v {
		t.Fatalf("PendingStyle() = %v, want bold", ed.PendingStyle())
	}
	if got := ed.CurrentInlineStyle().State(format.AttrBold); got != style.On {
		t.Errorf("State(bold) with pending bold = %v, want on", got)
	}

	mustDo(t, ed.InsertText("ab"))
	mustDo(t, ed.InsertText("c"))
	want := []format.Run{{Start: 6, End: 9, Style: bold()}}
	if diff := cmp.Diff(want, ed.Document().Runs(), snapshotOpts); diff != "" {
		t.Errorf("Runs() mismatch (-want +got):\n%s", diff)
	}

	ed.MoveLeft(false)
	if !ed.PendingStyle().IsEmpty() {
		t.Error("caret motion kept the pending style")
	}
}

func TestApplyAttributes(t *testing.T) {
	red := format.RGB(0xff, 0, 0)
	tests := []struct {
		name  string
		apply func(*Editor) error
		check func(format.InlineStyle) bool
	}{
		{"font family", func(e *Editor) error { return e.ApplyFontFamily("Mono") }, func(s format.InlineStyle) bool {
			v, ok := s.FontFamily()
			return ok && v == "Mono"
		}},
		{"font size", func(e *Editor) error { return e.ApplyFontSize(14) }, func(s format.InlineStyle) bool {
			v, ok := s.FontSize()
			return ok && v == 14
		}},
		{"text color", func(e *Editor) error { return e.ApplyTextColor(red) }, func(s format.InlineStyle) bool {
			v, ok := s.Foreground()
			return ok && v == red
		}},
		{"background", func(e *Editor) error { return e.ApplyBackgroundColor(red) }, func(s format.InlineStyle) bool {
			v, ok := s.Background()
			return ok && v == red
		}},
		{"character style", func(e *Editor) error { return e.ApplyCharacterStyle("strong") }, func(s format.InlineStyle) bool {
			v, ok := s.CharacterStyle()
			return ok && v == "strong"
		}},
		{"underline", (*Editor).ToggleUnderline, func(s format.InlineStyle) bool {
			v, ok := s.Flag(format.AttrUnderline)
			return ok && v
		}},
		{"strikethrough", (*Editor).ToggleStrikethrough, func(s format.InlineStyle) bool {
			v, ok := s.Flag(format.AttrStrikethrough)
			return ok && v
		}},
		{"superscript", (*Editor).ToggleSuperscript, func(s format.InlineStyle) bool {
			v, ok := s.Flag(format.AttrSuperscript)
			return ok && v && s.Has(format.AttrSubscript)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ed := newEditor(t, "Hello World")
			mustDo(t, ed.SetSelection(0, 5))
			mustDo(t, tt.apply(ed))
			st, err := ed.Document().InlineStyleAt(2)
			mustDo(t, err)
			if !tt.check(st) {
				t.Errorf("InlineStyleAt(2) = %v", st)
			}
			if st, _ := ed.Document().InlineStyleAt(7); !st.IsEmpty() {
				t.Errorf("InlineStyleAt(7) = %v, want empty", st)
			}
		})
	}
}

func TestApplyInvalidValues(t *testing.T) {
	ed := newEditor(t, "Hello")
	ed.SelectAll()
	for name, err := range map[string]error{
		"size":   ed.ApplyFontSize(0),
		"family": ed.ApplyFontFamily(""),
		"style":  ed.ApplyCharacterStyle(""),
	} {
		if !errors.Is(err, ErrInvalidValue) {
			t.Errorf("%s: error = %v, want ErrInvalidValue", name, err)
		}
	}
	if ed.CanUndo() {
		t.Error("invalid values were recorded")
	}
}

func TestClearInlineFormatting(t *testing.T) {
	ed := newEditor(t, "Hello World")
	if _, err := ed.Document().SetInlineStyle(0, 11, bold().WithItalic(true)); err != nil {
		t.Fatal(err)
	}
	mustDo(t, ed.SetSelection(3, 8))
	mustDo(t, ed.ClearInlineFormatting())
	want := []format.Run{
		{Start: 0, End: 3, Style: bold().WithItalic(true)},
		{Start: 8, End: 11, Style: bold().WithItalic(true)},
	}
	if diff := cmp.Diff(want, ed.Document().Runs(), snapshotOpts); diff != "" {
		t.Errorf("Runs() mismatch (-want +got):\n%s", diff)
	}

	// Nothing to clear records nothing.
	n := ed.History().UndoCount()
	mustDo(t, ed.ClearInlineFormatting())
	if got := ed.History().UndoCount(); got != n {
		t.Errorf("UndoCount() = %d, want %d", got, n)
	}
}

func TestParagraphFormatting(t *testing.T) {
	ed := newEditor(t, "one\ntwo\nthree")
	// Ends at the start of "three", which is not touched.
	mustDo(t, ed.SetSelection(1, 8))
	mustDo(t, ed.ApplyAlignment(format.AlignRight))
	mustDo(t, ed.ApplyParagraphStyle("quote"))
	doc := ed.Document()
	for i, want := range []struct {
		align format.Alignment
		style string
	}{
		{format.AlignRight, "quote"},
		{format.AlignRight, "quote"},
		{format.AlignInherit, ""},
	} {
		p := doc.ParagraphProps(i)
		if p.Align != want.align || p.StyleID != want.style {
			t.Errorf("ParagraphProps(%d) = %+v, want %v %q", i, p, want.align, want.style)
		}
	}
	pl, err := ed.Layout().LayoutFor(0)
	mustDo(t, err)
	if pl.Style.Align != format.AlignRight {
		t.Errorf("layout alignment = %v, want right", pl.Style.Align)
	}
}

func TestParagraphStyleShowsThrough(t *testing.T) {
	cat := style.NewMemoryCatalog()
	cat.PutParagraph(style.ParagraphStyle{ID: "heading", Text: format.Empty().WithBold(true)})
	ed := newEditor(t, "Title\nbody", WithCatalog(cat))
	mustDo(t, ed.SetCaret(2))
	mustDo(t, ed.ApplyParagraphStyle("heading"))
	if got := ed.CurrentInlineStyle().State(format.AttrBold); got != style.On {
		t.Errorf("State(bold) in heading = %v, want on", got)
	}

	// Toggling off needs an explicit inline false, which wins.
	mustDo(t, ed.ToggleBold())
	if got := ed.CurrentInlineStyle().State(format.AttrBold); got != style.Off {
		t.Errorf("State(bold) after toggle = %v, want off", got)
	}

	mustDo(t, ed.ClearInlineFormatting())
	if got := ed.CurrentInlineStyle().State(format.AttrBold); got != style.On {
		t.Errorf("State(bold) after clearing = %v, want on", got)
	}
}

func TestSaveStyleFromSelection(t *testing.T) {
	store := stylestore.New()
	ed := newEditor(t, "Loud and quiet", WithCatalog(style.ChainCatalog{store}), WithStyleStore(store))
	if _, err := ed.Document().SetInlineStyle(0, 4, bold().WithItalic(true)); err != nil {
		t.Fatal(err)
	}
	mustDo(t, ed.SetSelection(0, 4))
	cs, err := ed.SaveStyleFromSelection("loud", "Loud")
	mustDo(t, err)
	th := style.DefaultTheme()
	want := format.Empty().WithBold(true).WithItalic(true).
		WithUnderline(false).WithStrikethrough(false).
		WithFlag(format.AttrSubscript, false).WithFlag(format.AttrSuperscript, false).
		WithFontFamily(th.FontFamily).WithFontSize(th.FontSize).WithForeground(th.Foreground)
	if !cs.Style.Equal(want) {
		t.Errorf("saved style = %v, want %v", cs.Style, want)
	}
	got, ok := store.CharacterStyle("loud")
	if !ok || got.Name != "Loud" || !got.Style.Equal(want) {
		t.Errorf("store.CharacterStyle(loud) = %+v, %v", got, ok)
	}

	// Mixed attributes are left out.
	mustDo(t, ed.SetSelection(2, 7))
	cs, err = ed.SaveStyleFromSelection("half", "")
	mustDo(t, err)
	if cs.Style.Has(format.AttrBold) || cs.Style.Has(format.AttrItalic) {
		t.Errorf("saved style %v kept mixed attributes", cs.Style)
	}

	// The saved style can be referenced right away.
	mustDo(t, ed.SetSelection(9, 14))
	mustDo(t, ed.ApplyCharacterStyle("loud"))
	if got := ed.CurrentInlineStyle().State(format.AttrBold); got != style.On {
		t.Errorf("State(bold) with the saved style = %v, want on", got)
	}
}

func TestSaveStyleErrors(t *testing.T) {
	ed := newEditor(t, "text ")
	if _, err := ed.SaveStyleFromSelection("x", ""); !errors.Is(err, ErrNoStyleStore) {
		t.Errorf("without a store: error = %v, want ErrNoStyleStore", err)
	}
	ed = newEditor(t, "text ", WithStyleStore(stylestore.New()))
	ed.MoveDocumentEnd(false)
	if _, err := ed.SaveStyleFromSelection("x", ""); !errors.Is(err, ErrNoTarget) {
		t.Errorf("without a target: error = %v, want ErrNoTarget", err)
	}
	mustDo(t, ed.SetSelection(0, 4))
	if _, err := ed.SaveStyleFromSelection("bad id", ""); !errors.Is(err, stylestore.ErrInvalidID) {
		t.Errorf("bad id: error = %v, want ErrInvalidID", err)
	}
}
