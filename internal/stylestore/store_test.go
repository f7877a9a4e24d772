package stylestore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/tidwall/gjson"

	"github.com/dshills/folio/internal/engine/format"
	"github.com/dshills/folio/internal/renderer/style"
)

var styleComparer = cmp.Comparer(func(a, b format.InlineStyle) bool { return a.Equal(b) })

func TestSaveAndLookupCharacter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "styles", "user.json")
	s, err := Open(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := style.CharacterStyle{
		ID:      "emph",
		Name:    "Emphasis",
		BasedOn: "base",
		Style: format.Empty().
			WithItalic(true).
			WithBold(false).
			WithFontSize(13.5).
			WithForeground(format.RGB(0x12, 0x34, 0x56)),
	}
	if err := s.SaveCharacter(want); err != nil {
		t.Fatal(err)
	}
	if s.Revision() != 1 {
		t.Errorf("Revision() = %d, want 1", s.Revision())
	}

	got, ok := s.CharacterStyle("emph")
	if !ok {
		t.Fatal("CharacterStyle(emph) not found")
	}
	if diff := cmp.Diff(want, got, styleComparer); diff != "" {
		t.Errorf("CharacterStyle() mismatch (-want +got):\n%s", diff)
	}

	// Reopen from disk.
	s2, err := Open(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	got, ok = s2.CharacterStyle("emph")
	if !ok {
		t.Fatal("style not persisted")
	}
	if diff := cmp.Diff(want, got, styleComparer); diff != "" {
		t.Errorf("reopened CharacterStyle() mismatch (-want +got):\n%s", diff)
	}
	if _, ok := s2.ParagraphStyle("emph"); ok {
		t.Error("character style visible as a paragraph style")
	}
}

func TestSaveParagraph(t *testing.T) {
	s := New()
	want := style.ParagraphStyle{
		ID:          "quote",
		BasedOn:     "body",
		Text:        format.Empty().WithItalic(true),
		Align:       format.AlignJustify,
		LeftMargin:  style.Float(4),
		SpaceBefore: style.Float(0.5),
	}
	if err := s.SaveParagraph(want); err != nil {
		t.Fatal(err)
	}
	got, ok := s.ParagraphStyle("quote")
	if !ok {
		t.Fatal("ParagraphStyle(quote) not found")
	}
	if diff := cmp.Diff(want, got, styleComparer); diff != "" {
		t.Errorf("ParagraphStyle() mismatch (-want +got):\n%s", diff)
	}
	if s.Path() != "" {
		t.Errorf("Path() = %q for an in-memory store", s.Path())
	}
}

func TestDelete(t *testing.T) {
	s := New()
	s.SaveCharacter(style.CharacterStyle{ID: "a", Style: format.Empty().WithBold(true)})
	s.SaveCharacter(style.CharacterStyle{ID: "b", Style: format.Empty().WithItalic(true)})

	if diff := cmp.Diff([]string{"a", "b"}, s.IDs(Character)); diff != "" {
		t.Errorf("IDs() mismatch (-want +got):\n%s", diff)
	}
	if err := s.Delete(Character, "a"); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.CharacterStyle("a"); ok {
		t.Error("deleted style still found")
	}
	if err := s.Delete(Character, "a"); !errors.Is(err, ErrStyleNotFound) {
		t.Errorf("Delete() of a missing style error = %v, want ErrStyleNotFound", err)
	}
	if err := s.Delete(Paragraph, "b"); !errors.Is(err, ErrStyleNotFound) {
		t.Errorf("Delete(Paragraph) of a character style error = %v, want ErrStyleNotFound", err)
	}
}

func TestInvalidIDs(t *testing.T) {
	s := New()
	for _, id := range []string{"", "a.b", "x*", "has space"} {
		if err := s.SaveCharacter(style.CharacterStyle{ID: id}); !errors.Is(err, ErrInvalidID) {
			t.Errorf("SaveCharacter(%q) error = %v, want ErrInvalidID", id, err)
		}
		if _, ok := s.CharacterStyle(id); ok {
			t.Errorf("CharacterStyle(%q) found", id)
		}
	}
	err := s.SaveCharacter(style.CharacterStyle{ID: "ok", BasedOn: "bad.id"})
	if !errors.Is(err, ErrInvalidID) {
		t.Errorf("invalid based_on error = %v, want ErrInvalidID", err)
	}
}

func TestUnknownFieldsSurvive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user.json")
	data := `{"version":1,"author":"me","character":{"x":{"bold":true,"note":"keep"}}}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := Open(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SaveCharacter(style.CharacterStyle{ID: "y", Style: format.Empty().WithUnderline(true)}); err != nil {
		t.Fatal(err)
	}
	saved, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := gjson.GetBytes(saved, "author").String(); got != "me" {
		t.Errorf("author = %q after save, want me", got)
	}
	if got := gjson.GetBytes(saved, "character.x.note").String(); got != "keep" {
		t.Errorf("character.x.note = %q after save, want keep", got)
	}
	if !gjson.GetBytes(saved, "character.y.underline").Bool() {
		t.Error("new style not written")
	}
}

func TestOpenErrors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	os.WriteFile(bad, []byte(`{"character":`), 0o644)
	if _, err := Open(bad, nil); !errors.Is(err, ErrCorrupt) {
		t.Errorf("Open(truncated) error = %v, want ErrCorrupt", err)
	}
	arr := filepath.Join(dir, "array.json")
	os.WriteFile(arr, []byte(`[1,2]`), 0o644)
	if _, err := Open(arr, nil); !errors.Is(err, ErrCorrupt) {
		t.Errorf("Open(array) error = %v, want ErrCorrupt", err)
	}
	s, err := Open(filepath.Join(dir, "missing.json"), nil)
	if err != nil || len(s.IDs(Character)) != 0 {
		t.Errorf("Open(missing) = %v, %v; want an empty store", s, err)
	}
}

func TestInvalidStoredStyleIsSkipped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user.json")
	os.WriteFile(path, []byte(`{"character":{"c":{"color":"not a color"}}}`), 0o644)
	s, err := Open(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.CharacterStyle("c"); ok {
		t.Error("style with an invalid color should be skipped")
	}
}

func TestStoreAsCatalog(t *testing.T) {
	builtin := style.NewMemoryCatalog()
	builtin.PutCharacter(style.CharacterStyle{ID: "emph", Style: format.Empty().WithItalic(true)})
	user := New()
	user.SaveCharacter(style.CharacterStyle{ID: "emph", Style: format.Empty().WithBold(true)})

	r := style.NewResolver(style.ChainCatalog{user, builtin}, style.DefaultTheme())
	got := r.ResolveForRun(format.Empty().WithCharacterStyle("emph"), "")
	if !got.Bold || got.Italic {
		t.Errorf("user style should shadow the built-in one, got %+v", got)
	}

	gen := r.Generation()
	user.SaveCharacter(style.CharacterStyle{ID: "emph", Style: format.Empty().WithUnderline(true)})
	if r.Generation() == gen {
		t.Error("saving a style did not move the resolver generation")
	}
	if got := r.ResolveForRun(format.Empty().WithCharacterStyle("emph"), ""); !got.Underline {
		t.Errorf("resolver served a stale style: %+v", got)
	}
}
