package layer

import (
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestOverlay(t *testing.T) {
	tests := []struct {
		name string
		dst  map[string]any
		src  map[string]any
		want map[string]any
	}{
		{
			name: "into empty",
			dst:  map[string]any{},
			src:  map[string]any{"a": int64(1)},
			want: map[string]any{"a": int64(1)},
		},
		{
			name: "nested override",
			dst:  map[string]any{"editor": map[string]any{"undo_depth": int64(100), "strict_ranges": false}},
			src:  map[string]any{"editor": map[string]any{"undo_depth": int64(5)}},
			want: map[string]any{"editor": map[string]any{"undo_depth": int64(5), "strict_ranges": false}},
		},
		{
			name: "scalar replaces table",
			dst:  map[string]any{"theme": map[string]any{"name": "light"}},
			src:  map[string]any{"theme": "dark"},
			want: map[string]any{"theme": "dark"},
		},
		{
			name: "table replaces scalar",
			dst:  map[string]any{"theme": "dark"},
			src:  map[string]any{"theme": map[string]any{"name": "light"}},
			want: map[string]any{"theme": map[string]any{"name": "light"}},
		},
		{
			name: "arrays are replaced",
			dst:  map[string]any{"a": []any{int64(1), int64(2)}},
			src:  map[string]any{"a": []any{int64(3)}},
			want: map[string]any{"a": []any{int64(3)}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Overlay(tt.dst, tt.src)
			if diff := cmp.Diff(tt.want, tt.dst); diff != "" {
				t.Errorf("Overlay() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestOverlayCopiesSource(t *testing.T) {
	src := map[string]any{"layout": map[string]any{"width": int64(80)}}
	dst := map[string]any{}
	Overlay(dst, src)
	dst["layout"].(map[string]any)["width"] = int64(1)
	if w := src["layout"].(map[string]any)["width"]; w != int64(80) {
		t.Errorf("source modified through overlay result: width = %v", w)
	}
}

func TestPaths(t *testing.T) {
	tree := map[string]any{}
	Set(tree, "editor.undo_depth", int64(7))
	Set(tree, "editor.merge_window", "2s")
	Set(tree, "top", true)

	if v, ok := Get(tree, "editor.undo_depth"); !ok || v != int64(7) {
		t.Errorf("Get(editor.undo_depth) = %v, %v", v, ok)
	}
	if _, ok := Get(tree, "editor.missing"); ok {
		t.Error("Get(editor.missing) found a value")
	}
	if _, ok := Get(tree, "top.below"); ok {
		t.Error("Get through a scalar found a value")
	}
	if _, ok := Get(nil, "x"); ok {
		t.Error("Get(nil) found a value")
	}

	// Setting below a scalar replaces it with a table.
	Set(tree, "top.below", int64(1))
	if v, ok := Get(tree, "top.below"); !ok || v != int64(1) {
		t.Errorf("Get(top.below) = %v, %v", v, ok)
	}

	got := Paths(tree)
	sort.Strings(got)
	want := []string{"editor.merge_window", "editor.undo_depth", "top.below"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Paths() mismatch (-want +got):\n%s", diff)
	}
}

func TestStack(t *testing.T) {
	s := NewStack()
	s.Push(New(SourceEnv, map[string]any{
		"layout": map[string]any{"width": int64(100)},
	}))
	s.Push(FromFile(SourceUser, "/home/u/config.toml", map[string]any{
		"layout": map[string]any{"width": int64(60), "tab_width": int64(8)},
	}))
	s.Push(New(SourceBuiltin, map[string]any{
		"layout": map[string]any{"width": int64(80), "tab_width": int64(4), "max_cached": int64(150)},
	}))
	if s.Len() != 3 {
		t.Errorf("Len() = %d, want 3", s.Len())
	}

	want := map[string]any{
		"layout": map[string]any{"width": int64(100), "tab_width": int64(8), "max_cached": int64(150)},
	}
	merged := s.Merge()
	if diff := cmp.Diff(want, merged); diff != "" {
		t.Errorf("Merge() mismatch (-want +got):\n%s", diff)
	}

	// The result is a copy.
	merged["layout"].(map[string]any)["width"] = int64(1)
	if diff := cmp.Diff(want, s.Merge()); diff != "" {
		t.Errorf("Merge() after modifying a result (-want +got):\n%s", diff)
	}

	tests := []struct {
		path string
		want string
	}{
		{"layout.width", "environment"},
		{"layout.tab_width", "user"},
		{"layout.max_cached", "defaults"},
		{"layout.missing", ""},
	}
	for _, tt := range tests {
		if got := s.Origin(tt.path); got != tt.want {
			t.Errorf("Origin(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
	if _, l, _ := s.Lookup("layout.tab_width"); l.Name() != "user (/home/u/config.toml)" {
		t.Errorf("Lookup(layout.tab_width) layer = %q", l.Name())
	}

	// A new layer invalidates the cached merge.
	s.Push(New(SourceArgs, map[string]any{"layout": map[string]any{"width": int64(40)}}))
	if v, _ := Get(s.Merge(), "layout.width"); v != int64(40) {
		t.Errorf("width after Push = %v, want 40", v)
	}
}

func TestSourceString(t *testing.T) {
	tests := []struct {
		s    Source
		want string
	}{
		{SourceBuiltin, "defaults"},
		{SourceUser, "user"},
		{SourceProject, "project"},
		{SourceEnv, "environment"},
		{SourceArgs, "arguments"},
		{Source(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("Source(%d).String() = %q, want %q", tt.s, got, tt.want)
		}
	}
}
