package loader

import (
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// memFS is an in-memory FileSystem.
type memFS map[string]string

func (m memFS) ReadFile(path string) ([]byte, error) {
	data, ok := m[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return []byte(data), nil
}

func TestReadTOML(t *testing.T) {
	fsys := memFS{"/config.toml": `
[editor]
undo_depth = 50
strict_ranges = true

[theme]
font_size = 13.5
foreground = "#112233"
`}
	tree, err := ReadTOML(fsys, "/config.toml")
	if err != nil {
		t.Fatalf("ReadTOML() error = %v", err)
	}
	want := map[string]any{
		"editor": map[string]any{"undo_depth": int64(50), "strict_ranges": true},
		"theme":  map[string]any{"font_size": 13.5, "foreground": "#112233"},
	}
	if diff := cmp.Diff(want, tree); diff != "" {
		t.Errorf("ReadTOML() mismatch (-want +got):\n%s", diff)
	}
}

func TestReadTOMLMissing(t *testing.T) {
	tree, err := ReadTOML(memFS{}, "/missing.toml")
	if err != nil || tree != nil {
		t.Errorf("ReadTOML() = %v, %v, want nil, nil", tree, err)
	}
}

func TestReadTOMLInvalid(t *testing.T) {
	fsys := memFS{"/bad.toml": "[editor]\nundo_depth = \n"}
	_, err := ReadTOML(fsys, "/bad.toml")
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("ReadTOML() error = %v, want *ParseError", err)
	}
	if perr.Path != "/bad.toml" || perr.Line != 2 {
		t.Errorf("ParseError = %s:%d, want /bad.toml:2", perr.Path, perr.Line)
	}
	if !strings.HasPrefix(perr.Error(), "/bad.toml:2:") {
		t.Errorf("Error() = %q, want a file:line prefix", perr.Error())
	}
}

func TestReadTOMLIncludes(t *testing.T) {
	fsys := memFS{
		"/cfg/base.toml": `
[layout]
width = 60
tab_width = 8
`,
		"/shared/theme.toml": `
[theme]
name = "sepia"
[layout]
tab_width = 2
`,
		"/cfg/main.toml": `
"@include" = ["base.toml", "/shared/theme.toml"]

[layout]
width = 100
`,
	}
	tree, err := ReadTOML(fsys, "/cfg/main.toml")
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]any{
		"layout": map[string]any{"width": int64(100), "tab_width": int64(2)},
		"theme":  map[string]any{"name": "sepia"},
	}
	if diff := cmp.Diff(want, tree); diff != "" {
		t.Errorf("ReadTOML() mismatch (-want +got):\n%s", diff)
	}
}

func TestReadTOMLIncludeErrors(t *testing.T) {
	deep := memFS{}
	for i := range MaxIncludeDepth + 2 {
		deep[name(i)] = `"@include" = "` + name(i+1) + `"`
	}

	tests := []struct {
		name string
		fsys memFS
		want error
	}{
		{"cycle", memFS{
			"/a.toml": `"@include" = "b.toml"`,
			"/b.toml": `"@include" = "a.toml"`,
		}, ErrIncludeCycle},
		{"self", memFS{"/a.toml": `"@include" = "/a.toml"`}, ErrIncludeCycle},
		{"missing include", memFS{"/a.toml": `"@include" = "gone.toml"`}, fs.ErrNotExist},
		{"too deep", deep, ErrIncludeDepth},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadTOML(tt.fsys, "/a.toml"); !errors.Is(err, tt.want) {
				t.Errorf("ReadTOML() error = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := ReadTOML(memFS{"/a.toml": `"@include" = 3`}, "/a.toml"); err == nil {
		t.Error("ReadTOML() with a numeric @include succeeded")
	}
}

// name returns /a.toml for 0 and a distinct file for every other i.
func name(i int) string {
	if i == 0 {
		return "/a.toml"
	}
	return "/f" + strings.Repeat("x", i) + ".toml"
}

func TestEnvRead(t *testing.T) {
	env := []string{
		"FOLIO_EDITOR_UNDO_DEPTH=20",
		"FOLIO_EDITOR_STRICT_RANGES=yes",
		"FOLIO_LOG_LEVEL=debug",
		"FOLIO_WIDTH=72",
		"FOLIO_THEME_FONT_SIZE=14.5",
		"FOLIO_THEME_NAME=",
		"FOLIO_NOSECTION=1",
		"HOME=/home/x",
	}
	want := map[string]any{
		"editor":  map[string]any{"undo_depth": int64(20), "strict_ranges": true},
		"logging": map[string]any{"level": "debug"},
		"layout":  map[string]any{"width": int64(72)},
		"theme":   map[string]any{"font_size": 14.5, "name": ""},
	}
	if diff := cmp.Diff(want, NewEnv(DefaultEnvPrefix).Read(env)); diff != "" {
		t.Errorf("Read() mismatch (-want +got):\n%s", diff)
	}
}

func TestEnvAliases(t *testing.T) {
	e := NewEnv("APP")
	if e.Prefix != "APP_" {
		t.Errorf("Prefix = %q, want APP_", e.Prefix)
	}
	e.Aliases["APP_W"] = "layout.width"
	got := e.Read([]string{"APP_W=40", "APP_WIDTH=50"})
	// Both name layout.width; the later variable wins.
	if diff := cmp.Diff(map[string]any{"layout": map[string]any{"width": int64(50)}}, got); diff != "" {
		t.Errorf("Read() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"true", true},
		{"Off", false},
		{"1", int64(1)},
		{"-3", int64(-3)},
		{"2.5", 2.5},
		{"1s", "1s"},
		{"Serif", "Serif"},
		{"#ff0000", "#ff0000"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := parseValue(tt.in); got != tt.want {
			t.Errorf("parseValue(%q) = %v (%T), want %v (%T)", tt.in, got, got, tt.want, tt.want)
		}
	}
}
