package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// runCLI runs folio with configuration isolated in a temp dir.
func runCLI(t *testing.T, dir, stdin string, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	base := []string{
		"-config", filepath.Join(dir, "config.toml"),
		"-project", filepath.Join(dir, "folio.toml"),
		"-set", "styles.user_store=" + filepath.Join(dir, "styles.json"),
	}
	var out, errOut bytes.Buffer
	code = run(append(base, args...), strings.NewReader(stdin), &out, &errOut)
	return code, out.String(), errOut.String()
}

const canonical = "<kml>\n<p><t>Hello </t><t bold=\"true\">World</t></p>\n</kml>\n"

func TestFmtStdin(t *testing.T) {
	code, out, errOut := runCLI(t, t.TempDir(), "<p>Hello <b>World</b></p>", "fmt")
	if code != 0 {
		t.Fatalf("exit code = %d, stderr:\n%s", code, errOut)
	}
	if out != canonical {
		t.Errorf("stdout = %q, want %q", out, canonical)
	}
}

func TestFmtWriteAndList(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.kml")
	if err := os.WriteFile(path, []byte("<doc><p>Hello <b>World</b></p></doc>"), 0o644); err != nil {
		t.Fatal(err)
	}

	code, out, _ := runCLI(t, dir, "", "fmt", "-l", path)
	if code != 0 || strings.TrimSpace(out) != path {
		t.Errorf("fmt -l = %d %q, want the path listed", code, out)
	}

	if code, _, errOut := runCLI(t, dir, "", "fmt", "-w", path); code != 0 {
		t.Fatalf("fmt -w exit code = %d, stderr:\n%s", code, errOut)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != canonical {
		t.Errorf("rewritten file = %q, want %q", got, canonical)
	}

	code, out, _ = runCLI(t, dir, "", "fmt", "-l", path)
	if code != 0 || out != "" {
		t.Errorf("fmt -l on canonical file = %d %q, want nothing listed", code, out)
	}
}

func TestFmtMalformed(t *testing.T) {
	code, _, errOut := runCLI(t, t.TempDir(), "<p><t>open", "fmt")
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(errOut, "Error: fmt:") {
		t.Errorf("stderr = %q, want an fmt error", errOut)
	}
}

func TestLayout(t *testing.T) {
	code, out, errOut := runCLI(t, t.TempDir(), "<p>aaaa bbbb cccc</p><p>xy</p>", "layout", "-width", "10", "-")
	if code != 0 {
		t.Fatalf("exit code = %d, stderr:\n%s", code, errOut)
	}
	for _, want := range []string{
		"paragraph 0 @0",
		`line 1 [10,14) x=0 y=1 w=4 h=1 "cccc"`,
		"paragraph 1 @15",
		"total height 3",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestLayoutJSON(t *testing.T) {
	code, out, errOut := runCLI(t, t.TempDir(), "<p>Hi</p>", "layout", "-json", "-")
	if code != 0 {
		t.Fatalf("exit code = %d, stderr:\n%s", code, errOut)
	}
	for _, want := range []string{`"paragraphs"`, `"lines"`, `"total_height": 1`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s:\n%s", want, out)
		}
	}
}

func TestStyles(t *testing.T) {
	dir := t.TempDir()
	if code, _, errOut := runCLI(t, dir, "", "styles", "save", "-bold", "-color", "#ff0000", "-name", "Alarm", "alarm"); code != 0 {
		t.Fatalf("save exit code = %d, stderr:\n%s", code, errOut)
	}
	code, out, _ := runCLI(t, dir, "", "styles", "list")
	if code != 0 || !strings.Contains(out, "alarm") || !strings.Contains(out, "Alarm") {
		t.Errorf("list = %d:\n%s", code, out)
	}
	code, out, _ = runCLI(t, dir, "", "styles", "show", "alarm")
	if code != 0 || !strings.Contains(out, `"bold": true`) {
		t.Errorf("show = %d:\n%s", code, out)
	}

	if code, _, _ := runCLI(t, dir, "", "styles", "delete", "alarm"); code != 0 {
		t.Errorf("delete exit code = %d", code)
	}
	if code, _, _ := runCLI(t, dir, "", "styles", "delete", "alarm"); code != 1 {
		t.Errorf("second delete exit code = %d, want 1", code)
	}
}

func TestStylesSaveFromDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.kml")
	if err := os.WriteFile(path, []byte(`<p><t italic="true">quiet</t> loud</p>`), 0o644); err != nil {
		t.Fatal(err)
	}
	code, out, errOut := runCLI(t, dir, "", "styles", "save", "-from", path, "-start", "0", "-end", "5", "whisper")
	if code != 0 {
		t.Fatalf("exit code = %d, stderr:\n%s", code, errOut)
	}
	if !strings.HasPrefix(out, "whisper: ") || !strings.Contains(out, "italic") {
		t.Errorf("stdout = %q", out)
	}
	if _, err := os.Stat(filepath.Join(dir, "styles.json")); err != nil {
		t.Errorf("style store not written: %v", err)
	}
}

func TestConfig(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[layout]\nwidth = 64\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	code, out, errOut := runCLI(t, dir, "", "config", "layout")
	if code != 0 {
		t.Fatalf("exit code = %d, stderr:\n%s", code, errOut)
	}
	origins := make(map[string]string)
	for _, line := range strings.Split(out, "\n") {
		if f := strings.Fields(line); len(f) == 3 {
			origins[f[0]+"="+f[1]] = f[2]
		}
	}
	if got := origins["layout.width=64"]; got != "user" {
		t.Errorf("layout.width origin = %q, want user:\n%s", got, out)
	}
	if got := origins["layout.tab_width=4"]; got != "defaults" {
		t.Errorf("layout.tab_width origin = %q, want defaults:\n%s", got, out)
	}
	if strings.Contains(out, "editor.") {
		t.Errorf("prefix filter let editor settings through:\n%s", out)
	}

	code, out, errOut = runCLI(t, dir, "", "config", "-json", "styles")
	if code != 0 {
		t.Fatalf("exit code = %d, stderr:\n%s", code, errOut)
	}
	if !strings.Contains(out, `"user_store": "`+filepath.Join(dir, "styles.json")+`"`) {
		t.Errorf("JSON output missing user_store:\n%s", out)
	}
}

func TestFind(t *testing.T) {
	const doc = "<p>Hello <b>World</b></p><p>hello again</p>"
	code, out, errOut := runCLI(t, t.TempDir(), doc, "find", "-i", "hello", "-")
	if code != 0 {
		t.Fatalf("exit code = %d, stderr:\n%s", code, errOut)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "1:1") || !strings.HasPrefix(lines[1], "2:1") {
		t.Errorf("find output = %q, want matches at 1:1 and 2:1", out)
	}

	code, out, errOut = runCLI(t, t.TempDir(), canonical, "find", "-replace", "There", "World", "-")
	if code != 0 {
		t.Fatalf("exit code = %d, stderr:\n%s", code, errOut)
	}
	want := "<kml>\n<p><t>Hello </t><t bold=\"true\">There</t></p>\n</kml>\n"
	if out != want {
		t.Errorf("stdout = %q, want %q", out, want)
	}
}

func TestFindReplaceWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.kml")
	if err := os.WriteFile(path, []byte(canonical), 0o644); err != nil {
		t.Fatal(err)
	}
	if code, _, errOut := runCLI(t, dir, "", "find", "-regex", "-replace", "$1!", "-w", "(W\\w+)", path); code != 0 {
		t.Fatalf("exit code = %d, stderr:\n%s", code, errOut)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := "<kml>\n<p><t>Hello </t><t bold=\"true\">World!</t></p>\n</kml>\n"; string(got) != want {
		t.Errorf("rewritten file = %q, want %q", got, want)
	}
}

func TestStats(t *testing.T) {
	code, out, errOut := runCLI(t, t.TempDir(), "<p>one two</p><p>three</p>", "stats", "-json", "-")
	if code != 0 {
		t.Fatalf("exit code = %d, stderr:\n%s", code, errOut)
	}
	for _, want := range []string{`"words": 3`, `"characters": 12`, `"paragraphs": 2`, `"reading_minutes": 1`} {
		if !strings.Contains(out, want) {
			t.Errorf("stats output missing %s:\n%s", want, out)
		}
	}
}

func TestUsage(t *testing.T) {
	tests := []struct {
		args []string
		code int
	}{
		{nil, 2},
		{[]string{"bogus"}, 2},
		{[]string{"styles"}, 2},
		{[]string{"layout"}, 2},
		{[]string{"find", "x"}, 2},
		{[]string{"find", "-w", "x", "doc.kml"}, 2},
		{[]string{"stats"}, 2},
		{[]string{"-set", "editor.undo_depth=-1", "fmt"}, 1},
	}
	for _, tt := range tests {
		code, _, _ := runCLI(t, t.TempDir(), "", tt.args...)
		if code != tt.code {
			t.Errorf("folio %v exit code = %d, want %d", tt.args, code, tt.code)
		}
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"true", true},
		{"42", int64(42)},
		{"1.5", 1.5},
		{"2s", "2s"},
	}
	for _, tt := range tests {
		if got := parseValue(tt.in); got != tt.want {
			t.Errorf("parseValue(%q) = %#v, want %#v", tt.in, got, tt.want)
		}
	}
}
