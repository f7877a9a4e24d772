package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/folio/internal/config/layer"
)

// MaxIncludeDepth bounds nested @include directives.
const MaxIncludeDepth = 8

var (
	// ErrIncludeCycle is returned when a file includes itself, directly or
	// through other files.
	ErrIncludeCycle = errors.New("include cycle")

	// ErrIncludeDepth is returned when includes nest deeper than
	// MaxIncludeDepth.
	ErrIncludeDepth = errors.New("include depth exceeded")
)

// includeKey names the files a TOML file pulls in, a string or an array
// of strings. Relative names are resolved against the including file.
const includeKey = "@include"

// ReadTOML reads the TOML file at path and the files it includes. A
// missing top-level file yields nil, nil; a missing include is an error.
// Included files rank below the file that includes them, and later
// includes above earlier ones.
func ReadTOML(fsys FileSystem, path string) (map[string]any, error) {
	r := &includeReader{fs: fsys, open: make(map[string]bool)}
	return r.read(path, 0, true)
}

type includeReader struct {
	fs   FileSystem
	open map[string]bool // Files being read, for cycle detection
}

func (r *includeReader) read(path string, depth int, optional bool) (map[string]any, error) {
	if depth > MaxIncludeDepth {
		return nil, fmt.Errorf("%s: %w", path, ErrIncludeDepth)
	}
	key := filepath.Clean(path)
	if r.open[key] {
		return nil, fmt.Errorf("%s: %w", path, ErrIncludeCycle)
	}

	data, err := r.fs.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	tree, err := Parse(path, data)
	if err != nil {
		return nil, err
	}
	names, err := includes(path, tree)
	if err != nil || len(names) == 0 {
		return tree, err
	}

	r.open[key] = true
	defer delete(r.open, key)
	out := make(map[string]any)
	for _, name := range names {
		if !filepath.IsAbs(name) {
			name = filepath.Join(filepath.Dir(path), name)
		}
		sub, err := r.read(name, depth+1, false)
		if err != nil {
			return nil, fmt.Errorf("%s: include: %w", path, err)
		}
		layer.Overlay(out, sub)
	}
	layer.Overlay(out, tree)
	return out, nil
}

// includes removes the include directive from tree and returns its file
// names.
func includes(path string, tree map[string]any) ([]string, error) {
	v, ok := tree[includeKey]
	if !ok {
		return nil, nil
	}
	delete(tree, includeKey)
	switch v := v.(type) {
	case string:
		return []string{v}, nil
	case []any:
		names := make([]string, 0, len(v))
		for _, e := range v {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("%s: %s entries must be strings, got %T", path, includeKey, e)
			}
			names = append(names, s)
		}
		return names, nil
	}
	return nil, fmt.Errorf("%s: %s must be a string or an array of strings, got %T", path, includeKey, v)
}

// Parse decodes TOML data into a map. source names the data in errors.
func Parse(source string, data []byte) (map[string]any, error) {
	var tree map[string]any
	if err := toml.Unmarshal(data, &tree); err != nil {
		perr := &ParseError{Path: source, Message: err.Error(), Err: err}
		var de *toml.DecodeError
		if errors.As(err, &de) {
			perr.Line, perr.Column = de.Position()
		}
		return nil, perr
	}
	if tree == nil {
		tree = make(map[string]any)
	}
	return tree, nil
}

// ParseError is a syntax or type error in a TOML source.
type ParseError struct {
	Path    string
	Line    int
	Column  int
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s", e.Path, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
