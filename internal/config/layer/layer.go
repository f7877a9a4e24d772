// Package layer stacks configuration sources. Each source is a nested map
// as decoded from TOML; a source of higher rank overrides lower ones key
// by key.
package layer

// Source is where a layer came from. Sources are ranked in declaration
// order: a later source overrides an earlier one.
type Source uint8

const (
	SourceBuiltin Source = iota // Compiled-in defaults
	SourceUser                  // ~/.config/folio/config.toml
	SourceProject               // folio.toml next to the documents
	SourceEnv                   // FOLIO_ environment variables
	SourceArgs                  // Command-line -set flags
)

var sourceNames = [...]string{"defaults", "user", "project", "environment", "arguments"}

func (s Source) String() string {
	if int(s) < len(sourceNames) {
		return sourceNames[s]
	}
	return "unknown"
}

// Layer is the settings one source supplies.
type Layer struct {
	Source Source
	// Path is the file the layer was read from, if any.
	Path string
	Data map[string]any
}

// New returns a layer for source. A nil data map is replaced by an empty
// one.
func New(source Source, data map[string]any) *Layer {
	if data == nil {
		data = make(map[string]any)
	}
	return &Layer{Source: source, Data: data}
}

// FromFile is New for a layer read from path.
func FromFile(source Source, path string, data map[string]any) *Layer {
	l := New(source, data)
	l.Path = path
	return l
}

// Name describes the layer in diagnostics, e.g. "user" or
// "project (folio.toml)".
func (l *Layer) Name() string {
	if l.Path == "" {
		return l.Source.String()
	}
	return l.Source.String() + " (" + l.Path + ")"
}
