package loader

import (
	"strconv"
	"strings"

	"github.com/dshills/folio/internal/config/layer"
)

// DefaultEnvPrefix is the prefix of folio environment variables.
const DefaultEnvPrefix = "FOLIO_"

// Env maps environment variables to settings. A variable named in Aliases
// goes to its path; any other prefixed variable is split at its first
// underscore into section and key, so FOLIO_EDITOR_UNDO_DEPTH sets
// editor.undo_depth.
type Env struct {
	Prefix  string            // Includes the trailing underscore
	Aliases map[string]string // Variable name -> dotted path
}

// NewEnv returns an Env for prefix with the standard short names.
func NewEnv(prefix string) *Env {
	p := strings.TrimSuffix(prefix, "_") + "_"
	return &Env{
		Prefix: p,
		Aliases: map[string]string{
			p + "LOG_LEVEL":   "logging.level",
			p + "LOG_FORMAT":  "logging.format",
			p + "WIDTH":       "layout.width",
			p + "FONT_FAMILY": "theme.font_family",
			p + "FONT_SIZE":   "theme.font_size",
			p + "STYLE_STORE": "styles.user_store",
			p + "CATALOG":     "styles.catalog",
		},
	}
}

// Read converts environ, in KEY=value form as from os.Environ, into a
// settings tree. Empty values are kept as empty strings.
func (e *Env) Read(environ []string) map[string]any {
	tree := make(map[string]any)
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, e.Prefix) {
			continue
		}
		path, ok := e.Aliases[name]
		if !ok {
			section, key, found := strings.Cut(strings.TrimPrefix(name, e.Prefix), "_")
			if !found || section == "" || key == "" {
				continue
			}
			path = strings.ToLower(section) + "." + strings.ToLower(key)
		}
		layer.Set(tree, path, parseValue(value))
	}
	return tree
}

// parseValue types an environment string as a bool, integer or float
// where it looks like one.
func parseValue(s string) any {
	switch strings.ToLower(s) {
	case "true", "yes", "on":
		return true
	case "false", "no", "off":
		return false
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if strings.ContainsAny(s, ".eE") {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return s
}
