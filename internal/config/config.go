package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/folio/internal/config/layer"
	"github.com/dshills/folio/internal/config/loader"
	"github.com/dshills/folio/internal/engine/format"
	"github.com/dshills/folio/internal/renderer/layout"
	"github.com/dshills/folio/internal/renderer/style"
	"github.com/dshills/folio/internal/renderer/viewport"
)

// Config is the merged, typed configuration.
type Config struct {
	Editor   EditorConfig   `toml:"editor"`
	Layout   LayoutConfig   `toml:"layout"`
	Viewport ViewportConfig `toml:"viewport"`
	Theme    ThemeConfig    `toml:"theme"`
	Logging  LoggingConfig  `toml:"logging"`
	Styles   StylesConfig   `toml:"styles"`

	layers  *layer.Stack
	// Keys set by some source that no setting uses
	unknown []string
}

// EditorConfig configures the editing session.
type EditorConfig struct {
	UndoDepth    int    `toml:"undo_depth"`
	MergeWindow  string `toml:"merge_window"`
	StrictRanges bool   `toml:"strict_ranges"`
}

// LayoutConfig configures line breaking and the layout cache.
type LayoutConfig struct {
	Width               int     `toml:"width"`
	EvictMargin         int     `toml:"evict_margin"`
	MaxCached           int     `toml:"max_cached"`
	EstimatedLineHeight float64 `toml:"estimated_line_height"`
	TabWidth            int     `toml:"tab_width"`
	Metrics             string  `toml:"metrics"` // "monospace" or "face"
	EastAsian           bool    `toml:"east_asian"`
}

// ViewportConfig configures scrolling.
type ViewportConfig struct {
	BufferSize   int     `toml:"buffer_size"`
	MarginTop    float64 `toml:"margin_top"`
	MarginBottom float64 `toml:"margin_bottom"`
	SmoothScroll bool    `toml:"smooth_scroll"`
}

// ThemeConfig holds the theme layer of style resolution.
type ThemeConfig struct {
	Name       string            `toml:"name"`
	FontFamily string            `toml:"font_family"`
	FontSize   float64           `toml:"font_size"`
	Foreground string            `toml:"foreground"`
	Background string            `toml:"background"`
	Selection  string            `toml:"selection"`
	Highlights map[string]string `toml:"highlights"`
}

// LoggingConfig configures the slog handler.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "text" or "json"
}

// StylesConfig locates named styles.
type StylesConfig struct {
	// Catalog is a TOML catalog of built-in styles; empty uses the bundled one.
	Catalog string `toml:"catalog"`
	// UserStore is the JSON store of user-defined styles; empty uses
	// DefaultUserStorePath.
	UserStore string `toml:"user_store"`
}

// Default returns the built-in configuration.
func Default() *Config {
	th := style.DefaultTheme()
	highlights := make(map[string]string, len(th.Highlights))
	for kind, c := range th.Highlights {
		highlights[kind] = c.Hex()
	}
	return &Config{
		Editor: EditorConfig{
			UndoDepth:   100,
			MergeWindow: "1s",
		},
		Layout: LayoutConfig{
			Width:               80,
			EvictMargin:         50,
			MaxCached:           150,
			EstimatedLineHeight: 1,
			TabWidth:            4,
			Metrics:             "monospace",
		},
		Viewport: ViewportConfig{
			BufferSize:   viewport.DefaultBufferSize,
			MarginTop:    2,
			MarginBottom: 2,
		},
		Theme: ThemeConfig{
			Name:       th.Name,
			FontFamily: th.FontFamily,
			FontSize:   th.FontSize,
			Foreground: th.Foreground.Hex(),
			Background: th.Background.Hex(),
			Selection:  th.Selection.Hex(),
			Highlights: highlights,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Options selects the sources Load reads.
type Options struct {
	// UserPath and ProjectPath name TOML files; empty skips the layer and
	// a missing file is not an error.
	UserPath    string
	ProjectPath string

	// Environ replaces the process environment when non-nil.
	Environ   []string
	EnvPrefix string

	// Overrides holds dotted paths set on the command line.
	Overrides map[string]any

	FS     loader.FileSystem
	Logger *slog.Logger
}

// DefaultUserPath returns ~/.config/folio/config.toml or the platform
// equivalent.
func DefaultUserPath() string {
	return userFile("config.toml")
}

// DefaultUserStorePath returns the default location of the user style store.
func DefaultUserStorePath() string {
	return userFile("styles.json")
}

func userFile(name string) string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "folio", name)
}

// Load merges the configured sources over the defaults and validates the
// result.
func Load(opts Options) (*Config, error) {
	if opts.FS == nil {
		opts.FS = loader.DefaultFS()
	}
	if opts.EnvPrefix == "" {
		opts.EnvPrefix = loader.DefaultEnvPrefix
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	defaults, err := defaultMap()
	if err != nil {
		return nil, err
	}
	stack := layer.NewStack()
	stack.Push(layer.New(layer.SourceBuiltin, defaults))

	for _, f := range []struct {
		source layer.Source
		path   string
	}{
		{layer.SourceUser, opts.UserPath},
		{layer.SourceProject, opts.ProjectPath},
	} {
		if f.path == "" {
			continue
		}
		data, err := loader.ReadTOML(opts.FS, f.path)
		if err != nil {
			return nil, err
		}
		if data == nil {
			continue
		}
		l := layer.FromFile(f.source, f.path, data)
		stack.Push(l)
		opts.Logger.Debug("loaded config file", "layer", l.Name())
	}

	environ := opts.Environ
	if environ == nil {
		environ = os.Environ()
	}
	stack.Push(layer.New(layer.SourceEnv, loader.NewEnv(opts.EnvPrefix).Read(environ)))

	if len(opts.Overrides) > 0 {
		args := make(map[string]any)
		for path, v := range opts.Overrides {
			layer.Set(args, path, v)
		}
		stack.Push(layer.New(layer.SourceArgs, args))
	}

	cfg, err := decode(stack, defaults)
	if err != nil {
		return nil, err
	}
	for _, key := range cfg.unknown {
		opts.Logger.Warn("unknown config key", "key", key, "layer", stack.Origin(key))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// defaultMap renders the defaults in the same shape the TOML loader
// produces, so they merge and type-check like any other layer.
func defaultMap() (map[string]any, error) {
	data, err := toml.Marshal(Default())
	if err != nil {
		return nil, fmt.Errorf("encoding defaults: %w", err)
	}
	return loader.Parse("<defaults>", data)
}

// freeform lists tables whose keys are not fixed by the defaults.
var freeform = map[string]bool{
	"theme.highlights": true,
}

func decode(m *layer.Stack, defaults map[string]any) (*Config, error) {
	merged := m.Merge()
	var unknown []string
	if err := conform("", merged, defaults, &unknown); err != nil {
		return nil, err
	}
	data, err := toml.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("encoding merged config: %w", err)
	}
	cfg := &Config{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("decoding merged config: %w", err)
	}
	sort.Strings(unknown)
	cfg.layers = m
	cfg.unknown = unknown
	return cfg, nil
}

// conform checks every value in val against the type of the matching
// default, converting integers to floats where a float is expected, and
// removes keys that have no default.
func conform(prefix string, val, def map[string]any, unknown *[]string) error {
	var errs []error
	for key, v := range val {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		d, ok := def[key]
		if !ok {
			*unknown = append(*unknown, path)
			delete(val, key)
			continue
		}
		switch d := d.(type) {
		case map[string]any:
			sub, ok := v.(map[string]any)
			if !ok {
				errs = append(errs, &TypeError{Path: path, Want: "table", Got: typeName(v)})
				continue
			}
			if freeform[path] {
				for k, hv := range sub {
					if _, ok := hv.(string); !ok {
						errs = append(errs, &TypeError{Path: path + "." + k, Want: "string", Got: typeName(hv)})
					}
				}
				continue
			}
			if err := conform(path, sub, d, unknown); err != nil {
				errs = append(errs, err)
			}
		case float64:
			switch n := v.(type) {
			case float64:
			case int64:
				val[key] = float64(n)
			default:
				errs = append(errs, &TypeError{Path: path, Want: "float", Got: typeName(v)})
			}
		case int64:
			switch n := v.(type) {
			case int64:
			case float64:
				if n != float64(int64(n)) {
					errs = append(errs, &TypeError{Path: path, Want: "integer", Got: "float"})
					continue
				}
				val[key] = int64(n)
			default:
				errs = append(errs, &TypeError{Path: path, Want: "integer", Got: typeName(v)})
			}
		case bool:
			if _, ok := v.(bool); !ok {
				errs = append(errs, &TypeError{Path: path, Want: "boolean", Got: typeName(v)})
			}
		case string:
			if _, ok := v.(string); !ok {
				errs = append(errs, &TypeError{Path: path, Want: "string", Got: typeName(v)})
			}
		}
	}
	return errors.Join(errs...)
}

func typeName(v any) string {
	switch v.(type) {
	case map[string]any:
		return "table"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case int64:
		return "integer"
	case float64:
		return "float"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// Origin returns the name of the layer that supplied the setting at path,
// e.g. "user" or "environment", or "" if no layer sets it.
func (c *Config) Origin(path string) string {
	if c.layers == nil {
		return ""
	}
	return c.layers.Origin(path)
}

// Setting is one effective value and the layer it came from.
type Setting struct {
	Path   string
	Value  any
	Origin string
}

// Settings lists every effective value in path order. Unknown keys are
// left out.
func (c *Config) Settings() []Setting {
	if c.layers == nil {
		return nil
	}
	skip := make(map[string]bool, len(c.unknown))
	for _, k := range c.unknown {
		skip[k] = true
	}
	merged := c.layers.Merge()
	paths := layer.Paths(merged)
	sort.Strings(paths)
	out := make([]Setting, 0, len(paths))
	for _, p := range paths {
		if skip[p] || skipped(p, skip) {
			continue
		}
		v, _ := layer.Get(merged, p)
		out = append(out, Setting{Path: p, Value: v, Origin: c.layers.Origin(p)})
	}
	return out
}

// skipped reports whether an ancestor table of path is an unknown key.
func skipped(path string, unknown map[string]bool) bool {
	for i := len(path) - 1; i > 0; i-- {
		if path[i] == '.' && unknown[path[:i]] {
			return true
		}
	}
	return false
}

// Unknown returns the keys set by some source that no setting uses.
func (c *Config) Unknown() []string {
	return c.unknown
}

var (
	logLevels = map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	metricsKinds = []string{"monospace", "face"}
	logFormats   = []string{"text", "json"}
)

// Validate checks every setting and returns all problems joined.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, path, msg string, v any) {
		if !ok {
			errs = append(errs, &ValidationError{Path: path, Message: msg, Value: v})
		}
	}

	check(c.Editor.UndoDepth >= 1, "editor.undo_depth", "must be at least 1", c.Editor.UndoDepth)
	if d, err := time.ParseDuration(c.Editor.MergeWindow); err != nil || d < 0 {
		check(false, "editor.merge_window", "must be a non-negative duration", c.Editor.MergeWindow)
	}

	check(c.Layout.Width >= 0, "layout.width", "must not be negative", c.Layout.Width)
	check(c.Layout.EvictMargin >= 0, "layout.evict_margin", "must not be negative", c.Layout.EvictMargin)
	check(c.Layout.MaxCached >= 1, "layout.max_cached", "must be at least 1", c.Layout.MaxCached)
	check(c.Layout.EstimatedLineHeight >= 0, "layout.estimated_line_height", "must not be negative", c.Layout.EstimatedLineHeight)
	check(c.Layout.TabWidth >= 1, "layout.tab_width", "must be at least 1", c.Layout.TabWidth)
	check(oneOf(c.Layout.Metrics, metricsKinds), "layout.metrics", "must be one of "+strings.Join(metricsKinds, ", "), c.Layout.Metrics)

	check(c.Viewport.BufferSize >= 0, "viewport.buffer_size", "must not be negative", c.Viewport.BufferSize)
	check(c.Viewport.MarginTop >= 0, "viewport.margin_top", "must not be negative", c.Viewport.MarginTop)
	check(c.Viewport.MarginBottom >= 0, "viewport.margin_bottom", "must not be negative", c.Viewport.MarginBottom)

	check(c.Theme.FontSize > 0, "theme.font_size", "must be positive", c.Theme.FontSize)
	for _, col := range []struct{ path, value string }{
		{"theme.foreground", c.Theme.Foreground},
		{"theme.background", c.Theme.Background},
		{"theme.selection", c.Theme.Selection},
	} {
		_, err := format.ParseColor(col.value)
		check(err == nil, col.path, "must be a hex color", col.value)
	}
	for kind, v := range c.Theme.Highlights {
		_, err := format.ParseColor(v)
		check(err == nil, "theme.highlights."+kind, "must be a hex color", v)
	}

	_, ok := logLevels[strings.ToLower(c.Logging.Level)]
	check(ok, "logging.level", "must be one of debug, info, warn, error", c.Logging.Level)
	check(oneOf(strings.ToLower(c.Logging.Format), logFormats), "logging.format", "must be text or json", c.Logging.Format)

	return errors.Join(errs...)
}

func oneOf(s string, set []string) bool {
	for _, v := range set {
		if s == v {
			return true
		}
	}
	return false
}

// MergeWindow returns the undo merge window.
func (c *Config) MergeWindow() time.Duration {
	d, err := time.ParseDuration(c.Editor.MergeWindow)
	if err != nil {
		return time.Second
	}
	return d
}

// ThemeValue converts the theme section into a style.Theme.
func (c *Config) ThemeValue() (style.Theme, error) {
	th := style.Theme{
		Name:       c.Theme.Name,
		FontFamily: c.Theme.FontFamily,
		FontSize:   c.Theme.FontSize,
		Highlights: make(map[string]format.Color, len(c.Theme.Highlights)),
	}
	var err error
	if th.Foreground, err = format.ParseColor(c.Theme.Foreground); err != nil {
		return th, fmt.Errorf("theme.foreground: %w", err)
	}
	if th.Background, err = format.ParseColor(c.Theme.Background); err != nil {
		return th, fmt.Errorf("theme.background: %w", err)
	}
	if th.Selection, err = format.ParseColor(c.Theme.Selection); err != nil {
		return th, fmt.Errorf("theme.selection: %w", err)
	}
	for kind, v := range c.Theme.Highlights {
		col, err := format.ParseColor(v)
		if err != nil {
			return th, fmt.Errorf("theme.highlights.%s: %w", kind, err)
		}
		th.Highlights[kind] = col
	}
	return th, nil
}

// Metrics returns the text measurement provider the layout section names.
func (c *Config) Metrics() layout.Metrics {
	if c.Layout.Metrics == "face" {
		return layout.NewBasicFaceMetrics()
	}
	return layout.NewMonospaceMetrics(c.Layout.EastAsian)
}

// LayoutOptions returns layout manager options.
func (c *Config) LayoutOptions(logger *slog.Logger) layout.Options {
	return layout.Options{
		Width:               float64(c.Layout.Width),
		MaxCached:           c.Layout.MaxCached,
		TabWidth:            c.Layout.TabWidth,
		EstimatedLineHeight: c.Layout.EstimatedLineHeight,
		Logger:              logger,
	}
}

// ViewportOptions returns viewport options for a window height tall.
func (c *Config) ViewportOptions(height float64, logger *slog.Logger) viewport.Options {
	return viewport.Options{
		Height:     height,
		BufferSize: c.Viewport.BufferSize,
		Margins: viewport.MarginConfig{
			Top:    c.Viewport.MarginTop,
			Bottom: c.Viewport.MarginBottom,
		},
		SmoothScroll: c.Viewport.SmoothScroll,
		Logger:       logger,
	}
}

// UserStorePath returns the configured user style store or the default.
func (c *Config) UserStorePath() string {
	if c.Styles.UserStore != "" {
		return c.Styles.UserStore
	}
	return DefaultUserStorePath()
}

// NewLogger builds a logger writing to w as the logging section says.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, ok := logLevels[strings.ToLower(c.Logging.Level)]
	if !ok {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Logging.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
