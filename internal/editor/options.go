package editor

import (
	"log/slog"
	"time"

	"github.com/dshills/folio/internal/engine/history"
	"github.com/dshills/folio/internal/renderer/layout"
	"github.com/dshills/folio/internal/renderer/style"
	"github.com/dshills/folio/internal/renderer/viewport"
)

// StyleSaver persists named character styles. *stylestore.Store
// implements it.
type StyleSaver interface {
	SaveCharacter(cs style.CharacterStyle) error
}

type settings struct {
	catalog  style.Catalog
	theme    style.Theme
	metrics  layout.Metrics
	layout   layout.Options
	viewport viewport.Options
	history  history.Options
	strict   bool
	logger   *slog.Logger
	styles   StyleSaver
}

// Option configures an Editor during creation.
type Option func(*settings)

// WithCatalog sets the style catalog used for named styles.
func WithCatalog(c style.Catalog) Option {
	return func(s *settings) {
		if c != nil {
			s.catalog = c
		}
	}
}

// WithTheme sets the theme supplying default attribute values.
func WithTheme(t style.Theme) Option {
	return func(s *settings) {
		s.theme = t
	}
}

// WithMetrics sets the glyph metrics provider.
func WithMetrics(m layout.Metrics) Option {
	return func(s *settings) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithLayoutOptions sets the layout manager options.
func WithLayoutOptions(o layout.Options) Option {
	return func(s *settings) {
		s.layout = o
	}
}

// WithViewportOptions sets the viewport options.
func WithViewportOptions(o viewport.Options) Option {
	return func(s *settings) {
		s.viewport = o
	}
}

// WithUndoDepth sets the maximum number of undo entries.
func WithUndoDepth(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.history.MaxDepth = n
		}
	}
}

// WithMergeWindow sets how long consecutive keystrokes keep merging into
// one undo entry.
func WithMergeWindow(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.history.MergeWindow = d
		}
	}
}

// WithClock replaces the clock used for undo merging.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		s.history.Now = now
	}
}

// WithStrictRanges makes out-of-range offsets fail instead of being
// clamped.
func WithStrictRanges(strict bool) Option {
	return func(s *settings) {
		s.strict = strict
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStyleStore sets where SaveStyleFromSelection stores styles.
func WithStyleStore(st StyleSaver) Option {
	return func(s *settings) {
		s.styles = st
	}
}
