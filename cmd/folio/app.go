package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"

	"github.com/dshills/folio/internal/config"
	"github.com/dshills/folio/internal/editor"
	"github.com/dshills/folio/internal/engine/document"
	"github.com/dshills/folio/internal/renderer/style"
	"github.com/dshills/folio/internal/stylestore"
)

// app carries the loaded configuration and output streams to commands.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	stdin          io.Reader
	stdout, stderr io.Writer
}

func newApp(g globals, stdin io.Reader, stdout, stderr io.Writer) (*app, error) {
	overrides := map[string]any(g.overrides)
	if g.logLevel != "" || g.logFormat != "" {
		overrides = make(map[string]any, len(g.overrides)+2)
		for k, v := range g.overrides {
			overrides[k] = v
		}
		if g.logLevel != "" {
			overrides["logging.level"] = g.logLevel
		}
		if g.logFormat != "" {
			overrides["logging.format"] = g.logFormat
		}
	}

	userPath := g.configPath
	if userPath == "" {
		userPath = config.DefaultUserPath()
	}
	// Warnings raised while loading go to a provisional logger; the final
	// one depends on the loaded logging section.
	boot := config.Default().NewLogger(stderr)
	cfg, err := config.Load(config.Options{
		UserPath:    userPath,
		ProjectPath: g.projectPath,
		Overrides:   overrides,
		Logger:      boot,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return &app{
		cfg:    cfg,
		logger: cfg.NewLogger(stderr),
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
	}, nil
}

// styles opens the user store and chains it in front of the configured
// catalog, so user styles shadow built-in ones.
func (a *app) styles() (*stylestore.Store, style.Catalog, error) {
	base, err := config.LoadCatalog(nil, a.cfg.Styles.Catalog)
	if err != nil {
		return nil, nil, err
	}
	store, err := stylestore.Open(a.cfg.UserStorePath(), a.logger)
	if err != nil {
		return nil, nil, err
	}
	return store, style.ChainCatalog{store, base}, nil
}

// newEditor builds an empty editor configured from the loaded settings,
// with a viewport height rows tall.
func (a *app) newEditor(height float64) (*editor.Editor, error) {
	th, err := a.cfg.ThemeValue()
	if err != nil {
		return nil, err
	}
	store, cat, err := a.styles()
	if err != nil {
		return nil, err
	}
	return editor.New(document.New(),
		editor.WithCatalog(cat),
		editor.WithTheme(th),
		editor.WithMetrics(a.cfg.Metrics()),
		editor.WithLayoutOptions(a.cfg.LayoutOptions(a.logger)),
		editor.WithViewportOptions(a.cfg.ViewportOptions(height, a.logger)),
		editor.WithUndoDepth(a.cfg.Editor.UndoDepth),
		editor.WithMergeWindow(a.cfg.MergeWindow()),
		editor.WithStrictRanges(a.cfg.Editor.StrictRanges),
		editor.WithLogger(a.logger),
		editor.WithStyleStore(store),
	), nil
}

// openDocument loads path into a new editor; "-" reads standard input.
func (a *app) openDocument(path string, height float64) (*editor.Editor, error) {
	ed, err := a.newEditor(height)
	if err != nil {
		return nil, err
	}
	if path == "-" {
		return ed, ed.Load(a.stdin)
	}
	if err := ed.LoadFile(path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		a.logger.Info("starting new document", "path", path)
	}
	return ed, nil
}
