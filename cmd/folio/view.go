package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/dshills/folio/internal/editor"
	"github.com/dshills/folio/internal/renderer/layout"
	"github.com/dshills/folio/internal/renderer/terminal"
)

// frameInterval paces smooth-scroll animation.
const frameInterval = 16 * time.Millisecond

var errQuit = errors.New("quit")

// runView opens a document in the terminal viewer.
func runView(a *app, args []string) error {
	fs := flag.NewFlagSet("view", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	readOnly := fs.Bool("R", false, "Open read-only")
	fs.Usage = func() {
		fmt.Fprintf(a.stderr, "Usage: folio view [-R] <file>\n\n")
		fmt.Fprintf(a.stderr, "Keys: arrows move (shift extends, ctrl by word), ctrl-b bold, ctrl-u underline,\n")
		fmt.Fprintf(a.stderr, "ctrl-z undo, ctrl-y redo, ctrl-a select all, ctrl-s save, ctrl-q quit.\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil || fs.NArg() != 1 {
		if err == nil {
			fs.Usage()
		}
		return errUsage
	}
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("view needs a terminal; use folio layout for plain output")
	}

	backend, err := terminal.NewTcellBackend()
	if err != nil {
		return fmt.Errorf("failed to create terminal: %w", err)
	}
	if err := backend.Init(); err != nil {
		return fmt.Errorf("failed to initialize terminal: %w", err)
	}
	defer backend.Shutdown()

	width, height := backend.Size()
	ed, err := a.openDocument(fs.Arg(0), float64(height))
	if err != nil {
		return err
	}
	v := &viewer{
		app:      a,
		ed:       ed,
		backend:  backend,
		painter:  terminal.NewPainter(backend, ed.Resolver().Theme()),
		path:     fs.Arg(0),
		readOnly: *readOnly,
	}
	if err := v.resize(width, height); err != nil {
		return err
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)
	go func() {
		if _, ok := <-signals; ok {
			backend.PostEvent(terminal.Event{Type: terminal.EventKey, Key: terminal.KeyCtrlQ})
		}
	}()

	return v.loop()
}

// viewer routes terminal events to the editor and repaints.
type viewer struct {
	app      *app
	ed       *editor.Editor
	backend  terminal.Backend
	painter  *terminal.Painter
	path     string
	readOnly bool
}

func (v *viewer) loop() error {
	for {
		if err := v.paint(); err != nil {
			return err
		}
		ev := v.backend.PollEvent()
		err := v.handle(ev)
		if errors.Is(err, errQuit) {
			if v.ed.Modified() {
				v.app.logger.Warn("discarding unsaved changes", "path", v.path)
			}
			return nil
		}
		if err != nil {
			v.app.logger.Debug("command failed", "error", err)
		}
		if err := v.animate(); err != nil {
			return err
		}
		v.ed.Viewport().EvictFarParagraphs(v.app.cfg.Layout.EvictMargin)
	}
}

func (v *viewer) paint() error {
	sel := v.ed.Selection()
	return v.painter.Paint(v.ed.Viewport(), terminal.Frame{
		SelStart:   sel.Start(),
		SelEnd:     sel.End(),
		Highlights: v.ed.VisibleHighlights(),
		Caret:      sel.Head,
	})
}

// animate runs a smooth scroll to completion.
func (v *viewer) animate() error {
	vp := v.ed.Viewport()
	for vp.IsAnimating() {
		if _, err := vp.Update(frameInterval.Seconds()); err != nil {
			return err
		}
		if err := v.paint(); err != nil {
			return err
		}
		time.Sleep(frameInterval)
	}
	return nil
}

func (v *viewer) resize(width, height int) error {
	v.ed.Layout().SetWidth(float64(width))
	return v.ed.Viewport().Resize(float64(width), float64(height))
}

func (v *viewer) handle(ev terminal.Event) error {
	switch ev.Type {
	case terminal.EventResize:
		return v.resize(ev.Width, ev.Height)
	case terminal.EventMouse:
		return v.mouse(ev)
	case terminal.EventKey:
		return v.key(ev)
	}
	return nil
}

func (v *viewer) mouse(ev terminal.Event) error {
	vp := v.ed.Viewport()
	switch ev.MouseButton {
	case terminal.MouseLeft:
		pt := layout.Point{X: float64(ev.MouseX), Y: float64(ev.MouseY)}
		return v.ed.ClickAt(pt, ev.Mod.Has(terminal.ModShift))
	case terminal.MouseWheelUp:
		return vp.ScrollBy(-3)
	case terminal.MouseWheelDown:
		return vp.ScrollBy(3)
	}
	return nil
}

func (v *viewer) key(ev terminal.Event) error {
	ed := v.ed
	extend := ev.Mod.Has(terminal.ModShift)
	ctrl := ev.Mod.Has(terminal.ModCtrl)

	switch ev.Key {
	case terminal.KeyCtrlQ, terminal.KeyEscape:
		return errQuit
	case terminal.KeyLeft:
		if ctrl {
			ed.MoveWordLeft(extend)
		} else {
			ed.MoveLeft(extend)
		}
	case terminal.KeyRight:
		if ctrl {
			ed.MoveWordRight(extend)
		} else {
			ed.MoveRight(extend)
		}
	case terminal.KeyUp:
		return ed.MoveUp(extend)
	case terminal.KeyDown:
		return ed.MoveDown(extend)
	case terminal.KeyHome:
		if ctrl {
			ed.MoveDocumentStart(extend)
		} else {
			ed.MoveParagraphStart(extend)
		}
	case terminal.KeyEnd:
		if ctrl {
			ed.MoveDocumentEnd(extend)
		} else {
			ed.MoveParagraphEnd(extend)
		}
	case terminal.KeyPageUp:
		vp := ed.Viewport()
		return vp.PageUp(vp.SmoothScroll())
	case terminal.KeyPageDown:
		vp := ed.Viewport()
		return vp.PageDown(vp.SmoothScroll())
	case terminal.KeyCtrlA:
		ed.SelectAll()
	case terminal.KeyCtrlS:
		if v.readOnly {
			return nil
		}
		if err := ed.SaveFile(v.path); err != nil {
			return err
		}
		v.app.logger.Info("saved document", "path", v.path)
	default:
		if v.readOnly {
			return nil
		}
		return v.edit(ev)
	}
	return nil
}

// edit handles keys that change the document.
func (v *viewer) edit(ev terminal.Event) error {
	ed := v.ed
	switch ev.Key {
	case terminal.KeyRune:
		return ed.InsertText(string(ev.Rune))
	case terminal.KeyEnter:
		return ed.InsertText("\n")
	case terminal.KeyTab:
		return ed.InsertText("\t")
	case terminal.KeyBackspace:
		return ed.Backspace()
	case terminal.KeyDelete:
		return ed.DeleteForward()
	case terminal.KeyCtrlB:
		return ed.ToggleBold()
	case terminal.KeyCtrlU:
		return ed.ToggleUnderline()
	case terminal.KeyCtrlZ:
		_, err := ed.Undo()
		return err
	case terminal.KeyCtrlY:
		_, err := ed.Redo()
		return err
	}
	return nil
}
