package terminal

import (
	"fmt"
	"math"
	"unicode"

	"github.com/dshills/folio/internal/engine/document"
	"github.com/dshills/folio/internal/renderer/layout"
	"github.com/dshills/folio/internal/renderer/style"
	"github.com/dshills/folio/internal/renderer/viewport"
)

// DefaultSelectionAlpha is how strongly the selection colour is blended
// into the background of selected cells.
const DefaultSelectionAlpha = 0.6

// Frame is what the painter draws on top of the text.
type Frame struct {
	// Selection in document offsets; empty when SelStart == SelEnd.
	SelStart, SelEnd int
	Highlights       []document.Highlight
	// Caret is the caret's document offset, or -1 to hide it.
	Caret int
}

// Painter draws the visible part of a viewport one layout unit per cell.
// It expects cell metrics such as layout.MonospaceMetrics.
type Painter struct {
	backend        Backend
	theme          style.Theme
	selectionAlpha float64
}

// NewPainter creates a painter drawing onto b.
func NewPainter(b Backend, theme style.Theme) *Painter {
	return &Painter{backend: b, theme: theme, selectionAlpha: DefaultSelectionAlpha}
}

// SetTheme replaces the theme used for the page and overlays.
func (p *Painter) SetTheme(th style.Theme) {
	p.theme = th
}

// Paint redraws the display from v and flushes it.
func (p *Painter) Paint(v *viewport.Viewport, f Frame) error {
	_, height := p.backend.Size()
	p.backend.Fill(Cell{Rune: ' ', Style: Style{Foreground: p.theme.Foreground, Background: p.theme.Background}})

	placed, err := v.VisibleParagraphs()
	if err != nil {
		return fmt.Errorf("paint: %w", err)
	}
	src := v.Layout().Source()
	for _, pl := range placed {
		start, _, err := src.ParagraphRange(pl.Index)
		if err != nil {
			return fmt.Errorf("paint: %w", err)
		}
		runes := src.ParagraphRunes(pl.Index)
		for li := range pl.Layout.Lines {
			line := &pl.Layout.Lines[li]
			row := int(math.Floor(pl.Y + line.Y))
			if row < 0 || row >= height {
				continue
			}
			p.paintLine(line, row, runes, start, f)
		}
	}

	if f.Caret >= 0 {
		r, err := v.CursorRect(f.Caret)
		switch {
		case err != nil:
			return fmt.Errorf("paint: %w", err)
		case r.Y >= 0 && r.Y < float64(height):
			p.backend.ShowCursor(int(math.Round(r.X)), int(math.Floor(r.Y)))
		default:
			p.backend.HideCursor()
		}
	} else {
		p.backend.HideCursor()
	}
	p.backend.Show()
	return nil
}

func (p *Painter) paintLine(line *layout.Line, row int, runes []rune, start int, f Frame) {
	adv := line.Advances()
	for _, run := range line.Runs {
		x := run.X
		for i := run.Start; i < run.End && i < len(runes); i++ {
			a := adv[i-line.Start]
			st := p.cellStyle(run.Style, start+i, f)
			col := int(math.Round(x))
			r := runes[i]
			switch {
			case r == '\t' || unicode.IsSpace(r):
				// Tabs and justified spaces cover several cells.
				for c := col; c < int(math.Round(x+a)); c++ {
					p.backend.SetCell(c, row, Cell{Rune: ' ', Style: st})
				}
			case a == 0 || unicode.IsControl(r):
				// Combining marks and controls draw nothing.
			default:
				p.backend.SetCell(col, row, Cell{Rune: r, Style: st})
			}
			x += a
		}
	}
}

func (p *Painter) cellStyle(res style.Resolved, pos int, f Frame) Style {
	st := Style{Foreground: res.Foreground, Background: p.theme.Background}
	if res.HasBackground {
		st.Background = res.Background
	}
	if res.Bold {
		st.Attrs |= AttrBold
	}
	if res.Italic {
		st.Attrs |= AttrItalic
	}
	if res.Underline {
		st.Attrs |= AttrUnderline
	}
	if res.Strikethrough {
		st.Attrs |= AttrStrikethrough
	}
	for _, h := range f.Highlights {
		if pos >= h.Start && pos < h.End {
			st.Attrs |= AttrUnderline
			st.Foreground = p.theme.HighlightColor(h.Kind)
			break
		}
	}
	lo, hi := min(f.SelStart, f.SelEnd), max(f.SelStart, f.SelEnd)
	if pos >= lo && pos < hi {
		st.Background = st.Background.Blend(p.theme.Selection, p.selectionAlpha)
	}
	return st
}
