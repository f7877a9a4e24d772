// Package terminal draws a viewport onto a character-cell display. The
// Backend abstracts the display; TcellBackend drives a real terminal
// through tcell and MemoryBackend records cells for tests.
package terminal

import (
	"github.com/dshills/folio/internal/engine/format"
)

// Attr is a set of cell attributes.
type Attr uint8

const (
	AttrBold Attr = 1 << iota
	AttrItalic
	AttrUnderline
	AttrStrikethrough
	AttrReverse
)

// Has reports whether every attribute in a is set.
func (s Attr) Has(a Attr) bool {
	return s&a == a
}

// Style is the appearance of one cell.
type Style struct {
	Foreground format.Color
	Background format.Color
	Attrs      Attr
}

// Cell is a rune drawn with a style.
type Cell struct {
	Rune  rune
	Style Style
}

// Backend is a character-cell display.
type Backend interface {
	// Init prepares the display; it must be called first.
	Init() error
	// Shutdown restores the terminal.
	Shutdown()

	Size() (width, height int)

	// SetCell draws one cell. Positions outside the display are ignored.
	SetCell(x, y int, c Cell)
	// Fill draws c over the whole display.
	Fill(c Cell)
	// Show flushes drawn cells to the display.
	Show()

	ShowCursor(x, y int)
	HideCursor()

	// PollEvent blocks until the next input event.
	PollEvent() Event
	// PostEvent queues a synthetic event.
	PostEvent(ev Event)
}

// MemoryBackend keeps cells in memory. It is used in tests and to render
// documents to plain text.
type MemoryBackend struct {
	width, height int
	cells         []Cell
	cursorX       int
	cursorY       int
	cursorVisible bool
	events        chan Event
}

// NewMemoryBackend creates a backend of the given size.
func NewMemoryBackend(width, height int) *MemoryBackend {
	return &MemoryBackend{
		width:  width,
		height: height,
		cells:  make([]Cell, width*height),
		events: make(chan Event, 100),
	}
}

func (b *MemoryBackend) Init() error { return nil }
func (b *MemoryBackend) Shutdown()   {}
func (b *MemoryBackend) Show()       {}

func (b *MemoryBackend) Size() (int, int) {
	return b.width, b.height
}

func (b *MemoryBackend) SetCell(x, y int, c Cell) {
	if x >= 0 && x < b.width && y >= 0 && y < b.height {
		b.cells[y*b.width+x] = c
	}
}

// Cell returns the cell at x, y, or the zero cell outside the display.
func (b *MemoryBackend) Cell(x, y int) Cell {
	if x >= 0 && x < b.width && y >= 0 && y < b.height {
		return b.cells[y*b.width+x]
	}
	return Cell{}
}

func (b *MemoryBackend) Fill(c Cell) {
	for i := range b.cells {
		b.cells[i] = c
	}
}

// Row returns the runes of row y with trailing spaces removed.
func (b *MemoryBackend) Row(y int) string {
	if y < 0 || y >= b.height {
		return ""
	}
	rs := make([]rune, 0, b.width)
	for x := 0; x < b.width; x++ {
		r := b.cells[y*b.width+x].Rune
		if r == 0 {
			r = ' '
		}
		rs = append(rs, r)
	}
	end := len(rs)
	for end > 0 && rs[end-1] == ' ' {
		end--
	}
	return string(rs[:end])
}

func (b *MemoryBackend) ShowCursor(x, y int) {
	b.cursorX, b.cursorY, b.cursorVisible = x, y, true
}

func (b *MemoryBackend) HideCursor() {
	b.cursorVisible = false
}

// CursorPosition returns the cursor as last shown.
func (b *MemoryBackend) CursorPosition() (x, y int, visible bool) {
	return b.cursorX, b.cursorY, b.cursorVisible
}

func (b *MemoryBackend) PollEvent() Event {
	return <-b.events
}

func (b *MemoryBackend) PostEvent(ev Event) {
	select {
	case b.events <- ev:
	default:
		// Dropped when the queue is full
	}
}

// Resize changes the size and clears the display.
func (b *MemoryBackend) Resize(width, height int) {
	b.width, b.height = width, height
	b.cells = make([]Cell, width*height)
}
