package history

import (
	"errors"
	"sync"
	"time"

	"github.com/dshills/folio/internal/engine/document"
)

// Common errors for history operations.
var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// Defaults used when Options leaves a field zero.
const (
	DefaultMaxDepth    = 100
	DefaultMergeWindow = time.Second
)

// State is the position of the stack in its edit-session state machine.
type State int

const (
	// Idle: no merge run is open.
	Idle State = iota
	// Editing: the top entry may still absorb the next command.
	Editing
	// Undoing: an undo is in progress.
	Undoing
	// Redoing: a redo is in progress.
	Redoing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Editing:
		return "editing"
	case Undoing:
		return "undoing"
	case Redoing:
		return "redoing"
	}
	return "unknown"
}

// Selection is an anchor/head pair recorded around each command so that
// undo and redo can restore the caret.
type Selection struct {
	Anchor int
	Head   int
}

// Caret returns a collapsed selection at pos.
func Caret(pos int) Selection {
	return Selection{Anchor: pos, Head: pos}
}

// IsEmpty returns true if the selection has no extent.
func (s Selection) IsEmpty() bool {
	return s.Anchor == s.Head
}

// Start returns the lower bound of the selection.
func (s Selection) Start() int {
	return min(s.Anchor, s.Head)
}

// End returns the upper bound of the selection.
func (s Selection) End() int {
	return max(s.Anchor, s.Head)
}

// Options configures a Stack.
type Options struct {
	MaxDepth    int
	MergeWindow time.Duration
	// Now returns the current time. Tests inject a fake clock.
	Now func() time.Time
}

type entry struct {
	command   Command
	before    Selection
	after     Selection
	timestamp time.Time
}

// Info describes an entry for menus and status lines.
type Info struct {
	Description string
	Timestamp   time.Time
}

// Result is returned by Undo and Redo.
type Result struct {
	Change    document.Change
	Selection Selection
}

// Stack manages the undo and redo stacks of one document.
type Stack struct {
	mu sync.Mutex

	undoStack []*entry
	redoStack []*entry
	state     State

	// Grouping state
	grouping   bool
	groupName  string
	groupCmds  []Command
	groupFirst Selection
	groupLast  Selection

	// Configuration
	maxDepth int
	window   time.Duration
	now      func() time.Time
}

// NewStack creates a new undo stack.
func NewStack(opts Options) *Stack {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if opts.MergeWindow <= 0 {
		opts.MergeWindow = DefaultMergeWindow
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Stack{
		maxDepth: opts.MaxDepth,
		window:   opts.MergeWindow,
		now:      opts.Now,
	}
}

// Execute runs cmd against doc and records it. before and after are the
// selections to restore on undo and redo.
func (s *Stack) Execute(doc *document.Document, cmd Command, before, after Selection) (document.Change, error) {
	ch, err := cmd.Execute(doc)
	if err != nil {
		return ch, err
	}
	s.Push(cmd, before, after)
	return ch, nil
}

// Push records an already executed command. It merges into the top entry
// when the stack is Editing, the top entry accepts it and the previous
// command arrived within the merge window. The redo stack is cleared.
func (s *Stack) Push(cmd Command, before, after Selection) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.grouping {
		if len(s.groupCmds) == 0 {
			s.groupFirst = before
		}
		s.groupCmds = append(s.groupCmds, cmd)
		s.groupLast = after
		return
	}
	s.pushLocked(cmd, before, after, true)
}

func (s *Stack) pushLocked(cmd Command, before, after Selection, mergeable bool) {
	now := s.now()
	s.redoStack = nil

	if mergeable && s.state == Editing && len(s.undoStack) > 0 {
		top := s.undoStack[len(s.undoStack)-1]
		if now.Sub(top.timestamp) <= s.window {
			if m, ok := top.command.(Merger); ok && m.MergeWith(cmd) {
				top.after = after
				top.timestamp = now
				return
			}
		}
	}

	s.undoStack = append(s.undoStack, &entry{
		command:   cmd,
		before:    before,
		after:     after,
		timestamp: now,
	})
	s.state = Editing
	if _, ok := cmd.(Merger); !ok {
		s.state = Idle
	}

	// Oldest entries go first
	if len(s.undoStack) > s.maxDepth {
		excess := len(s.undoStack) - s.maxDepth
		s.undoStack = s.undoStack[excess:]
	}
}

// Flush closes the current merge run; the next command starts a new entry.
func (s *Stack) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Editing {
		s.state = Idle
	}
}

// State returns the current state.
func (s *Stack) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Undo reverses the top entry. The lock is released while the command runs.
func (s *Stack) Undo(doc *document.Document) (Result, error) {
	s.mu.Lock()
	if len(s.undoStack) == 0 {
		s.mu.Unlock()
		return Result{}, ErrNothingToUndo
	}
	e := s.undoStack[len(s.undoStack)-1]
	s.undoStack = s.undoStack[:len(s.undoStack)-1]
	s.state = Undoing
	s.mu.Unlock()

	ch, err := e.command.Undo(doc)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Idle
	if err != nil {
		s.undoStack = append(s.undoStack, e)
		return Result{}, err
	}
	s.redoStack = append(s.redoStack, e)
	return Result{Change: ch, Selection: e.before}, nil
}

// Redo re-executes the most recently undone entry.
func (s *Stack) Redo(doc *document.Document) (Result, error) {
	s.mu.Lock()
	if len(s.redoStack) == 0 {
		s.mu.Unlock()
		return Result{}, ErrNothingToRedo
	}
	e := s.redoStack[len(s.redoStack)-1]
	s.redoStack = s.redoStack[:len(s.redoStack)-1]
	s.state = Redoing
	s.mu.Unlock()

	ch, err := e.command.Execute(doc)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Idle
	if err != nil {
		s.redoStack = append(s.redoStack, e)
		return Result{}, err
	}
	s.undoStack = append(s.undoStack, e)
	return Result{Change: ch, Selection: e.after}, nil
}

// CanUndo returns true if undo is available.
func (s *Stack) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.undoStack) > 0
}

// CanRedo returns true if redo is available.
func (s *Stack) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.redoStack) > 0
}

// UndoCount returns the number of undo entries.
func (s *Stack) UndoCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.undoStack)
}

// RedoCount returns the number of redo entries.
func (s *Stack) RedoCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.redoStack)
}

// Clear removes all undo/redo history.
func (s *Stack) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.undoStack = nil
	s.redoStack = nil
	s.grouping = false
	s.groupCmds = nil
	s.state = Idle
}

// PeekUndo describes the next undo without performing it.
func (s *Stack) PeekUndo() (Info, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.undoStack) == 0 {
		return Info{}, false
	}
	return s.undoStack[len(s.undoStack)-1].info(), true
}

// PeekRedo describes the next redo without performing it.
func (s *Stack) PeekRedo() (Info, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.redoStack) == 0 {
		return Info{}, false
	}
	return s.redoStack[len(s.redoStack)-1].info(), true
}

func (e *entry) info() Info {
	return Info{Description: e.command.Description(), Timestamp: e.timestamp}
}

// SetMaxDepth changes the maximum number of undo entries.
// If the current stack is larger, oldest entries are removed.
func (s *Stack) SetMaxDepth(n int) {
	if n <= 0 {
		n = DefaultMaxDepth
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maxDepth = n
	if len(s.undoStack) > n {
		s.undoStack = s.undoStack[len(s.undoStack)-n:]
	}
}

// MaxDepth returns the maximum number of undo entries.
func (s *Stack) MaxDepth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxDepth
}
