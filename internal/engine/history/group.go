package history

import (
	"errors"
	"fmt"

	"github.com/dshills/folio/internal/engine/document"
)

// BeginGroup starts a command group. Commands pushed while grouping are
// combined into a single undo unit. Nested calls are ignored.
func (s *Stack) BeginGroup(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.grouping {
		return
	}
	s.grouping = true
	s.groupName = name
	s.groupCmds = nil
}

// EndGroup finishes a command group.
// All commands since BeginGroup are combined into a CompoundCommand.
func (s *Stack) EndGroup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.grouping {
		return
	}
	s.grouping = false
	cmds := s.groupCmds
	s.groupCmds = nil

	switch len(cmds) {
	case 0:
		return
	case 1:
		s.pushLocked(cmds[0], s.groupFirst, s.groupLast, true)
		return
	}
	s.pushLocked(&CompoundCommand{Name: s.groupName, Commands: cmds}, s.groupFirst, s.groupLast, false)
}

// CancelGroup abandons a command group without recording it.
// Commands already executed still affect the document.
func (s *Stack) CancelGroup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.grouping = false
	s.groupCmds = nil
}

// IsGrouping returns true if currently in a command group.
func (s *Stack) IsGrouping() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.grouping
}

// GroupScope provides a convenient way to group commands using defer:
//
//	defer stack.GroupScope("Replace selection").End()
type GroupScope struct {
	stack  *Stack
	active bool
}

// GroupScope starts a new group scope.
func (s *Stack) GroupScope(name string) *GroupScope {
	s.BeginGroup(name)
	return &GroupScope{stack: s, active: true}
}

// End ends the group scope.
// Safe to call multiple times; only the first call has effect.
func (g *GroupScope) End() {
	if g.active {
		g.stack.EndGroup()
		g.active = false
	}
}

// Transaction runs fn within a group. If fn fails, the commands it pushed
// are undone in reverse order and nothing is recorded.
func (s *Stack) Transaction(doc *document.Document, name string, fn func() error) error {
	s.BeginGroup(name)
	if err := fn(); err != nil {
		s.mu.Lock()
		cmds := s.groupCmds
		s.grouping = false
		s.groupCmds = nil
		s.mu.Unlock()
		errs := []error{err}
		for i := len(cmds) - 1; i >= 0; i-- {
			if _, uerr := cmds[i].Undo(doc); uerr != nil {
				errs = append(errs, fmt.Errorf("roll back %s: %w", cmds[i].Description(), uerr))
			}
		}
		return errors.Join(errs...)
	}
	s.EndGroup()
	return nil
}
