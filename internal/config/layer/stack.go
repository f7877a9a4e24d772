package layer

import (
	"sort"
	"sync"
)

// Stack holds layers ordered by source rank. Layers of the same source
// keep the order they were pushed in.
type Stack struct {
	mu     sync.Mutex
	layers []*Layer
	merged map[string]any // nil when stale
}

// NewStack returns an empty stack.
func NewStack() *Stack {
	return &Stack{}
}

// Push adds a layer.
func (s *Stack) Push(l *Layer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.layers = append(s.layers, l)
	sort.SliceStable(s.layers, func(i, j int) bool {
		return s.layers[i].Source < s.layers[j].Source
	})
	s.merged = nil
}

// Len returns the number of layers.
func (s *Stack) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.layers)
}

// Merge overlays every layer from lowest to highest rank. The result is a
// copy the caller may modify.
func (s *Stack) Merge() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.merged == nil {
		s.merged = make(map[string]any)
		for _, l := range s.layers {
			Overlay(s.merged, l.Data)
		}
	}
	return cloneMap(s.merged)
}

// Lookup returns the value at path from the highest-ranked layer that
// sets it.
func (s *Stack) Lookup(path string) (any, *Layer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.layers) - 1; i >= 0; i-- {
		if v, ok := Get(s.layers[i].Data, path); ok {
			return v, s.layers[i], true
		}
	}
	return nil, nil, false
}

// Origin returns the source that supplies path, or "" if none does.
func (s *Stack) Origin(path string) string {
	if _, l, ok := s.Lookup(path); ok {
		return l.Source.String()
	}
	return ""
}
