package textbuf

import (
	"errors"
	"fmt"
)

// ErrOutOfRange indicates a position or range outside the buffer.
var ErrOutOfRange = errors.New("out of range")

// RangeError describes a rejected offset or range.
type RangeError struct {
	Op    string
	Pos   int
	Count int
	Len   int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("textbuf: %s [%d,+%d) exceeds length %d: %v", e.Op, e.Pos, e.Count, e.Len, ErrOutOfRange)
}

// Unwrap allows errors.Is(err, ErrOutOfRange).
func (e *RangeError) Unwrap() error {
	return ErrOutOfRange
}

func rangeErr(op string, pos, count, length int) error {
	return &RangeError{Op: op, Pos: pos, Count: count, Len: length}
}
