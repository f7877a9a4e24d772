package kml

import (
	"errors"
	"fmt"
)

// ErrMalformedDocument is returned for input that is not a well formed KML
// document.
var ErrMalformedDocument = errors.New("malformed document")

// ParseError describes where parsing failed.
type ParseError struct {
	Line   int
	Column int
	Msg    string
}

func (e *ParseError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("kml: %s", e.Msg)
	}
	return fmt.Sprintf("kml:%d:%d: %s", e.Line, e.Column, e.Msg)
}

// Unwrap returns ErrMalformedDocument.
func (e *ParseError) Unwrap() error {
	return ErrMalformedDocument
}
