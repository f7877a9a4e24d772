package config

import (
	"errors"
	"fmt"
)

var (
	ErrValidationFailed = errors.New("invalid setting")
	ErrTypeMismatch     = errors.New("wrong type")
)

// ValidationError is a setting or catalog entry whose value is out of range
// or malformed. It wraps ErrValidationFailed.
type ValidationError struct {
	Path    string
	Message string
	Value   any
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s, have %v", e.Path, e.Message, e.Value)
}

func (e *ValidationError) Unwrap() error { return ErrValidationFailed }

// TypeError is a value whose type differs from the default's. It wraps
// ErrTypeMismatch.
type TypeError struct {
	Path string
	Want string
	Got  string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("%s must be %s, not %s", e.Path, article(e.Want), article(e.Got))
}

func (e *TypeError) Unwrap() error { return ErrTypeMismatch }

func article(typ string) string {
	switch typ {
	case "":
		return "unset"
	case "array", "integer":
		return "an " + typ
	}
	return "a " + typ
}
