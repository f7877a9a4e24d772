package editor

import (
	"errors"

	"github.com/dshills/folio/internal/engine/document"
)

var (
	// ErrOutOfRange is returned in strict mode for offsets outside the
	// document.
	ErrOutOfRange = document.ErrOutOfRange

	// ErrNoStyleStore is returned when saving a style without a store.
	ErrNoStyleStore = errors.New("no style store configured")

	// ErrInvalidValue is returned for unusable attribute values.
	ErrInvalidValue = errors.New("invalid value")

	// ErrNoTarget is returned when an operation needs a selection or a
	// word under the caret and there is neither.
	ErrNoTarget = errors.New("no selection or word under the caret")
)

var (
	// ErrEmptyQuery is returned by search operations given an empty query.
	ErrEmptyQuery = errors.New("empty search query")

	// ErrInvalidPattern is returned for a regular expression that does not
	// compile.
	ErrInvalidPattern = errors.New("invalid search pattern")
)
