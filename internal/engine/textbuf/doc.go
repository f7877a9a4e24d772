// Package textbuf provides the indexed character storage for a chapter.
//
// Text is held as an ordered list of paragraphs separated by a single
// logical '\n'. Each paragraph keeps its runes in a gap buffer so that
// consecutive edits at the caret are amortized O(1), and a Fenwick tree
// over paragraph lengths maps document offsets to paragraphs in O(log N).
//
// Offsets are code point (rune) positions. The position p is addressable
// for 0 <= p <= Len().
//
// Every paragraph carries a stable ParagraphID that survives edits to other
// paragraphs, so caches keyed by paragraph identity stay attached to the
// right text when paragraphs are inserted or removed before them.
//
// Basic usage:
//
//	buf := textbuf.NewFromString("Hello World")
//	buf.Insert(5, ",")           // "Hello, World"
//	buf.Erase(0, 7)              // "World"
//	s, _ := buf.Substring(0, 3)  // "Wor"
//
// A Buffer is not safe for concurrent use; the owning document serializes
// access.
package textbuf
