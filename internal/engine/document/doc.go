// Package document combines a text buffer, its inline format layer and the
// per-paragraph properties into one unit that is edited atomically.
//
// Every mutation updates the text and the format runs together before it
// returns, so a layout query made after an edit always sees post-edit state.
// Mutations return a Change describing the affected range; the editor passes
// it to the layout manager explicitly instead of the document notifying
// observers.
package document
