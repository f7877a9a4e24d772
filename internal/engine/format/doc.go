// Package format holds inline formatting for a document.
//
// Formatting is kept apart from the text. A Layer stores a sorted list of
// non-overlapping runs [Start, End) over buffer offsets, each carrying a
// sparse InlineStyle. Because runs partition the styled part of the text,
// no attribute ever has two values at the same offset, and adjacent runs
// with equal styles are coalesced after every mutation.
//
// Lookups binary-search the run list, so queries cost O(log N + k) where k
// is the number of runs touched.
package format
