package editor

import (
	"unicode"
	"unicode/utf8"

	"github.com/rivo/uniseg"
)

// TextRange is a piece of document text with its offsets.
type TextRange struct {
	Start int
	End   int
	Text  string
}

type segment struct {
	start, end int // Rune offsets within the paragraph
	text       string
}

// graphemeStops returns the rune offsets of every grapheme cluster
// boundary in s, including 0 and the length.
func graphemeStops(s string) []int {
	stops := []int{0}
	pos, state := 0, -1
	rest := s
	var cl string
	for len(rest) > 0 {
		cl, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)
		pos += utf8.RuneCountInString(cl)
		stops = append(stops, pos)
	}
	return stops
}

// words returns the UAX #29 word segments of s that contain a letter or a
// digit. Spaces and punctuation are not words.
func words(s string) []segment {
	var out []segment
	pos, state := 0, -1
	rest := s
	var seg string
	for len(rest) > 0 {
		seg, rest, state = uniseg.FirstWordInString(rest, state)
		n := utf8.RuneCountInString(seg)
		if isWord(seg) {
			out = append(out, segment{start: pos, end: pos + n, text: seg})
		}
		pos += n
	}
	return out
}

func isWord(seg string) bool {
	for _, r := range seg {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// wordAround returns the word containing off, or else the word ending at
// off.
func wordAround(s string, off int) (segment, bool) {
	ws := words(s)
	for _, w := range ws {
		if w.start <= off && off < w.end {
			return w, true
		}
	}
	for _, w := range ws {
		if w.end == off {
			return w, true
		}
	}
	return segment{}, false
}
