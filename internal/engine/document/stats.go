package document

import (
	"unicode"

	"github.com/rivo/uniseg"
)

// WordsPerMinute is the reading speed behind Statistics.ReadingMinutes.
const WordsPerMinute = 200

// Statistics summarizes a document's text.
type Statistics struct {
	Words              int
	Characters         int // paragraph separators excluded
	CharactersNoSpaces int
	Paragraphs         int
	ReadingMinutes     int
}

// Statistics counts words, characters and paragraphs. A word is a Unicode
// word segment holding at least one letter or digit.
func (d *Document) Statistics() Statistics {
	d.mu.RLock()
	defer d.mu.RUnlock()
	st := Statistics{Paragraphs: d.text.ParagraphCount()}
	for i := 0; i < st.Paragraphs; i++ {
		text := d.text.ParagraphText(i)
		st.Words += countWords(text)
		for _, r := range text {
			st.Characters++
			if !unicode.IsSpace(r) {
				st.CharactersNoSpaces++
			}
		}
	}
	st.ReadingMinutes = (st.Words + WordsPerMinute - 1) / WordsPerMinute
	return st
}

func countWords(s string) int {
	n := 0
	state := -1
	var seg string
	for len(s) > 0 {
		seg, s, state = uniseg.FirstWordInString(s, state)
		for _, r := range seg {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				n++
				break
			}
		}
	}
	return n
}
