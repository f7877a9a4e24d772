package document

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dshills/folio/internal/engine/format"
	"github.com/dshills/folio/internal/engine/textbuf"
)

// Fragment is a self-contained piece of formatted text: the characters, the
// inline runs relative to the fragment start, and the properties of every
// paragraph that begins inside it.
type Fragment struct {
	Text string
	Runs []format.Run

	// Props holds one entry per separator in Text, describing the paragraph
	// that starts after it.
	Props []ParagraphProps
}

// Len returns the fragment length in runes.
func (f Fragment) Len() int {
	return utf8.RuneCountInString(f.Text)
}

// PlainFragment wraps unformatted text.
func PlainFragment(text string) Fragment {
	return Fragment{Text: text}
}

// NormalizeLineEndings returns f with "\r\n" and lone '\r' turned into
// paragraph separators, remapping runs to the new offsets. A lone '\r'
// gets zero paragraph properties when f carries properties at all.
func (f Fragment) NormalizeLineEndings() Fragment {
	if !strings.ContainsRune(f.Text, '\r') {
		return f
	}
	src := []rune(f.Text)
	offs := make([]int, len(src)+1)
	var b strings.Builder
	var props []ParagraphProps
	next, n := 0, 0
	for i, r := range src {
		offs[i] = n
		switch {
		case r == '\r' && i+1 < len(src) && src[i+1] == textbuf.Separator:
			continue
		case r == '\r':
			r = textbuf.Separator
			if f.Props != nil {
				props = append(props, ParagraphProps{})
			}
		case r == textbuf.Separator:
			if next < len(f.Props) {
				props = append(props, f.Props[next])
			}
			next++
		}
		b.WriteRune(r)
		n++
	}
	offs[len(src)] = n

	out := Fragment{Text: b.String(), Props: props}
	for _, r := range f.Runs {
		if r.Start < 0 || r.End > len(src) || r.Start > r.End {
			out.Runs = append(out.Runs, r) // rejected on insert
			continue
		}
		r.Start, r.End = offs[r.Start], offs[r.End]
		if r.Start >= r.End {
			continue
		}
		if k := len(out.Runs); k > 0 && out.Runs[k-1].End == r.Start && out.Runs[k-1].Style.Equal(r.Style) {
			out.Runs[k-1].End = r.End
			continue
		}
		out.Runs = append(out.Runs, r)
	}
	return out
}

// Append concatenates o after f.
func (f Fragment) Append(o Fragment) Fragment {
	n := f.Len()
	out := Fragment{
		Text:  f.Text + o.Text,
		Runs:  make([]format.Run, 0, len(f.Runs)+len(o.Runs)),
		Props: append(append([]ParagraphProps(nil), f.Props...), o.Props...),
	}
	out.Runs = append(out.Runs, f.Runs...)
	for _, r := range o.Runs {
		r.Start += n
		r.End += n
		if k := len(out.Runs); k > 0 && out.Runs[k-1].End == r.Start && out.Runs[k-1].Style.Equal(r.Style) {
			out.Runs[k-1].End = r.End
			continue
		}
		out.Runs = append(out.Runs, r)
	}
	return out
}

// Fragment copies count runes at pos with their formatting.
func (d *Document) Fragment(pos, count int) (Fragment, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	text, err := d.text.Substring(pos, count)
	if err != nil {
		return Fragment{}, err
	}
	runs, err := d.format.RunsIn(pos, pos+count)
	if err != nil {
		return Fragment{}, err
	}
	for i := range runs {
		runs[i].Start -= pos
		runs[i].End -= pos
	}
	frag := Fragment{Text: text, Runs: runs}
	if n := strings.Count(text, string(textbuf.Separator)); n > 0 {
		first, _ := d.text.ParagraphAt(pos)
		frag.Props = make([]ParagraphProps, n)
		for k := range n {
			frag.Props[k] = d.props[d.text.ParagraphID(first+1+k)]
		}
	}
	return frag, nil
}

// InsertFragment inserts frag at pos and restores its formatting exactly,
// regardless of the runs surrounding pos.
func (d *Document) InsertFragment(pos int, frag Fragment) (Change, error) {
	frag = frag.NormalizeLineEndings()
	d.mu.Lock()
	defer d.mu.Unlock()
	ch, err := d.insertLocked(pos, frag.Text)
	if err != nil {
		return Change{}, err
	}
	n := frag.Len()
	if n > 0 {
		runs := make([]format.Run, len(frag.Runs))
		for i, r := range frag.Runs {
			runs[i] = format.Run{Start: r.Start + pos, End: r.End + pos, Style: r.Style}
		}
		if err := d.format.Restore(pos, pos+n, runs); err != nil {
			return Change{}, fmt.Errorf("restore fragment runs: %w", err)
		}
		if err := d.unstyleSeparatorsLocked(pos, pos+n); err != nil {
			return Change{}, err
		}
	}
	for k, p := range frag.Props {
		i := ch.FirstParagraph + 1 + k
		if i >= d.text.ParagraphCount() {
			break
		}
		d.setProps(d.text.ParagraphID(i), p)
	}
	return ch, nil
}

// EraseFragment removes count runes at pos and returns what was removed.
func (d *Document) EraseFragment(pos, count int) (Fragment, Change, error) {
	frag, err := d.Fragment(pos, count)
	if err != nil {
		return Fragment{}, Change{}, err
	}
	ch, err := d.Erase(pos, count)
	if err != nil {
		return Fragment{}, Change{}, err
	}
	return frag, ch, nil
}
