package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
	"golang.org/x/term"

	"github.com/dshills/folio/internal/editor"
	"github.com/dshills/folio/internal/renderer/layout"
)

// runLayout prints the computed line geometry of a document.
func runLayout(a *app, args []string) error {
	fs := flag.NewFlagSet("layout", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	width := fs.Int("width", 0, "Wrap width (default: terminal width, else layout.width)")
	asJSON := fs.Bool("json", false, "Print JSON instead of text")
	stats := fs.Bool("stats", false, "Print layout cache statistics")
	fs.Usage = func() {
		fmt.Fprintf(a.stderr, "Usage: folio layout [-width N] [-json] [-stats] <file | ->\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil || fs.NArg() != 1 {
		if err == nil {
			fs.Usage()
		}
		return errUsage
	}

	ed, err := a.openDocument(fs.Arg(0), 0)
	if err != nil {
		return err
	}
	w := *width
	if w <= 0 {
		if f, ok := a.stdout.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			if tw, _, err := term.GetSize(int(f.Fd())); err == nil {
				w = tw
			}
		}
	}
	if w > 0 {
		ed.Layout().SetWidth(float64(w))
	}

	out := bufio.NewWriter(a.stdout)
	if *asJSON {
		err = writeLayoutJSON(out, ed)
	} else {
		err = writeLayoutText(out, ed)
	}
	if err != nil {
		return err
	}
	if *stats {
		st := ed.Layout().Stats()
		fmt.Fprintf(out, "cache: %d/%d entries, %d hits, %d misses, %d evictions\n",
			st.Size, st.MaxSize, st.Hits, st.Misses, st.Evictions)
	}
	return out.Flush()
}

func writeLayoutText(w io.Writer, ed *editor.Editor) error {
	doc := ed.Document()
	m := ed.Layout()
	for i := range doc.ParagraphCount() {
		pl, err := m.LayoutFor(i)
		if err != nil {
			return err
		}
		start, _, _ := doc.ParagraphRange(i)
		fmt.Fprintf(w, "paragraph %d @%d y=%g h=%g style=%q align=%s\n",
			i, start, m.ParagraphY(i), pl.Height, pl.Style.ID, pl.Style.Align)
		runes := doc.ParagraphRunes(i)
		for li := range pl.Lines {
			l := &pl.Lines[li]
			fmt.Fprintf(w, "  line %d [%d,%d) x=%g y=%g w=%g h=%g %s\n",
				li, l.Start, l.End, l.X, l.Y, l.Width, l.Height, strconv.Quote(string(runes[l.Start:l.End])))
		}
	}
	fmt.Fprintf(w, "total height %g\n", m.TotalHeight())
	return nil
}

func writeLayoutJSON(w io.Writer, ed *editor.Editor) error {
	doc := ed.Document()
	m := ed.Layout()
	raw := []byte(`{"paragraphs":[]}`)
	var err error
	set := func(path string, v any) {
		if err == nil {
			raw, err = sjson.SetBytes(raw, path, v)
		}
	}
	set("width", m.Width())
	for i := range doc.ParagraphCount() {
		pl, lerr := m.LayoutFor(i)
		if lerr != nil {
			return lerr
		}
		p := "paragraphs." + strconv.Itoa(i)
		set(p+".y", m.ParagraphY(i))
		set(p+".height", pl.Height)
		set(p+".style", pl.Style.ID)
		set(p+".align", pl.Style.Align.String())
		set(p+".lines", []any{})
		for li, l := range pl.Lines {
			lp := p + ".lines." + strconv.Itoa(li)
			set(lp, lineJSON(l))
		}
	}
	set("total_height", m.TotalHeight())
	if err != nil {
		return fmt.Errorf("encode layout: %w", err)
	}
	_, err = w.Write(pretty.Pretty(raw))
	return err
}

func lineJSON(l layout.Line) map[string]any {
	return map[string]any{
		"start":  l.Start,
		"end":    l.End,
		"x":      l.X,
		"y":      l.Y,
		"width":  l.Width,
		"height": l.Height,
	}
}
