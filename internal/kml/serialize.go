package kml

import (
	"bufio"
	"encoding/xml"
	"io"
	"strconv"
	"strings"

	"github.com/dshills/folio/internal/engine/document"
	"github.com/dshills/folio/internal/engine/format"
)

// Serialize writes snap in canonical form. Serializing the result of
// parsing canonical output reproduces it byte for byte.
func Serialize(w io.Writer, snap document.Snapshot) error {
	bw := bufio.NewWriter(w)
	bw.WriteString("<kml>\n")
	for _, p := range snap.Paragraphs {
		writeParagraph(bw, p)
		bw.WriteByte('\n')
	}
	bw.WriteString("</kml>\n")
	return bw.Flush()
}

// SerializeString returns the canonical form of snap.
func SerializeString(snap document.Snapshot) string {
	var sb strings.Builder
	_ = Serialize(&sb, snap)
	return sb.String()
}

// Save writes the content of doc.
func Save(w io.Writer, doc *document.Document) error {
	return Serialize(w, doc.Snapshot())
}

func writeParagraph(w *bufio.Writer, p document.Paragraph) {
	w.WriteString("<p")
	if p.Props.StyleID != "" {
		writeAttr(w, "style", p.Props.StyleID)
	}
	if p.Props.Align != format.AlignInherit {
		writeAttr(w, "align", p.Props.Align.String())
	}
	w.WriteByte('>')

	text := []rune(p.Text)
	pos := 0
	for _, r := range p.Runs {
		start, end := max(r.Start, pos), min(r.End, len(text))
		if start >= end {
			continue
		}
		if pos < start {
			writeRun(w, format.InlineStyle{}, text[pos:start])
		}
		writeRun(w, r.Style, text[start:end])
		pos = end
	}
	if pos < len(text) {
		writeRun(w, format.InlineStyle{}, text[pos:])
	}
	w.WriteString("</p>")
}

// runFlags lists the boolean attributes in output order.
var runFlags = []struct {
	attr format.Attr
	name string
}{
	{format.AttrBold, "bold"},
	{format.AttrItalic, "italic"},
	{format.AttrUnderline, "underline"},
	{format.AttrStrikethrough, "strikethrough"},
	{format.AttrSubscript, "subscript"},
	{format.AttrSuperscript, "superscript"},
}

func writeRun(w *bufio.Writer, st format.InlineStyle, text []rune) {
	w.WriteString("<t")
	if id, ok := st.CharacterStyle(); ok {
		writeAttr(w, "style", id)
	}
	for _, f := range runFlags {
		if v, ok := st.Flag(f.attr); ok {
			writeAttr(w, f.name, strconv.FormatBool(v))
		}
	}
	if v, ok := st.FontFamily(); ok {
		writeAttr(w, "font-family", v)
	}
	if v, ok := st.FontSize(); ok {
		writeAttr(w, "font-size", strconv.FormatFloat(v, 'g', -1, 64))
	}
	if c, ok := st.Foreground(); ok {
		writeAttr(w, "color", c.Hex())
	}
	if c, ok := st.Background(); ok {
		writeAttr(w, "background-color", c.Hex())
	}
	w.WriteByte('>')
	_ = xml.EscapeText(w, []byte(string(text)))
	w.WriteString("</t>")
}

func writeAttr(w *bufio.Writer, name, value string) {
	w.WriteByte(' ')
	w.WriteString(name)
	w.WriteString(`="`)
	_ = xml.EscapeText(w, []byte(value))
	w.WriteByte('"')
}
