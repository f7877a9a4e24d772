package kml

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/dshills/folio/internal/engine/document"
	"github.com/dshills/folio/internal/engine/format"
)

// Parse reads a document. Text is normalized to NFC.
func Parse(r io.Reader) (document.Snapshot, error) {
	p := &parser{dec: xml.NewDecoder(r)}
	p.dec.Strict = true
	if err := p.run(); err != nil {
		return document.Snapshot{}, err
	}
	if len(p.snap.Paragraphs) == 0 {
		p.snap.Paragraphs = []document.Paragraph{{}}
	}
	return p.snap, nil
}

// ParseString parses a document held in a string.
func ParseString(s string) (document.Snapshot, error) {
	return Parse(strings.NewReader(s))
}

// ParseBytes parses a document held in a byte slice.
func ParseBytes(b []byte) (document.Snapshot, error) {
	return Parse(bytes.NewReader(b))
}

// Load parses a document and builds an editable Document from it.
func Load(r io.Reader) (*document.Document, error) {
	snap, err := Parse(r)
	if err != nil {
		return nil, err
	}
	return document.FromSnapshot(snap)
}

type frame struct {
	style format.InlineStyle
}

type parser struct {
	dec  *xml.Decoder
	snap document.Snapshot

	wrappers int

	// Current paragraph
	inPara bool
	text   strings.Builder
	length int
	runs   []format.Run
	props  document.ParagraphProps
	stack  []frame
}

func (p *parser) run() error {
	for {
		tok, err := p.dec.Token()
		if errors.Is(err, io.EOF) {
			if p.inPara || p.wrappers > 0 {
				return p.errorf("unexpected end of input")
			}
			return nil
		}
		if err != nil {
			return p.wrap(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			err = p.start(t)
		case xml.EndElement:
			p.end()
		case xml.CharData:
			err = p.chars(t)
		}
		if err != nil {
			return err
		}
	}
}

func (p *parser) wrap(err error) error {
	var se *xml.SyntaxError
	if errors.As(err, &se) {
		return &ParseError{Line: se.Line, Msg: se.Msg}
	}
	return &ParseError{Msg: err.Error()}
}

func (p *parser) errorf(msg string, args ...any) error {
	line, col := p.dec.InputPos()
	return &ParseError{Line: line, Column: col, Msg: fmt.Sprintf(msg, args...)}
}

func (p *parser) start(t xml.StartElement) error {
	name := strings.ToLower(t.Name.Local)
	if !p.inPara {
		switch name {
		case "kml", "doc", "document":
			p.wrappers++
			return nil
		case "p", "paragraph":
			return p.beginParagraph(t)
		}
		return p.errorf("unexpected <%s> outside a paragraph", t.Name.Local)
	}

	st := p.current()
	switch name {
	case "p", "paragraph":
		return p.errorf("nested paragraph")
	case "t", "span", "run":
		var err error
		if st, err = p.runStyle(st, t.Attr); err != nil {
			return err
		}
	case "b", "bold", "strong":
		st = st.WithBold(true)
	case "i", "italic", "em":
		st = st.WithItalic(true)
	case "u", "underline":
		st = st.WithUnderline(true)
	case "s", "strike", "strikethrough":
		st = st.WithStrikethrough(true)
	case "sub", "subscript":
		st = st.WithFlag(format.AttrSubscript, true)
	case "sup", "superscript":
		st = st.WithFlag(format.AttrSuperscript, true)
	}
	// Unknown inline elements keep their content and the enclosing style.
	p.stack = append(p.stack, frame{style: st})
	return nil
}

func (p *parser) current() format.InlineStyle {
	if len(p.stack) == 0 {
		return format.InlineStyle{}
	}
	return p.stack[len(p.stack)-1].style
}

func (p *parser) beginParagraph(t xml.StartElement) error {
	p.inPara = true
	p.props = document.ParagraphProps{}
	for _, a := range t.Attr {
		switch strings.ToLower(a.Name.Local) {
		case "style":
			p.props.StyleID = a.Value
		case "align":
			al, err := format.ParseAlignment(strings.ToLower(strings.TrimSpace(a.Value)))
			if err != nil {
				return p.errorf("paragraph: %v", err)
			}
			p.props.Align = al
		}
	}
	return nil
}

// runStyle applies the attributes of a run element on top of the
// enclosing style. Unknown attributes are ignored.
func (p *parser) runStyle(st format.InlineStyle, attrs []xml.Attr) (format.InlineStyle, error) {
	for _, a := range attrs {
		name, val := strings.ToLower(a.Name.Local), a.Value
		if flag, ok := flagAttrs[name]; ok {
			v, err := strconv.ParseBool(strings.TrimSpace(val))
			if err != nil {
				return st, p.errorf("attribute %s: invalid boolean %q", a.Name.Local, val)
			}
			st = st.WithFlag(flag, v)
			continue
		}
		switch name {
		case "style":
			st = st.WithCharacterStyle(val)
		case "font-family", "font":
			st = st.WithFontFamily(val)
		case "font-size", "size":
			size, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
			if err != nil || size <= 0 {
				return st, p.errorf("attribute %s: invalid size %q", a.Name.Local, val)
			}
			st = st.WithFontSize(size)
		case "color", "foreground":
			c, err := format.ParseColor(val)
			if err != nil {
				return st, p.errorf("attribute %s: %v", a.Name.Local, err)
			}
			st = st.WithForeground(c)
		case "background-color", "background":
			c, err := format.ParseColor(val)
			if err != nil {
				return st, p.errorf("attribute %s: %v", a.Name.Local, err)
			}
			st = st.WithBackground(c)
		}
	}
	return st, nil
}

var flagAttrs = map[string]format.Attr{
	"bold":          format.AttrBold,
	"italic":        format.AttrItalic,
	"underline":     format.AttrUnderline,
	"strikethrough": format.AttrStrikethrough,
	"strike":        format.AttrStrikethrough,
	"subscript":     format.AttrSubscript,
	"superscript":   format.AttrSuperscript,
}

func (p *parser) end() {
	if !p.inPara {
		p.wrappers--
		return
	}
	if len(p.stack) > 0 {
		p.stack = p.stack[:len(p.stack)-1]
		return
	}
	p.snap.Paragraphs = append(p.snap.Paragraphs, document.Paragraph{
		Text:  p.text.String(),
		Runs:  p.runs,
		Props: p.props,
	})
	p.inPara = false
	p.text.Reset()
	p.length = 0
	p.runs = nil
}

// paragraphBreaks are folded to spaces inside a paragraph.
var paragraphBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

func (p *parser) chars(data xml.CharData) error {
	if !p.inPara {
		if len(bytes.TrimSpace(data)) > 0 {
			return p.errorf("text outside a paragraph")
		}
		return nil
	}
	s := paragraphBreaks.Replace(norm.NFC.String(string(data)))
	if s == "" {
		return nil
	}
	n := utf8.RuneCountInString(s)
	start := p.length
	p.text.WriteString(s)
	p.length += n

	st := p.current()
	if st.IsEmpty() {
		return nil
	}
	if k := len(p.runs); k > 0 && p.runs[k-1].End == start && p.runs[k-1].Style.Equal(st) {
		p.runs[k-1].End = p.length
		return nil
	}
	p.runs = append(p.runs, format.Run{Start: start, End: p.length, Style: st})
	return nil
}
