package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/folio/internal/config/loader"
	"github.com/dshills/folio/internal/engine/format"
	"github.com/dshills/folio/internal/renderer/style"
)

//go:embed builtin_styles.toml
var builtinStyles []byte

type catalogFile struct {
	Paragraph []paragraphEntry `toml:"paragraph"`
	Character []characterEntry `toml:"character"`
}

type inlineEntry struct {
	Bold          *bool    `toml:"bold"`
	Italic        *bool    `toml:"italic"`
	Underline     *bool    `toml:"underline"`
	Strikethrough *bool    `toml:"strikethrough"`
	Subscript     *bool    `toml:"subscript"`
	Superscript   *bool    `toml:"superscript"`
	FontFamily    string   `toml:"font_family"`
	FontSize      *float64 `toml:"font_size"`
	Color         string   `toml:"color"`
	Background    string   `toml:"background"`
}

type characterEntry struct {
	ID      string `toml:"id"`
	Name    string `toml:"name"`
	BasedOn string `toml:"based_on"`
	inlineEntry
}

type paragraphEntry struct {
	ID      string `toml:"id"`
	Name    string `toml:"name"`
	BasedOn string `toml:"based_on"`
	Align   string `toml:"align"`

	FirstLineIndent *float64 `toml:"first_line_indent"`
	LeftMargin      *float64 `toml:"left_margin"`
	RightMargin     *float64 `toml:"right_margin"`
	SpaceBefore     *float64 `toml:"space_before"`
	SpaceAfter      *float64 `toml:"space_after"`
	LineHeight      *float64 `toml:"line_height"`

	inlineEntry
}

func (e inlineEntry) style() (format.InlineStyle, error) {
	var st format.InlineStyle
	for _, f := range []struct {
		attr format.Attr
		v    *bool
	}{
		{format.AttrBold, e.Bold},
		{format.AttrItalic, e.Italic},
		{format.AttrUnderline, e.Underline},
		{format.AttrStrikethrough, e.Strikethrough},
		{format.AttrSubscript, e.Subscript},
		{format.AttrSuperscript, e.Superscript},
	} {
		if f.v != nil {
			st = st.WithFlag(f.attr, *f.v)
		}
	}
	if e.FontFamily != "" {
		st = st.WithFontFamily(e.FontFamily)
	}
	if e.FontSize != nil {
		if *e.FontSize <= 0 {
			return st, fmt.Errorf("font_size must be positive, got %g", *e.FontSize)
		}
		st = st.WithFontSize(*e.FontSize)
	}
	if e.Color != "" {
		c, err := format.ParseColor(e.Color)
		if err != nil {
			return st, err
		}
		st = st.WithForeground(c)
	}
	if e.Background != "" {
		c, err := format.ParseColor(e.Background)
		if err != nil {
			return st, err
		}
		st = st.WithBackground(c)
	}
	return st, nil
}

// BuiltinCatalog returns the styles bundled with folio.
func BuiltinCatalog() *style.MemoryCatalog {
	c, err := ParseCatalog("<builtin>", builtinStyles)
	if err != nil {
		panic(fmt.Sprintf("builtin style catalog: %v", err))
	}
	return c
}

// LoadCatalog reads a TOML style catalog. An empty path returns the
// built-in catalog.
//
//	[[paragraph]]
//	id = "quote"
//	based_on = "body"
//	italic = true
//	left_margin = 4.0
//
//	[[character]]
//	id = "code"
//	font_family = "Monospace"
func LoadCatalog(fsys loader.FileSystem, path string) (*style.MemoryCatalog, error) {
	if path == "" {
		return BuiltinCatalog(), nil
	}
	if fsys == nil {
		fsys = loader.DefaultFS()
	}
	data, err := fsys.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("style catalog %s: %w", path, err)
		}
		return nil, fmt.Errorf("reading style catalog %s: %w", path, err)
	}
	return ParseCatalog(path, data)
}

// ParseCatalog decodes a TOML style catalog. Every entry needs a unique id
// within its kind.
func ParseCatalog(source string, data []byte) (*style.MemoryCatalog, error) {
	var f catalogFile
	if err := toml.Unmarshal(data, &f); err != nil {
		perr := &loader.ParseError{Path: source, Message: err.Error(), Err: err}
		var de *toml.DecodeError
		if errors.As(err, &de) {
			perr.Line, perr.Column = de.Position()
		}
		return nil, perr
	}

	cat := style.NewMemoryCatalog()
	var errs []error
	seen := make(map[string]bool)
	for i, e := range f.Paragraph {
		path := fmt.Sprintf("paragraph[%d]", i)
		if e.ID == "" || seen["p:"+e.ID] {
			errs = append(errs, &ValidationError{Path: path + ".id", Message: "must be present and unique", Value: e.ID})
			continue
		}
		seen["p:"+e.ID] = true
		ps, err := e.paragraphStyle()
		if err != nil {
			errs = append(errs, &ValidationError{Path: path, Message: err.Error(), Value: e.ID})
			continue
		}
		cat.PutParagraph(ps)
	}
	for i, e := range f.Character {
		path := fmt.Sprintf("character[%d]", i)
		if e.ID == "" || seen["c:"+e.ID] {
			errs = append(errs, &ValidationError{Path: path + ".id", Message: "must be present and unique", Value: e.ID})
			continue
		}
		seen["c:"+e.ID] = true
		st, err := e.style()
		if err != nil {
			errs = append(errs, &ValidationError{Path: path, Message: err.Error(), Value: e.ID})
			continue
		}
		cat.PutCharacter(style.CharacterStyle{ID: e.ID, Name: e.Name, BasedOn: e.BasedOn, Style: st})
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	return cat, nil
}

func (e paragraphEntry) paragraphStyle() (style.ParagraphStyle, error) {
	st, err := e.style()
	if err != nil {
		return style.ParagraphStyle{}, err
	}
	align, err := format.ParseAlignment(e.Align)
	if err != nil {
		return style.ParagraphStyle{}, err
	}
	return style.ParagraphStyle{
		ID:              e.ID,
		Name:            e.Name,
		BasedOn:         e.BasedOn,
		Text:            st,
		Align:           align,
		FirstLineIndent: e.FirstLineIndent,
		LeftMargin:      e.LeftMargin,
		RightMargin:     e.RightMargin,
		SpaceBefore:     e.SpaceBefore,
		SpaceAfter:      e.SpaceAfter,
		LineHeight:      e.LineHeight,
	}, nil
}
