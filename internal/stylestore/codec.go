package stylestore

import (
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/dshills/folio/internal/engine/format"
	"github.com/dshills/folio/internal/renderer/style"
)

var flagKeys = []struct {
	attr format.Attr
	key  string
}{
	{format.AttrBold, "bold"},
	{format.AttrItalic, "italic"},
	{format.AttrUnderline, "underline"},
	{format.AttrStrikethrough, "strikethrough"},
	{format.AttrSubscript, "subscript"},
	{format.AttrSuperscript, "superscript"},
}

// geometryKeys maps JSON keys to paragraph geometry fields.
func geometryKeys(ps *style.ParagraphStyle) []struct {
	key string
	val **float64
} {
	return []struct {
		key string
		val **float64
	}{
		{"first_line_indent", &ps.FirstLineIndent},
		{"left_margin", &ps.LeftMargin},
		{"right_margin", &ps.RightMargin},
		{"space_before", &ps.SpaceBefore},
		{"space_after", &ps.SpaceAfter},
		{"line_height", &ps.LineHeight},
	}
}

func decodeInline(r gjson.Result) (format.InlineStyle, error) {
	var st format.InlineStyle
	for _, f := range flagKeys {
		if v := r.Get(f.key); v.Exists() {
			st = st.WithFlag(f.attr, v.Bool())
		}
	}
	if v := r.Get("font_family"); v.Exists() {
		st = st.WithFontFamily(v.String())
	}
	if v := r.Get("font_size"); v.Exists() {
		if v.Float() <= 0 {
			return st, fmt.Errorf("invalid font_size %s", v.Raw)
		}
		st = st.WithFontSize(v.Float())
	}
	if v := r.Get("color"); v.Exists() {
		c, err := format.ParseColor(v.String())
		if err != nil {
			return st, err
		}
		st = st.WithForeground(c)
	}
	if v := r.Get("background"); v.Exists() {
		c, err := format.ParseColor(v.String())
		if err != nil {
			return st, err
		}
		st = st.WithBackground(c)
	}
	return st, nil
}

func encodeInline(obj []byte, st format.InlineStyle) ([]byte, error) {
	var err error
	set := func(key string, v any) {
		if err == nil {
			obj, err = sjson.SetBytes(obj, key, v)
		}
	}
	for _, f := range flagKeys {
		if v, ok := st.Flag(f.attr); ok {
			set(f.key, v)
		}
	}
	if v, ok := st.FontFamily(); ok {
		set("font_family", v)
	}
	if v, ok := st.FontSize(); ok {
		set("font_size", v)
	}
	if c, ok := st.Foreground(); ok {
		set("color", c.Hex())
	}
	if c, ok := st.Background(); ok {
		set("background", c.Hex())
	}
	return obj, err
}

func encodeHeader(name, basedOn string) ([]byte, error) {
	obj := []byte(`{}`)
	var err error
	if name != "" {
		if obj, err = sjson.SetBytes(obj, "name", name); err != nil {
			return nil, err
		}
	}
	if basedOn != "" {
		if !validID.MatchString(basedOn) {
			return nil, fmt.Errorf("based_on %q: %w", basedOn, ErrInvalidID)
		}
		if obj, err = sjson.SetBytes(obj, "based_on", basedOn); err != nil {
			return nil, err
		}
	}
	return obj, nil
}

func decodeCharacter(id string, r gjson.Result) (style.CharacterStyle, error) {
	st, err := decodeInline(r)
	if err != nil {
		return style.CharacterStyle{}, err
	}
	return style.CharacterStyle{
		ID:      id,
		Name:    r.Get("name").String(),
		BasedOn: r.Get("based_on").String(),
		Style:   st.Without(format.AttrCharStyle),
	}, nil
}

func encodeCharacter(cs style.CharacterStyle) ([]byte, error) {
	obj, err := encodeHeader(cs.Name, cs.BasedOn)
	if err != nil {
		return nil, err
	}
	return encodeInline(obj, cs.Style)
}

func decodeParagraph(id string, r gjson.Result) (style.ParagraphStyle, error) {
	st, err := decodeInline(r)
	if err != nil {
		return style.ParagraphStyle{}, err
	}
	ps := style.ParagraphStyle{
		ID:      id,
		Name:    r.Get("name").String(),
		BasedOn: r.Get("based_on").String(),
		Text:    st,
	}
	if ps.Align, err = format.ParseAlignment(r.Get("align").String()); err != nil {
		return style.ParagraphStyle{}, err
	}
	for _, g := range geometryKeys(&ps) {
		if v := r.Get(g.key); v.Exists() {
			*g.val = style.Float(v.Float())
		}
	}
	return ps, nil
}

func encodeParagraph(ps style.ParagraphStyle) ([]byte, error) {
	obj, err := encodeHeader(ps.Name, ps.BasedOn)
	if err != nil {
		return nil, err
	}
	if obj, err = encodeInline(obj, ps.Text); err != nil {
		return nil, err
	}
	if ps.Align != format.AlignInherit {
		if obj, err = sjson.SetBytes(obj, "align", ps.Align.String()); err != nil {
			return nil, err
		}
	}
	for _, g := range geometryKeys(&ps) {
		if *g.val == nil {
			continue
		}
		if obj, err = sjson.SetBytes(obj, g.key, **g.val); err != nil {
			return nil, err
		}
	}
	return obj, nil
}
