package main

import (
	"flag"
	"fmt"
	"text/tabwriter"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"

	"github.com/dshills/folio/internal/config"
	"github.com/dshills/folio/internal/engine/format"
	"github.com/dshills/folio/internal/renderer/style"
	"github.com/dshills/folio/internal/stylestore"
)

// runStyles manages the user style store.
func runStyles(a *app, args []string) error {
	usage := func() {
		fmt.Fprintf(a.stderr, "Usage: folio styles <list | show | save | delete> [arguments]\n")
	}
	if len(args) == 0 {
		usage()
		return errUsage
	}
	switch args[0] {
	case "list":
		return a.stylesList()
	case "show":
		return a.stylesShow(args[1:])
	case "save":
		return a.stylesSave(args[1:])
	case "delete", "rm":
		return a.stylesDelete(args[1:])
	}
	usage()
	return errUsage
}

func (a *app) stylesList() error {
	base, err := config.LoadCatalog(nil, a.cfg.Styles.Catalog)
	if err != nil {
		return err
	}
	store, err := stylestore.Open(a.cfg.UserStorePath(), a.logger)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KIND\tID\tSOURCE\tNAME")
	list := func(kind stylestore.Kind, builtin []string, name func(style.Catalog, string) string) {
		user := make(map[string]bool)
		for _, id := range store.IDs(kind) {
			user[id] = true
			fmt.Fprintf(w, "%s\t%s\tuser\t%s\n", kind, id, name(store, id))
		}
		for _, id := range builtin {
			src := "builtin"
			if user[id] {
				src = "builtin (shadowed)"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", kind, id, src, name(base, id))
		}
	}
	list(stylestore.Paragraph, base.ParagraphIDs(), func(c style.Catalog, id string) string {
		s, _ := c.ParagraphStyle(id)
		return s.Name
	})
	list(stylestore.Character, base.CharacterIDs(), func(c style.Catalog, id string) string {
		s, _ := c.CharacterStyle(id)
		return s.Name
	})
	return w.Flush()
}

func (a *app) stylesShow(args []string) error {
	fs := flag.NewFlagSet("styles show", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	para := fs.Bool("paragraph", false, "Show a paragraph style")
	if err := fs.Parse(args); err != nil || fs.NArg() != 1 {
		fmt.Fprintf(a.stderr, "Usage: folio styles show [-paragraph] <id>\n")
		return errUsage
	}
	store, err := stylestore.Open(a.cfg.UserStorePath(), a.logger)
	if err != nil {
		return err
	}
	kind := stylestore.Character
	if *para {
		kind = stylestore.Paragraph
	}
	r := gjson.GetBytes(store.Bytes(), string(kind)+"."+fs.Arg(0))
	if !r.Exists() {
		return fmt.Errorf("%s style %q: %w", kind, fs.Arg(0), stylestore.ErrStyleNotFound)
	}
	_, err = a.stdout.Write(pretty.Pretty([]byte(r.Raw)))
	return err
}

// stylesSave stores a style built from flags, or from a range of a
// document with -from.
func (a *app) stylesSave(args []string) error {
	fs := flag.NewFlagSet("styles save", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	var (
		para    = fs.Bool("paragraph", false, "Save a paragraph style")
		name    = fs.String("name", "", "Display name")
		basedOn = fs.String("based-on", "", "Parent style id")
		from    = fs.String("from", "", "Take the look of a range of this KML document")
		start   = fs.Int("start", 0, "Range start with -from")
		end     = fs.Int("end", -1, "Range end with -from (default: document end)")
		align   = fs.String("align", "", "Paragraph alignment (left, center, right, justify)")

		bold      = fs.Bool("bold", false, "Bold")
		italic    = fs.Bool("italic", false, "Italic")
		underline = fs.Bool("underline", false, "Underline")
		strike    = fs.Bool("strikethrough", false, "Strikethrough")
		family    = fs.String("font", "", "Font family")
		size      = fs.Float64("size", 0, "Font size in points")
		fg        = fs.String("color", "", "Text colour, #rrggbb")
		bg        = fs.String("background", "", "Background colour, #rrggbb")
	)
	fs.Usage = func() {
		fmt.Fprintf(a.stderr, "Usage: folio styles save [flags] <id>\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil || fs.NArg() != 1 {
		if err == nil {
			fs.Usage()
		}
		return errUsage
	}
	id := fs.Arg(0)

	if *from != "" {
		if *para {
			return fmt.Errorf("-from saves character styles only")
		}
		return a.saveFromDocument(*from, *start, *end, id, *name)
	}

	// Only flags given on the command line become attributes.
	st := format.Empty()
	var err error
	fs.Visit(func(f *flag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case "bold":
			st = st.WithBold(*bold)
		case "italic":
			st = st.WithItalic(*italic)
		case "underline":
			st = st.WithUnderline(*underline)
		case "strikethrough":
			st = st.WithStrikethrough(*strike)
		case "font":
			st = st.WithFontFamily(*family)
		case "size":
			if *size <= 0 {
				err = fmt.Errorf("size must be positive, got %g", *size)
				return
			}
			st = st.WithFontSize(*size)
		case "color":
			var c format.Color
			if c, err = format.ParseColor(*fg); err == nil {
				st = st.WithForeground(c)
			}
		case "background":
			var c format.Color
			if c, err = format.ParseColor(*bg); err == nil {
				st = st.WithBackground(c)
			}
		}
	})
	if err != nil {
		return err
	}

	store, err := stylestore.Open(a.cfg.UserStorePath(), a.logger)
	if err != nil {
		return err
	}
	if *para {
		ps := style.ParagraphStyle{ID: id, Name: *name, BasedOn: *basedOn, Text: st}
		if *align != "" {
			if ps.Align, err = format.ParseAlignment(*align); err != nil {
				return err
			}
		}
		if err := store.SaveParagraph(ps); err != nil {
			return err
		}
	} else {
		cs := style.CharacterStyle{ID: id, Name: *name, BasedOn: *basedOn, Style: st}
		if err := store.SaveCharacter(cs); err != nil {
			return err
		}
	}
	a.logger.Info("saved style", "id", id, "path", store.Path())
	return nil
}

func (a *app) saveFromDocument(path string, start, end int, id, name string) error {
	ed, err := a.openDocument(path, 0)
	if err != nil {
		return err
	}
	if end < 0 {
		end = ed.Document().Len()
	}
	if err := ed.SetSelection(start, end); err != nil {
		return err
	}
	cs, err := ed.SaveStyleFromSelection(id, name)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "%s: %s\n", cs.ID, cs.Style)
	return nil
}

func (a *app) stylesDelete(args []string) error {
	fs := flag.NewFlagSet("styles delete", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	para := fs.Bool("paragraph", false, "Delete a paragraph style")
	if err := fs.Parse(args); err != nil || fs.NArg() == 0 {
		fmt.Fprintf(a.stderr, "Usage: folio styles delete [-paragraph] <id>...\n")
		return errUsage
	}
	store, err := stylestore.Open(a.cfg.UserStorePath(), a.logger)
	if err != nil {
		return err
	}
	kind := stylestore.Character
	if *para {
		kind = stylestore.Paragraph
	}
	for _, id := range fs.Args() {
		if err := store.Delete(kind, id); err != nil {
			return err
		}
	}
	return nil
}
