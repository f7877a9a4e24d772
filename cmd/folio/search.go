package main

import (
	"flag"
	"fmt"
	"text/tabwriter"

	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"github.com/dshills/folio/internal/editor"
)

// runFind lists or replaces the matches of a query in a document.
func runFind(a *app, args []string) error {
	fs := flag.NewFlagSet("find", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	ignoreCase := fs.Bool("i", false, "Match case-insensitively")
	word := fs.Bool("word", false, "Match whole words only")
	regex := fs.Bool("regex", false, "Treat the query as a regular expression")
	repl := fs.String("replace", "", "Replace every match; with -regex, $1 names a group")
	write := fs.Bool("w", false, "With -replace, write the result back to the file")
	fs.Usage = func() {
		fmt.Fprintf(a.stderr, "Usage: folio find [-i] [-word] [-regex] [-replace text [-w]] <query> <file | ->\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil || fs.NArg() != 2 {
		if err == nil {
			fs.Usage()
		}
		return errUsage
	}
	replacing := false
	fs.Visit(func(f *flag.Flag) { replacing = replacing || f.Name == "replace" })
	query, path := fs.Arg(0), fs.Arg(1)
	if *write && (!replacing || path == "-") {
		fs.Usage()
		return errUsage
	}

	ed, err := a.openDocument(path, 0)
	if err != nil {
		return err
	}
	opts := editor.SearchOptions{CaseSensitive: !*ignoreCase, WholeWord: *word, Regex: *regex}

	if !replacing {
		matches, err := ed.FindAll(query, opts)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
		for _, m := range matches {
			fmt.Fprintf(w, "%d:%d\t%q\n", m.Paragraph+1, m.Offset+1, m.Text)
		}
		return w.Flush()
	}

	n, err := ed.ReplaceAll(query, *repl, opts)
	if err != nil {
		return err
	}
	a.logger.Info("replaced matches", "query", query, "count", n)
	if *write {
		if n == 0 {
			return nil
		}
		return ed.SaveFile(path)
	}
	return ed.Save(a.stdout)
}

// runStats prints word, character and paragraph counts for a document.
func runStats(a *app, args []string) error {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	asJSON := fs.Bool("json", false, "Print JSON instead of text")
	fs.Usage = func() {
		fmt.Fprintf(a.stderr, "Usage: folio stats [-json] <file | ->\n\n")
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
	st := ed.Statistics()
	rows := []struct {
		key   string
		label string
		value int
	}{
		{"words", "Words", st.Words},
		{"characters", "Characters", st.Characters},
		{"characters_no_spaces", "Characters (no spaces)", st.CharactersNoSpaces},
		{"paragraphs", "Paragraphs", st.Paragraphs},
		{"reading_minutes", "Reading time (min)", st.ReadingMinutes},
	}

	if *asJSON {
		doc := "{}"
		for _, r := range rows {
			if doc, err = sjson.Set(doc, r.key, r.value); err != nil {
				return fmt.Errorf("encoding %s: %w", r.key, err)
			}
		}
		_, err := a.stdout.Write(pretty.Pretty([]byte(doc)))
		return err
	}
	w := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%d\n", r.label, r.value)
	}
	return w.Flush()
}
