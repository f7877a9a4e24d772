package main

import (
	"flag"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// runConfig prints the effective settings and the layer each came from.
func runConfig(a *app, args []string) error {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	asJSON := fs.Bool("json", false, "Print the settings as JSON without origins")
	fs.Usage = func() {
		fmt.Fprintf(a.stderr, "Usage: folio config [-json] [prefix]\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() > 1 {
		fs.Usage()
		return errUsage
	}
	prefix := fs.Arg(0)

	settings := a.cfg.Settings()
	if *asJSON {
		doc := "{}"
		for _, s := range settings {
			if !strings.HasPrefix(s.Path, prefix) {
				continue
			}
			var err error
			if doc, err = sjson.Set(doc, s.Path, s.Value); err != nil {
				return fmt.Errorf("encoding %s: %w", s.Path, err)
			}
		}
		_, err := a.stdout.Write(pretty.Pretty([]byte(doc)))
		return err
	}

	w := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SETTING\tVALUE\tORIGIN")
	for _, s := range settings {
		if strings.HasPrefix(s.Path, prefix) {
			fmt.Fprintf(w, "%s\t%v\t%s\n", s.Path, s.Value, s.Origin)
		}
	}
	return w.Flush()
}
