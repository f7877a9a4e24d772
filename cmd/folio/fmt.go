package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"os"
)

// runFmt rewrites documents in canonical KML, like gofmt.
func runFmt(a *app, args []string) error {
	fs := flag.NewFlagSet("fmt", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	write := fs.Bool("w", false, "Write the result back to the source file")
	list := fs.Bool("l", false, "List files whose formatting differs")
	fs.Usage = func() {
		fmt.Fprintf(a.stderr, "Usage: folio fmt [-w] [-l] [files...]\n\n")
		fmt.Fprintf(a.stderr, "With no files, reads standard input and writes standard output.\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	if fs.NArg() == 0 {
		if *write {
			return errors.New("cannot use -w with standard input")
		}
		ed, err := a.newEditor(0)
		if err != nil {
			return err
		}
		if err := ed.Load(a.stdin); err != nil {
			return err
		}
		return ed.Save(a.stdout)
	}

	var failed bool
	for _, path := range fs.Args() {
		if err := a.fmtFile(path, *write, *list); err != nil {
			a.logger.Error("format failed", "path", path, "err", err)
			failed = true
		}
	}
	if failed {
		return errors.New("some files could not be formatted")
	}
	return nil
}

func (a *app) fmtFile(path string, write, list bool) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	ed, err := a.newEditor(0)
	if err != nil {
		return err
	}
	if err := ed.Load(bytes.NewReader(src)); err != nil {
		return err
	}
	var out bytes.Buffer
	if err := ed.Save(&out); err != nil {
		return err
	}
	changed := !bytes.Equal(src, out.Bytes())
	if list && changed {
		fmt.Fprintln(a.stdout, path)
	}
	switch {
	case write && changed:
		a.logger.Debug("rewriting document", "path", path, "paragraphs", ed.Document().ParagraphCount())
		return ed.SaveFile(path)
	case !write && !list:
		_, err := a.stdout.Write(out.Bytes())
		return err
	}
	return nil
}
