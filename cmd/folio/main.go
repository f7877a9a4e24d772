// Package main is the folio command: it formats, inspects and views KML
// documents and manages user-defined styles.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// errUsage reports a bad command line; usage has already been printed.
var errUsage = errors.New("usage")

type command struct {
	name    string
	summary string
	run     func(a *app, args []string) error
}

var commands = []command{
	{"fmt", "Rewrite documents in canonical KML", runFmt},
	{"layout", "Print the line geometry of a document", runLayout},
	{"view", "Open a document in the terminal viewer", runView},
	{"styles", "List, save and delete user styles", runStyles},
	{"find", "Find or replace text in a document", runFind},
	{"stats", "Count words, characters and paragraphs", runStats},
	{"config", "Show effective settings and where they come from", runConfig},
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var g globals
	fs := flag.NewFlagSet("folio", flag.ContinueOnError)
	fs.SetOutput(stderr)
	g.register(fs)
	var showVersion bool
	fs.BoolVar(&showVersion, "version", false, "Show version information")
	fs.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Folio - rich-text document engine\n\n")
		fmt.Fprintf(stderr, "Usage: folio [options] <command> [arguments]\n\n")
		fmt.Fprintf(stderr, "Commands:\n")
		for _, c := range commands {
			fmt.Fprintf(stderr, "  %-8s %s\n", c.name, c.summary)
		}
		fmt.Fprintf(stderr, "\nOptions:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  folio fmt -w book.kml          Canonicalise a document in place\n")
		fmt.Fprintf(stderr, "  folio -set layout.width=60 layout book.kml\n")
		fmt.Fprintf(stderr, "  folio view book.kml            Open the viewer\n")
		fmt.Fprintf(stderr, "  folio styles list              Show built-in and user styles\n")
		fmt.Fprintf(stderr, "  folio config layout            Show layout settings and their origins\n")
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if showVersion {
		fmt.Fprintf(stdout, "Folio %s\n", version)
		fmt.Fprintf(stdout, "Commit: %s\n", commit)
		fmt.Fprintf(stdout, "Built: %s\n", date)
		return 0
	}
	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return 2
	}

	var cmd *command
	for i := range commands {
		if commands[i].name == rest[0] {
			cmd = &commands[i]
			break
		}
	}
	if cmd == nil {
		fmt.Fprintf(stderr, "Error: unknown command %q\n", rest[0])
		fs.Usage()
		return 2
	}

	a, err := newApp(g, stdin, stdout, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if err := cmd.run(a, rest[1:]); err != nil {
		if errors.Is(err, errUsage) {
			return 2
		}
		fmt.Fprintf(stderr, "Error: %s: %v\n", cmd.name, err)
		return 1
	}
	return 0
}

// globals holds the options shared by every command.
type globals struct {
	configPath  string
	projectPath string
	logLevel    string
	logFormat   string
	overrides   overrideFlag
}

func (g *globals) register(fs *flag.FlagSet) {
	fs.StringVar(&g.configPath, "config", "", "Path to the user configuration file")
	fs.StringVar(&g.configPath, "c", "", "Path to the user configuration file (shorthand)")
	fs.StringVar(&g.projectPath, "project", "folio.toml", "Path to the project configuration file")
	fs.StringVar(&g.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&g.logFormat, "log-format", "", "Log format (text, json)")
	fs.Var(&g.overrides, "set", "Override a setting, e.g. -set editor.undo_depth=50 (repeatable)")
}

// overrideFlag collects key=value settings. Values that parse as booleans
// or numbers are passed typed.
type overrideFlag map[string]any

func (o *overrideFlag) String() string {
	if o == nil || *o == nil {
		return ""
	}
	parts := make([]string, 0, len(*o))
	for k, v := range *o {
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	return strings.Join(parts, ",")
}

func (o *overrideFlag) Set(s string) error {
	key, val, ok := strings.Cut(s, "=")
	if !ok || key == "" {
		return fmt.Errorf("expected key=value, got %q", s)
	}
	if *o == nil {
		*o = make(overrideFlag)
	}
	(*o)[key] = parseValue(val)
	return nil
}

func parseValue(s string) any {
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
