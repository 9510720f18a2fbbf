// Package main is the entry point for the veil command.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/veil/internal/app"
	"github.com/dshills/veil/internal/codec"
	"github.com/dshills/veil/internal/term"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// cli carries the parsed global flags and streams for one invocation.
type cli struct {
	opts   app.Options
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

type command struct {
	usage string
	help  string
	nargs int // exact argument count, -1 for any
	run   func(ctx context.Context, c *cli, args []string) error
}

var commands = map[string]command{
	"encode": {"encode [TEXT...]", "Obfuscate TEXT or standard input", -1, runEncode},
	"decode": {"decode [TEXT...]", "Deobfuscate TEXT or standard input", -1, runDecode},
	"list":   {"list FILE", "List secret regions with their obfuscated display", 1, runList},
	"show":   {"show FILE", "Print FILE with regions replaced by their display", 1, runShow},
	"set":    {"set FILE N TEXT", "Write obfuscated TEXT into region N and save", 3, runSet},
	"edit":   {"edit FILE", "Edit each region interactively in the terminal", 1, runEdit},
	"watch":  {"watch FILE", "Print the rendered view whenever FILE changes", 1, runWatch},
}

var commandOrder = []string{"encode", "decode", "list", "show", "set", "edit", "watch"}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	c := &cli{stdin: stdin, stdout: stdout, stderr: stderr}
	c.opts.LogOutput = stderr

	fs := flag.NewFlagSet("veil", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var showVersion bool
	fs.StringVar(&c.opts.ConfigPath, "config", "", "Path to configuration file (.toml, .yaml)")
	fs.StringVar(&c.opts.ConfigPath, "c", "", "Path to configuration file (shorthand)")
	fs.StringVar(&c.opts.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&c.opts.PluginDir, "plugins", "", "Directory of Lua plugins")
	fs.BoolVar(&c.opts.NoPlugins, "no-plugins", false, "Do not load Lua plugins")
	fs.BoolVar(&showVersion, "version", false, "Show version information")
	fs.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	fs.Usage = func() { usage(fs, stderr) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if showVersion {
		fmt.Fprintf(stdout, "veil %s\n", version)
		fmt.Fprintf(stdout, "Commit: %s\n", commit)
		fmt.Fprintf(stdout, "Built: %s\n", date)
		return 0
	}

	switch c.opts.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		fmt.Fprintf(stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", c.opts.LogLevel)
		return 2
	}

	rest := fs.Args()
	if len(rest) == 0 {
		usage(fs, stderr)
		return 2
	}
	cmd, ok := commands[rest[0]]
	if !ok {
		fmt.Fprintf(stderr, "Error: unknown command %q\n\n", rest[0])
		usage(fs, stderr)
		return 2
	}
	if cmd.nargs >= 0 && len(rest)-1 != cmd.nargs {
		fmt.Fprintf(stderr, "Usage: veil %s\n", cmd.usage)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.run(ctx, c, rest[1:]); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func usage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintf(w, "veil - view and edit <secret> regions in reversed form\n\n")
	fmt.Fprintf(w, "Usage: veil [options] <command> [args]\n\n")
	fmt.Fprintf(w, "Commands:\n")
	for _, name := range commandOrder {
		cmd := commands[name]
		fmt.Fprintf(w, "  %-18s %s\n", cmd.usage, cmd.help)
	}
	fmt.Fprintf(w, "\nOptions:\n")
	fs.PrintDefaults()
	fmt.Fprintf(w, "\nExamples:\n")
	fmt.Fprintf(w, "  veil encode secret          Prints terces\n")
	fmt.Fprintf(w, "  veil list notes.md          List regions\n")
	fmt.Fprintf(w, "  veil set notes.md 1 2retnuh Store hunter2 in region 1\n")
}

// openSession starts the application and opens path.
func (c *cli) openSession(ctx context.Context, path string) (*app.Application, *app.Session, error) {
	a, err := app.New(ctx, c.opts)
	if err != nil {
		return nil, nil, err
	}
	s, err := a.Open(ctx, path)
	if err != nil {
		_ = a.Close()
		return nil, nil, err
	}
	return a, s, nil
}

func runEncode(_ context.Context, c *cli, args []string) error {
	return transform(c, args, codec.Obfuscate)
}

func runDecode(_ context.Context, c *cli, args []string) error {
	return transform(c, args, codec.Deobfuscate)
}

// transform applies fn to the joined arguments, or to standard input with
// its trailing line ending (LF or CRLF) kept in place.
func transform(c *cli, args []string, fn func(string) string) error {
	if len(args) > 0 {
		fmt.Fprintln(c.stdout, fn(strings.Join(args, " ")))
		return nil
	}

	data, err := io.ReadAll(c.stdin)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	text := string(data)
	nl := ""
	for _, ending := range []string{"\r\n", "\n"} {
		if strings.HasSuffix(text, ending) {
			text, nl = strings.TrimSuffix(text, ending), ending
			break
		}
	}
	fmt.Fprint(c.stdout, fn(text)+nl)
	return nil
}

func runList(ctx context.Context, c *cli, args []string) error {
	a, s, err := c.openSession(ctx, args[0])
	if err != nil {
		return err
	}
	defer a.Close()

	ws, err := s.Widgets(ctx)
	if err != nil {
		return err
	}
	for _, w := range ws {
		loc := s.Locate(w.Region.ContentFrom)
		fmt.Fprintf(c.stdout, "%d\t%d:%d\t%d-%d\t%s\n",
			w.Index+1, loc.Line, loc.Col, w.Region.ContentFrom, w.Region.ContentTo, w.Display)
	}
	for _, loc := range s.Unterminated() {
		fmt.Fprintf(c.stderr, "warning: unterminated marker at %d:%d is not rendered\n", loc.Line, loc.Col)
	}
	return nil
}

func runShow(ctx context.Context, c *cli, args []string) error {
	a, s, err := c.openSession(ctx, args[0])
	if err != nil {
		return err
	}
	defer a.Close()

	view, err := s.View(ctx)
	if err != nil {
		return err
	}
	fmt.Fprint(c.stdout, view)
	return nil
}

func runSet(ctx context.Context, c *cli, args []string) error {
	n, err := strconv.Atoi(args[1])
	if err != nil || n < 1 {
		return fmt.Errorf("invalid region number %q", args[1])
	}

	a, s, err := c.openSession(ctx, args[0])
	if err != nil {
		return err
	}
	defer a.Close()

	w, err := s.Commit(ctx, n-1, args[2])
	if err != nil {
		return err
	}
	if _, err := s.Save(); err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "region %d: %s\n", n, w.Display)
	return nil
}

func runEdit(ctx context.Context, c *cli, args []string) error {
	a, s, err := c.openSession(ctx, args[0])
	if err != nil {
		return err
	}
	defer a.Close()

	ws, err := s.Widgets(ctx)
	if err != nil {
		return err
	}
	if len(ws) == 0 {
		fmt.Fprintln(c.stdout, "no regions")
		return nil
	}

	screen, err := openScreen()
	if err != nil {
		return err
	}

	changed, editErr := editRegions(ctx, screen, s, len(ws))
	screen.Fini()
	if editErr != nil {
		if changed == 0 {
			return editErr
		}
		if _, err := s.Save(); err != nil {
			return errors.Join(editErr, err)
		}
		fmt.Fprintf(c.stdout, "saved %d region(s) before the error\n", changed)
		return editErr
	}

	if changed == 0 {
		fmt.Fprintln(c.stdout, "no changes")
		return nil
	}
	if _, err := s.Save(); err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "saved %d region(s)\n", changed)
	return nil
}

// openScreen returns an initialised terminal screen for edit.
var openScreen = func() (tcell.Screen, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("creating terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("initialising terminal: %w", err)
	}
	return screen, nil
}

// editRegions prompts for each region in turn. Esc skips a region.
func editRegions(ctx context.Context, screen tcell.Screen, s *app.Session, count int) (int, error) {
	changed := 0
	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return changed, err
		}
		w, err := s.Extension().Widget(ctx, i)
		if err != nil {
			return changed, err
		}

		loc := s.Locate(w.Region.ContentFrom)
		label := fmt.Sprintf("region %d/%d (line %d)", i+1, count, loc.Line)
		value, ok, err := term.Prompt(screen, label, w.Display)
		if err != nil {
			return changed, err
		}
		if !ok || value == w.Display {
			continue
		}
		if _, err := s.CommitWidget(ctx, w, value); err != nil {
			return changed, err
		}
		changed++
	}
	return changed, nil
}

func runWatch(ctx context.Context, c *cli, args []string) error {
	a, s, err := c.openSession(ctx, args[0])
	if err != nil {
		return err
	}
	defer a.Close()

	return a.Watch(ctx, s, func(view string) {
		fmt.Fprintf(c.stdout, "--- %s %s ---\n", s.Document().Name(), time.Now().Format(time.TimeOnly))
		fmt.Fprint(c.stdout, view)
		if !strings.HasSuffix(view, "\n") {
			fmt.Fprintln(c.stdout)
		}
	})
}
