// Package main provides the globwatch CLI application.
//
// globwatch watches glob patterns, prints normalized add/change/delete
// notifications as they are delivered, and optionally records them in a
// persistent journal.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

// version is set during build time.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// run executes the main application logic.
func run(ctx context.Context, args []string, out io.Writer) error {
	// Define global flags.
	fs := flag.NewFlagSet("globwatch", flag.ContinueOnError)
	fs.SetOutput(out)
	configPath := fs.String("config", "", "path to configuration file")
	showVersion := fs.Bool("version", false, "show version information")

	if err := fs.Parse(args); err != nil {
		return err
	}

	// Handle version flag.
	if *showVersion {
		fmt.Fprintf(out, "globwatch %s\n", version)
		return nil
	}

	// Get command.
	rest := fs.Args()
	if len(rest) == 0 {
		return showUsage(out)
	}

	command := rest[0]

	switch command {
	case "watch":
		return runWatchCommand(ctx, *configPath, rest[1:], out)
	case "resolve":
		return runResolveCommand(rest[1:], out)
	case "history":
		return runHistoryCommand(*configPath, rest[1:], out)
	case "config":
		return runConfigCommand(*configPath, rest[1:], out)
	case "help":
		return showUsage(out)
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

// runWatchCommand runs the watch command.
func runWatchCommand(ctx context.Context, configPath string, args []string, out io.Writer) error {
	cmd, err := parseWatchFlags(args)
	if err != nil {
		return err
	}
	cmd.configPath = configPath
	cmd.out = out
	return cmd.Execute(ctx)
}

// parseWatchFlags defines and parses the watch-specific flags.
func parseWatchFlags(args []string) (*watchCommand, error) {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	debounce := fs.Int("debounce", -1, "debounce window in milliseconds (default: from config)")
	events := fs.String("events", "", "comma-separated event kinds (add,change,delete,ready)")
	quiet := fs.Bool("quiet", false, "do not log raw events")
	poll := fs.Bool("poll", false, "poll the filesystem instead of using notifications")
	shared := fs.Bool("shared-debounce", false, "share debounce timers across globs")
	journalPath := fs.String("journal", "", "record events in the journal at this path")
	metricsAddr := fs.String("metrics", "", "serve Prometheus metrics on this address")
	format := fs.String("format", "table", "output format (table, json, simple)")
	timestamps := fs.Bool("timestamps", true, "prefix events with their time")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	kinds, err := parseKinds(*events)
	if err != nil {
		return nil, err
	}

	return &watchCommand{
		debounceMs:  *debounce,
		events:      kinds,
		quiet:       *quiet,
		poll:        *poll,
		shared:      *shared,
		journalPath: *journalPath,
		metricsAddr: *metricsAddr,
		format:      *format,
		timestamps:  *timestamps,
		globs:       fs.Args(),
	}, nil
}

// runResolveCommand runs the resolve command.
func runResolveCommand(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("resolve", flag.ContinueOnError)
	format := fs.String("format", "table", "output format (table, json, simple)")
	compact := fs.Bool("compact", false, "compact output")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cmd := &resolveCommand{
		format:  *format,
		compact: *compact,
		globs:   fs.Args(),
		out:     out,
	}
	return cmd.Execute()
}

// runHistoryCommand runs the history command.
func runHistoryCommand(configPath string, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	n := fs.Int("n", 20, "number of entries to show (0 for all)")
	format := fs.String("format", "table", "output format (table, json, simple)")
	journalPath := fs.String("journal", "", "journal path (default: from config)")
	file := fs.String("file", "", "show only the latest event for this path")
	clearAll := fs.Bool("clear", false, "delete all entries")
	compact := fs.Bool("compact", false, "compact output")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cmd := &historyCommand{
		n:           *n,
		format:      *format,
		journalPath: *journalPath,
		file:        *file,
		clear:       *clearAll,
		compact:     *compact,
		configPath:  configPath,
		out:         out,
	}
	return cmd.Execute()
}

// runConfigCommand runs the config command.
func runConfigCommand(configPath string, args []string, out io.Writer) error {
	cmd := &configCommand{
		configPath: configPath,
		out:        out,
	}
	return cmd.Execute(args)
}

// showUsage displays usage information.
func showUsage(out io.Writer) error {
	usage := `globwatch - watch glob patterns for file changes

Usage:
  globwatch [flags] <command> [command flags] [globs...]

Commands:
  watch       Watch globs and print delivered events
  resolve     Show the base directory and pattern of each glob
  history     Show events recorded in the journal
  config      Configuration management (show, path, init)
  help        Show this help message

Global Flags:
  -config     Path to configuration file
  -version    Show version information

Watch Command Flags:
  -debounce          Debounce window in milliseconds
  -events            Comma-separated kinds: add,change,delete,ready
  -quiet             Do not log raw events
  -poll              Poll instead of using filesystem notifications
  -shared-debounce   Share debounce timers across globs
  -journal           Record events in the journal at this path
  -metrics           Serve Prometheus metrics on this address
  -format            Output format (table, json, simple)
  -timestamps        Prefix events with their time (default: true)

History Command Flags:
  -n          Number of entries to show (default: 20, 0 for all)
  -file       Show only the latest event for a path
  -clear      Delete all entries
  -journal    Journal path
  -format     Output format (table, json, simple)

Examples:
  # Watch Go sources with a 300ms debounce
  globwatch watch -debounce 300 'src/**/*.go'

  # Watch two globs, reporting additions only
  globwatch watch -events add 'assets/*.{png,jpg}' '*.md'

  # Record events and inspect them later
  globwatch watch -journal ~/.config/globwatch/journal.db 'src/**'
  globwatch history -n 50

  # Expose event counters for Prometheus
  globwatch watch -metrics 127.0.0.1:9109 'src/**'

  # Show how a glob is split
  globwatch resolve 'src/{app,lib}/**/*.ts'

Version: %s
`

	_, err := fmt.Fprintf(out, usage, version)
	return err
}
