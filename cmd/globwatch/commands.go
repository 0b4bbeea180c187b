package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/0xmhha/globwatch/pkg/config"
	"github.com/0xmhha/globwatch/pkg/display"
	"github.com/0xmhha/globwatch/pkg/glob"
	"github.com/0xmhha/globwatch/pkg/journal"
	"github.com/0xmhha/globwatch/pkg/logger"
	"github.com/0xmhha/globwatch/pkg/metrics"
	"github.com/0xmhha/globwatch/pkg/sanewatch"
	"github.com/0xmhha/globwatch/pkg/watcher"
)

const (
	// sessionHistory bounds the in-memory journal used when persistence is off.
	sessionHistory = 1000

	// warnInterval spaces out repeated journal write warnings.
	warnInterval = 10 * time.Second
)

// watchCommand watches globs and prints delivered events.
type watchCommand struct {
	debounceMs  int // -1 keeps the configured value
	events      []watcher.Kind
	quiet       bool
	poll        bool
	shared      bool
	journalPath string
	metricsAddr string
	format      string
	timestamps  bool
	globs       []string
	configPath  string
	out         io.Writer
}

// Execute runs the watch command until ctx is cancelled.
func (c *watchCommand) Execute(ctx context.Context) error {
	cfg, err := config.NewLoader(c.configPath).Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	c.applyFlags(cfg)

	format, err := display.ParseFormat(c.format)
	if err != nil {
		return err
	}

	log := logger.New(cfg.LoggerConfig())

	store, err := c.openStore(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("failed to close journal", "error", err)
		}
	}()

	formatter := display.New(display.Config{
		Format:         format,
		ShowTimestamps: c.timestamps,
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	var m *metrics.Metrics
	if cfg.Metrics.Addr != "" {
		m = metrics.New()
		g.Go(func() error {
			return m.Serve(ctx, cfg.Metrics.Addr, log)
		})
	}

	var mu sync.Mutex
	delivered := 0
	recordWarn := rate.Sometimes{First: 3, Interval: warnInterval}
	handle := func(ev watcher.Event) {
		mu.Lock()
		defer mu.Unlock()

		delivered++
		if m != nil {
			m.Observe(ev)
		}
		if err := store.Record(ev); err != nil {
			recordWarn.Do(func() {
				log.Warn("failed to record event", "error", err)
			})
		}
		if err := formatter.FormatEvent(c.out, journal.FromEvent(ev)); err != nil {
			log.Warn("failed to print event", "error", err)
		}
	}

	wc := cfg.ToWatchConfig(log)
	wc.OnError = func(err error) {
		if m != nil {
			m.ObserveError()
		}
		log.Error("watch error", "error", err)
	}

	handles, err := sanewatch.WatchFunc(ctx, cfg.Globs, wc, handle)
	if err != nil {
		cancel()
		_ = g.Wait()
		return err
	}
	if m != nil {
		m.SetWatchers(len(handles))
	}
	log.Debug("watching", "globs", len(handles))

	g.Go(func() error {
		<-ctx.Done()
		if err := sanewatch.CloseAll(handles); err != nil {
			log.Error("failed to close watchers", "error", err)
		}
		return nil
	})

	err = g.Wait()

	mu.Lock()
	log.Debug("stopped", "events", delivered)
	mu.Unlock()

	return err
}

// applyFlags overrides cfg with the flags that were set.
func (c *watchCommand) applyFlags(cfg *config.Config) {
	if len(c.globs) > 0 {
		cfg.Globs = c.globs
	}
	if c.debounceMs >= 0 {
		cfg.DebounceMs = c.debounceMs
	}
	if c.events != nil {
		cfg.Events = c.events
	}
	if c.quiet {
		verbose := false
		cfg.Verbose = &verbose
	}
	if c.poll {
		cfg.Watcher.Poll = true
	}
	if c.shared {
		cfg.SharedDebounce = true
	}
	if c.journalPath != "" {
		cfg.Journal.Enabled = true
		cfg.Journal.Path = c.journalPath
	}
	if c.metricsAddr != "" {
		cfg.Metrics.Addr = c.metricsAddr
	}
}

// openStore opens the persistent journal when enabled, or a bounded
// in-memory one otherwise.
func (c *watchCommand) openStore(cfg *config.Config, log logger.Logger) (journal.Store, error) {
	if !cfg.Journal.Enabled {
		return journal.NewMemoryStore(sessionHistory), nil
	}

	store, err := journal.Open(journal.Config{DBPath: cfg.Journal.Path}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	return store, nil
}

// parseKinds parses a comma-separated list of event kinds. An empty
// string returns nil, which selects the defaults.
func parseKinds(s string) ([]watcher.Kind, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}

	var kinds []watcher.Kind
	for _, part := range strings.Split(s, ",") {
		kind, err := watcher.ParseKind(part)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}

// resolveCommand prints the base and pattern of each glob.
type resolveCommand struct {
	format  string
	compact bool
	globs   []string
	out     io.Writer
}

// Execute runs the resolve command.
func (c *resolveCommand) Execute() error {
	if len(c.globs) == 0 {
		return sanewatch.ErrMissingGlob
	}

	format, err := display.ParseFormat(c.format)
	if err != nil {
		return err
	}

	rows := make([]display.ResolvedRow, 0, len(c.globs))
	for _, g := range c.globs {
		r, err := glob.Resolve(g)
		if err != nil {
			return fmt.Errorf("failed to resolve %q: %w", g, err)
		}
		rows = append(rows, display.ResolvedRow{Glob: g, Base: r.Base, Pattern: r.Pattern})
	}

	formatter := display.New(display.Config{Format: format, Compact: c.compact})
	return formatter.FormatResolved(c.out, rows)
}

// historyCommand prints events recorded in the journal.
type historyCommand struct {
	n           int
	format      string
	journalPath string
	file        string
	clear       bool
	compact     bool
	configPath  string
	out         io.Writer
}

// Execute runs the history command.
func (c *historyCommand) Execute() error {
	format, err := display.ParseFormat(c.format)
	if err != nil {
		return err
	}

	cfg, err := config.NewLoader(c.configPath).Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	path := c.journalPath
	if path == "" {
		path = cfg.Journal.Path
	}

	log := logger.New(cfg.LoggerConfig())

	store, err := journal.Open(journal.Config{DBPath: path}, log)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("failed to close journal", "error", err)
		}
	}()

	if c.clear {
		if err := store.Clear(); err != nil {
			return fmt.Errorf("failed to clear journal: %w", err)
		}
		_, err := fmt.Fprintf(c.out, "Journal cleared: %s\n", path)
		return err
	}

	var entries []journal.Entry
	if c.file != "" {
		entry, err := store.Latest(c.file)
		switch {
		case errors.Is(err, journal.ErrNotFound):
			_, err = fmt.Fprintf(c.out, "No events recorded for %s\n", c.file)
			return err
		case err != nil:
			return err
		}
		entries = []journal.Entry{entry}
	} else {
		entries, err = store.Recent(c.n)
		if err != nil {
			return err
		}
	}

	formatter := display.New(display.Config{
		Format:         format,
		ShowTimestamps: true,
		Compact:        c.compact,
	})
	return formatter.FormatEvents(c.out, entries)
}
