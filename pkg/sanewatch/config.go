// Package sanewatch watches glob patterns and delivers normalized,
// optionally debounced add/change/delete/ready notifications.
//
// Every glob is split into a static base directory and a relative pattern
// (see package glob); one watcher.Watcher is created per glob and its raw
// notifications are bridged to the handlers of a Config.
//
// Example usage:
//
//	handles, err := sanewatch.WatchFunc(ctx, []string{"src/**/*.go", "*.yaml"},
//	    sanewatch.Config{DebounceMs: 300},
//	    func(ev watcher.Event) {
//	        fmt.Println(ev.Kind, ev.Path())
//	    })
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer sanewatch.CloseAll(handles)
//
// Handlers of different globs may run concurrently, and debounced handlers
// run on timer goroutines; handlers must be safe for concurrent use.
package sanewatch

import (
	"fmt"
	"time"

	"github.com/0xmhha/globwatch/pkg/logger"
	"github.com/0xmhha/globwatch/pkg/watcher"
)

// Handler receives one delivered event.
type Handler func(ev watcher.Event)

// Config configures a Watch call. The zero value is valid: debounce is
// off, logging is on, and delete, change and add events are delivered to
// whichever per-kind handlers are set.
type Config struct {
	// DebounceMs is the trailing-edge debounce window in milliseconds.
	// 0 disables debouncing.
	DebounceMs int

	// Verbose logs one line per raw event. nil means true.
	Verbose *bool

	// Events lists the kinds to deliver. nil means delete, change, add.
	Events []watcher.Kind

	// Per-kind handlers. Unset kinds are not subscribed.
	OnChange Handler
	OnAdd    Handler
	OnDelete Handler
	OnReady  Handler

	// OnError receives runtime errors of every watcher.
	OnError func(error)

	// Watcher is passed to every watcher.New call. Its Pattern is always
	// replaced by the pattern resolved from the glob.
	Watcher watcher.Options

	// SharedDebounce makes all globs of one call share a single debounce
	// timer per kind instead of one per glob.
	SharedDebounce bool

	// Logger receives verbose event lines and watcher diagnostics.
	// Default: logger.Default().
	Logger logger.Logger
}

// Bool returns a pointer to v, for Config.Verbose.
func Bool(v bool) *bool {
	return &v
}

// DefaultEvents returns a fresh copy of the default event selection.
func DefaultEvents() []watcher.Kind {
	return []watcher.Kind{watcher.KindDelete, watcher.KindChange, watcher.KindAdd}
}

// settings is a Config resolved against the defaults.
type settings struct {
	debounce    time.Duration
	verbose     bool
	events      [watcher.NumKinds]bool
	handlers    [watcher.NumKinds]Handler
	onError     func(error)
	watcherOpts watcher.Options
	shared      bool
	log         logger.Logger
}

// resolveConfig merges cfg over the defaults and applies merged, if set,
// to every selected kind. A new value is built on every call.
func resolveConfig(cfg Config, merged Handler) (settings, error) {
	if cfg.DebounceMs < 0 {
		return settings{}, fmt.Errorf("%w: %d", ErrInvalidDebounce, cfg.DebounceMs)
	}

	s := settings{
		debounce:    time.Duration(cfg.DebounceMs) * time.Millisecond,
		verbose:     true,
		onError:     cfg.OnError,
		watcherOpts: cfg.Watcher,
		shared:      cfg.SharedDebounce,
		log:         cfg.Logger,
	}
	if cfg.Verbose != nil {
		s.verbose = *cfg.Verbose
	}
	if s.log == nil {
		s.log = logger.Default()
	}
	if cfg.Watcher.Ignored != nil {
		s.watcherOpts.Ignored = append([]string(nil), cfg.Watcher.Ignored...)
	}

	events := cfg.Events
	if events == nil {
		events = DefaultEvents()
	}
	for _, kind := range events {
		if int(kind) >= watcher.NumKinds {
			return settings{}, fmt.Errorf("%w: %d", watcher.ErrUnknownKind, kind)
		}
		s.events[kind] = true
	}

	s.handlers[watcher.KindChange] = cfg.OnChange
	s.handlers[watcher.KindAdd] = cfg.OnAdd
	s.handlers[watcher.KindDelete] = cfg.OnDelete
	s.handlers[watcher.KindReady] = cfg.OnReady

	if merged != nil {
		for kind, selected := range s.events {
			if selected {
				s.handlers[kind] = merged
			}
		}
	}

	return s, nil
}

// subscribed reports whether kind is both selected and handled.
func (s settings) subscribed(kind watcher.Kind) bool {
	return s.events[kind] && s.handlers[kind] != nil
}
