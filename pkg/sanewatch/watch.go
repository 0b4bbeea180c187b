package sanewatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/0xmhha/globwatch/pkg/glob"
	"github.com/0xmhha/globwatch/pkg/logger"
	"github.com/0xmhha/globwatch/pkg/watcher"
)

var verbs = [watcher.NumKinds]string{
	watcher.KindChange: "1 file changed",
	watcher.KindAdd:    "1 file added",
	watcher.KindDelete: "1 file deleted",
	watcher.KindReady:  "ready",
}

// Watch starts one watcher per glob and delivers events to the per-kind
// handlers of cfg.
//
// globs must be a string, a []string, or a []any holding only strings (as
// decoded from YAML). Validation errors are returned before any watcher is
// created. If creating the watcher for one glob fails, the watchers already
// created are closed and the error is returned wrapped.
//
// The returned handles are in glob order. The caller owns them and must
// Close them; cancelling ctx closes them as well.
func Watch(ctx context.Context, globs any, cfg Config) ([]*watcher.Watcher, error) {
	return watch(ctx, globs, cfg, nil)
}

// WatchFunc is like Watch but delivers every selected kind to fn,
// replacing any per-kind handler set in cfg.
func WatchFunc(ctx context.Context, globs any, cfg Config, fn Handler) ([]*watcher.Watcher, error) {
	return watch(ctx, globs, cfg, fn)
}

func watch(ctx context.Context, globs any, cfg Config, merged Handler) ([]*watcher.Watcher, error) {
	patterns, err := ParseGlobs(globs)
	if err != nil {
		return nil, err
	}

	s, err := resolveConfig(cfg, merged)
	if err != nil {
		return nil, err
	}

	resolved := make([]glob.Resolved, len(patterns))
	for i, p := range patterns {
		r, resolveErr := glob.Resolve(p)
		if resolveErr != nil {
			return nil, fmt.Errorf("failed to resolve %q: %w", p, resolveErr)
		}
		resolved[i] = r
	}

	var shared *dispatcher
	if s.shared {
		shared = newDispatcher(s)
	}

	handles := make([]*watcher.Watcher, 0, len(resolved))
	for i, r := range resolved {
		opts := s.watcherOpts
		opts.Pattern = r.Pattern

		w, newErr := watcher.New(r.Base, opts, s.log)
		if newErr != nil {
			closeQuietly(handles, s.log)
			return nil, fmt.Errorf("failed to watch %q: %w", patterns[i], newErr)
		}

		d := shared
		if d == nil {
			d = newDispatcher(s)
		}
		s.bind(w, d)

		handles = append(handles, w)
	}

	for i, w := range handles {
		if startErr := w.Start(ctx); startErr != nil {
			closeQuietly(handles, s.log)
			return nil, fmt.Errorf("failed to start watcher for %q: %w", patterns[i], startErr)
		}
	}

	return handles, nil
}

// bind subscribes the bridge handlers of every selected and handled kind.
func (s settings) bind(w *watcher.Watcher, d *dispatcher) {
	for k := 0; k < watcher.NumKinds; k++ {
		kind := watcher.Kind(k)
		if !s.subscribed(kind) {
			continue
		}
		w.On(kind, func(ev watcher.Event) {
			if s.verbose {
				s.logEvent(ev)
			}
			d.deliver(w, ev)
		})
	}

	if s.onError != nil {
		w.OnError(s.onError)
	}

	w.OnClose(func() { d.cancel(w) })
}

func (s settings) logEvent(ev watcher.Event) {
	if ev.Kind == watcher.KindReady {
		s.log.Info(verbs[ev.Kind])
		return
	}
	s.log.Info(verbs[ev.Kind], logger.DetailKey, ev.Filename)
}

// ParseGlobs normalizes the globs argument of Watch into a list.
func ParseGlobs(globs any) ([]string, error) {
	switch v := globs.(type) {
	case nil:
		return nil, ErrMissingGlob
	case string:
		if v == "" {
			return nil, ErrMissingGlob
		}
		return []string{v}, nil
	case []string:
		for _, g := range v {
			if g == "" {
				return nil, ErrMissingGlob
			}
		}
		out := make([]string, len(v))
		copy(out, v)
		return out, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			g, ok := item.(string)
			if !ok {
				return nil, &InvalidGlobTypeError{Type: fmt.Sprintf("%T in %T", item, v)}
			}
			if g == "" {
				return nil, ErrMissingGlob
			}
			out = append(out, g)
		}
		return out, nil
	default:
		return nil, &InvalidGlobTypeError{Type: fmt.Sprintf("%T", globs)}
	}
}

// CloseAll closes every handle and returns the joined errors.
func CloseAll(handles []*watcher.Watcher) error {
	var errs []error
	for _, w := range handles {
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func closeQuietly(handles []*watcher.Watcher, log logger.Logger) {
	if err := CloseAll(handles); err != nil {
		log.Warn("failed to close watchers after setup error", "error", err)
	}
}
