package watcher

import (
	"context"
	"time"
)

// pollLoop rescans the tree every Interval and diffs it against the
// known files.
func (w *Watcher) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(w.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("polling stopped", "reason", "context cancelled")
			_ = w.Close() // nolint:errcheck // logged by Close
			return

		case <-w.stopChan:
			return

		case <-ticker.C:
			w.pollOnce()
		}
	}
}

// pollOnce performs a single scan and emits the differences.
func (w *Watcher) pollOnce() {
	current, err := w.crawl(w.root, false)
	if err != nil {
		w.handleError(err)
		return
	}
	w.failureCount = 0

	for _, name := range sortedKeys(current) {
		info := current[name]
		prev, known := w.files[name]
		switch {
		case !known:
			w.emit(KindAdd, name, info)
		case !sameFile(prev, info):
			w.emit(KindChange, name, info)
		}
	}

	for _, name := range sortedKeys(w.files) {
		if _, ok := current[name]; !ok {
			w.emit(KindDelete, name, nil)
		}
	}

	w.files = current
}
