package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/0xmhha/globwatch/pkg/glob"
	"github.com/0xmhha/globwatch/pkg/logger"
)

// Watcher monitors one base directory for files matching one pattern.
//
// Subscribers registered with On are invoked sequentially from a single
// goroutine per Watcher, in the order events were observed.
type Watcher struct {
	dir    string // base directory as reported in events, trailing separator
	root   string // cleaned base directory used for filesystem calls
	opts   Options
	logger logger.Logger

	fsw *fsnotify.Watcher // nil in poll mode

	mu          sync.RWMutex
	handlers    [NumKinds][]func(Event)
	errHandlers []func(error)
	closeHooks  []func()
	running     bool
	closed      bool
	stopChan    chan struct{}
	ready       chan struct{}

	// Owned by the event loop once Start returns.
	files        map[string]os.FileInfo
	added        map[string]time.Time
	failureCount int
	breakerOpen  bool
}

// addSettle is how long writes to a newly added file are folded into its
// add event. Creating a file with content yields Create then Write.
const addSettle = 100 * time.Millisecond

// New creates a watcher for dir.
//
// Parameters:
//   - dir: Base directory to monitor recursively
//   - opts: Pattern and passthrough options
//   - log: Logger instance
//
// Returns:
//   - Configured Watcher, not yet started
//   - Error wrapping ErrInvalidPath if dir is not an existing directory,
//     or glob.ErrBadPattern if a pattern is malformed
func New(dir string, opts Options, log logger.Logger) (*Watcher, error) {
	if opts.Pattern == "" {
		opts.Pattern = glob.Globstar
	}
	if opts.Interval <= 0 {
		opts.Interval = 100 * time.Millisecond
	}
	if opts.CircuitBreakerThreshold <= 0 {
		opts.CircuitBreakerThreshold = 5
	}

	root := filepath.Clean(dir)
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPath, dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrInvalidPath, dir)
	}

	for _, p := range append([]string{opts.Pattern}, opts.Ignored...) {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("%w: %q", glob.ErrBadPattern, p)
		}
	}

	w := &Watcher{
		dir:      withSeparator(dir),
		root:     root,
		opts:     opts,
		logger:   log.With("dir", dir, "pattern", opts.Pattern),
		stopChan: make(chan struct{}),
		ready:    make(chan struct{}),
		files:    make(map[string]os.FileInfo),
		added:    make(map[string]time.Time),
	}

	if !opts.Poll {
		fsw, err := fsnotify.NewWatcher()
		if err != nil {
			return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
		}
		w.fsw = fsw
	}

	w.logger.Debug("file watcher created", "poll", opts.Poll)

	return w, nil
}

// Dir returns the base directory, ending in a separator.
func (w *Watcher) Dir() string {
	return w.dir
}

// Pattern returns the pattern files are matched against.
func (w *Watcher) Pattern() string {
	return w.opts.Pattern
}

// Ready returns a channel closed once the initial crawl is done and
// changes are being observed.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// On subscribes fn to events of the given kind.
func (w *Watcher) On(kind Kind, fn func(Event)) {
	if fn == nil || int(kind) >= NumKinds {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers[kind] = append(w.handlers[kind], fn)
}

// OnError subscribes fn to runtime errors of the underlying event source.
func (w *Watcher) OnError(fn func(error)) {
	if fn == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.errHandlers = append(w.errHandlers, fn)
}

// OnClose registers fn to run once when the watcher is closed. If the
// watcher is already closed fn runs immediately.
func (w *Watcher) OnClose(fn func()) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		fn()
		return
	}
	w.closeHooks = append(w.closeHooks, fn)
	w.mu.Unlock()
}

// Start registers the directory tree, records the files already present,
// and starts the event loop. The loop emits ready first.
//
// Cancelling ctx closes the watcher.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrWatcherClosed
	}
	if w.running {
		w.mu.Unlock()
		return ErrAlreadyStarted
	}
	w.running = true
	w.mu.Unlock()

	files, err := w.crawl(w.root, w.fsw != nil)
	if err != nil {
		return fmt.Errorf("failed to crawl %s: %w", w.root, err)
	}
	w.files = files

	w.logger.Debug("watcher started", "files", len(files))

	go w.processEvents(ctx)

	return nil
}

// Close stops monitoring and runs close hooks. It is safe to call more
// than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.stopChan)
	hooks := w.closeHooks
	w.closeHooks = nil
	w.mu.Unlock()

	for _, hook := range hooks {
		hook()
	}

	if w.fsw != nil {
		if err := w.fsw.Close(); err != nil {
			w.logger.Error("failed to close fsnotify watcher", "error", err)
			return fmt.Errorf("failed to close watcher: %w", err)
		}
	}

	w.logger.Debug("watcher closed")
	return nil
}

// processEvents runs the event loop until stop or cancellation.
func (w *Watcher) processEvents(ctx context.Context) {
	close(w.ready)
	w.emit(KindReady, "", nil)

	if w.fsw == nil {
		w.pollLoop(ctx)
		return
	}

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("event processing stopped", "reason", "context cancelled")
			_ = w.Close() // nolint:errcheck // logged by Close
			return

		case <-w.stopChan:
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}

			w.handleEvent(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}

			w.handleError(err)
		}
	}
}

// handleEvent classifies a single fsnotify event.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	rel, ok := w.relative(event.Name)
	if !ok {
		return
	}

	w.failureCount = 0

	switch {
	case event.Op&fsnotify.Create == fsnotify.Create:
		w.handleCreate(event.Name, rel)
	case event.Op&fsnotify.Write == fsnotify.Write:
		info, err := os.Lstat(event.Name)
		if err != nil || info.IsDir() {
			return
		}
		w.upsert(rel, info, false)
	case event.Op&fsnotify.Remove == fsnotify.Remove:
		w.handleRemove(rel)
	case event.Op&fsnotify.Rename == fsnotify.Rename:
		// A renamed directory keeps its inotify watch under the old name.
		_ = w.fsw.Remove(event.Name) // nolint:errcheck // not watched for plain files
		w.handleRemove(rel)
	}
}

func (w *Watcher) handleCreate(path, rel string) {
	info, err := os.Lstat(path)
	if err != nil {
		// Gone before we could look at it.
		return
	}

	if !info.IsDir() {
		w.upsert(rel, info, true)
		return
	}

	if w.ignored(rel) {
		return
	}

	found, err := w.crawl(path, true)
	if err != nil {
		w.logger.Warn("failed to crawl new directory", "path", path, "error", err)
		return
	}
	for _, name := range sortedKeys(found) {
		if _, known := w.files[name]; known {
			continue
		}
		w.files[name] = found[name]
		w.markAdded(name)
		w.emit(KindAdd, name, found[name])
	}
}

// upsert records a matching file and emits add or change. With onCreate
// set, an already known file whose metadata is unchanged is skipped; this
// happens when a directory crawl already reported it.
func (w *Watcher) upsert(rel string, info os.FileInfo, onCreate bool) {
	if !w.matches(rel) {
		return
	}

	prev, known := w.files[rel]
	w.files[rel] = info

	switch {
	case !known:
		w.markAdded(rel)
		w.emit(KindAdd, rel, info)
	case onCreate && sameFile(prev, info):
		return
	case w.settling(rel):
		return
	default:
		w.emit(KindChange, rel, info)
	}
}

// markAdded starts the settle window of rel and forgets expired ones.
func (w *Watcher) markAdded(rel string) {
	now := time.Now()
	for name, at := range w.added {
		if now.Sub(at) >= addSettle {
			delete(w.added, name)
		}
	}
	w.added[rel] = now
}

// settling reports whether rel was added less than addSettle ago.
func (w *Watcher) settling(rel string) bool {
	at, ok := w.added[rel]
	if !ok {
		return false
	}
	if time.Since(at) >= addSettle {
		delete(w.added, rel)
		return false
	}
	return true
}

// handleRemove emits delete for rel and for every known file beneath it.
func (w *Watcher) handleRemove(rel string) {
	var gone []string
	prefix := rel + "/"
	for name := range w.files {
		if name == rel || strings.HasPrefix(name, prefix) {
			gone = append(gone, name)
		}
	}
	sort.Strings(gone)

	for _, name := range gone {
		delete(w.files, name)
		delete(w.added, name)
		w.emit(KindDelete, name, nil)
	}
}

// handleError forwards runtime errors until the circuit breaker opens.
func (w *Watcher) handleError(err error) {
	w.failureCount++

	w.logger.Error("fsnotify error",
		"error", err,
		"failure_count", w.failureCount)

	if w.failureCount >= w.opts.CircuitBreakerThreshold {
		if w.breakerOpen {
			return
		}
		w.breakerOpen = true
		w.logger.Error("circuit breaker opened",
			"threshold", w.opts.CircuitBreakerThreshold)
		err = ErrCircuitBreakerOpen
	}

	w.mu.RLock()
	handlers := append(([]func(error))(nil), w.errHandlers...)
	w.mu.RUnlock()

	for _, h := range handlers {
		h(err)
	}
}

// emit delivers an event to the subscribers of kind.
func (w *Watcher) emit(kind Kind, rel string, info os.FileInfo) {
	w.mu.RLock()
	if w.closed {
		w.mu.RUnlock()
		return
	}
	handlers := append(([]func(Event))(nil), w.handlers[kind]...)
	w.mu.RUnlock()

	event := Event{
		Kind:     kind,
		Filename: filepath.FromSlash(rel),
		Dir:      w.dir,
		Time:     time.Now(),
	}
	if kind == KindAdd || kind == KindChange {
		event.Stat = info
	}

	for _, h := range handlers {
		h(event)
	}
}

// crawl walks start, optionally registering every directory with fsnotify,
// and returns the matching files keyed by slash path relative to root.
func (w *Watcher) crawl(start string, watchDirs bool) (map[string]os.FileInfo, error) {
	files := make(map[string]os.FileInfo)

	err := filepath.WalkDir(start, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == start {
				return err
			}
			w.logger.Warn("error walking path", "path", path, "error", err)
			return nil
		}

		rel, ok := w.relative(path)
		if !ok {
			return nil
		}

		if d.IsDir() {
			if path != w.root && w.ignored(rel) {
				return filepath.SkipDir
			}
			if watchDirs {
				if addErr := w.fsw.Add(path); addErr != nil {
					if path == start {
						return addErr
					}
					w.logger.Warn("failed to add subdirectory", "path", path, "error", addErr)
				}
			}
			return nil
		}

		if !w.matches(rel) {
			return nil
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			return nil
		}
		files[rel] = info
		return nil
	})

	return files, err
}

// relative returns path relative to the base directory in slash form.
func (w *Watcher) relative(path string) (string, bool) {
	rel, err := filepath.Rel(w.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// matches reports whether a relative slash path should be reported.
func (w *Watcher) matches(rel string) bool {
	if rel == "." || w.ignored(rel) {
		return false
	}
	if !w.opts.Dot && hasDotSegment(rel) && !patternNamesDot(w.opts.Pattern) {
		return false
	}
	ok, err := glob.Match(w.opts.Pattern, rel)
	return err == nil && ok
}

func (w *Watcher) ignored(rel string) bool {
	for _, p := range w.opts.Ignored {
		if ok, _ := doublestar.Match(p, rel); ok { // nolint:errcheck // validated in New
			return true
		}
	}
	return false
}

func hasDotSegment(rel string) bool {
	return strings.HasPrefix(rel, ".") || strings.Contains(rel, "/.")
}

func patternNamesDot(pattern string) bool {
	return hasDotSegment(pattern)
}

func sameFile(a, b os.FileInfo) bool {
	return a.Size() == b.Size() && a.ModTime().Equal(b.ModTime())
}

func sortedKeys(m map[string]os.FileInfo) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func withSeparator(dir string) string {
	if strings.HasSuffix(dir, string(filepath.Separator)) || strings.HasSuffix(dir, "/") {
		return dir
	}
	return dir + string(filepath.Separator)
}
