package sanewatch

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xmhha/globwatch/pkg/logger"
	"github.com/0xmhha/globwatch/pkg/watcher"
)

// recorder collects handler invocations.
type recorder struct {
	mu     sync.Mutex
	events []watcher.Event
	times  []time.Time
}

func (r *recorder) handle(ev watcher.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	r.times = append(r.times, time.Now())
}

func (r *recorder) snapshot() []watcher.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]watcher.Event(nil), r.events...)
}

func (r *recorder) count() int {
	return len(r.snapshot())
}

func TestDebouncerDeliversLastEvent(t *testing.T) {
	rec := &recorder{}
	d := &debouncer{delay: 50 * time.Millisecond, fn: rec.handle}

	var last time.Time
	for _, name := range []string{"a", "b", "c"} {
		last = time.Now()
		d.trigger(nil, watcher.Event{Kind: watcher.KindChange, Filename: name})
		time.Sleep(10 * time.Millisecond)
	}

	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(100 * time.Millisecond)

	events := rec.snapshot()
	require.Len(t, events, 1)
	assert.Equal(t, "c", events[0].Filename)

	rec.mu.Lock()
	fired := rec.times[0]
	rec.mu.Unlock()
	assert.GreaterOrEqual(t, fired.Sub(last), 50*time.Millisecond)
}

func TestDebouncerCancel(t *testing.T) {
	rec := &recorder{}
	d := &debouncer{delay: 30 * time.Millisecond, fn: rec.handle}

	owner := &watcher.Watcher{}
	other := &watcher.Watcher{}

	d.trigger(owner, watcher.Event{Filename: "a"})
	d.cancel(other)
	d.cancel(owner)

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 0, rec.count())

	// Still usable after a cancel.
	d.trigger(owner, watcher.Event{Filename: "b"})
	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)
}

func TestDispatcherKindsAreIndependent(t *testing.T) {
	rec := &recorder{}
	s, err := resolveConfig(Config{DebounceMs: 40, Logger: logger.Noop()}, rec.handle)
	require.NoError(t, err)

	d := newDispatcher(s)
	d.deliver(nil, watcher.Event{Kind: watcher.KindChange, Filename: "a"})
	d.deliver(nil, watcher.Event{Kind: watcher.KindDelete, Filename: "a"})
	d.deliver(nil, watcher.Event{Kind: watcher.KindChange, Filename: "b"})

	require.Eventually(t, func() bool { return rec.count() == 2 }, time.Second, 5*time.Millisecond)
	time.Sleep(100 * time.Millisecond)

	byKind := map[watcher.Kind]string{}
	for _, ev := range rec.snapshot() {
		byKind[ev.Kind] = ev.Filename
	}
	assert.Equal(t, map[watcher.Kind]string{
		watcher.KindChange: "b",
		watcher.KindDelete: "a",
	}, byKind)
}

func TestDispatcherWithoutDebounceIsSynchronous(t *testing.T) {
	rec := &recorder{}
	s, err := resolveConfig(Config{Logger: logger.Noop()}, rec.handle)
	require.NoError(t, err)

	d := newDispatcher(s)
	d.deliver(nil, watcher.Event{Kind: watcher.KindAdd, Filename: "a"})
	d.deliver(nil, watcher.Event{Kind: watcher.KindAdd, Filename: "b"})

	assert.Equal(t, 2, rec.count())

	// Ready is not selected by default, so it has no handler.
	d.deliver(nil, watcher.Event{Kind: watcher.KindReady})
	assert.Equal(t, 2, rec.count())
}

func TestSharedVersusPerGlobDebounce(t *testing.T) {
	first := &watcher.Watcher{}
	second := &watcher.Watcher{}

	t.Run("shared collapses across globs", func(t *testing.T) {
		rec := &recorder{}
		s, err := resolveConfig(Config{DebounceMs: 40, Logger: logger.Noop()}, rec.handle)
		require.NoError(t, err)

		shared := newDispatcher(s)
		shared.deliver(first, watcher.Event{Kind: watcher.KindAdd, Filename: "a.txt"})
		shared.deliver(second, watcher.Event{Kind: watcher.KindAdd, Filename: "b.tst"})

		require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)
		time.Sleep(100 * time.Millisecond)
		require.Equal(t, 1, rec.count())
		assert.Equal(t, "b.tst", rec.snapshot()[0].Filename)
	})

	t.Run("per glob delivers both", func(t *testing.T) {
		rec := &recorder{}
		s, err := resolveConfig(Config{DebounceMs: 40, Logger: logger.Noop()}, rec.handle)
		require.NoError(t, err)

		newDispatcher(s).deliver(first, watcher.Event{Kind: watcher.KindAdd, Filename: "a.txt"})
		newDispatcher(s).deliver(second, watcher.Event{Kind: watcher.KindAdd, Filename: "b.tst"})

		require.Eventually(t, func() bool { return rec.count() == 2 }, time.Second, 5*time.Millisecond)
	})

	t.Run("shared cancel only drops own pending event", func(t *testing.T) {
		rec := &recorder{}
		s, err := resolveConfig(Config{DebounceMs: 40, Logger: logger.Noop()}, rec.handle)
		require.NoError(t, err)

		shared := newDispatcher(s)
		shared.deliver(first, watcher.Event{Kind: watcher.KindAdd, Filename: "a.txt"})
		shared.cancel(second)

		require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)
	})
}
