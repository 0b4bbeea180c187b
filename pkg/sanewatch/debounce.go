package sanewatch

import (
	"sync"
	"time"

	"github.com/0xmhha/globwatch/pkg/watcher"
)

// debouncer delivers the last event it was triggered with once delay has
// passed without another trigger.
type debouncer struct {
	delay time.Duration
	fn    Handler

	mu      sync.Mutex
	timer   *time.Timer
	pending watcher.Event
	owner   *watcher.Watcher
	seq     uint64
}

func (d *debouncer) trigger(owner *watcher.Watcher, ev watcher.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
	seq := d.seq
	d.pending = ev
	d.owner = owner
	d.timer = time.AfterFunc(d.delay, func() { d.fire(seq) })
}

func (d *debouncer) fire(seq uint64) {
	d.mu.Lock()
	if seq != d.seq || d.timer == nil {
		// Superseded or cancelled after the timer had already fired.
		d.mu.Unlock()
		return
	}
	ev := d.pending
	d.timer = nil
	d.owner = nil
	d.mu.Unlock()

	d.fn(ev)
}

// cancel drops a pending delivery whose last event came from owner.
// A nil owner cancels unconditionally.
func (d *debouncer) cancel(owner *watcher.Watcher) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer == nil || (owner != nil && d.owner != owner) {
		return
	}
	d.timer.Stop()
	d.timer = nil
	d.owner = nil
	d.seq++
}

// dispatcher routes events to handlers through one debouncer per kind.
// With per-glob debounce each watcher gets its own dispatcher; with shared
// debounce every watcher of a call uses the same one.
type dispatcher struct {
	handlers [watcher.NumKinds]Handler
	slots    [watcher.NumKinds]*debouncer
}

func newDispatcher(s settings) *dispatcher {
	d := &dispatcher{handlers: s.handlers}
	if s.debounce <= 0 {
		return d
	}
	for kind, h := range s.handlers {
		if h == nil {
			continue
		}
		d.slots[kind] = &debouncer{delay: s.debounce, fn: h}
	}
	return d
}

func (d *dispatcher) deliver(owner *watcher.Watcher, ev watcher.Event) {
	if slot := d.slots[ev.Kind]; slot != nil {
		slot.trigger(owner, ev)
		return
	}
	if h := d.handlers[ev.Kind]; h != nil {
		h(ev)
	}
}

func (d *dispatcher) cancel(owner *watcher.Watcher) {
	for _, slot := range d.slots {
		if slot != nil {
			slot.cancel(owner)
		}
	}
}
