package watch

import (
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Debouncer coalesces bursts of events. The callback fires once the
// interval passes without a new event, with every distinct path seen in
// the burst in sorted order. Callbacks never overlap.
type Debouncer struct {
	interval time.Duration
	callback func(paths []string)

	mu      sync.Mutex
	timer   *time.Timer
	pending map[string]struct{}

	// fire serializes callbacks.
	fire sync.Mutex
}

// NewDebouncer returns a Debouncer calling callback after interval of quiet.
func NewDebouncer(interval time.Duration, callback func(paths []string)) *Debouncer {
	return &Debouncer{
		interval: interval,
		callback: callback,
		pending:  map[string]struct{}{},
	}
}

// Trigger records an event for path and restarts the quiet period.
func (d *Debouncer) Trigger(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending[path] = struct{}{}

	if d.timer != nil {
		d.timer.Stop()
	}

	d.timer = time.AfterFunc(d.interval, d.flush)
}

// Stop cancels a pending callback, drops recorded paths, and waits for a
// callback already in progress.
func (d *Debouncer) Stop() {
	d.mu.Lock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}

	d.pending = map[string]struct{}{}
	d.mu.Unlock()

	d.fire.Lock()
	d.fire.Unlock() //nolint:staticcheck // waits for an in-flight callback
}

func (d *Debouncer) flush() {
	d.mu.Lock()

	paths := make([]string, 0, len(d.pending))
	for p := range d.pending {
		paths = append(paths, p)
	}

	d.pending = map[string]struct{}{}
	d.mu.Unlock()

	if len(paths) == 0 {
		return
	}

	sort.Strings(paths)

	d.fire.Lock()
	defer d.fire.Unlock()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("debouncer callback panicked", slog.Any("error", r))
		}
	}()

	d.callback(paths)
}
