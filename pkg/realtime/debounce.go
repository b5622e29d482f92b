package realtime

import (
	"sync"
	"time"
)

// DefaultDebounceWindow matches the coalescing window used by the inbox:
// bursts of change events inside the window collapse into one flush.
const DefaultDebounceWindow = 150 * time.Millisecond

// debounceState is the explicit lifecycle of the coalescing queue:
// idle → pending (timer armed) → flushing → idle.
type debounceState int

const (
	stateIdle debounceState = iota
	statePending
	stateFlushing
)

// Debouncer coalesces bursts of triggers into a single flush after a quiet
// window. Triggers arriving while a flush is running re-arm the timer so no
// event is lost. The flush itself must be idempotent; coalescing is an
// optimization, not a correctness requirement.
type Debouncer struct {
	mu     sync.Mutex
	window time.Duration
	flush  func()
	state  debounceState
	timer  *time.Timer
	rearm  bool
}

// NewDebouncer creates a debouncer invoking flush after the window elapses
// with no further triggers. A window <= 0 falls back to the default.
func NewDebouncer(window time.Duration, flush func()) *Debouncer {
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	return &Debouncer{
		window: window,
		flush:  flush,
	}
}

// Trigger records a change event. Safe for concurrent use.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch d.state {
	case stateIdle:
		d.state = statePending
		d.timer = time.AfterFunc(d.window, d.fire)
	case statePending:
		// Quiet-period semantics: each trigger restarts the window.
		d.timer.Reset(d.window)
	case stateFlushing:
		d.rearm = true
	}
}

// Stop cancels any pending flush.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.state = stateIdle
	d.rearm = false
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	if d.state != statePending {
		d.mu.Unlock()
		return
	}
	d.state = stateFlushing
	d.mu.Unlock()

	d.flush()

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.rearm {
		d.rearm = false
		d.state = statePending
		d.timer = time.AfterFunc(d.window, d.fire)
		return
	}
	d.state = stateIdle
}
