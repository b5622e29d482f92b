package lock

import "sync/atomic"

// SlotLock is a single-slot, non-blocking lock guarding side effects against
// double invocation. Unlike a sync.Mutex, a failed TryAcquire means "already
// running, skip this cycle" rather than "wait".
type SlotLock struct {
	held atomic.Bool
}

// New creates an unheld SlotLock.
func New() *SlotLock {
	return &SlotLock{}
}

// TryAcquire takes the slot if it is free. It never blocks.
func (l *SlotLock) TryAcquire() bool {
	return l.held.CompareAndSwap(false, true)
}

// Release frees the slot. Releasing an unheld slot is a no-op.
func (l *SlotLock) Release() {
	l.held.Store(false)
}

// Held reports whether the slot is currently taken.
func (l *SlotLock) Held() bool {
	return l.held.Load()
}
