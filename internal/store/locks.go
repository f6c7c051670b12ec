package store

import "sync"

// LockRegistry hands out a *sync.Mutex per LogKey, lazily created and
// cached, giving every reconcile-apply batch exclusive access to its own
// log without serializing unrelated accounts/cards against each other.
// Grounded on SPEC_FULL.md §5's per-log write serialization requirement.
type LockRegistry struct {
	mu    sync.Mutex
	locks map[LogKey]*sync.Mutex
}

// NewLockRegistry returns an empty registry.
func NewLockRegistry() *LockRegistry {
	return &LockRegistry{locks: make(map[LogKey]*sync.Mutex)}
}

// For returns the mutex guarding log, creating it on first use.
func (r *LockRegistry) For(log LogKey) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	if lock, ok := r.locks[log]; ok {
		return lock
	}
	lock := &sync.Mutex{}
	r.locks[log] = lock
	return lock
}
