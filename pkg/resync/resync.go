// Package resync provides a sync.Once that can be reset, used by the
// various lazy-loaded singletons across this module (clock, logging,
// scheduler stores) so unit tests can recreate them between runs.
package resync

import "sync"

// Once is a drop-in replacement for sync.Once that supports Reset.
type Once struct {
	mu   sync.Mutex
	once *sync.Once
}

// Do executes f the first time it is called, same semantics as sync.Once.Do.
func (o *Once) Do(f func()) {
	o.mu.Lock()
	if o.once == nil {
		o.once = new(sync.Once)
	}
	once := o.once
	o.mu.Unlock()
	once.Do(f)
}

// Reset clears the underlying sync.Once so the next Do call runs again.
func (o *Once) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.once = new(sync.Once)
}
