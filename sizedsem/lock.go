package sizedsem

import (
	"sync/atomic"
	"time"
)

// Lock is a reservation of a quantity from a Semaphore. It is only created
// by a successful acquisition and must not be copied.
type Lock struct {
	sem      *Semaphore
	quantity uint64
	acquired time.Time
	released atomic.Bool
}

// Quantity returns the reserved quantity.
func (l *Lock) Quantity() uint64 { return l.quantity }

// Released reports whether Release has been called.
func (l *Lock) Released() bool { return l.released.Load() }

// Release returns the reserved quantity to the semaphore and wakes its
// waiters. Only the first call has an effect; calling Release again, from any
// goroutine, does nothing. Release on a nil *Lock is a no-op.
func (l *Lock) Release() {
	if l == nil || !l.released.CompareAndSwap(false, true) {
		return
	}
	l.sem.release(l.quantity, time.Since(l.acquired))
}
