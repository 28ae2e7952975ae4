// Package sizedsem provides a weighted semaphore that guards a fixed
// capacity of an abstract resource and hands out arbitrary quantities of it.
//
// A classic counting semaphore hands out one unit per acquisition. A
// Semaphore instead lets each caller ask for as much of the resource as it
// needs: a buffer pool measured in bytes, a worker budget measured in CPU
// shares, a connection budget measured in streams.
//
// # Locks
//
// Every successful acquisition returns a *Lock that records the quantity it
// holds. Releasing the lock returns that quantity to the semaphore and wakes
// every waiter. Release is idempotent: the first call returns the quantity,
// later calls do nothing. Pair every acquisition with a deferred Release, or
// use Semaphore.Do which does it for you:
//
//	l, err := sem.Acquire(5)
//	if err != nil {
//		return err
//	}
//	defer l.Release()
//
// There is no finalizer backstop. A lock that is never released keeps its
// quantity out of circulation for the lifetime of the semaphore.
//
// # Acquisition
//
// Acquire blocks until the quantity is available. TryAcquire never blocks.
// AcquireContext and AcquireTimeout stop waiting when their context is
// canceled or its deadline passes. A request for more than the capacity can
// never be satisfied and fails immediately with ErrQuantityExceedsCapacity
// instead of blocking forever.
//
// # Capacity and zero quantities
//
// A semaphore must have a positive capacity; New(0) fails with
// ErrInvalidCapacity. Acquiring a quantity of zero is allowed and always
// succeeds at once with a lock whose release changes nothing.
//
// # Fairness
//
// There is no FIFO ordering. Each release wakes every waiter and any waiter
// whose quantity now fits may proceed, regardless of when it arrived. A large
// request can therefore starve under sustained traffic of small requests.
package sizedsem
