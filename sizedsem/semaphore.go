package sizedsem

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Semaphore guards a fixed capacity of a resource and hands out arbitrary
// quantities of it. The sum of the quantities held by outstanding locks never
// exceeds the capacity.
//
// A Semaphore must be created with New and must not be copied.
type Semaphore struct {
	size uint64
	name string
	obs  Observer

	mu sync.Mutex
	// current is the quantity not held by any lock.
	//
	// INVARIANT: current <= size
	current uint64
	// wake is closed and replaced on every release. Waiters park on it.
	wake chan struct{}
}

// New returns a semaphore managing size units, all of them available.
func New(size uint64, optFns ...Option) (*Semaphore, error) {
	if size == 0 {
		return nil, Error.Wrap(ErrInvalidCapacity)
	}
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Semaphore{
		size:    size,
		name:    opts.Name,
		obs:     opts.Observer,
		current: size,
		wake:    make(chan struct{}),
	}, nil
}

// MustNew is like New but panics on error.
func MustNew(size uint64, optFns ...Option) *Semaphore {
	s, err := New(size, optFns...)
	if err != nil {
		panic(err)
	}
	return s
}

// Size returns the capacity the semaphore was created with.
func (s *Semaphore) Size() uint64 { return s.size }

// Name returns the label set with WithName.
func (s *Semaphore) Name() string { return s.name }

// Available returns the quantity not currently held. The value may be stale
// by the time the caller looks at it.
func (s *Semaphore) Available() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// String returns "SizedSemaphore(held/size)".
func (s *Semaphore) String() string {
	avail := s.Available()
	return fmt.Sprintf("SizedSemaphore(%d/%d)", s.size-avail, s.size)
}

// Acquire blocks until quantity is available and reserves it.
//
// It fails without blocking with ErrQuantityExceedsCapacity if quantity is
// larger than Size.
func (s *Semaphore) Acquire(quantity uint64) (*Lock, error) {
	return s.acquire(context.Background(), quantity)
}

// AcquireContext is like Acquire but gives up when ctx is done. It returns
// ErrTimedOut if ctx's deadline passed and ErrCanceled otherwise; in both
// cases nothing was reserved. If ctx is already done when AcquireContext is
// called it fails even when quantity is available.
//
// If quantity becomes available at the same moment ctx is done, the lock may
// still be returned. The caller owns it and must release it.
func (s *Semaphore) AcquireContext(ctx context.Context, quantity uint64) (*Lock, error) {
	return s.acquire(ctx, quantity)
}

// AcquireTimeout is AcquireContext bounded by timeout.
func (s *Semaphore) AcquireTimeout(ctx context.Context, quantity uint64, timeout time.Duration) (*Lock, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.acquire(ctx, quantity)
}

// TryAcquire reserves quantity if it is available right now. When it is not,
// TryAcquire returns ok == false and changes nothing.
//
//	l, ok, err := sem.TryAcquire(3)
//	if err != nil {
//		return err
//	}
//	if !ok {
//		// too busy
//	}
//	defer l.Release()
func (s *Semaphore) TryAcquire(quantity uint64) (l *Lock, ok bool, err error) {
	if quantity > s.size {
		err = exceedsCapacity(quantity, s.size)
		s.failed(context.Background(), quantity, 0, err)
		return nil, false, err
	}
	s.mu.Lock()
	if s.current < quantity {
		s.mu.Unlock()
		return nil, false, nil
	}
	s.current -= quantity
	s.mu.Unlock()
	return s.grant(context.Background(), quantity, time.Now()), true, nil
}

// Do acquires quantity, runs fn and releases the quantity when fn returns or
// panics. The acquisition error, if any, is returned without calling fn.
func (s *Semaphore) Do(ctx context.Context, quantity uint64, fn func(ctx context.Context) error) error {
	l, err := s.acquire(ctx, quantity)
	if err != nil {
		return err
	}
	defer l.Release()
	return fn(ctx)
}

func (s *Semaphore) acquire(ctx context.Context, quantity uint64) (*Lock, error) {
	start := time.Now()
	if quantity > s.size {
		err := exceedsCapacity(quantity, s.size)
		s.failed(ctx, quantity, 0, err)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		err = interrupted(err)
		s.failed(ctx, quantity, 0, err)
		return nil, err
	}

	for {
		s.mu.Lock()
		if s.current >= quantity {
			s.current -= quantity
			s.mu.Unlock()
			return s.grant(ctx, quantity, start), nil
		}
		wake := s.wake
		s.mu.Unlock()

		select {
		case <-wake:
		case <-ctx.Done():
			err := interrupted(ctx.Err())
			s.failed(ctx, quantity, time.Since(start), err)
			return nil, err
		}
	}
}

func (s *Semaphore) grant(ctx context.Context, quantity uint64, start time.Time) *Lock {
	now := time.Now()
	if s.obs != nil {
		s.obs.Acquired(ctx, quantity, now.Sub(start))
	}
	return &Lock{sem: s, quantity: quantity, acquired: now}
}

func (s *Semaphore) failed(ctx context.Context, quantity uint64, wait time.Duration, err error) {
	if s.obs != nil {
		s.obs.AcquireFailed(ctx, quantity, wait, err)
	}
}

// release returns quantity and wakes every waiter so each can re-check its
// own request.
func (s *Semaphore) release(quantity uint64, held time.Duration) {
	s.mu.Lock()
	if quantity > s.size-s.current {
		current := s.current
		s.mu.Unlock()
		panic(fmt.Sprintf("sizedsem: release of %d overflows capacity %d (available %d)", quantity, s.size, current))
	}
	s.current += quantity
	if quantity > 0 {
		close(s.wake)
		s.wake = make(chan struct{})
	}
	s.mu.Unlock()

	if s.obs != nil {
		s.obs.Released(quantity, held)
	}
}
