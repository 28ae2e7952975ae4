package scope

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/NetPo4ki/go-sizedsem/sizedsem"
)

// weightTracker records the largest total weight observed running at once.
type weightTracker struct {
	cur, maxSeen atomic.Int64
}

func (w *weightTracker) enter(weight int64) {
	c := w.cur.Add(weight)
	for {
		m := w.maxSeen.Load()
		if c <= m || w.maxSeen.CompareAndSwap(m, c) {
			return
		}
	}
}

func (w *weightTracker) leave(weight int64) { w.cur.Add(-weight) }

func TestMaxConcurrencyBound(t *testing.T) {
	t.Parallel()
	const N = 8
	const M = 50
	s := New(context.Background(), Supervisor, WithMaxConcurrency(N))
	var w weightTracker
	for i := 0; i < M; i++ {
		s.Go(func(ctx context.Context) error {
			w.enter(1)
			defer w.leave(1)
			select {
			case <-time.After(2 * time.Millisecond):
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}
	if err := s.Wait(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if observed := int(w.maxSeen.Load()); observed > N {
		t.Fatalf("observed concurrency %d exceeds limit %d", observed, N)
	}
	if avail := s.Semaphore().Available(); avail != N {
		t.Fatalf("expected all %d slots back, got %d", N, avail)
	}
}

func TestWeightedCapacityBound(t *testing.T) {
	t.Parallel()
	const capacity = 10
	s := New(context.Background(), FailFast, WithCapacity(capacity))
	var w weightTracker
	for i := 0; i < 40; i++ {
		weight := uint64(i%4 + 1)
		s.GoWeighted(weight, func(_ context.Context) error {
			w.enter(int64(weight))
			defer w.leave(int64(weight))
			time.Sleep(time.Millisecond)
			return nil
		})
	}
	if err := s.Wait(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if observed := w.maxSeen.Load(); observed > capacity {
		t.Fatalf("observed weight %d exceeds capacity %d", observed, capacity)
	}
}

func TestWeightExceedingCapacityFailsScope(t *testing.T) {
	t.Parallel()
	s := New(context.Background(), FailFast, WithCapacity(2))
	ran := atomic.Bool{}
	s.GoWeighted(3, func(_ context.Context) error {
		ran.Store(true)
		return nil
	})
	err := s.Wait()
	if !errors.Is(err, sizedsem.ErrQuantityExceedsCapacity) {
		t.Fatalf("expected ErrQuantityExceedsCapacity, got %v", err)
	}
	if ran.Load() {
		t.Fatal("task must not run when its weight can never fit")
	}
}

func TestWeightIgnoredWithoutLimit(t *testing.T) {
	t.Parallel()
	s := New(context.Background(), FailFast)
	if s.Semaphore() != nil {
		t.Fatal("unlimited scope should have no semaphore")
	}
	s.GoWeighted(1<<40, func(_ context.Context) error { return nil })
	if err := s.Wait(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLimiterAcquireRespectsCancel(t *testing.T) {
	t.Parallel()
	s := New(context.Background(), FailFast, WithMaxConcurrency(1))
	block := make(chan struct{})
	s.Go(func(_ context.Context) error {
		<-block
		return nil
	})
	// start a second task that will be blocked on the semaphore
	s.Go(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	time.Sleep(10 * time.Millisecond)
	start := time.Now()
	s.Cancel(context.Canceled)
	close(block)
	_ = s.Wait()
	elapsed := time.Since(start)
	if elapsed > 300*time.Millisecond {
		t.Fatalf("expected quick abort on cancel, got %v", elapsed)
	}
}

func TestChildOwnLimit(t *testing.T) {
	t.Parallel()
	parent := New(context.Background(), Supervisor)
	child := parent.Child(Supervisor, WithMaxConcurrency(1))
	var w weightTracker
	ch1 := make(chan struct{})
	ch2 := make(chan struct{})
	started := make(chan struct{}, 2)

	for _, ch := range []chan struct{}{ch1, ch2} {
		child.Go(func(_ context.Context) error {
			w.enter(1)
			defer w.leave(1)
			started <- struct{}{}
			<-ch
			return nil
		})
	}
	<-started
	// The second task is queued by the child's semaphore.
	time.Sleep(20 * time.Millisecond)
	if observed := w.maxSeen.Load(); observed > 1 {
		t.Fatalf("child observed concurrency %d exceeds limit 1", observed)
	}
	close(ch1)
	close(ch2)
	_ = child.Wait()
	_ = parent.Wait()
	if parent.Semaphore() != nil {
		t.Fatal("child limit must not leak into the parent")
	}
}

func TestChildSharesParentLimit(t *testing.T) {
	t.Parallel()
	parent := New(context.Background(), Supervisor, WithCapacity(3))
	child := parent.Child(Supervisor, WithSemaphore(parent.Semaphore()))
	if child.Semaphore() != parent.Semaphore() {
		t.Fatal("child should share the parent's semaphore")
	}

	hold := make(chan struct{})
	holding := make(chan struct{})
	parent.GoWeighted(2, func(_ context.Context) error {
		close(holding)
		<-hold
		return nil
	})
	<-holding

	done := make(chan struct{})
	child.GoWeighted(2, func(_ context.Context) error {
		close(done)
		return nil
	})
	select {
	case <-done:
		t.Fatal("child task should wait for the parent's weight")
	case <-time.After(30 * time.Millisecond):
	}
	close(hold)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("child task did not start after the parent released")
	}
	_ = child.Wait()
	_ = parent.Wait()
}

func TestChildInheritsCapacityNotSemaphore(t *testing.T) {
	t.Parallel()
	parent := New(context.Background(), Supervisor, WithCapacity(3))
	child := parent.Child(Supervisor)
	if child.Semaphore() == nil || child.Semaphore() == parent.Semaphore() {
		t.Fatal("child should get its own semaphore")
	}
	if size := child.Semaphore().Size(); size != 3 {
		t.Fatalf("expected inherited capacity 3, got %d", size)
	}

	sem := sizedsem.MustNew(5)
	shared := New(context.Background(), Supervisor, WithSemaphore(sem))
	grandchild := shared.Child(Supervisor)
	if grandchild.Semaphore() == sem {
		t.Fatal("child of a shared-semaphore scope must not reuse it implicitly")
	}
	if size := grandchild.Semaphore().Size(); size != 5 {
		t.Fatalf("expected capacity 5, got %d", size)
	}

	narrowed := parent.Child(Supervisor, WithMaxConcurrency(1))
	if size := narrowed.Semaphore().Size(); size != 1 {
		t.Fatalf("explicit MaxConcurrency should override inherited capacity, got %d", size)
	}
}

func TestChildWaitedInsideBoundedTask(t *testing.T) {
	t.Parallel()
	parent := New(context.Background(), FailFast, WithMaxConcurrency(1))
	parent.Go(func(_ context.Context) error {
		child := parent.Child(FailFast)
		child.Go(func(_ context.Context) error { return nil })
		return child.Wait()
	})
	done := make(chan error, 1)
	go func() { done <- parent.Wait() }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("nested child inside a bounded task never finished")
	}
}

func TestSharedSemaphoreAcrossScopes(t *testing.T) {
	t.Parallel()
	sem := sizedsem.MustNew(4)
	a := New(context.Background(), Supervisor, WithSemaphore(sem))
	b := New(context.Background(), Supervisor, WithSemaphore(sem), WithCapacity(100))
	var w weightTracker
	for _, s := range []*Scope{a, b} {
		for i := 0; i < 10; i++ {
			s.GoWeighted(2, func(_ context.Context) error {
				w.enter(2)
				defer w.leave(2)
				time.Sleep(time.Millisecond)
				return nil
			})
		}
	}
	_ = a.Wait()
	_ = b.Wait()
	if observed := w.maxSeen.Load(); observed > 4 {
		t.Fatalf("observed weight %d exceeds shared capacity 4", observed)
	}
	if sem.Available() != 4 {
		t.Fatalf("expected shared semaphore to be full, got %d", sem.Available())
	}
}
