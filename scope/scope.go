package scope

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/NetPo4ki/go-sizedsem/sizedsem"
)

type Policy int

const (
	FailFast Policy = iota
	Supervisor
)

type Option func(*Options)

type Options struct {
	PanicAsError bool
	Observer     Observer
	// MaxConcurrency limits the number of running tasks when every task has
	// weight 1. Ignored when Capacity or Semaphore is set.
	MaxConcurrency int
	// Capacity bounds the total weight of running tasks.
	Capacity uint64
	// Semaphore, when set, is shared with other scopes and overrides
	// Capacity and MaxConcurrency.
	Semaphore *sizedsem.Semaphore
}

func defaultOptions() Options { return Options{PanicAsError: true} }

func WithPanicAsError(v bool) Option { return func(o *Options) { o.PanicAsError = v } }

func WithObserver(obs Observer) Option { return func(o *Options) { o.Observer = obs } }

func WithMaxConcurrency(n int) Option { return func(o *Options) { o.MaxConcurrency = n } }

func WithCapacity(n uint64) Option { return func(o *Options) { o.Capacity = n } }

func WithSemaphore(sem *sizedsem.Semaphore) Option { return func(o *Options) { o.Semaphore = sem } }

type Observer interface {
	ScopeCreated(ctx context.Context)
	ScopeCancelled(ctx context.Context, cause error)
	ScopeJoined(ctx context.Context, wait time.Duration)
	TaskStarted(ctx context.Context)
	TaskFinished(ctx context.Context, dur time.Duration, err error, panicked bool)
}

type Scope struct {
	ctx      context.Context
	cancel   context.CancelFunc
	policy   Policy
	wg       sync.WaitGroup
	mu       sync.Mutex
	firstErr error
	canceled bool

	opts Options
	obs  Observer
	lim  *limiter
}

func New(parent context.Context, policy Policy, optFns ...Option) *Scope {
	if parent == nil {
		parent = context.Background()
	}
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return newScope(parent, policy, opts)
}

func newScope(parent context.Context, policy Policy, opts Options) *Scope {
	ctx, cancel := context.WithCancel(parent)
	s := &Scope{
		ctx:    ctx,
		cancel: cancel,
		policy: policy,
		opts:   opts,
		obs:    opts.Observer,
		lim:    newLimiter(opts),
	}
	if s.obs != nil {
		s.obs.ScopeCreated(ctx)
	}
	return s
}

func (s *Scope) Context() context.Context { return s.ctx }

// Semaphore returns the semaphore bounding this scope, or nil.
func (s *Scope) Semaphore() *sizedsem.Semaphore {
	if s.lim == nil {
		return nil
	}
	return s.lim.sem
}

// Go runs fn with weight 1.
func (s *Scope) Go(fn func(ctx context.Context) error) {
	s.GoWeighted(1, fn)
}

// GoWeighted runs fn once weight is available in the scope's semaphore. The
// weight is held until fn returns. A weight larger than the semaphore can
// ever provide fails the scope with sizedsem.ErrQuantityExceedsCapacity.
// Without a limit the weight is ignored.
func (s *Scope) GoWeighted(weight uint64, fn func(ctx context.Context) error) {
	if fn == nil {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		lock, err := s.lim.acquire(s.ctx, weight)
		if err != nil {
			s.fail(err)
			return
		}
		defer lock.Release()
		s.run(fn)
	}()
}

func (s *Scope) run(fn func(ctx context.Context) error) {
	var start time.Time
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if !s.opts.PanicAsError {
			if s.obs != nil {
				s.obs.TaskFinished(s.ctx, time.Since(start), nil, true)
			}
			panic(r)
		}
		err := fmt.Errorf("panic: %v", r)
		s.fail(err)
		if s.obs != nil {
			s.obs.TaskFinished(s.ctx, time.Since(start), err, true)
		}
	}()

	if s.obs != nil {
		start = time.Now()
		s.obs.TaskStarted(s.ctx)
	}
	err := fn(s.ctx)
	if err != nil {
		s.fail(err)
	}
	if s.obs != nil {
		s.obs.TaskFinished(s.ctx, time.Since(start), err, false)
	}
}

func (s *Scope) Cancel(err error) {
	s.mu.Lock()
	wasCanceled := s.canceled
	s.canceled = true
	if s.firstErr == nil && err != nil {
		s.firstErr = err
	}
	cause := s.firstErr
	s.mu.Unlock()

	s.cancel()
	if !wasCanceled && s.obs != nil {
		s.obs.ScopeCancelled(s.ctx, cause)
	}
}

func (s *Scope) Wait() error {
	var start time.Time
	if s.obs != nil {
		start = time.Now()
	}
	s.wg.Wait()
	if s.obs != nil {
		s.obs.ScopeJoined(s.ctx, time.Since(start))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.firstErr
}

func (s *Scope) fail(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	if s.firstErr == nil {
		s.firstErr = err
	}
	shouldCancel := s.policy == FailFast
	cause := s.firstErr
	s.mu.Unlock()
	if shouldCancel {
		s.Cancel(cause)
	}
}

// Child returns a scope canceled together with s. Options are inherited and
// may be overridden. The child gets its own semaphore with the same capacity
// as s's, so a task of s may wait on the child without deadlocking. Pass
// WithSemaphore(s.Semaphore()) to share s's limit instead; a task of s must
// then not wait on the child while holding weight.
func (s *Scope) Child(policy Policy, optFns ...Option) *Scope {
	childOpts := s.opts
	if sem := s.Semaphore(); sem != nil && s.opts.Semaphore != nil {
		childOpts.Capacity = sem.Size()
	}
	childOpts.Semaphore = nil
	inherited := childOpts
	for _, fn := range optFns {
		fn(&childOpts)
	}
	// An explicit MaxConcurrency replaces an inherited Capacity.
	if childOpts.MaxConcurrency != inherited.MaxConcurrency && childOpts.Capacity == inherited.Capacity {
		childOpts.Capacity = 0
	}
	return newScope(s.ctx, policy, childOpts)
}
