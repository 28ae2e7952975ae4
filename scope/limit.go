package scope

import (
	"context"

	"github.com/NetPo4ki/go-sizedsem/sizedsem"
)

// limiter gates task start on a shared weighted semaphore. A nil limiter
// admits everything.
type limiter struct {
	sem *sizedsem.Semaphore
}

func newLimiter(o Options) *limiter {
	switch {
	case o.Semaphore != nil:
		return &limiter{sem: o.Semaphore}
	case o.Capacity > 0:
		return &limiter{sem: sizedsem.MustNew(o.Capacity, sizedsem.WithName("scope"))}
	case o.MaxConcurrency > 0:
		return &limiter{sem: sizedsem.MustNew(uint64(o.MaxConcurrency), sizedsem.WithName("scope"))}
	}
	return nil
}

// acquire reserves weight for one task. The returned lock is nil when the
// scope has no limit.
func (l *limiter) acquire(ctx context.Context, weight uint64) (*sizedsem.Lock, error) {
	if l == nil {
		return nil, nil
	}
	return l.sem.AcquireContext(ctx, weight)
}
