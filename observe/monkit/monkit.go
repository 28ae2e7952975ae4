// Package monkit reports semaphore activity to a monkit scope.
package monkit

import (
	"context"
	"errors"
	"time"

	mk "github.com/spacemonkeygo/monkit/v3"

	"github.com/NetPo4ki/go-sizedsem/sizedsem"
)

// Observer implements sizedsem.Observer on top of a monkit scope. Every
// series is tagged with semaphore=name.
type Observer struct {
	scope *mk.Scope
	tag   mk.SeriesTag
}

// New returns an Observer reporting into scope. A nil scope reports into
// the default registry under "sizedsem".
func New(scope *mk.Scope, name string) *Observer {
	if scope == nil {
		scope = mk.Default.ScopeNamed("sizedsem")
	}
	return &Observer{scope: scope, tag: mk.NewSeriesTag("semaphore", name)}
}

func reason(err error) string {
	switch {
	case errors.Is(err, sizedsem.ErrTimedOut):
		return "timed_out"
	case errors.Is(err, sizedsem.ErrCanceled):
		return "canceled"
	case errors.Is(err, sizedsem.ErrQuantityExceedsCapacity):
		return "exceeds_capacity"
	}
	return "error"
}

func (o *Observer) Acquired(_ context.Context, quantity uint64, wait time.Duration) {
	o.scope.Counter("held_quantity", o.tag).Inc(int64(quantity))
	o.scope.IntVal("acquired_quantity", o.tag).Observe(int64(quantity))
	o.scope.DurationVal("acquire_wait", o.tag).Observe(wait)
}

func (o *Observer) AcquireFailed(_ context.Context, _ uint64, wait time.Duration, err error) {
	r := mk.NewSeriesTag("reason", reason(err))
	o.scope.Counter("acquire_failed", o.tag, r).Inc(1)
	o.scope.Event("acquire_failed_event", o.tag, r)
	o.scope.DurationVal("acquire_wait", o.tag).Observe(wait)
}

func (o *Observer) Released(quantity uint64, held time.Duration) {
	o.scope.Counter("held_quantity", o.tag).Dec(int64(quantity))
	o.scope.DurationVal("hold_duration", o.tag).Observe(held)
}
