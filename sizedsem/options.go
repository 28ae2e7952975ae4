package sizedsem

import (
	"context"
	"time"
)

// Option configures a Semaphore in New.
type Option func(*Options)

// Options holds the settings applied by Option functions.
type Options struct {
	Name     string
	Observer Observer
}

func defaultOptions() Options { return Options{} }

// WithName labels the semaphore for diagnostics.
func WithName(name string) Option { return func(o *Options) { o.Name = name } }

// WithObserver installs hooks that are told about every acquisition and
// release. Use Observers to install more than one.
func WithObserver(obs Observer) Option { return func(o *Options) { o.Observer = obs } }

// Observer receives acquisition events. Callbacks run on the caller's
// goroutine after the semaphore's mutex has been released, so they may be
// slow, but they must not block indefinitely.
type Observer interface {
	// Acquired is called after quantity was reserved. wait is the time spent
	// inside the acquiring call.
	Acquired(ctx context.Context, quantity uint64, wait time.Duration)
	// AcquireFailed is called when an acquisition returns an error.
	AcquireFailed(ctx context.Context, quantity uint64, wait time.Duration, err error)
	// Released is called once per lock, after its quantity was returned.
	Released(quantity uint64, held time.Duration)
}

type observers []Observer

// Observers combines several observers into one. Nil entries are skipped.
func Observers(obs ...Observer) Observer {
	var list observers
	for _, o := range obs {
		if o != nil {
			list = append(list, o)
		}
	}
	switch len(list) {
	case 0:
		return nil
	case 1:
		return list[0]
	}
	return list
}

func (list observers) Acquired(ctx context.Context, quantity uint64, wait time.Duration) {
	for _, o := range list {
		o.Acquired(ctx, quantity, wait)
	}
}

func (list observers) AcquireFailed(ctx context.Context, quantity uint64, wait time.Duration, err error) {
	for _, o := range list {
		o.AcquireFailed(ctx, quantity, wait, err)
	}
}

func (list observers) Released(quantity uint64, held time.Duration) {
	for _, o := range list {
		o.Released(quantity, held)
	}
}
