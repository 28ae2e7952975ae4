// Package errgroup provides a weighted variant of golang.org/x/sync/errgroup:
// every function started in a Group holds a quantity of a shared
// sizedsem.Semaphore while it runs.
package errgroup

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/NetPo4ki/go-sizedsem/sizedsem"
)

// Group is an errgroup.Group whose functions are admitted by weight.
type Group struct {
	g   *errgroup.Group
	ctx context.Context
	sem *sizedsem.Semaphore
}

// WithContext creates a Group bounded by capacity. The returned context is
// canceled when any function passed to Go returns a non-nil error or when
// Wait returns, whichever occurs first.
func WithContext(ctx context.Context, capacity uint64, opts ...sizedsem.Option) (*Group, context.Context, error) {
	sem, err := sizedsem.New(capacity, opts...)
	if err != nil {
		return nil, nil, err
	}
	g, gctx := errgroup.WithContext(ctx)
	return &Group{g: g, ctx: gctx, sem: sem}, gctx, nil
}

// Semaphore returns the semaphore admitting the group's functions.
func (g *Group) Semaphore() *sizedsem.Semaphore { return g.sem }

// Go blocks until quantity is available, then runs f in a new goroutine
// holding that quantity. If the quantity can never fit or the group's
// context is done first, f is not run and the acquisition error becomes a
// group error.
func (g *Group) Go(quantity uint64, f func() error) {
	if f == nil {
		return
	}
	lock, err := g.sem.AcquireContext(g.ctx, quantity)
	if err != nil {
		g.g.Go(func() error { return err })
		return
	}
	g.g.Go(func() error {
		defer lock.Release()
		return f()
	})
}

// TryGo runs f only if quantity is available right now and reports whether
// it did.
func (g *Group) TryGo(quantity uint64, f func() error) bool {
	if f == nil {
		return false
	}
	lock, ok, err := g.sem.TryAcquire(quantity)
	if err != nil {
		g.g.Go(func() error { return err })
		return false
	}
	if !ok {
		return false
	}
	g.g.Go(func() error {
		defer lock.Release()
		return f()
	})
	return true
}

// Wait blocks until all started functions have returned and returns the
// first non-nil error.
func (g *Group) Wait() error {
	return g.g.Wait()
}
