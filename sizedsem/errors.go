package sizedsem

import (
	"context"
	"errors"
	"fmt"

	"github.com/zeebo/errs"
)

// Error is the class of every error returned by this package.
var Error = errs.Class("sizedsem")

var (
	// ErrInvalidCapacity is returned by New for a zero capacity.
	ErrInvalidCapacity = errors.New("invalid capacity")
	// ErrQuantityExceedsCapacity is returned for a request larger than the
	// semaphore's capacity. Such a request could never be satisfied.
	ErrQuantityExceedsCapacity = errors.New("quantity exceeds capacity")
	// ErrCanceled is returned when the acquisition's context was canceled
	// before the quantity could be reserved.
	ErrCanceled = errors.New("acquisition canceled")
	// ErrTimedOut is returned when the acquisition's deadline passed before
	// the quantity could be reserved.
	ErrTimedOut = errors.New("acquisition timed out")
)

func exceedsCapacity(quantity, size uint64) error {
	return Error.Wrap(fmt.Errorf("%w: requested %d of %d", ErrQuantityExceedsCapacity, quantity, size))
}

// interrupted maps a done context's error onto ErrCanceled or ErrTimedOut.
// The context error stays in the chain.
func interrupted(ctxErr error) error {
	if errors.Is(ctxErr, context.DeadlineExceeded) {
		return Error.Wrap(fmt.Errorf("%w: %w", ErrTimedOut, ctxErr))
	}
	return Error.Wrap(fmt.Errorf("%w: %w", ErrCanceled, ctxErr))
}
