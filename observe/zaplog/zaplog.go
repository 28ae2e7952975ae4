// Package zaplog logs semaphore activity with zap.
package zaplog

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/NetPo4ki/go-sizedsem/sizedsem"
)

// Observer implements sizedsem.Observer. Grants and releases are logged at
// debug level, canceled and timed out acquisitions at info, and requests
// that can never fit at warn.
type Observer struct {
	log *zap.Logger
}

// New returns an Observer writing to log. A nil log discards everything.
func New(log *zap.Logger) *Observer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Observer{log: log}
}

func (o *Observer) Acquired(_ context.Context, quantity uint64, wait time.Duration) {
	o.log.Debug("acquired",
		zap.Uint64("quantity", quantity),
		zap.Duration("wait", wait))
}

func (o *Observer) AcquireFailed(_ context.Context, quantity uint64, wait time.Duration, err error) {
	fields := []zap.Field{
		zap.Uint64("quantity", quantity),
		zap.Duration("wait", wait),
		zap.Error(err),
	}
	if errors.Is(err, sizedsem.ErrQuantityExceedsCapacity) {
		o.log.Warn("acquisition can never be satisfied", fields...)
		return
	}
	o.log.Info("acquisition abandoned", fields...)
}

func (o *Observer) Released(quantity uint64, held time.Duration) {
	o.log.Debug("released",
		zap.Uint64("quantity", quantity),
		zap.Duration("held", held))
}
