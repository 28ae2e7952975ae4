package monkit

import (
	"context"
	"testing"
	"time"

	mk "github.com/spacemonkeygo/monkit/v3"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/NetPo4ki/go-sizedsem/sizedsem"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestObserverReportsToScope(t *testing.T) {
	t.Parallel()
	registry := mk.NewRegistry()
	scope := registry.ScopeNamed("test")
	obs := New(scope, "pool")
	tag := mk.NewSeriesTag("semaphore", "pool")

	sem := sizedsem.MustNew(3, sizedsem.WithObserver(obs))
	l, err := sem.Acquire(2)
	require.NoError(t, err)
	require.EqualValues(t, 2, scope.Counter("held_quantity", tag).Current())

	_, err = sem.AcquireTimeout(context.Background(), 2, 5*time.Millisecond)
	require.ErrorIs(t, err, sizedsem.ErrTimedOut)
	_, err = sem.Acquire(4)
	require.ErrorIs(t, err, sizedsem.ErrQuantityExceedsCapacity)

	l.Release()
	l.Release()
	require.EqualValues(t, 0, scope.Counter("held_quantity", tag).Current())

	timedOut := scope.Counter("acquire_failed", tag, mk.NewSeriesTag("reason", "timed_out"))
	require.EqualValues(t, 1, timedOut.Current())
	exceeded := scope.Counter("acquire_failed", tag, mk.NewSeriesTag("reason", "exceeds_capacity"))
	require.EqualValues(t, 1, exceeded.Current())

	seen := map[string]bool{}
	registry.Stats(func(key mk.SeriesKey, field string, val float64) {
		seen[key.Measurement] = true
	})
	for _, name := range []string{"held_quantity", "acquired_quantity", "acquire_wait", "hold_duration", "acquire_failed"} {
		require.True(t, seen[name], name)
	}
}

func TestNilScopeUsesDefaultRegistry(t *testing.T) {
	t.Parallel()
	obs := New(nil, "default")
	require.NotNil(t, obs.scope)
	obs.Released(0, 0)
}
