package playback

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistrySleepResumesWhenTimerFires(t *testing.T) {
	clock := &manualClock{}
	reg := NewRegistry(clock)
	done := make(chan error, 1)
	go func() { done <- reg.Sleep(context.Background(), 200*time.Millisecond) }()

	clock.awaitTimers(t, 1)
	assert.Equal(t, 200*time.Millisecond, clock.timer(0).d)
	assert.Equal(t, 1, reg.Pending())
	clock.timer(0).fire()

	require.NoError(t, <-done)
	assert.Equal(t, 0, reg.Pending())
}

func TestRegistryCancelAllStopsEveryHandleOnce(t *testing.T) {
	clock := &manualClock{}
	reg := NewRegistry(clock)
	errs := make(chan error, 3)
	for i := 0; i < 3; i++ {
		go func() { errs <- reg.Sleep(context.Background(), time.Second) }()
	}
	clock.awaitTimers(t, 3)
	require.Eventually(t, func() bool { return reg.Pending() == 3 }, time.Second, time.Millisecond)

	reg.CancelAll()
	reg.CancelAll()
	reg.Clear()

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, <-errs, ErrCancelled)
	}
	for i := 0; i < 3; i++ {
		assert.EqualValues(t, 1, clock.timer(i).stops.Load(), "timer %d", i)
	}
	assert.Equal(t, 0, reg.Pending())
	assert.ErrorIs(t, reg.Err(), ErrCancelled)
	select {
	case <-reg.Done():
	default:
		t.Fatal("done channel not closed")
	}
}

func TestRegistryRefusesSleepAfterCancel(t *testing.T) {
	clock := &manualClock{}
	reg := NewRegistry(clock)
	reg.CancelAll()

	assert.ErrorIs(t, reg.Sleep(context.Background(), time.Second), ErrCancelled)
	assert.ErrorIs(t, reg.Sleep(context.Background(), 0), ErrCancelled)
	assert.Equal(t, 0, clock.count())
}

func TestRegistryClearAbortsWithoutCancelling(t *testing.T) {
	clock := &manualClock{}
	reg := NewRegistry(clock)
	done := make(chan error, 1)
	go func() { done <- reg.Sleep(context.Background(), time.Second) }()
	clock.awaitTimers(t, 1)
	require.Eventually(t, func() bool { return reg.Pending() == 1 }, time.Second, time.Millisecond)

	reg.Clear()

	assert.ErrorIs(t, <-done, ErrCancelled)
	assert.NoError(t, reg.Err())
	assert.EqualValues(t, 1, clock.timer(0).stops.Load())
}

func TestRegistrySleepHonoursContext(t *testing.T) {
	clock := &manualClock{}
	reg := NewRegistry(clock)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- reg.Sleep(ctx, time.Second) }()
	clock.awaitTimers(t, 1)

	cancel()

	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Equal(t, 0, reg.Pending())
	reg.CancelAll()
	assert.EqualValues(t, 1, clock.timer(0).stops.Load())
}

func TestRegistryZeroDelay(t *testing.T) {
	reg := NewRegistry(nil)
	assert.NoError(t, reg.Sleep(context.Background(), 0))
}
