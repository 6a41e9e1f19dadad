package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const everyHour = "0 0 * * * *"

func TestSchedulerRestart(t *testing.T) {
	sched := NewScheduler(everyHour, func(ctx context.Context) error { return nil })

	require.NoError(t, sched.Start())
	assert.True(t, sched.IsRunning())
	assert.Error(t, sched.Start())
	assert.False(t, sched.GetNextRun().IsZero())

	require.NoError(t, sched.Stop())
	assert.False(t, sched.IsRunning())
	assert.True(t, sched.GetNextRun().IsZero())

	require.NoError(t, sched.Start())
	assert.True(t, sched.IsRunning())
	assert.NoError(t, sched.ctx.Err())
	assert.Len(t, sched.cron.Entries(), 1)

	require.NoError(t, sched.Stop())
}

func TestRunOnceRecordsOutcome(t *testing.T) {
	boom := errors.New("boom")
	var calls int32
	sched := NewScheduler(everyHour, func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return boom
	})

	assert.True(t, sched.GetLastRun().IsZero())
	assert.ErrorIs(t, sched.RunOnce(), boom)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
	assert.False(t, sched.GetLastRun().IsZero())
	assert.ErrorIs(t, sched.LastError(), boom)
}

func TestRunOnceWhileBusy(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	sched := NewScheduler(everyHour, func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	})

	done := make(chan error, 1)
	go func() { done <- sched.RunOnce() }()
	<-started

	assert.ErrorIs(t, sched.RunOnce(), ErrBusy)

	close(release)
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("cycle did not finish")
	}
	sched.Wait()
	assert.NoError(t, sched.LastError())
}

func TestInvalidSchedule(t *testing.T) {
	sched := NewScheduler("not a schedule", func(ctx context.Context) error { return nil })
	assert.Error(t, sched.Start())
	assert.False(t, sched.IsRunning())
}
