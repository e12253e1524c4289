package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_RunsImmediatelyAndRepeats(t *testing.T) {
	var runs atomic.Int32
	s := New(50*time.Millisecond, func(ctx context.Context) {
		runs.Add(1)
	})
	require.NoError(t, s.Start())
	defer s.Stop()

	require.Eventually(t, func() bool { return runs.Load() >= 1 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return runs.Load() >= 3 }, 2*time.Second, 10*time.Millisecond)
}

func TestScheduler_NoOverlap(t *testing.T) {
	var active, maxActive atomic.Int32
	s := New(10*time.Millisecond, func(ctx context.Context) {
		n := active.Add(1)
		for {
			m := maxActive.Load()
			if n <= m || maxActive.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(60 * time.Millisecond)
		active.Add(-1)
	})
	require.NoError(t, s.Start())

	time.Sleep(250 * time.Millisecond)
	s.Stop()

	assert.Equal(t, int32(1), maxActive.Load())
}

func TestScheduler_StopCancelsJobContext(t *testing.T) {
	done := make(chan struct{})
	s := New(time.Hour, func(ctx context.Context) {
		<-ctx.Done()
		close(done)
	})
	require.NoError(t, s.Start())

	time.Sleep(20 * time.Millisecond)
	go s.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job context was not cancelled")
	}
}

func TestScheduler_InvalidStart(t *testing.T) {
	s := New(0, func(context.Context) {})
	require.Error(t, s.Start())

	s = New(time.Minute, func(context.Context) {})
	require.NoError(t, s.Start())
	defer s.Stop()
	require.Error(t, s.Start())
}
