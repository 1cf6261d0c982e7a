package usecase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interview-prep/domain"
)

func TestLocalDispatcher_BoundsConcurrency(t *testing.T) {
	var (
		active, peak atomic.Int32
		mu           sync.Mutex
		ran          []string
	)
	run := func(_ context.Context, job domain.RunJob) {
		n := active.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		active.Add(-1)

		mu.Lock()
		ran = append(ran, job.ID)
		mu.Unlock()
	}

	d := NewLocalDispatcher(context.Background(), 2, run, nil, quietLogger())
	for i := 0; i < 6; i++ {
		assert.NoError(t, d.Dispatch(context.Background(), domain.RunJob{ID: fmt.Sprintf("run-%d", i)}))
	}
	d.Wait()

	assert.Len(t, ran, 6)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestLocalDispatcher_IgnoresRequestCancellation(t *testing.T) {
	var got atomic.Bool
	d := NewLocalDispatcher(context.Background(), 1, func(ctx context.Context, _ domain.RunJob) {
		got.Store(ctx.Err() == nil)
	}, nil, quietLogger())

	reqCtx, cancel := context.WithCancel(context.Background())
	assert.NoError(t, d.Dispatch(reqCtx, domain.RunJob{ID: "run-1"}))
	cancel()
	d.Wait()

	assert.True(t, got.Load())
}

func TestLocalDispatcher_ShutdownDropsQueuedJobs(t *testing.T) {
	release := make(chan struct{})
	started := make(chan string, 4)
	var (
		mu      sync.Mutex
		dropped []string
	)
	d := NewLocalDispatcher(context.Background(), 1, func(_ context.Context, job domain.RunJob) {
		started <- job.ID
		<-release
	}, func(job domain.RunJob, cause error) {
		assert.ErrorIs(t, cause, ErrDispatcherClosed)
		mu.Lock()
		dropped = append(dropped, job.ID)
		mu.Unlock()
	}, quietLogger())

	require.NoError(t, d.Dispatch(context.Background(), domain.RunJob{ID: "run-0"}))
	assert.Equal(t, "run-0", <-started)
	require.NoError(t, d.Dispatch(context.Background(), domain.RunJob{ID: "run-1"}))
	require.NoError(t, d.Dispatch(context.Background(), domain.RunJob{ID: "run-2"}))

	errc := make(chan error, 1)
	go func() { errc <- d.Shutdown(context.Background()) }()

	// queued jobs are dropped while run-0 is still busy
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(dropped) == 2
	}, 2*time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, d.Dispatch(context.Background(), domain.RunJob{ID: "run-3"}), ErrDispatcherClosed)

	close(release)
	require.NoError(t, <-errc)
	assert.Len(t, started, 0)
	assert.ElementsMatch(t, []string{"run-1", "run-2"}, dropped)
}

func TestLocalDispatcher_ShutdownDeadlineCancelsRuns(t *testing.T) {
	var cancelled atomic.Bool
	running := make(chan struct{})
	d := NewLocalDispatcher(context.Background(), 1, func(ctx context.Context, _ domain.RunJob) {
		close(running)
		<-ctx.Done()
		cancelled.Store(true)
	}, nil, quietLogger())

	require.NoError(t, d.Dispatch(context.Background(), domain.RunJob{ID: "run-0"}))
	<-running

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- d.Shutdown(ctx) }()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown did not honor its deadline")
	}
	assert.True(t, cancelled.Load())
}
