package infrastructure

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interview-prep/domain"
)

type countingSweeper struct{ calls atomic.Int32 }

func (s *countingSweeper) Sweep(time.Time) int {
	s.calls.Add(1)
	return 0
}

func TestScheduler_InvalidSpec(t *testing.T) {
	s := NewScheduler("every now and then", &countingSweeper{}, quietLogger())
	assert.Error(t, s.Start())
}

func TestScheduler_RunsSweep(t *testing.T) {
	sw := &countingSweeper{}
	s := NewScheduler("@every 1s", sw, quietLogger())
	require.NoError(t, s.Start())

	assert.Eventually(t, func() bool { return sw.calls.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
	s.Stop()
}

func TestScheduler_SweepsMemoryTracker(t *testing.T) {
	ctx := context.Background()
	tr := NewMemoryTracker(time.Nanosecond)
	_, _ = tr.Create(ctx, "done", "u", "")
	_, _ = tr.Create(ctx, "running", "u", "")
	completed := domain.StatusCompleted
	_, _ = tr.Update(ctx, "done", domain.RunUpdate{Status: &completed})

	s := NewScheduler("@every 1h", tr, quietLogger())
	time.Sleep(time.Millisecond)
	s.runSweep()

	assert.Equal(t, 1, tr.Len())
	_, err := tr.Get(ctx, "running")
	assert.NoError(t, err)
}
