package infrastructure

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interview-prep/domain"
)

func TestMemoryTracker_CreateGetUpdate(t *testing.T) {
	ctx := context.Background()
	tr := NewMemoryTracker(time.Hour)

	rec, err := tr.Create(ctx, "run-1", "https://jobs.example.com/1", "https://linkedin.com/in/x")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessing, rec.Status)
	assert.Equal(t, domain.StepJobResearch, rec.Progress)

	step := domain.StepProfileAnalysis
	_, err = tr.Update(ctx, "run-1", domain.RunUpdate{Progress: &step})
	require.NoError(t, err)

	got, err := tr.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StepProfileAnalysis, got.Progress)
	assert.Equal(t, "https://linkedin.com/in/x", got.LinkedinURL)
}

func TestMemoryTracker_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	tr := NewMemoryTracker(time.Hour)
	_, _ = tr.Create(ctx, "run-1", "u", "")

	got, _ := tr.Get(ctx, "run-1")
	got.Status = domain.StatusFailed

	again, _ := tr.Get(ctx, "run-1")
	assert.Equal(t, domain.StatusProcessing, again.Status)
}

func TestMemoryTracker_UnknownID(t *testing.T) {
	tr := NewMemoryTracker(time.Hour)

	_, err := tr.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = tr.Update(context.Background(), "missing", domain.RunUpdate{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemoryTracker_RejectsUpdatesOnceTerminal(t *testing.T) {
	ctx := context.Background()
	tr := NewMemoryTracker(time.Hour)
	_, _ = tr.Create(ctx, "run-1", "u", "")

	failed := domain.StatusFailed
	msg := "boom"
	_, err := tr.Update(ctx, "run-1", domain.RunUpdate{Status: &failed, Error: &msg})
	require.NoError(t, err)

	done := domain.StatusCompleted
	rec, err := tr.Update(ctx, "run-1", domain.RunUpdate{Status: &done})
	assert.ErrorIs(t, err, domain.ErrRunFinished)
	require.NotNil(t, rec)
	assert.Equal(t, domain.StatusFailed, rec.Status)
	assert.Equal(t, "boom", *rec.Error)
}

func TestMemoryTracker_SweepKeepsInFlightRuns(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	now := base
	tr := NewMemoryTracker(time.Hour)
	tr.now = func() time.Time { return now }

	_, _ = tr.Create(ctx, "in-flight", "u", "")
	_, _ = tr.Create(ctx, "done", "u", "")
	_, _ = tr.Create(ctx, "done-recently", "u", "")

	completed := domain.StatusCompleted
	_, _ = tr.Update(ctx, "done", domain.RunUpdate{Status: &completed})

	now = base.Add(90 * time.Minute)
	_, _ = tr.Update(ctx, "done-recently", domain.RunUpdate{Status: &completed})

	removed := tr.Sweep(base.Add(2 * time.Hour))
	assert.Equal(t, 1, removed)
	assert.Equal(t, 2, tr.Len())

	_, err := tr.Get(ctx, "in-flight")
	assert.NoError(t, err)
	_, err = tr.Get(ctx, "done")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// far in the future only the finished run goes
	assert.Equal(t, 1, tr.Sweep(base.Add(100*time.Hour)))
	_, err = tr.Get(ctx, "in-flight")
	assert.NoError(t, err)
}

func TestMemoryTracker_ZeroTTLDisablesSweep(t *testing.T) {
	ctx := context.Background()
	tr := NewMemoryTracker(0)
	_, _ = tr.Create(ctx, "run-1", "u", "")
	done := domain.StatusCompleted
	_, _ = tr.Update(ctx, "run-1", domain.RunUpdate{Status: &done})

	assert.Zero(t, tr.Sweep(time.Now().Add(1000*time.Hour)))
}
