package infrastructure

import (
	"context"
	"sync"
	"time"

	"interview-prep/domain"
)

// MemoryTracker keeps run state in process memory. Finished runs are dropped by Sweep
// once they are older than the configured TTL; in-flight runs are never evicted.
type MemoryTracker struct {
	mu   sync.RWMutex
	runs map[string]*domain.InterviewPrepRequest
	ttl  time.Duration
	now  func() time.Time
}

func NewMemoryTracker(ttl time.Duration) *MemoryTracker {
	return &MemoryTracker{
		runs: make(map[string]*domain.InterviewPrepRequest),
		ttl:  ttl,
		now:  time.Now,
	}
}

func (t *MemoryTracker) Create(_ context.Context, id, jobURL, linkedinURL string) (*domain.InterviewPrepRequest, error) {
	rec := domain.NewInterviewPrepRequest(id, jobURL, linkedinURL, t.now())

	t.mu.Lock()
	t.runs[id] = rec
	t.mu.Unlock()

	return copyRequest(rec), nil
}

func (t *MemoryTracker) Get(_ context.Context, id string) (*domain.InterviewPrepRequest, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rec, ok := t.runs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyRequest(rec), nil
}

func (t *MemoryTracker) Update(_ context.Context, id string, u domain.RunUpdate) (*domain.InterviewPrepRequest, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.runs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if rec.Status.Terminal() {
		return copyRequest(rec), domain.ErrRunFinished
	}
	u.Apply(rec, t.now())
	return copyRequest(rec), nil
}

// Sweep evicts finished runs last touched before now-ttl and returns how many it removed.
func (t *MemoryTracker) Sweep(now time.Time) int {
	if t.ttl <= 0 {
		return 0
	}
	cutoff := now.Add(-t.ttl)

	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for id, rec := range t.runs {
		if rec.Status.Terminal() && rec.UpdatedAt.Before(cutoff) {
			delete(t.runs, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked runs.
func (t *MemoryTracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.runs)
}

func copyRequest(r *domain.InterviewPrepRequest) *domain.InterviewPrepRequest {
	c := *r
	if r.Error != nil {
		msg := *r.Error
		c.Error = &msg
	}
	return &c
}
