package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"interview-prep/domain"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type completerCall struct {
	System string
	User   string
}

// scriptedCompleter replies with canned bodies in call order. Once the script runs out
// the last reply repeats.
type scriptedCompleter struct {
	mu      sync.Mutex
	replies []string
	calls   []completerCall
}

func (c *scriptedCompleter) CompleteJSON(ctx context.Context, systemPrompt, userContent string, out any) error {
	c.mu.Lock()
	c.calls = append(c.calls, completerCall{System: systemPrompt, User: userContent})
	i := len(c.calls) - 1
	if i >= len(c.replies) {
		i = len(c.replies) - 1
	}
	reply := c.replies[i]
	c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return &domain.UpstreamError{Op: "stub completion", Err: err}
	}
	if err := json.Unmarshal([]byte(reply), out); err != nil {
		return &domain.UpstreamError{Op: "stub completion", Err: err}
	}
	return nil
}

func (c *scriptedCompleter) Calls() []completerCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]completerCall(nil), c.calls...)
}

// blockingCompleter waits for the context to end.
type blockingCompleter struct{}

func (blockingCompleter) CompleteJSON(ctx context.Context, _, _ string, _ any) error {
	<-ctx.Done()
	return &domain.UpstreamError{Op: "stub completion", Err: ctx.Err()}
}

type stubPages struct {
	body string
	err  error
}

func (p stubPages) Fetch(context.Context, string) (string, error) { return p.body, p.err }

type stubExtractor struct {
	text string
	err  error
}

func (e stubExtractor) Extract(context.Context, []byte, string) (string, error) { return e.text, e.err }

type savedPrep struct {
	Artifact    *domain.InterviewPrepArtifact
	JobURL      string
	ResumeText  string
	LinkedinURL string
}

type fakeRepo struct {
	mu      sync.Mutex
	saved   map[string]savedPrep
	saveErr error
}

func newFakeRepo() *fakeRepo { return &fakeRepo{saved: map[string]savedPrep{}} }

func (r *fakeRepo) Save(_ context.Context, id string, a *domain.InterviewPrepArtifact, jobURL, resumeText, linkedinURL string) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved[id] = savedPrep{Artifact: a, JobURL: jobURL, ResumeText: resumeText, LinkedinURL: linkedinURL}
	return nil
}

func (r *fakeRepo) Saved(id string) (savedPrep, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.saved[id]
	return p, ok
}

func (r *fakeRepo) GetByID(context.Context, string) (*domain.InterviewPrep, error) {
	return nil, domain.ErrNotFound
}

func (r *fakeRepo) ListRecent(context.Context, int) ([]domain.InterviewPrepSummary, error) {
	return nil, nil
}

func (r *fakeRepo) Delete(context.Context, string) error { return nil }

func (r *fakeRepo) DeleteExpired(context.Context) (int64, error) { return 0, nil }

// recordingTracker remembers every progress marker written through it.
type recordingTracker struct {
	domain.Tracker
	mu    sync.Mutex
	steps []domain.AgentStep
}

func (t *recordingTracker) Update(ctx context.Context, id string, u domain.RunUpdate) (*domain.InterviewPrepRequest, error) {
	rec, err := t.Tracker.Update(ctx, id, u)
	if err == nil && u.Progress != nil {
		t.mu.Lock()
		t.steps = append(t.steps, *u.Progress)
		t.mu.Unlock()
	}
	return rec, err
}

func (t *recordingTracker) Steps() []domain.AgentStep {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]domain.AgentStep(nil), t.steps...)
}

type stubDispatcher struct {
	jobs []domain.RunJob
	err  error
}

func (d *stubDispatcher) Dispatch(_ context.Context, job domain.RunJob) error {
	if d.err != nil {
		return d.err
	}
	d.jobs = append(d.jobs, job)
	return nil
}

var errStub = errors.New("stub failure")

const (
	jobAnalysisReply    = `{"company":"Acme","title":"Backend Engineer","skills":["Go","PostgreSQL"]}`
	resumeAnalysisReply = `{"name":"Jane Doe","skills":["Go","Kubernetes"]}`
	draftReply          = `{
		"jobDetails":{"company":"Acme","title":"Backend Engineer","location":"Remote","skills":["Go"]},
		"behavioralQuestions":[{"question":"Tell me about a conflict","talkingPoints":[{"text":"situation"}]}],
		"technicalQuestions":[{"id":"tech-1","question":"Explain Go channels","talkingPoints":[{"id":"tp-1","text":"buffered vs unbuffered"}]}],
		"roleSpecificQuestions":[]
	}`
	validatedReply = `{
		"jobDetails":{"company":"Acme","title":"Backend Engineer","location":"Remote","skills":["Go"]},
		"behavioralQuestions":[{"id":"beh-1","question":"Tell me about a conflict","talkingPoints":[{"id":"tp-b","text":"situation"}]}],
		"technicalQuestions":[{"id":"tech-1","question":"Explain Go channels","talkingPoints":[{"id":"tp-1","text":"buffered vs unbuffered"},{"text":"select statements"}]}],
		"roleSpecificQuestions":[{"question":"How would you design a payment ledger?"}]
	}`
	malformedReply = `this is not json`
)

func happyReplies() []string {
	return []string{jobAnalysisReply, resumeAnalysisReply, draftReply, validatedReply}
}
