package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"interview-prep/domain"
)

// SubmitInput is a validated interview prep submission.
type SubmitInput struct {
	JobURL      string
	LinkedinURL string
	Document    []byte
	MimeType    string
	Filename    string
}

// Orchestrator drives one run through the four stages and owns its tracker record.
type Orchestrator struct {
	stages     *Stages
	extractor  domain.DocumentExtractor
	tracker    domain.Tracker
	repo       domain.InterviewRepository
	dispatcher domain.Dispatcher
	runTimeout time.Duration
	log        logrus.FieldLogger
}

func NewOrchestrator(
	stages *Stages,
	extractor domain.DocumentExtractor,
	tracker domain.Tracker,
	repo domain.InterviewRepository,
	runTimeout time.Duration,
	log logrus.FieldLogger,
) *Orchestrator {
	return &Orchestrator{
		stages:     stages,
		extractor:  extractor,
		tracker:    tracker,
		repo:       repo,
		runTimeout: runTimeout,
		log:        log,
	}
}

// SetDispatcher wires the background executor. It is set after construction because
// dispatchers call back into Run.
func (o *Orchestrator) SetDispatcher(d domain.Dispatcher) {
	o.dispatcher = d
}

// Submit registers a new run and hands it to the dispatcher. The returned id is
// immediately visible through the tracker with status processing.
func (o *Orchestrator) Submit(ctx context.Context, in SubmitInput) (string, error) {
	if o.dispatcher == nil {
		return "", errors.New("no dispatcher configured")
	}

	id := uuid.NewString()
	if _, err := o.tracker.Create(ctx, id, in.JobURL, in.LinkedinURL); err != nil {
		return "", fmt.Errorf("register run: %w", err)
	}

	job := domain.RunJob{
		ID:          id,
		JobURL:      in.JobURL,
		LinkedinURL: in.LinkedinURL,
		Document:    in.Document,
		MimeType:    in.MimeType,
		Filename:    in.Filename,
		SubmittedAt: time.Now().UTC(),
	}
	if err := o.dispatcher.Dispatch(ctx, job); err != nil {
		o.fail(ctx, id, fmt.Errorf("failed to queue interview preparation: %w", err))
		return "", fmt.Errorf("dispatch run %s: %w", id, err)
	}

	o.log.WithFields(logrus.Fields{"run_id": id, "job_url": in.JobURL}).Info("interview prep submitted")
	return id, nil
}

// Run executes the pipeline for job. It never returns an error: the outcome is written
// to the tracker and, on success, persisted.
func (o *Orchestrator) Run(ctx context.Context, job domain.RunJob) {
	log := o.log.WithField("run_id", job.ID)

	if o.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.runTimeout)
		defer cancel()
	}

	rec, err := o.tracker.Get(ctx, job.ID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		// Redelivered from the queue after the tracker entry expired.
		if _, err := o.tracker.Create(ctx, job.ID, job.JobURL, job.LinkedinURL); err != nil {
			log.WithError(err).Error("could not re-register run")
			return
		}
	case err != nil:
		log.WithError(err).Error("could not read run state")
		return
	case rec.Status.Terminal():
		log.WithField("status", rec.Status).Info("run already finished, skipping")
		return
	case rec.Progress != domain.StepJobResearch:
		// A worker died mid-run. Stages cannot be replayed without moving the marker backwards.
		o.fail(ctx, job.ID, fmt.Errorf("run interrupted during %s", rec.Progress))
		return
	}

	start := time.Now()
	result, resumeText, err := o.execute(ctx, job, log)
	if err != nil {
		log.WithError(err).WithField("elapsed", time.Since(start)).Error("interview prep failed")
		o.fail(ctx, job.ID, err)
		return
	}

	if err := o.complete(ctx, job.ID, result); err != nil {
		log.WithError(err).Error("could not record completed run")
		if errors.Is(err, domain.ErrInvalidTransition) {
			o.fail(ctx, job.ID, err)
			return
		}
	}
	log.WithField("elapsed", time.Since(start)).Info("interview prep completed")

	// The tracker already holds the result, so a save failure is only logged.
	if err := o.repo.Save(context.WithoutCancel(ctx), job.ID, result, job.JobURL, resumeText, job.LinkedinURL); err != nil {
		log.WithError(err).Error("error saving interview prep")
	}
}

// Abandon fails a run that was accepted but will never execute.
func (o *Orchestrator) Abandon(job domain.RunJob, cause error) {
	o.fail(context.Background(), job.ID, fmt.Errorf("interview preparation was not started: %w", cause))
}

func (o *Orchestrator) execute(ctx context.Context, job domain.RunJob, log logrus.FieldLogger) (*domain.InterviewPrepArtifact, string, error) {
	if err := o.advance(ctx, job.ID, domain.StepJobResearch, log); err != nil {
		return nil, "", err
	}
	jobAnalysis, err := o.stages.ResearchJob(ctx, job.JobURL)
	if err != nil {
		return nil, "", err
	}

	if err := o.advance(ctx, job.ID, domain.StepProfileAnalysis, log); err != nil {
		return nil, "", err
	}
	resumeText, err := o.extractor.Extract(ctx, job.Document, job.MimeType)
	if err != nil {
		return nil, "", err
	}
	if _, err := o.tracker.Update(ctx, job.ID, domain.RunUpdate{ResumeText: &resumeText}); err != nil {
		return nil, "", err
	}
	resumeAnalysis, err := o.stages.AnalyzeResume(ctx, resumeText, job.LinkedinURL)
	if err != nil {
		return nil, "", err
	}

	if err := o.advance(ctx, job.ID, domain.StepQuestionGeneration, log); err != nil {
		return nil, "", err
	}
	draft, err := o.stages.GenerateQuestions(ctx, jobAnalysis, resumeAnalysis)
	if err != nil {
		return nil, "", err
	}

	if err := o.advance(ctx, job.ID, domain.StepQualityCheck, log); err != nil {
		return nil, "", err
	}
	validated, err := o.stages.ValidatePrep(ctx, draft, job.JobURL)
	if err != nil {
		return nil, "", err
	}

	return validated, resumeText, nil
}

// advance moves the run's marker to step. The marker only ever moves one stage
// forward; the first stage is entered from the marker set at registration.
func (o *Orchestrator) advance(ctx context.Context, id string, step domain.AgentStep, log logrus.FieldLogger) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("run aborted before %s: %w", step, err)
	}
	if err := o.checkTransition(ctx, id, step); err != nil {
		return err
	}
	if _, err := o.tracker.Update(ctx, id, domain.RunUpdate{Progress: &step}); err != nil {
		return fmt.Errorf("record progress %s: %w", step, err)
	}
	log.WithField("stage", step).Info("stage started")
	return nil
}

func (o *Orchestrator) complete(ctx context.Context, id string, result *domain.InterviewPrepArtifact) error {
	if err := o.checkTransition(ctx, id, domain.StepCompleted); err != nil {
		return err
	}
	status, step := domain.StatusCompleted, domain.StepCompleted
	_, err := o.tracker.Update(ctx, id, domain.RunUpdate{
		Status:   &status,
		Progress: &step,
		Result:   result,
	})
	return err
}

func (o *Orchestrator) checkTransition(ctx context.Context, id string, to domain.AgentStep) error {
	rec, err := o.tracker.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("read progress: %w", err)
	}
	if rec.Progress == domain.StepJobResearch && to == domain.StepJobResearch {
		return nil
	}
	if !domain.IsTransitionAllowed(rec.Progress, to) {
		next, _ := domain.NextStep(rec.Progress)
		return fmt.Errorf("%w: %s to %s, expected %q", domain.ErrInvalidTransition, rec.Progress, to, next)
	}
	return nil
}

func (o *Orchestrator) fail(ctx context.Context, id string, cause error) {
	status := domain.StatusFailed
	msg := cause.Error()
	if msg == "" {
		msg = "Unknown error occurred"
	}
	if _, err := o.tracker.Update(context.WithoutCancel(ctx), id, domain.RunUpdate{
		Status: &status,
		Error:  &msg,
	}); err != nil {
		o.log.WithError(err).WithField("run_id", id).Error("could not record failed run")
	}
}
