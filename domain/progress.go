package domain

import (
	"fmt"
	"time"
)

type RunStatus string

const (
	StatusProcessing RunStatus = "processing"
	StatusCompleted  RunStatus = "completed"
	StatusFailed     RunStatus = "failed"
)

// Terminal reports whether no further updates are accepted in this status.
func (s RunStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// AgentStep is the coarse progress marker of a run.
//
//	JOB_RESEARCH ──► PROFILE_ANALYSIS ──► QUESTION_GENERATION ──► QUALITY_CHECK ──► COMPLETED
//
// A failure at any step leaves the marker where it was and flips the status to failed.
type AgentStep string

const (
	StepJobResearch        AgentStep = "JOB_RESEARCH"
	StepProfileAnalysis    AgentStep = "PROFILE_ANALYSIS"
	StepQuestionGeneration AgentStep = "QUESTION_GENERATION"
	StepQualityCheck       AgentStep = "QUALITY_CHECK"
	StepCompleted          AgentStep = "COMPLETED"
)

var nextStep = map[AgentStep]AgentStep{
	StepJobResearch:        StepProfileAnalysis,
	StepProfileAnalysis:    StepQuestionGeneration,
	StepQuestionGeneration: StepQualityCheck,
	StepQualityCheck:       StepCompleted,
}

// NextStep returns the step that follows s on the success path.
func NextStep(s AgentStep) (AgentStep, bool) {
	n, ok := nextStep[s]
	return n, ok
}

// IsTransitionAllowed reports whether moving the marker from → to follows the pipeline order.
func IsTransitionAllowed(from, to AgentStep) bool {
	n, ok := nextStep[from]
	return ok && n == to
}

// ParseAgentStep converts a raw string to an AgentStep.
func ParseAgentStep(s string) (AgentStep, error) {
	st := AgentStep(s)
	switch st {
	case StepJobResearch, StepProfileAnalysis, StepQuestionGeneration, StepQualityCheck, StepCompleted:
		return st, nil
	}
	return "", fmt.Errorf("unknown agent step %q", s)
}

// InterviewPrepRequest is the in-flight state of one run, as seen by polling clients.
type InterviewPrepRequest struct {
	ID          string                 `json:"id"`
	JobURL      string                 `json:"jobUrl"`
	LinkedinURL string                 `json:"linkedinUrl,omitempty"`
	ResumeText  string                 `json:"resumeText,omitempty"`
	Status      RunStatus              `json:"status"`
	Progress    AgentStep              `json:"progress"`
	Result      *InterviewPrepArtifact `json:"result"`
	Error       *string                `json:"error"`
	CreatedAt   time.Time              `json:"createdAt"`
	UpdatedAt   time.Time              `json:"updatedAt"`
}

// RunUpdate carries the fields to merge into a tracked run. Nil fields are left unchanged.
type RunUpdate struct {
	Status     *RunStatus
	Progress   *AgentStep
	ResumeText *string
	Result     *InterviewPrepArtifact
	Error      *string
}

// Apply merges u into r.
func (u RunUpdate) Apply(r *InterviewPrepRequest, now time.Time) {
	if u.Status != nil {
		r.Status = *u.Status
	}
	if u.Progress != nil {
		r.Progress = *u.Progress
	}
	if u.ResumeText != nil {
		r.ResumeText = *u.ResumeText
	}
	if u.Result != nil {
		r.Result = u.Result
	}
	if u.Error != nil {
		msg := *u.Error
		r.Error = &msg
	}
	r.UpdatedAt = now
}

// NewInterviewPrepRequest builds the initial record registered at submission.
func NewInterviewPrepRequest(id, jobURL, linkedinURL string, now time.Time) *InterviewPrepRequest {
	return &InterviewPrepRequest{
		ID:          id,
		JobURL:      jobURL,
		LinkedinURL: linkedinURL,
		Status:      StatusProcessing,
		Progress:    StepJobResearch,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
