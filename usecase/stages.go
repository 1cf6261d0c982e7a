package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"interview-prep/domain"
)

// minQuestionsPerCategory is the count the quality instruction asks for. Shortfalls
// are reported but do not fail the run.
const minQuestionsPerCategory = 5

// Stages holds the four pipeline transforms. Each one is a single structured
// completion with its own instruction.
type Stages struct {
	llm   domain.Completer
	pages domain.PageFetcher // optional
	log   logrus.FieldLogger
}

// NewStages builds the stage set. pages may be nil, in which case JobResearch only
// sends the URL.
func NewStages(llm domain.Completer, pages domain.PageFetcher, log logrus.FieldLogger) *Stages {
	return &Stages{llm: llm, pages: pages, log: log}
}

// ResearchJob analyzes the job posting at jobURL.
func (s *Stages) ResearchJob(ctx context.Context, jobURL string) (domain.Analysis, error) {
	content := "Analyze the content at this URL: " + jobURL
	if s.pages != nil {
		page, err := s.pages.Fetch(ctx, jobURL)
		if err != nil {
			s.log.WithError(err).WithField("job_url", jobURL).Warn("job page fetch failed, analyzing URL only")
		} else if page != "" {
			content += "\n\nPage content (markdown):\n" + page
		}
	}

	var out domain.Analysis
	if err := s.llm.CompleteJSON(ctx, jobResearchPrompt, content, &out); err != nil {
		return nil, fmt.Errorf("failed to analyze job posting: %w", err)
	}
	return out, nil
}

// AnalyzeResume profiles the candidate from resume text and an optional LinkedIn URL.
func (s *Stages) AnalyzeResume(ctx context.Context, resumeText, linkedinURL string) (domain.Analysis, error) {
	content := resumeText
	if strings.TrimSpace(linkedinURL) != "" {
		content += "\n\nThe candidate also has a LinkedIn profile at: " + linkedinURL + ". Consider this for additional context."
	}

	var out domain.Analysis
	if err := s.llm.CompleteJSON(ctx, profilerPrompt, content, &out); err != nil {
		return nil, fmt.Errorf("failed to analyze resume: %w", err)
	}
	return out, nil
}

// GenerateQuestions drafts the interview package from both analyses.
func (s *Stages) GenerateQuestions(ctx context.Context, job, resume domain.Analysis) (*domain.InterviewPrepArtifact, error) {
	jobJSON, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("failed to generate interview questions: encode job analysis: %w", err)
	}
	resumeJSON, err := json.Marshal(resume)
	if err != nil {
		return nil, fmt.Errorf("failed to generate interview questions: encode resume analysis: %w", err)
	}
	content := fmt.Sprintf("Job Analysis: %s\n\nResume Analysis: %s", jobJSON, resumeJSON)

	var out domain.InterviewPrepArtifact
	if err := s.llm.CompleteJSON(ctx, interviewPreparerPrompt, content, &out); err != nil {
		return nil, fmt.Errorf("failed to generate interview questions: %w", err)
	}
	out.Reconcile()
	return &out, nil
}

// ValidatePrep has the reasoning service review and extend draft against jobURL.
func (s *Stages) ValidatePrep(ctx context.Context, draft *domain.InterviewPrepArtifact, jobURL string) (*domain.InterviewPrepArtifact, error) {
	draftJSON, err := json.Marshal(draft)
	if err != nil {
		return nil, fmt.Errorf("failed to validate interview preparation: encode draft: %w", err)
	}

	var out domain.InterviewPrepArtifact
	if err := s.llm.CompleteJSON(ctx, qualityAgentPrompt(jobURL), string(draftJSON), &out); err != nil {
		return nil, fmt.Errorf("failed to validate interview preparation: %w", err)
	}
	out.Reconcile()
	s.warnShortCategories(&out, jobURL)
	return &out, nil
}

func (s *Stages) warnShortCategories(a *domain.InterviewPrepArtifact, jobURL string) {
	for _, c := range []struct {
		name      string
		questions []domain.Question
	}{
		{"behavioral", a.BehavioralQuestions},
		{"technical", a.TechnicalQuestions},
		{"role_specific", a.RoleSpecificQuestions},
	} {
		if len(c.questions) < minQuestionsPerCategory {
			s.log.WithFields(logrus.Fields{
				"category": c.name,
				"count":    len(c.questions),
				"want":     minQuestionsPerCategory,
				"job_url":  jobURL,
			}).Warn("validated prep is short on questions")
		}
	}
}
