package domain

import (
	"context"
	"time"
)

// Completer sends a system instruction and user content to the reasoning service and
// decodes its JSON object reply into out.
type Completer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userContent string, out any) error
}

// PageFetcher returns a readable rendition of a web page.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// DocumentExtractor turns an uploaded Word document into plain text.
type DocumentExtractor interface {
	Extract(ctx context.Context, data []byte, mimeType string) (string, error)
}

// Tracker holds the process-visible state of every run.
type Tracker interface {
	Create(ctx context.Context, id, jobURL, linkedinURL string) (*InterviewPrepRequest, error)
	Get(ctx context.Context, id string) (*InterviewPrepRequest, error)
	Update(ctx context.Context, id string, u RunUpdate) (*InterviewPrepRequest, error)
}

// InterviewRepository is the durable store for completed preps.
type InterviewRepository interface {
	Save(ctx context.Context, id string, artifact *InterviewPrepArtifact, jobURL, resumeText, linkedinURL string) error
	GetByID(ctx context.Context, id string) (*InterviewPrep, error)
	ListRecent(ctx context.Context, limit int) ([]InterviewPrepSummary, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

type FeedbackRepository interface {
	Create(ctx context.Context, f *Feedback) error
}

// RunJob is everything a background run needs, serializable for queue transport.
type RunJob struct {
	ID          string    `json:"id"`
	JobURL      string    `json:"job_url"`
	LinkedinURL string    `json:"linkedin_url,omitempty"`
	Document    []byte    `json:"document"`
	MimeType    string    `json:"mime_type"`
	Filename    string    `json:"filename"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Dispatcher hands a run job to whatever executes it in the background.
type Dispatcher interface {
	Dispatch(ctx context.Context, job RunJob) error
}
