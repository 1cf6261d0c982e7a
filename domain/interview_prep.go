package domain

import (
	"time"

	"gorm.io/datatypes"
)

const (
	FallbackJobTitle = "Untitled Position"
	FallbackCompany  = "Unknown Company"

	// RetentionPeriod is how long a persisted prep stays listable after its last save.
	RetentionPeriod = 30 * 24 * time.Hour
)

// Analysis is the loosely typed output of the job and resume analysis stages.
type Analysis map[string]any

type JobDetails struct {
	Company  string   `json:"company"`
	Title    string   `json:"title"`
	Location string   `json:"location"`
	Skills   []string `json:"skills"`
}

type TalkingPoint struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type Question struct {
	ID            string         `json:"id"`
	Question      string         `json:"question"`
	TalkingPoints []TalkingPoint `json:"talkingPoints"`
}

// InterviewPrepArtifact is the package returned to clients and persisted on completion.
type InterviewPrepArtifact struct {
	JobDetails            JobDetails `json:"jobDetails"`
	BehavioralQuestions   []Question `json:"behavioralQuestions"`
	TechnicalQuestions    []Question `json:"technicalQuestions"`
	RoleSpecificQuestions []Question `json:"roleSpecificQuestions"`
}

// Reconcile assigns ids to every question and talking point that lacks one.
func (a *InterviewPrepArtifact) Reconcile() {
	a.BehavioralQuestions = EnsureQuestionIDs(a.BehavioralQuestions)
	a.TechnicalQuestions = EnsureQuestionIDs(a.TechnicalQuestions)
	a.RoleSpecificQuestions = EnsureQuestionIDs(a.RoleSpecificQuestions)
	if a.JobDetails.Skills == nil {
		a.JobDetails.Skills = []string{}
	}
}

// InterviewPrep is the durable record of a completed run.
type InterviewPrep struct {
	ID          string         `gorm:"primaryKey;size:64" json:"id"`
	JobTitle    string         `gorm:"size:255;not null" json:"jobTitle"`
	Company     string         `gorm:"size:255;not null" json:"company"`
	JobURL      string         `gorm:"type:text" json:"jobUrl"`
	ResumeText  string         `gorm:"type:text" json:"resumeText"`
	LinkedinURL *string        `gorm:"type:text" json:"linkedinUrl"`
	Data        datatypes.JSON `gorm:"not null" json:"data"`
	CreatedAt   time.Time      `gorm:"not null;index" json:"createdAt"`
	ExpiresAt   time.Time      `gorm:"not null;index" json:"expiresAt"`
}

func (InterviewPrep) TableName() string { return "interview_preps" }

// Expired reports whether the record's retention window has passed at now.
func (p InterviewPrep) Expired(now time.Time) bool {
	return !p.ExpiresAt.After(now)
}

// InterviewPrepSummary is the history listing projection.
type InterviewPrepSummary struct {
	ID        string    `json:"id"`
	JobTitle  string    `json:"jobTitle"`
	Company   string    `json:"company"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}
