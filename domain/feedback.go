package domain

import (
	"strings"
	"time"
)

type Feedback struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      *string   `gorm:"size:255" json:"name"`
	Email     *string   `gorm:"size:255" json:"email"`
	Comment   string    `gorm:"type:text;not null" json:"comment"`
	NPSScore  int       `gorm:"column:nps_score;not null" json:"npsScore"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
}

func (Feedback) TableName() string { return "feedback" }

// FeedbackInput is the accepted request body for a feedback submission.
type FeedbackInput struct {
	Name     *string `json:"name" validate:"omitempty,max=255"`
	Email    *string `json:"email" validate:"omitempty,email,max=255"`
	Comment  string  `json:"comment" validate:"required,min=3"`
	NPSScore *int    `json:"npsScore" validate:"required,min=0,max=10"`
}

// Normalize treats blank optional fields as absent so they skip format checks.
func (in *FeedbackInput) Normalize() {
	in.Name = emptyToNil(in.Name)
	in.Email = emptyToNil(in.Email)
}

// ToFeedback converts validated input into a new record.
func (in FeedbackInput) ToFeedback() *Feedback {
	f := &Feedback{
		Name:    emptyToNil(in.Name),
		Email:   emptyToNil(in.Email),
		Comment: in.Comment,
	}
	if in.NPSScore != nil {
		f.NPSScore = *in.NPSScore
	}
	return f
}

func emptyToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}
