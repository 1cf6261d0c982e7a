package infrastructure

import (
	"context"
	"time"

	"gorm.io/gorm"

	"interview-prep/domain"
)

type FeedbackRepository struct {
	db *gorm.DB
}

func NewFeedbackRepository(db *gorm.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// Create inserts f and fills in its id and creation time.
func (r *FeedbackRepository) Create(ctx context.Context, f *domain.Feedback) error {
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	if err := r.db.WithContext(ctx).Create(f).Error; err != nil {
		return &domain.PersistenceError{Op: "insert feedback", Err: err}
	}
	return nil
}
