package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"interview-prep/domain"
)

const defaultHistoryLimit = 10

// InterviewRepository persists completed preps with gorm.
type InterviewRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewInterviewRepository(db *gorm.DB) *InterviewRepository {
	return &InterviewRepository{db: db, now: time.Now}
}

// WithClock replaces the time source; used by tests.
func (r *InterviewRepository) WithClock(now func() time.Time) *InterviewRepository {
	r.now = now
	return r
}

// Save upserts the prep keyed by id. Title and company are derived from the artifact
// on every call, and the expiry window restarts from now.
func (r *InterviewRepository) Save(ctx context.Context, id string, artifact *domain.InterviewPrepArtifact, jobURL, resumeText, linkedinURL string) error {
	if artifact == nil {
		artifact = &domain.InterviewPrepArtifact{}
	}
	data, err := json.Marshal(artifact)
	if err != nil {
		return &domain.PersistenceError{Op: "encode interview prep", Err: err}
	}

	now := r.now().UTC()
	rec := domain.InterviewPrep{
		ID:         id,
		JobTitle:   orDefault(artifact.JobDetails.Title, domain.FallbackJobTitle),
		Company:    orDefault(artifact.JobDetails.Company, domain.FallbackCompany),
		JobURL:     jobURL,
		ResumeText: resumeText,
		Data:       datatypes.JSON(data),
		CreatedAt:  now,
		ExpiresAt:  now.Add(domain.RetentionPeriod),
	}
	if linkedinURL != "" {
		rec.LinkedinURL = &linkedinURL
	}

	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"job_title", "company", "job_url", "resume_text", "linkedin_url", "data", "expires_at",
		}),
	}).Create(&rec).Error
	if err != nil {
		return &domain.PersistenceError{Op: "save interview prep", Err: err}
	}
	return nil
}

func (r *InterviewRepository) GetByID(ctx context.Context, id string) (*domain.InterviewPrep, error) {
	var rec domain.InterviewPrep
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, &domain.PersistenceError{Op: "get interview prep", Err: err}
	}
	return &rec, nil
}

// ListRecent returns up to limit records, newest first. Expired rows are dropped after
// the query, so fewer than limit may come back even when more live rows exist.
func (r *InterviewRepository) ListRecent(ctx context.Context, limit int) ([]domain.InterviewPrepSummary, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	var rows []domain.InterviewPrep
	err := r.db.WithContext(ctx).
		Select("id", "job_title", "company", "created_at", "expires_at").
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, &domain.PersistenceError{Op: "list interview preps", Err: err}
	}

	now := r.now()
	out := make([]domain.InterviewPrepSummary, 0, len(rows))
	for _, row := range rows {
		if row.Expired(now) {
			continue
		}
		out = append(out, domain.InterviewPrepSummary{
			ID:        row.ID,
			JobTitle:  row.JobTitle,
			Company:   row.Company,
			CreatedAt: row.CreatedAt,
			ExpiresAt: row.ExpiresAt,
		})
	}
	return out, nil
}

func (r *InterviewRepository) Delete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Delete(&domain.InterviewPrep{}, "id = ?", id).Error; err != nil {
		return &domain.PersistenceError{Op: "delete interview prep", Err: err}
	}
	return nil
}

// DeleteExpired removes every record whose expiry has passed and returns how many went.
func (r *InterviewRepository) DeleteExpired(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at < ?", r.now().UTC()).Delete(&domain.InterviewPrep{})
	if res.Error != nil {
		return 0, &domain.PersistenceError{Op: "delete expired interview preps", Err: res.Error}
	}
	return res.RowsAffected, nil
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
