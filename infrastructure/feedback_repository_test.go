package infrastructure

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interview-prep/domain"
)

func TestFeedbackRepository_Create(t *testing.T) {
	db := newTestDB(t)
	repo := NewFeedbackRepository(db)

	email := "jane@example.com"
	fb := &domain.Feedback{Email: &email, Comment: "Very helpful questions", NPSScore: 9}
	require.NoError(t, repo.Create(context.Background(), fb))

	assert.NotZero(t, fb.ID)
	assert.False(t, fb.CreatedAt.IsZero())

	var stored domain.Feedback
	require.NoError(t, db.First(&stored, fb.ID).Error)
	assert.Equal(t, "Very helpful questions", stored.Comment)
	assert.Equal(t, 9, stored.NPSScore)
	assert.Nil(t, stored.Name)
	require.NotNil(t, stored.Email)
	assert.Equal(t, email, *stored.Email)
}
