package infrastructure

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := NewDatabase("sqlite", filepath.Join(t.TempDir(), "interview_prep.db"), quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = CloseDatabase(db) })
	return db
}
