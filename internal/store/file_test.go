// internal/store/file_test.go
package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autoflow/internal/common/logger"
	"autoflow/internal/models"
)

func TestFileBackendMissingFileIsEmpty(t *testing.T) {
	backend := NewFileBackend(filepath.Join(t.TempDir(), "applications.json"), logger.NewTestLogger(t))

	apps, err := backend.Load(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, apps)
}

func TestFileBackendRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "applications.json")
	backend := NewFileBackend(path, logger.NewTestLogger(t))
	ctx := context.Background()

	submitted := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	in := []models.CreditApplication{
		{
			ID:                1001,
			Token:             "abc123",
			FirstName:         "Dana",
			Status:            models.StatusDocumentsPending,
			SubmittedAt:       submitted,
			UploadedDocuments: []models.UploadedDocument{},
		},
		{
			ID:     1002,
			Token:  "def456",
			Status: models.StatusApproved,
			ApprovalTerms: &models.ApprovalTerms{
				LoanAmount:   21000,
				InterestRate: 4.25,
				TermLength:   60,
			},
		},
	}

	require.NoError(t, backend.Save(ctx, in))

	out, err := backend.Load(ctx)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, in[0].ID, out[0].ID)
	assert.True(t, out[0].SubmittedAt.Equal(submitted))
	assert.Equal(t, 4.25, out[1].ApprovalTerms.InterestRate)
}

func TestFileBackendSaveCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deep", "applications.json")
	backend := NewFileBackend(path, logger.NewTestLogger(t))

	require.NoError(t, backend.Save(context.Background(), nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(data))
}

func TestFileBackendCorruptFileQuarantined(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "applications.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	backend := NewFileBackend(path, logger.NewNoOpLogger())

	apps, err := backend.Load(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, apps)

	// original file moved aside, not destroyed
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))

	matches, err := filepath.Glob(path + ".corrupt-*")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	preserved, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(preserved))
}

func TestFileBackendRecoversAfterQuarantine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "applications.json")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o644))

	backend := NewFileBackend(path, logger.NewNoOpLogger())
	ctx := context.Background()

	_, err := backend.Load(ctx)
	require.NoError(t, err)

	require.NoError(t, backend.Save(ctx, []models.CreditApplication{{ID: 1, Token: "t"}}))
	apps, err := backend.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, apps, 1)
}
