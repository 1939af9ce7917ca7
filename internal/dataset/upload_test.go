package dataset

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mwantia/gotagger/pkg/db/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpload(t *testing.T) {
	s, dir := setupTestSession(t)
	ctx := context.Background()

	report, err := s.Upload(ctx, []UploadFile{
		{Name: "new.png", Reader: strings.NewReader("png-bytes")},
		{Name: "nested/dir/other.jpg", Reader: strings.NewReader("jpg-bytes")},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"new.png", "other.jpg"}, report.Uploaded)
	assert.Equal(t, int64(2), report.Inserted)

	assert.Equal(t, "png-bytes", readFile(t, filepath.Join(dir, "new.png")))
	assert.Equal(t, "jpg-bytes", readFile(t, filepath.Join(dir, "other.jpg")))
	assert.Equal(t, "", sidecarOf(t, dir, "new.png"))
	assert.Equal(t, int64(2), countRows(t, s, &models.Image{}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, entry := range entries {
		assert.False(t, strings.HasPrefix(entry.Name(), ".upload-"), "temp file %s left behind", entry.Name())
	}
}

func TestUpload_KeepsExistingSidecar(t *testing.T) {
	s, dir := setupSyncedDataset(t, map[string]string{"a.png": "x, y"})
	ctx := context.Background()

	writeSidecar(t, dir, "b.png", "z")

	report, err := s.Upload(ctx, []UploadFile{
		{Name: "a.png", Reader: strings.NewReader("replaced")},
		{Name: "b.png", Reader: strings.NewReader("fresh")},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), report.Inserted, "a.png was already indexed")

	assert.Equal(t, "replaced", readFile(t, filepath.Join(dir, "a.png")))
	assert.Equal(t, "x, y", sidecarOf(t, dir, "a.png"))
	assert.Equal(t, []string{"x", "y"}, tagNames(t, s, "a.png"))
	assert.Equal(t, []string{"z"}, tagNames(t, s, "b.png"))
}

func TestUpload_Validation(t *testing.T) {
	s, dir := setupTestSession(t)
	ctx := context.Background()

	_, err := s.Upload(ctx, nil)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = s.Upload(ctx, []UploadFile{
		{Name: "ok.png", Reader: strings.NewReader("a")},
		{Name: "notes.txt", Reader: strings.NewReader("b")},
	})
	assert.ErrorIs(t, err, ErrValidation)
	assert.NoFileExists(t, filepath.Join(dir, "ok.png"), "nothing is written when any file is rejected")
}
