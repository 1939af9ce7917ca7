package dataset

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mwantia/gotagger/pkg/db/models"
	"github.com/mwantia/gotagger/pkg/db/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcile_EmptyFolder(t *testing.T) {
	s, _ := setupTestSession(t)

	report, err := s.Reconcile(context.Background())
	require.NoError(t, err)

	assert.Equal(t, &SyncReport{}, report)
	assert.Zero(t, countRows(t, s, &models.Image{}))
	assert.Zero(t, countRows(t, s, &models.Tag{}))
}

func TestReconcile_DuplicateTagsCollapse(t *testing.T) {
	s, dir := setupTestSession(t)
	ctx := context.Background()

	_, err := s.Reconcile(ctx)
	require.NoError(t, err)

	writeImage(t, dir, "one.png", ptr("x, y, x"))

	report, err := s.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Added)
	assert.Equal(t, 1, report.Retagged)

	assert.Equal(t, []string{"x", "y"}, tagNames(t, s, "one.png"))
	assert.Equal(t, int64(2), countRows(t, s, &models.Tag{}))
	assertGaplessOrders(t, s)
}

func TestReconcile_ReadsSidecarsAndFiltersExtensions(t *testing.T) {
	s, dir := setupTestSession(t)

	writeImage(t, dir, "a.png", ptr("cat, , outdoors,"))
	writeImage(t, dir, "B.JPG", ptr("dog"))
	writeImage(t, dir, "c.webp", nil)
	writeImage(t, dir, "d.gif", ptr(" , ,"))
	writeImage(t, dir, "notes.md", nil)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.png"), 0755))

	report, err := s.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, report.Total)
	assert.Equal(t, 4, report.Added)

	assert.Equal(t, []string{"cat", "outdoors"}, tagNames(t, s, "a.png"))
	assert.Equal(t, []string{"dog"}, tagNames(t, s, "B.JPG"))
	assert.Empty(t, tagNames(t, s, "c.webp"))
	assert.Empty(t, tagNames(t, s, "d.gif"))
}

func TestReconcile_Idempotent(t *testing.T) {
	s, dir := setupTestSession(t)
	ctx := context.Background()

	writeImage(t, dir, "a.png", ptr("b, c, a"))
	writeImage(t, dir, "b.png", ptr("c"))
	writeImage(t, dir, "c.png", nil)

	first, err := s.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, first.Added)
	assert.Equal(t, 2, first.Retagged)
	before := tagNames(t, s, "a.png")

	second, err := s.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, &SyncReport{Total: 3}, second)
	assert.Equal(t, before, tagNames(t, s, "a.png"))
	assert.Equal(t, []string{"b", "c", "a"}, before)
}

func TestReconcile_RemovesVanishedFilesAndPicksUpEdits(t *testing.T) {
	s, dir := setupTestSession(t)
	ctx := context.Background()

	writeImage(t, dir, "keep.png", ptr("a, b"))
	writeImage(t, dir, "gone.png", ptr("a"))

	_, err := s.Reconcile(ctx)
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(dir, "gone.png")))
	writeSidecar(t, dir, "keep.png", "b, a, c")

	report, err := s.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Removed)
	assert.Equal(t, 0, report.Added)
	assert.Equal(t, 1, report.Retagged)

	assert.Equal(t, int64(1), countRows(t, s, &models.Image{}))
	assert.Equal(t, int64(3), countRows(t, s, &models.ImageTag{}))
	assert.Equal(t, []string{"b", "a", "c"}, tagNames(t, s, "keep.png"))
	assertGaplessOrders(t, s)
}

func TestReconcile_MissingSidecarClearsTags(t *testing.T) {
	s, dir := setupTestSession(t)
	ctx := context.Background()

	writeImage(t, dir, "a.png", ptr("a, b"))
	_, err := s.Reconcile(ctx)
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(dir, "a.txt")))

	_, err = s.Reconcile(ctx)
	require.NoError(t, err)
	assert.Empty(t, tagNames(t, s, "a.png"))

	// Tags stay in the store; only an explicit delete removes them.
	assert.Equal(t, int64(2), countRows(t, s, &models.Tag{}))
}

func TestReconcile_RollsBackOnUnreadableSidecar(t *testing.T) {
	s, dir := setupTestSession(t)
	ctx := context.Background()

	writeImage(t, dir, "a.png", ptr("a"))
	_, err := s.Reconcile(ctx)
	require.NoError(t, err)

	writeImage(t, dir, "b.png", nil)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "b.txt"), 0755))

	_, err = s.Reconcile(ctx)
	require.Error(t, err)

	assert.Equal(t, int64(1), countRows(t, s, &models.Image{}))
	assert.Equal(t, []string{"a"}, tagNames(t, s, "a.png"))
}

func TestReconcile_RoundTripsSavedTags(t *testing.T) {
	s, dir := setupTestSession(t)
	ctx := context.Background()

	writeImage(t, dir, "a.png", nil)
	_, err := s.Reconcile(ctx)
	require.NoError(t, err)

	tags := []TagInput{{Name: "z"}, {Name: "blue sky"}, {Name: "a"}}
	_, err = s.SaveTags(ctx, []string{"a.png"}, tags)
	require.NoError(t, err)

	report, err := s.Reconcile(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.Retagged)
	assert.Equal(t, []string{"z", "blue sky", "a"}, tagNames(t, s, "a.png"))
}

func TestReconcile_RenumbersOrderGaps(t *testing.T) {
	s, dir := setupTestSession(t)
	ctx := context.Background()

	writeImage(t, dir, "a.png", ptr("x, y, z"))
	writeImage(t, dir, "b.png", ptr(""))
	_, err := s.Reconcile(ctx)
	require.NoError(t, err)

	db := s.Store().(*store.SQLiteStore).DB()
	require.NoError(t, db.Exec(`UPDATE image_tags SET "order" = "order" * 3`).Error)

	report, err := s.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Retagged, "only the image with gaps is rewritten")
	assertGaplessOrders(t, s)
	assert.Equal(t, []string{"x", "y", "z"}, tagNames(t, s, "a.png"))
}
