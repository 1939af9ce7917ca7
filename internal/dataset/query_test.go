package dataset

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListImages_Pagination(t *testing.T) {
	s, dir := setupTestSession(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		writeImage(t, dir, fmt.Sprintf("img%d.png", i), nil)
	}
	_, err := s.Reconcile(ctx)
	require.NoError(t, err)

	page, err := s.ListImages(ctx, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Total)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 2, page.PageSize)
	require.Len(t, page.Data, 2)
	assert.Equal(t, ImageSummary{Name: "img2", Filename: "img2.png", Path: "/images/img2.png"}, page.Data[0])
	assert.Equal(t, "img3.png", page.Data[1].Filename)

	page, err = s.ListImages(ctx, 3, 2)
	require.NoError(t, err)
	assert.Len(t, page.Data, 1)

	page, err = s.ListImages(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 50, page.PageSize)
	assert.Len(t, page.Data, 5)
}

func TestListImages_EscapesPath(t *testing.T) {
	s, dir := setupTestSession(t)
	writeImage(t, dir, "my photo#1.jpg", nil)
	_, err := s.Reconcile(context.Background())
	require.NoError(t, err)

	page, err := s.ListImages(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "/images/my%20photo%231.jpg", page.Data[0].Path)
	assert.Equal(t, "my photo#1", page.Data[0].Name)
}

func TestImageTags(t *testing.T) {
	s, _ := setupSyncedDataset(t, map[string]string{"a.png": "b, a", "c.png": ""})
	ctx := context.Background()

	views, err := s.ImageTags(ctx, "a.png")
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "b", views[0].Name)
	assert.Equal(t, TagColor{Background: "#eeeeee", Foreground: "#333333"}, views[0].Color)

	views, err = s.ImageTags(ctx, "c.png")
	require.NoError(t, err)
	assert.Empty(t, views)

	_, err = s.ImageTags(ctx, "missing.png")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestImagesByTag(t *testing.T) {
	s, _ := setupSyncedDataset(t, map[string]string{
		"b.png": "x",
		"a.png": "x, y",
		"c.png": "y",
	})
	ctx := context.Background()

	images, err := s.ImagesByTag(ctx, "x")
	require.NoError(t, err)
	require.Len(t, images, 2)
	assert.Equal(t, "a.png", images[0].Filename)
	assert.Equal(t, "b.png", images[1].Filename)

	images, err = s.ImagesByTag(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, images)

	_, err = s.ImagesByTag(ctx, "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestTagSummary(t *testing.T) {
	s, _ := setupSyncedDataset(t, map[string]string{
		"a.png": "common, rare",
		"b.png": "common, beta",
		"c.png": "common, alpha",
	})
	ctx := context.Background()

	// Unreferenced tags do not show up.
	_, err := s.BatchProcess(ctx, ActionDelete, []string{"rare"})
	require.NoError(t, err)

	summary, err := s.TagSummary(ctx)
	require.NoError(t, err)
	require.Len(t, summary, 3)
	assert.Equal(t, "common", summary[0].Name)
	assert.Equal(t, int64(3), summary[0].Count)
	assert.Equal(t, "alpha", summary[1].Name)
	assert.Equal(t, "beta", summary[2].Name)
}
