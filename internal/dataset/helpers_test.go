package dataset

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	config "github.com/mwantia/gotagger/internal/config/server"
	"github.com/mwantia/gotagger/pkg/db/models"
	"github.com/mwantia/gotagger/pkg/db/store"
	"github.com/mwantia/gotagger/pkg/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() log.LoggerService {
	return log.NewLoggerServiceWithWriter("test", config.LogServerConfig{Level: "ERROR"}, io.Discard)
}

// setupTestSession opens a session on a fresh temporary dataset folder.
func setupTestSession(t *testing.T) (*Session, string) {
	t.Helper()

	dir := t.TempDir()
	session, err := OpenSession(context.Background(), dir, DefaultOptions(), testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })

	return session, dir
}

// writeImage creates a fake image file and, unless tags is nil, its sidecar.
func writeImage(t *testing.T, dir, name string, tags *string) {
	t.Helper()

	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("image:"+name), 0644))
	if tags != nil {
		writeSidecar(t, dir, name, *tags)
	}
}

func writeSidecar(t *testing.T, dir, image, content string) {
	t.Helper()

	path := filepath.Join(dir, image[:len(image)-len(filepath.Ext(image))]+".txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func sidecarOf(t *testing.T, dir, image string) string {
	t.Helper()
	return readFile(t, filepath.Join(dir, image[:len(image)-len(filepath.Ext(image))]+".txt"))
}

func ptr(s string) *string {
	return &s
}

// tagNames returns the ordered tag names the index holds for image.
func tagNames(t *testing.T, s *Session, image string) []string {
	t.Helper()

	views, err := s.ImageTags(context.Background(), image)
	require.NoError(t, err)

	names := make([]string, 0, len(views))
	for _, view := range views {
		names = append(names, view.Name)
	}
	return names
}

// assertGaplessOrders checks that the links of every image are ordered 0..k-1.
func assertGaplessOrders(t *testing.T, s *Session) {
	t.Helper()

	db := s.Store().(*store.SQLiteStore).DB()

	var links []models.ImageTag
	require.NoError(t, db.Order(`image_id ASC, "order" ASC`).Find(&links).Error)

	next := make(map[uint]int)
	for _, link := range links {
		assert.Equal(t, next[link.ImageID], link.Order, "image %d has a gap or duplicate order", link.ImageID)
		next[link.ImageID] = link.Order + 1
	}
}

func countRows(t *testing.T, s *Session, model any) int64 {
	t.Helper()

	var count int64
	require.NoError(t, s.Store().(*store.SQLiteStore).DB().Model(model).Count(&count).Error)
	return count
}
