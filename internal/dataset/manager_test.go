package dataset

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestManager_Open(t *testing.T) {
	manager := NewManager(DefaultOptions(), testLogger())
	t.Cleanup(func() { manager.Close() })

	_, err := manager.Current()
	assert.ErrorIs(t, err, ErrNoDataset)

	dir := t.TempDir()
	writeImage(t, dir, "a.png", ptr("x"))

	report, err := manager.Open(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Added)
	assert.FileExists(t, filepath.Join(dir, "dataset.sqlite"))

	session, err := manager.Current()
	require.NoError(t, err)
	assert.Equal(t, dir, session.Root())
	assert.Equal(t, []string{"x"}, tagNames(t, session, "a.png"))
}

func TestManager_SwitchKeepsPreviousOnFailure(t *testing.T) {
	manager := NewManager(DefaultOptions(), testLogger())
	t.Cleanup(func() { manager.Close() })

	first := t.TempDir()
	_, err := manager.Open(context.Background(), first)
	require.NoError(t, err)

	_, err = manager.Open(context.Background(), filepath.Join(first, "does-not-exist"))
	assert.ErrorIs(t, err, ErrNotFound)

	session, err := manager.Current()
	require.NoError(t, err)
	assert.Equal(t, first, session.Root())

	file := filepath.Join(first, "plain.png")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))
	_, err = manager.Open(context.Background(), file)
	assert.ErrorIs(t, err, ErrValidation)

	second := t.TempDir()
	_, err = manager.Open(context.Background(), second)
	require.NoError(t, err)

	session, err = manager.Current()
	require.NoError(t, err)
	assert.Equal(t, second, session.Root())
}

func TestManager_Close(t *testing.T) {
	manager := NewManager(DefaultOptions(), testLogger())

	_, err := manager.Open(context.Background(), t.TempDir())
	require.NoError(t, err)

	require.NoError(t, manager.Close())
	_, err = manager.Current()
	assert.ErrorIs(t, err, ErrNoDataset)
	assert.NoError(t, manager.Close())
}

func TestOpenSession_Validation(t *testing.T) {
	_, err := OpenSession(context.Background(), "  ", DefaultOptions(), testLogger())
	assert.ErrorIs(t, err, ErrValidation)
}

// writeLegacyIndex creates dataset.sqlite in dir with the schema of earlier
// releases and runs stmts against it.
func writeLegacyIndex(t *testing.T, dir string, stmts ...string) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(dir, "dataset.sqlite")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	schema := []string{
		`CREATE TABLE images (
			id INTEGER PRIMARY KEY,
			file_path TEXT NOT NULL UNIQUE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE tags (
			id INTEGER PRIMARY KEY,
			tag_name TEXT NOT NULL UNIQUE,
			tag_bcolor TEXT DEFAULT '#eeeeee',
			tag_fcolor TEXT DEFAULT '#333333'
		)`,
		`CREATE TABLE image_tags (
			image_id INTEGER,
			tag_id INTEGER,
			"order" INTEGER,
			FOREIGN KEY (image_id) REFERENCES images (id) ON DELETE CASCADE,
			FOREIGN KEY (tag_id) REFERENCES tags (id) ON DELETE CASCADE,
			PRIMARY KEY (image_id, tag_id)
		)`,
	}
	for _, stmt := range append(schema, stmts...) {
		require.NoError(t, db.Exec(stmt).Error)
	}

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
}

func TestManager_OpenRepairsLegacyOrderGaps(t *testing.T) {
	manager := NewManager(DefaultOptions(), testLogger())
	t.Cleanup(func() { manager.Close() })

	// Earlier releases dropped the repeated "x" but kept the loop index
	// as order, leaving y at position 2.
	dir := t.TempDir()
	writeImage(t, dir, "a.png", ptr("x, x, y"))
	writeLegacyIndex(t, dir,
		`INSERT INTO images (id, file_path) VALUES (1, 'a.png')`,
		`INSERT INTO tags (id, tag_name) VALUES (1, 'x'), (2, 'y')`,
		`INSERT INTO image_tags (image_id, tag_id, "order") VALUES (1, 1, 0), (1, 2, 2)`,
	)

	report, err := manager.Open(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Added)
	assert.Equal(t, 1, report.Retagged)

	session, err := manager.Current()
	require.NoError(t, err)
	assertGaplessOrders(t, session)
	assert.Equal(t, []string{"x", "y"}, tagNames(t, session, "a.png"))

	report, err = session.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Retagged)
}
