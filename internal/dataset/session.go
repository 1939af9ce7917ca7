// Package dataset keeps a folder of images and tag sidecar files consistent
// with its SQLite index.
//
// The filesystem is authoritative. The index is a cache that Reconcile can
// rebuild at any time; every mutation writes both the index and the affected
// sidecar files. Sidecar writes are not part of the database transaction, so
// a failure after some of them leaves the files ahead of the index until the
// next Reconcile.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/mwantia/gotagger/pkg/db/store"
	"github.com/mwantia/gotagger/pkg/log"
)

// ImageExtensions lists the file extensions treated as dataset images.
var ImageExtensions = []string{".jpg", ".jpeg", ".png", ".webp", ".gif"}

// IsImage reports whether name has one of the image extensions, ignoring case.
func IsImage(name string) bool {
	return slices.Contains(ImageExtensions, strings.ToLower(filepath.Ext(name)))
}

type Options struct {
	DatabaseFile   string
	PageSize       int
	SQLiteLogLevel string
}

func DefaultOptions() Options {
	return Options{
		DatabaseFile:   "dataset.sqlite",
		PageSize:       50,
		SQLiteLogLevel: "WARN",
	}
}

// Session binds one dataset folder to its opened index store. Switching
// datasets means opening a new Session; a Session never changes its root.
type Session struct {
	root  string
	store store.IndexStore
	opts  Options
	log   log.LoggerService
}

// OpenSession validates root and opens (creating if needed) the index stored
// inside it. The index is not reconciled; call Reconcile for that.
func OpenSession(ctx context.Context, root string, opts Options, logger log.LoggerService) (*Session, error) {
	if strings.TrimSpace(root) == "" {
		return nil, validationError("folder path is required")
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, validationError("invalid folder path '%s': %v", root, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, notFoundError("folder '%s' does not exist", abs)
		}
		return nil, fmt.Errorf("failed to stat folder '%s': %w", abs, err)
	}
	if !info.IsDir() {
		return nil, validationError("'%s' is not a folder", abs)
	}

	if opts.DatabaseFile == "" {
		opts.DatabaseFile = DefaultOptions().DatabaseFile
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultOptions().PageSize
	}

	db, err := store.NewSQLiteStore(store.SQLiteConfig{
		Path:     filepath.Join(abs, opts.DatabaseFile),
		LogLevel: log.ParseGormLevel(opts.SQLiteLogLevel),
		Logger:   log.NewGormLogger(logger.Named("sqlite")),
	})
	if err != nil {
		return nil, err
	}

	if err := db.Connect(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to index: %w", err)
	}

	applied, err := db.Migrate(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate index: %w", err)
	}
	if len(applied) > 0 {
		logger.Info("Migrated index '%s' to schema version %d", db.Path(), applied[len(applied)-1])
	}

	logger.Debug("Opened index '%s'", db.Path())

	return &Session{
		root:  abs,
		store: db,
		opts:  opts,
		log:   logger,
	}, nil
}

// Root returns the absolute dataset folder.
func (s *Session) Root() string {
	return s.root
}

// Store exposes the index store of this session.
func (s *Session) Store() store.IndexStore {
	return s.store
}

func (s *Session) Close() error {
	return s.store.Close()
}

func (s *Session) abs(imagePath string) string {
	return filepath.Join(s.root, imagePath)
}

// scan lists the image files of the dataset folder in name order.
func (s *Session) scan() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read folder '%s': %w", s.root, err)
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !IsImage(entry.Name()) {
			continue
		}
		files = append(files, entry.Name())
	}

	return files, nil
}

// validateImagePath accepts plain file names only; images live directly
// inside the dataset folder.
func validateImagePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return validationError("image filename is required")
	}
	if path == "." || path == ".." || strings.ContainsAny(path, `/\`) || filepath.Base(path) != path {
		return validationError("'%s' is not a plain filename", path)
	}
	return nil
}

func dedupe(values []string) []string {
	result := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, value := range values {
		if seen[value] {
			continue
		}
		seen[value] = true
		result = append(result, value)
	}
	return result
}
