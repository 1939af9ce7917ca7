package dataset

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/google/uuid"
	"github.com/mwantia/gotagger/pkg/db/store"
	"github.com/mwantia/gotagger/pkg/sidecar"
)

// UploadFile is an image received from a client
type UploadFile struct {
	Name   string
	Reader io.Reader
}

type UploadReport struct {
	Uploaded []string `json:"uploaded"`
	Inserted int64    `json:"inserted"`
}

// Upload stores files in the dataset folder, replacing files of the same
// name, creates an empty sidecar for each unless one exists and indexes
// them. Tags from sidecars that already existed are linked right away.
func (s *Session) Upload(ctx context.Context, files []UploadFile) (*UploadReport, error) {
	if len(files) == 0 {
		return nil, validationError("no files were uploaded")
	}

	names := make([]string, 0, len(files))
	for _, file := range files {
		name := filepath.Base(filepath.ToSlash(file.Name))
		if err := validateImagePath(name); err != nil {
			return nil, err
		}
		if !IsImage(name) {
			return nil, validationError("'%s' is not a supported image type", name)
		}
		names = append(names, name)
	}

	report := &UploadReport{Uploaded: []string{}}
	for i, file := range files {
		if err := s.storeFile(names[i], file.Reader); err != nil {
			return report, err
		}
		if err := sidecar.Touch(sidecar.PathFor(s.root, names[i])); err != nil {
			return report, err
		}
		report.Uploaded = append(report.Uploaded, names[i])
	}

	names = dedupe(names)
	err := s.store.Transaction(ctx, func(tx store.IndexStore) error {
		inserted, err := tx.CreateImages(ctx, names)
		if err != nil {
			return fmt.Errorf("failed to index uploaded images: %w", err)
		}
		report.Inserted = inserted

		cache := make(map[string]uint)
		for _, name := range names {
			image, err := tx.GetImage(ctx, name)
			if err != nil {
				return err
			}
			tags, err := sidecar.Read(sidecar.PathFor(s.root, name))
			if err != nil {
				return err
			}

			current, err := tx.GetImageTags(ctx, image.ID)
			if err != nil {
				return err
			}
			existing := make([]string, 0, len(current))
			for _, tag := range current {
				existing = append(existing, tag.Name)
			}
			if slices.Equal(existing, tags) {
				continue
			}

			ids, err := resolveTags(ctx, tx, tags, cache)
			if err != nil {
				return err
			}
			if err := tx.ReplaceImageTags(ctx, image.ID, ids); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return report, err
	}

	s.log.Info("Uploaded %d images, %d newly indexed", len(report.Uploaded), report.Inserted)
	return report, nil
}

func (s *Session) storeFile(name string, r io.Reader) error {
	tmp := filepath.Join(s.root, fmt.Sprintf(".upload-%s", uuid.NewString()))

	file, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("failed to create '%s': %w", name, err)
	}

	if _, err := io.Copy(file, r); err != nil {
		file.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to write '%s': %w", name, err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write '%s': %w", name, err)
	}

	if err := os.Rename(tmp, s.abs(name)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to store '%s': %w", name, err)
	}
	return nil
}
