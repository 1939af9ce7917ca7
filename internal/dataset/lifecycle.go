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
	"github.com/mwantia/gotagger/pkg/sidecar"
)

// Rename gives the image at oldPath the base name newName, keeping its
// extension, and moves its sidecar file along. The index only changes once
// the image file has been renamed.
func (s *Session) Rename(ctx context.Context, oldPath, newName string) (string, error) {
	if err := validateImagePath(oldPath); err != nil {
		return "", err
	}
	if err := validateImagePath(newName); err != nil {
		return "", validationError("new name is required and must be a plain filename")
	}

	newPath := newName + filepath.Ext(oldPath)
	if newPath == oldPath {
		return newPath, nil
	}

	if _, err := s.store.GetImage(ctx, oldPath); err != nil {
		if store.IsNotFound(err) {
			return "", notFoundError("image '%s' is not indexed", oldPath)
		}
		return "", err
	}
	if _, err := s.store.GetImage(ctx, newPath); err == nil {
		return "", conflictError("image '%s' already exists", newPath)
	} else if !store.IsNotFound(err) {
		return "", err
	}

	oldImage, newImage := s.abs(oldPath), s.abs(newPath)
	oldSidecar, newSidecar := sidecar.PathFor(s.root, oldPath), sidecar.PathFor(s.root, newPath)

	if exists, err := pathExists(newImage); err != nil {
		return "", err
	} else if exists {
		return "", conflictError("file '%s' already exists", newPath)
	}

	moveSidecar, err := pathExists(oldSidecar)
	if err != nil {
		return "", err
	}
	moveSidecar = moveSidecar && oldSidecar != newSidecar

	// Images sharing a stem share one sidecar; the others keep theirs
	var shared bool
	if moveSidecar {
		owners, err := s.sidecarOwners(ctx, s.store)
		if err != nil {
			return "", err
		}
		if others := owners[newSidecar]; len(others) > 0 {
			return "", conflictError("sidecar '%s' already belongs to '%s'", filepath.Base(newSidecar), others[0])
		}
		if exists, err := pathExists(newSidecar); err != nil {
			return "", err
		} else if exists {
			return "", conflictError("sidecar '%s' already exists", filepath.Base(newSidecar))
		}
		shared = len(owners[oldSidecar]) > 1
	}

	if err := os.Rename(oldImage, newImage); err != nil {
		return "", conflictError("failed to rename '%s' to '%s': %v", oldPath, newPath, err)
	}

	if moveSidecar {
		if err := s.moveSidecar(oldSidecar, newSidecar, shared); err != nil {
			s.revertRename(newImage, oldImage)
			return "", conflictError("failed to move sidecar of '%s': %v", oldPath, err)
		}
	}

	if err := s.store.RenameImage(ctx, oldPath, newPath); err != nil {
		s.revertRename(newImage, oldImage)
		if moveSidecar {
			if shared {
				os.Remove(newSidecar)
			} else {
				s.revertRename(newSidecar, oldSidecar)
			}
		}
		return "", fmt.Errorf("failed to update index for '%s': %w", oldPath, err)
	}

	s.log.Info("Renamed '%s' to '%s'", oldPath, newPath)
	return newPath, nil
}

// moveSidecar renames from to to, or copies it when other images still
// read their tags from it.
func (s *Session) moveSidecar(from, to string, shared bool) error {
	if !shared {
		return os.Rename(from, to)
	}

	names, err := sidecar.Read(from)
	if err != nil {
		return err
	}
	return sidecar.Write(to, names)
}

// sidecarOwners maps every sidecar path to the indexed images reading it.
func (s *Session) sidecarOwners(ctx context.Context, st store.IndexStore) (map[string][]string, error) {
	images, err := st.ListImages(ctx, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}

	owners := make(map[string][]string, len(images))
	for _, image := range images {
		path := sidecar.PathFor(s.root, image.FilePath)
		owners[path] = append(owners[path], image.FilePath)
	}
	return owners, nil
}

func (s *Session) revertRename(from, to string) {
	if err := os.Rename(from, to); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.log.Error("Failed to restore '%s' after failed rename: %v", to, err)
	}
}

// DeleteFailure describes one file that could not be removed
type DeleteFailure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// DeleteReport summarizes DeleteImages
type DeleteReport struct {
	Deleted  []string        `json:"deleted"`
	Missing  []string        `json:"missing"`
	Failures []DeleteFailure `json:"failures"`
}

// DeleteImages removes the index rows of paths in one transaction and then
// deletes their image and sidecar files. A sidecar still read by a remaining
// image is kept. Files that are already gone are ignored; every other failure
// is collected and reported as ErrPartialFailure.
func (s *Session) DeleteImages(ctx context.Context, paths []string) (*DeleteReport, error) {
	if len(paths) == 0 {
		return nil, validationError("at least one image filename is required")
	}
	for _, path := range paths {
		if err := validateImagePath(path); err != nil {
			return nil, err
		}
	}

	report := &DeleteReport{
		Deleted:  []string{},
		Missing:  []string{},
		Failures: []DeleteFailure{},
	}

	var owners map[string][]string
	err := s.store.Transaction(ctx, func(tx store.IndexStore) error {
		for _, path := range dedupe(paths) {
			if _, err := tx.GetImage(ctx, path); err != nil {
				if store.IsNotFound(err) {
					report.Missing = append(report.Missing, path)
					continue
				}
				return err
			}
			report.Deleted = append(report.Deleted, path)
		}

		if _, err := tx.DeleteImages(ctx, report.Deleted); err != nil {
			return err
		}

		var err error
		owners, err = s.sidecarOwners(ctx, tx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to delete images: %w", err)
	}

	var errs []error
	for _, path := range report.Deleted {
		files := []string{s.abs(path)}
		if file := sidecar.PathFor(s.root, path); len(owners[file]) == 0 {
			files = append(files, file)
		}

		for _, file := range files {
			if err := os.Remove(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
				report.Failures = append(report.Failures, DeleteFailure{Path: file, Error: err.Error()})
				errs = append(errs, err)
			}
		}
	}

	s.log.Info("Deleted %d images (%d not indexed, %d file failures)", len(report.Deleted), len(report.Missing), len(report.Failures))

	if len(errs) > 0 {
		return report, fmt.Errorf("%w: %w", ErrPartialFailure, errors.Join(errs...))
	}
	return report, nil
}

// DeleteTag removes name from the sidecar of every image that references it
// and deletes the tag together with all of its links. It returns the number
// of affected images.
func (s *Session) DeleteTag(ctx context.Context, name string) (int, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, validationError("tag name is required")
	}

	var affected int
	err := s.store.Transaction(ctx, func(tx store.IndexStore) error {
		tag, err := tx.GetTag(ctx, name)
		if err != nil {
			if store.IsNotFound(err) {
				return notFoundError("tag '%s' does not exist", name)
			}
			return err
		}

		images, err := tx.ListImagesByTag(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to list images of tag '%s': %w", name, err)
		}

		for _, image := range images {
			path := sidecar.PathFor(s.root, image.FilePath)
			if exists, err := pathExists(path); err != nil {
				return err
			} else if !exists {
				continue
			}

			names, err := sidecar.Read(path)
			if err != nil {
				return err
			}
			names = slices.DeleteFunc(names, func(n string) bool { return n == name })
			if err := sidecar.Write(path, names); err != nil {
				return err
			}
		}

		if err := tx.DeleteTag(ctx, tag.ID); err != nil {
			return fmt.Errorf("failed to delete tag '%s': %w", name, err)
		}

		affected = len(images)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete tag '%s': %w", name, err)
	}

	s.log.Info("Removed tag '%s' from %d images", name, affected)
	return affected, nil
}

// UpdateTagColor changes the display colors of a tag. Empty values keep the
// stored color.
func (s *Session) UpdateTagColor(ctx context.Context, name, background, foreground string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return validationError("tag name is required")
	}

	tag, err := s.store.GetTag(ctx, name)
	if err != nil {
		if store.IsNotFound(err) {
			return notFoundError("tag '%s' does not exist", name)
		}
		return err
	}

	if err := s.store.UpdateTagColors(ctx, tag.ID, background, foreground); err != nil {
		return fmt.Errorf("failed to update colors of tag '%s': %w", name, err)
	}
	return nil
}

func pathExists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat '%s': %w", path, err)
}
