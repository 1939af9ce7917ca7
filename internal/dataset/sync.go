package dataset

import (
	"context"
	"fmt"
	"slices"

	"github.com/mwantia/gotagger/pkg/db/store"
	"github.com/mwantia/gotagger/pkg/sidecar"
)

// SyncReport summarizes a Reconcile run
type SyncReport struct {
	Total    int `json:"total"`
	Added    int `json:"added"`
	Removed  int `json:"removed"`
	Retagged int `json:"retagged"`
}

func (r *SyncReport) String() string {
	return fmt.Sprintf("%d images, %d added, %d removed, %d retagged", r.Total, r.Added, r.Removed, r.Retagged)
}

// Reconcile rebuilds the index from the folder contents in one transaction.
// Every image's links are replaced by the content of its sidecar file, but
// only when they differ, so reconciling an unchanged folder mutates nothing.
func (s *Session) Reconcile(ctx context.Context) (*SyncReport, error) {
	files, err := s.scan()
	if err != nil {
		return nil, err
	}

	report := &SyncReport{Total: len(files)}

	err = s.store.Transaction(ctx, func(tx store.IndexStore) error {
		indexed, err := tx.ListImages(ctx, 0, 0)
		if err != nil {
			return fmt.Errorf("failed to list indexed images: %w", err)
		}

		onDisk := make(map[string]bool, len(files))
		for _, file := range files {
			onDisk[file] = true
		}

		known := make(map[string]bool, len(indexed))
		var toRemove []string
		for _, image := range indexed {
			known[image.FilePath] = true
			if !onDisk[image.FilePath] {
				toRemove = append(toRemove, image.FilePath)
			}
		}

		var toAdd []string
		for _, file := range files {
			if !known[file] {
				toAdd = append(toAdd, file)
			}
		}

		if _, err := tx.DeleteImages(ctx, toRemove); err != nil {
			return fmt.Errorf("failed to remove stale images: %w", err)
		}
		if _, err := tx.CreateImages(ctx, toAdd); err != nil {
			return fmt.Errorf("failed to add new images: %w", err)
		}
		report.Removed = len(toRemove)
		report.Added = len(toAdd)

		images, err := tx.ListImages(ctx, 0, 0)
		if err != nil {
			return fmt.Errorf("failed to list indexed images: %w", err)
		}

		sequences, tagIDs, err := loadSequences(ctx, tx)
		if err != nil {
			return err
		}

		for _, image := range images {
			names, err := sidecar.Read(sidecar.PathFor(s.root, image.FilePath))
			if err != nil {
				return err
			}

			current, linked := sequences[image.ID]
			if slices.Equal(names, current.names) && (!linked || current.gapless) {
				continue
			}

			ids, err := resolveTags(ctx, tx, names, tagIDs)
			if err != nil {
				return err
			}
			if err := tx.ReplaceImageTags(ctx, image.ID, ids); err != nil {
				return fmt.Errorf("failed to replace tags of '%s': %w", image.FilePath, err)
			}
			report.Retagged++
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reconcile '%s': %w", s.root, err)
	}

	s.log.Info("Synchronized '%s': %s", s.root, report)
	return report, nil
}

// sequence is the stored tag list of one image. gapless is false when the
// link orders are not exactly 0..k-1, which index files written by earlier
// releases contain after duplicate names were dropped.
type sequence struct {
	names   []string
	gapless bool
}

// loadSequences returns the ordered tag names of every indexed image plus a
// name to id lookup of every tag currently linked. Images without links
// are absent and read as an empty, gapless sequence.
func loadSequences(ctx context.Context, tx store.IndexStore) (map[uint]sequence, map[string]uint, error) {
	refs, err := tx.ListImageTagRefs(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load image tags: %w", err)
	}

	sequences := make(map[uint]sequence)
	tagIDs := make(map[string]uint)
	for _, ref := range refs {
		seq, ok := sequences[ref.ImageID]
		if !ok {
			seq.gapless = true
		}
		if ref.Order != len(seq.names) {
			seq.gapless = false
		}
		seq.names = append(seq.names, ref.Name)
		sequences[ref.ImageID] = seq
		tagIDs[ref.Name] = ref.TagID
	}

	return sequences, tagIDs, nil
}

// resolveTags maps names to tag ids, creating missing tags with default
// colors. Resolved ids are remembered in cache.
func resolveTags(ctx context.Context, tx store.IndexStore, names []string, cache map[string]uint) ([]uint, error) {
	ids := make([]uint, 0, len(names))
	for _, name := range names {
		if id, ok := cache[name]; ok {
			ids = append(ids, id)
			continue
		}

		tag, err := tx.GetOrCreateTag(ctx, name)
		if err != nil {
			return nil, err
		}
		cache[name] = tag.ID
		ids = append(ids, tag.ID)
	}
	return ids, nil
}
