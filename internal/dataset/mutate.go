package dataset

import (
	"context"
	"fmt"
	"slices"

	"github.com/mwantia/gotagger/pkg/db/store"
	"github.com/mwantia/gotagger/pkg/sidecar"
)

// TagInput is one entry of a tag list submitted for saving. Empty colors
// leave the stored colors of an existing tag untouched.
type TagInput struct {
	Name       string
	Background string
	Foreground string
}

// SaveReport lists which images were rewritten and which were not indexed
type SaveReport struct {
	Saved   []string `json:"saved"`
	Skipped []string `json:"skipped"`
}

// SaveTags replaces the tag sequence of every image in paths with tags and
// rewrites their sidecar files. Unknown images are skipped. Any failure
// rolls the index back to its state before the call.
func (s *Session) SaveTags(ctx context.Context, paths []string, tags []TagInput) (*SaveReport, error) {
	if len(paths) == 0 {
		return nil, validationError("at least one image filename is required")
	}
	for _, path := range paths {
		if err := validateImagePath(path); err != nil {
			return nil, err
		}
	}

	inputs := make([]TagInput, 0, len(tags))
	names := make([]string, 0, len(tags))
	for _, tag := range tags {
		name, err := sidecar.Normalize(tag.Name)
		if err != nil {
			return nil, validationError("%v", err)
		}
		tag.Name = name
		if slices.Contains(names, tag.Name) {
			continue
		}
		inputs = append(inputs, tag)
		names = append(names, tag.Name)
	}

	report := &SaveReport{
		Saved:   []string{},
		Skipped: []string{},
	}

	err := s.store.Transaction(ctx, func(tx store.IndexStore) error {
		var ids []uint

		for _, path := range dedupe(paths) {
			image, err := tx.GetImage(ctx, path)
			if err != nil {
				if store.IsNotFound(err) {
					s.log.Warn("Skipping tags of '%s': image is not indexed", path)
					report.Skipped = append(report.Skipped, path)
					continue
				}
				return fmt.Errorf("failed to load image '%s': %w", path, err)
			}

			if ids == nil {
				if ids, err = upsertTags(ctx, tx, inputs); err != nil {
					return err
				}
			}

			if err := tx.ReplaceImageTags(ctx, image.ID, ids); err != nil {
				return fmt.Errorf("failed to replace tags of '%s': %w", path, err)
			}
			if err := sidecar.Write(sidecar.PathFor(s.root, path), names); err != nil {
				return err
			}

			report.Saved = append(report.Saved, path)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save tags: %w", err)
	}

	s.log.Info("Saved %d tags for %d images (%d skipped)", len(names), len(report.Saved), len(report.Skipped))
	return report, nil
}

// upsertTags creates missing tags and applies supplied colors, returning
// the tag ids in input order.
func upsertTags(ctx context.Context, tx store.IndexStore, inputs []TagInput) ([]uint, error) {
	ids := make([]uint, 0, len(inputs))
	for _, input := range inputs {
		tag, err := tx.GetOrCreateTag(ctx, input.Name)
		if err != nil {
			return nil, err
		}

		background, foreground := "", ""
		if input.Background != "" && input.Background != tag.Background {
			background = input.Background
		}
		if input.Foreground != "" && input.Foreground != tag.Foreground {
			foreground = input.Foreground
		}
		if err := tx.UpdateTagColors(ctx, tag.ID, background, foreground); err != nil {
			return nil, fmt.Errorf("failed to update colors of tag '%s': %w", input.Name, err)
		}

		ids = append(ids, tag.ID)
	}
	return ids, nil
}

// Action selects how BatchProcess changes every tag sequence
type Action string

const (
	ActionAddStart Action = "add_start"
	ActionAddEnd   Action = "add_end"
	ActionDelete   Action = "delete"
)

func ParseAction(value string) (Action, error) {
	switch action := Action(value); action {
	case ActionAddStart, ActionAddEnd, ActionDelete:
		return action, nil
	default:
		return "", validationError("unknown batch action '%s'", value)
	}
}

// BatchReport tells how many images BatchProcess had to rewrite
type BatchReport struct {
	Action   Action `json:"action"`
	Affected int    `json:"affected"`
}

// BatchProcess applies action with names to every image of the dataset in
// one transaction. Images whose sequence would not change are left alone
// and are not counted.
//
// For the add actions every listed tag is created up front, even when no
// image ends up changing.
func (s *Session) BatchProcess(ctx context.Context, action Action, names []string) (*BatchReport, error) {
	if _, err := ParseAction(string(action)); err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, validationError("at least one tag name is required")
	}
	normalized := make([]string, 0, len(names))
	for _, name := range names {
		name, err := sidecar.Normalize(name)
		if err != nil {
			return nil, validationError("%v", err)
		}
		normalized = append(normalized, name)
	}
	names = dedupe(normalized)

	report := &BatchReport{Action: action}
	s.log.Info("Starting batch '%s' with tags %v", action, names)

	err := s.store.Transaction(ctx, func(tx store.IndexStore) error {
		images, err := tx.ListImages(ctx, 0, 0)
		if err != nil {
			return fmt.Errorf("failed to list images: %w", err)
		}

		sequences, tagIDs, err := loadSequences(ctx, tx)
		if err != nil {
			return err
		}

		if action != ActionDelete {
			if _, err := resolveTags(ctx, tx, names, tagIDs); err != nil {
				return err
			}
		}

		for _, image := range images {
			current := sequences[image.ID].names
			next := applyBatch(action, current, names)
			if slices.Equal(current, next) {
				continue
			}

			ids, err := resolveTags(ctx, tx, next, tagIDs)
			if err != nil {
				return err
			}
			if err := tx.ReplaceImageTags(ctx, image.ID, ids); err != nil {
				return fmt.Errorf("failed to replace tags of '%s': %w", image.FilePath, err)
			}
			if err := sidecar.Write(sidecar.PathFor(s.root, image.FilePath), next); err != nil {
				return err
			}
			report.Affected++
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to run batch '%s': %w", action, err)
	}

	s.log.Info("Batch '%s' finished, %d images affected", action, report.Affected)
	return report, nil
}

// applyBatch computes the new sequence without modifying current.
func applyBatch(action Action, current, names []string) []string {
	rest := make([]string, 0, len(current)+len(names))
	for _, name := range current {
		if !slices.Contains(names, name) {
			rest = append(rest, name)
		}
	}

	switch action {
	case ActionAddStart:
		return append(slices.Clone(names), rest...)
	case ActionAddEnd:
		return append(rest, names...)
	default:
		return rest
	}
}
