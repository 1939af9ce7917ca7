package dataset

import (
	"context"
	"fmt"
	"net/url"

	"github.com/mwantia/gotagger/pkg/db/models"
	"github.com/mwantia/gotagger/pkg/db/store"
)

// ImageURLPrefix is where the HTTP layer serves dataset files.
const ImageURLPrefix = "/images/"

type ImageSummary struct {
	Name     string `json:"name"`
	Filename string `json:"filename"`
	Path     string `json:"path"`
}

type ImagePage struct {
	Total    int64          `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"pageSize"`
	Data     []ImageSummary `json:"data"`
}

type TagColor struct {
	Background string `json:"bg"`
	Foreground string `json:"text"`
}

type TagView struct {
	Name  string   `json:"name"`
	Color TagColor `json:"color"`
}

type TagSummary struct {
	Name  string   `json:"name"`
	Count int64    `json:"count"`
	Color TagColor `json:"color"`
}

func summarize(images []models.Image) []ImageSummary {
	result := make([]ImageSummary, 0, len(images))
	for _, image := range images {
		result = append(result, ImageSummary{
			Name:     image.Name(),
			Filename: image.FilePath,
			Path:     ImageURLPrefix + url.PathEscape(image.FilePath),
		})
	}
	return result
}

// ListImages returns one page of images ordered by file name. Pages start
// at 1; non-positive values fall back to the first page and the configured
// page size.
func (s *Session) ListImages(ctx context.Context, page, pageSize int) (*ImagePage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = s.opts.PageSize
	}

	total, err := s.store.CountImages(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count images: %w", err)
	}

	images, err := s.store.ListImages(ctx, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}

	return &ImagePage{
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		Data:     summarize(images),
	}, nil
}

// ImageTags returns the ordered tags of one image.
func (s *Session) ImageTags(ctx context.Context, path string) ([]TagView, error) {
	if err := validateImagePath(path); err != nil {
		return nil, err
	}

	image, err := s.store.GetImage(ctx, path)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, notFoundError("image '%s' is not indexed", path)
		}
		return nil, err
	}

	tags, err := s.store.GetImageTags(ctx, image.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tags of '%s': %w", path, err)
	}

	views := make([]TagView, 0, len(tags))
	for _, tag := range tags {
		views = append(views, TagView{
			Name:  tag.Name,
			Color: TagColor{Background: tag.Background, Foreground: tag.Foreground},
		})
	}
	return views, nil
}

// ImagesByTag returns every image referencing name, ordered by file name.
func (s *Session) ImagesByTag(ctx context.Context, name string) ([]ImageSummary, error) {
	if name == "" {
		return nil, validationError("tag name is required")
	}

	images, err := s.store.ListImagesByTag(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to list images of tag '%s': %w", name, err)
	}
	return summarize(images), nil
}

// TagSummary returns every referenced tag with its usage count, most used first.
func (s *Session) TagSummary(ctx context.Context) ([]TagSummary, error) {
	counts, err := s.store.TagSummary(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize tags: %w", err)
	}

	summary := make([]TagSummary, 0, len(counts))
	for _, count := range counts {
		summary = append(summary, TagSummary{
			Name:  count.Name,
			Count: count.Count,
			Color: TagColor{Background: count.Background, Foreground: count.Foreground},
		})
	}
	return summary, nil
}
