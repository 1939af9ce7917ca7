package store

import (
	"context"

	"github.com/mwantia/gotagger/pkg/db/models"
)

// IndexStore defines the interface for dataset index operations
type IndexStore interface {
	// Lifecycle
	Connect(ctx context.Context) error
	Close() error
	Migrate(ctx context.Context) ([]int, error)
	Health(ctx context.Context) error

	// Transaction runs fn inside a single database transaction. The store
	// handed to fn is bound to that transaction; returning an error rolls
	// every change back.
	Transaction(ctx context.Context, fn func(tx IndexStore) error) error

	// Image operations
	CreateImages(ctx context.Context, paths []string) (int64, error)
	GetImage(ctx context.Context, path string) (*models.Image, error)
	ListImages(ctx context.Context, limit, offset int) ([]models.Image, error)
	CountImages(ctx context.Context) (int64, error)
	RenameImage(ctx context.Context, oldPath, newPath string) error
	DeleteImages(ctx context.Context, paths []string) (int64, error)
	ListImagesByTag(ctx context.Context, name string) ([]models.Image, error)

	// Tag operations
	GetTag(ctx context.Context, name string) (*models.Tag, error)
	GetOrCreateTag(ctx context.Context, name string) (*models.Tag, error)
	UpdateTagColors(ctx context.Context, id uint, background, foreground string) error
	DeleteTag(ctx context.Context, id uint) error
	TagSummary(ctx context.Context) ([]TagCount, error)

	// Link operations
	GetImageTags(ctx context.Context, imageID uint) ([]models.Tag, error)
	ListImageTagRefs(ctx context.Context) ([]ImageTagRef, error)
	ReplaceImageTags(ctx context.Context, imageID uint, tagIDs []uint) error
}

// TagCount is a tag together with the number of images referencing it
type TagCount struct {
	Name       string `gorm:"column:tag_name"`
	Background string `gorm:"column:tag_bcolor"`
	Foreground string `gorm:"column:tag_fcolor"`
	Count      int64  `gorm:"column:count"`
}

// ImageTagRef is a flattened link row used to rebuild tag sequences in bulk
type ImageTagRef struct {
	ImageID uint   `gorm:"column:image_id"`
	TagID   uint   `gorm:"column:tag_id"`
	Name    string `gorm:"column:tag_name"`
	Order   int    `gorm:"column:order"`
}
