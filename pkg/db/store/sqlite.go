package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/mwantia/gotagger/pkg/db/migrations"
	"github.com/mwantia/gotagger/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// SQLiteStore implements IndexStore using SQLite
type SQLiteStore struct {
	db   *gorm.DB
	path string
}

// DB returns the underlying GORM database instance
func (s *SQLiteStore) DB() *gorm.DB {
	return s.db
}

// Path returns the database file location
func (s *SQLiteStore) Path() string {
	return s.path
}

// SQLiteConfig holds SQLite-specific configuration
type SQLiteConfig struct {
	Path         string
	MaxOpenConns int
	LogLevel     logger.LogLevel
	Logger       logger.Interface
}

// IsNotFound reports whether err means the requested row does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// NewSQLiteStore creates a new SQLite-backed index store
func NewSQLiteStore(cfg SQLiteConfig) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	// Default to silent logging
	if cfg.LogLevel == 0 {
		cfg.LogLevel = logger.Silent
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Default
	}

	dsn := cfg.Path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: cfg.Logger.LogMode(cfg.LogLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	return &SQLiteStore{
		db:   db,
		path: cfg.Path,
	}, nil
}

// Connect initializes the database connection
func (s *SQLiteStore) Connect(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(1) // SQLite only supports 1 writer
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.PingContext(ctx); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Exec("PRAGMA foreign_keys = ON").Error
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB.Close()
}

// Migrate runs pending migrations and returns the applied versions
func (s *SQLiteStore) Migrate(ctx context.Context) ([]int, error) {
	return migrations.NewMigrator(s.db).Migrate(ctx)
}

// Health checks database connectivity
func (s *SQLiteStore) Health(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Transaction runs fn against a store bound to a single transaction
func (s *SQLiteStore) Transaction(ctx context.Context, fn func(tx IndexStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&SQLiteStore{
			db:   tx,
			path: s.path,
		})
	})
}

// Image operations

func (s *SQLiteStore) CreateImages(ctx context.Context, paths []string) (int64, error) {
	if len(paths) == 0 {
		return 0, nil
	}

	images := make([]models.Image, 0, len(paths))
	for _, path := range paths {
		images = append(images, models.Image{FilePath: path})
	}

	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "file_path"}}, DoNothing: true}).
		Omit(clause.Associations).
		CreateInBatches(&images, 100)
	return result.RowsAffected, result.Error
}

func (s *SQLiteStore) GetImage(ctx context.Context, path string) (*models.Image, error) {
	var image models.Image
	err := s.db.WithContext(ctx).Where("file_path = ?", path).First(&image).Error
	if err != nil {
		return nil, err
	}
	return &image, nil
}

func (s *SQLiteStore) ListImages(ctx context.Context, limit, offset int) ([]models.Image, error) {
	var images []models.Image
	query := s.db.WithContext(ctx).Order("file_path ASC")

	// SQLite refuses OFFSET without LIMIT
	if limit > 0 {
		query = query.Limit(limit)
		if offset > 0 {
			query = query.Offset(offset)
		}
	}

	err := query.Find(&images).Error
	return images, err
}

func (s *SQLiteStore) CountImages(ctx context.Context) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).Model(&models.Image{}).Count(&total).Error
	return total, err
}

func (s *SQLiteStore) RenameImage(ctx context.Context, oldPath, newPath string) error {
	result := s.db.WithContext(ctx).
		Model(&models.Image{}).
		Where("file_path = ?", oldPath).
		Update("file_path", newPath)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s *SQLiteStore) DeleteImages(ctx context.Context, paths []string) (int64, error) {
	if len(paths) == 0 {
		return 0, nil
	}

	var deleted int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids := tx.Model(&models.Image{}).Select("id").Where("file_path IN ?", paths)
		if err := tx.Where("image_id IN (?)", ids).Delete(&models.ImageTag{}).Error; err != nil {
			return err
		}

		result := tx.Where("file_path IN ?", paths).Delete(&models.Image{})
		deleted = result.RowsAffected
		return result.Error
	})
	return deleted, err
}

func (s *SQLiteStore) ListImagesByTag(ctx context.Context, name string) ([]models.Image, error) {
	var images []models.Image
	err := s.db.WithContext(ctx).
		Select("images.*").
		Joins("JOIN image_tags ON image_tags.image_id = images.id").
		Joins("JOIN tags ON tags.id = image_tags.tag_id").
		Where("tags.tag_name = ?", name).
		Order("images.file_path ASC").
		Find(&images).Error
	return images, err
}

// Tag operations

func (s *SQLiteStore) GetTag(ctx context.Context, name string) (*models.Tag, error) {
	var tag models.Tag
	err := s.db.WithContext(ctx).Where("tag_name = ?", name).First(&tag).Error
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

// GetOrCreateTag inserts the tag with default colors unless it already
// exists and returns the stored row either way.
func (s *SQLiteStore) GetOrCreateTag(ctx context.Context, name string) (*models.Tag, error) {
	tag := models.Tag{
		Name:       name,
		Background: models.DefaultTagBackground,
		Foreground: models.DefaultTagForeground,
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "tag_name"}}, DoNothing: true}).
		Omit(clause.Associations).
		Create(&tag).Error
	if err != nil {
		return nil, fmt.Errorf("failed to insert tag '%s': %w", name, err)
	}

	return s.GetTag(ctx, name)
}

func (s *SQLiteStore) UpdateTagColors(ctx context.Context, id uint, background, foreground string) error {
	updates := map[string]any{}
	if background != "" {
		updates["tag_bcolor"] = background
	}
	if foreground != "" {
		updates["tag_fcolor"] = foreground
	}
	if len(updates) == 0 {
		return nil
	}

	return s.db.WithContext(ctx).Model(&models.Tag{}).Where("id = ?", id).Updates(updates).Error
}

func (s *SQLiteStore) DeleteTag(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tag_id = ?", id).Delete(&models.ImageTag{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Tag{}, id).Error
	})
}

func (s *SQLiteStore) TagSummary(ctx context.Context) ([]TagCount, error) {
	var summary []TagCount
	err := s.db.WithContext(ctx).Raw(`
		SELECT t.tag_name, t.tag_bcolor, t.tag_fcolor, COUNT(it.image_id) AS count
		FROM tags t
		JOIN image_tags it ON it.tag_id = t.id
		GROUP BY t.id
		HAVING count > 0
		ORDER BY count DESC, t.tag_name ASC
	`).Scan(&summary).Error
	return summary, err
}

// Link operations

func (s *SQLiteStore) GetImageTags(ctx context.Context, imageID uint) ([]models.Tag, error) {
	var tags []models.Tag
	err := s.db.WithContext(ctx).
		Select("tags.*").
		Joins("JOIN image_tags ON image_tags.tag_id = tags.id").
		Where("image_tags.image_id = ?", imageID).
		Order(`image_tags."order" ASC`).
		Find(&tags).Error
	return tags, err
}

func (s *SQLiteStore) ListImageTagRefs(ctx context.Context) ([]ImageTagRef, error) {
	var refs []ImageTagRef
	err := s.db.WithContext(ctx).
		Table("image_tags").
		Select(`image_tags.image_id, image_tags.tag_id, tags.tag_name, image_tags."order"`).
		Joins("JOIN tags ON tags.id = image_tags.tag_id").
		Order(`image_tags.image_id ASC, image_tags."order" ASC`).
		Scan(&refs).Error
	return refs, err
}

// ReplaceImageTags drops every link of the image and inserts tagIDs in
// sequence, so the resulting orders are always 0..k-1.
func (s *SQLiteStore) ReplaceImageTags(ctx context.Context, imageID uint, tagIDs []uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("image_id = ?", imageID).Delete(&models.ImageTag{}).Error; err != nil {
			return err
		}

		links := make([]models.ImageTag, 0, len(tagIDs))
		seen := make(map[uint]bool, len(tagIDs))
		for _, tagID := range tagIDs {
			if seen[tagID] {
				continue
			}
			seen[tagID] = true
			links = append(links, models.ImageTag{
				ImageID: imageID,
				TagID:   tagID,
				Order:   len(links),
			})
		}

		if len(links) == 0 {
			return nil
		}
		return tx.Create(&links).Error
	})
}
