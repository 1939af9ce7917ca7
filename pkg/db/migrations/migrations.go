package migrations

import (
	"context"
	"fmt"
	"sort"

	"github.com/mwantia/gotagger/pkg/db/models"
	"gorm.io/gorm"
)

// Migration represents one schema step of the dataset index
type Migration struct {
	Version     int
	Description string
	Up          func(*gorm.DB) error
}

// schemaVersion records an applied migration
type schemaVersion struct {
	Version     int    `gorm:"primaryKey;autoIncrement:false"`
	Description string `gorm:"type:text"`
	AppliedAt   int64  `gorm:"autoCreateTime"`
}

func (schemaVersion) TableName() string {
	return "schema_versions"
}

// Migrator brings an index file up to the current schema. Index files
// written by earlier releases carry the same tables but no version history;
// they are adopted in place instead of being recreated.
type Migrator struct {
	db         *gorm.DB
	migrations []Migration
}

func NewMigrator(db *gorm.DB) *Migrator {
	migrations := allMigrations()
	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	return &Migrator{
		db:         db,
		migrations: migrations,
	}
}

// Migrate runs all pending migrations and returns the versions it applied
func (m *Migrator) Migrate(ctx context.Context) ([]int, error) {
	db := m.db.WithContext(ctx)
	if err := db.AutoMigrate(&schemaVersion{}); err != nil {
		return nil, fmt.Errorf("failed to create schema version table: %w", err)
	}

	var versions []schemaVersion
	if err := db.Find(&versions).Error; err != nil {
		return nil, fmt.Errorf("failed to query schema versions: %w", err)
	}

	done := make(map[int]bool, len(versions))
	for _, version := range versions {
		done[version.Version] = true
	}

	var applied []int
	for _, migration := range m.migrations {
		if done[migration.Version] {
			continue
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			if err := migration.Up(tx); err != nil {
				return err
			}
			return tx.Create(&schemaVersion{
				Version:     migration.Version,
				Description: migration.Description,
			}).Error
		})
		if err != nil {
			return applied, fmt.Errorf("migration %d (%s) failed: %w", migration.Version, migration.Description, err)
		}

		applied = append(applied, migration.Version)
	}

	return applied, nil
}

func isLegacyIndex(db *gorm.DB) bool {
	migrator := db.Migrator()
	return migrator.HasTable("images") && migrator.HasTable("tags") && migrator.HasTable("image_tags")
}

func allMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Dataset index schema",
			Up: func(db *gorm.DB) error {
				if isLegacyIndex(db) {
					// Column names and constraints already match the models
					return nil
				}
				return db.AutoMigrate(
					&models.Image{},
					&models.Tag{},
					&models.ImageTag{},
				)
			},
		},
		{
			Version:     2,
			Description: "Index tag sequences and tag lookups",
			Up: func(db *gorm.DB) error {
				if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_image_tags_order ON image_tags (image_id, "order")`).Error; err != nil {
					return err
				}
				return db.Exec(`CREATE INDEX IF NOT EXISTS idx_image_tags_tag ON image_tags (tag_id)`).Error
			},
		},
		{
			Version:     3,
			Description: "Drop links left behind while foreign keys were disabled",
			Up: func(db *gorm.DB) error {
				return db.Exec(`
					DELETE FROM image_tags
					WHERE image_id NOT IN (SELECT id FROM images)
					   OR tag_id NOT IN (SELECT id FROM tags)
				`).Error
			},
		},
	}
}
