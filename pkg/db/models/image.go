package models

import (
	"path/filepath"
	"strings"
	"time"
)

// Image represents an image file inside the dataset folder
type Image struct {
	ID       uint   `gorm:"primaryKey"`
	FilePath string `gorm:"column:file_path;type:text;not null;uniqueIndex"` // relative to the dataset root

	CreatedAt time.Time

	// Relationships
	Tags []ImageTag `gorm:"foreignKey:ImageID;constraint:OnDelete:CASCADE"`
}

func (Image) TableName() string {
	return "images"
}

// Name returns the file name without its extension.
func (i *Image) Name() string {
	return strings.TrimSuffix(i.FilePath, filepath.Ext(i.FilePath))
}
