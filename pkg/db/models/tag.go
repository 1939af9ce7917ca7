package models

const (
	DefaultTagBackground = "#eeeeee"
	DefaultTagForeground = "#333333"
)

// Tag represents a globally shared tag name and its display colors
type Tag struct {
	ID         uint   `gorm:"primaryKey"`
	Name       string `gorm:"column:tag_name;type:text;not null;uniqueIndex"`
	Background string `gorm:"column:tag_bcolor;type:text;default:'#eeeeee'"`
	Foreground string `gorm:"column:tag_fcolor;type:text;default:'#333333'"`

	// Relationships
	Images []ImageTag `gorm:"foreignKey:TagID;constraint:OnDelete:CASCADE"`
}

func (Tag) TableName() string {
	return "tags"
}
