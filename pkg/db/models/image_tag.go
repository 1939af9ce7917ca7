package models

// ImageTag links an image to a tag at a fixed position in the image's tag sequence.
// Orders of one image always form 0..k-1.
type ImageTag struct {
	ImageID uint `gorm:"primaryKey;autoIncrement:false"`
	TagID   uint `gorm:"primaryKey;autoIncrement:false;index:idx_image_tags_tag"`
	Order   int  `gorm:"column:order;not null"`
}

func (ImageTag) TableName() string {
	return "image_tags"
}
