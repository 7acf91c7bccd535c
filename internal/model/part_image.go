package model

import "time"

// PartImage is an opaque reference (URL or storage key) to a picture of a part.
type PartImage struct {
	ID        uint   `gorm:"primaryKey"`
	PartID    uint   `gorm:"not null;index"`
	URL       string `gorm:"size:500;not null"`
	CreatedAt time.Time

	Part *Part `gorm:"foreignKey:PartID;constraint:OnDelete:CASCADE"`
}

func (PartImage) TableName() string { return "part_images" }
