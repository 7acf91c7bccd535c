package model

import "time"

// KitComponent says that one unit of the kit contains Quantity units of the
// component. Kits are one level deep: a component is never itself a kit.
type KitComponent struct {
	ID              uint `gorm:"primaryKey"`
	KitPartID       uint `gorm:"not null;uniqueIndex:idx_kit_components_pair"`
	ComponentPartID uint `gorm:"not null;uniqueIndex:idx_kit_components_pair;index"`
	Quantity        int  `gorm:"not null"`
	CreatedAt       time.Time

	Kit       *Part `gorm:"foreignKey:KitPartID;constraint:OnDelete:CASCADE"`
	Component *Part `gorm:"foreignKey:ComponentPartID;constraint:OnDelete:RESTRICT"`
}

func (KitComponent) TableName() string { return "kit_components" }
