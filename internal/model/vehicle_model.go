package model

import "time"

// VehicleModel belongs to exactly one manufacturer. Sequence is the two-digit
// middle segment of the base code, unique per manufacturer.
type VehicleModel struct {
	ID             uint   `gorm:"primaryKey"`
	ManufacturerID uint   `gorm:"not null;uniqueIndex:idx_vehicle_models_mfr_name;uniqueIndex:idx_vehicle_models_mfr_seq"`
	Name           string `gorm:"size:100;not null;uniqueIndex:idx_vehicle_models_mfr_name"`
	Sequence       int    `gorm:"not null;uniqueIndex:idx_vehicle_models_mfr_seq"`
	CreatedAt      time.Time

	Manufacturer *Manufacturer `gorm:"foreignKey:ManufacturerID;constraint:OnDelete:RESTRICT"`
}

func (VehicleModel) TableName() string { return "vehicle_models" }
