package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// VariationKind is the physical condition of a part variant.
type VariationKind string

const (
	VariationBase        VariationKind = "N" // new / as supplied, no suffix
	VariationRepaired    VariationKind = "R"
	VariationRefurbParts VariationKind = "P" // refurbished for parts
)

// Valid reports whether k is one of the three known conditions.
func (k VariationKind) Valid() bool {
	switch k {
	case VariationBase, VariationRepaired, VariationRefurbParts:
		return true
	}
	return false
}

// Part is one stockable variant. Identity fields (manufacturer, model, item
// name, item sequence, variation, base and variant codes) are fixed at
// creation. StockQuantity is written only by the stock ledger.
type Part struct {
	ID             uint          `gorm:"primaryKey"`
	ManufacturerID uint          `gorm:"not null;index:idx_parts_mfr_model"`
	VehicleModelID uint          `gorm:"not null;index:idx_parts_mfr_model"`
	ItemName       string        `gorm:"size:120;not null"`
	Variation      VariationKind `gorm:"size:1;not null"`
	ItemSequence   int           `gorm:"not null"`
	BaseCode       string        `gorm:"size:8;not null;index"`
	VariantCode    string        `gorm:"size:9;not null;uniqueIndex"`
	RetailCode     *string       `gorm:"size:13;uniqueIndex"`

	Description      *string
	OEMCode          *string          `gorm:"size:50;index"`
	SupplyCost       decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0"`
	LabelCost        decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0"`
	PackagingCost    decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0"`
	TaxPercent       decimal.Decimal  `gorm:"type:decimal(5,2);not null;default:0"`
	SalePrice        *decimal.Decimal `gorm:"type:decimal(12,2)"`
	LastPurchaseDate *time.Time

	StockQuantity int  `gorm:"not null;default:0"`
	IsKit         bool `gorm:"not null;default:false"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Manufacturer *Manufacturer `gorm:"foreignKey:ManufacturerID;constraint:OnDelete:RESTRICT"`
	VehicleModel *VehicleModel `gorm:"foreignKey:VehicleModelID;constraint:OnDelete:RESTRICT"`
}

func (Part) TableName() string { return "parts" }
