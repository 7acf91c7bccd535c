package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

// PartAttributes are the commercial fields of a part. They are editable after
// creation, unlike the identity fields.
type PartAttributes struct {
	Description      *string          `json:"description"        validate:"omitempty,min=3"`
	OEMCode          *string          `json:"oem_code"           validate:"omitempty,max=50"`
	SupplyCost       decimal.Decimal  `json:"supply_cost"        validate:"min=0"`
	LabelCost        decimal.Decimal  `json:"label_cost"         validate:"min=0"`
	PackagingCost    decimal.Decimal  `json:"packaging_cost"     validate:"min=0"`
	TaxPercent       decimal.Decimal  `json:"tax_percent"        validate:"min=0,max=100"`
	SalePrice        *decimal.Decimal `json:"sale_price"         validate:"omitempty,min=0"`
	LastPurchaseDate *time.Time       `json:"last_purchase_date"`
}

type CreatePartRequest struct {
	ManufacturerCode int      `json:"manufacturer_code" validate:"required,min=1,max=999"`
	ModelName        string   `json:"model_name"        validate:"required,max=100"`
	ItemName         string   `json:"item_name"         validate:"required,max=120"`
	Variation        string   `json:"variation"         validate:"required,oneof=N R P"`
	InitialQuantity  int      `json:"initial_quantity"`
	ImageURLs        []string `json:"image_urls"        validate:"omitempty,dive,url"`
	PartAttributes
}

// CreateVariationRequest adds another condition of an existing base item.
type CreateVariationRequest struct {
	BaseCode        string   `json:"base_code"        validate:"required,len=8,numeric"`
	Variation       string   `json:"variation"        validate:"required,oneof=N R P"`
	InitialQuantity int      `json:"initial_quantity"`
	ImageURLs       []string `json:"image_urls"       validate:"omitempty,dive,url"`
	PartAttributes
}

// UpdatePartRequest is a patch: nil fields stay unchanged. An empty
// description or OEM code clears it; the purchase date is cleared with
// ClearLastPurchaseDate. Identity fields have no place here.
type UpdatePartRequest struct {
	Description      *string          `json:"description"        validate:"omitempty,min=3|len=0"`
	OEMCode          *string          `json:"oem_code"           validate:"omitempty,max=50"`
	SupplyCost       *decimal.Decimal `json:"supply_cost"        validate:"omitempty,min=0"`
	LabelCost        *decimal.Decimal `json:"label_cost"         validate:"omitempty,min=0"`
	PackagingCost    *decimal.Decimal `json:"packaging_cost"     validate:"omitempty,min=0"`
	TaxPercent       *decimal.Decimal `json:"tax_percent"        validate:"omitempty,min=0,max=100"`
	SalePrice        *decimal.Decimal `json:"sale_price"         validate:"omitempty,min=0"`
	LastPurchaseDate *time.Time       `json:"last_purchase_date"`

	ClearLastPurchaseDate bool `json:"clear_last_purchase_date" validate:"excluded_with=LastPurchaseDate"`
}

type AttachImagesRequest struct {
	URLs []string `json:"urls" validate:"required,min=1,dive,url"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type PartFilter struct {
	Term  string `json:"term"`
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type PartResponse struct {
	ID               uint             `json:"id"`
	VariantCode      string           `json:"variant_code"`
	BaseCode         string           `json:"base_code"`
	Variation        string           `json:"variation"`
	RetailCode       *string          `json:"retail_code"`
	ManufacturerCode int              `json:"manufacturer_code"`
	ManufacturerName string           `json:"manufacturer_name"`
	ModelSequence    int              `json:"model_sequence"`
	ModelName        string           `json:"model_name"`
	ItemName         string           `json:"item_name"`
	ItemSequence     int              `json:"item_sequence"`
	Description      *string          `json:"description"`
	OEMCode          *string          `json:"oem_code"`
	SupplyCost       decimal.Decimal  `json:"supply_cost"`
	LabelCost        decimal.Decimal  `json:"label_cost"`
	PackagingCost    decimal.Decimal  `json:"packaging_cost"`
	TaxPercent       decimal.Decimal  `json:"tax_percent"`
	SalePrice        *decimal.Decimal `json:"sale_price"`
	LastPurchaseDate *string          `json:"last_purchase_date"`
	StockQuantity    int              `json:"stock_quantity"`
	IsKit            bool             `json:"is_kit"`
	Images           []string         `json:"images,omitempty"`
	CreatedAt        string           `json:"created_at"`
	UpdatedAt        string           `json:"updated_at"`
}

type PartListResponse struct {
	Data       []PartResponse `json:"data"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalPages int            `json:"total_pages"`
}
