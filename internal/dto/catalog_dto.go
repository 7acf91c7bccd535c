package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateManufacturerRequest struct {
	Name string `json:"name" validate:"required,min=2,max=100"`
}

type EnsureModelRequest struct {
	ManufacturerCode int    `json:"manufacturer_code" validate:"required,min=1,max=999"`
	Name             string `json:"name"              validate:"required,max=100"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ManufacturerResponse struct {
	ID        uint   `json:"id"`
	Code      int    `json:"code"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

type ManufacturerListResponse struct {
	Data       []ManufacturerResponse `json:"data"`
	Total      int64                  `json:"total"`
	Page       int                    `json:"page"`
	Limit      int                    `json:"limit"`
	TotalPages int                    `json:"total_pages"`
}

type VehicleModelResponse struct {
	ID               uint   `json:"id"`
	ManufacturerCode int    `json:"manufacturer_code"`
	Name             string `json:"name"`
	Sequence         int    `json:"sequence"`
}
