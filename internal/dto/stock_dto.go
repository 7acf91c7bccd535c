package dto

type RecordMovementRequest struct {
	PartID   uint    `json:"part_id"`
	Kind     string  `json:"kind"     validate:"required,oneof=inflow outflow correction"`
	Quantity int     `json:"quantity"`
	Note     *string `json:"note"     validate:"omitempty,max=500"`
}

type MovementFilter struct {
	PartID uint   `json:"part_id"`
	Kind   string `json:"kind"  validate:"omitempty,oneof=inflow outflow correction"`
	Page   int    `json:"page"`
	Limit  int    `json:"limit"`
}

type MovementResponse struct {
	ID          uint    `json:"id"`
	PartID      uint    `json:"part_id"`
	Kind        string  `json:"kind"`
	Quantity    int     `json:"quantity"`
	StockBefore int     `json:"stock_before"`
	StockAfter  int     `json:"stock_after"`
	Note        *string `json:"note"`
	CreatedAt   string  `json:"created_at"`
}

type MovementListResponse struct {
	Data       []MovementResponse `json:"data"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
	TotalPages int                `json:"total_pages"`
}
