package dto

type SetKitFlagRequest struct {
	PartID uint `json:"part_id"`
	IsKit  bool `json:"is_kit"`
}

type KitComponentRequest struct {
	KitPartID       uint `json:"kit_part_id"`
	ComponentPartID uint `json:"component_part_id"`
	Quantity        int  `json:"quantity"`
}

type KitComponentResponse struct {
	ID                   uint   `json:"id"`
	KitPartID            uint   `json:"kit_part_id"`
	ComponentPartID      uint   `json:"component_part_id"`
	ComponentVariantCode string `json:"component_variant_code"`
	ComponentItemName    string `json:"component_item_name"`
	Quantity             int    `json:"quantity"`
	ComponentStock       int    `json:"component_stock"`
	// KitsCovered is how many whole kits this component's stock supplies.
	KitsCovered int `json:"kits_covered"`
}

type KitComponentsResponse struct {
	KitPartID      uint                   `json:"kit_part_id"`
	KitVariantCode string                 `json:"kit_variant_code"`
	Components     []KitComponentResponse `json:"components"`
	Buildable      int                    `json:"buildable"`
}
