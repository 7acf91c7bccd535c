package model

import "time"

// MovementKind classifies a stock ledger entry.
type MovementKind string

const (
	MovementInflow     MovementKind = "inflow"
	MovementOutflow    MovementKind = "outflow"
	MovementCorrection MovementKind = "correction" // sets the quantity instead of adding
)

func (k MovementKind) Valid() bool {
	switch k {
	case MovementInflow, MovementOutflow, MovementCorrection:
		return true
	}
	return false
}

// StockMovement is an append-only audit record. Quantity is always
// non-negative; the sign is implied by Kind.
type StockMovement struct {
	ID          uint         `gorm:"primaryKey"`
	PartID      uint         `gorm:"not null;index"`
	Kind        MovementKind `gorm:"size:16;not null"`
	Quantity    int          `gorm:"not null"`
	StockBefore int          `gorm:"not null"`
	StockAfter  int          `gorm:"not null"`
	Note        *string
	CreatedAt   time.Time

	Part *Part `gorm:"foreignKey:PartID;constraint:OnDelete:CASCADE"`
}

func (StockMovement) TableName() string { return "stock_movements" }
