package model

import "time"

// SequenceCounter holds the last value handed out for one allocation scope.
// Rows are locked FOR UPDATE by the allocating transaction.
type SequenceCounter struct {
	Scope     string `gorm:"primaryKey;size:64"`
	LastValue int    `gorm:"not null"`
	UpdatedAt time.Time
}

func (SequenceCounter) TableName() string { return "sequence_counters" }

// All lists every entity in dependency order, for AutoMigrate in tests.
func All() []interface{} {
	return []interface{}{
		&Manufacturer{},
		&VehicleModel{},
		&Part{},
		&PartImage{},
		&StockMovement{},
		&KitComponent{},
		&SequenceCounter{},
	}
}
