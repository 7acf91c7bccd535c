package model

import "time"

// Manufacturer is a vehicle maker. Code is the three-digit prefix of every
// base code filed under it and is never reassigned.
type Manufacturer struct {
	ID        uint   `gorm:"primaryKey"`
	Code      int    `gorm:"uniqueIndex;not null"`
	Name      string `gorm:"size:100;uniqueIndex;not null"` // stored normalized (upper case)
	CreatedAt time.Time
}

func (Manufacturer) TableName() string { return "manufacturers" }
