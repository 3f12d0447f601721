package models

import "time"

// Timestamps are maintained by gorm on create and update.
type Timestamps struct {
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}
