package models

import "time"

// Plan defines the recurring credit entitlement applied on reset.
type Plan struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Name string `gorm:"type:text;not null;uniqueIndex"` // Display name.

	RecurringCredits int64 `gorm:"not null;default:0"` // Monthly recurring grant.

	IsDefault bool `gorm:"not null;default:false"` // Marks the fallback plan.
	IsEnabled bool `gorm:"not null;default:true"`  // Whether the plan can be assigned.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// TableName overrides the default table name.
func (Plan) TableName() string {
	return "plans"
}
