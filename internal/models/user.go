package models

import "time"

// User is the minimal identity row backing the default directory lookup.
// Account management lives outside the ledger; the engine only asks
// whether a user exists and is enabled.
type User struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Name  string `gorm:"type:text;not null"`             // Display name.
	Email string `gorm:"type:text;not null;uniqueIndex"` // Contact email.

	PlanID *uint64 `gorm:"index"` // Assigned plan ID, if any.

	IsEnabled bool `gorm:"not null;default:true"` // Whether the account is active.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// TableName overrides the default table name.
func (User) TableName() string {
	return "users"
}
