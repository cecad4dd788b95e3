package models

import "time"

// Balance holds the credit buckets for a single user.
type Balance struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID uint64 `gorm:"not null;uniqueIndex"` // Owning user ID, one row per user.

	RecurringGranted int64 `gorm:"not null;default:0"` // Recurring allotment for the current cycle.
	RecurringUsed    int64 `gorm:"not null;default:0"` // Recurring consumption in the current cycle.
	ExtraGranted     int64 `gorm:"not null;default:0"` // Non-expiring bonus allotment.
	ExtraUsed        int64 `gorm:"not null;default:0"` // Non-expiring bonus consumption.

	NextResetAt time.Time `gorm:"not null;index"` // When the recurring bucket next resets.

	TotalGrantedLifetime  int64 `gorm:"not null;default:0"` // Lifetime credits granted, never decreases.
	TotalConsumedLifetime int64 `gorm:"not null;default:0"` // Lifetime credits consumed, never decreases.

	Version int64 `gorm:"not null;default:0"` // Optimistic concurrency version.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// TableName overrides the default table name.
func (Balance) TableName() string {
	return "balances"
}
