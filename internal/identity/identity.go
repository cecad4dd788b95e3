// Package identity answers the one question the ledger asks about users:
// does this user exist. Account management itself lives elsewhere.
package identity

import (
	"context"
	"errors"

	"github.com/meterwise/creditledger/internal/models"
	"gorm.io/gorm"
)

// Directory checks whether a user identity exists. Lookups run on the
// supplied connection so callers inside a transaction stay on it.
type Directory interface {
	Exists(ctx context.Context, conn *gorm.DB, userID uint64) (bool, error)
}

// GormDirectory resolves users against the users table.
type GormDirectory struct {
	db *gorm.DB
}

// NewGormDirectory constructs a GormDirectory.
func NewGormDirectory(db *gorm.DB) *GormDirectory {
	return &GormDirectory{db: db}
}

// Exists reports whether an enabled user row exists for the given ID.
func (d *GormDirectory) Exists(ctx context.Context, conn *gorm.DB, userID uint64) (bool, error) {
	if conn == nil {
		if d == nil || d.db == nil {
			return false, errors.New("identity: nil db")
		}
		conn = d.db
	}
	if userID == 0 {
		return false, nil
	}

	var row struct {
		ID uint64
	}
	errFind := conn.WithContext(ctx).Model(&models.User{}).
		Select("id").
		Where("id = ? AND is_enabled = ?", userID, true).
		Take(&row).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, errFind
	}
	return row.ID != 0, nil
}

// Ensure GormDirectory implements Directory.
var _ Directory = (*GormDirectory)(nil)
