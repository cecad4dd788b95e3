// Package plan supplies the recurring-grant amount applied when a balance
// resets. The ledger does not own plan catalogs; it only consumes the number.
package plan

import (
	"context"
	"errors"

	"github.com/meterwise/creditledger/internal/models"
	"gorm.io/gorm"
)

// EntitlementSource resolves the recurring credit grant for a user. Lookups
// run on the supplied connection so callers inside a transaction stay on it.
type EntitlementSource interface {
	RecurringGrant(ctx context.Context, conn *gorm.DB, userID uint64) (int64, error)
}

// GormEntitlements resolves entitlements from the plans table via user assignment.
type GormEntitlements struct {
	db *gorm.DB
}

// NewGormEntitlements constructs a GormEntitlements.
func NewGormEntitlements(db *gorm.DB) *GormEntitlements {
	return &GormEntitlements{db: db}
}

// RecurringGrant returns the recurring credits for the user's assigned plan,
// falling back to the default plan, then to zero when no plan applies.
func (e *GormEntitlements) RecurringGrant(ctx context.Context, conn *gorm.DB, userID uint64) (int64, error) {
	if conn == nil {
		if e == nil || e.db == nil {
			return 0, errors.New("plan: nil db")
		}
		conn = e.db
	}

	var user models.User
	if errFind := conn.WithContext(ctx).
		Select("plan_id").
		First(&user, userID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return e.defaultGrant(ctx, conn)
		}
		return 0, errFind
	}

	if user.PlanID != nil {
		var assigned models.Plan
		if errFind := conn.WithContext(ctx).
			Where("id = ? AND is_enabled = ?", *user.PlanID, true).
			First(&assigned).Error; errFind == nil {
			return assigned.RecurringCredits, nil
		} else if !errors.Is(errFind, gorm.ErrRecordNotFound) {
			return 0, errFind
		}
	}

	return e.defaultGrant(ctx, conn)
}

// defaultGrant returns the default plan's recurring credits, or zero when none exists.
func (e *GormEntitlements) defaultGrant(ctx context.Context, conn *gorm.DB) (int64, error) {
	var fallback models.Plan
	if errFind := conn.WithContext(ctx).
		Where("is_default = ? AND is_enabled = ?", true, true).
		Order("id ASC").
		First(&fallback).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, errFind
	}
	return fallback.RecurringCredits, nil
}

// Ensure GormEntitlements implements EntitlementSource.
var _ EntitlementSource = (*GormEntitlements)(nil)
