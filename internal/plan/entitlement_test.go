package plan

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/meterwise/creditledger/internal/models"
)

func setupPlanDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:plan_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, errOpen := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	if errMigrate := db.AutoMigrate(&models.User{}, &models.Plan{}); errMigrate != nil {
		t.Fatalf("migrate db: %v", errMigrate)
	}
	return db
}

func TestRecurringGrantAssignedPlan(t *testing.T) {
	db := setupPlanDB(t)
	source := NewGormEntitlements(db)

	pro := models.Plan{Name: "pro", RecurringCredits: 5000, IsEnabled: true}
	if errCreate := db.Create(&pro).Error; errCreate != nil {
		t.Fatalf("create plan: %v", errCreate)
	}
	user := models.User{Name: "a", Email: "a@example.com", PlanID: &pro.ID, IsEnabled: true}
	if errCreate := db.Create(&user).Error; errCreate != nil {
		t.Fatalf("create user: %v", errCreate)
	}

	grant, errGrant := source.RecurringGrant(context.Background(), nil, user.ID)
	if errGrant != nil {
		t.Fatalf("recurring grant: %v", errGrant)
	}
	if grant != 5000 {
		t.Fatalf("grant = %d, want 5000", grant)
	}
}

func TestRecurringGrantFallsBackToDefault(t *testing.T) {
	db := setupPlanDB(t)
	source := NewGormEntitlements(db)

	free := models.Plan{Name: "free", RecurringCredits: 300, IsDefault: true, IsEnabled: true}
	if errCreate := db.Create(&free).Error; errCreate != nil {
		t.Fatalf("create plan: %v", errCreate)
	}
	disabled := models.Plan{Name: "legacy", RecurringCredits: 9000, IsEnabled: false}
	if errCreate := db.Create(&disabled).Error; errCreate != nil {
		t.Fatalf("create plan: %v", errCreate)
	}

	// User assigned to a disabled plan falls back to the default.
	user := models.User{Name: "a", Email: "a@example.com", PlanID: &disabled.ID, IsEnabled: true}
	if errCreate := db.Create(&user).Error; errCreate != nil {
		t.Fatalf("create user: %v", errCreate)
	}
	grant, errGrant := source.RecurringGrant(context.Background(), nil, user.ID)
	if errGrant != nil {
		t.Fatalf("recurring grant: %v", errGrant)
	}
	if grant != 300 {
		t.Fatalf("grant = %d, want 300", grant)
	}

	// Unassigned user gets the default too.
	plain := models.User{Name: "b", Email: "b@example.com", IsEnabled: true}
	if errCreate := db.Create(&plain).Error; errCreate != nil {
		t.Fatalf("create user: %v", errCreate)
	}
	grant, errGrant = source.RecurringGrant(context.Background(), nil, plain.ID)
	if errGrant != nil {
		t.Fatalf("recurring grant: %v", errGrant)
	}
	if grant != 300 {
		t.Fatalf("grant = %d, want 300", grant)
	}
}

func TestRecurringGrantNoPlansMeansZero(t *testing.T) {
	db := setupPlanDB(t)
	source := NewGormEntitlements(db)

	user := models.User{Name: "a", Email: "a@example.com", IsEnabled: true}
	if errCreate := db.Create(&user).Error; errCreate != nil {
		t.Fatalf("create user: %v", errCreate)
	}

	grant, errGrant := source.RecurringGrant(context.Background(), nil, user.ID)
	if errGrant != nil {
		t.Fatalf("recurring grant: %v", errGrant)
	}
	if grant != 0 {
		t.Fatalf("grant = %d, want 0", grant)
	}
}
