package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/meterwise/creditledger/internal/models"
)

func TestSweepResetsDueBalancesOnly(t *testing.T) {
	db := setupLedgerDB(t)
	engine := newTestEngine(t, db)

	monthly := models.Plan{Name: "pro", RecurringCredits: 1000, IsDefault: true, IsEnabled: true}
	if errCreate := db.Create(&monthly).Error; errCreate != nil {
		t.Fatalf("create plan: %v", errCreate)
	}

	dueID := seedUser(t, db, nil)
	freshID := seedUser(t, db, nil)
	seedBalance(t, db, models.Balance{
		UserID:           dueID,
		RecurringGranted: 100,
		RecurringUsed:    100,
		NextResetAt:      nowUTC().Add(-time.Hour),
	})
	seedBalance(t, db, models.Balance{
		UserID:           freshID,
		RecurringGranted: 100,
		RecurringUsed:    40,
	})

	sweeper := NewSweeper(db, engine, time.Minute)
	if sweeper == nil {
		t.Fatal("nil sweeper")
	}
	sweeper.sweep(context.Background())

	var due, fresh models.Balance
	if errFind := db.Where("user_id = ?", dueID).First(&due).Error; errFind != nil {
		t.Fatalf("load due balance: %v", errFind)
	}
	if errFind := db.Where("user_id = ?", freshID).First(&fresh).Error; errFind != nil {
		t.Fatalf("load fresh balance: %v", errFind)
	}

	if due.RecurringGranted != 1000 || due.RecurringUsed != 0 {
		t.Fatalf("due balance not reset: %d/%d", due.RecurringUsed, due.RecurringGranted)
	}
	if !due.NextResetAt.After(nowUTC()) {
		t.Fatalf("due balance reset time %s must advance", due.NextResetAt)
	}
	if fresh.RecurringUsed != 40 || fresh.Version != 0 {
		t.Fatalf("fresh balance must be untouched: %+v", fresh)
	}

	// A second sweep finds nothing due.
	sweeper.sweep(context.Background())
	var after models.Balance
	if errFind := db.Where("user_id = ?", dueID).First(&after).Error; errFind != nil {
		t.Fatalf("reload due balance: %v", errFind)
	}
	if after.Version != due.Version {
		t.Fatalf("second sweep must not touch the balance, version %d -> %d", due.Version, after.Version)
	}
}
