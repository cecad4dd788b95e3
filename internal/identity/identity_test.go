package identity

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/meterwise/creditledger/internal/models"
)

func setupDirectoryDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:identity_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, errOpen := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	if errMigrate := db.AutoMigrate(&models.User{}); errMigrate != nil {
		t.Fatalf("migrate db: %v", errMigrate)
	}
	return db
}

func TestExists(t *testing.T) {
	db := setupDirectoryDB(t)
	dir := NewGormDirectory(db)

	enabled := models.User{Name: "a", Email: "a@example.com", IsEnabled: true}
	if errCreate := db.Create(&enabled).Error; errCreate != nil {
		t.Fatalf("create user: %v", errCreate)
	}
	disabled := models.User{Name: "b", Email: "b@example.com", IsEnabled: false}
	if errCreate := db.Create(&disabled).Error; errCreate != nil {
		t.Fatalf("create user: %v", errCreate)
	}

	ok, errExists := dir.Exists(context.Background(), nil, enabled.ID)
	if errExists != nil {
		t.Fatalf("exists: %v", errExists)
	}
	if !ok {
		t.Fatal("enabled user should exist")
	}

	ok, errExists = dir.Exists(context.Background(), nil, disabled.ID)
	if errExists != nil {
		t.Fatalf("exists: %v", errExists)
	}
	if ok {
		t.Fatal("disabled user should not count as existing")
	}

	ok, errExists = dir.Exists(context.Background(), nil, 9999)
	if errExists != nil {
		t.Fatalf("exists: %v", errExists)
	}
	if ok {
		t.Fatal("missing user should not exist")
	}

	if ok, _ = dir.Exists(context.Background(), nil, 0); ok {
		t.Fatal("zero id should not exist")
	}
}
