package services

import (
	"context"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an in-memory sqlite database with the full schema. A
// single pooled connection keeps the in-memory database alive and shared
// across the test.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql.DB: %v", err)
	}
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetMaxOpenConns(1)

	if err := AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

type sentOTP struct {
	mobile string
	code   int
}

// fakeSender records delivered codes and can be made to fail.
type fakeSender struct {
	mu   sync.Mutex
	sent []sentOTP
	err  error
}

func (f *fakeSender) SendOTP(ctx context.Context, mobile string, code int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentOTP{mobile: mobile, code: code})
	return f.err
}

func (f *fakeSender) deliveries() []sentOTP {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentOTP(nil), f.sent...)
}
