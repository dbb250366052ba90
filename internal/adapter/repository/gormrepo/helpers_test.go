package gormrepo

import (
	"context"
	"testing"
	"time"

	"fanders-backend/internal/domain/client"
	"fanders-backend/internal/domain/loan"
	"fanders-backend/internal/domain/loan/calculator"
	"fanders-backend/pkg/id"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// openTestDB opens an in-memory sqlite database with the full schema.
// One connection only: every new connection to ":memory:" is a fresh database.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return db
}

func seedClient(t *testing.T, db *gorm.DB, phone string) *client.Client {
	t.Helper()
	c := &client.Client{
		ClientID:             id.NewID32(),
		Name:                 "Client " + phone,
		Phone:                phone,
		IdentificationNumber: "ID-" + phone,
		Status:               client.StatusActive,
	}
	if err := NewClientRepository(db).Create(context.Background(), c); err != nil {
		t.Fatalf("seed client: %v", err)
	}
	return c
}

func seedLoan(t *testing.T, db *gorm.DB, clientID uint64, principal string, at time.Time) *loan.Loan {
	t.Helper()
	res, err := calculator.Calculate(calculator.Input{Principal: decimal.RequireFromString(principal), TermWeeks: 17})
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	l := loan.New(id.NewID32(), clientID, res, at)
	if err := NewLoanRepository(db).Create(context.Background(), l); err != nil {
		t.Fatalf("seed loan: %v", err)
	}
	return l
}

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }
