// Package testdb opens migrated in-memory sqlite databases for workflow tests.
package testdb

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"fanders-backend/internal/adapter/repository/gormrepo"
	"fanders-backend/internal/domain/client"
	"fanders-backend/internal/domain/loan"
	"fanders-backend/internal/domain/loan/calculator"
	"fanders-backend/internal/domain/user"
	"fanders-backend/pkg/id"
)

// Open returns a fresh schema with the SLR rules seeded.
// One connection only: every new connection to ":memory:" is a different database.
func Open(t *testing.T) *gorm.DB {
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
	if err := gormrepo.AutoMigrate(db); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	if err := gormrepo.SeedRules(context.Background(), db); err != nil {
		t.Fatalf("seed rules: %v", err)
	}
	return db
}

func Client(t *testing.T, db *gorm.DB, phone string) *client.Client {
	t.Helper()
	c := &client.Client{
		ClientID:             id.NewID32(),
		Name:                 "Client " + phone,
		Phone:                phone,
		Address:              "Purok 1, Brgy. Poblacion",
		IdentificationType:   "national-id",
		IdentificationNumber: "ID-" + phone,
		Status:               client.StatusActive,
	}
	if err := gormrepo.NewClientRepository(db).Create(context.Background(), c); err != nil {
		t.Fatalf("seed client: %v", err)
	}
	return c
}

// Loan books a 17-week application for clientID.
func Loan(t *testing.T, db *gorm.DB, clientID uint64, principal string, at time.Time) *loan.Loan {
	t.Helper()
	res, err := calculator.Calculate(calculator.Input{Principal: decimal.RequireFromString(principal), TermWeeks: 17})
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	l := loan.New(id.NewID32(), clientID, res, at)
	if err := gormrepo.NewLoanRepository(db).Create(context.Background(), l); err != nil {
		t.Fatalf("seed loan: %v", err)
	}
	return l
}

// ActiveLoan books a loan and walks it to active, disbursed on at.
func ActiveLoan(t *testing.T, db *gorm.DB, clientID uint64, principal string, at time.Time) *loan.Loan {
	t.Helper()
	l := Loan(t, db, clientID, principal, at)
	for _, s := range []loan.State{loan.StateApproved, loan.StateActive} {
		if err := l.Transition(s, 1, at); err != nil {
			t.Fatalf("transition: %v", err)
		}
	}
	if err := gormrepo.NewLoanRepository(db).Save(context.Background(), l); err != nil {
		t.Fatalf("save loan: %v", err)
	}
	return l
}

func User(t *testing.T, db *gorm.DB, username string, role user.Role) *user.User {
	t.Helper()
	u := &user.User{Username: username, Name: username, PasswordHash: "x", Role: role, Status: user.StatusActive}
	if err := gormrepo.NewUserRepository(db).Create(context.Background(), u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func Actor(u *user.User) user.Actor {
	return user.Actor{ID: u.ID, Username: u.Username, Role: u.Role}
}

func Day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }
