package gormrepo

import (
	"context"
	"errors"

	"fanders-backend/internal/domain/approval"
	"fanders-backend/internal/domain/audit"
	"fanders-backend/internal/domain/blotter"
	"fanders-backend/internal/domain/client"
	"fanders-backend/internal/domain/collection"
	"fanders-backend/internal/domain/loan"
	"fanders-backend/internal/domain/payment"
	"fanders-backend/internal/domain/slr"
	"fanders-backend/internal/domain/user"

	"gorm.io/gorm"
)

// Models lists every table the service owns, in dependency order.
func Models() []any {
	return []any{
		&user.User{},
		&client.Client{},
		&loan.Loan{},
		&approval.Approval{},
		&payment.Payment{},
		&collection.Sheet{},
		&collection.Item{},
		&blotter.Blotter{},
		&slr.Document{},
		&slr.Rule{},
		&slr.AccessLog{},
		&audit.Entry{},
	}
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}

// SeedRules inserts the default SLR rule for any trigger that has none.
// Existing rules are left alone so operator edits survive restarts.
func SeedRules(ctx context.Context, db *gorm.DB) error {
	repo := NewSLRRepository(db)
	for _, rule := range slr.DefaultRules() {
		_, err := repo.GetRule(ctx, rule.Trigger)
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		rule := rule
		if err := repo.SaveRule(ctx, &rule); err != nil {
			return err
		}
	}
	return nil
}
