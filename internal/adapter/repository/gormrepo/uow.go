package gormrepo

import (
	"context"

	"fanders-backend/internal/domain/loan"
	"fanders-backend/internal/domain/uow"

	"gorm.io/gorm"
)

type GormUoW struct{ db *gorm.DB }

func NewGormUoW(db *gorm.DB) *GormUoW { return &GormUoW{db: db} }

// Repositories builds the full repo set over db. Outside a transaction it is
// what the usecases read through.
func Repositories(db *gorm.DB) uow.Repos {
	return uow.Repos{
		Users:       NewUserRepository(db),
		Clients:     NewClientRepository(db),
		Loans:       NewLoanRepository(db),
		Approvals:   NewApprovalRepository(db),
		Payments:    NewPaymentRepository(db),
		Collections: NewCollectionRepository(db),
		Blotters:    NewBlotterRepository(db),
		SLRs:        NewSLRRepository(db),
		Audit:       NewAuditRepository(db),
	}
}

func (u *GormUoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(Repositories(tx))
	})
}

func (u *GormUoW) WithinLoanTx(ctx context.Context, loanID string, fn func(r uow.Repos, l *loan.Loan) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := Repositories(tx)
		// lock the loan row up-front so concurrent writers queue behind us
		l, err := r.Loans.GetByLoanIDForUpdate(ctx, loanID)
		if err != nil {
			return err
		}
		return fn(r, l)
	})
}
