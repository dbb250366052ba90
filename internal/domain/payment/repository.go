package payment

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type Repository interface {
	Create(ctx context.Context, p *Payment) error
	GetByID(ctx context.Context, id uint64) (*Payment, error)
	ListByLoan(ctx context.Context, loanID uint64) ([]Payment, error)
	// ListByLoans returns the payments of every loan in ids, grouped by the caller.
	ListByLoans(ctx context.Context, ids []uint64) ([]Payment, error)
	// ListBetween returns payments dated in [from, to).
	ListBetween(ctx context.Context, from, to time.Time) ([]Payment, error)
	WeekTaken(ctx context.Context, loanID uint64, week int) (bool, error)
	// SumBetween totals payments dated in [from, to).
	SumBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, int64, error)
}
