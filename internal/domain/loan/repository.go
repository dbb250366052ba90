package loan

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type ListFilter struct {
	State    State
	ClientID uint64
	Limit    int
	Offset   int
}

type Repository interface {
	Create(ctx context.Context, l *Loan) error
	Save(ctx context.Context, l *Loan) error
	GetByID(ctx context.Context, id uint64) (*Loan, error)
	GetByLoanID(ctx context.Context, loanID string) (*Loan, error)
	// GetByLoanIDForUpdate locks the row until the surrounding transaction ends.
	GetByLoanIDForUpdate(ctx context.Context, loanID string) (*Loan, error)
	GetByIDForUpdate(ctx context.Context, id uint64) (*Loan, error)
	List(ctx context.Context, f ListFilter) ([]Loan, int64, error)
	CountByClient(ctx context.Context, clientID uint64, states ...State) (int64, error)
	CountByState(ctx context.Context) (map[State]int64, error)
	// SumDisbursed totals principal released in [from, to).
	SumDisbursed(ctx context.Context, from, to time.Time) (decimal.Decimal, error)
}
