package approval

import (
	"context"
	"time"
)

type Repository interface {
	// Create fails on a second decision for the same loan.
	Create(ctx context.Context, a *Approval) error
	GetByLoanID(ctx context.Context, loanID uint64) (*Approval, error)
	// CountSince tallies decisions dated at or after since.
	CountSince(ctx context.Context, since time.Time) (map[Decision]int64, error)
}
