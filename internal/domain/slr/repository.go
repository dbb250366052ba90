package slr

import (
	"context"
	"time"
)

type ListFilter struct {
	LoanID uint64
	Status Status
	From   time.Time
	To     time.Time
	Limit  int
	Offset int
}

type AccessFilter struct {
	DocumentID uint64
	UserID     uint64
	Action     Action
	Limit      int
	Offset     int
}

type Repository interface {
	Create(ctx context.Context, d *Document) error
	Save(ctx context.Context, d *Document) error
	GetByID(ctx context.Context, id uint64) (*Document, error)
	ActiveForLoan(ctx context.Context, loanID uint64) (*Document, error)
	CountForLoan(ctx context.Context, loanID uint64) (int64, error)
	List(ctx context.Context, f ListFilter) ([]Document, int64, error)

	GetRule(ctx context.Context, trigger Trigger) (*Rule, error)
	ListRules(ctx context.Context) ([]Rule, error)
	SaveRule(ctx context.Context, r *Rule) error

	LogAccess(ctx context.Context, a *AccessLog) error
	ListAccess(ctx context.Context, f AccessFilter) ([]AccessLog, int64, error)
}
