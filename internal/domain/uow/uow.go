package uow

import (
	"context"

	"fanders-backend/internal/domain/approval"
	"fanders-backend/internal/domain/audit"
	"fanders-backend/internal/domain/blotter"
	"fanders-backend/internal/domain/client"
	"fanders-backend/internal/domain/collection"
	"fanders-backend/internal/domain/loan"
	"fanders-backend/internal/domain/payment"
	"fanders-backend/internal/domain/slr"
	"fanders-backend/internal/domain/user"
)

// Repos are bound to one transaction.
type Repos struct {
	Users       user.Repository
	Clients     client.Repository
	Loans       loan.Repository
	Approvals   approval.Repository
	Payments    payment.Repository
	Collections collection.Repository
	Blotters    blotter.Repository
	SLRs        slr.Repository
	Audit       audit.Repository
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// convenience: lock loan first, then pass it in
	WithinLoanTx(ctx context.Context, loanID string, fn func(r Repos, l *loan.Loan) error) error
}
