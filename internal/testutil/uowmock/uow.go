package uowmock

import (
	"context"
	"errors"

	"fanders-backend/internal/domain/loan"
	"fanders-backend/internal/domain/uow"
)

var _ uow.UnitOfWork = (*UoW)(nil)

var errUnimplemented = errors.New("uowmock: method not implemented")

// UoW is a function-backed mock that satisfies uow.UnitOfWork.
// Fill in the function fields you need in a test; unfilled ones return errUnimplemented.
type UoW struct {
	WithinTxFn     func(ctx context.Context, fn func(r uow.Repos) error) error
	WithinLoanTxFn func(ctx context.Context, loanID string, fn func(r uow.Repos, l *loan.Loan) error) error

	// Commits counts bodies that returned nil.
	Commits int
}

// Passthrough runs every body against repos without a transaction. WithinLoanTx loads
// the loan through repos.Loans.GetByLoanIDForUpdate first, like the real UoW.
func Passthrough(repos uow.Repos) *UoW {
	m := &UoW{}
	m.WithinTxFn = func(_ context.Context, fn func(uow.Repos) error) error {
		return m.count(fn(repos))
	}
	m.WithinLoanTxFn = func(ctx context.Context, loanID string, fn func(uow.Repos, *loan.Loan) error) error {
		l, err := repos.Loans.GetByLoanIDForUpdate(ctx, loanID)
		if err != nil {
			return err
		}
		return m.count(fn(repos, l))
	}
	return m
}

func (m *UoW) count(err error) error {
	if err == nil {
		m.Commits++
	}
	return err
}

func (m *UoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	if m.WithinTxFn != nil {
		return m.WithinTxFn(ctx, fn)
	}
	return errUnimplemented
}

func (m *UoW) WithinLoanTx(ctx context.Context, loanID string, fn func(r uow.Repos, l *loan.Loan) error) error {
	if m.WithinLoanTxFn != nil {
		return m.WithinLoanTxFn(ctx, loanID, fn)
	}
	return errUnimplemented
}
