package uowmock

import (
	"context"
	"errors"
	"testing"

	"fanders-backend/internal/domain/loan"
	"fanders-backend/internal/domain/uow"
	"fanders-backend/internal/testutil/approvalmock"
	"fanders-backend/internal/testutil/loanmock"
)

func TestPassthrough_WithinTx(t *testing.T) {
	loans := &loanmock.Repo{}
	apprs := &approvalmock.Repo{}
	m := Passthrough(uow.Repos{Loans: loans, Approvals: apprs})

	err := m.WithinTx(context.Background(), func(r uow.Repos) error {
		if r.Loans != loans || r.Approvals != apprs {
			t.Fatalf("repos not forwarded")
		}
		return nil
	})
	if err != nil || m.Commits != 1 {
		t.Fatalf("err=%v commits=%d", err, m.Commits)
	}

	sentinel := errors.New("boom")
	if err := m.WithinTx(context.Background(), func(uow.Repos) error { return sentinel }); !errors.Is(err, sentinel) {
		t.Fatalf("want %v, got %v", sentinel, err)
	}
	if m.Commits != 1 {
		t.Fatalf("failed body counted as commit")
	}
}

func TestPassthrough_WithinLoanTx_LocksFirst(t *testing.T) {
	lock := &loan.Loan{ID: 7, LoanID: "LN-7"}
	loans := &loanmock.Repo{
		GetByLoanIDForUpdateFn: func(_ context.Context, id string) (*loan.Loan, error) {
			if id != "LN-7" {
				t.Fatalf("loanID mismatch, got %s", id)
			}
			return lock, nil
		},
	}
	m := Passthrough(uow.Repos{Loans: loans})

	called := false
	err := m.WithinLoanTx(context.Background(), "LN-7", func(_ uow.Repos, l *loan.Loan) error {
		called = true
		if l != lock {
			t.Fatalf("loan not forwarded: %+v", l)
		}
		return nil
	})
	if err != nil || !called {
		t.Fatalf("err=%v called=%v", err, called)
	}
}

func TestPassthrough_WithinLoanTx_LookupErrorSkipsBody(t *testing.T) {
	m := Passthrough(uow.Repos{Loans: &loanmock.Repo{}})
	err := m.WithinLoanTx(context.Background(), "LN-X", func(uow.Repos, *loan.Loan) error {
		t.Fatal("body must not run")
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled from the unset mock, got %v", err)
	}
}

func TestUoW_Default_Unimplemented(t *testing.T) {
	m := &UoW{}
	if err := m.WithinTx(context.Background(), func(uow.Repos) error { return nil }); !errors.Is(err, errUnimplemented) {
		t.Fatalf("WithinTx default: want errUnimplemented, got %v", err)
	}
	if err := m.WithinLoanTx(context.Background(), "x", func(uow.Repos, *loan.Loan) error { return nil }); !errors.Is(err, errUnimplemented) {
		t.Fatalf("WithinLoanTx default: want errUnimplemented, got %v", err)
	}
}
