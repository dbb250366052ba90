package loanmock

import (
	"context"
	"errors"
	"testing"

	domain "fanders-backend/internal/domain/loan"
)

func TestRepo_WritesDefaultToSuccess(t *testing.T) {
	m := &Repo{}
	if err := m.Create(context.Background(), &domain.Loan{}); err != nil {
		t.Fatalf("Create default: %v", err)
	}
	if err := m.Save(context.Background(), &domain.Loan{}); err != nil {
		t.Fatalf("Save default: %v", err)
	}
}

func TestRepo_ReadsDefaultToCanceled(t *testing.T) {
	m := &Repo{}
	ctx := context.Background()
	if _, err := m.GetByLoanID(ctx, "x"); err != context.Canceled {
		t.Fatalf("GetByLoanID default: %v", err)
	}
	if _, err := m.GetByLoanIDForUpdate(ctx, "x"); err != context.Canceled {
		t.Fatalf("GetByLoanIDForUpdate default: %v", err)
	}
	if _, _, err := m.List(ctx, domain.ListFilter{}); err != context.Canceled {
		t.Fatalf("List default: %v", err)
	}
	if _, err := m.CountByClient(ctx, 1); err != context.Canceled {
		t.Fatalf("CountByClient default: %v", err)
	}
}

func TestRepo_UsesProvidedFuncs(t *testing.T) {
	want := &domain.Loan{ID: 5, LoanID: "L"}
	boom := errors.New("boom")
	var gotStates []domain.State
	m := &Repo{
		GetByIDFn: func(_ context.Context, id uint64) (*domain.Loan, error) {
			if id != 5 {
				t.Fatalf("id mismatch: %d", id)
			}
			return want, nil
		},
		CountByClientFn: func(_ context.Context, _ uint64, states ...domain.State) (int64, error) {
			gotStates = states
			return 0, boom
		},
	}
	got, err := m.GetByID(context.Background(), 5)
	if err != nil || got != want {
		t.Fatalf("GetByID = %+v, %v", got, err)
	}
	if _, err := m.CountByClient(context.Background(), 1, domain.OpenStates...); !errors.Is(err, boom) {
		t.Fatalf("CountByClient err = %v", err)
	}
	if len(gotStates) != len(domain.OpenStates) {
		t.Fatalf("states not forwarded: %v", gotStates)
	}
}
