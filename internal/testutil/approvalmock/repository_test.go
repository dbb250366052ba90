package approvalmock

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "fanders-backend/internal/domain/approval"
)

func TestRepo_RecordsCreatesAndTallies(t *testing.T) {
	ctx := context.Background()
	since := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	m := &Repo{}

	for _, a := range []*domain.Approval{
		{LoanID: 1, Decision: domain.DecisionApproved, ApprovalDate: since.AddDate(0, 0, -1)},
		{LoanID: 2, Decision: domain.DecisionApproved, ApprovalDate: since},
		{LoanID: 3, Decision: domain.DecisionRejected, ApprovalDate: since.AddDate(0, 0, 5)},
	} {
		if err := m.Create(ctx, a); err != nil {
			t.Fatal(err)
		}
	}
	if len(m.Created) != 3 {
		t.Fatalf("recorded %d creates", len(m.Created))
	}
	got, err := m.CountSince(ctx, since)
	if err != nil || got[domain.DecisionApproved] != 1 || got[domain.DecisionRejected] != 1 {
		t.Fatalf("CountSince = %v, %v", got, err)
	}
}

func TestRepo_OverridesAndDefaults(t *testing.T) {
	ctx := context.Background()
	dup := errors.New("duplicate decision")
	m := &Repo{
		CreateFn: func(context.Context, *domain.Approval) error { return dup },
		GetByLoanIDFn: func(_ context.Context, pk uint64) (*domain.Approval, error) {
			return &domain.Approval{LoanID: pk, Decision: domain.DecisionRejected}, nil
		},
	}
	if err := m.Create(ctx, &domain.Approval{}); !errors.Is(err, dup) {
		t.Fatalf("Create = %v", err)
	}
	if a, err := m.GetByLoanID(ctx, 42); err != nil || a.LoanID != 42 {
		t.Fatalf("GetByLoanID = %+v, %v", a, err)
	}

	if _, err := (&Repo{}).GetByLoanID(ctx, 42); !errors.Is(err, context.Canceled) {
		t.Fatalf("unset GetByLoanID = %v", err)
	}
}
