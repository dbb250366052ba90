package gormrepo

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"fanders-backend/internal/domain/approval"
	"fanders-backend/pkg/id"
)

func TestApprovalRepository_OneDecisionPerLoan(t *testing.T) {
	db := openTestDB(t)
	repo := NewApprovalRepository(db)
	ctx := context.Background()
	c := seedClient(t, db, "09172000001")
	l := seedLoan(t, db, c.ID, "10000", time.Now())

	if _, err := repo.GetByLoanID(ctx, l.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("undecided loan: %v", err)
	}
	if err := repo.Create(ctx, makeApproval(id.NewID32(), l.ID, time.Now())); err != nil {
		t.Fatal(err)
	}
	if err := repo.Create(ctx, makeApproval(id.NewID32(), l.ID, time.Now())); err == nil {
		t.Fatal("second decision for the same loan must fail")
	}
	got, err := repo.GetByLoanID(ctx, l.ID)
	if err != nil || got.Decision != approval.DecisionApproved {
		t.Fatalf("GetByLoanID = %+v, %v", got, err)
	}
}

func TestApprovalRepository_CountSince(t *testing.T) {
	db := openTestDB(t)
	repo := NewApprovalRepository(db)
	ctx := context.Background()
	c := seedClient(t, db, "09172000002")
	now := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)

	decide := func(d approval.Decision, at time.Time) {
		t.Helper()
		l := seedLoan(t, db, c.ID, "10000", at)
		a := makeApproval(id.NewID32(), l.ID, at)
		a.Decision = d
		if err := repo.Create(ctx, a); err != nil {
			t.Fatal(err)
		}
	}
	decide(approval.DecisionApproved, now.AddDate(0, 0, -40))
	decide(approval.DecisionApproved, now.AddDate(0, 0, -3))
	decide(approval.DecisionApproved, now.AddDate(0, 0, -1))
	decide(approval.DecisionRejected, now.AddDate(0, 0, -2))

	got, err := repo.CountSince(ctx, now.AddDate(0, 0, -30))
	if err != nil {
		t.Fatal(err)
	}
	if got[approval.DecisionApproved] != 2 || got[approval.DecisionRejected] != 1 {
		t.Fatalf("CountSince = %v", got)
	}

	got, err = repo.CountSince(ctx, now)
	if err != nil || got[approval.DecisionApproved] != 0 || got[approval.DecisionRejected] != 0 {
		t.Fatalf("empty window = %v, %v", got, err)
	}
}
