package gormrepo

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "fanders-backend/internal/domain/loan"
	"fanders-backend/pkg/id"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func TestLoanCreateAndGetByLoanID(t *testing.T) {
	db := openTestDB(t)
	repo := NewLoanRepository(db)
	ctx := context.Background()

	c := seedClient(t, db, "09170000001")
	l := seedLoan(t, db, c.ID, "25000", time.Now())
	if l.ID == 0 {
		t.Fatalf("Create did not set auto-increment ID")
	}

	got, err := repo.GetByLoanID(ctx, l.LoanID)
	if err != nil {
		t.Fatalf("GetByLoanID: %v", err)
	}
	if got.ClientID != c.ID || got.State != domain.StateApplication {
		t.Fatalf("unexpected loan: %+v", got)
	}
	if !got.TotalAmount.Equal(decimal.RequireFromString("30675")) {
		t.Fatalf("total amount = %s, want 30675", got.TotalAmount)
	}
	if !got.WeeklyPayment.Equal(decimal.RequireFromString("1804.41")) {
		t.Fatalf("weekly payment = %s, want 1804.41", got.WeeklyPayment)
	}
}

func TestLoanGetByLoanID_NotFound(t *testing.T) {
	db := openTestDB(t)
	repo := NewLoanRepository(db)

	_, err := repo.GetByLoanID(context.Background(), id.NewID32())
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestLoanSaveTransition(t *testing.T) {
	db := openTestDB(t)
	repo := NewLoanRepository(db)
	ctx := context.Background()

	c := seedClient(t, db, "09170000002")
	l := seedLoan(t, db, c.ID, "15000", time.Now())

	locked, err := repo.GetByIDForUpdate(ctx, l.ID)
	if err != nil {
		t.Fatalf("GetByIDForUpdate: %v", err)
	}
	if err := locked.Transition(domain.StateApproved, 7, time.Now()); err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if err := repo.Save(ctx, locked); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := repo.GetByID(ctx, l.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.State != domain.StateApproved || got.ApprovedBy == nil || *got.ApprovedBy != 7 {
		t.Fatalf("transition not persisted: %+v", got)
	}
}

func TestLoanListFilterAndPaginate(t *testing.T) {
	db := openTestDB(t)
	repo := NewLoanRepository(db)
	ctx := context.Background()

	a := seedClient(t, db, "09170000003")
	b := seedClient(t, db, "09170000004")
	for i := 0; i < 3; i++ {
		seedLoan(t, db, a.ID, "10000", time.Now())
	}
	seedLoan(t, db, b.ID, "10000", time.Now())

	page, total, err := repo.List(ctx, domain.ListFilter{ClientID: a.ID, Limit: 2})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 3 || len(page) != 2 {
		t.Fatalf("total=%d len=%d, want 3 and 2", total, len(page))
	}

	all, total, err := repo.List(ctx, domain.ListFilter{State: domain.StateApplication})
	if err != nil {
		t.Fatalf("List all: %v", err)
	}
	if total != 4 || len(all) != 4 {
		t.Fatalf("total=%d len=%d, want 4", total, len(all))
	}
}

func TestLoanCountsAndDisbursedSum(t *testing.T) {
	db := openTestDB(t)
	repo := NewLoanRepository(db)
	ctx := context.Background()

	c := seedClient(t, db, "09170000005")
	open := seedLoan(t, db, c.ID, "12000.50", time.Now())
	done := seedLoan(t, db, c.ID, "8000", time.Now())

	when := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	for _, l := range []*domain.Loan{open, done} {
		_ = l.Transition(domain.StateApproved, 1, when)
		_ = l.Transition(domain.StateActive, 1, when)
		if err := repo.Save(ctx, l); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	_ = done.Transition(domain.StateCompleted, 1, when)
	if err := repo.Save(ctx, done); err != nil {
		t.Fatalf("Save: %v", err)
	}

	n, err := repo.CountByClient(ctx, c.ID, domain.OpenStates...)
	if err != nil || n != 1 {
		t.Fatalf("CountByClient open = %d, %v; want 1", n, err)
	}
	byState, err := repo.CountByState(ctx)
	if err != nil {
		t.Fatalf("CountByState: %v", err)
	}
	if byState[domain.StateActive] != 1 || byState[domain.StateCompleted] != 1 {
		t.Fatalf("unexpected counts: %v", byState)
	}

	sum, err := repo.SumDisbursed(ctx, day(2025, 3, 10), day(2025, 3, 11))
	if err != nil {
		t.Fatalf("SumDisbursed: %v", err)
	}
	if !sum.Equal(decimal.RequireFromString("20000.50")) {
		t.Fatalf("sum = %s, want 20000.50", sum)
	}
	none, err := repo.SumDisbursed(ctx, day(2025, 3, 11), day(2025, 3, 12))
	if err != nil || !none.IsZero() {
		t.Fatalf("empty window sum = %s, %v", none, err)
	}
}
