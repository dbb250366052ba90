package gormrepo

import (
	"context"
	"errors"
	"testing"
	"time"

	approvalDomain "fanders-backend/internal/domain/approval"
	loanDomain "fanders-backend/internal/domain/loan"
	"fanders-backend/internal/domain/payment"
	"fanders-backend/internal/domain/uow"
	"fanders-backend/pkg/id"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func makeApproval(apprID string, loanNumericID uint64, when time.Time) *approvalDomain.Approval {
	return &approvalDomain.Approval{
		ApprovalID:   apprID,
		LoanID:       loanNumericID,
		Decision:     approvalDomain.DecisionApproved,
		DecidedBy:    1,
		ApprovalDate: when.UTC(),
	}
}

func TestGormUoW_WithinTx_Commit(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	c := seedClient(t, db, "09171000001")

	guow := NewGormUoW(db)
	apprID := id.NewID32()
	var loanID string
	var loanPK uint64

	err := guow.WithinTx(ctx, func(r uow.Repos) error {
		l := seedLoanWith(t, r, c.ID)
		loanID, loanPK = l.LoanID, l.ID
		return r.Approvals.Create(ctx, makeApproval(apprID, l.ID, time.Now()))
	})
	if err != nil {
		t.Fatalf("WithinTx commit err: %v", err)
	}

	if _, err := NewLoanRepository(db).GetByLoanID(ctx, loanID); err != nil {
		t.Fatalf("loan not visible after commit: %v", err)
	}
	if a, err := NewApprovalRepository(db).GetByLoanID(ctx, loanPK); err != nil || a.ApprovalID != apprID {
		t.Fatalf("approval not visible after commit: %v", err)
	}
}

func TestGormUoW_WithinTx_Rollback(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	c := seedClient(t, db, "09171000002")

	guow := NewGormUoW(db)
	sentinel := errors.New("boom")
	apprID := id.NewID32()
	var loanID string
	var loanPK uint64

	err := guow.WithinTx(ctx, func(r uow.Repos) error {
		l := seedLoanWith(t, r, c.ID)
		loanID, loanPK = l.LoanID, l.ID
		if err := r.Approvals.Create(ctx, makeApproval(apprID, l.ID, time.Now())); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel, got %v", err)
	}

	if _, err := NewLoanRepository(db).GetByLoanID(ctx, loanID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected loan not found after rollback, got %v", err)
	}
	if _, err := NewApprovalRepository(db).GetByLoanID(ctx, loanPK); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected approval not found after rollback, got %v", err)
	}
}

func TestGormUoW_WithinLoanTx_Commit(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	c := seedClient(t, db, "09171000003")
	seed := seedLoan(t, db, c.ID, "20000", time.Now().Add(-time.Hour))

	guow := NewGormUoW(db)
	err := guow.WithinLoanTx(ctx, seed.LoanID, func(r uow.Repos, l *loanDomain.Loan) error {
		if l.LoanID != seed.LoanID || l.State != loanDomain.StateApplication {
			t.Fatalf("unexpected loan passed to fn: %+v", l)
		}
		if err := r.Approvals.Create(ctx, makeApproval(id.NewID32(), l.ID, time.Now())); err != nil {
			return err
		}
		if err := l.Transition(loanDomain.StateApproved, 1, time.Now()); err != nil {
			return err
		}
		return r.Loans.Save(ctx, l)
	})
	if err != nil {
		t.Fatalf("WithinLoanTx commit err: %v", err)
	}

	got, err := NewLoanRepository(db).GetByLoanID(ctx, seed.LoanID)
	if err != nil {
		t.Fatalf("GetByLoanID post-commit: %v", err)
	}
	if got.State != loanDomain.StateApproved {
		t.Fatalf("loan state not updated, got=%s", got.State)
	}
	if _, err := NewApprovalRepository(db).GetByLoanID(ctx, seed.ID); err != nil {
		t.Fatalf("approval not visible after commit: %v", err)
	}
}

func TestGormUoW_WithinLoanTx_Rollback(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	c := seedClient(t, db, "09171000004")
	seed := seedLoan(t, db, c.ID, "20000", time.Now())

	guow := NewGormUoW(db)
	sentinel := errors.New("stop")
	_ = guow.WithinLoanTx(ctx, seed.LoanID, func(r uow.Repos, l *loanDomain.Loan) error {
		_ = l.Transition(loanDomain.StateApproved, 1, time.Now())
		_ = l.Transition(loanDomain.StateActive, 1, time.Now())
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		p := &payment.Payment{LoanID: l.ID, ClientID: l.ClientID, WeekNumber: 1,
			Amount: l.WeeklyPayment, Method: payment.MethodCash, RecordedBy: 1, PaymentDate: time.Now()}
		if err := r.Payments.Create(ctx, p); err != nil {
			return err
		}
		return sentinel
	})

	got, err := NewLoanRepository(db).GetByLoanID(ctx, seed.LoanID)
	if err != nil {
		t.Fatalf("GetByLoanID: %v", err)
	}
	if got.State != loanDomain.StateApplication {
		t.Fatalf("state should be unchanged after rollback, got=%s", got.State)
	}
	ps, err := NewPaymentRepository(db).ListByLoan(ctx, seed.ID)
	if err != nil || len(ps) != 0 {
		t.Fatalf("payments after rollback = %d, %v", len(ps), err)
	}
}

func TestGormUoW_WithinLoanTx_NotFound(t *testing.T) {
	db := openTestDB(t)
	called := false
	err := NewGormUoW(db).WithinLoanTx(context.Background(), id.NewID32(), func(uow.Repos, *loanDomain.Loan) error {
		called = true
		return nil
	})
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
	if called {
		t.Fatalf("fn must not run when the loan is missing")
	}
}

// seedLoanWith books a loan through a tx-bound repo set.
func seedLoanWith(t *testing.T, r uow.Repos, clientID uint64) *loanDomain.Loan {
	t.Helper()
	l := &loanDomain.Loan{
		LoanID:           id.NewID32(),
		ClientID:         clientID,
		Principal:        decimal.NewFromInt(10_000),
		InterestRate:     decimal.RequireFromString("0.05"),
		TermWeeks:        17,
		TermMonths:       4,
		TotalInterest:    decimal.NewFromInt(2_000),
		InsuranceFee:     decimal.NewFromInt(425),
		SavingsDeduction: decimal.NewFromInt(100),
		TotalAmount:      decimal.NewFromInt(12_525),
		WeeklyPayment:    decimal.RequireFromString("736.76"),
		State:            loanDomain.StateApplication,
		ApplicationDate:  time.Now().UTC(),
		StateUpdatedAt:   time.Now().UTC(),
	}
	if err := r.Loans.Create(context.Background(), l); err != nil {
		t.Fatalf("create loan: %v", err)
	}
	return l
}
