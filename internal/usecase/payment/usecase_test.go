package payment

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fanders-backend/internal/adapter/repository/gormrepo"
	"fanders-backend/internal/domain/apperr"
	"fanders-backend/internal/domain/loan"
	domain "fanders-backend/internal/domain/payment"
	"fanders-backend/internal/domain/user"
	"fanders-backend/internal/infrastructure/logger"
	"fanders-backend/internal/testutil/testdb"
)

var cashier = user.Actor{ID: 6, Username: "cash", Role: user.RoleCashier}

type refresher struct{ days []time.Time }

func (r *refresher) RecalculateFrom(_ context.Context, day time.Time) error {
	r.days = append(r.days, day)
	return nil
}

func setup(t *testing.T) (*Usecase, *refresher, *loan.Loan) {
	t.Helper()
	db := testdb.Open(t)
	c := testdb.Client(t, db, "09171234567")
	l := testdb.ActiveLoan(t, db, c.ID, "10000", testdb.Day(2025, 1, 6))

	ref := &refresher{}
	uc := NewUsecase(gormrepo.NewLoanRepository(db), gormrepo.NewPaymentRepository(db), gormrepo.NewGormUoW(db), ref, nil,
		logger.NewWithOutput(&bytes.Buffer{}, "info", "text"))
	uc.now = func() time.Time { return time.Date(2025, 1, 13, 10, 0, 0, 0, time.UTC) }
	return uc, ref, l
}

func TestRecord_DefaultsAndAllocation(t *testing.T) {
	uc, ref, l := setup(t)
	ctx := context.Background()

	res, err := uc.Record(ctx, cashier, RecordInput{LoanID: l.LoanID, Amount: l.WeeklyPayment})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	p := res.Payment
	if p.WeekNumber != 1 || p.Method != domain.MethodCash || p.RecordedBy != cashier.ID {
		t.Fatalf("defaults not applied: %+v", p)
	}
	sum := p.PrincipalAmount.Add(p.InterestAmount).Add(p.InsuranceAmount).Add(p.SavingsAmount)
	if !sum.Equal(p.Amount) {
		t.Fatalf("allocation %s != amount %s", sum, p.Amount)
	}
	if res.LoanCompleted || !res.Remaining.Equal(l.TotalAmount.Sub(l.WeeklyPayment)) {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(ref.days) != 1 || !ref.days[0].Equal(time.Date(2025, 1, 13, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("blotter refresh = %v", ref.days)
	}

	res, err = uc.Record(ctx, cashier, RecordInput{LoanID: l.LoanID, Amount: l.WeeklyPayment})
	if err != nil || res.Payment.WeekNumber != 2 {
		t.Fatalf("next week: %v %+v", err, res)
	}
}

func TestRecord_Rejections(t *testing.T) {
	uc, _, l := setup(t)
	ctx := context.Background()
	if _, err := uc.Record(ctx, cashier, RecordInput{LoanID: l.LoanID, Amount: l.WeeklyPayment, WeekNumber: 3}); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name  string
		actor user.Actor
		in    RecordInput
		want  error
	}{
		{"manager cannot record", user.Actor{Role: user.RoleManager}, RecordInput{LoanID: l.LoanID, Amount: decimal.NewFromInt(1)}, user.ErrNotAllowed},
		{"zero amount", cashier, RecordInput{LoanID: l.LoanID}, domain.ErrInvalidAmount},
		{"bad method", cashier, RecordInput{LoanID: l.LoanID, Amount: decimal.NewFromInt(1), Method: "barter"}, domain.ErrInvalidMethod},
		{"week past term", cashier, RecordInput{LoanID: l.LoanID, Amount: decimal.NewFromInt(1), WeekNumber: 18}, domain.ErrWeekOutOfRange},
		{"duplicate week", cashier, RecordInput{LoanID: l.LoanID, Amount: decimal.NewFromInt(1), WeekNumber: 3}, apperr.ErrConflict},
		{"unknown loan", cashier, RecordInput{LoanID: "ffffffffffffffffffffffffffffffff", Amount: decimal.NewFromInt(1)}, loan.ErrNotFound},
	}
	for _, tc := range cases {
		if _, err := uc.Record(ctx, tc.actor, tc.in); !errors.Is(err, tc.want) {
			t.Fatalf("%s: want %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestRecord_CompletesLoanWhenPaidInFull(t *testing.T) {
	uc, _, l := setup(t)
	ctx := context.Background()

	for w := 1; w < l.TermWeeks; w++ {
		if _, err := uc.Record(ctx, cashier, RecordInput{LoanID: l.LoanID, Amount: l.WeeklyPayment}); err != nil {
			t.Fatalf("week %d: %v", w, err)
		}
	}
	sum, err := uc.Summary(ctx, l.LoanID)
	if err != nil {
		t.Fatal(err)
	}
	if sum.PaymentsMade != 16 || sum.NextWeek != 17 {
		t.Fatalf("summary %+v", sum)
	}

	res, err := uc.Record(ctx, cashier, RecordInput{LoanID: l.LoanID, Amount: sum.Remaining})
	if err != nil {
		t.Fatalf("final: %v", err)
	}
	if !res.LoanCompleted || !res.Remaining.IsZero() {
		t.Fatalf("loan not completed: %+v", res)
	}
	if _, err := uc.Record(ctx, cashier, RecordInput{LoanID: l.LoanID, Amount: decimal.NewFromInt(1)}); !errors.Is(err, loan.ErrNotActive) {
		t.Fatalf("payment on completed loan: %v", err)
	}

	sum, _ = uc.Summary(ctx, l.LoanID)
	if !sum.TotalPaid.Equal(l.TotalAmount) || sum.NextWeek != 0 {
		t.Fatalf("final summary %+v", sum)
	}
	if !sum.Breakdown.Principal.Add(sum.Breakdown.Interest).Add(sum.Breakdown.Insurance).Add(sum.Breakdown.Savings).Equal(sum.TotalPaid) {
		t.Fatalf("breakdown does not add up: %+v", sum.Breakdown)
	}
}

func TestListByRange(t *testing.T) {
	uc, _, l := setup(t)
	ctx := context.Background()
	for i, d := range []time.Time{testdb.Day(2025, 1, 13), testdb.Day(2025, 1, 20).Add(23 * time.Hour), testdb.Day(2025, 1, 27)} {
		if _, err := uc.Record(ctx, cashier, RecordInput{LoanID: l.LoanID, Amount: decimal.NewFromInt(100), WeekNumber: i + 1, PaymentDate: d}); err != nil {
			t.Fatal(err)
		}
	}
	res, err := uc.ListByRange(ctx, testdb.Day(2025, 1, 13), testdb.Day(2025, 1, 20))
	if err != nil {
		t.Fatal(err)
	}
	if res.Count != 2 || res.Total.StringFixed(2) != "200.00" {
		t.Fatalf("range %+v", res)
	}
	if _, err := uc.ListByRange(ctx, testdb.Day(2025, 2, 1), testdb.Day(2025, 1, 1)); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("inverted range: %v", err)
	}
}
