package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"fanders-backend/internal/domain/apperr"
	"fanders-backend/internal/domain/loan"
	"fanders-backend/internal/domain/loan/calculator"
	domain "fanders-backend/internal/domain/payment"
	"fanders-backend/internal/domain/uow"
	"fanders-backend/internal/domain/user"
	"fanders-backend/internal/infrastructure/metrics"
	"fanders-backend/internal/usecase/audit"
)

// BlotterRefresher rebuilds the cash blotter from day onwards after money moved.
type BlotterRefresher interface {
	RecalculateFrom(ctx context.Context, day time.Time) error
}

type Usecase struct {
	loans    loan.Repository
	payments domain.Repository
	uow      uow.UnitOfWork
	blotter  BlotterRefresher
	audit    *audit.Recorder
	log      *logrus.Logger
	now      func() time.Time
}

// NewUsecase accepts a nil blotter refresher.
func NewUsecase(loans loan.Repository, payments domain.Repository, tx uow.UnitOfWork, b BlotterRefresher, rec *audit.Recorder, log *logrus.Logger) *Usecase {
	return &Usecase{loans: loans, payments: payments, uow: tx, blotter: b, audit: rec, log: log, now: time.Now}
}

// Record posts one installment against an active loan, locking the loan row.
func (u *Usecase) Record(ctx context.Context, actor user.Actor, in RecordInput) (*RecordResult, error) {
	if !user.CanRecordPayment(actor.Role) {
		return nil, user.ErrNotAllowed
	}
	var res *RecordResult
	err := u.uow.WithinLoanTx(ctx, in.LoanID, func(r uow.Repos, l *loan.Loan) error {
		var err error
		res, err = u.RecordInTx(ctx, r, l, actor, in)
		return err
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, loan.ErrNotFound
		}
		return nil, err
	}
	u.Posted(ctx, actor, res)
	return res, nil
}

// RecordInTx does the work of Record inside a caller's transaction on an already locked
// loan. Callers run Posted after commit.
func (u *Usecase) RecordInTx(ctx context.Context, r uow.Repos, l *loan.Loan, actor user.Actor, in RecordInput) (*RecordResult, error) {
	if l.State != loan.StateActive {
		return nil, loan.ErrNotActive
	}
	if !in.Amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	method := in.Method
	if method == "" {
		method = domain.MethodCash
	}
	if !method.Valid() {
		return nil, domain.ErrInvalidMethod
	}

	paid, err := r.Payments.ListByLoan(ctx, l.ID)
	if err != nil {
		return nil, err
	}
	var totals domain.Totals
	taken := make(map[int]bool, len(paid))
	for _, p := range paid {
		totals.Add(p)
		taken[p.WeekNumber] = true
	}

	week := in.WeekNumber
	if week == 0 {
		week = nextWeek(taken, l.TermWeeks)
		if week == 0 {
			return nil, domain.ErrFullyPaid
		}
	}
	if week < 1 || week > l.TermWeeks {
		return nil, domain.ErrWeekOutOfRange
	}
	if taken[week] {
		return nil, domain.ErrDuplicateWeek
	}

	at := in.PaymentDate
	if at.IsZero() {
		at = u.now()
	}
	p := &domain.Payment{
		LoanID:            l.ID,
		ClientID:          l.ClientID,
		Amount:            in.Amount.Round(2),
		WeekNumber:        week,
		Method:            method,
		CollectedBy:       in.CollectedBy,
		RecordedBy:        actor.ID,
		CollectionSheetID: in.SheetID,
		Notes:             in.Notes,
		PaymentDate:       at.UTC(),
	}
	p.Apply(calculator.Allocate(p.Amount, l.Components()))
	if err := r.Payments.Create(ctx, p); err != nil {
		return nil, err
	}
	totals.Add(*p)

	res := &RecordResult{
		Payment:   *p,
		LoanID:    l.LoanID,
		TotalPaid: totals.Amount,
		Remaining: decimal.Max(decimal.Zero, l.TotalAmount.Sub(totals.Amount)),
	}
	if totals.Amount.GreaterThanOrEqual(l.TotalAmount) {
		if err := l.Transition(loan.StateCompleted, actor.ID, at); err != nil {
			return nil, err
		}
		if err := r.Loans.Save(ctx, l); err != nil {
			return nil, err
		}
		res.LoanCompleted = true
	}
	return res, nil
}

// Posted runs the after-commit side effects of a recorded payment.
func (u *Usecase) Posted(ctx context.Context, actor user.Actor, res *RecordResult) {
	amount, _ := res.Payment.Amount.Float64()
	metrics.RecordPayment(string(res.Payment.Method), amount)
	if res.LoanCompleted {
		metrics.RecordLoanTransition(string(loan.StateCompleted))
	}
	u.audit.Record(ctx, actor, "payment", res.LoanID, "record", map[string]any{
		"week": res.Payment.WeekNumber, "amount": res.Payment.Amount.StringFixed(2), "completed": res.LoanCompleted,
	})
	if u.blotter != nil {
		if err := u.blotter.RecalculateFrom(ctx, res.Payment.PaymentDate); err != nil {
			u.log.WithError(err).WithField("loan_id", res.LoanID).Warn("payment: blotter refresh failed")
		}
	}
}

func nextWeek(taken map[int]bool, term int) int {
	for w := 1; w <= term; w++ {
		if !taken[w] {
			return w
		}
	}
	return 0
}

func (u *Usecase) loan(ctx context.Context, loanID string) (*loan.Loan, error) {
	l, err := u.loans.GetByLoanID(ctx, loanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, loan.ErrNotFound
		}
		return nil, err
	}
	return l, nil
}

func (u *Usecase) ListByLoan(ctx context.Context, loanID string) ([]domain.Payment, error) {
	l, err := u.loan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	return u.payments.ListByLoan(ctx, l.ID)
}

// ListByRange lists payments dated in [from, to] by calendar day.
func (u *Usecase) ListByRange(ctx context.Context, from, to time.Time) (*RangeResult, error) {
	from, to = dayOf(from), dayOf(to)
	if from.After(to) {
		return nil, errRange
	}
	items, err := u.payments.ListBetween(ctx, from, to.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	out := &RangeResult{From: from, To: to, Total: decimal.Zero, Count: len(items), Payments: items}
	for _, p := range items {
		out.Total = out.Total.Add(p.Amount)
	}
	return out, nil
}

func (u *Usecase) Summary(ctx context.Context, loanID string) (*Summary, error) {
	l, err := u.loan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	items, err := u.payments.ListByLoan(ctx, l.ID)
	if err != nil {
		return nil, err
	}
	var totals domain.Totals
	taken := map[int]bool{}
	s := &Summary{LoanID: l.LoanID, TotalAmount: l.TotalAmount, Payments: items}
	for _, p := range items {
		totals.Add(p)
		taken[p.WeekNumber] = true
		s.Breakdown.Principal = s.Breakdown.Principal.Add(p.PrincipalAmount)
		s.Breakdown.Interest = s.Breakdown.Interest.Add(p.InterestAmount)
		s.Breakdown.Insurance = s.Breakdown.Insurance.Add(p.InsuranceAmount)
		s.Breakdown.Savings = s.Breakdown.Savings.Add(p.SavingsAmount)
	}
	s.TotalPaid = totals.Amount
	s.PaymentsMade = totals.Count
	s.Remaining = decimal.Max(decimal.Zero, l.TotalAmount.Sub(totals.Amount))
	if l.State == loan.StateActive {
		s.NextWeek = nextWeek(taken, l.TermWeeks)
	}
	if totals.Count > 0 {
		last := totals.LastDate
		s.LastPaymentAt = &last
	}
	return s, nil
}

var errRange = fmt.Errorf("%w: start date must not be after end date", apperr.ErrValidation)

func dayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
