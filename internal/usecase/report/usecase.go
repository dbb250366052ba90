// Package report builds the overdue analysis, the dashboard and the exports.
package report

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"fanders-backend/internal/domain/apperr"
	"fanders-backend/internal/domain/approval"
	"fanders-backend/internal/domain/client"
	"fanders-backend/internal/domain/loan"
	"fanders-backend/internal/domain/loan/calculator"
	"fanders-backend/internal/domain/payment"
	blotteruc "fanders-backend/internal/usecase/blotter"
	clientuc "fanders-backend/internal/usecase/client"
	loanuc "fanders-backend/internal/usecase/loan"
)

const (
	graceDays          = 7
	decisionWindowDays = 30
	day                = 24 * time.Hour
)

var (
	hundred      = decimal.NewFromInt(100)
	overdueShare = decimal.RequireFromString("0.1")
)

type LoanStats interface {
	Stats(ctx context.Context) (*loanuc.Stats, error)
}

type ClientStats interface {
	Stats(ctx context.Context) (*clientuc.Stats, error)
}

type CashBalance interface {
	CurrentBalance(ctx context.Context) (*blotteruc.Balance, error)
}

// DecisionCounter feeds the approvals panel of the dashboard.
type DecisionCounter interface {
	CountSince(ctx context.Context, since time.Time) (map[approval.Decision]int64, error)
}

type Deps struct {
	Loans       loan.Repository
	Clients     client.Repository
	Payments    payment.Repository
	LoanStats   LoanStats
	ClientStats ClientStats
	Cash        CashBalance
	Decisions   DecisionCounter // optional
	Log         *logrus.Logger
}

type Usecase struct {
	d   Deps
	now func() time.Time
}

func NewUsecase(d Deps) *Usecase {
	return &Usecase{d: d, now: time.Now}
}

// paidTotals is the payment history of one loan.
type paidTotals struct {
	amount decimal.Decimal
	count  int
	last   *time.Time
}

func (u *Usecase) activeLoans(ctx context.Context) ([]loan.Loan, map[uint64]*paidTotals, error) {
	loans, _, err := u.d.Loans.List(ctx, loan.ListFilter{State: loan.StateActive})
	if err != nil {
		return nil, nil, err
	}
	ids := make([]uint64, 0, len(loans))
	for _, l := range loans {
		ids = append(ids, l.ID)
	}
	totals := make(map[uint64]*paidTotals, len(loans))
	if len(ids) == 0 {
		return loans, totals, nil
	}
	payments, err := u.d.Payments.ListByLoans(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	for _, p := range payments {
		t, ok := totals[p.LoanID]
		if !ok {
			t = &paidTotals{amount: decimal.Zero}
			totals[p.LoanID] = t
		}
		t.amount = t.amount.Add(p.Amount)
		t.count++
		if t.last == nil || p.PaymentDate.After(*t.last) {
			at := p.PaymentDate
			t.last = &at
		}
	}
	return loans, totals, nil
}

// clientCache memoizes client lookups for one report.
type clientCache struct {
	repo client.Repository
	m    map[uint64]*client.Client
}

func (c *clientCache) get(ctx context.Context, id uint64) *client.Client {
	if cl, ok := c.m[id]; ok {
		return cl
	}
	cl, err := c.repo.GetByID(ctx, id)
	if err != nil {
		cl = &client.Client{}
	}
	c.m[id] = cl
	return cl
}

func (u *Usecase) clients() *clientCache {
	return &clientCache{repo: u.d.Clients, m: map[uint64]*client.Client{}}
}

// Overdue analyses every active, disbursed loan with a balance left and returns the overdue ones,
// most severe first.
func (u *Usecase) Overdue(ctx context.Context, asOf time.Time, f OverdueFilter) (*OverdueReport, error) {
	if f.Severity != "" && !f.Severity.Valid() {
		return nil, fmt.Errorf("%w: unknown severity %q", apperr.ErrValidation, f.Severity)
	}
	if asOf.IsZero() {
		asOf = u.now()
	}
	asOf = asOf.UTC()

	loans, totals, err := u.activeLoans(ctx)
	if err != nil {
		return nil, err
	}
	cc := u.clients()
	out := &OverdueReport{AsOf: asOf, Loans: []OverdueLoan{}}
	for i := range loans {
		l := &loans[i]
		if l.DisbursementDate == nil {
			continue
		}
		paid := totals[l.ID]
		if paid == nil {
			paid = &paidTotals{amount: decimal.Zero}
		}
		remaining := l.TotalAmount.Sub(paid.amount)
		if !remaining.IsPositive() {
			continue
		}
		if f.MinBalance.IsPositive() && remaining.LessThan(f.MinBalance) {
			continue
		}
		c := cc.get(ctx, l.ClientID)
		if f.ClientID != "" && c.ClientID != f.ClientID {
			continue
		}
		o, overdue := analyse(l, paid, asOf)
		if !overdue {
			continue
		}
		if f.MinDaysOverdue > 0 && o.DaysOverdue < f.MinDaysOverdue {
			continue
		}
		if f.Severity != "" && o.Severity != f.Severity {
			continue
		}
		o.ClientID = c.ClientID
		o.ClientName = c.Name
		o.Phone = c.Phone
		if c.Email != nil {
			o.Email = *c.Email
		}
		out.Loans = append(out.Loans, o)
	}

	sort.SliceStable(out.Loans, func(i, j int) bool {
		a, b := out.Loans[i], out.Loans[j]
		if a.Severity.rank() != b.Severity.rank() {
			return a.Severity.rank() > b.Severity.rank()
		}
		return a.DaysOverdue > b.DaysOverdue
	})
	out.Stats = statistics(out.Loans)
	return out, nil
}

func daysBetween(from, to time.Time) int {
	if to.Before(from) {
		return 0
	}
	return int(to.Sub(from) / day)
}

func analyse(l *loan.Loan, paid *paidTotals, asOf time.Time) (OverdueLoan, bool) {
	disbursed := l.DisbursementDate.UTC()
	weekly := l.TotalAmount.Div(decimal.NewFromInt(int64(l.TermWeeks)))
	days := daysBetween(disbursed, asOf)
	weeks := days / 7
	expected := min(weeks, l.TermWeeks)
	expectedAmount := weekly.Mul(decimal.NewFromInt(int64(expected)))
	shortfall := decimal.Max(decimal.Zero, expectedAmount.Sub(paid.amount))
	behind := max(0, expected-paid.count)

	overdue := shortfall.GreaterThan(weekly.Mul(overdueShare)) && weeks > 0 && days > graceDays
	daysOverdue := 0
	if overdue {
		daysOverdue = daysBetween(disbursed.AddDate(0, 0, expected*7), asOf)
	}

	o := OverdueLoan{
		LoanID:            l.LoanID,
		Principal:         l.Principal,
		TotalAmount:       l.TotalAmount,
		TotalPaid:         paid.amount,
		Remaining:         l.TotalAmount.Sub(paid.amount),
		ExpectedWeekly:    weekly.Round(2),
		PaymentsMade:      paid.count,
		ExpectedPayments:  expected,
		ExpectedAmount:    expectedAmount.Round(2),
		Shortfall:         shortfall.Round(2),
		PaymentsShortfall: behind,
		WeeksSince:        weeks,
		DaysOverdue:       daysOverdue,
		LatePenalty:       calculator.LatePenalty(weekly.Round(2), daysOverdue),
		DisbursementDate:  disbursed,
		LastPaymentDate:   paid.last,
		NextPaymentDate:   disbursed.AddDate(0, 0, paid.count*7),
		PercentagePaid:    decimal.Zero,
	}
	if l.TotalAmount.IsPositive() {
		o.PercentagePaid = paid.amount.Div(l.TotalAmount).Mul(hundred).Round(1)
	}
	if paid.last != nil {
		d := daysBetween(*paid.last, asOf)
		o.DaysSinceLastPayment = &d
	}
	o.Severity = severity(daysOverdue, behind, shortfall, l.TotalAmount)
	o.SeverityLabel = o.Severity.Label()
	return o, overdue
}

func severity(daysOverdue, paymentsBehind int, shortfall, total decimal.Decimal) Severity {
	switch {
	case daysOverdue > 60 || shortfall.GreaterThan(total.Mul(decimal.RequireFromString("0.5"))):
		return SeverityCritical
	case daysOverdue > 30 || paymentsBehind > 4 || shortfall.GreaterThan(total.Mul(decimal.RequireFromString("0.25"))):
		return SeverityHigh
	case daysOverdue > 14 || paymentsBehind > 2:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

func statistics(loans []OverdueLoan) OverdueStats {
	s := OverdueStats{
		TotalOverdue:          len(loans),
		TotalOverdueAmount:    decimal.Zero,
		TotalRemainingBalance: decimal.Zero,
		AverageDaysOverdue:    decimal.Zero,
		SeverityStats: map[Severity]int{
			SeverityCritical: 0, SeverityHigh: 0, SeverityMedium: 0, SeverityLow: 0,
		},
		TotalExpected: decimal.Zero,
		TotalActual:   decimal.Zero,
	}
	days := 0
	for _, o := range loans {
		s.TotalOverdueAmount = s.TotalOverdueAmount.Add(o.Shortfall)
		s.TotalRemainingBalance = s.TotalRemainingBalance.Add(o.Remaining)
		s.TotalExpected = s.TotalExpected.Add(o.ExpectedAmount)
		s.TotalActual = s.TotalActual.Add(o.TotalPaid)
		s.SeverityStats[o.Severity]++
		days += o.DaysOverdue
	}
	if len(loans) > 0 {
		s.AverageDaysOverdue = decimal.NewFromInt(int64(days)).Div(decimal.NewFromInt(int64(len(loans)))).Round(1)
	}
	s.CollectionRate = hundred
	if s.TotalExpected.IsPositive() {
		s.CollectionRate = s.TotalActual.Div(s.TotalExpected).Mul(hundred).Round(1)
	}
	return s
}

// Dashboard gathers the headline numbers. A failing overdue analysis is logged and left empty.
func (u *Usecase) Dashboard(ctx context.Context) (*Dashboard, error) {
	loans, err := u.d.LoanStats.Stats(ctx)
	if err != nil {
		return nil, err
	}
	clients, err := u.d.ClientStats.Stats(ctx)
	if err != nil {
		return nil, err
	}
	cash, err := u.d.Cash.CurrentBalance(ctx)
	if err != nil {
		return nil, err
	}
	out := &Dashboard{Loans: loans, Clients: clients, Cash: cash, Overdue: statistics(nil)}
	if u.d.Decisions != nil {
		out.Decisions, err = u.d.Decisions.CountSince(ctx, u.now().AddDate(0, 0, -decisionWindowDays))
		if err != nil {
			return nil, err
		}
	}
	if rep, err := u.Overdue(ctx, time.Time{}, OverdueFilter{}); err != nil {
		u.d.Log.WithError(err).Warn("report: overdue analysis failed")
	} else {
		out.Overdue = rep.Stats
	}
	return out, nil
}

// Export builds the requested report as a table.
func (u *Usecase) Export(ctx context.Context, in ExportInput) (*Table, error) {
	switch in.Format {
	case "":
		in.Format = FormatCSV
	case FormatCSV, FormatXLSX:
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", apperr.ErrValidation, in.Format)
	}
	switch in.Kind {
	case KindLoans:
		return u.loansTable(ctx, loan.State(in.LoanState))
	case KindPayments:
		return u.paymentsTable(ctx, in.From, in.To)
	case KindOverdue:
		rep, err := u.Overdue(ctx, in.To, OverdueFilter{})
		if err != nil {
			return nil, err
		}
		return overdueTable(rep), nil
	default:
		return nil, fmt.Errorf("%w: unknown report %q", apperr.ErrValidation, in.Kind)
	}
}

func money(d decimal.Decimal) string { return d.StringFixed(2) }

func date(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.DateOnly)
}

func (u *Usecase) loansTable(ctx context.Context, state loan.State) (*Table, error) {
	if state != "" && !state.Valid() {
		return nil, fmt.Errorf("%w: unknown loan status %q", apperr.ErrValidation, state)
	}
	loans, _, err := u.d.Loans.List(ctx, loan.ListFilter{State: state})
	if err != nil {
		return nil, err
	}
	t := &Table{
		Name: "Loans",
		Header: []string{
			"Loan ID", "Client", "Phone", "Principal", "Total Amount", "Weekly Payment",
			"Term (weeks)", "Status", "Application Date", "Disbursement Date", "Maturity Date",
		},
		Rows: make([][]string, 0, len(loans)),
	}
	cc := u.clients()
	for i := range loans {
		l := &loans[i]
		c := cc.get(ctx, l.ClientID)
		maturity := l.MaturityDate()
		t.Rows = append(t.Rows, []string{
			l.LoanID, c.Name, c.Phone, money(l.Principal), money(l.TotalAmount), money(l.WeeklyPayment),
			strconv.Itoa(l.TermWeeks), string(l.State), date(&l.ApplicationDate), date(l.DisbursementDate), date(&maturity),
		})
	}
	return t, nil
}

func (u *Usecase) paymentsTable(ctx context.Context, from, to time.Time) (*Table, error) {
	if to.IsZero() {
		to = u.now()
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -30)
	}
	from, to = startOfDay(from), startOfDay(to)
	if from.After(to) {
		return nil, fmt.Errorf("%w: from must not be after to", apperr.ErrValidation)
	}
	payments, err := u.d.Payments.ListBetween(ctx, from, to.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	t := &Table{
		Name: "Payments",
		Header: []string{
			"Payment ID", "Loan ID", "Client", "Week", "Amount", "Principal", "Interest",
			"Insurance", "Savings", "Method", "Payment Date",
		},
		Rows: make([][]string, 0, len(payments)),
	}
	cc := u.clients()
	loanIDs := map[uint64]string{}
	for _, p := range payments {
		pub, ok := loanIDs[p.LoanID]
		if !ok {
			if l, err := u.d.Loans.GetByID(ctx, p.LoanID); err == nil {
				pub = l.LoanID
			}
			loanIDs[p.LoanID] = pub
		}
		at := p.PaymentDate
		t.Rows = append(t.Rows, []string{
			strconv.FormatUint(p.ID, 10), pub, cc.get(ctx, p.ClientID).Name, strconv.Itoa(p.WeekNumber),
			money(p.Amount), money(p.PrincipalAmount), money(p.InterestAmount), money(p.InsuranceAmount),
			money(p.SavingsAmount), string(p.Method), date(&at),
		})
	}
	return t, nil
}

func overdueTable(rep *OverdueReport) *Table {
	t := &Table{
		Name: "Overdue",
		Header: []string{
			"Loan ID", "Client Name", "Phone", "Email", "Principal", "Total Amount",
			"Total Paid", "Remaining Balance", "Expected Weekly", "Payments Made",
			"Expected Payments", "Payment Shortfall", "Days Overdue", "Late Penalty", "Weeks Behind",
			"Severity", "Percentage Paid", "Last Payment", "Disbursement Date",
		},
		Rows: make([][]string, 0, len(rep.Loans)),
	}
	for _, o := range rep.Loans {
		last := date(o.LastPaymentDate)
		if last == "" {
			last = "Never"
		}
		t.Rows = append(t.Rows, []string{
			o.LoanID, o.ClientName, o.Phone, o.Email, money(o.Principal), money(o.TotalAmount),
			money(o.TotalPaid), money(o.Remaining), money(o.ExpectedWeekly), strconv.Itoa(o.PaymentsMade),
			strconv.Itoa(o.ExpectedPayments), money(o.Shortfall), strconv.Itoa(o.DaysOverdue), money(o.LatePenalty), strconv.Itoa(o.PaymentsShortfall),
			o.SeverityLabel, o.PercentagePaid.StringFixed(1) + "%", last, date(&o.DisbursementDate),
		})
	}
	return t
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var errNoRows = errors.New("report: table has no header")
