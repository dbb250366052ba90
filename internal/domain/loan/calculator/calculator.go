// Package calculator computes the flat-rate weekly amortization used for every loan:
// principal plus flat monthly interest, a one-time insurance fee and a savings deduction,
// split into equal weekly installments. It is pure; money is carried as decimal.Decimal
// so schedule columns always sum exactly to their totals.
package calculator

import (
	"fmt"

	"fanders-backend/internal/domain/apperr"

	"github.com/shopspring/decimal"
)

var (
	// InterestRate is charged per month on the original principal, never compounded.
	InterestRate = decimal.RequireFromString("0.05")
	// InsuranceFee is charged once per loan.
	InsuranceFee = decimal.RequireFromString("425.00")
	// SavingsRate of the principal is deducted once into the client's savings.
	SavingsRate = decimal.RequireFromString("0.01")
)

const (
	DefaultTermWeeks  = 17
	DefaultTermMonths = 4
)

type Limits struct {
	MinPrincipal decimal.Decimal
	MaxPrincipal decimal.Decimal
	MinTermWeeks int
	MaxTermWeeks int
}

func DefaultLimits() Limits {
	return Limits{
		MinPrincipal: decimal.NewFromInt(5_000),
		MaxPrincipal: decimal.NewFromInt(50_000),
		MinTermWeeks: 4,
		MaxTermWeeks: 52,
	}
}

type Input struct {
	Principal decimal.Decimal
	TermWeeks int
	// TermMonths counts 30-day interest periods; zero derives it from TermWeeks.
	TermMonths int
}

type Installment struct {
	Week             int             `json:"week"`
	ExpectedPayment  decimal.Decimal `json:"expected_payment"`
	PrincipalPayment decimal.Decimal `json:"principal_payment"`
	InterestPayment  decimal.Decimal `json:"interest_payment"`
	InsurancePayment decimal.Decimal `json:"insurance_payment"`
	SavingsPayment   decimal.Decimal `json:"savings_payment"`
}

type Result struct {
	Principal         decimal.Decimal `json:"principal"`
	InterestRate      decimal.Decimal `json:"interest_rate"`
	TotalInterest     decimal.Decimal `json:"total_interest"`
	InsuranceFee      decimal.Decimal `json:"insurance_fee"`
	SavingsDeduction  decimal.Decimal `json:"savings_deduction"`
	TotalLoanAmount   decimal.Decimal `json:"total_loan_amount"`
	WeeklyPaymentBase decimal.Decimal `json:"weekly_payment_base"`
	TermWeeks         int             `json:"term_weeks"`
	TermMonths        int             `json:"term_months"`
	PaymentSchedule   []Installment   `json:"payment_schedule"`
}

// Components returns the four parts that make up TotalLoanAmount.
func (r *Result) Components() Breakdown {
	return Breakdown{
		Principal: r.Principal,
		Interest:  r.TotalInterest,
		Insurance: r.InsuranceFee,
		Savings:   r.SavingsDeduction,
	}
}

// ValidationError reports the first input field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Field + " " + e.Message }

func (e *ValidationError) Unwrap() error { return apperr.ErrValidation }

type Calculator struct{ limits Limits }

func New(l Limits) *Calculator { return &Calculator{limits: l} }

func (c *Calculator) Limits() Limits { return c.limits }

// Calculate validates the input against the configured limits and builds the full result.
func (c *Calculator) Calculate(in Input) (*Result, error) {
	if err := c.validate(in); err != nil {
		return nil, err
	}
	return compose(in.Principal, in.TermWeeks, in.TermMonths), nil
}

// Calculate runs the default-limits calculator.
func Calculate(in Input) (*Result, error) { return New(DefaultLimits()).Calculate(in) }

// Rebuild recomputes the result of an already-booked loan. Only structural checks apply,
// so loans stay readable after the configured limits change.
func Rebuild(principal decimal.Decimal, termWeeks, termMonths int) (*Result, error) {
	if !principal.IsPositive() {
		return nil, &ValidationError{Field: "principal", Message: "must be greater than zero"}
	}
	if termWeeks <= 0 {
		return nil, &ValidationError{Field: "term_weeks", Message: "must be greater than zero"}
	}
	if termMonths < 0 {
		return nil, &ValidationError{Field: "term_months", Message: "must not be negative"}
	}
	return compose(principal, termWeeks, termMonths), nil
}

// MonthsForWeeks converts a weekly term to the nearest whole number of months (at least one).
func MonthsForWeeks(weeks int) int {
	m := (weeks*12 + 26) / 52
	if m < 1 {
		return 1
	}
	return m
}

func (c *Calculator) validate(in Input) error {
	l := c.limits
	if !in.Principal.IsPositive() {
		return &ValidationError{Field: "principal", Message: "must be greater than zero"}
	}
	if in.Principal.LessThan(l.MinPrincipal) {
		return &ValidationError{Field: "principal", Message: "must be at least " + l.MinPrincipal.StringFixed(2)}
	}
	if l.MaxPrincipal.IsPositive() && in.Principal.GreaterThan(l.MaxPrincipal) {
		return &ValidationError{Field: "principal", Message: "must be at most " + l.MaxPrincipal.StringFixed(2)}
	}
	if in.TermWeeks <= 0 {
		return &ValidationError{Field: "term_weeks", Message: "must be greater than zero"}
	}
	if (l.MinTermWeeks > 0 && in.TermWeeks < l.MinTermWeeks) || (l.MaxTermWeeks > 0 && in.TermWeeks > l.MaxTermWeeks) {
		return &ValidationError{Field: "term_weeks", Message: fmt.Sprintf("must be between %d and %d", l.MinTermWeeks, l.MaxTermWeeks)}
	}
	if in.TermMonths < 0 {
		return &ValidationError{Field: "term_months", Message: "must not be negative"}
	}
	return nil
}

func compose(principal decimal.Decimal, weeks, months int) *Result {
	if months == 0 {
		months = MonthsForWeeks(weeks)
	}
	interest := principal.Mul(InterestRate).Mul(decimal.NewFromInt(int64(months)))
	savings := principal.Mul(SavingsRate)
	total := principal.Add(interest).Add(InsuranceFee).Add(savings)

	expected := split(total, weeks)
	principalCol := split(principal, weeks)
	interestCol := split(interest, weeks)
	insuranceCol := split(InsuranceFee, weeks)
	savingsCol := split(savings, weeks)

	schedule := make([]Installment, weeks)
	for i := range schedule {
		schedule[i] = Installment{
			Week:             i + 1,
			ExpectedPayment:  expected[i],
			PrincipalPayment: principalCol[i],
			InterestPayment:  interestCol[i],
			InsurancePayment: insuranceCol[i],
			SavingsPayment:   savingsCol[i],
		}
	}

	return &Result{
		Principal:         principal,
		InterestRate:      InterestRate,
		TotalInterest:     interest,
		InsuranceFee:      InsuranceFee,
		SavingsDeduction:  savings,
		TotalLoanAmount:   total,
		WeeklyPaymentBase: expected[0],
		TermWeeks:         weeks,
		TermMonths:        months,
		PaymentSchedule:   schedule,
	}
}

// split divides total into n cent-rounded shares; the last share absorbs the drift.
func split(total decimal.Decimal, n int) []decimal.Decimal {
	out := make([]decimal.Decimal, n)
	share := total.Div(decimal.NewFromInt(int64(n))).Round(2)
	for i := 0; i < n-1; i++ {
		out[i] = share
	}
	out[n-1] = total.Sub(share.Mul(decimal.NewFromInt(int64(n - 1))))
	return out
}
