package payment

import (
	"time"

	"fanders-backend/internal/domain/loan/calculator"
	domain "fanders-backend/internal/domain/payment"

	"github.com/shopspring/decimal"
)

type RecordInput struct {
	LoanID string          `json:"-"`
	Amount decimal.Decimal `json:"amount" validate:"dgt=0"`
	// WeekNumber zero means the next unpaid week.
	WeekNumber  int           `json:"week_number" validate:"gte=0"`
	Method      domain.Method `json:"payment_method" validate:"omitempty,oneof=cash check bank_transfer mobile"`
	CollectedBy *uint64       `json:"collected_by"`
	PaymentDate time.Time     `json:"payment_date"`
	Notes       string        `json:"notes" validate:"max=1000"`
	SheetID     *uint64       `json:"-"`
}

type RecordResult struct {
	Payment       domain.Payment  `json:"payment"`
	LoanID        string          `json:"loan_id"`
	TotalPaid     decimal.Decimal `json:"total_paid"`
	Remaining     decimal.Decimal `json:"remaining_balance"`
	LoanCompleted bool            `json:"loan_completed"`
}

type Summary struct {
	LoanID        string               `json:"loan_id"`
	TotalAmount   decimal.Decimal      `json:"total_loan_amount"`
	TotalPaid     decimal.Decimal      `json:"total_paid"`
	Remaining     decimal.Decimal      `json:"remaining_balance"`
	PaymentsMade  int64                `json:"payments_made"`
	NextWeek      int                  `json:"next_week,omitempty"`
	LastPaymentAt *time.Time           `json:"last_payment_date,omitempty"`
	Breakdown     calculator.Breakdown `json:"paid_breakdown"`
	Payments      []domain.Payment     `json:"payments"`
}

type RangeResult struct {
	From     time.Time        `json:"from"`
	To       time.Time        `json:"to"`
	Total    decimal.Decimal  `json:"total"`
	Count    int              `json:"count"`
	Payments []domain.Payment `json:"payments"`
}
