package payment

import (
	"fmt"
	"time"

	"fanders-backend/internal/domain/apperr"
	"fanders-backend/internal/domain/loan/calculator"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound       = fmt.Errorf("%w: payment not found", apperr.ErrNotFound)
	ErrDuplicateWeek  = fmt.Errorf("%w: payment already recorded for this week", apperr.ErrConflict)
	ErrWeekOutOfRange = fmt.Errorf("%w: week number outside the loan term", apperr.ErrValidation)
	ErrInvalidAmount  = fmt.Errorf("%w: payment amount must be greater than zero", apperr.ErrValidation)
	ErrInvalidMethod  = fmt.Errorf("%w: unknown payment method", apperr.ErrValidation)
	ErrFullyPaid      = fmt.Errorf("%w: every installment is already paid", apperr.ErrConflict)
)

type Method string

const (
	MethodCash         Method = "cash"
	MethodCheck        Method = "check"
	MethodBankTransfer Method = "bank_transfer"
	MethodMobile       Method = "mobile"
)

func (m Method) Valid() bool {
	switch m {
	case MethodCash, MethodCheck, MethodBankTransfer, MethodMobile:
		return true
	}
	return false
}

// Table: payments. One payment per loan week.
type Payment struct {
	ID                uint64          `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	LoanID            uint64          `gorm:"column:loan_id;not null;uniqueIndex:ux_payments_loan_week" json:"-"`
	ClientID          uint64          `gorm:"column:client_id;not null;index" json:"-"`
	Amount            decimal.Decimal `gorm:"column:amount;type:decimal(15,2);not null" json:"amount"`
	WeekNumber        int             `gorm:"column:week_number;not null;uniqueIndex:ux_payments_loan_week" json:"week_number"`
	PrincipalAmount   decimal.Decimal `gorm:"column:principal_amount;type:decimal(15,2)" json:"principal_amount"`
	InterestAmount    decimal.Decimal `gorm:"column:interest_amount;type:decimal(15,2)" json:"interest_amount"`
	InsuranceAmount   decimal.Decimal `gorm:"column:insurance_amount;type:decimal(15,2)" json:"insurance_amount"`
	SavingsAmount     decimal.Decimal `gorm:"column:savings_amount;type:decimal(15,2)" json:"savings_amount"`
	Method            Method          `gorm:"column:payment_method;size:20;not null;default:cash" json:"payment_method"`
	CollectedBy       *uint64         `gorm:"column:collected_by" json:"collected_by,omitempty"`
	RecordedBy        uint64          `gorm:"column:recorded_by;not null" json:"recorded_by"`
	CollectionSheetID *uint64         `gorm:"column:collection_sheet_id;index" json:"collection_sheet_id,omitempty"`
	Notes             string          `gorm:"column:notes;type:text" json:"notes,omitempty"`
	PaymentDate       time.Time       `gorm:"column:payment_date;not null;index" json:"payment_date"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Payment) TableName() string { return "payments" }

// Apply stores the component split of the payment amount.
func (p *Payment) Apply(b calculator.Breakdown) {
	p.PrincipalAmount = b.Principal
	p.InterestAmount = b.Interest
	p.InsuranceAmount = b.Insurance
	p.SavingsAmount = b.Savings
}

// Totals aggregates the payments of one loan.
type Totals struct {
	Amount   decimal.Decimal `json:"total_paid"`
	Count    int64           `json:"payments_made"`
	LastWeek int             `json:"last_week"`
	LastDate time.Time       `json:"last_payment_date"`
}

// Add folds p into t.
func (t *Totals) Add(p Payment) {
	t.Amount = t.Amount.Add(p.Amount)
	t.Count++
	if p.WeekNumber > t.LastWeek {
		t.LastWeek = p.WeekNumber
	}
	if p.PaymentDate.After(t.LastDate) {
		t.LastDate = p.PaymentDate
	}
}
