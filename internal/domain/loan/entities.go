package loan

import (
	"fmt"
	"time"

	"fanders-backend/internal/domain/apperr"
	"fanders-backend/internal/domain/loan/calculator"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrNotFound          = fmt.Errorf("%w: loan not found", apperr.ErrNotFound)
	ErrInvalidTransition = fmt.Errorf("%w: invalid loan state transition", apperr.ErrConflict)
	ErrAlreadyDecided    = fmt.Errorf("%w: loan already has an approval decision", apperr.ErrConflict)
	ErrClientHasOpenLoan = fmt.Errorf("%w: client already has an open loan", apperr.ErrConflict)
	ErrClientDefaulted   = fmt.Errorf("%w: client has a defaulted loan", apperr.ErrConflict)
	ErrClientInactive    = fmt.Errorf("%w: client is not active", apperr.ErrConflict)
	ErrNotActive         = fmt.Errorf("%w: loan is not active", apperr.ErrConflict)
)

type State string

const (
	StateApplication State = "application"
	StateApproved    State = "approved"
	StateActive      State = "active"
	StateCompleted   State = "completed"
	StateRejected    State = "rejected"
	StateDefaulted   State = "defaulted"
)

// OpenStates block a client from applying for another loan.
var OpenStates = []State{StateApplication, StateApproved, StateActive}

var transitions = map[State][]State{
	StateApplication: {StateApproved, StateRejected},
	StateApproved:    {StateActive},
	StateActive:      {StateCompleted, StateDefaulted},
}

func (s State) Valid() bool {
	switch s {
	case StateApplication, StateApproved, StateActive, StateCompleted, StateRejected, StateDefaulted:
		return true
	}
	return false
}

func (s State) In(states ...State) bool {
	for _, x := range states {
		if s == x {
			return true
		}
	}
	return false
}

// Table: loans
type Loan struct {
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	// Public identifier (32-char lowercase hex)
	LoanID           string          `gorm:"column:loan_id;size:32;not null;uniqueIndex:ux_loans_loan_id" json:"loan_id"`
	ClientID         uint64          `gorm:"column:client_id;not null;index:idx_loans_client_state" json:"-"`
	Principal        decimal.Decimal `gorm:"column:principal;type:decimal(15,2);not null" json:"principal"`
	InterestRate     decimal.Decimal `gorm:"column:interest_rate;type:decimal(6,4);not null" json:"interest_rate"`
	TermWeeks        int             `gorm:"column:term_weeks;not null" json:"term_weeks"`
	TermMonths       int             `gorm:"column:term_months;not null" json:"term_months"`
	TotalInterest    decimal.Decimal `gorm:"column:total_interest;type:decimal(15,2);not null" json:"total_interest"`
	InsuranceFee     decimal.Decimal `gorm:"column:insurance_fee;type:decimal(15,2);not null" json:"insurance_fee"`
	SavingsDeduction decimal.Decimal `gorm:"column:savings_deduction;type:decimal(15,2);not null" json:"savings_deduction"`
	TotalAmount      decimal.Decimal `gorm:"column:total_loan_amount;type:decimal(15,2);not null" json:"total_loan_amount"`
	WeeklyPayment    decimal.Decimal `gorm:"column:weekly_payment;type:decimal(15,2);not null" json:"weekly_payment"`
	State            State           `gorm:"column:status;size:20;not null;default:application;index:idx_loans_client_state" json:"status"`
	ApplicationDate  time.Time       `gorm:"column:application_date;not null" json:"application_date"`
	ApprovalDate     *time.Time      `gorm:"column:approval_date" json:"approval_date,omitempty"`
	DisbursementDate *time.Time      `gorm:"column:disbursement_date;index" json:"disbursement_date,omitempty"`
	CompletionDate   *time.Time      `gorm:"column:completion_date" json:"completion_date,omitempty"`
	ApprovedBy       *uint64         `gorm:"column:approved_by" json:"approved_by,omitempty"`
	DisbursedBy      *uint64         `gorm:"column:disbursed_by" json:"disbursed_by,omitempty"`
	StateUpdatedAt   time.Time       `gorm:"column:state_updated_at" json:"state_updated_at"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
	DeletedAt        gorm.DeletedAt  `gorm:"column:deleted_at;index" json:"-"`
}

func (Loan) TableName() string { return "loans" }

// New books a loan application from a calculator result.
func New(loanID string, clientID uint64, r *calculator.Result, at time.Time) *Loan {
	return &Loan{
		LoanID:           loanID,
		ClientID:         clientID,
		Principal:        r.Principal,
		InterestRate:     r.InterestRate,
		TermWeeks:        r.TermWeeks,
		TermMonths:       r.TermMonths,
		TotalInterest:    r.TotalInterest,
		InsuranceFee:     r.InsuranceFee,
		SavingsDeduction: r.SavingsDeduction,
		TotalAmount:      r.TotalLoanAmount,
		WeeklyPayment:    r.WeeklyPaymentBase,
		State:            StateApplication,
		ApplicationDate:  at.UTC(),
		StateUpdatedAt:   at.UTC(),
	}
}

func (l *Loan) CanTransition(to State) bool {
	for _, s := range transitions[l.State] {
		if s == to {
			return true
		}
	}
	return false
}

// Transition moves the loan to state to, stamping the matching date field.
func (l *Loan) Transition(to State, by uint64, at time.Time) error {
	if !l.CanTransition(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, l.State, to)
	}
	at = at.UTC()
	switch to {
	case StateApproved:
		l.ApprovalDate = &at
		l.ApprovedBy = &by
	case StateActive:
		l.DisbursementDate = &at
		l.DisbursedBy = &by
	case StateCompleted:
		l.CompletionDate = &at
	}
	l.State = to
	l.StateUpdatedAt = at
	return nil
}

// Schedule rebuilds the amortization the loan was booked with.
func (l *Loan) Schedule() (*calculator.Result, error) {
	return calculator.Rebuild(l.Principal, l.TermWeeks, l.TermMonths)
}

// Components is the booked split of TotalAmount.
func (l *Loan) Components() calculator.Breakdown {
	return calculator.Breakdown{
		Principal: l.Principal,
		Interest:  l.TotalInterest,
		Insurance: l.InsuranceFee,
		Savings:   l.SavingsDeduction,
	}
}

// MaturityDate is the due date of the last installment, zero before disbursement.
func (l *Loan) MaturityDate() time.Time {
	if l.DisbursementDate == nil {
		return time.Time{}
	}
	return calculator.MaturityDate(*l.DisbursementDate, l.TermWeeks)
}
