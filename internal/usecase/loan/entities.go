package loan

import (
	"time"

	domain "fanders-backend/internal/domain/loan"
	"fanders-backend/internal/domain/loan/calculator"
	"fanders-backend/internal/domain/slr"

	"github.com/shopspring/decimal"
)

type CalculateInput struct {
	Principal  decimal.Decimal `json:"principal" validate:"dgt=0"`
	TermWeeks  int             `json:"term_weeks" validate:"gt=0"`
	TermMonths int             `json:"term_months" validate:"gte=0"`
}

type ApplyInput struct {
	ClientID   string          `json:"client_id" validate:"required,len=32,hexadecimal"`
	Principal  decimal.Decimal `json:"principal" validate:"dgt=0"`
	TermWeeks  int             `json:"term_weeks" validate:"gt=0"`
	TermMonths int             `json:"term_months" validate:"gte=0"`
}

type ListInput struct {
	State    string
	ClientID string
	Limit    int
	Offset   int
}

type LoanDTO struct {
	domain.Loan
	ClientID     string     `json:"client_id"`
	ClientName   string     `json:"client_name"`
	TermLabel    string     `json:"term_label"`
	MaturityDate *time.Time `json:"maturity_date,omitempty"`
}

type Page struct {
	Items []LoanDTO `json:"items"`
	Total int64     `json:"total"`
}

type ScheduleRow struct {
	calculator.Installment
	DueDate *time.Time       `json:"due_date,omitempty"`
	Paid    bool             `json:"paid"`
	Amount  *decimal.Decimal `json:"amount_paid,omitempty"`
}

type ScheduleDTO struct {
	LoanID  string             `json:"loan_id"`
	Totals  *calculator.Result `json:"totals"`
	Rows    []ScheduleRow      `json:"schedule"`
	Balance calculator.Balance `json:"balance"`
}

type Stats struct {
	ByState        map[domain.State]int64 `json:"by_status"`
	Total          int64                  `json:"total"`
	TotalDisbursed decimal.Decimal        `json:"total_disbursed"`
}

type DisburseResult struct {
	Loan LoanDTO       `json:"loan"`
	SLR  *slr.Document `json:"slr,omitempty"`
}
