package report

import (
	"time"

	"github.com/shopspring/decimal"

	"fanders-backend/internal/domain/approval"
	blotteruc "fanders-backend/internal/usecase/blotter"
	clientuc "fanders-backend/internal/usecase/client"
	loanuc "fanders-backend/internal/usecase/loan"
)

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

func (s Severity) rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	default:
		return 1
	}
}

func (s Severity) Valid() bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow:
		return true
	}
	return false
}

func (s Severity) Label() string {
	switch s {
	case SeverityCritical:
		return "Critical - Immediate Action Required"
	case SeverityHigh:
		return "High Priority - Contact Client"
	case SeverityMedium:
		return "Moderate - Follow Up Soon"
	default:
		return "Recently Overdue - Monitor"
	}
}

type OverdueFilter struct {
	// ClientID is the public client id.
	ClientID       string
	MinBalance     decimal.Decimal
	MinDaysOverdue int
	Severity       Severity
}

type OverdueLoan struct {
	LoanID               string          `json:"loan_id"`
	ClientID             string          `json:"client_id"`
	ClientName           string          `json:"client_name"`
	Phone                string          `json:"phone_number"`
	Email                string          `json:"email,omitempty"`
	Principal            decimal.Decimal `json:"principal"`
	TotalAmount          decimal.Decimal `json:"total_loan_amount"`
	TotalPaid            decimal.Decimal `json:"total_paid"`
	Remaining            decimal.Decimal `json:"remaining_balance"`
	ExpectedWeekly       decimal.Decimal `json:"expected_weekly_payment"`
	PaymentsMade         int             `json:"payments_made"`
	ExpectedPayments     int             `json:"expected_payments_made"`
	ExpectedAmount       decimal.Decimal `json:"expected_amount_paid"`
	Shortfall            decimal.Decimal `json:"payment_shortfall"`
	PaymentsShortfall    int             `json:"payments_shortfall"`
	WeeksSince           int             `json:"weeks_since_disbursement"`
	DaysOverdue          int             `json:"days_overdue"`
	LatePenalty          decimal.Decimal `json:"late_penalty"`
	Severity             Severity        `json:"severity"`
	SeverityLabel        string          `json:"severity_label"`
	PercentagePaid       decimal.Decimal `json:"percentage_paid"`
	DisbursementDate     time.Time       `json:"disbursement_date"`
	LastPaymentDate      *time.Time      `json:"last_payment_date,omitempty"`
	DaysSinceLastPayment *int            `json:"days_since_last_payment,omitempty"`
	NextPaymentDate      time.Time       `json:"next_expected_payment_date"`
}

type OverdueStats struct {
	TotalOverdue          int              `json:"total_overdue"`
	TotalOverdueAmount    decimal.Decimal  `json:"total_overdue_amount"`
	TotalRemainingBalance decimal.Decimal  `json:"total_remaining_balance"`
	AverageDaysOverdue    decimal.Decimal  `json:"average_days_overdue"`
	SeverityStats         map[Severity]int `json:"severity_stats"`
	CollectionRate        decimal.Decimal  `json:"collection_rate"`
	TotalExpected         decimal.Decimal  `json:"total_expected_payments"`
	TotalActual           decimal.Decimal  `json:"total_actual_payments"`
}

type OverdueReport struct {
	AsOf  time.Time     `json:"as_of"`
	Loans []OverdueLoan `json:"loans"`
	Stats OverdueStats  `json:"stats"`
}

type Dashboard struct {
	Loans   *loanuc.Stats      `json:"loans"`
	Clients *clientuc.Stats    `json:"clients"`
	Cash    *blotteruc.Balance `json:"cash"`
	Overdue OverdueStats       `json:"overdue"`
	// Decisions counts approvals and rejections of the last 30 days.
	Decisions map[approval.Decision]int64 `json:"decisions_30d,omitempty"`
}

// Table is a rendered report ready for CSV or Excel output.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
}

type Kind string

const (
	KindLoans    Kind = "loans"
	KindPayments Kind = "payments"
	KindOverdue  Kind = "overdue"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

type ExportInput struct {
	Kind      Kind
	Format    Format
	LoanState string
	From, To  time.Time
}
