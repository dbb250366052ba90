package collection

import (
	"time"

	domain "fanders-backend/internal/domain/collection"
	"fanders-backend/internal/domain/payment"

	"github.com/shopspring/decimal"
)

type CreateInput struct {
	// OfficerID zero means the caller.
	OfficerID      uint64    `json:"officer_id"`
	CollectionDate time.Time `json:"collection_date" validate:"required"`
	Notes          string    `json:"notes" validate:"max=1000"`
}

type AddLoansInput struct {
	LoanIDs []string `json:"loan_ids" validate:"required,min=1,dive,len=32,hexadecimal"`
}

type CollectInput struct {
	Amount decimal.Decimal `json:"amount" validate:"dgt=0"`
	Method payment.Method  `json:"payment_method" validate:"omitempty,oneof=cash check bank_transfer mobile"`
	Notes  string          `json:"notes" validate:"max=1000"`
}

type ListInput struct {
	OfficerID uint64
	Status    string
	From, To  time.Time
	Limit     int
	Offset    int
}

type ItemDTO struct {
	domain.Item
	LoanID     string `json:"loan_id"`
	ClientID   string `json:"client_id"`
	ClientName string `json:"client_name"`
}

type SheetDTO struct {
	domain.Sheet
	CollectionRate decimal.Decimal `json:"collection_rate"`
	Items          []ItemDTO       `json:"items"`
}

type AddResult struct {
	Added   int      `json:"added"`
	Skipped []string `json:"skipped"`
}

type Page struct {
	Items []domain.Sheet `json:"items"`
	Total int64          `json:"total"`
}
