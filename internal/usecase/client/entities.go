package client

import (
	"time"

	domain "fanders-backend/internal/domain/client"
	"fanders-backend/internal/domain/loan"

	"github.com/shopspring/decimal"
)

type CreateInput struct {
	Name                 string     `json:"name" validate:"required,max=150"`
	Email                string     `json:"email" validate:"omitempty,email,max=150"`
	Phone                string     `json:"phone_number" validate:"required"`
	Address              string     `json:"address" validate:"required"`
	IdentificationType   string     `json:"identification_type" validate:"required,max=40"`
	IdentificationNumber string     `json:"identification_number" validate:"required,max=60"`
	DateOfBirth          *time.Time `json:"date_of_birth"`
}

// UpdateInput replaces the editable fields; status changes go through ChangeStatus.
type UpdateInput = CreateInput

type ListInput struct {
	Status string
	Search string
	Limit  int
	Offset int
}

type Page struct {
	Items []domain.Client `json:"items"`
	Total int64           `json:"total"`
}

type Option struct {
	ClientID string `json:"client_id"`
	Name     string `json:"name"`
	Phone    string `json:"phone_number"`
}

type Stats struct {
	Total       int64 `json:"total"`
	Active      int64 `json:"active"`
	Inactive    int64 `json:"inactive"`
	Blacklisted int64 `json:"blacklisted"`
}

type LoanSummary struct {
	Total          int64                `json:"total_loans"`
	ByState        map[loan.State]int64 `json:"by_status"`
	TotalPrincipal decimal.Decimal      `json:"total_principal"`
	HasOpenLoan    bool                 `json:"has_open_loan"`
	Loans          []loan.Loan          `json:"loans"`
}

type Detail struct {
	domain.Client
	Age   int         `json:"age,omitempty"`
	Loans LoanSummary `json:"loan_summary"`
}
