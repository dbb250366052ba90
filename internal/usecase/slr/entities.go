package slr

import (
	"time"

	domain "fanders-backend/internal/domain/slr"

	"github.com/shopspring/decimal"
)

// AccessMeta is the request context stored with every access log row.
type AccessMeta struct {
	IP        string
	UserAgent string
}

type ListInput struct {
	LoanID string
	Status string
	From   time.Time
	To     time.Time
	Limit  int
	Offset int
}

type Page struct {
	Items []domain.Document `json:"items"`
	Total int64             `json:"total"`
}

type AccessPage struct {
	Items []domain.AccessLog `json:"items"`
	Total int64              `json:"total"`
}

type UpdateRuleInput struct {
	Active           *bool            `json:"is_active"`
	AutoGenerate     *bool            `json:"auto_generate"`
	MinPrincipal     *decimal.Decimal `json:"min_principal"`
	MaxPrincipal     *decimal.Decimal `json:"max_principal"`
	ClearMax         bool             `json:"clear_max_principal"`
	RequireSignature *bool            `json:"require_signatures"`
	Description      *string          `json:"description"`
}

type Download struct {
	Document domain.Document
	Content  []byte
}
