package collection

import (
	"fmt"
	"time"

	"fanders-backend/internal/domain/apperr"
	"fanders-backend/internal/domain/payment"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = fmt.Errorf("%w: collection sheet not found", apperr.ErrNotFound)
	ErrItemNotFound      = fmt.Errorf("%w: collection sheet item not found", apperr.ErrNotFound)
	ErrNotDraft          = fmt.Errorf("%w: collection sheet is not a draft", apperr.ErrConflict)
	ErrNotSubmitted      = fmt.Errorf("%w: collection sheet is not submitted", apperr.ErrConflict)
	ErrEmpty             = fmt.Errorf("%w: collection sheet has no items", apperr.ErrConflict)
	ErrItemNotPending    = fmt.Errorf("%w: item already collected", apperr.ErrConflict)
	ErrDuplicateSheet    = fmt.Errorf("%w: officer already has a sheet for this date", apperr.ErrConflict)
	ErrFutureDate        = fmt.Errorf("%w: collection date cannot be in the future", apperr.ErrValidation)
	ErrOfficerNotAllowed = fmt.Errorf("%w: collection sheets belong to active account officers", apperr.ErrValidation)
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"
	StatusApproved  Status = "approved"
)

type ItemStatus string

const (
	ItemPending   ItemStatus = "pending"
	ItemCollected ItemStatus = "collected"
	ItemPosted    ItemStatus = "posted"
)

// Table: collection_sheets. One sheet per officer per day.
type Sheet struct {
	ID             uint64          `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	OfficerID      uint64          `gorm:"column:officer_id;not null;uniqueIndex:ux_sheets_officer_date" json:"officer_id"`
	CollectionDate time.Time       `gorm:"column:collection_date;not null;uniqueIndex:ux_sheets_officer_date" json:"collection_date"`
	Status         Status          `gorm:"column:status;size:20;not null;default:draft;index" json:"status"`
	TotalExpected  decimal.Decimal `gorm:"column:total_expected;type:decimal(15,2)" json:"total_expected"`
	TotalCollected decimal.Decimal `gorm:"column:total_collected;type:decimal(15,2)" json:"total_collected"`
	ItemCount      int             `gorm:"column:item_count" json:"item_count"`
	Notes          string          `gorm:"column:notes;type:text" json:"notes,omitempty"`
	SubmittedAt    *time.Time      `gorm:"column:submitted_at" json:"submitted_at,omitempty"`
	ApprovedAt     *time.Time      `gorm:"column:approved_at" json:"approved_at,omitempty"`
	ApprovedBy     *uint64         `gorm:"column:approved_by" json:"approved_by,omitempty"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Sheet) TableName() string { return "collection_sheets" }

// Table: collection_sheet_items
type Item struct {
	ID              uint64          `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	SheetID         uint64          `gorm:"column:sheet_id;not null;uniqueIndex:ux_items_sheet_loan" json:"sheet_id"`
	LoanID          uint64          `gorm:"column:loan_id;not null;uniqueIndex:ux_items_sheet_loan" json:"-"`
	ClientID        uint64          `gorm:"column:client_id;not null" json:"-"`
	ExpectedPayment decimal.Decimal `gorm:"column:expected_payment;type:decimal(15,2)" json:"expected_payment"`
	CollectedAmount decimal.Decimal `gorm:"column:collected_amount;type:decimal(15,2)" json:"collected_amount"`
	Method          payment.Method  `gorm:"column:payment_method;size:20" json:"payment_method,omitempty"`
	Status          ItemStatus      `gorm:"column:status;size:20;not null;default:pending" json:"status"`
	PaymentID       *uint64         `gorm:"column:payment_id" json:"payment_id,omitempty"`
	Notes           string          `gorm:"column:notes;type:text" json:"notes,omitempty"`
	CollectedAt     *time.Time      `gorm:"column:collected_at" json:"collected_at,omitempty"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Item) TableName() string { return "collection_sheet_items" }

// Recount refreshes the sheet totals from its items.
func (s *Sheet) Recount(items []Item) {
	s.ItemCount = len(items)
	s.TotalExpected = decimal.Zero
	s.TotalCollected = decimal.Zero
	for _, it := range items {
		s.TotalExpected = s.TotalExpected.Add(it.ExpectedPayment)
		if it.Status != ItemPending {
			s.TotalCollected = s.TotalCollected.Add(it.CollectedAmount)
		}
	}
}

// CollectionRate is collected/expected as a percentage rounded to two places.
func (s *Sheet) CollectionRate() decimal.Decimal {
	if !s.TotalExpected.IsPositive() {
		return decimal.Zero
	}
	return s.TotalCollected.Div(s.TotalExpected).Mul(decimal.NewFromInt(100)).Round(2)
}
