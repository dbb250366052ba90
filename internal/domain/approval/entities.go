package approval

import (
	"fmt"
	"time"

	"fanders-backend/internal/domain/apperr"

	"gorm.io/gorm"
)

var (
	ErrNotFound = fmt.Errorf("%w: approval not found", apperr.ErrNotFound)
)

type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

// Table: approvals. One decision per loan.
type Approval struct {
	// Internal numeric PK
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	// Public identifier (32-char lowercase hex)
	ApprovalID string `gorm:"column:approval_id;size:32;not null;uniqueIndex:ux_approvals_approval_id" json:"approval_id"`
	// FK to loans.id (numeric)
	LoanID       uint64         `gorm:"column:loan_id;not null;uniqueIndex:ux_approvals_loan" json:"-"`
	Decision     Decision       `gorm:"column:decision;size:20;not null" json:"decision"`
	DecidedBy    uint64         `gorm:"column:decided_by;not null" json:"decided_by"`
	Remarks      string         `gorm:"column:remarks;type:text" json:"remarks,omitempty"`
	ApprovalDate time.Time      `gorm:"column:approval_date;not null" json:"approval_date"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"-"`
	DeletedAt    gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}

func (Approval) TableName() string { return "approvals" }
