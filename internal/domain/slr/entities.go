package slr

import (
	"fmt"
	"time"

	"fanders-backend/internal/domain/apperr"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = fmt.Errorf("%w: SLR document not found", apperr.ErrNotFound)
	ErrRuleNotFound      = fmt.Errorf("%w: SLR generation rule not found", apperr.ErrNotFound)
	ErrLoanNotEligible   = fmt.Errorf("%w: loan is not eligible for an SLR", apperr.ErrConflict)
	ErrAlreadyExists     = fmt.Errorf("%w: loan already has an active SLR", apperr.ErrConflict)
	ErrRuleInactive      = fmt.Errorf("%w: SLR generation rule is inactive", apperr.ErrConflict)
	ErrOutsideRuleBounds = fmt.Errorf("%w: principal outside the rule's bounds", apperr.ErrConflict)
	ErrNotActive         = fmt.Errorf("%w: SLR document is not active", apperr.ErrConflict)
	ErrIntegrity         = fmt.Errorf("%w: SLR file failed the integrity check", apperr.ErrConflict)
)

type Trigger string

const (
	TriggerManual           Trigger = "manual"
	TriggerLoanApproval     Trigger = "loan_approval"
	TriggerLoanDisbursement Trigger = "loan_disbursement"
)

func (t Trigger) Valid() bool {
	return t == TriggerManual || t == TriggerLoanApproval || t == TriggerLoanDisbursement
}

type Status string

const (
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
	StatusReplaced Status = "replaced"
	StatusVoid     Status = "void"
)

type Action string

const (
	ActionGeneration Action = "generation"
	ActionView       Action = "view"
	ActionDownload   Action = "download"
	ActionArchive    Action = "archive"
	ActionRestore    Action = "restore"
	ActionVoid       Action = "void"
)

// Table: slr_documents
type Document struct {
	ID                uint64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	LoanID            uint64     `gorm:"column:loan_id;not null;index" json:"-"`
	DocumentNumber    string     `gorm:"column:document_number;size:40;not null;uniqueIndex:ux_slr_document_number" json:"document_number"`
	GeneratedBy       uint64     `gorm:"column:generated_by;not null" json:"generated_by"`
	Trigger           Trigger    `gorm:"column:generation_trigger;size:30;not null" json:"generation_trigger"`
	FileName          string     `gorm:"column:file_name;size:255;not null" json:"file_name"`
	FilePath          string     `gorm:"column:file_path;size:500;not null" json:"-"`
	FileSize          int64      `gorm:"column:file_size" json:"file_size"`
	ContentHash       string     `gorm:"column:content_hash;size:64" json:"content_hash"`
	Status            Status     `gorm:"column:status;size:20;not null;default:active;index" json:"status"`
	SignatureRequired bool       `gorm:"column:client_signature_required" json:"client_signature_required"`
	DownloadCount     int        `gorm:"column:download_count;not null;default:0" json:"download_count"`
	LastDownloadedAt  *time.Time `gorm:"column:last_downloaded_at" json:"last_downloaded_at,omitempty"`
	LastDownloadedBy  *uint64    `gorm:"column:last_downloaded_by" json:"last_downloaded_by,omitempty"`
	ArchivedAt        *time.Time `gorm:"column:archived_at" json:"archived_at,omitempty"`
	ArchiveReason     string     `gorm:"column:archive_reason;type:text" json:"archive_reason,omitempty"`
	CreatedAt         time.Time  `gorm:"column:generated_at;autoCreateTime" json:"generated_at"`
	UpdatedAt         time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Document) TableName() string { return "slr_documents" }

// Table: slr_generation_rules. One rule per trigger.
type Rule struct {
	ID               uint64              `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Trigger          Trigger             `gorm:"column:trigger_event;size:30;not null;uniqueIndex:ux_slr_rules_trigger" json:"trigger_event"`
	Name             string              `gorm:"column:rule_name;size:100;not null" json:"rule_name"`
	Description      string              `gorm:"column:description;type:text" json:"description"`
	Active           bool                `gorm:"column:is_active" json:"is_active"`
	AutoGenerate     bool                `gorm:"column:auto_generate" json:"auto_generate"`
	MinPrincipal     decimal.Decimal     `gorm:"column:min_principal;type:decimal(15,2)" json:"min_principal"`
	MaxPrincipal     decimal.NullDecimal `gorm:"column:max_principal;type:decimal(15,2)" json:"max_principal"`
	RequireSignature bool                `gorm:"column:require_signatures" json:"require_signatures"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Rule) TableName() string { return "slr_generation_rules" }

// Allows reports whether principal lies within the rule's bounds.
func (r *Rule) Allows(principal decimal.Decimal) bool {
	if principal.LessThan(r.MinPrincipal) {
		return false
	}
	if r.MaxPrincipal.Valid && principal.GreaterThan(r.MaxPrincipal.Decimal) {
		return false
	}
	return true
}

// DefaultRules seeds one rule per trigger. Only disbursement auto-generates.
func DefaultRules() []Rule {
	return []Rule{
		{Trigger: TriggerManual, Name: "Manual generation", Description: "SLR generated on request by staff", Active: true},
		{Trigger: TriggerLoanApproval, Name: "On approval", Description: "SLR generated when a loan is approved", Active: false},
		{Trigger: TriggerLoanDisbursement, Name: "On disbursement", Description: "SLR generated automatically when a loan is disbursed",
			Active: true, AutoGenerate: true, RequireSignature: true},
	}
}

// Table: slr_access_log
type AccessLog struct {
	ID           uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	DocumentID   uint64    `gorm:"column:slr_document_id;not null;index" json:"slr_document_id"`
	Action       Action    `gorm:"column:access_type;size:20;not null" json:"access_type"`
	UserID       uint64    `gorm:"column:accessed_by;not null" json:"accessed_by"`
	Reason       string    `gorm:"column:access_reason;type:text" json:"access_reason,omitempty"`
	IPAddress    string    `gorm:"column:ip_address;size:45" json:"ip_address,omitempty"`
	UserAgent    string    `gorm:"column:user_agent;type:text" json:"user_agent,omitempty"`
	Success      bool      `gorm:"column:success" json:"success"`
	ErrorMessage string    `gorm:"column:error_message;type:text" json:"error_message,omitempty"`
	AccessedAt   time.Time `gorm:"column:accessed_at;not null;index" json:"accessed_at"`
}

func (AccessLog) TableName() string { return "slr_access_log" }

// DocumentNumber formats SLR-YYYYMM-NNNNNN, the month of generation and the zero-padded
// loan id. Revisions after an archive append -R<n>.
func DocumentNumber(loanID uint64, at time.Time, revision int) string {
	n := fmt.Sprintf("SLR-%s-%06d", at.UTC().Format("200601"), loanID)
	if revision > 0 {
		n += fmt.Sprintf("-R%d", revision)
	}
	return n
}
