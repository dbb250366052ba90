package approval

import (
	"time"
)

type DecideInput struct {
	LoanID  string `json:"-"`
	Remarks string `json:"remarks" validate:"max=1000"`
}

type DecisionDTO struct {
	ApprovalID string    `json:"approval_id"`
	LoanID     string    `json:"loan_id"`
	Decision   string    `json:"decision"`
	DecidedBy  uint64    `json:"decided_by"`
	Remarks    string    `json:"remarks,omitempty"`
	DecidedAt  time.Time `json:"decided_at"`
	LoanState  string    `json:"loan_status"`
	// SLRNumber is set when approval generated an SLR.
	SLRNumber string `json:"slr_document_number,omitempty"`
}
