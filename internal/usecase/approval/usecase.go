package approval

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"fanders-backend/internal/domain/apperr"
	domainApproval "fanders-backend/internal/domain/approval"
	domainLoan "fanders-backend/internal/domain/loan"
	"fanders-backend/internal/domain/slr"
	"fanders-backend/internal/domain/uow"
	"fanders-backend/internal/domain/user"
	"fanders-backend/internal/infrastructure/metrics"
	"fanders-backend/internal/usecase/audit"
	"fanders-backend/internal/usecase/loan"
	"fanders-backend/pkg/id"
)

var ErrReasonRequired = fmt.Errorf("%w: a rejection reason is required", apperr.ErrValidation)

type Usecase struct {
	approvalRepo domainApproval.Repository
	loanRepo     domainLoan.Repository
	uow          uow.UnitOfWork
	slr          loan.SLRIssuer
	audit        *audit.Recorder
	log          *logrus.Logger
	now          func() time.Time
}

// NewUsecase: pass the repos and a UoW for tx flows. issuer may be nil.
func NewUsecase(loans domainLoan.Repository, approvals domainApproval.Repository, tx uow.UnitOfWork, issuer loan.SLRIssuer, rec *audit.Recorder, log *logrus.Logger) *Usecase {
	return &Usecase{loanRepo: loans, approvalRepo: approvals, uow: tx, slr: issuer, audit: rec, log: log, now: time.Now}
}

// Approve moves an application to approved and records the decision.
func (u *Usecase) Approve(ctx context.Context, actor user.Actor, in DecideInput) (*DecisionDTO, error) {
	dto, err := u.decide(ctx, actor, in, domainApproval.DecisionApproved)
	if err != nil {
		return nil, err
	}
	if u.slr != nil {
		doc, err := u.slr.AutoGenerate(ctx, actor, in.LoanID, slr.TriggerLoanApproval)
		if err != nil {
			u.log.WithError(err).WithField("loan_id", in.LoanID).Warn("approval: SLR generation failed")
		} else if doc != nil {
			dto.SLRNumber = doc.DocumentNumber
		}
	}
	return dto, nil
}

// Reject closes an application. A reason is mandatory.
func (u *Usecase) Reject(ctx context.Context, actor user.Actor, in DecideInput) (*DecisionDTO, error) {
	in.Remarks = strings.TrimSpace(in.Remarks)
	if in.Remarks == "" {
		return nil, ErrReasonRequired
	}
	return u.decide(ctx, actor, in, domainApproval.DecisionRejected)
}

func (u *Usecase) decide(ctx context.Context, actor user.Actor, in DecideInput, d domainApproval.Decision) (*DecisionDTO, error) {
	if u.uow == nil {
		return nil, domainLoan.ErrInvalidTransition
	}
	if !user.CanViewLoanApprovals(actor.Role) {
		return nil, user.ErrNotAllowed
	}
	target := domainLoan.StateApproved
	if d == domainApproval.DecisionRejected {
		target = domainLoan.StateRejected
	}
	var dto *DecisionDTO

	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		// Lock loan row for update
		l, err := r.Loans.GetByLoanIDForUpdate(ctx, in.LoanID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainLoan.ErrNotFound
			}
			return err
		}

		// State guard: only application -> approved|rejected
		if l.State != domainLoan.StateApplication {
			if l.State == domainLoan.StateApproved || l.State == domainLoan.StateRejected {
				return domainLoan.ErrAlreadyDecided
			}
			return fmt.Errorf("%w: loan is %s", domainLoan.ErrInvalidTransition, l.State)
		}

		if _, err := r.Approvals.GetByLoanID(ctx, l.ID); err == nil {
			return domainLoan.ErrAlreadyDecided
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		now := u.now().UTC()
		a := &domainApproval.Approval{
			ApprovalID:   id.NewID32(),
			LoanID:       l.ID,
			Decision:     d,
			DecidedBy:    actor.ID,
			Remarks:      strings.TrimSpace(in.Remarks),
			ApprovalDate: now,
		}
		if err := r.Approvals.Create(ctx, a); err != nil {
			return err
		}

		if err := l.Transition(target, actor.ID, now); err != nil {
			return err
		}
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}

		dto = &DecisionDTO{
			ApprovalID: a.ApprovalID,
			LoanID:     l.LoanID,
			Decision:   string(d),
			DecidedBy:  a.DecidedBy,
			Remarks:    a.Remarks,
			DecidedAt:  a.ApprovalDate,
			LoanState:  string(l.State),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordLoanTransition(string(target))
	u.audit.Record(ctx, actor, "loan", dto.LoanID, string(d), map[string]any{"remarks": dto.Remarks})
	return dto, nil
}

// Get returns the decision recorded for a loan.
func (u *Usecase) Get(ctx context.Context, loanID string) (*DecisionDTO, error) {
	l, err := u.loanRepo.GetByLoanID(ctx, loanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainLoan.ErrNotFound
		}
		return nil, err
	}
	a, err := u.approvalRepo.GetByLoanID(ctx, l.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainApproval.ErrNotFound
		}
		return nil, err
	}
	return &DecisionDTO{
		ApprovalID: a.ApprovalID,
		LoanID:     l.LoanID,
		Decision:   string(a.Decision),
		DecidedBy:  a.DecidedBy,
		Remarks:    a.Remarks,
		DecidedAt:  a.ApprovalDate,
		LoanState:  string(l.State),
	}, nil
}
