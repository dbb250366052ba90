// Package slr issues Statements of Loan Receipt: the signed PDF a client receives
// when a loan is released. Every generation and access is logged.
package slr

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"fanders-backend/internal/domain/apperr"
	"fanders-backend/internal/domain/client"
	"fanders-backend/internal/domain/loan"
	"fanders-backend/internal/domain/loan/calculator"
	domain "fanders-backend/internal/domain/slr"
	"fanders-backend/internal/domain/user"
	"fanders-backend/internal/infrastructure/pdf"
	"fanders-backend/internal/infrastructure/storage"
	"fanders-backend/internal/usecase/audit"
)

var (
	ErrReasonRequired = fmt.Errorf("%w: a reason is required", apperr.ErrValidation)
	ErrNotArchived    = fmt.Errorf("%w: SLR document is not archived", apperr.ErrConflict)
)

// eligible loans have had money released or are about to.
var eligible = []loan.State{loan.StateApproved, loan.StateActive, loan.StateCompleted}

type Store interface {
	Save(name string, data []byte) (storage.Stored, error)
	Read(path, wantHash string) ([]byte, error)
	Archive(path string) (string, error)
	Restore(path string) (string, error)
}

type Renderer func(pdf.SLR) ([]byte, error)

type Usecase struct {
	docs    domain.Repository
	loans   loan.Repository
	clients client.Repository
	store   Store
	render  Renderer
	audit   *audit.Recorder
	log     *logrus.Logger
	now     func() time.Time
}

func NewUsecase(docs domain.Repository, loans loan.Repository, clients client.Repository, store Store, rec *audit.Recorder, log *logrus.Logger) *Usecase {
	return &Usecase{
		docs: docs, loans: loans, clients: clients, store: store,
		render: pdf.RenderSLR, audit: rec, log: log, now: time.Now,
	}
}

// Generate renders and stores a new SLR for loanID under the rule of trigger.
func (u *Usecase) Generate(ctx context.Context, actor user.Actor, loanID string, trigger domain.Trigger, meta AccessMeta) (*domain.Document, error) {
	if !user.CanAccessSLRDocuments(actor.Role) {
		return nil, user.ErrNotAllowed
	}
	if !trigger.Valid() {
		return nil, fmt.Errorf("%w: unknown trigger %q", apperr.ErrValidation, trigger)
	}
	l, err := u.loan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if !l.State.In(eligible...) {
		return nil, fmt.Errorf("%w: loan is %s", domain.ErrLoanNotEligible, l.State)
	}
	rule, err := u.rule(ctx, trigger)
	if err != nil {
		return nil, err
	}
	if !rule.Active {
		return nil, domain.ErrRuleInactive
	}
	if !rule.Allows(l.Principal) {
		return nil, domain.ErrOutsideRuleBounds
	}
	switch _, err := u.docs.ActiveForLoan(ctx, l.ID); {
	case err == nil:
		return nil, domain.ErrAlreadyExists
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	c, err := u.clients.GetByID(ctx, l.ClientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, client.ErrNotFound
		}
		return nil, err
	}
	revision, err := u.docs.CountForLoan(ctx, l.ID)
	if err != nil {
		return nil, err
	}

	now := u.now().UTC()
	number := domain.DocumentNumber(l.ID, now, int(revision))
	content, err := u.render(receipt(number, now, l, c, rule.RequireSignature))
	if err != nil {
		return nil, fmt.Errorf("render SLR: %w", err)
	}
	stored, err := u.store.Save(number+".pdf", content)
	if err != nil {
		return nil, fmt.Errorf("store SLR: %w", err)
	}

	doc := &domain.Document{
		LoanID:            l.ID,
		DocumentNumber:    number,
		GeneratedBy:       actor.ID,
		Trigger:           trigger,
		FileName:          number + ".pdf",
		FilePath:          stored.Path,
		FileSize:          stored.Size,
		ContentHash:       stored.Hash,
		Status:            domain.StatusActive,
		SignatureRequired: rule.RequireSignature,
	}
	if err := u.docs.Create(ctx, doc); err != nil {
		return nil, err
	}
	u.logAccess(ctx, doc.ID, domain.ActionGeneration, actor, meta, "", nil)
	u.audit.Record(ctx, actor, "slr", number, "generate", map[string]any{"loan_id": l.LoanID, "trigger": trigger})
	return doc, nil
}

// AutoGenerate issues an SLR when the rule of trigger is active and auto-generating.
// It is a no-op (nil, nil) otherwise, and when the loan already has an active SLR.
func (u *Usecase) AutoGenerate(ctx context.Context, actor user.Actor, loanID string, trigger domain.Trigger) (*domain.Document, error) {
	rule, err := u.rule(ctx, trigger)
	if err != nil {
		if errors.Is(err, domain.ErrRuleNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !rule.Active || !rule.AutoGenerate {
		return nil, nil
	}
	// role was checked by the triggering workflow
	doc, err := u.Generate(ctx, user.Actor{ID: actor.ID, Username: actor.Username, Role: user.RoleSuperAdmin}, loanID, trigger, AccessMeta{})
	if errors.Is(err, domain.ErrAlreadyExists) || errors.Is(err, domain.ErrOutsideRuleBounds) {
		return nil, nil
	}
	return doc, err
}

func receipt(number string, at time.Time, l *loan.Loan, c *client.Client, signature bool) pdf.SLR {
	s := pdf.SLR{
		DocumentNumber:    number,
		IssuedAt:          at,
		ClientName:        c.Name,
		ClientRef:         c.ID,
		Address:           c.Address,
		Phone:             c.Phone,
		LoanRef:           l.ID,
		ApplicationDate:   l.ApplicationDate,
		ReceiptDate:       at,
		TermLabel:         calculator.DescribeTerm(l.TermWeeks),
		TermWeeks:         l.TermWeeks,
		Principal:         l.Principal,
		TotalAmount:       l.TotalAmount,
		WeeklyPayment:     l.WeeklyPayment,
		SignatureRequired: signature,
	}
	if l.DisbursementDate != nil {
		s.ReceiptDate = *l.DisbursementDate
		s.MaturityDate = l.MaturityDate()
	} else {
		s.MaturityDate = calculator.MaturityDate(at, l.TermWeeks)
	}
	return s
}

// Get returns a document and logs the view.
func (u *Usecase) Get(ctx context.Context, actor user.Actor, id uint64, meta AccessMeta) (*domain.Document, error) {
	if !user.CanAccessSLRDocuments(actor.Role) {
		return nil, user.ErrNotAllowed
	}
	doc, err := u.doc(ctx, id)
	if err != nil {
		return nil, err
	}
	u.logAccess(ctx, doc.ID, domain.ActionView, actor, meta, "", nil)
	return doc, nil
}

// Download returns the stored PDF after verifying its hash. Failed checks are logged
// against the document.
func (u *Usecase) Download(ctx context.Context, actor user.Actor, id uint64, meta AccessMeta) (*Download, error) {
	if !user.CanAccessSLRDocuments(actor.Role) {
		return nil, user.ErrNotAllowed
	}
	doc, err := u.doc(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.Status != domain.StatusActive {
		return nil, domain.ErrNotActive
	}
	content, err := u.store.Read(doc.FilePath, doc.ContentHash)
	if err != nil {
		u.logAccess(ctx, doc.ID, domain.ActionDownload, actor, meta, "", err)
		if errors.Is(err, storage.ErrHashMismatch) {
			u.log.WithField("document", doc.DocumentNumber).Error("slr: integrity check failed")
			return nil, domain.ErrIntegrity
		}
		return nil, err
	}

	now := u.now().UTC()
	doc.DownloadCount++
	doc.LastDownloadedAt = &now
	doc.LastDownloadedBy = &actor.ID
	if err := u.docs.Save(ctx, doc); err != nil {
		return nil, err
	}
	u.logAccess(ctx, doc.ID, domain.ActionDownload, actor, meta, "", nil)
	return &Download{Document: *doc, Content: content}, nil
}

// Archive moves an active document's file to the archive area.
func (u *Usecase) Archive(ctx context.Context, actor user.Actor, id uint64, reason string, meta AccessMeta) (*domain.Document, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}
	doc, err := u.mutable(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if doc.Status != domain.StatusActive {
		return nil, domain.ErrNotActive
	}
	path, err := u.store.Archive(doc.FilePath)
	if err != nil {
		return nil, fmt.Errorf("archive SLR file: %w", err)
	}
	now := u.now().UTC()
	doc.FilePath = path
	doc.Status = domain.StatusArchived
	doc.ArchivedAt = &now
	doc.ArchiveReason = reason
	if err := u.docs.Save(ctx, doc); err != nil {
		return nil, err
	}
	u.logAccess(ctx, doc.ID, domain.ActionArchive, actor, meta, reason, nil)
	u.audit.Record(ctx, actor, "slr", doc.DocumentNumber, "archive", reason)
	return doc, nil
}

// Restore reactivates an archived document when the loan has no other active SLR.
func (u *Usecase) Restore(ctx context.Context, actor user.Actor, id uint64, meta AccessMeta) (*domain.Document, error) {
	doc, err := u.mutable(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if doc.Status != domain.StatusArchived {
		return nil, ErrNotArchived
	}
	switch _, err := u.docs.ActiveForLoan(ctx, doc.LoanID); {
	case err == nil:
		return nil, domain.ErrAlreadyExists
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}
	path, err := u.store.Restore(doc.FilePath)
	if err != nil {
		return nil, fmt.Errorf("restore SLR file: %w", err)
	}
	doc.FilePath = path
	doc.Status = domain.StatusActive
	doc.ArchivedAt = nil
	doc.ArchiveReason = ""
	if err := u.docs.Save(ctx, doc); err != nil {
		return nil, err
	}
	u.logAccess(ctx, doc.ID, domain.ActionRestore, actor, meta, "", nil)
	u.audit.Record(ctx, actor, "slr", doc.DocumentNumber, "restore", nil)
	return doc, nil
}

// Void cancels a document for good. The file is kept for the record.
func (u *Usecase) Void(ctx context.Context, actor user.Actor, id uint64, reason string, meta AccessMeta) (*domain.Document, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}
	doc, err := u.mutable(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if doc.Status == domain.StatusVoid {
		return nil, domain.ErrNotActive
	}
	doc.Status = domain.StatusVoid
	doc.ArchiveReason = reason
	if err := u.docs.Save(ctx, doc); err != nil {
		return nil, err
	}
	u.logAccess(ctx, doc.ID, domain.ActionVoid, actor, meta, reason, nil)
	u.audit.Record(ctx, actor, "slr", doc.DocumentNumber, "void", reason)
	return doc, nil
}

func (u *Usecase) List(ctx context.Context, actor user.Actor, in ListInput) (*Page, error) {
	if !user.CanAccessSLRDocuments(actor.Role) {
		return nil, user.ErrNotAllowed
	}
	f := domain.ListFilter{Status: domain.Status(in.Status), From: in.From, To: in.To, Limit: in.Limit, Offset: in.Offset}
	if in.LoanID != "" {
		l, err := u.loan(ctx, in.LoanID)
		if err != nil {
			return nil, err
		}
		f.LoanID = l.ID
	}
	items, total, err := u.docs.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return &Page{Items: items, Total: total}, nil
}

func (u *Usecase) AccessLog(ctx context.Context, actor user.Actor, f domain.AccessFilter) (*AccessPage, error) {
	if !user.CanAccessSLRDocuments(actor.Role) {
		return nil, user.ErrNotAllowed
	}
	items, total, err := u.docs.ListAccess(ctx, f)
	if err != nil {
		return nil, err
	}
	return &AccessPage{Items: items, Total: total}, nil
}

func (u *Usecase) Rules(ctx context.Context) ([]domain.Rule, error) {
	return u.docs.ListRules(ctx)
}

// UpdateRule edits the rule of trigger. Only staff admins change generation policy.
func (u *Usecase) UpdateRule(ctx context.Context, actor user.Actor, trigger domain.Trigger, in UpdateRuleInput) (*domain.Rule, error) {
	if !user.CanManageStaff(actor.Role) {
		return nil, user.ErrNotAllowed
	}
	rule, err := u.rule(ctx, trigger)
	if err != nil {
		return nil, err
	}
	if in.Active != nil {
		rule.Active = *in.Active
	}
	if in.AutoGenerate != nil {
		rule.AutoGenerate = *in.AutoGenerate
	}
	if in.RequireSignature != nil {
		rule.RequireSignature = *in.RequireSignature
	}
	if in.Description != nil {
		rule.Description = strings.TrimSpace(*in.Description)
	}
	if in.MinPrincipal != nil {
		if in.MinPrincipal.IsNegative() {
			return nil, fmt.Errorf("%w: min_principal must not be negative", apperr.ErrValidation)
		}
		rule.MinPrincipal = *in.MinPrincipal
	}
	switch {
	case in.ClearMax:
		rule.MaxPrincipal.Valid = false
	case in.MaxPrincipal != nil:
		rule.MaxPrincipal.Decimal = *in.MaxPrincipal
		rule.MaxPrincipal.Valid = true
	}
	if rule.MaxPrincipal.Valid && rule.MaxPrincipal.Decimal.LessThan(rule.MinPrincipal) {
		return nil, fmt.Errorf("%w: max_principal is below min_principal", apperr.ErrValidation)
	}
	if err := u.docs.SaveRule(ctx, rule); err != nil {
		return nil, err
	}
	u.audit.Record(ctx, actor, "slr_rule", string(trigger), "update", rule)
	return rule, nil
}

func (u *Usecase) mutable(ctx context.Context, actor user.Actor, id uint64) (*domain.Document, error) {
	if !user.CanAccessSLRDocuments(actor.Role) || actor.Role.In(user.RoleAccountOfficer) {
		return nil, user.ErrNotAllowed
	}
	return u.doc(ctx, id)
}

func (u *Usecase) loan(ctx context.Context, loanID string) (*loan.Loan, error) {
	l, err := u.loans.GetByLoanID(ctx, loanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, loan.ErrNotFound
		}
		return nil, err
	}
	return l, nil
}

func (u *Usecase) doc(ctx context.Context, id uint64) (*domain.Document, error) {
	d, err := u.docs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return d, nil
}

func (u *Usecase) rule(ctx context.Context, trigger domain.Trigger) (*domain.Rule, error) {
	r, err := u.docs.GetRule(ctx, trigger)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRuleNotFound
		}
		return nil, err
	}
	return r, nil
}

func (u *Usecase) logAccess(ctx context.Context, docID uint64, action domain.Action, actor user.Actor, meta AccessMeta, reason string, failure error) {
	entry := &domain.AccessLog{
		DocumentID: docID,
		Action:     action,
		UserID:     actor.ID,
		Reason:     reason,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
		Success:    failure == nil,
		AccessedAt: u.now().UTC(),
	}
	if failure != nil {
		entry.ErrorMessage = failure.Error()
	}
	if err := u.docs.LogAccess(ctx, entry); err != nil {
		u.log.WithError(err).WithField("document_id", docID).Warn("slr: access log write failed")
	}
}
