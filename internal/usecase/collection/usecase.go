package collection

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"fanders-backend/internal/domain/apperr"
	domain "fanders-backend/internal/domain/collection"
	"fanders-backend/internal/domain/loan"
	"fanders-backend/internal/domain/payment"
	"fanders-backend/internal/domain/uow"
	"fanders-backend/internal/domain/user"
	"fanders-backend/internal/usecase/audit"
	paymentuc "fanders-backend/internal/usecase/payment"
)

type Usecase struct {
	sheets   domain.Repository
	uow      uow.UnitOfWork
	payments *paymentuc.Usecase
	audit    *audit.Recorder
	log      *logrus.Logger
	now      func() time.Time
}

func NewUsecase(sheets domain.Repository, tx uow.UnitOfWork, payments *paymentuc.Usecase, rec *audit.Recorder, log *logrus.Logger) *Usecase {
	return &Usecase{sheets: sheets, uow: tx, payments: payments, audit: rec, log: log, now: time.Now}
}

func day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Create opens a draft sheet for an active account officer.
func (u *Usecase) Create(ctx context.Context, actor user.Actor, in CreateInput) (*domain.Sheet, error) {
	if !user.CanAccessCollectionSheets(actor.Role) {
		return nil, user.ErrNotAllowed
	}
	officerID := in.OfficerID
	if officerID == 0 {
		officerID = actor.ID
	}
	date := day(in.CollectionDate)
	if date.After(day(u.now())) {
		return nil, domain.ErrFutureDate
	}

	var out *domain.Sheet
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		officer, err := r.Users.GetByID(ctx, officerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrOfficerNotAllowed
			}
			return err
		}
		if officer.Role != user.RoleAccountOfficer || !officer.IsActive() {
			return domain.ErrOfficerNotAllowed
		}
		switch _, err := r.Collections.FindByOfficerDate(ctx, officerID, date); {
		case err == nil:
			return domain.ErrDuplicateSheet
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}
		out = &domain.Sheet{
			OfficerID:      officerID,
			CollectionDate: date,
			Status:         domain.StatusDraft,
			Notes:          strings.TrimSpace(in.Notes),
		}
		return r.Collections.Create(ctx, out)
	})
	if err != nil {
		return nil, err
	}
	u.audit.Record(ctx, actor, "collection_sheet", fmt.Sprint(out.ID), "create", map[string]any{
		"officer_id": officerID, "date": date.Format(time.DateOnly),
	})
	return out, nil
}

// withDraft locks the sheet and runs fn when it is still a draft.
func (u *Usecase) withDraft(ctx context.Context, sheetID uint64, fn func(r uow.Repos, s *domain.Sheet) error) error {
	return u.uow.WithinTx(ctx, func(r uow.Repos) error {
		s, err := lockSheet(ctx, r, sheetID)
		if err != nil {
			return err
		}
		if s.Status != domain.StatusDraft {
			return domain.ErrNotDraft
		}
		return fn(r, s)
	})
}

func lockSheet(ctx context.Context, r uow.Repos, id uint64) (*domain.Sheet, error) {
	s, err := r.Collections.GetByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

func recount(ctx context.Context, r uow.Repos, s *domain.Sheet) error {
	items, err := r.Collections.ListItems(ctx, s.ID)
	if err != nil {
		return err
	}
	s.Recount(items)
	return r.Collections.Save(ctx, s)
}

// AddLoans puts active loans on a draft sheet. Loans already on the sheet are skipped.
func (u *Usecase) AddLoans(ctx context.Context, actor user.Actor, sheetID uint64, in AddLoansInput) (*AddResult, error) {
	if !user.CanAccessCollectionSheets(actor.Role) {
		return nil, user.ErrNotAllowed
	}
	res := &AddResult{Skipped: []string{}}
	err := u.withDraft(ctx, sheetID, func(r uow.Repos, s *domain.Sheet) error {
		items, err := r.Collections.ListItems(ctx, s.ID)
		if err != nil {
			return err
		}
		onSheet := make(map[uint64]bool, len(items))
		for _, it := range items {
			onSheet[it.LoanID] = true
		}
		for _, loanID := range in.LoanIDs {
			l, err := r.Loans.GetByLoanID(ctx, loanID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: %s", loan.ErrNotFound, loanID)
				}
				return err
			}
			if l.State != loan.StateActive {
				return fmt.Errorf("%w: %s", loan.ErrNotActive, loanID)
			}
			if onSheet[l.ID] {
				res.Skipped = append(res.Skipped, loanID)
				continue
			}
			it := &domain.Item{
				SheetID:         s.ID,
				LoanID:          l.ID,
				ClientID:        l.ClientID,
				ExpectedPayment: l.WeeklyPayment,
				Status:          domain.ItemPending,
			}
			if err := r.Collections.AddItem(ctx, it); err != nil {
				return err
			}
			onSheet[l.ID] = true
			res.Added++
		}
		return recount(ctx, r, s)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// RecordCollection marks a pending item as collected.
func (u *Usecase) RecordCollection(ctx context.Context, actor user.Actor, sheetID, itemID uint64, in CollectInput) (*domain.Item, error) {
	if !user.CanAccessCollectionSheets(actor.Role) {
		return nil, user.ErrNotAllowed
	}
	if !in.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: collected amount must be greater than zero", apperr.ErrValidation)
	}
	var out *domain.Item
	err := u.withDraft(ctx, sheetID, func(r uow.Repos, s *domain.Sheet) error {
		it, err := r.Collections.GetItem(ctx, s.ID, itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrItemNotFound
			}
			return err
		}
		if it.Status != domain.ItemPending {
			return domain.ErrItemNotPending
		}
		now := u.now().UTC()
		it.CollectedAmount = in.Amount.Round(2)
		it.Method = in.Method
		if it.Method == "" {
			it.Method = payment.MethodCash
		}
		it.Notes = strings.TrimSpace(in.Notes)
		it.Status = domain.ItemCollected
		it.CollectedAt = &now
		if err := r.Collections.SaveItem(ctx, it); err != nil {
			return err
		}
		out = it
		return recount(ctx, r, s)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Submit hands a draft with at least one item to the managers.
func (u *Usecase) Submit(ctx context.Context, actor user.Actor, sheetID uint64) (*domain.Sheet, error) {
	if !user.CanAccessCollectionSheets(actor.Role) {
		return nil, user.ErrNotAllowed
	}
	var out *domain.Sheet
	err := u.withDraft(ctx, sheetID, func(r uow.Repos, s *domain.Sheet) error {
		items, err := r.Collections.ListItems(ctx, s.ID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return domain.ErrEmpty
		}
		now := u.now().UTC()
		s.Recount(items)
		s.Status = domain.StatusSubmitted
		s.SubmittedAt = &now
		out = s
		return r.Collections.Save(ctx, s)
	})
	if err != nil {
		return nil, err
	}
	u.audit.Record(ctx, actor, "collection_sheet", fmt.Sprint(out.ID), "submit", map[string]any{
		"total_collected": out.TotalCollected.StringFixed(2),
	})
	return out, nil
}

// Approve posts every collected item as a loan payment in one transaction.
func (u *Usecase) Approve(ctx context.Context, actor user.Actor, sheetID uint64) (*domain.Sheet, error) {
	if !user.CanViewLoanApprovals(actor.Role) {
		return nil, user.ErrNotAllowed
	}
	var out *domain.Sheet
	var posted []*paymentuc.RecordResult
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		s, err := lockSheet(ctx, r, sheetID)
		if err != nil {
			return err
		}
		if s.Status != domain.StatusSubmitted {
			return domain.ErrNotSubmitted
		}
		items, err := r.Collections.ListItems(ctx, s.ID)
		if err != nil {
			return err
		}
		for i := range items {
			it := &items[i]
			if it.Status != domain.ItemCollected {
				continue
			}
			l, err := r.Loans.GetByIDForUpdate(ctx, it.LoanID)
			if err != nil {
				return err
			}
			officer := s.OfficerID
			res, err := u.payments.RecordInTx(ctx, r, l, actor, paymentuc.RecordInput{
				LoanID:      l.LoanID,
				Amount:      it.CollectedAmount,
				Method:      it.Method,
				CollectedBy: &officer,
				PaymentDate: s.CollectionDate,
				Notes:       it.Notes,
				SheetID:     &s.ID,
			})
			if err != nil {
				return fmt.Errorf("post item %d (loan %s): %w", it.ID, l.LoanID, err)
			}
			pid := res.Payment.ID
			it.PaymentID = &pid
			it.Status = domain.ItemPosted
			if err := r.Collections.SaveItem(ctx, it); err != nil {
				return err
			}
			posted = append(posted, res)
		}
		now := u.now().UTC()
		s.Recount(items)
		s.Status = domain.StatusApproved
		s.ApprovedAt = &now
		s.ApprovedBy = &actor.ID
		out = s
		return r.Collections.Save(ctx, s)
	})
	if err != nil {
		return nil, err
	}
	for _, res := range posted {
		u.payments.Posted(ctx, actor, res)
	}
	u.audit.Record(ctx, actor, "collection_sheet", fmt.Sprint(out.ID), "approve", map[string]any{
		"payments_posted": len(posted), "total_collected": out.TotalCollected.StringFixed(2),
	})
	return out, nil
}

// Get returns the sheet with its items and collection rate.
func (u *Usecase) Get(ctx context.Context, sheetID uint64) (*SheetDTO, error) {
	var out *SheetDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		s, err := r.Collections.GetByID(ctx, sheetID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		items, err := r.Collections.ListItems(ctx, s.ID)
		if err != nil {
			return err
		}
		out = &SheetDTO{Sheet: *s, CollectionRate: s.CollectionRate(), Items: make([]ItemDTO, 0, len(items))}
		for _, it := range items {
			dto := ItemDTO{Item: it}
			if l, err := r.Loans.GetByID(ctx, it.LoanID); err == nil {
				dto.LoanID = l.LoanID
			}
			if c, err := r.Clients.GetByID(ctx, it.ClientID); err == nil {
				dto.ClientID = c.ClientID
				dto.ClientName = c.Name
			}
			out.Items = append(out.Items, dto)
		}
		return nil
	})
	return out, err
}

func (u *Usecase) List(ctx context.Context, in ListInput) (*Page, error) {
	f := domain.ListFilter{OfficerID: in.OfficerID, Status: domain.Status(in.Status), Limit: in.Limit, Offset: in.Offset}
	if !in.From.IsZero() {
		f.From = day(in.From)
	}
	if !in.To.IsZero() {
		f.To = day(in.To)
	}
	items, total, err := u.sheets.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return &Page{Items: items, Total: total}, nil
}
