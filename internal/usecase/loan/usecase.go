package loan

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"fanders-backend/internal/domain/apperr"
	"fanders-backend/internal/domain/client"
	domain "fanders-backend/internal/domain/loan"
	"fanders-backend/internal/domain/loan/calculator"
	"fanders-backend/internal/domain/payment"
	"fanders-backend/internal/domain/slr"
	"fanders-backend/internal/domain/uow"
	"fanders-backend/internal/domain/user"
	"fanders-backend/internal/infrastructure/metrics"
	"fanders-backend/internal/usecase/audit"
	"fanders-backend/pkg/id"
)

// SLRIssuer generates a loan's SLR when the rule for trigger asks for it. It returns
// (nil, nil) when the rule does not auto-generate.
type SLRIssuer interface {
	AutoGenerate(ctx context.Context, actor user.Actor, loanID string, trigger slr.Trigger) (*slr.Document, error)
}

// BlotterRefresher rebuilds the cash blotter from day onwards after principal is released.
type BlotterRefresher interface {
	RecalculateFrom(ctx context.Context, day time.Time) error
}

type Usecase struct {
	loans    domain.Repository
	clients  client.Repository
	payments payment.Repository
	uow      uow.UnitOfWork
	calc     *calculator.Calculator
	slr      SLRIssuer
	blotter  BlotterRefresher
	audit    *audit.Recorder
	log      *logrus.Logger
	now      func() time.Time
}

type Deps struct {
	Loans      domain.Repository
	Clients    client.Repository
	Payments   payment.Repository
	UoW        uow.UnitOfWork
	Calculator *calculator.Calculator
	SLR        SLRIssuer
	Blotter    BlotterRefresher
	Audit      *audit.Recorder
	Log        *logrus.Logger
}

func NewUsecase(d Deps) *Usecase {
	calc := d.Calculator
	if calc == nil {
		calc = calculator.New(calculator.DefaultLimits())
	}
	return &Usecase{
		loans: d.Loans, clients: d.Clients, payments: d.Payments, uow: d.UoW,
		calc: calc, slr: d.SLR, blotter: d.Blotter, audit: d.Audit, log: d.Log, now: time.Now,
	}
}

// Calculate previews a loan without persisting anything.
func (u *Usecase) Calculate(in CalculateInput) (*calculator.Result, error) {
	return u.calc.Calculate(calculator.Input{Principal: in.Principal, TermWeeks: in.TermWeeks, TermMonths: in.TermMonths})
}

// Apply books a loan application for an active client with no open or defaulted loan.
func (u *Usecase) Apply(ctx context.Context, actor user.Actor, in ApplyInput) (*LoanDTO, error) {
	if !user.CanCreateLoan(actor.Role) {
		return nil, user.ErrNotAllowed
	}
	res, err := u.Calculate(CalculateInput{Principal: in.Principal, TermWeeks: in.TermWeeks, TermMonths: in.TermMonths})
	if err != nil {
		return nil, err
	}

	var out *domain.Loan
	var c *client.Client
	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		var err error
		c, err = r.Clients.GetByClientID(ctx, in.ClientID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return client.ErrNotFound
			}
			return err
		}
		if !c.IsActive() {
			return domain.ErrClientInactive
		}
		open, err := r.Loans.CountByClient(ctx, c.ID, domain.OpenStates...)
		if err != nil {
			return err
		}
		if open > 0 {
			return domain.ErrClientHasOpenLoan
		}
		defaulted, err := r.Loans.CountByClient(ctx, c.ID, domain.StateDefaulted)
		if err != nil {
			return err
		}
		if defaulted > 0 {
			return domain.ErrClientDefaulted
		}

		out = domain.New(id.NewID32(), c.ID, res, u.now())
		return r.Loans.Create(ctx, out)
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordLoanTransition(string(domain.StateApplication))
	u.audit.Record(ctx, actor, "loan", out.LoanID, "apply", map[string]any{
		"client_id": c.ClientID, "principal": out.Principal.StringFixed(2), "term_weeks": out.TermWeeks,
	})
	dto := toDTO(out, c)
	return &dto, nil
}

func (u *Usecase) find(ctx context.Context, loanID string) (*domain.Loan, error) {
	l, err := u.loans.GetByLoanID(ctx, loanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return l, nil
}

func (u *Usecase) Get(ctx context.Context, loanID string) (*LoanDTO, error) {
	l, err := u.find(ctx, loanID)
	if err != nil {
		return nil, err
	}
	c, err := u.clients.GetByID(ctx, l.ClientID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	dto := toDTO(l, c)
	return &dto, nil
}

func (u *Usecase) List(ctx context.Context, in ListInput) (*Page, error) {
	f := domain.ListFilter{Limit: in.Limit, Offset: in.Offset}
	if in.State != "" {
		f.State = domain.State(strings.ToLower(in.State))
		if !f.State.Valid() {
			return nil, fmt.Errorf("%w: unknown loan status %q", apperr.ErrValidation, in.State)
		}
	}
	if in.ClientID != "" {
		c, err := u.clients.GetByClientID(ctx, in.ClientID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, client.ErrNotFound
			}
			return nil, err
		}
		f.ClientID = c.ID
	}
	loans, total, err := u.loans.List(ctx, f)
	if err != nil {
		return nil, err
	}

	clients := map[uint64]*client.Client{}
	page := &Page{Items: make([]LoanDTO, 0, len(loans)), Total: total}
	for i := range loans {
		l := &loans[i]
		c, ok := clients[l.ClientID]
		if !ok {
			c, err = u.clients.GetByID(ctx, l.ClientID)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
			clients[l.ClientID] = c
		}
		page.Items = append(page.Items, toDTO(l, c))
	}
	return page, nil
}

// Schedule is the booked amortization with due dates and paid weeks.
func (u *Usecase) Schedule(ctx context.Context, loanID string) (*ScheduleDTO, error) {
	l, err := u.find(ctx, loanID)
	if err != nil {
		return nil, err
	}
	res, err := l.Schedule()
	if err != nil {
		return nil, err
	}
	paid, err := u.payments.ListByLoan(ctx, l.ID)
	if err != nil {
		return nil, err
	}
	byWeek := make(map[int]decimal.Decimal, len(paid))
	for _, p := range paid {
		byWeek[p.WeekNumber] = p.Amount
	}

	rows := make([]ScheduleRow, len(res.PaymentSchedule))
	for i, in := range res.PaymentSchedule {
		row := ScheduleRow{Installment: in}
		if l.DisbursementDate != nil {
			due := calculator.DueDate(*l.DisbursementDate, in.Week)
			row.DueDate = &due
		}
		if amt, ok := byWeek[in.Week]; ok {
			amt := amt
			row.Paid = true
			row.Amount = &amt
		}
		rows[i] = row
	}
	return &ScheduleDTO{
		LoanID:  l.LoanID,
		Totals:  res,
		Rows:    rows,
		Balance: calculator.RemainingBalance(res, len(byWeek)),
	}, nil
}

func (u *Usecase) Stats(ctx context.Context) (*Stats, error) {
	counts, err := u.loans.CountByState(ctx)
	if err != nil {
		return nil, err
	}
	disbursed, err := u.loans.SumDisbursed(ctx, time.Time{}, time.Time{})
	if err != nil {
		return nil, err
	}
	st := &Stats{ByState: counts, TotalDisbursed: disbursed}
	for _, n := range counts {
		st.Total += n
	}
	return st, nil
}

// Disburse releases an approved loan. An SLR failure is logged and does not undo the release.
func (u *Usecase) Disburse(ctx context.Context, actor user.Actor, loanID string) (*DisburseResult, error) {
	if !user.CanViewLoanApprovals(actor.Role) {
		return nil, user.ErrNotAllowed
	}
	l, err := u.transition(ctx, actor, loanID, domain.StateActive)
	if err != nil {
		return nil, err
	}
	out := &DisburseResult{Loan: *l}

	if u.blotter != nil && l.DisbursementDate != nil {
		if err := u.blotter.RecalculateFrom(ctx, *l.DisbursementDate); err != nil {
			u.log.WithError(err).WithField("loan_id", loanID).Warn("loan: blotter refresh after disbursement failed")
		}
	}

	if u.slr != nil {
		doc, err := u.slr.AutoGenerate(ctx, actor, loanID, slr.TriggerLoanDisbursement)
		if err != nil {
			u.log.WithError(err).WithField("loan_id", loanID).Warn("loan: SLR generation after disbursement failed")
		}
		out.SLR = doc
	}
	return out, nil
}

// MarkDefaulted writes off an active loan.
func (u *Usecase) MarkDefaulted(ctx context.Context, actor user.Actor, loanID string) (*LoanDTO, error) {
	if !user.CanViewLoanApprovals(actor.Role) {
		return nil, user.ErrNotAllowed
	}
	return u.transition(ctx, actor, loanID, domain.StateDefaulted)
}

// Complete closes an active loan by hand. Payments close fully paid loans on their own.
func (u *Usecase) Complete(ctx context.Context, actor user.Actor, loanID string) (*LoanDTO, error) {
	if !user.CanViewLoanApprovals(actor.Role) {
		return nil, user.ErrNotAllowed
	}
	return u.transition(ctx, actor, loanID, domain.StateCompleted)
}

func (u *Usecase) transition(ctx context.Context, actor user.Actor, loanID string, to domain.State) (*LoanDTO, error) {
	var out *domain.Loan
	var c *client.Client
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *domain.Loan) error {
		if err := l.Transition(to, actor.ID, u.now()); err != nil {
			return err
		}
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		var err error
		c, err = r.Clients.GetByID(ctx, l.ClientID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		out = l
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	metrics.RecordLoanTransition(string(to))
	u.audit.Record(ctx, actor, "loan", out.LoanID, string(to), nil)
	dto := toDTO(out, c)
	return &dto, nil
}

func toDTO(l *domain.Loan, c *client.Client) LoanDTO {
	dto := LoanDTO{Loan: *l, TermLabel: calculator.DescribeTerm(l.TermWeeks)}
	if c != nil && c.ID != 0 {
		dto.ClientID = c.ClientID
		dto.ClientName = c.Name
	}
	if m := l.MaturityDate(); !m.IsZero() {
		dto.MaturityDate = &m
	}
	return dto
}
