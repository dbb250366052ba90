package blotter

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	domain "fanders-backend/internal/domain/blotter"
	"fanders-backend/internal/domain/uow"
	"fanders-backend/internal/domain/user"
	"fanders-backend/internal/usecase/audit"
)

// DefaultAlertThreshold flags closing balances under this amount.
var DefaultAlertThreshold = decimal.NewFromInt(1000)

type Usecase struct {
	blotters  domain.Repository
	uow       uow.UnitOfWork
	threshold decimal.Decimal
	audit     *audit.Recorder
	log       *logrus.Logger
	now       func() time.Time
}

// NewUsecase uses DefaultAlertThreshold when threshold is not positive.
func NewUsecase(blotters domain.Repository, tx uow.UnitOfWork, threshold decimal.Decimal, rec *audit.Recorder, log *logrus.Logger) *Usecase {
	if !threshold.IsPositive() {
		threshold = DefaultAlertThreshold
	}
	return &Usecase{blotters: blotters, uow: tx, threshold: threshold, audit: rec, log: log, now: time.Now}
}

// ForDate returns the blotter of day, computing it when none is stored yet.
func (u *Usecase) ForDate(ctx context.Context, day time.Time) (*domain.Blotter, error) {
	b, err := u.blotters.GetByDate(ctx, day)
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	var out *domain.Blotter
	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		out, err = compute(ctx, r, day)
		return err
	})
	return out, err
}

// Recalculate recomputes one day from payments and disbursements.
func (u *Usecase) Recalculate(ctx context.Context, actor user.Actor, day time.Time) (*domain.Blotter, error) {
	var out *domain.Blotter
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		var err error
		out, err = compute(ctx, r, day)
		return err
	})
	if err != nil {
		return nil, err
	}
	u.audit.Record(ctx, actor, "cash_blotter", out.BlotterDate.Format(time.DateOnly), "recalculate", nil)
	return out, nil
}

// RecalculateFrom recomputes day and every stored later day in date order so the
// opening balances chain.
func (u *Usecase) RecalculateFrom(ctx context.Context, day time.Time) error {
	start := domain.Day(day)
	return u.uow.WithinTx(ctx, func(r uow.Repos) error {
		if _, err := compute(ctx, r, start); err != nil {
			return err
		}
		later, err := r.Blotters.ListFrom(ctx, start.AddDate(0, 0, 1))
		if err != nil {
			return err
		}
		for _, b := range later {
			if _, err := compute(ctx, r, b.BlotterDate); err != nil {
				return err
			}
		}
		return nil
	})
}

// compute rebuilds and stores the blotter of day. The opening balance is the
// closing balance of the newest earlier blotter.
func compute(ctx context.Context, r uow.Repos, day time.Time) (*domain.Blotter, error) {
	day = domain.Day(day)
	next := day.AddDate(0, 0, 1)

	opening := decimal.Zero
	prev, err := r.Blotters.LatestBefore(ctx, day)
	switch {
	case err == nil:
		opening = prev.ClosingBalance
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}
	inflow, count, err := r.Payments.SumBetween(ctx, day, next)
	if err != nil {
		return nil, err
	}
	outflow, err := r.Loans.SumDisbursed(ctx, day, next)
	if err != nil {
		return nil, err
	}

	b, err := r.Blotters.GetByDate(ctx, day)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		b = &domain.Blotter{BlotterDate: day}
	}
	b.Close(opening, inflow, outflow, count)
	if err := r.Blotters.Save(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (u *Usecase) Range(ctx context.Context, from, to time.Time) ([]domain.Blotter, error) {
	if domain.Day(from).After(domain.Day(to)) {
		return nil, domain.ErrInvalidRange
	}
	return u.blotters.ListRange(ctx, from, to)
}

type Balance struct {
	AsOf    *time.Time      `json:"as_of,omitempty"`
	Balance decimal.Decimal `json:"balance"`
}

// CurrentBalance is the closing balance of the newest blotter, zero when none exists.
func (u *Usecase) CurrentBalance(ctx context.Context) (*Balance, error) {
	b, err := u.blotters.Latest(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &Balance{Balance: decimal.Zero}, nil
		}
		return nil, err
	}
	at := b.BlotterDate
	return &Balance{AsOf: &at, Balance: b.ClosingBalance}, nil
}

func (u *Usecase) Summary(ctx context.Context, from, to time.Time) (*domain.Summary, error) {
	days, err := u.Range(ctx, from, to)
	if err != nil {
		return nil, err
	}
	s := domain.Summarize(from, to, days)
	return &s, nil
}

// Alerts flags low and negative closing balances in [from, to]. A non-positive
// threshold falls back to the configured one.
func (u *Usecase) Alerts(ctx context.Context, from, to time.Time, threshold decimal.Decimal) ([]domain.Alert, error) {
	if !threshold.IsPositive() {
		threshold = u.threshold
	}
	days, err := u.Range(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return domain.Alerts(days, threshold), nil
}

// RefreshToday is the scheduled job that keeps today's blotter current.
func (u *Usecase) RefreshToday(ctx context.Context) error {
	today := u.now()
	if err := u.RecalculateFrom(ctx, today); err != nil {
		return err
	}
	u.log.WithField("date", domain.Day(today).Format(time.DateOnly)).Debug("blotter: refreshed")
	return nil
}
