package gormrepo

import (
	"context"
	"time"

	loanDomain "fanders-backend/internal/domain/loan"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type LoanRepository struct{ db *gorm.DB }

func NewLoanRepository(db *gorm.DB) *LoanRepository { return &LoanRepository{db: db} }

func (r *LoanRepository) Create(ctx context.Context, l *loanDomain.Loan) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *LoanRepository) Save(ctx context.Context, l *loanDomain.Loan) error {
	return r.db.WithContext(ctx).Save(l).Error
}

func (r *LoanRepository) GetByID(ctx context.Context, id uint64) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	res := r.db.WithContext(ctx).Where("id = ?", id).First(&out)
	return &out, res.Error
}

func (r *LoanRepository) GetByLoanID(ctx context.Context, loanID string) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	res := r.db.WithContext(ctx).Where("loan_id = ?", loanID).First(&out)
	return &out, res.Error
}

func (r *LoanRepository) GetByLoanIDForUpdate(ctx context.Context, loanID string) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	res := r.db.WithContext(ctx).Scopes(forUpdate).Where("loan_id = ?", loanID).First(&out)
	return &out, res.Error
}

func (r *LoanRepository) GetByIDForUpdate(ctx context.Context, id uint64) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	res := r.db.WithContext(ctx).Scopes(forUpdate).Where("id = ?", id).First(&out)
	return &out, res.Error
}

func (r *LoanRepository) List(ctx context.Context, f loanDomain.ListFilter) ([]loanDomain.Loan, int64, error) {
	filter := func(db *gorm.DB) *gorm.DB {
		if f.State != "" {
			db = db.Where("status = ?", f.State)
		}
		if f.ClientID != 0 {
			db = db.Where("client_id = ?", f.ClientID)
		}
		return db
	}
	var total int64
	if err := r.db.WithContext(ctx).Model(&loanDomain.Loan{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []loanDomain.Loan
	err := r.db.WithContext(ctx).
		Scopes(filter, paginate(f.Limit, f.Offset)).
		Order("state_updated_at DESC, id DESC").
		Find(&out).Error
	return out, total, err
}

func (r *LoanRepository) CountByClient(ctx context.Context, clientID uint64, states ...loanDomain.State) (int64, error) {
	var n int64
	q := r.db.WithContext(ctx).Model(&loanDomain.Loan{}).Where("client_id = ?", clientID)
	if len(states) > 0 {
		q = q.Where("status IN ?", states)
	}
	err := q.Count(&n).Error
	return n, err
}

func (r *LoanRepository) CountByState(ctx context.Context) (map[loanDomain.State]int64, error) {
	var rows []groupCount
	err := r.db.WithContext(ctx).Model(&loanDomain.Loan{}).
		Select("status AS label, COUNT(*) AS n").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[loanDomain.State]int64, len(rows))
	for _, row := range rows {
		out[loanDomain.State(row.Label)] = row.N
	}
	return out, nil
}

func (r *LoanRepository) SumDisbursed(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	var sum decimal.Decimal
	q := r.db.WithContext(ctx).Model(&loanDomain.Loan{}).
		Select("COALESCE(SUM(principal), 0)").
		Where("disbursement_date IS NOT NULL")
	if !from.IsZero() {
		q = q.Where("disbursement_date >= ?", from.UTC())
	}
	if !to.IsZero() {
		q = q.Where("disbursement_date < ?", to.UTC())
	}
	if err := q.Row().Scan(&sum); err != nil {
		return decimal.Zero, err
	}
	// float aggregates on some drivers drift below a cent
	return sum.Round(2), nil
}
