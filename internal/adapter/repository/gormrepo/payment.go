package gormrepo

import (
	"context"
	"time"

	"fanders-backend/internal/domain/payment"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentRepository struct{ db *gorm.DB }

func NewPaymentRepository(db *gorm.DB) *PaymentRepository { return &PaymentRepository{db: db} }

func (r *PaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *PaymentRepository) GetByID(ctx context.Context, id uint64) (*payment.Payment, error) {
	var out payment.Payment
	res := r.db.WithContext(ctx).Where("id = ?", id).First(&out)
	return &out, res.Error
}

func (r *PaymentRepository) ListByLoan(ctx context.Context, loanID uint64) ([]payment.Payment, error) {
	var out []payment.Payment
	err := r.db.WithContext(ctx).Where("loan_id = ?", loanID).Order("week_number ASC").Find(&out).Error
	return out, err
}

func (r *PaymentRepository) ListByLoans(ctx context.Context, ids []uint64) ([]payment.Payment, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []payment.Payment
	err := r.db.WithContext(ctx).Where("loan_id IN ?", ids).Order("loan_id ASC, week_number ASC").Find(&out).Error
	return out, err
}

func (r *PaymentRepository) ListBetween(ctx context.Context, from, to time.Time) ([]payment.Payment, error) {
	var out []payment.Payment
	err := r.db.WithContext(ctx).
		Where("payment_date >= ? AND payment_date < ?", from.UTC(), to.UTC()).
		Order("payment_date ASC, id ASC").
		Find(&out).Error
	return out, err
}

func (r *PaymentRepository) WeekTaken(ctx context.Context, loanID uint64, week int) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&payment.Payment{}).
		Where("loan_id = ? AND week_number = ?", loanID, week).
		Count(&n).Error
	return n > 0, err
}

func (r *PaymentRepository) SumBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, int64, error) {
	var (
		sum decimal.Decimal
		n   int64
	)
	err := r.db.WithContext(ctx).Model(&payment.Payment{}).
		Select("COALESCE(SUM(amount), 0), COUNT(*)").
		Where("payment_date >= ? AND payment_date < ?", from.UTC(), to.UTC()).
		Row().Scan(&sum, &n)
	if err != nil {
		return decimal.Zero, 0, err
	}
	return sum.Round(2), n, nil
}
