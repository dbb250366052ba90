package gormrepo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"fanders-backend/internal/domain/approval"
)

type ApprovalRepository struct{ db *gorm.DB }

func NewApprovalRepository(db *gorm.DB) *ApprovalRepository { return &ApprovalRepository{db: db} }

func (r *ApprovalRepository) Create(ctx context.Context, a *approval.Approval) error {
	return r.db.WithContext(ctx).Create(a).Error
}

// GetByLoanID takes the numeric loans.id, not the public loan id.
func (r *ApprovalRepository) GetByLoanID(ctx context.Context, loanPK uint64) (*approval.Approval, error) {
	var a approval.Approval
	if err := r.db.WithContext(ctx).Where("loan_id = ?", loanPK).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *ApprovalRepository) CountSince(ctx context.Context, since time.Time) (map[approval.Decision]int64, error) {
	var rows []struct {
		Decision approval.Decision
		N        int64
	}
	err := r.db.WithContext(ctx).Model(&approval.Approval{}).
		Select("decision, COUNT(*) AS n").
		Where("approval_date >= ?", since.UTC()).
		Group("decision").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := map[approval.Decision]int64{approval.DecisionApproved: 0, approval.DecisionRejected: 0}
	for _, row := range rows {
		out[row.Decision] = row.N
	}
	return out, nil
}
