package gormrepo

import (
	"context"

	"fanders-backend/internal/domain/slr"

	"gorm.io/gorm"
)

type SLRRepository struct{ db *gorm.DB }

func NewSLRRepository(db *gorm.DB) *SLRRepository { return &SLRRepository{db: db} }

func (r *SLRRepository) Create(ctx context.Context, d *slr.Document) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *SLRRepository) Save(ctx context.Context, d *slr.Document) error {
	return r.db.WithContext(ctx).Save(d).Error
}

func (r *SLRRepository) GetByID(ctx context.Context, id uint64) (*slr.Document, error) {
	var out slr.Document
	res := r.db.WithContext(ctx).Where("id = ?", id).First(&out)
	return &out, res.Error
}

func (r *SLRRepository) ActiveForLoan(ctx context.Context, loanID uint64) (*slr.Document, error) {
	var out slr.Document
	res := r.db.WithContext(ctx).
		Where("loan_id = ? AND status = ?", loanID, slr.StatusActive).
		Order("id DESC").
		First(&out)
	return &out, res.Error
}

func (r *SLRRepository) CountForLoan(ctx context.Context, loanID uint64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&slr.Document{}).Where("loan_id = ?", loanID).Count(&n).Error
	return n, err
}

func (r *SLRRepository) List(ctx context.Context, f slr.ListFilter) ([]slr.Document, int64, error) {
	filter := func(db *gorm.DB) *gorm.DB {
		if f.LoanID != 0 {
			db = db.Where("loan_id = ?", f.LoanID)
		}
		if f.Status != "" {
			db = db.Where("status = ?", f.Status)
		}
		if !f.From.IsZero() {
			db = db.Where("generated_at >= ?", f.From.UTC())
		}
		if !f.To.IsZero() {
			db = db.Where("generated_at < ?", f.To.UTC())
		}
		return db
	}
	var total int64
	if err := r.db.WithContext(ctx).Model(&slr.Document{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []slr.Document
	err := r.db.WithContext(ctx).Scopes(filter, paginate(f.Limit, f.Offset)).Order("id DESC").Find(&out).Error
	return out, total, err
}

func (r *SLRRepository) GetRule(ctx context.Context, trigger slr.Trigger) (*slr.Rule, error) {
	var out slr.Rule
	res := r.db.WithContext(ctx).Where("trigger_event = ?", trigger).First(&out)
	return &out, res.Error
}

func (r *SLRRepository) ListRules(ctx context.Context) ([]slr.Rule, error) {
	var out []slr.Rule
	err := r.db.WithContext(ctx).Order("id ASC").Find(&out).Error
	return out, err
}

func (r *SLRRepository) SaveRule(ctx context.Context, rule *slr.Rule) error {
	return r.db.WithContext(ctx).Save(rule).Error
}

func (r *SLRRepository) LogAccess(ctx context.Context, a *slr.AccessLog) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *SLRRepository) ListAccess(ctx context.Context, f slr.AccessFilter) ([]slr.AccessLog, int64, error) {
	filter := func(db *gorm.DB) *gorm.DB {
		if f.DocumentID != 0 {
			db = db.Where("slr_document_id = ?", f.DocumentID)
		}
		if f.UserID != 0 {
			db = db.Where("accessed_by = ?", f.UserID)
		}
		if f.Action != "" {
			db = db.Where("access_type = ?", f.Action)
		}
		return db
	}
	var total int64
	if err := r.db.WithContext(ctx).Model(&slr.AccessLog{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []slr.AccessLog
	err := r.db.WithContext(ctx).Scopes(filter, paginate(f.Limit, f.Offset)).Order("accessed_at DESC, id DESC").Find(&out).Error
	return out, total, err
}
