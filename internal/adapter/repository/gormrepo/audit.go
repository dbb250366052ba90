package gormrepo

import (
	"context"

	"fanders-backend/internal/domain/audit"

	"gorm.io/gorm"
)

type AuditRepository struct{ db *gorm.DB }

func NewAuditRepository(db *gorm.DB) *AuditRepository { return &AuditRepository{db: db} }

func (r *AuditRepository) Create(ctx context.Context, e *audit.Entry) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *AuditRepository) List(ctx context.Context, f audit.ListFilter) ([]audit.Entry, int64, error) {
	filter := func(db *gorm.DB) *gorm.DB {
		if f.UserID != 0 {
			db = db.Where("user_id = ?", f.UserID)
		}
		if f.Entity != "" {
			db = db.Where("entity = ?", f.Entity)
		}
		if f.Action != "" {
			db = db.Where("action = ?", f.Action)
		}
		if !f.From.IsZero() {
			db = db.Where("created_at >= ?", f.From.UTC())
		}
		if !f.To.IsZero() {
			db = db.Where("created_at < ?", f.To.UTC())
		}
		return db
	}
	var total int64
	if err := r.db.WithContext(ctx).Model(&audit.Entry{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []audit.Entry
	err := r.db.WithContext(ctx).Scopes(filter, paginate(f.Limit, f.Offset)).Order("created_at DESC, id DESC").Find(&out).Error
	return out, total, err
}
