package gormrepo

import (
	"context"
	"time"

	"fanders-backend/internal/domain/collection"

	"gorm.io/gorm"
)

type CollectionRepository struct{ db *gorm.DB }

func NewCollectionRepository(db *gorm.DB) *CollectionRepository {
	return &CollectionRepository{db: db}
}

func (r *CollectionRepository) Create(ctx context.Context, s *collection.Sheet) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *CollectionRepository) Save(ctx context.Context, s *collection.Sheet) error {
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *CollectionRepository) GetByID(ctx context.Context, id uint64) (*collection.Sheet, error) {
	var out collection.Sheet
	res := r.db.WithContext(ctx).Where("id = ?", id).First(&out)
	return &out, res.Error
}

func (r *CollectionRepository) GetByIDForUpdate(ctx context.Context, id uint64) (*collection.Sheet, error) {
	var out collection.Sheet
	res := r.db.WithContext(ctx).Scopes(forUpdate).Where("id = ?", id).First(&out)
	return &out, res.Error
}

func (r *CollectionRepository) FindByOfficerDate(ctx context.Context, officerID uint64, day time.Time) (*collection.Sheet, error) {
	var out collection.Sheet
	res := r.db.WithContext(ctx).
		Where("officer_id = ? AND collection_date = ?", officerID, day.UTC()).
		First(&out)
	return &out, res.Error
}

func (r *CollectionRepository) List(ctx context.Context, f collection.ListFilter) ([]collection.Sheet, int64, error) {
	filter := func(db *gorm.DB) *gorm.DB {
		if f.OfficerID != 0 {
			db = db.Where("officer_id = ?", f.OfficerID)
		}
		if f.Status != "" {
			db = db.Where("status = ?", f.Status)
		}
		if !f.From.IsZero() {
			db = db.Where("collection_date >= ?", f.From.UTC())
		}
		if !f.To.IsZero() {
			db = db.Where("collection_date <= ?", f.To.UTC())
		}
		return db
	}
	var total int64
	if err := r.db.WithContext(ctx).Model(&collection.Sheet{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []collection.Sheet
	err := r.db.WithContext(ctx).
		Scopes(filter, paginate(f.Limit, f.Offset)).
		Order("collection_date DESC, id DESC").
		Find(&out).Error
	return out, total, err
}

func (r *CollectionRepository) AddItem(ctx context.Context, it *collection.Item) error {
	return r.db.WithContext(ctx).Create(it).Error
}

func (r *CollectionRepository) SaveItem(ctx context.Context, it *collection.Item) error {
	return r.db.WithContext(ctx).Save(it).Error
}

func (r *CollectionRepository) GetItem(ctx context.Context, sheetID, itemID uint64) (*collection.Item, error) {
	var out collection.Item
	res := r.db.WithContext(ctx).Where("sheet_id = ? AND id = ?", sheetID, itemID).First(&out)
	return &out, res.Error
}

func (r *CollectionRepository) ListItems(ctx context.Context, sheetID uint64) ([]collection.Item, error) {
	var out []collection.Item
	err := r.db.WithContext(ctx).Where("sheet_id = ?", sheetID).Order("id ASC").Find(&out).Error
	return out, err
}
