package gormrepo

import (
	"context"
	"time"

	"fanders-backend/internal/domain/blotter"

	"gorm.io/gorm"
)

type BlotterRepository struct{ db *gorm.DB }

func NewBlotterRepository(db *gorm.DB) *BlotterRepository { return &BlotterRepository{db: db} }

func (r *BlotterRepository) GetByDate(ctx context.Context, day time.Time) (*blotter.Blotter, error) {
	var out blotter.Blotter
	res := r.db.WithContext(ctx).Where("blotter_date = ?", blotter.Day(day)).First(&out)
	return &out, res.Error
}

func (r *BlotterRepository) LatestBefore(ctx context.Context, day time.Time) (*blotter.Blotter, error) {
	var out blotter.Blotter
	res := r.db.WithContext(ctx).
		Where("blotter_date < ?", blotter.Day(day)).
		Order("blotter_date DESC").
		First(&out)
	return &out, res.Error
}

func (r *BlotterRepository) Latest(ctx context.Context) (*blotter.Blotter, error) {
	var out blotter.Blotter
	res := r.db.WithContext(ctx).Order("blotter_date DESC").First(&out)
	return &out, res.Error
}

func (r *BlotterRepository) ListRange(ctx context.Context, from, to time.Time) ([]blotter.Blotter, error) {
	var out []blotter.Blotter
	err := r.db.WithContext(ctx).
		Where("blotter_date >= ? AND blotter_date <= ?", blotter.Day(from), blotter.Day(to)).
		Order("blotter_date ASC").
		Find(&out).Error
	return out, err
}

func (r *BlotterRepository) ListFrom(ctx context.Context, day time.Time) ([]blotter.Blotter, error) {
	var out []blotter.Blotter
	err := r.db.WithContext(ctx).
		Where("blotter_date >= ?", blotter.Day(day)).
		Order("blotter_date ASC").
		Find(&out).Error
	return out, err
}

func (r *BlotterRepository) Save(ctx context.Context, b *blotter.Blotter) error {
	b.BlotterDate = blotter.Day(b.BlotterDate)
	return r.db.WithContext(ctx).Save(b).Error
}
