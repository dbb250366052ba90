package gormrepo

import (
	"context"

	"fanders-backend/internal/domain/user"

	"gorm.io/gorm"
)

type UserRepository struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) *UserRepository { return &UserRepository{db: db} }

func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *UserRepository) Save(ctx context.Context, u *user.User) error {
	return r.db.WithContext(ctx).Save(u).Error
}

func (r *UserRepository) GetByID(ctx context.Context, id uint64) (*user.User, error) {
	var out user.User
	res := r.db.WithContext(ctx).Where("id = ?", id).First(&out)
	return &out, res.Error
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	var out user.User
	res := r.db.WithContext(ctx).Where("username = ?", username).First(&out)
	return &out, res.Error
}

func (r *UserRepository) List(ctx context.Context, f user.ListFilter) ([]user.User, int64, error) {
	filter := func(db *gorm.DB) *gorm.DB {
		if f.Role != "" {
			db = db.Where("role = ?", f.Role)
		}
		if f.Status != "" {
			db = db.Where("status = ?", f.Status)
		}
		return db
	}
	var total int64
	if err := r.db.WithContext(ctx).Model(&user.User{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []user.User
	err := r.db.WithContext(ctx).Scopes(filter, paginate(f.Limit, f.Offset)).Order("name ASC, id ASC").Find(&out).Error
	return out, total, err
}

func (r *UserRepository) CountByRole(ctx context.Context, role user.Role) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&user.User{}).Where("role = ?", role).Count(&n).Error
	return n, err
}
