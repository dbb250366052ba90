package gormrepo

import (
	"context"
	"strings"

	"fanders-backend/internal/domain/client"

	"gorm.io/gorm"
)

type ClientRepository struct{ db *gorm.DB }

func NewClientRepository(db *gorm.DB) *ClientRepository { return &ClientRepository{db: db} }

func (r *ClientRepository) Create(ctx context.Context, c *client.Client) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *ClientRepository) Save(ctx context.Context, c *client.Client) error {
	return r.db.WithContext(ctx).Save(c).Error
}

// Delete is a soft delete.
func (r *ClientRepository) Delete(ctx context.Context, c *client.Client) error {
	return r.db.WithContext(ctx).Delete(c).Error
}

func (r *ClientRepository) GetByID(ctx context.Context, id uint64) (*client.Client, error) {
	var out client.Client
	res := r.db.WithContext(ctx).Where("id = ?", id).First(&out)
	return &out, res.Error
}

func (r *ClientRepository) GetByClientID(ctx context.Context, clientID string) (*client.Client, error) {
	var out client.Client
	res := r.db.WithContext(ctx).Where("client_id = ?", clientID).First(&out)
	return &out, res.Error
}

func (r *ClientRepository) Taken(ctx context.Context, field client.UniqueField, value string, excludeID uint64) (bool, error) {
	switch field {
	case client.FieldPhone, client.FieldEmail, client.FieldIdentification:
	default:
		return false, gorm.ErrInvalidField
	}
	var n int64
	// unscoped: soft-deleted rows still hold the unique index
	q := r.db.WithContext(ctx).Unscoped().Model(&client.Client{}).Where(string(field)+" = ?", value)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	err := q.Count(&n).Error
	return n > 0, err
}

func (r *ClientRepository) List(ctx context.Context, f client.ListFilter) ([]client.Client, int64, error) {
	filter := func(db *gorm.DB) *gorm.DB {
		if f.Status != "" {
			db = db.Where("status = ?", f.Status)
		}
		if s := strings.TrimSpace(f.Search); s != "" {
			like := "%" + strings.ToLower(s) + "%"
			db = db.Where("LOWER(name) LIKE ? OR phone_number LIKE ? OR LOWER(email) LIKE ? OR identification_number LIKE ?",
				like, like, like, like)
		}
		return db
	}
	var total int64
	if err := r.db.WithContext(ctx).Model(&client.Client{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []client.Client
	err := r.db.WithContext(ctx).Scopes(filter, paginate(f.Limit, f.Offset)).Order("name ASC, id ASC").Find(&out).Error
	return out, total, err
}

func (r *ClientRepository) CountByStatus(ctx context.Context) (map[client.Status]int64, error) {
	var rows []groupCount
	err := r.db.WithContext(ctx).Model(&client.Client{}).
		Select("status AS label, COUNT(*) AS n").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[client.Status]int64, len(rows))
	for _, row := range rows {
		out[client.Status(row.Label)] = row.N
	}
	return out, nil
}
