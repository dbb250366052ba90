package clientmock

import (
	"context"

	domain "fanders-backend/internal/domain/client"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
type Repo struct {
	CreateFn        func(ctx context.Context, c *domain.Client) error
	SaveFn          func(ctx context.Context, c *domain.Client) error
	DeleteFn        func(ctx context.Context, c *domain.Client) error
	GetByIDFn       func(ctx context.Context, id uint64) (*domain.Client, error)
	GetByClientIDFn func(ctx context.Context, clientID string) (*domain.Client, error)
	TakenFn         func(ctx context.Context, field domain.UniqueField, value string, excludeID uint64) (bool, error)
	ListFn          func(ctx context.Context, f domain.ListFilter) ([]domain.Client, int64, error)
	CountByStatusFn func(ctx context.Context) (map[domain.Status]int64, error)
}

func (m *Repo) Create(ctx context.Context, c *domain.Client) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, c)
	}
	return nil
}

func (m *Repo) Save(ctx context.Context, c *domain.Client) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, c)
	}
	return nil
}

func (m *Repo) Delete(ctx context.Context, c *domain.Client) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, c)
	}
	return nil
}

func (m *Repo) GetByID(ctx context.Context, id uint64) (*domain.Client, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByClientID(ctx context.Context, clientID string) (*domain.Client, error) {
	if m.GetByClientIDFn != nil {
		return m.GetByClientIDFn(ctx, clientID)
	}
	return nil, context.Canceled
}

// Taken defaults to "free".
func (m *Repo) Taken(ctx context.Context, field domain.UniqueField, value string, excludeID uint64) (bool, error) {
	if m.TakenFn != nil {
		return m.TakenFn(ctx, field, value, excludeID)
	}
	return false, nil
}

func (m *Repo) List(ctx context.Context, f domain.ListFilter) ([]domain.Client, int64, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, f)
	}
	return nil, 0, context.Canceled
}

func (m *Repo) CountByStatus(ctx context.Context) (map[domain.Status]int64, error) {
	if m.CountByStatusFn != nil {
		return m.CountByStatusFn(ctx)
	}
	return nil, context.Canceled
}
