package collection

import (
	"context"
	"time"
)

type ListFilter struct {
	OfficerID uint64
	Status    Status
	From, To  time.Time
	Limit     int
	Offset    int
}

type Repository interface {
	Create(ctx context.Context, s *Sheet) error
	Save(ctx context.Context, s *Sheet) error
	GetByID(ctx context.Context, id uint64) (*Sheet, error)
	GetByIDForUpdate(ctx context.Context, id uint64) (*Sheet, error)
	FindByOfficerDate(ctx context.Context, officerID uint64, day time.Time) (*Sheet, error)
	List(ctx context.Context, f ListFilter) ([]Sheet, int64, error)

	AddItem(ctx context.Context, it *Item) error
	SaveItem(ctx context.Context, it *Item) error
	GetItem(ctx context.Context, sheetID, itemID uint64) (*Item, error)
	ListItems(ctx context.Context, sheetID uint64) ([]Item, error)
}
