package blotter

import (
	"context"
	"time"
)

type Repository interface {
	GetByDate(ctx context.Context, day time.Time) (*Blotter, error)
	// LatestBefore returns the newest blotter dated strictly before day.
	LatestBefore(ctx context.Context, day time.Time) (*Blotter, error)
	Latest(ctx context.Context) (*Blotter, error)
	// ListRange returns blotters dated in [from, to], ascending.
	ListRange(ctx context.Context, from, to time.Time) ([]Blotter, error)
	// ListFrom returns every blotter dated on or after day, ascending.
	ListFrom(ctx context.Context, day time.Time) ([]Blotter, error)
	Save(ctx context.Context, b *Blotter) error
}
