package client

import "context"

type ListFilter struct {
	Status Status
	// Search matches name, phone, email or identification number.
	Search string
	Limit  int
	Offset int
}

// UniqueField names a column that must not repeat across clients.
type UniqueField string

const (
	FieldPhone          UniqueField = "phone_number"
	FieldEmail          UniqueField = "email"
	FieldIdentification UniqueField = "identification_number"
)

type Repository interface {
	Create(ctx context.Context, c *Client) error
	Save(ctx context.Context, c *Client) error
	Delete(ctx context.Context, c *Client) error
	GetByID(ctx context.Context, id uint64) (*Client, error)
	GetByClientID(ctx context.Context, clientID string) (*Client, error)
	// Taken reports whether another client (id != excludeID) already uses value in field.
	Taken(ctx context.Context, field UniqueField, value string, excludeID uint64) (bool, error)
	List(ctx context.Context, f ListFilter) ([]Client, int64, error)
	CountByStatus(ctx context.Context) (map[Status]int64, error)
}
