package user

import "context"

type ListFilter struct {
	Role   Role
	Status Status
	Limit  int
	Offset int
}

type Repository interface {
	Create(ctx context.Context, u *User) error
	Save(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uint64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	List(ctx context.Context, f ListFilter) ([]User, int64, error)
	CountByRole(ctx context.Context, role Role) (int64, error)
}
