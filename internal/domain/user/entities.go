package user

import (
	"fmt"
	"time"

	"fanders-backend/internal/domain/apperr"

	"gorm.io/gorm"
)

var (
	ErrNotFound           = fmt.Errorf("%w: user not found", apperr.ErrNotFound)
	ErrUsernameTaken      = fmt.Errorf("%w: username already taken", apperr.ErrConflict)
	ErrInvalidCredentials = fmt.Errorf("%w: invalid username or password", apperr.ErrUnauthorized)
	ErrInactive           = fmt.Errorf("%w: account is not active", apperr.ErrUnauthorized)
	ErrInvalidRole        = fmt.Errorf("%w: unknown role", apperr.ErrValidation)
	ErrWeakPassword       = fmt.Errorf("%w: password must be at least 8 characters", apperr.ErrValidation)
	ErrNotAllowed         = fmt.Errorf("%w: not allowed for this role", apperr.ErrForbidden)
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Table: users
type User struct {
	ID           uint64         `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Username     string         `gorm:"column:username;size:50;not null;uniqueIndex:ux_users_username" json:"username"`
	Name         string         `gorm:"column:name;size:120;not null" json:"name"`
	Email        string         `gorm:"column:email;size:120" json:"email"`
	PasswordHash string         `gorm:"column:password_hash;size:100;not null" json:"-"`
	Role         Role           `gorm:"column:role;size:20;not null;index" json:"role"`
	Status       Status         `gorm:"column:status;size:20;not null;default:active" json:"status"`
	LastLoginAt  *time.Time     `gorm:"column:last_login_at" json:"last_login_at,omitempty"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}

func (User) TableName() string { return "users" }

func (u *User) IsActive() bool { return u.Status == StatusActive }

// Actor is the authenticated caller of a workflow.
type Actor struct {
	ID       uint64
	Username string
	Role     Role
}

// System acts for scheduled jobs and boot-time seeding.
var System = Actor{Username: "system", Role: RoleSuperAdmin}
