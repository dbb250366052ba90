package audit

import (
	"context"
	"time"
)

// Table: audit_logs
type Entry struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UserID    uint64    `gorm:"column:user_id;index" json:"user_id"`
	Entity    string    `gorm:"column:entity;size:40;not null;index:idx_audit_entity" json:"entity"`
	EntityID  string    `gorm:"column:entity_id;size:40;index:idx_audit_entity" json:"entity_id"`
	Action    string    `gorm:"column:action;size:40;not null" json:"action"`
	Details   string    `gorm:"column:details;type:text" json:"details,omitempty"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime;index" json:"created_at"`
}

func (Entry) TableName() string { return "audit_logs" }

type ListFilter struct {
	UserID uint64
	Entity string
	Action string
	From   time.Time
	To     time.Time
	Limit  int
	Offset int
}

type Repository interface {
	Create(ctx context.Context, e *Entry) error
	List(ctx context.Context, f ListFilter) ([]Entry, int64, error)
}
