package client

import (
	"fmt"
	"time"

	"fanders-backend/internal/domain/apperr"

	"gorm.io/gorm"
)

var (
	ErrNotFound                = fmt.Errorf("%w: client not found", apperr.ErrNotFound)
	ErrDuplicatePhone          = fmt.Errorf("%w: phone number already registered", apperr.ErrConflict)
	ErrDuplicateEmail          = fmt.Errorf("%w: email already registered", apperr.ErrConflict)
	ErrDuplicateIdentification = fmt.Errorf("%w: identification number already registered", apperr.ErrConflict)
	ErrHasOpenLoans            = fmt.Errorf("%w: client has open loans", apperr.ErrConflict)
	ErrUnderage                = fmt.Errorf("%w: client must be at least 18 years old", apperr.ErrValidation)
	ErrInvalidStatus           = fmt.Errorf("%w: unknown client status", apperr.ErrValidation)
)

// MinimumAge in whole years at registration.
const MinimumAge = 18

type Status string

const (
	StatusActive      Status = "active"
	StatusInactive    Status = "inactive"
	StatusBlacklisted Status = "blacklisted"
)

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive || s == StatusBlacklisted
}

// Table: clients
type Client struct {
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	// Public identifier (32-char lowercase hex)
	ClientID             string         `gorm:"column:client_id;size:32;not null;uniqueIndex:ux_clients_client_id" json:"client_id"`
	Name                 string         `gorm:"column:name;size:150;not null;index" json:"name"`
	Email                *string        `gorm:"column:email;size:150;uniqueIndex:ux_clients_email" json:"email,omitempty"`
	Phone                string         `gorm:"column:phone_number;size:20;not null;uniqueIndex:ux_clients_phone" json:"phone_number"`
	Address              string         `gorm:"column:address;type:text" json:"address"`
	IdentificationType   string         `gorm:"column:identification_type;size:40" json:"identification_type"`
	IdentificationNumber string         `gorm:"column:identification_number;size:60;uniqueIndex:ux_clients_identification" json:"identification_number"`
	DateOfBirth          *time.Time     `gorm:"column:date_of_birth" json:"date_of_birth,omitempty"`
	Status               Status         `gorm:"column:status;size:20;not null;default:active;index" json:"status"`
	CreatedAt            time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
	DeletedAt            gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}

func (Client) TableName() string { return "clients" }

func (c *Client) IsActive() bool { return c.Status == StatusActive }

// AgeOn returns the client's age in whole years on day, or -1 when the birth date is unknown.
func (c *Client) AgeOn(day time.Time) int {
	if c.DateOfBirth == nil {
		return -1
	}
	dob := c.DateOfBirth.UTC()
	day = day.UTC()
	age := day.Year() - dob.Year()
	if day.Month() < dob.Month() || (day.Month() == dob.Month() && day.Day() < dob.Day()) {
		age--
	}
	return age
}
