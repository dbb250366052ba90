package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"fanders-backend/internal/domain/user"
)

type Claims struct {
	UserID   uint64    `json:"uid"`
	Username string    `json:"username"`
	Role     user.Role `json:"role"`
	jwt.RegisteredClaims
}

func (c *Claims) Actor() user.Actor {
	return user.Actor{ID: c.UserID, Username: c.Username, Role: c.Role}
}

type LoginInput struct {
	Username string `json:"username" validate:"required,max=50"`
	Password string `json:"password" validate:"required"`
}

type TokenDTO struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      user.User `json:"user"`
}

type CreateUserInput struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"omitempty,email,max=120"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required"`
}

type ChangePasswordInput struct {
	// Current is required when changing one's own password.
	Current  string `json:"current_password"`
	Password string `json:"password" validate:"required"`
}

type UserPage struct {
	Items []user.User `json:"items"`
	Total int64       `json:"total"`
}
