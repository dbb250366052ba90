package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"fanders-backend/internal/domain/apperr"
	"fanders-backend/internal/domain/user"
	"fanders-backend/internal/usecase/audit"
)

const minPasswordLen = 8

var ErrInvalidToken = fmt.Errorf("%w: invalid or expired token", apperr.ErrUnauthorized)

type Usecase struct {
	users  user.Repository
	secret []byte
	ttl    time.Duration
	issuer string
	audit  *audit.Recorder
	log    *logrus.Logger
	now    func() time.Time
}

func NewUsecase(users user.Repository, secret string, ttl time.Duration, rec *audit.Recorder, log *logrus.Logger) *Usecase {
	return &Usecase{
		users:  users,
		secret: []byte(secret),
		ttl:    ttl,
		issuer: "fanders-backend",
		audit:  rec,
		log:    log,
		now:    time.Now,
	}
}

func (u *Usecase) Login(ctx context.Context, in LoginInput) (*TokenDTO, error) {
	usr, err := u.users.GetByUsername(ctx, strings.TrimSpace(in.Username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(usr.PasswordHash), []byte(in.Password)) != nil {
		return nil, user.ErrInvalidCredentials
	}
	if !usr.IsActive() {
		return nil, user.ErrInactive
	}

	now := u.now().UTC()
	usr.LastLoginAt = &now
	if err := u.users.Save(ctx, usr); err != nil {
		return nil, err
	}

	token, exp, err := u.sign(usr, now)
	if err != nil {
		return nil, err
	}
	return &TokenDTO{Token: token, ExpiresAt: exp, User: *usr}, nil
}

func (u *Usecase) sign(usr *user.User, now time.Time) (string, time.Time, error) {
	exp := now.Add(u.ttl)
	claims := &Claims{
		UserID:   usr.ID,
		Username: usr.Username,
		Role:     usr.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(usr.ID, 10),
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    u.issuer,
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(u.secret)
	return token, exp, err
}

// Parse validates a bearer token and returns its claims.
func (u *Usecase) Parse(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return u.secret, nil
	}, jwt.WithIssuer(u.issuer), jwt.WithTimeFunc(u.now))
	if err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (u *Usecase) Me(ctx context.Context, actor user.Actor) (*user.User, error) {
	usr, err := u.users.GetByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrNotFound
		}
		return nil, err
	}
	return usr, nil
}

func (u *Usecase) CreateUser(ctx context.Context, actor user.Actor, in CreateUserInput) (*user.User, error) {
	if !user.CanManageStaff(actor.Role) {
		return nil, user.ErrNotAllowed
	}
	role := user.NormalizeRole(in.Role)
	if !role.Valid() {
		return nil, user.ErrInvalidRole
	}
	// only a super-admin may mint another super-admin
	if role == user.RoleSuperAdmin && actor.Role != user.RoleSuperAdmin {
		return nil, user.ErrNotAllowed
	}
	if len(in.Password) < minPasswordLen {
		return nil, user.ErrWeakPassword
	}
	username := strings.TrimSpace(in.Username)
	switch _, err := u.users.GetByUsername(ctx, username); {
	case err == nil:
		return nil, user.ErrUsernameTaken
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	usr := &user.User{
		Username:     username,
		Name:         strings.TrimSpace(in.Name),
		Email:        strings.TrimSpace(in.Email),
		PasswordHash: string(hash),
		Role:         role,
		Status:       user.StatusActive,
	}
	if err := u.users.Create(ctx, usr); err != nil {
		return nil, err
	}
	u.audit.Record(ctx, actor, "user", strconv.FormatUint(usr.ID, 10), "create", map[string]any{"role": role})
	return usr, nil
}

func (u *Usecase) ListUsers(ctx context.Context, actor user.Actor, f user.ListFilter) (*UserPage, error) {
	if !user.CanManageStaff(actor.Role) {
		return nil, user.ErrNotAllowed
	}
	items, total, err := u.users.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return &UserPage{Items: items, Total: total}, nil
}

func (u *Usecase) ChangePassword(ctx context.Context, actor user.Actor, targetID uint64, in ChangePasswordInput) error {
	target, err := u.users.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return user.ErrNotFound
		}
		return err
	}
	self := actor.ID == target.ID
	if !user.CanEditUserPassword(actor.Role, target.Role, self) {
		return user.ErrNotAllowed
	}
	if self && bcrypt.CompareHashAndPassword([]byte(target.PasswordHash), []byte(in.Current)) != nil {
		return user.ErrInvalidCredentials
	}
	if len(in.Password) < minPasswordLen {
		return user.ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	target.PasswordHash = string(hash)
	if err := u.users.Save(ctx, target); err != nil {
		return err
	}
	u.audit.Record(ctx, actor, "user", strconv.FormatUint(target.ID, 10), "change_password", nil)
	return nil
}

// SetStatus activates or deactivates a staff account. Nobody deactivates themselves.
func (u *Usecase) SetStatus(ctx context.Context, actor user.Actor, targetID uint64, status user.Status) (*user.User, error) {
	if !user.CanManageStaff(actor.Role) {
		return nil, user.ErrNotAllowed
	}
	if status != user.StatusActive && status != user.StatusInactive {
		return nil, fmt.Errorf("%w: unknown status %q", apperr.ErrValidation, status)
	}
	if actor.ID == targetID && status == user.StatusInactive {
		return nil, fmt.Errorf("%w: cannot deactivate your own account", apperr.ErrConflict)
	}
	target, err := u.users.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrNotFound
		}
		return nil, err
	}
	if target.Role == user.RoleSuperAdmin && actor.Role != user.RoleSuperAdmin {
		return nil, user.ErrNotAllowed
	}
	target.Status = status
	if err := u.users.Save(ctx, target); err != nil {
		return nil, err
	}
	u.audit.Record(ctx, actor, "user", strconv.FormatUint(target.ID, 10), "set_status", map[string]any{"status": status})
	return target, nil
}

// EnsureDefaultAdmin seeds a super-admin when none exists. It reports whether one was created.
func (u *Usecase) EnsureDefaultAdmin(ctx context.Context, username, password string) (bool, error) {
	n, err := u.users.CountByRole(ctx, user.RoleSuperAdmin)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	if len(password) < minPasswordLen {
		return false, user.ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, err
	}
	admin := &user.User{
		Username:     username,
		Name:         "Administrator",
		PasswordHash: string(hash),
		Role:         user.RoleSuperAdmin,
		Status:       user.StatusActive,
	}
	if err := u.users.Create(ctx, admin); err != nil {
		return false, err
	}
	u.log.WithField("username", username).Warn("auth: created default super-admin, change its password")
	return true, nil
}
