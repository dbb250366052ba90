package client

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"fanders-backend/internal/domain/apperr"
	domain "fanders-backend/internal/domain/client"
	"fanders-backend/internal/domain/loan"
	"fanders-backend/internal/domain/user"
	"fanders-backend/internal/usecase/audit"
	"fanders-backend/pkg/id"
)

const (
	optionsKey = "clients:options"
	statsKey   = "clients:stats"

	optionsTTL = 10 * time.Minute
	statsTTL   = 5 * time.Minute

	// clients never carry more loans than this in the detail view
	detailLoanLimit = 100
)

var rePhone = regexp.MustCompile(`^\+?[0-9]{8,15}$`)

// Cache is the slice of infrastructure/cache.JSON this workflow needs.
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type Usecase struct {
	clients domain.Repository
	loans   loan.Repository
	cache   Cache
	audit   *audit.Recorder
	log     *logrus.Logger
	now     func() time.Time
}

// NewUsecase accepts a nil cache; Options and Stats then always hit the database.
func NewUsecase(clients domain.Repository, loans loan.Repository, c Cache, rec *audit.Recorder, log *logrus.Logger) *Usecase {
	return &Usecase{clients: clients, loans: loans, cache: c, audit: rec, log: log, now: time.Now}
}

func (u *Usecase) Create(ctx context.Context, actor user.Actor, in CreateInput) (*domain.Client, error) {
	if !user.CanManageClients(actor.Role) {
		return nil, user.ErrNotAllowed
	}
	c := &domain.Client{ClientID: id.NewID32(), Status: domain.StatusActive}
	if err := u.apply(ctx, c, in); err != nil {
		return nil, err
	}
	if err := u.clients.Create(ctx, c); err != nil {
		return nil, err
	}
	u.invalidate(ctx)
	u.audit.Record(ctx, actor, "client", c.ClientID, "create", map[string]any{"name": c.Name})
	return c, nil
}

func (u *Usecase) Update(ctx context.Context, actor user.Actor, clientID string, in UpdateInput) (*domain.Client, error) {
	if !user.CanManageClients(actor.Role) {
		return nil, user.ErrNotAllowed
	}
	c, err := u.find(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if err := u.apply(ctx, c, in); err != nil {
		return nil, err
	}
	if err := u.clients.Save(ctx, c); err != nil {
		return nil, err
	}
	u.invalidate(ctx)
	u.audit.Record(ctx, actor, "client", c.ClientID, "update", nil)
	return c, nil
}

// apply validates in and copies it onto c. Uniqueness checks exclude c itself.
func (u *Usecase) apply(ctx context.Context, c *domain.Client, in CreateInput) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return fmt.Errorf("%w: name is required", apperr.ErrValidation)
	}
	phone := normalizePhone(in.Phone)
	if !rePhone.MatchString(phone) {
		return fmt.Errorf("%w: phone number must have 8 to 15 digits", apperr.ErrValidation)
	}
	idNumber := strings.TrimSpace(in.IdentificationNumber)
	if idNumber == "" {
		return fmt.Errorf("%w: identification number is required", apperr.ErrValidation)
	}
	if in.DateOfBirth != nil {
		probe := domain.Client{DateOfBirth: in.DateOfBirth}
		if probe.AgeOn(u.now()) < domain.MinimumAge {
			return domain.ErrUnderage
		}
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))

	checks := []struct {
		field domain.UniqueField
		value string
		err   error
	}{
		{domain.FieldPhone, phone, domain.ErrDuplicatePhone},
		{domain.FieldEmail, email, domain.ErrDuplicateEmail},
		{domain.FieldIdentification, idNumber, domain.ErrDuplicateIdentification},
	}
	for _, chk := range checks {
		if chk.value == "" {
			continue
		}
		taken, err := u.clients.Taken(ctx, chk.field, chk.value, c.ID)
		if err != nil {
			return err
		}
		if taken {
			return chk.err
		}
	}

	c.Name = name
	c.Phone = phone
	c.Email = nil
	if email != "" {
		c.Email = &email
	}
	c.Address = strings.TrimSpace(in.Address)
	c.IdentificationType = strings.TrimSpace(in.IdentificationType)
	c.IdentificationNumber = idNumber
	c.DateOfBirth = in.DateOfBirth
	return nil
}

func normalizePhone(s string) string {
	return strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(strings.TrimSpace(s))
}

func (u *Usecase) find(ctx context.Context, clientID string) (*domain.Client, error) {
	c, err := u.clients.GetByClientID(ctx, clientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

// Get returns the client with a summary of their loans.
func (u *Usecase) Get(ctx context.Context, clientID string) (*Detail, error) {
	c, err := u.find(ctx, clientID)
	if err != nil {
		return nil, err
	}
	loans, total, err := u.loans.List(ctx, loan.ListFilter{ClientID: c.ID, Limit: detailLoanLimit})
	if err != nil {
		return nil, err
	}
	sum := LoanSummary{Total: total, ByState: map[loan.State]int64{}, TotalPrincipal: decimal.Zero, Loans: loans}
	for _, l := range loans {
		sum.ByState[l.State]++
		sum.TotalPrincipal = sum.TotalPrincipal.Add(l.Principal)
		for _, s := range loan.OpenStates {
			if l.State == s {
				sum.HasOpenLoan = true
			}
		}
	}
	d := &Detail{Client: *c, Loans: sum}
	if age := c.AgeOn(u.now()); age >= 0 {
		d.Age = age
	}
	return d, nil
}

func (u *Usecase) List(ctx context.Context, in ListInput) (*Page, error) {
	f := domain.ListFilter{Search: in.Search, Limit: in.Limit, Offset: in.Offset}
	if in.Status != "" {
		f.Status = domain.Status(strings.ToLower(in.Status))
		if !f.Status.Valid() {
			return nil, domain.ErrInvalidStatus
		}
	}
	items, total, err := u.clients.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return &Page{Items: items, Total: total}, nil
}

// ChangeStatus activates, deactivates or blacklists a client.
func (u *Usecase) ChangeStatus(ctx context.Context, actor user.Actor, clientID string, status domain.Status) (*domain.Client, error) {
	if !user.CanManageClients(actor.Role) {
		return nil, user.ErrNotAllowed
	}
	if !status.Valid() {
		return nil, domain.ErrInvalidStatus
	}
	c, err := u.find(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if c.Status == status {
		return c, nil
	}
	prev := c.Status
	c.Status = status
	if err := u.clients.Save(ctx, c); err != nil {
		return nil, err
	}
	u.invalidate(ctx)
	u.audit.Record(ctx, actor, "client", c.ClientID, "status", map[string]any{"from": prev, "to": status})
	return c, nil
}

// Delete soft-deletes a client that has no application, approved or active loan.
func (u *Usecase) Delete(ctx context.Context, actor user.Actor, clientID string) error {
	if !user.CanManageClients(actor.Role) {
		return user.ErrNotAllowed
	}
	c, err := u.find(ctx, clientID)
	if err != nil {
		return err
	}
	open, err := u.loans.CountByClient(ctx, c.ID, loan.OpenStates...)
	if err != nil {
		return err
	}
	if open > 0 {
		return fmt.Errorf("%w (%d); complete or close them before deleting the client", domain.ErrHasOpenLoans, open)
	}
	if err := u.clients.Delete(ctx, c); err != nil {
		return err
	}
	u.invalidate(ctx)
	u.audit.Record(ctx, actor, "client", c.ClientID, "delete", map[string]any{"name": c.Name})
	return nil
}

// Options lists active clients for pickers.
func (u *Usecase) Options(ctx context.Context) ([]Option, error) {
	var out []Option
	if u.cached(ctx, optionsKey, &out) {
		return out, nil
	}
	items, _, err := u.clients.List(ctx, domain.ListFilter{Status: domain.StatusActive, Limit: 1000})
	if err != nil {
		return nil, err
	}
	out = make([]Option, 0, len(items))
	for _, c := range items {
		out = append(out, Option{ClientID: c.ClientID, Name: c.Name, Phone: c.Phone})
	}
	u.store(ctx, optionsKey, out, optionsTTL)
	return out, nil
}

func (u *Usecase) Stats(ctx context.Context) (*Stats, error) {
	var out Stats
	if u.cached(ctx, statsKey, &out) {
		return &out, nil
	}
	counts, err := u.clients.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	out = Stats{
		Active:      counts[domain.StatusActive],
		Inactive:    counts[domain.StatusInactive],
		Blacklisted: counts[domain.StatusBlacklisted],
	}
	out.Total = out.Active + out.Inactive + out.Blacklisted
	u.store(ctx, statsKey, out, statsTTL)
	return &out, nil
}

func (u *Usecase) cached(ctx context.Context, key string, dst any) bool {
	if u.cache == nil {
		return false
	}
	hit, err := u.cache.Get(ctx, key, dst)
	if err != nil {
		u.log.WithError(err).WithField("key", key).Warn("client: cache read failed")
		return false
	}
	return hit
}

func (u *Usecase) store(ctx context.Context, key string, v any, ttl time.Duration) {
	if u.cache == nil {
		return
	}
	if err := u.cache.Set(ctx, key, v, ttl); err != nil {
		u.log.WithError(err).WithField("key", key).Warn("client: cache write failed")
	}
}

func (u *Usecase) invalidate(ctx context.Context) {
	if u.cache == nil {
		return
	}
	if err := u.cache.Delete(ctx, optionsKey, statsKey); err != nil {
		u.log.WithError(err).Warn("client: cache invalidation failed")
	}
}
