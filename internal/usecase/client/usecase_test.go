package client

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"fanders-backend/internal/adapter/repository/gormrepo"
	"fanders-backend/internal/domain/apperr"
	domain "fanders-backend/internal/domain/client"
	"fanders-backend/internal/domain/user"
	"fanders-backend/internal/infrastructure/cache"
	"fanders-backend/internal/infrastructure/logger"
	"fanders-backend/internal/testutil/clientmock"
	"fanders-backend/internal/testutil/testdb"
)

var officer = user.Actor{ID: 3, Username: "ao", Role: user.RoleAccountOfficer}

func setup(t *testing.T) (*Usecase, *miniredis.Miniredis) {
	t.Helper()
	db := testdb.Open(t)
	s := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	log := logger.NewWithOutput(&bytes.Buffer{}, "info", "text")
	uc := NewUsecase(gormrepo.NewClientRepository(db), gormrepo.NewLoanRepository(db), cache.NewJSON(rdb, "t:"), nil, log)
	uc.now = func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }
	return uc, s
}

func input(phone, idNo string) CreateInput {
	dob := time.Date(1990, 1, 2, 0, 0, 0, 0, time.UTC)
	return CreateInput{
		Name: "Maria Santos", Phone: phone, Address: "Brgy. 1",
		IdentificationType: "national-id", IdentificationNumber: idNo, DateOfBirth: &dob,
	}
}

func TestCreate_Validation(t *testing.T) {
	uc, _ := setup(t)
	ctx := context.Background()

	minor := input("09171234567", "N-1")
	dob := time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC)
	minor.DateOfBirth = &dob

	cases := []struct {
		name string
		in   CreateInput
		want error
	}{
		{"short phone", input("12345", "N-1"), apperr.ErrValidation},
		{"no id number", input("09171234567", " "), apperr.ErrValidation},
		{"underage", minor, domain.ErrUnderage},
	}
	for _, tc := range cases {
		if _, err := uc.Create(ctx, officer, tc.in); !errors.Is(err, tc.want) {
			t.Fatalf("%s: want %v, got %v", tc.name, tc.want, err)
		}
	}
	if _, err := uc.Create(ctx, user.Actor{Role: user.RoleClient}, input("09171234567", "N-1")); !errors.Is(err, user.ErrNotAllowed) {
		t.Fatalf("client role: %v", err)
	}
}

func TestCreate_Duplicates(t *testing.T) {
	uc, _ := setup(t)
	ctx := context.Background()

	first, err := uc.Create(ctx, officer, input("0917-123-4567", "N-1"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if first.Phone != "09171234567" || len(first.ClientID) != 32 {
		t.Fatalf("unexpected client %+v", first)
	}
	if _, err := uc.Create(ctx, officer, input("09171234567", "N-2")); !errors.Is(err, domain.ErrDuplicatePhone) {
		t.Fatalf("dup phone: %v", err)
	}
	if _, err := uc.Create(ctx, officer, input("09170000000", "N-1")); !errors.Is(err, domain.ErrDuplicateIdentification) {
		t.Fatalf("dup id: %v", err)
	}

	// updating a client with its own values is not a duplicate
	in := input("09171234567", "N-1")
	in.Name = "Maria S. Cruz"
	got, err := uc.Update(ctx, officer, first.ClientID, in)
	if err != nil || got.Name != "Maria S. Cruz" {
		t.Fatalf("update: %v %+v", err, got)
	}
}

func TestDelete_BlockedByOpenLoan(t *testing.T) {
	db := testdb.Open(t)
	log := logger.NewWithOutput(&bytes.Buffer{}, "info", "text")
	uc := NewUsecase(gormrepo.NewClientRepository(db), gormrepo.NewLoanRepository(db), nil, nil, log)
	ctx := context.Background()

	c := testdb.Client(t, db, "09171112222")
	testdb.Loan(t, db, c.ID, "10000", testdb.Day(2025, 1, 6))

	if err := uc.Delete(ctx, officer, c.ClientID); !errors.Is(err, domain.ErrHasOpenLoans) {
		t.Fatalf("want open-loan conflict, got %v", err)
	}

	d, err := uc.Get(ctx, c.ClientID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if d.Loans.Total != 1 || !d.Loans.HasOpenLoan || d.Loans.TotalPrincipal.StringFixed(2) != "10000.00" {
		t.Fatalf("summary = %+v", d.Loans)
	}

	other := testdb.Client(t, db, "09173334444")
	if err := uc.Delete(ctx, officer, other.ClientID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := uc.Get(ctx, other.ClientID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("deleted client still visible: %v", err)
	}
}

func TestStats_CachedAndInvalidated(t *testing.T) {
	uc, s := setup(t)
	ctx := context.Background()

	c, err := uc.Create(ctx, officer, input("09171234567", "N-1"))
	if err != nil {
		t.Fatal(err)
	}
	st, err := uc.Stats(ctx)
	if err != nil || st.Total != 1 || st.Active != 1 {
		t.Fatalf("stats: %v %+v", err, st)
	}
	if !s.Exists("t:clients:stats") {
		t.Fatal("stats not cached")
	}
	if _, err := uc.Options(ctx); err != nil || !s.Exists("t:clients:options") {
		t.Fatalf("options not cached: %v", err)
	}
	if ttl := s.TTL("t:clients:options"); ttl != optionsTTL {
		t.Fatalf("options ttl = %v", ttl)
	}

	if _, err := uc.ChangeStatus(ctx, officer, c.ClientID, domain.StatusBlacklisted); err != nil {
		t.Fatal(err)
	}
	if s.Exists("t:clients:stats") || s.Exists("t:clients:options") {
		t.Fatal("mutation did not invalidate the cache")
	}
	st, _ = uc.Stats(ctx)
	if st.Blacklisted != 1 || st.Active != 0 {
		t.Fatalf("stale stats %+v", st)
	}
	opts, _ := uc.Options(ctx)
	if len(opts) != 0 {
		t.Fatalf("blacklisted client offered: %+v", opts)
	}
}

func TestStats_ServedFromCache(t *testing.T) {
	calls := 0
	repo := &clientmock.Repo{
		CountByStatusFn: func(context.Context) (map[domain.Status]int64, error) {
			calls++
			return map[domain.Status]int64{domain.StatusActive: 2}, nil
		},
	}
	s := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	uc := NewUsecase(repo, nil, cache.NewJSON(rdb, ""), nil, logger.NewWithOutput(&bytes.Buffer{}, "info", "text"))

	for i := 0; i < 3; i++ {
		st, err := uc.Stats(context.Background())
		if err != nil || st.Total != 2 {
			t.Fatalf("stats: %v %+v", err, st)
		}
	}
	if calls != 1 {
		t.Fatalf("repository hit %d times", calls)
	}
}

func TestList_RejectsUnknownStatus(t *testing.T) {
	uc := NewUsecase(&clientmock.Repo{}, nil, nil, nil, nil)
	if _, err := uc.List(context.Background(), ListInput{Status: "archived"}); !errors.Is(err, domain.ErrInvalidStatus) {
		t.Fatalf("got %v", err)
	}
}
