package blotter

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"fanders-backend/internal/adapter/repository/gormrepo"
	domain "fanders-backend/internal/domain/blotter"
	"fanders-backend/internal/domain/payment"
	"fanders-backend/internal/domain/user"
	"fanders-backend/internal/infrastructure/logger"
	"fanders-backend/internal/testutil/testdb"
)

func setup(t *testing.T) (*Usecase, *gorm.DB) {
	t.Helper()
	db := testdb.Open(t)
	uc := NewUsecase(gormrepo.NewBlotterRepository(db), gormrepo.NewGormUoW(db), decimal.Zero, nil,
		logger.NewWithOutput(&bytes.Buffer{}, "debug", "text"))
	return uc, db
}

func pay(t *testing.T, db *gorm.DB, loanID, clientID uint64, week int, amount string, at time.Time) {
	t.Helper()
	p := &payment.Payment{
		LoanID: loanID, ClientID: clientID, Amount: decimal.RequireFromString(amount), WeekNumber: week,
		Method: payment.MethodCash, RecordedBy: 1, PaymentDate: at,
	}
	if err := gormrepo.NewPaymentRepository(db).Create(context.Background(), p); err != nil {
		t.Fatal(err)
	}
}

func TestForDate_ComputesFlows(t *testing.T) {
	uc, db := setup(t)
	ctx := context.Background()
	c := testdb.Client(t, db, "09171234567")
	l := testdb.ActiveLoan(t, db, c.ID, "6000", testdb.Day(2025, 3, 3).Add(9*time.Hour))
	pay(t, db, l.ID, c.ID, 1, "500", testdb.Day(2025, 3, 3).Add(15*time.Hour))
	pay(t, db, l.ID, c.ID, 2, "250.50", testdb.Day(2025, 3, 3).Add(16*time.Hour))
	pay(t, db, l.ID, c.ID, 3, "999", testdb.Day(2025, 3, 4))

	b, err := uc.ForDate(ctx, testdb.Day(2025, 3, 3).Add(12*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if b.TotalInflow.StringFixed(2) != "750.50" || b.TotalOutflow.StringFixed(2) != "6000.00" || b.PaymentCount != 2 {
		t.Fatalf("flows %+v", b)
	}
	if b.ClosingBalance.StringFixed(2) != "-5249.50" {
		t.Fatalf("closing %s", b.ClosingBalance)
	}
}

func TestRecalculateFrom_ChainsOpeningBalances(t *testing.T) {
	uc, db := setup(t)
	ctx := context.Background()
	c := testdb.Client(t, db, "09171234567")
	l := testdb.ActiveLoan(t, db, c.ID, "6000", testdb.Day(2025, 2, 1))
	pay(t, db, l.ID, c.ID, 1, "100", testdb.Day(2025, 3, 1))
	pay(t, db, l.ID, c.ID, 2, "200", testdb.Day(2025, 3, 2))
	pay(t, db, l.ID, c.ID, 3, "300", testdb.Day(2025, 3, 3))

	for _, d := range []int{1, 2, 3} {
		if _, err := uc.ForDate(ctx, testdb.Day(2025, 3, d)); err != nil {
			t.Fatal(err)
		}
	}
	// a late payment on day 1 must roll forward into days 2 and 3
	pay(t, db, l.ID, c.ID, 4, "1000", testdb.Day(2025, 3, 1).Add(20*time.Hour))
	if err := uc.RecalculateFrom(ctx, testdb.Day(2025, 3, 1)); err != nil {
		t.Fatal(err)
	}

	days, err := uc.Range(ctx, testdb.Day(2025, 3, 1), testdb.Day(2025, 3, 3))
	if err != nil || len(days) != 3 {
		t.Fatalf("range: %v %d", err, len(days))
	}
	want := []string{"1100.00", "1300.00", "1600.00"}
	for i, d := range days {
		if d.ClosingBalance.StringFixed(2) != want[i] {
			t.Fatalf("day %d closing %s, want %s", i+1, d.ClosingBalance, want[i])
		}
		if i > 0 && !d.OpeningBalance.Equal(days[i-1].ClosingBalance) {
			t.Fatalf("day %d opening %s does not chain", i+1, d.OpeningBalance)
		}
	}

	bal, err := uc.CurrentBalance(ctx)
	if err != nil || bal.Balance.StringFixed(2) != "1600.00" || !bal.AsOf.Equal(testdb.Day(2025, 3, 3)) {
		t.Fatalf("current balance %v %+v", err, bal)
	}

	sum, err := uc.Summary(ctx, testdb.Day(2025, 3, 1), testdb.Day(2025, 3, 3))
	if err != nil || sum.TotalInflow.StringFixed(2) != "1600.00" || sum.AverageInflow.StringFixed(2) != "533.33" {
		t.Fatalf("summary %v %+v", err, sum)
	}

	alerts, err := uc.Alerts(ctx, testdb.Day(2025, 3, 1), testdb.Day(2025, 3, 3), decimal.NewFromInt(1500))
	if err != nil || len(alerts) != 2 || alerts[0].Level != domain.AlertLow {
		t.Fatalf("alerts %v %+v", err, alerts)
	}
	if alerts, _ := uc.Alerts(ctx, testdb.Day(2025, 3, 1), testdb.Day(2025, 3, 3), decimal.Zero); len(alerts) != 0 {
		t.Fatalf("default threshold 1000 should not flag: %+v", alerts)
	}
}

func TestRangeValidationAndEmptyBalance(t *testing.T) {
	uc, _ := setup(t)
	ctx := context.Background()
	if _, err := uc.Range(ctx, testdb.Day(2025, 3, 2), testdb.Day(2025, 3, 1)); !errors.Is(err, domain.ErrInvalidRange) {
		t.Fatalf("inverted range: %v", err)
	}
	bal, err := uc.CurrentBalance(ctx)
	if err != nil || !bal.Balance.IsZero() || bal.AsOf != nil {
		t.Fatalf("empty balance %v %+v", err, bal)
	}
}

func TestRecalculateAndRefreshToday(t *testing.T) {
	uc, _ := setup(t)
	uc.now = func() time.Time { return time.Date(2025, 4, 2, 18, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	if err := uc.RefreshToday(ctx); err != nil {
		t.Fatal(err)
	}
	b, err := uc.Recalculate(ctx, user.System, testdb.Day(2025, 4, 2))
	if err != nil || !b.BlotterDate.Equal(testdb.Day(2025, 4, 2)) || !b.ClosingBalance.IsZero() {
		t.Fatalf("recalculate %v %+v", err, b)
	}
}
