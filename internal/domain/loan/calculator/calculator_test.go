package calculator

import (
	"errors"
	"testing"
	"time"

	"fanders-backend/internal/domain/apperr"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sumExpected(r *Result) decimal.Decimal {
	total := decimal.Zero
	for _, in := range r.PaymentSchedule {
		total = total.Add(in.ExpectedPayment)
	}
	return total
}

func TestCalculate_Examples(t *testing.T) {
	tests := []struct {
		name                         string
		principal                    string
		weeks, months                int
		wantInterest, wantSavings    string
		wantTotal, wantWeekly        string
	}{
		{"standard 17 weeks", "25000", 17, 4, "5000", "250", "30675", "1804.41"},
		{"13 weeks", "15000", 13, 3, "2250", "150", "17825", "1371.15"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Calculate(Input{Principal: d(tt.principal), TermWeeks: tt.weeks, TermMonths: tt.months})
			if err != nil {
				t.Fatalf("Calculate err: %v", err)
			}
			if !r.TotalInterest.Equal(d(tt.wantInterest)) {
				t.Fatalf("interest = %s, want %s", r.TotalInterest, tt.wantInterest)
			}
			if !r.SavingsDeduction.Equal(d(tt.wantSavings)) {
				t.Fatalf("savings = %s, want %s", r.SavingsDeduction, tt.wantSavings)
			}
			if !r.TotalLoanAmount.Equal(d(tt.wantTotal)) {
				t.Fatalf("total = %s, want %s", r.TotalLoanAmount, tt.wantTotal)
			}
			if !r.WeeklyPaymentBase.Equal(d(tt.wantWeekly)) {
				t.Fatalf("weekly = %s, want %s", r.WeeklyPaymentBase, tt.wantWeekly)
			}
			if got := sumExpected(r); !got.Equal(d(tt.wantTotal)) {
				t.Fatalf("schedule sums to %s, want %s", got, tt.wantTotal)
			}
			if !r.InsuranceFee.Equal(d("425")) {
				t.Fatalf("insurance = %s", r.InsuranceFee)
			}
		})
	}
}

func TestCalculate_LastWeekAbsorbsDrift(t *testing.T) {
	r, err := Calculate(Input{Principal: d("25000"), TermWeeks: 17, TermMonths: 4})
	if err != nil {
		t.Fatal(err)
	}
	for _, in := range r.PaymentSchedule[:16] {
		if !in.ExpectedPayment.Equal(d("1804.41")) {
			t.Fatalf("week %d = %s, want 1804.41", in.Week, in.ExpectedPayment)
		}
	}
	if last := r.PaymentSchedule[16]; last.Week != 17 || !last.ExpectedPayment.Equal(d("1804.44")) {
		t.Fatalf("last installment = %+v", last)
	}
}

func TestCalculate_InvariantsAcrossGrid(t *testing.T) {
	for _, p := range []string{"5000", "7333.33", "12345.67", "25000", "49999.99", "50000"} {
		for weeks := 4; weeks <= 52; weeks++ {
			r, err := Calculate(Input{Principal: d(p), TermWeeks: weeks})
			if err != nil {
				t.Fatalf("principal=%s weeks=%d: %v", p, weeks, err)
			}
			if len(r.PaymentSchedule) != weeks {
				t.Fatalf("schedule len = %d, want %d", len(r.PaymentSchedule), weeks)
			}
			parts := r.Principal.Add(r.TotalInterest).Add(r.InsuranceFee).Add(r.SavingsDeduction)
			if !parts.Equal(r.TotalLoanAmount) {
				t.Fatalf("components %s != total %s", parts, r.TotalLoanAmount)
			}
			if got := sumExpected(r); !got.Equal(r.TotalLoanAmount) {
				t.Fatalf("principal=%s weeks=%d: schedule sums to %s, want %s", p, weeks, got, r.TotalLoanAmount)
			}
			var sp, si, sin, ss decimal.Decimal
			for i, in := range r.PaymentSchedule {
				if in.Week != i+1 {
					t.Fatalf("week index %d at position %d", in.Week, i)
				}
				sp = sp.Add(in.PrincipalPayment)
				si = si.Add(in.InterestPayment)
				sin = sin.Add(in.InsurancePayment)
				ss = ss.Add(in.SavingsPayment)
			}
			if !sp.Equal(r.Principal) || !si.Equal(r.TotalInterest) || !sin.Equal(r.InsuranceFee) || !ss.Equal(r.SavingsDeduction) {
				t.Fatalf("component columns do not sum to totals for principal=%s weeks=%d", p, weeks)
			}
		}
	}
}

func TestCalculate_MonotonicInPrincipal(t *testing.T) {
	prev, err := Calculate(Input{Principal: d("5000"), TermWeeks: 17})
	if err != nil {
		t.Fatal(err)
	}
	for p := int64(5500); p <= 50000; p += 500 {
		cur, err := Calculate(Input{Principal: decimal.NewFromInt(p), TermWeeks: 17})
		if err != nil {
			t.Fatal(err)
		}
		if !cur.TotalLoanAmount.GreaterThan(prev.TotalLoanAmount) {
			t.Fatalf("total not increasing at %d", p)
		}
		if !cur.WeeklyPaymentBase.GreaterThan(prev.WeeklyPaymentBase) {
			t.Fatalf("weekly not increasing at %d", p)
		}
		prev = cur
	}
}

func TestCalculate_DerivesMonthsFromWeeks(t *testing.T) {
	cases := map[int]int{4: 1, 13: 3, 17: 4, 26: 6, 52: 12}
	for weeks, want := range cases {
		r, err := Calculate(Input{Principal: d("10000"), TermWeeks: weeks})
		if err != nil {
			t.Fatal(err)
		}
		if r.TermMonths != want {
			t.Fatalf("weeks=%d months=%d, want %d", weeks, r.TermMonths, want)
		}
	}
}

func TestCalculate_ValidationFailures(t *testing.T) {
	tests := []struct {
		name  string
		in    Input
		field string
	}{
		{"below minimum", Input{Principal: d("4999.99"), TermWeeks: 17}, "principal"},
		{"above maximum", Input{Principal: d("50000.01"), TermWeeks: 17}, "principal"},
		{"zero principal", Input{Principal: decimal.Zero, TermWeeks: 17}, "principal"},
		{"zero weeks", Input{Principal: d("10000"), TermWeeks: 0}, "term_weeks"},
		{"negative weeks", Input{Principal: d("10000"), TermWeeks: -3}, "term_weeks"},
		{"weeks above limit", Input{Principal: d("10000"), TermWeeks: 53}, "term_weeks"},
		{"negative months", Input{Principal: d("10000"), TermWeeks: 17, TermMonths: -1}, "term_months"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Calculate(tt.in)
			if r != nil {
				t.Fatalf("expected no result, got %+v", r)
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("want *ValidationError, got %v", err)
			}
			if ve.Field != tt.field {
				t.Fatalf("field = %q, want %q", ve.Field, tt.field)
			}
			if !errors.Is(err, apperr.ErrValidation) {
				t.Fatalf("error does not wrap apperr.ErrValidation")
			}
		})
	}
}

func TestCalculate_CustomLimits(t *testing.T) {
	c := New(Limits{MinPrincipal: d("1000"), MaxPrincipal: d("2000"), MinTermWeeks: 1, MaxTermWeeks: 8})
	if _, err := c.Calculate(Input{Principal: d("1500"), TermWeeks: 8}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if _, err := c.Calculate(Input{Principal: d("2500"), TermWeeks: 8}); err == nil {
		t.Fatal("want error above custom max")
	}
}

func TestRebuild_IgnoresLimits(t *testing.T) {
	r, err := Rebuild(d("60000"), 60, 0)
	if err != nil {
		t.Fatalf("Rebuild err: %v", err)
	}
	if len(r.PaymentSchedule) != 60 || !sumExpected(r).Equal(r.TotalLoanAmount) {
		t.Fatalf("unexpected rebuild result")
	}
	if _, err := Rebuild(d("60000"), 0, 0); err == nil {
		t.Fatal("want error for zero weeks")
	}
}

func TestAllocate_SumsToAmount(t *testing.T) {
	r, _ := Calculate(Input{Principal: d("25000"), TermWeeks: 17, TermMonths: 4})
	for _, amt := range []string{"1804.41", "1000", "0.01", "30675", "777.77"} {
		got := Allocate(d(amt), r.Components())
		if !got.Total().Equal(d(amt)) {
			t.Fatalf("allocation of %s sums to %s", amt, got.Total())
		}
	}
	full := Allocate(r.TotalLoanAmount, r.Components())
	if !full.Interest.Equal(r.TotalInterest) || !full.Insurance.Equal(r.InsuranceFee) {
		t.Fatalf("full allocation should reproduce totals: %+v", full)
	}
}

func TestRemainingBalance(t *testing.T) {
	r, _ := Calculate(Input{Principal: d("25000"), TermWeeks: 17, TermMonths: 4})

	b := RemainingBalance(r, 5)
	if b.RemainingWeeks != 12 || !b.TotalPaid.Equal(d("9022.05")) {
		t.Fatalf("unexpected balance: %+v", b)
	}
	if !b.TotalPaid.Add(b.RemainingAmount).Equal(r.TotalLoanAmount) {
		t.Fatalf("paid + remaining != total")
	}

	done := RemainingBalance(r, 99)
	if !done.RemainingAmount.IsZero() || !done.RemainingPrincipal.IsZero() || !done.NextPaymentDue.IsZero() {
		t.Fatalf("fully paid balance should be zero: %+v", done)
	}
}

func TestLatePenalty(t *testing.T) {
	if got := LatePenalty(d("1804.41"), 3); !got.Equal(d("108.26")) {
		t.Fatalf("penalty = %s, want 108.26", got)
	}
	if got := LatePenalty(d("1804.41"), 0); !got.IsZero() {
		t.Fatalf("penalty for on-time payment = %s", got)
	}
}

func TestDescribeTerm(t *testing.T) {
	cases := map[int]string{
		17: "4+ months (17 weeks)",
		52: "1 year",
		2:  "2 weeks",
		13: "3 months (13 weeks)",
		30: "6.9 months (30 weeks)",
	}
	for weeks, want := range cases {
		if got := DescribeTerm(weeks); got != want {
			t.Fatalf("DescribeTerm(%d) = %q, want %q", weeks, got, want)
		}
	}
}

func TestMaturityDate(t *testing.T) {
	start := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	if got := MaturityDate(start, 17); !got.Equal(time.Date(2025, 5, 5, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("maturity = %v", got)
	}
}
