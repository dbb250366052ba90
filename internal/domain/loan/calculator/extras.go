package calculator

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// LatePenaltyRate is charged per day late on the missed installment.
var LatePenaltyRate = decimal.RequireFromString("0.02")

// Breakdown splits an amount into the components of a loan's total.
type Breakdown struct {
	Principal decimal.Decimal `json:"principal"`
	Interest  decimal.Decimal `json:"interest"`
	Insurance decimal.Decimal `json:"insurance"`
	Savings   decimal.Decimal `json:"savings"`
}

func (b Breakdown) Total() decimal.Decimal {
	return b.Principal.Add(b.Interest).Add(b.Insurance).Add(b.Savings)
}

// Allocate distributes a received amount over the components of a loan proportionally
// to the loan totals. The principal share absorbs rounding so the parts sum to amount.
func Allocate(amount decimal.Decimal, of Breakdown) Breakdown {
	total := of.Total()
	if !total.IsPositive() {
		return Breakdown{Principal: amount}
	}
	part := func(c decimal.Decimal) decimal.Decimal { return amount.Mul(c).Div(total).Round(2) }
	out := Breakdown{
		Interest:  part(of.Interest),
		Insurance: part(of.Insurance),
		Savings:   part(of.Savings),
	}
	out.Principal = amount.Sub(out.Interest).Sub(out.Insurance).Sub(out.Savings)
	return out
}

type Balance struct {
	WeeksPaid          int             `json:"weeks_paid"`
	RemainingWeeks     int             `json:"remaining_weeks"`
	TotalPaid          decimal.Decimal `json:"total_paid"`
	RemainingAmount    decimal.Decimal `json:"remaining_amount"`
	RemainingPrincipal decimal.Decimal `json:"remaining_principal"`
	RemainingInterest  decimal.Decimal `json:"remaining_interest"`
	RemainingInsurance decimal.Decimal `json:"remaining_insurance"`
	RemainingSavings   decimal.Decimal `json:"remaining_savings"`
	NextPaymentDue     decimal.Decimal `json:"next_payment_due"`
}

// RemainingBalance reports what is left after the first weeksPaid installments were paid
// as scheduled.
func RemainingBalance(r *Result, weeksPaid int) Balance {
	if weeksPaid < 0 {
		weeksPaid = 0
	}
	if weeksPaid > r.TermWeeks {
		weeksPaid = r.TermWeeks
	}
	paid := Breakdown{}
	totalPaid := decimal.Zero
	for _, in := range r.PaymentSchedule[:weeksPaid] {
		totalPaid = totalPaid.Add(in.ExpectedPayment)
		paid.Principal = paid.Principal.Add(in.PrincipalPayment)
		paid.Interest = paid.Interest.Add(in.InterestPayment)
		paid.Insurance = paid.Insurance.Add(in.InsurancePayment)
		paid.Savings = paid.Savings.Add(in.SavingsPayment)
	}
	b := Balance{
		WeeksPaid:          weeksPaid,
		RemainingWeeks:     r.TermWeeks - weeksPaid,
		TotalPaid:          totalPaid,
		RemainingAmount:    r.TotalLoanAmount.Sub(totalPaid),
		RemainingPrincipal: r.Principal.Sub(paid.Principal),
		RemainingInterest:  r.TotalInterest.Sub(paid.Interest),
		RemainingInsurance: r.InsuranceFee.Sub(paid.Insurance),
		RemainingSavings:   r.SavingsDeduction.Sub(paid.Savings),
	}
	if weeksPaid < r.TermWeeks {
		b.NextPaymentDue = r.PaymentSchedule[weeksPaid].ExpectedPayment
	}
	return b
}

// LatePenalty is LatePenaltyRate of the installment per day late, in cents.
func LatePenalty(installment decimal.Decimal, daysLate int) decimal.Decimal {
	if daysLate <= 0 {
		return decimal.Zero
	}
	return installment.Mul(LatePenaltyRate).Mul(decimal.NewFromInt(int64(daysLate))).Round(2)
}

// DueDate is the date installment `week` falls due for a loan released on start.
func DueDate(start time.Time, week int) time.Time { return start.AddDate(0, 0, 7*week) }

func MaturityDate(start time.Time, weeks int) time.Time { return DueDate(start, weeks) }

var termLabels = map[int]string{
	4:  "1 month",
	8:  "2 months",
	12: "3 months",
	16: "4 months",
	17: "4+ months (17 weeks)",
	20: "5 months",
	24: "6 months",
	26: "6+ months (26 weeks)",
	52: "1 year",
}

// DescribeTerm renders a weekly term the way loan officers quote it to clients.
func DescribeTerm(weeks int) string {
	if s, ok := termLabels[weeks]; ok {
		return s
	}
	w := strconv.Itoa(weeks) + " weeks"
	months := decimal.NewFromInt(int64(weeks)).Div(decimal.RequireFromString("4.33")).Round(1)
	switch {
	case months.LessThan(decimal.NewFromInt(1)):
		return w
	case months.Equal(decimal.NewFromInt(1)):
		return "1 month (" + w + ")"
	case months.Equal(months.Truncate(0)):
		return months.StringFixed(0) + " months (" + w + ")"
	default:
		return months.StringFixed(1) + " months (" + w + ")"
	}
}
