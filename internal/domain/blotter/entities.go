package blotter

import (
	"fmt"
	"time"

	"fanders-backend/internal/domain/apperr"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound     = fmt.Errorf("%w: cash blotter not found", apperr.ErrNotFound)
	ErrInvalidRange = fmt.Errorf("%w: start date must not be after end date", apperr.ErrValidation)
)

// Table: cash_blotter. One row per calendar day.
type Blotter struct {
	ID             uint64          `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	BlotterDate    time.Time       `gorm:"column:blotter_date;not null;uniqueIndex:ux_cash_blotter_date" json:"blotter_date"`
	OpeningBalance decimal.Decimal `gorm:"column:opening_balance;type:decimal(15,2)" json:"opening_balance"`
	TotalInflow    decimal.Decimal `gorm:"column:total_inflow;type:decimal(15,2)" json:"total_inflow"`
	TotalOutflow   decimal.Decimal `gorm:"column:total_outflow;type:decimal(15,2)" json:"total_outflow"`
	ClosingBalance decimal.Decimal `gorm:"column:closing_balance;type:decimal(15,2)" json:"closing_balance"`
	PaymentCount   int64           `gorm:"column:payment_count" json:"payment_count"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Blotter) TableName() string { return "cash_blotter" }

// Day truncates t to midnight UTC, the key blotters are stored under.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Close sets the flows and derives the closing balance.
func (b *Blotter) Close(opening, inflow, outflow decimal.Decimal, payments int64) {
	b.OpeningBalance = opening
	b.TotalInflow = inflow
	b.TotalOutflow = outflow
	b.PaymentCount = payments
	b.ClosingBalance = opening.Add(inflow).Sub(outflow)
}

type Summary struct {
	From           time.Time       `json:"from"`
	To             time.Time       `json:"to"`
	Days           int             `json:"days"`
	TotalInflow    decimal.Decimal `json:"total_inflow"`
	TotalOutflow   decimal.Decimal `json:"total_outflow"`
	NetFlow        decimal.Decimal `json:"net_flow"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	ClosingBalance decimal.Decimal `json:"closing_balance"`
	AverageInflow  decimal.Decimal `json:"average_daily_inflow"`
	AverageOutflow decimal.Decimal `json:"average_daily_outflow"`
}

// Summarize folds days (ascending by date) into a period summary.
func Summarize(from, to time.Time, days []Blotter) Summary {
	s := Summary{From: Day(from), To: Day(to), Days: len(days)}
	for _, d := range days {
		s.TotalInflow = s.TotalInflow.Add(d.TotalInflow)
		s.TotalOutflow = s.TotalOutflow.Add(d.TotalOutflow)
	}
	s.NetFlow = s.TotalInflow.Sub(s.TotalOutflow)
	if len(days) > 0 {
		n := decimal.NewFromInt(int64(len(days)))
		s.OpeningBalance = days[0].OpeningBalance
		s.ClosingBalance = days[len(days)-1].ClosingBalance
		s.AverageInflow = s.TotalInflow.Div(n).Round(2)
		s.AverageOutflow = s.TotalOutflow.Div(n).Round(2)
	}
	return s
}

type AlertLevel string

const (
	AlertNegative AlertLevel = "negative_balance"
	AlertLow      AlertLevel = "low_balance"
)

type Alert struct {
	Date    time.Time       `json:"date"`
	Level   AlertLevel      `json:"level"`
	Balance decimal.Decimal `json:"balance"`
	Message string          `json:"message"`
}

// Alerts flags days closing below zero or under threshold.
func Alerts(days []Blotter, threshold decimal.Decimal) []Alert {
	out := make([]Alert, 0)
	for _, d := range days {
		switch {
		case d.ClosingBalance.IsNegative():
			out = append(out, Alert{Date: d.BlotterDate, Level: AlertNegative, Balance: d.ClosingBalance,
				Message: "closing balance is negative"})
		case d.ClosingBalance.LessThan(threshold):
			out = append(out, Alert{Date: d.BlotterDate, Level: AlertLow, Balance: d.ClosingBalance,
				Message: "closing balance below " + threshold.StringFixed(2)})
		}
	}
	return out
}
