package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Date layouts used by the published tables
const (
	DailyDateLayout   = "2006-01-02"
	MonthlyDateLayout = "January 2006"
)

// PriceObservation is one row of the daily series.
//
// Price is null when the source cell held something that was not a number.
// Date is always a real calendar date; rows whose date could not be parsed
// never become observations.
type PriceObservation struct {
	Date  time.Time           `json:"date"`
	Price decimal.NullDecimal `json:"price"`
}

// NewPriceObservation builds an observation with a valid price
func NewPriceObservation(date time.Time, price decimal.Decimal) PriceObservation {
	return PriceObservation{
		Date:  date,
		Price: decimal.NewNullDecimal(price),
	}
}

// DailySeries is the cleaned daily table in source order
type DailySeries []PriceObservation

// MonthlyPoint is the first observation of a calendar month.
// Month holds the last day of the month, the bucket boundary.
type MonthlyPoint struct {
	Month time.Time           `json:"month"`
	Price decimal.NullDecimal `json:"price"`
}

// Label renders the month as "January 1997"
func (p MonthlyPoint) Label() string {
	return p.Month.Format(MonthlyDateLayout)
}

// MonthlySeries holds one point per calendar month, ascending
type MonthlySeries []MonthlyPoint

// MonthEnd returns the last calendar day of t's month at midnight UTC
func MonthEnd(t time.Time) time.Time {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first.AddDate(0, 1, -1)
}

// ParseMonthLabel parses a "Month Year" label back into the month-end date
func ParseMonthLabel(label string) (time.Time, error) {
	t, err := time.Parse(MonthlyDateLayout, label)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month label %q: %w", label, err)
	}
	return MonthEnd(t), nil
}
