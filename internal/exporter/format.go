package exporter

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"natgascli/pkg/contracts/domain"
)

// formatPrice renders a price for CSV output; a null price is an empty cell
func formatPrice(p decimal.NullDecimal) string {
	if !p.Valid {
		return ""
	}
	return p.Decimal.String()
}

// parsePrice is the inverse of formatPrice
func parsePrice(s string) (decimal.NullDecimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("invalid price %q: %w", s, err)
	}
	return decimal.NewNullDecimal(d), nil
}

// formatDate renders a daily date as 2006-01-02
func formatDate(t time.Time) string {
	return t.Format(domain.DailyDateLayout)
}

// parseDate is the inverse of formatDate
func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(domain.DailyDateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}
