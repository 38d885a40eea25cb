package dataprocessing

import (
	"log/slog"
	"sort"
	"time"

	"natgascli/pkg/contracts/domain"
)

// Column positions in the source sheet once the header row is skipped
const (
	dateColumn  = 0
	priceColumn = 1
)

// Stats summarizes what Normalize kept and discarded
type Stats struct {
	RowsRead       int `json:"rows_read"`
	DroppedLeading int `json:"dropped_leading"`
	DroppedDates   int `json:"dropped_dates"`
	NullPrices     int `json:"null_prices"`
	Kept           int `json:"kept"`
}

// Normalize turns raw sheet rows into the daily series.
//
// headerRow is the zero-based index of the header row; it and every row
// above it are skipped. The next dropLeading rows are discarded as well.
// The first column becomes Date and the second Price. Rows whose date
// cannot be parsed are dropped; prices that are not numbers become null.
func Normalize(rows [][]string, headerRow, dropLeading int) (domain.DailySeries, Stats) {
	var stats Stats

	start := headerRow + 1
	if start < 0 {
		start = 0
	}
	if start > len(rows) {
		start = len(rows)
	}
	data := rows[start:]
	stats.RowsRead = len(data)

	if dropLeading > len(data) {
		dropLeading = len(data)
	}
	if dropLeading > 0 {
		data = data[dropLeading:]
		stats.DroppedLeading = dropLeading
	}

	series := make(domain.DailySeries, 0, len(data))
	for _, row := range data {
		date, err := ParseDate(cell(row, dateColumn))
		if err != nil {
			stats.DroppedDates++
			continue
		}

		price := ParsePrice(cell(row, priceColumn))
		if !price.Valid {
			stats.NullPrices++
		}
		series = append(series, domain.PriceObservation{Date: date, Price: price})
	}
	stats.Kept = len(series)

	slog.Debug("Rows normalized",
		slog.Int("rows_read", stats.RowsRead),
		slog.Int("dropped_leading", stats.DroppedLeading),
		slog.Int("dropped_dates", stats.DroppedDates),
		slog.Int("null_prices", stats.NullPrices),
		slog.Int("kept", stats.Kept))

	return series, stats
}

// Monthly buckets the daily series by calendar month, month-end boundary,
// and keeps the first price of each month in chronological order. Null
// prices are skipped; a month holding only nulls gets a null point.
// Months with no observations at all produce no point.
func Monthly(daily domain.DailySeries) domain.MonthlySeries {
	if len(daily) == 0 {
		return domain.MonthlySeries{}
	}

	sorted := make(domain.DailySeries, len(daily))
	copy(sorted, daily)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	var series domain.MonthlySeries
	var current time.Time
	for _, obs := range sorted {
		month := domain.MonthEnd(obs.Date)
		if len(series) == 0 || !month.Equal(current) {
			series = append(series, domain.MonthlyPoint{Month: month})
			current = month
		}

		last := &series[len(series)-1]
		if !last.Price.Valid && obs.Price.Valid {
			last.Price = obs.Price
		}
	}
	return series
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
