package dataprocessing

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// ErrUnparseableDate is returned by ParseDate for values that are not dates
var ErrUnparseableDate = errors.New("unparseable date")

// Excel serial numbers accepted as dates: 1900-01-01 through 9999-12-31
const (
	minExcelSerial = 1
	maxExcelSerial = 2958465
)

// monthStamp is how the .xls reader renders cells in a built-in date
// format: year and month only. The day is lost, so these are not dates.
var monthStamp = regexp.MustCompile(`^\d{4}\.\d{2}$`)

// dateLayouts are the textual forms a date cell can take once rendered
// with its number format
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"Jan 02, 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"01/02/2006",
	"1/2/2006",
	"01/02/06",
	"1/2/06",
	"01-02-06",
	"1-2-06",
	"02-Jan-2006",
	"2-Jan-06",
	"Jan-2006",
	"Jan-06",
	"January 2006",
	"Jan 2006",
	"2006/01/02",
	"2006.01.02 15:04:05",
	"2006.01.02",
}

// ParseDate coerces a cell to a calendar date. It accepts Excel serial
// numbers and the layouts above; anything else yields ErrUnparseableDate.
// The result carries no time of day and is in UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrUnparseableDate
	}
	if monthStamp.MatchString(s) {
		return time.Time{}, ErrUnparseableDate
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		if serial < minExcelSerial || serial > maxExcelSerial {
			return time.Time{}, ErrUnparseableDate
		}
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, ErrUnparseableDate
		}
		return dateOnly(t), nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return dateOnly(t), nil
		}
	}
	return time.Time{}, ErrUnparseableDate
}

// ParsePrice coerces a cell to a price. Thousands separators and a leading
// dollar sign are tolerated; anything non-numeric becomes a null price.
func ParsePrice(s string) decimal.NullDecimal {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return decimal.NullDecimal{}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
