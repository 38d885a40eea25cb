package dataprocessing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	jan7 := time.Date(1997, 1, 7, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{name: "iso", input: "1997-01-07", want: jan7},
		{name: "iso with time", input: "1997-01-07 00:00:00", want: jan7},
		{name: "rfc3339", input: "1997-01-07T13:45:00Z", want: jan7},
		{name: "excel serial", input: "35437", want: jan7},
		{name: "excel serial with fraction", input: "35437.75", want: jan7},
		{name: "eia display format", input: "Jan 07, 1997", want: jan7},
		{name: "short month no padding", input: "Jan 7, 1997", want: jan7},
		{name: "us slashes", input: "01/07/1997", want: jan7},
		{name: "us slashes unpadded", input: "1/7/1997", want: jan7},
		{name: "two digit year", input: "01-07-97", want: jan7},
		{name: "short us date", input: "1/7/97", want: jan7},
		{name: "dotted", input: "1997.01.07", want: jan7},
		{name: "day month year", input: "07-Jan-1997", want: jan7},
		{name: "month year", input: "Jan-1997", want: time.Date(1997, 1, 1, 0, 0, 0, 0, time.UTC)},
		{name: "long month year", input: "January 1997", want: time.Date(1997, 1, 1, 0, 0, 0, 0, time.UTC)},
		{name: "surrounding whitespace", input: "  1997-01-07 ", want: jan7},
		{name: "empty", input: "", wantErr: true},
		{name: "text", input: "Date", wantErr: true},
		{name: "sourcekey", input: "RNGWHHD", wantErr: true},
		{name: "negative serial", input: "-5", wantErr: true},
		{name: "serial out of range", input: "99999999", wantErr: true},
		{name: "impossible date", input: "1997-02-30", wantErr: true},
		{name: "year and month stamp", input: "1997.01", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnparseableDate)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		valid bool
	}{
		{name: "plain", input: "3.82", want: "3.82", valid: true},
		{name: "integer", input: "4", want: "4", valid: true},
		{name: "thousands separator", input: "1,234.5", want: "1234.5", valid: true},
		{name: "dollar sign", input: "$2.15", want: "2.15", valid: true},
		{name: "whitespace", input: " 2.15 ", want: "2.15", valid: true},
		{name: "empty", input: ""},
		{name: "not available", input: "NA"},
		{name: "dash", input: "--"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParsePrice(tt.input)
			assert.Equal(t, tt.valid, got.Valid)
			if tt.valid {
				assert.True(t, got.Decimal.Equal(decimal.RequireFromString(tt.want)), "got %s", got.Decimal)
			}
		})
	}
}
