package exporter

import (
	"fmt"
	"log/slog"

	apperrors "natgascli/internal/errors"
	"natgascli/pkg/contracts/domain"
)

// Headers of both price tables
var priceHeaders = []string{"Date", "Price"}

// PriceHeaders returns the column names of the daily and monthly tables
func PriceHeaders() []string {
	return append([]string(nil), priceHeaders...)
}

// PriceExporter writes and reads the daily and monthly price tables
type PriceExporter struct {
	csvWriter *CSVWriter
	bom       bool
}

// NewPriceExporter creates a price exporter rooted at baseDir
func NewPriceExporter(baseDir string) *PriceExporter {
	return &PriceExporter{
		csvWriter: NewCSVWriter(baseDir),
	}
}

// WithBOM makes the exporter prefix files with a UTF-8 byte order mark
func (e *PriceExporter) WithBOM(bom bool) *PriceExporter {
	e.bom = bom
	return e
}

// WriteDaily writes the daily series with ISO dates and no index column
func (e *PriceExporter) WriteDaily(path string, series domain.DailySeries) error {
	records := make([][]string, 0, len(series))
	for _, obs := range series {
		records = append(records, []string{formatDate(obs.Date), formatPrice(obs.Price)})
	}

	if err := e.write(path, records); err != nil {
		return apperrors.NewStorageError("failed to write daily prices", err).
			WithContext("path", path)
	}

	slog.Info("Daily prices written",
		slog.String("path", path),
		slog.Int("rows", len(records)))
	return nil
}

// WriteMonthly writes the monthly series with "Month Year" labels
func (e *PriceExporter) WriteMonthly(path string, series domain.MonthlySeries) error {
	records := make([][]string, 0, len(series))
	for _, point := range series {
		records = append(records, []string{point.Label(), formatPrice(point.Price)})
	}

	if err := e.write(path, records); err != nil {
		return apperrors.NewStorageError("failed to write monthly prices", err).
			WithContext("path", path)
	}

	slog.Info("Monthly prices written",
		slog.String("path", path),
		slog.Int("rows", len(records)))
	return nil
}

// ReadDaily reads a table produced by WriteDaily
func (e *PriceExporter) ReadDaily(path string) (domain.DailySeries, error) {
	records, err := e.read(path)
	if err != nil {
		return nil, err
	}

	series := make(domain.DailySeries, 0, len(records))
	for i, record := range records {
		date, err := parseDate(record[0])
		if err != nil {
			return nil, rowError(path, i, err)
		}
		price, err := parsePrice(record[1])
		if err != nil {
			return nil, rowError(path, i, err)
		}
		series = append(series, domain.PriceObservation{Date: date, Price: price})
	}
	return series, nil
}

// ReadMonthly reads a table produced by WriteMonthly, turning each label
// back into its month-end date
func (e *PriceExporter) ReadMonthly(path string) (domain.MonthlySeries, error) {
	records, err := e.read(path)
	if err != nil {
		return nil, err
	}

	series := make(domain.MonthlySeries, 0, len(records))
	for i, record := range records {
		month, err := domain.ParseMonthLabel(record[0])
		if err != nil {
			return nil, rowError(path, i, err)
		}
		price, err := parsePrice(record[1])
		if err != nil {
			return nil, rowError(path, i, err)
		}
		series = append(series, domain.MonthlyPoint{Month: month, Price: price})
	}
	return series, nil
}

func (e *PriceExporter) write(path string, records [][]string) error {
	return e.csvWriter.WriteCSV(path, WriteOptions{
		Headers:   priceHeaders,
		Records:   records,
		BOMPrefix: e.bom,
	})
}

func (e *PriceExporter) read(path string) ([][]string, error) {
	header, records, err := e.csvWriter.ReadCSV(path)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to read price table", err).
			WithContext("path", path)
	}
	if len(header) < 2 || header[0] != priceHeaders[0] || header[1] != priceHeaders[1] {
		return nil, apperrors.NewParsingError(fmt.Sprintf("unexpected header %v", header), nil).
			WithContext("path", path)
	}
	for i, record := range records {
		if len(record) < 2 {
			return nil, rowError(path, i, fmt.Errorf("expected 2 columns, got %d", len(record)))
		}
	}
	return records, nil
}

func rowError(path string, index int, err error) error {
	// +2 accounts for the header and 1-based line numbers
	return apperrors.NewParsingError(fmt.Sprintf("line %d", index+2), err).
		WithContext("path", path)
}
