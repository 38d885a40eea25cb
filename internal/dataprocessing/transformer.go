package dataprocessing

import (
	"context"
	"log/slog"

	"natgascli/pkg/contracts/domain"
)

// TransformOptions describes where the price table sits in the workbook
type TransformOptions struct {
	SheetName       string
	HeaderRow       int
	DropLeadingRows int
}

// TransformResult holds both derived series
type TransformResult struct {
	Daily   domain.DailySeries
	Monthly domain.MonthlySeries
	Stats   Stats
}

// Transformer reads the source workbook and derives the price series
type Transformer struct {
	opts   TransformOptions
	logger *slog.Logger
}

// NewTransformer creates a transformer
func NewTransformer(opts TransformOptions, logger *slog.Logger) *Transformer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Transformer{opts: opts, logger: logger}
}

// Transform reads the sheet at path and returns the daily and monthly series
func (t *Transformer) Transform(ctx context.Context, path string) (*TransformResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows, err := ReadSheet(path, t.opts.SheetName)
	if err != nil {
		return nil, err
	}

	daily, stats := Normalize(rows, t.opts.HeaderRow, t.opts.DropLeadingRows)
	monthly := Monthly(daily)

	t.logger.InfoContext(ctx, "Spreadsheet transformed",
		slog.String("path", path),
		slog.String("sheet", t.opts.SheetName),
		slog.Int("daily_rows", len(daily)),
		slog.Int("monthly_rows", len(monthly)),
		slog.Int("dropped_dates", stats.DroppedDates))

	return &TransformResult{Daily: daily, Monthly: monthly, Stats: stats}, nil
}
