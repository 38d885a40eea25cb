// Package dataprocessing turns the published price workbook into the daily
// and monthly series.
//
// # Data Flow
//
//	workbook → ReadSheet → rows → Normalize → DailySeries → Monthly → MonthlySeries
//
// ReadSheet handles both .xlsx (excelize) and legacy .xls workbooks.
// Normalize skips the header row and the stray row below it, maps the first
// two columns to Date and Price, and silently drops rows whose date cannot
// be parsed. Monthly keeps the first observation of each calendar month.
//
// Transformer bundles the three steps for the pipeline:
//
//	tr := dataprocessing.NewTransformer(dataprocessing.TransformOptions{
//	    SheetName:       "Data 1",
//	    HeaderRow:       1,
//	    DropLeadingRows: 1,
//	}, logger)
//	result, err := tr.Transform(ctx, "RNGWHHDm.xls")
package dataprocessing
