// Package exporter writes and reads the pipeline's CSV tables.
//
// CSVWriter is the low-level writer (headers, append mode, optional UTF-8
// BOM). PriceExporter builds on it to persist the daily series with ISO
// dates and the monthly series with "Month Year" labels, both with a
// Date,Price header and no index column. Null prices are written as empty
// cells and read back as null.
//
//	exp := exporter.NewPriceExporter(paths.WorkDir)
//	if err := exp.WriteDaily(paths.DailyCSV, daily); err != nil {
//	    return err
//	}
package exporter
