package dataprocessing

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	apperrors "natgascli/internal/errors"
)

// ReadSheet returns every row of the named worksheet as strings. Modern
// workbooks (.xlsx) are read with excelize, legacy ones (.xls) with the
// BIFF reader. Trailing empty cells may be missing from a row.
func ReadSheet(path, sheet string) ([][]string, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, apperrors.NewStorageError("failed to open spreadsheet", err).
			WithContext("path", path)
	}

	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xls":
		rows, err = readXLS(path, sheet)
	default:
		rows, err = readXLSX(path, sheet)
	}
	if err != nil {
		return nil, err
	}

	slog.Debug("Sheet read",
		slog.String("path", path),
		slog.String("sheet", sheet),
		slog.Int("rows", len(rows)))
	return rows, nil
}

func readXLSX(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to open workbook", err).
			WithContext("path", path)
	}
	defer f.Close()

	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, sheetNotFound(path, sheet, f.GetSheetList())
	}

	// Raw values keep date cells as serial numbers regardless of number format
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read sheet", err).
			WithContext("path", path).
			WithContext("sheet", sheet)
	}
	return rows, nil
}

// readXLS reads a legacy workbook. Rows are taken from ReadAllCells, which
// concatenates every sheet that has more than one row and leaves rows
// without cells nil; WorkSheet.Row cannot be used because it dereferences
// rows that have no cells.
func readXLS(path, sheet string) ([][]string, error) {
	wb, err := xls.Open(path, "utf-8")
	if err != nil {
		return nil, apperrors.NewParsingError("failed to open workbook", err).
			WithContext("path", path)
	}

	var (
		names  []string
		target *xls.WorkSheet
		offset int
	)
	for i := 0; i < wb.NumSheets(); i++ {
		ws := wb.GetSheet(i)
		if ws == nil {
			continue
		}
		if ws.Name == sheet {
			target = ws
			break
		}
		names = append(names, ws.Name)
		if ws.MaxRow != 0 {
			offset += int(ws.MaxRow) + 1
		}
	}
	if target == nil {
		return nil, sheetNotFound(path, sheet, names)
	}
	if target.MaxRow == 0 {
		return [][]string{}, nil
	}

	all := wb.ReadAllCells(math.MaxInt)
	end := offset + int(target.MaxRow) + 1
	if end > len(all) {
		return nil, apperrors.NewParsingError("sheet is shorter than its row count", nil).
			WithContext("path", path).
			WithContext("sheet", sheet)
	}
	return all[offset:end], nil
}

func sheetNotFound(path, sheet string, available []string) error {
	return apperrors.NewParsingError(fmt.Sprintf("sheet %q not found", sheet), nil).
		WithContext("path", path).
		WithContext("available", available)
}
