package validation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, content, 0644))
	return path
}

func TestFileValidator_ValidateFile(t *testing.T) {
	v := NewFileValidator(nil)
	dir := t.TempDir()

	assert.NoError(t, v.ValidateFile(writeFile(t, dir, "a.txt", []byte("x"))))

	err := v.ValidateFile(filepath.Join(dir, "missing.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")

	err = v.ValidateFile(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is a directory")
}

func TestFileValidator_ValidateOutputDirectory(t *testing.T) {
	v := NewFileValidator(nil)
	dir := filepath.Join(t.TempDir(), "nested", "out")

	require.NoError(t, v.ValidateOutputDirectory(dir))
	assert.DirExists(t, dir)
	assert.NoFileExists(t, filepath.Join(dir, ".natgas_write_test"))
}

func TestFileValidator_ValidateExcelFile(t *testing.T) {
	v := NewFileValidator(nil)
	dir := t.TempDir()

	f := excelize.NewFile()
	xlsxPath := filepath.Join(dir, "prices.xlsx")
	require.NoError(t, f.SaveAs(xlsxPath))
	require.NoError(t, f.Close())

	xlsHeader := append(append([]byte{}, ole2Signature...), make([]byte, 64)...)

	tests := []struct {
		name          string
		path          string
		wantErr       bool
		errorContains string
	}{
		{
			name: "valid xlsx",
			path: xlsxPath,
		},
		{
			name: "valid xls signature",
			path: writeFile(t, dir, "RNGWHHDm.xls", xlsHeader),
		},
		{
			name:          "html saved as xls",
			path:          writeFile(t, dir, "error.xls", []byte("<html><body>Not Found</body></html>")),
			wantErr:       true,
			errorContains: "does not look like",
		},
		{
			name:          "wrong extension",
			path:          writeFile(t, dir, "prices.txt", []byte("data")),
			wantErr:       true,
			errorContains: "not an Excel file",
		},
		{
			name:          "temporary file",
			path:          writeFile(t, dir, "~$prices.xls", xlsHeader),
			wantErr:       true,
			errorContains: "temporary",
		},
		{
			name:          "truncated file",
			path:          writeFile(t, dir, "short.xls", []byte{0xD0, 0xCF}),
			wantErr:       true,
			errorContains: "does not look like",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateExcelFile(tt.path)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestFileValidator_ValidateCSVFile(t *testing.T) {
	v := NewFileValidator(nil)
	dir := t.TempDir()

	good := writeFile(t, dir, "daily.csv", []byte("Date,Price\n1997-01-07,3.82\n"))
	bom := writeFile(t, dir, "bom.csv", []byte("\ufeffDate,Price\r\n"))
	bad := writeFile(t, dir, "bad.csv", []byte("When,Cost\n"))

	assert.NoError(t, v.ValidateCSVFile(good))
	assert.NoError(t, v.ValidateCSVFile(good, "Date", "Price"))
	assert.NoError(t, v.ValidateCSVFile(bom, "Date", "Price"))

	err := v.ValidateCSVFile(bad, "Date", "Price")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected")

	err = v.ValidateCSVFile(writeFile(t, dir, "daily.json", []byte("{}")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a CSV file")
}
