package operations

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"natgascli/internal/config"
	"natgascli/internal/dataprocessing"
	"natgascli/internal/datapackage"
	apperrors "natgascli/internal/errors"
	"natgascli/internal/exporter"
	"natgascli/internal/fetcher"
	"natgascli/internal/files"
)

type fakeFetcher struct {
	result *fetcher.DownloadResult
	err    error
	before func(destDir string)
}

func (f *fakeFetcher) Run(ctx context.Context, pageURL, destDir string) (*fetcher.DownloadResult, error) {
	if f.before != nil {
		f.before(destDir)
	}
	return f.result, f.err
}

func testPaths(t *testing.T) *config.Paths {
	t.Helper()
	cfg := config.Default()
	cfg.WorkDir = t.TempDir()
	paths, err := config.GetPaths(cfg)
	require.NoError(t, err)
	return paths
}

func runStage(t *testing.T, stage Stage) (*RunState, error) {
	t.Helper()
	state := NewRunState("test-run")
	state.AddStage(NewStepState(stage.ID(), stage.Name()))
	return state, stage.Execute(context.Background(), state)
}

func TestFetchStageOutcomes(t *testing.T) {
	paths := testPaths(t)
	fetched := filepath.Join(paths.WorkDir, "RNGWHHDd.xls")
	defaultPath := filepath.Join(paths.WorkDir, "RNGWHHDm.xls")

	tests := []struct {
		name        string
		fetcher     *fakeFetcher
		wantOutput  string
		wantErr     bool
		wantFetched string
	}{
		{
			name: "downloaded",
			fetcher: &fakeFetcher{result: &fetcher.DownloadResult{
				URL:   "https://www.eia.gov/dnav/ng/hist_xls/RNGWHHDd.xls",
				Path:  fetched,
				Name:  "RNGWHHDd.xls",
				Bytes: 1024,
			}},
			wantOutput: "File downloaded successfully: RNGWHHDd.xls\n" +
				"File is located at: " + fetched + "\n",
			wantFetched: fetched,
		},
		{
			name:    "link not found",
			fetcher: &fakeFetcher{err: apperrors.ErrSpreadsheetLinkNotFound},
			wantOutput: "Excel file not found on the page.\n" +
				"File is located at: " + defaultPath + "\n",
		},
		{
			name: "download failed",
			fetcher: &fakeFetcher{err: &fetcher.DownloadError{
				URL:        "https://www.eia.gov/x.xls",
				StatusCode: http.StatusNotFound,
				Cause:      errors.New("unexpected status 404 Not Found"),
			}},
			wantOutput: "An error occurred while downloading the file: 404 Not Found for url: https://www.eia.gov/x.xls\n" +
				"File is located at: " + defaultPath + "\n",
		},
		{
			name:    "index page unreachable",
			fetcher: &fakeFetcher{err: apperrors.NewNetworkError("failed to fetch index page", errors.New("connection refused"))},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			stage := NewFetchStage(tt.fetcher, config.DefaultIndexURL, paths, &out, quietLogger())

			state, err := runStage(t, stage)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNetwork))
				assert.Empty(t, out.String())
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantOutput, out.String())
			assert.Equal(t, tt.wantFetched, state.FetchedSpreadsheet())
		})
	}
}

// writeWorkbook builds a workbook laid out like the published one
func writeWorkbook(t *testing.T, path string) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := config.DefaultSheetName
	require.NoError(t, f.SetSheetName(f.GetSheetName(0), sheet))
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"Back to Contents", "Data 1: Henry Hub Natural Gas Spot Price"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"Sourcekey", "RNGWHHD"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{"Date", "Henry Hub Natural Gas Spot Price (Dollars per Million Btu)"}))
	require.NoError(t, f.SetSheetRow(sheet, "A4", &[]interface{}{time.Date(1997, 1, 7, 0, 0, 0, 0, time.UTC), 3.82}))
	require.NoError(t, f.SetSheetRow(sheet, "A5", &[]interface{}{time.Date(1997, 1, 9, 0, 0, 0, 0, time.UTC), 3.80}))
	require.NoError(t, f.SetSheetRow(sheet, "A6", &[]interface{}{time.Date(1997, 2, 3, 0, 0, 0, 0, time.UTC), 2.15}))
	require.NoError(t, f.SaveAs(path))
}

func newTransformStage(paths *config.Paths, out io.Writer) *TransformStage {
	cfg := config.Default().Transform
	transformer := dataprocessing.NewTransformer(dataprocessing.TransformOptions{
		SheetName:       cfg.SheetName,
		HeaderRow:       cfg.HeaderRow,
		DropLeadingRows: cfg.DropLeadingRows,
	}, quietLogger())
	return NewTransformStage(transformer, exporter.NewPriceExporter(paths.WorkDir), paths, nil, out, quietLogger())
}

func TestTransformStageUsesFetchedWorkbook(t *testing.T) {
	paths := testPaths(t)
	fetched := filepath.Join(paths.WorkDir, "RNGWHHDd.xlsx")
	writeWorkbook(t, fetched)

	var out bytes.Buffer
	stage := newTransformStage(paths, &out)

	state := NewRunState("test-run")
	state.AddStage(NewStepState(stage.ID(), stage.Name()))
	state.SetContext(ContextKeySpreadsheet, fetched)

	require.NoError(t, stage.Execute(context.Background(), state))
	assert.Equal(t, "Data processed and saved to CSV files!\n", out.String())

	daily, err := os.ReadFile(paths.DailyCSV)
	require.NoError(t, err)
	assert.Equal(t, "Date,Price\n1997-01-07,3.82\n1997-01-09,3.8\n1997-02-03,2.15\n", string(daily))

	monthly, err := os.ReadFile(paths.MonthlyCSV)
	require.NoError(t, err)
	assert.Equal(t, "Date,Price\nJanuary 1997,3.82\nFebruary 1997,2.15\n", string(monthly))

	step := state.GetStage(StageIDTransform)
	assert.Equal(t, 3, step.Metadata["daily_rows"])
	assert.Equal(t, 2, step.Metadata["monthly_rows"])
}

func TestTransformStageMissingWorkbook(t *testing.T) {
	paths := testPaths(t)
	var out bytes.Buffer

	_, err := runStage(t, newTransformStage(paths, &out))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeStorage))
	assert.Empty(t, out.String())
	assert.NoFileExists(t, paths.DailyCSV)
}

func writeMonthlyCSV(t *testing.T, paths *config.Paths) {
	t.Helper()
	content := "Date,Price\nJanuary 1997,3.82\nFebruary 1997,2.15\nMarch 1997,1.89\n"
	require.NoError(t, os.WriteFile(paths.MonthlyCSV, []byte(content), 0644))
}

func TestVisualizeStageWithoutViewer(t *testing.T) {
	paths := testPaths(t)
	paths.ChartFile = filepath.Join(paths.WorkDir, "charts", "monthly.png")
	writeMonthlyCSV(t, paths)

	var out bytes.Buffer
	stage := NewVisualizeStage(exporter.NewPriceExporter(paths.WorkDir), files.NewManager(paths.WorkDir),
		paths, config.ViewerConfig{Enabled: false}, &out, quietLogger())

	state, err := runStage(t, stage)
	require.NoError(t, err)

	data, err := os.ReadFile(paths.ChartFile)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))
	assert.Equal(t, "viewer disabled", state.GetStage(StageIDVisualize).GetMessage())
	assert.Empty(t, out.String())
}

func TestVisualizeStageEmptySeries(t *testing.T) {
	paths := testPaths(t)
	paths.ChartFile = filepath.Join(paths.WorkDir, "monthly.png")
	require.NoError(t, os.WriteFile(paths.MonthlyCSV, []byte("Date,Price\n"), 0644))

	stage := NewVisualizeStage(exporter.NewPriceExporter(paths.WorkDir), files.NewManager(paths.WorkDir),
		paths, config.ViewerConfig{Enabled: false}, io.Discard, quietLogger())

	state, err := runStage(t, stage)
	require.NoError(t, err)

	data, err := os.ReadFile(paths.ChartFile)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))
	assert.Equal(t, 0, state.GetStage(StageIDVisualize).Metadata["points"])
}

func TestVisualizeStageMissingCSV(t *testing.T) {
	paths := testPaths(t)
	stage := NewVisualizeStage(exporter.NewPriceExporter(paths.WorkDir), files.NewManager(paths.WorkDir),
		paths, config.ViewerConfig{Enabled: false}, io.Discard, quietLogger())

	_, err := runStage(t, stage)
	assert.Error(t, err)
}

// dismissingWriter closes the viewer as soon as its URL is printed
type dismissingWriter struct {
	mu   sync.Mutex
	buf  bytes.Buffer
	t    *testing.T
	done chan struct{}
}

func (w *dismissingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	scanner := bufio.NewScanner(bytes.NewReader(p))
	for scanner.Scan() {
		line := scanner.Text()
		if rest, ok := strings.CutPrefix(line, "Chart available at "); ok {
			url := strings.Fields(rest)[0]
			go func() {
				defer close(w.done)
				resp, err := http.Post(url+"dismiss", "text/plain", nil)
				if assert.NoError(w.t, err) {
					resp.Body.Close()
				}
			}()
		}
	}
	return w.buf.Write(p)
}

func TestVisualizeStageServesUntilDismissed(t *testing.T) {
	paths := testPaths(t)
	writeMonthlyCSV(t, paths)

	out := &dismissingWriter{t: t, done: make(chan struct{})}
	stage := NewVisualizeStage(exporter.NewPriceExporter(paths.WorkDir), files.NewManager(paths.WorkDir),
		paths, config.ViewerConfig{Enabled: true, Addr: "127.0.0.1:0"}, out, quietLogger())

	state, err := runStage(t, stage)
	require.NoError(t, err)

	select {
	case <-out.done:
	case <-time.After(5 * time.Second):
		t.Fatal("viewer was never dismissed")
	}
	assert.Equal(t, "chart dismissed", state.GetStage(StageIDVisualize).GetMessage())
}

func TestVisualizeStageCancelled(t *testing.T) {
	paths := testPaths(t)
	writeMonthlyCSV(t, paths)

	stage := NewVisualizeStage(exporter.NewPriceExporter(paths.WorkDir), files.NewManager(paths.WorkDir),
		paths, config.ViewerConfig{Enabled: true, Addr: "127.0.0.1:0"}, io.Discard, quietLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	state := NewRunState("test-run")
	state.AddStage(NewStepState(stage.ID(), stage.Name()))
	err := stage.Execute(ctx, state)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPackageStage(t *testing.T) {
	paths := testPaths(t)
	stage := NewPackageStage(config.Default().Package, files.NewManager(paths.WorkDir), paths, quietLogger())

	state, err := runStage(t, stage)
	require.NoError(t, err)
	assert.Equal(t, paths.DataPackage, state.GetStage(StageIDPackage).Metadata["path"])

	pkg, err := datapackage.Load(files.NewManager(paths.WorkDir), paths.DataPackage)
	require.NoError(t, err)
	require.Len(t, pkg.Resources, 2)
	assert.Equal(t, "daily_natural_gas_prices.csv", pkg.Resource(datapackage.ResourceDaily).Path)
	assert.Equal(t, "monthly_natural_gas_prices.csv", pkg.Resource(datapackage.ResourceMonthly).Path)
}

func TestPackageStageInvalidConfig(t *testing.T) {
	paths := testPaths(t)
	cfg := config.Default().Package
	cfg.Name = ""

	stage := NewPackageStage(cfg, files.NewManager(paths.WorkDir), paths, quietLogger())
	_, err := runStage(t, stage)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
	assert.NoFileExists(t, paths.DataPackage)
}

func TestPipelineEndToEnd(t *testing.T) {
	paths := testPaths(t)
	var out bytes.Buffer

	fake := &fakeFetcher{before: func(destDir string) {
		writeWorkbook(t, filepath.Join(destDir, "RNGWHHDd.xlsx"))
	}}
	fake.result = &fetcher.DownloadResult{
		Path: filepath.Join(paths.WorkDir, "RNGWHHDd.xlsx"),
		Name: "RNGWHHDd.xlsx",
	}

	runner, _ := newTestRunner(t,
		NewFetchStage(fake, config.DefaultIndexURL, paths, &out, quietLogger()),
		newTransformStage(paths, &out),
		NewVisualizeStage(exporter.NewPriceExporter(paths.WorkDir), files.NewManager(paths.WorkDir),
			paths, config.ViewerConfig{Enabled: false}, &out, quietLogger()),
		NewPackageStage(config.Default().Package, files.NewManager(paths.WorkDir), paths, quietLogger()),
	)

	state, err := runner.Run(context.Background(), "run-e2e", StageAll)
	require.NoError(t, err)
	assert.Equal(t, RunStatusCompleted, state.GetStatus())

	assert.Equal(t,
		"File downloaded successfully: RNGWHHDd.xlsx\n"+
			"File is located at: "+filepath.Join(paths.WorkDir, "RNGWHHDd.xlsx")+"\n"+
			"Data processed and saved to CSV files!\n",
		out.String())

	monthly, err := exporter.NewPriceExporter(paths.WorkDir).ReadMonthly(paths.MonthlyCSV)
	require.NoError(t, err)
	require.Len(t, monthly, 2)
	assert.Equal(t, "January 1997", monthly[0].Label())
	assert.Equal(t, "3.82", monthly[0].Price.Decimal.String())

	assert.FileExists(t, paths.DataPackage)
}

func TestPipelineWithoutPrices(t *testing.T) {
	paths := testPaths(t)
	paths.Spreadsheet = filepath.Join(paths.WorkDir, "undated.xlsx")

	f := excelize.NewFile()
	sheet := config.DefaultSheetName
	require.NoError(t, f.SetSheetName(f.GetSheetName(0), sheet))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"Sourcekey", "RNGWHHD"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{"Date", "Price"}))
	require.NoError(t, f.SetSheetRow(sheet, "A4", &[]interface{}{"not a date", 3.82}))
	require.NoError(t, f.SaveAs(paths.Spreadsheet))
	require.NoError(t, f.Close())

	var out bytes.Buffer
	runner, _ := newTestRunner(t,
		newTransformStage(paths, &out),
		NewVisualizeStage(exporter.NewPriceExporter(paths.WorkDir), files.NewManager(paths.WorkDir),
			paths, config.ViewerConfig{Enabled: false}, &out, quietLogger()),
		NewPackageStage(config.Default().Package, files.NewManager(paths.WorkDir), paths, quietLogger()),
	)

	state, err := runner.Run(context.Background(), "run-empty", StageAll)
	require.NoError(t, err)
	assert.Equal(t, RunStatusCompleted, state.GetStatus())

	monthly, err := os.ReadFile(paths.MonthlyCSV)
	require.NoError(t, err)
	assert.Equal(t, "Date,Price\n", string(monthly))
	assert.FileExists(t, paths.DataPackage)
}
