package operations

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"natgascli/internal/chart"
	"natgascli/internal/config"
	"natgascli/internal/dataprocessing"
	"natgascli/internal/datapackage"
	apperrors "natgascli/internal/errors"
	"natgascli/internal/exporter"
	"natgascli/internal/fetcher"
	"natgascli/internal/files"
	"natgascli/internal/infrastructure"
	handlers "natgascli/internal/transport/http"
	"natgascli/internal/validation"
)

// Stage IDs and names
const (
	StageIDFetch       = "fetch"
	StageIDTransform   = "transform"
	StageIDVisualize   = "visualize"
	StageIDPackage     = "package"
	StageNameFetch     = "Fetcher"
	StageNameTransform = "Transformer"
	StageNameVisualize = "Visualizer"
	StageNamePackage   = "Packager"
)

// SpreadsheetFetcher finds and downloads the published workbook
type SpreadsheetFetcher interface {
	Run(ctx context.Context, pageURL, destDir string) (*fetcher.DownloadResult, error)
}

// FetchStage downloads the workbook linked from the index page.
// A missing link or a failed download ends the stage without failing the run.
type FetchStage struct {
	BaseStage
	fetcher  SpreadsheetFetcher
	indexURL string
	paths    *config.Paths
	out      io.Writer
	logger   *slog.Logger
}

// NewFetchStage creates the fetch stage
func NewFetchStage(f SpreadsheetFetcher, indexURL string, paths *config.Paths, out io.Writer, logger *slog.Logger) *FetchStage {
	return &FetchStage{
		BaseStage: NewBaseStage(StageIDFetch, StageNameFetch),
		fetcher:   f,
		indexURL:  indexURL,
		paths:     paths,
		out:       out,
		logger:    stageLogger(logger, StageIDFetch),
	}
}

// Execute runs the fetch
func (s *FetchStage) Execute(ctx context.Context, state *RunState) error {
	step := state.GetStage(s.ID())

	result, err := s.fetcher.Run(ctx, s.indexURL, s.paths.WorkDir)

	var downloadErr *fetcher.DownloadError
	switch {
	case errors.Is(err, apperrors.ErrSpreadsheetLinkNotFound):
		fmt.Fprintln(s.out, apperrors.ErrSpreadsheetLinkNotFound.Error())
		step.SetMessage("no spreadsheet link on index page")
	case errors.As(err, &downloadErr):
		fmt.Fprintf(s.out, "An error occurred while downloading the file: %v\n", downloadErr)
		s.logger.WarnContext(ctx, "Spreadsheet download failed",
			slog.String("url", downloadErr.URL),
			slog.Int("status", downloadErr.StatusCode),
			slog.String("error", downloadErr.Error()))
		step.SetMessage("download failed")
	case err != nil:
		return err
	default:
		fmt.Fprintf(s.out, "File downloaded successfully: %s\n", result.Name)
		state.SetContext(ContextKeySpreadsheet, result.Path)
		step.SetMessage("downloaded " + result.Name)
		step.SetMetadata("url", result.URL)
		step.SetMetadata("bytes", result.Bytes)
	}

	fmt.Fprintf(s.out, "File is located at: %s\n", s.paths.SpreadsheetPath(state.FetchedSpreadsheet()))
	return nil
}

// TransformStage converts the workbook into the daily and monthly CSVs
type TransformStage struct {
	BaseStage
	transformer *dataprocessing.Transformer
	exporter    *exporter.PriceExporter
	paths       *config.Paths
	metrics     *infrastructure.PipelineMetrics
	validator   *validation.FileValidator
	out         io.Writer
	logger      *slog.Logger
}

// NewTransformStage creates the transform stage
func NewTransformStage(t *dataprocessing.Transformer, e *exporter.PriceExporter, paths *config.Paths,
	metrics *infrastructure.PipelineMetrics, out io.Writer, logger *slog.Logger) *TransformStage {
	return &TransformStage{
		BaseStage:   NewBaseStage(StageIDTransform, StageNameTransform),
		transformer: t,
		exporter:    e,
		paths:       paths,
		metrics:     metrics,
		validator:   validation.NewFileValidator(logger),
		out:         out,
		logger:      stageLogger(logger, StageIDTransform),
	}
}

// Execute reads the workbook and writes both tables
func (s *TransformStage) Execute(ctx context.Context, state *RunState) error {
	step := state.GetStage(s.ID())
	source := s.paths.SpreadsheetPath(state.FetchedSpreadsheet())

	result, err := s.transformer.Transform(ctx, source)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrTypeStorage) && state.FetchedSpreadsheet() == "" {
			s.logger.WarnContext(ctx, "No workbook was downloaded in this run; set paths.spreadsheet or run the fetch stage",
				slog.String("source", source))
		}
		return err
	}

	if err := s.exporter.WriteDaily(s.paths.DailyCSV, result.Daily); err != nil {
		return err
	}
	s.metrics.RecordRows(ctx, datapackage.ResourceDaily, len(result.Daily))

	if err := s.exporter.WriteMonthly(s.paths.MonthlyCSV, result.Monthly); err != nil {
		return err
	}
	s.metrics.RecordRows(ctx, datapackage.ResourceMonthly, len(result.Monthly))

	for _, path := range []string{s.paths.DailyCSV, s.paths.MonthlyCSV} {
		if err := s.validator.ValidateCSVFile(path, exporter.PriceHeaders()...); err != nil {
			return apperrors.NewStorageError("written table failed validation", err)
		}
	}

	s.logger.DebugContext(ctx, "Transform statistics",
		slog.String("source", source),
		slog.Int("rows_read", result.Stats.RowsRead),
		slog.Int("dropped_leading", result.Stats.DroppedLeading),
		slog.Int("dropped_dates", result.Stats.DroppedDates),
		slog.Int("null_prices", result.Stats.NullPrices))

	state.SetContext(ContextKeyMonthlyRows, len(result.Monthly))
	step.SetMetadata("source", source)
	step.SetMetadata("daily_rows", len(result.Daily))
	step.SetMetadata("monthly_rows", len(result.Monthly))

	fmt.Fprintln(s.out, "Data processed and saved to CSV files!")
	return nil
}

// VisualizeStage charts the monthly CSV and shows it in the local viewer
type VisualizeStage struct {
	BaseStage
	exporter  *exporter.PriceExporter
	files     *files.Manager
	paths     *config.Paths
	viewer    config.ViewerConfig
	chartOpts chart.Options
	out       io.Writer
	logger    *slog.Logger
}

// NewVisualizeStage creates the visualize stage
func NewVisualizeStage(e *exporter.PriceExporter, fm *files.Manager, paths *config.Paths,
	viewer config.ViewerConfig, out io.Writer, logger *slog.Logger) *VisualizeStage {
	return &VisualizeStage{
		BaseStage: NewBaseStage(StageIDVisualize, StageNameVisualize),
		exporter:  e,
		files:     fm,
		paths:     paths,
		viewer:    viewer,
		chartOpts: chart.DefaultOptions(),
		out:       out,
		logger:    stageLogger(logger, StageIDVisualize),
	}
}

// Execute renders the chart and blocks until the viewer is closed
func (s *VisualizeStage) Execute(ctx context.Context, state *RunState) error {
	step := state.GetStage(s.ID())

	monthly, err := s.exporter.ReadMonthly(s.paths.MonthlyCSV)
	if err != nil {
		return err
	}

	points := chart.Points(monthly)
	if len(points) == 0 {
		s.logger.WarnContext(ctx, "Monthly table has no prices, charting empty axes",
			slog.String("path", s.paths.MonthlyCSV))
	}

	image, err := chart.Render(monthly, s.chartOpts)
	if err != nil {
		return err
	}
	step.SetMetadata("points", len(points))

	if s.paths.ChartFile != "" {
		if err := s.files.WriteFile(s.paths.ChartFile, image); err != nil {
			return apperrors.NewStorageError("failed to save chart", err).
				WithContext("path", s.paths.ChartFile)
		}
		step.SetMetadata("chart_file", s.paths.ChartFile)
		s.logger.InfoContext(ctx, "Chart saved", slog.String("path", s.paths.ChartFile))
	}

	if !s.viewer.Enabled {
		step.SetMessage("viewer disabled")
		return nil
	}

	v := handlers.NewViewer(s.viewer.Addr, s.chartOpts.Title, image, points, s.logger)
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- v.Serve(ctx)
	}()

	select {
	case <-v.Ready():
		fmt.Fprintf(s.out, "Chart available at %s (press Close to continue)\n", v.URL())
		err = <-serveErr
	case err = <-serveErr:
	}
	if err != nil {
		return err
	}

	step.SetMessage("chart dismissed")
	return nil
}

// PackageStage writes datapackage.json describing both CSVs
type PackageStage struct {
	BaseStage
	pkgConfig config.PackageConfig
	files     *files.Manager
	paths     *config.Paths
	logger    *slog.Logger
}

// NewPackageStage creates the package stage
func NewPackageStage(cfg config.PackageConfig, fm *files.Manager, paths *config.Paths, logger *slog.Logger) *PackageStage {
	return &PackageStage{
		BaseStage: NewBaseStage(StageIDPackage, StageNamePackage),
		pkgConfig: cfg,
		files:     fm,
		paths:     paths,
		logger:    stageLogger(logger, StageIDPackage),
	}
}

// Execute builds, validates and saves the manifest
func (s *PackageStage) Execute(ctx context.Context, state *RunState) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	manifest := s.paths.DataPackage
	for _, table := range []string{s.paths.DailyCSV, s.paths.MonthlyCSV} {
		if !s.files.FileExists(table) {
			s.logger.WarnContext(ctx, "Described table does not exist yet", slog.String("path", table))
		}
	}

	pkg := datapackage.Build(s.pkgConfig,
		datapackage.RelativePath(manifest, s.paths.DailyCSV),
		datapackage.RelativePath(manifest, s.paths.MonthlyCSV))

	if err := pkg.Validate(); err != nil {
		return err
	}
	if err := pkg.Save(s.files, manifest); err != nil {
		return err
	}

	state.GetStage(s.ID()).SetMetadata("path", manifest)
	s.logger.InfoContext(ctx, "Data package saved",
		slog.String("path", manifest),
		slog.Int("resources", len(pkg.Resources)))
	return nil
}

func stageLogger(logger *slog.Logger, stageID string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With(slog.String("stage", stageID))
}
