package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"natgascli/internal/config"
	"natgascli/internal/dataprocessing"
	"natgascli/internal/exporter"
	"natgascli/internal/fetcher"
	"natgascli/internal/files"
	"natgascli/internal/infrastructure"
	"natgascli/internal/operations"
	"natgascli/internal/validation"
	"natgascli/pkg/contracts"
)

const telemetryShutdownTimeout = 5 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		slog.Error("Pipeline failed", "error", err)
		stop()
		os.Exit(1)
	}
}

// run parses flags, wires the stages and executes the pipeline
func run(ctx context.Context, args []string, stdout io.Writer) error {
	flags := flag.NewFlagSet("natgas", flag.ContinueOnError)
	stage := flags.String("stage", operations.StageAll, "stage to run: all, fetch, transform, visualize or package")
	configFile := flags.String("config", "", "YAML config file (defaults to natgas.yaml or configs/natgas.yaml when present)")
	showVersion := flags.Bool("version", false, "print version information and exit")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if *showVersion {
		fmt.Fprintln(stdout, contracts.GetFullVersionString())
		return nil
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		return err
	}

	paths, err := config.GetPaths(cfg)
	if err != nil {
		return err
	}
	if err := paths.EnsureDirectories(); err != nil {
		return err
	}
	if paths.LogFile != "" {
		cfg.Logging.FilePath = paths.LogFile
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer infrastructure.CloseLogFile()

	paths.LogPathResolution(logger)
	if err := validation.NewFileValidator(logger).ValidateOutputDirectory(paths.WorkDir); err != nil {
		return err
	}

	providers, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), telemetryShutdownTimeout)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Telemetry shutdown incomplete", slog.String("error", err.Error()))
		}
	}()

	metrics, err := infrastructure.CreatePipelineMetrics(providers.Meter)
	if err != nil {
		return fmt.Errorf("failed to create pipeline metrics: %w", err)
	}

	runner, err := newRunner(cfg, paths, providers, metrics, stdout, logger)
	if err != nil {
		return err
	}

	ctx, runID := infrastructure.StartRun(ctx)

	logger.InfoContext(ctx, "Starting natural gas price pipeline",
		slog.String("version", contracts.GetVersionString()),
		slog.String("stage", *stage),
		slog.String("work_dir", paths.WorkDir))

	_, runErr := runner.Run(ctx, runID, *stage)

	if err := providers.WriteMetricsFile(paths.MetricsFile); err != nil {
		logger.WarnContext(ctx, "Failed to write metrics file", slog.String("error", err.Error()))
	}

	return runErr
}

// newRunner registers the four stages in pipeline order
func newRunner(cfg *config.Config, paths *config.Paths, providers *infrastructure.OTelProviders,
	metrics *infrastructure.PipelineMetrics, stdout io.Writer, logger *slog.Logger) (*operations.Runner, error) {
	fm := files.NewManager(paths.WorkDir)

	f := fetcher.New(fetcher.Options{
		UserAgent: cfg.Fetch.UserAgent,
		Timeout:   cfg.Fetch.Timeout,
		RateLimit: cfg.Fetch.RateLimit,
		Burst:     cfg.Fetch.Burst,
		Browser:   cfg.Fetch.Browser,
	}, fm, logger)

	transformer := dataprocessing.NewTransformer(dataprocessing.TransformOptions{
		SheetName:       cfg.Transform.SheetName,
		HeaderRow:       cfg.Transform.HeaderRow,
		DropLeadingRows: cfg.Transform.DropLeadingRows,
	}, logger)

	prices := exporter.NewPriceExporter(paths.WorkDir).WithBOM(cfg.Transform.CSVBOM)

	runner := operations.NewRunner(operations.NewStageTracer(providers.Tracer, metrics), logger)
	stages := []operations.Stage{
		operations.NewFetchStage(f, cfg.Fetch.IndexURL, paths, stdout, logger),
		operations.NewTransformStage(transformer, prices, paths, metrics, stdout, logger),
		operations.NewVisualizeStage(prices, fm, paths, cfg.Viewer, stdout, logger),
		operations.NewPackageStage(cfg.Package, fm, paths, logger),
	}
	for _, s := range stages {
		if err := runner.Register(s); err != nil {
			return nil, err
		}
	}
	return runner, nil
}
