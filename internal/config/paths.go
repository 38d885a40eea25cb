package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains all the application paths.
// This is the single source of truth for file locations; every stage receives
// its inputs and outputs from here rather than hardcoding them.
type Paths struct {
	WorkDir string

	// Spreadsheet is the configured workbook location; empty means the stage
	// falls back to whatever the fetch stage wrote, then DefaultSpreadsheet.
	Spreadsheet        string
	DefaultSpreadsheet string

	DailyCSV    string
	MonthlyCSV  string
	DataPackage string
	ChartFile   string
	MetricsFile string
	LogFile     string
}

// GetPaths resolves every configured file name against the work directory
func GetPaths(cfg *Config) (*Paths, error) {
	workDir, err := filepath.Abs(cfg.WorkDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve work directory: %w", err)
	}

	p := &Paths{WorkDir: workDir}
	p.Spreadsheet = p.resolveOptional(cfg.Paths.Spreadsheet)
	p.DefaultSpreadsheet = p.Resolve(cfg.Paths.DefaultSpreadsheet)
	p.DailyCSV = p.Resolve(cfg.Paths.DailyCSV)
	p.MonthlyCSV = p.Resolve(cfg.Paths.MonthlyCSV)
	p.DataPackage = p.Resolve(cfg.Paths.DataPackage)
	p.ChartFile = p.resolveOptional(cfg.Paths.ChartFile)
	p.MetricsFile = p.resolveOptional(cfg.Paths.MetricsFile)
	p.LogFile = p.resolveOptional(cfg.Logging.FilePath)

	return p, nil
}

// Resolve returns name unchanged when absolute, otherwise joined to WorkDir
func (p *Paths) Resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(p.WorkDir, name)
}

func (p *Paths) resolveOptional(name string) string {
	if name == "" {
		return ""
	}
	return p.Resolve(name)
}

// SpreadsheetPath picks the workbook the transform stage reads.
// Order: configured path, the file fetched in this run, the default name.
func (p *Paths) SpreadsheetPath(fetched string) string {
	switch {
	case p.Spreadsheet != "":
		return p.Spreadsheet
	case fetched != "":
		return fetched
	default:
		return p.DefaultSpreadsheet
	}
}

// EnsureDirectories creates the work directory and the parents of every output
func (p *Paths) EnsureDirectories() error {
	directories := []string{p.WorkDir}
	for _, file := range []string{p.DailyCSV, p.MonthlyCSV, p.DataPackage, p.ChartFile, p.MetricsFile} {
		if file != "" {
			directories = append(directories, filepath.Dir(file))
		}
	}

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		slog.Debug("Ensured directory exists", slog.String("directory", dir))
	}

	return nil
}

// LogPathResolution logs the resolved paths for debugging
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	logger.Info("Path resolution summary",
		slog.String("work_dir", p.WorkDir),
		slog.Group("inputs",
			slog.String("spreadsheet", p.Spreadsheet),
			slog.String("default_spreadsheet", p.DefaultSpreadsheet),
		),
		slog.Group("outputs",
			slog.String("daily_csv", p.DailyCSV),
			slog.String("monthly_csv", p.MonthlyCSV),
			slog.String("datapackage", p.DataPackage),
			slog.String("chart_file", p.ChartFile),
			slog.String("metrics_file", p.MetricsFile),
		))
}
