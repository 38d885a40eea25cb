package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	WorkDir   string          `yaml:"work_dir" envconfig:"WORK_DIR" validate:"required"`
	Fetch     FetchConfig     `yaml:"fetch" envconfig:"FETCH"`
	Transform TransformConfig `yaml:"transform" envconfig:"TRANSFORM"`
	Viewer    ViewerConfig    `yaml:"viewer" envconfig:"VIEWER"`
	Package   PackageConfig   `yaml:"package" envconfig:"PACKAGE"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// FetchConfig controls how the index page and the spreadsheet are retrieved
type FetchConfig struct {
	IndexURL  string        `yaml:"index_url" envconfig:"INDEX_URL" validate:"required,url"`
	UserAgent string        `yaml:"user_agent" envconfig:"USER_AGENT"`
	Timeout   time.Duration `yaml:"timeout" envconfig:"TIMEOUT" validate:"gte=0"`
	RateLimit float64       `yaml:"rate_limit" envconfig:"RATE_LIMIT" validate:"gte=0"`
	Burst     int           `yaml:"burst" envconfig:"BURST" validate:"gte=1"`
	Browser   bool          `yaml:"browser" envconfig:"BROWSER"`
}

// TransformConfig describes the layout of the source workbook
type TransformConfig struct {
	SheetName       string `yaml:"sheet_name" envconfig:"SHEET_NAME" validate:"required"`
	HeaderRow       int    `yaml:"header_row" envconfig:"HEADER_ROW" validate:"gte=0"`
	DropLeadingRows int    `yaml:"drop_leading_rows" envconfig:"DROP_LEADING_ROWS" validate:"gte=0"`
	// CSVBOM prefixes the output CSVs with a UTF-8 byte order mark
	CSVBOM          bool   `yaml:"csv_bom" envconfig:"CSV_BOM"`
}

// ViewerConfig controls the local chart viewer
type ViewerConfig struct {
	Enabled bool   `yaml:"enabled" envconfig:"ENABLED"`
	Addr    string `yaml:"addr" envconfig:"ADDR" validate:"omitempty,hostname_port"`
}

// PackageConfig holds the data package identity
type PackageConfig struct {
	Name    string `yaml:"name" envconfig:"NAME" validate:"required"`
	Title   string `yaml:"title" envconfig:"TITLE"`
	Version string `yaml:"version" envconfig:"VERSION" validate:"required"`
}

// PathsConfig contains file names; relative names resolve against WorkDir
type PathsConfig struct {
	Spreadsheet        string `yaml:"spreadsheet" envconfig:"SPREADSHEET"`
	DefaultSpreadsheet string `yaml:"default_spreadsheet" envconfig:"DEFAULT_SPREADSHEET" validate:"required"`
	DailyCSV           string `yaml:"daily_csv" envconfig:"DAILY_CSV" validate:"required"`
	MonthlyCSV         string `yaml:"monthly_csv" envconfig:"MONTHLY_CSV" validate:"required"`
	DataPackage        string `yaml:"datapackage" envconfig:"DATAPACKAGE" validate:"required"`
	ChartFile          string `yaml:"chart_file" envconfig:"CHART_FILE"`
	MetricsFile        string `yaml:"metrics_file" envconfig:"METRICS_FILE"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"omitempty,oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"omitempty,oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"omitempty,oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// TelemetryConfig toggles tracing and metrics
type TelemetryConfig struct {
	EnableTracing bool    `yaml:"enable_tracing" envconfig:"ENABLE_TRACING"`
	TraceExporter string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"omitempty,oneof=stdout none"`
	EnableMetrics bool    `yaml:"enable_metrics" envconfig:"ENABLE_METRICS"`
	SampleRatio   float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" validate:"gte=0,lte=1"`
}

// Load builds the configuration from defaults, an optional YAML file and
// NGP_* environment variables, in increasing order of precedence.
// An empty configFile means "look in the usual places".
func Load(configFile string) (*Config, error) {
	cfg := Default()

	if configFile == "" {
		configFile = getConfigFilePath()
	}
	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// Fields without a matching variable are left untouched
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks struct constraints and normalises logging settings
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "console"
	}
	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		c.Logging.FilePath = DefaultLogFile
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	locations := []string{
		"natgas.yaml",
		"configs/natgas.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns the built-in configuration for the EIA Henry Hub series
func Default() *Config {
	return &Config{
		WorkDir: ".",
		Fetch: FetchConfig{
			IndexURL:  DefaultIndexURL,
			UserAgent: AppName + "/" + AppVersion,
			RateLimit: 2,
			Burst:     1,
		},
		Transform: TransformConfig{
			SheetName:       DefaultSheetName,
			HeaderRow:       1,
			DropLeadingRows: 1,
		},
		Viewer: ViewerConfig{
			Enabled: true,
			Addr:    DefaultViewerAddr,
		},
		Package: PackageConfig{
			Name:    "natural-gas-prices",
			Title:   "Natural Gas Prices Data",
			Version: "1.0.0",
		},
		Paths: PathsConfig{
			DefaultSpreadsheet: DefaultSpreadsheetFile,
			DailyCSV:           DailyCSVFile,
			MonthlyCSV:         MonthlyCSVFile,
			DataPackage:        DataPackageFile,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
			Output: "console",
		},
		Telemetry: TelemetryConfig{
			EnableTracing: false,
			TraceExporter: "stdout",
			EnableMetrics: true,
			SampleRatio:   1.0,
		},
	}
}
