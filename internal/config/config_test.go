package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoad tests the Load function with various scenarios
func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		setupEnv    func(t *testing.T)
		fileContent string
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults match the published dataset",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, DefaultIndexURL, cfg.Fetch.IndexURL)
				assert.Equal(t, "Data 1", cfg.Transform.SheetName)
				assert.Equal(t, 1, cfg.Transform.HeaderRow)
				assert.Equal(t, 1, cfg.Transform.DropLeadingRows)
				assert.Equal(t, "daily_natural_gas_prices.csv", cfg.Paths.DailyCSV)
				assert.Equal(t, "monthly_natural_gas_prices.csv", cfg.Paths.MonthlyCSV)
				assert.Equal(t, "datapackage.json", cfg.Paths.DataPackage)
				assert.Equal(t, time.Duration(0), cfg.Fetch.Timeout)
				assert.True(t, cfg.Viewer.Enabled)
			},
		},
		{
			name: "yaml file overrides defaults",
			fileContent: `
work_dir: /tmp/natgas
fetch:
  timeout: 45s
transform:
  sheet_name: "Data 2"
viewer:
  enabled: false
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "/tmp/natgas", cfg.WorkDir)
				assert.Equal(t, 45*time.Second, cfg.Fetch.Timeout)
				assert.Equal(t, "Data 2", cfg.Transform.SheetName)
				assert.False(t, cfg.Viewer.Enabled)
				// untouched sections keep their defaults
				assert.Equal(t, DefaultIndexURL, cfg.Fetch.IndexURL)
			},
		},
		{
			name: "environment overrides yaml",
			setupEnv: func(t *testing.T) {
				t.Setenv("NGP_TRANSFORM_SHEET_NAME", "Env Sheet")
				t.Setenv("NGP_LOGGING_LEVEL", "debug")
			},
			fileContent: `
transform:
  sheet_name: "Data 2"
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "Env Sheet", cfg.Transform.SheetName)
				assert.Equal(t, "debug", cfg.Logging.Level)
			},
		},
		{
			name: "invalid index url",
			setupEnv: func(t *testing.T) {
				t.Setenv("NGP_FETCH_INDEX_URL", "not a url")
			},
			wantErr: true,
		},
		{
			name: "invalid log output",
			setupEnv: func(t *testing.T) {
				t.Setenv("NGP_LOGGING_OUTPUT", "syslog")
			},
			wantErr: true,
		},
		{
			name:        "malformed yaml",
			fileContent: "fetch: [unterminated",
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setupEnv != nil {
				tt.setupEnv(t)
			}

			configFile := filepath.Join(t.TempDir(), "missing.yaml")
			if tt.fileContent != "" {
				configFile = filepath.Join(t.TempDir(), "natgas.yaml")
				require.NoError(t, os.WriteFile(configFile, []byte(tt.fileContent), 0644))
			}

			var cfg *Config
			var err error
			if tt.fileContent != "" {
				cfg, err = Load(configFile)
			} else {
				cfg, err = loadWithoutFile(t)
			}

			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.validateCfg(t, cfg)
		})
	}
}

// loadWithoutFile runs Load from an empty directory so no config file is found
func loadWithoutFile(t *testing.T) (*Config, error) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return Load("")
}

func TestValidateFillsLogFile(t *testing.T) {
	cfg := Default()
	cfg.Logging.Output = "both"
	cfg.Logging.FilePath = ""

	require.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultLogFile, cfg.Logging.FilePath)
}

func TestGetPaths(t *testing.T) {
	workDir := t.TempDir()
	cfg := Default()
	cfg.WorkDir = workDir
	cfg.Paths.ChartFile = "charts/monthly.png"

	paths, err := GetPaths(cfg)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(workDir, "daily_natural_gas_prices.csv"), paths.DailyCSV)
	assert.Equal(t, filepath.Join(workDir, "monthly_natural_gas_prices.csv"), paths.MonthlyCSV)
	assert.Equal(t, filepath.Join(workDir, "datapackage.json"), paths.DataPackage)
	assert.Equal(t, filepath.Join(workDir, "charts", "monthly.png"), paths.ChartFile)
	assert.Empty(t, paths.Spreadsheet)
	assert.Empty(t, paths.MetricsFile)

	require.NoError(t, paths.EnsureDirectories())
	assert.DirExists(t, filepath.Join(workDir, "charts"))
}

func TestSpreadsheetPath(t *testing.T) {
	workDir := t.TempDir()
	cfg := Default()
	cfg.WorkDir = workDir

	paths, err := GetPaths(cfg)
	require.NoError(t, err)

	fetched := filepath.Join(workDir, "RNGWHHDd.xls")
	assert.Equal(t, filepath.Join(workDir, "RNGWHHDm.xls"), paths.SpreadsheetPath(""))
	assert.Equal(t, fetched, paths.SpreadsheetPath(fetched))

	cfg.Paths.Spreadsheet = "/data/pinned.xlsx"
	paths, err = GetPaths(cfg)
	require.NoError(t, err)
	assert.Equal(t, "/data/pinned.xlsx", paths.SpreadsheetPath(fetched))
}
