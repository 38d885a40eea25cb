// Package config provides centralized configuration for the natural gas
// price pipeline.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. YAML file (natgas.yaml, configs/natgas.yaml, or -config)
//	3. Default values matching the published dataset (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern NGP_* for namespacing:
//
//	NGP_WORK_DIR=/srv/natgas
//	NGP_FETCH_INDEX_URL=https://www.eia.gov/dnav/ng/hist/rngwhhdM.htm
//	NGP_TRANSFORM_SHEET_NAME="Data 1"
//	NGP_VIEWER_ENABLED=false
//	NGP_LOGGING_LEVEL=debug
//
// # Paths
//
// GetPaths resolves every file name against the work directory. The
// spreadsheet read by the transform stage is shared with the fetch stage
// through Paths.SpreadsheetPath, so both agree on a single location.
package config
