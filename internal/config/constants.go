package config

// Application constants
const (
	AppName    = "natgascli"
	AppVersion = "1.0.0"

	// EnvPrefix namespaces environment variables (NGP_WORK_DIR, NGP_FETCH_INDEX_URL, ...)
	EnvPrefix = "NGP"

	// EIA Henry Hub natural gas spot price history
	DefaultIndexURL = "https://www.eia.gov/dnav/ng/hist/rngwhhdM.htm"

	DefaultSheetName       = "Data 1"
	DefaultSpreadsheetFile = "RNGWHHDm.xls"

	// Output files, relative to the work directory
	DailyCSVFile    = "daily_natural_gas_prices.csv"
	MonthlyCSVFile  = "monthly_natural_gas_prices.csv"
	DataPackageFile = "datapackage.json"

	DefaultViewerAddr = "127.0.0.1:8765"

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
	DefaultLogFile   = "logs/natgas.log"
)
