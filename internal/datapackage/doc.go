// Package datapackage builds and persists the tabular data-package manifest
// (datapackage.json) that describes the daily and monthly price CSVs.
//
// The manifest is rebuilt from configuration on every run and overwrites any
// previous file. It names the CSV files but does not inspect them.
package datapackage
