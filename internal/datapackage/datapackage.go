package datapackage

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"

	"natgascli/internal/config"
	apperrors "natgascli/internal/errors"
	"natgascli/internal/files"
	"natgascli/pkg/contracts"
)

// Resource names double as metric labels for the written tables
const (
	ResourceDaily   = "daily-prices"
	ResourceMonthly = "monthly-prices"
)

const (
	FormatCSV       = "csv"
	FieldTypeDate   = "date"
	FieldTypeNumber = "number"
)

// Field describes one column of a resource
type Field struct {
	Name string `json:"name" validate:"required"`
	Type string `json:"type" validate:"required,oneof=string number integer boolean date datetime year yearmonth"`
}

// Schema is a table schema
type Schema struct {
	Fields []Field `json:"fields" validate:"required,min=1,dive"`
}

// Resource is one CSV file in the package
type Resource struct {
	Name   string `json:"name" validate:"required"`
	Path   string `json:"path" validate:"required"`
	Format string `json:"format" validate:"required"`
	Schema Schema `json:"schema"`
}

// Package is the datapackage.json document
type Package struct {
	Profile   string     `json:"profile" validate:"required"`
	Name      string     `json:"name" validate:"required"`
	Title     string     `json:"title,omitempty"`
	Version   string     `json:"version" validate:"required"`
	Resources []Resource `json:"resources" validate:"required,min=1,dive"`
}

// PriceFields is the schema shared by both price tables
func PriceFields() []Field {
	return []Field{
		{Name: "Date", Type: FieldTypeDate},
		{Name: "Price", Type: FieldTypeNumber},
	}
}

// Build describes the daily and monthly CSVs. Paths are written as given;
// use RelativePath to make them relative to the manifest.
func Build(cfg config.PackageConfig, dailyPath, monthlyPath string) *Package {
	return &Package{
		Profile: contracts.DataPackageProfile,
		Name:    cfg.Name,
		Title:   cfg.Title,
		Version: cfg.Version,
		Resources: []Resource{
			{
				Name:   ResourceDaily,
				Path:   dailyPath,
				Format: FormatCSV,
				Schema: Schema{Fields: PriceFields()},
			},
			{
				Name:   ResourceMonthly,
				Path:   monthlyPath,
				Format: FormatCSV,
				Schema: Schema{Fields: PriceFields()},
			},
		},
	}
}

// RelativePath expresses target relative to the directory holding manifest,
// with forward slashes. Targets outside that directory stay absolute.
func RelativePath(manifest, target string) string {
	rel, err := filepath.Rel(filepath.Dir(manifest), target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(target)
	}
	return filepath.ToSlash(rel)
}

// Validate checks required fields and that resource names are unique.
// Whether the referenced files exist is not checked.
func (p *Package) Validate() error {
	if err := validator.New().Struct(p); err != nil {
		return apperrors.NewAppValidationError(fmt.Sprintf("invalid data package: %v", err))
	}

	seen := make(map[string]struct{}, len(p.Resources))
	for _, r := range p.Resources {
		if _, dup := seen[r.Name]; dup {
			return apperrors.NewAppValidationError(fmt.Sprintf("duplicate resource name %q", r.Name))
		}
		seen[r.Name] = struct{}{}
	}
	return nil
}

// Resource returns the named resource, or nil
func (p *Package) Resource(name string) *Resource {
	for i := range p.Resources {
		if p.Resources[i].Name == name {
			return &p.Resources[i]
		}
	}
	return nil
}

// Save writes the package as indented JSON, replacing any previous file
func (p *Package) Save(fm *files.Manager, path string) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return apperrors.NewStorageError("failed to encode data package", err)
	}
	data = append(data, '\n')

	if err := fm.WriteFile(path, data); err != nil {
		return apperrors.NewStorageError("failed to write data package", err).
			WithContext("path", path)
	}
	return nil
}

// Load reads a package written by Save
func Load(fm *files.Manager, path string) (*Package, error) {
	data, err := fm.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to read data package", err).
			WithContext("path", path)
	}

	var p Package
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, apperrors.NewParsingError("failed to decode data package", err).
			WithContext("path", path)
	}
	return &p, nil
}
