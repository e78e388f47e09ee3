package importer

import (
	"fmt"

	"github.com/Terryzhang-jp/curise-fullstack-project-sub000/internal/catalog"
)

// headerRows offsets a data index to its spreadsheet row number: data row 0
// sits under one header row, and spreadsheets count from 1.
const headerRows = 2

// fkSampleLimit caps how many valid alternatives a foreign-key error lists.
const fkSampleLimit = 5

// validateRow runs required-field, foreign-key and entity-specific format
// checks for one row. An empty result means the row is accepted. rowIdx is
// the zero-based data index.
func validateRow(spec *EntitySpec, rowIdx int, row map[string]string, cache *catalog.RefCache) []string {
	rowNo := rowIdx + headerRows
	var errs []string

	for _, col := range spec.Required {
		if cell(row, col) == "" {
			errs = append(errs, fmt.Sprintf("Row %d: %s is required", rowNo, col))
		}
	}

	for _, fk := range spec.ForeignKeys {
		value := cell(row, fk.Column)
		if value == "" {
			// Optional foreign keys are only validated when present; a
			// blank required one is already reported above.
			continue
		}
		if _, ok := cache.Resolve(fk.Table, value); !ok {
			msg := fmt.Sprintf("Row %d: %s '%s' not found", rowNo, fk.Column, value)
			if sample := cache.SampleNames(fk.Table, fkSampleLimit); sample != "" {
				msg += fmt.Sprintf(" (available: %s)", sample)
			}
			errs = append(errs, msg)
		}
	}

	if spec.Validate != nil {
		errs = append(errs, spec.Validate(rowNo, row, cache)...)
	}

	return errs
}
