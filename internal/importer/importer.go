package importer

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Terryzhang-jp/curise-fullstack-project-sub000/internal"
	"github.com/Terryzhang-jp/curise-fullstack-project-sub000/internal/catalog"
	"github.com/Terryzhang-jp/curise-fullstack-project-sub000/internal/storage"
)

// Importer drives validation, duplicate detection and persistence across
// every row of one uploaded table.
type Importer struct {
	db  *storage.DB
	log *zap.Logger
}

func New(db *storage.DB, log *zap.Logger) *Importer {
	return &Importer{db: db, log: log}
}

// Import runs the full pipeline for one entity type.
//
// Declared batch semantics: SKIP-policy entities commit row by row, so one
// bad row never discards its neighbors. ERROR-policy entities run inside a
// single transaction; a duplicate or a failed insert rolls the whole batch
// back and the result reports zero successes. Rows that merely fail
// validation are recorded as errors without dooming the batch.
func (im *Importer) Import(entity internal.EntityType, table *Table) (*internal.ImportResult, error) {
	spec, ok := SpecFor(entity)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedEntity, entity)
	}
	if missing := table.MissingColumns(spec.Required); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	if len(table.Rows) == 0 {
		return nil, ErrEmptyFile
	}

	cache := catalog.BuildRefCache(im.db, im.log, spec.CacheTables)

	var result *internal.ImportResult
	var err error
	if spec.Policy == internal.PolicySkip {
		result, err = im.importPerRow(spec, table, cache)
	} else {
		result, err = im.importAtomic(spec, table, cache)
	}
	if err != nil {
		return nil, err
	}

	im.log.Info("import finished",
		zap.String("entity", string(entity)),
		zap.Int("success", result.SuccessCount),
		zap.Int("errors", result.ErrorCount),
		zap.Int("skipped", result.SkippedCount))
	return result, nil
}

// importPerRow is the SKIP-policy path: duplicates become skips, failures
// stay isolated to their row, every accepted row commits immediately.
func (im *Importer) importPerRow(spec *EntitySpec, table *Table, cache *catalog.RefCache) (*internal.ImportResult, error) {
	result := &internal.ImportResult{}
	db := im.db

	for i, row := range table.Rows {
		if errs := validateRow(spec, i, row, cache); len(errs) > 0 {
			result.Errors = append(result.Errors, errs...)
			result.ErrorCount++
			continue
		}

		if reason, dup := spec.Duplicate(row, cache); dup {
			result.SkippedItems = append(result.SkippedItems,
				fmt.Sprintf("Row %d: %s", i+headerRows, reason))
			result.SkippedCount++
			continue
		}

		if err := spec.Insert(db, db.Writer(), row, cache); err != nil {
			// A constraint violation here usually means a concurrent import
			// won the race; the database unique index is the last line of
			// defense.
			result.Errors = append(result.Errors,
				fmt.Sprintf("Row %d: insert failed: %v", i+headerRows, err))
			result.ErrorCount++
			continue
		}
		result.SuccessCount++
	}

	return result, nil
}

// importAtomic is the ERROR/UPDATE-policy path: one transaction for the
// whole file.
func (im *Importer) importAtomic(spec *EntitySpec, table *Table, cache *catalog.RefCache) (*internal.ImportResult, error) {
	result := &internal.ImportResult{}
	db := im.db

	tx, err := db.Begin()
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	aborted := false
	for i, row := range table.Rows {
		if errs := validateRow(spec, i, row, cache); len(errs) > 0 {
			result.Errors = append(result.Errors, errs...)
			result.ErrorCount++
			continue
		}

		if reason, dup := spec.Duplicate(row, cache); dup {
			result.Errors = append(result.Errors,
				fmt.Sprintf("Row %d: %s", i+headerRows, reason))
			result.ErrorCount++
			aborted = true
			break
		}

		if err := spec.Insert(db, tx, row, cache); err != nil {
			result.Errors = append(result.Errors,
				fmt.Sprintf("Row %d: insert failed: %v", i+headerRows, err))
			result.ErrorCount++
			aborted = true
			break
		}
		result.SuccessCount++
	}

	if aborted {
		result.SuccessCount = 0
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("%s import aborted: the batch was rolled back and no rows were written", spec.Entity))
		return result, nil
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit %s batch: %w", spec.Entity, err)
	}
	return result, nil
}
