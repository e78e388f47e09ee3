package importer

import (
	"fmt"
	"strings"

	"github.com/Terryzhang-jp/curise-fullstack-project-sub000/internal"
	"github.com/Terryzhang-jp/curise-fullstack-project-sub000/internal/catalog"
	"github.com/Terryzhang-jp/curise-fullstack-project-sub000/internal/util"
)

// Precheck previews an upload without writing anything: rows classify as
// new, exact duplicate or fuzzy-similar to an existing record. Similarity
// is advisory only and never blocks the real import.
func (im *Importer) Precheck(entity internal.EntityType, table *Table, similarityThreshold float64) (*internal.PrecheckResult, error) {
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

	existing := make([]string, 0, len(cache.Names[spec.Entity]))
	for name := range cache.Names[spec.Entity] {
		existing = append(existing, name)
	}

	result := &internal.PrecheckResult{}
	for i, row := range table.Rows {
		if errs := validateRow(spec, i, row, cache); len(errs) > 0 {
			result.ValidationErrors = append(result.ValidationErrors, errs...)
			continue
		}

		name := cell(row, spec.NameColumn)
		if _, dup := spec.Duplicate(row, cache); dup {
			result.ExactDuplicates = append(result.ExactDuplicates,
				fmt.Sprintf("Row %d: %s", i+headerRows, name))
			continue
		}

		if match, score := closestName(name, existing); score >= similarityThreshold {
			result.SimilarItems = append(result.SimilarItems, internal.SimilarItem{
				RowNo:      i + headerRows,
				Name:       name,
				Existing:   match,
				Similarity: score,
			})
			continue
		}

		result.NewItems = append(result.NewItems, name)
	}

	return result, nil
}

func closestName(name string, existing []string) (string, float64) {
	norm := strings.ToLower(strings.TrimSpace(name))
	best := ""
	bestScore := 0.0
	for _, candidate := range existing {
		score := util.BlockRatio(norm, strings.ToLower(strings.TrimSpace(candidate)))
		if score > bestScore {
			best, bestScore = candidate, score
		}
	}
	return best, bestScore
}
