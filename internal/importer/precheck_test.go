package importer

import (
	"testing"

	"go.uber.org/zap"

	"github.com/Terryzhang-jp/curise-fullstack-project-sub000/internal"
)

func TestPrecheckClassifiesWithoutWriting(t *testing.T) {
	db := newTestDB(t)
	seedCountry(t, db, "Japan", "JP")
	im := New(db, zap.NewNop())

	table := mkTable([]string{"name", "code"},
		[]string{"Japan", "JP"},   // exact duplicate
		[]string{"Japani", "JA"},  // near-duplicate of Japan
		[]string{"Brazil", "BR"},  // new
		[]string{"", "XX"})        // invalid

	result, err := im.Precheck(internal.EntityCountry, table, 0.8)
	if err != nil {
		t.Fatal(err)
	}

	if len(result.ExactDuplicates) != 1 {
		t.Fatalf("exact duplicates: %v", result.ExactDuplicates)
	}
	if len(result.SimilarItems) != 1 || result.SimilarItems[0].Existing != "Japan" {
		t.Fatalf("similar items: %+v", result.SimilarItems)
	}
	if result.SimilarItems[0].Similarity < 0.8 {
		t.Fatalf("similarity too low: %v", result.SimilarItems[0].Similarity)
	}
	if len(result.NewItems) != 1 || result.NewItems[0] != "Brazil" {
		t.Fatalf("new items: %v", result.NewItems)
	}
	if len(result.ValidationErrors) == 0 {
		t.Fatal("expected a validation error for the blank name")
	}

	count, err := db.CountRows(internal.EntityCountry)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("precheck must not write, count = %d", count)
	}
}
