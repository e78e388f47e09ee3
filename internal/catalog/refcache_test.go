package catalog

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/Terryzhang-jp/curise-fullstack-project-sub000/internal"
	"github.com/Terryzhang-jp/curise-fullstack-project-sub000/internal/storage"
	"github.com/Terryzhang-jp/curise-fullstack-project-sub000/internal/util"
)

func TestBuildRefCache(t *testing.T) {
	db, err := storage.Open(filepath.Join(t.TempDir(), "app.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	countryID, err := db.InsertCountry(db.Writer(), internal.CountryRow{Name: "Japan", Code: "JP", Status: true})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.InsertProduct(db.Writer(), internal.ProductRow{
		NameEN:    "Cola",
		CountryID: util.Int64Ptr(countryID),
		Status:    true,
	}); err != nil {
		t.Fatal(err)
	}

	cache := BuildRefCache(db, zap.NewNop(), []internal.EntityType{internal.EntityCountry, internal.EntityProduct})

	if id, ok := cache.Resolve(internal.EntityCountry, "Japan"); !ok || id != countryID {
		t.Fatalf("resolve Japan: %v %v", id, ok)
	}
	if _, ok := cache.CountryCodes["JP"]; !ok {
		t.Fatal("country code missing")
	}
	if _, ok := cache.ProductTriples[ProductKey{CountryID: countryID, NameEN: "Cola"}]; !ok {
		t.Fatalf("product triple missing: %v", cache.ProductTriples)
	}
	if _, ok := cache.Resolve(internal.EntityPort, "Yokohama"); ok {
		t.Fatal("unloaded table must not resolve")
	}
}

func TestSampleNames(t *testing.T) {
	cache := &RefCache{Names: map[internal.EntityType]map[string]int64{
		internal.EntityCountry: {"Japan": 1, "China": 2, "Brazil": 3},
	}}

	got := cache.SampleNames(internal.EntityCountry, 2)
	if got != "Brazil, China" {
		t.Fatalf("sample: %q", got)
	}
	if cache.SampleNames(internal.EntityPort, 5) != "" {
		t.Fatal("empty table must sample nothing")
	}
}
