package importer

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/Terryzhang-jp/curise-fullstack-project-sub000/internal"
	"github.com/Terryzhang-jp/curise-fullstack-project-sub000/internal/storage"
)

func newTestDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "app.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func mkTable(cols []string, rows ...[]string) *Table {
	table := &Table{Columns: cols}
	for _, row := range rows {
		m := map[string]string{}
		for i, col := range cols {
			if i < len(row) {
				m[col] = row[i]
			}
		}
		table.Rows = append(table.Rows, m)
	}
	return table
}

func seedCountry(t *testing.T, db *storage.DB, name, code string) int64 {
	t.Helper()
	id, err := db.InsertCountry(db.Writer(), internal.CountryRow{Name: name, Code: code, Status: true})
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func seedCategory(t *testing.T, db *storage.DB, name string) int64 {
	t.Helper()
	id, err := db.InsertCategory(db.Writer(), internal.CategoryRow{Name: name, Status: true})
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func TestImportErrorPolicyDuplicateRollsBack(t *testing.T) {
	db := newTestDB(t)
	seedCountry(t, db, "Japan", "JP")
	im := New(db, zap.NewNop())

	table := mkTable([]string{"name", "country_name"}, []string{"Yokohama", "Japan"})

	first, err := im.Import(internal.EntityPort, table)
	if err != nil {
		t.Fatal(err)
	}
	if first.SuccessCount != 1 || first.ErrorCount != 0 {
		t.Fatalf("first import: %+v", first)
	}

	second, err := im.Import(internal.EntityPort, table)
	if err != nil {
		t.Fatal(err)
	}
	if second.ErrorCount < 1 || second.SuccessCount != 0 {
		t.Fatalf("second import: %+v", second)
	}
	if len(second.Warnings) == 0 {
		t.Fatal("expected a rollback warning")
	}

	count, err := db.CountRows(internal.EntityPort)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("port count = %d, want 1", count)
	}
}

func TestImportSkipPolicyKeepsGoing(t *testing.T) {
	db := newTestDB(t)
	seedCountry(t, db, "Japan", "JP")
	im := New(db, zap.NewNop())

	table := mkTable([]string{"name", "code"},
		[]string{"Japan", "JP"},
		[]string{"China", "CN"})

	result, err := im.Import(internal.EntityCountry, table)
	if err != nil {
		t.Fatal(err)
	}
	if result.SuccessCount != 1 || result.SkippedCount != 1 || result.ErrorCount != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(result.SkippedItems) != 1 || !strings.Contains(result.SkippedItems[0], "Japan") {
		t.Fatalf("skipped items: %v", result.SkippedItems)
	}
}

func TestForeignKeyErrorListsAlternatives(t *testing.T) {
	db := newTestDB(t)
	seedCountry(t, db, "Japan", "JP")
	seedCountry(t, db, "China", "CN")
	im := New(db, zap.NewNop())

	table := mkTable([]string{"name", "country_name"}, []string{"Lost Harbor", "Atlantis"})
	result, err := im.Import(internal.EntityPort, table)
	if err != nil {
		t.Fatal(err)
	}
	if result.ErrorCount != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	msg := result.Errors[0]
	if !strings.Contains(msg, "Atlantis") || !strings.Contains(msg, "Japan") {
		t.Fatalf("error does not list alternatives: %s", msg)
	}
}

func productColumns() []string {
	return []string{"product_name_en", "country_name", "category_name", "port_name", "effective_from", "price"}
}

func TestProductUniquenessTriple(t *testing.T) {
	db := newTestDB(t)
	countryID := seedCountry(t, db, "Japan", "JP")
	seedCategory(t, db, "Snacks")
	for _, port := range []string{"Yokohama", "Kobe"} {
		if _, err := db.InsertPort(db.Writer(), internal.PortRow{Name: port, CountryID: &countryID, Status: true}); err != nil {
			t.Fatal(err)
		}
	}
	im := New(db, zap.NewNop())

	table := mkTable(productColumns(),
		[]string{"Cola", "Japan", "Snacks", "Yokohama", "2025-01-01", "1.5"},
		[]string{"Cola", "Japan", "Snacks", "Kobe", "2025-01-01", "1.5"})
	result, err := im.Import(internal.EntityProduct, table)
	if err != nil {
		t.Fatal(err)
	}
	if result.SuccessCount != 2 || result.ErrorCount != 0 {
		t.Fatalf("different ports must both land: %+v", result)
	}

	again := mkTable(productColumns(),
		[]string{"Cola", "Japan", "Snacks", "Yokohama", "2025-01-01", "1.5"})
	result, err = im.Import(internal.EntityProduct, again)
	if err != nil {
		t.Fatal(err)
	}
	if result.SuccessCount != 0 || result.ErrorCount != 1 {
		t.Fatalf("identical triple must be rejected: %+v", result)
	}

	count, err := db.CountRows(internal.EntityProduct)
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Fatalf("product count = %d, want 2", count)
	}
}

func TestProductEffectiveToDefaults(t *testing.T) {
	db := newTestDB(t)
	seedCountry(t, db, "Japan", "JP")
	seedCategory(t, db, "Snacks")
	im := New(db, zap.NewNop())

	table := mkTable([]string{"product_name_en", "country_name", "category_name", "effective_from"},
		[]string{"Cola", "Japan", "Snacks", "2025-01-01"})
	result, err := im.Import(internal.EntityProduct, table)
	if err != nil {
		t.Fatal(err)
	}
	if result.SuccessCount != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}

	product, err := db.GetProductByNameEN("Cola")
	if err != nil {
		t.Fatal(err)
	}
	if product == nil || product.EffectiveTo == nil {
		t.Fatalf("product missing effective_to: %+v", product)
	}
	if got := product.EffectiveTo.Format("2006-01-02"); got != "2025-04-01" {
		t.Fatalf("effective_to = %s, want 2025-04-01", got)
	}
}

func TestProductReversedEffectiveWindow(t *testing.T) {
	db := newTestDB(t)
	seedCountry(t, db, "Japan", "JP")
	seedCategory(t, db, "Snacks")
	im := New(db, zap.NewNop())

	table := mkTable([]string{"product_name_en", "country_name", "category_name", "effective_from", "effective_to"},
		[]string{"Cola", "Japan", "Snacks", "2025-06-01", "2025-01-01"})
	result, err := im.Import(internal.EntityProduct, table)
	if err != nil {
		t.Fatal(err)
	}
	if result.SuccessCount != 0 || result.ErrorCount != 1 {
		t.Fatalf("window closing before it opens must be rejected: %+v", result)
	}
	if !strings.Contains(result.Errors[0], "earlier than effective_from") {
		t.Fatalf("error message: %s", result.Errors[0])
	}

	count, err := db.CountRows(internal.EntityProduct)
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Fatalf("product count = %d, want 0", count)
	}
}

func TestProductImportScenario(t *testing.T) {
	db := newTestDB(t)
	seedCountry(t, db, "Japan", "JP")
	seedCountry(t, db, "China", "CN")
	seedCategory(t, db, "Snacks")
	im := New(db, zap.NewNop())

	table := mkTable([]string{"product_name_en", "country_name", "category_name", "effective_from"},
		[]string{"Cola", "Japan", "Snacks", "2025-01-01"},
		[]string{"Choco", "Mars", "Snacks", "2025-01-01"})
	result, err := im.Import(internal.EntityProduct, table)
	if err != nil {
		t.Fatal(err)
	}
	if result.SuccessCount != 1 || result.ErrorCount != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	msg := result.Errors[0]
	if !strings.Contains(msg, "Mars") || !strings.Contains(msg, "Japan") || !strings.Contains(msg, "China") {
		t.Fatalf("error message incomplete: %s", msg)
	}
}

func TestImportRejectsBadInput(t *testing.T) {
	db := newTestDB(t)
	im := New(db, zap.NewNop())

	if _, err := im.Import("starships", mkTable([]string{"name"})); !errors.Is(err, ErrUnsupportedEntity) {
		t.Fatalf("unsupported entity: %v", err)
	}
	if _, err := im.Import(internal.EntityCountry, mkTable([]string{"name"})); !errors.Is(err, ErrMissingColumns) {
		t.Fatalf("missing columns: %v", err)
	}
	if _, err := im.Import(internal.EntityCountry, mkTable([]string{"name", "code"})); !errors.Is(err, ErrEmptyFile) {
		t.Fatalf("empty file: %v", err)
	}
}

func TestFormatErrorsClassifies(t *testing.T) {
	out := FormatErrors([]string{
		"Row 2: country_name 'Mars' not found (available: Japan)",
		"Row 3: name is required",
		"Row 4: effective_from 'x' has an unrecognized date format",
		"Row 5: price '-1' must not be negative",
		"something exploded",
	})
	want := []string{
		internal.ErrorClassForeignKey,
		internal.ErrorClassRequiredField,
		internal.ErrorClassFormat,
		internal.ErrorClassInvalidValue,
		internal.ErrorClassGeneral,
	}
	for i, w := range want {
		if out[i].Category != w {
			t.Fatalf("error %d: category %s, want %s", i, out[i].Category, w)
		}
	}
}
