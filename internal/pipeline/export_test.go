package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/Terryzhang-jp/curise-fullstack-project-sub000/internal/config"
	"github.com/Terryzhang-jp/curise-fullstack-project-sub000/internal/staging"
	"github.com/Terryzhang-jp/curise-fullstack-project-sub000/internal/storage"
)

func TestExportPurchaseOrderXLSX(t *testing.T) {
	tmp := t.TempDir()
	db, err := storage.Open(filepath.Join(tmp, "app.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	cfg, _ := config.Load()
	store := staging.NewStore(db, cfg, zap.NewNop())
	upload := stagedUpload(t, store)
	confirmer := NewConfirmer(db, store, zap.NewNop())
	if _, err := confirmer.Confirm(upload.UploadID, nil); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(tmp, "po_PO123.xlsx")
	if err := ExportPurchaseOrderXLSX(db, "PO123", out); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenFile(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	sheet := f.GetSheetName(0)
	if po, _ := f.GetCellValue(sheet, "B1"); po != "PO123" {
		t.Fatalf("B1 = %q", po)
	}
	if name, _ := f.GetCellValue(sheet, "B7"); name != "Cola 500ml" {
		t.Fatalf("B7 = %q", name)
	}
}

func TestExportUnknownOrder(t *testing.T) {
	db, err := storage.Open(filepath.Join(t.TempDir(), "app.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	if err := ExportPurchaseOrderXLSX(db, "NOPE", filepath.Join(t.TempDir(), "x.xlsx")); err == nil {
		t.Fatal("expected an error")
	}
}
