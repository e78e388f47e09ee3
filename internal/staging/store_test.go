package staging

import (
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Terryzhang-jp/curise-fullstack-project-sub000/internal"
	"github.com/Terryzhang-jp/curise-fullstack-project-sub000/internal/config"
	"github.com/Terryzhang-jp/curise-fullstack-project-sub000/internal/storage"
)

func newTestStore(t *testing.T, ttlHours int) (*Store, *storage.DB) {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "app.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	cfg, err := config.Load()
	if err != nil {
		t.Fatal(err)
	}
	cfg.StagingTTLHours = ttlHours
	return NewStore(db, cfg, zap.NewNop()), db
}

func sampleOrders() []internal.CruiseOrder {
	return []internal.CruiseOrder{{
		PONumber:     "PO123",
		ShipName:     "Pacific Dream",
		SupplierName: "Umeya",
		DeliveryDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Currency:     "USD",
		TotalAmount:  15,
		Items: []internal.CruiseOrderItem{
			{LineNo: 1, ItemCode: "CC-01", Description: "Cola", Quantity: 10, UnitPrice: 1.5, TotalPrice: 15},
		},
	}}
}

func TestStoreRoundTrip(t *testing.T) {
	store, _ := newTestStore(t, 24)

	upload, err := store.Put("orders.xlsx", sampleOrders())
	if err != nil {
		t.Fatal(err)
	}
	if upload.UploadID == "" || upload.TotalOrders != 1 || upload.TotalProducts != 1 {
		t.Fatalf("upload: %+v", upload)
	}

	got, err := store.Get(upload.UploadID)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Orders[0].PONumber != "PO123" || got.Orders[0].Items[0].Quantity != 10 {
		t.Fatalf("got: %+v", got)
	}

	uploads, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(uploads) != 1 {
		t.Fatalf("list: %d", len(uploads))
	}

	deleted, err := store.Delete(upload.UploadID)
	if err != nil || !deleted {
		t.Fatalf("delete: %v %v", deleted, err)
	}
	if got, _ := store.Get(upload.UploadID); got != nil {
		t.Fatal("still readable after delete")
	}
}

func TestStoreGetUnknown(t *testing.T) {
	store, _ := newTestStore(t, 24)
	got, err := store.Get("nope")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatalf("got: %+v", got)
	}
}

func TestStoreSweepDropsExpired(t *testing.T) {
	// Negative TTL puts the expiry firmly in the past.
	store, _ := newTestStore(t, -1)

	upload, err := store.Put("orders.xlsx", sampleOrders())
	if err != nil {
		t.Fatal(err)
	}

	n, err := store.Sweep()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("swept: %d", n)
	}
	if got, _ := store.Get(upload.UploadID); got != nil {
		t.Fatal("expired upload still readable")
	}
}
