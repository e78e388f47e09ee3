package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/Terryzhang-jp/curise-fullstack-project-sub000/internal/storage"
)

// ExportPurchaseOrderXLSX renders a confirmed order as the purchase-order
// spreadsheet sent to the supplier.
func ExportPurchaseOrderXLSX(db *storage.DB, poNumber, outputPath string) error {
	order, err := db.GetOrderByPONumber(poNumber)
	if err != nil {
		return err
	}
	if order == nil {
		return fmt.Errorf("order %s not found", poNumber)
	}
	items, err := db.ListOrderItems(order.ID)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	set := func(col, row int, value any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, value)
	}

	set(1, 1, "PO Number")
	set(2, 1, order.PONumber)
	set(1, 2, "Delivery Date")
	if order.DeliveryDate != nil {
		set(2, 2, order.DeliveryDate.Format("2006-01-02"))
	}
	set(1, 3, "Currency")
	set(2, 3, order.Currency)
	set(1, 4, "Total Amount")
	set(2, 4, order.TotalAmount)

	headers := []string{"line_no", "product", "quantity", "unit_price", "total", "status"}
	for i, h := range headers {
		set(i+1, 6, h)
	}

	for i, item := range items {
		r := 7 + i
		set(1, r, i+1)
		set(2, r, productLabel(db, item.ProductID))
		set(3, r, item.Quantity)
		set(4, r, item.Price)
		set(5, r, item.Total)
		set(6, r, item.Status)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

func productLabel(db *storage.DB, productID *int64) string {
	if productID == nil {
		return ""
	}
	product, err := db.GetProductByID(*productID)
	if err != nil || product == nil {
		return fmt.Sprintf("#%d", *productID)
	}
	return product.NameEN
}
