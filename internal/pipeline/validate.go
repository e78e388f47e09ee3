package pipeline

import (
	"fmt"

	"github.com/Terryzhang-jp/curise-fullstack-project-sub000/internal"
)

// ValidateOrders rejects orders a confirm step could not act on. Errors are
// keyed by PO number where one exists.
func ValidateOrders(orders []internal.CruiseOrder) []string {
	errs := []string{}
	for i, order := range orders {
		ref := order.PONumber
		if ref == "" {
			ref = fmt.Sprintf("order #%d", i+1)
		}
		if order.PONumber == "" {
			errs = append(errs, fmt.Sprintf("%s: po number is required", ref))
		}
		if order.ShipName == "" {
			errs = append(errs, fmt.Sprintf("%s: ship name is required", ref))
		}
		if order.SupplierName == "" {
			errs = append(errs, fmt.Sprintf("%s: supplier name is required", ref))
		}
		if len(order.Items) == 0 {
			errs = append(errs, fmt.Sprintf("%s: order has no items", ref))
		}
		for _, item := range order.Items {
			if item.Quantity <= 0 {
				errs = append(errs, fmt.Sprintf("%s line %d: quantity must be positive", ref, item.LineNo))
			}
			if item.UnitPrice < 0 {
				errs = append(errs, fmt.Sprintf("%s line %d: unit price cannot be negative", ref, item.LineNo))
			}
		}
	}
	return errs
}
