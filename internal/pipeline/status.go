package pipeline

import (
	"fmt"

	"github.com/Terryzhang-jp/curise-fullstack-project-sub000/internal"
	"github.com/Terryzhang-jp/curise-fullstack-project-sub000/internal/storage"
)

// SetItemStatus moves one order item through its lifecycle and rolls the
// aggregate back up into the order status.
func SetItemStatus(db *storage.DB, itemID int64, status string) (string, error) {
	switch status {
	case internal.ItemStatusUnprocessed, internal.ItemStatusProcessed:
	default:
		return "", fmt.Errorf("unknown item status: %s", status)
	}

	item, err := db.GetOrderItem(itemID)
	if err != nil {
		return "", err
	}
	if item == nil {
		return "", fmt.Errorf("order item %d not found", itemID)
	}

	if err := db.UpdateOrderItemStatus(itemID, status); err != nil {
		return "", err
	}

	items, err := db.ListOrderItems(item.OrderID)
	if err != nil {
		return "", err
	}
	orderStatus := internal.DeriveOrderStatus(items)
	if err := db.UpdateOrderStatus(item.OrderID, orderStatus); err != nil {
		return "", err
	}
	return orderStatus, nil
}
