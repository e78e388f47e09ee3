package pipeline

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Terryzhang-jp/curise-fullstack-project-sub000/internal"
	"github.com/Terryzhang-jp/curise-fullstack-project-sub000/internal/staging"
	"github.com/Terryzhang-jp/curise-fullstack-project-sub000/internal/storage"
	"github.com/Terryzhang-jp/curise-fullstack-project-sub000/internal/util"
)

type ConfirmResult struct {
	ConfirmedPOs []string `json:"confirmedPOs"`
	Errors       []string `json:"errors"`
}

type Confirmer struct {
	db    *storage.DB
	store *staging.Store
	log   *zap.Logger
}

func NewConfirmer(db *storage.DB, store *staging.Store, log *zap.Logger) *Confirmer {
	return &Confirmer{db: db, store: store, log: log}
}

// Confirm turns staged orders into persistent Order/OrderItem rows. Ships,
// ports, suppliers and products the catalog does not know yet are created
// by name on the way. An empty poNumbers selection confirms every order in
// the upload. The upload is evicted afterwards.
func (c *Confirmer) Confirm(uploadID string, poNumbers []string) (*ConfirmResult, error) {
	upload, err := c.store.Get(uploadID)
	if err != nil {
		return nil, err
	}
	if upload == nil {
		return nil, fmt.Errorf("upload %s not found or expired", uploadID)
	}

	selected := map[string]bool{}
	for _, po := range poNumbers {
		selected[po] = true
	}

	result := &ConfirmResult{}
	for _, order := range upload.Orders {
		if len(selected) > 0 && !selected[order.PONumber] {
			continue
		}
		if err := c.confirmOrder(order); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", order.PONumber, err))
			continue
		}
		result.ConfirmedPOs = append(result.ConfirmedPOs, order.PONumber)
	}

	if _, err := c.store.Delete(uploadID); err != nil {
		c.log.Warn("failed to evict staged upload",
			zap.String("uploadId", uploadID), zap.Error(err))
	}

	c.log.Info("confirmed cruise upload",
		zap.String("uploadId", uploadID),
		zap.Int("confirmed", len(result.ConfirmedPOs)),
		zap.Int("errors", len(result.Errors)))
	return result, nil
}

func (c *Confirmer) confirmOrder(order internal.CruiseOrder) error {
	if existing, err := c.db.GetOrderByPONumber(order.PONumber); err != nil {
		return err
	} else if existing != nil {
		return fmt.Errorf("order already exists")
	}

	shipID, err := c.ensureShip(order.ShipName)
	if err != nil {
		return err
	}
	portID, err := c.ensurePort(order)
	if err != nil {
		return err
	}
	supplierID, err := c.ensureSupplier(order.SupplierName)
	if err != nil {
		return err
	}

	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	delivery := order.DeliveryDate
	orderRow := internal.OrderRow{
		PONumber:    order.PONumber,
		ShipID:      shipID,
		PortID:      portID,
		SupplierID:  supplierID,
		Currency:    order.Currency,
		TotalAmount: order.TotalAmount,
		Status:      internal.OrderStatusNotStarted,
	}
	if !delivery.IsZero() {
		orderRow.DeliveryDate = &delivery
	}

	orderID, err := c.db.InsertOrder(tx, orderRow)
	if err != nil {
		return err
	}

	for _, item := range order.Items {
		productID, err := c.ensureProduct(tx, item)
		if err != nil {
			return err
		}
		_, err = c.db.InsertOrderItem(tx, internal.OrderItemRow{
			OrderID:    orderID,
			ProductID:  productID,
			SupplierID: supplierID,
			Quantity:   item.Quantity,
			Price:      item.UnitPrice,
			Total:      item.TotalPrice,
			Status:     internal.ItemStatusUnprocessed,
		})
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (c *Confirmer) ensureShip(name string) (*int64, error) {
	if name == "" {
		return nil, nil
	}
	if ship, err := c.db.GetShipByName(name); err != nil {
		return nil, err
	} else if ship != nil {
		return &ship.ID, nil
	}
	id, err := c.db.InsertShip(c.db.Writer(), internal.ShipRow{Name: name, Status: true})
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func (c *Confirmer) ensurePort(order internal.CruiseOrder) (*int64, error) {
	name := order.Destination
	if name == "" {
		name = order.PortCode
	}
	if name == "" {
		return nil, nil
	}
	if port, err := c.db.GetPortByName(name); err != nil {
		return nil, err
	} else if port != nil {
		return &port.ID, nil
	}
	id, err := c.db.InsertPort(c.db.Writer(), internal.PortRow{Name: name, Status: true})
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func (c *Confirmer) ensureSupplier(name string) (*int64, error) {
	if name == "" {
		return nil, nil
	}
	if supplier, err := c.db.GetSupplierByName(name); err != nil {
		return nil, err
	} else if supplier != nil {
		return &supplier.ID, nil
	}
	id, err := c.db.InsertSupplier(c.db.Writer(), internal.SupplierRow{Name: name, Status: true})
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func (c *Confirmer) ensureProduct(tx storage.Execer, item internal.CruiseOrderItem) (*int64, error) {
	name := item.Description
	if name == "" {
		name = item.ItemCode
	}
	if name == "" {
		return nil, nil
	}
	if product, err := c.db.GetProductByNameEN(name); err != nil {
		return nil, err
	} else if product != nil {
		return &product.ID, nil
	}

	row := internal.ProductRow{
		NameEN: name,
		Price:  item.UnitPrice,
		Status: true,
	}
	if item.ItemCode != "" {
		row.Code = util.StringPtr(item.ItemCode)
	}
	if item.Currency != "" {
		row.Currency = util.StringPtr(item.Currency)
	}
	id, err := c.db.InsertProduct(tx, row)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
