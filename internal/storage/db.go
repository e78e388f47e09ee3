package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Terryzhang-jp/curise-fullstack-project-sub000/internal"
)

// Execer is satisfied by both *sql.DB and *sql.Tx so the importer can run
// ERROR-policy batches inside one transaction and SKIP-policy batches with
// per-row commits through the same insert helpers.
type Execer interface {
	Exec(query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
}

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) Writer() Execer { return d.conn }

func (d *DB) Begin() (*sql.Tx, error) { return d.conn.Begin() }

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS countries (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL UNIQUE,
  code TEXT NOT NULL UNIQUE,
  status INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS categories (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL UNIQUE,
  status INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS ports (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL UNIQUE,
  country_id INTEGER,
  status INTEGER NOT NULL DEFAULT 1,
  FOREIGN KEY(country_id) REFERENCES countries(id)
);

CREATE TABLE IF NOT EXISTS companies (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL UNIQUE,
  country_id INTEGER NOT NULL,
  status INTEGER NOT NULL DEFAULT 1,
  FOREIGN KEY(country_id) REFERENCES countries(id)
);

CREATE TABLE IF NOT EXISTS suppliers (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL UNIQUE,
  country_id INTEGER,
  status INTEGER NOT NULL DEFAULT 1,
  FOREIGN KEY(country_id) REFERENCES countries(id)
);

CREATE TABLE IF NOT EXISTS ships (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL UNIQUE,
  company_id INTEGER,
  capacity INTEGER NOT NULL DEFAULT 0,
  status INTEGER NOT NULL DEFAULT 1,
  FOREIGN KEY(company_id) REFERENCES companies(id)
);

CREATE TABLE IF NOT EXISTS products (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name_en TEXT NOT NULL,
  name_jp TEXT,
  code TEXT,
  country_id INTEGER,
  category_id INTEGER,
  supplier_id INTEGER,
  port_id INTEGER,
  unit TEXT,
  price REAL NOT NULL DEFAULT 0,
  pack_size TEXT,
  currency TEXT,
  brand TEXT,
  origin TEXT,
  effective_from TEXT,
  effective_to TEXT,
  status INTEGER NOT NULL DEFAULT 1,
  FOREIGN KEY(country_id) REFERENCES countries(id),
  FOREIGN KEY(category_id) REFERENCES categories(id),
  FOREIGN KEY(supplier_id) REFERENCES suppliers(id),
  FOREIGN KEY(port_id) REFERENCES ports(id)
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_products_triple
  ON products(country_id, name_en, port_id);
CREATE INDEX IF NOT EXISTS idx_products_code ON products(code);

CREATE TABLE IF NOT EXISTS orders (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  po_number TEXT NOT NULL,
  ship_id INTEGER,
  port_id INTEGER,
  supplier_id INTEGER,
  delivery_date TEXT,
  currency TEXT NOT NULL DEFAULT '',
  total_amount REAL NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'not_started',
  created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(ship_id) REFERENCES ships(id),
  FOREIGN KEY(port_id) REFERENCES ports(id),
  FOREIGN KEY(supplier_id) REFERENCES suppliers(id)
);
CREATE INDEX IF NOT EXISTS idx_orders_po ON orders(po_number);

CREATE TABLE IF NOT EXISTS order_items (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  order_id INTEGER NOT NULL,
  product_id INTEGER,
  supplier_id INTEGER,
  quantity REAL NOT NULL DEFAULT 0,
  price REAL NOT NULL DEFAULT 0,
  total REAL NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'unprocessed',
  FOREIGN KEY(order_id) REFERENCES orders(id),
  FOREIGN KEY(product_id) REFERENCES products(id),
  FOREIGN KEY(supplier_id) REFERENCES suppliers(id)
);
CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id);

CREATE TABLE IF NOT EXISTS staging_uploads (
  upload_id TEXT PRIMARY KEY,
  file_name TEXT NOT NULL,
  payload_json TEXT NOT NULL,
  created_at TEXT NOT NULL,
  expires_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_staging_expires ON staging_uploads(expires_at);
`

	_, err := d.conn.Exec(schema)
	return err
}

const dateLayout = "2006-01-02"

func fmtDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(dateLayout)
}

func scanDate(v *string) *time.Time {
	if v == nil {
		return nil
	}
	if t, err := time.Parse(dateLayout, *v); err == nil {
		return &t
	}
	if t, err := time.Parse(time.RFC3339, *v); err == nil {
		return &t
	}
	return nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

// --- master data ---

func (d *DB) ListCountries() ([]internal.CountryRow, error) {
	rows, err := d.conn.Query(`SELECT id, name, code, status FROM countries ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.CountryRow
	for rows.Next() {
		var r internal.CountryRow
		if err := rows.Scan(&r.ID, &r.Name, &r.Code, &r.Status); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (d *DB) ListCategories() ([]internal.CategoryRow, error) {
	rows, err := d.conn.Query(`SELECT id, name, status FROM categories ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.CategoryRow
	for rows.Next() {
		var r internal.CategoryRow
		if err := rows.Scan(&r.ID, &r.Name, &r.Status); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (d *DB) ListPorts() ([]internal.PortRow, error) {
	rows, err := d.conn.Query(`SELECT id, name, country_id, status FROM ports ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.PortRow
	for rows.Next() {
		var r internal.PortRow
		if err := rows.Scan(&r.ID, &r.Name, &r.CountryID, &r.Status); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (d *DB) ListCompanies() ([]internal.CompanyRow, error) {
	rows, err := d.conn.Query(`SELECT id, name, country_id, status FROM companies ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.CompanyRow
	for rows.Next() {
		var r internal.CompanyRow
		if err := rows.Scan(&r.ID, &r.Name, &r.CountryID, &r.Status); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (d *DB) ListSuppliers() ([]internal.SupplierRow, error) {
	rows, err := d.conn.Query(`SELECT id, name, country_id, status FROM suppliers ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.SupplierRow
	for rows.Next() {
		var r internal.SupplierRow
		if err := rows.Scan(&r.ID, &r.Name, &r.CountryID, &r.Status); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (d *DB) ListShips() ([]internal.ShipRow, error) {
	rows, err := d.conn.Query(`SELECT id, name, company_id, capacity, status FROM ships ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.ShipRow
	for rows.Next() {
		var r internal.ShipRow
		if err := rows.Scan(&r.ID, &r.Name, &r.CompanyID, &r.Capacity, &r.Status); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const productColumns = `id, name_en, name_jp, code, country_id, category_id, supplier_id, port_id,
       unit, price, pack_size, currency, brand, origin, effective_from, effective_to, status`

func (d *DB) ListProducts() ([]internal.ProductRow, error) {
	rows, err := d.conn.Query(`SELECT ` + productColumns + ` FROM products ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.ProductRow
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(s rowScanner) (internal.ProductRow, error) {
	var p internal.ProductRow
	var from, to *string
	err := s.Scan(
		&p.ID, &p.NameEN, &p.NameJP, &p.Code, &p.CountryID, &p.CategoryID, &p.SupplierID, &p.PortID,
		&p.Unit, &p.Price, &p.PackSize, &p.Currency, &p.Brand, &p.Origin, &from, &to, &p.Status,
	)
	if err != nil {
		return internal.ProductRow{}, err
	}
	p.EffectiveFrom = scanDate(from)
	p.EffectiveTo = scanDate(to)
	return p, nil
}

func (d *DB) GetProductByID(id int64) (*internal.ProductRow, error) {
	p, err := scanProduct(d.conn.QueryRow(`SELECT `+productColumns+` FROM products WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (d *DB) GetProductByNameEN(name string) (*internal.ProductRow, error) {
	p, err := scanProduct(d.conn.QueryRow(`SELECT `+productColumns+` FROM products WHERE name_en = ? LIMIT 1`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (d *DB) GetSupplierByName(name string) (*internal.SupplierRow, error) {
	var r internal.SupplierRow
	err := d.conn.QueryRow(`SELECT id, name, country_id, status FROM suppliers WHERE name = ?`, name).
		Scan(&r.ID, &r.Name, &r.CountryID, &r.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (d *DB) GetShipByName(name string) (*internal.ShipRow, error) {
	var r internal.ShipRow
	err := d.conn.QueryRow(`SELECT id, name, company_id, capacity, status FROM ships WHERE name = ?`, name).
		Scan(&r.ID, &r.Name, &r.CompanyID, &r.Capacity, &r.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (d *DB) GetPortByName(name string) (*internal.PortRow, error) {
	var r internal.PortRow
	err := d.conn.QueryRow(`SELECT id, name, country_id, status FROM ports WHERE name = ?`, name).
		Scan(&r.ID, &r.Name, &r.CountryID, &r.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// --- inserts (Execer so they run either standalone or inside a batch tx) ---

func (d *DB) InsertCountry(q Execer, r internal.CountryRow) (int64, error) {
	res, err := q.Exec(`INSERT INTO countries (name, code, status) VALUES (?, ?, ?)`,
		r.Name, r.Code, boolToInt(r.Status))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (d *DB) InsertCategory(q Execer, r internal.CategoryRow) (int64, error) {
	res, err := q.Exec(`INSERT INTO categories (name, status) VALUES (?, ?)`, r.Name, boolToInt(r.Status))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (d *DB) InsertPort(q Execer, r internal.PortRow) (int64, error) {
	res, err := q.Exec(`INSERT INTO ports (name, country_id, status) VALUES (?, ?, ?)`,
		r.Name, r.CountryID, boolToInt(r.Status))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (d *DB) InsertCompany(q Execer, r internal.CompanyRow) (int64, error) {
	res, err := q.Exec(`INSERT INTO companies (name, country_id, status) VALUES (?, ?, ?)`,
		r.Name, r.CountryID, boolToInt(r.Status))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (d *DB) InsertSupplier(q Execer, r internal.SupplierRow) (int64, error) {
	res, err := q.Exec(`INSERT INTO suppliers (name, country_id, status) VALUES (?, ?, ?)`,
		r.Name, r.CountryID, boolToInt(r.Status))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (d *DB) InsertShip(q Execer, r internal.ShipRow) (int64, error) {
	res, err := q.Exec(`INSERT INTO ships (name, company_id, capacity, status) VALUES (?, ?, ?, ?)`,
		r.Name, r.CompanyID, r.Capacity, boolToInt(r.Status))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (d *DB) InsertProduct(q Execer, p internal.ProductRow) (int64, error) {
	res, err := q.Exec(`
INSERT INTO products (
  name_en, name_jp, code, country_id, category_id, supplier_id, port_id,
  unit, price, pack_size, currency, brand, origin, effective_from, effective_to, status
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.NameEN, p.NameJP, p.Code, p.CountryID, p.CategoryID, p.SupplierID, p.PortID,
		p.Unit, p.Price, p.PackSize, p.Currency, p.Brand, p.Origin,
		fmtDate(p.EffectiveFrom), fmtDate(p.EffectiveTo), boolToInt(p.Status))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// CountRows reports the row count of one of the known tables. The table
// name must come from internal.EntityType, never from user input.
func (d *DB) CountRows(table internal.EntityType) (int64, error) {
	var n int64
	err := d.conn.QueryRow(`SELECT COUNT(*) FROM ` + string(table)).Scan(&n)
	return n, err
}

// --- orders ---

func (d *DB) InsertOrder(q Execer, r internal.OrderRow) (int64, error) {
	res, err := q.Exec(`
INSERT INTO orders (po_number, ship_id, port_id, supplier_id, delivery_date, currency, total_amount, status)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.PONumber, r.ShipID, r.PortID, r.SupplierID, fmtDate(r.DeliveryDate), r.Currency, r.TotalAmount, r.Status)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (d *DB) InsertOrderItem(q Execer, r internal.OrderItemRow) (int64, error) {
	res, err := q.Exec(`
INSERT INTO order_items (order_id, product_id, supplier_id, quantity, price, total, status)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.OrderID, r.ProductID, r.SupplierID, r.Quantity, r.Price, r.Total, r.Status)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (d *DB) GetOrderByPONumber(poNumber string) (*internal.OrderRow, error) {
	var r internal.OrderRow
	var delivery *string
	err := d.conn.QueryRow(`
SELECT id, po_number, ship_id, port_id, supplier_id, delivery_date, currency, total_amount, status
FROM orders WHERE po_number = ? ORDER BY id DESC LIMIT 1`, poNumber).Scan(
		&r.ID, &r.PONumber, &r.ShipID, &r.PortID, &r.SupplierID, &delivery, &r.Currency, &r.TotalAmount, &r.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r.DeliveryDate = scanDate(delivery)
	return &r, nil
}

func (d *DB) ListOrderItems(orderID int64) ([]internal.OrderItemRow, error) {
	rows, err := d.conn.Query(`
SELECT id, order_id, product_id, supplier_id, quantity, price, total, status
FROM order_items WHERE order_id = ? ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.OrderItemRow
	for rows.Next() {
		var r internal.OrderItemRow
		if err := rows.Scan(&r.ID, &r.OrderID, &r.ProductID, &r.SupplierID, &r.Quantity, &r.Price, &r.Total, &r.Status); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (d *DB) UpdateOrderStatus(orderID int64, status string) error {
	_, err := d.conn.Exec(`UPDATE orders SET status = ? WHERE id = ?`, status, orderID)
	return err
}

func (d *DB) UpdateOrderItemStatus(itemID int64, status string) error {
	res, err := d.conn.Exec(`UPDATE order_items SET status = ? WHERE id = ?`, status, itemID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("order item %d not found", itemID)
	}
	return nil
}

func (d *DB) GetOrderItem(itemID int64) (*internal.OrderItemRow, error) {
	var r internal.OrderItemRow
	err := d.conn.QueryRow(`
SELECT id, order_id, product_id, supplier_id, quantity, price, total, status
FROM order_items WHERE id = ?`, itemID).Scan(
		&r.ID, &r.OrderID, &r.ProductID, &r.SupplierID, &r.Quantity, &r.Price, &r.Total, &r.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// --- staging ---

func (d *DB) PutStagedUpload(u internal.StagedUpload, expiresAt time.Time) error {
	payload, err := json.Marshal(u.Orders)
	if err != nil {
		return err
	}
	_, err = d.conn.Exec(`
INSERT INTO staging_uploads (upload_id, file_name, payload_json, created_at, expires_at)
VALUES (?, ?, ?, ?, ?)`,
		u.UploadID, u.FileName, string(payload),
		u.CreatedAt.UTC().Format(time.RFC3339), expiresAt.UTC().Format(time.RFC3339))
	return err
}

func (d *DB) GetStagedUpload(uploadID string) (*internal.StagedUpload, error) {
	var u internal.StagedUpload
	var payload, createdAt string
	err := d.conn.QueryRow(`
SELECT upload_id, file_name, payload_json, created_at
FROM staging_uploads WHERE upload_id = ?`, uploadID).Scan(&u.UploadID, &u.FileName, &payload, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(payload), &u.Orders); err != nil {
		return nil, fmt.Errorf("decode staged upload %s: %w", uploadID, err)
	}
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		u.CreatedAt = t
	}
	u.TotalOrders = len(u.Orders)
	for _, o := range u.Orders {
		u.TotalProducts += len(o.Items)
	}
	return &u, nil
}

func (d *DB) ListStagedUploads() ([]internal.StagedUpload, error) {
	rows, err := d.conn.Query(`SELECT upload_id FROM staging_uploads ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]internal.StagedUpload, 0, len(ids))
	for _, id := range ids {
		u, err := d.GetStagedUpload(id)
		if err != nil {
			return nil, err
		}
		if u != nil {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (d *DB) DeleteStagedUpload(uploadID string) (bool, error) {
	res, err := d.conn.Exec(`DELETE FROM staging_uploads WHERE upload_id = ?`, uploadID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (d *DB) SweepStagedUploads(now time.Time) (int64, error) {
	res, err := d.conn.Exec(`DELETE FROM staging_uploads WHERE expires_at < ?`, now.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
