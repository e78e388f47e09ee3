package catalog

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/Terryzhang-jp/curise-fullstack-project-sub000/internal"
	"github.com/Terryzhang-jp/curise-fullstack-project-sub000/internal/storage"
)

// ProductKey is the uniqueness triple for products. PortID is 0 when the
// product has no port.
type ProductKey struct {
	CountryID int64
	NameEN    string
	PortID    int64
}

// RefCache holds name→id maps for the lookup tables one import run needs,
// plus the duplicate-detection snapshots. It is rebuilt fresh for every
// import call: without it each of N rows would issue up to four lookup
// queries per row.
type RefCache struct {
	Names          map[internal.EntityType]map[string]int64
	CountryCodes   map[string]int64
	ProductTriples map[ProductKey]int64
}

// BuildRefCache loads exactly the requested tables. A query failure for one
// sub-table is logged and leaves that map empty; row validation will then
// report "not found" for any reference into it instead of the whole import
// aborting.
func BuildRefCache(db *storage.DB, log *zap.Logger, tables []internal.EntityType) *RefCache {
	c := &RefCache{
		Names:          map[internal.EntityType]map[string]int64{},
		CountryCodes:   map[string]int64{},
		ProductTriples: map[ProductKey]int64{},
	}

	for _, table := range tables {
		c.Names[table] = map[string]int64{}
		switch table {
		case internal.EntityCountry:
			rows, err := db.ListCountries()
			if err != nil {
				log.Warn("ref cache load failed", zap.String("table", string(table)), zap.Error(err))
				continue
			}
			for _, r := range rows {
				c.Names[table][r.Name] = r.ID
				c.CountryCodes[r.Code] = r.ID
			}
		case internal.EntityCategory:
			rows, err := db.ListCategories()
			if err != nil {
				log.Warn("ref cache load failed", zap.String("table", string(table)), zap.Error(err))
				continue
			}
			for _, r := range rows {
				c.Names[table][r.Name] = r.ID
			}
		case internal.EntityPort:
			rows, err := db.ListPorts()
			if err != nil {
				log.Warn("ref cache load failed", zap.String("table", string(table)), zap.Error(err))
				continue
			}
			for _, r := range rows {
				c.Names[table][r.Name] = r.ID
			}
		case internal.EntityCompany:
			rows, err := db.ListCompanies()
			if err != nil {
				log.Warn("ref cache load failed", zap.String("table", string(table)), zap.Error(err))
				continue
			}
			for _, r := range rows {
				c.Names[table][r.Name] = r.ID
			}
		case internal.EntitySupplier:
			rows, err := db.ListSuppliers()
			if err != nil {
				log.Warn("ref cache load failed", zap.String("table", string(table)), zap.Error(err))
				continue
			}
			for _, r := range rows {
				c.Names[table][r.Name] = r.ID
			}
		case internal.EntityShip:
			rows, err := db.ListShips()
			if err != nil {
				log.Warn("ref cache load failed", zap.String("table", string(table)), zap.Error(err))
				continue
			}
			for _, r := range rows {
				c.Names[table][r.Name] = r.ID
			}
		case internal.EntityProduct:
			rows, err := db.ListProducts()
			if err != nil {
				log.Warn("ref cache load failed", zap.String("table", string(table)), zap.Error(err))
				continue
			}
			for _, r := range rows {
				c.Names[table][r.NameEN] = r.ID
				c.ProductTriples[productKeyOf(r)] = r.ID
			}
		}
	}

	return c
}

func productKeyOf(p internal.ProductRow) ProductKey {
	key := ProductKey{NameEN: p.NameEN}
	if p.CountryID != nil {
		key.CountryID = *p.CountryID
	}
	if p.PortID != nil {
		key.PortID = *p.PortID
	}
	return key
}

// Resolve maps a display name to its id within one table.
func (c *RefCache) Resolve(table internal.EntityType, name string) (int64, bool) {
	m, ok := c.Names[table]
	if !ok {
		return 0, false
	}
	id, ok := m[name]
	return id, ok
}

// Add registers a newly inserted record so later rows of the same file see
// it during duplicate checks and foreign-key resolution.
func (c *RefCache) Add(table internal.EntityType, name string, id int64) {
	if _, ok := c.Names[table]; !ok {
		c.Names[table] = map[string]int64{}
	}
	c.Names[table][name] = id
}

func (c *RefCache) AddCountryCode(code string, id int64) {
	c.CountryCodes[code] = id
}

func (c *RefCache) AddProductTriple(key ProductKey, id int64) {
	c.ProductTriples[key] = id
}

// SampleNames returns up to limit known names from one table, sorted, for
// "valid alternatives" hints in foreign-key error messages.
func (c *RefCache) SampleNames(table internal.EntityType, limit int) string {
	m := c.Names[table]
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) > limit {
		names = names[:limit]
	}
	return strings.Join(names, ", ")
}
