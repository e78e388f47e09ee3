package importer

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Terryzhang-jp/curise-fullstack-project-sub000/internal"
	"github.com/Terryzhang-jp/curise-fullstack-project-sub000/internal/catalog"
	"github.com/Terryzhang-jp/curise-fullstack-project-sub000/internal/storage"
	"github.com/Terryzhang-jp/curise-fullstack-project-sub000/internal/util"
)

// ForeignKey declares one column resolved by display name through the
// reference cache.
type ForeignKey struct {
	Column   string
	Table    internal.EntityType
	Optional bool
}

// EntitySpec describes one importable entity kind: which columns it
// requires, which columns resolve through the cache, how a duplicate is
// recognized and how a validated row becomes an insert. All entity-specific
// behavior lives in this table instead of per-entity branch chains.
type EntitySpec struct {
	Entity      internal.EntityType
	Policy      internal.DuplicatePolicy
	NameColumn  string
	Required    []string
	ForeignKeys []ForeignKey
	// CacheTables lists every table the reference cache must load for this
	// entity: its foreign-key targets plus its own table for the duplicate
	// snapshot.
	CacheTables []internal.EntityType

	// Validate adds entity-specific format checks beyond required-field and
	// foreign-key validation. Returned strings are full row-prefixed
	// messages.
	Validate func(rowNo int, row map[string]string, cache *catalog.RefCache) []string
	// Duplicate reports whether the row collides with an existing record
	// and which unique field collided.
	Duplicate func(row map[string]string, cache *catalog.RefCache) (string, bool)
	// Insert writes the row through q and registers the new record in the
	// cache so later rows of the same file see it.
	Insert func(db *storage.DB, q storage.Execer, row map[string]string, cache *catalog.RefCache) error
}

func cell(row map[string]string, col string) string {
	return strings.TrimSpace(row[col])
}

var registry = map[internal.EntityType]*EntitySpec{
	internal.EntityCountry: {
		Entity:      internal.EntityCountry,
		Policy:      internal.PolicySkip,
		NameColumn:  "name",
		Required:    []string{"name", "code"},
		CacheTables: []internal.EntityType{internal.EntityCountry},
		Duplicate: func(row map[string]string, cache *catalog.RefCache) (string, bool) {
			if _, ok := cache.Resolve(internal.EntityCountry, cell(row, "name")); ok {
				return fmt.Sprintf("country name '%s' already exists", cell(row, "name")), true
			}
			if _, ok := cache.CountryCodes[cell(row, "code")]; ok {
				return fmt.Sprintf("country code '%s' already exists", cell(row, "code")), true
			}
			return "", false
		},
		Insert: func(db *storage.DB, q storage.Execer, row map[string]string, cache *catalog.RefCache) error {
			id, err := db.InsertCountry(q, internal.CountryRow{Name: cell(row, "name"), Code: cell(row, "code"), Status: true})
			if err != nil {
				return err
			}
			cache.Add(internal.EntityCountry, cell(row, "name"), id)
			cache.AddCountryCode(cell(row, "code"), id)
			return nil
		},
	},

	internal.EntityCategory: {
		Entity:      internal.EntityCategory,
		Policy:      internal.PolicySkip,
		NameColumn:  "name",
		Required:    []string{"name"},
		CacheTables: []internal.EntityType{internal.EntityCategory},
		Duplicate:   nameDuplicate(internal.EntityCategory, "category"),
		Insert: func(db *storage.DB, q storage.Execer, row map[string]string, cache *catalog.RefCache) error {
			id, err := db.InsertCategory(q, internal.CategoryRow{Name: cell(row, "name"), Status: true})
			if err != nil {
				return err
			}
			cache.Add(internal.EntityCategory, cell(row, "name"), id)
			return nil
		},
	},

	internal.EntityPort: {
		Entity:      internal.EntityPort,
		Policy:      internal.PolicyError,
		NameColumn:  "name",
		Required:    []string{"name", "country_name"},
		ForeignKeys: []ForeignKey{{Column: "country_name", Table: internal.EntityCountry}},
		CacheTables: []internal.EntityType{internal.EntityCountry, internal.EntityPort},
		Duplicate:   nameDuplicate(internal.EntityPort, "port"),
		Insert: func(db *storage.DB, q storage.Execer, row map[string]string, cache *catalog.RefCache) error {
			countryID, _ := cache.Resolve(internal.EntityCountry, cell(row, "country_name"))
			id, err := db.InsertPort(q, internal.PortRow{Name: cell(row, "name"), CountryID: &countryID, Status: true})
			if err != nil {
				return err
			}
			cache.Add(internal.EntityPort, cell(row, "name"), id)
			return nil
		},
	},

	internal.EntityCompany: {
		Entity:      internal.EntityCompany,
		Policy:      internal.PolicyError,
		NameColumn:  "name",
		Required:    []string{"name", "country_name"},
		ForeignKeys: []ForeignKey{{Column: "country_name", Table: internal.EntityCountry}},
		CacheTables: []internal.EntityType{internal.EntityCountry, internal.EntityCompany},
		Duplicate:   nameDuplicate(internal.EntityCompany, "company"),
		Insert: func(db *storage.DB, q storage.Execer, row map[string]string, cache *catalog.RefCache) error {
			countryID, _ := cache.Resolve(internal.EntityCountry, cell(row, "country_name"))
			id, err := db.InsertCompany(q, internal.CompanyRow{Name: cell(row, "name"), CountryID: countryID, Status: true})
			if err != nil {
				return err
			}
			cache.Add(internal.EntityCompany, cell(row, "name"), id)
			return nil
		},
	},

	internal.EntitySupplier: {
		Entity:      internal.EntitySupplier,
		Policy:      internal.PolicyError,
		NameColumn:  "name",
		Required:    []string{"name", "country_name"},
		ForeignKeys: []ForeignKey{{Column: "country_name", Table: internal.EntityCountry}},
		CacheTables: []internal.EntityType{internal.EntityCountry, internal.EntitySupplier},
		Duplicate:   nameDuplicate(internal.EntitySupplier, "supplier"),
		Insert: func(db *storage.DB, q storage.Execer, row map[string]string, cache *catalog.RefCache) error {
			countryID, _ := cache.Resolve(internal.EntityCountry, cell(row, "country_name"))
			id, err := db.InsertSupplier(q, internal.SupplierRow{Name: cell(row, "name"), CountryID: &countryID, Status: true})
			if err != nil {
				return err
			}
			cache.Add(internal.EntitySupplier, cell(row, "name"), id)
			return nil
		},
	},

	internal.EntityShip: {
		Entity:      internal.EntityShip,
		Policy:      internal.PolicyError,
		NameColumn:  "name",
		Required:    []string{"name", "company_name", "capacity"},
		ForeignKeys: []ForeignKey{{Column: "company_name", Table: internal.EntityCompany}},
		CacheTables: []internal.EntityType{internal.EntityCompany, internal.EntityShip},
		Validate: func(rowNo int, row map[string]string, cache *catalog.RefCache) []string {
			var errs []string
			if v := cell(row, "capacity"); v != "" {
				if n, err := strconv.ParseInt(v, 10, 64); err != nil || n < 0 {
					errs = append(errs, fmt.Sprintf("Row %d: capacity '%s' must be a non-negative integer", rowNo, v))
				}
			}
			return errs
		},
		Duplicate: nameDuplicate(internal.EntityShip, "ship"),
		Insert: func(db *storage.DB, q storage.Execer, row map[string]string, cache *catalog.RefCache) error {
			companyID, _ := cache.Resolve(internal.EntityCompany, cell(row, "company_name"))
			capacity, _ := strconv.ParseInt(cell(row, "capacity"), 10, 64)
			id, err := db.InsertShip(q, internal.ShipRow{Name: cell(row, "name"), CompanyID: &companyID, Capacity: capacity, Status: true})
			if err != nil {
				return err
			}
			cache.Add(internal.EntityShip, cell(row, "name"), id)
			return nil
		},
	},

	internal.EntityProduct: {
		Entity:     internal.EntityProduct,
		Policy:     internal.PolicyError,
		NameColumn: "product_name_en",
		Required:   []string{"product_name_en", "country_name", "category_name", "effective_from"},
		ForeignKeys: []ForeignKey{
			{Column: "country_name", Table: internal.EntityCountry},
			{Column: "category_name", Table: internal.EntityCategory},
			{Column: "supplier_name", Table: internal.EntitySupplier, Optional: true},
			{Column: "port_name", Table: internal.EntityPort, Optional: true},
		},
		CacheTables: []internal.EntityType{
			internal.EntityCountry, internal.EntityCategory,
			internal.EntitySupplier, internal.EntityPort, internal.EntityProduct,
		},
		Validate:  validateProductRow,
		Duplicate: productDuplicate,
		Insert:    insertProductRow,
	},
}

// SpecFor returns the rule set for one entity type.
func SpecFor(entity internal.EntityType) (*EntitySpec, bool) {
	spec, ok := registry[entity]
	return spec, ok
}

func nameDuplicate(table internal.EntityType, label string) func(map[string]string, *catalog.RefCache) (string, bool) {
	return func(row map[string]string, cache *catalog.RefCache) (string, bool) {
		name := cell(row, "name")
		if _, ok := cache.Resolve(table, name); ok {
			return fmt.Sprintf("%s name '%s' already exists", label, name), true
		}
		return "", false
	}
}

func validateProductRow(rowNo int, row map[string]string, cache *catalog.RefCache) []string {
	var errs []string

	if v := cell(row, "price"); v != "" {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Sprintf("Row %d: price '%s' is not numeric", rowNo, v))
		} else if p < 0 {
			errs = append(errs, fmt.Sprintf("Row %d: price '%s' must not be negative", rowNo, v))
		}
	}

	from, fromOK := util.ParseDate(cell(row, "effective_from"))
	if cell(row, "effective_from") != "" && !fromOK {
		errs = append(errs, fmt.Sprintf("Row %d: effective_from '%s' has an unrecognized date format", rowNo, cell(row, "effective_from")))
	}
	if v := cell(row, "effective_to"); v != "" {
		to, ok := util.ParseDate(v)
		if !ok {
			errs = append(errs, fmt.Sprintf("Row %d: effective_to '%s' has an unrecognized date format", rowNo, v))
		} else if fromOK && to.Before(from) {
			errs = append(errs, fmt.Sprintf("Row %d: effective_to '%s' is earlier than effective_from", rowNo, v))
		}
	}

	return errs
}

// productDuplicate checks the (country_id, product_name_en, port_id) unique
// triple. Codes are deliberately not part of the rule: the same code can
// legitimately recur across countries.
func productDuplicate(row map[string]string, cache *catalog.RefCache) (string, bool) {
	key := catalog.ProductKey{NameEN: cell(row, "product_name_en")}
	if id, ok := cache.Resolve(internal.EntityCountry, cell(row, "country_name")); ok {
		key.CountryID = id
	}
	if port := cell(row, "port_name"); port != "" {
		if id, ok := cache.Resolve(internal.EntityPort, port); ok {
			key.PortID = id
		}
	}
	if _, ok := cache.ProductTriples[key]; ok {
		return fmt.Sprintf("product '%s' already exists for this country and port", key.NameEN), true
	}
	return "", false
}

func insertProductRow(db *storage.DB, q storage.Execer, row map[string]string, cache *catalog.RefCache) error {
	p := internal.ProductRow{
		NameEN: cell(row, "product_name_en"),
		Status: true,
	}
	if v := cell(row, "product_name_jp"); v != "" {
		p.NameJP = util.StringPtr(v)
	}
	if v := cell(row, "code"); v != "" {
		p.Code = util.StringPtr(v)
	}
	if id, ok := cache.Resolve(internal.EntityCountry, cell(row, "country_name")); ok {
		p.CountryID = util.Int64Ptr(id)
	}
	if id, ok := cache.Resolve(internal.EntityCategory, cell(row, "category_name")); ok {
		p.CategoryID = util.Int64Ptr(id)
	}
	if v := cell(row, "supplier_name"); v != "" {
		if id, ok := cache.Resolve(internal.EntitySupplier, v); ok {
			p.SupplierID = util.Int64Ptr(id)
		}
	}
	if v := cell(row, "port_name"); v != "" {
		if id, ok := cache.Resolve(internal.EntityPort, v); ok {
			p.PortID = util.Int64Ptr(id)
		}
	}
	if v := cell(row, "unit"); v != "" {
		p.Unit = util.StringPtr(v)
	}
	if v := cell(row, "price"); v != "" {
		p.Price, _ = strconv.ParseFloat(v, 64)
	}
	// Pack size is free-form; "12x500ml" is as valid as "6".
	if v := cell(row, "pack_size"); v != "" {
		p.PackSize = util.StringPtr(v)
	}
	if v := cell(row, "currency"); v != "" {
		p.Currency = util.StringPtr(v)
	}
	if v := cell(row, "brand"); v != "" {
		p.Brand = util.StringPtr(v)
	}
	if v := cell(row, "country_of_origin"); v != "" {
		p.Origin = util.StringPtr(v)
	}

	if from, ok := util.ParseDate(cell(row, "effective_from")); ok {
		p.EffectiveFrom = &from
		if to, ok := util.ParseDate(cell(row, "effective_to")); ok {
			p.EffectiveTo = &to
		} else {
			// No expiry supplied: the window closes 90 days after it opens.
			def := from.Add(internal.EffectiveToDefaultDays * 24 * time.Hour)
			p.EffectiveTo = &def
		}
	}

	id, err := db.InsertProduct(q, p)
	if err != nil {
		return err
	}

	key := catalog.ProductKey{NameEN: p.NameEN}
	if p.CountryID != nil {
		key.CountryID = *p.CountryID
	}
	if p.PortID != nil {
		key.PortID = *p.PortID
	}
	cache.AddProductTriple(key, id)
	cache.Add(internal.EntityProduct, p.NameEN, id)
	return nil
}
