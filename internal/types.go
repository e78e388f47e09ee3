package internal

import "time"

// EntityType names one of the master-data tables the bulk importer can
// target. The string value doubles as the destination table name.
type EntityType string

const (
	EntityCountry  EntityType = "countries"
	EntityCategory EntityType = "categories"
	EntityPort     EntityType = "ports"
	EntityCompany  EntityType = "companies"
	EntitySupplier EntityType = "suppliers"
	EntityShip     EntityType = "ships"
	EntityProduct  EntityType = "products"
)

// DuplicatePolicy controls what the importer does when a row collides with
// an existing record.
type DuplicatePolicy string

const (
	// PolicySkip records the row as skipped and keeps going.
	PolicySkip DuplicatePolicy = "SKIP"
	// PolicyError aborts the batch: the whole file imports in one
	// transaction and a duplicate rolls everything back.
	PolicyError DuplicatePolicy = "ERROR"
	// PolicyUpdate is reserved. Entities configured with it currently
	// behave like PolicyError on an exact duplicate.
	PolicyUpdate DuplicatePolicy = "UPDATE"
)

type CountryRow struct {
	ID     int64
	Name   string
	Code   string
	Status bool
}

type CategoryRow struct {
	ID     int64
	Name   string
	Status bool
}

type PortRow struct {
	ID        int64
	Name      string
	CountryID *int64
	Status    bool
}

type CompanyRow struct {
	ID        int64
	Name      string
	CountryID int64
	Status    bool
}

type SupplierRow struct {
	ID        int64
	Name      string
	CountryID *int64
	Status    bool
}

type ShipRow struct {
	ID        int64
	Name      string
	CompanyID *int64
	Capacity  int64
	Status    bool
}

// ProductRow is one catalog product. EffectiveFrom/EffectiveTo bound the
// validity window; both nil means no expiry.
type ProductRow struct {
	ID            int64
	NameEN        string
	NameJP        *string
	Code          *string
	CountryID     *int64
	CategoryID    *int64
	SupplierID    *int64
	PortID        *int64
	Unit          *string
	Price         float64
	PackSize      *string
	Currency      *string
	Brand         *string
	Origin        *string
	EffectiveFrom *time.Time
	EffectiveTo   *time.Time
	Status        bool
}

// EffectiveToDefaultDays is applied when a product arrives with an
// effective_from but no effective_to.
const EffectiveToDefaultDays = 90

const (
	OrderStatusNotStarted         = "not_started"
	OrderStatusPartiallyProcessed = "partially_processed"
	OrderStatusFullyProcessed     = "fully_processed"

	ItemStatusUnprocessed = "unprocessed"
	ItemStatusProcessed   = "processed"
)

type OrderRow struct {
	ID           int64
	PONumber     string
	ShipID       *int64
	PortID       *int64
	SupplierID   *int64
	DeliveryDate *time.Time
	Currency     string
	TotalAmount  float64
	Status       string
}

type OrderItemRow struct {
	ID         int64
	OrderID    int64
	ProductID  *int64
	SupplierID *int64
	Quantity   float64
	Price      float64
	Total      float64
	Status     string
}

// DeriveOrderStatus rolls the item statuses up into the order status.
func DeriveOrderStatus(items []OrderItemRow) string {
	if len(items) == 0 {
		return OrderStatusNotStarted
	}
	processed := 0
	for _, it := range items {
		if it.Status == ItemStatusProcessed {
			processed++
		}
	}
	switch processed {
	case 0:
		return OrderStatusNotStarted
	case len(items):
		return OrderStatusFullyProcessed
	default:
		return OrderStatusPartiallyProcessed
	}
}

// CruiseOrder is one logical order reconstructed from a HEADER row and its
// following DETAIL rows. It stays in the staging store until confirmed.
type CruiseOrder struct {
	PONumber     string            `json:"poNumber"`
	ShipName     string            `json:"shipName"`
	ShipCode     string            `json:"shipCode"`
	SupplierName string            `json:"supplierName"`
	Destination  string            `json:"destination"`
	PortCode     string            `json:"portCode"`
	DeliveryDate time.Time         `json:"deliveryDate"`
	Currency     string            `json:"currency"`
	TotalAmount  float64           `json:"totalAmount"`
	Items        []CruiseOrderItem `json:"items"`
}

type CruiseOrderItem struct {
	LineNo      int     `json:"lineNo"`
	ProductID   string  `json:"productId"`
	ItemCode    string  `json:"itemCode"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	TotalPrice  float64 `json:"totalPrice"`
	Currency    string  `json:"currency"`
}

type MatchStatus string

const (
	MatchMatched  MatchStatus = "matched"
	MatchPossible MatchStatus = "possible_match"
	MatchNone     MatchStatus = "not_matched"
	MatchError    MatchStatus = "error"
)

// ProductMatchResult classifies one cruise line item against the catalog.
// Score is in [0,1]; Product is nil unless matched or possible_match.
type ProductMatchResult struct {
	Item    CruiseOrderItem `json:"item"`
	Product *ProductRow     `json:"product"`
	Status  MatchStatus     `json:"status"`
	Score   float64         `json:"score"`
	Reason  string          `json:"reason"`
}

type MatchStatistics struct {
	Total     int     `json:"total"`
	Matched   int     `json:"matched"`
	Possible  int     `json:"possibleMatch"`
	Unmatched int     `json:"notMatched"`
	Errors    int     `json:"errors"`
	MeanScore float64 `json:"meanScore"`
}

// ImportResult aggregates one bulk-import call.
type ImportResult struct {
	SuccessCount int      `json:"successCount"`
	ErrorCount   int      `json:"errorCount"`
	SkippedCount int      `json:"skippedCount"`
	Errors       []string `json:"errors"`
	SkippedItems []string `json:"skippedItems"`
	Warnings     []string `json:"warnings"`
}

// FormattedError is the user-facing view of a raw import error string.
type FormattedError struct {
	Category   string `json:"category"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion"`
}

const (
	ErrorClassForeignKey    = "foreign_key_missing"
	ErrorClassRequiredField = "required_field_missing"
	ErrorClassFormat        = "format_error"
	ErrorClassInvalidValue  = "invalid_value"
	ErrorClassGeneral       = "general_error"
)

// SimilarItem is an advisory near-duplicate surfaced by precheck. It never
// blocks an import.
type SimilarItem struct {
	RowNo      int     `json:"rowNo"`
	Name       string  `json:"name"`
	Existing   string  `json:"existing"`
	Similarity float64 `json:"similarity"`
}

// PrecheckResult is a dry-run preview; producing it never writes.
type PrecheckResult struct {
	NewItems         []string      `json:"newItems"`
	SimilarItems     []SimilarItem `json:"similarItems"`
	ExactDuplicates  []string      `json:"exactDuplicates"`
	ValidationErrors []string      `json:"validationErrors"`
}

// StagedUpload is a parsed-but-unconfirmed cruise upload.
type StagedUpload struct {
	UploadID      string        `json:"uploadId"`
	FileName      string        `json:"fileName"`
	TotalOrders   int           `json:"totalOrders"`
	TotalProducts int           `json:"totalProducts"`
	Orders        []CruiseOrder `json:"orders"`
	CreatedAt     time.Time     `json:"createdAt"`
}
