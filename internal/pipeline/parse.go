package pipeline

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/Terryzhang-jp/curise-fullstack-project-sub000/internal"
	"github.com/Terryzhang-jp/curise-fullstack-project-sub000/internal/util"
)

const (
	markerHeader = "HEADER"
	markerDetail = "DETAIL"
)

// rowSchema pins the positional layout of a marker row. The layout is an
// external contract with the cruise line's export format: when a sheet
// arrives too narrow to cover the schema we fail loudly instead of
// misreading columns.
type rowSchema struct {
	version string
	fields  []schemaField
}

type schemaField struct {
	idx      int
	name     string
	optional bool
}

// requiredWidth is the narrowest row that can still carry every required
// field. Trailing optional cells may be absent entirely: xlsx readers trim
// trailing empty cells, so a blank last column shows up as a shorter row,
// not an empty string.
func (s rowSchema) requiredWidth() int {
	max := 0
	for _, f := range s.fields {
		if !f.optional && f.idx+1 > max {
			max = f.idx + 1
		}
	}
	return max
}

var headerSchemaV1 = rowSchema{
	version: "header/v1",
	fields: []schemaField{
		{idx: 1, name: "po_number"},
		{idx: 2, name: "order_date"},
		{idx: 3, name: "currency"},
		{idx: 4, name: "supplier_name"},
		{idx: 5, name: "description", optional: true},
	},
}

var detailSchemaV1 = rowSchema{
	version: "detail/v1",
	fields: []schemaField{
		{idx: 1, name: "product_id"},
		{idx: 2, name: "item_code"},
		{idx: 3, name: "description"},
		{idx: 4, name: "quantity"},
		{idx: 5, name: "unit_price", optional: true},
	},
}

type Parser struct {
	log *zap.Logger
}

func NewParser(log *zap.Logger) *Parser {
	return &Parser{log: log}
}

// ParseWorkbook reads the first sheet of a cruise order xlsx and
// reconstructs the orders it contains.
func (p *Parser) ParseWorkbook(content []byte) ([]internal.CruiseOrder, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return p.Parse(rows)
}

// Parse walks the rows as a HEADER/DETAIL state machine: a HEADER row opens
// an order and the DETAIL rows that follow attach to it until the next
// HEADER. DETAIL rows before any HEADER are logged and skipped.
func (p *Parser) Parse(rows [][]string) ([]internal.CruiseOrder, error) {
	if err := checkSchemas(rows); err != nil {
		return nil, err
	}

	orders := []internal.CruiseOrder{}
	var current *internal.CruiseOrder

	for i, row := range rows {
		marker := ""
		if len(row) > 0 {
			marker = strings.ToUpper(strings.TrimSpace(row[0]))
		}

		switch marker {
		case markerHeader:
			if current != nil {
				orders = append(orders, *current)
			}
			order := p.parseHeader(row)
			current = &order
		case markerDetail:
			if current == nil {
				p.log.Warn("detail row before any header, skipping",
					zap.Int("row", i+1))
				continue
			}
			item := p.parseDetail(row, len(current.Items)+1, current.Currency)
			current.Items = append(current.Items, item)
			current.TotalAmount += item.TotalPrice
		}
	}
	if current != nil {
		orders = append(orders, *current)
	}

	p.log.Info("parsed cruise workbook",
		zap.Int("orders", len(orders)),
		zap.Int("rows", len(rows)))
	return orders, nil
}

// checkSchemas verifies the sheet is wide enough for the positional layout.
// The widest marker row of each kind must cover the schema's required
// fields; trailing optional columns may be trimmed away by the reader.
func checkSchemas(rows [][]string) error {
	widest := map[string]int{}
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		marker := strings.ToUpper(strings.TrimSpace(row[0]))
		if marker != markerHeader && marker != markerDetail {
			continue
		}
		if len(row) > widest[marker] {
			widest[marker] = len(row)
		}
	}

	if w, ok := widest[markerHeader]; ok && w < headerSchemaV1.requiredWidth() {
		return fmt.Errorf("sheet does not match schema %s: header rows have %d columns, need %d",
			headerSchemaV1.version, w, headerSchemaV1.requiredWidth())
	}
	if w, ok := widest[markerDetail]; ok && w < detailSchemaV1.requiredWidth() {
		return fmt.Errorf("sheet does not match schema %s: detail rows have %d columns, need %d",
			detailSchemaV1.version, w, detailSchemaV1.requiredWidth())
	}
	return nil
}

func (p *Parser) parseHeader(row []string) internal.CruiseOrder {
	order := internal.CruiseOrder{
		PONumber:     at(row, 1),
		Currency:     at(row, 3),
		SupplierName: at(row, 4),
	}

	order.DeliveryDate = util.ParseDateOr(at(row, 2), time.Now())

	desc := at(row, 5)
	for label, value := range mineLabels(desc) {
		switch label {
		case "SHIP NAME":
			order.ShipName = value
		case "SHIP CODE":
			order.ShipCode = value
		case "FINAL DESTINATION":
			order.Destination = value
		case "PORT CODE":
			order.PortCode = value
		}
	}
	return order
}

func (p *Parser) parseDetail(row []string, lineNo int, currency string) internal.CruiseOrderItem {
	qty := util.ParseAmount(at(row, 4))
	price := util.ParseAmount(at(row, 5))
	return internal.CruiseOrderItem{
		LineNo:      lineNo,
		ProductID:   at(row, 1),
		ItemCode:    at(row, 2),
		Description: at(row, 3),
		Quantity:    qty,
		UnitPrice:   price,
		// sheet totals are untrusted, always recompute
		TotalPrice: qty * price,
		Currency:   currency,
	}
}

// mineLabels pulls "LABEL : VALUE" segments out of a free-text description.
// Segments are separated by newlines, commas or semicolons.
func mineLabels(desc string) map[string]string {
	out := map[string]string{}
	segments := strings.FieldsFunc(desc, func(r rune) bool {
		return r == '\n' || r == ',' || r == ';'
	})
	for _, seg := range segments {
		label, value, ok := strings.Cut(seg, ":")
		if !ok {
			continue
		}
		label = strings.ToUpper(strings.TrimSpace(label))
		value = strings.TrimSpace(value)
		if label == "" || value == "" {
			continue
		}
		out[label] = value
	}
	return out
}

func at(row []string, idx int) string {
	if idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}
