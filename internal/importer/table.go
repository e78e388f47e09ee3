package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

var (
	ErrUnsupportedEntity = errors.New("unsupported entity type")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrUploadTooLarge    = errors.New("uploaded file exceeds the size limit")
	ErrEmptyFile         = errors.New("uploaded file contains no data rows")
	ErrMissingColumns    = errors.New("uploaded file is missing required columns")
)

// Table is one decoded tabular upload: the header row plus each data row
// keyed by column name.
type Table struct {
	Columns []string
	Rows    []map[string]string
}

// CheckUpload gates a file before any bytes are parsed.
func CheckUpload(filename string, size, maxBytes int64) error {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xls", ".csv":
	default:
		return fmt.Errorf("%w: %s (want .xlsx, .xls or .csv)", ErrUnsupportedFormat, filepath.Ext(filename))
	}
	if maxBytes > 0 && size > maxBytes {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrUploadTooLarge, size, maxBytes)
	}
	return nil
}

// DecodeTable parses uploaded bytes into a Table. Excel files read sheet 0;
// CSV decodes as UTF-8 with a GBK/GB2312 fallback; a ".xls" that excelize
// cannot open is retried as an HTML table, which is what many legacy ERP
// exports actually are.
func DecodeTable(filename string, blob []byte) (*Table, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		return decodeXLSX(blob)
	case ".xls":
		table, err := decodeXLSX(blob)
		if err == nil {
			return table, nil
		}
		if table, htmlErr := decodeHTMLTable(blob); htmlErr == nil {
			return table, nil
		}
		return nil, fmt.Errorf("%w: cannot read .xls content: %v", ErrUnsupportedFormat, err)
	case ".csv":
		return decodeCSV(blob)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(filename))
	}
}

func decodeXLSX(blob []byte) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(blob))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, err
	}
	return tableFromRows(rows)
}

func decodeCSV(blob []byte) (*Table, error) {
	if !utf8.Valid(blob) {
		decoded, _, err := transform.Bytes(simplifiedchinese.GBK.NewDecoder(), blob)
		if err != nil {
			decoded, _, err = transform.Bytes(simplifiedchinese.HZGB2312.NewDecoder(), blob)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: csv is neither UTF-8 nor GBK/GB2312", ErrUnsupportedFormat)
		}
		blob = decoded
	}
	blob = bytes.TrimPrefix(blob, []byte{0xEF, 0xBB, 0xBF})

	reader := csv.NewReader(bytes.NewReader(blob))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, record)
	}
	return tableFromRows(rows)
}

func decodeHTMLTable(blob []byte) (*Table, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(blob))
	if err != nil {
		return nil, err
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, errors.New("no table element found")
	}

	var rows [][]string
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Find("th,td").Each(func(_ int, td *goquery.Selection) {
			cells = append(cells, strings.TrimSpace(td.Text()))
		})
		if len(cells) > 0 {
			rows = append(rows, cells)
		}
	})
	return tableFromRows(rows)
}

func tableFromRows(rows [][]string) (*Table, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}

	columns := make([]string, 0, len(rows[0]))
	for _, h := range rows[0] {
		columns = append(columns, strings.ToLower(strings.TrimSpace(h)))
	}

	out := &Table{Columns: columns}
	for _, raw := range rows[1:] {
		row := map[string]string{}
		empty := true
		for i, col := range columns {
			if col == "" {
				continue
			}
			value := ""
			if i < len(raw) {
				value = strings.TrimSpace(raw[i])
			}
			row[col] = value
			if value != "" {
				empty = false
			}
		}
		if !empty {
			out.Rows = append(out.Rows, row)
		}
	}

	if len(out.Rows) == 0 {
		return nil, ErrEmptyFile
	}
	return out, nil
}

// MissingColumns reports the required columns absent from the header row.
func (t *Table) MissingColumns(required []string) []string {
	have := map[string]struct{}{}
	for _, c := range t.Columns {
		have[c] = struct{}{}
	}
	var missing []string
	for _, c := range required {
		if _, ok := have[c]; !ok {
			missing = append(missing, c)
		}
	}
	return missing
}
