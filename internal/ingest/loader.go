// Package ingest loads raw retail transaction logs and produces the cleaned
// transaction set consumed by the aggregation stages.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/charmap"

	"customer-segmentation/pkg/errors"
)

// Record is one raw transaction row as parsed from the input file.
// Missing numeric cells are carried as NaN until cleaning imputes them.
type Record struct {
	InvoiceNo   string
	StockCode   string
	Description string
	Quantity    float64
	InvoiceDate time.Time
	UnitPrice   float64
	CustomerID  string
	Country     string
}

var requiredColumns = []string{
	"InvoiceNo", "StockCode", "Description", "Quantity",
	"InvoiceDate", "UnitPrice", "CustomerID", "Country",
}

// Known timestamp layouts in retail exports. The UCI online-retail dump uses
// the first form.
var dateLayouts = []string{
	"1/2/2006 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02",
}

// Load reads a comma-separated transaction file. The source data is known to
// contain Latin-1-range characters, so bytes are decoded as ISO 8859-1.
func Load(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewDataLoadError(fmt.Sprintf("cannot open input file %s", path), "", 0, err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads transaction rows from r. Any failure to interpret the input as
// tabular data is fatal: no partial records are returned.
func Parse(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(charmap.ISO8859_1.NewDecoder().Reader(r))
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, errors.NewDataLoadError("cannot read header row", "", 0, err)
	}

	colIdx := make(map[string]int, len(header))
	for i, name := range header {
		colIdx[strings.TrimSpace(name)] = i
	}
	for _, col := range requiredColumns {
		if _, ok := colIdx[col]; !ok {
			return nil, errors.NewMissingColumnError(col)
		}
	}

	var records []Record
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.NewDataLoadError("malformed csv row", "", len(records), err)
		}

		rec := Record{
			InvoiceNo:   strings.TrimSpace(row[colIdx["InvoiceNo"]]),
			StockCode:   strings.TrimSpace(row[colIdx["StockCode"]]),
			Description: strings.TrimSpace(row[colIdx["Description"]]),
			CustomerID:  strings.TrimSpace(row[colIdx["CustomerID"]]),
			Country:     strings.TrimSpace(row[colIdx["Country"]]),
		}

		rec.Quantity, err = parseNumeric(row[colIdx["Quantity"]])
		if err != nil {
			return nil, errors.NewDataLoadError("non-numeric value", "Quantity", len(records), err)
		}
		rec.UnitPrice, err = parseNumeric(row[colIdx["UnitPrice"]])
		if err != nil {
			return nil, errors.NewDataLoadError("non-numeric value", "UnitPrice", len(records), err)
		}
		rec.InvoiceDate, err = parseTimestamp(row[colIdx["InvoiceDate"]])
		if err != nil {
			return nil, errors.NewDataLoadError("unparseable timestamp", "InvoiceDate", len(records), err)
		}

		records = append(records, rec)
	}
	return records, nil
}

// parseNumeric returns NaN for an empty cell so that cleaning can impute it.
func parseNumeric(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
