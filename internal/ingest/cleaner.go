package ingest

import (
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"customer-segmentation/pkg/api"
)

// Clean derives the cleaned transaction set, in this order:
//
//  1. drop rows without a customer identifier (such customers can never be
//     attributed to a segment, so the rows are permanently excluded)
//  2. fill absent descriptions with the sentinel
//  3. impute remaining missing numeric cells with the column median,
//     computed over the rows that survived step 1
//  4. drop exact-duplicate rows
//
// Relative row order is preserved throughout.
func Clean(records []Record) []api.Transaction {
	attributed := make([]Record, 0, len(records))
	for _, r := range records {
		if r.CustomerID == "" {
			continue
		}
		attributed = append(attributed, r)
	}

	qtyMedian := columnMedian(attributed, func(r Record) float64 { return r.Quantity })
	priceMedian := columnMedian(attributed, func(r Record) float64 { return r.UnitPrice })

	seen := make(map[string]struct{}, len(attributed))
	cleaned := make([]api.Transaction, 0, len(attributed))
	for _, r := range attributed {
		if r.Description == "" {
			r.Description = api.UnknownDescription
		}
		if math.IsNaN(r.Quantity) {
			r.Quantity = qtyMedian
		}
		if math.IsNaN(r.UnitPrice) {
			r.UnitPrice = priceMedian
		}

		t := api.Transaction{
			InvoiceNo:   r.InvoiceNo,
			StockCode:   r.StockCode,
			Description: r.Description,
			Quantity:    r.Quantity,
			InvoiceDate: r.InvoiceDate,
			UnitPrice:   decimal.NewFromFloat(r.UnitPrice),
			CustomerID:  r.CustomerID,
			Country:     r.Country,
		}

		key := rowKey(t)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		cleaned = append(cleaned, t)
	}
	return cleaned
}

// rowKey identifies a row under full-row equality.
func rowKey(t api.Transaction) string {
	return strings.Join([]string{
		t.InvoiceNo,
		t.StockCode,
		t.Description,
		formatQuantity(t.Quantity),
		t.InvoiceDate.Format("2006-01-02T15:04:05"),
		t.UnitPrice.String(),
		t.CustomerID,
		t.Country,
	}, "\x1f")
}

func formatQuantity(f float64) string {
	return decimal.NewFromFloat(f).String()
}

// columnMedian computes the median of the non-missing values of one column.
// Returns NaN when every value is missing.
func columnMedian(records []Record, get func(Record) float64) float64 {
	vals := make([]float64, 0, len(records))
	for _, r := range records {
		if v := get(r); !math.IsNaN(v) {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return math.NaN()
	}
	sort.Float64s(vals)
	mid := len(vals) / 2
	if len(vals)%2 == 1 {
		return vals[mid]
	}
	return (vals[mid-1] + vals[mid]) / 2
}
