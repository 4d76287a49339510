// Package assemble joins the RFM and extended feature outputs into the
// customer feature table and enforces the fixed column schema.
package assemble

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"customer-segmentation/internal/features"
	"customer-segmentation/internal/rfm"
)

// FeatureColumns is the fixed column schema of the customer feature table.
// The ordering is the contract consumed by model fitting and validation;
// it must never be rearranged.
var FeatureColumns = []string{
	"Recency",
	"Frequency",
	"Monetary",
	"UniqueProducts",
	"VarietyIndex",
	"AvgBasketSize",
	"AvgOrderValue",
	"PriceMean",
	"PriceStd",
	"ReturnRate",
	"ActiveDays",
	"ActiveMonths",
	"MeanInterpurchaseTime",
	"WeekendPurchaseRatio",
	"MorningPurchaseRatio",
	"NumCountries",
}

// Row is one customer feature row. Values are ordered by FeatureColumns;
// missing cells are NaN.
type Row struct {
	CustomerID string
	Values     []float64
}

// Table is the assembled customer feature table.
type Table struct {
	columns []string
	Rows    []Row
}

// Columns returns the ordered column names of the table.
func (t *Table) Columns() []string {
	cols := make([]string, len(t.columns))
	copy(cols, t.columns)
	return cols
}

// Value looks up a cell by column name. The second return is false for an
// unknown column.
func (t *Table) Value(row int, column string) (float64, bool) {
	for i, c := range t.columns {
		if c == column {
			return t.Rows[row].Values[i], true
		}
	}
	return 0, false
}

// Join left-joins the extended features onto the RFM rows. The RFM grouping
// is the canonical customer universe: every RFM customer appears exactly
// once, and a customer absent from the extended output keeps NaN in the
// extended columns rather than failing the join.
func Join(rfmRows []rfm.Row, extRows []features.Row) *Table {
	ext := make(map[string]features.Row, len(extRows))
	for _, r := range extRows {
		ext[r.CustomerID] = r
	}

	table := &Table{columns: FeatureColumns, Rows: make([]Row, 0, len(rfmRows))}
	for _, r := range rfmRows {
		monetary, _ := r.Monetary.Float64()
		values := []float64{float64(r.Recency), float64(r.Frequency), monetary}

		if e, ok := ext[r.CustomerID]; ok {
			values = append(values,
				e.UniqueProducts, e.VarietyIndex, e.AvgBasketSize, e.AvgOrderValue,
				e.PriceMean, e.PriceStd, e.ReturnRate, e.ActiveDays, e.ActiveMonths,
				e.MeanInterpurchaseTime, e.WeekendPurchaseRatio, e.MorningPurchaseRatio,
				e.NumCountries,
			)
		} else {
			for i := len(values); i < len(FeatureColumns); i++ {
				values = append(values, math.NaN())
			}
		}

		table.Rows = append(table.Rows, Row{CustomerID: r.CustomerID, Values: values})
	}
	return table
}

// Filter returns a copy of the table without the rows whose customer
// identifiers appear in excluded.
func (t *Table) Filter(excluded map[string]struct{}) *Table {
	out := &Table{columns: t.columns, Rows: make([]Row, 0, len(t.Rows))}
	for _, r := range t.Rows {
		if _, skip := excluded[r.CustomerID]; skip {
			continue
		}
		out.Rows = append(out.Rows, r)
	}
	return out
}

// WriteCSV exports the table with a CustomerID key column followed by the
// schema columns. Undefined cells are written as empty strings.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := append([]string{"CustomerID"}, t.columns...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range t.Rows {
		record := make([]string, 0, len(header))
		record = append(record, row.CustomerID)
		for _, v := range row.Values {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				record = append(record, "")
				continue
			}
			record = append(record, strconv.FormatFloat(v, 'f', -1, 64))
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row for customer %s: %w", row.CustomerID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
