// Package rfm computes the canonical Recency / Frequency / Monetary features
// over the cleaned transaction set.
package rfm

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"customer-segmentation/pkg/api"
)

// Row is the RFM aggregate for one customer.
type Row struct {
	CustomerID string          `json:"customer_id"`
	Recency    int             `json:"recency"`   // whole days since last purchase
	Frequency  int             `json:"frequency"` // count of distinct invoices
	Monetary   decimal.Decimal `json:"monetary"`  // sum of quantity x unit price
}

// SnapshotDate is the reference timestamp Recency is measured against:
// one day past the latest invoice in the cleaned set. It must be computed
// once per pipeline run and shared by every downstream consumer.
func SnapshotDate(txns []api.Transaction) time.Time {
	var max time.Time
	for _, t := range txns {
		if t.InvoiceDate.After(max) {
			max = t.InvoiceDate
		}
	}
	return max.Add(24 * time.Hour)
}

// Aggregate groups the cleaned set by customer identifier and computes RFM
// against the supplied snapshot date. A snapshot date earlier than a
// customer's last purchase yields negative Recency; that is a caller error
// and is not corrected here. Monetary is left unclamped: customers whose
// returns exceed purchases aggregate to a negative value.
func Aggregate(txns []api.Transaction, snapshot time.Time) []Row {
	type group struct {
		last     time.Time
		invoices map[string]struct{}
		monetary decimal.Decimal
	}

	groups := make(map[string]*group)
	order := make([]string, 0)
	for _, t := range txns {
		g, ok := groups[t.CustomerID]
		if !ok {
			g = &group{invoices: make(map[string]struct{})}
			groups[t.CustomerID] = g
			order = append(order, t.CustomerID)
		}
		if t.InvoiceDate.After(g.last) {
			g.last = t.InvoiceDate
		}
		g.invoices[t.InvoiceNo] = struct{}{}
		g.monetary = g.monetary.Add(t.Amount())
	}
	sort.Strings(order)

	rows := make([]Row, 0, len(order))
	for _, id := range order {
		g := groups[id]
		rows = append(rows, Row{
			CustomerID: id,
			Recency:    wholeDays(g.last, snapshot),
			Frequency:  len(g.invoices),
			Monetary:   g.monetary,
		})
	}
	return rows
}

// wholeDays truncates toward zero, matching calendar-day subtraction.
func wholeDays(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
