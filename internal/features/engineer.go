// Package features computes secondary per-customer descriptors beyond RFM:
// product variety, basket statistics, temporal rhythm, and geography.
package features

import (
	"context"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"customer-segmentation/pkg/api"
)

// Row holds the extended descriptors for one customer. Statistics that are
// undefined for the customer's history (a single line item, a single invoice
// timestamp, a zero quantity total) are carried as NaN or Inf, never zeroed.
type Row struct {
	CustomerID            string  `json:"customer_id"`
	UniqueProducts        float64 `json:"unique_products"`
	VarietyIndex          float64 `json:"variety_index"`
	AvgBasketSize         float64 `json:"avg_basket_size"`
	AvgOrderValue         float64 `json:"avg_order_value"`
	PriceMean             float64 `json:"price_mean"`
	PriceStd              float64 `json:"price_std"`
	ReturnRate            float64 `json:"return_rate"`
	ActiveDays            float64 `json:"active_days"`
	ActiveMonths          float64 `json:"active_months"`
	MeanInterpurchaseTime float64 `json:"mean_interpurchase_time"`
	WeekendPurchaseRatio  float64 `json:"weekend_purchase_ratio"`
	MorningPurchaseRatio  float64 `json:"morning_purchase_ratio"`
	NumCountries          float64 `json:"num_countries"`
}

// Engineer computes one Row per distinct customer in the cleaned set.
// Customers are independent, so the per-customer reductions fan out over a
// bounded worker pool; results are identical to a serial pass. workers <= 0
// means serial.
func Engineer(ctx context.Context, txns []api.Transaction, workers int) ([]Row, error) {
	byCustomer := make(map[string][]api.Transaction)
	order := make([]string, 0)
	for _, t := range txns {
		if _, ok := byCustomer[t.CustomerID]; !ok {
			order = append(order, t.CustomerID)
		}
		byCustomer[t.CustomerID] = append(byCustomer[t.CustomerID], t)
	}
	sort.Strings(order)

	rows := make([]Row, len(order))
	if workers <= 1 {
		for i, id := range order {
			rows[i] = engineerCustomer(id, byCustomer[id])
		}
		return rows, nil
	}

	eg, _ := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i, id := range order {
		i, id := i, id
		eg.Go(func() error {
			rows[i] = engineerCustomer(id, byCustomer[id])
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}

func engineerCustomer(id string, txns []api.Transaction) Row {
	row := Row{CustomerID: id}

	n := float64(len(txns))
	products := make(map[string]struct{})
	countries := make(map[string]struct{})
	months := make(map[string]struct{})
	invoiceQty := make(map[string]float64)
	timestamps := make(map[time.Time]struct{})

	var totalQty, totalAmount, returns float64
	var weekend, morning float64
	var minDate, maxDate time.Time
	prices := make([]float64, 0, len(txns))

	for _, t := range txns {
		products[t.StockCode] = struct{}{}
		countries[t.Country] = struct{}{}
		months[t.InvoiceDate.Format("2006-01")] = struct{}{}
		invoiceQty[t.InvoiceNo] += t.Quantity
		timestamps[t.InvoiceDate] = struct{}{}

		totalQty += t.Quantity
		amount, _ := t.Amount().Float64()
		totalAmount += amount
		if t.IsReturn() {
			returns++
		}

		if wd := t.InvoiceDate.Weekday(); wd == time.Saturday || wd == time.Sunday {
			weekend++
		}
		if h := t.InvoiceDate.Hour(); h >= 6 && h < 12 {
			morning++
		}

		price, _ := t.UnitPrice.Float64()
		prices = append(prices, price)

		if minDate.IsZero() || t.InvoiceDate.Before(minDate) {
			minDate = t.InvoiceDate
		}
		if t.InvoiceDate.After(maxDate) {
			maxDate = t.InvoiceDate
		}
	}

	row.UniqueProducts = float64(len(products))
	row.VarietyIndex = row.UniqueProducts / totalQty
	row.AvgBasketSize = meanInvoiceQuantity(invoiceQty)
	row.AvgOrderValue = totalAmount / float64(len(invoiceQty))
	row.PriceMean = mean(prices)
	row.PriceStd = sampleStd(prices)
	row.ReturnRate = returns / n
	row.ActiveDays = math.Trunc(maxDate.Sub(minDate).Hours() / 24)
	row.ActiveMonths = float64(len(months))
	row.MeanInterpurchaseTime = meanInterpurchaseDays(timestamps)
	row.WeekendPurchaseRatio = weekend / n
	row.MorningPurchaseRatio = morning / n
	row.NumCountries = float64(len(countries))

	return row
}

func meanInvoiceQuantity(invoiceQty map[string]float64) float64 {
	var sum float64
	for _, q := range invoiceQty {
		sum += q
	}
	return sum / float64(len(invoiceQty))
}

// meanInterpurchaseDays averages the day-gaps between consecutive distinct
// invoice timestamps. Undefined (NaN) for a single timestamp.
func meanInterpurchaseDays(timestamps map[time.Time]struct{}) float64 {
	if len(timestamps) < 2 {
		return math.NaN()
	}
	sorted := make([]time.Time, 0, len(timestamps))
	for ts := range timestamps {
		sorted = append(sorted, ts)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	var sum float64
	for i := 1; i < len(sorted); i++ {
		sum += math.Trunc(sorted[i].Sub(sorted[i-1]).Hours() / 24)
	}
	return sum / float64(len(sorted)-1)
}

func mean(vals []float64) float64 {
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// sampleStd is the n-1 standard deviation; undefined for fewer than two
// samples.
func sampleStd(vals []float64) float64 {
	if len(vals) < 2 {
		return math.NaN()
	}
	m := mean(vals)
	var ss float64
	for _, v := range vals {
		ss += (v - m) * (v - m)
	}
	return math.Sqrt(ss / float64(len(vals)-1))
}
