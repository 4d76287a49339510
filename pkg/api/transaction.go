// Package api defines the shared contracts between the pipeline stages,
// the feature stores, and the inference service.
package api

import (
	"time"

	"github.com/shopspring/decimal"
)

// Raw input column names, in file order. The loader refuses input whose
// header is missing any of these.
const (
	ColInvoiceNo   = "InvoiceNo"
	ColStockCode   = "StockCode"
	ColDescription = "Description"
	ColQuantity    = "Quantity"
	ColInvoiceDate = "InvoiceDate"
	ColUnitPrice   = "UnitPrice"
	ColCustomerID  = "CustomerID"
	ColCountry     = "Country"
)

// UnknownDescription is the sentinel filled in for absent descriptions
// during cleaning.
const UnknownDescription = "Unknown Description"

// Transaction is one retail line item. Immutable once ingested; the raw
// input file remains the source of truth.
type Transaction struct {
	InvoiceNo   string          `json:"invoice_no"`
	StockCode   string          `json:"stock_code"`
	Description string          `json:"description"`
	Quantity    float64         `json:"quantity"` // signed; negative denotes a return
	InvoiceDate time.Time       `json:"invoice_date"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	CustomerID  string          `json:"customer_id"`
	Country     string          `json:"country"`
}

// Amount is the monetary value of the line item: quantity x unit price.
func (t Transaction) Amount() decimal.Decimal {
	return t.UnitPrice.Mul(decimal.NewFromFloat(t.Quantity))
}

// IsReturn reports whether the line item is a return.
func (t Transaction) IsReturn() bool { return t.Quantity < 0 }
