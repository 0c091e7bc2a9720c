// Package reports defines the read-only aggregation views computed over
// the order ledger and catalog. They are projections over already
// committed data and never mutate anything.
package reports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// DateRange is an optional inclusive reporting window. Zero times mean
// the bound is open.
type DateRange struct {
	From time.Time
	To   time.Time
}

// CustomerSummary aggregates one customer's purchase history.
type CustomerSummary struct {
	CustomerID    string
	CustomerName  string
	CustomerEmail string

	TotalOrders   int64
	TotalSpent    decimal.Decimal
	AverageOrder  decimal.Decimal
	StatusCounts  map[string]int64
	TopProducts   []ProductPurchases
}

// ProductPurchases is one product's share of a customer's purchases.
type ProductPurchases struct {
	ProductID string
	Name      string
	Quantity  int64
	Total     decimal.Decimal
}

// BestSeller is one row of the best-selling-products report.
type BestSeller struct {
	ProductID     string
	Name          string
	Category      string
	Quantity      int64
	Revenue       decimal.Decimal
	OrderCount    int64
	CurrentPrice  decimal.Decimal
	AvgOrderValue decimal.Decimal
	AvgUnitValue  decimal.Decimal
}

// BestSellersFilter narrows the best-sellers report.
type BestSellersFilter struct {
	Range    DateRange
	Category string
	Limit    int
}

// DailySales aggregates one calendar day of committed orders.
type DailySales struct {
	Date          string // YYYY-MM-DD
	OrderCount    int64
	Revenue       decimal.Decimal
	UnitsSold     int64
	AvgOrderValue decimal.Decimal
	StatusCounts  map[string]int64
}

// Repository computes the aggregations. Implementations run them as
// single queries against the store.
type Repository interface {
	CustomerSummary(ctx context.Context, customerID string) (*CustomerSummary, error)
	BestSellers(ctx context.Context, f BestSellersFilter) ([]BestSeller, error)
	DailySales(ctx context.Context, r DateRange) ([]DailySales, error)
}
