package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/lmeira/sales-api/internal/domain/customer"
	"github.com/lmeira/sales-api/internal/domain/reports"
)

const (
	customerOrderTotalsSQL = `SELECT count(*), COALESCE(sum(total), 0)
		FROM orders WHERE customer_id = $1`

	customerStatusCountsSQL = `SELECT status, count(*)
		FROM orders WHERE customer_id = $1 GROUP BY status`

	customerTopProductsSQL = `SELECT p.id, p.name,
			sum(li.quantity) AS qty,
			sum(li.quantity * li.unit_price) AS spent
		FROM order_items li
		JOIN orders o ON o.id = li.order_id
		JOIN products p ON p.id = li.product_id
		WHERE o.customer_id = $1
		GROUP BY p.id, p.name
		ORDER BY qty DESC, p.id
		LIMIT 5`

	bestSellersSQL = `SELECT p.id, p.name, p.category, p.price,
			sum(li.quantity) AS qty,
			sum(li.quantity * li.unit_price) AS revenue,
			count(DISTINCT o.id) AS order_count
		FROM order_items li
		JOIN orders o ON o.id = li.order_id
		JOIN products p ON p.id = li.product_id
		WHERE ($1::timestamptz IS NULL OR o.created_at >= $1)
		  AND ($2::timestamptz IS NULL OR o.created_at <= $2)
		  AND ($3::text IS NULL OR p.category = $3)
		GROUP BY p.id, p.name, p.category, p.price
		ORDER BY qty DESC, p.id
		LIMIT $4`

	dailySalesSQL = `SELECT to_char(o.created_at, 'YYYY-MM-DD') AS day,
			o.status,
			count(*) AS order_count,
			COALESCE(sum(o.total), 0) AS revenue,
			COALESCE(sum(items.units), 0) AS units
		FROM orders o
		LEFT JOIN LATERAL (
			SELECT sum(li.quantity) AS units FROM order_items li WHERE li.order_id = o.id
		) items ON true
		WHERE ($1::timestamptz IS NULL OR o.created_at >= $1)
		  AND ($2::timestamptz IS NULL OR o.created_at <= $2)
		GROUP BY day, o.status
		ORDER BY day, o.status`
)

var _ reports.Repository = (*ReportsRepository)(nil)

// ReportsRepository computes the reporting aggregations directly in SQL.
type ReportsRepository struct {
	pool *pgxpool.Pool
}

// NewReportsRepository returns a ReportsRepository that uses the given pool.
func NewReportsRepository(pool *pgxpool.Pool) *ReportsRepository {
	return &ReportsRepository{pool: pool}
}

// CustomerSummary aggregates one customer's purchase history: order and
// spend totals, per-status counts, and the five most purchased products.
func (r *ReportsRepository) CustomerSummary(ctx context.Context, customerID string) (*reports.CustomerSummary, error) {
	cust, err := NewCustomerRepository(r.pool).GetByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, customer.ErrNotFound) {
			return nil, customer.ErrNotFound
		}
		return nil, fmt.Errorf("resolving customer %q: %w", customerID, err)
	}

	summary := &reports.CustomerSummary{
		CustomerID:    cust.ID,
		CustomerName:  cust.Name,
		CustomerEmail: cust.Email,
		TotalSpent:    decimal.Zero,
		AverageOrder:  decimal.Zero,
		StatusCounts:  map[string]int64{},
		TopProducts:   []reports.ProductPurchases{},
	}

	err = r.pool.QueryRow(ctx, customerOrderTotalsSQL, customerID).
		Scan(&summary.TotalOrders, &summary.TotalSpent)
	if err != nil {
		return nil, fmt.Errorf("aggregating customer %q orders: %w", customerID, err)
	}
	if summary.TotalOrders > 0 {
		summary.AverageOrder = summary.TotalSpent.
			Div(decimal.NewFromInt(summary.TotalOrders)).Round(2)
	}

	rows, err := r.pool.Query(ctx, customerStatusCountsSQL, customerID)
	if err != nil {
		return nil, fmt.Errorf("aggregating customer %q statuses: %w", customerID, err)
	}
	type statusCount struct {
		status string
		count  int64
	}
	counts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (statusCount, error) {
		var sc statusCount
		err := row.Scan(&sc.status, &sc.count)
		return sc, err
	})
	if err != nil {
		return nil, fmt.Errorf("aggregating customer %q statuses: %w", customerID, err)
	}
	for _, sc := range counts {
		summary.StatusCounts[sc.status] = sc.count
	}

	rows, err = r.pool.Query(ctx, customerTopProductsSQL, customerID)
	if err != nil {
		return nil, fmt.Errorf("aggregating customer %q products: %w", customerID, err)
	}
	summary.TopProducts, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (reports.ProductPurchases, error) {
		var pp reports.ProductPurchases
		err := row.Scan(&pp.ProductID, &pp.Name, &pp.Quantity, &pp.Total)
		return pp, err
	})
	if err != nil {
		return nil, fmt.Errorf("aggregating customer %q products: %w", customerID, err)
	}

	return summary, nil
}

// BestSellers returns products ordered by total quantity sold within
// the optional date range and category filter.
func (r *ReportsRepository) BestSellers(ctx context.Context, f reports.BestSellersFilter) ([]reports.BestSeller, error) {
	limit := f.Limit
	if limit < 1 {
		limit = 10
	}

	rows, err := r.pool.Query(ctx, bestSellersSQL,
		nullableTime(f.Range.From), nullableTime(f.Range.To), nullableString(f.Category), limit)
	if err != nil {
		return nil, fmt.Errorf("aggregating best sellers: %w", err)
	}

	sellers, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (reports.BestSeller, error) {
		var bs reports.BestSeller
		err := row.Scan(&bs.ProductID, &bs.Name, &bs.Category, &bs.CurrentPrice,
			&bs.Quantity, &bs.Revenue, &bs.OrderCount)
		return bs, err
	})
	if err != nil {
		return nil, fmt.Errorf("aggregating best sellers: %w", err)
	}

	for i := range sellers {
		s := &sellers[i]
		if s.OrderCount > 0 {
			s.AvgOrderValue = s.Revenue.Div(decimal.NewFromInt(s.OrderCount)).Round(2)
		}
		if s.Quantity > 0 {
			s.AvgUnitValue = s.Revenue.Div(decimal.NewFromInt(s.Quantity)).Round(2)
		}
	}
	return sellers, nil
}

// DailySales returns per-day order counts, revenue, units sold, and a
// status breakdown within the optional date range.
func (r *ReportsRepository) DailySales(ctx context.Context, dr reports.DateRange) ([]reports.DailySales, error) {
	rows, err := r.pool.Query(ctx, dailySalesSQL, nullableTime(dr.From), nullableTime(dr.To))
	if err != nil {
		return nil, fmt.Errorf("aggregating daily sales: %w", err)
	}

	type dayStatus struct {
		day     string
		status  string
		count   int64
		revenue decimal.Decimal
		units   int64
	}
	grouped, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (dayStatus, error) {
		var ds dayStatus
		err := row.Scan(&ds.day, &ds.status, &ds.count, &ds.revenue, &ds.units)
		return ds, err
	})
	if err != nil {
		return nil, fmt.Errorf("aggregating daily sales: %w", err)
	}

	// Fold per-status rows into per-day entries, preserving day order.
	var (
		out   []reports.DailySales
		index = map[string]int{}
	)
	for _, ds := range grouped {
		i, ok := index[ds.day]
		if !ok {
			i = len(out)
			index[ds.day] = i
			out = append(out, reports.DailySales{
				Date:         ds.day,
				Revenue:      decimal.Zero,
				StatusCounts: map[string]int64{},
			})
		}
		day := &out[i]
		day.OrderCount += ds.count
		day.Revenue = day.Revenue.Add(ds.revenue)
		day.UnitsSold += ds.units
		day.StatusCounts[ds.status] += ds.count
	}
	for i := range out {
		if out[i].OrderCount > 0 {
			out[i].AvgOrderValue = out[i].Revenue.
				Div(decimal.NewFromInt(out[i].OrderCount)).Round(2)
		}
	}
	return out, nil
}

// nullableTime maps the zero time to SQL NULL so open range bounds drop
// out of the WHERE clause.
func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// nullableString maps "" to SQL NULL.
func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
