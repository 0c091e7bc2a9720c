package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"

	"github.com/lmeira/sales-api/internal/domain/reports"
)

const reportDateLayout = "2006-01-02"

// reportRange parses optional ?from= and ?to= date bounds. The upper
// bound is inclusive, so it is stretched to the end of its day.
func reportRange(r *http.Request) (reports.DateRange, error) {
	var dr reports.DateRange
	if from := r.URL.Query().Get("from"); from != "" {
		t, err := time.Parse(reportDateLayout, from)
		if err != nil {
			return dr, err
		}
		dr.From = t.UTC()
	}
	if to := r.URL.Query().Get("to"); to != "" {
		t, err := time.Parse(reportDateLayout, to)
		if err != nil {
			return dr, err
		}
		dr.To = t.UTC().Add(24*time.Hour - time.Nanosecond)
	}
	return dr, nil
}

func writeReport(w http.ResponseWriter, e *jx.Encoder) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(e.Bytes())
}

// CustomerReport summarizes one customer's purchase history: totals,
// status breakdown and their most purchased products.
func (h *Handler) CustomerReport(w http.ResponseWriter, r *http.Request) {
	s, err := h.reports.CustomerSummary(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("customer", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("id", func(e *jx.Encoder) { e.Str(s.CustomerID) })
				e.Field("name", func(e *jx.Encoder) { e.Str(s.CustomerName) })
				e.Field("email", func(e *jx.Encoder) { e.Str(s.CustomerEmail) })
			})
		})
		e.Field("total_orders", func(e *jx.Encoder) { e.Int64(s.TotalOrders) })
		e.Field("total_spent", func(e *jx.Encoder) { e.Float64(s.TotalSpent.InexactFloat64()) })
		e.Field("average_order", func(e *jx.Encoder) { e.Float64(s.AverageOrder.InexactFloat64()) })
		e.Field("status_counts", func(e *jx.Encoder) { encodeStatusCounts(e, s.StatusCounts) })
		e.Field("top_products", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, p := range s.TopProducts {
					e.Obj(func(e *jx.Encoder) {
						e.Field("product_id", func(e *jx.Encoder) { e.Str(p.ProductID) })
						e.Field("name", func(e *jx.Encoder) { e.Str(p.Name) })
						e.Field("quantity", func(e *jx.Encoder) { e.Int64(p.Quantity) })
						e.Field("total", func(e *jx.Encoder) { e.Float64(p.Total.InexactFloat64()) })
					})
				}
			})
		})
	})
	writeReport(w, &e)
}

// BestSellersReport ranks products by units sold, optionally limited to
// a date range and category.
func (h *Handler) BestSellersReport(w http.ResponseWriter, r *http.Request) {
	dr, err := reportRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", "dates must use YYYY-MM-DD")
		return
	}

	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > 100 {
			writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be between 1 and 100")
			return
		}
	}

	rows, err := h.reports.BestSellers(r.Context(), reports.BestSellersFilter{
		Range:    dr,
		Category: r.URL.Query().Get("category"),
		Limit:    limit,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("products", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, row := range rows {
					e.Obj(func(e *jx.Encoder) {
						e.Field("product_id", func(e *jx.Encoder) { e.Str(row.ProductID) })
						e.Field("name", func(e *jx.Encoder) { e.Str(row.Name) })
						e.Field("category", func(e *jx.Encoder) { e.Str(row.Category) })
						e.Field("quantity_sold", func(e *jx.Encoder) { e.Int64(row.Quantity) })
						e.Field("revenue", func(e *jx.Encoder) { e.Float64(row.Revenue.InexactFloat64()) })
						e.Field("order_count", func(e *jx.Encoder) { e.Int64(row.OrderCount) })
						e.Field("current_price", func(e *jx.Encoder) { e.Float64(row.CurrentPrice.InexactFloat64()) })
						e.Field("avg_order_value", func(e *jx.Encoder) { e.Float64(row.AvgOrderValue.InexactFloat64()) })
						e.Field("avg_unit_value", func(e *jx.Encoder) { e.Float64(row.AvgUnitValue.InexactFloat64()) })
					})
				}
			})
		})
	})
	writeReport(w, &e)
}

// DailySalesReport aggregates orders per calendar day.
func (h *Handler) DailySalesReport(w http.ResponseWriter, r *http.Request) {
	dr, err := reportRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", "dates must use YYYY-MM-DD")
		return
	}

	days, err := h.reports.DailySales(r.Context(), dr)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("days", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, d := range days {
					e.Obj(func(e *jx.Encoder) {
						e.Field("date", func(e *jx.Encoder) { e.Str(d.Date) })
						e.Field("order_count", func(e *jx.Encoder) { e.Int64(d.OrderCount) })
						e.Field("revenue", func(e *jx.Encoder) { e.Float64(d.Revenue.InexactFloat64()) })
						e.Field("units_sold", func(e *jx.Encoder) { e.Int64(d.UnitsSold) })
						e.Field("avg_order_value", func(e *jx.Encoder) { e.Float64(d.AvgOrderValue.InexactFloat64()) })
						e.Field("status_counts", func(e *jx.Encoder) { encodeStatusCounts(e, d.StatusCounts) })
					})
				}
			})
		})
	})
	writeReport(w, &e)
}

func encodeStatusCounts(e *jx.Encoder, counts map[string]int64) {
	e.Obj(func(e *jx.Encoder) {
		for _, status := range statusOrder {
			if n, ok := counts[status]; ok {
				e.Field(status, func(e *jx.Encoder) { e.Int64(n) })
			}
		}
	})
}

// statusOrder keeps status_counts keys stable across responses.
var statusOrder = []string{"Pending", "Processing", "Paid", "Shipped", "Delivered", "Cancelled"}
