// Package httpapi is the thin HTTP surface: request decoding, domain
// calls, response mapping. Business rules live in the domain packages.
package httpapi

import (
	"github.com/lmeira/sales-api/internal/domain/customer"
	"github.com/lmeira/sales-api/internal/domain/order"
	"github.com/lmeira/sales-api/internal/domain/product"
	"github.com/lmeira/sales-api/internal/domain/reports"
)

// Handler holds the domain dependencies for all routes.
type Handler struct {
	customers    customer.Repository
	products     product.Repository
	orders       order.Repository
	orderService *order.Service
	reports      reports.Repository
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	customers customer.Repository,
	products product.Repository,
	orders order.Repository,
	orderService *order.Service,
	reportsRepo reports.Repository,
) *Handler {
	return &Handler{
		customers:    customers,
		products:     products,
		orders:       orders,
		orderService: orderService,
		reports:      reportsRepo,
	}
}
