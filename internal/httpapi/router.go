package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Router wires all API routes onto a chi mux.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.Root)

	r.Route("/customers", func(r chi.Router) {
		r.Get("/", h.ListCustomers)
		r.Post("/", h.CreateCustomer)
		r.Get("/{id}", h.GetCustomer)
		r.Patch("/{id}", h.PatchCustomer)
		r.Delete("/{id}", h.DeleteCustomer)
	})

	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.ListProducts)
		r.Post("/", h.CreateProduct)
		r.Get("/count", h.CountProducts)
		r.Get("/price-above/{price}", h.ListProductsPriceAbove)
		r.Get("/{id}", h.GetProduct)
		r.Patch("/{id}", h.PatchProduct)
		r.Delete("/{id}", h.DeleteProduct)
		r.Get("/{id}/availability", h.ProductAvailability)
	})

	r.Route("/orders", func(r chi.Router) {
		r.Get("/", h.ListOrders)
		r.Post("/", h.CreateOrder)
		r.Get("/reports/customers/{id}", h.CustomerReport)
		r.Get("/reports/products/best-sellers", h.BestSellersReport)
		r.Get("/reports/sales/daily", h.DailySalesReport)
		r.Get("/{id}", h.GetOrder)
		r.Patch("/{id}", h.UpdateOrder)
	})

	return r
}

// Root returns the service banner with an endpoint map.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service": "sales-api",
		"endpoints": map[string]string{
			"customers":    "/customers",
			"products":     "/products",
			"orders":       "/orders",
			"reports":      "/orders/reports",
			"health_live":  "/livez",
			"health_ready": "/readyz",
		},
	})
}
