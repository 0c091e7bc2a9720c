package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lmeira/sales-api/internal/domain/product"
	"github.com/lmeira/sales-api/pkg/pagination"
	"github.com/lmeira/sales-api/pkg/patch"
)

// ProductDTO is the wire representation of a product.
type ProductDTO struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
	Stock    int     `json:"stock"`
}

func toProductDTO(p product.Product) ProductDTO {
	return ProductDTO{
		ID:       p.ID,
		Name:     p.Name,
		Category: p.Category,
		Price:    p.Price.InexactFloat64(),
		Stock:    p.Stock,
	}
}

type createProductRequest struct {
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock"`
}

type patchProductRequest struct {
	Name     patch.Field[string]          `json:"name"`
	Category patch.Field[string]          `json:"category"`
	Price    patch.Field[decimal.Decimal] `json:"price"`
	Stock    patch.Field[int]             `json:"stock"`
}

// ListProducts returns one page of the catalog.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	p := pageParams(r)
	products, total, err := h.products.List(r.Context(), p)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	items := make([]ProductDTO, len(products))
	for i, prod := range products {
		items[i] = toProductDTO(prod)
	}
	writeJSON(w, http.StatusOK, pagination.NewPage(items, total, p))
}

// CreateProduct inserts a new catalog item.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	p := product.Product{
		ID:       uuid.New().String(),
		Name:     req.Name,
		Category: req.Category,
		Price:    req.Price,
		Stock:    req.Stock,
	}
	if err := p.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_product", err.Error())
		return
	}

	if err := h.products.Create(r.Context(), &p); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProductDTO(p))
}

// GetProduct returns a single product.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductDTO(*p))
}

// PatchProduct applies a tri-state partial update.
func (h *Handler) PatchProduct(w http.ResponseWriter, r *http.Request) {
	var req patchProductRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	p := product.Patch{
		Name:     req.Name,
		Category: req.Category,
		Price:    req.Price,
		Stock:    req.Stock,
	}
	if err := p.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_patch", err.Error())
		return
	}

	updated, err := h.products.Update(r.Context(), chi.URLParam(r, "id"), &p)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductDTO(*updated))
}

// DeleteProduct removes a product unless order line items reference it.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.products.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CountProducts returns the catalog size, optionally filtered by the
// category query parameter.
func (h *Handler) CountProducts(w http.ResponseWriter, r *http.Request) {
	var (
		count int64
		err   error
	)
	if category := r.URL.Query().Get("category"); category != "" {
		count, err = h.products.CountByCategory(r.Context(), category)
	} else {
		count, err = h.products.Count(r.Context())
	}
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"count": count})
}

// ListProductsPriceAbove lists products priced at or above the path
// threshold.
func (h *Handler) ListProductsPriceAbove(w http.ResponseWriter, r *http.Request) {
	price, err := decimal.NewFromString(chi.URLParam(r, "price"))
	if err != nil || price.IsNegative() {
		writeError(w, http.StatusBadRequest, "invalid_price", "price must be a non-negative number")
		return
	}

	products, err := h.products.ListPriceAbove(r.Context(), price)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	items := make([]ProductDTO, len(products))
	for i, p := range products {
		items[i] = toProductDTO(p)
	}
	writeJSON(w, http.StatusOK, items)
}

// ProductAvailability reports whether the requested quantity can be
// fulfilled from current stock.
func (h *Handler) ProductAvailability(w http.ResponseWriter, r *http.Request) {
	quantity, err := strconv.Atoi(r.URL.Query().Get("quantity"))
	if err != nil || quantity <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be a positive integer")
		return
	}

	p, err := h.products.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	a := p.CheckAvailability(quantity)
	writeJSON(w, http.StatusOK, map[string]any{
		"product_id": a.ProductID,
		"stock":      a.Stock,
		"requested":  a.Requested,
		"available":  a.Available,
	})
}
