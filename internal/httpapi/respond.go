package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/lmeira/sales-api/internal/domain/customer"
	"github.com/lmeira/sales-api/internal/domain/order"
	"github.com/lmeira/sales-api/internal/domain/product"
	"github.com/lmeira/sales-api/pkg/pagination"
)

// ErrorResponse is the uniform error body. Details carries
// failure-specific fields such as available/requested stock.
type ErrorResponse struct {
	Error   string         `json:"error"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: msg})
}

// writeDomainError maps domain failures onto HTTP statuses:
// not-found → 404, validation → 400, insufficient stock / transaction
// conflict / referenced delete → 409, anything else → 500.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		custNF  *order.CustomerNotFoundError
		prodNF  *order.ProductNotFoundError
		badQty  *order.InvalidQuantityError
		noStock *order.InsufficientStockError
	)

	switch {
	case errors.As(err, &custNF):
		writeJSON(w, http.StatusNotFound, ErrorResponse{
			Error:   "customer_not_found",
			Message: custNF.Error(),
			Details: map[string]any{"customer_id": custNF.CustomerID},
		})
	case errors.As(err, &prodNF):
		writeJSON(w, http.StatusNotFound, ErrorResponse{
			Error:   "product_not_found",
			Message: prodNF.Error(),
			Details: map[string]any{"product_id": prodNF.ProductID},
		})
	case errors.As(err, &noStock):
		writeJSON(w, http.StatusConflict, ErrorResponse{
			Error:   "insufficient_stock",
			Message: noStock.Error(),
			Details: map[string]any{
				"product_id": noStock.ProductID,
				"product":    noStock.Name,
				"available":  noStock.Available,
				"requested":  noStock.Requested,
			},
		})
	case errors.As(err, &badQty):
		writeError(w, http.StatusBadRequest, "invalid_quantity", badQty.Error())
	case errors.Is(err, order.ErrConflict):
		writeError(w, http.StatusConflict, "conflict",
			"concurrent modification, please retry the request")
	case errors.Is(err, order.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, "invalid_status", err.Error())
	case errors.Is(err, customer.ErrNotFound):
		writeError(w, http.StatusNotFound, "customer_not_found", err.Error())
	case errors.Is(err, product.ErrNotFound):
		writeError(w, http.StatusNotFound, "product_not_found", err.Error())
	case errors.Is(err, order.ErrNotFound):
		writeError(w, http.StatusNotFound, "order_not_found", err.Error())
	case errors.Is(err, customer.ErrReferenced), errors.Is(err, product.ErrReferenced):
		writeError(w, http.StatusConflict, "referenced", err.Error())
	default:
		zctx.From(r.Context()).Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}

// pageParams reads ?page= and ?size= and clamps them.
func pageParams(r *http.Request) pagination.Params {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))
	return pagination.Sanitize(page, size)
}

// decodeBody decodes a JSON request body into v, rejecting unknown fields.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
