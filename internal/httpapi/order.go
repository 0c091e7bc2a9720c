package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lmeira/sales-api/internal/domain/order"
	"github.com/lmeira/sales-api/pkg/pagination"
)

// OrderDTO is the composed order view: order fields plus the resolved
// customer summary and line items with their product summaries.
type OrderDTO struct {
	ID        string             `json:"id"`
	CreatedAt time.Time          `json:"created_at"`
	Total     float64            `json:"total"`
	Status    string             `json:"status"`
	Customer  OrderCustomerDTO   `json:"customer"`
	Items     []OrderLineItemDTO `json:"items"`
}

// OrderCustomerDTO is the customer summary embedded in order responses.
type OrderCustomerDTO struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// OrderLineItemDTO is one line of an order, with the price snapshot and
// the product as it looks now.
type OrderLineItemDTO struct {
	ID        string          `json:"line_item_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice float64         `json:"unit_price"`
	Subtotal  float64         `json:"subtotal"`
	Product   OrderProductDTO `json:"product"`
}

// OrderProductDTO is the product summary embedded in line items.
type OrderProductDTO struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
}

func toOrderDTO(v order.View) OrderDTO {
	items := make([]OrderLineItemDTO, len(v.Items))
	for i, item := range v.Items {
		items[i] = OrderLineItemDTO{
			ID:        item.LineItem.ID,
			Quantity:  item.LineItem.Quantity,
			UnitPrice: item.LineItem.UnitPrice.InexactFloat64(),
			Subtotal:  item.LineItem.Subtotal().InexactFloat64(),
			Product: OrderProductDTO{
				ID:       item.Product.ID,
				Name:     item.Product.Name,
				Category: item.Product.Category,
				Price:    item.Product.Price.InexactFloat64(),
			},
		}
	}
	return OrderDTO{
		ID:        v.Order.ID,
		CreatedAt: v.Order.CreatedAt,
		Total:     v.Order.Total.InexactFloat64(),
		Status:    string(v.Order.Status),
		Customer: OrderCustomerDTO{
			ID:      v.Customer.ID,
			Name:    v.Customer.Name,
			Email:   v.Customer.Email,
			Phone:   v.Customer.Phone,
			Address: v.Customer.Address,
		},
		Items: items,
	}
}

type createOrderRequest struct {
	CustomerID string                   `json:"customer_id"`
	Items      []createOrderItemRequest `json:"items"`
}

type createOrderItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type updateOrderRequest struct {
	Status string `json:"status"`
}

// CreateOrder runs the order-creation workflow. Failures map to 404
// (unknown customer/product), 409 (insufficient stock or transaction
// conflict), or 400 (bad quantities); success commits atomically and
// returns the composed view.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if req.CustomerID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "customer_id is required")
		return
	}

	items := make([]order.ItemRequest, len(req.Items))
	for i, it := range req.Items {
		items[i] = order.ItemRequest{ProductID: it.ProductID, Quantity: it.Quantity}
	}

	view, err := h.orderService.Create(r.Context(), order.CreateRequest{
		CustomerID: req.CustomerID,
		Items:      items,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderDTO(*view))
}

// ListOrders returns one page of composed order views, newest first.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	p := pageParams(r)
	views, total, err := h.orders.ListViews(r.Context(), p)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	items := make([]OrderDTO, len(views))
	for i, v := range views {
		items[i] = toOrderDTO(v)
	}
	writeJSON(w, http.StatusOK, pagination.NewPage(items, total, p))
}

// GetOrder returns the composed view for one order.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	view, err := h.orders.GetView(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDTO(*view))
}

// UpdateOrder changes the order status. Status is the only mutable
// field after creation; no transition rules are enforced.
func (h *Handler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	var req updateOrderRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	status := order.Status(req.Status)
	if !status.Valid() {
		writeDomainError(w, r, order.ErrInvalidStatus)
		return
	}

	view, err := h.orders.UpdateStatus(r.Context(), chi.URLParam(r, "id"), status)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDTO(*view))
}
