package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lmeira/sales-api/internal/domain/customer"
	"github.com/lmeira/sales-api/pkg/pagination"
	"github.com/lmeira/sales-api/pkg/patch"
)

// CustomerDTO is the wire representation of a customer.
type CustomerDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	BirthDate string `json:"birth_date"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zip_code"`
}

func toCustomerDTO(c customer.Customer) CustomerDTO {
	return CustomerDTO{
		ID:        c.ID,
		Name:      c.Name,
		BirthDate: c.BirthDate,
		Email:     c.Email,
		Phone:     c.Phone,
		Address:   c.Address,
		City:      c.City,
		State:     c.State,
		ZipCode:   c.ZipCode,
	}
}

type createCustomerRequest struct {
	Name      string `json:"name"`
	BirthDate string `json:"birth_date"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zip_code"`
}

type patchCustomerRequest struct {
	Name      patch.Field[string] `json:"name"`
	BirthDate patch.Field[string] `json:"birth_date"`
	Email     patch.Field[string] `json:"email"`
	Phone     patch.Field[string] `json:"phone"`
	Address   patch.Field[string] `json:"address"`
	City      patch.Field[string] `json:"city"`
	State     patch.Field[string] `json:"state"`
	ZipCode   patch.Field[string] `json:"zip_code"`
}

// ListCustomers returns one page of customers.
func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	p := pageParams(r)
	customers, total, err := h.customers.List(r.Context(), p)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	items := make([]CustomerDTO, len(customers))
	for i, c := range customers {
		items[i] = toCustomerDTO(c)
	}
	writeJSON(w, http.StatusOK, pagination.NewPage(items, total, p))
}

// CreateCustomer registers a new customer.
func (h *Handler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req createCustomerRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	c := customer.Customer{
		ID:        uuid.New().String(),
		Name:      req.Name,
		BirthDate: req.BirthDate,
		Email:     req.Email,
		Phone:     req.Phone,
		Address:   req.Address,
		City:      req.City,
		State:     req.State,
		ZipCode:   req.ZipCode,
	}
	if err := c.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_customer", err.Error())
		return
	}

	if err := h.customers.Create(r.Context(), &c); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCustomerDTO(c))
}

// GetCustomer returns a single customer.
func (h *Handler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	c, err := h.customers.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCustomerDTO(*c))
}

// PatchCustomer applies a tri-state partial update.
func (h *Handler) PatchCustomer(w http.ResponseWriter, r *http.Request) {
	var req patchCustomerRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	p := customer.Patch{
		Name:      req.Name,
		BirthDate: req.BirthDate,
		Email:     req.Email,
		Phone:     req.Phone,
		Address:   req.Address,
		City:      req.City,
		State:     req.State,
		ZipCode:   req.ZipCode,
	}
	if err := p.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_patch", err.Error())
		return
	}

	c, err := h.customers.Update(r.Context(), chi.URLParam(r, "id"), &p)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCustomerDTO(*c))
}

// DeleteCustomer removes a customer unless orders reference it.
func (h *Handler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	if err := h.customers.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
