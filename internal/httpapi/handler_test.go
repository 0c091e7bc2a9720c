package httpapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lmeira/sales-api/internal/domain/customer"
	"github.com/lmeira/sales-api/internal/domain/order"
	"github.com/lmeira/sales-api/internal/domain/product"
	"github.com/lmeira/sales-api/internal/domain/reports"
	"github.com/lmeira/sales-api/internal/httpapi"
	"github.com/lmeira/sales-api/pkg/pagination"
)

// fakeCustomers is a map-backed customer.Repository.
type fakeCustomers struct {
	byID map[string]customer.Customer
}

func (f *fakeCustomers) List(_ context.Context, p pagination.Params) ([]customer.Customer, int64, error) {
	out := make([]customer.Customer, 0, len(f.byID))
	for _, c := range f.byID {
		out = append(out, c)
	}
	return out, int64(len(f.byID)), nil
}

func (f *fakeCustomers) GetByID(_ context.Context, id string) (*customer.Customer, error) {
	c, ok := f.byID[id]
	if !ok {
		return nil, customer.ErrNotFound
	}
	return &c, nil
}

func (f *fakeCustomers) Create(_ context.Context, c *customer.Customer) error {
	f.byID[c.ID] = *c
	return nil
}

func (f *fakeCustomers) Update(_ context.Context, id string, p *customer.Patch) (*customer.Customer, error) {
	c, ok := f.byID[id]
	if !ok {
		return nil, customer.ErrNotFound
	}
	p.Apply(&c)
	f.byID[id] = c
	return &c, nil
}

func (f *fakeCustomers) Delete(_ context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return customer.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

// fakeProducts is a map-backed product.Repository.
type fakeProducts struct {
	byID map[string]product.Product
}

func (f *fakeProducts) List(_ context.Context, p pagination.Params) ([]product.Product, int64, error) {
	out := make([]product.Product, 0, len(f.byID))
	for _, prod := range f.byID {
		out = append(out, prod)
	}
	return out, int64(len(f.byID)), nil
}

func (f *fakeProducts) GetByID(_ context.Context, id string) (*product.Product, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return &p, nil
}

func (f *fakeProducts) Create(_ context.Context, p *product.Product) error {
	f.byID[p.ID] = *p
	return nil
}

func (f *fakeProducts) Update(_ context.Context, id string, patch *product.Patch) (*product.Product, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	patch.Apply(&p)
	f.byID[id] = p
	return &p, nil
}

func (f *fakeProducts) Delete(_ context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return product.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeProducts) Count(_ context.Context) (int64, error) {
	return int64(len(f.byID)), nil
}

func (f *fakeProducts) CountByCategory(_ context.Context, category string) (int64, error) {
	var n int64
	for _, p := range f.byID {
		if p.Category == category {
			n++
		}
	}
	return n, nil
}

func (f *fakeProducts) ListPriceAbove(_ context.Context, price decimal.Decimal) ([]product.Product, error) {
	out := []product.Product{}
	for _, p := range f.byID {
		if p.Price.GreaterThanOrEqual(price) {
			out = append(out, p)
		}
	}
	return out, nil
}

// fakeOrders is a map-backed order.Repository.
type fakeOrders struct {
	views map[string]order.View
}

func (f *fakeOrders) ListViews(_ context.Context, p pagination.Params) ([]order.View, int64, error) {
	out := make([]order.View, 0, len(f.views))
	for _, v := range f.views {
		out = append(out, v)
	}
	return out, int64(len(f.views)), nil
}

func (f *fakeOrders) GetView(_ context.Context, id string) (*order.View, error) {
	v, ok := f.views[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return &v, nil
}

func (f *fakeOrders) UpdateStatus(_ context.Context, id string, status order.Status) (*order.View, error) {
	v, ok := f.views[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	v.Order.Status = status
	f.views[id] = v
	return &v, nil
}

// fakeOrderStore backs the creation workflow; writes land immediately
// since handler tests only exercise the success and validation paths.
type fakeOrderStore struct {
	customers *fakeCustomers
	products  *fakeProducts
	orders    *fakeOrders
}

func (s *fakeOrderStore) GetCustomer(ctx context.Context, id string) (*customer.Customer, error) {
	return s.customers.GetByID(ctx, id)
}

func (s *fakeOrderStore) InTx(_ context.Context, fn func(tx order.Tx) error) error {
	return fn(s)
}

func (s *fakeOrderStore) InsertOrder(_ context.Context, o *order.Order) error { return nil }

func (s *fakeOrderStore) GetProduct(ctx context.Context, id string) (*product.Product, error) {
	return s.products.GetByID(ctx, id)
}

func (s *fakeOrderStore) InsertLineItem(_ context.Context, li *order.LineItem) error { return nil }

func (s *fakeOrderStore) UpdateProductStock(_ context.Context, id string, stock int) error {
	p := s.products.byID[id]
	p.Stock = stock
	s.products.byID[id] = p
	return nil
}

func (s *fakeOrderStore) SetOrderTotal(_ context.Context, id string, total decimal.Decimal) error {
	return nil
}

// fakeReports returns canned aggregates.
type fakeReports struct {
	summary *reports.CustomerSummary
}

func (f *fakeReports) CustomerSummary(_ context.Context, customerID string) (*reports.CustomerSummary, error) {
	if f.summary == nil || f.summary.CustomerID != customerID {
		return nil, customer.ErrNotFound
	}
	return f.summary, nil
}

func (f *fakeReports) BestSellers(_ context.Context, _ reports.BestSellersFilter) ([]reports.BestSeller, error) {
	return []reports.BestSeller{}, nil
}

func (f *fakeReports) DailySales(_ context.Context, _ reports.DateRange) ([]reports.DailySales, error) {
	return []reports.DailySales{}, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *fakeCustomers, *fakeProducts, *fakeOrders) {
	t.Helper()

	customers := &fakeCustomers{byID: map[string]customer.Customer{}}
	products := &fakeProducts{byID: map[string]product.Product{}}
	orders := &fakeOrders{views: map[string]order.View{}}
	store := &fakeOrderStore{customers: customers, products: products, orders: orders}

	h := httpapi.NewHandler(customers, products, orders, order.NewService(store), &fakeReports{})
	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)
	return srv, customers, products, orders
}

func doJSON(t *testing.T, method, url, body string) (*http.Response, map[string]any) {
	t.Helper()

	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var decoded map[string]any
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	}
	return resp, decoded
}

func TestCustomerEndpoints(t *testing.T) {
	srv, _, _, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/customers",
		`{"name":"Ana Lima","email":"ana@example.com","city":"Recife"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := body["id"].(string)
	assert.NotEmpty(t, id)
	assert.Equal(t, "Ana Lima", body["name"])

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/customers/"+id, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ana@example.com", body["email"])

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/customers?page=1&size=5", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, body["total"])
	assert.EqualValues(t, 1, body["pages"])
	assert.EqualValues(t, 5, body["size"])

	// Tri-state patch: set one field, null another untouched one is
	// rejected, absent fields stay put.
	resp, body = doJSON(t, http.MethodPatch, srv.URL+"/customers/"+id,
		`{"phone":"555-0101"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "555-0101", body["phone"])
	assert.Equal(t, "Recife", body["city"])

	resp, _ = doJSON(t, http.MethodPatch, srv.URL+"/customers/"+id, `{"name":null}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/customers/"+id, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/customers/"+id, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "customer_not_found", body["error"])
}

func TestCreateCustomerValidation(t *testing.T) {
	srv, _, _, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/customers", `{"email":"x@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_customer", body["error"])

	resp, body = doJSON(t, http.MethodPost, srv.URL+"/customers", `{"name":"A","email":"a@b.c","bogus":1}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_json", body["error"])
}

func TestProductEndpoints(t *testing.T) {
	srv, _, products, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/products",
		`{"name":"Keyboard","category":"peripherals","price":49.90,"stock":12}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := body["id"].(string)
	assert.InDelta(t, 49.90, body["price"], 0.001)

	_, _ = doJSON(t, http.MethodPost, srv.URL+"/products",
		`{"name":"Monitor","category":"displays","price":250.50,"stock":3}`)

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/products/count", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 2, body["count"])

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/products/count?category=displays", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, body["count"])

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/products/price-above/abc", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/products/price-above/100", nil)
	require.NoError(t, err)
	rawResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer rawResp.Body.Close()
	var list []map[string]any
	require.NoError(t, json.NewDecoder(rawResp.Body).Decode(&list))
	require.Len(t, list, 1)
	assert.Equal(t, "Monitor", list[0]["name"])

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/products/"+id+"/availability?quantity=5", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["available"])
	assert.EqualValues(t, 12, body["stock"])

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/products/"+id+"/availability?quantity=0", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = doJSON(t, http.MethodPatch, srv.URL+"/products/"+id, `{"stock":20,"price":55.00}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 20, body["stock"])
	assert.InDelta(t, 55.00, body["price"], 0.001)
	assert.Equal(t, "Keyboard", body["name"])

	require.Equal(t, 20, products.byID[id].Stock)
}

func TestOrderEndpoints(t *testing.T) {
	srv, customers, products, orders := newTestServer(t)

	customers.byID["c1"] = customer.Customer{ID: "c1", Name: "Ana Lima", Email: "ana@example.com"}
	products.byID["p1"] = product.Product{
		ID: "p1", Name: "Keyboard", Category: "peripherals",
		Price: decimal.RequireFromString("10.00"), Stock: 5,
	}

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/orders",
		`{"customer_id":"c1","items":[{"product_id":"p1","quantity":2}]}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Pending", body["status"])
	assert.InDelta(t, 20.0, body["total"], 0.001)
	items := body["items"].([]any)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.InDelta(t, 20.0, item["subtotal"], 0.001)
	assert.Equal(t, "c1", body["customer"].(map[string]any)["id"])
	assert.Equal(t, 3, products.byID["p1"].Stock)

	orderID := body["id"].(string)
	// List/Get/Patch go through the repository, seed the view there.
	orders.views[orderID] = order.View{
		Order: order.Order{
			ID: orderID, CustomerID: "c1", Status: order.StatusPending,
			Total: decimal.RequireFromString("20.00"), CreatedAt: time.Now().UTC(),
		},
		Customer: customers.byID["c1"],
		Items:    []order.ItemView{},
	}

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/orders/"+orderID, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, orderID, body["id"])

	resp, body = doJSON(t, http.MethodPatch, srv.URL+"/orders/"+orderID, `{"status":"Paid"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Paid", body["status"])

	resp, body = doJSON(t, http.MethodPatch, srv.URL+"/orders/"+orderID, `{"status":"Teleported"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_status", body["error"])
}

func TestCreateOrderFailures(t *testing.T) {
	srv, customers, products, _ := newTestServer(t)

	customers.byID["c1"] = customer.Customer{ID: "c1", Name: "Ana Lima", Email: "ana@example.com"}
	products.byID["p1"] = product.Product{
		ID: "p1", Name: "Keyboard", Category: "peripherals",
		Price: decimal.RequireFromString("10.00"), Stock: 1,
	}

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/orders",
		`{"customer_id":"ghost","items":[]}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "customer_not_found", body["error"])
	assert.Equal(t, "ghost", body["details"].(map[string]any)["customer_id"])

	resp, body = doJSON(t, http.MethodPost, srv.URL+"/orders",
		`{"customer_id":"c1","items":[{"product_id":"nope","quantity":1}]}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "product_not_found", body["error"])

	resp, body = doJSON(t, http.MethodPost, srv.URL+"/orders",
		`{"customer_id":"c1","items":[{"product_id":"p1","quantity":3}]}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "insufficient_stock", body["error"])
	details := body["details"].(map[string]any)
	assert.EqualValues(t, 1, details["available"])
	assert.EqualValues(t, 3, details["requested"])

	resp, body = doJSON(t, http.MethodPost, srv.URL+"/orders",
		`{"customer_id":"c1","items":[{"product_id":"p1","quantity":0}]}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_quantity", body["error"])

	resp, body = doJSON(t, http.MethodPost, srv.URL+"/orders", `{"items":[]}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_request", body["error"])
}

func TestZeroItemOrder(t *testing.T) {
	srv, customers, _, _ := newTestServer(t)
	customers.byID["c1"] = customer.Customer{ID: "c1", Name: "Ana Lima", Email: "ana@example.com"}

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/orders",
		`{"customer_id":"c1","items":[]}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.InDelta(t, 0.0, body["total"], 0.001)
	assert.Equal(t, []any{}, body["items"])
}

func TestReportEndpoints(t *testing.T) {
	srv, _, _, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/orders/reports/products/best-sellers", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []any{}, body["products"])

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/orders/reports/products/best-sellers?limit=0", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/orders/reports/sales/daily?from=31-12-2025", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/orders/reports/sales/daily?from=2025-01-01&to=2025-01-31", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []any{}, body["days"])
}

func TestRootBanner(t *testing.T) {
	srv, _, _, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "sales-api", body["service"])
}
