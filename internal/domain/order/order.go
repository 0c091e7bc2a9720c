package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lmeira/sales-api/internal/domain/customer"
	"github.com/lmeira/sales-api/internal/domain/product"
	"github.com/lmeira/sales-api/pkg/pagination"
)

// Status enumerates the order lifecycle states. No transition rules are
// enforced; any valid status can be set after creation.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusProcessing Status = "Processing"
	StatusPaid       Status = "Paid"
	StatusShipped    Status = "Shipped"
	StatusDelivered  Status = "Delivered"
	StatusCancelled  Status = "Cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusPaid,
		StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Order is the persisted order record. Total is derived by the creation
// workflow and never settable by callers.
type Order struct {
	ID         string
	CustomerID string
	Status     Status
	Total      decimal.Decimal
	CreatedAt  time.Time
}

// LineItem is one product-quantity entry within an order. UnitPrice is
// the product's price captured at creation time; later catalog price
// changes do not touch it.
type LineItem struct {
	ID        string
	OrderID   string
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
}

// Subtotal returns quantity x unit price.
func (li LineItem) Subtotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// View is the composed order representation returned by the API: order
// fields plus the resolved customer and per-item product summaries.
type View struct {
	Order    Order
	Customer customer.Customer
	Items    []ItemView
}

// ItemView pairs a line item with its resolved product.
type ItemView struct {
	LineItem LineItem
	Product  product.Product
}

// CreateRequest is the workflow input: one customer and an ordered list
// of product-quantity pairs. An empty item list is permitted and yields
// a zero-total order.
type CreateRequest struct {
	CustomerID string
	Items      []ItemRequest
}

// ItemRequest is one requested product-quantity pair.
type ItemRequest struct {
	ProductID string
	Quantity  int
}

// Repository defines the read and status-update side of the order
// ledger. Creation goes exclusively through the workflow Service and
// its Store.
type Repository interface {
	ListViews(ctx context.Context, p pagination.Params) ([]View, int64, error)
	GetView(ctx context.Context, id string) (*View, error)
	UpdateStatus(ctx context.Context, id string, status Status) (*View, error)
}

// Store is the transactional capability the creation workflow runs
// against. It is injected per Service rather than held as a process
// singleton so tests can substitute an in-memory implementation.
type Store interface {
	// GetCustomer resolves the customer outside the transaction (step 1,
	// fail fast). Returns customer.ErrNotFound when absent.
	GetCustomer(ctx context.Context, id string) (*customer.Customer, error)

	// InTx runs fn inside one atomic unit of work. A nil return commits;
	// any error aborts, discarding every write made through tx. Commit
	// failures caused by concurrent modification are reported as
	// ErrConflict.
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the write surface available inside the atomic unit. Reads made
// through it observe writes from the same unit.
type Tx interface {
	// InsertOrder persists the order shell (status Pending, total 0).
	InsertOrder(ctx context.Context, o *Order) error

	// GetProduct resolves a product inside the transaction, locking it
	// against concurrent stock updates until commit or abort. Returns
	// product.ErrNotFound when absent.
	GetProduct(ctx context.Context, id string) (*product.Product, error)

	// InsertLineItem persists one line item with its price snapshot.
	InsertLineItem(ctx context.Context, li *LineItem) error

	// UpdateProductStock sets a product's stock to the given value.
	UpdateProductStock(ctx context.Context, id string, stock int) error

	// SetOrderTotal writes the accumulated total onto the order.
	SetOrderTotal(ctx context.Context, id string, total decimal.Decimal) error
}
