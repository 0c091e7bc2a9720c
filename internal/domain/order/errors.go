package order

import (
	"fmt"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a requested order does not exist.
var ErrNotFound = errors.New("order not found")

// ErrConflict indicates the store rejected the commit because of a
// concurrent modification. The request can be retried as-is.
var ErrConflict = errors.New("transaction conflict, request may be retried")

// ErrInvalidStatus is returned when a status update names an unknown
// status value.
var ErrInvalidStatus = errors.New("invalid order status")

// CustomerNotFoundError indicates the requested customer does not
// exist. Reported before any write happens.
type CustomerNotFoundError struct {
	CustomerID string
}

func (e *CustomerNotFoundError) Error() string {
	return fmt.Sprintf("customer %s not found", e.CustomerID)
}

// ProductNotFoundError indicates a requested product does not exist.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// InvalidQuantityError indicates a requested line item has a
// non-positive quantity.
type InvalidQuantityError struct {
	ProductID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %s", e.ProductID)
}

// InsufficientStockError indicates the requested quantity exceeds the
// product's available stock at transaction time.
type InsufficientStockError struct {
	ProductID string
	Name      string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s (%s): available %d, requested %d",
		e.ProductID, e.Name, e.Available, e.Requested)
}
