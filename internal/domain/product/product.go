package product

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/lmeira/sales-api/pkg/pagination"
	"github.com/lmeira/sales-api/pkg/patch"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// ErrReferenced is returned when deleting a product that appears on
// existing order line items.
var ErrReferenced = errors.New("product is referenced by existing orders")

// Product represents a catalog item available for sale. Stock is the
// only field mutated by the order-creation workflow; everything else
// changes through regular CRUD.
type Product struct {
	ID       string
	Name     string
	Category string
	Price    decimal.Decimal
	Stock    int
}

// Validate checks the structural constraints: non-empty name, price and
// stock non-negative.
func (p *Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("name is required")
	}
	if p.Price.IsNegative() {
		return errors.New("price cannot be negative")
	}
	if p.Stock < 0 {
		return errors.New("stock cannot be negative")
	}
	return nil
}

// Availability reports whether the requested quantity can currently be
// fulfilled from stock.
type Availability struct {
	ProductID string
	Stock     int
	Requested int
	Available bool
}

// CheckAvailability builds the availability view for a requested
// quantity against the product's current stock.
func (p *Product) CheckAvailability(quantity int) Availability {
	return Availability{
		ProductID: p.ID,
		Stock:     p.Stock,
		Requested: quantity,
		Available: p.Stock >= quantity,
	}
}

// Patch is a tri-state partial update for a product. No field is
// nullable; set fields must satisfy the same constraints as creation.
type Patch struct {
	Name     patch.Field[string]
	Category patch.Field[string]
	Price    patch.Field[decimal.Decimal]
	Stock    patch.Field[int]
}

// Validate rejects explicit nulls, empty patches, and values that would
// break the structural invariants.
func (p *Patch) Validate() error {
	if p.Name.IsNull() || p.Category.IsNull() || p.Price.IsNull() || p.Stock.IsNull() {
		return errors.New("product fields cannot be null")
	}
	if !p.Name.IsSet() && !p.Category.IsSet() && !p.Price.IsSet() && !p.Stock.IsSet() {
		return errors.New("patch contains no fields")
	}
	if v, ok := p.Name.Get(); ok && strings.TrimSpace(v) == "" {
		return errors.New("name cannot be empty")
	}
	if v, ok := p.Price.Get(); ok && v.IsNegative() {
		return errors.New("price cannot be negative")
	}
	if v, ok := p.Stock.Get(); ok && v < 0 {
		return errors.New("stock cannot be negative")
	}
	return nil
}

// Apply writes the set fields onto prod, leaving the rest untouched.
func (p *Patch) Apply(prod *Product) {
	prod.Name = p.Name.Or(prod.Name)
	prod.Category = p.Category.Or(prod.Category)
	prod.Price = p.Price.Or(prod.Price)
	prod.Stock = p.Stock.Or(prod.Stock)
}

// Repository defines persistence operations for the product catalog.
type Repository interface {
	List(ctx context.Context, p pagination.Params) ([]Product, int64, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	Create(ctx context.Context, prod *Product) error
	Update(ctx context.Context, id string, p *Patch) (*Product, error)
	Delete(ctx context.Context, id string) error

	Count(ctx context.Context) (int64, error)
	CountByCategory(ctx context.Context, category string) (int64, error)
	ListPriceAbove(ctx context.Context, price decimal.Decimal) ([]Product, error)
}
