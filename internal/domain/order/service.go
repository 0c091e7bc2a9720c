package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lmeira/sales-api/internal/domain/customer"
	"github.com/lmeira/sales-api/internal/domain/product"
)

// Service implements the order-creation workflow: it validates the
// request against live data and persists the order, its line items, and
// the stock decrements as one atomic unit. Any failure leaves the store
// exactly as it was.
type Service struct {
	store Store
}

// NewService creates the workflow service over the given transactional
// store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Create runs the workflow.
//
// The customer is resolved first, before any write. Everything else
// happens inside a single transaction: the order shell is inserted with
// status Pending and total 0, then each requested item is processed in
// input order: the product is re-read inside the transaction (so the
// run observes its own earlier decrements and concurrent committers
// conflict), the quantity is checked against stock, a line item
// snapshots the current price, and stock is decremented. The
// accumulated total is written onto the order before commit.
//
// An empty item list commits an order with total 0 and no line items.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*View, error) {
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, &InvalidQuantityError{ProductID: item.ProductID}
		}
	}

	cust, err := s.store.GetCustomer(ctx, req.CustomerID)
	if err != nil {
		if errors.Is(err, customer.ErrNotFound) {
			return nil, &CustomerNotFoundError{CustomerID: req.CustomerID}
		}
		return nil, errors.Wrap(err, "get customer")
	}

	o := &Order{
		ID:         uuid.New().String(),
		CustomerID: cust.ID,
		Status:     StatusPending,
		Total:      decimal.Zero,
		CreatedAt:  time.Now().UTC(),
	}

	items := make([]ItemView, 0, len(req.Items))

	err = s.store.InTx(ctx, func(tx Tx) error {
		if err := tx.InsertOrder(ctx, o); err != nil {
			return errors.Wrap(err, "insert order")
		}

		total := decimal.Zero
		for _, item := range req.Items {
			p, err := tx.GetProduct(ctx, item.ProductID)
			if err != nil {
				if errors.Is(err, product.ErrNotFound) {
					return &ProductNotFoundError{ProductID: item.ProductID}
				}
				return errors.Wrapf(err, "get product %s", item.ProductID)
			}

			if p.Stock < item.Quantity {
				return &InsufficientStockError{
					ProductID: p.ID,
					Name:      p.Name,
					Available: p.Stock,
					Requested: item.Quantity,
				}
			}

			li := &LineItem{
				ID:        uuid.New().String(),
				OrderID:   o.ID,
				ProductID: p.ID,
				Quantity:  item.Quantity,
				UnitPrice: p.Price,
			}
			if err := tx.InsertLineItem(ctx, li); err != nil {
				return errors.Wrapf(err, "insert line item for product %s", p.ID)
			}

			if err := tx.UpdateProductStock(ctx, p.ID, p.Stock-item.Quantity); err != nil {
				return errors.Wrapf(err, "update stock for product %s", p.ID)
			}

			total = total.Add(li.Subtotal())

			snapshot := *p
			snapshot.Stock -= item.Quantity
			items = append(items, ItemView{LineItem: *li, Product: snapshot})
		}

		if err := tx.SetOrderTotal(ctx, o.ID, total); err != nil {
			return errors.Wrap(err, "set order total")
		}
		o.Total = total
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &View{
		Order:    *o,
		Customer: *cust,
		Items:    items,
	}, nil
}
