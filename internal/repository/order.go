package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/lmeira/sales-api/internal/domain/customer"
	"github.com/lmeira/sales-api/internal/domain/order"
	"github.com/lmeira/sales-api/internal/domain/product"
	"github.com/lmeira/sales-api/pkg/pagination"
)

const (
	insertOrderSQL = `INSERT INTO orders (id, customer_id, status, total, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	// FOR UPDATE locks the row until commit or abort, so two concurrent
	// workflows targeting the same product serialize on the stock read.
	getProductForUpdateSQL = `SELECT ` + productColumns + ` FROM products WHERE id = $1 FOR UPDATE`

	insertLineItemSQL = `INSERT INTO order_items (id, order_id, product_id, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5)`

	updateProductStockSQL = `UPDATE products SET stock = $2 WHERE id = $1`

	setOrderTotalSQL = `UPDATE orders SET total = $2 WHERE id = $1`

	countOrdersSQL = `SELECT count(*) FROM orders`

	listOrderViewsSQL = `SELECT o.id, o.customer_id, o.status, o.total, o.created_at, ` + prefixedCustomerColumns + `
		FROM orders o JOIN customers c ON c.id = o.customer_id
		ORDER BY o.created_at DESC, o.id LIMIT $1 OFFSET $2`

	getOrderViewSQL = `SELECT o.id, o.customer_id, o.status, o.total, o.created_at, ` + prefixedCustomerColumns + `
		FROM orders o JOIN customers c ON c.id = o.customer_id
		WHERE o.id = $1`

	listItemViewsSQL = `SELECT li.id, li.order_id, li.product_id, li.quantity, li.unit_price,
			p.id, p.name, p.category, p.price, p.stock
		FROM order_items li JOIN products p ON p.id = li.product_id
		WHERE li.order_id = ANY($1)
		ORDER BY li.id`

	updateOrderStatusSQL = `UPDATE orders SET status = $2 WHERE id = $1`
)

const prefixedCustomerColumns = `c.id, c.name, c.birth_date, c.email, c.phone, c.address, c.city, c.state, c.zip_code`

var (
	_ order.Store      = (*OrderStore)(nil)
	_ order.Repository = (*OrderRepository)(nil)
)

// OrderStore implements the transactional order.Store capability on a
// pgx pool.
type OrderStore struct {
	pool *pgxpool.Pool
}

// NewOrderStore returns an OrderStore that uses the given pool.
func NewOrderStore(pool *pgxpool.Pool) *OrderStore {
	return &OrderStore{pool: pool}
}

// GetCustomer resolves a customer outside any transaction.
func (s *OrderStore) GetCustomer(ctx context.Context, id string) (*customer.Customer, error) {
	return NewCustomerRepository(s.pool).GetByID(ctx, id)
}

// InTx runs fn inside a repeatable-read transaction. A nil return
// commits; any error rolls back. Serialization and deadlock failures
// surface as order.ErrConflict so callers can retry.
func (s *OrderStore) InTx(ctx context.Context, fn func(tx order.Tx) error) error {
	pgtx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	// Rollback is a no-op once the transaction has committed.
	defer func() { _ = pgtx.Rollback(ctx) }()

	if err := fn(&orderTx{tx: pgtx}); err != nil {
		return mapConflict(err)
	}

	if err := pgtx.Commit(ctx); err != nil {
		return mapConflict(fmt.Errorf("committing transaction: %w", err))
	}
	return nil
}

// mapConflict translates store-level concurrency failures into the
// retriable domain error; everything else passes through.
func mapConflict(err error) error {
	switch pgErrCode(err) {
	case pgSerializationFail, pgDeadlockDetected:
		return errors.Wrap(order.ErrConflict, err.Error())
	}
	return err
}

// orderTx is the order.Tx implementation bound to one pgx transaction.
type orderTx struct {
	tx pgx.Tx
}

func (t *orderTx) InsertOrder(ctx context.Context, o *order.Order) error {
	_, err := t.tx.Exec(ctx, insertOrderSQL, o.ID, o.CustomerID, string(o.Status), o.Total, o.CreatedAt)
	return err
}

func (t *orderTx) GetProduct(ctx context.Context, id string) (*product.Product, error) {
	rows, err := t.tx.Query(ctx, getProductForUpdateSQL, id)
	if err != nil {
		return nil, err
	}
	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (t *orderTx) InsertLineItem(ctx context.Context, li *order.LineItem) error {
	_, err := t.tx.Exec(ctx, insertLineItemSQL, li.ID, li.OrderID, li.ProductID, li.Quantity, li.UnitPrice)
	return err
}

func (t *orderTx) UpdateProductStock(ctx context.Context, id string, stock int) error {
	_, err := t.tx.Exec(ctx, updateProductStockSQL, id, stock)
	return err
}

func (t *orderTx) SetOrderTotal(ctx context.Context, id string, total decimal.Decimal) error {
	_, err := t.tx.Exec(ctx, setOrderTotalSQL, id, total)
	return err
}

// OrderRepository implements the read and status-update side of the
// order ledger.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// ListViews returns one page of composed order views, newest first,
// plus the total order count.
func (r *OrderRepository) ListViews(ctx context.Context, p pagination.Params) ([]order.View, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, countOrdersSQL).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting orders: %w", err)
	}

	rows, err := r.pool.Query(ctx, listOrderViewsSQL, p.Size, p.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("listing orders: %w", err)
	}
	views, err := pgx.CollectRows(rows, scanOrderView)
	if err != nil {
		return nil, 0, fmt.Errorf("listing orders: %w", err)
	}

	if err := r.attachItems(ctx, views); err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

// GetView returns the composed view for a single order.
func (r *OrderRepository) GetView(ctx context.Context, id string) (*order.View, error) {
	rows, err := r.pool.Query(ctx, getOrderViewSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	v, err := pgx.CollectExactlyOneRow(rows, scanOrderView)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	views := []order.View{v}
	if err := r.attachItems(ctx, views); err != nil {
		return nil, err
	}
	return &views[0], nil
}

// UpdateStatus sets the order status and returns the refreshed view.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status order.Status) (*order.View, error) {
	tag, err := r.pool.Exec(ctx, updateOrderStatusSQL, id, string(status))
	if err != nil {
		return nil, fmt.Errorf("updating order %q status: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, order.ErrNotFound
	}
	return r.GetView(ctx, id)
}

// attachItems loads the line items (with their products) for every view
// in one query and distributes them.
func (r *OrderRepository) attachItems(ctx context.Context, views []order.View) error {
	if len(views) == 0 {
		return nil
	}

	ids := make([]string, len(views))
	byID := make(map[string]*order.View, len(views))
	for i := range views {
		ids[i] = views[i].Order.ID
		byID[views[i].Order.ID] = &views[i]
		views[i].Items = []order.ItemView{}
	}

	rows, err := r.pool.Query(ctx, listItemViewsSQL, ids)
	if err != nil {
		return fmt.Errorf("listing order items: %w", err)
	}
	items, err := pgx.CollectRows(rows, scanItemView)
	if err != nil {
		return fmt.Errorf("listing order items: %w", err)
	}

	for _, item := range items {
		if v, ok := byID[item.LineItem.OrderID]; ok {
			v.Items = append(v.Items, item)
		}
	}
	return nil
}

func scanOrderView(row pgx.CollectableRow) (order.View, error) {
	var (
		v      order.View
		status string
	)
	err := row.Scan(
		&v.Order.ID, &v.Order.CustomerID, &status, &v.Order.Total, &v.Order.CreatedAt,
		&v.Customer.ID, &v.Customer.Name, &v.Customer.BirthDate, &v.Customer.Email,
		&v.Customer.Phone, &v.Customer.Address, &v.Customer.City, &v.Customer.State,
		&v.Customer.ZipCode,
	)
	v.Order.Status = order.Status(status)
	return v, err
}

func scanItemView(row pgx.CollectableRow) (order.ItemView, error) {
	var iv order.ItemView
	err := row.Scan(
		&iv.LineItem.ID, &iv.LineItem.OrderID, &iv.LineItem.ProductID,
		&iv.LineItem.Quantity, &iv.LineItem.UnitPrice,
		&iv.Product.ID, &iv.Product.Name, &iv.Product.Category,
		&iv.Product.Price, &iv.Product.Stock,
	)
	return iv, err
}
