package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/lmeira/sales-api/internal/domain/product"
	"github.com/lmeira/sales-api/pkg/pagination"
)

const (
	productColumns = `id, name, category, price, stock`

	listProductsSQL = `SELECT ` + productColumns + `
		FROM products ORDER BY created_at, id LIMIT $1 OFFSET $2`

	countProductsSQL = `SELECT count(*) FROM products`

	countProductsByCategorySQL = `SELECT count(*) FROM products WHERE category = $1`

	getProductSQL = `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	insertProductSQL = `INSERT INTO products (id, name, category, price, stock)
		VALUES ($1, $2, $3, $4, $5)`

	deleteProductSQL = `DELETE FROM products WHERE id = $1`

	listProductsPriceAboveSQL = `SELECT ` + productColumns + `
		FROM products WHERE price >= $1 ORDER BY price, id`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns one page of products plus the total count.
func (r *ProductRepository) List(ctx context.Context, p pagination.Params) ([]product.Product, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, countProductsSQL).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting products: %w", err)
	}

	rows, err := r.pool.Query(ctx, listProductsSQL, p.Size, p.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("listing products: %w", err)
	}
	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, 0, fmt.Errorf("listing products: %w", err)
	}
	return products, total, nil
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}
	return &p, nil
}

// Create persists a new product.
func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	_, err := r.pool.Exec(ctx, insertProductSQL, p.ID, p.Name, p.Category, p.Price, p.Stock)
	if err != nil {
		return fmt.Errorf("creating product %q: %w", p.ID, err)
	}
	return nil
}

// Update applies the set fields of the patch and returns the updated row.
func (r *ProductRepository) Update(ctx context.Context, id string, p *product.Patch) (*product.Product, error) {
	var (
		set  []string
		args []any
	)
	add := func(column string, v any) {
		args = append(args, v)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if v, ok := p.Name.Get(); ok {
		add("name", v)
	}
	if v, ok := p.Category.Get(); ok {
		add("category", v)
	}
	if v, ok := p.Price.Get(); ok {
		add("price", v)
	}
	if v, ok := p.Stock.Get(); ok {
		add("stock", v)
	}
	args = append(args, id)

	sql := fmt.Sprintf(`UPDATE products SET %s WHERE id = $%d RETURNING `+productColumns,
		strings.Join(set, ", "), len(args))

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("updating product %q: %w", id, err)
	}

	updated, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("updating product %q: %w", id, err)
	}
	return &updated, nil
}

// Delete removes a product. Products referenced by order line items are
// kept and product.ErrReferenced is returned instead.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteProductSQL, id)
	if err != nil {
		if pgErrCode(err) == pgForeignKeyViolation {
			return product.ErrReferenced
		}
		return fmt.Errorf("deleting product %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

// Count returns the total number of products.
func (r *ProductRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, countProductsSQL).Scan(&total); err != nil {
		return 0, fmt.Errorf("counting products: %w", err)
	}
	return total, nil
}

// CountByCategory returns the number of products in the given category.
func (r *ProductRepository) CountByCategory(ctx context.Context, category string) (int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, countProductsByCategorySQL, category).Scan(&total); err != nil {
		return 0, fmt.Errorf("counting products in category %q: %w", category, err)
	}
	return total, nil
}

// ListPriceAbove returns every product priced at or above the threshold.
func (r *ProductRepository) ListPriceAbove(ctx context.Context, price decimal.Decimal) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsPriceAboveSQL, price)
	if err != nil {
		return nil, fmt.Errorf("listing products by price: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var p product.Product
	err := row.Scan(&p.ID, &p.Name, &p.Category, &p.Price, &p.Stock)
	return p, err
}
