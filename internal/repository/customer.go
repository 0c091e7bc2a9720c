package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lmeira/sales-api/internal/domain/customer"
	"github.com/lmeira/sales-api/pkg/pagination"
)

const (
	customerColumns = `id, name, birth_date, email, phone, address, city, state, zip_code`

	listCustomersSQL = `SELECT ` + customerColumns + `
		FROM customers ORDER BY created_at, id LIMIT $1 OFFSET $2`

	countCustomersSQL = `SELECT count(*) FROM customers`

	getCustomerSQL = `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`

	insertCustomerSQL = `INSERT INTO customers (id, name, birth_date, email, phone, address, city, state, zip_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	deleteCustomerSQL = `DELETE FROM customers WHERE id = $1`
)

var _ customer.Repository = (*CustomerRepository)(nil)

// CustomerRepository implements customer.Repository backed by PostgreSQL.
type CustomerRepository struct {
	pool *pgxpool.Pool
}

// NewCustomerRepository returns a CustomerRepository that uses the given pool.
func NewCustomerRepository(pool *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{pool: pool}
}

// List returns one page of customers plus the total count.
func (r *CustomerRepository) List(ctx context.Context, p pagination.Params) ([]customer.Customer, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, countCustomersSQL).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting customers: %w", err)
	}

	rows, err := r.pool.Query(ctx, listCustomersSQL, p.Size, p.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("listing customers: %w", err)
	}
	customers, err := pgx.CollectRows(rows, scanCustomer)
	if err != nil {
		return nil, 0, fmt.Errorf("listing customers: %w", err)
	}
	return customers, total, nil
}

// GetByID returns a single customer by its identifier.
func (r *CustomerRepository) GetByID(ctx context.Context, id string) (*customer.Customer, error) {
	rows, err := r.pool.Query(ctx, getCustomerSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting customer %q: %w", id, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCustomer)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, customer.ErrNotFound
		}
		return nil, fmt.Errorf("getting customer %q: %w", id, err)
	}
	return &c, nil
}

// Create persists a new customer.
func (r *CustomerRepository) Create(ctx context.Context, c *customer.Customer) error {
	_, err := r.pool.Exec(ctx, insertCustomerSQL,
		c.ID, c.Name, c.BirthDate, c.Email, c.Phone, c.Address, c.City, c.State, c.ZipCode,
	)
	if err != nil {
		return fmt.Errorf("creating customer %q: %w", c.ID, err)
	}
	return nil
}

// Update applies the set fields of the patch and returns the updated row.
func (r *CustomerRepository) Update(ctx context.Context, id string, p *customer.Patch) (*customer.Customer, error) {
	set, args := customerPatchClauses(p)
	args = append(args, id)

	sql := fmt.Sprintf(`UPDATE customers SET %s WHERE id = $%d RETURNING `+customerColumns,
		strings.Join(set, ", "), len(args))

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("updating customer %q: %w", id, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCustomer)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, customer.ErrNotFound
		}
		return nil, fmt.Errorf("updating customer %q: %w", id, err)
	}
	return &c, nil
}

// Delete removes a customer. Customers referenced by orders are kept and
// customer.ErrReferenced is returned instead.
func (r *CustomerRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteCustomerSQL, id)
	if err != nil {
		if pgErrCode(err) == pgForeignKeyViolation {
			return customer.ErrReferenced
		}
		return fmt.Errorf("deleting customer %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return customer.ErrNotFound
	}
	return nil
}

// customerPatchClauses builds SET clauses for the fields the patch sets.
// Patch validation guarantees at least one field is present.
func customerPatchClauses(p *customer.Patch) ([]string, []any) {
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
	if v, ok := p.BirthDate.Get(); ok {
		add("birth_date", v)
	}
	if v, ok := p.Email.Get(); ok {
		add("email", v)
	}
	if v, ok := p.Phone.Get(); ok {
		add("phone", v)
	}
	if v, ok := p.Address.Get(); ok {
		add("address", v)
	}
	if v, ok := p.City.Get(); ok {
		add("city", v)
	}
	if v, ok := p.State.Get(); ok {
		add("state", v)
	}
	if v, ok := p.ZipCode.Get(); ok {
		add("zip_code", v)
	}
	return set, args
}

func scanCustomer(row pgx.CollectableRow) (customer.Customer, error) {
	var c customer.Customer
	err := row.Scan(
		&c.ID, &c.Name, &c.BirthDate, &c.Email, &c.Phone,
		&c.Address, &c.City, &c.State, &c.ZipCode,
	)
	return c, err
}
