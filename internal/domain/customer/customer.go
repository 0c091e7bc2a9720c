package customer

import (
	"context"
	"strings"

	"github.com/go-faster/errors"

	"github.com/lmeira/sales-api/pkg/pagination"
	"github.com/lmeira/sales-api/pkg/patch"
)

// ErrNotFound is returned when a requested customer does not exist.
var ErrNotFound = errors.New("customer not found")

// ErrReferenced is returned when deleting a customer that still has
// orders on record.
var ErrReferenced = errors.New("customer is referenced by existing orders")

// Customer represents a buyer profile. The ID is immutable; every other
// field can be changed through a Patch.
type Customer struct {
	ID        string
	Name      string
	BirthDate string // ISO date, YYYY-MM-DD
	Email     string
	Phone     string
	Address   string
	City      string
	State     string
	ZipCode   string
}

// Validate checks the fields required on creation.
func (c *Customer) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("name is required")
	}
	if strings.TrimSpace(c.Email) == "" {
		return errors.New("email is required")
	}
	return nil
}

// Patch is a tri-state partial update: absent fields stay unchanged,
// present fields are set. None of the profile fields are nullable.
type Patch struct {
	Name      patch.Field[string]
	BirthDate patch.Field[string]
	Email     patch.Field[string]
	Phone     patch.Field[string]
	Address   patch.Field[string]
	City      patch.Field[string]
	State     patch.Field[string]
	ZipCode   patch.Field[string]
}

// fields returns each patch field with its payload name, for uniform
// validation and application.
func (p *Patch) fields() map[string]*patch.Field[string] {
	return map[string]*patch.Field[string]{
		"name":       &p.Name,
		"birth_date": &p.BirthDate,
		"email":      &p.Email,
		"phone":      &p.Phone,
		"address":    &p.Address,
		"city":       &p.City,
		"state":      &p.State,
		"zip_code":   &p.ZipCode,
	}
}

// Validate rejects explicit nulls and empty patches.
func (p *Patch) Validate() error {
	any := false
	for name, f := range p.fields() {
		if f.IsNull() {
			return errors.Errorf("%s cannot be null", name)
		}
		if f.IsSet() {
			any = true
		}
	}
	if !any {
		return errors.New("patch contains no fields")
	}
	return nil
}

// Apply writes the set fields onto c, leaving the rest untouched.
func (p *Patch) Apply(c *Customer) {
	c.Name = p.Name.Or(c.Name)
	c.BirthDate = p.BirthDate.Or(c.BirthDate)
	c.Email = p.Email.Or(c.Email)
	c.Phone = p.Phone.Or(c.Phone)
	c.Address = p.Address.Or(c.Address)
	c.City = p.City.Or(c.City)
	c.State = p.State.Or(c.State)
	c.ZipCode = p.ZipCode.Or(c.ZipCode)
}

// Repository defines persistence operations for customers.
type Repository interface {
	List(ctx context.Context, p pagination.Params) ([]Customer, int64, error)
	GetByID(ctx context.Context, id string) (*Customer, error)
	Create(ctx context.Context, c *Customer) error
	Update(ctx context.Context, id string, p *Patch) (*Customer, error)
	Delete(ctx context.Context, id string) error
}
