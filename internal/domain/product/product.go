package product

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a requested product does not exist.
	ErrNotFound = errors.New("product not found")
	// ErrInvalid is returned by Check.
	ErrInvalid = errors.New("invalid product")
)

// Product represents a furniture item in the catalog. Price is expressed in
// whole rupiah; Stock is only decremented by a committed sale or a confirmed
// storefront order.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	Category    string
	Material    string
	Dimensions  string
	Color       string
	Image       string
	Images      []string
	OrderCount  int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// InStock reports whether at least one unit can be sold.
func (p Product) InStock() bool {
	return p.Stock > 0
}

// Check validates an admin write. The name is trimmed in place.
func (p *Product) Check() error {
	p.Name = strings.TrimSpace(p.Name)
	switch {
	case p.Name == "":
		return errors.Wrap(ErrInvalid, "name is required")
	case p.Price.IsNegative():
		return errors.Wrap(ErrInvalid, "price must not be negative")
	case !p.Price.Equal(p.Price.Truncate(0)):
		return errors.Wrap(ErrInvalid, "price must be whole rupiah")
	case p.Stock < 0:
		return errors.Wrap(ErrInvalid, "stock must not be negative")
	}
	return nil
}

// DefaultPageSize is used when ListParams.PageSize is not set.
const DefaultPageSize = 12

// MaxPageSize bounds ListParams.PageSize.
const MaxPageSize = 100

// ListParams filters and paginates catalog listings. Page is 1-based.
type ListParams struct {
	Category string
	Search   string
	Page     int
	PageSize int
}

// Normalize clamps pagination to sane bounds.
func (p ListParams) Normalize() ListParams {
	if p.Page < 1 {
		p.Page = 1
	}
	switch {
	case p.PageSize <= 0:
		p.PageSize = DefaultPageSize
	case p.PageSize > MaxPageSize:
		p.PageSize = MaxPageSize
	}
	return p
}

// Offset returns the number of rows to skip for the requested page.
func (p ListParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Page is one page of a filtered catalog listing.
type Page struct {
	Products []Product
	Total    int
	Page     int
	PageSize int
}

// Repository defines read operations for the product catalog.
type Repository interface {
	List(ctx context.Context, params ListParams) (*Page, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
}

// Writer defines back-office mutations of the catalog.
type Writer interface {
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id string) error
}

// Store combines catalog reads and writes.
type Store interface {
	Repository
	Writer
}
