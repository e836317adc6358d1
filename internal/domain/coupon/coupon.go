package coupon

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// DiscountType enumerates the supported coupon discount strategies.
type DiscountType string

const (
	// DiscountPercentage takes a percentage of the eligible subtotal.
	DiscountPercentage DiscountType = "percentage"
	// DiscountFixed takes a fixed amount capped at the eligible subtotal.
	DiscountFixed DiscountType = "fixed"
)

var (
	// ErrNotFound is returned by repositories when no coupon matches.
	ErrNotFound = errors.New("coupon not found")
	// ErrDuplicateCode is returned when a coupon code is already taken.
	ErrDuplicateCode = errors.New("coupon code already exists")
)

// Coupon is a named discount rule with eligibility constraints. A nil
// ApplicableProducts means the coupon applies to every product, MaxUses of
// zero means unlimited and a nil ValidUntil means the window never closes.
type Coupon struct {
	ID                 string
	Code               string
	DiscountType       DiscountType
	DiscountValue      decimal.Decimal
	MinPurchase        decimal.Decimal
	ApplicableProducts []string
	MaxUses            int
	UsedCount          int
	ValidFrom          time.Time
	ValidUntil         *time.Time
	Active             bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Item is a cart line as seen by coupon evaluation.
type Item struct {
	ProductID string
	Price     decimal.Decimal
	Quantity  int
}

// NormalizeCode trims and upper-cases a coupon code. Codes are compared
// case-insensitively and stored upper-cased.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// InvalidError reports a malformed coupon definition.
type InvalidError struct {
	Field  string
	Reason string
}

func (e *InvalidError) Error() string {
	return e.Field + ": " + e.Reason
}

// Normalize prepares a coupon for storage: upper-cases the code and drops an
// empty allow-list.
func (c *Coupon) Normalize() {
	c.Code = NormalizeCode(c.Code)
	if len(c.ApplicableProducts) == 0 {
		c.ApplicableProducts = nil
	}
	if c.ValidFrom.IsZero() {
		c.ValidFrom = time.Now()
	}
}

// Check validates the coupon definition as entered by an administrator.
func (c *Coupon) Check() error {
	switch {
	case c.Code == "":
		return &InvalidError{Field: "code", Reason: "must not be empty"}
	case c.DiscountType != DiscountPercentage && c.DiscountType != DiscountFixed:
		return &InvalidError{Field: "discount_type", Reason: "must be percentage or fixed"}
	case !c.DiscountValue.IsPositive():
		return &InvalidError{Field: "discount_value", Reason: "must be greater than 0"}
	case c.DiscountType == DiscountPercentage && c.DiscountValue.GreaterThan(hundred):
		return &InvalidError{Field: "discount_value", Reason: "percentage must not exceed 100"}
	case c.MinPurchase.IsNegative():
		return &InvalidError{Field: "min_purchase", Reason: "must not be negative"}
	case c.MaxUses < 0:
		return &InvalidError{Field: "max_uses", Reason: "must not be negative"}
	case c.ValidUntil != nil && !c.ValidUntil.After(c.ValidFrom):
		return &InvalidError{Field: "valid_until", Reason: "must be after valid_from"}
	}
	return nil
}

// Repository provides the lookups used while selling.
type Repository interface {
	FindByCode(ctx context.Context, code string) (*Coupon, error)
	// MarkUsed increments the used count. It is only called after a sale
	// has been committed.
	MarkUsed(ctx context.Context, code string) error
}

// Store adds back-office management to Repository.
type Store interface {
	Repository
	List(ctx context.Context) ([]Coupon, error)
	Get(ctx context.Context, id string) (*Coupon, error)
	Create(ctx context.Context, c *Coupon) error
	Update(ctx context.Context, c *Coupon) error
	Delete(ctx context.Context, id string) error
}
