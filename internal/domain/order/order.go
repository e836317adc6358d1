package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of an order.
type Status string

const (
	// StatusPending is a storefront order awaiting admin confirmation.
	StatusPending Status = "pending"
	// StatusCompleted is a cashier sale; stock was decremented at commit.
	StatusCompleted Status = "completed"
	// StatusConfirmed is a storefront order confirmed by an admin.
	StatusConfirmed Status = "confirmed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusConfirmed:
		return true
	}
	return false
}

// Walk-in customer details recorded on cashier sales.
const (
	WalkInCustomerName  = "Kasir (Offline)"
	WalkInCustomerPhone = "-"
)

var (
	// ErrNotFound is returned when an order does not exist.
	ErrNotFound = errors.New("order not found")
	// ErrNotPending is returned when confirming an order that is not pending.
	ErrNotPending = errors.New("order is not pending")
)

// InsufficientStockError is returned when confirming an order whose lines
// exceed current stock.
type InsufficientStockError struct {
	ProductID string
	Name      string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Stok %s tidak mencukupi (diminta %d, tersedia %d)", e.Name, e.Requested, e.Available)
}

// Order is a persisted sale or storefront order.
type Order struct {
	ID             string
	OrderNumber    string
	Items          []Item
	Subtotal       decimal.Decimal
	Discount       decimal.Decimal
	Total          decimal.Decimal
	Payment        decimal.Decimal
	Change         decimal.Decimal
	CouponCode     string
	Status         Status
	CustomerName   string
	CustomerPhone  string
	CashierID      string
	CreatedAt      time.Time
	ConfirmedAt    *time.Time
	ConfirmedBy    string
	WhatsAppSentAt *time.Time
}

// Item is a finalized order line. It is stored as JSON on the order row.
type Item struct {
	ProductID string          `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Image     string          `json:"image,omitempty"`
}

// Total returns price × quantity.
func (i Item) Total() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ListParams filters the back-office order list. An empty Status lists all.
type ListParams struct {
	Status Status
	Since  time.Time
	Limit  int
}

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	List(ctx context.Context, params ListParams) ([]Order, error)
	// Confirm moves a pending order to confirmed and decrements stock for
	// its lines in the same transaction.
	Confirm(ctx context.Context, id, actorID string, at time.Time) (*Order, error)
}

// NewNumber generates a human-readable order number such as
// TRX-20250615-1A2B3C4D, dated in the given location.
func NewNumber(prefix string, now time.Time, loc *time.Location) string {
	if loc != nil {
		now = now.In(loc)
	}
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("%s-%s-%s", prefix, now.Format("20060102"), suffix)
}
