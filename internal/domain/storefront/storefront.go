// Package storefront places customer orders through a WhatsApp hand-off and
// lets the back office confirm them.
package storefront

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/mabel-naski/internal/domain/auth"
	"github.com/xenking/mabel-naski/internal/domain/order"
	"github.com/xenking/mabel-naski/internal/domain/product"
	"github.com/xenking/mabel-naski/internal/domain/receipt"
	"github.com/xenking/mabel-naski/internal/domain/settings"
	"github.com/xenking/mabel-naski/internal/events"
)

var (
	ErrEmptyItems      = errors.New("items required")
	ErrMissingCustomer = errors.New("customer name and phone required")
	ErrNoWhatsApp      = errors.New("store WhatsApp number is not configured")
)

// ProductNotFoundError indicates a requested product does not exist.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// InvalidQuantityError indicates a line item has a non-positive quantity.
type InvalidQuantityError struct {
	ProductID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %s", e.ProductID)
}

// LineRequest is one requested product.
type LineRequest struct {
	ProductID string
	Quantity  int
}

// Request is a storefront checkout.
type Request struct {
	CustomerName  string
	CustomerPhone string
	Lines         []LineRequest
}

// Result is a placed pending order with its WhatsApp deep link.
type Result struct {
	Order       *order.Order
	Message     string
	WhatsAppURL string
}

// Invalidator drops a read cache affected by a stock change.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Service implements storefront checkout and admin confirmation.
type Service struct {
	products     product.Repository
	orders       order.Repository
	settings     settings.Repository
	publisher    events.Publisher
	invalidators []Invalidator
	fallbackWA   string
	loc          *time.Location
	lg           *zap.Logger
	now          func() time.Time
}

// NewService creates a storefront Service. fallbackWhatsApp is used when the
// site settings carry no number.
func NewService(
	products product.Repository,
	orders order.Repository,
	site settings.Repository,
	publisher events.Publisher,
	fallbackWhatsApp string,
	loc *time.Location,
	lg *zap.Logger,
	invalidators ...Invalidator,
) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if loc == nil {
		loc = time.Local
	}
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Service{
		products:     products,
		orders:       orders,
		settings:     site,
		publisher:    publisher,
		invalidators: invalidators,
		fallbackWA:   fallbackWhatsApp,
		loc:          loc,
		lg:           lg,
		now:          time.Now,
	}
}

// Checkout re-prices the requested lines from the catalog, stores a pending
// order and returns the WhatsApp link carrying the order message. Stock is
// only checked, never decremented; that happens on confirmation.
func (s *Service) Checkout(ctx context.Context, req Request) (*Result, error) {
	name := strings.TrimSpace(req.CustomerName)
	phone := strings.TrimSpace(req.CustomerPhone)
	if name == "" || phone == "" {
		return nil, ErrMissingCustomer
	}
	if len(req.Lines) == 0 {
		return nil, ErrEmptyItems
	}

	ids := make([]string, len(req.Lines))
	for i, l := range req.Lines {
		if l.Quantity <= 0 {
			return nil, &InvalidQuantityError{ProductID: l.ProductID}
		}
		ids[i] = l.ProductID
	}

	fetched, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}
	byID := make(map[string]product.Product, len(fetched))
	for _, p := range fetched {
		byID[p.ID] = p
	}

	items := make([]order.Item, 0, len(req.Lines))
	subtotal := decimal.Zero
	for _, l := range req.Lines {
		p, ok := byID[l.ProductID]
		if !ok {
			return nil, &ProductNotFoundError{ProductID: l.ProductID}
		}
		if l.Quantity > p.Stock {
			return nil, &order.InsufficientStockError{
				ProductID: p.ID, Name: p.Name, Requested: l.Quantity, Available: p.Stock,
			}
		}
		it := order.Item{ProductID: p.ID, Name: p.Name, Price: p.Price, Quantity: l.Quantity, Image: p.Image}
		items = append(items, it)
		subtotal = subtotal.Add(it.Total())
	}

	site, err := s.settings.Get(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "get settings")
	}
	wa := settings.NormalizePhone(site.WhatsAppNumber)
	if wa == "" {
		wa = settings.NormalizePhone(s.fallbackWA)
	}
	if wa == "" {
		return nil, ErrNoWhatsApp
	}

	now := s.now()
	o := &order.Order{
		ID:             uuid.NewString(),
		OrderNumber:    order.NewNumber("ORD", now, s.loc),
		Items:          items,
		Subtotal:       subtotal,
		Discount:       decimal.Zero,
		Total:          subtotal,
		Payment:        decimal.Zero,
		Change:         decimal.Zero,
		Status:         order.StatusPending,
		CustomerName:   name,
		CustomerPhone:  phone,
		CreatedAt:      now,
		WhatsAppSentAt: &now,
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	if err := s.publisher.Publish(ctx, events.SubjectOrderCreated, o.ID, events.OrderPayload(o)); err != nil {
		s.lg.Warn("Publish order created", zap.String("order_id", o.ID), zap.Error(err))
	}

	msg := Message(items, subtotal)
	return &Result{Order: o, Message: msg, WhatsAppURL: WhatsAppURL(wa, msg)}, nil
}

// Confirm moves a pending order to confirmed and decrements stock.
func (s *Service) Confirm(ctx context.Context, actor auth.Actor, id string) (*order.Order, error) {
	if err := actor.Require(auth.AreaBackOffice); err != nil {
		return nil, err
	}
	o, err := s.orders.Confirm(ctx, id, actor.UserID, s.now())
	if err != nil {
		return nil, errors.Wrapf(err, "confirm order %s", id)
	}

	if err := s.publisher.Publish(ctx, events.SubjectOrderConfirmed, o.ID, events.OrderPayload(o)); err != nil {
		s.lg.Warn("Publish order confirmed", zap.String("order_id", o.ID), zap.Error(err))
	}
	for _, inv := range s.invalidators {
		if err := inv.Invalidate(ctx); err != nil {
			s.lg.Warn("Invalidate cache after confirmation", zap.Error(err))
		}
	}
	s.lg.Info("Order confirmed", zap.String("order_number", o.OrderNumber), zap.String("by", actor.UserID))
	return o, nil
}

// Message renders the order text sent to the store over WhatsApp.
func Message(items []order.Item, total decimal.Decimal) string {
	var b strings.Builder
	b.WriteString("Halo, saya ingin memesan:\n\n")
	for i, it := range items {
		fmt.Fprintf(&b, "%d. %s\n", i+1, it.Name)
		fmt.Fprintf(&b, "   Jumlah: %d\n", it.Quantity)
		fmt.Fprintf(&b, "   Harga: %s\n\n", receipt.Rupiah(it.Total()))
	}
	fmt.Fprintf(&b, "Total: %s\n\n", receipt.Rupiah(total))
	b.WriteString("Terima kasih!")
	return b.String()
}

// WhatsAppURL builds a wa.me deep link. Spaces are encoded as %20.
func WhatsAppURL(number, message string) string {
	return "https://wa.me/" + number + "?text=" + strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
}
