// Package sale commits cashier transactions: an all-or-nothing stock
// decrement and order insert.
package sale

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/xenking/mabel-naski/internal/domain/auth"
	"github.com/xenking/mabel-naski/internal/domain/order"
	"github.com/xenking/mabel-naski/internal/events"
)

// Outcome is the tagged result of the atomic stock procedure.
type Outcome struct {
	Success bool
	Message string
	Change  decimal.Decimal
}

// StockProcessor verifies stock for every line of o, decrements all of them
// and persists o in one unit of work. A failure of any step leaves stock and
// orders untouched.
type StockProcessor interface {
	ProcessSale(ctx context.Context, o *order.Order) (Outcome, error)
}

// CouponMarker records a coupon use.
type CouponMarker interface {
	MarkUsed(ctx context.Context, code string) error
}

// Invalidator drops a read cache affected by a committed sale.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// CommitRequest is a finalized cart ready to be sold. A zero Subtotal is
// computed from Lines.
type CommitRequest struct {
	Actor      auth.Actor
	Lines      []order.Item
	Subtotal   decimal.Decimal
	Discount   decimal.Decimal
	CouponCode string
	Payment    decimal.Decimal
}

// Result is a committed sale.
type Result struct {
	Order  *order.Order
	Change decimal.Decimal
}

// Options configures optional collaborators of Service.
type Options struct {
	Publisher    events.Publisher
	Invalidators []Invalidator
	Logger       *zap.Logger
	Tracer       trace.Tracer
	Meter        metric.Meter
	Location     *time.Location
	NumberPrefix string
}

// Service commits cashier sales.
type Service struct {
	stock   StockProcessor
	coupons CouponMarker

	publisher    events.Publisher
	invalidators []Invalidator
	lg           *zap.Logger
	tracer       trace.Tracer
	committed    metric.Int64Counter
	rejected     metric.Int64Counter
	loc          *time.Location
	prefix       string
	now          func() time.Time
}

// NewService creates a sale Service.
func NewService(stock StockProcessor, coupons CouponMarker, opts Options) (*Service, error) {
	if opts.Publisher == nil {
		opts.Publisher = events.Nop{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Tracer == nil {
		opts.Tracer = tracenoop.NewTracerProvider().Tracer("sale")
	}
	if opts.Meter == nil {
		opts.Meter = metricnoop.NewMeterProvider().Meter("sale")
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.NumberPrefix == "" {
		opts.NumberPrefix = "TRX"
	}

	committed, err := opts.Meter.Int64Counter("sales.committed",
		metric.WithDescription("Cashier sales committed"))
	if err != nil {
		return nil, errors.Wrap(err, "create committed counter")
	}
	rejected, err := opts.Meter.Int64Counter("sales.rejected",
		metric.WithDescription("Cashier sales rejected by validation or stock"))
	if err != nil {
		return nil, errors.Wrap(err, "create rejected counter")
	}

	return &Service{
		stock:        stock,
		coupons:      coupons,
		publisher:    opts.Publisher,
		invalidators: opts.Invalidators,
		lg:           opts.Logger,
		tracer:       opts.Tracer,
		committed:    committed,
		rejected:     rejected,
		loc:          opts.Location,
		prefix:       opts.NumberPrefix,
		now:          time.Now,
	}, nil
}

// Totals validates the request and returns subtotal and total. No external
// call is made.
func Totals(req CommitRequest) (subtotal, total decimal.Decimal, err error) {
	if len(req.Lines) == 0 {
		return subtotal, total, validationError(msgEmptyCart)
	}
	sum := decimal.Zero
	for _, l := range req.Lines {
		if l.Quantity <= 0 || l.ProductID == "" || l.Price.IsNegative() {
			return subtotal, total, validationError(msgInvalidQuantity)
		}
		sum = sum.Add(l.Total())
	}
	subtotal = req.Subtotal
	if subtotal.IsZero() {
		subtotal = sum
	} else if !subtotal.Equal(sum) {
		return subtotal, total, validationError(msgSubtotalMismatch)
	}
	if req.Discount.IsNegative() {
		return subtotal, total, validationError(msgInvalidDiscount)
	}
	if !req.Payment.IsPositive() {
		return subtotal, total, validationError(msgInvalidPayment)
	}

	total = subtotal.Sub(req.Discount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	if req.Payment.LessThan(total) {
		return subtotal, total, validationError(msgPaymentShort)
	}
	return subtotal, total, nil
}

// Commit validates the request locally and runs the atomic stock procedure,
// which persists the completed order together with the stock decrement.
// Every failure is an *Error; a failed commit changes nothing and may be
// retried.
func (s *Service) Commit(ctx context.Context, req CommitRequest) (_ *Result, rerr error) {
	ctx, span := s.tracer.Start(ctx, "sale.Commit",
		trace.WithAttributes(
			attribute.String("cashier.id", req.Actor.UserID),
			attribute.Int("sale.lines", len(req.Lines)),
		))
	defer func() {
		if rerr != nil {
			span.RecordError(rerr)
			span.SetStatus(codes.Error, rerr.Error())
			s.rejected.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", KindOf(rerr).String())))
		}
		span.End()
	}()

	subtotal, total, err := Totals(req)
	if err != nil {
		return nil, err
	}

	now := s.now()
	change := req.Payment.Sub(total)
	o := &order.Order{
		ID:            uuid.NewString(),
		OrderNumber:   order.NewNumber(s.prefix, now, s.loc),
		Items:         req.Lines,
		Subtotal:      subtotal,
		Discount:      req.Discount,
		Total:         total,
		Payment:       req.Payment,
		Change:        change,
		CouponCode:    req.CouponCode,
		Status:        order.StatusCompleted,
		CustomerName:  order.WalkInCustomerName,
		CustomerPhone: order.WalkInCustomerPhone,
		CashierID:     req.Actor.UserID,
		CreatedAt:     now,
	}

	outcome, err := s.stock.ProcessSale(ctx, o)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Message: msgTransport, Err: errors.Wrap(err, "process sale")}
	}
	if !outcome.Success {
		return nil, &Error{Kind: KindRejected, Message: outcome.Message}
	}
	if !outcome.Change.Equal(change) {
		s.lg.Warn("Stock processor change differs from computed change",
			zap.Stringer("reported", outcome.Change),
			zap.Stringer("computed", change),
		)
	}

	if req.CouponCode != "" {
		// The sale is already committed; a failed usage increment is tolerated.
		if err := s.coupons.MarkUsed(ctx, req.CouponCode); err != nil {
			s.lg.Error("Mark coupon used",
				zap.String("coupon", req.CouponCode),
				zap.Error(err),
			)
		}
	}

	span.SetAttributes(attribute.String("order.number", o.OrderNumber))
	s.committed.Add(ctx, 1)

	if err := s.publisher.Publish(ctx, events.SubjectOrderCompleted, o.ID, events.OrderPayload(o)); err != nil {
		s.lg.Warn("Publish order completed", zap.String("order_id", o.ID), zap.Error(err))
	}
	for _, inv := range s.invalidators {
		if err := inv.Invalidate(ctx); err != nil {
			s.lg.Warn("Invalidate cache after sale", zap.Error(err))
		}
	}

	s.lg.Info("Sale committed",
		zap.String("order_number", o.OrderNumber),
		zap.Stringer("total", total),
		zap.String("cashier", req.Actor.UserID),
	)
	return &Result{Order: o, Change: change}, nil
}
