// Package events publishes order lifecycle notifications.
package events

import (
	"context"
	"time"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/mabel-naski/internal/domain/order"
)

// Subjects published by the service.
const (
	SubjectOrderCreated   = "orders.created"
	SubjectOrderCompleted = "orders.completed"
	SubjectOrderConfirmed = "orders.confirmed"
)

// Publisher delivers a message to subscribers. Implementations must be safe
// for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, subject, id string, payload []byte) error
}

var _ Publisher = Nop{}

// Nop discards every message.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, string, string, []byte) error { return nil }

// OrderPayload encodes the summary of an order carried by every order event.
func OrderPayload(o *order.Order) []byte {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	e.ObjStart()
	e.FieldStart("id")
	e.Str(o.ID)
	e.FieldStart("order_number")
	e.Str(o.OrderNumber)
	e.FieldStart("status")
	e.Str(string(o.Status))
	e.FieldStart("total")
	encodeMoney(e, o.Total)
	if o.CouponCode != "" {
		e.FieldStart("coupon_code")
		e.Str(o.CouponCode)
	}
	e.FieldStart("items")
	e.ArrStart()
	for _, it := range o.Items {
		e.ObjStart()
		e.FieldStart("product_id")
		e.Str(it.ProductID)
		e.FieldStart("quantity")
		e.Int(it.Quantity)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.FieldStart("created_at")
	e.Str(o.CreatedAt.UTC().Format(time.RFC3339))
	e.ObjEnd()

	out := make([]byte, len(e.Bytes()))
	copy(out, e.Bytes())
	return out
}

func encodeMoney(e *jx.Encoder, d decimal.Decimal) {
	e.Num(jx.Num(d.String()))
}
