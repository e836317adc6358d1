// Package receipt turns a committed sale into a printable receipt.
package receipt

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/mabel-naski/internal/domain/order"
)

// Header identifies the store at the top of the receipt.
type Header struct {
	StoreName string
	Tagline   string
	Address   string
	Phone     string
}

// DefaultHeader is used when site settings are unavailable.
var DefaultHeader = Header{
	StoreName: "MABEL NASKI",
	Tagline:   "Furniture & Interior",
}

// Footer lines printed under the totals.
var Footer = []string{
	"Terima kasih atas kunjungan Anda!",
	"Barang yang sudah dibeli tidak dapat ditukar/dikembalikan",
	"*** SIMPAN STRUK INI ***",
}

// Input is everything needed to render a receipt.
type Input struct {
	Header      Header
	OrderNumber string
	Date        time.Time
	Lines       []order.Item
	Subtotal    decimal.Decimal
	Discount    decimal.Decimal
	Payment     decimal.Decimal
	CouponCode  string
}

// Line is a rendered receipt line.
type Line struct {
	Name     string
	Quantity int
	Price    decimal.Decimal
	Total    decimal.Decimal
}

// Receipt is the deterministic structure behind every rendering. Discount
// is zero when no discount line should be printed.
type Receipt struct {
	Header        Header
	OrderNumber   string
	Date          time.Time
	Lines         []Line
	Subtotal      decimal.Decimal
	Discount      decimal.Decimal
	DiscountLabel string
	Total         decimal.Decimal
	Payment       decimal.Decimal
	Change        decimal.Decimal
	Footer        []string
}

// HasDiscount reports whether the discount line is rendered.
func (r Receipt) HasDiscount() bool {
	return r.Discount.IsPositive()
}

// HasPayment reports whether the payment and change lines are rendered.
// Storefront orders are settled outside the shop and carry no payment.
func (r Receipt) HasPayment() bool {
	return r.Payment.IsPositive()
}

// Build computes line totals, total and change. Total is subtotal minus
// discount floored at zero; change is payment minus total, or zero without
// a payment.
func Build(in Input) Receipt {
	r := Receipt{
		Header:      in.Header,
		OrderNumber: in.OrderNumber,
		Date:        in.Date,
		Lines:       make([]Line, len(in.Lines)),
		Subtotal:    in.Subtotal,
		Payment:     in.Payment,
		Footer:      Footer,
	}
	if r.Header.StoreName == "" {
		r.Header = DefaultHeader
	}

	sum := decimal.Zero
	for i, l := range in.Lines {
		r.Lines[i] = Line{Name: l.Name, Quantity: l.Quantity, Price: l.Price, Total: l.Total()}
		sum = sum.Add(r.Lines[i].Total)
	}
	if r.Subtotal.IsZero() {
		r.Subtotal = sum
	}

	if in.Discount.IsPositive() {
		r.Discount = in.Discount
		r.DiscountLabel = "Diskon"
		if in.CouponCode != "" {
			r.DiscountLabel = "Diskon (" + in.CouponCode + ")"
		}
	}

	r.Total = r.Subtotal.Sub(r.Discount)
	if r.Total.IsNegative() {
		r.Total = decimal.Zero
	}
	if r.HasPayment() {
		r.Change = r.Payment.Sub(r.Total)
	}
	return r
}

// FromOrder builds the receipt of a persisted order.
func FromOrder(o *order.Order, h Header, loc *time.Location) Receipt {
	date := o.CreatedAt
	if loc != nil {
		date = date.In(loc)
	}
	return Build(Input{
		Header:      h,
		OrderNumber: o.OrderNumber,
		Date:        date,
		Lines:       o.Items,
		Subtotal:    o.Subtotal,
		Discount:    o.Discount,
		Payment:     o.Payment,
		CouponCode:  o.CouponCode,
	})
}
