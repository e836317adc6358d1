package coupon

import (
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Reason identifies why a coupon was rejected.
type Reason string

const (
	ReasonNotFound        Reason = "not_found"
	ReasonInactive        Reason = "inactive"
	ReasonOutsideWindow   Reason = "outside_window"
	ReasonUsageLimit      Reason = "usage_limit"
	ReasonBelowMinimum    Reason = "below_minimum"
	ReasonNoEligibleItems Reason = "no_eligible_items"
)

var reasonMessages = map[Reason]string{
	ReasonNotFound:        "Kode kupon tidak ditemukan",
	ReasonInactive:        "Kupon tidak aktif",
	ReasonOutsideWindow:   "Kupon belum berlaku atau sudah kedaluwarsa",
	ReasonUsageLimit:      "Kupon sudah mencapai batas penggunaan",
	ReasonBelowMinimum:    "Total belanja belum memenuhi minimum pembelian",
	ReasonNoEligibleItems: "Tidak ada produk di keranjang yang berlaku untuk kupon ini",
}

// Message returns the operator-facing text for the reason.
func (r Reason) Message() string {
	if m, ok := reasonMessages[r]; ok {
		return m
	}
	return string(r)
}

// RejectionError is returned when a coupon exists in some form but cannot be
// applied to the cart.
type RejectionError struct {
	Reason Reason
}

func (e *RejectionError) Error() string {
	return e.Reason.Message()
}

func reject(r Reason) error {
	return &RejectionError{Reason: r}
}

// Evaluate checks eligibility of the coupon for the given cart at time now and
// returns the discount in whole rupiah. It has no side effects.
//
// When the coupon carries an allow-list the discount applies only to the
// subtotal of allow-listed lines; the minimum purchase is always compared
// against the full cart subtotal.
func Evaluate(c *Coupon, items []Item, subtotal decimal.Decimal, now time.Time) (decimal.Decimal, error) {
	if c == nil {
		return decimal.Zero, reject(ReasonNotFound)
	}
	if !c.Active {
		return decimal.Zero, reject(ReasonInactive)
	}
	if now.Before(c.ValidFrom) || (c.ValidUntil != nil && now.After(*c.ValidUntil)) {
		return decimal.Zero, reject(ReasonOutsideWindow)
	}
	if c.MaxUses > 0 && c.UsedCount >= c.MaxUses {
		return decimal.Zero, reject(ReasonUsageLimit)
	}
	if subtotal.LessThan(c.MinPurchase) {
		return decimal.Zero, reject(ReasonBelowMinimum)
	}

	base := subtotal
	if c.ApplicableProducts != nil {
		base = eligibleSubtotal(c.ApplicableProducts, items)
		if !base.IsPositive() {
			return decimal.Zero, reject(ReasonNoEligibleItems)
		}
	}

	var amount decimal.Decimal
	switch c.DiscountType {
	case DiscountPercentage:
		amount = base.Mul(c.DiscountValue).Div(hundred).Round(0)
	case DiscountFixed:
		amount = decimal.Min(c.DiscountValue, base).Round(0)
	default:
		return decimal.Zero, reject(ReasonInactive)
	}
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	return amount, nil
}

func eligibleSubtotal(allowed []string, items []Item) decimal.Decimal {
	set := make(map[string]struct{}, len(allowed))
	for _, id := range allowed {
		set[id] = struct{}{}
	}
	sum := decimal.Zero
	for _, it := range items {
		if _, ok := set[it.ProductID]; !ok {
			continue
		}
		sum = sum.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return sum
}
