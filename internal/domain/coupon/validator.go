package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Verdict is the outcome of a coupon validation: either Valid or Invalid.
type Verdict interface {
	verdict()
}

// Valid carries the authoritative discount for an accepted coupon.
type Valid struct {
	CouponID string
	Code     string
	Discount decimal.Decimal
}

// Invalid carries the rejection reason and the message to show verbatim.
type Invalid struct {
	Reason  Reason
	Message string
}

func (Valid) verdict()   {}
func (Invalid) verdict() {}

// Validator decides whether a coupon applies to a cart.
type Validator interface {
	Validate(ctx context.Context, code string, items []Item, subtotal decimal.Decimal) (Verdict, error)
}

var _ Validator = (*RepoValidator)(nil)

// RepoValidator implements Validator by looking up coupons in a Repository
// and evaluating them. It never changes the coupon's used count.
type RepoValidator struct {
	repo Repository
	now  func() time.Time
}

// NewRepoValidator creates a RepoValidator backed by the given Repository.
func NewRepoValidator(repo Repository) *RepoValidator {
	return &RepoValidator{repo: repo, now: time.Now}
}

// Validate returns an Invalid verdict for every business rejection; the
// error is reserved for lookup failures.
func (v *RepoValidator) Validate(ctx context.Context, code string, items []Item, subtotal decimal.Decimal) (Verdict, error) {
	code = NormalizeCode(code)
	if code == "" {
		return invalid(ReasonNotFound), nil
	}

	c, err := v.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return invalid(ReasonNotFound), nil
		}
		return nil, errors.Wrap(err, "lookup coupon")
	}

	amount, err := Evaluate(c, items, subtotal, v.now())
	if err != nil {
		var rej *RejectionError
		if errors.As(err, &rej) {
			return invalid(rej.Reason), nil
		}
		return nil, err
	}

	return Valid{CouponID: c.ID, Code: c.Code, Discount: amount}, nil
}

func invalid(r Reason) Invalid {
	return Invalid{Reason: r, Message: r.Message()}
}
