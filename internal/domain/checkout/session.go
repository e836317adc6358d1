// Package checkout drives a cashier session through an explicit state
// machine: cart edits and coupon application happen while Idle, a commit
// moves the session through Committing to Committed or Rejected.
package checkout

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/mabel-naski/internal/domain/auth"
	"github.com/xenking/mabel-naski/internal/domain/cart"
	"github.com/xenking/mabel-naski/internal/domain/coupon"
	"github.com/xenking/mabel-naski/internal/domain/order"
	"github.com/xenking/mabel-naski/internal/domain/product"
	"github.com/xenking/mabel-naski/internal/domain/sale"
)

// State is a checkout session state.
type State int

const (
	StateIdle State = iota
	StateValidating
	StateCommitting
	StateCommitted
	StateRejected
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateCommitting:
		return "committing"
	case StateCommitted:
		return "committed"
	case StateRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

var (
	// ErrBusy is returned when an event arrives while a coupon validation or
	// commit is in flight.
	ErrBusy = errors.New("session is busy")
	// ErrCommitted is returned when editing a committed session before Reset.
	ErrCommitted = errors.New("session already committed, start a new sale")
)

// Committer commits a sale.
type Committer interface {
	Commit(ctx context.Context, req sale.CommitRequest) (*sale.Result, error)
}

// Session is one cashier's sale in progress. It is safe for concurrent use;
// events that arrive while a remote call is in flight fail with ErrBusy.
type Session struct {
	ID    string
	Actor auth.Actor

	mu        sync.Mutex
	state     State
	cart      *cart.Cart
	applied   *coupon.Valid
	lastErr   error
	result    *sale.Result
	touchedAt time.Time
	now       func() time.Time
}

// newSession stamps activity with now, the clock the owning registry sweeps by.
func newSession(id string, actor auth.Actor, now func() time.Time) *Session {
	return &Session{
		ID:        id,
		Actor:     actor,
		state:     StateIdle,
		cart:      cart.New(),
		touchedAt: now(),
		now:       now,
	}
}

// editable must be called with mu held. A rejected session returns to Idle
// on the next edit.
func (s *Session) editable() error {
	switch s.state {
	case StateValidating, StateCommitting:
		return ErrBusy
	case StateCommitted:
		return ErrCommitted
	case StateRejected:
		s.state = StateIdle
		s.lastErr = nil
	}
	s.touchedAt = s.now()
	return nil
}

// AddProduct adds one unit of p using p.Stock as the ceiling.
func (s *Session) AddProduct(p product.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}
	return s.cart.Add(p)
}

// SetQuantity sets a line's quantity; zero or less removes it.
func (s *Session) SetQuantity(productID string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}
	return s.cart.SetQuantity(productID, quantity)
}

// RemoveLine removes a line.
func (s *Session) RemoveLine(productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}
	s.cart.Remove(productID)
	return nil
}

// ApplyCoupon validates code against the current cart. A Valid verdict
// replaces the applied coupon; an Invalid verdict leaves the session as it
// was. The discount is not recomputed when the cart changes afterwards.
func (s *Session) ApplyCoupon(ctx context.Context, v coupon.Validator, code string) (coupon.Verdict, error) {
	s.mu.Lock()
	if err := s.editable(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.state = StateValidating
	items := couponItems(s.cart.Lines())
	subtotal := s.cart.Subtotal()
	s.mu.Unlock()

	verdict, err := v.Validate(ctx, code, items, subtotal)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateIdle
	if err != nil {
		return nil, errors.Wrap(err, "validate coupon")
	}
	if valid, ok := verdict.(coupon.Valid); ok {
		s.applied = &valid
	}
	return verdict, nil
}

// RemoveCoupon clears the applied coupon. No usage was counted yet so no
// remote call is needed.
func (s *Session) RemoveCoupon() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}
	s.applied = nil
	return nil
}

// Commit runs local validation and, if it passes, commits the sale. Local
// validation failures keep the session Idle; remote failures move it to
// Rejected with the cart intact.
func (s *Session) Commit(ctx context.Context, c Committer, payment decimal.Decimal) (*sale.Result, error) {
	s.mu.Lock()
	switch s.state {
	case StateValidating, StateCommitting:
		s.mu.Unlock()
		return nil, ErrBusy
	case StateCommitted:
		s.mu.Unlock()
		return nil, ErrCommitted
	}
	req := s.requestLocked(payment)
	if _, _, err := sale.Totals(req); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.state = StateCommitting
	s.touchedAt = s.now()
	s.mu.Unlock()

	res, err := c.Commit(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchedAt = s.now()
	if err != nil {
		s.state = StateRejected
		s.lastErr = err
		return nil, err
	}
	s.state = StateCommitted
	s.result = res
	s.lastErr = nil
	return res, nil
}

// Reset starts a new sale, clearing cart, coupon and last result.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateValidating || s.state == StateCommitting {
		return ErrBusy
	}
	s.state = StateIdle
	s.cart.Clear()
	s.applied = nil
	s.result = nil
	s.lastErr = nil
	s.touchedAt = s.now()
	return nil
}

func (s *Session) requestLocked(payment decimal.Decimal) sale.CommitRequest {
	lines := s.cart.Lines()
	items := make([]order.Item, len(lines))
	for i, l := range lines {
		items[i] = order.Item{
			ProductID: l.ProductID,
			Name:      l.Name,
			Price:     l.Price,
			Quantity:  l.Quantity,
			Image:     l.Image,
		}
	}
	req := sale.CommitRequest{
		Actor:    s.Actor,
		Lines:    items,
		Subtotal: s.cart.Subtotal(),
		Payment:  payment,
	}
	if s.applied != nil {
		req.Discount = s.applied.Discount
		req.CouponCode = s.applied.Code
	}
	return req
}

func couponItems(lines []cart.Line) []coupon.Item {
	items := make([]coupon.Item, len(lines))
	for i, l := range lines {
		items[i] = coupon.Item{ProductID: l.ProductID, Price: l.Price, Quantity: l.Quantity}
	}
	return items
}

// View is a point-in-time copy of a session.
type View struct {
	ID         string
	State      State
	Lines      []cart.Line
	Subtotal   decimal.Decimal
	Discount   decimal.Decimal
	Total      decimal.Decimal
	CouponCode string
	LastError  error
	Result     *sale.Result
}

// View returns a snapshot of the session.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		ID:        s.ID,
		State:     s.state,
		Lines:     s.cart.Lines(),
		Subtotal:  s.cart.Subtotal(),
		Discount:  decimal.Zero,
		LastError: s.lastErr,
		Result:    s.result,
	}
	if s.applied != nil {
		v.Discount = s.applied.Discount
		v.CouponCode = s.applied.Code
	}
	v.Total = v.Subtotal.Sub(v.Discount)
	if v.Total.IsNegative() {
		v.Total = decimal.Zero
	}
	return v
}

func (s *Session) idleSince() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	busy := s.state == StateValidating || s.state == StateCommitting
	return s.touchedAt, busy
}
