package checkout

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/mabel-naski/internal/domain/auth"
	"github.com/xenking/mabel-naski/internal/domain/cart"
	"github.com/xenking/mabel-naski/internal/domain/coupon"
	"github.com/xenking/mabel-naski/internal/domain/order"
	"github.com/xenking/mabel-naski/internal/domain/product"
	"github.com/xenking/mabel-naski/internal/domain/sale"
)

var kasir = auth.Actor{UserID: "kasir-1", Role: auth.RoleKasir}

func sofa(stock int) product.Product {
	return product.Product{ID: "sofa", Name: "Sofa Minimalis", Price: decimal.NewFromInt(500_000), Stock: stock}
}

type stubValidator struct {
	verdict coupon.Verdict
	err     error
	gotSub  decimal.Decimal
}

func (v *stubValidator) Validate(_ context.Context, _ string, _ []coupon.Item, subtotal decimal.Decimal) (coupon.Verdict, error) {
	v.gotSub = subtotal
	return v.verdict, v.err
}

type stubCommitter struct {
	err     error
	req     sale.CommitRequest
	calls   int
	release chan struct{}
	entered chan struct{}
}

func (c *stubCommitter) Commit(_ context.Context, req sale.CommitRequest) (*sale.Result, error) {
	c.calls++
	c.req = req
	if c.entered != nil {
		close(c.entered)
	}
	if c.release != nil {
		<-c.release
	}
	if c.err != nil {
		return nil, c.err
	}
	total := req.Subtotal.Sub(req.Discount)
	return &sale.Result{
		Order:  &order.Order{OrderNumber: "TRX-1", Total: total},
		Change: req.Payment.Sub(total),
	}, nil
}

func TestSession_DiscountScenario(t *testing.T) {
	s := newSession("s1", kasir, time.Now)
	require.NoError(t, s.AddProduct(sofa(5)))
	require.NoError(t, s.AddProduct(sofa(5)))

	v := &stubValidator{verdict: coupon.Valid{CouponID: "c1", Code: "DISKON10", Discount: decimal.NewFromInt(100_000)}}
	verdict, err := s.ApplyCoupon(context.Background(), v, "diskon10")
	require.NoError(t, err)
	require.IsType(t, coupon.Valid{}, verdict)
	assert.True(t, decimal.NewFromInt(1_000_000).Equal(v.gotSub))

	view := s.View()
	assert.Equal(t, StateIdle, view.State)
	assert.True(t, decimal.NewFromInt(900_000).Equal(view.Total), "total %s", view.Total)

	c := &stubCommitter{}
	res, err := s.Commit(context.Background(), c, decimal.NewFromInt(1_000_000))
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(100_000).Equal(res.Change))
	assert.Equal(t, "DISKON10", c.req.CouponCode)
	assert.True(t, decimal.NewFromInt(100_000).Equal(c.req.Discount))
	assert.Equal(t, StateCommitted, s.View().State)

	require.ErrorIs(t, s.AddProduct(sofa(5)), ErrCommitted)
	require.NoError(t, s.Reset())
	view = s.View()
	assert.Equal(t, StateIdle, view.State)
	assert.Empty(t, view.Lines)
	assert.Empty(t, view.CouponCode)
}

func TestSession_InvalidCouponKeepsState(t *testing.T) {
	s := newSession("s1", kasir, time.Now)
	require.NoError(t, s.AddProduct(sofa(5)))

	good := &stubValidator{verdict: coupon.Valid{Code: "HEMAT", Discount: decimal.NewFromInt(50_000)}}
	_, err := s.ApplyCoupon(context.Background(), good, "HEMAT")
	require.NoError(t, err)

	bad := &stubValidator{verdict: coupon.Invalid{Reason: coupon.ReasonInactive, Message: coupon.ReasonInactive.Message()}}
	verdict, err := s.ApplyCoupon(context.Background(), bad, "OFF")
	require.NoError(t, err)
	inv, ok := verdict.(coupon.Invalid)
	require.True(t, ok)
	assert.Equal(t, coupon.ReasonInactive, inv.Reason)

	view := s.View()
	assert.Equal(t, "HEMAT", view.CouponCode)
	assert.Len(t, view.Lines, 1)

	require.NoError(t, s.RemoveCoupon())
	assert.True(t, s.View().Discount.IsZero())
}

func TestSession_CouponNotRevalidatedOnCartChange(t *testing.T) {
	s := newSession("s1", kasir, time.Now)
	require.NoError(t, s.AddProduct(sofa(5)))
	require.NoError(t, s.AddProduct(sofa(5)))

	v := &stubValidator{verdict: coupon.Valid{Code: "DISKON10", Discount: decimal.NewFromInt(100_000)}}
	_, err := s.ApplyCoupon(context.Background(), v, "DISKON10")
	require.NoError(t, err)

	require.NoError(t, s.SetQuantity("sofa", 1))
	assert.True(t, decimal.NewFromInt(100_000).Equal(s.View().Discount))
}

func TestSession_CouponValidatorError(t *testing.T) {
	s := newSession("s1", kasir, time.Now)
	_, err := s.ApplyCoupon(context.Background(), &stubValidator{err: errors.New("db down")}, "X")
	require.Error(t, err)
	assert.Equal(t, StateIdle, s.View().State)
}

func TestSession_LocalValidationStaysIdle(t *testing.T) {
	s := newSession("s1", kasir, time.Now)
	c := &stubCommitter{}

	_, err := s.Commit(context.Background(), c, decimal.NewFromInt(100))
	assert.Equal(t, sale.KindValidation, sale.KindOf(err))
	assert.Zero(t, c.calls)
	assert.Equal(t, StateIdle, s.View().State)

	require.NoError(t, s.AddProduct(sofa(1)))
	_, err = s.Commit(context.Background(), c, decimal.NewFromInt(499_999))
	assert.Equal(t, sale.KindValidation, sale.KindOf(err))
	assert.Zero(t, c.calls)
}

func TestSession_RejectedKeepsCartAndReturnsToIdle(t *testing.T) {
	s := newSession("s1", kasir, time.Now)
	require.NoError(t, s.AddProduct(sofa(3)))

	c := &stubCommitter{err: &sale.Error{Kind: sale.KindRejected, Message: "Stok tidak mencukupi"}}
	_, err := s.Commit(context.Background(), c, decimal.NewFromInt(500_000))
	require.Error(t, err)

	view := s.View()
	assert.Equal(t, StateRejected, view.State)
	assert.Len(t, view.Lines, 1)
	require.ErrorIs(t, view.LastError, err)

	require.NoError(t, s.SetQuantity("sofa", 1))
	assert.Equal(t, StateIdle, s.View().State)
	assert.Nil(t, s.View().LastError)
}

func TestSession_BusyWhileCommitting(t *testing.T) {
	s := newSession("s1", kasir, time.Now)
	require.NoError(t, s.AddProduct(sofa(3)))

	c := &stubCommitter{release: make(chan struct{}), entered: make(chan struct{})}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := s.Commit(context.Background(), c, decimal.NewFromInt(500_000))
		assert.NoError(t, err)
	}()
	<-c.entered

	assert.Equal(t, StateCommitting, s.View().State)
	_, err := s.Commit(context.Background(), c, decimal.NewFromInt(500_000))
	require.ErrorIs(t, err, ErrBusy)
	require.ErrorIs(t, s.AddProduct(sofa(3)), ErrBusy)
	require.ErrorIs(t, s.RemoveLine("sofa"), ErrBusy)
	require.ErrorIs(t, s.RemoveCoupon(), ErrBusy)
	require.ErrorIs(t, s.Reset(), ErrBusy)

	close(c.release)
	wg.Wait()
	assert.Equal(t, 1, c.calls)
	assert.Equal(t, StateCommitted, s.View().State)
}

func TestSession_CartErrorsPassThrough(t *testing.T) {
	s := newSession("s1", kasir, time.Now)
	require.ErrorIs(t, s.AddProduct(sofa(0)), cart.ErrOutOfStock)
	require.ErrorIs(t, s.SetQuantity("missing", 2), cart.ErrLineNotFound)
}
