package storefront

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xenking/mabel-naski/internal/domain/auth"
	"github.com/xenking/mabel-naski/internal/domain/order"
	"github.com/xenking/mabel-naski/internal/domain/product"
	"github.com/xenking/mabel-naski/internal/domain/settings"
	"github.com/xenking/mabel-naski/internal/events"
)

// --- Mock implementations ---

type mockProductRepo struct {
	byID   map[string]product.Product
	getErr error
}

func (m *mockProductRepo) List(context.Context, product.ListParams) (*product.Page, error) {
	return &product.Page{}, nil
}

func (m *mockProductRepo) GetByID(_ context.Context, id string) (*product.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return &p, nil
}

func (m *mockProductRepo) GetByIDs(_ context.Context, ids []string) ([]product.Product, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	var out []product.Product
	for _, id := range ids {
		if p, ok := m.byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type mockOrderRepo struct {
	created   []*order.Order
	confirmed string
	err       error
}

func (m *mockOrderRepo) Create(_ context.Context, o *order.Order) error {
	if m.err != nil {
		return m.err
	}
	m.created = append(m.created, o)
	return nil
}

func (m *mockOrderRepo) GetByID(context.Context, string) (*order.Order, error) {
	return nil, order.ErrNotFound
}

func (m *mockOrderRepo) List(context.Context, order.ListParams) ([]order.Order, error) {
	return nil, nil
}

func (m *mockOrderRepo) Confirm(_ context.Context, id, actorID string, at time.Time) (*order.Order, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.confirmed = id
	return &order.Order{ID: id, Status: order.StatusConfirmed, ConfirmedBy: actorID, ConfirmedAt: &at}, nil
}

type staticSettings struct {
	s settings.Settings
}

func (m *staticSettings) Get(context.Context) (*settings.Settings, error) {
	s := m.s
	return &s, nil
}

func (m *staticSettings) Update(context.Context, *settings.Settings) error { return nil }

type recordingPublisher struct {
	subjects []string
	err      error
}

func (p *recordingPublisher) Publish(_ context.Context, subject, _ string, _ []byte) error {
	p.subjects = append(p.subjects, subject)
	return p.err
}

type countingInvalidator struct {
	n   int
	err error
}

func (c *countingInvalidator) Invalidate(context.Context) error {
	c.n++
	return c.err
}

// --- Helpers ---

func newProducts() *mockProductRepo {
	return &mockProductRepo{byID: map[string]product.Product{
		"sofa": {ID: "sofa", Name: "Sofa Minimalis", Price: decimal.NewFromInt(500_000), Stock: 3},
		"meja": {ID: "meja", Name: "Meja Makan", Price: decimal.NewFromInt(1_250_000), Stock: 1},
	}}
}

func newService(t *testing.T, products *mockProductRepo, orders *mockOrderRepo, wa string) (*Service, *recordingPublisher, *countingInvalidator) {
	t.Helper()
	pub := &recordingPublisher{}
	inv := &countingInvalidator{}
	svc := NewService(products, orders, &staticSettings{s: settings.Settings{WhatsAppNumber: wa}},
		pub, "", time.UTC, zaptest.NewLogger(t), inv)
	return svc, pub, inv
}

// --- Tests ---

func TestService_Checkout(t *testing.T) {
	orders := &mockOrderRepo{}
	svc, pub, _ := newService(t, newProducts(), orders, "0812-3456-7890")

	res, err := svc.Checkout(context.Background(), Request{
		CustomerName:  "Budi",
		CustomerPhone: "08123",
		Lines: []LineRequest{
			{ProductID: "sofa", Quantity: 2},
			{ProductID: "meja", Quantity: 1},
		},
	})
	require.NoError(t, err)

	require.Len(t, orders.created, 1)
	o := orders.created[0]
	assert.Equal(t, order.StatusPending, o.Status)
	assert.True(t, decimal.NewFromInt(2_250_000).Equal(o.Total), "total %s", o.Total)
	assert.NotNil(t, o.WhatsAppSentAt)
	assert.Equal(t, "Budi", o.CustomerName)
	assert.Equal(t, []string{events.SubjectOrderCreated}, pub.subjects)

	want := "Halo, saya ingin memesan:\n\n" +
		"1. Sofa Minimalis\n   Jumlah: 2\n   Harga: Rp 1.000.000\n\n" +
		"2. Meja Makan\n   Jumlah: 1\n   Harga: Rp 1.250.000\n\n" +
		"Total: Rp 2.250.000\n\nTerima kasih!"
	assert.Equal(t, want, res.Message)

	require.True(t, strings.HasPrefix(res.WhatsAppURL, "https://wa.me/6281234567890?text="))
	assert.NotContains(t, res.WhatsAppURL, "+")
	u, err := url.Parse(res.WhatsAppURL)
	require.NoError(t, err)
	assert.Equal(t, want, u.Query().Get("text"))
}

func TestService_CheckoutErrors(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		wa      string
		check   func(t *testing.T, err error)
		orderOK bool
	}{
		{
			name: "missing customer",
			req:  Request{Lines: []LineRequest{{ProductID: "sofa", Quantity: 1}}},
			wa:   "62811",
			check: func(t *testing.T, err error) {
				require.ErrorIs(t, err, ErrMissingCustomer)
			},
		},
		{
			name: "empty lines",
			req:  Request{CustomerName: "A", CustomerPhone: "1"},
			wa:   "62811",
			check: func(t *testing.T, err error) {
				require.ErrorIs(t, err, ErrEmptyItems)
			},
		},
		{
			name: "zero quantity",
			req:  Request{CustomerName: "A", CustomerPhone: "1", Lines: []LineRequest{{ProductID: "sofa"}}},
			wa:   "62811",
			check: func(t *testing.T, err error) {
				var qe *InvalidQuantityError
				require.ErrorAs(t, err, &qe)
				assert.Equal(t, "sofa", qe.ProductID)
			},
		},
		{
			name: "unknown product",
			req:  Request{CustomerName: "A", CustomerPhone: "1", Lines: []LineRequest{{ProductID: "lemari", Quantity: 1}}},
			wa:   "62811",
			check: func(t *testing.T, err error) {
				var nf *ProductNotFoundError
				require.ErrorAs(t, err, &nf)
				assert.Equal(t, "lemari", nf.ProductID)
			},
		},
		{
			name: "over stock",
			req:  Request{CustomerName: "A", CustomerPhone: "1", Lines: []LineRequest{{ProductID: "meja", Quantity: 2}}},
			wa:   "62811",
			check: func(t *testing.T, err error) {
				var se *order.InsufficientStockError
				require.ErrorAs(t, err, &se)
				assert.Equal(t, 1, se.Available)
			},
		},
		{
			name: "no whatsapp number",
			req:  Request{CustomerName: "A", CustomerPhone: "1", Lines: []LineRequest{{ProductID: "sofa", Quantity: 1}}},
			check: func(t *testing.T, err error) {
				require.ErrorIs(t, err, ErrNoWhatsApp)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orders := &mockOrderRepo{}
			svc, _, _ := newService(t, newProducts(), orders, tt.wa)

			_, err := svc.Checkout(context.Background(), tt.req)
			tt.check(t, err)
			assert.Empty(t, orders.created)
		})
	}
}

func TestService_CheckoutProductLookupError(t *testing.T) {
	products := newProducts()
	products.getErr = errors.New("db down")
	svc, _, _ := newService(t, products, &mockOrderRepo{}, "62811")

	_, err := svc.Checkout(context.Background(), Request{
		CustomerName: "A", CustomerPhone: "1",
		Lines: []LineRequest{{ProductID: "sofa", Quantity: 1}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get products")
}

func TestService_Confirm(t *testing.T) {
	orders := &mockOrderRepo{}
	svc, pub, inv := newService(t, newProducts(), orders, "62811")
	admin := auth.Actor{UserID: "admin-1", Role: auth.RoleAdmin}

	o, err := svc.Confirm(context.Background(), admin, "o1")
	require.NoError(t, err)
	assert.Equal(t, order.StatusConfirmed, o.Status)
	assert.Equal(t, "admin-1", o.ConfirmedBy)
	assert.Equal(t, "o1", orders.confirmed)
	assert.Equal(t, []string{events.SubjectOrderConfirmed}, pub.subjects)
	assert.Equal(t, 1, inv.n)

	_, err = svc.Confirm(context.Background(), auth.Actor{UserID: "k", Role: auth.RoleKasir}, "o1")
	require.ErrorIs(t, err, auth.ErrForbidden)
}

func TestService_ConfirmNotPending(t *testing.T) {
	orders := &mockOrderRepo{err: order.ErrNotPending}
	svc, pub, _ := newService(t, newProducts(), orders, "62811")

	_, err := svc.Confirm(context.Background(), auth.Actor{UserID: "a", Role: auth.RoleSuperAdmin}, "o1")
	require.ErrorIs(t, err, order.ErrNotPending)
	assert.Empty(t, pub.subjects)
}

func TestService_NilLoggerWarnings(t *testing.T) {
	orders := &mockOrderRepo{}
	pub := &recordingPublisher{err: errors.New("nats down")}
	inv := &countingInvalidator{err: errors.New("redis down")}
	svc := NewService(newProducts(), orders, &staticSettings{s: settings.Settings{WhatsAppNumber: "62811"}},
		pub, "", time.UTC, nil, inv)

	_, err := svc.Checkout(context.Background(), Request{
		CustomerName: "A", CustomerPhone: "1",
		Lines: []LineRequest{{ProductID: "sofa", Quantity: 1}},
	})
	require.NoError(t, err)
	require.Len(t, orders.created, 1)

	_, err = svc.Confirm(context.Background(), auth.Actor{UserID: "admin-1", Role: auth.RoleAdmin}, "o1")
	require.NoError(t, err)
	assert.Equal(t, []string{events.SubjectOrderCreated, events.SubjectOrderConfirmed}, pub.subjects)
	assert.Equal(t, 1, inv.n)
}
