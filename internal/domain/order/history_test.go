package order

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type mockOrderRepo struct {
	orders   []Order
	err      error
	params   ListParams
	listCall int
}

func (m *mockOrderRepo) Create(_ context.Context, o *Order) error {
	m.orders = append(m.orders, *o)
	return m.err
}

func (m *mockOrderRepo) GetByID(_ context.Context, id string) (*Order, error) {
	for i := range m.orders {
		if m.orders[i].ID == id {
			return &m.orders[i], nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockOrderRepo) List(_ context.Context, params ListParams) ([]Order, error) {
	m.listCall++
	m.params = params
	return m.orders, m.err
}

func (m *mockOrderRepo) Confirm(_ context.Context, _, _ string, _ time.Time) (*Order, error) {
	return nil, errors.New("not implemented")
}

type memoryCache struct {
	days   map[string][]Order
	getErr error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{days: make(map[string][]Order)}
}

func (c *memoryCache) Get(_ context.Context, day string) ([]Order, bool, error) {
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	o, ok := c.days[day]
	return o, ok, nil
}

func (c *memoryCache) Set(_ context.Context, day string, orders []Order) error {
	c.days[day] = orders
	return nil
}

func (c *memoryCache) Delete(_ context.Context, day string) error {
	delete(c.days, day)
	return nil
}

func TestHistory_LoadTodaySinceLocalMidnight(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*60*60)
	// 2025-06-15 01:30 WIB is still 2025-06-14 in UTC.
	now := time.Date(2025, 6, 14, 18, 30, 0, 0, time.UTC)

	repo := &mockOrderRepo{orders: []Order{{ID: "o1", Status: StatusCompleted}}}
	h := NewHistory(repo, nil, jakarta, zaptest.NewLogger(t))
	h.now = func() time.Time { return now }

	got, err := h.LoadToday(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, StatusCompleted, repo.params.Status)
	assert.True(t, repo.params.Since.Equal(time.Date(2025, 6, 15, 0, 0, 0, 0, jakarta)),
		"since = %s", repo.params.Since)
}

func TestHistory_CacheAndInvalidate(t *testing.T) {
	repo := &mockOrderRepo{orders: []Order{{ID: "o1"}}}
	cache := newMemoryCache()
	h := NewHistory(repo, cache, time.UTC, zaptest.NewLogger(t))
	ctx := context.Background()

	_, err := h.LoadToday(ctx)
	require.NoError(t, err)
	_, err = h.LoadToday(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.listCall)

	repo.orders = append(repo.orders, Order{ID: "o2"})
	require.NoError(t, h.Invalidate(ctx))

	got, err := h.LoadToday(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, 2, repo.listCall)
}

func TestHistory_CacheErrorFallsThrough(t *testing.T) {
	repo := &mockOrderRepo{orders: []Order{{ID: "o1"}}}
	cache := newMemoryCache()
	cache.getErr = errors.New("redis down")
	h := NewHistory(repo, cache, time.UTC, zaptest.NewLogger(t))

	got, err := h.LoadToday(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestHistory_RepositoryError(t *testing.T) {
	repo := &mockOrderRepo{err: errors.New("timeout")}
	h := NewHistory(repo, nil, time.UTC, nil)

	_, err := h.LoadToday(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list today's orders")
}

func TestNewNumber(t *testing.T) {
	now := time.Date(2025, 6, 14, 18, 30, 0, 0, time.UTC)
	wib := time.FixedZone("WIB", 7*60*60)

	n := NewNumber("TRX", now, wib)
	assert.Regexp(t, `^TRX-20250615-[0-9A-F]{8}$`, n)
	assert.NotEqual(t, n, NewNumber("TRX", now, wib))
}
