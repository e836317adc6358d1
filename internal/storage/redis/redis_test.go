package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap/zaptest"

	"github.com/xenking/mabel-naski/internal/domain/order"
	"github.com/xenking/mabel-naski/internal/domain/product"
)

// newTestCache connects to MABEL_TEST_REDIS_URL (default
// redis://localhost:6379/15) and skips when Redis is unavailable.
func newTestCache(t *testing.T) *Cache {
	t.Helper()

	url := os.Getenv("MABEL_TEST_REDIS_URL")
	if url == "" {
		url = "redis://localhost:6379/15"
	}
	opts, err := goredis.ParseURL(url)
	require.NoError(t, err)
	client := goredis.NewClient(opts)

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available at %s: %v", url, err)
	}

	prefix := "test:" + t.Name() + ":"
	c := New(client, prefix, time.Minute)
	t.Cleanup(func() {
		_ = c.DeletePattern(context.Background(), "*")
		_ = client.Close()
	})
	return c
}

type countingStore struct {
	products map[string]product.Product
	lists    int
	gets     int
}

func (s *countingStore) List(context.Context, product.ListParams) (*product.Page, error) {
	s.lists++
	page := &product.Page{Page: 1, PageSize: product.DefaultPageSize}
	for _, p := range s.products {
		page.Products = append(page.Products, p)
	}
	page.Total = len(page.Products)
	return page, nil
}

func (s *countingStore) GetByID(_ context.Context, id string) (*product.Product, error) {
	s.gets++
	p, ok := s.products[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return &p, nil
}

func (s *countingStore) GetByIDs(context.Context, []string) ([]product.Product, error) {
	return nil, nil
}

func (s *countingStore) Create(_ context.Context, p *product.Product) error {
	s.products[p.ID] = *p
	return nil
}

func (s *countingStore) Update(_ context.Context, p *product.Product) error {
	s.products[p.ID] = *p
	return nil
}

func (s *countingStore) Delete(_ context.Context, id string) error {
	delete(s.products, id)
	return nil
}

func TestCache_SetGetDelete(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	var got string
	ok, err := c.Get(ctx, "missing", &got)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "k", "v"))
	ok, err = c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", got)

	require.NoError(t, c.Delete(ctx, "k"))
	ok, err = c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCatalog_CacheAsideAndInvalidate(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	store := &countingStore{products: map[string]product.Product{
		"sofa": {ID: "sofa", Name: "Sofa", Price: decimal.NewFromInt(500_000), Stock: 3},
	}}
	catalog := NewCatalog(store, c, zaptest.NewLogger(t))

	for i := 0; i < 3; i++ {
		page, err := catalog.List(ctx, product.ListParams{})
		require.NoError(t, err)
		require.Len(t, page.Products, 1)
		assert.True(t, decimal.NewFromInt(500_000).Equal(page.Products[0].Price))

		p, err := catalog.GetByID(ctx, "sofa")
		require.NoError(t, err)
		assert.Equal(t, 3, p.Stock)
	}
	assert.Equal(t, 1, store.lists)
	assert.Equal(t, 1, store.gets)

	require.NoError(t, catalog.Update(ctx, &product.Product{ID: "sofa", Name: "Sofa", Stock: 1}))

	p, err := catalog.GetByID(ctx, "sofa")
	require.NoError(t, err)
	assert.Equal(t, 1, p.Stock)
	assert.Equal(t, 2, store.gets)
}

func TestHistoryCache(t *testing.T) {
	h := NewHistoryCache(newTestCache(t))
	ctx := context.Background()

	_, ok, err := h.Get(ctx, "2025-06-15")
	require.NoError(t, err)
	assert.False(t, ok)

	orders := []order.Order{{
		ID:          "o1",
		OrderNumber: "TRX-1",
		Total:       decimal.NewFromInt(900_000),
		Items:       []order.Item{{ProductID: "sofa", Name: "Sofa", Price: decimal.NewFromInt(500_000), Quantity: 2}},
	}}
	require.NoError(t, h.Set(ctx, "2025-06-15", orders))

	got, ok, err := h.Get(ctx, "2025-06-15")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.True(t, decimal.NewFromInt(900_000).Equal(got[0].Total))
	assert.Equal(t, 2, got[0].Items[0].Quantity)

	require.NoError(t, h.Delete(ctx, "2025-06-15"))
	_, ok, err = h.Get(ctx, "2025-06-15")
	require.NoError(t, err)
	assert.False(t, ok)
}
