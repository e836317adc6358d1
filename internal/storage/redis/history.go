package redis

import (
	"context"

	"github.com/xenking/mabel-naski/internal/domain/order"
)

const historyPrefix = "history:"

var _ order.HistoryCache = (*HistoryCache)(nil)

// HistoryCache stores the cashier's daily transaction list.
type HistoryCache struct {
	cache *Cache
}

// NewHistoryCache creates a HistoryCache.
func NewHistoryCache(cache *Cache) *HistoryCache {
	return &HistoryCache{cache: cache}
}

// Get returns the cached orders of day.
func (h *HistoryCache) Get(ctx context.Context, day string) ([]order.Order, bool, error) {
	var orders []order.Order
	ok, err := h.cache.Get(ctx, historyPrefix+day, &orders)
	return orders, ok, err
}

// Set caches the orders of day.
func (h *HistoryCache) Set(ctx context.Context, day string, orders []order.Order) error {
	return h.cache.Set(ctx, historyPrefix+day, orders)
}

// Delete drops the cached orders of day.
func (h *HistoryCache) Delete(ctx context.Context, day string) error {
	return h.cache.Delete(ctx, historyPrefix+day)
}
