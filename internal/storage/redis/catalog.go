package redis

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xenking/mabel-naski/internal/domain/product"
)

const catalogPrefix = "catalog:"

var _ product.Store = (*Catalog)(nil)

// Catalog caches storefront reads of a product.Store. Batch lookups used for
// pricing always go to the store. Every write drops the whole catalog cache.
type Catalog struct {
	store product.Store
	cache *Cache
	lg    *zap.Logger
}

// NewCatalog wraps store with cache.
func NewCatalog(store product.Store, cache *Cache, lg *zap.Logger) *Catalog {
	return &Catalog{store: store, cache: cache, lg: lg}
}

func listKey(p product.ListParams) string {
	return fmt.Sprintf("%slist:%s:%s:%d:%d", catalogPrefix, p.Category, p.Search, p.Page, p.PageSize)
}

// List returns a cached page when present.
func (c *Catalog) List(ctx context.Context, params product.ListParams) (*product.Page, error) {
	params = params.Normalize()
	key := listKey(params)

	var page product.Page
	if ok, err := c.cache.Get(ctx, key, &page); err != nil {
		c.lg.Warn("Catalog cache read failed", zap.String("key", key), zap.Error(err))
	} else if ok {
		return &page, nil
	}

	res, err := c.store.List(ctx, params)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, key, res); err != nil {
		c.lg.Warn("Catalog cache write failed", zap.String("key", key), zap.Error(err))
	}
	return res, nil
}

// GetByID returns a cached product when present.
func (c *Catalog) GetByID(ctx context.Context, id string) (*product.Product, error) {
	key := catalogPrefix + "product:" + id

	var p product.Product
	if ok, err := c.cache.Get(ctx, key, &p); err != nil {
		c.lg.Warn("Catalog cache read failed", zap.String("key", key), zap.Error(err))
	} else if ok {
		return &p, nil
	}

	res, err := c.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, key, res); err != nil {
		c.lg.Warn("Catalog cache write failed", zap.String("key", key), zap.Error(err))
	}
	return res, nil
}

// GetByIDs bypasses the cache.
func (c *Catalog) GetByIDs(ctx context.Context, ids []string) ([]product.Product, error) {
	return c.store.GetByIDs(ctx, ids)
}

// Create writes through and invalidates.
func (c *Catalog) Create(ctx context.Context, p *product.Product) error {
	if err := c.store.Create(ctx, p); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

// Update writes through and invalidates.
func (c *Catalog) Update(ctx context.Context, p *product.Product) error {
	if err := c.store.Update(ctx, p); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

// Delete writes through and invalidates.
func (c *Catalog) Delete(ctx context.Context, id string) error {
	if err := c.store.Delete(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

// Invalidate drops every cached catalog entry. It is called after stock
// changes.
func (c *Catalog) Invalidate(ctx context.Context) error {
	return c.cache.DeletePattern(ctx, catalogPrefix+"*")
}

func (c *Catalog) invalidate(ctx context.Context) {
	if err := c.Invalidate(ctx); err != nil {
		c.lg.Warn("Catalog cache invalidation failed", zap.Error(err))
	}
}
