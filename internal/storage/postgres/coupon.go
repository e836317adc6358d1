package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/mabel-naski/internal/domain/coupon"
)

const couponColumns = `id, code, discount_type, discount_value, min_purchase, applicable_products,
	max_uses, used_count, valid_from, valid_until, is_active, created_at, updated_at`

const (
	getCouponByCodeSQL = `SELECT ` + couponColumns + ` FROM coupons WHERE code = UPPER($1)`

	getCouponSQL = `SELECT ` + couponColumns + ` FROM coupons WHERE id = $1`

	listCouponsSQL = `SELECT ` + couponColumns + ` FROM coupons ORDER BY created_at DESC`

	markCouponUsedSQL = `UPDATE coupons SET used_count = used_count + 1, updated_at = now()
		WHERE code = UPPER($1)`

	createCouponSQL = `INSERT INTO coupons
		(id, code, discount_type, discount_value, min_purchase, applicable_products,
		 max_uses, valid_from, valid_until, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING used_count, created_at, updated_at`

	updateCouponSQL = `UPDATE coupons SET
		code = $2, discount_type = $3, discount_value = $4, min_purchase = $5,
		applicable_products = $6, max_uses = $7, valid_from = $8, valid_until = $9,
		is_active = $10, updated_at = now()
		WHERE id = $1
		RETURNING used_count, created_at, updated_at`

	deleteCouponSQL = `DELETE FROM coupons WHERE id = $1`

	upsertCouponSQL = `INSERT INTO coupons
		(id, code, discount_type, discount_value, min_purchase, applicable_products,
		 max_uses, valid_from, valid_until, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (code) DO UPDATE SET
		discount_type = EXCLUDED.discount_type, discount_value = EXCLUDED.discount_value,
		min_purchase = EXCLUDED.min_purchase, applicable_products = EXCLUDED.applicable_products,
		max_uses = EXCLUDED.max_uses, valid_from = EXCLUDED.valid_from,
		valid_until = EXCLUDED.valid_until, is_active = EXCLUDED.is_active, updated_at = now()`
)

var _ coupon.Store = (*CouponRepository)(nil)

// CouponRepository implements coupon.Store backed by PostgreSQL.
type CouponRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository returns a CouponRepository that uses the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// FindByCode looks up a coupon by code regardless of its active flag; the
// caller decides eligibility. Returns coupon.ErrNotFound when absent.
func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, getCouponByCodeSQL, code)
	if err != nil {
		return nil, fmt.Errorf("finding coupon by code %q: %w", code, err)
	}
	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrNotFound
		}
		return nil, fmt.Errorf("finding coupon by code %q: %w", code, err)
	}
	return &c, nil
}

// Get looks up a coupon by id. Returns coupon.ErrNotFound when absent.
func (r *CouponRepository) Get(ctx context.Context, id string) (*coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, getCouponSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting coupon %q: %w", id, err)
	}
	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrNotFound
		}
		return nil, fmt.Errorf("getting coupon %q: %w", id, err)
	}
	return &c, nil
}

// MarkUsed increments the coupon's used count.
func (r *CouponRepository) MarkUsed(ctx context.Context, code string) error {
	tag, err := r.pool.Exec(ctx, markCouponUsedSQL, code)
	if err != nil {
		return fmt.Errorf("marking coupon %q used: %w", code, err)
	}
	if tag.RowsAffected() == 0 {
		return coupon.ErrNotFound
	}
	return nil
}

// List returns all coupons, newest first.
func (r *CouponRepository) List(ctx context.Context) ([]coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, listCouponsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing coupons: %w", err)
	}
	return pgx.CollectRows(rows, scanCoupon)
}

// Create inserts a coupon. Returns coupon.ErrDuplicateCode when the code is
// taken.
func (r *CouponRepository) Create(ctx context.Context, c *coupon.Coupon) error {
	err := r.pool.QueryRow(ctx, createCouponSQL, couponArgs(c)...).
		Scan(&c.UsedCount, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return coupon.ErrDuplicateCode
		}
		return fmt.Errorf("creating coupon %q: %w", c.Code, err)
	}
	return nil
}

// Update overwrites the coupon definition. The used count is preserved.
func (r *CouponRepository) Update(ctx context.Context, c *coupon.Coupon) error {
	err := r.pool.QueryRow(ctx, updateCouponSQL, couponArgs(c)...).
		Scan(&c.UsedCount, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return coupon.ErrNotFound
		case isUniqueViolation(err):
			return coupon.ErrDuplicateCode
		}
		return fmt.Errorf("updating coupon %q: %w", c.ID, err)
	}
	return nil
}

// Delete removes a coupon.
func (r *CouponRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteCouponSQL, id)
	if err != nil {
		return fmt.Errorf("deleting coupon %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return coupon.ErrNotFound
	}
	return nil
}

// UpsertBatch inserts or updates coupons by code in a single round trip.
func (r *CouponRepository) UpsertBatch(ctx context.Context, coupons []coupon.Coupon) error {
	batch := &pgx.Batch{}
	for i := range coupons {
		batch.Queue(upsertCouponSQL, couponArgs(&coupons[i])...)
	}
	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upserting %d coupons: %w", len(coupons), err)
	}
	return nil
}

func couponArgs(c *coupon.Coupon) []any {
	return []any{
		c.ID, c.Code, string(c.DiscountType), c.DiscountValue, c.MinPurchase,
		c.ApplicableProducts, c.MaxUses, c.ValidFrom, c.ValidUntil, c.Active,
	}
}

func scanCoupon(row pgx.CollectableRow) (coupon.Coupon, error) {
	var (
		c     coupon.Coupon
		dtype string
	)
	err := row.Scan(
		&c.ID, &c.Code, &dtype, &c.DiscountValue, &c.MinPurchase, &c.ApplicableProducts,
		&c.MaxUses, &c.UsedCount, &c.ValidFrom, &c.ValidUntil, &c.Active,
		&c.CreatedAt, &c.UpdatedAt,
	)
	c.DiscountType = coupon.DiscountType(dtype)
	return c, err
}
