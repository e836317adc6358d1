package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/mabel-naski/internal/domain/order"
)

const orderColumns = `id, order_number, items, subtotal, discount, total_price, payment, change,
	coupon_code, status, customer_name, customer_phone, cashier_id, created_at,
	confirmed_at, COALESCE(confirmed_by, ''), whatsapp_sent_at`

const (
	createOrderSQL = `INSERT INTO orders
		(id, order_number, items, subtotal, discount, total_price, payment, change,
		 coupon_code, status, customer_name, customer_phone, cashier_id, created_at, whatsapp_sent_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	getOrderByIDSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	lockOrderSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR UPDATE`

	listOrdersSQL = `SELECT ` + orderColumns + ` FROM orders
		WHERE ($1 = '' OR status = $1)
		  AND created_at >= $2
		ORDER BY created_at DESC
		LIMIT $3`

	confirmOrderSQL = `UPDATE orders SET status = 'confirmed', confirmed_at = $2, confirmed_by = $3
		WHERE id = $1`
)

// defaultOrderLimit bounds unfiltered back-office listings.
const defaultOrderLimit = 500

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	return insertOrder(ctx, r.pool, o)
}

// execer is satisfied by both the pool and a transaction.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// insertOrder writes o. The order items are serialized to JSON for storage
// in the JSONB column.
func insertOrder(ctx context.Context, db execer, o *order.Order) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshaling order items: %w", err)
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now()
	}

	_, err = db.Exec(ctx, createOrderSQL,
		o.ID, o.OrderNumber, itemsJSON, o.Subtotal, o.Discount, o.Total, o.Payment, o.Change,
		o.CouponCode, string(o.Status), o.CustomerName, o.CustomerPhone, o.CashierID,
		o.CreatedAt, o.WhatsAppSentAt,
	)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}

	return nil
}

// GetByID returns a single order.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	return &o, nil
}

// List returns orders matching the filter, newest first.
func (r *OrderRepository) List(ctx context.Context, params order.ListParams) ([]order.Order, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = defaultOrderLimit
	}
	rows, err := r.pool.Query(ctx, listOrdersSQL, string(params.Status), params.Since, limit)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// Confirm moves a pending order to confirmed and decrements stock for its
// lines in the same transaction. Stock never goes negative: a shortfall
// aborts with *order.InsufficientStockError.
func (r *OrderRepository) Confirm(ctx context.Context, id, actorID string, at time.Time) (*order.Order, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning confirm tx: %w", err)
	}
	defer rollback(ctx, tx)

	rows, err := tx.Query(ctx, lockOrderSQL, id)
	if err != nil {
		return nil, fmt.Errorf("locking order %q: %w", id, err)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("locking order %q: %w", id, err)
	}
	if o.Status != order.StatusPending {
		return nil, order.ErrNotPending
	}

	if err := decrementStock(ctx, tx, o.Items); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, confirmOrderSQL, id, at, actorID); err != nil {
		return nil, fmt.Errorf("confirming order %q: %w", id, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing confirm tx: %w", err)
	}

	o.Status = order.StatusConfirmed
	o.ConfirmedAt = &at
	o.ConfirmedBy = actorID
	return &o, nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o      order.Order
		items  []byte
		status string
	)
	err := row.Scan(
		&o.ID, &o.OrderNumber, &items, &o.Subtotal, &o.Discount, &o.Total, &o.Payment, &o.Change,
		&o.CouponCode, &status, &o.CustomerName, &o.CustomerPhone, &o.CashierID, &o.CreatedAt,
		&o.ConfirmedAt, &o.ConfirmedBy, &o.WhatsAppSentAt,
	)
	if err != nil {
		return o, err
	}
	o.Status = order.Status(status)
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return o, fmt.Errorf("unmarshaling items of order %q: %w", o.ID, err)
	}
	return o, nil
}
