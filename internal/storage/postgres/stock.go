package postgres

import (
	"context"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"

	"github.com/xenking/mabel-naski/internal/domain/order"
)

const (
	lockStockSQL = `SELECT id, name, stock FROM products WHERE id = ANY($1) ORDER BY id FOR UPDATE`

	decrementStockSQL = `UPDATE products
		SET stock = stock - $2, order_count = order_count + $2, updated_at = now()
		WHERE id = $1`
)

// ProductMissingError is returned when an order line references a product
// that no longer exists.
type ProductMissingError struct {
	ProductID string
	Name      string
}

func (e *ProductMissingError) Error() string {
	name := e.Name
	if name == "" {
		name = e.ProductID
	}
	return fmt.Sprintf("Produk %s tidak ditemukan", name)
}

// decrementStock locks the product rows of items in id order, verifies every
// line and only then decrements all of them. On any shortfall nothing is
// written and an *order.InsufficientStockError or *ProductMissingError is
// returned for the first offending line.
func decrementStock(ctx context.Context, tx pgx.Tx, items []order.Item) error {
	want := make(map[string]int, len(items))
	for _, it := range items {
		want[it.ProductID] += it.Quantity
	}
	ids := make([]string, 0, len(want))
	for id := range want {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	type stockRow struct {
		name  string
		stock int
	}
	rows, err := tx.Query(ctx, lockStockSQL, ids)
	if err != nil {
		return fmt.Errorf("locking stock: %w", err)
	}
	locked := make(map[string]stockRow, len(ids))
	var (
		id string
		r  stockRow
	)
	_, err = pgx.ForEachRow(rows, []any{&id, &r.name, &r.stock}, func() error {
		locked[id] = r
		return nil
	})
	if err != nil {
		return fmt.Errorf("locking stock: %w", err)
	}

	for _, it := range items {
		r, ok := locked[it.ProductID]
		if !ok {
			return &ProductMissingError{ProductID: it.ProductID, Name: it.Name}
		}
		if want[it.ProductID] > r.stock {
			return &order.InsufficientStockError{
				ProductID: it.ProductID,
				Name:      r.name,
				Requested: want[it.ProductID],
				Available: r.stock,
			}
		}
	}

	batch := &pgx.Batch{}
	for _, id := range ids {
		batch.Queue(decrementStockSQL, id, want[id])
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("decrementing stock: %w", err)
	}
	return nil
}
