package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/mabel-naski/internal/domain/order"
	"github.com/xenking/mabel-naski/internal/domain/sale"
)

var _ sale.StockProcessor = (*SaleProcessor)(nil)

// SaleProcessor is the atomic stock procedure for cashier sales.
type SaleProcessor struct {
	pool *pgxpool.Pool
}

// NewSaleProcessor returns a SaleProcessor that uses the given pool.
func NewSaleProcessor(pool *pgxpool.Pool) *SaleProcessor {
	return &SaleProcessor{pool: pool}
}

// ProcessSale decrements stock for every line of o and inserts o in one
// transaction. A shortfall is reported as an unsuccessful Outcome, not an
// error; any error rolls back the decrement as well.
func (p *SaleProcessor) ProcessSale(ctx context.Context, o *order.Order) (sale.Outcome, error) {
	if o.Payment.LessThan(o.Total) {
		return sale.Outcome{Message: "Pembayaran kurang dari total belanja"}, nil
	}

	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return sale.Outcome{}, fmt.Errorf("beginning sale tx: %w", err)
	}
	defer rollback(ctx, tx)

	if err := decrementStock(ctx, tx, o.Items); err != nil {
		var (
			short   *order.InsufficientStockError
			missing *ProductMissingError
		)
		if errors.As(err, &short) || errors.As(err, &missing) {
			return sale.Outcome{Message: err.Error()}, nil
		}
		return sale.Outcome{}, err
	}

	if err := insertOrder(ctx, tx, o); err != nil {
		return sale.Outcome{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return sale.Outcome{}, fmt.Errorf("committing sale tx: %w", err)
	}

	return sale.Outcome{
		Success: true,
		Message: "Transaksi berhasil",
		Change:  o.Payment.Sub(o.Total),
	}, nil
}
