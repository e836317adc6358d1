// Command coupon-import bulk-loads coupons from gzip-compressed CSV files.
//
// Each file starts with a header row naming at least the columns code,
// discount_type and discount_value; min_purchase, max_uses, valid_from and
// valid_until are optional. A code that appears more than once across all
// files is imported from its first occurrence.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/go-faster/errors"

	"github.com/xenking/mabel-naski/internal/storage/postgres"
)

func main() {
	var (
		pattern     string
		databaseURL string
		batchSize   int
		dryRun      bool
	)

	flag.StringVar(&pattern, "files", "data/coupons*.csv.gz", "glob of gzip-compressed CSV files")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.IntVar(&batchSize, "batch-size", 500, "coupons per upsert batch")
	flag.BoolVar(&dryRun, "dry-run", false, "parse and de-duplicate without writing")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" && !dryRun {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, pattern, databaseURL, batchSize, dryRun); err != nil {
		slog.Error("coupon import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("coupon import completed successfully")
}

func run(ctx context.Context, pattern, databaseURL string, batchSize int, dryRun bool) error {
	files, err := filepath.Glob(pattern)
	if err != nil {
		return errors.Wrap(err, "match files")
	}
	if len(files) == 0 {
		return errors.Errorf("no files match %q", pattern)
	}

	coupons, stats, err := load(ctx, files)
	if err != nil {
		return err
	}
	slog.Info("coupons loaded",
		slog.Int("files", len(files)),
		slog.Int("rows", stats.rows),
		slog.Int("unique", len(coupons)),
		slog.Int("duplicates", stats.duplicates),
		slog.Int("invalid", stats.invalid),
	)

	if dryRun || len(coupons) == 0 {
		return nil
	}

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	return write(ctx, postgres.NewCouponRepository(pool), coupons, batchSize)
}
