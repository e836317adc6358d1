package main

import (
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/mabel-naski/internal/domain/coupon"
)

const (
	bloomCapacity = 1_000_000
	bloomFPR      = 0.001
	writeWorkers  = 4
)

// Upserter stores coupons by code.
type Upserter interface {
	UpsertBatch(ctx context.Context, coupons []coupon.Coupon) error
}

type stats struct {
	rows       int
	duplicates int
	invalid    int
}

// occurrence is the position of a row across all files.
type occurrence struct {
	file, line int
}

func (o occurrence) before(other occurrence) bool {
	if o.file != other.file {
		return o.file < other.file
	}
	return o.line < other.line
}

type fileResult struct {
	unique   []coupon.Coupon
	suspects map[string]suspect
	rows     int
	invalid  int
}

type suspect struct {
	at     occurrence
	coupon coupon.Coupon
	seen   int
}

// load reads every file twice. The first pass feeds codes into a bloom
// filter and collects the codes it has probably seen before; only those are
// tracked exactly in the second pass, which parses the files concurrently.
func load(ctx context.Context, files []string) ([]coupon.Coupon, stats, error) {
	suspects, err := findSuspects(ctx, files)
	if err != nil {
		return nil, stats{}, err
	}
	slog.Info("pass 1 complete", slog.Int("suspected_duplicates", len(suspects)))

	results := make([]fileResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	for i, path := range files {
		g.Go(func() error {
			res, err := parseFile(gctx, i, path, suspects)
			if err != nil {
				return errors.Wrapf(err, "parse %s", path)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, stats{}, err
	}

	var (
		st      stats
		out     []coupon.Coupon
		winners = make(map[string]suspect, len(suspects))
	)
	for _, res := range results {
		st.rows += res.rows
		st.invalid += res.invalid
		out = append(out, res.unique...)
		for code, s := range res.suspects {
			w, ok := winners[code]
			if !ok {
				winners[code] = s
				continue
			}
			if s.at.before(w.at) {
				s.seen += w.seen
				winners[code] = s
			} else {
				w.seen += s.seen
				winners[code] = w
			}
		}
	}
	for _, w := range winners {
		st.duplicates += w.seen - 1
		out = append(out, w.coupon)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, st, nil
}

// findSuspects returns the codes the bloom filter reported as already seen.
// A false positive only costs an exact comparison in the second pass.
func findSuspects(ctx context.Context, files []string) (map[string]struct{}, error) {
	filter := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
	suspects := make(map[string]struct{})
	for _, path := range files {
		err := readRows(ctx, path, func(_ int, row map[string]string) error {
			code := coupon.NormalizeCode(row["code"])
			if code == "" {
				return nil
			}
			if filter.TestAndAddString(code) {
				suspects[code] = struct{}{}
			}
			return nil
		})
		if err != nil {
			return nil, errors.Wrapf(err, "scan %s", path)
		}
	}
	return suspects, nil
}

func parseFile(ctx context.Context, idx int, path string, suspects map[string]struct{}) (fileResult, error) {
	now := time.Now()
	res := fileResult{suspects: make(map[string]suspect)}
	err := readRows(ctx, path, func(line int, row map[string]string) error {
		res.rows++
		c, err := parseRow(row, now)
		if err != nil {
			res.invalid++
			slog.Warn("skipping row",
				slog.String("file", path),
				slog.Int("line", line),
				slog.String("error", err.Error()),
			)
			return nil
		}
		if _, ok := suspects[c.Code]; !ok {
			res.unique = append(res.unique, c)
			return nil
		}
		s, ok := res.suspects[c.Code]
		if !ok {
			s = suspect{at: occurrence{file: idx, line: line}, coupon: c}
		}
		s.seen++
		res.suspects[c.Code] = s
		return nil
	})
	return res, err
}

// readRows calls fn for every data row keyed by header name. Line numbers
// are 1-based and count the header.
func readRows(ctx context.Context, path string, fn func(line int, row map[string]string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "open")
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrap(err, "create gzip reader")
	}
	defer func() { _ = gz.Close() }()

	r := csv.NewReader(gz)
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return errors.Wrap(err, "read header")
	}
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(header[i]))
	}

	row := make(map[string]string, len(header))
	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return errors.Wrapf(err, "read line %d", line)
		}
		clear(row)
		for i, name := range header {
			if i < len(record) {
				row[name] = strings.TrimSpace(record[i])
			}
		}
		if err := fn(line, row); err != nil {
			return err
		}
	}
}

// parseRow builds an active coupon from a CSV row. Products are listed in
// applicable_products separated by "|".
func parseRow(row map[string]string, now time.Time) (coupon.Coupon, error) {
	c := coupon.Coupon{
		ID:           uuid.NewString(),
		Code:         row["code"],
		DiscountType: coupon.DiscountType(strings.ToLower(row["discount_type"])),
		Active:       true,
		ValidFrom:    now,
	}

	var err error
	if c.DiscountValue, err = decimal.NewFromString(row["discount_value"]); err != nil {
		return c, errors.Wrap(err, "discount_value")
	}
	if v := row["min_purchase"]; v != "" {
		if c.MinPurchase, err = decimal.NewFromString(v); err != nil {
			return c, errors.Wrap(err, "min_purchase")
		}
	}
	if v := row["max_uses"]; v != "" {
		if c.MaxUses, err = strconv.Atoi(v); err != nil {
			return c, errors.Wrap(err, "max_uses")
		}
	}
	if v := row["valid_from"]; v != "" {
		if c.ValidFrom, err = time.Parse(time.RFC3339, v); err != nil {
			return c, errors.Wrap(err, "valid_from")
		}
	}
	if v := row["valid_until"]; v != "" {
		until, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return c, errors.Wrap(err, "valid_until")
		}
		c.ValidUntil = &until
	}
	if v := row["applicable_products"]; v != "" {
		for _, id := range strings.Split(v, "|") {
			if id = strings.TrimSpace(id); id != "" {
				c.ApplicableProducts = append(c.ApplicableProducts, id)
			}
		}
	}

	c.Normalize()
	if err := c.Check(); err != nil {
		return c, err
	}
	return c, nil
}

// write upserts coupons in batches with a few concurrent workers.
func write(ctx context.Context, repo Upserter, coupons []coupon.Coupon, batchSize int) error {
	if batchSize <= 0 {
		batchSize = 500
	}
	slog.Info("writing coupons to database", slog.Int("count", len(coupons)))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(writeWorkers)
	for start := 0; start < len(coupons); start += batchSize {
		end := min(start+batchSize, len(coupons))
		batch := coupons[start:end]
		g.Go(func() error {
			if err := repo.UpsertBatch(gctx, batch); err != nil {
				return errors.Wrapf(err, "upsert coupons %d-%d", start, end)
			}
			slog.Info("write progress", slog.Int("written", end), slog.Int("total", len(coupons)))
			return nil
		})
	}
	return g.Wait()
}
