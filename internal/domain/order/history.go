package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
)

// HistoryCache stores today's completed orders keyed by local day.
type HistoryCache interface {
	Get(ctx context.Context, day string) ([]Order, bool, error)
	Set(ctx context.Context, day string, orders []Order) error
	Delete(ctx context.Context, day string) error
}

// History reads the cashier's completed transactions for the current day.
type History struct {
	orders Repository
	cache  HistoryCache
	loc    *time.Location
	lg     *zap.Logger
	now    func() time.Time
}

// NewHistory creates a History. A nil cache disables caching.
func NewHistory(orders Repository, cache HistoryCache, loc *time.Location, lg *zap.Logger) *History {
	if loc == nil {
		loc = time.Local
	}
	if lg == nil {
		lg = zap.NewNop()
	}
	return &History{orders: orders, cache: cache, loc: loc, lg: lg, now: time.Now}
}

// StartOfDay returns local midnight of t in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func (h *History) day() (string, time.Time) {
	start := StartOfDay(h.now(), h.loc)
	return start.Format("2006-01-02"), start
}

// LoadToday returns completed orders created since local midnight, newest
// first. Cache failures are logged and fall through to the repository.
func (h *History) LoadToday(ctx context.Context) ([]Order, error) {
	key, since := h.day()

	if h.cache != nil {
		cached, ok, err := h.cache.Get(ctx, key)
		switch {
		case err != nil:
			h.lg.Warn("History cache read failed", zap.Error(err))
		case ok:
			return cached, nil
		}
	}

	orders, err := h.orders.List(ctx, ListParams{Status: StatusCompleted, Since: since})
	if err != nil {
		return nil, errors.Wrap(err, "list today's orders")
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, key, orders); err != nil {
			h.lg.Warn("History cache write failed", zap.Error(err))
		}
	}
	return orders, nil
}

// Invalidate drops today's cached history so the next LoadToday reflects
// the latest commit.
func (h *History) Invalidate(ctx context.Context) error {
	if h.cache == nil {
		return nil
	}
	key, _ := h.day()
	if err := h.cache.Delete(ctx, key); err != nil {
		return errors.Wrap(err, "invalidate history cache")
	}
	return nil
}
