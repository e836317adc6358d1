package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/mabel-naski/internal/domain/auth"
	"github.com/xenking/mabel-naski/internal/domain/category"
	"github.com/xenking/mabel-naski/internal/domain/coupon"
	"github.com/xenking/mabel-naski/internal/domain/product"
	"github.com/xenking/mabel-naski/internal/storage/postgres"
)

type productJSON struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Category    string          `json:"category"`
	Material    string          `json:"material"`
	Dimensions  string          `json:"dimensions"`
	Color       string          `json:"color"`
	Image       string          `json:"image"`
}

func main() {
	var (
		databaseURL  string
		productsFile string
		superAdmin   string
		kasir        string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.StringVar(&superAdmin, "super-admin", "", "user ID to grant super_admin (or MABEL_SEED_SUPER_ADMIN env)")
	flag.StringVar(&kasir, "kasir", "", "comma-separated user IDs to grant kasir")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if superAdmin == "" {
		superAdmin = os.Getenv("MABEL_SEED_SUPER_ADMIN")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	roles := map[string]auth.Role{}
	if superAdmin != "" {
		roles[superAdmin] = auth.RoleSuperAdmin
	}
	for _, id := range strings.Split(kasir, ",") {
		if id = strings.TrimSpace(id); id != "" {
			roles[id] = auth.RoleKasir
		}
	}

	if err := run(ctx, databaseURL, productsFile, roles); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile string, roles map[string]auth.Role) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	products, err := readProducts(productsFile)
	if err != nil {
		return err
	}

	if err := seedCategories(ctx, postgres.NewCategoryRepository(pool), products); err != nil {
		return errors.Wrap(err, "seed categories")
	}

	if err := seedProducts(ctx, postgres.NewProductRepository(pool), products); err != nil {
		return errors.Wrap(err, "seed products")
	}

	if err := seedCoupons(ctx, postgres.NewCouponRepository(pool)); err != nil {
		return errors.Wrap(err, "seed coupons")
	}

	if err := seedRoles(ctx, pool, roles); err != nil {
		return errors.Wrap(err, "seed roles")
	}

	return nil
}

func readProducts(path string) ([]product.Product, error) {
	slog.Info("reading products file", slog.String("path", path))

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read products file")
	}

	var raw []productJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "parse products JSON")
	}

	products := make([]product.Product, len(raw))
	for i, p := range raw {
		products[i] = product.Product{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Price:       p.Price,
			Stock:       p.Stock,
			Category:    p.Category,
			Material:    p.Material,
			Dimensions:  p.Dimensions,
			Color:       p.Color,
			Image:       p.Image,
		}
		if err := products[i].Check(); err != nil {
			return nil, errors.Wrapf(err, "product %s", p.ID)
		}
	}
	return products, nil
}

func seedCategories(ctx context.Context, repo *postgres.CategoryRepository, products []product.Product) error {
	seen := map[string]bool{}
	for _, p := range products {
		if p.Category == "" || seen[p.Category] {
			continue
		}
		seen[p.Category] = true

		err := repo.Create(ctx, &category.Category{ID: uuid.NewString(), Name: p.Category})
		switch {
		case errors.Is(err, category.ErrDuplicate):
			slog.Info("category exists", slog.String("name", p.Category))
		case err != nil:
			return errors.Wrapf(err, "create category %s", p.Category)
		default:
			slog.Info("created category", slog.String("name", p.Category))
		}
	}
	return nil
}

// seedProducts updates existing products in place so re-seeding resets
// prices and stock without touching order counts.
func seedProducts(ctx context.Context, repo *postgres.ProductRepository, products []product.Product) error {
	slog.Info("upserting products", slog.Int("count", len(products)))

	for i := range products {
		p := &products[i]
		err := repo.Update(ctx, p)
		if errors.Is(err, product.ErrNotFound) {
			err = repo.Create(ctx, p)
		}
		if err != nil {
			return errors.Wrapf(err, "upsert product %s", p.ID)
		}

		slog.Info("upserted product", slog.String("id", p.ID), slog.String("name", p.Name))
	}

	return nil
}

func seedCoupons(ctx context.Context, repo *postgres.CouponRepository) error {
	slog.Info("seeding store coupons")

	now := time.Now()
	coupons := []coupon.Coupon{
		{
			Code:          "DISKON10",
			DiscountType:  coupon.DiscountPercentage,
			DiscountValue: decimal.NewFromInt(10),
		},
		{
			Code:          "HEMAT500",
			DiscountType:  coupon.DiscountFixed,
			DiscountValue: decimal.NewFromInt(500_000),
			MinPurchase:   decimal.NewFromInt(5_000_000),
		},
		{
			Code:               "RUANGMAKAN15",
			DiscountType:       coupon.DiscountPercentage,
			DiscountValue:      decimal.NewFromInt(15),
			ApplicableProducts: []string{"meja-makan-6-kursi", "kursi-makan-rotan"},
			MaxUses:            100,
		},
	}
	for i := range coupons {
		c := &coupons[i]
		c.ID = uuid.NewString()
		c.ValidFrom = now
		c.Active = true
		c.Normalize()
		if err := c.Check(); err != nil {
			return errors.Wrapf(err, "coupon %s", c.Code)
		}
	}

	if err := repo.UpsertBatch(ctx, coupons); err != nil {
		return err
	}
	for _, c := range coupons {
		slog.Info("upserted coupon", slog.String("code", c.Code), slog.String("type", string(c.DiscountType)))
	}

	return nil
}

func seedRoles(ctx context.Context, pool *pgxpool.Pool, roles map[string]auth.Role) error {
	users := postgres.NewUserRepository(pool)
	for id, role := range roles {
		if err := users.SetRole(ctx, id, role); err != nil {
			return errors.Wrapf(err, "set role of %s", id)
		}
		slog.Info("assigned role", slog.String("user", id), slog.String("role", string(role)))
	}
	return nil
}
