// Binary seed-db populates a fresh database with the full catalog of
// furniture variants, the standing discount coupons, and a bootstrap manager
// account so the first privileged operations can be performed.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/woodgrove/furnish/internal/domain/account"
	"github.com/woodgrove/furnish/internal/domain/catalog"
	"github.com/woodgrove/furnish/internal/domain/coupon"
	"github.com/woodgrove/furnish/internal/repository"
)

func main() {
	var (
		databaseURL     string
		managerEmail    string
		managerPassword string
		quantity        int
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&managerEmail, "manager-email", "", "bootstrap manager email (or FURNISH_SEED_MANAGER_EMAIL env)")
	flag.StringVar(&managerPassword, "manager-password", "", "bootstrap manager password (or FURNISH_SEED_MANAGER_PASSWORD env)")
	flag.IntVar(&quantity, "quantity", 10, "initial on-hand quantity per catalog row")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if managerEmail == "" {
		managerEmail = os.Getenv("FURNISH_SEED_MANAGER_EMAIL")
	}
	if managerPassword == "" {
		managerPassword = os.Getenv("FURNISH_SEED_MANAGER_PASSWORD")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, managerEmail, managerPassword, quantity); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, managerEmail, managerPassword string, quantity int) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedCatalog(ctx, repository.NewCatalogRepository(pool), quantity); err != nil {
		return errors.Wrap(err, "seed catalog")
	}

	if err := seedCoupons(ctx, repository.NewCouponRepository(pool)); err != nil {
		return errors.Wrap(err, "seed coupons")
	}

	if managerEmail != "" && managerPassword != "" {
		if err := seedManager(ctx, repository.NewAccountRepository(pool), managerEmail, managerPassword); err != nil {
			return errors.Wrap(err, "seed manager")
		}
	}

	return nil
}

// basePrices anchors the unit price per furniture kind; attribute premiums
// are added on top.
var basePrices = map[catalog.Kind]decimal.Decimal{
	catalog.KindDiningTable: decimal.NewFromInt(300),
	catalog.KindWorkDesk:    decimal.NewFromInt(250),
	catalog.KindCoffeeTable: decimal.NewFromInt(150),
	catalog.KindWorkChair:   decimal.NewFromInt(120),
	catalog.KindGamingChair: decimal.NewFromInt(200),
}

var materialPremiums = map[string]decimal.Decimal{
	"wood":    decimal.NewFromInt(50),
	"metal":   decimal.NewFromInt(80),
	"glass":   decimal.NewFromInt(70),
	"plastic": decimal.Zero,
}

func seedCatalog(ctx context.Context, repo *repository.CatalogRepository, quantity int) error {
	variants := allVariants()

	slog.Info("upserting catalog rows", slog.Int("count", len(variants)))

	for _, v := range variants {
		price := basePrices[v.Kind]
		if v.Kind.IsTable() {
			price = price.Add(materialPremiums[v.Material])
		} else {
			if v.Adjustable {
				price = price.Add(decimal.NewFromInt(30))
			}
			if v.Armrest {
				price = price.Add(decimal.NewFromInt(20))
			}
		}

		d := v.Dimensions()
		row := catalog.Row{
			Kind:       v.Kind,
			Color:      v.Color,
			Material:   v.Material,
			Adjustable: v.Adjustable,
			Armrest:    v.Armrest,
			Width:      d.Width,
			Depth:      d.Depth,
			Height:     d.Height,
			Price:      price,
			Name:       displayName(v),
			Description: fmt.Sprintf("%s, %dx%dx%d cm",
				displayName(v), d.Width, d.Depth, d.Height),
			Quantity: quantity,
		}
		if err := repo.Upsert(ctx, row); err != nil {
			return errors.Wrapf(err, "upsert %s", v.Label())
		}

		slog.Info("upserted catalog row", slog.String("variant", v.Label()), slog.String("price", price.String()))
	}

	return nil
}

// allVariants enumerates every purchasable variant in a fixed order so a
// fresh database gets deterministic row IDs.
func allVariants() []catalog.Variant {
	var out []catalog.Variant
	for _, kind := range []catalog.Kind{catalog.KindDiningTable, catalog.KindWorkDesk, catalog.KindCoffeeTable} {
		for _, color := range kind.Colors() {
			for _, material := range kind.Materials() {
				v, err := catalog.NewTableVariant(kind, color, material)
				if err != nil {
					panic(err) // spec sets are static, cannot fail
				}
				out = append(out, v)
			}
		}
	}
	for _, kind := range []catalog.Kind{catalog.KindWorkChair, catalog.KindGamingChair} {
		for _, color := range kind.Colors() {
			for _, adjustable := range []bool{false, true} {
				for _, armrest := range []bool{false, true} {
					v, err := catalog.NewChairVariant(kind, color, adjustable, armrest)
					if err != nil {
						panic(err)
					}
					out = append(out, v)
				}
			}
		}
	}
	return out
}

func displayName(v catalog.Variant) string {
	label := v.Label()
	label = strings.ReplaceAll(label, "_", " ")
	words := strings.Fields(label)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func seedCoupons(ctx context.Context, repo *repository.CouponRepository) error {
	slog.Info("seeding standing coupons")

	seeds := []struct {
		code    string
		percent int
	}{
		{"SAVE10", 10},
		{"SAVE20", 20},
		{"WELCOME5", 5},
	}

	for _, s := range seeds {
		c, err := coupon.New(s.code, s.percent)
		if err != nil {
			return errors.Wrapf(err, "build coupon %s", s.code)
		}
		if err := repo.Upsert(ctx, c); err != nil {
			return errors.Wrapf(err, "upsert coupon %s", s.code)
		}

		slog.Info("upserted coupon", slog.String("code", s.code), slog.Int("percent", s.percent))
	}

	return nil
}

func seedManager(ctx context.Context, repo *repository.AccountRepository, email, password string) error {
	slog.Info("seeding bootstrap manager", slog.String("email", email))

	svc := account.NewService(repo, 0)
	if _, err := svc.RegisterManager(ctx, "Bootstrap Manager", email, password); err != nil {
		if errors.Is(err, account.ErrEmailTaken) {
			slog.Info("manager already exists", slog.String("email", email))
			return nil
		}
		return errors.Wrap(err, "register manager")
	}

	return nil
}
