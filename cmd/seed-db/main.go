// Command seed-db loads two demo sellers with products and a buyer with a
// filled cart, then prints a bearer token for each of them.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/market-orders/internal/domain/auth"
	"github.com/xenking/market-orders/internal/domain/product"
	"github.com/xenking/market-orders/internal/domain/user"
	"github.com/xenking/market-orders/internal/storage/postgres"
)

// Fixed ids keep reseeding idempotent.
var (
	buyerID   = uuid.MustParse("5f0c2a4e-1d3b-4c6a-9e8f-000000000001")
	sellerA   = uuid.MustParse("5f0c2a4e-1d3b-4c6a-9e8f-0000000000a1")
	sellerB   = uuid.MustParse("5f0c2a4e-1d3b-4c6a-9e8f-0000000000b1")
	catalogue = []product.Product{
		{ID: uuid.MustParse("9b1e7d52-6a40-4f1c-8d2e-000000000101"), SellerID: sellerA, Name: "Espresso beans 1kg", UnitPrice: decimal.RequireFromString("24.90")},
		{ID: uuid.MustParse("9b1e7d52-6a40-4f1c-8d2e-000000000102"), SellerID: sellerA, Name: "Hand grinder", UnitPrice: decimal.RequireFromString("59.00")},
		{ID: uuid.MustParse("9b1e7d52-6a40-4f1c-8d2e-000000000201"), SellerID: sellerB, Name: "Ceramic mug", UnitPrice: decimal.RequireFromString("8.50")},
	}
)

func main() {
	var (
		databaseURL string
		jwtSecret   string
		jwtIssuer   string
		jwtTTL      time.Duration
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&jwtSecret, "jwt-secret", "", "HMAC secret for the printed token (or MARKET_JWT_SECRET env)")
	flag.StringVar(&jwtIssuer, "jwt-issuer", "market", "iss claim of the printed token")
	flag.DurationVar(&jwtTTL, "jwt-ttl", 24*time.Hour, "lifetime of the printed token")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if jwtSecret == "" {
		jwtSecret = os.Getenv("MARKET_JWT_SECRET")
	}
	if jwtSecret == "" {
		slog.Error("JWT secret is required: set --jwt-secret or MARKET_JWT_SECRET")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	issuer := auth.NewIssuer([]byte(jwtSecret), jwtIssuer, jwtTTL)
	for _, who := range []struct {
		role string
		id   uuid.UUID
	}{
		{"buyer", buyerID},
		{"seller-a", sellerA},
		{"seller-b", sellerB},
	} {
		token, err := issuer.Issue(who.id)
		if err != nil {
			slog.Error("issue token", slog.String("role", who.role), slog.String("error", err.Error()))
			os.Exit(1)
		}
		fmt.Printf("%s\tAuthorization: Bearer %s\n", who.role, token)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL string) error {
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

	products := postgres.NewProductRepository(pool)
	for i := range catalogue {
		p := &catalogue[i]
		if err := products.Upsert(ctx, p); err != nil {
			return errors.Wrap(err, "seed products")
		}
		slog.Info("upserted product",
			slog.String("id", p.ID.String()),
			slog.String("seller", p.SellerID.String()),
			slog.String("name", p.Name),
		)
	}

	users := postgres.NewUserRepository(pool)
	for i, id := range []uuid.UUID{sellerA, sellerB} {
		seller := &user.User{ID: id, Email: fmt.Sprintf("seller%d@example.com", i+1)}
		if err := users.Upsert(ctx, seller); err != nil {
			return errors.Wrap(err, "seed sellers")
		}
	}

	buyer := &user.User{
		ID:    buyerID,
		Email: "buyer@example.com",
		Address: &user.Address{
			State:   "NY",
			City:    "New York",
			ZipCode: "10001",
			Street:  "350 5th Ave",
		},
		Point: decimal.NewFromInt(500),
		Cart: user.Cart{Items: []user.CartItem{
			{ProductID: catalogue[0].ID, Quantity: 2},
			{ProductID: catalogue[2].ID, Quantity: 4},
			{ProductID: catalogue[1].ID, Quantity: 1},
		}},
	}
	if err := users.Upsert(ctx, buyer); err != nil {
		return errors.Wrap(err, "seed buyer")
	}
	slog.Info("upserted buyer",
		slog.String("id", buyer.ID.String()),
		slog.Int("cart_items", len(buyer.Cart.Items)),
	)

	return nil
}
