//go:build integration

package postgres

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/xenking/market-orders/internal/domain/order"
	"github.com/xenking/market-orders/internal/domain/product"
	"github.com/xenking/market-orders/internal/domain/user"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	os.Exit(testMain(m))
}

func testMain(m *testing.M) int {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "market",
				"POSTGRES_PASSWORD": "market",
				"POSTGRES_DB":       "market",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	if err != nil {
		log.Fatalf("start postgres: %v", err)
	}
	defer func() { _ = c.Terminate(context.Background()) }()

	host, err := c.Host(ctx)
	if err != nil {
		log.Fatalf("host: %v", err)
	}
	port, err := c.MappedPort(ctx, "5432/tcp")
	if err != nil {
		log.Fatalf("mapped port: %v", err)
	}

	url := fmt.Sprintf("postgres://market:market@%s:%s/market?sslmode=disable", host, port.Port())
	testPool, err = NewPool(ctx, url)
	if err != nil {
		log.Fatalf("pool: %v", err)
	}
	defer testPool.Close()

	if err := RunMigrations(ctx, testPool); err != nil {
		log.Fatalf("migrations: %v", err)
	}
	// Idempotent DDL.
	if err := RunMigrations(ctx, testPool); err != nil {
		log.Fatalf("migrations rerun: %v", err)
	}

	return m.Run()
}

func testAddress(street string) user.Address {
	return user.Address{State: "NY", City: "New York", ZipCode: "10001", Street: street}
}

func seedProduct(t *testing.T, seller uuid.UUID, price string) product.Product {
	t.Helper()
	p := product.Product{
		ID:        uuid.New(),
		SellerID:  seller,
		Name:      "product " + price,
		UnitPrice: decimal.RequireFromString(price),
	}
	require.NoError(t, NewProductRepository(testPool).Upsert(context.Background(), &p))
	return p
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(testPool)

	addr := testAddress("5 Main St")
	u := &user.User{
		ID:      uuid.New(),
		Email:   uuid.NewString() + "@example.com",
		Address: &addr,
		Point:   decimal.RequireFromString("120.5"),
		Cart: user.Cart{Items: []user.CartItem{
			{ProductID: uuid.New(), Quantity: 2},
		}},
	}
	require.NoError(t, repo.Upsert(ctx, u))

	got, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, got.Email)
	assert.Equal(t, addr, *got.Address)
	assert.True(t, u.Point.Equal(got.Point))
	assert.Equal(t, u.Cart.Items, got.Cart.Items)

	got.Cart = user.Cart{}
	got.Address = nil
	got.Point = decimal.Zero
	require.NoError(t, repo.Save(ctx, got))

	again, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, again.Cart.Empty())
	assert.Nil(t, again.Address)
	assert.True(t, again.Point.IsZero())

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, user.ErrNotFound)
	assert.ErrorIs(t, repo.Save(ctx, &user.User{ID: uuid.New()}), user.ErrNotFound)
}

func TestProductRepository_GetByIDs(t *testing.T) {
	seller := uuid.New()
	a := seedProduct(t, seller, "1.99")
	b := seedProduct(t, seller, "5")

	got, err := NewProductRepository(testPool).GetByIDs(context.Background(), []uuid.UUID{a.ID, b.ID, uuid.New()})
	require.NoError(t, err)
	require.Len(t, got, 2)

	byID := product.Index(got)
	assert.True(t, a.UnitPrice.Equal(byID[a.ID].UnitPrice))
	assert.Equal(t, seller, byID[b.ID].SellerID)
}

func TestOrderRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository(testPool)

	o := &order.Order{
		ID:              uuid.New(),
		ClientID:        uuid.New(),
		SellerID:        uuid.New(),
		Status:          order.StatusOrdered,
		BillingAddress:  testAddress("1 Bill St"),
		ShippingAddress: testAddress("2 Ship St"),
		Items: []order.Item{
			{ProductID: uuid.New(), UnitPrice: decimal.RequireFromString("10.25"), Quantity: 2},
		},
		TotalPrice: decimal.RequireFromString("20.5"),
		CreatedAt:  time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, repo.Create(ctx, o))

	got, err := repo.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.ClientID, got.ClientID)
	assert.Equal(t, o.ShippingAddress, got.ShippingAddress)
	require.Len(t, got.Items, 1)
	assert.True(t, o.Items[0].UnitPrice.Equal(got.Items[0].UnitPrice))
	assert.True(t, o.TotalPrice.Equal(got.TotalPrice))
	assert.True(t, o.CreatedAt.Equal(got.CreatedAt))

	got.Status = order.StatusShipped
	require.NoError(t, repo.Save(ctx, got))

	list, err := repo.ListByClient(ctx, o.ClientID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, order.StatusShipped, list[0].Status)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, order.ErrNotFound)
}

func TestTransactor_RollsBack(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository(testPool)
	o := &order.Order{
		ID:              uuid.New(),
		ClientID:        uuid.New(),
		SellerID:        uuid.New(),
		Status:          order.StatusOrdered,
		BillingAddress:  testAddress("1 Bill St"),
		ShippingAddress: testAddress("2 Ship St"),
		TotalPrice:      decimal.Zero,
		CreatedAt:       time.Now(),
	}

	errBoom := errors.New("boom")
	err := NewTransactor(testPool).InTx(ctx, func(ctx context.Context) error {
		if err := repo.Create(ctx, o); err != nil {
			return err
		}
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	_, err = repo.FindByID(ctx, o.ID)
	assert.ErrorIs(t, err, order.ErrNotFound)
}

func TestPlaceOrder_EndToEnd(t *testing.T) {
	ctx := context.Background()
	s1, s2 := uuid.New(), uuid.New()
	a := seedProduct(t, s1, "10")
	b := seedProduct(t, s2, "2.5")

	users := NewUserRepository(testPool)
	addr := testAddress("5 Main St")
	u := &user.User{
		ID:      uuid.New(),
		Email:   uuid.NewString() + "@example.com",
		Address: &addr,
		Point:   decimal.NewFromInt(100),
		Cart: user.Cart{Items: []user.CartItem{
			{ProductID: a.ID, Quantity: 2},
			{ProductID: b.ID, Quantity: 4},
		}},
	}
	require.NoError(t, users.Upsert(ctx, u))

	orders := NewOrderRepository(testPool)
	svc, err := order.NewService(users, NewProductRepository(testPool), orders, NewTransactor(testPool))
	require.NoError(t, err)

	placed, err := svc.PlaceOrder(ctx, order.PlaceOrderRequest{
		User:            u,
		ShippingAddress: testAddress("9 Ship St"),
		RedeemPoints:    true,
	})
	require.NoError(t, err)
	require.Len(t, placed, 2)

	stored, err := orders.ListByClient(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	total := decimal.Zero
	for _, o := range stored {
		total = total.Add(o.TotalPrice)
		assert.Equal(t, addr, o.BillingAddress)
	}
	assert.True(t, decimal.NewFromInt(30).Equal(total))

	reloaded, err := users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.Cart.Empty())
	assert.True(t, reloaded.Point.IsZero(), "100 - 30*10 floors at zero")

	canceled, err := svc.Cancel(ctx, placed[0].ID, u.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusCanceled, canceled.Status)

	_, err = svc.Cancel(ctx, placed[0].ID, u.ID)
	assert.Equal(t, order.KindAlreadyCanceled, order.KindOf(err))
}
