package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	testRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	pgxuuid "github.com/vgarvardt/pgx-google-uuid/v5"

	"github.com/Alturino/storefront/order/pkg/request"
	"github.com/Alturino/storefront/order/pkg/response"
)

func setupPostgres(t *testing.T, c context.Context) *pgxpool.Pool {
	t.Helper()
	pgContainer, err := postgres.Run(
		c,
		"postgres:16.6-alpine3.21",
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		postgres.WithDatabase("postgres"),
		postgres.BasicWaitStrategies(),
		postgres.WithInitScripts(filepath.Join("..", "..", "migrations", "000001_init.up.sql")),
	)
	if err != nil {
		t.Fatalf("failed running postgres container with error: %s", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(pgContainer); err != nil {
			t.Fatalf("failed to terminate container: %s", err)
		}
	})

	pgConnStr, err := pgContainer.ConnectionString(c)
	if err != nil {
		t.Fatalf("failed getting postgres connection string with error: %s", err)
	}
	pgConfig, err := pgxpool.ParseConfig(pgConnStr)
	if err != nil {
		t.Fatalf("failed parsing pgconfig with error: %s", err)
	}
	pgConfig.AfterConnect = func(c context.Context, conn *pgx.Conn) error {
		pgxuuid.Register(conn.TypeMap())
		return nil
	}
	pool, err := pgxpool.NewWithConfig(c, pgConfig)
	if err != nil {
		t.Fatalf("failed creating postgres pool with error: %s", err)
	}
	t.Cleanup(pool.Close)
	if err = pool.Ping(c); err != nil {
		t.Fatalf("failed ping postgres pool with error: %s", err)
	}
	return pool
}

func TestQueries(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}
	c := context.Background()
	queries := New(setupPostgres(t, c))

	user, err := queries.InsertUser(c, InsertUserParams{ID: uuid.New(), Name: "Asha", Email: "asha@example.com", Password: "hash"})
	require.NoError(t, err)

	found, err := queries.FindUserByEmail(c, "asha@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	_, err = queries.FindUserByEmail(c, "ravi@example.com")
	assert.ErrorIs(t, err, pgx.ErrNoRows)

	createdAt := time.Now().UTC().Truncate(time.Microsecond)
	order, err := queries.InsertOrder(c, response.Order{
		ID:   uuid.New(),
		User: user.ID,
		OrderItems: []request.OrderItem{
			{ProductID: "bowl-1", Name: "Ash Bowl", Price: decimal.RequireFromString("195.50"), Quantity: 2},
		},
		ShippingAddress:   request.ShippingAddress{FullName: "Asha Rao", City: "Pune"},
		PaymentMethod:     request.PaymentCashOnDelivery,
		ItemsPrice:        decimal.RequireFromString("391"),
		ShippingPrice:     decimal.RequireFromString("99"),
		TaxPrice:          decimal.RequireFromString("70.38"),
		TotalPrice:        decimal.RequireFromString("560.38"),
		Status:            response.StatusPending,
		EstimatedDelivery: createdAt.Add(7 * 24 * time.Hour),
		CreatedAt:         createdAt,
	})
	require.NoError(t, err)
	assert.Equal(t, response.StatusPending, order.Status)
	assert.True(t, decimal.RequireFromString("560.38").Equal(order.TotalPrice))
	require.Len(t, order.OrderItems, 1)
	assert.True(t, decimal.RequireFromString("195.5").Equal(order.OrderItems[0].Price))
	assert.Nil(t, order.PaymentResult)
	assert.Nil(t, order.PaidAt)

	byID, err := queries.FindOrderById(c, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, byID.ID)
	assert.Equal(t, "Pune", byID.ShippingAddress.City)

	orders, err := queries.FindOrdersByUserId(c, user.ID)
	require.NoError(t, err)
	assert.Len(t, orders, 1)

	paid, err := queries.UpdateOrderPayment(c, UpdateOrderPaymentParams{
		ID:            order.ID,
		PaymentResult: []byte(`{"id":"PAY-1","status":"COMPLETED"}`),
		PaidAt:        createdAt.Add(time.Minute),
		Status:        response.StatusProcessing,
	})
	require.NoError(t, err)
	assert.True(t, paid.IsPaid)
	require.NotNil(t, paid.PaidAt)
	require.NotNil(t, paid.PaymentResult)
	assert.Equal(t, "PAY-1", paid.PaymentResult.ID)

	_, err = queries.UpdateOrderPayment(c, UpdateOrderPaymentParams{
		ID:            order.ID,
		PaymentResult: []byte(`{"id":"PAY-2","status":"COMPLETED"}`),
		PaidAt:        createdAt.Add(2 * time.Minute),
		Status:        response.StatusProcessing,
	})
	assert.ErrorIs(t, err, pgx.ErrNoRows, "paid orders are not paid again")

	cancelFrom := response.StatusCancelled.Predecessors()
	cancelled, err := queries.UpdateOrderStatus(c, UpdateOrderStatusParams{ID: order.ID, Status: response.StatusCancelled, UpdatedAt: time.Now(), From: cancelFrom})
	require.NoError(t, err)
	assert.Equal(t, response.StatusCancelled, cancelled.Status)

	_, err = queries.UpdateOrderStatus(c, UpdateOrderStatusParams{ID: order.ID, Status: response.StatusCancelled, UpdatedAt: time.Now(), From: cancelFrom})
	assert.ErrorIs(t, err, pgx.ErrNoRows, "cancelled orders are not cancelled again")

	pending, err := queries.InsertOrder(c, response.Order{
		ID:                uuid.New(),
		User:              user.ID,
		OrderItems:        order.OrderItems,
		ShippingAddress:   order.ShippingAddress,
		PaymentMethod:     request.PaymentPaypal,
		ItemsPrice:        order.ItemsPrice,
		ShippingPrice:     order.ShippingPrice,
		TaxPrice:          order.TaxPrice,
		TotalPrice:        order.TotalPrice,
		Status:            response.StatusPending,
		EstimatedDelivery: order.EstimatedDelivery,
		CreatedAt:         createdAt,
	})
	require.NoError(t, err)
	_, err = queries.UpdateOrderStatus(c, UpdateOrderStatusParams{ID: pending.ID, Status: response.StatusCancelled, UpdatedAt: time.Now(), From: cancelFrom})
	require.NoError(t, err)
	_, err = queries.UpdateOrderPayment(c, UpdateOrderPaymentParams{
		ID:            pending.ID,
		PaymentResult: []byte(`{"id":"PAY-3","status":"COMPLETED"}`),
		PaidAt:        time.Now(),
		Status:        response.StatusProcessing,
	})
	assert.ErrorIs(t, err, pgx.ErrNoRows, "cancelled orders cannot be paid")
	stored, err := queries.FindOrderById(c, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, response.StatusCancelled, stored.Status)
	assert.False(t, stored.IsPaid)

	_, err = queries.FindOrderById(c, uuid.New())
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}

func TestOrderCache(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping redis container test in short mode")
	}
	c := context.Background()

	redisContainer, err := testRedis.Run(c, "redis:7.4.2-alpine3.21")
	if err != nil {
		t.Fatalf("failed running redis container with error: %s", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(redisContainer); err != nil {
			t.Fatalf("failed to terminate container: %s", err)
		}
	})
	connStr, err := redisContainer.ConnectionString(c)
	if err != nil {
		t.Fatalf("failed getting redis connection string with error: %s", err)
	}
	opt, err := redis.ParseURL(connStr)
	if err != nil {
		t.Fatalf("failed parsing redis connection string with error: %s", err)
	}
	client := redis.NewClient(opt)
	t.Cleanup(func() { client.Close() })

	cache := NewOrderCache(client, time.Minute)
	order := response.Order{ID: uuid.New(), User: uuid.New(), Status: response.StatusPending, TotalPrice: decimal.NewFromInt(585)}

	_, err = cache.Get(c, order.ID)
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, cache.Set(c, order))
	cached, err := cache.Get(c, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, cached.ID)
	assert.True(t, order.TotalPrice.Equal(cached.TotalPrice))
}
