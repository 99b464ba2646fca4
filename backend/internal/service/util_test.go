package service

import (
	"context"
	"encoding/json"
	"slices"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Alturino/storefront/backend/internal/repository"
	"github.com/Alturino/storefront/order/pkg/request"
	"github.com/Alturino/storefront/order/pkg/response"
)

type fakeRepository struct {
	mu     sync.Mutex
	orders map[uuid.UUID]response.Order
	users  map[string]repository.User
	reads  int
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{orders: map[uuid.UUID]response.Order{}, users: map[string]repository.User{}}
}

func (f *fakeRepository) InsertOrder(c context.Context, order response.Order) (response.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders[order.ID] = order
	return order, nil
}

func (f *fakeRepository) FindOrderById(c context.Context, id uuid.UUID) (response.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	order, ok := f.orders[id]
	if !ok {
		return response.Order{}, pgx.ErrNoRows
	}
	return order, nil
}

func (f *fakeRepository) FindOrdersByUserId(c context.Context, userID uuid.UUID) ([]response.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	orders := []response.Order{}
	for _, order := range f.orders {
		if order.User == userID {
			orders = append(orders, order)
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
	return orders, nil
}

func (f *fakeRepository) UpdateOrderPayment(c context.Context, arg repository.UpdateOrderPaymentParams) (response.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[arg.ID]
	if !ok || order.Status != response.StatusPending || order.IsPaid {
		return response.Order{}, pgx.ErrNoRows
	}
	result := request.PayOrder{}
	if err := json.Unmarshal(arg.PaymentResult, &result); err != nil {
		return response.Order{}, err
	}
	paidAt := arg.PaidAt
	order.PaymentResult = &result
	order.IsPaid = true
	order.PaidAt = &paidAt
	order.Status = arg.Status
	order.UpdatedAt = paidAt
	f.orders[arg.ID] = order
	return order, nil
}

func (f *fakeRepository) UpdateOrderStatus(c context.Context, arg repository.UpdateOrderStatusParams) (response.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[arg.ID]
	if !ok || !slices.Contains(arg.From, order.Status) {
		return response.Order{}, pgx.ErrNoRows
	}
	order.Status = arg.Status
	order.UpdatedAt = arg.UpdatedAt
	f.orders[arg.ID] = order
	return order, nil
}

func (f *fakeRepository) InsertUser(c context.Context, arg repository.InsertUserParams) (repository.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[arg.Email]; ok {
		return repository.User{}, &pgconn.PgError{Code: pgUniqueViolation}
	}
	user := repository.User{ID: arg.ID, Name: arg.Name, Email: arg.Email, Password: arg.Password, IsAdmin: arg.IsAdmin}
	f.users[arg.Email] = user
	return user, nil
}

func (f *fakeRepository) FindUserByEmail(c context.Context, email string) (repository.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[email]
	if !ok {
		return repository.User{}, pgx.ErrNoRows
	}
	return user, nil
}

type fakeCache struct {
	mu     sync.Mutex
	orders map[uuid.UUID]response.Order
}

func newFakeCache() *fakeCache {
	return &fakeCache{orders: map[uuid.UUID]response.Order{}}
}

func (f *fakeCache) Get(c context.Context, id uuid.UUID) (response.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[id]
	if !ok {
		return response.Order{}, repository.ErrCacheMiss
	}
	return order, nil
}

func (f *fakeCache) Set(c context.Context, order response.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders[order.ID] = order
	return nil
}
