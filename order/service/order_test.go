package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/storage"
	"github.com/Alturino/storefront/order/pkg/request"
	"github.com/Alturino/storefront/order/pkg/response"
	userRes "github.com/Alturino/storefront/user/pkg/response"
	"github.com/Alturino/storefront/user/session"
)

type fakeAPI struct {
	mu           sync.Mutex
	orders       map[uuid.UUID][]response.Order
	created      []request.CreateOrder
	myOrderCalls int
	calls        int
	err          error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{orders: map[uuid.UUID][]response.Order{}}
}

func (f *fakeAPI) CreateOrder(c context.Context, token string, req request.CreateOrder) (response.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return response.Order{}, f.err
	}
	f.created = append(f.created, req)
	order := response.Order{ID: uuid.New(), User: req.User, Status: response.StatusPending, TotalPrice: req.TotalPrice}
	f.orders[req.User] = append([]response.Order{order}, f.orders[req.User]...)
	return order, nil
}

func (f *fakeAPI) GetOrder(c context.Context, token string, orderID uuid.UUID) (response.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	for _, orders := range f.orders {
		for _, order := range orders {
			if order.ID == orderID {
				return order, nil
			}
		}
	}
	return response.Order{}, inErrors.Server("order not found", inErrors.ErrNotFound)
}

func (f *fakeAPI) MyOrders(c context.Context, token string, userID uuid.UUID) ([]response.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.myOrderCalls++
	return append([]response.Order{}, f.orders[userID]...), nil
}

func (f *fakeAPI) PayOrder(c context.Context, token string, orderID uuid.UUID, req request.PayOrder) (response.Order, error) {
	return f.update(orderID, func(o *response.Order) {
		o.IsPaid = true
		o.Status = response.StatusProcessing
	})
}

func (f *fakeAPI) CancelOrder(c context.Context, token string, orderID uuid.UUID) (response.Order, error) {
	return f.update(orderID, func(o *response.Order) { o.Status = response.StatusCancelled })
}

func (f *fakeAPI) update(orderID uuid.UUID, fn func(*response.Order)) (response.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	for user, orders := range f.orders {
		for i := range orders {
			if orders[i].ID == orderID {
				fn(&f.orders[user][i])
				return f.orders[user][i], nil
			}
		}
	}
	return response.Order{}, inErrors.Server("order not found", inErrors.ErrNotFound)
}

func orderData() request.OrderData {
	return request.OrderData{
		Items: []request.OrderItem{{ProductID: "bowl-1", Name: "Ash Bowl", Price: decimal.NewFromInt(195), Quantity: 3}},
		ShippingAddress: request.ShippingAddress{
			FullName: "Asha Rao", Email: "asha@example.com", Phone: "+911234567890",
			Address: "12 Lake Road", City: "Pune", PostalCode: "411001", Country: "IN",
		},
		PaymentMethod:  request.PaymentPaypal,
		Subtotal:       decimal.NewFromInt(585),
		DeliveryCharge: decimal.NewFromInt(99),
		Tax:            decimal.RequireFromString("105.30"),
		Total:          decimal.RequireFromString("789.30"),
	}
}

func signIn(t *testing.T, s *session.Session) uuid.UUID {
	t.Helper()
	userID := uuid.New()
	require.NoError(t, s.SignIn(context.Background(), userRes.Login{
		Token: "token-" + userID.String(),
		User:  userRes.User{ID: userID, Email: "asha@example.com"},
	}))
	return userID
}

func TestCreateOrderWithoutSession(t *testing.T) {
	c := context.Background()
	api := newFakeAPI()
	svc := NewOrderService(api, session.New(c, storage.NewMemory()))
	defer svc.Close()

	_, err := svc.CreateOrder(c, orderData())

	assert.ErrorIs(t, err, inErrors.ErrAuthRequired)
	assert.Zero(t, api.calls)
}

func TestCreateOrderPrependsAndStampsUser(t *testing.T) {
	c := context.Background()
	api := newFakeAPI()
	s := session.New(c, storage.NewMemory())
	svc := NewOrderService(api, s)
	defer svc.Close()
	userID := signIn(t, s)

	first, err := svc.CreateOrder(c, orderData())
	require.NoError(t, err)
	second, err := svc.CreateOrder(c, orderData())
	require.NoError(t, err)

	orders, err := svc.Orders(c)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, second, orders[0].ID)
	assert.Equal(t, first, orders[1].ID)
	assert.Equal(t, userID, api.created[0].User)
	assert.True(t, decimal.NewFromInt(585).Equal(api.created[0].ItemsPrice))
	assert.True(t, decimal.RequireFromString("789.3").Equal(api.created[0].TotalPrice))
}

func TestCreateOrderRejectsInvalidData(t *testing.T) {
	c := context.Background()
	api := newFakeAPI()
	s := session.New(c, storage.NewMemory())
	svc := NewOrderService(api, s)
	defer svc.Close()
	signIn(t, s)
	calls := api.calls

	data := orderData()
	data.ShippingAddress.City = ""
	_, err := svc.CreateOrder(c, data)

	assert.ErrorIs(t, err, inErrors.ErrValidation)
	assert.Equal(t, calls, api.calls)
}

func TestOrdersFetchedOncePerSessionChange(t *testing.T) {
	c := context.Background()
	api := newFakeAPI()
	s := session.New(c, storage.NewMemory())
	svc := NewOrderService(api, s)
	defer svc.Close()

	userID := signIn(t, s)
	api.orders[userID] = []response.Order{{ID: uuid.New(), User: userID}}
	assert.Equal(t, 1, api.myOrderCalls)

	orders, err := svc.Orders(c)
	require.NoError(t, err)
	assert.Empty(t, orders)
	_, err = svc.Orders(c)
	require.NoError(t, err)
	assert.Equal(t, 1, api.myOrderCalls)

	s.SignOut(c)
	_, err = svc.Orders(c)
	assert.ErrorIs(t, err, inErrors.ErrAuthRequired)

	require.NoError(t, s.SignIn(c, userRes.Login{Token: "token-again", User: userRes.User{ID: userID}}))
	orders, err = svc.Orders(c)
	require.NoError(t, err)
	assert.Len(t, orders, 1)
	assert.Equal(t, 2, api.myOrderCalls)
}

func TestPayAndCancelGating(t *testing.T) {
	c := context.Background()
	api := newFakeAPI()
	s := session.New(c, storage.NewMemory())
	svc := NewOrderService(api, s)
	defer svc.Close()
	signIn(t, s)

	orderID, err := svc.CreateOrder(c, orderData())
	require.NoError(t, err)

	paid, err := svc.PayOrder(c, orderID, request.PayOrder{ID: "PAY-1", Status: "COMPLETED", UpdateTime: time.Now().String()})
	require.NoError(t, err)
	assert.True(t, paid.IsPaid)

	calls := api.calls
	_, err = svc.PayOrder(c, orderID, request.PayOrder{ID: "PAY-2", Status: "COMPLETED"})
	assert.ErrorIs(t, err, inErrors.ErrValidation)
	assert.Equal(t, calls, api.calls)

	cancelled, err := svc.CancelOrder(c, orderID)
	require.NoError(t, err)
	assert.Equal(t, response.StatusCancelled, cancelled.Status)

	_, err = svc.CancelOrder(c, orderID)
	assert.ErrorIs(t, err, inErrors.ErrValidation)

	order, err := svc.GetOrder(c, orderID)
	require.NoError(t, err)
	assert.Equal(t, response.StatusCancelled, order.Status)

	_, err = svc.GetOrder(c, uuid.New())
	assert.ErrorIs(t, err, inErrors.ErrNotFound)
}
