package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	inErrors "github.com/Alturino/storefront/internal/errors"
	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/order/pkg/request"
	"github.com/Alturino/storefront/order/pkg/response"
)

func createOrder(userID uuid.UUID) request.CreateOrder {
	return request.OrderData{
		Items: []request.OrderItem{{ProductID: "bowl-1", Name: "Ash Bowl", Price: decimal.NewFromInt(195), Quantity: 3}},
		ShippingAddress: request.ShippingAddress{
			FullName: "Asha Rao", Email: "asha@example.com", Phone: "+911234567890",
			Address: "12 Lake Road", City: "Pune", PostalCode: "411001", Country: "IN",
		},
		PaymentMethod:  request.PaymentCashOnDelivery,
		Subtotal:       decimal.NewFromInt(585),
		DeliveryCharge: decimal.NewFromInt(99),
		Tax:            decimal.RequireFromString("105.30"),
		Total:          decimal.RequireFromString("789.30"),
	}.Payload(userID)
}

func TestCreateOrderWithoutSessionMakesNoCall(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer server.Close()
	cl := New(inHttp.NewClient(server.URL, time.Second))

	tests := []struct {
		name  string
		token string
		user  uuid.UUID
	}{
		{name: "given no token should require auth", token: "", user: uuid.New()},
		{name: "given no user id should require auth", token: "token-1", user: uuid.Nil},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := cl.CreateOrder(context.Background(), test.token, createOrder(test.user))
			assert.ErrorIs(t, err, inErrors.ErrAuthRequired)
			assert.Equal(t, inErrors.MessageAuthRequired, inErrors.Message(err))
		})
	}

	_, err := cl.GetOrder(context.Background(), "", uuid.New())
	assert.ErrorIs(t, err, inErrors.ErrAuthRequired)
	_, err = cl.MyOrders(context.Background(), "", uuid.New())
	assert.ErrorIs(t, err, inErrors.ErrAuthRequired)
	assert.Zero(t, hits.Load())
}

func TestCreateOrder(t *testing.T) {
	userID := uuid.New()
	orderID := uuid.New()

	tests := []struct {
		name        string
		timeout     time.Duration
		handler     http.HandlerFunc
		wantKind    error
		wantMessage string
	}{
		{
			name:    "given accepted order should return its id",
			timeout: time.Second,
			handler: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/orders", r.URL.Path)
				assert.Equal(t, "Bearer token-1", r.Header.Get(inHttp.HeaderAuthorization))
				body := map[string]interface{}{}
				require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				assert.Equal(t, userID.String(), body["user"])
				assert.Equal(t, "585", body["itemsPrice"])
				assert.Equal(t, "99", body["shippingPrice"])
				assert.Equal(t, "105.3", body["taxPrice"])
				assert.Equal(t, "789.3", body["totalPrice"])
				assert.Equal(t, "cod", body["paymentMethod"])
				inHttp.WriteSuccess(r.Context(), w, http.StatusCreated, "created order", map[string]interface{}{
					"order": response.Order{ID: orderID, User: userID, Status: response.StatusPending},
				})
			},
		},
		{
			name:    "given slow api should fail with timeout message",
			timeout: 25 * time.Millisecond,
			handler: func(w http.ResponseWriter, r *http.Request) {
				time.Sleep(250 * time.Millisecond)
			},
			wantKind:    inErrors.ErrTimeout,
			wantMessage: inErrors.MessageTimeout,
		},
		{
			name:    "given rejected order should pass server message through",
			timeout: time.Second,
			handler: func(w http.ResponseWriter, r *http.Request) {
				inHttp.WriteError(r.Context(), w, inErrors.Validation("Order totals do not match the items", nil))
			},
			wantKind:    inErrors.ErrServer,
			wantMessage: "Order totals do not match the items",
		},
		{
			name:    "given empty failure should fall back to generic message",
			timeout: time.Second,
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
			wantKind:    inErrors.ErrUnknown,
			wantMessage: inErrors.MessageUnknown,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			server := httptest.NewServer(test.handler)
			defer server.Close()
			cl := New(inHttp.NewClient(server.URL, test.timeout))

			order, err := cl.CreateOrder(context.Background(), "token-1", createOrder(userID))

			if test.wantKind == nil {
				require.NoError(t, err)
				assert.Equal(t, orderID, order.ID)
				return
			}
			assert.ErrorIs(t, err, test.wantKind)
			assert.Equal(t, test.wantMessage, inErrors.Message(err))
		})
	}
}

func TestRetrievalAndMutations(t *testing.T) {
	userID := uuid.New()
	orderID := uuid.New()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/orders/myorders":
			assert.Equal(t, userID.String(), r.URL.Query().Get("userId"))
			inHttp.WriteSuccess(r.Context(), w, http.StatusOK, "found orders", map[string]interface{}{
				"orders": []response.Order{{ID: orderID, User: userID, Status: response.StatusPending}},
			})
		case r.Method == http.MethodGet && r.URL.Path == "/orders/"+orderID.String():
			inHttp.WriteSuccess(r.Context(), w, http.StatusOK, "found order", map[string]interface{}{
				"order": response.Order{ID: orderID, User: userID, Status: response.StatusPending},
			})
		case r.Method == http.MethodPut && r.URL.Path == "/orders/"+orderID.String()+"/pay":
			inHttp.WriteSuccess(r.Context(), w, http.StatusOK, "paid order", map[string]interface{}{
				"order": response.Order{ID: orderID, User: userID, Status: response.StatusProcessing, IsPaid: true},
			})
		case r.Method == http.MethodPut && r.URL.Path == "/orders/"+orderID.String()+"/cancel":
			inHttp.WriteSuccess(r.Context(), w, http.StatusOK, "cancelled order", map[string]interface{}{
				"order": response.Order{ID: orderID, User: userID, Status: response.StatusCancelled},
			})
		default:
			inHttp.WriteError(r.Context(), w, inErrors.New(inErrors.ErrNotFound, "order not found", nil))
		}
	}))
	defer server.Close()
	c := context.Background()
	cl := New(inHttp.NewClient(server.URL, time.Second))

	orders, err := cl.MyOrders(c, "token-1", userID)
	require.NoError(t, err)
	require.Len(t, orders, 1)

	order, err := cl.GetOrder(c, "token-1", orderID)
	require.NoError(t, err)
	assert.Equal(t, response.StatusPending, order.Status)

	order, err = cl.PayOrder(c, "token-1", orderID, request.PayOrder{ID: "PAY-1", Status: "COMPLETED"})
	require.NoError(t, err)
	assert.True(t, order.IsPaid)

	order, err = cl.CancelOrder(c, "token-1", orderID)
	require.NoError(t, err)
	assert.Equal(t, response.StatusCancelled, order.Status)

	_, err = cl.GetOrder(c, "token-1", uuid.New())
	assert.ErrorIs(t, err, inErrors.ErrServer)
	assert.ErrorIs(t, err, inErrors.ErrNotFound)
	assert.Equal(t, "order not found", inErrors.Message(err))
}
