package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/internal/validate"
	"github.com/Alturino/storefront/order/pkg/request"
	"github.com/Alturino/storefront/order/pkg/response"
	"github.com/Alturino/storefront/user/session"
)

type OrderAPI interface {
	CreateOrder(c context.Context, token string, req request.CreateOrder) (response.Order, error)
	GetOrder(c context.Context, token string, orderID uuid.UUID) (response.Order, error)
	MyOrders(c context.Context, token string, userID uuid.UUID) ([]response.Order, error)
	PayOrder(c context.Context, token string, orderID uuid.UUID, req request.PayOrder) (response.Order, error)
	CancelOrder(c context.Context, token string, orderID uuid.UUID) (response.Order, error)
}

// OrderService keeps the signed in user's order list. The list is fetched
// once per identity change and emptied on sign out.
type OrderService struct {
	mu          sync.RWMutex
	api         OrderAPI
	session     *session.Session
	orders      []response.Order
	loadedFor   uuid.UUID
	unsubscribe func()
}

func NewOrderService(api OrderAPI, s *session.Session) *OrderService {
	svc := &OrderService{api: api, session: s, orders: []response.Order{}}
	svc.unsubscribe = s.Subscribe(svc.onSessionChange)
	return svc
}

// Close stops following the session.
func (svc *OrderService) Close() {
	svc.unsubscribe()
}

func (svc *OrderService) credentials() (session.Credentials, error) {
	credentials, ok := svc.session.Credentials()
	if !ok || credentials.Token == "" || credentials.UserID == uuid.Nil {
		return session.Credentials{}, inErrors.AuthRequired(inErrors.ErrEmptyAuth)
	}
	return credentials, nil
}

func (svc *OrderService) onSessionChange(c context.Context, change session.Change) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderService onSessionChange").
		Logger()

	svc.mu.Lock()
	svc.orders = []response.Order{}
	svc.loadedFor = uuid.Nil
	svc.mu.Unlock()

	if !change.SignedIn {
		logger.Debug().Msg("signed out, reset orders")
		return
	}
	if _, err := svc.Refresh(logger.WithContext(c)); err != nil {
		logger.Warn().Err(err).Msg("orders will be fetched on next read")
	}
}

// Refresh fetches the order list of the current user.
func (svc *OrderService) Refresh(c context.Context) ([]response.Order, error) {
	c, span := otel.Tracer.Start(c, "OrderService Refresh")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderService Refresh").
		Str(log.KeyProcess, "getting credentials").
		Logger()

	credentials, err := svc.credentials()
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}

	logger = logger.With().
		Str(log.KeyUserID, credentials.UserID.String()).
		Str(log.KeyProcess, "fetching orders").
		Logger()
	logger.Debug().Msg("fetching orders")
	orders, err := svc.api.MyOrders(logger.WithContext(c), credentials.Token, credentials.UserID)
	if err != nil {
		err = fmt.Errorf("failed fetching orders with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}

	svc.mu.Lock()
	svc.orders = append([]response.Order{}, orders...)
	svc.loadedFor = credentials.UserID
	svc.mu.Unlock()
	logger.Debug().Int("count", len(orders)).Msg("fetched orders")

	return append([]response.Order{}, orders...), nil
}

// Orders returns the cached list, fetching it first when it was not loaded
// for the current user yet.
func (svc *OrderService) Orders(c context.Context) ([]response.Order, error) {
	credentials, err := svc.credentials()
	if err != nil {
		return nil, err
	}
	svc.mu.RLock()
	if svc.loadedFor == credentials.UserID {
		orders := append([]response.Order{}, svc.orders...)
		svc.mu.RUnlock()
		return orders, nil
	}
	svc.mu.RUnlock()
	return svc.Refresh(c)
}

// CreateOrder submits data for the signed in user and returns the new order
// id. The order is put first in the list; the cart is left to the caller.
func (svc *OrderService) CreateOrder(c context.Context, data request.OrderData) (uuid.UUID, error) {
	c, span := otel.Tracer.Start(c, "OrderService CreateOrder")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderService CreateOrder").
		Str(log.KeyProcess, "getting credentials").
		Logger()

	logger.Trace().Msg("getting credentials")
	credentials, err := svc.credentials()
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return uuid.Nil, err
	}
	logger = logger.With().Str(log.KeyUserID, credentials.UserID.String()).Logger()
	logger.Trace().Msg("got credentials")

	logger = logger.With().Str(log.KeyProcess, "validating order").Logger()
	logger.Trace().Msg("validating order")
	if err = validate.Struct(data); err != nil {
		err = fmt.Errorf("failed validating order with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return uuid.Nil, err
	}
	logger.Trace().Msg("validated order")

	logger = logger.With().Str(log.KeyProcess, "submitting order").Logger()
	logger.Debug().Msg("submitting order")
	order, err := svc.api.CreateOrder(logger.WithContext(c), credentials.Token, data.Payload(credentials.UserID))
	if err != nil {
		err = fmt.Errorf("failed submitting order with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return uuid.Nil, err
	}
	logger = logger.With().Str(log.KeyOrderID, order.ID.String()).Logger()
	logger.Info().Msg("submitted order")

	svc.mu.Lock()
	svc.orders = append([]response.Order{order}, svc.orders...)
	svc.mu.Unlock()

	return order.ID, nil
}

func (svc *OrderService) GetOrder(c context.Context, orderID uuid.UUID) (response.Order, error) {
	c, span := otel.Tracer.Start(c, "OrderService GetOrder")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderService GetOrder").
		Str(log.KeyOrderID, orderID.String()).
		Str(log.KeyProcess, "getting order").
		Logger()

	credentials, err := svc.credentials()
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Order{}, err
	}

	logger.Debug().Msg("getting order")
	order, err := svc.api.GetOrder(logger.WithContext(c), credentials.Token, orderID)
	if err != nil {
		err = fmt.Errorf("failed getting order with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Order{}, err
	}
	svc.replace(order)
	logger.Debug().Msg("got order")

	return order, nil
}

// PayOrder records a payment. Orders known to be paid or past pending are
// refused without calling the api.
func (svc *OrderService) PayOrder(c context.Context, orderID uuid.UUID, req request.PayOrder) (response.Order, error) {
	c, span := otel.Tracer.Start(c, "OrderService PayOrder")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderService PayOrder").
		Str(log.KeyOrderID, orderID.String()).
		Str(log.KeyProcess, "validating payment").
		Logger()

	credentials, err := svc.credentials()
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Order{}, err
	}
	if err = validate.Struct(req); err != nil {
		err = fmt.Errorf("failed validating payment with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Order{}, err
	}
	if known, ok := svc.find(orderID); ok && !known.IsPayable() {
		err = inErrors.Validation("This order can no longer be paid.", nil)
		otel.RecordError(err, span)
		logger.Error().Err(err).Str(log.KeyOrderStatus, string(known.Status)).Msg(err.Error())
		return response.Order{}, err
	}

	logger = logger.With().Str(log.KeyProcess, "paying order").Logger()
	logger.Debug().Msg("paying order")
	order, err := svc.api.PayOrder(logger.WithContext(c), credentials.Token, orderID, req)
	if err != nil {
		err = fmt.Errorf("failed paying order with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Order{}, err
	}
	svc.replace(order)
	logger.Info().Msg("paid order")

	return order, nil
}

func (svc *OrderService) CancelOrder(c context.Context, orderID uuid.UUID) (response.Order, error) {
	c, span := otel.Tracer.Start(c, "OrderService CancelOrder")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderService CancelOrder").
		Str(log.KeyOrderID, orderID.String()).
		Str(log.KeyProcess, "checking status").
		Logger()

	credentials, err := svc.credentials()
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Order{}, err
	}
	if known, ok := svc.find(orderID); ok && !known.IsCancellable() {
		err = inErrors.Validation("This order can no longer be cancelled.", nil)
		otel.RecordError(err, span)
		logger.Error().Err(err).Str(log.KeyOrderStatus, string(known.Status)).Msg(err.Error())
		return response.Order{}, err
	}

	logger = logger.With().Str(log.KeyProcess, "cancelling order").Logger()
	logger.Debug().Msg("cancelling order")
	order, err := svc.api.CancelOrder(logger.WithContext(c), credentials.Token, orderID)
	if err != nil {
		err = fmt.Errorf("failed cancelling order with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Order{}, err
	}
	svc.replace(order)
	logger.Info().Msg("cancelled order")

	return order, nil
}

func (svc *OrderService) find(orderID uuid.UUID) (response.Order, bool) {
	svc.mu.RLock()
	defer svc.mu.RUnlock()
	for _, order := range svc.orders {
		if order.ID == orderID {
			return order, true
		}
	}
	return response.Order{}, false
}

func (svc *OrderService) replace(order response.Order) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	for i := range svc.orders {
		if svc.orders[i].ID == order.ID {
			svc.orders[i] = order
			return
		}
	}
}
