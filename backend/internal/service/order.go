package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/backend/internal/repository"
	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/metrics"
	"github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/internal/validate"
	"github.com/Alturino/storefront/order/pkg/request"
	"github.com/Alturino/storefront/order/pkg/response"
	"github.com/Alturino/storefront/order/pricing"
)

const EstimatedDeliveryAfter = 7 * 24 * time.Hour

var (
	errOrderNotFound  = inErrors.New(inErrors.ErrNotFound, "Order not found.", nil)
	errOrderForbidden = inErrors.New(inErrors.ErrForbidden, "You do not have access to this order.", nil)
	errNotPayable     = inErrors.Validation("Order is already paid or can no longer be paid.", nil)
	errNotCancellable = inErrors.Validation("Order can no longer be cancelled.", nil)
)

type OrderRepository interface {
	InsertOrder(c context.Context, order response.Order) (response.Order, error)
	FindOrderById(c context.Context, id uuid.UUID) (response.Order, error)
	FindOrdersByUserId(c context.Context, userID uuid.UUID) ([]response.Order, error)
	UpdateOrderPayment(c context.Context, arg repository.UpdateOrderPaymentParams) (response.Order, error)
	UpdateOrderStatus(c context.Context, arg repository.UpdateOrderStatusParams) (response.Order, error)
}

type OrderCache interface {
	Get(c context.Context, id uuid.UUID) (response.Order, error)
	Set(c context.Context, order response.Order) error
}

// Requester is the authenticated caller of an order operation.
type Requester struct {
	UserID  uuid.UUID
	IsAdmin bool
}

func (r Requester) owns(order response.Order) bool {
	return r.IsAdmin || order.User == r.UserID
}

type OrderService struct {
	queries OrderRepository
	cache   OrderCache
	pricing pricing.Config
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewOrderService(
	queries OrderRepository,
	cache OrderCache,
	pricing pricing.Config,
	metrics *metrics.Metrics,
) *OrderService {
	return &OrderService{
		queries: queries,
		cache:   cache,
		pricing: pricing,
		metrics: metrics,
		now:     func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

func (s *OrderService) count(action string) {
	if s.metrics != nil {
		s.metrics.OrdersTotal.WithLabelValues(action).Inc()
	}
}

func (s *OrderService) cacheLookup(result string) {
	if s.metrics != nil {
		s.metrics.CacheLookups.WithLabelValues(result).Inc()
	}
}

func (s *OrderService) store(c context.Context, order response.Order) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(c, order); err != nil {
		zerolog.Ctx(c).Warn().Err(err).Str(log.KeyOrderID, order.ID.String()).Msg("failed caching order")
	}
}

func (s *OrderService) CreateOrder(
	c context.Context,
	requester Requester,
	param request.CreateOrder,
) (response.Order, error) {
	c, span := otel.Tracer.Start(c, "OrderService CreateOrder")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderService CreateOrder").
		Str(log.KeyUserID, requester.UserID.String()).
		Object(log.KeyRequest, param).
		Str(log.KeyProcess, "validating order").
		Logger()

	logger.Trace().Msg("validating order")
	if err := validate.Struct(param); err != nil {
		err = fmt.Errorf("failed validating order with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Order{}, err
	}
	if param.User != requester.UserID && !requester.IsAdmin {
		err := inErrors.New(inErrors.ErrForbidden, "Orders can only be placed for yourself.", nil)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Order{}, err
	}
	logger.Trace().Msg("validated order")

	logger = logger.With().Str(log.KeyProcess, "checking totals").Logger()
	logger.Trace().Msg("checking totals")
	expected, ok := pricing.Matches(param, s.pricing)
	if !ok {
		err := inErrors.Validation("Order totals do not match the items.", nil)
		otel.RecordError(err, span)
		logger.Error().Err(err).Str(log.KeyPricing, expected.Total.String()).Msg(err.Error())
		return response.Order{}, err
	}
	logger.Trace().Msg("checked totals")

	logger = logger.With().Str(log.KeyProcess, "inserting order").Logger()
	logger.Debug().Msg("inserting order")
	createdAt := s.now()
	order, err := s.queries.InsertOrder(c, response.Order{
		ID:                uuid.New(),
		User:              param.User,
		OrderItems:        param.OrderItems,
		ShippingAddress:   param.ShippingAddress,
		PaymentMethod:     param.PaymentMethod,
		ItemsPrice:        param.ItemsPrice,
		ShippingPrice:     param.ShippingPrice,
		TaxPrice:          param.TaxPrice,
		TotalPrice:        param.TotalPrice,
		Status:            response.StatusPending,
		EstimatedDelivery: createdAt.Add(EstimatedDeliveryAfter),
		CreatedAt:         createdAt,
		UpdatedAt:         createdAt,
	})
	if err != nil {
		err = fmt.Errorf("failed inserting order with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Order{}, err
	}
	logger = logger.With().Str(log.KeyOrderID, order.ID.String()).Logger()
	logger.Info().Msg("inserted order")

	s.store(logger.WithContext(c), order)
	s.count("create")

	return order, nil
}

func (s *OrderService) FindOrderById(
	c context.Context,
	requester Requester,
	param request.FindOrderById,
) (response.Order, error) {
	c, span := otel.Tracer.Start(c, "OrderService FindOrderById")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderService FindOrderById").
		Str(log.KeyUserID, requester.UserID.String()).
		Str(log.KeyOrderID, param.OrderId.String()).
		Str(log.KeyProcess, "finding order in cache").
		Logger()

	order, err := s.find(logger.WithContext(c), param.OrderId)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Order{}, err
	}
	if !requester.owns(order) {
		err = errOrderForbidden
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Order{}, err
	}
	logger.Debug().Msg("found order")

	return order, nil
}

// find reads through the cache to the database.
func (s *OrderService) find(c context.Context, orderID uuid.UUID) (response.Order, error) {
	logger := zerolog.Ctx(c)

	if s.cache != nil {
		order, err := s.cache.Get(c, orderID)
		if err == nil {
			s.cacheLookup("hit")
			return order, nil
		}
		s.cacheLookup("miss")
		if !errors.Is(err, repository.ErrCacheMiss) {
			logger.Warn().Err(err).Msg("failed reading order cache, falling back to database")
		}
	}

	logger.Debug().Msg("finding order in database")
	order, err := s.queries.FindOrderById(c, orderID)
	if errors.Is(err, pgx.ErrNoRows) {
		return response.Order{}, inErrors.New(inErrors.ErrNotFound, errOrderNotFound.Message, err)
	}
	if err != nil {
		return response.Order{}, fmt.Errorf("failed finding order with error=%w", err)
	}
	s.store(c, order)
	return order, nil
}

// refresh replaces a cached order that lost a race with the database row.
func (s *OrderService) refresh(c context.Context, orderID uuid.UUID) {
	if s.cache == nil {
		return
	}
	order, err := s.queries.FindOrderById(c, orderID)
	if err != nil {
		zerolog.Ctx(c).Warn().Err(err).Msg("failed refreshing cached order")
		return
	}
	s.store(c, order)
}

func (s *OrderService) FindOrdersByUserId(
	c context.Context,
	requester Requester,
	param request.FindOrderByUserId,
) ([]response.Order, error) {
	c, span := otel.Tracer.Start(c, "OrderService FindOrdersByUserId")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderService FindOrdersByUserId").
		Str(log.KeyUserID, param.UserId.String()).
		Str(log.KeyProcess, "finding orders").
		Logger()

	if param.UserId != requester.UserID && !requester.IsAdmin {
		err := errOrderForbidden
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}

	logger.Debug().Msg("finding orders")
	orders, err := s.queries.FindOrdersByUserId(c, param.UserId)
	if err != nil {
		err = fmt.Errorf("failed finding orders with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	logger.Debug().Array(log.KeyOrders, response.Orders(orders)).Msg("found orders")

	return orders, nil
}

func (s *OrderService) PayOrder(
	c context.Context,
	requester Requester,
	orderID uuid.UUID,
	param request.PayOrder,
) (response.Order, error) {
	c, span := otel.Tracer.Start(c, "OrderService PayOrder")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderService PayOrder").
		Str(log.KeyOrderID, orderID.String()).
		Str(log.KeyProcess, "validating payment").
		Logger()

	logger.Trace().Msg("validating payment")
	if err := validate.Struct(param); err != nil {
		err = fmt.Errorf("failed validating payment with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Order{}, err
	}
	order, err := s.FindOrderById(logger.WithContext(c), requester, request.FindOrderById{UserId: requester.UserID, OrderId: orderID})
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Order{}, err
	}
	if !order.IsPayable() {
		err = errNotPayable
		otel.RecordError(err, span)
		logger.Error().Err(err).Str(log.KeyOrderStatus, string(order.Status)).Msg(err.Error())
		return response.Order{}, err
	}
	paymentResult, err := json.Marshal(param)
	if err != nil {
		err = fmt.Errorf("failed marshaling payment result with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Order{}, err
	}
	logger.Trace().Msg("validated payment")

	logger = logger.With().Str(log.KeyProcess, "updating payment").Logger()
	logger.Debug().Msg("updating payment")
	order, err = s.queries.UpdateOrderPayment(c, repository.UpdateOrderPaymentParams{
		ID:            orderID,
		PaymentResult: paymentResult,
		PaidAt:        s.now(),
		Status:        response.StatusProcessing,
	})
	if errors.Is(err, pgx.ErrNoRows) {
		err = inErrors.Validation(errNotPayable.Message, err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg("order changed before payment was recorded")
		s.refresh(logger.WithContext(c), orderID)
		return response.Order{}, err
	}
	if err != nil {
		err = fmt.Errorf("failed updating payment with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Order{}, err
	}
	logger.Info().Msg("updated payment")

	s.store(logger.WithContext(c), order)
	s.count("pay")

	return order, nil
}

func (s *OrderService) CancelOrder(
	c context.Context,
	requester Requester,
	orderID uuid.UUID,
) (response.Order, error) {
	c, span := otel.Tracer.Start(c, "OrderService CancelOrder")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderService CancelOrder").
		Str(log.KeyOrderID, orderID.String()).
		Str(log.KeyProcess, "checking status").
		Logger()

	order, err := s.FindOrderById(logger.WithContext(c), requester, request.FindOrderById{UserId: requester.UserID, OrderId: orderID})
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Order{}, err
	}
	if !order.IsCancellable() {
		err = errNotCancellable
		otel.RecordError(err, span)
		logger.Error().Err(err).Str(log.KeyOrderStatus, string(order.Status)).Msg(err.Error())
		return response.Order{}, err
	}

	logger = logger.With().Str(log.KeyProcess, "cancelling order").Logger()
	logger.Debug().Msg("cancelling order")
	order, err = s.queries.UpdateOrderStatus(c, repository.UpdateOrderStatusParams{
		ID:        orderID,
		Status:    response.StatusCancelled,
		UpdatedAt: s.now(),
		From:      response.StatusCancelled.Predecessors(),
	})
	if errors.Is(err, pgx.ErrNoRows) {
		err = inErrors.Validation(errNotCancellable.Message, err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg("order changed before it was cancelled")
		s.refresh(logger.WithContext(c), orderID)
		return response.Order{}, err
	}
	if err != nil {
		err = fmt.Errorf("failed cancelling order with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Order{}, err
	}
	logger.Info().Msg("cancelled order")

	s.store(logger.WithContext(c), order)
	s.count("cancel")

	return order, nil
}
