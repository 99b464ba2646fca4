package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	inErrors "github.com/Alturino/storefront/internal/errors"
	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/order/pkg/request"
	"github.com/Alturino/storefront/order/pkg/response"
)

// Client talks to the remote order API. Every call needs a bearer token and
// fails with an auth required error before touching the network without
// one.
type Client struct {
	http *inHttp.Client
}

func New(http *inHttp.Client) *Client {
	return &Client{http: http}
}

type orderData struct {
	Order response.Order `json:"order"`
}

type ordersData struct {
	Orders []response.Order `json:"orders"`
}

func requireToken(token string) error {
	if token == "" {
		return inErrors.AuthRequired(inErrors.ErrEmptyAuth)
	}
	return nil
}

func (cl *Client) CreateOrder(c context.Context, token string, req request.CreateOrder) (response.Order, error) {
	c, span := otel.Tracer.Start(c, "Client CreateOrder")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Client CreateOrder").
		Object(log.KeyOrder, req).
		Str(log.KeyProcess, "checking credentials").
		Logger()

	logger.Trace().Msg("checking credentials")
	if err := requireToken(token); err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Order{}, err
	}
	if req.User == uuid.Nil {
		err := inErrors.AuthRequired(inErrors.ErrEmptySubject)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Order{}, err
	}
	logger.Trace().Msg("checked credentials")

	logger = logger.With().Str(log.KeyProcess, "creating order").Logger()
	logger.Debug().Msg("creating order")
	data := orderData{}
	err := cl.http.Do(logger.WithContext(c), http.MethodPost, "/orders", token, req, &data)
	if err != nil {
		err = fmt.Errorf("failed creating order with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Order{}, err
	}
	if data.Order.ID == uuid.Nil {
		err = inErrors.Unknown(fmt.Errorf("failed creating order with error=%w", inErrors.ErrNotFound))
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg("order api returned no order id")
		return response.Order{}, err
	}
	logger.Info().Str(log.KeyOrderID, data.Order.ID.String()).Msg("created order")

	return data.Order, nil
}

func (cl *Client) GetOrder(c context.Context, token string, orderID uuid.UUID) (response.Order, error) {
	c, span := otel.Tracer.Start(c, "Client GetOrder")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Client GetOrder").
		Str(log.KeyOrderID, orderID.String()).
		Str(log.KeyProcess, "checking credentials").
		Logger()

	if err := requireToken(token); err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Order{}, err
	}

	logger = logger.With().Str(log.KeyProcess, "getting order").Logger()
	logger.Debug().Msg("getting order")
	data := orderData{}
	err := cl.http.Do(logger.WithContext(c), http.MethodGet, "/orders/"+orderID.String(), token, nil, &data)
	if err != nil {
		err = fmt.Errorf("failed getting order with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Order{}, err
	}
	logger.Debug().Msg("got order")

	return data.Order, nil
}

func (cl *Client) MyOrders(c context.Context, token string, userID uuid.UUID) ([]response.Order, error) {
	c, span := otel.Tracer.Start(c, "Client MyOrders")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Client MyOrders").
		Str(log.KeyUserID, userID.String()).
		Str(log.KeyProcess, "checking credentials").
		Logger()

	if err := requireToken(token); err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}

	logger = logger.With().Str(log.KeyProcess, "getting orders").Logger()
	logger.Debug().Msg("getting orders")
	data := ordersData{}
	path := "/orders/myorders?" + url.Values{"userId": {userID.String()}}.Encode()
	err := cl.http.Do(logger.WithContext(c), http.MethodGet, path, token, nil, &data)
	if err != nil {
		err = fmt.Errorf("failed getting orders with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	if data.Orders == nil {
		data.Orders = []response.Order{}
	}
	logger.Debug().Int("count", len(data.Orders)).Msg("got orders")

	return data.Orders, nil
}

func (cl *Client) PayOrder(
	c context.Context,
	token string,
	orderID uuid.UUID,
	req request.PayOrder,
) (response.Order, error) {
	c, span := otel.Tracer.Start(c, "Client PayOrder")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Client PayOrder").
		Str(log.KeyOrderID, orderID.String()).
		Str(log.KeyProcess, "checking credentials").
		Logger()

	if err := requireToken(token); err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Order{}, err
	}

	logger = logger.With().Str(log.KeyProcess, "paying order").Logger()
	logger.Debug().Msg("paying order")
	data := orderData{}
	err := cl.http.Do(logger.WithContext(c), http.MethodPut, "/orders/"+orderID.String()+"/pay", token, req, &data)
	if err != nil {
		err = fmt.Errorf("failed paying order with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Order{}, err
	}
	logger.Info().Msg("paid order")

	return data.Order, nil
}

func (cl *Client) CancelOrder(c context.Context, token string, orderID uuid.UUID) (response.Order, error) {
	c, span := otel.Tracer.Start(c, "Client CancelOrder")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Client CancelOrder").
		Str(log.KeyOrderID, orderID.String()).
		Str(log.KeyProcess, "checking credentials").
		Logger()

	if err := requireToken(token); err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Order{}, err
	}

	logger = logger.With().Str(log.KeyProcess, "cancelling order").Logger()
	logger.Debug().Msg("cancelling order")
	data := orderData{}
	err := cl.http.Do(logger.WithContext(c), http.MethodPut, "/orders/"+orderID.String()+"/cancel", token, nil, &data)
	if err != nil {
		err = fmt.Errorf("failed cancelling order with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Order{}, err
	}
	logger.Info().Msg("cancelled order")

	return data.Order, nil
}
