package controller

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	inErrors "github.com/Alturino/storefront/internal/errors"
	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/middleware"
	"github.com/Alturino/storefront/internal/otel"
	orderReq "github.com/Alturino/storefront/order/pkg/request"
	orderRes "github.com/Alturino/storefront/order/pkg/response"
	"github.com/Alturino/storefront/storefront/internal/registry"
	"github.com/Alturino/storefront/storefront/pkg/request"
)

type OrderController struct {
	registry *registry.Registry
}

func AttachOrderController(mux *mux.Router, registry *registry.Registry) {
	controller := OrderController{registry: registry}

	mux.HandleFunc("/checkout", controller.Checkout).Methods(http.MethodPost)

	router := mux.PathPrefix("/orders").Subrouter()
	router.HandleFunc("", controller.Orders).Methods(http.MethodGet)
	router.HandleFunc("/{orderId}", controller.GetOrder).Methods(http.MethodGet)
	router.HandleFunc("/{orderId}/pay", controller.PayOrder).Methods(http.MethodPut)
	router.HandleFunc("/{orderId}/cancel", controller.CancelOrder).Methods(http.MethodPut)
}

func orderIDFromPath(r *http.Request) (uuid.UUID, error) {
	raw := mux.Vars(r)["orderId"]
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, inErrors.Validation("Order id is not valid.", fmt.Errorf("failed parsing orderId=%s with error=%w", raw, err))
	}
	return id, nil
}

func orderData(order orderRes.Order) map[string]interface{} {
	return map[string]interface{}{
		"order":     order,
		"canPay":    order.IsPayable(),
		"canCancel": order.IsCancellable(),
	}
}

func (ctrl OrderController) Checkout(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "OrderController Checkout")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderController Checkout").
		Str(log.KeyProcess, "decoding request body").
		Logger()

	logger.Trace().Msg("decoding request body")
	reqBody := request.Checkout{}
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		err = inErrors.Validation("Request body is not valid JSON.", fmt.Errorf("failed decoding request body with error=%w", err))
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteError(c, w, err)
		return
	}
	logger.Trace().Msg("decoded request body")

	logger = logger.With().Str(log.KeyProcess, "checking out").Logger()
	logger.Info().Msg("checking out")
	c = logger.WithContext(c)
	sf := ctrl.registry.Get(c, middleware.SessionIDFromContext(c))
	confirmation, err := sf.Checkout(c, reqBody)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteError(c, w, err)
		return
	}
	logger.Info().Str(log.KeyOrderID, confirmation.OrderID.String()).Msg("checked out")

	inHttp.WriteSuccess(c, w, http.StatusCreated, "order placed", map[string]interface{}{
		"confirmation": confirmation,
	})
}

func (ctrl OrderController) Orders(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "OrderController Orders")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderController Orders").
		Str(log.KeyProcess, "getting orders").
		Logger()

	logger.Debug().Msg("getting orders")
	c = logger.WithContext(c)
	sf := ctrl.registry.Get(c, middleware.SessionIDFromContext(c))
	orders, err := sf.Orders.Orders(c)
	if r.URL.Query().Get("refresh") == "true" && err == nil {
		orders, err = sf.Orders.Refresh(c)
	}
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteError(c, w, err)
		return
	}
	logger.Debug().Int("count", len(orders)).Msg("got orders")

	inHttp.WriteSuccess(c, w, http.StatusOK, "found orders", map[string]interface{}{
		"orders": orders,
	})
}

func (ctrl OrderController) GetOrder(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "OrderController GetOrder")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderController GetOrder").
		Str(log.KeyProcess, "parsing order id").
		Logger()

	orderID, err := orderIDFromPath(r)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteError(c, w, err)
		return
	}

	logger = logger.With().Str(log.KeyOrderID, orderID.String()).Str(log.KeyProcess, "getting order").Logger()
	logger.Debug().Msg("getting order")
	c = logger.WithContext(c)
	sf := ctrl.registry.Get(c, middleware.SessionIDFromContext(c))
	order, err := sf.Orders.GetOrder(c, orderID)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteError(c, w, err)
		return
	}
	logger.Debug().Msg("got order")

	inHttp.WriteSuccess(c, w, http.StatusOK, "found order", orderData(order))
}

func (ctrl OrderController) PayOrder(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "OrderController PayOrder")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderController PayOrder").
		Str(log.KeyProcess, "decoding request").
		Logger()

	orderID, err := orderIDFromPath(r)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteError(c, w, err)
		return
	}
	reqBody := orderReq.PayOrder{}
	if err = json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		err = inErrors.Validation("Request body is not valid JSON.", fmt.Errorf("failed decoding request body with error=%w", err))
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteError(c, w, err)
		return
	}

	logger = logger.With().Str(log.KeyOrderID, orderID.String()).Str(log.KeyProcess, "paying order").Logger()
	logger.Info().Msg("paying order")
	c = logger.WithContext(c)
	sf := ctrl.registry.Get(c, middleware.SessionIDFromContext(c))
	order, err := sf.Orders.PayOrder(c, orderID, reqBody)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteError(c, w, err)
		return
	}
	logger.Info().Msg("paid order")

	inHttp.WriteSuccess(c, w, http.StatusOK, "paid order", orderData(order))
}

func (ctrl OrderController) CancelOrder(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "OrderController CancelOrder")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderController CancelOrder").
		Str(log.KeyProcess, "parsing order id").
		Logger()

	orderID, err := orderIDFromPath(r)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteError(c, w, err)
		return
	}

	logger = logger.With().Str(log.KeyOrderID, orderID.String()).Str(log.KeyProcess, "cancelling order").Logger()
	logger.Info().Msg("cancelling order")
	c = logger.WithContext(c)
	sf := ctrl.registry.Get(c, middleware.SessionIDFromContext(c))
	order, err := sf.Orders.CancelOrder(c, orderID)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteError(c, w, err)
		return
	}
	logger.Info().Msg("cancelled order")

	inHttp.WriteSuccess(c, w, http.StatusOK, "cancelled order", orderData(order))
}
