package controller

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/backend/internal/service"
	inErrors "github.com/Alturino/storefront/internal/errors"
	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/internal/token"
	"github.com/Alturino/storefront/order/pkg/request"
)

type OrderController struct {
	service *service.OrderService
}

func AttachOrderController(mux *mux.Router, service *service.OrderService, auth mux.MiddlewareFunc) {
	controller := OrderController{service: service}

	router := mux.PathPrefix("/orders").Subrouter()
	router.Use(auth)
	router.HandleFunc("", controller.CreateOrder).Methods(http.MethodPost)
	router.HandleFunc("/myorders", controller.FindOrdersByUserId).Methods(http.MethodGet)
	router.HandleFunc("/{orderId}", controller.FindOrderById).Methods(http.MethodGet)
	router.HandleFunc("/{orderId}/pay", controller.PayOrder).Methods(http.MethodPut)
	router.HandleFunc("/{orderId}/cancel", controller.CancelOrder).Methods(http.MethodPut)
}

func requesterFromRequest(r *http.Request) (service.Requester, error) {
	userID, err := token.UserIdFromJwtToken(r.Context())
	if err != nil {
		return service.Requester{}, inErrors.AuthRequired(err)
	}
	return service.Requester{UserID: userID, IsAdmin: token.IsAdminFromJwtToken(r.Context())}, nil
}

func orderIDFromPath(r *http.Request) (uuid.UUID, error) {
	raw := mux.Vars(r)["orderId"]
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, inErrors.Validation("Order id is not valid.", fmt.Errorf("failed parsing orderId=%s with error=%w", raw, err))
	}
	return id, nil
}

func (ctrl OrderController) CreateOrder(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "OrderController CreateOrder")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderController CreateOrder").
		Str(log.KeyProcess, "decoding request body").
		Logger()

	requester, err := requesterFromRequest(r)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteError(c, w, err)
		return
	}

	logger.Trace().Msg("decoding request body")
	reqBody := request.CreateOrder{}
	if err = json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		err = inErrors.Validation("Request body is not valid JSON.", fmt.Errorf("failed decoding request body with error=%w", err))
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteError(c, w, err)
		return
	}
	logger.Trace().Msg("decoded request body")

	logger = logger.With().Str(log.KeyProcess, "creating order").Logger()
	logger.Info().Msg("creating order")
	order, err := ctrl.service.CreateOrder(logger.WithContext(c), requester, reqBody)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteError(c, w, err)
		return
	}
	logger.Info().Str(log.KeyOrderID, order.ID.String()).Msg("created order")

	inHttp.WriteSuccess(c, w, http.StatusCreated, "created order", map[string]interface{}{"order": order})
}

func (ctrl OrderController) FindOrdersByUserId(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "OrderController FindOrdersByUserId")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderController FindOrdersByUserId").
		Str(log.KeyProcess, "parsing query").
		Logger()

	requester, err := requesterFromRequest(r)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteError(c, w, err)
		return
	}

	userID := requester.UserID
	if raw := r.URL.Query().Get("userId"); raw != "" {
		userID, err = uuid.Parse(raw)
		if err != nil {
			err = inErrors.Validation("User id is not valid.", fmt.Errorf("failed parsing userId=%s with error=%w", raw, err))
			otel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			inHttp.WriteError(c, w, err)
			return
		}
	}

	logger = logger.With().Str(log.KeyUserID, userID.String()).Str(log.KeyProcess, "finding orders").Logger()
	logger.Debug().Msg("finding orders")
	orders, err := ctrl.service.FindOrdersByUserId(logger.WithContext(c), requester, request.FindOrderByUserId{UserId: userID})
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteError(c, w, err)
		return
	}
	logger.Debug().Int("count", len(orders)).Msg("found orders")

	inHttp.WriteSuccess(c, w, http.StatusOK, "found orders", map[string]interface{}{"orders": orders})
}

func (ctrl OrderController) FindOrderById(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "OrderController FindOrderById")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderController FindOrderById").
		Str(log.KeyProcess, "parsing order id").
		Logger()

	requester, err := requesterFromRequest(r)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteError(c, w, err)
		return
	}
	orderID, err := orderIDFromPath(r)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteError(c, w, err)
		return
	}

	logger = logger.With().Str(log.KeyOrderID, orderID.String()).Str(log.KeyProcess, "finding order").Logger()
	logger.Debug().Msg("finding order")
	order, err := ctrl.service.FindOrderById(
		logger.WithContext(c),
		requester,
		request.FindOrderById{UserId: requester.UserID, OrderId: orderID},
	)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteError(c, w, err)
		return
	}
	logger.Debug().Msg("found order")

	inHttp.WriteSuccess(c, w, http.StatusOK, "found order", map[string]interface{}{"order": order})
}

func (ctrl OrderController) PayOrder(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "OrderController PayOrder")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderController PayOrder").
		Str(log.KeyProcess, "decoding request").
		Logger()

	requester, err := requesterFromRequest(r)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteError(c, w, err)
		return
	}
	orderID, err := orderIDFromPath(r)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteError(c, w, err)
		return
	}
	reqBody := request.PayOrder{}
	if err = json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		err = inErrors.Validation("Request body is not valid JSON.", fmt.Errorf("failed decoding request body with error=%w", err))
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteError(c, w, err)
		return
	}

	logger = logger.With().Str(log.KeyOrderID, orderID.String()).Str(log.KeyProcess, "paying order").Logger()
	logger.Info().Msg("paying order")
	order, err := ctrl.service.PayOrder(logger.WithContext(c), requester, orderID, reqBody)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteError(c, w, err)
		return
	}
	logger.Info().Msg("paid order")

	inHttp.WriteSuccess(c, w, http.StatusOK, "paid order", map[string]interface{}{"order": order})
}

func (ctrl OrderController) CancelOrder(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "OrderController CancelOrder")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderController CancelOrder").
		Str(log.KeyProcess, "parsing order id").
		Logger()

	requester, err := requesterFromRequest(r)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteError(c, w, err)
		return
	}
	orderID, err := orderIDFromPath(r)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteError(c, w, err)
		return
	}

	logger = logger.With().Str(log.KeyOrderID, orderID.String()).Str(log.KeyProcess, "cancelling order").Logger()
	logger.Info().Msg("cancelling order")
	order, err := ctrl.service.CancelOrder(logger.WithContext(c), requester, orderID)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteError(c, w, err)
		return
	}
	logger.Info().Msg("cancelled order")

	inHttp.WriteSuccess(c, w, http.StatusOK, "cancelled order", map[string]interface{}{"order": order})
}
