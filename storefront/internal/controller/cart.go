package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/cart/pkg/request"
	"github.com/Alturino/storefront/cart/store"
	inErrors "github.com/Alturino/storefront/internal/errors"
	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/middleware"
	"github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/storefront/internal/registry"
	"github.com/Alturino/storefront/storefront/internal/service"
)

type CartController struct {
	registry *registry.Registry
}

func AttachCartController(mux *mux.Router, registry *registry.Registry) {
	controller := CartController{registry: registry}

	router := mux.PathPrefix("/cart").Subrouter()
	router.HandleFunc("", controller.GetCart).Methods(http.MethodGet)
	router.HandleFunc("", controller.ClearCart).Methods(http.MethodDelete)
	router.HandleFunc("/items", controller.AddToCart).Methods(http.MethodPost)
	router.HandleFunc("/items/{productId}", controller.UpdateQuantity).Methods(http.MethodPut)
	router.HandleFunc("/items/{productId}", controller.RemoveFromCart).Methods(http.MethodDelete)
}

func writeCart(w http.ResponseWriter, r *http.Request, sf *service.Storefront, statusCode int, message string) {
	inHttp.WriteSuccess(r.Context(), w, statusCode, message, map[string]interface{}{
		"cart":  sf.Cart.Snapshot(),
		"quote": sf.Quote(),
	})
}

func (ctrl CartController) GetCart(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController GetCart")
	defer span.End()

	sf := ctrl.registry.Get(c, middleware.SessionIDFromContext(c))
	writeCart(w, r.WithContext(c), sf, http.StatusOK, "found cart")
}

func (ctrl CartController) AddToCart(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController AddToCart")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartController AddToCart").
		Str(log.KeyProcess, "decoding request body").
		Logger()

	logger.Trace().Msg("decoding request body")
	reqBody := request.AddItem{}
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		err = inErrors.Validation("Request body is not valid JSON.", fmt.Errorf("failed decoding request body with error=%w", err))
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteError(c, w, err)
		return
	}
	logger = logger.With().Str(log.KeyProductID, reqBody.Product.ID).Int(log.KeyQuantity, reqBody.Quantity).Logger()
	logger.Trace().Msg("decoded request body")

	logger = logger.With().Str(log.KeyProcess, "adding to cart").Logger()
	logger.Debug().Msg("adding to cart")
	c = logger.WithContext(c)
	sf := ctrl.registry.Get(c, middleware.SessionIDFromContext(c))
	if err := sf.Cart.AddToCart(c, reqBody.Product, reqBody.Quantity); err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteError(c, w, err)
		return
	}
	logger.Debug().Msg("added to cart")

	writeCart(w, r.WithContext(c), sf, http.StatusOK, "added to cart")
}

func (ctrl CartController) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController UpdateQuantity")
	defer span.End()

	productID := mux.Vars(r)["productId"]
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartController UpdateQuantity").
		Str(log.KeyProductID, productID).
		Str(log.KeyProcess, "decoding request body").
		Logger()

	logger.Trace().Msg("decoding request body")
	reqBody := request.UpdateItem{}
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		err = inErrors.Validation("Request body is not valid JSON.", fmt.Errorf("failed decoding request body with error=%w", err))
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteError(c, w, err)
		return
	}
	logger = logger.With().Int(log.KeyQuantity, reqBody.Quantity).Logger()
	logger.Trace().Msg("decoded request body")

	logger = logger.With().Str(log.KeyProcess, "updating quantity").Logger()
	logger.Debug().Msg("updating quantity")
	c = logger.WithContext(c)
	sf := ctrl.registry.Get(c, middleware.SessionIDFromContext(c))
	if err := sf.Cart.UpdateQuantity(c, productID, reqBody.Quantity); err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteError(c, w, cartError(err))
		return
	}
	logger.Debug().Msg("updated quantity")

	writeCart(w, r.WithContext(c), sf, http.StatusOK, "updated quantity")
}

func (ctrl CartController) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController RemoveFromCart")
	defer span.End()

	productID := mux.Vars(r)["productId"]
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartController RemoveFromCart").
		Str(log.KeyProductID, productID).
		Str(log.KeyProcess, "removing from cart").
		Logger()

	logger.Debug().Msg("removing from cart")
	c = logger.WithContext(c)
	sf := ctrl.registry.Get(c, middleware.SessionIDFromContext(c))
	if err := sf.Cart.RemoveFromCart(c, productID); err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteError(c, w, cartError(err))
		return
	}
	logger.Debug().Msg("removed from cart")

	writeCart(w, r.WithContext(c), sf, http.StatusOK, "removed from cart")
}

func (ctrl CartController) ClearCart(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController ClearCart")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartController ClearCart").
		Str(log.KeyProcess, "clearing cart").
		Logger()

	logger.Debug().Msg("clearing cart")
	c = logger.WithContext(c)
	sf := ctrl.registry.Get(c, middleware.SessionIDFromContext(c))
	if err := sf.Cart.ClearCart(c); err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteError(c, w, err)
		return
	}
	logger.Debug().Msg("cleared cart")

	writeCart(w, r.WithContext(c), sf, http.StatusOK, "cleared cart")
}

func cartError(err error) error {
	if errors.Is(err, store.ErrLineNotFound) {
		return inErrors.New(inErrors.ErrNotFound, "This item is not in your cart.", err)
	}
	return err
}
