package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/cart/store"
	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/metrics"
	"github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/internal/storage"
	"github.com/Alturino/storefront/internal/validate"
	orderReq "github.com/Alturino/storefront/order/pkg/request"
	"github.com/Alturino/storefront/order/pricing"
	orderService "github.com/Alturino/storefront/order/service"
	"github.com/Alturino/storefront/storefront/pkg/request"
	"github.com/Alturino/storefront/storefront/pkg/response"
	"github.com/Alturino/storefront/user/authenticator"
	userReq "github.com/Alturino/storefront/user/pkg/request"
	userRes "github.com/Alturino/storefront/user/pkg/response"
	"github.com/Alturino/storefront/user/session"
)

type Dependencies struct {
	OrderAPI      orderService.OrderAPI
	Authenticator authenticator.Authenticator
	Pricing       pricing.Config
	Metrics       *metrics.Metrics
}

// Storefront is everything one browser session owns: its cart, its auth
// context and its order list.
type Storefront struct {
	ID      string
	Cart    *store.Store
	Session *session.Session
	Orders  *orderService.OrderService

	deps       Dependencies
	checkoutMu sync.Mutex
	seenMu     sync.Mutex
	lastSeen   time.Time
}

// NewStorefront rehydrates the cart and session of id from s, which must
// already be scoped to the session.
func NewStorefront(c context.Context, id string, s storage.Storage, deps Dependencies) *Storefront {
	sess := session.New(c, s)
	return &Storefront{
		ID:       id,
		Cart:     store.New(c, s),
		Session:  sess,
		Orders:   orderService.NewOrderService(deps.OrderAPI, sess),
		deps:     deps,
		lastSeen: time.Now(),
	}
}

func (sf *Storefront) Touch(now time.Time) {
	sf.seenMu.Lock()
	defer sf.seenMu.Unlock()
	sf.lastSeen = now
}

func (sf *Storefront) IdleSince(now time.Time) time.Duration {
	sf.seenMu.Lock()
	defer sf.seenMu.Unlock()
	return now.Sub(sf.lastSeen)
}

func (sf *Storefront) Close() {
	sf.Orders.Close()
}

func (sf *Storefront) Login(c context.Context, req userReq.LoginRequest) (userRes.User, error) {
	login, err := sf.deps.Authenticator.Login(c, req)
	if err != nil {
		return userRes.User{}, err
	}
	if err = sf.Session.SignIn(c, login); err != nil {
		return userRes.User{}, err
	}
	return login.User, nil
}

func (sf *Storefront) LoginAdmin(c context.Context, req userReq.LoginRequest) (userRes.User, error) {
	login, err := sf.deps.Authenticator.LoginAdmin(c, req)
	if err != nil {
		return userRes.User{}, err
	}
	if err = sf.Session.SignInAdmin(c, login); err != nil {
		return userRes.User{}, err
	}
	return login.User, nil
}

func (sf *Storefront) Logout(c context.Context) {
	sf.Session.SignOut(c)
}

// Quote prices the current cart without submitting anything.
func (sf *Storefront) Quote() response.Quote {
	cart := sf.Cart.Snapshot()
	return response.Quote{
		TotalItems: cart.TotalItems,
		Pricing:    pricing.Breakdown(cart.TotalPrice, sf.deps.Pricing),
	}
}

// Checkout submits the cart as an order for the signed in user and, once
// the order exists, removes what was ordered from the cart. Items added while
// the order was in flight stay in the cart. A failed submission leaves the
// cart as it was.
func (sf *Storefront) Checkout(c context.Context, req request.Checkout) (response.Confirmation, error) {
	c, span := otel.Tracer.Start(c, "Storefront Checkout")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Storefront Checkout").
		Str(log.KeySessionID, sf.ID).
		Str(log.KeyProcess, "checking session").
		Logger()

	sf.checkoutMu.Lock()
	defer sf.checkoutMu.Unlock()

	result := "failed"
	defer func() {
		if sf.deps.Metrics != nil {
			sf.deps.Metrics.CheckoutsTotal.WithLabelValues(result).Inc()
		}
	}()

	logger.Trace().Msg("checking session")
	if _, ok := sf.Session.Credentials(); !ok {
		err := inErrors.AuthRequired(inErrors.ErrEmptyAuth)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		result = "unauthenticated"
		return response.Confirmation{}, err
	}
	logger.Trace().Msg("checked session")

	logger = logger.With().Str(log.KeyProcess, "validating checkout").Logger()
	logger.Trace().Msg("validating checkout")
	if err := validate.Struct(req); err != nil {
		err = fmt.Errorf("failed validating checkout with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		result = "invalid"
		return response.Confirmation{}, err
	}
	logger.Trace().Msg("validated checkout")

	logger = logger.With().Str(log.KeyProcess, "snapshotting cart").Logger()
	logger.Trace().Msg("snapshotting cart")
	cart := sf.Cart.Snapshot()
	items := make([]orderReq.OrderItem, 0, len(cart.Items))
	for _, line := range cart.Items {
		if line.Quantity <= 0 {
			continue
		}
		image := ""
		if len(line.Product.Images) > 0 {
			image = line.Product.Images[0]
		}
		items = append(items, orderReq.OrderItem{
			ProductID: line.Product.ID,
			Name:      line.Product.Name,
			Image:     image,
			Price:     line.Product.Price,
			Quantity:  line.Quantity,
		})
	}
	if len(items) == 0 {
		err := inErrors.Validation("Your cart is empty.", nil)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		result = "empty"
		return response.Confirmation{}, err
	}
	breakdown := pricing.Breakdown(cart.TotalPrice, sf.deps.Pricing)
	logger = logger.With().
		Int(log.KeyCartItems, len(items)).
		Str(log.KeyCartTotalPrice, breakdown.Total.String()).
		Logger()
	logger.Debug().Msg("snapshotted cart")

	logger = logger.With().Str(log.KeyProcess, "creating order").Logger()
	logger.Info().Msg("creating order")
	orderID, err := sf.Orders.CreateOrder(logger.WithContext(c), orderReq.OrderData{
		Items:           items,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		Subtotal:        breakdown.Subtotal,
		DeliveryCharge:  breakdown.DeliveryCharge,
		Tax:             breakdown.Tax,
		Total:           breakdown.Total,
	})
	if err != nil {
		err = fmt.Errorf("failed creating order with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		result = kindLabel(err)
		return response.Confirmation{}, err
	}
	logger = logger.With().Str(log.KeyOrderID, orderID.String()).Logger()
	logger.Info().Msg("created order")

	logger = logger.With().Str(log.KeyProcess, "removing ordered items").Logger()
	logger.Trace().Msg("removing ordered items")
	if err = sf.Cart.RemoveOrdered(logger.WithContext(c), cart.Items); err != nil {
		logger.Error().Err(err).Msgf("failed removing ordered items with error=%s", err.Error())
	}
	logger.Trace().Msg("removed ordered items")

	result = "success"
	return response.Confirmation{OrderID: orderID, Pricing: breakdown}, nil
}

func kindLabel(err error) string {
	switch inErrors.Kind(err) {
	case inErrors.ErrValidation:
		return "invalid"
	case inErrors.ErrAuthRequired:
		return "unauthenticated"
	case inErrors.ErrTimeout:
		return "timeout"
	case inErrors.ErrServer:
		return "rejected"
	default:
		return "failed"
	}
}
