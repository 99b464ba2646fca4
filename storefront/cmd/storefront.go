package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	"github.com/Alturino/storefront/internal/config"
	"github.com/Alturino/storefront/internal/constants"
	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/infra"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/metrics"
	"github.com/Alturino/storefront/internal/middleware"
	"github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/internal/storage"
	orderClient "github.com/Alturino/storefront/order/client"
	"github.com/Alturino/storefront/order/pricing"
	"github.com/Alturino/storefront/storefront/internal/controller"
	"github.com/Alturino/storefront/storefront/internal/registry"
	"github.com/Alturino/storefront/storefront/internal/service"
	"github.com/Alturino/storefront/user/authenticator"
)

const (
	AuthenticatorLocal  = "local"
	AuthenticatorRemote = "remote"
)

func newAuthenticator(cfg *config.Config, client *inHttp.Client) (authenticator.Authenticator, error) {
	switch cfg.Session.Authenticator {
	case AuthenticatorLocal, "":
		return authenticator.NewLocal(cfg.Application.SecretKey, cfg.Session.StorageTTL), nil
	case AuthenticatorRemote:
		return authenticator.NewRemote(client), nil
	default:
		return nil, fmt.Errorf("unknown authenticator=%s", cfg.Session.Authenticator)
	}
}

func RunStorefront(c context.Context) {
	c, span := otel.Tracer.Start(c, "RunStorefront")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyAppName, constants.AppStorefront).
		Str(log.KeyTag, "main RunStorefront").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "init config").Logger()
	logger.Info().Msg("initializing config")
	c = logger.WithContext(c)
	cfg := config.Get(c, constants.AppStorefront)
	logger = logger.With().Any(log.KeyConfig, cfg).Logger()
	logger.Info().Msg("initialized config")

	logger = logger.With().Str(log.KeyProcess, "initializing otel sdk").Logger()
	logger.Info().Msg("initializing otel sdk")
	c = logger.WithContext(c)
	otelShutdowns, err := otel.InitOtelSdk(c, constants.AppStorefront, cfg.Otel)
	if err != nil {
		err = fmt.Errorf("failed initializing otel sdk with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	defer func() {
		logger.Info().Msg("shutting down otel")
		if err := otel.ShutdownOtel(logger.WithContext(c), otelShutdowns); err != nil {
			err = fmt.Errorf("failed shutting down otel with error=%w", err)
			logger.Error().Err(err).Msg(err.Error())
			return
		}
		logger.Info().Msg("shutdown otel")
	}()
	logger.Info().Msg("initialized otel sdk")

	logger = logger.With().Str(log.KeyProcess, "initializing metrics").Logger()
	logger.Info().Msg("initializing metrics")
	m := metrics.New(constants.AppStorefront)
	if err = m.Register(); err != nil {
		err = fmt.Errorf("failed initializing metrics with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	logger.Info().Msg("initialized metrics")

	var base storage.Storage
	if cfg.Cache.Host == "" {
		logger.Warn().Msg("cache host is empty, sessions are kept in memory only")
		base = storage.NewMemory()
	} else {
		logger = logger.With().Str(log.KeyProcess, "initializing cache").Logger()
		logger.Info().Msg("initializing cache")
		c = logger.WithContext(c)
		cache, err := infra.NewCacheClient(c, cfg.Cache)
		if err != nil {
			err = fmt.Errorf("failed initializing cache with error=%w", err)
			otel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return
		}
		defer func() {
			logger.Info().Msg("shutting down cache")
			if err := cache.Close(); err != nil {
				err = fmt.Errorf("failed shutting down cache with error=%w", err)
				logger.Error().Err(err).Msg(err.Error())
				return
			}
			logger.Info().Msg("shutdown cache")
		}()
		base = storage.NewRedis(cache, cfg.Session.KeyPrefix, cfg.Session.StorageTTL)
		logger.Info().Msg("initialized cache")
	}

	logger = logger.With().Str(log.KeyProcess, "initializing storefront registry").Logger()
	logger.Info().Msg("initializing storefront registry")
	client := inHttp.NewClient(cfg.OrderAPI.BaseURL, cfg.OrderAPI.Timeout)
	auth, err := newAuthenticator(cfg, client)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	pricingConfig, err := pricing.ConfigFrom(cfg.Pricing)
	if err != nil {
		err = fmt.Errorf("failed parsing pricing config with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	reg := registry.New(base, service.Dependencies{
		OrderAPI:      orderClient.New(client),
		Authenticator: auth,
		Pricing:       pricingConfig,
		Metrics:       m,
	}, cfg.Session.IdleTimeout)
	defer reg.Close()
	logger.Info().Msg("initialized storefront registry")

	logger = logger.With().Str(log.KeyProcess, "initializing router").Logger()
	logger.Info().Msg("initializing router")
	router := mux.NewRouter()
	router.Use(otelmux.Middleware(constants.AppStorefront), middleware.Logging, middleware.RecoverPanic, m.Middleware)
	router.Handle("/metrics", m.Handler()).Methods(http.MethodGet)
	sessions := router.NewRoute().Subrouter()
	sessions.Use(middleware.Session)
	controller.AttachCartController(sessions, reg)
	controller.AttachSessionController(sessions, reg)
	controller.AttachOrderController(sessions, reg)
	logger.Info().Msg("initialized router")

	logger = logger.With().Str(log.KeyProcess, "starting janitor").Logger()
	logger.Info().Msg("starting janitor")
	wg := sync.WaitGroup{}
	wg.Add(1)
	go reg.Run(logger.WithContext(c), cfg.Session.JanitorInterval, &wg)
	logger.Info().Msg("started janitor")

	logger = logger.With().Str(log.KeyProcess, "initializing server").Logger()
	logger.Info().Msg("initializing server")
	httpServer := http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Application.Host, cfg.Application.Port),
		BaseContext:  func(net.Listener) context.Context { return c },
		Handler:      router,
		ReadTimeout:  45 * time.Second,
		WriteTimeout: 45 * time.Second,
	}
	logger.Info().Msg("initialized server")

	go func() {
		logger := logger.With().Str(log.KeyProcess, "start server").Logger()
		logger.Info().Msgf("start listening request at %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			err = fmt.Errorf("error=%w occured while server is running", err)
			otel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return
		}
		logger.Info().Msg("shutdown server")
	}()

	<-c.Done()
	logger = logger.With().Str(log.KeyProcess, "shutting down http server").Logger()
	logger.Info().Msg("received interuption signal shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(c), 15*time.Second)
	defer cancel()
	if err = httpServer.Shutdown(shutdownCtx); err != nil {
		err = fmt.Errorf("failed shutting down http server with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
	}
	wg.Wait()
	logger.Info().Msg("shutdown http server")
}
