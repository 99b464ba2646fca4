package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/order/pkg/response"
)

const KeyOrder = "order:%s"

var ErrCacheMiss = errors.New("cache miss")

// OrderCache keeps orders by id as JSON strings in redis.
type OrderCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewOrderCache(client *redis.Client, ttl time.Duration) *OrderCache {
	return &OrderCache{client: client, ttl: ttl}
}

func (o *OrderCache) Get(c context.Context, id uuid.UUID) (response.Order, error) {
	c, span := otel.Tracer.Start(c, "OrderCache Get")
	defer span.End()

	cacheKey := fmt.Sprintf(KeyOrder, id)
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderCache Get").
		Str(log.KeyCacheKey, cacheKey).
		Str(log.KeyProcess, "getting order from cache").
		Logger()

	logger.Trace().Msg("getting order from cache")
	raw, err := o.client.Get(c, cacheKey).Bytes()
	if errors.Is(err, redis.Nil) {
		logger.Trace().Msg("order not in cache")
		return response.Order{}, ErrCacheMiss
	}
	if err != nil {
		err = fmt.Errorf("failed getting order from cache with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Order{}, err
	}

	order := response.Order{}
	if err = json.Unmarshal(raw, &order); err != nil {
		err = fmt.Errorf("failed unmarshaling cached order with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Order{}, err
	}
	logger.Trace().Msg("got order from cache")

	return order, nil
}

func (o *OrderCache) Set(c context.Context, order response.Order) error {
	c, span := otel.Tracer.Start(c, "OrderCache Set")
	defer span.End()

	cacheKey := fmt.Sprintf(KeyOrder, order.ID)
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderCache Set").
		Str(log.KeyCacheKey, cacheKey).
		Str(log.KeyProcess, "caching order").
		Logger()

	raw, err := json.Marshal(order)
	if err != nil {
		err = fmt.Errorf("failed marshaling order with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}

	logger.Trace().Msg("caching order")
	if err = o.client.Set(c, cacheKey, raw, o.ttl).Err(); err != nil {
		err = fmt.Errorf("failed caching order with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Trace().Msg("cached order")

	return nil
}
