package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
)

// Redis keeps values under "<prefix>:<key>" and refreshes the ttl on every
// write. A zero ttl keeps values forever.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedis(client *redis.Client, prefix string, ttl time.Duration) *Redis {
	return &Redis{client: client, prefix: prefix, ttl: ttl}
}

func (r *Redis) key(key string) string {
	if r.prefix == "" {
		return key
	}
	return r.prefix + ":" + key
}

func (r *Redis) Get(c context.Context, key string) ([]byte, error) {
	c, span := otel.Tracer.Start(c, "Redis Get")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Redis Get").
		Str(log.KeyStorageKey, r.key(key)).
		Str(log.KeyProcess, "getting value").
		Logger()

	logger.Trace().Msg("getting value")
	value, err := r.client.Get(c, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		logger.Trace().Msg("value not found")
		return nil, ErrNotFound
	}
	if err != nil {
		err = fmt.Errorf("failed getting value with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	logger.Trace().Msg("got value")

	return value, nil
}

func (r *Redis) Set(c context.Context, key string, value []byte) error {
	c, span := otel.Tracer.Start(c, "Redis Set")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Redis Set").
		Str(log.KeyStorageKey, r.key(key)).
		Str(log.KeyProcess, "setting value").
		Logger()

	logger.Trace().Msg("setting value")
	err := r.client.Set(c, r.key(key), value, r.ttl).Err()
	if err != nil {
		err = fmt.Errorf("failed setting value with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Trace().Msg("set value")

	return nil
}

func (r *Redis) Remove(c context.Context, key string) error {
	c, span := otel.Tracer.Start(c, "Redis Remove")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Redis Remove").
		Str(log.KeyStorageKey, r.key(key)).
		Str(log.KeyProcess, "removing value").
		Logger()

	logger.Trace().Msg("removing value")
	err := r.client.Del(c, r.key(key)).Err()
	if err != nil {
		err = fmt.Errorf("failed removing value with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Trace().Msg("removed value")

	return nil
}
