package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

type Application struct {
	Env       string        `mapstructure:"env"        json:"env"`
	Host      string        `mapstructure:"host"       json:"host"`
	SecretKey string        `mapstructure:"secret_key" json:"-"`
	LogDir    string        `mapstructure:"log_dir"    json:"log_dir"`
	Port      int           `mapstructure:"port"       json:"port"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"  json:"token_ttl"`
}

type Database struct {
	Name           string `mapstructure:"name"            json:"name"`
	Host           string `mapstructure:"host"            json:"host"`
	MigrationPath  string `mapstructure:"migration_path"  json:"migration_path"`
	Password       string `mapstructure:"password"        json:"-"`
	TimeZone       string `mapstructure:"timezone"        json:"timezone"`
	Username       string `mapstructure:"username"        json:"username"`
	MaxConnections int    `mapstructure:"max_connections" json:"max_connections"`
	MinConnections int    `mapstructure:"min_connections" json:"min_connections"`
	Port           uint16 `mapstructure:"port"            json:"port"`
}

type Cache struct {
	Host     string        `mapstructure:"host"     json:"host"`
	Password string        `mapstructure:"password" json:"-"`
	Database int           `mapstructure:"database" json:"database"`
	Port     uint16        `mapstructure:"port"     json:"port"`
	TTL      time.Duration `mapstructure:"ttl"      json:"ttl"`
}

type Otel struct {
	Host    string `mapstructure:"host"    json:"host"`
	Port    int    `mapstructure:"port"    json:"port"`
	Enabled bool   `mapstructure:"enabled" json:"enabled"`
}

// OrderAPI points the storefront at the remote order backend.
type OrderAPI struct {
	BaseURL string        `mapstructure:"base_url" json:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"  json:"timeout"`
}

// Pricing values are decimal strings so no precision is lost before they reach
// the pricing package.
type Pricing struct {
	DeliveryCharge        string `mapstructure:"delivery_charge"         json:"delivery_charge"`
	FreeDeliveryThreshold string `mapstructure:"free_delivery_threshold" json:"free_delivery_threshold"`
	TaxRate               string `mapstructure:"tax_rate"                json:"tax_rate"`
}

type Session struct {
	KeyPrefix       string        `mapstructure:"key_prefix"       json:"key_prefix"`
	StorageTTL      time.Duration `mapstructure:"storage_ttl"      json:"storage_ttl"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"     json:"idle_timeout"`
	JanitorInterval time.Duration `mapstructure:"janitor_interval" json:"janitor_interval"`
	Authenticator   string        `mapstructure:"authenticator"    json:"authenticator"`
}

type Config struct {
	Database    `mapstructure:"db"          json:"db"`
	Cache       `mapstructure:"cache"       json:"cache"`
	Application `mapstructure:"application" json:"application"`
	Otel        `mapstructure:"otel"        json:"otel"`
	OrderAPI    `mapstructure:"order_api"   json:"order_api"`
	Pricing     `mapstructure:"pricing"     json:"pricing"`
	Session     `mapstructure:"session"     json:"session"`
}

var (
	once   sync.Once
	config *Config
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("application.env", "development")
	v.SetDefault("application.host", "0.0.0.0")
	v.SetDefault("application.port", 8080)
	v.SetDefault("application.log_dir", "/var/log")
	v.SetDefault("application.token_ttl", 24*time.Hour)
	v.SetDefault("db.migration_path", "file://backend/migrations")
	v.SetDefault("db.max_connections", 10)
	v.SetDefault("db.min_connections", 2)
	v.SetDefault("cache.ttl", 10*time.Minute)
	v.SetDefault("otel.host", "otel-collector")
	v.SetDefault("otel.port", 4317)
	v.SetDefault("order_api.base_url", "http://backend:8080")
	v.SetDefault("order_api.timeout", 15*time.Second)
	v.SetDefault("pricing.delivery_charge", "99")
	v.SetDefault("pricing.free_delivery_threshold", "999")
	v.SetDefault("pricing.tax_rate", "0.18")
	v.SetDefault("session.key_prefix", "storefront")
	v.SetDefault("session.storage_ttl", 30*24*time.Hour)
	v.SetDefault("session.idle_timeout", 30*time.Minute)
	v.SetDefault("session.janitor_interval", time.Minute)
	v.SetDefault("session.authenticator", "local")
}

func Get(c context.Context, filename string) *Config {
	once.Do(func() {
		logger := zerolog.Ctx(c).
			With().
			Str("tag", "config Get").
			Str("process", "init config").
			Str("filename", filename).
			Logger()

		v := viper.New()
		setDefaults(v)
		v.SetConfigName(filename)
		v.AddConfigPath("./env")
		v.SetConfigType("yaml")
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()

		logger = logger.With().Str("process", "reading config").Logger()
		logger.Info().Msg("reading config")
		err := v.ReadInConfig()
		if err != nil {
			err = fmt.Errorf("failed reading config with error=%w", err)
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				logger.Fatal().Err(err).Msg(err.Error())
			}
			logger.Warn().Err(err).Msg("config file not found, using defaults and environment")
		} else {
			logger.Info().Msg("read config")
		}

		logger = logger.With().Str("process", "unmarshaling config").Logger()
		logger.Info().Msg("unmarshaling config")
		cfg := Config{}
		err = v.Unmarshal(&cfg)
		if err != nil {
			err = fmt.Errorf("failed unmarshaling config with error=%w", err)
			logger.Fatal().Err(err).Msg(err.Error())
		}
		config = &cfg
		logger.Info().Any("config", cfg).Msg("unmarshaled config")
	})
	return config
}
