package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "development"
	AppEnvProd = "production"
)

type Config struct {
	App      AppConfig
	API      APIConfig
	Payment  PaymentConfig
	Storage  StorageConfig
	Redis    RedisConfig
	Listener ListenerConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Storage.validateBackend(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"WEDDING_APP_ENV" default:"development"`
	LogLevel     string `envconfig:"WEDDING_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"WEDDING_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type APIConfig struct {
	BaseURL string        `envconfig:"WEDDING_API_BASE_URL" required:"true"`
	Timeout time.Duration `envconfig:"WEDDING_API_TIMEOUT" default:"10s"`
}

type PaymentConfig struct {
	Currency     string        `envconfig:"WEDDING_PAYMENT_CURRENCY" default:"ETB"`
	ReturnURL    string        `envconfig:"WEDDING_PAYMENT_RETURN_URL" required:"true"`
	PollInterval time.Duration `envconfig:"WEDDING_PAYMENT_POLL_INTERVAL" default:"5s"`
}

// StorageConfig selects where durable client state (cart, token, user
// record) lives. The file backend is the default; redis is for shared
// kiosk-style deployments.
type StorageConfig struct {
	Backend string `envconfig:"WEDDING_STORAGE_BACKEND" default:"file"`
	Dir     string `envconfig:"WEDDING_STORAGE_DIR" default:"~/.wedding"`
}

const (
	StorageBackendFile  = "file"
	StorageBackendRedis = "redis"
)

func (s StorageConfig) validateBackend() error {
	switch strings.ToLower(strings.TrimSpace(s.Backend)) {
	case StorageBackendFile, StorageBackendRedis:
		return nil
	default:
		return fmt.Errorf("storage backend must be %q or %q", StorageBackendFile, StorageBackendRedis)
	}
}

// NormalizedBackend returns the lowercase backend name.
func (s StorageConfig) NormalizedBackend() string {
	return strings.ToLower(strings.TrimSpace(s.Backend))
}

type RedisConfig struct {
	URL          string        `envconfig:"WEDDING_REDIS_URL"`
	Address      string        `envconfig:"WEDDING_REDIS_ADDR"`
	Password     string        `envconfig:"WEDDING_REDIS_PASSWORD"`
	DB           int           `envconfig:"WEDDING_REDIS_DB" default:"0"`
	DialTimeout  time.Duration `envconfig:"WEDDING_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"WEDDING_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"WEDDING_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type ListenerConfig struct {
	Port            string        `envconfig:"WEDDING_LISTENER_PORT" default:"8642"`
	ShutdownTimeout time.Duration `envconfig:"WEDDING_LISTENER_SHUTDOWN_TIMEOUT" default:"10s"`
}
