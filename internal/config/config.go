// Package config loads the server configuration from TRADEDESK_* environment
// variables. A .env file in the working directory is read first when present.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

// EnvPrefix is the prefix of every variable read by Load.
const EnvPrefix = "TRADEDESK"

// Environment variable names referenced outside struct tags.
const (
	EnvAppEnv   = "TRADEDESK_APP_ENV"
	EnvPort     = "TRADEDESK_APP_PORT"
	EnvLogLevel = "TRADEDESK_LOG_LEVEL"
	EnvDBDSN    = "TRADEDESK_DB_DSN"
)

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

type Config struct {
	App     AppConfig
	DB      DBConfig
	Ledger  LedgerConfig
	HTTP    HTTPConfig
	Metrics MetricsConfig
}

// Load reads .env (if any) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv reads the process environment only.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values envconfig cannot express as tags.
func (c *Config) Validate() error {
	var errs []error
	if c.DB.MinConns > c.DB.MaxConns {
		errs = append(errs, fmt.Errorf("%s_DB_MIN_CONNS (%d) exceeds %s_DB_MAX_CONNS (%d)",
			EnvPrefix, c.DB.MinConns, EnvPrefix, c.DB.MaxConns))
	}
	if c.Ledger.TaxRate.IsNegative() {
		errs = append(errs, fmt.Errorf("%s_LEDGER_TAX_RATE must not be negative", EnvPrefix))
	}
	if c.Ledger.PurchaseShippingFee.IsNegative() || c.Ledger.SaleShippingFee.IsNegative() {
		errs = append(errs, fmt.Errorf("%s_LEDGER_*_SHIPPING_FEE must not be negative", EnvPrefix))
	}
	if c.Ledger.InvoiceTermDays < 1 {
		errs = append(errs, fmt.Errorf("%s_LEDGER_INVOICE_TERM_DAYS must be at least 1", EnvPrefix))
	}
	if c.HTTP.IdempotencyEnabled && c.HTTP.IdempotencyTTL <= 0 {
		errs = append(errs, fmt.Errorf("%s_HTTP_IDEMPOTENCY_TTL must be positive", EnvPrefix))
	}
	return errors.Join(errs...)
}

type AppConfig struct {
	Env      string `envconfig:"TRADEDESK_APP_ENV" default:"development"`
	Port     string `envconfig:"TRADEDESK_APP_PORT" default:"8080"`
	LogLevel string `envconfig:"TRADEDESK_LOG_LEVEL" default:"info"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev) || strings.EqualFold(a.Env, "dev")
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "prod")
}

type DBConfig struct {
	DSN string `envconfig:"TRADEDESK_DB_DSN" required:"true"`

	MaxConns          int32         `envconfig:"TRADEDESK_DB_MAX_CONNS" default:"20"`
	MinConns          int32         `envconfig:"TRADEDESK_DB_MIN_CONNS" default:"2"`
	MaxConnLifetime   time.Duration `envconfig:"TRADEDESK_DB_CONN_MAX_LIFETIME" default:"1h"`
	MaxConnIdleTime   time.Duration `envconfig:"TRADEDESK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	HealthCheckPeriod time.Duration `envconfig:"TRADEDESK_DB_HEALTH_CHECK_PERIOD" default:"1m"`
}

// LedgerConfig holds the defaults a new draft starts with.
// decimal.Decimal implements encoding.TextUnmarshaler, so envconfig parses it directly.
type LedgerConfig struct {
	TaxRate             decimal.Decimal `envconfig:"TRADEDESK_LEDGER_TAX_RATE" default:"0.20"`
	PurchaseShippingFee decimal.Decimal `envconfig:"TRADEDESK_LEDGER_PURCHASE_SHIPPING_FEE" default:"0"`
	SaleShippingFee     decimal.Decimal `envconfig:"TRADEDESK_LEDGER_SALE_SHIPPING_FEE" default:"15.00"`

	// InvoiceTermDays is the gap between an invoice's issue and due dates
	InvoiceTermDays int `envconfig:"TRADEDESK_LEDGER_INVOICE_TERM_DAYS" default:"30"`
}

type HTTPConfig struct {
	ReadTimeout     time.Duration `envconfig:"TRADEDESK_HTTP_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"TRADEDESK_HTTP_WRITE_TIMEOUT" default:"30s"`
	IdleTimeout     time.Duration `envconfig:"TRADEDESK_HTTP_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"TRADEDESK_HTTP_SHUTDOWN_TIMEOUT" default:"30s"`

	IdempotencyEnabled bool          `envconfig:"TRADEDESK_HTTP_IDEMPOTENCY_ENABLED" default:"true"`
	IdempotencyTTL     time.Duration `envconfig:"TRADEDESK_HTTP_IDEMPOTENCY_TTL" default:"24h"`
}

type MetricsConfig struct {
	Enabled bool   `envconfig:"TRADEDESK_METRICS_ENABLED" default:"true"`
	Path    string `envconfig:"TRADEDESK_METRICS_PATH" default:"/metrics"`
}
