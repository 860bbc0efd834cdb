// Package config loads sanitizer settings from environment variables with
// defaults that reproduce the plain load -> validate -> save run, and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Data     DataConfig
	Sampling SamplingConfig
	Report   ReportConfig
	Database DatabaseConfig
	Server   ServerConfig
	Logging  LoggingConfig
}

// DataConfig locates the input files and the cleaned copies.
type DataConfig struct {
	OrdersPath   string `env:"ORDERS_PATH" default:"../data/orders.csv"`
	ItemsPath    string `env:"ORDER_PRODUCTS_PATH" envAlt:"ORDER_ITEMS_PATH" default:"../data/order_products__prior.csv"`
	ProductsPath string `env:"PRODUCTS_PATH" default:"../data/products.csv"`

	CleanOrdersPath   string `env:"CLEAN_ORDERS_PATH" default:"../data/clean_orders.csv"`
	CleanItemsPath    string `env:"CLEAN_ORDER_PRODUCTS_PATH" default:"../data/clean_order_products.csv"`
	CleanProductsPath string `env:"CLEAN_PRODUCTS_PATH" default:"../data/clean_products.csv"`
}

// SamplingConfig tunes how much evidence each check keeps.
type SamplingConfig struct {
	// SampleSize is how many offending rows each check keeps (default: 5)
	SampleSize int `env:"VALIDATE_SAMPLE_SIZE" default:"5"`
}

// ReportConfig controls the report file.
type ReportConfig struct {
	// Path of the YAML report; empty disables it
	Path string `env:"REPORT_PATH"`
}

// DatabaseConfig holds the optional Postgres sink settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string; empty disables the sink.
	// Supports both DATABASE_URL and DB_URL.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	MaxConns        int           `env:"DB_MAX_CONNS" default:"4"`
	MinConns        int           `env:"DB_MIN_CONNS" default:"0"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// TablePrefix is prepended to the three table names (default: clean_)
	TablePrefix string `env:"DB_TABLE_PREFIX" default:"clean_"`

	// Timeout bounds a whole sink write (default: 10m)
	Timeout time.Duration `env:"DB_TIMEOUT" default:"10m"`
}

// Enabled reports whether the Postgres sink should run.
func (c DatabaseConfig) Enabled() bool { return c.URL != "" }

// ServerConfig holds settings for serve mode.
type ServerConfig struct {
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`
	Port int    `env:"SERVER_PORT" default:"8080"`

	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" default:"60s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"120s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// MaxUploadSize caps the combined multipart body (default: 512MB)
	MaxUploadSize int64 `env:"SERVER_MAX_UPLOAD_SIZE" default:"536870912"`

	// RecentReports is how many reports serve mode keeps for lookup (default: 50)
	RecentReports int `env:"SERVER_RECENT_REPORTS" default:"50"`

	// MaxConcurrent caps simultaneous validations (default: 2)
	MaxConcurrent int `env:"SERVER_MAX_CONCURRENT" default:"2"`

	// QueueWait is how long a request waits for a free slot (default: 30s)
	QueueWait time.Duration `env:"SERVER_QUEUE_WAIT" default:"30s"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
