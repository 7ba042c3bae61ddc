// Package config loads the backend configuration from config.toml and
// DSHOP_-prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Database drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DefaultQueueNames are the job queues the marketplace workers publish to
var DefaultQueueNames = []string{"download", "discord", "email", "makeOffer", "autossl"}

// Config holds all application configuration
type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Redis       RedisConfig       `mapstructure:"redis"`
	JWT         JWTConfig         `mapstructure:"jwt"`
	Log         LogConfig         `mapstructure:"log"`
	HTTP        HTTPConfig        `mapstructure:"http"`
	Fulfillment FulfillmentConfig `mapstructure:"fulfillment"`
	Secrets     SecretsConfig     `mapstructure:"secrets"`
	Queue       QueueConfig       `mapstructure:"queue"`
	Telemetry   TelemetryConfig   `mapstructure:"telemetry"`
	Profiling   ProfilingConfig   `mapstructure:"profiling"`
}

type AppConfig struct {
	Name    string `mapstructure:"name"`
	Env     string `mapstructure:"env"`
	Port    string `mapstructure:"port"`
	Version string `mapstructure:"version"`
}

// DatabaseConfig selects postgres or a local sqlite file
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	SQLitePath      string `mapstructure:"sqlite_path"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // minutes
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // minutes
	LogLevel        string `mapstructure:"log_level"`
}

// RedisConfig holds the Redis connection. An empty URL disables queueing.
type RedisConfig struct {
	URL string `mapstructure:"url"`
}

// Enabled reports whether a Redis URL is configured
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != ""
}

// JWTConfig holds seller token settings
type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
	Issuer     string        `mapstructure:"issuer"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	MaxHeaderBytes int           `mapstructure:"max_header_bytes"`
	MaxBodySize    int64         `mapstructure:"max_body_size"`
	TrustedProxies []string      `mapstructure:"trusted_proxies"`
	// CORSAllowOrigins lists the storefront origins; "*" allows any
	CORSAllowOrigins []string `mapstructure:"cors_allow_origins"`
	// LoginRateLimit caps login attempts per client IP within LoginRateWindow
	LoginRateLimit  int           `mapstructure:"login_rate_limit"`
	LoginRateWindow time.Duration `mapstructure:"login_rate_window"`
}

// FulfillmentConfig holds the Printful client settings
type FulfillmentConfig struct {
	PrintfulBaseURL string        `mapstructure:"printful_base_url"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

// SecretsConfig holds the master key for per-shop encrypted config
type SecretsConfig struct {
	EncryptionKey string `mapstructure:"encryption_key"`
}

// QueueConfig lists the job queues shown on the dashboard
type QueueConfig struct {
	Names           []string `mapstructure:"names"`
	Prefix          string   `mapstructure:"prefix"`
	FailedJobsLimit int      `mapstructure:"failed_jobs_limit"`
}

// TelemetryConfig holds OpenTelemetry export settings
type TelemetryConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	CollectorEndpoint string        `mapstructure:"collector_endpoint"` // OTLP gRPC, host:port
	SamplingRatio     float64       `mapstructure:"sampling_ratio"`
	ServiceName       string        `mapstructure:"service_name"`
	Insecure          bool          `mapstructure:"insecure"`
	MetricsEnabled    bool          `mapstructure:"metrics_enabled"`
	LogsEnabled       bool          `mapstructure:"logs_enabled"`
	DBTraceEnabled    bool          `mapstructure:"db_trace_enabled"`
	DBLogFullSQL      bool          `mapstructure:"db_log_full_sql"` // never in production
	DBSlowQueryThresh time.Duration `mapstructure:"db_slow_query_threshold"`
}

// ProfilingConfig points the Pyroscope agent at a server
type ProfilingConfig struct {
	Enabled              bool     `mapstructure:"enabled"`
	ServerAddress        string   `mapstructure:"server_address"`
	ApplicationName      string   `mapstructure:"application_name"`
	BasicAuthUser        string   `mapstructure:"basic_auth_user"`
	BasicAuthPassword    string   `mapstructure:"basic_auth_password"`
	ProfileTypes         []string `mapstructure:"profile_types"`
	MutexProfileFraction int      `mapstructure:"mutex_profile_fraction"`
	BlockProfileRate     int      `mapstructure:"block_profile_rate"`
}

// defaults lists every key Load understands. Keys without a default are
// listed too so that AutomaticEnv can fill them during Unmarshal.
var defaults = map[string]any{
	"app.name":    "dshop-backend",
	"app.env":     "development",
	"app.port":    "3000",
	"app.version": "dev",

	"database.driver":             DriverPostgres,
	"database.host":               "localhost",
	"database.port":               5432,
	"database.user":               "postgres",
	"database.password":           "",
	"database.dbname":             "dshop",
	"database.sslmode":            "disable",
	"database.sqlite_path":        "dshop.db",
	"database.max_open_conns":     25,
	"database.max_idle_conns":     5,
	"database.conn_max_lifetime":  60,
	"database.conn_max_idle_time": 30,
	"database.log_level":          "warn",

	"jwt.secret":     "",
	"jwt.expiration": 24 * time.Hour,
	"jwt.issuer":     "dshop-backend",

	"log.level":  "info",
	"log.format": "console",
	"log.output": "stdout",

	"http.read_timeout": 15 * time.Second,
	// outlasts fulfillment.timeout so a slow quote can still be answered
	"http.write_timeout":      45 * time.Second,
	"http.idle_timeout":       60 * time.Second,
	"http.max_header_bytes":   1 << 20,
	"http.max_body_size":      int64(10 << 20),
	"http.trusted_proxies":    []string{},
	"http.cors_allow_origins": []string{"*"},
	"http.login_rate_limit":   10,
	"http.login_rate_window":  time.Minute,

	"fulfillment.printful_base_url": "https://api.printful.com",
	"fulfillment.timeout":           30 * time.Second,

	"secrets.encryption_key": "",

	"queue.names":             DefaultQueueNames,
	"queue.prefix":            "bull",
	"queue.failed_jobs_limit": 50,

	"telemetry.enabled":                 false,
	"telemetry.collector_endpoint":      "localhost:4317",
	"telemetry.sampling_ratio":          1.0,
	"telemetry.service_name":            "dshop-backend",
	"telemetry.insecure":                false,
	"telemetry.metrics_enabled":         false,
	"telemetry.logs_enabled":            false,
	"telemetry.db_trace_enabled":        false,
	"telemetry.db_log_full_sql":         false,
	"telemetry.db_slow_query_threshold": 200 * time.Millisecond,

	"profiling.enabled":                false,
	"profiling.server_address":         "http://localhost:4040",
	"profiling.application_name":       "dshop-backend",
	"profiling.basic_auth_user":        "",
	"profiling.basic_auth_password":    "",
	"profiling.profile_types":          []string{"cpu", "alloc_objects", "alloc_space", "inuse_objects", "inuse_space"},
	"profiling.mutex_profile_fraction": 0,
	"profiling.block_profile_rate":     0,
}

// Load reads configuration. Environment variables (DSHOP_DATABASE_PASSWORD)
// override config.toml, which overrides the defaults. REDIS_URL is honored
// when DSHOP_REDIS_URL is unset.
func Load() (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetEnvPrefix("DSHOP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("redis.url", "DSHOP_REDIS_URL", "REDIS_URL"); err != nil {
		return nil, fmt.Errorf("bind redis.url: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Database.Driver = strings.ToLower(cfg.Database.Driver)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	db := c.Database
	switch db.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("database.driver must be %q or %q, got %q", DriverPostgres, DriverSQLite, db.Driver)
	}
	switch {
	case db.MaxOpenConns <= 0:
		return errors.New("database.max_open_conns must be positive")
	case db.MaxIdleConns < 0:
		return errors.New("database.max_idle_conns cannot be negative")
	case db.MaxIdleConns > db.MaxOpenConns:
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			db.MaxIdleConns, db.MaxOpenConns)
	}

	if c.Fulfillment.Timeout < 0 {
		return errors.New("fulfillment.timeout cannot be negative")
	}
	if c.Redis.Enabled() {
		if _, err := url.Parse(c.Redis.URL); err != nil {
			return fmt.Errorf("redis.url is not a valid URL: %w", err)
		}
	}
	if r := c.Telemetry.SamplingRatio; r < 0 || r > 1 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", r)
	}
	if c.Profiling.Enabled && c.Profiling.ServerAddress == "" {
		return errors.New("profiling.server_address is required when profiling is enabled")
	}
	if c.Profiling.MutexProfileFraction < 0 || c.Profiling.BlockProfileRate < 0 {
		return errors.New("profiling rates cannot be negative")
	}

	if c.App.Env == "production" {
		return c.validateProduction()
	}
	return nil
}

func (c *Config) validateProduction() error {
	switch {
	case c.JWT.Secret == "":
		return errors.New("jwt.secret is required in production")
	case len(c.JWT.Secret) < 32:
		return errors.New("jwt.secret must be at least 32 characters in production")
	case c.Secrets.EncryptionKey == "":
		return errors.New("secrets.encryption_key is required in production")
	case c.Telemetry.DBLogFullSQL:
		return errors.New("telemetry.db_log_full_sql must be false in production")
	}

	if c.Database.Driver != DriverPostgres {
		return nil
	}
	if c.Database.Password == "" {
		return errors.New("database.password is required in production")
	}
	if c.Database.SSLMode == "disable" {
		return errors.New("database.sslmode cannot be 'disable' in production")
	}
	return nil
}

// DSN returns the postgres connection URL with escaped credentials
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     d.DBName,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}
