package config

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config is the full service configuration. Sources, highest priority first:
// APP_ prefixed environment variables (APP_DATABASE_PASSWORD), config.toml,
// then the defaults registered in setDefaults.
type Config struct {
	App          AppConfig          `mapstructure:"app"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Redis        RedisConfig        `mapstructure:"redis"`
	JWT          JWTConfig          `mapstructure:"jwt"`
	Log          LogConfig          `mapstructure:"log"`
	HTTP         HTTPConfig         `mapstructure:"http"`
	Telemetry    TelemetryConfig    `mapstructure:"telemetry"`
	Storage      StorageConfig      `mapstructure:"storage"`
	Billing      BillingConfig      `mapstructure:"billing"`
	Notification NotificationConfig `mapstructure:"notification"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	Port string `mapstructure:"port"`
}

// IsProduction enables the stricter checks in validate
func (a AppConfig) IsProduction() bool {
	return a.Env == "production"
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
	Output string `mapstructure:"output"` // stdout, stderr or a file path
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// DSN builds a postgres URL, escaping credentials
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

// RedisConfig is optional: an empty Host selects the in-memory fallbacks
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

func (r RedisConfig) Enabled() bool {
	return r.Host != ""
}

// JWTConfig describes the tokens issued by the identity provider.
// This service only validates them.
type JWTConfig struct {
	Secret                string        `mapstructure:"secret"`
	AccessTokenExpiration time.Duration `mapstructure:"access_token_expiration"`
	Issuer                string        `mapstructure:"issuer"`
}

type HTTPConfig struct {
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	MaxHeaderBytes    int           `mapstructure:"max_header_bytes"`
	MaxBodySize       int64         `mapstructure:"max_body_size"`
	RateLimitEnabled  bool          `mapstructure:"rate_limit_enabled"`
	RateLimitRequests int           `mapstructure:"rate_limit_requests"`
	RateLimitWindow   time.Duration `mapstructure:"rate_limit_window"`
	// An empty origin list rejects cross-origin requests
	CORSAllowOrigins []string `mapstructure:"cors_allow_origins"`
	CORSAllowMethods []string `mapstructure:"cors_allow_methods"`
	CORSAllowHeaders []string `mapstructure:"cors_allow_headers"`
	TrustedProxies   []string `mapstructure:"trusted_proxies"`
}

// TelemetryConfig covers OTLP export, database instrumentation and
// continuous profiling
type TelemetryConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	MetricsEnabled    bool    `mapstructure:"metrics_enabled"`
	LogsEnabled       bool    `mapstructure:"logs_enabled"`
	CollectorEndpoint string  `mapstructure:"collector_endpoint"`
	SamplingRatio     float64 `mapstructure:"sampling_ratio"`
	ServiceName       string  `mapstructure:"service_name"`
	Insecure          bool    `mapstructure:"insecure"`

	DBTraceEnabled    bool          `mapstructure:"db_trace_enabled"`
	DBLogFullSQL      bool          `mapstructure:"db_log_full_sql"` // development only
	DBSlowQueryThresh time.Duration `mapstructure:"db_slow_query_threshold"`

	ProfilingEnabled  bool   `mapstructure:"profiling_enabled"`
	PyroscopeEndpoint string `mapstructure:"pyroscope_endpoint"`

	// MetricsCollectInterval drives the overdue invoice gauge
	MetricsCollectInterval time.Duration `mapstructure:"metrics_collect_interval"`
}

// StorageConfig points at an S3-compatible bucket for attachments
type StorageConfig struct {
	Endpoint          string        `mapstructure:"endpoint"`
	Region            string        `mapstructure:"region"`
	Bucket            string        `mapstructure:"bucket"`
	AccessKey         string        `mapstructure:"access_key"`
	SecretKey         string        `mapstructure:"secret_key"`
	UseSSL            bool          `mapstructure:"use_ssl"`
	UsePathStyle      bool          `mapstructure:"use_path_style"`
	PresignExpiration time.Duration `mapstructure:"presign_expiration"`
	MaxUploadSize     int64         `mapstructure:"max_upload_size"`
}

func (s StorageConfig) Enabled() bool {
	return s.Bucket != "" && s.AccessKey != ""
}

// BillingConfig holds document defaults
type BillingConfig struct {
	DefaultTaxRate           decimal.Decimal `mapstructure:"default_tax_rate"`
	EstimateValidityDays     int             `mapstructure:"estimate_validity_days"`
	InvoiceDueDays           int             `mapstructure:"invoice_due_days"`
	ChangeOrderTTL           time.Duration   `mapstructure:"change_order_ttl"`
	ConversionIdempotencyTTL time.Duration   `mapstructure:"conversion_idempotency_ttl"`
	ConversionLockTTL        time.Duration   `mapstructure:"conversion_lock_ttl"`
	// PublicBaseURL prefixes change order approval links; defaults to the
	// local listener
	PublicBaseURL string `mapstructure:"public_base_url"`
}

// NotificationConfig: an empty WebhookURL logs notifications instead of
// sending them
type NotificationConfig struct {
	WebhookURL    string        `mapstructure:"webhook_url"`
	WebhookSecret string        `mapstructure:"webhook_secret"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// Load reads config.toml from the working directory or /app, overlays the
// environment and validates the result. A missing file is not an error.
func Load() (*Config, error) {
	v := newViper()
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

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newViper registers every default so AutomaticEnv can resolve each key
// during Unmarshal
func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	for key, value := range map[string]any{
		"app.name": "fieldbook",
		"app.env":  "development",
		"app.port": "8080",

		"database.host":               "localhost",
		"database.port":               5432,
		"database.user":               "postgres",
		"database.password":           "",
		"database.dbname":             "fieldbook",
		"database.sslmode":            "disable",
		"database.max_open_conns":     25,
		"database.max_idle_conns":     5,
		"database.conn_max_lifetime":  time.Hour,
		"database.conn_max_idle_time": 30 * time.Minute,

		"redis.host":     "",
		"redis.port":     6379,
		"redis.password": "",
		"redis.db":       0,

		"jwt.secret":                  "",
		"jwt.access_token_expiration": 15 * time.Minute,
		"jwt.issuer":                  "fieldbook",

		"log.level":  "info",
		"log.format": "console",
		"log.output": "stdout",

		"http.read_timeout":        15 * time.Second,
		"http.write_timeout":       15 * time.Second,
		"http.idle_timeout":        time.Minute,
		"http.max_header_bytes":    1 << 20,
		"http.max_body_size":       30 << 20, // attachment limit plus multipart overhead
		"http.rate_limit_enabled":  false,
		"http.rate_limit_requests": 100,
		"http.rate_limit_window":   time.Minute,
		"http.cors_allow_origins":  []string{},
		"http.cors_allow_methods":  []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		"http.cors_allow_headers":  []string{"Content-Type", "Authorization", "X-Request-ID", "Idempotency-Key"},
		"http.trusted_proxies":     []string{},

		"telemetry.enabled":                  false,
		"telemetry.metrics_enabled":          false,
		"telemetry.logs_enabled":             false,
		"telemetry.collector_endpoint":       "localhost:4317",
		"telemetry.sampling_ratio":           1.0,
		"telemetry.service_name":             "fieldbook",
		"telemetry.insecure":                 false,
		"telemetry.db_trace_enabled":         false,
		"telemetry.db_log_full_sql":          false,
		"telemetry.db_slow_query_threshold":  200 * time.Millisecond,
		"telemetry.profiling_enabled":        false,
		"telemetry.pyroscope_endpoint":       "http://localhost:4040",
		"telemetry.metrics_collect_interval": 5 * time.Minute,

		"storage.endpoint":           "",
		"storage.region":             "us-east-1",
		"storage.bucket":             "",
		"storage.access_key":         "",
		"storage.secret_key":         "",
		"storage.use_ssl":            false,
		"storage.use_path_style":     false,
		"storage.presign_expiration": 15 * time.Minute,
		"storage.max_upload_size":    25 << 20,

		"billing.default_tax_rate":           "6.625",
		"billing.estimate_validity_days":     30,
		"billing.invoice_due_days":           30,
		"billing.change_order_ttl":           7 * 24 * time.Hour,
		"billing.conversion_idempotency_ttl": 24 * time.Hour,
		"billing.conversion_lock_ttl":        10 * time.Second,
		"billing.public_base_url":            "",

		"notification.webhook_url":    "",
		"notification.webhook_secret": "",
		"notification.timeout":        5 * time.Second,
	} {
		v.SetDefault(key, value)
	}
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	hooks := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		decimalHook,
	))
	if err := v.Unmarshal(&cfg, hooks); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Billing.PublicBaseURL == "" {
		cfg.Billing.PublicBaseURL = "http://localhost:" + cfg.App.Port
	}
	return &cfg, nil
}

var decimalType = reflect.TypeOf(decimal.Decimal{})

// decimalHook parses money settings from strings so "6.625" stays exact
func decimalHook(from, to reflect.Type, data any) (any, error) {
	if to != decimalType {
		return data, nil
	}
	switch from.Kind() {
	case reflect.String:
		return decimal.NewFromString(data.(string))
	case reflect.Float32, reflect.Float64:
		return decimal.NewFromFloat(reflect.ValueOf(data).Float()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return decimal.NewFromInt(reflect.ValueOf(data).Int()), nil
	default:
		return data, nil
	}
}

func (c *Config) validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	db := c.Database
	check(db.MaxOpenConns > 0, "database.max_open_conns must be positive")
	check(db.MaxIdleConns >= 0, "database.max_idle_conns cannot be negative")
	check(db.MaxIdleConns <= db.MaxOpenConns,
		"database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)", db.MaxIdleConns, db.MaxOpenConns)

	b := c.Billing
	check(!b.DefaultTaxRate.IsNegative(), "billing.default_tax_rate cannot be negative")
	check(b.EstimateValidityDays >= 0 && b.InvoiceDueDays >= 0, "billing day counts cannot be negative")
	_, urlErr := url.ParseRequestURI(b.PublicBaseURL)
	check(urlErr == nil, "billing.public_base_url is invalid: %v", urlErr)

	ratio := c.Telemetry.SamplingRatio
	check(ratio >= 0 && ratio <= 1, "telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", ratio)

	if c.App.IsProduction() {
		check(len(c.JWT.Secret) >= 32, "jwt.secret must be at least 32 characters in production")
		check(db.Password != "", "database.password is required in production")
		check(db.SSLMode != "disable", "database.sslmode cannot be 'disable' in production")
		for _, origin := range c.HTTP.CORSAllowOrigins {
			check(origin != "*", "http.cors_allow_origins cannot be '*' in production")
		}
		check(!c.Telemetry.DBLogFullSQL, "telemetry.db_log_full_sql must be false in production")
		check(strings.HasPrefix(b.PublicBaseURL, "https://"), "billing.public_base_url must use https in production")
	}

	return errors.Join(errs...)
}
