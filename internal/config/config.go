package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-rental/internal/shipping"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	CORSAllowedOrigins []string
	MigrationsDir      string

	ListingCacheTTL time.Duration

	CommissionAssetURL           string
	CommissionCacheTTL           time.Duration
	CommissionProviderPercentage *decimal.Decimal
	CommissionCustomerPercentage *decimal.Decimal
	// CommissionProviderMinimum is in minor units of the listing currency.
	CommissionProviderMinimum int64

	InsuranceRateBps  int64
	InsuranceMinimums map[string]int64

	ShippingBookingFees map[string]int64

	RateLimitWindow time.Duration
	RateLimitMax    int
	RateLimitDriver string
	BodyLimitBytes  int64

	OutboundTimeout     time.Duration
	RetryMaxAttempts    int
	RetryBase           time.Duration
	RetryJitter         float64
	CircuitMinRequests  int
	CircuitFailureRatio float64
	CircuitOpenFor      time.Duration

	Obs       Obs
	Security  Security
	Lifecycle Lifecycle
}

// Obs holds logging, metrics, tracing and profiling switches.
type Obs struct {
	LogFormat        string
	LogLevel         string
	MetricsEnabled   bool
	MetricsNamespace string
	MetricsBuckets   string
	TracingEnabled   bool
	TracingExporter  string
	OTLPEndpoint     string
	SamplingRatio    float64
	ServiceVersion   string
	PprofEnabled     bool
	PprofUser        string
	PprofPass        string
}

// Security configures response hardening headers.
type Security struct {
	HeadersEnabled        bool
	HSTSEnabled           bool
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool
}

// Lifecycle holds readiness probe and shutdown timings.
type Lifecycle struct {
	DBProbeTimeout    time.Duration
	RedisProbeTimeout time.Duration
	ShutdownDrain     time.Duration
	ShutdownTimeout   time.Duration
}

// Load reads configuration from the process environment, after merging an
// optional .env file. Malformed numeric and duration values fall back to
// their defaults; malformed money and percentage values are errors.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}
	r := reader{k: k}

	cfg := &Config{
		AppEnv:                    r.str("APP_ENV", "development"),
		Port:                      r.str("PORT", "8080"),
		DatabaseURL:               r.str("DATABASE_URL", ""),
		RedisURL:                  r.str("REDIS_URL", ""),
		CORSAllowedOrigins:        r.list("CORS_ALLOWED_ORIGINS"),
		MigrationsDir:             r.str("MIGRATIONS_DIR", ""),
		ListingCacheTTL:           r.duration("LISTING_CACHE_TTL", time.Minute),
		CommissionAssetURL:        r.str("COMMISSION_ASSET_URL", ""),
		CommissionCacheTTL:        r.duration("COMMISSION_CACHE_TTL", 5*time.Minute),
		CommissionProviderMinimum: int64(r.int("COMMISSION_PROVIDER_MINIMUM", 0)),
		InsuranceRateBps:          int64(r.int("INSURANCE_RATE_BPS", 0)),
		RateLimitWindow:           r.duration("RATE_LIMIT_WINDOW", time.Minute),
		RateLimitMax:              r.int("RATE_LIMIT_MAX", 120),
		RateLimitDriver:           strings.ToLower(r.str("RATE_LIMIT_DRIVER", "redis")),
		BodyLimitBytes:            int64(r.int("BODY_LIMIT_BYTES", 64<<10)),
		OutboundTimeout:           r.duration("OUTBOUND_TIMEOUT", 3*time.Second),
		RetryMaxAttempts:          r.int("RETRY_MAX_ATTEMPTS", 3),
		RetryBase:                 r.duration("RETRY_BASE", 100*time.Millisecond),
		RetryJitter:               r.float("RETRY_JITTER", 0.2),
		CircuitMinRequests:        r.int("CIRCUIT_MIN_REQUESTS", 10),
		CircuitFailureRatio:       r.float("CIRCUIT_FAILURE_RATIO", 0.5),
		CircuitOpenFor:            r.duration("CIRCUIT_OPEN_FOR", 30*time.Second),
	}
	production := cfg.AppEnv == "production"
	cfg.Obs = Obs{
		LogFormat:        r.str("OBS_LOG_FORMAT", "json"),
		LogLevel:         r.str("OBS_LOG_LEVEL", "info"),
		MetricsEnabled:   r.bool("OBS_ENABLE_PROMETHEUS", true),
		MetricsNamespace: r.str("OBS_METRICS_NAMESPACE", "rental"),
		MetricsBuckets:   r.str("OBS_METRICS_BUCKETS_MS", ""),
		TracingEnabled:   r.bool("OBS_ENABLE_TRACING", true),
		TracingExporter:  r.str("OBS_TRACING_EXPORTER", "otlp"),
		OTLPEndpoint:     r.str("OBS_OTLP_ENDPOINT", ""),
		SamplingRatio:    r.float("OBS_TRACING_SAMPLING_RATIO", 1),
		ServiceVersion:   r.str("APP_VERSION", ""),
		PprofEnabled:     r.bool("OBS_ENABLE_PPROF", !production),
		PprofUser:        r.str("SECURE_PPROF_BASIC_AUTH_USER", ""),
		PprofPass:        r.str("SECURE_PPROF_BASIC_AUTH_PASS", ""),
	}
	cfg.Security = Security{
		HeadersEnabled:        r.bool("SECURE_HEADERS_ENABLED", true),
		HSTSEnabled:           r.bool("SECURE_HSTS_ENABLED", production),
		HSTSMaxAge:            r.int("SECURE_HSTS_MAX_AGE", 0),
		HSTSIncludeSubdomains: r.bool("SECURE_HSTS_INCLUDE_SUBDOMAINS", true),
	}
	cfg.Lifecycle = Lifecycle{
		DBProbeTimeout:    r.millis("HEALTH_READY_DB_TIMEOUT_MS", 500),
		RedisProbeTimeout: r.millis("HEALTH_READY_REDIS_TIMEOUT_MS", 300),
		ShutdownDrain:     r.millis("SHUTDOWN_DRAIN_MS", 0),
		ShutdownTimeout:   r.millis("SHUTDOWN_TIMEOUT_MS", 10000),
	}

	var err error
	if cfg.CommissionProviderPercentage, err = r.percentage("COMMISSION_PROVIDER_PERCENTAGE"); err != nil {
		return nil, err
	}
	if cfg.CommissionCustomerPercentage, err = r.percentage("COMMISSION_CUSTOMER_PERCENTAGE"); err != nil {
		return nil, err
	}
	if cfg.ShippingBookingFees, err = r.amounts("SHIPPING_BOOKING_FEES"); err != nil {
		return nil, err
	}
	if cfg.InsuranceMinimums, err = r.amounts("INSURANCE_MINIMUM"); err != nil {
		return nil, err
	}
	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.RedisURL == "" {
		errs = append(errs, errors.New("REDIS_URL is required"))
	}
	switch c.RateLimitDriver {
	case "redis", "sliding", "memory":
	default:
		errs = append(errs, fmt.Errorf("RATE_LIMIT_DRIVER %q is not supported", c.RateLimitDriver))
	}
	return errors.Join(errs...)
}

// HTTPAddr returns the listen address, accepting PORT as "8080" or ":8080".
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	switch {
	case port == "":
		return ":8080"
	case strings.HasPrefix(port, ":"):
		return port
	default:
		return ":" + port
	}
}

// reader wraps koanf with typed lookups that fall back to a default.
type reader struct {
	k *koanf.Koanf
}

func (r reader) str(key, fallback string) string {
	if v := strings.TrimSpace(r.k.String(key)); v != "" {
		return v
	}
	return fallback
}

func (r reader) list(key string) []string {
	var out []string
	for _, part := range strings.Split(r.k.String(key), ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func (r reader) duration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(r.str(key, ""))
	if err != nil {
		return fallback
	}
	return d
}

func (r reader) int(key string, fallback int) int {
	v, err := strconv.Atoi(r.str(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func (r reader) bool(key string, fallback bool) bool {
	switch strings.ToLower(r.str(key, "")) {
	case "1", "t", "true", "yes", "on":
		return true
	case "0", "f", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

// millis reads an integer count of milliseconds.
func (r reader) millis(key string, fallback int) time.Duration {
	return time.Duration(r.int(key, fallback)) * time.Millisecond
}

func (r reader) float(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(r.str(key, ""), 64)
	if err != nil {
		return fallback
	}
	return v
}

// percentage is nil when unset, which disables the matching commission item.
func (r reader) percentage(key string) (*decimal.Decimal, error) {
	raw := r.str(key, "")
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return &d, nil
}

// amounts parses per-currency minor-unit amounts such as "USD:1500,EUR:1200".
func (r reader) amounts(key string) (map[string]int64, error) {
	m, err := shipping.ParseFees(r.k.String(key))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return m, nil
}
