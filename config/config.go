package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
	"github.com/slighter12/go-lib/database/postgres"
)

const (
	defaultPath               = "."
	defaultMaxRequestBodySize = "100KB"
	defaultCommerceTimeout    = 12 * time.Second
	defaultKVOpTimeout        = 2 * time.Second
	defaultSessionCookie      = "storefront_session"
	defaultSessionIdleTTL     = 30 * time.Minute
	defaultAwaitingPaymentTTL = 24 * time.Hour
	defaultCouponDebounce     = 500 * time.Millisecond
	defaultFallbackCountry    = "IN"
	defaultCurrency           = "INR"
)

type Config struct {
	Env struct {
		Env         string `json:"env" yaml:"env"`
		ServiceName string `json:"serviceName" yaml:"serviceName"`
		Debug       bool   `json:"debug" yaml:"debug"`
		Log         Log    `json:"log" yaml:"log"`
	} `json:"env" yaml:"env"`

	HTTP struct {
		Port               int      `json:"port" yaml:"port"`
		MaxRequestBodySize string   `json:"maxRequestBodySize" yaml:"maxRequestBodySize"`
		AllowOrigins       []string `json:"allowOrigins" yaml:"allowOrigins"`
		Timeouts           struct {
			ReadTimeout       time.Duration `json:"readTimeout" yaml:"readTimeout"`
			ReadHeaderTimeout time.Duration `json:"readHeaderTimeout" yaml:"readHeaderTimeout"`
			WriteTimeout      time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
			IdleTimeout       time.Duration `json:"idleTimeout" yaml:"idleTimeout"`
		} `json:"timeouts" yaml:"timeouts"`
	} `json:"http" yaml:"http"`

	// Postgres is only required by the postgres KV driver
	Postgres *postgres.DBConn `json:"postgres" yaml:"postgres" mapstructure:"postgres"`

	SecretKey struct {
		// Identity signs and verifies shopper identity tokens
		Identity string        `json:"identity" yaml:"identity"`
		Issuer   string        `json:"issuer" yaml:"issuer"`
		TTL      time.Duration `json:"ttl" yaml:"ttl"`
	} `json:"secretKey" yaml:"secretKey"`

	KVStore *KVStoreConfig `json:"kvStore" yaml:"kvStore"`

	Redis *RedisConfig `json:"redis" yaml:"redis"`

	Commerce *CommerceConfig `json:"commerce" yaml:"commerce"`

	Checkout *CheckoutConfig `json:"checkout" yaml:"checkout"`

	Coupon *CouponConfig `json:"coupon" yaml:"coupon"`

	Session *SessionConfig `json:"session" yaml:"session"`

	Stripe *StripeConfig `json:"stripe" yaml:"stripe"`

	PayPal *PayPalConfig `json:"paypal" yaml:"paypal"`

	// PubSub configuration for order event publishing
	PubSub *PubSubConfig `json:"pubsub" yaml:"pubsub"`

	Tracing *TracingConfig `json:"tracing" yaml:"tracing"`
}

type Log struct {
	Pretty bool   `json:"pretty" yaml:"pretty"`
	Level  string `json:"level" yaml:"level"`
}

// KV store drivers
const (
	KVDriverMemory   = "memory"
	KVDriverRedis    = "redis"
	KVDriverBlob     = "blob"
	KVDriverPostgres = "postgres"
)

// KVStoreConfig selects and tunes the session key-value backend
type KVStoreConfig struct {
	// Driver is one of memory, redis, blob, postgres
	Driver string `json:"driver" yaml:"driver"`

	// OpTimeout bounds every backend call
	OpTimeout time.Duration `json:"opTimeout" yaml:"opTimeout"`

	// BucketURL is the gocloud.dev bucket used by the blob driver (mem://, file:///path, gs://bucket)
	BucketURL string `json:"bucketUrl" yaml:"bucketUrl"`
}

// RedisConfig defines the redis connection used by the redis KV driver
type RedisConfig struct {
	Addr     string `json:"addr" yaml:"addr"`
	Password string `json:"password" yaml:"password"`
	DB       int    `json:"db" yaml:"db"`

	// KeyTTL expires idle session keys; zero keeps them forever
	KeyTTL time.Duration `json:"keyTtl" yaml:"keyTtl"`
}

// CommerceConfig defines the WooCommerce backend connection
type CommerceConfig struct {
	BaseURL        string        `json:"baseUrl" yaml:"baseUrl"`
	ConsumerKey    string        `json:"consumerKey" yaml:"consumerKey"`
	ConsumerSecret string        `json:"consumerSecret" yaml:"consumerSecret"`
	Timeout        time.Duration `json:"timeout" yaml:"timeout"`

	// StaticCacheTTL keeps countries, gateways and shipping zones in memory
	StaticCacheTTL time.Duration `json:"staticCacheTtl" yaml:"staticCacheTtl"`

	Breaker BreakerConfig `json:"breaker" yaml:"breaker"`
}

// BreakerConfig tunes the circuit breaker in front of the commerce backend
type BreakerConfig struct {
	MaxRequests         uint32        `json:"maxRequests" yaml:"maxRequests"`
	Interval            time.Duration `json:"interval" yaml:"interval"`
	Timeout             time.Duration `json:"timeout" yaml:"timeout"`
	ConsecutiveFailures uint32        `json:"consecutiveFailures" yaml:"consecutiveFailures"`
}

// CheckoutConfig defines checkout orchestration settings
type CheckoutConfig struct {
	// FallbackCountry replaces unrecognised numeric country codes
	FallbackCountry string `json:"fallbackCountry" yaml:"fallbackCountry"`

	// Currency is reported for offline orders until the backend answers
	Currency string `json:"currency" yaml:"currency"`

	// OfflineNote is recorded on orders paid offline
	OfflineNote string `json:"offlineNote" yaml:"offlineNote"`
}

// CouponConfig defines coupon engine settings
type CouponConfig struct {
	// Debounce is how long live validation waits for typing to settle
	Debounce time.Duration `json:"debounce" yaml:"debounce"`
}

// SessionConfig defines browser session handling
type SessionConfig struct {
	CookieName   string        `json:"cookieName" yaml:"cookieName"`
	CookieSecure bool          `json:"cookieSecure" yaml:"cookieSecure"`
	IdleTTL      time.Duration `json:"idleTtl" yaml:"idleTtl"`

	// AwaitingPaymentTTL keeps sessions with an order waiting for payment past IdleTTL
	AwaitingPaymentTTL time.Duration `json:"awaitingPaymentTtl" yaml:"awaitingPaymentTtl"`
}

// StripeConfig defines the card gateway
type StripeConfig struct {
	SecretKey string `json:"secretKey" yaml:"secretKey"`

	// ReturnURL receives the shopper after 3-D Secure
	ReturnURL string `json:"returnUrl" yaml:"returnUrl"`
}

// PayPalConfig defines the redirect gateway
type PayPalConfig struct {
	ClientID  string `json:"clientId" yaml:"clientId"`
	Secret    string `json:"secret" yaml:"secret"`
	APIBase   string `json:"apiBase" yaml:"apiBase"`
	ReturnURL string `json:"returnUrl" yaml:"returnUrl"`
	CancelURL string `json:"cancelUrl" yaml:"cancelUrl"`
	BrandName string `json:"brandName" yaml:"brandName"`
}

// PubSub providers
const (
	PubSubProviderLocal  = "local"
	PubSubProviderGoogle = "google"
)

// TracingConfig defines OTLP span export. An empty endpoint disables export.
type TracingConfig struct {
	// Endpoint is the OTLP/HTTP collector host:port
	Endpoint    string  `json:"endpoint" yaml:"endpoint"`
	Insecure    bool    `json:"insecure" yaml:"insecure"`
	SampleRatio float64 `json:"sampleRatio" yaml:"sampleRatio"`
}

// PubSubConfig defines Pub/Sub configuration for event publishing
type PubSubConfig struct {
	// Provider type: "local" for local HTTP or "google" for Google Pub/Sub
	Provider string `json:"provider" yaml:"provider"`

	// Google Cloud project ID (for google provider)
	ProjectID string `json:"projectId" yaml:"projectId"`

	// Pub/Sub topic ID (for google provider)
	TopicID string `json:"topicId" yaml:"topicId"`

	// Local HTTP endpoint for development (for local provider)
	LocalEndpoint string `json:"localEndpoint" yaml:"localEndpoint"`
}

// LoadWithEnv loads .yaml files through koanf.
func LoadWithEnv[T any](currEnv string, configPath ...string) (*T, error) {
	cfg := new(T)
	koanfInstance := koanf.New(".")

	// Build list of paths to search for config file
	searchPaths := []string{defaultPath}
	if len(configPath) != 0 {
		pwd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "os.Getwd")
		}
		for _, path := range configPath {
			abs := filepath.Join(pwd, path)
			searchPaths = append(searchPaths, abs)
		}
	}

	// Try to find and load the config file
	var configFile string
	var found bool
	for _, path := range searchPaths {
		candidate := filepath.Join(path, currEnv+".yaml")
		if _, err := os.Stat(candidate); err == nil {
			configFile = candidate
			found = true

			break
		}
	}

	if !found {
		return nil, errors.Errorf("config file %s.yaml not found in any search path", currEnv)
	}

	// Load YAML config file
	if err := koanfInstance.Load(file.Provider(configFile), yaml.Parser()); err != nil {
		return nil, errors.Wrapf(err, "read %s config failed", currEnv)
	}

	existingConfigMap := koanfInstance.Raw()

	// Load environment variables
	if err := koanfInstance.Load(env.Provider(".", env.Opt{
		TransformFunc: func(k, v string) (string, any) {
			// Convert ENV_VAR_NAME to path and align each segment with existing YAML keys.
			// Example: POSTGRES_SSLMODE -> postgres.sslMode (not postgres.sslmode)
			key := canonicalizeEnvKey(k, existingConfigMap)

			return key, v
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env variables failed")
	}

	// Unmarshal into the config struct (case-insensitive to match env vars)
	if err := koanfInstance.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
			MatchName: func(mapKey, fieldName string) bool {
				// Case-insensitive matching for env var overrides
				return strings.EqualFold(mapKey, fieldName)
			},
		},
	}); err != nil {
		return nil, errors.Wrapf(err, "unmarshal %s config failed", currEnv)
	}

	return cfg, nil
}

func New() (*Config, error) {
	cfg, err := LoadWithEnv[Config]("config", "config", "../config", "../../config")
	if err != nil {
		return nil, err
	}

	applyDefaults(cfg)

	// Build replicas from environment variables (POSTGRES_REPLICAS_0_HOST, POSTGRES_REPLICAS_0_PORT, etc.)
	if cfg.Postgres != nil {
		cfg.Postgres.Replicas = buildReplicasFromEnv()
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.HTTP.MaxRequestBodySize) == "" {
		cfg.HTTP.MaxRequestBodySize = defaultMaxRequestBodySize
	}

	if cfg.KVStore == nil {
		cfg.KVStore = &KVStoreConfig{}
	}
	if cfg.KVStore.Driver == "" {
		cfg.KVStore.Driver = KVDriverMemory
	}
	if cfg.KVStore.OpTimeout <= 0 {
		cfg.KVStore.OpTimeout = defaultKVOpTimeout
	}

	if cfg.Commerce == nil {
		cfg.Commerce = &CommerceConfig{}
	}
	if cfg.Commerce.Timeout <= 0 {
		cfg.Commerce.Timeout = defaultCommerceTimeout
	}

	if cfg.Checkout == nil {
		cfg.Checkout = &CheckoutConfig{}
	}
	if cfg.Checkout.FallbackCountry == "" {
		cfg.Checkout.FallbackCountry = defaultFallbackCountry
	}
	if cfg.Checkout.Currency == "" {
		cfg.Checkout.Currency = defaultCurrency
	}

	if cfg.Coupon == nil {
		cfg.Coupon = &CouponConfig{}
	}
	if cfg.Coupon.Debounce <= 0 {
		cfg.Coupon.Debounce = defaultCouponDebounce
	}

	if cfg.Session == nil {
		cfg.Session = &SessionConfig{}
	}
	if cfg.Session.CookieName == "" {
		cfg.Session.CookieName = defaultSessionCookie
	}
	if cfg.Session.IdleTTL <= 0 {
		cfg.Session.IdleTTL = defaultSessionIdleTTL
	}
	if cfg.Session.AwaitingPaymentTTL < cfg.Session.IdleTTL {
		cfg.Session.AwaitingPaymentTTL = max(defaultAwaitingPaymentTTL, cfg.Session.IdleTTL)
	}

	if cfg.Tracing == nil {
		cfg.Tracing = &TracingConfig{}
	}
	if cfg.Tracing.SampleRatio <= 0 || cfg.Tracing.SampleRatio > 1 {
		cfg.Tracing.SampleRatio = 1
	}
}

func canonicalizeEnvKey(rawKey string, existing map[string]any) string {
	segments := strings.Split(strings.ToLower(rawKey), "_")
	canonical := make([]string, 0, len(segments))
	current := existing

	for _, segment := range segments {
		if segment == "" {
			continue
		}

		if matched, next, ok := findExistingSegment(current, segment); ok {
			canonical = append(canonical, matched)
			current = next
		} else {
			canonical = append(canonical, segment)
			current = nil
		}
	}

	return strings.Join(canonical, ".")
}

func findExistingSegment(current map[string]any, segment string) (matched string, next map[string]any, ok bool) {
	if len(current) == 0 {
		return "", nil, false
	}

	needle := normalizeToken(segment)
	for key, value := range current {
		if normalizeToken(key) != needle {
			continue
		}

		child, _ := value.(map[string]any)

		return key, child, true
	}

	return "", nil, false
}

func normalizeToken(s string) string {
	var normalized strings.Builder
	normalized.Grow(len(s))

	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		normalized.WriteRune(unicode.ToLower(r))
	}

	return normalized.String()
}

// buildReplicasFromEnv builds the replicas slice from environment variables.
// Environment variable format: POSTGRES_REPLICAS_{index}_{field}
// Example: POSTGRES_REPLICAS_0_HOST, POSTGRES_REPLICAS_0_PORT, POSTGRES_REPLICAS_0_USERNAME, POSTGRES_REPLICAS_0_PASSWORD
func buildReplicasFromEnv() []postgres.ConnectionConfig {
	var replicas []postgres.ConnectionConfig

	for i := 0; ; i++ {
		prefix := "POSTGRES_REPLICAS_" + strconv.Itoa(i) + "_"

		host := os.Getenv(prefix + "HOST")
		port := os.Getenv(prefix + "PORT")
		if host == "" || port == "" {
			// No more replicas or incomplete configuration.
			break
		}

		replica := postgres.ConnectionConfig{
			Host:     host,
			Port:     port,
			UserName: os.Getenv(prefix + "USERNAME"),
			Password: os.Getenv(prefix + "PASSWORD"),
		}

		replicas = append(replicas, replica)
	}

	return replicas
}
