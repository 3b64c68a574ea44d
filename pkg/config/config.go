package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	Storefront    StorefrontConfig
	Session       SessionConfig
	Delivery      DeliveryConfig
	Cart          CartConfig
	AuthRateLimit AuthRateLimitConfig
	CORS          CORSConfig
	GoogleMaps    GoogleMapsConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if cfg.Delivery.ThresholdKM <= 0 {
		return nil, fmt.Errorf("%s must be positive", EnvDeliveryThresholdKM)
	}
	if cfg.Cart.SweepInterval <= 0 {
		return nil, fmt.Errorf("%s must be positive", EnvCartSweepInterval)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"FLORET_APP_ENV" required:"true"`
	Port         string `envconfig:"FLORET_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"FLORET_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FLORET_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"FLORET_DB_DSN"`

	Host     string `envconfig:"FLORET_DB_HOST"`
	Port     int    `envconfig:"FLORET_DB_PORT" default:"5432"`
	User     string `envconfig:"FLORET_DB_USER"`
	Password string `envconfig:"FLORET_DB_PASSWORD"`
	Name     string `envconfig:"FLORET_DB_NAME"`
	SSLMode  string `envconfig:"FLORET_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FLORET_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"FLORET_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"FLORET_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FLORET_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FLORET_REDIS_URL" required:"true"`
	Password     string        `envconfig:"FLORET_REDIS_PASSWORD"`
	PoolSize     int           `envconfig:"FLORET_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FLORET_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FLORET_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FLORET_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"FLORET_REDIS_WRITE_TIMEOUT" default:"3s"`
	KeyPrefix    string        `envconfig:"FLORET_REDIS_KEY_PREFIX" default:"floret"`
}

// StorefrontConfig points at the retailer's remote commerce API.
type StorefrontConfig struct {
	BaseURL             string        `envconfig:"FLORET_STOREFRONT_API_BASE_URL" required:"true"`
	Timeout             time.Duration `envconfig:"FLORET_STOREFRONT_API_TIMEOUT" default:"5s"`
	BreakerMaxFailures  uint32        `envconfig:"FLORET_STOREFRONT_BREAKER_MAX_FAILURES" default:"5"`
	BreakerOpenInterval time.Duration `envconfig:"FLORET_STOREFRONT_BREAKER_OPEN_INTERVAL" default:"30s"`
}

type SessionConfig struct {
	// Retention is how long the auth-token cookie lives when the token carries no earlier exp.
	Retention             time.Duration `envconfig:"FLORET_SESSION_RETENTION" default:"168h"`
	TTL                   time.Duration `envconfig:"FLORET_SESSION_TTL" default:"12h"`
	ClearDurableOnSignOut bool          `envconfig:"FLORET_SESSION_CLEAR_DURABLE_ON_SIGNOUT" default:"false"`
	CookieSecure          bool          `envconfig:"FLORET_SESSION_COOKIE_SECURE" default:"true"`
	CookieDomain          string        `envconfig:"FLORET_SESSION_COOKIE_DOMAIN"`
	BroadcastChannel      string        `envconfig:"FLORET_SESSION_BROADCAST_CHANNEL" default:"session-events"`
}

type DeliveryConfig struct {
	ThresholdKM float64 `envconfig:"FLORET_DELIVERY_THRESHOLD_KM" default:"10"`
	OriginLat   float64 `envconfig:"FLORET_DELIVERY_ORIGIN_LAT" default:"12.9716"`
	OriginLng   float64 `envconfig:"FLORET_DELIVERY_ORIGIN_LNG" default:"77.5946"`
}

// CartConfig bounds how long an untouched in-memory cart is kept.
type CartConfig struct {
	IdleTTL       time.Duration `envconfig:"FLORET_CART_IDLE_TTL" default:"24h"`
	SweepInterval time.Duration `envconfig:"FLORET_CART_SWEEP_INTERVAL" default:"10m"`
}

type AuthRateLimitConfig struct {
	SignInWindow     time.Duration `envconfig:"FLORET_AUTH_RATE_LIMIT_SIGNIN_WINDOW" default:"1m"`
	SignInEmailLimit int           `envconfig:"FLORET_AUTH_RATE_LIMIT_SIGNIN_EMAIL_LIMIT" default:"5"`
	SignInIPLimit    int           `envconfig:"FLORET_AUTH_RATE_LIMIT_SIGNIN_IP_LIMIT" default:"20"`
	SignUpWindow     time.Duration `envconfig:"FLORET_AUTH_RATE_LIMIT_SIGNUP_WINDOW" default:"5m"`
	SignUpEmailLimit int           `envconfig:"FLORET_AUTH_RATE_LIMIT_SIGNUP_EMAIL_LIMIT" default:"3"`
	SignUpIPLimit    int           `envconfig:"FLORET_AUTH_RATE_LIMIT_SIGNUP_IP_LIMIT" default:"20"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"FLORET_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

type GoogleMapsConfig struct {
	APIKey string `envconfig:"FLORET_GOOGLE_MAPS_API_KEY"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"FLORET_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	var missing []string
	for _, key := range legacyDBEnvVars {
		if values[key] == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}
	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}
	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}
	db.DSN = u.String()
	return nil
}
