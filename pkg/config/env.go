package config

// EnvPrefix is the envconfig prefix; every key below also resolves without it.
const EnvPrefix = "FLORET"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv       = "FLORET_APP_ENV"
	EnvPort         = "FLORET_APP_PORT"
	EnvLogLevel     = "FLORET_LOG_LEVEL"
	EnvLogWarnStack = "FLORET_LOG_WARN_STACK"

	EnvDBDSN      = "FLORET_DB_DSN"
	EnvDBHost     = "FLORET_DB_HOST"
	EnvDBPort     = "FLORET_DB_PORT"
	EnvDBUser     = "FLORET_DB_USER"
	EnvDBPassword = "FLORET_DB_PASSWORD"
	EnvDBName     = "FLORET_DB_NAME"
	EnvDBSSLMode  = "FLORET_DB_SSLMODE"

	EnvRedisURL       = "FLORET_REDIS_URL"
	EnvRedisKeyPrefix = "FLORET_REDIS_KEY_PREFIX"

	EnvStorefrontBaseURL = "FLORET_STOREFRONT_API_BASE_URL"
	EnvStorefrontTimeout = "FLORET_STOREFRONT_API_TIMEOUT"

	EnvSessionRetention             = "FLORET_SESSION_RETENTION"
	EnvSessionTTL                   = "FLORET_SESSION_TTL"
	EnvSessionClearDurableOnSignOut = "FLORET_SESSION_CLEAR_DURABLE_ON_SIGNOUT"
	EnvSessionCookieSecure          = "FLORET_SESSION_COOKIE_SECURE"

	EnvDeliveryThresholdKM = "FLORET_DELIVERY_THRESHOLD_KM"
	EnvDeliveryOriginLat   = "FLORET_DELIVERY_ORIGIN_LAT"
	EnvDeliveryOriginLng   = "FLORET_DELIVERY_ORIGIN_LNG"

	EnvCartIdleTTL       = "FLORET_CART_IDLE_TTL"
	EnvCartSweepInterval = "FLORET_CART_SWEEP_INTERVAL"

	EnvGoogleMapsAPIKey = "FLORET_GOOGLE_MAPS_API_KEY"
	EnvAutoMigrate      = "FLORET_AUTO_MIGRATE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
