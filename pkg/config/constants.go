package config

const (
	EnvPrefix = "STOREFRONT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	PaymentsStorePostgres = "postgres"
	PaymentsStoreMongo    = "mongo"

	EnvAppEnv        = "STOREFRONT_APP_ENV"
	EnvPort          = "STOREFRONT_APP_PORT"
	EnvDBDSN         = "STOREFRONT_DB_DSN"
	EnvDBHost        = "STOREFRONT_DB_HOST"
	EnvDBUser        = "STOREFRONT_DB_USER"
	EnvDBName        = "STOREFRONT_DB_NAME"
	EnvPaymentsStore = "STOREFRONT_PAYMENTS_STORE"
	EnvMongoURI      = "STOREFRONT_MONGO_URI"
	EnvRedisURL      = "STOREFRONT_REDIS_URL"
	EnvJWTSecret     = "STOREFRONT_JWT_SECRET"
	EnvSquareEnv     = "STOREFRONT_SQUARE_ENV"
	EnvPendingTTL    = "STOREFRONT_CHECKOUT_PENDING_TTL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
