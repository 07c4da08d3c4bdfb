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
	Service       ServiceConfig
	DB            DBConfig
	Payments      PaymentsConfig
	Mongo         MongoConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Admin         AdminConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Square        SquareConfig
	Telegram      TelegramConfig
	Notify        NotifyConfig
	Checkout      CheckoutConfig
	GCS           GCSConfig
	Settings      SettingsConfig
	Cron          CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Payments.validate(); err != nil {
		return nil, err
	}
	if cfg.Payments.UsesPostgres() || cfg.DB.DSN != "" || cfg.DB.LegacyHost != "" {
		if err := cfg.DB.ensureDSN(); err != nil {
			return nil, err
		}
	}
	if cfg.Payments.UsesMongo() && strings.TrimSpace(cfg.Mongo.URI) == "" {
		return nil, fmt.Errorf("%s is required when %s=%s", EnvMongoURI, EnvPaymentsStore, PaymentsStoreMongo)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string `envconfig:"STOREFRONT_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
	CORSOrigins  string `envconfig:"STOREFRONT_CORS_ORIGINS" default:"*"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

// AllowedOrigins splits the comma-separated CORS origin list.
func (a AppConfig) AllowedOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(a.CORSOrigins, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

type ServiceConfig struct {
	Kind string `envconfig:"STOREFRONT_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"STOREFRONT_DB_DSN"`
	Driver string `envconfig:"STOREFRONT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"STOREFRONT_DB_HOST"`
	LegacyPort     int    `envconfig:"STOREFRONT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STOREFRONT_DB_USER"`
	LegacyPassword string `envconfig:"STOREFRONT_DB_PASSWORD"`
	LegacyName     string `envconfig:"STOREFRONT_DB_NAME"`
	LegacySSLMode  string `envconfig:"STOREFRONT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// PaymentsConfig selects the backing store for payment records.
type PaymentsConfig struct {
	Store string `envconfig:"STOREFRONT_PAYMENTS_STORE" default:"postgres"`
}

func (p PaymentsConfig) UsesMongo() bool {
	return strings.EqualFold(strings.TrimSpace(p.Store), PaymentsStoreMongo)
}

func (p PaymentsConfig) UsesPostgres() bool {
	return !p.UsesMongo()
}

func (p PaymentsConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(p.Store)) {
	case PaymentsStorePostgres, PaymentsStoreMongo:
		return nil
	default:
		return fmt.Errorf("%s must be %q or %q, got %q", EnvPaymentsStore, PaymentsStorePostgres, PaymentsStoreMongo, p.Store)
	}
}

type MongoConfig struct {
	URI              string        `envconfig:"STOREFRONT_MONGO_URI"`
	Database         string        `envconfig:"STOREFRONT_MONGO_DATABASE" default:"storefront"`
	PaymentsCollName string        `envconfig:"STOREFRONT_MONGO_PAYMENTS_COLLECTION" default:"payment_records"`
	ConnectTimeout   time.Duration `envconfig:"STOREFRONT_MONGO_CONNECT_TIMEOUT" default:"10s"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
	KeyPrefix    string        `envconfig:"STOREFRONT_REDIS_KEY_PREFIX" default:"sf"`
}

type JWTConfig struct {
	Secret            string `envconfig:"STOREFRONT_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"STOREFRONT_JWT_ISSUER" default:"storefront"`
	ExpirationMinutes int    `envconfig:"STOREFRONT_JWT_EXPIRATION_MINUTES" default:"720"`
}

// TTL returns the admin access token lifetime.
func (j JWTConfig) TTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// AdminConfig holds the single operator account. PasswordHash is an
// argon2id encoded hash produced by cmd/hashpassword.
type AdminConfig struct {
	Email        string `envconfig:"STOREFRONT_ADMIN_EMAIL"`
	PasswordHash string `envconfig:"STOREFRONT_ADMIN_PASSWORD_HASH"`
}

func (a AdminConfig) Enabled() bool {
	return strings.TrimSpace(a.Email) != "" && strings.TrimSpace(a.PasswordHash) != ""
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"STOREFRONT_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"STOREFRONT_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"STOREFRONT_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"STOREFRONT_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"STOREFRONT_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RelayWindow     time.Duration `envconfig:"STOREFRONT_RATE_LIMIT_RELAY_WINDOW" default:"1m"`
	RelayIPLimit    int           `envconfig:"STOREFRONT_RATE_LIMIT_RELAY_IP_LIMIT" default:"10"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"STOREFRONT_AUTO_MIGRATE" default:"false"`
}

// SquareConfig configures the card processor. Environment may be left blank,
// in which case it is inferred from ApplicationID.
type SquareConfig struct {
	AccessToken   string `envconfig:"STOREFRONT_SQUARE_ACCESS_TOKEN"`
	ApplicationID string `envconfig:"STOREFRONT_SQUARE_APPLICATION_ID"`
	LocationID    string `envconfig:"STOREFRONT_SQUARE_LOCATION_ID"`
	Environment   string `envconfig:"STOREFRONT_SQUARE_ENV"`
}

func (s SquareConfig) Enabled() bool {
	return strings.TrimSpace(s.AccessToken) != "" && strings.TrimSpace(s.LocationID) != ""
}

type TelegramConfig struct {
	BotToken   string        `envconfig:"STOREFRONT_TELEGRAM_BOT_TOKEN"`
	ChatID     string        `envconfig:"STOREFRONT_TELEGRAM_CHAT_ID"`
	APIBaseURL string        `envconfig:"STOREFRONT_TELEGRAM_API_BASE_URL" default:"https://api.telegram.org"`
	Timeout    time.Duration `envconfig:"STOREFRONT_TELEGRAM_TIMEOUT" default:"10s"`
}

func (t TelegramConfig) Enabled() bool {
	return strings.TrimSpace(t.BotToken) != "" && strings.TrimSpace(t.ChatID) != ""
}

// NotifyConfig points the checkout notifier at a relay endpoint. When RelayURL
// is empty the API sends straight to Telegram.
type NotifyConfig struct {
	RelayURL string        `envconfig:"STOREFRONT_NOTIFY_RELAY_URL"`
	Timeout  time.Duration `envconfig:"STOREFRONT_NOTIFY_TIMEOUT" default:"10s"`
}

type CheckoutConfig struct {
	Currency       string        `envconfig:"STOREFRONT_CHECKOUT_CURRENCY" default:"USD"`
	PendingTTL     time.Duration `envconfig:"STOREFRONT_CHECKOUT_PENDING_TTL" default:"2h"`
	DeliveryTTL    time.Duration `envconfig:"STOREFRONT_CHECKOUT_DELIVERY_TTL" default:"30m"`
	IdempotencyTTL time.Duration `envconfig:"STOREFRONT_CHECKOUT_IDEMPOTENCY_TTL" default:"24h"`
}

// GCSConfig configures proof image uploads. Without explicit credentials the
// client falls back to Application Default Credentials.
type GCSConfig struct {
	BucketName      string `envconfig:"STOREFRONT_GCS_BUCKET_NAME"`
	PublicBaseURL   string `envconfig:"STOREFRONT_GCS_PUBLIC_BASE_URL" default:"https://storage.googleapis.com"`
	MaxUploadMB     int    `envconfig:"STOREFRONT_GCS_MAX_UPLOAD_MB" default:"10"`
	CredentialsJSON string `envconfig:"STOREFRONT_GCS_CREDENTIALS_JSON"`
	CredentialsFile string `envconfig:"GOOGLE_APPLICATION_CREDENTIALS"`
}

func (g GCSConfig) Enabled() bool {
	return strings.TrimSpace(g.BucketName) != ""
}

type SettingsConfig struct {
	CacheTTL time.Duration `envconfig:"STOREFRONT_SETTINGS_CACHE_TTL" default:"1m"`
}

type CronConfig struct {
	Interval      time.Duration `envconfig:"STOREFRONT_CRON_INTERVAL" default:"5m"`
	LockTTL       time.Duration `envconfig:"STOREFRONT_CRON_LOCK_TTL" default:"4m"`
	ExpiryBatch   int           `envconfig:"STOREFRONT_CRON_EXPIRY_BATCH" default:"200"`
	MetricsListen string        `envconfig:"STOREFRONT_CRON_METRICS_ADDR" default:":9091"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
