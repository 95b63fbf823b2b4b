package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix scopes every environment variable read by Load.
	EnvPrefix = "SHOPKIT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "SHOPKIT_DB_DSN"
	EnvDBHost = "SHOPKIT_DB_HOST"
	EnvDBUser = "SHOPKIT_DB_USER"
	EnvDBName = "SHOPKIT_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	DeviceToken  DeviceTokenConfig
	PIN          PINConfig
	PINRateLimit PINRateLimitConfig
	FeatureFlags FeatureFlagsConfig
	Loyalty      LoyaltyConfig
	Packages     PackagesConfig
	Cron         CronConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Branding     BrandingConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SHOPKIT_APP_ENV" required:"true"`
	Port         string `envconfig:"SHOPKIT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SHOPKIT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SHOPKIT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SHOPKIT_DB_DSN"`
	Driver string `envconfig:"SHOPKIT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SHOPKIT_DB_HOST"`
	LegacyPort     int    `envconfig:"SHOPKIT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SHOPKIT_DB_USER"`
	LegacyPassword string `envconfig:"SHOPKIT_DB_PASSWORD"`
	LegacyName     string `envconfig:"SHOPKIT_DB_NAME"`
	LegacySSLMode  string `envconfig:"SHOPKIT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SHOPKIT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SHOPKIT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SHOPKIT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SHOPKIT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SHOPKIT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SHOPKIT_REDIS_ADDR"`
	Password     string        `envconfig:"SHOPKIT_REDIS_PASSWORD"`
	DB           int           `envconfig:"SHOPKIT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SHOPKIT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SHOPKIT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SHOPKIT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SHOPKIT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SHOPKIT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// DeviceTokenConfig governs the short-lived JWTs minted when a POS device pairs.
type DeviceTokenConfig struct {
	Secret            string `envconfig:"SHOPKIT_DEVICE_TOKEN_SECRET" required:"true"`
	Issuer            string `envconfig:"SHOPKIT_DEVICE_TOKEN_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"SHOPKIT_DEVICE_TOKEN_EXPIRATION_MINUTES" default:"720"`
}

// TTL returns the device token lifetime.
func (d DeviceTokenConfig) TTL() time.Duration {
	if d.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(d.ExpirationMinutes) * time.Minute
}

type PINConfig struct {
	ArgonMemoryKB    int `envconfig:"SHOPKIT_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"SHOPKIT_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"SHOPKIT_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"SHOPKIT_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"SHOPKIT_ARGON_KEY_LEN" default:"32"`
}

type PINRateLimitConfig struct {
	Window      time.Duration `envconfig:"SHOPKIT_PIN_RATE_LIMIT_WINDOW" default:"1m"`
	MemberLimit int           `envconfig:"SHOPKIT_PIN_RATE_LIMIT_MEMBER_LIMIT" default:"5"`
	IPLimit     int           `envconfig:"SHOPKIT_PIN_RATE_LIMIT_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"SHOPKIT_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"SHOPKIT_AUTO_MIGRATE" default:"false"`
}

// LoyaltyConfig holds the platform-default XP curve applied when a shop has
// no curve of its own.
type LoyaltyConfig struct {
	DefaultBaseXP     int     `envconfig:"SHOPKIT_LOYALTY_DEFAULT_BASE_XP" default:"100"`
	DefaultGrowthRate float64 `envconfig:"SHOPKIT_LOYALTY_DEFAULT_GROWTH_RATE" default:"1.5"`
	DefaultMaxLevel   int     `envconfig:"SHOPKIT_LOYALTY_DEFAULT_MAX_LEVEL" default:"50"`
}

type PackagesConfig struct {
	Workers       int           `envconfig:"SHOPKIT_PACKAGE_WORKERS" default:"2"`
	QueueDepth    int           `envconfig:"SHOPKIT_PACKAGE_QUEUE_DEPTH" default:"64"`
	ProgressTTL   time.Duration `envconfig:"SHOPKIT_PACKAGE_PROGRESS_TTL" default:"1h"`
	StepDelay     time.Duration `envconfig:"SHOPKIT_PACKAGE_STEP_DELAY" default:"2s"`
	ArtifactBase  string        `envconfig:"SHOPKIT_PACKAGE_ARTIFACT_BASE" default:"https://artifacts.shopkit.dev"`
	StreamTimeout time.Duration `envconfig:"SHOPKIT_PACKAGE_STREAM_TIMEOUT" default:"10m"`
}

type CronConfig struct {
	Interval          time.Duration `envconfig:"SHOPKIT_CRON_INTERVAL" default:"24h"`
	MaxSessionAge     time.Duration `envconfig:"SHOPKIT_CRON_MAX_SESSION_AGE" default:"16h"`
	DiscountRetention time.Duration `envconfig:"SHOPKIT_CRON_DISCOUNT_RETENTION" default:"2160h"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"SHOPKIT_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	EventsTopic string `envconfig:"SHOPKIT_PUBSUB_EVENTS_TOPIC" default:"shopkit-domain-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"SHOPKIT_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"SHOPKIT_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"SHOPKIT_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

// BrandingConfig holds the platform fallbacks used by the favicon cascade.
type BrandingConfig struct {
	DefaultFaviconURL string `envconfig:"SHOPKIT_BRANDING_DEFAULT_FAVICON" default:"https://cdn.shopkit.dev/favicon.ico"`
	DefaultLogoURL    string `envconfig:"SHOPKIT_BRANDING_DEFAULT_LOGO" default:"https://cdn.shopkit.dev/logo.png"`
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
