package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "RIDENBITE"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv   = "RIDENBITE_APP_ENV"
	EnvPort     = "RIDENBITE_APP_PORT"
	EnvDBDSN    = "RIDENBITE_DB_DSN"
	EnvDBHost   = "RIDENBITE_DB_HOST"
	EnvDBUser   = "RIDENBITE_DB_USER"
	EnvDBName   = "RIDENBITE_DB_NAME"
	EnvRedisURL = "RIDENBITE_REDIS_URL"

	EnvJWTSecret  = "RIDENBITE_JWT_SECRET"
	EnvJWTIssuer  = "RIDENBITE_JWT_ISSUER"
	EnvJWTExpMins = "RIDENBITE_JWT_EXPIRATION_MINUTES"

	EnvGatewayStoreID       = "RIDENBITE_GATEWAY_STORE_ID"
	EnvGatewayStorePassword = "RIDENBITE_GATEWAY_STORE_PASSWORD"
	EnvGatewayBaseURL       = "RIDENBITE_GATEWAY_BASE_URL"
	EnvGatewayClientBase    = "RIDENBITE_GATEWAY_CLIENT_BASE_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Gateway      GatewayConfig
	FeatureFlags FeatureFlagsConfig
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
	Env          string `envconfig:"RIDENBITE_APP_ENV" required:"true"`
	Port         string `envconfig:"RIDENBITE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"RIDENBITE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"RIDENBITE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"RIDENBITE_DB_DSN"`
	Driver string `envconfig:"RIDENBITE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"RIDENBITE_DB_HOST"`
	LegacyPort     int    `envconfig:"RIDENBITE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"RIDENBITE_DB_USER"`
	LegacyPassword string `envconfig:"RIDENBITE_DB_PASSWORD"`
	LegacyName     string `envconfig:"RIDENBITE_DB_NAME"`
	LegacySSLMode  string `envconfig:"RIDENBITE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"RIDENBITE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"RIDENBITE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"RIDENBITE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"RIDENBITE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"RIDENBITE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"RIDENBITE_REDIS_ADDR"`
	Password     string        `envconfig:"RIDENBITE_REDIS_PASSWORD"`
	DB           int           `envconfig:"RIDENBITE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"RIDENBITE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"RIDENBITE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"RIDENBITE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"RIDENBITE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"RIDENBITE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"RIDENBITE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"RIDENBITE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"RIDENBITE_JWT_EXPIRATION_MINUTES" required:"true"`
}

// GatewayConfig holds the SSLCommerz merchant credentials and endpoints.
type GatewayConfig struct {
	StoreID       string        `envconfig:"RIDENBITE_GATEWAY_STORE_ID" required:"true"`
	StorePassword string        `envconfig:"RIDENBITE_GATEWAY_STORE_PASSWORD" required:"true"`
	BaseURL       string        `envconfig:"RIDENBITE_GATEWAY_BASE_URL" default:"https://sandbox.sslcommerz.com"`
	Timeout       time.Duration `envconfig:"RIDENBITE_GATEWAY_TIMEOUT" default:"10s"`

	// ClientBaseURL is where gateway redirect handlers send the browser after
	// recording the callback outcome.
	ClientBaseURL string `envconfig:"RIDENBITE_GATEWAY_CLIENT_BASE_URL" required:"true"`

	// CallbackBaseURL is this API's public address, used to build the
	// success/fail/cancel/ipn URLs handed to the processor.
	CallbackBaseURL string `envconfig:"RIDENBITE_GATEWAY_CALLBACK_BASE_URL" required:"true"`

	IdempotencyTTL time.Duration `envconfig:"RIDENBITE_GATEWAY_IDEMPOTENCY_TTL" default:"168h"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"RIDENBITE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"RIDENBITE_AUTO_MIGRATE" default:"false"`
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
