package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is applied to every envconfig lookup.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	Retention    RetentionConfig
	Cron         CronConfig
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
	Env          string `envconfig:"WAREHOUSE_APP_ENV" required:"true"`
	Port         string `envconfig:"WAREHOUSE_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"WAREHOUSE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"WAREHOUSE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"WAREHOUSE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"WAREHOUSE_DB_DSN"`
	Driver string `envconfig:"WAREHOUSE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"WAREHOUSE_DB_HOST"`
	LegacyPort     int    `envconfig:"WAREHOUSE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"WAREHOUSE_DB_USER"`
	LegacyPassword string `envconfig:"WAREHOUSE_DB_PASSWORD"`
	LegacyName     string `envconfig:"WAREHOUSE_DB_NAME"`
	LegacySSLMode  string `envconfig:"WAREHOUSE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"WAREHOUSE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"WAREHOUSE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"WAREHOUSE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"WAREHOUSE_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	ConnectRetries int           `envconfig:"WAREHOUSE_DB_CONNECT_RETRIES" default:"3"`
	ConnectBackoff time.Duration `envconfig:"WAREHOUSE_DB_CONNECT_BACKOFF" default:"100ms"`
}

// ensureDSN assembles a DSN from the legacy host/port/user fields when no DSN
// was provided directly.
func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.LegacyHost == "" || d.LegacyUser == "" || d.LegacyName == "" {
		return fmt.Errorf("either WAREHOUSE_DB_DSN or host/user/name must be set")
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.LegacyUser, d.LegacyPassword),
		Host:   fmt.Sprintf("%s:%d", d.LegacyHost, d.LegacyPort),
		Path:   d.LegacyName,
	}
	q := u.Query()
	q.Set("sslmode", d.LegacySSLMode)
	u.RawQuery = q.Encode()
	d.DSN = u.String()
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"WAREHOUSE_REDIS_URL"`
	Address      string        `envconfig:"WAREHOUSE_REDIS_ADDR"`
	Password     string        `envconfig:"WAREHOUSE_REDIS_PASSWORD"`
	DB           int           `envconfig:"WAREHOUSE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"WAREHOUSE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"WAREHOUSE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"WAREHOUSE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"WAREHOUSE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"WAREHOUSE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"WAREHOUSE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"WAREHOUSE_JWT_ISSUER" default:"warehouse-backend"`
	ExpirationMinutes int    `envconfig:"WAREHOUSE_JWT_EXPIRATION_MINUTES" default:"480"`
	SessionTTLMinutes int    `envconfig:"WAREHOUSE_SESSION_TTL_MINUTES" default:"480"`
}

// SessionTTL returns the redis session TTL configured in minutes.
func (j JWTConfig) SessionTTL() time.Duration {
	if j.SessionTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.SessionTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"WAREHOUSE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"WAREHOUSE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"WAREHOUSE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"WAREHOUSE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"WAREHOUSE_ARGON_KEY_LEN" default:"32"`
}

type RetentionConfig struct {
	SalesHistoryDays int `envconfig:"WAREHOUSE_SALES_RETENTION_DAYS" default:"365"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"WAREHOUSE_CRON_INTERVAL" default:"24h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"WAREHOUSE_AUTO_MIGRATE" default:"false"`
}
