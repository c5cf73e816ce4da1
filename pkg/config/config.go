package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "PEACETIFAL"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "PEACETIFAL_DB_DSN"
	EnvDBHost = "PEACETIFAL_DB_HOST"
	EnvDBUser = "PEACETIFAL_DB_USER"
	EnvDBName = "PEACETIFAL_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	FeatureFlags FeatureFlagsConfig
	Reconcile    ReconcileConfig
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
	Env          string `envconfig:"PEACETIFAL_APP_ENV" required:"true"`
	Port         string `envconfig:"PEACETIFAL_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PEACETIFAL_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PEACETIFAL_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"PEACETIFAL_DB_DSN"`
	Driver string `envconfig:"PEACETIFAL_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PEACETIFAL_DB_HOST"`
	LegacyPort     int    `envconfig:"PEACETIFAL_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PEACETIFAL_DB_USER"`
	LegacyPassword string `envconfig:"PEACETIFAL_DB_PASSWORD"`
	LegacyName     string `envconfig:"PEACETIFAL_DB_NAME"`
	LegacySSLMode  string `envconfig:"PEACETIFAL_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PEACETIFAL_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PEACETIFAL_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PEACETIFAL_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PEACETIFAL_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PEACETIFAL_REDIS_URL"`
	Address      string        `envconfig:"PEACETIFAL_REDIS_ADDR"`
	Password     string        `envconfig:"PEACETIFAL_REDIS_PASSWORD"`
	DB           int           `envconfig:"PEACETIFAL_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PEACETIFAL_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PEACETIFAL_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PEACETIFAL_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PEACETIFAL_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PEACETIFAL_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"PEACETIFAL_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"PEACETIFAL_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"PEACETIFAL_JWT_EXPIRATION_MINUTES" default:"60"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"PEACETIFAL_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"PEACETIFAL_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"PEACETIFAL_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"PEACETIFAL_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"PEACETIFAL_ARGON_KEY_LEN" default:"32"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"PEACETIFAL_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"PEACETIFAL_AUTO_MIGRATE" default:"false"`
}

// ReconcileConfig tunes the offline quantity reconciliation worker.
type ReconcileConfig struct {
	BatchSize int           `envconfig:"PEACETIFAL_RECONCILE_BATCH_SIZE" default:"200"`
	Interval  time.Duration `envconfig:"PEACETIFAL_RECONCILE_INTERVAL" default:"24h"`
	LockTTL   time.Duration `envconfig:"PEACETIFAL_RECONCILE_LOCK_TTL" default:"1h"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if strings.EqualFold(db.Driver, "sqlite") {
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
