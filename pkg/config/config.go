package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	JWT          JWTConfig
	Storage      StorageConfig
	Geocode      GeocodeConfig
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
	Env          string `envconfig:"CITYMEDS_APP_ENV" required:"true"`
	LogLevel     string `envconfig:"CITYMEDS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CITYMEDS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"CITYMEDS_DB_DSN"`
	Driver string `envconfig:"CITYMEDS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CITYMEDS_DB_HOST"`
	LegacyPort     int    `envconfig:"CITYMEDS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CITYMEDS_DB_USER"`
	LegacyPassword string `envconfig:"CITYMEDS_DB_PASSWORD"`
	LegacyName     string `envconfig:"CITYMEDS_DB_NAME"`
	LegacySSLMode  string `envconfig:"CITYMEDS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CITYMEDS_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"CITYMEDS_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"CITYMEDS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CITYMEDS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type JWTConfig struct {
	Secret string `envconfig:"CITYMEDS_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"CITYMEDS_JWT_ISSUER" required:"true"`
}

// StorageConfig locates the on-device store files.
type StorageConfig struct {
	Dir string `envconfig:"CITYMEDS_STORAGE_DIR" default:".citymeds"`
}

type GeocodeConfig struct {
	APIKey  string        `envconfig:"CITYMEDS_GEOCODE_API_KEY"`
	BaseURL string        `envconfig:"CITYMEDS_GEOCODE_BASE_URL"`
	Timeout time.Duration `envconfig:"CITYMEDS_GEOCODE_TIMEOUT" default:"10s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"CITYMEDS_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"CITYMEDS_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	if strings.EqualFold(db.Driver, "sqlite") {
		return fmt.Errorf("%s is required for the sqlite driver", EnvDBDSN)
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
