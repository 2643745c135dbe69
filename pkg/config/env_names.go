package config

// EnvPrefix is passed to envconfig; individual vars carry explicit names so
// the prefix stays a no-op and grep finds them.
const EnvPrefix = ""

const (
	EnvAppEnv   = "CITYMEDS_APP_ENV"
	EnvLogLevel = "CITYMEDS_LOG_LEVEL"

	EnvDBDSN    = "CITYMEDS_DB_DSN"
	EnvDBDriver = "CITYMEDS_DB_DRIVER"
	EnvDBHost   = "CITYMEDS_DB_HOST"
	EnvDBUser   = "CITYMEDS_DB_USER"
	EnvDBName   = "CITYMEDS_DB_NAME"

	EnvJWTSecret = "CITYMEDS_JWT_SECRET"
	EnvJWTIssuer = "CITYMEDS_JWT_ISSUER"

	EnvStorageDir = "CITYMEDS_STORAGE_DIR"

	EnvGeocodeAPIKey = "CITYMEDS_GEOCODE_API_KEY"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)
