package config

const (
	EnvPrefix = "LA"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const (
	EnvAppEnv       = "LA_APP_ENV"
	EnvAppName      = "LA_APP_NAME"
	EnvLogLevel     = "LA_LOG_LEVEL"
	EnvLogWarnStack = "LA_LOG_WARN_STACK"

	EnvDBDSN        = "LA_DB_DSN"
	EnvDBDriver     = "LA_DB_DRIVER"
	EnvDBHost       = "LA_DB_HOST"
	EnvDBPort       = "LA_DB_PORT"
	EnvDBUser       = "LA_DB_USER"
	EnvDBPassword   = "LA_DB_PASSWORD"
	EnvDBName       = "LA_DB_NAME"
	EnvDBSSLMode    = "LA_DB_SSLMODE"
	EnvDBSQLitePath = "LA_DB_SQLITE_PATH"

	EnvMongoURI        = "LA_MONGO_URI"
	EnvMongoHost       = "LA_MONGO_HOST"
	EnvMongoPort       = "LA_MONGO_PORT"
	EnvMongoUser       = "LA_MONGO_USER"
	EnvMongoPassword   = "LA_MONGO_PASSWORD"
	EnvMongoDatabase   = "LA_MONGO_DATABASE"
	EnvMongoCollection = "LA_MONGO_COLLECTION"

	EnvRedisURL  = "LA_REDIS_URL"
	EnvRedisAddr = "LA_REDIS_ADDR"

	EnvStoreTimeout = "LA_STORE_TIMEOUT"

	EnvDispatchInterval      = "LA_DISPATCH_INTERVAL"
	EnvDispatchNotifyCommand = "LA_DISPATCH_NOTIFY_COMMAND"
	EnvDispatchBrowser       = "LA_DISPATCH_BROWSER_COMMAND"
	EnvDispatchOrphanGrace   = "LA_DISPATCH_ORPHAN_GRACE"

	EnvMetricsTextfile = "LA_METRICS_TEXTFILE"
	EnvAutoMigrate     = "LA_AUTO_MIGRATE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
