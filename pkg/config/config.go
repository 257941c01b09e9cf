package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/la-reminders/pkg/errors"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Mongo        MongoConfig
	Redis        RedisConfig
	Store        StoreConfig
	Dispatch     DispatchConfig
	Metrics      MetricsConfig
	FeatureFlags FeatureFlagsConfig
}

// Load reads the process environment once. The returned config is passed
// explicitly into every constructor that needs it.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeConfiguration, err, "parsing config")
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Mongo.ensureURI(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"LA_APP_ENV" default:"dev"`
	Name         string `envconfig:"LA_APP_NAME" default:"Linux Accompaniment"`
	LogLevel     string `envconfig:"LA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN        string `envconfig:"LA_DB_DSN"`
	Driver     string `envconfig:"LA_DB_DRIVER" default:"postgres"`
	SQLitePath string `envconfig:"LA_DB_SQLITE_PATH" default:"la.db"`

	LegacyHost     string `envconfig:"LA_DB_HOST" default:"localhost"`
	LegacyPort     int    `envconfig:"LA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"LA_DB_USER"`
	LegacyPassword string `envconfig:"LA_DB_PASSWORD"`
	LegacyName     string `envconfig:"LA_DB_NAME"`
	LegacySSLMode  string `envconfig:"LA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"LA_DB_MAX_OPEN_CONNS" default:"4"`
	MaxIdleConns    int           `envconfig:"LA_DB_MAX_IDLE_CONNS" default:"2"`
	ConnMaxLifetime time.Duration `envconfig:"LA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the relational store runs on a local sqlite file.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, DriverSQLite)
}

type MongoConfig struct {
	URI        string `envconfig:"LA_MONGO_URI"`
	Host       string `envconfig:"LA_MONGO_HOST" default:"localhost"`
	Port       int    `envconfig:"LA_MONGO_PORT" default:"27017"`
	User       string `envconfig:"LA_MONGO_USER"`
	Password   string `envconfig:"LA_MONGO_PASSWORD"`
	Database   string `envconfig:"LA_MONGO_DATABASE" default:"LA"`
	Collection string `envconfig:"LA_MONGO_COLLECTION" default:"Notifications"`

	ConnectTimeout time.Duration `envconfig:"LA_MONGO_CONNECT_TIMEOUT" default:"10s"`
}

type RedisConfig struct {
	URL          string        `envconfig:"LA_REDIS_URL"`
	Address      string        `envconfig:"LA_REDIS_ADDR"`
	Password     string        `envconfig:"LA_REDIS_PASSWORD"`
	DB           int           `envconfig:"LA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LA_REDIS_POOL_SIZE" default:"2"`
	DialTimeout  time.Duration `envconfig:"LA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LA_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"LA_REDIS_WRITE_TIMEOUT" default:"3s"`
}

// Enabled reports whether a redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

// StoreConfig bounds individual store calls. Zero leaves the client default.
type StoreConfig struct {
	Timeout time.Duration `envconfig:"LA_STORE_TIMEOUT" default:"0s"`
}

type DispatchConfig struct {
	Interval       time.Duration `envconfig:"LA_DISPATCH_INTERVAL" default:"30s"`
	NotifyCommand  string        `envconfig:"LA_DISPATCH_NOTIFY_COMMAND" default:"notify-send"`
	BrowserCommand string        `envconfig:"LA_DISPATCH_BROWSER_COMMAND" default:"gnome-www-browser"`
	CommandTimeout time.Duration `envconfig:"LA_DISPATCH_COMMAND_TIMEOUT" default:"10s"`
	OrphanGrace    time.Duration `envconfig:"LA_DISPATCH_ORPHAN_GRACE" default:"10m"`
	SweepInterval  time.Duration `envconfig:"LA_DISPATCH_SWEEP_INTERVAL" default:"15m"`
	TaskTimeout    time.Duration `envconfig:"LA_DISPATCH_TASK_TIMEOUT" default:"30s"`
	LockTTL        time.Duration `envconfig:"LA_DISPATCH_LOCK_TTL" default:"5m"`
}

type MetricsConfig struct {
	TextfilePath string `envconfig:"LA_METRICS_TEXTFILE"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"LA_AUTO_MIGRATE" default:"true"`
}

func (db *DBConfig) ensureDSN() error {
	switch strings.ToLower(db.Driver) {
	case DriverSQLite:
		db.Driver = DriverSQLite
		if db.DSN == "" {
			if db.SQLitePath == "" {
				return pkgerrors.New(pkgerrors.CodeConfiguration, fmt.Sprintf("%s is required for the sqlite driver", EnvDBSQLitePath))
			}
			db.DSN = db.SQLitePath
		}
		return nil
	case DriverPostgres:
		db.Driver = DriverPostgres
	default:
		return pkgerrors.New(pkgerrors.CodeConfiguration, fmt.Sprintf("unsupported %s %q (expected %s or %s)", EnvDBDriver, db.Driver, DriverPostgres, DriverSQLite))
	}

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
		return pkgerrors.New(pkgerrors.CodeConfiguration, fmt.Sprintf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", ")))
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo(db.LegacyUser, db.LegacyPassword),
		Host:   hostPort(db.LegacyHost, db.LegacyPort),
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

func (m *MongoConfig) ensureURI() error {
	if m.Database == "" || m.Collection == "" {
		return pkgerrors.New(pkgerrors.CodeConfiguration, fmt.Sprintf("%s and %s are required", EnvMongoDatabase, EnvMongoCollection))
	}
	if m.URI != "" {
		return nil
	}
	if m.Host == "" {
		return pkgerrors.New(pkgerrors.CodeConfiguration, fmt.Sprintf("either %s or %s is required", EnvMongoURI, EnvMongoHost))
	}

	u := &url.URL{
		Scheme: "mongodb",
		Host:   hostPort(m.Host, m.Port),
	}
	if m.User != "" {
		u.User = userInfo(m.User, m.Password)
	}
	m.URI = u.String()
	return nil
}

func userInfo(user, password string) *url.Userinfo {
	if password != "" {
		return url.UserPassword(user, password)
	}
	return url.User(user)
}

func hostPort(host string, port int) string {
	if port <= 0 {
		return host
	}
	return host + ":" + strconv.Itoa(port)
}
