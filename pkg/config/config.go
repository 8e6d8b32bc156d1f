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
	Redis        RedisConfig
	JWT          JWTConfig
	Group        GroupConfig
	RateLimit    RateLimitConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
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
	Env          string `envconfig:"HOSTELCART_APP_ENV" required:"true"`
	Port         string `envconfig:"HOSTELCART_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"HOSTELCART_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"HOSTELCART_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"HOSTELCART_DB_DSN"`
	Driver string `envconfig:"HOSTELCART_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"HOSTELCART_DB_HOST"`
	LegacyPort     int    `envconfig:"HOSTELCART_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"HOSTELCART_DB_USER"`
	LegacyPassword string `envconfig:"HOSTELCART_DB_PASSWORD"`
	LegacyName     string `envconfig:"HOSTELCART_DB_NAME"`
	LegacySSLMode  string `envconfig:"HOSTELCART_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"HOSTELCART_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"HOSTELCART_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"HOSTELCART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"HOSTELCART_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"HOSTELCART_REDIS_URL" required:"true"`
	Address      string        `envconfig:"HOSTELCART_REDIS_ADDR"`
	Password     string        `envconfig:"HOSTELCART_REDIS_PASSWORD"`
	DB           int           `envconfig:"HOSTELCART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"HOSTELCART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"HOSTELCART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"HOSTELCART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"HOSTELCART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"HOSTELCART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"HOSTELCART_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"HOSTELCART_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"HOSTELCART_JWT_EXPIRATION_MINUTES" default:"60"`
	SessionTTLMinutes int    `envconfig:"HOSTELCART_SESSION_TTL_MINUTES" default:"43200"`
}

// SessionTTL returns the session lifetime configured in minutes.
func (j JWTConfig) SessionTTL() time.Duration {
	if j.SessionTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.SessionTTLMinutes) * time.Minute
}

// GroupConfig tunes group-order behavior.
type GroupConfig struct {
	// DeliveryFee is the flat per-group delivery fee in whole currency units.
	DeliveryFee int `envconfig:"HOSTELCART_GROUP_DELIVERY_FEE" default:"10"`
	// InviteCodeAttempts bounds retries when an invite code collides with an open group.
	InviteCodeAttempts int `envconfig:"HOSTELCART_GROUP_INVITE_CODE_ATTEMPTS" default:"5"`
	// MaxMembers caps how many members may join one group.
	MaxMembers int `envconfig:"HOSTELCART_GROUP_MAX_MEMBERS" default:"20"`
}

type RateLimitConfig struct {
	JoinWindow    time.Duration `envconfig:"HOSTELCART_RATE_LIMIT_JOIN_WINDOW" default:"1m"`
	JoinIPLimit   int           `envconfig:"HOSTELCART_RATE_LIMIT_JOIN_IP_LIMIT" default:"20"`
	JoinCodeLimit int           `envconfig:"HOSTELCART_RATE_LIMIT_JOIN_CODE_LIMIT" default:"10"`
}

type PubSubConfig struct {
	GroupTopic        string `envconfig:"HOSTELCART_PUBSUB_GROUP_TOPIC" default:"hc-group-events"`
	GroupSubscription string `envconfig:"HOSTELCART_PUBSUB_GROUP_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"HOSTELCART_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"HOSTELCART_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"HOSTELCART_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"HOSTELCART_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"HOSTELCART_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"HOSTELCART_GCP_PROJECT_ID"`
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
