package config

import "time"

const (
	EnvDev   = "dev"
	EnvProd  = "prod"
	EnvLocal = "local"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

var globalConfig *Config

func Global() *Config {
	return globalConfig
}

func SetGlobal(cfg *Config) {
	globalConfig = cfg
}

type Config struct {
	Env           string `env:"ENV" env-required:"true"`
	StorageDriver string `env:"STORAGE_DRIVER" env-default:"postgres"`
	HTTP          HTTPConfig
	Postgres      PostgresConfig
	JWT           JWTConfig
	RateLimit     RateLimitConfig
	Redis         RedisConfig
}

type HTTPConfig struct {
	Host            string        `env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port            string        `env:"HTTP_PORT" env-default:"3001"`
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" env-default:"10s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"5s"`
}

type PostgresConfig struct {
	Host           string        `env:"POSTGRES_HOST"`
	Port           int           `env:"POSTGRES_PORT" env-default:"5432"`
	Username       string        `env:"POSTGRES_USERNAME"`
	Password       string        `env:"POSTGRES_PASSWORD"`
	Database       string        `env:"POSTGRES_DATABASE"`
	SSLMode        string        `env:"POSTGRES_SSL_MODE" env-default:"disable"`
	ConnectTimeout time.Duration `env:"POSTGRES_CONNECT_TIMEOUT" env-default:"10s"`
	PingTimeout    time.Duration `env:"POSTGRES_PING_TIMEOUT" env-default:"10s"`
	AutoMigrate    bool          `env:"POSTGRES_AUTO_MIGRATE" env-default:"false"`
}

type JWTConfig struct {
	Issuer          string        `env:"JWT_ISSUER" env-default:"taskboard"`
	SigningKey      string        `env:"JWT_SECRET" env-required:"true"`
	AccessTokenTTL  time.Duration `env:"JWT_EXPIRATION" env-default:"15m"`
	RefreshTokenTTL time.Duration `env:"JWT_REFRESH_EXPIRATION" env-default:"168h"`
}

// RateLimitConfig mirrors the throttler of the previous backend: at most
// Limit requests per Window per client, then the client is blocked for
// BlockDuration.
type RateLimitConfig struct {
	Enabled       bool          `env:"RATE_LIMIT_ENABLED" env-default:"false"`
	Limit         int           `env:"RATE_LIMIT_LIMIT" env-default:"10"`
	Window        time.Duration `env:"RATE_LIMIT_WINDOW" env-default:"10s"`
	BlockDuration time.Duration `env:"RATE_LIMIT_BLOCK_DURATION" env-default:"5s"`
	KeyPrefix     string        `env:"RATE_LIMIT_KEY_PREFIX" env-default:"taskboard:ratelimit:"`
}

type RedisConfig struct {
	Addr        string        `env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password    string        `env:"REDIS_PASSWORD"`
	DB          int           `env:"REDIS_DB" env-default:"0"`
	DialTimeout time.Duration `env:"REDIS_DIAL_TIMEOUT" env-default:"5s"`
}
