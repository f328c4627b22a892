package app

import (
	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/taskboard/internal/config"
)

// MustReadEnv loads the API configuration from the environment (and a
// .env file when present) into config.Global. Invalid settings panic.
func MustReadEnv() {
	mustReadConfig(config.NewEnvReader())
}

func mustReadConfig(r config.Reader) {
	cfg, err := r.Read()
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to read env")
		panic(err)
	}

	// Secrets are never logged.
	globalLogger.Info().
		Str("env", cfg.Env).
		Str("storage_driver", cfg.StorageDriver).
		Dict("http", zerolog.Dict().
			Str("host", cfg.HTTP.Host).
			Str("port", cfg.HTTP.Port)).
		Dict("jwt", zerolog.Dict().
			Str("issuer", cfg.JWT.Issuer).
			Dur("access_ttl", cfg.JWT.AccessTokenTTL).
			Dur("refresh_ttl", cfg.JWT.RefreshTokenTTL)).
		Dict("rate_limit", zerolog.Dict().
			Bool("enabled", cfg.RateLimit.Enabled).
			Int("limit", cfg.RateLimit.Limit).
			Dur("window", cfg.RateLimit.Window)).
		Msg("read env")

	config.SetGlobal(cfg)
}
