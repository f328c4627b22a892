package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adanyl0v/taskboard/internal/config"
	"github.com/adanyl0v/taskboard/internal/services"
	"github.com/adanyl0v/taskboard/internal/storage/memory"
	"github.com/adanyl0v/taskboard/internal/storage/postgres"
)

var (
	globalPostgresPool *pgxpool.Pool
	globalStore        services.Store
)

// MustInitStorage opens the configured storage backend.
func MustInitStorage() {
	cfg := config.Global()
	switch cfg.StorageDriver {
	case config.StorageDriverMemory:
		globalStore = memory.New()
		globalLogger.Warn().Msg("using in-memory storage, data will not survive a restart")
	case config.StorageDriverPostgres:
		mustConnectPostgres()

		store := postgres.New(globalLogger, globalPostgresPool)
		if cfg.Postgres.AutoMigrate {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.Postgres.PingTimeout)
			defer cancel()

			err := store.Migrate(ctx)
			if err != nil {
				panic(err)
			}
		}
		globalStore = store
	default:
		panic(fmt.Errorf("unknown storage driver: %s", cfg.StorageDriver))
	}
}

func CloseStorage() {
	if globalPostgresPool != nil {
		globalPostgresPool.Close()
		globalLogger.Info().Msg("disconnected from postgres")
	}
}

func mustConnectPostgres() {
	cfg := config.Global().Postgres
	connURL := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Username, cfg.Password, cfg.Host,
		cfg.Port, cfg.Database, cfg.SSLMode)

	poolCfg, err := pgxpool.ParseConfig(connURL)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to parse postgres config")
		panic(err)
	}
	poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout

	globalPostgresPool, err = pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to connect to postgres")
		panic(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.PingTimeout)
	defer cancel()

	err = globalPostgresPool.Ping(ctx)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to ping postgres")
		panic(err)
	}
	globalLogger.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Database).
		Msg("connected to postgres")
}
