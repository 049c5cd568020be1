package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	validator "github.com/go-playground/validator/v10"
	migrate "github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-rental/internal/config"
	"github.com/noah-isme/backend-rental/internal/obs"
	"github.com/noah-isme/backend-rental/internal/ratelimit"
)

// Dependencies enumerates infrastructure shared across modules.
type Dependencies struct {
	DB        *pgxpool.Pool
	Redis     *redis.Client
	Validator *validator.Validate
	Limiter   ratelimit.Backend
}

// Close releases pooled connections.
func (d *Dependencies) Close(logger zerolog.Logger) {
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}
	if d.DB != nil {
		d.DB.Close()
	}
}

// OpenPostgres connects a traced pool and verifies it with a ping.
func OpenPostgres(ctx context.Context, dsn, appName string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = appName

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// OpenRedis connects an instrumented client. Instrumentation failures are
// logged, connection failures are returned.
func OpenRedis(ctx context.Context, url string, metrics bool, logger zerolog.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if metrics {
		if err := redisotel.InstrumentMetrics(client); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// NewLimiter picks the rate limit backend named by the config.
func NewLimiter(cfg *config.Config, rdb *redis.Client) (ratelimit.Backend, error) {
	const prefix = "rental:rl"
	switch cfg.RateLimitDriver {
	case "memory":
		return ratelimit.NewMemory(cfg.RateLimitWindow, cfg.RateLimitMax, prefix), nil
	case "sliding":
		return ratelimit.Sliding{Client: rdb, Prefix: prefix}, nil
	case "redis", "":
		return ratelimit.NewRedis(rdb, cfg.RateLimitWindow, cfg.RateLimitMax, prefix)
	default:
		return nil, fmt.Errorf("unknown rate limit driver %q", cfg.RateLimitDriver)
	}
}

// MigrationURL rewrites a postgres DSN for the pgx/v5 migrate driver.
func MigrationURL(dsn string) string {
	for _, scheme := range []string{"postgres://", "postgresql://"} {
		if strings.HasPrefix(dsn, scheme) {
			return "pgx5://" + strings.TrimPrefix(dsn, scheme)
		}
	}
	return dsn
}

// RunMigrations applies every pending migration from dir.
func RunMigrations(dir, dsn string) error {
	m, err := migrate.New("file://"+dir, MigrationURL(dsn))
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
