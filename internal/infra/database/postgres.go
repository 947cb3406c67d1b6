package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/arklim/social-platform-auth/internal/infra/config"
)

const authSchema = "auth"

// Pool sizing defaults tuned for the credential workload: every login costs
// an Argon2 verification before the row is touched, so queries arrive slowly
// relative to connection capacity and a modest pool is enough. Idle
// connections are recycled quickly because traffic is bursty around login
// storms.
const (
	defaultMaxConns        = 16
	defaultMinConns        = 2
	defaultConnLifetime    = 30 * time.Minute
	defaultConnIdleTime    = 5 * time.Minute
	defaultHealthCheckFreq = time.Minute
)

func NewPostgresPool(ctx context.Context, cfg config.PostgresSettings, log *zap.Logger) (*pgxpool.Pool, error) {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Database,
		cfg.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pgx pool config: %w", err)
	}
	applySizing(poolConfig, cfg)

	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = make(map[string]string)
	}
	poolConfig.ConnConfig.RuntimeParams["search_path"] = fmt.Sprintf("%s,public", authSchema)
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "social-platform-auth"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	log.Info("connected to postgres",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Database),
		zap.Int32("max_conns", poolConfig.MaxConns),
		zap.Int32("min_conns", poolConfig.MinConns),
	)

	return pool, nil
}

// applySizing overlays the configured limits on top of the workload
// defaults. A zero value in the config means "use the default", never
// "unlimited".
func applySizing(poolConfig *pgxpool.Config, cfg config.PostgresSettings) {
	poolConfig.MaxConns = defaultMaxConns
	poolConfig.MinConns = defaultMinConns
	poolConfig.MaxConnLifetime = defaultConnLifetime
	poolConfig.MaxConnIdleTime = defaultConnIdleTime
	poolConfig.HealthCheckPeriod = defaultHealthCheckFreq

	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	if cfg.HealthCheckPeriod > 0 {
		poolConfig.HealthCheckPeriod = cfg.HealthCheckPeriod
	}
}
