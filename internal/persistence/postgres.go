package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"go.uber.org/zap"

	"github.com/spec-kit/storefront-auth/internal/config"
)

// Postgres wraps access to a pgx connection pool.
type Postgres struct {
	Pool *pgxpool.Pool
}

// NewPostgres establishes a connection pool when DSN is provided. Without a
// DSN the pool is nil and every account operation reports the database as
// unavailable.
func NewPostgres(ctx context.Context, cfg config.PostgresConfig, logger *zap.Logger) (*Postgres, error) {
	if cfg.DSN == "" {
		logger.Warn("POSTGRES_DSN not provided; skipping database connection")
		return &Postgres{Pool: nil}, nil
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse POSTGRES_DSN: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.ConnMaxIdleSec > 0 {
		poolCfg.MaxConnIdleTime = time.Duration(cfg.ConnMaxIdleSec) * time.Second
	}
	if cfg.ConnMaxLifeSec > 0 {
		poolCfg.MaxConnLifetime = time.Duration(cfg.ConnMaxLifeSec) * time.Second
	}
	if tracer, err := queryTracer(cfg.QueryLogLevel, logger); err != nil {
		return nil, err
	} else if tracer != nil {
		poolCfg.ConnConfig.Tracer = tracer
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info("connected to postgres", zap.Int32("max_conns", poolCfg.MaxConns))
	return &Postgres{Pool: pool}, nil
}

// queryTracer routes pgx's query log to zap at or above level. "none" or an
// empty level disables it.
func queryTracer(level string, logger *zap.Logger) (*tracelog.TraceLog, error) {
	if level == "" {
		return nil, nil
	}
	logLevel, err := tracelog.LogLevelFromString(level)
	if err != nil {
		return nil, fmt.Errorf("invalid POSTGRES_QUERY_LOG_LEVEL: %w", err)
	}
	if logLevel == tracelog.LogLevelNone {
		return nil, nil
	}

	named := logger.Named("pgx")
	return &tracelog.TraceLog{
		LogLevel: logLevel,
		Logger: tracelog.LoggerFunc(func(_ context.Context, level tracelog.LogLevel, msg string, data map[string]any) {
			fields := make([]zap.Field, 0, len(data))
			for k, v := range data {
				// Bound arguments can carry password hashes.
				if k == "args" {
					continue
				}
				fields = append(fields, zap.Any(k, v))
			}
			switch level {
			case tracelog.LogLevelError:
				named.Error(msg, fields...)
			case tracelog.LogLevelWarn:
				named.Warn(msg, fields...)
			case tracelog.LogLevelInfo:
				named.Info(msg, fields...)
			default:
				named.Debug(msg, fields...)
			}
		}),
	}, nil
}

// Close releases pool resources.
func (p *Postgres) Close() {
	if p != nil && p.Pool != nil {
		p.Pool.Close()
	}
}

// Ping verifies Postgres connectivity.
func (p *Postgres) Ping(ctx context.Context) error {
	if p == nil || p.Pool == nil {
		return errors.New("postgres pool not configured")
	}
	return p.Pool.Ping(ctx)
}

// PoolHandle returns the underlying pgx pool.
func (p *Postgres) PoolHandle() *pgxpool.Pool {
	if p == nil {
		return nil
	}
	return p.Pool
}
