package persistence

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/tracelog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/storefront-auth/internal/config"
)

func TestQueryTracer(t *testing.T) {
	tracer, err := queryTracer("", zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, tracer)

	tracer, err = queryTracer("none", zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, tracer)

	_, err = queryTracer("loud", zap.NewNop())
	assert.Error(t, err)

	core, logs := observer.New(zap.DebugLevel)
	tracer, err = queryTracer("warn", zap.New(core))
	require.NoError(t, err)
	require.NotNil(t, tracer)
	assert.Equal(t, tracelog.LogLevelWarn, tracer.LogLevel)

	tracer.Logger.Log(context.Background(), tracelog.LogLevelError, "Query", map[string]any{
		"sql":  "UPDATE users SET password_hash = $1",
		"args": []any{"$2a$12$secret"},
	})
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "pgx", entry.LoggerName)
	assert.Contains(t, entry.ContextMap(), "sql")
	assert.NotContains(t, entry.ContextMap(), "args")
}

func TestNewPostgres_WithoutDSN(t *testing.T) {
	pg, err := NewPostgres(context.Background(), config.PostgresConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, pg.PoolHandle())
	assert.Error(t, pg.Ping(context.Background()))
	pg.Close()
}
