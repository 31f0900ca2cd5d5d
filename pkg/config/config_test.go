package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/catalogo-api/pkg/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.Import.BatchSize)
	assert.Equal(t, 10, cfg.Import.MaxErrors)
	assert.Equal(t, 10, cfg.Catalog.MaxDepth)
	assert.Equal(t, 3, cfg.Catalog.CreateRetries)
	assert.Equal(t, 25*time.Millisecond, cfg.Catalog.RetryBackoff)
	assert.False(t, cfg.Catalog.RenamePropagatesCategory)
	assert.False(t, cfg.Redis.Enabled())
	assert.False(t, cfg.Kafka.Enabled())
	assert.Equal(t, "catalog_events", cfg.Kafka.Topic)
}

func TestLoad_Env(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("IMPORT_BATCH_SIZE", "100")
	t.Setenv("CATEGORY_MAX_DEPTH", "6")
	t.Setenv("CATALOG_RENAME_PROPAGATES_CATEGORY", "true")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("CACHE_TTL_SECONDS", "5")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Import.BatchSize)
	assert.Equal(t, 6, cfg.Catalog.MaxDepth)
	assert.True(t, cfg.Catalog.RenamePropagatesCategory)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, 5*time.Second, cfg.Redis.TTL)
}

func TestLoad_Invalida(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")
	_, err := config.Load()
	assert.Error(t, err)
}

func TestDSN(t *testing.T) {
	c := config.DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss:word", DBName: "catalogo", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss%3Aword@db:5432/catalogo?sslmode=disable", c.ConnectionString())

	c.DatabaseURL = "postgres://x"
	assert.Equal(t, "postgres://x", c.ConnectionString())
}
