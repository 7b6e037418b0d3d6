package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("APP_PORT", "")
	t.Setenv("MONGO_URI", "")
	t.Setenv("MONG_CONN", "mongodb://legacy:27017")
	t.Setenv("KEEPALIVE_URL", "")
	t.Setenv("URL", "https://example.org/health/live")
	t.Setenv("AUTH_BCRYPT_COST", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoreDriverMongo, cfg.Store.Driver)
	assert.Equal(t, "3000", cfg.App.Port)
	assert.Equal(t, "mongodb://legacy:27017", cfg.Mongo.URI)
	assert.Equal(t, "smart_city_db", cfg.Mongo.Database)
	assert.Equal(t, "https://example.org/health/live", cfg.KeepAlive.URL)
	assert.Equal(t, "@every 10m", cfg.KeepAlive.Schedule)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
	assert.Equal(t, 50*1024*1024, cfg.App.BodyLimit())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "Postgres")
	t.Setenv("APP_HOST", "127.0.0.1")
	t.Setenv("APP_PORT", "8081")
	t.Setenv("MONGO_CONNECT_TIMEOUT_SECONDS", "3")
	t.Setenv("POSTGRES_RUN_MIGRATIONS", "false")
	t.Setenv("AUTH_BCRYPT_COST", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoreDriverPostgres, cfg.Store.Driver)
	assert.Equal(t, "127.0.0.1:8081", cfg.App.Addr())
	assert.Equal(t, 3*time.Second, cfg.Mongo.ConnectTimeout())
	assert.False(t, cfg.Postgres.RunMigrations)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "sqlite")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsBadRedisDB(t *testing.T) {
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("REDIS_DB", "one")

	_, err := Load()
	assert.Error(t, err)
}
