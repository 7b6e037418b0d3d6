package persistence

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/smartcity-api/internal/config"
)

func TestMigrationFilesSortedSQLOnly(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"002_reports.sql", "001_init.sql", "README.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("--"), 0o600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "003_dir.sql"), 0o700))

	files, err := migrationFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_init.sql", "002_reports.sql"}, files)
}

func TestMigrationFilesMissingDir(t *testing.T) {
	_, err := migrationFiles(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}

func TestNilHandlesReportUnavailable(t *testing.T) {
	ctx := context.Background()

	var m *Mongo
	assert.Error(t, m.Ping(ctx))
	assert.Nil(t, m.DB())
	m.Close(ctx)

	var p *Postgres
	assert.Error(t, p.Ping(ctx))
	assert.Nil(t, p.PoolHandle())
	p.Close()

	var r *Redis
	assert.Error(t, r.Ping(ctx))
	assert.Error(t, r.Publish(ctx, "ch", []byte("{}")))
	r.Close()
}

func TestConstructorsRequireConnectionStrings(t *testing.T) {
	ctx := context.Background()

	_, err := NewMongo(ctx, config.MongoConfig{}, zap.NewNop())
	assert.Error(t, err)

	_, err = NewPostgres(ctx, config.PostgresConfig{}, zap.NewNop())
	assert.Error(t, err)

	assert.Nil(t, NewRedis(config.RedisConfig{}, zap.NewNop()))
}
